package controllers

import (
	"context"
	"io"
	"net/http"

	"github.com/geniustaku/docuflow-backend/api/responses"
	pkgerrors "github.com/geniustaku/docuflow-backend/pkg/errors"
	"github.com/geniustaku/docuflow-backend/pkg/logger"
)

const paystackSignatureHeader = "X-Paystack-Signature"

// WebhookService authenticates and processes gateway webhook deliveries.
type WebhookService interface {
	Authenticate(body []byte, signature string) error
	Process(ctx context.Context, body []byte) error
}

// PaystackWebhook handles gateway charge events. The signature is checked
// over the raw body before anything else; after that the handler always
// acknowledges with 200 so the gateway stops redelivering. Processing
// failures are logged and resolved through verify, never by replay.
func PaystackWebhook(svc WebhookService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		if err := svc.Authenticate(body, r.Header.Get(paystackSignatureHeader)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Process(ctx, body); err != nil && logg != nil {
			logg.Error(ctx, "webhook.process", err)
		}

		responses.WriteSuccess(w, map[string]bool{"received": true})
	}
}
