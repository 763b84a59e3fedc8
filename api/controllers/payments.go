package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/geniustaku/docuflow-backend/api/middleware"
	"github.com/geniustaku/docuflow-backend/api/responses"
	"github.com/geniustaku/docuflow-backend/api/validators"
	"github.com/geniustaku/docuflow-backend/internal/audit"
	"github.com/geniustaku/docuflow-backend/internal/payments"
	"github.com/geniustaku/docuflow-backend/pkg/db/models"
	pkgerrors "github.com/geniustaku/docuflow-backend/pkg/errors"
	"github.com/geniustaku/docuflow-backend/pkg/logger"
)

// PaymentService describes the payment methods used by the HTTP controllers.
type PaymentService interface {
	Initialize(ctx context.Context, actor audit.Actor, companyID, invoiceID uuid.UUID) (*payments.InitializeResult, error)
	Verify(ctx context.Context, actor audit.Actor, companyID *uuid.UUID, reference string) (*payments.VerifyResult, error)
}

type paymentInitializeRequest struct {
	InvoiceID string `json:"invoice_id" validate:"required"`
}

type paymentVerifyRequest struct {
	Reference string `json:"reference" validate:"required"`
}

type paymentInitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	Reference        string `json:"reference"`
	PaymentCode      string `json:"payment_code"`
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
}

type paymentResponse struct {
	ID          string  `json:"id"`
	PaymentCode string  `json:"payment_code"`
	InvoiceID   string  `json:"invoice_id"`
	Amount      string  `json:"amount"`
	Currency    string  `json:"currency"`
	Reference   string  `json:"reference"`
	Status      string  `json:"status"`
	Channel     *string `json:"channel,omitempty"`
	ProcessedAt *string `json:"processed_at,omitempty"`
}

// paymentVerifyResponse adds where the invoice landed after reconciliation,
// so the billing UI can flip to paid without a second fetch.
type paymentVerifyResponse struct {
	paymentResponse
	InvoiceStatus string `json:"invoice_status"`
}

func toPaymentResponse(payment *models.Payment) paymentResponse {
	resp := paymentResponse{
		ID:          payment.ID.String(),
		PaymentCode: payment.PaymentCode,
		InvoiceID:   payment.InvoiceID.String(),
		Amount:      payment.Amount.StringFixed(2),
		Currency:    payment.Currency,
		Reference:   payment.Reference,
		Status:      payment.Status.String(),
		Channel:     payment.Channel,
	}
	if payment.ProcessedAt != nil {
		formatted := payment.ProcessedAt.UTC().Format(timeFormat)
		resp.ProcessedAt = &formatted
	}
	return resp
}

// TenantPaymentInitialize starts a hosted checkout for one of the tenant's
// invoices.
func TenantPaymentInitialize(svc PaymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		companyID := middleware.CompanyIDFromContext(ctx)
		if companyID == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "company scope required"))
			return
		}

		var req paymentInitializeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		invoiceID, err := uuid.Parse(req.InvoiceID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invoice id"))
			return
		}

		result, err := svc.Initialize(ctx, actorFromContext(ctx), *companyID, invoiceID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, paymentInitializeResponse{
			AuthorizationURL: result.AuthorizationURL,
			Reference:        result.Reference,
			PaymentCode:      result.Payment.PaymentCode,
			Amount:           result.Payment.Amount.StringFixed(2),
			Currency:         result.Payment.Currency,
		})
	}
}

// TenantPaymentVerify asks the gateway for the settled state of a reference
// and reconciles it. Safe to call any number of times.
func TenantPaymentVerify(svc PaymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		companyID := middleware.CompanyIDFromContext(ctx)
		if companyID == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "company scope required"))
			return
		}

		var req paymentVerifyRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Verify(ctx, actorFromContext(ctx), companyID, strings.TrimSpace(req.Reference))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, paymentVerifyResponse{
			paymentResponse: toPaymentResponse(result.Payment),
			InvoiceStatus:   result.InvoiceStatus.String(),
		})
	}
}
