package paystackwebhook

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/geniustaku/docuflow-backend/internal/audit"
	"github.com/geniustaku/docuflow-backend/pkg/db/models"
	pkgerrors "github.com/geniustaku/docuflow-backend/pkg/errors"
	"github.com/geniustaku/docuflow-backend/pkg/logger"
	"github.com/geniustaku/docuflow-backend/pkg/paystack"
)

// reconciler is the slice of the payment service the webhook dispatches into.
type reconciler interface {
	FindByReference(ctx context.Context, reference string) (*models.Payment, error)
	ApplySuccessfulPayment(ctx context.Context, actor audit.Actor, payment *models.Payment, verification *paystack.TransactionVerification) error
	MarkPaymentFailed(ctx context.Context, actor audit.Actor, payment *models.Payment, gatewayStatus string, raw json.RawMessage) error
}

// ServiceParams groups dependencies for the webhook service.
type ServiceParams struct {
	Payments      reconciler
	SigningSecret string
	Logger        *logger.Logger
}

// Service authenticates and dispatches Paystack webhook events.
type Service struct {
	payments      reconciler
	signingSecret string
	logger        *logger.Logger
}

// NewService builds a webhook service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment service required")
	}
	if params.SigningSecret == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook signing secret required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		payments:      params.Payments,
		signingSecret: params.SigningSecret,
		logger:        params.Logger,
	}, nil
}

// Authenticate checks the HMAC signature over the exact raw body bytes. It
// must pass before any event parsing or state change happens.
func (s *Service) Authenticate(body []byte, signature string) error {
	if !paystack.VerifySignature(s.signingSecret, body, signature) {
		return pkgerrors.New(pkgerrors.CodeSignature, "webhook signature mismatch")
	}
	return nil
}

// Process parses an authenticated event and reconciles it. Unknown event
// types are logged and ignored so Paystack can add events without breaking
// delivery.
func (s *Service) Process(ctx context.Context, body []byte) error {
	var event paystack.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook payload")
	}

	ctx = s.logger.WithFields(ctx, map[string]any{
		"event":     event.Event,
		"reference": event.Data.Reference,
	})

	switch event.Event {
	case paystack.EventChargeSuccess:
		return s.handleChargeSuccess(ctx, event.Data)
	case paystack.EventChargeFailed:
		return s.handleChargeFailed(ctx, event.Data)
	default:
		s.logger.Info(ctx, "ignoring unhandled webhook event")
		return nil
	}
}

func (s *Service) handleChargeSuccess(ctx context.Context, data paystack.EventData) error {
	payment, err := s.payments.FindByReference(ctx, data.Reference)
	if err != nil {
		return err
	}
	if payment == nil {
		// references we never initialized are not ours to reconcile
		s.logger.Warn(ctx, "webhook charge for unknown reference")
		return nil
	}

	raw, _ := json.Marshal(data)
	verification := &paystack.TransactionVerification{
		Reference:     data.Reference,
		Status:        data.Status,
		AmountMinor:   data.Amount,
		Currency:      data.Currency,
		Channel:       data.Channel,
		GatewayTxnID:  formatGatewayID(data.ID),
		GatewayStatus: data.GatewayResponse,
		PaidAt:        data.PaidAt,
		Raw:           raw,
	}
	return s.payments.ApplySuccessfulPayment(ctx, audit.GatewayActor(), payment, verification)
}

func (s *Service) handleChargeFailed(ctx context.Context, data paystack.EventData) error {
	payment, err := s.payments.FindByReference(ctx, data.Reference)
	if err != nil {
		return err
	}
	if payment == nil {
		s.logger.Warn(ctx, "webhook charge for unknown reference")
		return nil
	}

	raw, _ := json.Marshal(data)
	return s.payments.MarkPaymentFailed(ctx, audit.GatewayActor(), payment, data.GatewayResponse, raw)
}

func formatGatewayID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
