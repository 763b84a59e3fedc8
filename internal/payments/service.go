package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/geniustaku/docuflow-backend/internal/audit"
	"github.com/geniustaku/docuflow-backend/internal/invoices"
	"github.com/geniustaku/docuflow-backend/pkg/config"
	"github.com/geniustaku/docuflow-backend/pkg/db"
	"github.com/geniustaku/docuflow-backend/pkg/db/models"
	"github.com/geniustaku/docuflow-backend/pkg/enums"
	pkgerrors "github.com/geniustaku/docuflow-backend/pkg/errors"
	"github.com/geniustaku/docuflow-backend/pkg/paystack"
)

const entityType = "payment"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// companyFinder resolves the paying company for checkout metadata.
type companyFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
}

// gateway is the slice of the Paystack client the payment flow consumes.
type gateway interface {
	InitializeTransaction(ctx context.Context, params paystack.InitializeTransactionParams) (*paystack.TransactionAuthorization, error)
	VerifyTransaction(ctx context.Context, reference string) (*paystack.TransactionVerification, error)
}

// ServiceParams groups dependencies for the payment service.
type ServiceParams struct {
	Repo        Repository
	Invoices    invoices.Repository
	Companies   companyFinder
	Gateway     gateway
	Audit       audit.Service
	TxRunner    txRunner
	AppCfg      config.AppConfig
	PaystackCfg config.PaystackConfig
	BillingCfg  config.BillingConfig
}

// Service drives the payment flow: initialize a hosted checkout, verify the
// outcome, and reconcile settled charges onto the invoice ledger.
type Service struct {
	repo      Repository
	invoices  invoices.Repository
	companies companyFinder
	gateway   gateway
	audit     audit.Service
	txRunner  txRunner

	callbackURL string
	currency    string

	now func() time.Time
}

// NewService builds a payment service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment repo required")
	}
	if params.Invoices == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "invoice repo required")
	}
	if params.Companies == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "company finder required")
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "gateway client required")
	}
	if params.Audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "audit service required")
	}
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}

	currency := params.BillingCfg.DefaultCurrency
	if currency == "" {
		currency = "ZAR"
	}

	return &Service{
		repo:        params.Repo,
		invoices:    params.Invoices,
		companies:   params.Companies,
		gateway:     params.Gateway,
		audit:       params.Audit,
		txRunner:    params.TxRunner,
		callbackURL: params.AppCfg.BaseURL + params.PaystackCfg.CallbackPath,
		currency:    currency,
		now:         time.Now,
	}, nil
}

// InitializeResult is handed back to the tenant to complete checkout.
type InitializeResult struct {
	AuthorizationURL string
	Reference        string
	Payment          *models.Payment
}

// Initialize starts a hosted checkout for an invoice's outstanding balance.
// The invoice only unlocks once its billing period has ended, so usage billed
// within the period cannot be paid against a moving total.
func (s *Service) Initialize(ctx context.Context, actor audit.Actor, companyID, invoiceID uuid.UUID) (*InitializeResult, error) {
	invoice, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil || invoice.CompanyID != companyID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}
	if invoice.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoice is "+invoice.Status.String())
	}
	now := s.now()
	if now.Before(invoice.BillingPeriodEnd) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoice is not payable until the billing period ends").
			WithDetails(map[string]string{"payable_from": invoice.BillingPeriodEnd.Format(time.RFC3339)})
	}

	company, err := s.companies.FindByID(ctx, invoice.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
	}

	amount := invoice.BalanceDue
	amountMinor := toMinorUnits(amount)
	if amountMinor <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoice has no outstanding balance")
	}

	reference := db.NewCode("PAY") + "-" + invoice.InvoiceNumber

	auth, err := s.gateway.InitializeTransaction(ctx, paystack.InitializeTransactionParams{
		Email:       company.ContactEmail,
		AmountMinor: amountMinor,
		Currency:    s.currency,
		Reference:   reference,
		CallbackURL: s.callbackURL,
		Metadata: map[string]any{
			"invoice_number": invoice.InvoiceNumber,
			"company_code":   company.Code,
		},
	})
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		PaymentCode: db.NewCode("PMT"),
		InvoiceID:   invoice.ID,
		CompanyID:   invoice.CompanyID,
		Amount:      amount,
		Currency:    s.currency,
		Reference:   reference,
		Status:      enums.PaymentStatusPending,
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, payment); err != nil {
			if db.IsUniqueViolation(err, "payments_reference_key") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "payment reference collision")
			}
			return err
		}
		return s.audit.Record(ctx, tx, audit.RecordInput{
			Action:     "payment_initialized",
			EntityType: entityType,
			EntityID:   payment.ID.String(),
			Actor:      actor,
			NewValues:  payment,
		})
	})
	if err != nil {
		return nil, err
	}

	return &InitializeResult{
		AuthorizationURL: auth.AuthorizationURL,
		Reference:        reference,
		Payment:          payment,
	}, nil
}

// VerifyResult pairs the reconciled payment with where its invoice landed, so
// the caller learns both outcomes from a single round trip.
type VerifyResult struct {
	Payment       *models.Payment
	InvoiceStatus enums.InvoiceStatus
}

// Verify asks the gateway for the settled state of a reference and reconciles
// the outcome. Calling it repeatedly, or racing it against the webhook, moves
// money exactly once.
func (s *Service) Verify(ctx context.Context, actor audit.Actor, companyID *uuid.UUID, reference string) (*VerifyResult, error) {
	payment, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if payment == nil || (companyID != nil && payment.CompanyID != *companyID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}

	verification, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}

	switch verification.Status {
	case paystack.TransactionStatusSuccess:
		if err := s.ApplySuccessfulPayment(ctx, actor, payment, verification); err != nil {
			return nil, err
		}
	case paystack.TransactionStatusFailed, paystack.TransactionStatusAbandoned:
		if err := s.MarkPaymentFailed(ctx, actor, payment, verification.GatewayStatus, verification.Raw); err != nil {
			return nil, err
		}
	default:
		// still pending at the gateway, nothing to reconcile
	}

	reconciled, err := s.repo.FindByID(ctx, payment.ID)
	if err != nil {
		return nil, err
	}
	invoice, err := s.invoices.FindByID(ctx, payment.InvoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment references a missing invoice")
	}

	return &VerifyResult{
		Payment:       reconciled,
		InvoiceStatus: invoices.DisplayStatus(invoice, s.now()),
	}, nil
}

// FindByReference resolves a payment by gateway reference for webhook
// dispatch.
func (s *Service) FindByReference(ctx context.Context, reference string) (*models.Payment, error) {
	return s.repo.FindByReference(ctx, reference)
}

// ListByInvoice returns the payment attempts recorded against an invoice.
func (s *Service) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.Payment, error) {
	return s.repo.ListByInvoice(ctx, invoiceID)
}

// toMinorUnits converts a major-unit amount to the gateway's integer minor
// units (cents).
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// fromMinorUnits converts gateway minor units back to a major-unit decimal.
func fromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
