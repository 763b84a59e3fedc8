package invoices

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/geniustaku/docuflow-backend/internal/audit"
	"github.com/geniustaku/docuflow-backend/pkg/config"
	"github.com/geniustaku/docuflow-backend/pkg/db"
	"github.com/geniustaku/docuflow-backend/pkg/db/models"
	"github.com/geniustaku/docuflow-backend/pkg/enums"
	pkgerrors "github.com/geniustaku/docuflow-backend/pkg/errors"
)

const entityType = "invoice"

var hundred = decimal.NewFromInt(100)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// companyFinder resolves the company an invoice belongs to.
type companyFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
}

// ServiceParams groups dependencies for the invoice service.
type ServiceParams struct {
	Repo       Repository
	Companies  companyFinder
	Audit      audit.Service
	TxRunner   txRunner
	BillingCfg config.BillingConfig
}

// Service implements invoice lifecycle and arithmetic.
type Service struct {
	repo           Repository
	companies      companyFinder
	audit          audit.Service
	txRunner       txRunner
	defaultVATRate decimal.Decimal

	now func() time.Time
}

// NewService builds an invoice service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "invoice repo required")
	}
	if params.Companies == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "company finder required")
	}
	if params.Audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "audit service required")
	}
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}

	vatRate, err := decimal.NewFromString(params.BillingCfg.DefaultVATRate)
	if err != nil || vatRate.IsNegative() {
		vatRate = decimal.NewFromInt(15)
	}

	return &Service{
		repo:           params.Repo,
		companies:      params.Companies,
		audit:          params.Audit,
		txRunner:       params.TxRunner,
		defaultVATRate: vatRate,
		now:            time.Now,
	}, nil
}

// ItemInput is one line on an invoice.
type ItemInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	SortOrder   int
}

// CreateInput captures a new invoice for a billing period.
type CreateInput struct {
	CompanyID          uuid.UUID
	BillingPeriodStart time.Time
	BillingPeriodEnd   time.Time
	IssueDate          time.Time
	DueDate            time.Time
	VATRate            *decimal.Decimal
	Items              []ItemInput
	Notes              *string
	Terms              *string
	CreatedBy          *uuid.UUID
}

func (s *Service) Create(ctx context.Context, actor audit.Actor, input CreateInput) (*models.Invoice, error) {
	if input.CompanyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company id is required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice needs at least one line item")
	}
	if input.BillingPeriodStart.IsZero() || input.BillingPeriodEnd.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billing period is required")
	}
	if input.BillingPeriodEnd.Before(input.BillingPeriodStart) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billing period end precedes its start")
	}

	company, err := s.companies.FindByID(ctx, input.CompanyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
	}
	if !company.Active {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "company is deactivated")
	}

	vatRate := s.defaultVATRate
	if input.VATRate != nil {
		if input.VATRate.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "vat rate cannot be negative")
		}
		vatRate = *input.VATRate
	}

	items, subtotal, err := buildItems(input.Items)
	if err != nil {
		return nil, err
	}
	vatAmount, total := computeTotals(subtotal, vatRate)

	issueDate := input.IssueDate
	if issueDate.IsZero() {
		issueDate = s.now()
	}
	dueDate := input.DueDate
	if dueDate.IsZero() {
		dueDate = issueDate.AddDate(0, 0, 30)
	}

	invoice := &models.Invoice{
		InvoiceNumber:      db.NewCode("INV"),
		CompanyID:          input.CompanyID,
		BillingPeriodStart: input.BillingPeriodStart,
		BillingPeriodEnd:   input.BillingPeriodEnd,
		IssueDate:          issueDate,
		DueDate:            dueDate,
		Subtotal:           subtotal,
		VATRate:            vatRate,
		VATAmount:          vatAmount,
		TotalAmount:        total,
		AmountPaid:         decimal.Zero,
		BalanceDue:         total,
		Status:             enums.InvoiceStatusPending,
		Notes:              input.Notes,
		Terms:              input.Terms,
		CreatedBy:          input.CreatedBy,
		Items:              items,
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, invoice); err != nil {
			if db.IsUniqueViolation(err, "invoices_invoice_number_key") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "invoice number collision")
			}
			return err
		}
		return s.audit.Record(ctx, tx, audit.RecordInput{
			Action:     "invoice_created",
			EntityType: entityType,
			EntityID:   invoice.ID.String(),
			Actor:      actor,
			NewValues:  invoice,
		})
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// UpdateInput is a typed partial update; nil fields are left untouched.
// A non-nil Items slice replaces the full line set.
type UpdateInput struct {
	Status  *enums.InvoiceStatus
	DueDate *time.Time
	Notes   *string
	Terms   *string
	VATRate *decimal.Decimal
	Items   []ItemInput
}

func (u UpdateInput) isEmpty() bool {
	return u.Status == nil && u.DueDate == nil && u.Notes == nil &&
		u.Terms == nil && u.VATRate == nil && u.Items == nil
}

func (s *Service) Update(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateInput) (*models.Invoice, error) {
	if input.isEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}
	if invoice.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoice is "+invoice.Status.String()).
			WithDetails(map[string]string{"status": invoice.Status.String()})
	}

	before := snapshotHeader(invoice)

	if input.DueDate != nil {
		invoice.DueDate = *input.DueDate
	}
	if input.Notes != nil {
		invoice.Notes = input.Notes
	}
	if input.Terms != nil {
		invoice.Terms = input.Terms
	}

	var newItems []models.InvoiceItem
	recompute := false
	if input.Items != nil {
		if len(input.Items) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice needs at least one line item")
		}
		var subtotal decimal.Decimal
		newItems, subtotal, err = buildItems(input.Items)
		if err != nil {
			return nil, err
		}
		invoice.Subtotal = subtotal
		recompute = true
	}
	if input.VATRate != nil {
		if input.VATRate.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "vat rate cannot be negative")
		}
		invoice.VATRate = *input.VATRate
		recompute = true
	}
	if recompute {
		invoice.VATAmount, invoice.TotalAmount = computeTotals(invoice.Subtotal, invoice.VATRate)
		invoice.BalanceDue = invoice.TotalAmount.Sub(invoice.AmountPaid)
		if invoice.BalanceDue.IsNegative() {
			invoice.BalanceDue = decimal.Zero
		}
	}

	if input.Status != nil {
		if err := s.applyStatus(invoice, *input.Status); err != nil {
			return nil, err
		}
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if newItems != nil {
			if err := repo.ReplaceItems(ctx, invoice.ID, newItems); err != nil {
				return err
			}
			invoice.Items = newItems
		}
		if err := repo.Update(ctx, invoice); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, audit.RecordInput{
			Action:     "invoice_updated",
			EntityType: entityType,
			EntityID:   invoice.ID.String(),
			Actor:      actor,
			OldValues:  before,
			NewValues:  snapshotHeader(invoice),
		})
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// applyStatus validates a manual status change. Marking an invoice paid by
// hand settles the full balance.
func (s *Service) applyStatus(invoice *models.Invoice, status enums.InvoiceStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid invoice status")
	}
	if status == enums.InvoiceStatusCancelled {
		return pkgerrors.New(pkgerrors.CodeValidation, "cancel invoices through the cancel operation")
	}
	invoice.Status = status
	if status == enums.InvoiceStatusPaid {
		now := s.now()
		invoice.AmountPaid = invoice.TotalAmount
		invoice.BalanceDue = decimal.Zero
		invoice.PaymentDate = &now
	}
	return nil
}

// Cancel voids an unpaid invoice. Paid invoices are settled history and
// cannot be voided.
func (s *Service) Cancel(ctx context.Context, actor audit.Actor, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}
	if invoice.Status == enums.InvoiceStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "paid invoices cannot be cancelled")
	}
	if invoice.Status == enums.InvoiceStatusCancelled {
		return invoice, nil
	}

	before := snapshotHeader(invoice)
	invoice.Status = enums.InvoiceStatusCancelled

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, invoice); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, audit.RecordInput{
			Action:     "invoice_cancelled",
			EntityType: entityType,
			EntityID:   invoice.ID.String(),
			Actor:      actor,
			OldValues:  before,
			NewValues:  snapshotHeader(invoice),
		})
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// Detail is an invoice plus the read-time fields tenants act on.
type Detail struct {
	Invoice       *models.Invoice
	DisplayStatus enums.InvoiceStatus
	CanPay        bool
}

// Get resolves an invoice by uuid or by its INV- number. CompanyID, when
// non-nil, scopes the lookup to one tenant.
func (s *Service) Get(ctx context.Context, ref string, companyID *uuid.UUID) (*Detail, error) {
	var invoice *models.Invoice
	var err error
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		invoice, err = s.repo.FindByID(ctx, id)
	} else {
		invoice, err = s.repo.FindByNumber(ctx, ref)
	}
	if err != nil {
		return nil, err
	}
	if invoice == nil || (companyID != nil && invoice.CompanyID != *companyID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}

	return &Detail{
		Invoice:       invoice,
		DisplayStatus: DisplayStatus(invoice, s.now()),
		CanPay:        s.CanPay(invoice),
	}, nil
}

// DisplayStatus derives the status a reader should see. Overdue is never
// stored: an open invoice past its due date with a balance outstanding reads
// as overdue, while the row itself keeps its lifecycle status.
func DisplayStatus(invoice *models.Invoice, now time.Time) enums.InvoiceStatus {
	if invoice.Status.IsTerminal() {
		return invoice.Status
	}
	if invoice.BalanceDue.IsPositive() && now.After(invoice.DueDate) {
		return enums.InvoiceStatusOverdue
	}
	return invoice.Status
}

// CanPay reports whether a tenant may start a payment: the billing period
// must have ended and the invoice must not be settled or voided.
func (s *Service) CanPay(invoice *models.Invoice) bool {
	if invoice.Status.IsTerminal() {
		return false
	}
	return !s.now().Before(invoice.BillingPeriodEnd)
}

func (s *Service) List(ctx context.Context, params ListQuery) ([]models.Invoice, error) {
	return s.repo.List(ctx, params)
}

// buildItems validates line inputs and returns rows plus their subtotal.
func buildItems(inputs []ItemInput) ([]models.InvoiceItem, decimal.Decimal, error) {
	items := make([]models.InvoiceItem, 0, len(inputs))
	subtotal := decimal.Zero
	for i, in := range inputs {
		if in.Description == "" {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "line item description is required")
		}
		if !in.Quantity.IsPositive() {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "line item quantity must be positive")
		}
		if in.UnitPrice.IsNegative() {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "line item unit price cannot be negative")
		}
		amount := in.Quantity.Mul(in.UnitPrice).Round(2)
		sortOrder := in.SortOrder
		if sortOrder == 0 {
			sortOrder = i
		}
		items = append(items, models.InvoiceItem{
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			Amount:      amount,
			SortOrder:   sortOrder,
		})
		subtotal = subtotal.Add(amount)
	}
	return items, subtotal, nil
}

// computeTotals derives vat and total from a subtotal and a percentage rate.
func computeTotals(subtotal, vatRate decimal.Decimal) (vatAmount, total decimal.Decimal) {
	vatAmount = subtotal.Mul(vatRate).Div(hundred).Round(2)
	total = subtotal.Add(vatAmount)
	return vatAmount, total
}

// snapshotHeader captures the audited financial fields without dragging the
// full item/payment associations into the log.
func snapshotHeader(invoice *models.Invoice) map[string]any {
	return map[string]any{
		"invoice_number": invoice.InvoiceNumber,
		"status":         invoice.Status,
		"subtotal":       invoice.Subtotal,
		"vat_rate":       invoice.VATRate,
		"vat_amount":     invoice.VATAmount,
		"total_amount":   invoice.TotalAmount,
		"amount_paid":    invoice.AmountPaid,
		"balance_due":    invoice.BalanceDue,
		"due_date":       invoice.DueDate,
	}
}
