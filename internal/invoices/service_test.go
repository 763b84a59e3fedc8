package invoices

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/geniustaku/docuflow-backend/internal/audit"
	"github.com/geniustaku/docuflow-backend/pkg/config"
	"github.com/geniustaku/docuflow-backend/pkg/db/models"
	"github.com/geniustaku/docuflow-backend/pkg/enums"
	pkgerrors "github.com/geniustaku/docuflow-backend/pkg/errors"
)

type fakeRepository struct {
	invoices map[uuid.UUID]*models.Invoice
	items    map[uuid.UUID][]models.InvoiceItem
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		invoices: map[uuid.UUID]*models.Invoice{},
		items:    map[uuid.UUID][]models.InvoiceItem{},
	}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	f.invoices[invoice.ID] = invoice
	f.items[invoice.ID] = invoice.Items
	return nil
}

func (f *fakeRepository) Update(ctx context.Context, invoice *models.Invoice) error {
	f.invoices[invoice.ID] = invoice
	return nil
}

func (f *fakeRepository) ReplaceItems(ctx context.Context, invoiceID uuid.UUID, items []models.InvoiceItem) error {
	f.items[invoiceID] = items
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	inv := f.invoices[id]
	if inv != nil {
		inv.Items = f.items[id]
	}
	return inv, nil
}

func (f *fakeRepository) FindByNumber(ctx context.Context, number string) (*models.Invoice, error) {
	for _, inv := range f.invoices {
		if inv.InvoiceNumber == number {
			inv.Items = f.items[inv.ID]
			return inv, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) List(ctx context.Context, params ListQuery) ([]models.Invoice, error) {
	var out []models.Invoice
	for _, inv := range f.invoices {
		if params.CompanyID != nil && inv.CompanyID != *params.CompanyID {
			continue
		}
		if params.Status != nil && inv.Status != *params.Status {
			continue
		}
		out = append(out, *inv)
	}
	return out, nil
}

type fakeCompanies struct {
	companies map[uuid.UUID]*models.Company
}

func (f *fakeCompanies) FindByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	return f.companies[id], nil
}

type fakeAudit struct {
	entries []audit.RecordInput
}

func (f *fakeAudit) Record(ctx context.Context, tx *gorm.DB, input audit.RecordInput) error {
	f.entries = append(f.entries, input)
	return nil
}

func (f *fakeAudit) ListByEntity(ctx context.Context, entityType, entityID string) ([]models.AuditLog, error) {
	return nil, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fixture struct {
	svc       *Service
	repo      *fakeRepository
	audit     *fakeAudit
	companyID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newFakeRepository()
	companyID := uuid.New()
	companies := &fakeCompanies{companies: map[uuid.UUID]*models.Company{
		companyID: {ID: companyID, Name: "Acme Docs", Active: true},
	}}
	auditSvc := &fakeAudit{}
	svc, err := NewService(ServiceParams{
		Repo:       repo,
		Companies:  companies,
		Audit:      auditSvc,
		TxRunner:   fakeTxRunner{},
		BillingCfg: config.BillingConfig{DefaultVATRate: "15", DefaultCurrency: "ZAR"},
	})
	require.NoError(t, err)
	return &fixture{svc: svc, repo: repo, audit: auditSvc, companyID: companyID}
}

func (f *fixture) createInvoice(t *testing.T) *models.Invoice {
	t.Helper()
	inv, err := f.svc.Create(context.Background(), audit.SystemActor(), CreateInput{
		CompanyID:          f.companyID,
		BillingPeriodStart: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		BillingPeriodEnd:   time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC),
		Items: []ItemInput{
			{Description: "Document conversions", Quantity: decimal.NewFromInt(100), UnitPrice: decimal.RequireFromString("2.50")},
		},
	})
	require.NoError(t, err)
	return inv
}

func TestCreateInvoiceArithmetic(t *testing.T) {
	f := newFixture(t)

	inv := f.createInvoice(t)

	assert.True(t, strings.HasPrefix(inv.InvoiceNumber, "INV-"))
	assert.True(t, inv.Subtotal.Equal(decimal.RequireFromString("250.00")), "subtotal %s", inv.Subtotal)
	assert.True(t, inv.VATAmount.Equal(decimal.RequireFromString("37.50")), "vat %s", inv.VATAmount)
	assert.True(t, inv.TotalAmount.Equal(decimal.RequireFromString("287.50")), "total %s", inv.TotalAmount)
	assert.True(t, inv.AmountPaid.IsZero())
	assert.True(t, inv.BalanceDue.Equal(inv.TotalAmount))
	assert.Equal(t, enums.InvoiceStatusPending, inv.Status)
	require.Len(t, inv.Items, 1)
	assert.True(t, inv.Items[0].Amount.Equal(decimal.RequireFromString("250.00")))

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, "invoice_created", f.audit.entries[0].Action)
}

func TestCreateInvoiceValidation(t *testing.T) {
	f := newFixture(t)
	period := CreateInput{
		CompanyID:          f.companyID,
		BillingPeriodStart: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		BillingPeriodEnd:   time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC),
	}

	noItems := period
	zeroQty := period
	zeroQty.Items = []ItemInput{{Description: "x", Quantity: decimal.Zero, UnitPrice: decimal.NewFromInt(1)}}
	negPrice := period
	negPrice.Items = []ItemInput{{Description: "x", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(-1)}}
	inverted := period
	inverted.BillingPeriodEnd = period.BillingPeriodStart.AddDate(0, 0, -1)
	inverted.Items = []ItemInput{{Description: "x", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1)}}

	tests := []struct {
		name  string
		input CreateInput
	}{
		{"no items", noItems},
		{"zero quantity", zeroQty},
		{"negative unit price", negPrice},
		{"inverted period", inverted},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), audit.SystemActor(), tc.input)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

func TestCreateInvoiceUnknownCompany(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), audit.SystemActor(), CreateInput{
		CompanyID:          uuid.New(),
		BillingPeriodStart: time.Now(),
		BillingPeriodEnd:   time.Now().AddDate(0, 1, 0),
		Items:              []ItemInput{{Description: "x", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1)}},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestUpdateInvoiceReplacesItems(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)

	// simulate a partial payment so the recompute has to preserve it
	inv.AmountPaid = decimal.RequireFromString("100.00")
	inv.BalanceDue = inv.TotalAmount.Sub(inv.AmountPaid)

	updated, err := f.svc.Update(context.Background(), audit.SystemActor(), inv.ID, UpdateInput{
		Items: []ItemInput{
			{Description: "Document conversions", Quantity: decimal.NewFromInt(200), UnitPrice: decimal.RequireFromString("2.50")},
			{Description: "OCR pages", Quantity: decimal.NewFromInt(50), UnitPrice: decimal.RequireFromString("1.00")},
		},
	})
	require.NoError(t, err)

	// 500 + 50 = 550 subtotal, 82.50 vat, 632.50 total
	assert.True(t, updated.Subtotal.Equal(decimal.RequireFromString("550.00")), "subtotal %s", updated.Subtotal)
	assert.True(t, updated.VATAmount.Equal(decimal.RequireFromString("82.50")))
	assert.True(t, updated.TotalAmount.Equal(decimal.RequireFromString("632.50")))
	assert.True(t, updated.AmountPaid.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, updated.BalanceDue.Equal(decimal.RequireFromString("532.50")))

	// old line set is gone, not merged
	require.Len(t, f.repo.items[inv.ID], 2)
}

func TestUpdateInvoiceVATRateOnly(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)

	zero := decimal.Zero
	updated, err := f.svc.Update(context.Background(), audit.SystemActor(), inv.ID, UpdateInput{VATRate: &zero})
	require.NoError(t, err)

	assert.True(t, updated.Subtotal.Equal(decimal.RequireFromString("250.00")))
	assert.True(t, updated.VATAmount.IsZero())
	assert.True(t, updated.TotalAmount.Equal(decimal.RequireFromString("250.00")))
	assert.True(t, updated.BalanceDue.Equal(decimal.RequireFromString("250.00")))
}

func TestUpdateInvoiceMarkPaid(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)

	paid := enums.InvoiceStatusPaid
	updated, err := f.svc.Update(context.Background(), audit.SystemActor(), inv.ID, UpdateInput{Status: &paid})
	require.NoError(t, err)

	assert.Equal(t, enums.InvoiceStatusPaid, updated.Status)
	assert.True(t, updated.AmountPaid.Equal(updated.TotalAmount))
	assert.True(t, updated.BalanceDue.IsZero())
	require.NotNil(t, updated.PaymentDate)
}

func TestUpdateInvoiceEmptyPatch(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)

	_, err := f.svc.Update(context.Background(), audit.SystemActor(), inv.ID, UpdateInput{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestUpdateInvoiceTerminal(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)
	inv.Status = enums.InvoiceStatusCancelled

	notes := "late fee"
	_, err := f.svc.Update(context.Background(), audit.SystemActor(), inv.ID, UpdateInput{Notes: &notes})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestCancelInvoice(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)

	cancelled, err := f.svc.Cancel(context.Background(), audit.SystemActor(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusCancelled, cancelled.Status)

	// cancelling again is a no-op
	again, err := f.svc.Cancel(context.Background(), audit.SystemActor(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusCancelled, again.Status)
}

func TestCancelPaidInvoice(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)
	inv.Status = enums.InvoiceStatusPaid

	_, err := f.svc.Cancel(context.Background(), audit.SystemActor(), inv.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestGetInvoiceCanPay(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)

	// before the billing period ends the invoice is locked
	f.svc.now = func() time.Time { return time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC) }
	detail, err := f.svc.Get(context.Background(), inv.ID.String(), nil)
	require.NoError(t, err)
	assert.False(t, detail.CanPay)

	// on and after period end it unlocks
	f.svc.now = func() time.Time { return time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC) }
	detail, err = f.svc.Get(context.Background(), inv.ID.String(), nil)
	require.NoError(t, err)
	assert.True(t, detail.CanPay)

	// terminal invoices never unlock
	inv.Status = enums.InvoiceStatusPaid
	detail, err = f.svc.Get(context.Background(), inv.InvoiceNumber, nil)
	require.NoError(t, err)
	assert.False(t, detail.CanPay)
}

func TestGetInvoiceDerivesOverdue(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)
	inv.DueDate = time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	// still open before the due date
	f.svc.now = func() time.Time { return time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC) }
	detail, err := f.svc.Get(context.Background(), inv.ID.String(), nil)
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusPending, detail.DisplayStatus)

	// past the due date with a balance outstanding it reads as overdue while
	// the stored lifecycle status stays untouched
	f.svc.now = func() time.Time { return time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC) }
	detail, err = f.svc.Get(context.Background(), inv.ID.String(), nil)
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusOverdue, detail.DisplayStatus)
	assert.Equal(t, enums.InvoiceStatusPending, detail.Invoice.Status)
}

func TestDisplayStatus(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	pastDue := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		invoice models.Invoice
		want    enums.InvoiceStatus
	}{
		{"open past due", models.Invoice{Status: enums.InvoiceStatusSent, DueDate: pastDue, BalanceDue: decimal.NewFromInt(100)}, enums.InvoiceStatusOverdue},
		{"partially paid past due", models.Invoice{Status: enums.InvoiceStatusPartiallyPaid, DueDate: pastDue, BalanceDue: decimal.NewFromInt(50)}, enums.InvoiceStatusOverdue},
		{"settled past due", models.Invoice{Status: enums.InvoiceStatusPaid, DueDate: pastDue, BalanceDue: decimal.Zero}, enums.InvoiceStatusPaid},
		{"cancelled past due", models.Invoice{Status: enums.InvoiceStatusCancelled, DueDate: pastDue, BalanceDue: decimal.NewFromInt(100)}, enums.InvoiceStatusCancelled},
		{"nothing outstanding past due", models.Invoice{Status: enums.InvoiceStatusSent, DueDate: pastDue, BalanceDue: decimal.Zero}, enums.InvoiceStatusSent},
		{"not yet due", models.Invoice{Status: enums.InvoiceStatusPending, DueDate: now.AddDate(0, 0, 15), BalanceDue: decimal.NewFromInt(100)}, enums.InvoiceStatusPending},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DisplayStatus(&tc.invoice, now))
		})
	}
}

func TestGetInvoiceTenantScope(t *testing.T) {
	f := newFixture(t)
	inv := f.createInvoice(t)

	other := uuid.New()
	_, err := f.svc.Get(context.Background(), inv.ID.String(), &other)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	detail, err := f.svc.Get(context.Background(), inv.ID.String(), &f.companyID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, detail.Invoice.ID)
}
