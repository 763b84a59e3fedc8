package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geniustaku/docuflow-backend/internal/audit"
	"github.com/geniustaku/docuflow-backend/internal/invoices"
	"github.com/geniustaku/docuflow-backend/pkg/db/models"
	"github.com/geniustaku/docuflow-backend/pkg/enums"
	pkgerrors "github.com/geniustaku/docuflow-backend/pkg/errors"
)

type stubInvoiceService struct {
	listResult []models.Invoice
	listErr    error
}

func (s *stubInvoiceService) Create(ctx context.Context, actor audit.Actor, input invoices.CreateInput) (*models.Invoice, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubInvoiceService) Update(ctx context.Context, actor audit.Actor, id uuid.UUID, input invoices.UpdateInput) (*models.Invoice, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubInvoiceService) Cancel(ctx context.Context, actor audit.Actor, id uuid.UUID) (*models.Invoice, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubInvoiceService) Get(ctx context.Context, ref string, companyID *uuid.UUID) (*invoices.Detail, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
}

func (s *stubInvoiceService) List(ctx context.Context, params invoices.ListQuery) ([]models.Invoice, error) {
	return s.listResult, s.listErr
}

func testInvoice(companyID uuid.UUID, status enums.InvoiceStatus, dueDate time.Time, balance string) models.Invoice {
	return models.Invoice{
		ID:                 uuid.New(),
		InvoiceNumber:      "INV-" + uuid.NewString()[:8],
		CompanyID:          companyID,
		BillingPeriodStart: dueDate.AddDate(0, -2, 0),
		BillingPeriodEnd:   dueDate.AddDate(0, -1, 0),
		IssueDate:          dueDate.AddDate(0, -1, 0),
		DueDate:            dueDate,
		Subtotal:           decimal.RequireFromString("250.00"),
		VATRate:            decimal.NewFromInt(15),
		VATAmount:          decimal.RequireFromString("37.50"),
		TotalAmount:        decimal.RequireFromString("287.50"),
		AmountPaid:         decimal.RequireFromString("287.50").Sub(decimal.RequireFromString(balance)),
		BalanceDue:         decimal.RequireFromString(balance),
		Status:             status,
	}
}

func TestTenantInvoiceListShowsOverdue(t *testing.T) {
	companyID := uuid.New()
	pastDue := time.Now().UTC().AddDate(0, 0, -10)
	futureDue := time.Now().UTC().AddDate(0, 0, 20)

	svc := &stubInvoiceService{listResult: []models.Invoice{
		testInvoice(companyID, enums.InvoiceStatusSent, pastDue, "287.50"),
		testInvoice(companyID, enums.InvoiceStatusPaid, pastDue, "0.00"),
		testInvoice(companyID, enums.InvoiceStatusPending, futureDue, "287.50"),
	}}
	handler := TenantInvoiceList(svc, controllerTestLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/invoices", nil)
	req = req.WithContext(tenantContext(req.Context(), companyID))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			Invoices []map[string]any `json:"invoices"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Invoices, 3)

	// an open invoice past its due date with a balance outstanding reads as
	// overdue; settled and not-yet-due invoices keep their stored status
	assert.Equal(t, "overdue", envelope.Data.Invoices[0]["status"])
	assert.Equal(t, "paid", envelope.Data.Invoices[1]["status"])
	assert.Equal(t, "pending", envelope.Data.Invoices[2]["status"])
}
