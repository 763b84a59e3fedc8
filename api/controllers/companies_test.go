package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geniustaku/docuflow-backend/api/middleware"
	"github.com/geniustaku/docuflow-backend/internal/audit"
	"github.com/geniustaku/docuflow-backend/internal/companies"
	"github.com/geniustaku/docuflow-backend/pkg/db/models"
	"github.com/geniustaku/docuflow-backend/pkg/enums"
	pkgerrors "github.com/geniustaku/docuflow-backend/pkg/errors"
	"github.com/geniustaku/docuflow-backend/pkg/logger"
)

type stubCompanyService struct {
	createResult *companies.CreateResult
	createErr    error
	getResult    *models.Company
	getErr       error

	createInput companies.CreateInput
	createActor audit.Actor
}

func (s *stubCompanyService) Create(ctx context.Context, actor audit.Actor, input companies.CreateInput) (*companies.CreateResult, error) {
	s.createActor = actor
	s.createInput = input
	return s.createResult, s.createErr
}

func (s *stubCompanyService) Update(ctx context.Context, actor audit.Actor, id uuid.UUID, input companies.UpdateInput) (*models.Company, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubCompanyService) Deactivate(ctx context.Context, actor audit.Actor, id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s *stubCompanyService) Get(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	return s.getResult, s.getErr
}

func (s *stubCompanyService) List(ctx context.Context, params companies.ListQuery) ([]models.Company, error) {
	return nil, nil
}

func controllerTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func staffContext(ctx context.Context) context.Context {
	return middleware.WithIdentity(ctx, uuid.NewString(), string(enums.ActorTypeStaff), "ops@docuflow.io", nil)
}

func testCompany() *models.Company {
	return &models.Company{
		ID:                 uuid.New(),
		Code:               "CMP-7F3K2Q9D",
		Name:               "Umzansi Scans",
		ContactEmail:       "billing@umzansiscans.co.za",
		SubscriptionStatus: enums.SubscriptionStatusActive,
		MonthlyAmount:      decimal.RequireFromString("499.00"),
		BillingCycleDay:    1,
		APIKey:             "dk_live_abc123",
		Active:             true,
		CreatedAt:          time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestAdminCompanyCreateReturnsSecretOnce(t *testing.T) {
	company := testCompany()
	svc := &stubCompanyService{createResult: &companies.CreateResult{Company: company, APISecret: "ds_live_secret"}}
	handler := AdminCompanyCreate(svc, controllerTestLogger())

	body := `{"name":"Umzansi Scans","contact_email":"billing@umzansiscans.co.za","monthly_amount":"499.00","billing_cycle_day":1}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/companies", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(staffContext(req.Context()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "ds_live_secret", envelope.Data["api_secret"])
	assert.Equal(t, company.Code, envelope.Data["code"])
	assert.Equal(t, "499.00", envelope.Data["monthly_amount"])

	assert.Equal(t, enums.ActorTypeStaff, svc.createActor.Type)
	require.NotNil(t, svc.createActor.Email)
	assert.Equal(t, "ops@docuflow.io", *svc.createActor.Email)
	assert.Equal(t, "Umzansi Scans", svc.createInput.Name)
	assert.True(t, svc.createInput.MonthlyAmount.Equal(decimal.RequireFromString("499.00")))
}

func TestAdminCompanyCreateRejectsInvalidBody(t *testing.T) {
	svc := &stubCompanyService{}
	handler := AdminCompanyCreate(svc, controllerTestLogger())

	// contact_email fails validation before the service is touched
	body := `{"name":"Umzansi Scans","contact_email":"not-an-email"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/companies", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(staffContext(req.Context()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.createInput.Name)
}

func TestAdminCompanyGet(t *testing.T) {
	company := testCompany()
	svc := &stubCompanyService{getResult: company}
	handler := AdminCompanyGet(svc, controllerTestLogger())

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", company.ID.String())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/companies/"+company.ID.String(), nil)
	req = req.WithContext(context.WithValue(staffContext(req.Context()), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, company.ID.String(), envelope.Data["id"])
	assert.NotContains(t, envelope.Data, "api_secret")
}

func TestAdminCompanyGetRejectsMalformedID(t *testing.T) {
	svc := &stubCompanyService{}
	handler := AdminCompanyGet(svc, controllerTestLogger())

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "not-a-uuid")

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/companies/not-a-uuid", nil)
	req = req.WithContext(context.WithValue(staffContext(req.Context()), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
