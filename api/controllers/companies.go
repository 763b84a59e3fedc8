package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/geniustaku/docuflow-backend/api/middleware"
	"github.com/geniustaku/docuflow-backend/api/responses"
	"github.com/geniustaku/docuflow-backend/api/validators"
	"github.com/geniustaku/docuflow-backend/internal/audit"
	"github.com/geniustaku/docuflow-backend/internal/companies"
	"github.com/geniustaku/docuflow-backend/pkg/db/models"
	"github.com/geniustaku/docuflow-backend/pkg/enums"
	pkgerrors "github.com/geniustaku/docuflow-backend/pkg/errors"
	"github.com/geniustaku/docuflow-backend/pkg/logger"
)

// CompanyService describes the company methods used by the HTTP controllers.
type CompanyService interface {
	Create(ctx context.Context, actor audit.Actor, input companies.CreateInput) (*companies.CreateResult, error)
	Update(ctx context.Context, actor audit.Actor, id uuid.UUID, input companies.UpdateInput) (*models.Company, error)
	Deactivate(ctx context.Context, actor audit.Actor, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.Company, error)
	List(ctx context.Context, params companies.ListQuery) ([]models.Company, error)
}

type companyResponse struct {
	ID                 string  `json:"id"`
	Code               string  `json:"code"`
	Name               string  `json:"name"`
	ContactEmail       string  `json:"contact_email"`
	ContactPhone       *string `json:"contact_phone,omitempty"`
	City               *string `json:"city,omitempty"`
	Country            *string `json:"country,omitempty"`
	VATNumber          *string `json:"vat_number,omitempty"`
	PlanID             *string `json:"plan_id,omitempty"`
	SubscriptionStatus string  `json:"subscription_status"`
	MonthlyAmount      string  `json:"monthly_amount"`
	BillingCycleDay    int     `json:"billing_cycle_day"`
	APIKey             string  `json:"api_key"`
	Active             bool    `json:"active"`
	CreatedAt          string  `json:"created_at"`
}

type companyCreatedResponse struct {
	companyResponse
	// APISecret is returned exactly once, at creation.
	APISecret string `json:"api_secret"`
}

type companyCreateRequest struct {
	Name            string  `json:"name" validate:"required"`
	ContactEmail    string  `json:"contact_email" validate:"required,email"`
	ContactPhone    *string `json:"contact_phone"`
	AddressLine1    *string `json:"address_line1"`
	AddressLine2    *string `json:"address_line2"`
	City            *string `json:"city"`
	Country         *string `json:"country"`
	VATNumber       *string `json:"vat_number"`
	PlanID          *string `json:"plan_id"`
	MonthlyAmount   string  `json:"monthly_amount"`
	BillingCycleDay int     `json:"billing_cycle_day" validate:"gte=0,max=28"`
}

type companyUpdateRequest struct {
	Name               *string `json:"name"`
	ContactEmail       *string `json:"contact_email"`
	ContactPhone       *string `json:"contact_phone"`
	AddressLine1       *string `json:"address_line1"`
	AddressLine2       *string `json:"address_line2"`
	City               *string `json:"city"`
	Country            *string `json:"country"`
	VATNumber          *string `json:"vat_number"`
	PlanID             *string `json:"plan_id"`
	SubscriptionStatus *string `json:"subscription_status"`
	MonthlyAmount      *string `json:"monthly_amount"`
	BillingCycleDay    *int    `json:"billing_cycle_day"`
}

func toCompanyResponse(company *models.Company) companyResponse {
	resp := companyResponse{
		ID:                 company.ID.String(),
		Code:               company.Code,
		Name:               company.Name,
		ContactEmail:       company.ContactEmail,
		ContactPhone:       company.ContactPhone,
		City:               company.City,
		Country:            company.Country,
		VATNumber:          company.VATNumber,
		SubscriptionStatus: company.SubscriptionStatus.String(),
		MonthlyAmount:      company.MonthlyAmount.StringFixed(2),
		BillingCycleDay:    company.BillingCycleDay,
		APIKey:             company.APIKey,
		Active:             company.Active,
		CreatedAt:          company.CreatedAt.UTC().Format(timeFormat),
	}
	if company.PlanID != nil {
		planID := company.PlanID.String()
		resp.PlanID = &planID
	}
	return resp
}

func AdminCompanyCreate(svc CompanyService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req companyCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := companies.CreateInput{
			Name:            strings.TrimSpace(req.Name),
			ContactEmail:    strings.TrimSpace(req.ContactEmail),
			ContactPhone:    req.ContactPhone,
			AddressLine1:    req.AddressLine1,
			AddressLine2:    req.AddressLine2,
			City:            req.City,
			Country:         req.Country,
			VATNumber:       req.VATNumber,
			BillingCycleDay: req.BillingCycleDay,
		}
		if req.PlanID != nil {
			planID, err := uuid.Parse(*req.PlanID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid plan id"))
				return
			}
			input.PlanID = &planID
		}
		if req.MonthlyAmount != "" {
			amount, err := decimal.NewFromString(req.MonthlyAmount)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid monthly amount"))
				return
			}
			input.MonthlyAmount = amount
		}

		result, err := svc.Create(ctx, actorFromContext(ctx), input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, companyCreatedResponse{
			companyResponse: toCompanyResponse(result.Company),
			APISecret:       result.APISecret,
		})
	}
}

func AdminCompanyGet(svc CompanyService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid company id"))
			return
		}

		company, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCompanyResponse(company))
	}
}

func AdminCompanyList(svc CompanyService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var params companies.ListQuery
		if activeParam := strings.TrimSpace(r.URL.Query().Get("active")); activeParam != "" {
			active, err := strconv.ParseBool(activeParam)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid active flag"))
				return
			}
			params.Active = &active
		}
		if statusParam := strings.TrimSpace(r.URL.Query().Get("status")); statusParam != "" {
			status, err := enums.ParseSubscriptionStatus(statusParam)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			params.Status = &status
		}

		list, err := svc.List(ctx, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := make([]companyResponse, 0, len(list))
		for i := range list {
			out = append(out, toCompanyResponse(&list[i]))
		}
		responses.WriteSuccess(w, map[string]any{"companies": out})
	}
}

func AdminCompanyUpdate(svc CompanyService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid company id"))
			return
		}

		var req companyUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := companies.UpdateInput{
			Name:            req.Name,
			ContactEmail:    req.ContactEmail,
			ContactPhone:    req.ContactPhone,
			AddressLine1:    req.AddressLine1,
			AddressLine2:    req.AddressLine2,
			City:            req.City,
			Country:         req.Country,
			VATNumber:       req.VATNumber,
			BillingCycleDay: req.BillingCycleDay,
		}
		if req.PlanID != nil {
			planID, err := uuid.Parse(*req.PlanID)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid plan id"))
				return
			}
			input.PlanID = &planID
		}
		if req.SubscriptionStatus != nil {
			status, err := enums.ParseSubscriptionStatus(*req.SubscriptionStatus)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid subscription status"))
				return
			}
			input.SubscriptionStatus = &status
		}
		if req.MonthlyAmount != nil {
			amount, err := decimal.NewFromString(*req.MonthlyAmount)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid monthly amount"))
				return
			}
			input.MonthlyAmount = &amount
		}

		company, err := svc.Update(ctx, actorFromContext(ctx), id, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCompanyResponse(company))
	}
}

func AdminCompanyDeactivate(svc CompanyService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid company id"))
			return
		}

		if err := svc.Deactivate(ctx, actorFromContext(ctx), id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deactivated": true})
	}
}

// actorFromContext builds the audit actor for the authenticated request.
func actorFromContext(ctx context.Context) audit.Actor {
	actorType, err := enums.ParseActorType(middleware.ActorTypeFromContext(ctx))
	if err != nil {
		return audit.SystemActor()
	}
	actor := audit.Actor{Type: actorType}
	if id, err := uuid.Parse(middleware.UserIDFromContext(ctx)); err == nil {
		actor.ID = &id
	}
	if email := middleware.EmailFromContext(ctx); email != "" {
		actor.Email = &email
	}
	return actor
}
