package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/geniustaku/docuflow-backend/api/responses"
	"github.com/geniustaku/docuflow-backend/api/validators"
	"github.com/geniustaku/docuflow-backend/internal/audit"
	"github.com/geniustaku/docuflow-backend/internal/plans"
	"github.com/geniustaku/docuflow-backend/pkg/db/models"
	pkgerrors "github.com/geniustaku/docuflow-backend/pkg/errors"
	"github.com/geniustaku/docuflow-backend/pkg/logger"
)

// PlanService describes the plan methods used by the HTTP controllers.
type PlanService interface {
	Create(ctx context.Context, actor audit.Actor, input plans.CreateInput) (*models.SubscriptionPlan, error)
	Update(ctx context.Context, actor audit.Actor, id uuid.UUID, input plans.UpdateInput) (*models.SubscriptionPlan, error)
	Deactivate(ctx context.Context, actor audit.Actor, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error)
	List(ctx context.Context, activeOnly bool) ([]models.SubscriptionPlan, error)
}

type planResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Slug          string   `json:"slug"`
	PlanType      string   `json:"plan_type"`
	MonthlyPrice  string   `json:"monthly_price"`
	YearlyPrice   string   `json:"yearly_price"`
	LifetimePrice string   `json:"lifetime_price"`
	APICallQuota  int      `json:"api_call_quota"`
	Features      []string `json:"features"`
	SortOrder     int      `json:"sort_order"`
	Active        bool     `json:"active"`
}

type planCreateRequest struct {
	Name          string   `json:"name" validate:"required"`
	Slug          string   `json:"slug"`
	PlanType      string   `json:"plan_type"`
	MonthlyPrice  string   `json:"monthly_price"`
	YearlyPrice   string   `json:"yearly_price"`
	LifetimePrice string   `json:"lifetime_price"`
	APICallQuota  *int     `json:"api_call_quota"`
	Features      []string `json:"features"`
	SortOrder     int      `json:"sort_order"`
}

type planUpdateRequest struct {
	Name          *string  `json:"name"`
	PlanType      *string  `json:"plan_type"`
	MonthlyPrice  *string  `json:"monthly_price"`
	YearlyPrice   *string  `json:"yearly_price"`
	LifetimePrice *string  `json:"lifetime_price"`
	APICallQuota  *int     `json:"api_call_quota"`
	Features      []string `json:"features"`
	SortOrder     *int     `json:"sort_order"`
}

func toPlanResponse(plan *models.SubscriptionPlan) planResponse {
	return planResponse{
		ID:            plan.ID.String(),
		Name:          plan.Name,
		Slug:          plan.Slug,
		PlanType:      plan.PlanType,
		MonthlyPrice:  plan.MonthlyPrice.StringFixed(2),
		YearlyPrice:   plan.YearlyPrice.StringFixed(2),
		LifetimePrice: plan.LifetimePrice.StringFixed(2),
		APICallQuota:  plan.APICallQuota,
		Features:      plan.Features,
		SortOrder:     plan.SortOrder,
		Active:        plan.Active,
	}
}

func parseMoney(value, field string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return amount, nil
}

func AdminPlanCreate(svc PlanService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req planCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := plans.CreateInput{
			Name:         strings.TrimSpace(req.Name),
			Slug:         req.Slug,
			PlanType:     req.PlanType,
			APICallQuota: req.APICallQuota,
			Features:     req.Features,
			SortOrder:    req.SortOrder,
		}

		var err error
		if input.MonthlyPrice, err = parseMoney(req.MonthlyPrice, "monthly price"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if input.YearlyPrice, err = parseMoney(req.YearlyPrice, "yearly price"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if input.LifetimePrice, err = parseMoney(req.LifetimePrice, "lifetime price"); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		plan, err := svc.Create(ctx, actorFromContext(ctx), input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toPlanResponse(plan))
	}
}

func AdminPlanList(svc PlanService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		activeOnly := false
		if activeParam := strings.TrimSpace(r.URL.Query().Get("active")); activeParam != "" {
			parsed, err := strconv.ParseBool(activeParam)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid active flag"))
				return
			}
			activeOnly = parsed
		}

		list, err := svc.List(ctx, activeOnly)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := make([]planResponse, 0, len(list))
		for i := range list {
			out = append(out, toPlanResponse(&list[i]))
		}
		responses.WriteSuccess(w, map[string]any{"plans": out})
	}
}

func AdminPlanGet(svc PlanService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid plan id"))
			return
		}

		plan, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPlanResponse(plan))
	}
}

func AdminPlanUpdate(svc PlanService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid plan id"))
			return
		}

		var req planUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		input := plans.UpdateInput{
			Name:         req.Name,
			PlanType:     req.PlanType,
			APICallQuota: req.APICallQuota,
			Features:     req.Features,
			SortOrder:    req.SortOrder,
		}
		if req.MonthlyPrice != nil {
			amount, err := parseMoney(*req.MonthlyPrice, "monthly price")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.MonthlyPrice = &amount
		}
		if req.YearlyPrice != nil {
			amount, err := parseMoney(*req.YearlyPrice, "yearly price")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.YearlyPrice = &amount
		}
		if req.LifetimePrice != nil {
			amount, err := parseMoney(*req.LifetimePrice, "lifetime price")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.LifetimePrice = &amount
		}

		plan, err := svc.Update(ctx, actorFromContext(ctx), id, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPlanResponse(plan))
	}
}

// AdminPlanDelete retires a plan. Plans still referenced by companies are
// refused with a conflict.
func AdminPlanDelete(svc PlanService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid plan id"))
			return
		}

		if err := svc.Deactivate(ctx, actorFromContext(ctx), id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deactivated": true})
	}
}
