package plans

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/geniustaku/docuflow-backend/internal/audit"
	"github.com/geniustaku/docuflow-backend/pkg/db"
	"github.com/geniustaku/docuflow-backend/pkg/db/models"
	pkgerrors "github.com/geniustaku/docuflow-backend/pkg/errors"
)

const entityType = "subscription_plan"

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// companyCounter reports how many companies are subscribed to a plan.
type companyCounter interface {
	CountByPlan(ctx context.Context, planID uuid.UUID) (int64, error)
}

// ServiceParams groups dependencies for the plan service.
type ServiceParams struct {
	Repo      Repository
	Companies companyCounter
	Audit     audit.Service
	TxRunner  txRunner
}

// Service manages the subscription plan catalog.
type Service struct {
	repo      Repository
	companies companyCounter
	audit     audit.Service
	txRunner  txRunner
}

// NewService builds a plan service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "plan repo required")
	}
	if params.Companies == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "company counter required")
	}
	if params.Audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "audit service required")
	}
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		repo:      params.Repo,
		companies: params.Companies,
		audit:     params.Audit,
		txRunner:  params.TxRunner,
	}, nil
}

// CreateInput captures a new plan definition.
type CreateInput struct {
	Name          string
	Slug          string
	PlanType      string
	MonthlyPrice  decimal.Decimal
	YearlyPrice   decimal.Decimal
	LifetimePrice decimal.Decimal
	APICallQuota  *int
	Features      []string
	SortOrder     int
}

func (s *Service) Create(ctx context.Context, actor audit.Actor, input CreateInput) (*models.SubscriptionPlan, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan name is required")
	}
	slug := normalizeSlug(input.Slug)
	if slug == "" {
		slug = normalizeSlug(input.Name)
	}
	if !slugPattern.MatchString(slug) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan slug must be lowercase alphanumeric with hyphens")
	}
	if input.MonthlyPrice.IsNegative() || input.YearlyPrice.IsNegative() || input.LifetimePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan prices cannot be negative")
	}

	existing, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "plan slug already in use")
	}

	quota := -1
	if input.APICallQuota != nil {
		if *input.APICallQuota < -1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "api call quota must be -1 (unlimited) or non-negative")
		}
		quota = *input.APICallQuota
	}

	planType := input.PlanType
	if planType == "" {
		planType = "standard"
	}

	plan := &models.SubscriptionPlan{
		Name:          input.Name,
		Slug:          slug,
		PlanType:      planType,
		MonthlyPrice:  input.MonthlyPrice,
		YearlyPrice:   input.YearlyPrice,
		LifetimePrice: input.LifetimePrice,
		APICallQuota:  quota,
		Features:      input.Features,
		SortOrder:     input.SortOrder,
		Active:        true,
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, plan); err != nil {
			if db.IsUniqueViolation(err, "subscription_plans_slug_key") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "plan slug already in use")
			}
			return err
		}
		return s.audit.Record(ctx, tx, audit.RecordInput{
			Action:     "plan_created",
			EntityType: entityType,
			EntityID:   plan.ID.String(),
			Actor:      actor,
			NewValues:  plan,
		})
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// UpdateInput is a typed partial update; nil fields are left untouched. Slugs
// are immutable once a plan exists.
type UpdateInput struct {
	Name          *string
	PlanType      *string
	MonthlyPrice  *decimal.Decimal
	YearlyPrice   *decimal.Decimal
	LifetimePrice *decimal.Decimal
	APICallQuota  *int
	Features      []string
	SortOrder     *int
}

func (u UpdateInput) isEmpty() bool {
	return u.Name == nil && u.PlanType == nil && u.MonthlyPrice == nil &&
		u.YearlyPrice == nil && u.LifetimePrice == nil && u.APICallQuota == nil &&
		u.Features == nil && u.SortOrder == nil
}

func (s *Service) Update(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateInput) (*models.SubscriptionPlan, error) {
	if input.isEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "plan not found")
	}

	before := *plan

	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "plan name cannot be empty")
		}
		plan.Name = *input.Name
	}
	if input.PlanType != nil {
		plan.PlanType = *input.PlanType
	}
	if input.MonthlyPrice != nil {
		if input.MonthlyPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "monthly price cannot be negative")
		}
		plan.MonthlyPrice = *input.MonthlyPrice
	}
	if input.YearlyPrice != nil {
		if input.YearlyPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "yearly price cannot be negative")
		}
		plan.YearlyPrice = *input.YearlyPrice
	}
	if input.LifetimePrice != nil {
		if input.LifetimePrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "lifetime price cannot be negative")
		}
		plan.LifetimePrice = *input.LifetimePrice
	}
	if input.APICallQuota != nil {
		if *input.APICallQuota < -1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "api call quota must be -1 (unlimited) or non-negative")
		}
		plan.APICallQuota = *input.APICallQuota
	}
	if input.Features != nil {
		plan.Features = input.Features
	}
	if input.SortOrder != nil {
		plan.SortOrder = *input.SortOrder
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, plan); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, audit.RecordInput{
			Action:     "plan_updated",
			EntityType: entityType,
			EntityID:   plan.ID.String(),
			Actor:      actor,
			OldValues:  before,
			NewValues:  plan,
		})
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Deactivate retires a plan from the catalog. Plans with subscribed companies
// cannot be retired; move the companies to another plan first.
func (s *Service) Deactivate(ctx context.Context, actor audit.Actor, id uuid.UUID) error {
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if plan == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "plan not found")
	}
	if !plan.Active {
		return nil
	}

	subscribed, err := s.companies.CountByPlan(ctx, plan.ID)
	if err != nil {
		return err
	}
	if subscribed > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "plan has subscribed companies").
			WithDetails(map[string]int64{"subscribed_companies": subscribed})
	}

	before := *plan
	plan.Active = false

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, plan); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, audit.RecordInput{
			Action:     "plan_deactivated",
			EntityType: entityType,
			EntityID:   plan.ID.String(),
			Actor:      actor,
			OldValues:  before,
			NewValues:  plan,
		})
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error) {
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "plan not found")
	}
	return plan, nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]models.SubscriptionPlan, error) {
	return s.repo.List(ctx, activeOnly)
}

func normalizeSlug(value string) string {
	slug := strings.ToLower(strings.TrimSpace(value))
	slug = strings.ReplaceAll(slug, " ", "-")
	return slug
}
