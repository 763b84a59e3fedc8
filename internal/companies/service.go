package companies

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/geniustaku/docuflow-backend/internal/audit"
	"github.com/geniustaku/docuflow-backend/pkg/config"
	"github.com/geniustaku/docuflow-backend/pkg/db"
	"github.com/geniustaku/docuflow-backend/pkg/db/models"
	"github.com/geniustaku/docuflow-backend/pkg/enums"
	pkgerrors "github.com/geniustaku/docuflow-backend/pkg/errors"
	"github.com/geniustaku/docuflow-backend/pkg/security"
)

const entityType = "company"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the company service.
type ServiceParams struct {
	Repo        Repository
	Audit       audit.Service
	TxRunner    txRunner
	SecurityCfg config.SecurityConfig
}

// Service orchestrates company management.
type Service struct {
	repo        Repository
	audit       audit.Service
	txRunner    txRunner
	securityCfg config.SecurityConfig
}

// NewService builds a company service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "company repo required")
	}
	if params.Audit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "audit service required")
	}
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		repo:        params.Repo,
		audit:       params.Audit,
		txRunner:    params.TxRunner,
		securityCfg: params.SecurityCfg,
	}, nil
}

// CreateInput captures a new company registration.
type CreateInput struct {
	Name            string
	ContactEmail    string
	ContactPhone    *string
	AddressLine1    *string
	AddressLine2    *string
	City            *string
	Country         *string
	VATNumber       *string
	PlanID          *uuid.UUID
	MonthlyAmount   decimal.Decimal
	BillingCycleDay int
}

// CreateResult returns the company plus the freshly minted API secret, which
// is shown exactly once.
type CreateResult struct {
	Company   *models.Company
	APISecret string
}

func (s *Service) Create(ctx context.Context, actor audit.Actor, input CreateInput) (*CreateResult, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "company name is required")
	}
	if input.ContactEmail == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact email is required")
	}
	cycleDay := input.BillingCycleDay
	if cycleDay == 0 {
		cycleDay = 1
	}
	if cycleDay < 1 || cycleDay > 28 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billing cycle day must be between 1 and 28")
	}

	apiKey, apiSecret, err := security.NewAPIKeyPair()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint api credentials")
	}
	secretHash, err := security.HashSecret(apiSecret, s.securityCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash api secret")
	}

	company := &models.Company{
		Code:               db.NewCode("CMP"),
		Name:               input.Name,
		ContactEmail:       input.ContactEmail,
		ContactPhone:       input.ContactPhone,
		AddressLine1:       input.AddressLine1,
		AddressLine2:       input.AddressLine2,
		City:               input.City,
		Country:            input.Country,
		VATNumber:          input.VATNumber,
		PlanID:             input.PlanID,
		SubscriptionStatus: enums.SubscriptionStatusActive,
		MonthlyAmount:      input.MonthlyAmount,
		BillingCycleDay:    cycleDay,
		APIKey:             apiKey,
		APISecretHash:      secretHash,
		Active:             true,
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, company); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "company already exists")
			}
			return err
		}
		return s.audit.Record(ctx, tx, audit.RecordInput{
			Action:     "company_created",
			EntityType: entityType,
			EntityID:   company.ID.String(),
			Actor:      actor,
			NewValues:  company,
		})
	})
	if err != nil {
		return nil, err
	}

	return &CreateResult{Company: company, APISecret: apiSecret}, nil
}

// UpdateInput is a typed partial update; nil fields are left untouched.
type UpdateInput struct {
	Name               *string
	ContactEmail       *string
	ContactPhone       *string
	AddressLine1       *string
	AddressLine2       *string
	City               *string
	Country            *string
	VATNumber          *string
	PlanID             *uuid.UUID
	SubscriptionStatus *enums.SubscriptionStatus
	MonthlyAmount      *decimal.Decimal
	BillingCycleDay    *int
}

func (u UpdateInput) isEmpty() bool {
	return u.Name == nil && u.ContactEmail == nil && u.ContactPhone == nil &&
		u.AddressLine1 == nil && u.AddressLine2 == nil && u.City == nil &&
		u.Country == nil && u.VATNumber == nil && u.PlanID == nil &&
		u.SubscriptionStatus == nil && u.MonthlyAmount == nil && u.BillingCycleDay == nil
}

func (s *Service) Update(ctx context.Context, actor audit.Actor, id uuid.UUID, input UpdateInput) (*models.Company, error) {
	if input.isEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
	}

	before := *company

	if input.Name != nil {
		company.Name = *input.Name
	}
	if input.ContactEmail != nil {
		company.ContactEmail = *input.ContactEmail
	}
	if input.ContactPhone != nil {
		company.ContactPhone = input.ContactPhone
	}
	if input.AddressLine1 != nil {
		company.AddressLine1 = input.AddressLine1
	}
	if input.AddressLine2 != nil {
		company.AddressLine2 = input.AddressLine2
	}
	if input.City != nil {
		company.City = input.City
	}
	if input.Country != nil {
		company.Country = input.Country
	}
	if input.VATNumber != nil {
		company.VATNumber = input.VATNumber
	}
	if input.PlanID != nil {
		company.PlanID = input.PlanID
	}
	if input.SubscriptionStatus != nil {
		if !input.SubscriptionStatus.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid subscription status")
		}
		company.SubscriptionStatus = *input.SubscriptionStatus
	}
	if input.MonthlyAmount != nil {
		company.MonthlyAmount = *input.MonthlyAmount
	}
	if input.BillingCycleDay != nil {
		if *input.BillingCycleDay < 1 || *input.BillingCycleDay > 28 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "billing cycle day must be between 1 and 28")
		}
		company.BillingCycleDay = *input.BillingCycleDay
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, company); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, audit.RecordInput{
			Action:     "company_updated",
			EntityType: entityType,
			EntityID:   company.ID.String(),
			Actor:      actor,
			OldValues:  before,
			NewValues:  company,
		})
	})
	if err != nil {
		return nil, err
	}
	return company, nil
}

// Deactivate soft-deletes a company. Inactive companies cannot own new
// invoices.
func (s *Service) Deactivate(ctx context.Context, actor audit.Actor, id uuid.UUID) error {
	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if company == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
	}
	if !company.Active {
		return nil
	}

	before := *company
	company.Active = false
	company.SubscriptionStatus = enums.SubscriptionStatusCancelled

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, company); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, audit.RecordInput{
			Action:     "company_deactivated",
			EntityType: entityType,
			EntityID:   company.ID.String(),
			Actor:      actor,
			OldValues:  before,
			NewValues:  company,
		})
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "company not found")
	}
	return company, nil
}

func (s *Service) List(ctx context.Context, params ListQuery) ([]models.Company, error) {
	return s.repo.List(ctx, params)
}
