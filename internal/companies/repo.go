package companies

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/geniustaku/docuflow-backend/pkg/db/models"
	"github.com/geniustaku/docuflow-backend/pkg/enums"
)

// Repository handles company persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, company *models.Company) error
	Update(ctx context.Context, company *models.Company) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
	FindByCode(ctx context.Context, code string) (*models.Company, error)
	List(ctx context.Context, params ListQuery) ([]models.Company, error)
	CountByPlan(ctx context.Context, planID uuid.UUID) (int64, error)
}

// ListQuery configures company list queries.
type ListQuery struct {
	Active *bool
	Status *enums.SubscriptionStatus
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a company repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, company *models.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *repository) Update(ctx context.Context, company *models.Company) error {
	return r.db.WithContext(ctx).Save(company).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&company).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Company, error) {
	if code == "" {
		return nil, nil
	}
	var company models.Company
	if err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&company).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

func (r *repository) List(ctx context.Context, params ListQuery) ([]models.Company, error) {
	query := r.db.WithContext(ctx).Model(&models.Company{})
	if params.Active != nil {
		query = query.Where("active = ?", *params.Active)
	}
	if params.Status != nil {
		query = query.Where("subscription_status = ?", *params.Status)
	}

	var companies []models.Company
	if err := query.Order("name ASC").Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

func (r *repository) CountByPlan(ctx context.Context, planID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Company{}).
		Where("plan_id = ?", planID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
