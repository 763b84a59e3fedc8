package payments

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/geniustaku/docuflow-backend/pkg/db/models"
	"github.com/geniustaku/docuflow-backend/pkg/enums"
)

// SuccessClaim carries the gateway facts written when a payment is settled.
type SuccessClaim struct {
	GatewayTransactionID string
	Channel              string
	GatewayResponse      json.RawMessage
	ProcessedAt          time.Time
}

// FailureClaim carries the gateway facts written when a charge fails.
type FailureClaim struct {
	GatewayStatus   string
	GatewayResponse json.RawMessage
	ProcessedAt     time.Time
}

// Repository handles payment persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByReference(ctx context.Context, reference string) (*models.Payment, error)
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.Payment, error)

	// ClaimSuccess flips a payment to success with a single conditional
	// update. It reports false when another request already settled the row,
	// which is the idempotency guard for verify/webhook races.
	ClaimSuccess(ctx context.Context, id uuid.UUID, claim SuccessClaim) (bool, error)

	// ClaimFailure flips a pending payment to failed with a single conditional
	// update. It reports false when the row already left pending, so a late
	// failure verdict can never downgrade a settled payment or overwrite the
	// gateway fields the settlement wrote.
	ClaimFailure(ctx context.Context, id uuid.UUID, claim FailureClaim) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payment repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) Update(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&payment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) FindByReference(ctx context.Context, reference string) (*models.Payment, error) {
	if reference == "" {
		return nil, nil
	}
	var payment models.Payment
	if err := r.db.WithContext(ctx).
		Where("reference = ?", reference).
		First(&payment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("created_at ASC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repository) ClaimSuccess(ctx context.Context, id uuid.UUID, claim SuccessClaim) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status <> ?", id, enums.PaymentStatusSuccess).
		Updates(map[string]any{
			"status":                 enums.PaymentStatusSuccess,
			"gateway_transaction_id": claim.GatewayTransactionID,
			"channel":                claim.Channel,
			"gateway_response":       claim.GatewayResponse,
			"processed_at":           claim.ProcessedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ClaimFailure(ctx context.Context, id uuid.UUID, claim FailureClaim) (bool, error) {
	updates := map[string]any{
		"status":           enums.PaymentStatusFailed,
		"gateway_response": claim.GatewayResponse,
		"processed_at":     claim.ProcessedAt,
	}
	if claim.GatewayStatus != "" {
		updates["notes"] = claim.GatewayStatus
	}
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, enums.PaymentStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
