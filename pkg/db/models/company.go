package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/geniustaku/docuflow-backend/pkg/enums"
)

// Company is a billing customer (tenant) of the platform.
type Company struct {
	ID                 uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Code               string                   `gorm:"column:code;not null;uniqueIndex:companies_code_key"`
	Name               string                   `gorm:"column:name;not null"`
	ContactEmail       string                   `gorm:"column:contact_email;not null"`
	ContactPhone       *string                  `gorm:"column:contact_phone"`
	AddressLine1       *string                  `gorm:"column:address_line1"`
	AddressLine2       *string                  `gorm:"column:address_line2"`
	City               *string                  `gorm:"column:city"`
	Country            *string                  `gorm:"column:country"`
	VATNumber          *string                  `gorm:"column:vat_number"`
	PlanID             *uuid.UUID               `gorm:"column:plan_id;type:uuid;index"`
	SubscriptionStatus enums.SubscriptionStatus `gorm:"column:subscription_status;not null;default:'active'"`
	MonthlyAmount      decimal.Decimal          `gorm:"column:monthly_amount;type:numeric(12,2);not null;default:0"`
	BillingCycleDay    int                      `gorm:"column:billing_cycle_day;not null;default:1"`
	NextBillingDate    *time.Time               `gorm:"column:next_billing_date"`
	APIKey             string                   `gorm:"column:api_key;not null;uniqueIndex:companies_api_key_key"`
	APISecretHash      string                   `gorm:"column:api_secret_hash;not null"`
	Active             bool                     `gorm:"column:active;not null;default:true"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
