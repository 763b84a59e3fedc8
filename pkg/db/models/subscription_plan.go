package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// SubscriptionPlan is a pricing tier companies subscribe to.
type SubscriptionPlan struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string          `gorm:"column:name;not null"`
	Slug          string          `gorm:"column:slug;not null;uniqueIndex:subscription_plans_slug_key"`
	PlanType      string          `gorm:"column:plan_type;not null;default:'standard'"`
	MonthlyPrice  decimal.Decimal `gorm:"column:monthly_price;type:numeric(12,2);not null;default:0"`
	YearlyPrice   decimal.Decimal `gorm:"column:yearly_price;type:numeric(12,2);not null;default:0"`
	LifetimePrice decimal.Decimal `gorm:"column:lifetime_price;type:numeric(12,2);not null;default:0"`
	// APICallQuota of -1 means unlimited.
	APICallQuota int            `gorm:"column:api_call_quota;not null;default:-1"`
	Features     pq.StringArray `gorm:"column:features;type:text[];default:ARRAY[]::text[]"`
	SortOrder    int            `gorm:"column:sort_order;not null;default:0"`
	Active       bool           `gorm:"column:active;not null;default:true"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
