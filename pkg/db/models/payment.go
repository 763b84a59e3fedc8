package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/geniustaku/docuflow-backend/pkg/enums"
)

// Payment is one attempt to pay an invoice through the gateway. A gateway
// reference maps to at most one payment, and a payment leaves pending exactly
// once.
type Payment struct {
	ID                   uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentCode          string              `gorm:"column:payment_code;not null;uniqueIndex:payments_payment_code_key"`
	InvoiceID            uuid.UUID           `gorm:"column:invoice_id;type:uuid;not null;index"`
	CompanyID            uuid.UUID           `gorm:"column:company_id;type:uuid;not null;index"`
	Amount               decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency             string              `gorm:"column:currency;not null;default:'ZAR'"`
	Method               *string             `gorm:"column:method"`
	Reference            string              `gorm:"column:reference;not null;uniqueIndex:payments_reference_key"`
	GatewayTransactionID *string             `gorm:"column:gateway_transaction_id"`
	Channel              *string             `gorm:"column:channel"`
	Status               enums.PaymentStatus `gorm:"column:status;not null;default:'pending'"`
	GatewayResponse      json.RawMessage     `gorm:"column:gateway_response;type:jsonb"`
	ProcessedAt          *time.Time          `gorm:"column:processed_at"`
	Notes                *string             `gorm:"column:notes"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
