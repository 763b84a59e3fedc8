package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/geniustaku/docuflow-backend/pkg/enums"
)

// Invoice bills one company for one billing period.
//
// Monetary invariants held after every mutation:
// total_amount = subtotal + vat_amount, balance_due = total_amount - amount_paid.
type Invoice struct {
	ID                 uuid.UUID           `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	InvoiceNumber      string              `gorm:"column:invoice_number;not null;uniqueIndex:invoices_invoice_number_key"`
	CompanyID          uuid.UUID           `gorm:"column:company_id;type:uuid;not null;index"`
	BillingPeriodStart time.Time           `gorm:"column:billing_period_start;not null"`
	BillingPeriodEnd   time.Time           `gorm:"column:billing_period_end;not null"`
	IssueDate          time.Time           `gorm:"column:issue_date;not null"`
	DueDate            time.Time           `gorm:"column:due_date;not null"`
	Subtotal           decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	VATRate            decimal.Decimal     `gorm:"column:vat_rate;type:numeric(5,2);not null"`
	VATAmount          decimal.Decimal     `gorm:"column:vat_amount;type:numeric(12,2);not null"`
	TotalAmount        decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	AmountPaid         decimal.Decimal     `gorm:"column:amount_paid;type:numeric(12,2);not null;default:0"`
	BalanceDue         decimal.Decimal     `gorm:"column:balance_due;type:numeric(12,2);not null"`
	Status             enums.InvoiceStatus `gorm:"column:status;not null;default:'pending'"`
	PaymentDate        *time.Time          `gorm:"column:payment_date"`
	PaymentMethod      *string             `gorm:"column:payment_method"`
	PaymentReference   *string             `gorm:"column:payment_reference"`
	Notes              *string             `gorm:"column:notes"`
	Terms              *string             `gorm:"column:terms"`
	CreatedBy          *uuid.UUID          `gorm:"column:created_by;type:uuid"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Items    []InvoiceItem `gorm:"foreignKey:InvoiceID"`
	Payments []Payment     `gorm:"foreignKey:InvoiceID"`
}
