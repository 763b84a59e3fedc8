package payments

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/geniustaku/docuflow-backend/internal/audit"
	"github.com/geniustaku/docuflow-backend/pkg/db/models"
	"github.com/geniustaku/docuflow-backend/pkg/enums"
	pkgerrors "github.com/geniustaku/docuflow-backend/pkg/errors"
	"github.com/geniustaku/docuflow-backend/pkg/paystack"
)

// ApplySuccessfulPayment settles a charge onto the ledger. Verify and the
// webhook both land here, so the first step is a conditional claim on the
// payment row: whoever loses the race sees zero rows updated and returns
// without touching the invoice. Applying the same charge twice is a no-op.
func (s *Service) ApplySuccessfulPayment(ctx context.Context, actor audit.Actor, payment *models.Payment, verification *paystack.TransactionVerification) error {
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		now := s.now()
		claimed, err := s.repo.WithTx(tx).ClaimSuccess(ctx, payment.ID, SuccessClaim{
			GatewayTransactionID: verification.GatewayTxnID,
			Channel:              verification.Channel,
			GatewayResponse:      verification.Raw,
			ProcessedAt:          now,
		})
		if err != nil {
			return err
		}
		if !claimed {
			return nil
		}

		invoiceRepo := s.invoices.WithTx(tx)
		invoice, err := invoiceRepo.FindByID(ctx, payment.InvoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return pkgerrors.New(pkgerrors.CodeInternal, "payment references a missing invoice")
		}

		amount := fromMinorUnits(verification.AmountMinor)
		if verification.AmountMinor <= 0 {
			amount = payment.Amount
		}

		before := map[string]any{
			"status":      invoice.Status,
			"amount_paid": invoice.AmountPaid,
			"balance_due": invoice.BalanceDue,
		}

		invoice.AmountPaid = invoice.AmountPaid.Add(amount)
		balance := invoice.TotalAmount.Sub(invoice.AmountPaid)
		if balance.IsNegative() {
			balance = decimal.Zero
		}
		invoice.BalanceDue = balance

		if balance.IsZero() {
			invoice.Status = enums.InvoiceStatusPaid
			invoice.PaymentDate = &now
		} else {
			invoice.Status = enums.InvoiceStatusPartiallyPaid
		}

		method := payment.Currency + " card"
		if verification.Channel != "" {
			method = verification.Channel
		}
		invoice.PaymentMethod = &method
		invoice.PaymentReference = &payment.Reference

		if err := invoiceRepo.Update(ctx, invoice); err != nil {
			return err
		}

		return s.audit.Record(ctx, tx, audit.RecordInput{
			Action:     "payment_applied",
			EntityType: entityType,
			EntityID:   payment.ID.String(),
			Actor:      actor,
			OldValues:  before,
			NewValues: map[string]any{
				"status":         invoice.Status,
				"amount_paid":    invoice.AmountPaid,
				"balance_due":    invoice.BalanceDue,
				"amount_applied": amount,
				"reference":      payment.Reference,
			},
		})
	})
}

// MarkPaymentFailed records a failed or abandoned charge. The invoice ledger
// is never touched: a failed attempt changes nothing about what is owed. A
// payment that already settled is never downgraded.
func (s *Service) MarkPaymentFailed(ctx context.Context, actor audit.Actor, payment *models.Payment, gatewayStatus string, raw json.RawMessage) error {
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		// The claim only fires while the row is still pending in the store,
		// so a caller holding a stale struct cannot clobber a settlement that
		// landed in between.
		claimed, err := s.repo.WithTx(tx).ClaimFailure(ctx, payment.ID, FailureClaim{
			GatewayStatus:   gatewayStatus,
			GatewayResponse: raw,
			ProcessedAt:     s.now(),
		})
		if err != nil {
			return err
		}
		if !claimed {
			return nil
		}

		return s.audit.Record(ctx, tx, audit.RecordInput{
			Action:     "payment_failed",
			EntityType: entityType,
			EntityID:   payment.ID.String(),
			Actor:      actor,
			OldValues:  map[string]any{"status": enums.PaymentStatusPending},
			NewValues:  map[string]any{"status": enums.PaymentStatusFailed, "gateway_status": gatewayStatus},
		})
	})
}
