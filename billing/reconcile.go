package billing

import (
	"billing-backend/models"

	"github.com/shopspring/decimal"
)

// ApplyPayment validates a payment against the invoice's current balance and
// returns the new balance and status. It mutates nothing; the caller writes
// the result back to the document of record, which stays authoritative.
func ApplyPayment(invoice *models.Document, amount decimal.Decimal) (balance decimal.Decimal, status models.DocumentStatus, err error) {
	if invoice.Kind != models.KindInvoice {
		return invoice.BalanceDue, invoice.Status,
			Conflictf("apply payment", invoice.Status, "payments apply to invoices only")
	}
	if invoice.Status == models.StatusDraft {
		return invoice.BalanceDue, invoice.Status,
			Conflictf("apply payment", invoice.Status, "invoice has not been sent")
	}
	if !amount.IsPositive() {
		return invoice.BalanceDue, invoice.Status,
			Invalidf("amount", "payment amount must be positive")
	}
	if invoice.BalanceDue.Round(2).IsZero() {
		return invoice.BalanceDue, invoice.Status,
			Conflictf("apply payment", invoice.Status, "invoice is already paid in full")
	}
	if amount.GreaterThan(invoice.BalanceDue) {
		return invoice.BalanceDue, invoice.Status,
			Conflictf("apply payment", invoice.Status,
				"payment %s exceeds balance due %s", amount.StringFixed(2), invoice.BalanceDue.StringFixed(2))
	}

	balance = invoice.BalanceDue.Sub(amount)
	return balance, deriveStatus(invoice.GrandTotal, balance), nil
}

// RecomputeBalance rebuilds balance and status from the full payment set,
// e.g. after a payment is deleted. A paid or partial invoice reverts to sent
// when no payments remain.
func RecomputeBalance(grandTotal decimal.Decimal, payments []models.Payment) (balance decimal.Decimal, status models.DocumentStatus) {
	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	balance = grandTotal.Sub(paid)
	return balance, deriveStatus(grandTotal, balance)
}

// deriveStatus: paid when nothing is owed (exact zero after rounding to
// cents), partial when something has been paid, sent otherwise.
func deriveStatus(grandTotal, balance decimal.Decimal) models.DocumentStatus {
	switch {
	case balance.Round(2).LessThanOrEqual(decimal.Zero):
		return models.StatusPaid
	case balance.LessThan(grandTotal):
		return models.StatusPartial
	default:
		return models.StatusSent
	}
}
