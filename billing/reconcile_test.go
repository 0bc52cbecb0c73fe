package billing

import (
	"testing"

	"billing-backend/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sentInvoice(grand, balance string) *models.Document {
	return &models.Document{
		Kind:       models.KindInvoice,
		Status:     models.StatusSent,
		GrandTotal: d(grand),
		BalanceDue: d(balance),
	}
}

func TestApplyPaymentScenario(t *testing.T) {
	// Invoice at 189 (2x100, 10% discount, 5% tax).
	inv := sentInvoice("189", "189")

	balance, status, err := ApplyPayment(inv, d("100"))
	require.NoError(t, err)
	assert.True(t, balance.Equal(d("89")))
	assert.Equal(t, models.StatusPartial, status)

	inv.BalanceDue = balance
	inv.Status = status

	balance, status, err = ApplyPayment(inv, d("89"))
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
	assert.Equal(t, models.StatusPaid, status)
}

func TestApplyPaymentRejectsNonPositive(t *testing.T) {
	inv := sentInvoice("100", "100")

	_, _, err := ApplyPayment(inv, decimal.Zero)
	assert.True(t, IsValidation(err))

	_, _, err = ApplyPayment(inv, d("-5"))
	assert.True(t, IsValidation(err))
}

func TestApplyPaymentRejectsOverpay(t *testing.T) {
	inv := sentInvoice("100", "40")
	_, _, err := ApplyPayment(inv, d("40.01"))
	require.Error(t, err)
	assert.True(t, IsStateConflict(err), "overpaying is a conflict, not a validation error")
}

func TestApplyPaymentRefusedWhenPaid(t *testing.T) {
	inv := sentInvoice("100", "0")
	inv.Status = models.StatusPaid
	_, _, err := ApplyPayment(inv, d("1"))
	assert.True(t, IsStateConflict(err))
}

func TestApplyPaymentRefusedOnDraft(t *testing.T) {
	inv := sentInvoice("100", "100")
	inv.Status = models.StatusDraft
	_, _, err := ApplyPayment(inv, d("10"))
	assert.True(t, IsStateConflict(err))
}

func TestApplyPaymentRefusedOnQuotation(t *testing.T) {
	q := &models.Document{Kind: models.KindQuotation, Status: models.StatusSent}
	_, _, err := ApplyPayment(q, d("10"))
	assert.True(t, IsStateConflict(err))
}

func TestRecomputeBalanceRoundTrip(t *testing.T) {
	grand := d("189")
	payments := []models.Payment{
		{Amount: d("100")},
		{Amount: d("89")},
	}

	balance, status := RecomputeBalance(grand, payments)
	assert.True(t, balance.IsZero())
	assert.Equal(t, models.StatusPaid, status)

	// Remove the second payment: balance is restored exactly and status
	// reverts to partial.
	balance, status = RecomputeBalance(grand, payments[:1])
	assert.True(t, balance.Equal(d("89")))
	assert.Equal(t, models.StatusPartial, status)

	// Remove all payments: back to sent.
	balance, status = RecomputeBalance(grand, nil)
	assert.True(t, balance.Equal(grand))
	assert.Equal(t, models.StatusSent, status)
}

func TestPaymentRoundTripRestoresBalanceExactly(t *testing.T) {
	inv := sentInvoice("123.45", "123.45")
	before := inv.BalanceDue

	balance, _, err := ApplyPayment(inv, d("23.45"))
	require.NoError(t, err)

	inv.BalanceDue = balance
	restored, _ := RecomputeBalance(inv.GrandTotal, nil)
	assert.True(t, restored.Equal(before))
}
