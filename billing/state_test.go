package billing

import (
	"testing"
	"time"

	"billing-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotationTransitions(t *testing.T) {
	cases := []struct {
		from, to models.DocumentStatus
		ok       bool
	}{
		{models.StatusDraft, models.StatusSent, true},
		{models.StatusSent, models.StatusAccepted, true},
		{models.StatusSent, models.StatusRejected, true},
		{models.StatusAccepted, models.StatusConverted, true},
		{models.StatusDraft, models.StatusAccepted, false}, // no silent skips
		{models.StatusRejected, models.StatusAccepted, false},
		{models.StatusConverted, models.StatusSent, false},
		{models.StatusSent, models.StatusExpired, false}, // derived, never stored
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransition(models.KindQuotation, tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestInvoiceTransitions(t *testing.T) {
	assert.True(t, CanTransition(models.KindInvoice, models.StatusDraft, models.StatusSent))
	assert.True(t, CanTransition(models.KindInvoice, models.StatusSent, models.StatusPartial))
	assert.True(t, CanTransition(models.KindInvoice, models.StatusPartial, models.StatusPaid))
	assert.True(t, CanTransition(models.KindInvoice, models.StatusPartial, models.StatusSent),
		"removing the only payment reverts to sent")
	assert.False(t, CanTransition(models.KindInvoice, models.StatusDraft, models.StatusPaid))
	assert.False(t, CanTransition(models.KindInvoice, models.StatusSent, models.StatusOverdue),
		"overdue is derived, never stored")
}

func TestTransitionConflict(t *testing.T) {
	_, err := Transition(models.KindQuotation, models.StatusDraft, models.StatusAccepted)
	require.Error(t, err)
	assert.True(t, IsStateConflict(err))
}

func TestGuestDecisionIdempotentAtTerminal(t *testing.T) {
	// First decision lands.
	status, changed, err := GuestDecision(models.StatusSent, models.StatusAccepted)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.StatusAccepted, status)

	// Repeat: current state comes back, nothing changed, no error.
	status, changed, err = GuestDecision(models.StatusAccepted, models.StatusAccepted)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, models.StatusAccepted, status)

	// Flipping a rejected quotation is also refused without error.
	status, changed, err = GuestDecision(models.StatusRejected, models.StatusAccepted)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, models.StatusRejected, status)
}

func TestGuestDecisionOnDraftConflicts(t *testing.T) {
	_, changed, err := GuestDecision(models.StatusDraft, models.StatusAccepted)
	require.Error(t, err)
	assert.False(t, changed)
	assert.True(t, IsStateConflict(err), "accepting an unsent quotation must conflict, not silently succeed")
}

func TestDisplayStatusExpiredQuotation(t *testing.T) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	q := &models.Document{Kind: models.KindQuotation, Status: models.StatusSent, ExpiryDate: &past}
	assert.Equal(t, models.StatusExpired, DisplayStatus(q, now))
	// Stored status untouched: this is a computed view.
	assert.Equal(t, models.StatusSent, q.Status)

	q.ExpiryDate = &future
	assert.Equal(t, models.StatusSent, DisplayStatus(q, now))

	// Draft quotations never read as expired.
	q.Status = models.StatusDraft
	q.ExpiryDate = &past
	assert.Equal(t, models.StatusDraft, DisplayStatus(q, now))
}

func TestDisplayStatusOverdueInvoice(t *testing.T) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)

	inv := &models.Document{
		Kind:       models.KindInvoice,
		Status:     models.StatusSent,
		DueDate:    &past,
		BalanceDue: d("50"),
	}
	assert.Equal(t, models.StatusOverdue, DisplayStatus(inv, now))

	inv.Status = models.StatusPartial
	assert.Equal(t, models.StatusOverdue, DisplayStatus(inv, now))

	// Nothing outstanding: never overdue.
	inv.BalanceDue = d("0")
	assert.Equal(t, models.StatusPartial, DisplayStatus(inv, now))

	inv.Status = models.StatusPaid
	inv.BalanceDue = d("0")
	assert.Equal(t, models.StatusPaid, DisplayStatus(inv, now))
}
