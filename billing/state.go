package billing

import (
	"time"

	"billing-backend/models"
)

// Transition tables per document kind. Forward-only, no silent skips.
// Expired and overdue never appear here: they are derived views, not
// stored transitions.
var quotationTransitions = map[models.DocumentStatus][]models.DocumentStatus{
	models.StatusDraft:    {models.StatusSent},
	models.StatusSent:     {models.StatusAccepted, models.StatusRejected},
	models.StatusAccepted: {models.StatusConverted},
}

var invoiceTransitions = map[models.DocumentStatus][]models.DocumentStatus{
	models.StatusDraft:   {models.StatusSent},
	models.StatusSent:    {models.StatusPartial, models.StatusPaid},
	models.StatusPartial: {models.StatusPaid, models.StatusSent},
}

// StatusSent appears as a target of StatusPartial above because removing an
// invoice's only payment legitimately reverts it.

func transitionTable(kind models.DocumentKind) map[models.DocumentStatus][]models.DocumentStatus {
	if kind == models.KindQuotation {
		return quotationTransitions
	}
	return invoiceTransitions
}

// CanTransition reports whether from -> to is a legal stored transition.
func CanTransition(kind models.DocumentKind, from, to models.DocumentStatus) bool {
	for _, allowed := range transitionTable(kind)[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition validates and returns the new status, or a state conflict.
func Transition(kind models.DocumentKind, from, to models.DocumentStatus) (models.DocumentStatus, error) {
	if !CanTransition(kind, from, to) {
		return from, Conflictf("transition", from, "cannot move %s from %s to %s", kind, from, to)
	}
	return to, nil
}

// IsTerminalForGuest reports whether guest accept/reject must be refused.
// Accepted, rejected and converted quotations take no further guest actions.
func IsTerminalForGuest(status models.DocumentStatus) bool {
	switch status {
	case models.StatusAccepted, models.StatusRejected, models.StatusConverted:
		return true
	}
	return false
}

// GuestDecision applies a guest accept/reject against a quotation.
// Terminal states are idempotent: the current status comes back with
// changed=false and no error, so a repeat click never errors the viewer
// and never re-fires side effects. A decision on an unsent quotation is a
// real conflict.
func GuestDecision(current, decision models.DocumentStatus) (status models.DocumentStatus, changed bool, err error) {
	if IsTerminalForGuest(current) {
		return current, false, nil
	}
	next, err := Transition(models.KindQuotation, current, decision)
	if err != nil {
		return current, false, err
	}
	return next, true, nil
}

// DisplayStatus derives the status a reader should see. A sent quotation
// past its expiry reads as expired, and a sent/partial invoice past its due
// date with money outstanding reads as overdue. The stored status is not
// touched; this is a computed view only.
func DisplayStatus(doc *models.Document, now time.Time) models.DocumentStatus {
	switch doc.Kind {
	case models.KindQuotation:
		if doc.Status == models.StatusSent && doc.ExpiryDate != nil && now.After(*doc.ExpiryDate) {
			return models.StatusExpired
		}
	case models.KindInvoice:
		if (doc.Status == models.StatusSent || doc.Status == models.StatusPartial) &&
			doc.DueDate != nil && now.After(*doc.DueDate) && doc.BalanceDue.IsPositive() {
			return models.StatusOverdue
		}
	case models.KindRecurring:
		if doc.Status == models.StatusEnded ||
			(doc.EndDate != nil && now.After(*doc.EndDate)) {
			return models.StatusEnded
		}
		return models.StatusActive
	}
	return doc.Status
}
