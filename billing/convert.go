package billing

import (
	"time"

	"billing-backend/models"
)

// Convert snapshots an accepted quotation into a new invoice value. The
// caller persists the invoice and marks the quotation converted in the same
// transaction. Line items are deep-copied so later edits to the quotation
// can never reach the generated invoice.
//
// The new invoice's initial status comes from the settings' conversion
// policy; its due date from the settings' payment terms days.
func Convert(quotation *models.Document, settings *models.CompanySettings, now time.Time) (*models.Document, error) {
	if quotation.Kind != models.KindQuotation {
		return nil, Conflictf("convert", quotation.Status, "only quotations can be converted")
	}
	if quotation.Status == models.StatusConverted {
		return nil, Conflictf("convert", quotation.Status, "quotation has already been converted")
	}
	if quotation.Status != models.StatusAccepted {
		return nil, Conflictf("convert", quotation.Status, "only an accepted quotation can be converted")
	}

	status := models.StatusDraft
	if settings.ConversionPolicy == models.ConvertToSent {
		status = models.StatusSent
	}

	dueDate := now.AddDate(0, 0, settings.PaymentTermsDays)

	items := make([]models.LineItem, len(quotation.Items))
	for i, src := range quotation.Items {
		items[i] = models.LineItem{
			Position:        src.Position,
			ItemId:          src.ItemId,
			Name:            src.Name,
			Description:     src.Description,
			Quantity:        src.Quantity,
			Price:           src.Price,
			DiscountPercent: src.DiscountPercent,
			TaxPercent:      src.TaxPercent,
			UomCode:         src.UomCode,
		}
	}

	totals := ComputeTotals(items).Round()

	invoice := &models.Document{
		Kind:          models.KindInvoice,
		CId:           quotation.CId,
		IssueDate:     now,
		DueDate:       &dueDate,
		Items:         items,
		Notes:         quotation.Notes,
		Terms:         quotation.Terms,
		Currency:      quotation.Currency,
		ExchangeRate:  quotation.ExchangeRate,
		Status:        status,
		Subtotal:      totals.Subtotal,
		DiscountTotal: totals.DiscountTotal,
		TaxTotal:      totals.TaxTotal,
		GrandTotal:    totals.GrandTotal,
		BalanceDue:    totals.GrandTotal,
	}
	return invoice, nil
}
