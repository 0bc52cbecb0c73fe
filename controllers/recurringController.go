package controllers

import (
	"time"

	"billing-backend/billing"
	"billing-backend/middlewares"
	"billing-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type recurringDTO struct {
	ClientId     uint                `json:"client_id" validate:"required"`
	Items        []lineItemDTO       `json:"items" validate:"required,min=1,dive"`
	Notes        string              `json:"notes"`
	Terms        string              `json:"terms"`
	Currency     string              `json:"currency" validate:"omitempty,len=3"`
	ExchangeRate decimal.NullDecimal `json:"exchange_rate"`
	Frequency    models.Frequency    `json:"frequency" validate:"required,oneof=daily weekly monthly quarterly annually"`
	StartDate    time.Time           `json:"start_date" validate:"required"`
	EndDate      *time.Time          `json:"end_date"`
	DueDateDays  int                 `json:"due_date_days" validate:"required,min=1,max=30"`
	AutoBill     models.AutoBill     `json:"auto_bill" validate:"omitempty,oneof=disabled enabled opt_in"`
}

func CreateRecurringTemplate(c *fiber.Ctx) error {
	var data recurringDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}

	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	settings, err := loadSettings(db)
	if err != nil {
		return err
	}

	var client models.Client
	if err := db.First(&client, data.ClientId).Error; err != nil {
		return billing.Invalidf("client_id", "client %d does not exist", data.ClientId)
	}
	items := buildLineItems(data.Items)
	if err := billing.ValidateItems(items); err != nil {
		return err
	}
	resolution, err := billing.ResolveCurrency(data.Currency, data.ExchangeRate, settings)
	if err != nil {
		return err
	}
	if data.EndDate != nil && !data.EndDate.After(data.StartDate) {
		return billing.Invalidf("end_date", "end date must be after start date")
	}

	autoBill := data.AutoBill
	if autoBill == "" {
		autoBill = models.AutoBillDisabled
	}
	totals := billing.ComputeTotals(items).Round()
	start := data.StartDate

	template := models.Document{
		Kind:          models.KindRecurring,
		CId:           data.ClientId,
		IssueDate:     start,
		Items:         items,
		Notes:         data.Notes,
		Terms:         data.Terms,
		Currency:      resolution.Currency,
		ExchangeRate:  resolution.ExchangeRate,
		Status:        models.StatusActive,
		Subtotal:      totals.Subtotal,
		DiscountTotal: totals.DiscountTotal,
		TaxTotal:      totals.TaxTotal,
		GrandTotal:    totals.GrandTotal,
		Frequency:     data.Frequency,
		StartDate:     &start,
		EndDate:       data.EndDate,
		DueDateDays:   data.DueDateDays,
		AutoBill:      autoBill,
		NextRunAt:     &start,
	}
	if err := db.Create(&template).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create recurring template")
	}

	template.DisplayStatus = billing.DisplayStatus(&template, time.Now())
	return c.Status(fiber.StatusCreated).JSON(template)
}

func GetRecurringTemplates(c *fiber.Ctx) error {
	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	var templates []models.Document
	if err := db.Preload("Client").Preload("Items").
		Where("kind = ?", models.KindRecurring).
		Order("created_at DESC").Find(&templates).Error; err != nil {
		return err
	}
	now := time.Now()
	for i := range templates {
		templates[i].DisplayStatus = billing.DisplayStatus(&templates[i], now)
	}
	return c.JSON(fiber.Map{"templates": templates})
}

// MaterializeRecurring generates the template's next draft invoice and
// advances the schedule by one period. Past the end date the schedule is
// exhausted and the call conflicts.
func MaterializeRecurring(c *fiber.Ctx) error {
	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	template, err := loadDocument(db, uintParam(c, "id"))
	if err != nil {
		return err
	}
	if template.Kind != models.KindRecurring {
		return billing.Conflictf("materialize", template.Status, "document is not a recurring template")
	}

	now := time.Now()
	if template.EndDate != nil && now.After(*template.EndDate) {
		return billing.Conflictf("materialize", models.StatusEnded, "recurring schedule has ended")
	}

	dueDate := now.AddDate(0, 0, template.DueDateDays)
	items := make([]models.LineItem, len(template.Items))
	for i, src := range template.Items {
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
	totals := billing.ComputeTotals(items).Round()

	invoice := models.Document{
		Kind:          models.KindInvoice,
		CId:           template.CId,
		IssueDate:     now,
		DueDate:       &dueDate,
		Items:         items,
		Notes:         template.Notes,
		Terms:         template.Terms,
		Currency:      template.Currency,
		ExchangeRate:  template.ExchangeRate,
		Status:        models.StatusDraft,
		Subtotal:      totals.Subtotal,
		DiscountTotal: totals.DiscountTotal,
		TaxTotal:      totals.TaxTotal,
		GrandTotal:    totals.GrandTotal,
		BalanceDue:    totals.GrandTotal,
	}
	if err := db.Create(&invoice).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create invoice")
	}

	nextRun := advanceSchedule(now, template.Frequency)
	if err := db.Model(&models.Document{}).Where("id = ?", template.ID).
		Update("next_run_at", nextRun).Error; err != nil {
		return err
	}

	invoice.DisplayStatus = billing.DisplayStatus(&invoice, now)
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// EndRecurringTemplate closes the schedule: the template stops
// materializing but stays on record with its generated invoices.
func EndRecurringTemplate(c *fiber.Ctx) error {
	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	template, err := loadDocument(db, uintParam(c, "id"))
	if err != nil {
		return err
	}
	if template.Kind != models.KindRecurring {
		return billing.Conflictf("end", template.Status, "document is not a recurring template")
	}

	now := time.Now()
	if template.EndDate != nil && now.After(*template.EndDate) {
		return billing.Conflictf("end", models.StatusEnded, "recurring schedule has already ended")
	}
	if err := db.Model(&models.Document{}).Where("id = ?", template.ID).Updates(map[string]any{
		"end_date":    &now,
		"status":      models.StatusEnded,
		"next_run_at": nil,
	}).Error; err != nil {
		return err
	}
	template.EndDate = &now
	template.Status = models.StatusEnded
	template.NextRunAt = nil
	template.DisplayStatus = billing.DisplayStatus(template, now)
	return c.JSON(template)
}

func advanceSchedule(from time.Time, freq models.Frequency) time.Time {
	switch freq {
	case models.FreqDaily:
		return from.AddDate(0, 0, 1)
	case models.FreqWeekly:
		return from.AddDate(0, 0, 7)
	case models.FreqQuarterly:
		return from.AddDate(0, 3, 0)
	case models.FreqAnnually:
		return from.AddDate(1, 0, 0)
	default:
		return from.AddDate(0, 1, 0)
	}
}
