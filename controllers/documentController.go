package controllers

import (
	"encoding/json"
	"fmt"
	"time"

	"billing-backend/billing"
	"billing-backend/middlewares"
	"billing-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type lineItemDTO struct {
	ItemId          *string         `json:"item_id"`
	Name            string          `json:"name" validate:"required"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	UomCode         string          `json:"uom_code"`
}

type documentDTO struct {
	Kind         models.DocumentKind `json:"kind" validate:"required,oneof=quotation invoice"`
	ClientId     uint                `json:"client_id" validate:"required"`
	IssueDate    *time.Time          `json:"issue_date"`
	ExpiryDate   *time.Time          `json:"expiry_date"`
	DueDate      *time.Time          `json:"due_date"`
	Items        []lineItemDTO       `json:"items" validate:"required,min=1,dive"`
	Notes        string              `json:"notes"`
	Terms        string              `json:"terms"`
	Currency     string              `json:"currency" validate:"omitempty,len=3"`
	ExchangeRate decimal.NullDecimal `json:"exchange_rate"`
}

// buildLineItems maps DTO rows to model rows, preserving order. Price is
// whatever the caller entered for this document; a linked catalog item's
// rate is never used as an implicit default.
func buildLineItems(rows []lineItemDTO) []models.LineItem {
	items := make([]models.LineItem, len(rows))
	for i, row := range rows {
		uom := row.UomCode
		if uom == "" {
			uom = "PC"
		}
		items[i] = models.LineItem{
			Position:        i,
			ItemId:          row.ItemId,
			Name:            row.Name,
			Description:     row.Description,
			Quantity:        row.Quantity,
			Price:           row.Price,
			DiscountPercent: row.DiscountPercent,
			TaxPercent:      row.TaxPercent,
			UomCode:         uom,
		}
	}
	return items
}

func CreateDocument(c *fiber.Ctx) error {
	var data documentDTO
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

	totals := billing.ComputeTotals(items).Round()

	issueDate := time.Now()
	if data.IssueDate != nil {
		issueDate = *data.IssueDate
	}

	doc := models.Document{
		Kind:          data.Kind,
		CId:           data.ClientId,
		IssueDate:     issueDate,
		ExpiryDate:    data.ExpiryDate,
		DueDate:       data.DueDate,
		Items:         items,
		Notes:         data.Notes,
		Terms:         data.Terms,
		Currency:      resolution.Currency,
		ExchangeRate:  resolution.ExchangeRate,
		Status:        models.StatusDraft,
		Subtotal:      totals.Subtotal,
		DiscountTotal: totals.DiscountTotal,
		TaxTotal:      totals.TaxTotal,
		GrandTotal:    totals.GrandTotal,
	}
	if doc.Kind == models.KindInvoice {
		doc.BalanceDue = totals.GrandTotal
	}
	if doc.Terms == "" {
		doc.Terms = settings.TermsTemplate
	}

	if err := db.Create(&doc).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create document")
	}

	doc.DisplayStatus = billing.DisplayStatus(&doc, time.Now())
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// UpdateDocument replaces a draft's content and recomputes totals. Anything
// past draft is frozen; the caller gets a conflict and should refresh.
func UpdateDocument(c *fiber.Ctx) error {
	var data documentDTO
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

	doc, err := loadDocument(db, uintParam(c, "id"))
	if err != nil {
		return err
	}
	if doc.Status != models.StatusDraft {
		return billing.Conflictf("update", doc.Status, "only draft documents can be edited")
	}

	items := buildLineItems(data.Items)
	if err := billing.ValidateItems(items); err != nil {
		return err
	}
	resolution, err := billing.ResolveCurrency(data.Currency, data.ExchangeRate, settings)
	if err != nil {
		return err
	}
	totals := billing.ComputeTotals(items).Round()

	if err := db.Where("document_id = ?", doc.ID).Delete(&models.LineItem{}).Error; err != nil {
		return err
	}
	doc.Items = items
	doc.CId = data.ClientId
	doc.Notes = data.Notes
	doc.Terms = data.Terms
	doc.ExpiryDate = data.ExpiryDate
	doc.DueDate = data.DueDate
	doc.Currency = resolution.Currency
	doc.ExchangeRate = resolution.ExchangeRate
	doc.Subtotal = totals.Subtotal
	doc.DiscountTotal = totals.DiscountTotal
	doc.TaxTotal = totals.TaxTotal
	doc.GrandTotal = totals.GrandTotal
	if data.IssueDate != nil {
		doc.IssueDate = *data.IssueDate
	}
	if doc.Kind == models.KindInvoice {
		doc.BalanceDue = totals.GrandTotal
	}

	if err := db.Session(&gorm.Session{FullSaveAssociations: true}).Save(doc).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not update document")
	}

	doc.DisplayStatus = billing.DisplayStatus(doc, time.Now())
	return c.JSON(doc)
}

func GetDocuments(c *fiber.Ctx) error {
	db, err := tenantDB(c)
	if err != nil {
		return err
	}

	q := db.Model(&models.Document{}).Preload("Client")
	if kind := c.Query("kind"); kind != "" {
		q = q.Where("kind = ?", kind)
	} else {
		q = q.Where("kind <> ?", models.KindRecurring)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var docs []models.Document
	if err := q.Order("created_at DESC").Find(&docs).Error; err != nil {
		return err
	}
	now := time.Now()
	for i := range docs {
		docs[i].DisplayStatus = billing.DisplayStatus(&docs[i], now)
	}
	return c.JSON(fiber.Map{"documents": docs})
}

func GetDocument(c *fiber.Ctx) error {
	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	doc, err := loadDocument(db, uintParam(c, "id"))
	if err != nil {
		return err
	}
	return c.JSON(doc)
}

// SendDocument moves a draft to sent: the number is assigned exactly once,
// a version snapshot is stored, and from here the exchange rate and totals
// are frozen for audit.
func SendDocument(c *fiber.Ctx) error {
	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	settings, err := loadSettings(db)
	if err != nil {
		return err
	}
	doc, err := loadDocument(db, uintParam(c, "id"))
	if err != nil {
		return err
	}
	if doc.Kind == models.KindRecurring {
		return billing.Conflictf("send", doc.Status, "recurring templates are not sent directly")
	}

	next, err := billing.Transition(doc.Kind, doc.Status, models.StatusSent)
	if err != nil {
		return err
	}

	if doc.Number == "" {
		number, err := assignNumber(db, settings, doc.Kind)
		if err != nil {
			return err
		}
		doc.Number = number
	}
	now := time.Now()
	doc.Status = next
	doc.SentAt = &now
	if doc.Kind == models.KindInvoice {
		doc.BalanceDue = doc.GrandTotal
	}

	if err := db.Model(&models.Document{}).Where("id = ?", doc.ID).Updates(map[string]any{
		"status":      doc.Status,
		"number":      doc.Number,
		"sent_at":     doc.SentAt,
		"balance_due": doc.BalanceDue,
	}).Error; err != nil {
		return err
	}
	if err := snapshotVersion(db, doc); err != nil {
		return err
	}

	doc.DisplayStatus = billing.DisplayStatus(doc, now)
	return c.JSON(doc)
}

// DecideQuotation handles the authenticated accept/reject actions.
func DecideQuotation(c *fiber.Ctx) error {
	decision := models.StatusAccepted
	if c.Params("decision") == "reject" {
		decision = models.StatusRejected
	}

	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	doc, err := loadDocument(db, uintParam(c, "id"))
	if err != nil {
		return err
	}
	if doc.Kind != models.KindQuotation {
		return billing.Conflictf("decide", doc.Status, "only quotations can be accepted or rejected")
	}

	next, err := billing.Transition(models.KindQuotation, doc.Status, decision)
	if err != nil {
		return err
	}
	if err := db.Model(&models.Document{}).Where("id = ?", doc.ID).
		Update("status", next).Error; err != nil {
		return err
	}
	doc.Status = next
	doc.DisplayStatus = billing.DisplayStatus(doc, time.Now())
	return c.JSON(doc)
}

// ConvertQuotation snapshots an accepted quotation into a new invoice.
// The quotation becomes converted (terminal) in the same transaction, so a
// second conversion attempt conflicts instead of minting a duplicate.
func ConvertQuotation(c *fiber.Ctx) error {
	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	settings, err := loadSettings(db)
	if err != nil {
		return err
	}
	quotation, err := loadDocument(db, uintParam(c, "id"))
	if err != nil {
		return err
	}

	invoice, err := billing.Convert(quotation, settings, time.Now())
	if err != nil {
		return err
	}

	if invoice.Status == models.StatusSent {
		number, err := assignNumber(db, settings, models.KindInvoice)
		if err != nil {
			return err
		}
		invoice.Number = number
		now := time.Now()
		invoice.SentAt = &now
	}
	if err := db.Create(invoice).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create invoice")
	}

	if err := db.Model(&models.Document{}).Where("id = ?", quotation.ID).Updates(map[string]any{
		"status":               models.StatusConverted,
		"converted_invoice_id": invoice.ID,
	}).Error; err != nil {
		return err
	}
	if err := snapshotVersion(db, invoice); err != nil {
		return err
	}

	invoice.DisplayStatus = billing.DisplayStatus(invoice, time.Now())
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

func GetDocumentVersions(c *fiber.Ctx) error {
	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	var versions []models.DocumentVersion
	if err := db.Where("document_id = ?", uintParam(c, "id")).
		Order("version_no ASC").Find(&versions).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"versions": versions})
}

// assignNumber hands out the next document number from the tenant's
// numbering sequence. Numbers are immutable once issued. The increment is a
// single atomic UPDATE taking the settings row lock, so concurrent sends
// serialize and can never claim the same value.
func assignNumber(db *gorm.DB, settings *models.CompanySettings, kind models.DocumentKind) (string, error) {
	prefix := settings.InvoicePrefix
	column := "next_invoice_seq"
	if kind == models.KindQuotation {
		prefix = settings.QuotationPrefix
		column = "next_quotation_seq"
	}
	if err := db.Model(settings).Update(column, gorm.Expr(column+" + 1")).Error; err != nil {
		return "", err
	}
	var claimed models.CompanySettings
	if err := db.First(&claimed, settings.Id).Error; err != nil {
		return "", err
	}
	seq := claimed.NextInvoiceSeq - 1
	if kind == models.KindQuotation {
		seq = claimed.NextQuotationSeq - 1
	}
	return fmt.Sprintf("%s%05d", prefix, seq), nil
}

func snapshotVersion(db *gorm.DB, doc *models.Document) error {
	blob, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var count int64
	if err := db.Model(&models.DocumentVersion{}).
		Where("document_id = ?", doc.ID).Count(&count).Error; err != nil {
		return err
	}
	version := models.DocumentVersion{
		DocumentID: doc.ID,
		VersionNo:  int(count) + 1,
		Kind:       doc.Kind,
		Snapshot:   blob,
	}
	return db.Create(&version).Error
}

func uintParam(c *fiber.Ctx, name string) uint {
	id, _ := c.ParamsInt(name)
	if id < 0 {
		return 0
	}
	return uint(id)
}
