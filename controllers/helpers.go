package controllers

import (
	"time"

	"billing-backend/billing"
	"billing-backend/database"
	"billing-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// tenantDB resolves the request's tenant-scoped DB (per-request TX when the
// TenantTx middleware ran, otherwise a pinned session).
func tenantDB(c *fiber.Ctx) (*gorm.DB, error) {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "tenant context missing")
	}
	return db, nil
}

// tenantDBForSchema is the guest-path variant: share-link handlers resolve
// the schema from the link record, not from session locals.
func tenantDBForSchema(c *fiber.Ctx, schema string) (*gorm.DB, error) {
	if v := c.Locals("tx"); v != nil {
		if tx, ok := v.(*gorm.DB); ok && tx != nil {
			return tx, nil
		}
	}
	return database.TenantSession(schema)
}

// loadSettings fetches the tenant's singleton settings row.
func loadSettings(db *gorm.DB) (*models.CompanySettings, error) {
	var settings models.CompanySettings
	if err := db.First(&settings).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "company settings missing")
	}
	return &settings, nil
}

// loadDocument fetches a document with its lines and payments, and derives
// the display status for the reader.
func loadDocument(db *gorm.DB, id uint) (*models.Document, error) {
	var doc models.Document
	err := db.Preload("Items", func(q *gorm.DB) *gorm.DB { return q.Order("position ASC") }).
		Preload("Payments").
		Preload("Client").
		First(&doc, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fiber.NewError(fiber.StatusNotFound, "document not found")
		}
		return nil, err
	}
	doc.DisplayStatus = billing.DisplayStatus(&doc, time.Now())
	return &doc, nil
}
