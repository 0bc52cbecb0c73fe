package controllers

import (
	"billing-backend/middlewares"
	"billing-backend/models"
	"billing-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type settingsPatchDTO struct {
	Currency          *string                  `json:"currency" validate:"omitempty,len=3"`
	BaseCurrency      *string                  `json:"base_currency" validate:"omitempty,len=3"`
	DefaultTaxPercent *decimal.Decimal         `json:"default_tax_percent"`
	InvoicePrefix     *string                  `json:"invoice_prefix" validate:"omitempty,max=10"`
	QuotationPrefix   *string                  `json:"quotation_prefix" validate:"omitempty,max=10"`
	PaymentTermsDays  *int                     `json:"payment_terms_days" validate:"omitempty,min=0,max=365"`
	ConversionPolicy  *models.ConversionPolicy `json:"conversion_policy" validate:"omitempty,oneof=draft sent"`
	TermsTemplate     *string                  `json:"terms_template"`
}

func GetSettings(c *fiber.Ctx) error {
	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	settings, err := loadSettings(db)
	if err != nil {
		return err
	}
	return c.JSON(settings)
}

// UpdateSettings mutates the tenant's settings row through an explicit
// update; nothing else in the system writes it.
func UpdateSettings(c *fiber.Ctx) error {
	var data settingsPatchDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}
	utils.NormalizeDTO(&data)

	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	settings, err := loadSettings(db)
	if err != nil {
		return err
	}
	if data.DefaultTaxPercent != nil {
		if data.DefaultTaxPercent.IsNegative() || data.DefaultTaxPercent.GreaterThan(decimal.NewFromInt(100)) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "default tax percent must be in [0,100]")
		}
	}

	updates := utils.UpdatesFromPtrDTO(&data, nil)
	if len(updates) == 0 {
		return c.JSON(settings)
	}
	if err := db.Model(settings).Updates(updates).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not update settings")
	}
	return c.JSON(settings)
}
