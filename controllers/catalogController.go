package controllers

import (
	"strings"

	"billing-backend/middlewares"
	"billing-backend/models"
	"billing-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type catalogItemDTO struct {
	Name          string          `json:"name" validate:"required"`
	Description   string          `json:"description"`
	Rate          decimal.Decimal `json:"rate"`
	CategoryId    *uint           `json:"category_id"`
	GstApplicable bool            `json:"gst_applicable"`
}

// CreateCatalogItems accepts a batch of items.
func CreateCatalogItems(c *fiber.Ctx) error {
	var data []catalogItemDTO
	if err := c.BodyParser(&data); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if len(data) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no items provided")
	}

	db, err := tenantDB(c)
	if err != nil {
		return err
	}

	items := make([]models.CatalogItem, 0, len(data))
	for i := range data {
		if err := middlewares.ValidateStruct(&data[i]); err != nil {
			return err
		}
		if data[i].Rate.IsNegative() {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "rate cannot be negative")
		}
		items = append(items, models.CatalogItem{
			Name:          strings.TrimSpace(data[i].Name),
			Description:   data[i].Description,
			Rate:          data[i].Rate.Round(2),
			CategoryId:    data[i].CategoryId,
			GstApplicable: data[i].GstApplicable,
			Active:        true,
		})
	}
	if err := db.Create(&items).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create items")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"items": items})
}

func GetCatalogItems(c *fiber.Ctx) error {
	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	var items []models.CatalogItem
	q := db.Where("active = ?", true)
	if cat := c.Query("category_id"); cat != "" {
		q = q.Where("category_id = ?", cat)
	}
	if err := q.Order("name ASC").Find(&items).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": items})
}

type catalogItemPatchDTO struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Rate          *decimal.Decimal `json:"rate"`
	CategoryId    *uint            `json:"category_id"`
	GstApplicable *bool            `json:"gst_applicable"`
}

// UpdateCatalogItem edits the template only. Existing line items copied their
// own name/description/price at add-time and are never touched.
func UpdateCatalogItem(c *fiber.Ctx) error {
	var data catalogItemPatchDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}
	utils.NormalizeDTO(&data)

	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	var item models.CatalogItem
	if err := db.First(&item, "id = ?", c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "item not found")
	}
	if data.Rate != nil && data.Rate.IsNegative() {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "rate cannot be negative")
	}

	updates := utils.UpdatesFromPtrDTO(&data, nil)
	if len(updates) == 0 {
		return c.JSON(item)
	}
	if err := db.Model(&item).Updates(updates).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not update item")
	}
	return c.JSON(item)
}

type categoryDTO struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

func CreateCategory(c *fiber.Ctx) error {
	var data categoryDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}
	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	category := models.Category{Name: data.Name, Description: data.Description, Color: data.Color}
	if err := db.Create(&category).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create category")
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

func GetCategories(c *fiber.Ctx) error {
	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	var categories []models.Category
	if err := db.Order("name ASC").Find(&categories).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"categories": categories})
}

type uomDTO struct {
	Name string `json:"name" validate:"required"`
	Code string `json:"code" validate:"required,max=10"`
}

func CreateUnitOfMeasure(c *fiber.Ctx) error {
	var data uomDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}
	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	uom := models.UnitOfMeasure{
		Name: data.Name,
		Code: strings.ToUpper(strings.TrimSpace(data.Code)),
	}
	if err := db.Create(&uom).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create unit of measure")
	}
	return c.Status(fiber.StatusCreated).JSON(uom)
}

func GetUnitsOfMeasure(c *fiber.Ctx) error {
	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	var uoms []models.UnitOfMeasure
	if err := db.Order("code ASC").Find(&uoms).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"units": uoms})
}
