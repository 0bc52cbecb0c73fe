package controllers

import (
	"billing-backend/middlewares"
	"billing-backend/models"
	"billing-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type clientDTO struct {
	Name    string              `json:"name" validate:"required"`
	Email   string              `json:"email" validate:"required,email"`
	Phone   string              `json:"phone"`
	Address string              `json:"address"`
	Company string              `json:"company"`
	TaxId   string              `json:"tax_id"`
	Status  models.ClientStatus `json:"status" validate:"omitempty,oneof=active inactive new"`
}

type clientPatchDTO struct {
	Name    *string              `json:"name"`
	Email   *string              `json:"email" validate:"omitempty,email"`
	Phone   *string              `json:"phone"`
	Address *string              `json:"address"`
	Company *string              `json:"company"`
	TaxId   *string              `json:"tax_id"`
	Status  *models.ClientStatus `json:"status" validate:"omitempty,oneof=active inactive new"`
}

func CreateClient(c *fiber.Ctx) error {
	var data clientDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}
	utils.NormalizeDTO(&data)

	db, err := tenantDB(c)
	if err != nil {
		return err
	}

	status := data.Status
	if status == "" {
		status = models.ClientNew
	}
	client := models.Client{
		Name:    data.Name,
		Email:   data.Email,
		Phone:   data.Phone,
		Address: data.Address,
		Company: data.Company,
		TaxId:   data.TaxId,
		Status:  status,
	}
	if err := db.Create(&client).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create client")
	}
	return c.Status(fiber.StatusCreated).JSON(client)
}

func GetClients(c *fiber.Ctx) error {
	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	var clients []models.Client
	if err := db.Order("name ASC").Find(&clients).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"clients": clients})
}

func GetClient(c *fiber.Ctx) error {
	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	var client models.Client
	if err := db.First(&client, c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "client not found")
	}
	return c.JSON(client)
}

func UpdateClient(c *fiber.Ctx) error {
	var data clientPatchDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}
	utils.NormalizeDTO(&data)

	db, err := tenantDB(c)
	if err != nil {
		return err
	}

	var client models.Client
	if err := db.First(&client, c.Params("id")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "client not found")
	}

	updates := utils.UpdatesFromPtrDTO(&data, nil)
	if len(updates) == 0 {
		return c.JSON(client)
	}
	if err := db.Model(&client).Updates(updates).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not update client")
	}
	return c.JSON(client)
}
