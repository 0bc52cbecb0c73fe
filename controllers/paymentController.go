package controllers

import (
	"time"

	"billing-backend/billing"
	"billing-backend/middlewares"
	"billing-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type paymentDTO struct {
	Amount    decimal.Decimal      `json:"amount"`
	PaidAt    *time.Time           `json:"payment_date"`
	Method    models.PaymentMethod `json:"payment_method" validate:"required,oneof=cash bank_transfer check credit_card other"`
	Reference string               `json:"reference"`
	Notes     string               `json:"notes"`
}

// CreatePayment records a payment against an invoice and rolls the balance
// and status forward. Amounts above the open balance are refused; duplicate
// submissions are absorbed by the Idempotency-Key middleware.
func CreatePayment(c *fiber.Ctx) error {
	var data paymentDTO
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}

	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	invoice, err := loadDocument(db, uintParam(c, "id"))
	if err != nil {
		return err
	}

	// Amounts settle in cents. Rounding before reconciling keeps balance_due
	// equal to grand total minus the stored payment rows, exactly.
	amount := data.Amount.Round(2)
	balance, status, err := billing.ApplyPayment(invoice, amount)
	if err != nil {
		return err
	}

	paidAt := time.Now()
	if data.PaidAt != nil {
		paidAt = *data.PaidAt
	}
	payment := models.Payment{
		InvoiceID: invoice.ID,
		Amount:    amount,
		Method:    data.Method,
		Reference: data.Reference,
		Notes:     data.Notes,
		PaidAt:    paidAt,
	}
	if err := db.Create(&payment).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not record payment")
	}

	if err := db.Model(&models.Document{}).Where("id = ?", invoice.ID).Updates(map[string]any{
		"balance_due": balance,
		"status":      status,
	}).Error; err != nil {
		return err
	}

	invoice.BalanceDue = balance
	invoice.Status = status
	invoice.DisplayStatus = billing.DisplayStatus(invoice, time.Now())
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"payment": payment,
		"invoice": invoice,
	})
}

func ListPayments(c *fiber.Ctx) error {
	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	var payments []models.Payment
	if err := db.Where("invoice_id = ?", uintParam(c, "id")).
		Order("paid_at ASC").Find(&payments).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"payments": payments})
}

// DeletePayment removes one payment and rebuilds balance and status from
// the remaining set. Removing the only payment reverts the invoice to sent.
func DeletePayment(c *fiber.Ctx) error {
	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	invoice, err := loadDocument(db, uintParam(c, "id"))
	if err != nil {
		return err
	}

	var payment models.Payment
	if err := db.Where("invoice_id = ?", invoice.ID).
		First(&payment, uintParam(c, "paymentId")).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "payment not found")
	}
	if err := db.Delete(&payment).Error; err != nil {
		return err
	}

	var remaining []models.Payment
	if err := db.Where("invoice_id = ?", invoice.ID).Find(&remaining).Error; err != nil {
		return err
	}
	balance, status := billing.RecomputeBalance(invoice.GrandTotal, remaining)

	if err := db.Model(&models.Document{}).Where("id = ?", invoice.ID).Updates(map[string]any{
		"balance_due": balance,
		"status":      status,
	}).Error; err != nil {
		return err
	}

	invoice.BalanceDue = balance
	invoice.Status = status
	invoice.Payments = remaining
	invoice.DisplayStatus = billing.DisplayStatus(invoice, time.Now())
	return c.JSON(invoice)
}
