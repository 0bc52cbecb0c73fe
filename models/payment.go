package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PayCash         PaymentMethod = "cash"
	PayBankTransfer PaymentMethod = "bank_transfer"
	PayCheck        PaymentMethod = "check"
	PayCreditCard   PaymentMethod = "credit_card"
	PayOther        PaymentMethod = "other"
)

// Payment is a partial or full settlement against one invoice. Deleting a
// payment forces a balance/status recompute on the invoice.
type Payment struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	InvoiceID uint            `json:"invoice_id" gorm:"index:idx_payments_invoice_paid_at,priority:1"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:numeric(12,2)"`
	Method    PaymentMethod   `json:"payment_method" gorm:"type:VARCHAR(20)"`
	Reference string          `json:"reference"`
	Notes     string          `json:"notes"`
	PaidAt    time.Time       `json:"payment_date" gorm:"index:idx_payments_invoice_paid_at,priority:2"`
	CreatedAt time.Time       `json:"created_at"`
}
