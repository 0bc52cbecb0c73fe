package models

import "github.com/shopspring/decimal"

// ConversionPolicy fixes the initial status of an invoice created from an
// accepted quotation. Explicit, never inferred from workflow state.
type ConversionPolicy string

const (
	ConvertToDraft ConversionPolicy = "draft"
	ConvertToSent  ConversionPolicy = "sent"
)

// CompanySettings is the tenant's single settings row: default currencies,
// tax, numbering and payment terms. Loaded explicitly and passed into the
// billing package, never read as an ambient global.
type CompanySettings struct {
	Id uint `json:"id" gorm:"primaryKey"`

	Currency     string `json:"currency" gorm:"size:3;not null;default:'EUR'"`
	BaseCurrency string `json:"base_currency" gorm:"size:3;not null;default:'EUR'"`

	DefaultTaxPercent decimal.Decimal `json:"default_tax_percent" gorm:"type:numeric(5,2)"`

	InvoicePrefix    string `json:"invoice_prefix" gorm:"size:10;default:'INV-'"`
	QuotationPrefix  string `json:"quotation_prefix" gorm:"size:10;default:'QUO-'"`
	NextInvoiceSeq   int    `json:"next_invoice_seq" gorm:"default:1"`
	NextQuotationSeq int    `json:"next_quotation_seq" gorm:"default:1"`

	PaymentTermsDays int              `json:"payment_terms_days" gorm:"default:14"`
	ConversionPolicy ConversionPolicy `json:"conversion_policy" gorm:"type:VARCHAR(10);default:'draft'"`
	TermsTemplate    string           `json:"terms_template"`
}
