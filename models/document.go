package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type DocumentKind string

const (
	KindQuotation DocumentKind = "quotation"
	KindInvoice   DocumentKind = "invoice"
	KindRecurring DocumentKind = "recurring"
)

type DocumentStatus string

// Stored statuses. Expired/overdue are derived views, never written.
const (
	StatusDraft     DocumentStatus = "draft"
	StatusSent      DocumentStatus = "sent"
	StatusAccepted  DocumentStatus = "accepted"
	StatusRejected  DocumentStatus = "rejected"
	StatusConverted DocumentStatus = "converted"
	StatusPartial   DocumentStatus = "partial"
	StatusPaid      DocumentStatus = "paid"

	// Derived display-only statuses.
	StatusExpired DocumentStatus = "expired"
	StatusOverdue DocumentStatus = "overdue"

	// Recurring templates only track active/ended.
	StatusActive DocumentStatus = "active"
	StatusEnded  DocumentStatus = "ended"
)

type Frequency string

const (
	FreqDaily     Frequency = "daily"
	FreqWeekly    Frequency = "weekly"
	FreqMonthly   Frequency = "monthly"
	FreqQuarterly Frequency = "quarterly"
	FreqAnnually  Frequency = "annually"
)

type AutoBill string

const (
	AutoBillDisabled AutoBill = "disabled"
	AutoBillEnabled  AutoBill = "enabled"
	AutoBillOptIn    AutoBill = "opt_in"
)

// Document is the current/live state of a billing artifact: a quotation, an
// invoice, or a recurring invoice template, discriminated by Kind.
type Document struct {
	ID     uint         `json:"id" gorm:"primaryKey"`
	Kind   DocumentKind `json:"kind" gorm:"type:VARCHAR(20);not null;index"`
	Number string       `json:"number" gorm:"uniqueIndex:idx_documents_number,where:number <> ''"`

	CId    uint   `json:"client_id" gorm:"column:c_id"`
	Client Client `json:"client" gorm:"foreignKey:CId;references:Id"`

	IssueDate  time.Time  `json:"issue_date"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"` // quotation only
	DueDate    *time.Time `json:"due_date,omitempty"`    // invoice only

	Items []LineItem `json:"items" gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
	Notes string     `json:"notes"`
	Terms string     `json:"terms"`

	// Pricing currency with the rate to the organisation's base currency,
	// recorded explicitly at issuance. Never recomputed from market data.
	Currency     string              `json:"currency" gorm:"size:3;not null"`
	ExchangeRate decimal.NullDecimal `json:"exchange_rate" gorm:"type:numeric(16,6)"`

	Status DocumentStatus `json:"status" gorm:"type:VARCHAR(20);not null;default:'draft'"`

	// Server-computed totals (authoritative).
	Subtotal      decimal.Decimal `json:"subtotal" gorm:"type:numeric(12,2)"`
	DiscountTotal decimal.Decimal `json:"discount_total" gorm:"type:numeric(12,2)"`
	TaxTotal      decimal.Decimal `json:"tax_total" gorm:"type:numeric(12,2)"`
	GrandTotal    decimal.Decimal `json:"grand_total" gorm:"type:numeric(12,2)"`

	// Invoice payments rollup.
	Payments       []Payment       `json:"payments,omitempty" gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	BalanceDue     decimal.Decimal `json:"balance_due" gorm:"type:numeric(12,2)"`
	AcknowledgedAt *time.Time      `json:"acknowledged_at,omitempty"`

	// Quotation conversion trace.
	ConvertedInvoiceID *uint `json:"converted_invoice_id,omitempty"`

	// Recurring template schedule.
	Frequency   Frequency  `json:"frequency,omitempty" gorm:"type:VARCHAR(20)"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	DueDateDays int        `json:"due_date_days,omitempty"`
	AutoBill    AutoBill   `json:"auto_bill,omitempty" gorm:"type:VARCHAR(20)"`
	NextRunAt   *time.Time `json:"next_run_at,omitempty"`

	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// DisplayStatus is derived per read (expired/overdue); never persisted.
	DisplayStatus DocumentStatus `json:"display_status" gorm:"-"`
}

// LineItem is one priced row of a document. Name/description/price are copied
// at add-time; later catalog edits never touch existing rows.
type LineItem struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	DocumentID uint    `json:"-" gorm:"index"`
	Position   int     `json:"position"`
	ItemId     *string `json:"item_id,omitempty"` // weak ref to CatalogItem

	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description"`

	Quantity        decimal.Decimal `json:"quantity" gorm:"type:numeric(12,4);not null"`
	Price           decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	DiscountPercent decimal.Decimal `json:"discount_percent" gorm:"type:numeric(5,2)"`
	TaxPercent      decimal.Decimal `json:"tax_percent" gorm:"type:numeric(5,2)"`
	UomCode         string          `json:"uom_code" gorm:"size:10;default:'PC'"`
}

// DocumentVersion is an immutable jsonb snapshot taken when a document is
// sent or converted, so a sent document's totals stay reproducible.
type DocumentVersion struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	DocumentID uint           `json:"document_id" gorm:"index:idx_document_versions_doc_version,unique,priority:1"`
	VersionNo  int            `json:"version_no" gorm:"not null;index:idx_document_versions_doc_version,unique,priority:2"`
	Kind       DocumentKind   `json:"kind" gorm:"type:VARCHAR(20)"`
	Snapshot   datatypes.JSON `json:"snapshot" gorm:"type:jsonb"`
	CreatedAt  time.Time      `json:"created_at"`
}
