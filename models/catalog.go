package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CatalogItem is a pricing template. Adding it to a document copies
// name/description; the rate is never carried over implicitly because
// document pricing is currency-specific.
type CatalogItem struct {
	Id            string          `json:"id" gorm:"primaryKey"`
	Name          string          `json:"name" gorm:"not null"`
	Description   string          `json:"description"`
	Rate          decimal.Decimal `json:"rate" gorm:"type:numeric(12,2)"`
	CategoryId    *uint           `json:"category_id"`
	GstApplicable bool            `json:"gst_applicable"`
	Active        bool            `json:"-"`
}

func (item *CatalogItem) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	item.Id = uuid.NewString()
	return
}

// Category groups catalog items for display only; it never affects totals.
type Category struct {
	Id          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// UnitOfMeasure is display metadata on a line item ("PC", "HR").
// Quantity stays a dimensionless decimal regardless of unit.
type UnitOfMeasure struct {
	Id   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null"`
	Code string `json:"code" gorm:"size:10;uniqueIndex;not null"`
}
