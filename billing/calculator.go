package billing

import (
	"billing-backend/models"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// LineAmounts is the monetary breakdown of a single line item. All values
// are exact decimals; rounding to cents happens only at presentation.
type LineAmounts struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountAmt   decimal.Decimal `json:"discount_amount"`
	AfterDiscount decimal.Decimal `json:"after_discount"`
	TaxAmt        decimal.Decimal `json:"tax_amount"`
	Total         decimal.Decimal `json:"total"`
}

// Totals aggregates line amounts across a whole document.
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
}

// ComputeLine computes one line's contribution. Discount applies strictly
// before tax: tax is charged on the discounted amount, not the gross amount.
func ComputeLine(item models.LineItem) LineAmounts {
	subtotal := item.Quantity.Mul(item.Price)
	discount := subtotal.Mul(clampPercent(item.DiscountPercent)).Div(oneHundred)
	afterDiscount := subtotal.Sub(discount)
	tax := afterDiscount.Mul(clampPercent(item.TaxPercent)).Div(oneHundred)

	return LineAmounts{
		Subtotal:      subtotal,
		DiscountAmt:   discount,
		AfterDiscount: afterDiscount,
		TaxAmt:        tax,
		Total:         afterDiscount.Add(tax),
	}
}

// ComputeTotals sums line contributions into document totals.
// GrandTotal == Subtotal - DiscountTotal + TaxTotal holds exactly because
// no intermediate rounding takes place.
func ComputeTotals(items []models.LineItem) Totals {
	var t Totals
	for _, item := range items {
		la := ComputeLine(item)
		t.Subtotal = t.Subtotal.Add(la.Subtotal)
		t.DiscountTotal = t.DiscountTotal.Add(la.DiscountAmt)
		t.TaxTotal = t.TaxTotal.Add(la.TaxAmt)
		t.GrandTotal = t.GrandTotal.Add(la.Total)
	}
	return t
}

// Round returns the totals rounded to cents for storage/presentation.
func (t Totals) Round() Totals {
	return Totals{
		Subtotal:      t.Subtotal.Round(2),
		DiscountTotal: t.DiscountTotal.Round(2),
		TaxTotal:      t.TaxTotal.Round(2),
		GrandTotal:    t.GrandTotal.Round(2),
	}
}

// ValidateItems rejects a document draft whose lines cannot be priced.
func ValidateItems(items []models.LineItem) error {
	if len(items) == 0 {
		return Invalidf("items", "document requires at least one line item")
	}
	for i, item := range items {
		if item.Name == "" {
			return Invalidf("items", "line %d is missing a name", i+1)
		}
		if !item.Quantity.IsPositive() {
			return Invalidf("items", "line %d requires a positive quantity", i+1)
		}
		if item.Price.IsNegative() {
			return Invalidf("items", "line %d has a negative price", i+1)
		}
		for _, pct := range []decimal.Decimal{item.DiscountPercent, item.TaxPercent} {
			if pct.IsNegative() || pct.GreaterThan(oneHundred) {
				return Invalidf("items", "line %d has a percentage outside [0,100]", i+1)
			}
		}
	}
	return nil
}

func clampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(oneHundred) {
		return oneHundred
	}
	return p
}
