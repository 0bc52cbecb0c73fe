package billing

import (
	"billing-backend/models"

	"github.com/shopspring/decimal"
)

// Resolution is the outcome of currency policy for one document.
type Resolution struct {
	Currency             string              `json:"currency"`
	RequiresExchangeRate bool                `json:"requires_exchange_rate"`
	ExchangeRate         decimal.NullDecimal `json:"exchange_rate"`
}

// ResolveCurrency defaults an unset document currency to the company default
// and demands an explicit positive exchange rate whenever the document is
// priced off the base currency. The rate is the one the user recorded at
// issuance; it is stored, never recomputed.
func ResolveCurrency(currency string, rate decimal.NullDecimal, settings *models.CompanySettings) (Resolution, error) {
	if currency == "" {
		currency = settings.Currency
	}
	res := Resolution{
		Currency:             currency,
		RequiresExchangeRate: currency != settings.BaseCurrency,
		ExchangeRate:         rate,
	}
	if !res.RequiresExchangeRate {
		// Same as base: no rate needed, and none stored.
		res.ExchangeRate = decimal.NullDecimal{}
		return res, nil
	}
	if !rate.Valid || !rate.Decimal.IsPositive() {
		return res, Invalidf("exchange_rate",
			"currency %s differs from base currency %s and requires a positive exchange rate",
			currency, settings.BaseCurrency)
	}
	return res, nil
}
