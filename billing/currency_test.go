package billing

import (
	"testing"

	"billing-backend/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settingsEUR() *models.CompanySettings {
	return &models.CompanySettings{Currency: "EUR", BaseCurrency: "EUR"}
}

func rate(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d(s), Valid: true}
}

func TestResolveCurrencyDefaultsToCompanyCurrency(t *testing.T) {
	res, err := ResolveCurrency("", decimal.NullDecimal{}, settingsEUR())
	require.NoError(t, err)
	assert.Equal(t, "EUR", res.Currency)
	assert.False(t, res.RequiresExchangeRate)
}

func TestResolveCurrencyBaseNeverNeedsRate(t *testing.T) {
	// Same as base: no rate required, and a stray provided rate is dropped.
	res, err := ResolveCurrency("EUR", rate("1.1"), settingsEUR())
	require.NoError(t, err)
	assert.False(t, res.RequiresExchangeRate)
	assert.False(t, res.ExchangeRate.Valid)
}

func TestResolveCurrencyForeignRequiresRate(t *testing.T) {
	_, err := ResolveCurrency("USD", decimal.NullDecimal{}, settingsEUR())
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = ResolveCurrency("USD", rate("0"), settingsEUR())
	assert.True(t, IsValidation(err), "zero rate rejected")

	_, err = ResolveCurrency("USD", rate("-2"), settingsEUR())
	assert.True(t, IsValidation(err), "negative rate rejected")

	res, err := ResolveCurrency("USD", rate("1.0845"), settingsEUR())
	require.NoError(t, err)
	assert.True(t, res.RequiresExchangeRate)
	assert.True(t, res.ExchangeRate.Decimal.Equal(d("1.0845")))
}
