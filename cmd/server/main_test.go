package main

import (
	"testing"

	"dhaba-pos/config"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCompanyDefaults(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	got := companyDefaults(config.CompanyDefaults{
		Name:            "Sharma Dhaba",
		TaxRate:         "5",
		DiscountDefault: "2.5",
	}, zap.New(core))

	assert.Equal(t, "Sharma Dhaba", got.Name)
	assert.Equal(t, "5", got.TaxRate.String())
	assert.Equal(t, "2.5", got.DiscountDefault.String())
	assert.Zero(t, logs.Len())
}

func TestCompanyDefaultsWarnsOnMalformedRates(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	got := companyDefaults(config.CompanyDefaults{TaxRate: "five", DiscountDefault: "10%"}, zap.New(core))

	assert.True(t, got.TaxRate.IsZero())
	assert.True(t, got.DiscountDefault.IsZero())
	assert.Equal(t, 1, logs.FilterMessage("Ignoring invalid DEFAULT_TAX_RATE").Len())
	assert.Equal(t, 1, logs.FilterMessage("Ignoring invalid DEFAULT_DISCOUNT").Len())
}
