package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmcortes/docufind/internal/extract"
)

func TestEnhancementPolicy(t *testing.T) {
	t.Run("valid threshold", func(t *testing.T) {
		p, err := NewEnhancementPolicy(0.7)
		require.NoError(t, err)
		assert.True(t, p.ShouldEnhance(0.5))
		assert.False(t, p.ShouldEnhance(0.7))
		assert.False(t, p.ShouldEnhance(0.9))
	})

	t.Run("zero threshold disables enhancement", func(t *testing.T) {
		p, err := NewEnhancementPolicy(0)
		require.NoError(t, err)
		assert.False(t, p.ShouldEnhance(0.0))
	})

	t.Run("out of range threshold is rejected", func(t *testing.T) {
		_, err := NewEnhancementPolicy(1.5)
		assert.Error(t, err)
		_, err = NewEnhancementPolicy(-0.1)
		assert.Error(t, err)
	})

	t.Run("nil policy never enhances", func(t *testing.T) {
		var p *EnhancementPolicy
		assert.False(t, p.ShouldEnhance(0.1))
	})
}

func TestParseEnhancedFields(t *testing.T) {
	t.Run("bare json", func(t *testing.T) {
		fields, err := parseEnhancedFields(`{"vendor":"Acme","currency":"COP"}`)
		require.NoError(t, err)
		assert.Equal(t, "Acme", fields.Vendor)
		assert.Equal(t, "COP", fields.Currency)
	})

	t.Run("json inside markdown fences", func(t *testing.T) {
		fields, err := parseEnhancedFields("```json\n{\"invoice_number\":\"F-99\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, "F-99", fields.InvoiceNumber)
	})

	t.Run("prose without json fails", func(t *testing.T) {
		_, err := parseEnhancedFields("I could not find any fields.")
		assert.Error(t, err)
	})
}

func TestMergeFields(t *testing.T) {
	amount := 100.0
	aiAmount := 250.0

	t.Run("empty slots are filled", func(t *testing.T) {
		rec := extract.InvoiceRecord{
			Currency: extract.DefaultCurrency,
			Vendor:   extract.VendorUnknown,
			Category: extract.CategoryMiscellaneous,
		}
		got := mergeFields(rec, enhancedFields{
			Amount:      &aiAmount,
			Currency:    "cop",
			Vendor:      "Electricaribe S.A.",
			InvoiceDate: "15 de enero de 2024",
			Category:    "utilities",
		})

		require.NotNil(t, got.Amount)
		assert.Equal(t, 250.0, *got.Amount)
		assert.Equal(t, "COP", got.Currency)
		assert.Equal(t, "Electricaribe S.A.", got.Vendor)
		assert.Equal(t, "2024-01-15", got.InvoiceDate)
		assert.Equal(t, extract.CategoryUtilities, got.Category)
	})

	t.Run("pattern results are never overwritten", func(t *testing.T) {
		rec := extract.InvoiceRecord{
			Amount:        &amount,
			Currency:      "EUR",
			Vendor:        "acme.com - Acme Corp",
			InvoiceNumber: "INV-1",
			Category:      extract.CategoryHosting,
		}
		got := mergeFields(rec, enhancedFields{
			Amount:        &aiAmount,
			Currency:      "COP",
			Vendor:        "Otro Proveedor",
			InvoiceNumber: "X-2",
			Category:      "utilities",
		})

		assert.Equal(t, 100.0, *got.Amount)
		assert.Equal(t, "EUR", got.Currency)
		assert.Equal(t, "acme.com - Acme Corp", got.Vendor)
		assert.Equal(t, "INV-1", got.InvoiceNumber)
		assert.Equal(t, extract.CategoryHosting, got.Category)
	})

	t.Run("unknown category is ignored", func(t *testing.T) {
		got := mergeFields(extract.InvoiceRecord{Category: extract.CategoryMiscellaneous},
			enhancedFields{Category: "gastos varios"})
		assert.Equal(t, extract.CategoryMiscellaneous, got.Category)
	})

	t.Run("error category is preserved", func(t *testing.T) {
		got := mergeFields(extract.InvoiceRecord{Category: extract.CategoryError},
			enhancedFields{Category: "utilities"})
		assert.Equal(t, extract.CategoryError, got.Category)
	})
}
