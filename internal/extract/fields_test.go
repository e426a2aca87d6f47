package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFieldExtractor(t *testing.T) *FieldExtractor {
	t.Helper()
	return NewFieldExtractor(CompilePatterns(DefaultPatterns(), nil))
}

func TestFieldExtractor_Extract(t *testing.T) {
	fe := newTestFieldExtractor(t)

	t.Run("collects candidates per field", func(t *testing.T) {
		text := "Invoice #INV-001\nTotal: $45.99\nDescription: Monthly hosting service\nNIT: 900123456-1"
		got := fe.Extract(text)

		assert.Contains(t, got[FieldAmount], "45.99")
		assert.Contains(t, got[FieldInvoiceNumber], "INV-001")
		assert.Contains(t, got[FieldConcept], "Monthly hosting service")
		assert.Contains(t, got[FieldTaxID], "900123456-1")
	})

	t.Run("fields without matches are absent", func(t *testing.T) {
		got := fe.Extract("nothing of interest here")
		assert.NotContains(t, got, FieldAmount)
		assert.NotContains(t, got, FieldTaxID)
	})

	t.Run("extraction is deterministic", func(t *testing.T) {
		text := "Total: $10\nAmount: $20\nImporte: 30 USD\nFecha: 01/02/2024"
		first := fe.Extract(text)
		for i := 0; i < 10; i++ {
			require.Equal(t, first, fe.Extract(text))
		}
	})

	t.Run("empty text yields nothing", func(t *testing.T) {
		assert.Empty(t, fe.Extract(""))
	})
}

func TestSelectAmount(t *testing.T) {
	t.Run("picks the largest parsed value", func(t *testing.T) {
		v, ok := SelectAmount([]string{"45.99", "1.234,56", "12"})
		assert.True(t, ok)
		assert.Equal(t, 1234.56, v)
	})

	t.Run("unparseable candidates are skipped", func(t *testing.T) {
		v, ok := SelectAmount([]string{"n/a", "100"})
		assert.True(t, ok)
		assert.Equal(t, 100.0, v)
	})

	t.Run("largest value wins even when it is not the total", func(t *testing.T) {
		// Known limitation of the max heuristic: a quantity or reference
		// number that parses as a larger amount displaces the real total.
		v, ok := SelectAmount([]string{"100", "5000"})
		assert.True(t, ok)
		assert.Equal(t, 5000.0, v)
	})

	t.Run("no parseable candidate", func(t *testing.T) {
		_, ok := SelectAmount([]string{"garbage", ""})
		assert.False(t, ok)
	})
}

func TestSelectFirstAmount(t *testing.T) {
	v, ok := SelectFirstAmount([]string{"bad", "19.00", "500"})
	assert.True(t, ok)
	assert.Equal(t, 19.0, v)

	_, ok = SelectFirstAmount(nil)
	assert.False(t, ok)
}

func TestSelectVendor(t *testing.T) {
	t.Run("prefers a non-generic address", func(t *testing.T) {
		got := SelectVendor([]string{"Some Company", "billing@acme.com"})
		assert.Equal(t, "billing@acme.com", got)
	})

	t.Run("generic addresses are passed over", func(t *testing.T) {
		got := SelectVendor([]string{"noreply@acme.com", "Acme Corporation S.A."})
		assert.Equal(t, "Acme Corporation S.A.", got)
	})

	t.Run("longest non-numeric wins without addresses", func(t *testing.T) {
		got := SelectVendor([]string{"Acme", "Acme Corporation", "123456789"})
		assert.Equal(t, "Acme Corporation", got)
	})

	t.Run("nothing usable", func(t *testing.T) {
		assert.Equal(t, "", SelectVendor([]string{"12", "345.678"}))
	})
}

func TestSelectConcept(t *testing.T) {
	t.Run("longest candidate above ten characters", func(t *testing.T) {
		got := SelectConcept([]string{"corto", "Suministro de energía eléctrica"}, "")
		assert.Equal(t, "Suministro de energía eléctrica", got)
	})

	t.Run("falls back to a description-like line", func(t *testing.T) {
		text := "12345\nfacturas@acme.com\nServicio mensual de soporte técnico\nok"
		got := SelectConcept(nil, text)
		assert.Equal(t, "Servicio mensual de soporte técnico", got)
	})

	t.Run("numeric and address lines are never concepts", func(t *testing.T) {
		text := "123.456.789-0\ncontacto@acme.com"
		assert.Equal(t, "", SelectConcept(nil, text))
	})
}

func TestSelectFirst(t *testing.T) {
	assert.Equal(t, "a", SelectFirst([]string{"", "  ", "a", "b"}))
	assert.Equal(t, "", SelectFirst(nil))
}
