package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	t.Run("european format with both separators", func(t *testing.T) {
		v, ok := ParseAmount("1.234,56")
		assert.True(t, ok)
		assert.Equal(t, 1234.56, v)
	})

	t.Run("american format with both separators", func(t *testing.T) {
		v, ok := ParseAmount("1,234.56")
		assert.True(t, ok)
		assert.Equal(t, 1234.56, v)
	})

	t.Run("decimal comma only", func(t *testing.T) {
		v, ok := ParseAmount("1234,56")
		assert.True(t, ok)
		assert.Equal(t, 1234.56, v)
	})

	t.Run("thousands comma only", func(t *testing.T) {
		v, ok := ParseAmount("1,234")
		assert.True(t, ok)
		assert.Equal(t, 1234.0, v)
	})

	t.Run("plain decimal", func(t *testing.T) {
		v, ok := ParseAmount("45.99")
		assert.True(t, ok)
		assert.Equal(t, 45.99, v)
	})

	t.Run("currency symbol and spaces are ignored", func(t *testing.T) {
		v, ok := ParseAmount("$ 2.500,00 COP")
		assert.True(t, ok)
		assert.Equal(t, 2500.0, v)
	})

	t.Run("large european grouping", func(t *testing.T) {
		v, ok := ParseAmount("1.234.567,89")
		assert.True(t, ok)
		assert.Equal(t, 1234567.89, v)
	})

	t.Run("garbage is rejected without error", func(t *testing.T) {
		v, ok := ParseAmount("garbage")
		assert.False(t, ok)
		assert.Equal(t, 0.0, v)
	})

	t.Run("empty input", func(t *testing.T) {
		_, ok := ParseAmount("")
		assert.False(t, ok)
	})

	t.Run("separators only", func(t *testing.T) {
		_, ok := ParseAmount("...")
		assert.False(t, ok)
	})
}
