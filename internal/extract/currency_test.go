package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrencyDetector_Detect(t *testing.T) {
	d := NewCurrencyDetector()

	cases := []struct {
		name     string
		text     string
		code     string
		detected bool
	}{
		{"euro symbol", "Total: €1.200,00", "EUR", true},
		{"pound symbol", "Amount due: £45.00", "GBP", true},
		{"dollar symbol", "Total: $45.99", "USD", true},
		{"symbol beats code", "€ 100 USD equivalent", "EUR", true},
		{"explicit code", "Valor a pagar: 125.430 COP", "COP", true},
		{"lowercase code", "total 500 mxn", "MXN", true},
		{"peso with country", "pesos de Colombia", "COP", true},
		{"peso with mexico", "precio en pesos, México", "MXN", true},
		{"peso without country defaults regional", "Total: 125.430 pesos", "COP", true},
		{"language keyword", "quinientos dólares", "USD", true},
		{"euro keyword", "pago de 30 euros", "EUR", true},
		{"no signal falls back to default", "Gracias por su compra", "USD", false},
		{"empty text", "", "USD", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, detected := d.Detect(tc.text)
			assert.Equal(t, tc.code, code)
			assert.Equal(t, tc.detected, detected)
		})
	}
}
