package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestExtractor(t *testing.T, opts ...Option) *Extractor {
	t.Helper()
	return NewExtractor(zap.NewNop(), opts...)
}

func TestExtractor_EnglishInvoice(t *testing.T) {
	e := newTestExtractor(t)

	body := TextContent{Text: strings.Join([]string{
		"Invoice #INV-2024-001",
		"From: Tech Services Inc. <billing@techservices.com>",
		"Date: January 15, 2024",
		"Description: Monthly hosting service",
		"Amount: $45.99",
		"Due Date: February 15, 2024",
	}, "\n")}

	rec := e.Extract(body, nil, EmailContext{
		Sender:  "Tech Services Inc. <billing@techservices.com>",
		Subject: "Your invoice is ready",
		Date:    "2024-01-15 08:00:00",
	})

	require.NotNil(t, rec.Amount)
	assert.Equal(t, 45.99, *rec.Amount)
	assert.Equal(t, "USD", rec.Currency)
	assert.Equal(t, "techservices.com - Tech Services Inc.", rec.Vendor)
	assert.Equal(t, "Monthly hosting service", rec.Concept)
	assert.Equal(t, "INV-2024-001", rec.InvoiceNumber)
	assert.Equal(t, "2024-01-15", rec.InvoiceDate)
	assert.Equal(t, "2024-02-15", rec.DueDate)
	assert.Equal(t, CategoryHosting, rec.Category)
	assert.Equal(t, MethodPatternMatching, rec.ExtractionMethod)
	assert.InDelta(t, 0.94, rec.Confidence, 1e-9)
}

func TestExtractor_SpanishInvoice(t *testing.T) {
	e := newTestExtractor(t)

	body := TextContent{Text: strings.Join([]string{
		"FACTURA DE SERVICIOS PÚBLICOS",
		"Empresa: Electricidad del Caribe S.A.",
		"Fecha: 15 de enero de 2024",
		"Concepto: Suministro de energía eléctrica",
		"Valor a pagar: 125.430 COP",
		"Fecha de vencimiento: 28 de febrero de 2024",
		"Pago: transferencia bancaria",
		"NIT: 900123456-1",
	}, "\n")}

	rec := e.Extract(body, nil, EmailContext{
		Sender:  "facturacion@electricaribe.com.co",
		Subject: "Factura servicios públicos enero",
		Date:    "2024-01-16 09:00:00",
	})

	require.NotNil(t, rec.Amount)
	assert.Equal(t, 125.43, *rec.Amount)
	assert.Equal(t, "COP", rec.Currency)
	assert.Equal(t, "electricaribe.com.co - Factura servicios públicos", rec.Vendor)
	assert.Equal(t, "Suministro de energía eléctrica", rec.Concept)
	assert.Equal(t, "", rec.InvoiceNumber)
	assert.Equal(t, "2024-01-15", rec.InvoiceDate)
	assert.Equal(t, "2024-02-28", rec.DueDate)
	assert.Equal(t, "900123456-1", rec.TaxID)
	assert.Equal(t, "bank_transfer", rec.PaymentMethod)
	assert.Equal(t, CategoryUtilities, rec.Category)
	assert.InDelta(t, 0.83, rec.Confidence, 1e-9)
}

func TestExtractor_Idempotent(t *testing.T) {
	e := newTestExtractor(t)

	body := TextContent{Text: "Total: $10\nAmount: $20\nImporte: 30 USD\nDescription: Soporte técnico mensual"}
	email := EmailContext{Sender: "billing@acme.com", Subject: "Factura", Date: "2024-03-01 10:00:00"}

	first := e.Extract(body, nil, email)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, e.Extract(body, nil, email))
	}
}

func TestExtractor_EmptyInput(t *testing.T) {
	e := newTestExtractor(t)

	rec := e.Extract(TextContent{}, nil, EmailContext{})

	assert.Nil(t, rec.Amount)
	assert.Equal(t, "USD", rec.Currency)
	assert.Equal(t, VendorUnknown, rec.Vendor)
	assert.Equal(t, CategoryMiscellaneous, rec.Category)
	assert.Equal(t, MethodPatternMatching, rec.ExtractionMethod)
	assert.Equal(t, 0.0, rec.Confidence)
}

func TestExtractor_SubjectOnlyFallback(t *testing.T) {
	e := newTestExtractor(t)

	rec := e.Extract(TextContent{}, nil, EmailContext{
		Sender:  "noreply@cloudhost.io",
		Subject: "Your January Hosting Bill",
		Date:    "2024-01-31 23:59:00",
	})

	assert.Equal(t, "cloudhost.io - Your January Hosting", rec.Vendor)
	assert.Equal(t, CategoryHosting, rec.Category)
	assert.Equal(t, "2024-01-31", rec.InvoiceDate)
	assert.GreaterOrEqual(t, rec.Confidence, 0.0)
	assert.LessOrEqual(t, rec.Confidence, 1.0)
}

func TestExtractor_BinaryGarbage(t *testing.T) {
	e := newTestExtractor(t)

	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i * 31)
	}
	rec := e.Extract(BytesContent{Data: data}, nil, EmailContext{
		Sender: "billing@acme.com",
		Date:   "2024-05-02 12:00:00",
	})

	assert.Equal(t, "acme.com", rec.Vendor)
	assert.GreaterOrEqual(t, rec.Confidence, 0.0)
	assert.LessOrEqual(t, rec.Confidence, 1.0)
	assert.Equal(t, MethodPatternMatching, rec.ExtractionMethod)
}

func TestExtractor_OversizedInput(t *testing.T) {
	e := newTestExtractor(t)

	body := TextContent{Text: "Total: $99.99\n" + strings.Repeat("lorem ipsum data ", 70000)}
	rec := e.Extract(body, nil, EmailContext{Sender: "billing@bigsender.example"})

	require.NotNil(t, rec.Amount)
	assert.Equal(t, 99.99, *rec.Amount)
	assert.Equal(t, "bigsender.example", rec.Vendor)
	assert.LessOrEqual(t, rec.Confidence, 1.0)
}

func TestExtractor_Attachments(t *testing.T) {
	e := newTestExtractor(t)

	t.Run("text attachments contribute to extraction", func(t *testing.T) {
		att := Attachment{
			Filename:    "detalle.txt",
			ContentType: "text/plain",
			Content:     TextContent{Text: "Total: $250.00"},
		}
		rec := e.Extract(TextContent{Text: "Factura adjunta"}, []Attachment{att}, EmailContext{
			Sender: "billing@acme.com",
		})

		require.NotNil(t, rec.Amount)
		assert.Equal(t, 250.0, *rec.Amount)
	})

	t.Run("binary attachments are ignored", func(t *testing.T) {
		att := Attachment{
			Filename:    "factura.pdf",
			ContentType: "application/pdf",
			Content:     BytesContent{Data: []byte("%PDF-1.4 Total: $500")},
		}
		rec := e.Extract(TextContent{Text: "Sin datos"}, []Attachment{att}, EmailContext{
			Sender: "billing@acme.com",
		})

		assert.Nil(t, rec.Amount)
	})
}

func TestExtractor_FallbackRecord(t *testing.T) {
	e := newTestExtractor(t)

	t.Run("sender domain survives", func(t *testing.T) {
		rec := e.FallbackRecord(EmailContext{Sender: "billing@mail.acme.com"})
		assert.Equal(t, "acme.com", rec.Vendor)
		assert.Equal(t, CategoryError, rec.Category)
		assert.Equal(t, 0.0, rec.Confidence)
		assert.Equal(t, "USD", rec.Currency)
		assert.Equal(t, MethodFallback, rec.ExtractionMethod)
	})

	t.Run("no sender at all", func(t *testing.T) {
		rec := e.FallbackRecord(EmailContext{})
		assert.Equal(t, VendorUnknown, rec.Vendor)
		assert.Equal(t, CategoryError, rec.Category)
	})
}

func TestExtractor_MalformedPatternIsSkipped(t *testing.T) {
	e := newTestExtractor(t, WithPatterns(map[Field][]string{
		FieldAmount: {
			`([a-z`,
			`total[:\s]{1,5}\$?(\d{1,6}\.\d{2})`,
		},
	}))

	rec := e.Extract(TextContent{Text: "Total: $123.45"}, nil, EmailContext{Sender: "a@b.co"})

	require.NotNil(t, rec.Amount)
	assert.Equal(t, 123.45, *rec.Amount)
}

func TestIsTextLike(t *testing.T) {
	assert.True(t, IsTextLike("x.bin", "text/plain"))
	assert.True(t, IsTextLike("datos.csv", "application/octet-stream"))
	assert.True(t, IsTextLike("notas.TXT", ""))
	assert.False(t, IsTextLike("factura.pdf", "application/pdf"))
	assert.False(t, IsTextLike("logo.png", "image/png"))
}
