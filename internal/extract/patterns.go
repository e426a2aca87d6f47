package extract

import (
	"regexp"

	"go.uber.org/zap"
)

// Field names extraction candidates are collected under.
type Field string

const (
	FieldAmount        Field = "amount"
	FieldVendor        Field = "vendor"
	FieldConcept       Field = "concept"
	FieldInvoiceNumber Field = "invoiceNumber"
	FieldInvoiceDate   Field = "invoiceDate"
	FieldDueDate       Field = "dueDate"
	FieldTax           Field = "tax"
	FieldTaxID         Field = "taxId"
)

// fieldOrder fixes iteration order over the pattern table so extraction is
// deterministic regardless of map ordering.
var fieldOrder = []Field{
	FieldAmount, FieldVendor, FieldConcept, FieldInvoiceNumber,
	FieldInvoiceDate, FieldDueDate, FieldTax, FieldTaxID,
}

// num matches amounts in either thousands convention: "1,234.56",
// "1.234,56", "1234,56", "45.99". All quantifiers are bounded so no pattern
// can blow up on pathological input.
const num = `\d{1,3}(?:[.,]\d{3}){1,4}(?:[.,]\d{1,2})?|\d{1,9}(?:[.,]\d{1,2})?`

const dateNumeric = `\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}-\d{1,2}-\d{1,2}`
const dateTextual = `\d{1,2}\s+de\s+\w{3,12}\s+de\s+\d{4}|\w{3,12}\.?\s+\d{1,2},?\s+\d{4}|\d{1,2}\s+\w{3,12},?\s+\d{4}`

// DefaultPatterns returns the ordered per-field pattern cascades. Order
// matters: for invoice numbers, dates and tax IDs the first pattern that
// yields a candidate wins.
func DefaultPatterns() map[Field][]string {
	return map[Field][]string{
		FieldAmount: {
			`total[:\s]{1,10}[$€£¥]?\s{0,10}(` + num + `)`,
			`amount[:\s]{1,10}[$€£¥]?\s{0,10}(` + num + `)`,
			`importe[:\s]{1,10}[$€£¥]?\s{0,10}(` + num + `)`,
			`valor(?:\s+a\s+pagar)?[:\s]{1,10}[$€£¥]?\s{0,10}(` + num + `)`,
			`subtotal[:\s]{1,10}[$€£¥]?\s{0,10}(` + num + `)`,
			`[$]\s{0,5}(` + num + `)`,
			`€\s{0,5}(` + num + `)`,
			`(` + num + `)\s{0,5}(?:usd|eur|gbp|cop|mxn)\b`,
			`pagar[:\s]{1,10}[$€£¥]?\s{0,10}(` + num + `)`,
			`cobrar[:\s]{1,10}[$€£¥]?\s{0,10}(` + num + `)`,
			`facturar[:\s]{1,10}[$€£¥]?\s{0,10}(` + num + `)`,
		},
		FieldVendor: {
			`from[:\s]{1,5}([^<\n\r]{2,100}?)\s*<`,
			`de[:\s]{1,5}([^<\n\r]{2,100}?)\s*<`,
			`empresa[:\s]{1,5}([^\n\r]{2,120})`,
			`company[:\s]{1,5}([^\n\r]{2,120})`,
			`proveedor[:\s]{1,5}([^\n\r]{2,120})`,
			`supplier[:\s]{1,5}([^\n\r]{2,120})`,
			`factura\s+de[:\s]{1,5}([^\n\r]{2,120})`,
			`invoice\s+from[:\s]{1,5}([^\n\r]{2,120})`,
			`([a-z0-9._%+-]{1,64}@[a-z0-9.-]{1,120}\.[a-z]{2,24})`,
		},
		FieldConcept: {
			`concepto[:\s]{1,5}([^\n\r]{2,200})`,
			`descripci[oó]n[:\s]{1,5}([^\n\r]{2,200})`,
			`description[:\s]{1,5}([^\n\r]{2,200})`,
			`servicio[:\s]{1,5}([^\n\r]{2,200})`,
			`service[:\s]{1,5}([^\n\r]{2,200})`,
			`producto[:\s]{1,5}([^\n\r]{2,200})`,
			`product[:\s]{1,5}([^\n\r]{2,200})`,
			`detalle[:\s]{1,5}([^\n\r]{2,200})`,
			`details[:\s]{1,5}([^\n\r]{2,200})`,
			`motivo[:\s]{1,5}([^\n\r]{2,200})`,
			`reason[:\s]{1,5}([^\n\r]{2,200})`,
			`subject[:\s]{1,5}([^\n\r]{2,200})`,
		},
		FieldInvoiceNumber: {
			`(?:invoice|factura|bill)\s*(?:no\.?|number|número|#)[:\s]{0,5}([a-z0-9][a-z0-9-]{2,24})`,
			`(?:invoice|factura|bill)[:\s]{1,5}#?\s{0,3}([a-z0-9][a-z0-9-]{2,24}\d[a-z0-9-]{0,24})`,
			`(?:no\.?|número|#)\s{0,3}(?:de\s+)?(?:invoice|factura|bill)[:\s]{1,5}([a-z0-9][a-z0-9-]{2,24})`,
			`(?:ref|reference)(?:\s{0,3}no\.?)?[:\s]{1,5}([a-z0-9][a-z0-9-]{2,24})`,
		},
		FieldInvoiceDate: {
			`(?:invoice|factura)\s+date[:\s]{1,5}(` + dateNumeric + `)`,
			`(?:date|fecha)[:\s]{1,5}(` + dateNumeric + `)`,
			`(?:date|fecha)[:\s]{1,5}(` + dateTextual + `)`,
			`(` + dateTextual + `)`,
			`(\d{4}-\d{1,2}-\d{1,2})`,
		},
		FieldDueDate: {
			`(?:due\s+date|vencimiento|vence)[:\s]{1,5}(` + dateNumeric + `)`,
			`(?:due\s+date|vencimiento|vence)[:\s]{1,5}(` + dateTextual + `)`,
			`(?:pay\s+by|pagar\s+antes)[:\s]{1,5}(` + dateNumeric + `|` + dateTextual + `)`,
			`(?:payment\s+due|fecha\s+de\s+vencimiento)[:\s]{1,5}(` + dateNumeric + `|` + dateTextual + `)`,
		},
		FieldTax: {
			`(?:iva|vat|impuestos?|tax(?:es)?)[:\s]{1,10}[$€£¥]?\s{0,10}(` + num + `)`,
			`(?:tax\s+amount|total\s+tax)[:\s]{1,10}[$€£¥]?\s{0,10}(` + num + `)`,
		},
		FieldTaxID: {
			`(?:nit|tax\s+id|rfc)[:\s]{1,5}([0-9][0-9a-z-]{4,19})`,
			`(?:cuit|cuil)[:\s]{1,5}([0-9][0-9-]{4,19})`,
			`rut[:\s]{1,5}([0-9][0-9.-]{4,19})`,
			`ein[:\s]{1,5}([0-9][0-9-]{4,19})`,
		},
	}
}

// CategoryEntry binds one category to its keyword list.
type CategoryEntry struct {
	Category Category
	Keywords []string
}

// DefaultCategories returns the ordered category keyword table. The first
// category whose keyword appears in the combined vendor/concept/full text
// wins, so more specific buckets sit before broader ones.
func DefaultCategories() []CategoryEntry {
	return []CategoryEntry{
		{CategoryUtilities, []string{
			"electric", "electricity", "gas", "water", "internet", "phone", "mobile",
			"eléctrico", "electricidad", "agua", "teléfono", "móvil", "celular",
		}},
		{CategoryOfficeSupplies, []string{
			"staples", "office depot", "supplies", "paper", "printer",
			"suministros", "oficina", "papel", "impresora", "útiles",
		}},
		{CategorySoftware, []string{
			"microsoft", "adobe", "google", "aws", "azure", "license",
			"software", "subscription", "saas", "licencia", "suscripción",
		}},
		{CategoryServices, []string{
			"consulting", "legal", "accounting", "marketing", "design", "development",
			"consultoría", "contabilidad", "mercadeo", "diseño", "desarrollo",
		}},
		{CategoryHosting, []string{
			"hosting", "domain", "server", "cloud", "vps", "dedicated",
			"dominio", "servidor", "nube", "alojamiento",
		}},
		{CategoryTransportation, []string{
			"uber", "taxi", "transport", "fuel", "parking",
			"transporte", "combustible", "gasolina", "estacionamiento",
		}},
	}
}

// PatternSet is the compiled, immutable pattern table the FieldExtractor
// runs. Build it once and share it freely: it holds no mutable state.
type PatternSet struct {
	fields map[Field][]*regexp.Regexp
}

// CompilePatterns compiles the raw cascades. A malformed pattern is logged
// and skipped; it never aborts compilation of the remaining patterns.
func CompilePatterns(raw map[Field][]string, logger *zap.Logger) *PatternSet {
	if logger == nil {
		logger = zap.NewNop()
	}
	compiled := make(map[Field][]*regexp.Regexp, len(raw))
	for field, patterns := range raw {
		list := make([]*regexp.Regexp, 0, len(patterns))
		for _, p := range patterns {
			re, err := regexp.Compile(`(?im)` + p)
			if err != nil {
				logger.Warn("skipping malformed extraction pattern",
					zap.String("field", string(field)),
					zap.String("pattern", p),
					zap.Error(err))
				continue
			}
			list = append(list, re)
		}
		compiled[field] = list
	}
	return &PatternSet{fields: compiled}
}
