package extract

// Category is one of the fixed spend categories an invoice can be filed
// under. Categorization is keyword-driven; anything that matches no keyword
// table entry lands in CategoryMiscellaneous.
type Category string

const (
	CategoryUtilities      Category = "utilities"
	CategoryOfficeSupplies Category = "office_supplies"
	CategorySoftware       Category = "software"
	CategoryServices       Category = "services"
	CategoryHosting        Category = "hosting"
	CategoryTransportation Category = "transportation"
	CategoryMiscellaneous  Category = "miscellaneous"

	// CategoryError marks the fallback record produced when the pipeline
	// could not run at all.
	CategoryError Category = "error"
)

// Extraction method tags recorded on every InvoiceRecord.
const (
	MethodPatternMatching = "pattern_matching"
	MethodFallback        = "fallback"
)

// VendorUnknown is the literal label used when no vendor could be derived
// from the sender header or the document text.
const VendorUnknown = "Remitente desconocido"

// DefaultCurrency is assumed when no symbol, code or keyword identifies one.
const DefaultCurrency = "USD"

// InvoiceRecord is the sole output of the extraction pipeline. A record is
// assembled once per (email, attachment-or-body) unit and is immutable after
// the pipeline returns it.
type InvoiceRecord struct {
	Amount        *float64 `json:"amount,omitempty"`
	Currency      string   `json:"currency"`
	Vendor        string   `json:"vendor"`
	Concept       string   `json:"concept"`
	InvoiceNumber string   `json:"invoice_number,omitempty"`
	InvoiceDate   string   `json:"invoice_date,omitempty"`
	DueDate       string   `json:"due_date,omitempty"`
	TaxAmount     *float64 `json:"tax_amount,omitempty"`
	TaxID         string   `json:"tax_id,omitempty"`
	PaymentMethod string   `json:"payment_method,omitempty"`
	Category      Category `json:"category"`
	Confidence    float64  `json:"confidence"`

	// ExtractionMethod tags how the record was produced, e.g.
	// "pattern_matching" or "fallback".
	ExtractionMethod string `json:"extraction_method"`
}

// EmailContext carries the envelope metadata of the email a unit came from.
// It is owned by the caller and read-only to the pipeline.
type EmailContext struct {
	Sender  string
	Subject string
	Date    string

	// Body is an optional already-decoded plain text body, used when the
	// primary content source yields nothing.
	Body string
}

// Attachment is one attachment blob handed to the pipeline. Only text-like
// attachments are normalized; PDF/Word/XML blobs are ignored by the
// extractor and pass through the system unexamined.
type Attachment struct {
	Filename    string
	ContentType string
	Content     Content
}
