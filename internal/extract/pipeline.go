package extract

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

const conceptMaxLen = 500

// attachmentSeparator makes each text source visible in the concatenated
// input, which helps when debugging a bad extraction.
const attachmentSeparator = "\n\n--- ADJUNTO: %s ---\n"

var (
	invoiceNumberCleanRe = regexp.MustCompile(`[^A-Z0-9-]`)
	whitespaceRunRe      = regexp.MustCompile(`\s+`)
)

// Extractor is the single-shot extraction pipeline. It holds only immutable
// tables built at construction time, so one instance can serve any number of
// concurrent callers.
type Extractor struct {
	normalizer *Normalizer
	fields     *FieldExtractor
	currency   *CurrencyDetector
	vendors    *VendorResolver
	categories *CategoryTable
	weights    ConfidenceWeights
	logger     *zap.Logger
}

// Option customizes an Extractor at construction time.
type Option func(*options)

type options struct {
	patterns   map[Field][]string
	categories []CategoryEntry
	weights    ConfidenceWeights
	maxLen     int
}

// WithPatterns replaces the default pattern cascades.
func WithPatterns(patterns map[Field][]string) Option {
	return func(o *options) { o.patterns = patterns }
}

// WithCategories replaces the default category keyword table.
func WithCategories(entries []CategoryEntry) Option {
	return func(o *options) { o.categories = entries }
}

// WithConfidenceWeights replaces the default scoring weights.
func WithConfidenceWeights(w ConfidenceWeights) Option {
	return func(o *options) { o.weights = w }
}

// WithMaxTextLength bounds the normalized text length.
func WithMaxTextLength(n int) Option {
	return func(o *options) { o.maxLen = n }
}

// NewExtractor builds the pipeline with its immutable configuration. All
// tables are compiled once here; nothing is read from package-level state.
func NewExtractor(logger *zap.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{
		patterns:   DefaultPatterns(),
		categories: DefaultCategories(),
		weights:    DefaultConfidenceWeights(),
		maxLen:     DefaultMaxTextLength,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Extractor{
		normalizer: NewNormalizer(o.maxLen, logger),
		fields:     NewFieldExtractor(CompilePatterns(o.patterns, logger)),
		currency:   NewCurrencyDetector(),
		vendors:    NewVendorResolver(),
		categories: NewCategoryTable(o.categories),
		weights:    o.weights,
		logger:     logger,
	}
}

// Extract runs the full pipeline over one (email, attachments) unit and
// always returns a well-formed record. Whatever goes wrong internally, the
// caller gets something it can file: a single recover at this boundary
// manufactures the guaranteed fallback record.
func (e *Extractor) Extract(body Content, attachments []Attachment, email EmailContext) (rec InvoiceRecord) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("extraction failed, returning fallback record",
				zap.Any("panic", r),
				zap.String("sender", email.Sender))
			rec = e.FallbackRecord(email)
		}
	}()

	fullText := e.buildFullText(body, attachments, email)
	candidates := e.fields.Extract(fullText)

	if amount, ok := SelectAmount(candidates[FieldAmount]); ok {
		rec.Amount = &amount
	}
	rec.Currency, _ = e.currency.Detect(fullText)

	rec.Vendor = e.resolveVendor(candidates[FieldVendor], email)
	rec.Concept = cleanConcept(SelectConcept(candidates[FieldConcept], fullText))
	rec.InvoiceNumber = normalizeInvoiceNumber(SelectFirst(candidates[FieldInvoiceNumber]))
	rec.InvoiceDate = e.resolveInvoiceDate(candidates[FieldInvoiceDate], email)
	if raw := SelectFirst(candidates[FieldDueDate]); raw != "" {
		rec.DueDate, _ = normalizedOrRaw(raw)
	}
	if tax, ok := SelectFirstAmount(candidates[FieldTax]); ok {
		rec.TaxAmount = &tax
	}
	rec.TaxID = SelectFirst(candidates[FieldTaxID])
	rec.PaymentMethod = DetectPaymentMethod(fullText)

	rec.Category = e.categories.Categorize(rec.Vendor, rec.Concept, fullText)
	rec.Confidence = e.weights.Score(&rec)
	rec.ExtractionMethod = MethodPatternMatching

	return rec
}

// FallbackRecord is the minimal record produced when extraction cannot
// proceed: zero confidence, error category, vendor derived from the sender
// domain when one is available.
func (e *Extractor) FallbackRecord(email EmailContext) InvoiceRecord {
	vendor := e.vendors.DomainFromSender(email.Sender)
	if vendor == "" {
		vendor = VendorUnknown
	}
	return InvoiceRecord{
		Currency:         DefaultCurrency,
		Vendor:           vendor,
		Category:         CategoryError,
		Confidence:       0,
		ExtractionMethod: MethodFallback,
	}
}

// buildFullText normalizes and concatenates every text source. Non-text
// attachments (PDF, Word, XML, images) are skipped here: their bytes pass
// through the system unexamined.
func (e *Extractor) buildFullText(body Content, attachments []Attachment, email EmailContext) string {
	text := e.normalizer.Normalize(body, "")
	if text == "" && email.Body != "" {
		text = e.normalizer.NormalizeText(email.Body, "")
	}
	if text == "" {
		text = strings.TrimSpace(email.Subject)
	}

	var b strings.Builder
	b.WriteString(text)
	for _, att := range attachments {
		if !IsTextLike(att.Filename, att.ContentType) {
			continue
		}
		attText := e.normalizer.Normalize(att.Content, att.ContentType)
		if attText == "" {
			continue
		}
		b.WriteString(strings.Replace(attachmentSeparator, "%s", att.Filename, 1))
		b.WriteString(attText)
	}
	return b.String()
}

// resolveVendor prefers the sender-derived label; a textual candidate only
// takes over when the sender header yields nothing usable.
func (e *Extractor) resolveVendor(candidates []string, email EmailContext) string {
	label := e.vendors.ResolveFromSender(email.Sender, email.Subject)
	if label != VendorUnknown {
		return label
	}
	if c := SelectVendor(candidates); c != "" {
		return SanitizeVendorLabel(ellipsize(c, 100))
	}
	return VendorUnknown
}

// resolveInvoiceDate prefers a date parsed from the document text and falls
// back to the email date. The tracking sheet applies its own always-email-
// date policy on top of this.
func (e *Extractor) resolveInvoiceDate(candidates []string, email EmailContext) string {
	if raw := SelectFirst(candidates); raw != "" {
		date, _ := normalizedOrRaw(raw)
		return date
	}
	return EmailDateISO(email.Date)
}

func normalizedOrRaw(raw string) (string, bool) {
	if iso, ok := NormalizeDate(raw); ok {
		return iso, true
	}
	return raw, false
}

// IsTextLike reports whether an attachment can be fed to the normalizer.
// Everything else is an opaque blob to this package.
func IsTextLike(filename, contentType string) bool {
	ct := strings.ToLower(contentType)
	if strings.HasPrefix(ct, "text/") {
		return true
	}
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".txt") || strings.HasSuffix(lower, ".csv")
}

func cleanConcept(concept string) string {
	concept = whitespaceRunRe.ReplaceAllString(strings.TrimSpace(concept), " ")
	runes := []rune(concept)
	if len(runes) > conceptMaxLen {
		concept = string(runes[:conceptMaxLen]) + "..."
	}
	return concept
}

func normalizeInvoiceNumber(raw string) string {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	raw = strings.ReplaceAll(raw, " ", "")
	return invoiceNumberCleanRe.ReplaceAllString(raw, "")
}

// DetectPaymentMethod looks for payment hints in the text. It feeds the
// tracking sheet's payment method column and is empty when nothing matches.
func DetectPaymentMethod(text string) string {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "credit card", "tarjeta", "visa", "mastercard"):
		return "credit_card"
	case containsAny(lower, "bank transfer", "transferencia", "wire transfer"):
		return "bank_transfer"
	case strings.Contains(lower, "paypal"):
		return "paypal"
	case containsAny(lower, "cash", "efectivo", "contado"):
		return "cash"
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
