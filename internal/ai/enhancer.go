package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/gmcortes/docufind/internal/config"
	"github.com/gmcortes/docufind/internal/extract"
)

// MethodAIEnhanced tags records that went through a successful enhancement
// pass on top of pattern matching.
const MethodAIEnhanced = "pattern_matching+ai"

// maxPromptTextLen bounds how much email text goes into the prompt.
const maxPromptTextLen = 3000

// Enhancer fills gaps in low-confidence records by asking a chat model for
// the fields the pattern cascades missed. It only ever fills empty fields;
// pattern results are never overwritten.
type Enhancer struct {
	client    *openai.Client
	model     string
	temp      float32
	maxTokens int
	logger    *zap.Logger
}

// NewEnhancer creates an Enhancer from configuration.
func NewEnhancer(cfg config.OpenAIConfig, logger *zap.Logger) *Enhancer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enhancer{
		client:    openai.NewClient(cfg.APIKey),
		model:     cfg.Model,
		temp:      cfg.Temperature,
		maxTokens: cfg.MaxTokens,
		logger:    logger,
	}
}

// enhancedFields is the JSON shape the model is asked to produce. All fields
// are optional; anything absent or empty leaves the record untouched.
type enhancedFields struct {
	Amount        *float64 `json:"amount"`
	Currency      string   `json:"currency"`
	Vendor        string   `json:"vendor"`
	Concept       string   `json:"concept"`
	InvoiceNumber string   `json:"invoice_number"`
	InvoiceDate   string   `json:"invoice_date"`
	DueDate       string   `json:"due_date"`
	TaxAmount     *float64 `json:"tax_amount"`
	TaxID         string   `json:"tax_id"`
	PaymentMethod string   `json:"payment_method"`
	Category      string   `json:"category"`
}

// Enhance sends the email text and the current record to the model and
// merges whatever usable fields come back. On any API or parse failure the
// original record is returned unchanged alongside the error.
func (e *Enhancer) Enhance(
	ctx context.Context,
	rec extract.InvoiceRecord,
	text string,
) (extract.InvoiceRecord, error) {
	prompt := e.buildPrompt(rec, text)

	e.logger.Debug("sending enhancement request",
		zap.String("model", e.model),
		zap.Float64("confidence", rec.Confidence))

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: e.temp,
		MaxTokens:   e.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You extract invoice fields from emails in Spanish or English. " +
					"Always respond with a single valid JSON object and nothing else. " +
					"Omit fields you cannot determine; never invent values.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return rec, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return rec, fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content
	fields, err := parseEnhancedFields(content)
	if err != nil {
		e.logger.Warn("discarding unparseable enhancement response",
			zap.Error(err),
			zap.String("content", firstN(content, 200)))
		return rec, fmt.Errorf("failed to parse enhancement response: %w", err)
	}

	merged := mergeFields(rec, fields)
	merged.ExtractionMethod = MethodAIEnhanced

	// Rescore so the confidence reflects the filled fields, but never let
	// the enhancement pass lower an existing score.
	if score := extract.DefaultConfidenceWeights().Score(&merged); score > merged.Confidence {
		merged.Confidence = score
	}

	e.logger.Info("record enhanced",
		zap.Float64("confidence_before", rec.Confidence),
		zap.Float64("confidence_after", merged.Confidence))
	return merged, nil
}

func (e *Enhancer) buildPrompt(rec extract.InvoiceRecord, text string) string {
	current, _ := json.Marshal(rec)
	return fmt.Sprintf(`An automated extractor produced this partial invoice record:

%s

From the email below, fill in ONLY the fields that are missing or empty.
Respond with a JSON object using these keys: amount (number), currency
(ISO code), vendor, concept, invoice_number, invoice_date (YYYY-MM-DD),
due_date (YYYY-MM-DD), tax_amount (number), tax_id, payment_method,
category (one of: utilities, office_supplies, software, services, hosting,
transportation, miscellaneous).

Email text:
%s`, current, firstN(text, maxPromptTextLen))
}

// parseEnhancedFields parses the model output, tolerating surrounding prose
// or markdown fences around the JSON object.
func parseEnhancedFields(content string) (enhancedFields, error) {
	var fields enhancedFields
	if err := json.Unmarshal([]byte(content), &fields); err == nil {
		return fields, nil
	}

	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start < 0 || end <= start {
		return fields, fmt.Errorf("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &fields); err != nil {
		return fields, err
	}
	return fields, nil
}

// mergeFields copies model output into the record's empty slots only.
func mergeFields(rec extract.InvoiceRecord, f enhancedFields) extract.InvoiceRecord {
	if rec.Amount == nil && f.Amount != nil && *f.Amount > 0 {
		rec.Amount = f.Amount
	}
	if rec.Currency == "" || rec.Currency == extract.DefaultCurrency {
		if code := strings.ToUpper(strings.TrimSpace(f.Currency)); len(code) == 3 {
			rec.Currency = code
		}
	}
	if (rec.Vendor == "" || rec.Vendor == extract.VendorUnknown) && f.Vendor != "" {
		rec.Vendor = extract.SanitizeVendorLabel(f.Vendor)
	}
	if rec.Concept == "" && f.Concept != "" {
		rec.Concept = strings.TrimSpace(f.Concept)
	}
	if rec.InvoiceNumber == "" && f.InvoiceNumber != "" {
		rec.InvoiceNumber = strings.ToUpper(strings.TrimSpace(f.InvoiceNumber))
	}
	if rec.InvoiceDate == "" && f.InvoiceDate != "" {
		rec.InvoiceDate, _ = extract.NormalizeDate(f.InvoiceDate)
	}
	if rec.DueDate == "" && f.DueDate != "" {
		rec.DueDate, _ = extract.NormalizeDate(f.DueDate)
	}
	if rec.TaxAmount == nil && f.TaxAmount != nil && *f.TaxAmount > 0 {
		rec.TaxAmount = f.TaxAmount
	}
	if rec.TaxID == "" && f.TaxID != "" {
		rec.TaxID = strings.TrimSpace(f.TaxID)
	}
	if rec.PaymentMethod == "" && f.PaymentMethod != "" {
		rec.PaymentMethod = strings.TrimSpace(f.PaymentMethod)
	}
	if rec.Category == "" || rec.Category == extract.CategoryMiscellaneous {
		if cat, ok := knownCategory(f.Category); ok {
			rec.Category = cat
		}
	}
	return rec
}

func knownCategory(raw string) (extract.Category, bool) {
	cat := extract.Category(strings.ToLower(strings.TrimSpace(raw)))
	switch cat {
	case extract.CategoryUtilities, extract.CategoryOfficeSupplies,
		extract.CategorySoftware, extract.CategoryServices,
		extract.CategoryHosting, extract.CategoryTransportation,
		extract.CategoryMiscellaneous:
		return cat, true
	}
	return "", false
}

func firstN(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
