package extract

// ConfidenceWeights is the fixed per-field weight table the scorer sums
// over. A field counts when it is non-empty (strings), non-nil (amounts) or
// different from its default (currency, category). The result is capped at
// 1.0.
type ConfidenceWeights struct {
	Amount        float64
	Vendor        float64
	Concept       float64
	InvoiceNumber float64
	InvoiceDate   float64
	DueDate       float64
	Currency      float64
	Tax           float64
	TaxID         float64
	Category      float64
}

// DefaultConfidenceWeights mirrors the historical weighting: the amount and
// vendor dominate, identifiers and dates follow, everything else is
// residual.
func DefaultConfidenceWeights() ConfidenceWeights {
	return ConfidenceWeights{
		Amount:        0.28,
		Vendor:        0.22,
		Concept:       0.17,
		InvoiceNumber: 0.15,
		InvoiceDate:   0.08,
		DueDate:       0.03,
		Currency:      0.02,
		Tax:           0.02,
		TaxID:         0.02,
		Category:      0.01,
	}
}

// Score computes the weighted presence score for a record. The returned
// value is always within [0, 1].
func (w ConfidenceWeights) Score(rec *InvoiceRecord) float64 {
	var score float64

	if rec.Amount != nil && *rec.Amount > 0 {
		score += w.Amount
	}
	if rec.Vendor != "" && rec.Vendor != VendorUnknown {
		score += w.Vendor
	}
	if rec.Concept != "" {
		score += w.Concept
	}
	if rec.InvoiceNumber != "" {
		score += w.InvoiceNumber
	}
	if rec.InvoiceDate != "" {
		score += w.InvoiceDate
	}
	if rec.DueDate != "" {
		score += w.DueDate
	}
	if rec.Currency != "" && rec.Currency != DefaultCurrency {
		score += w.Currency
	}
	if rec.TaxAmount != nil && *rec.TaxAmount > 0 {
		score += w.Tax
	}
	if rec.TaxID != "" {
		score += w.TaxID
	}
	if rec.Category != CategoryMiscellaneous && rec.Category != CategoryError && rec.Category != "" {
		score += w.Category
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0 {
		score = 0
	}
	return score
}
