package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// RunSummary aggregates one processing run. It is accumulated by the
// processor and written out as JSON at the end of the run.
type RunSummary struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	EmailsFound       int `json:"emails_found"`
	EmailsProcessed   int `json:"emails_processed"`
	EmailsSkipped     int `json:"emails_skipped"`
	InvoicesExtracted int `json:"invoices_extracted"`
	AttachmentsStored int `json:"attachments_stored"`
	Fallbacks         int `json:"fallbacks"`
	Errors            int `json:"errors"`

	ByCategory      map[string]int     `json:"by_category"`
	TotalByCurrency map[string]float64 `json:"total_by_currency"`
}

// NewRunSummary starts an empty summary stamped with the current time.
func NewRunSummary() *RunSummary {
	return &RunSummary{
		StartedAt:       time.Now(),
		ByCategory:      make(map[string]int),
		TotalByCurrency: make(map[string]float64),
	}
}

// CountRecord folds one extraction result into the aggregates.
func (s *RunSummary) CountRecord(category string, currency string, amount *float64) {
	s.ByCategory[category]++
	if amount != nil {
		s.TotalByCurrency[currency] += *amount
	}
}

// SummaryWriter writes run summaries as timestamped JSON files.
type SummaryWriter struct {
	dir    string
	logger *zap.Logger
}

// NewSummaryWriter creates a SummaryWriter targeting dir.
func NewSummaryWriter(dir string, logger *zap.Logger) *SummaryWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryWriter{dir: dir, logger: logger}
}

// Write finalizes the summary and writes it to a timestamped file, returning
// the file path.
func (w *SummaryWriter) Write(summary *RunSummary) (string, error) {
	summary.FinishedAt = time.Now()

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("creating summary directory: %w", err)
	}

	name := fmt.Sprintf("docufind_run_%s.json", summary.StartedAt.Format("20060102_150405"))
	path := filepath.Join(w.dir, name)

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding run summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing run summary: %w", err)
	}

	w.logger.Info("run summary written",
		zap.String("path", path),
		zap.Int("emails_processed", summary.EmailsProcessed),
		zap.Int("invoices_extracted", summary.InvoicesExtracted))
	return path, nil
}
