package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/gmcortes/docufind/internal/extract"
)

// sheetHeaders is the fixed 20-column tracking layout. Column order is part
// of the sheet's contract with its consumers; never reorder.
var sheetHeaders = []string{
	"Fecha Procesamiento",
	"Fecha Email",
	"Remitente",
	"Asunto",
	"Tiene Adjuntos",
	"Cantidad Adjuntos",
	"Nombres Adjuntos",
	"Fecha Factura",
	"Proveedor",
	"Número Factura",
	"Concepto",
	"Subtotal",
	"Impuestos",
	"Total",
	"Moneda",
	"Método Pago",
	"Categoría",
	"Estado",
	"Confianza",
	"Link Archivo",
}

const (
	maxHeaderTextLen     = 200
	maxAttachmentListLen = 1000
)

// Row is one tracking sheet entry. Every processed email produces exactly
// one, whether or not extraction found anything.
type Row struct {
	ProcessedAt     time.Time
	EmailDate       string
	Sender          string
	Subject         string
	AttachmentNames []string
	Record          extract.InvoiceRecord
	Status          string
	ArchivedPaths   []string
}

// TrackingSheet appends rows to a local xlsx workbook, creating it with
// headers on first use.
type TrackingSheet struct {
	path      string
	sheetName string
	logger    *zap.Logger
}

// NewTrackingSheet creates a TrackingSheet writing to path.
func NewTrackingSheet(path, sheetName string, logger *zap.Logger) *TrackingSheet {
	if sheetName == "" {
		sheetName = "Facturas"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackingSheet{path: path, sheetName: sheetName, logger: logger}
}

// Append adds one row after the last occupied row and saves the workbook.
func (s *TrackingSheet) Append(row Row) error {
	f, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(s.sheetName)
	if err != nil {
		return fmt.Errorf("reading sheet %s: %w", s.sheetName, err)
	}

	cell := "A" + strconv.Itoa(len(rows)+1)
	if err := f.SetSheetRow(s.sheetName, cell, &[]interface{}{
		row.ProcessedAt.Format("2006-01-02 15:04:05"),
		datePart(row.EmailDate),
		truncate(row.Sender, maxHeaderTextLen),
		truncate(row.Subject, maxHeaderTextLen),
		yesNo(len(row.AttachmentNames) > 0),
		strconv.Itoa(len(row.AttachmentNames)),
		truncate(strings.Join(row.AttachmentNames, ", "), maxAttachmentListLen),
		// The invoice date column always carries the email date; the
		// extracted document date lives only on the stored record.
		datePart(row.EmailDate),
		row.Record.Vendor,
		truncate(row.Record.InvoiceNumber, 50),
		row.Record.Concept,
		"",
		formatAmount(row.Record.TaxAmount),
		formatAmount(row.Record.Amount),
		currencyOrNA(row.Record.Currency),
		row.Record.PaymentMethod,
		string(row.Record.Category),
		statusOrDefault(row.Status),
		formatConfidence(row.Record.Confidence),
		strings.Join(row.ArchivedPaths, ", "),
	}); err != nil {
		return fmt.Errorf("writing sheet row: %w", err)
	}

	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("saving tracking sheet: %w", err)
	}

	s.logger.Debug("tracking sheet row appended",
		zap.String("path", s.path),
		zap.Int("row", len(rows)+1))
	return nil
}

// open loads the existing workbook or creates a fresh one with headers.
func (s *TrackingSheet) open() (*excelize.File, error) {
	if _, err := os.Stat(s.path); err == nil {
		f, err := excelize.OpenFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("opening tracking sheet: %w", err)
		}
		return f, nil
	}

	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating sheet directory: %w", err)
		}
	}

	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)
	if defaultSheet != s.sheetName {
		if err := f.SetSheetName(defaultSheet, s.sheetName); err != nil {
			return nil, fmt.Errorf("naming sheet: %w", err)
		}
	}

	headers := make([]interface{}, len(sheetHeaders))
	for i, h := range sheetHeaders {
		headers[i] = h
	}
	if err := f.SetSheetRow(s.sheetName, "A1", &headers); err != nil {
		return nil, fmt.Errorf("writing sheet headers: %w", err)
	}

	return f, nil
}

func datePart(date string) string {
	if i := strings.IndexByte(date, ' '); i > 0 {
		return date[:i]
	}
	return date
}

func yesNo(b bool) string {
	if b {
		return "Sí"
	}
	return "No"
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func formatAmount(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func currencyOrNA(currency string) string {
	if currency == "" {
		return "N/A"
	}
	return currency
}

func statusOrDefault(status string) string {
	if status == "" {
		return "Procesado"
	}
	return status
}

func formatConfidence(c float64) string {
	if c <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", c*100)
}
