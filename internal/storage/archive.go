package storage

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gmcortes/docufind/internal/config"
)

// Folder names under the archive root. Invoices and everything else land in
// separate buckets inside the same month folder.
const (
	invoiceBucket = "Facturas"
	otherBucket   = "Otros"
)

var invoiceKeywords = []string{"factura", "invoice", "bill", "receipt", "recibo"}
var invoiceExtensions = []string{".pdf", ".xml", ".xlsx", ".xls"}

var unsafeNameRe = regexp.MustCompile(`[^a-zA-Z0-9._$ -]`)

// Document is one attachment to archive, together with the extracted fields
// that feed its descriptive filename.
type Document struct {
	Filename  string
	Data      []byte
	Date      time.Time
	IsInvoice bool

	InvoiceDate   string
	Vendor        string
	InvoiceNumber string
	Amount        *float64
}

// Archive lays attachments out as <root>/<folder>/<year>/<MM-Month>/<bucket>/
// and renames invoices descriptively from their extracted fields.
type Archive struct {
	files  *LocalFileStorage
	root   string
	logger *zap.Logger
}

// NewArchive creates an Archive under cfg.RootDir/cfg.FolderName.
func NewArchive(cfg config.StorageConfig, logger *zap.Logger) *Archive {
	if logger == nil {
		logger = zap.NewNop()
	}
	root := filepath.Join(cfg.RootDir, cfg.FolderName)
	return &Archive{
		files:  NewLocalFileStorage(root, logger),
		root:   root,
		logger: logger,
	}
}

// Store writes the document into its date bucket and returns the final path.
// Name collisions get a numeric suffix rather than overwriting.
func (a *Archive) Store(doc Document) (string, error) {
	if doc.Filename == "" {
		return "", fmt.Errorf("cannot archive a document without a filename")
	}

	name := SanitizeFileName(doc.Filename)
	if doc.IsInvoice {
		name = a.descriptiveFilename(doc)
	}

	dir := filepath.Join(a.root, bucketPath(doc.Date, doc.IsInvoice))
	path := a.uniquePath(dir, name)

	if err := a.files.SaveFile(path, doc.Data); err != nil {
		return "", fmt.Errorf("archiving %s: %w", doc.Filename, err)
	}

	a.logger.Info("document archived",
		zap.String("path", path),
		zap.Bool("invoice", doc.IsInvoice))
	return path, nil
}

// bucketPath builds "<year>/<MM-Month>/<bucket>" from the email date. A zero
// date falls back to the current month so nothing ends up unfiled.
func bucketPath(date time.Time, isInvoice bool) string {
	if date.IsZero() {
		date = time.Now()
	}
	bucket := otherBucket
	if isInvoice {
		bucket = invoiceBucket
	}
	return filepath.Join(
		strconv.Itoa(date.Year()),
		date.Format("01-January"),
		bucket,
	)
}

// descriptiveFilename renames an invoice after its extracted fields, keeping
// the original extension. With nothing extracted the original name stays.
func (a *Archive) descriptiveFilename(doc Document) string {
	var parts []string

	if doc.InvoiceDate != "" {
		parts = append(parts, strings.ReplaceAll(doc.InvoiceDate, "/", "-"))
	}
	if doc.Vendor != "" {
		vendor := strings.ReplaceAll(doc.Vendor, " ", "_")
		if len([]rune(vendor)) > 20 {
			vendor = string([]rune(vendor)[:20])
		}
		parts = append(parts, vendor)
	}
	if doc.InvoiceNumber != "" {
		parts = append(parts, "F"+doc.InvoiceNumber)
	}
	if doc.Amount != nil {
		parts = append(parts, "$"+strconv.FormatFloat(*doc.Amount, 'f', -1, 64))
	}

	if len(parts) == 0 {
		return SanitizeFileName(doc.Filename)
	}

	ext := filepath.Ext(doc.Filename)
	return SanitizeFileName(strings.Join(parts, "_") + ext)
}

// uniquePath appends _2, _3, ... before the extension until the name is free.
func (a *Archive) uniquePath(dir, name string) string {
	path := filepath.Join(dir, name)
	if !a.files.Exists(path) {
		return path
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if !a.files.Exists(candidate) {
			return candidate
		}
	}
}

// IsInvoiceFile reports whether a filename looks like an invoice, by keyword
// or by document extension.
func IsInvoiceFile(filename string) bool {
	lower := strings.ToLower(filename)
	for _, kw := range invoiceKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, ext := range invoiceExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// SanitizeFileName strips path separators and anything else unsafe for a
// filename, without touching extension dots.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")
	name = unsafeNameRe.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)
	if name == "" {
		return "adjunto"
	}
	return name
}
