package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gmcortes/docufind/internal/config"
)

func newTestArchive(t *testing.T) *Archive {
	t.Helper()
	return NewArchive(config.StorageConfig{
		RootDir:    t.TempDir(),
		FolderName: "DOCUFIND",
	}, zap.NewNop())
}

func TestArchive_Store(t *testing.T) {
	date := time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)

	t.Run("invoices land in the Facturas bucket with a descriptive name", func(t *testing.T) {
		a := newTestArchive(t)
		amount := 45.99

		path, err := a.Store(Document{
			Filename:      "factura.pdf",
			Data:          []byte("%PDF-1.4"),
			Date:          date,
			IsInvoice:     true,
			InvoiceDate:   "2024-01-15",
			Vendor:        "acme.com - Acme Corp",
			InvoiceNumber: "INV-001",
			Amount:        &amount,
		})
		require.NoError(t, err)

		rel, err := filepath.Rel(a.root, path)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("2024", "01-January", "Facturas"), filepath.Dir(rel))
		assert.Equal(t, "2024-01-15_acme.com_-_Acme_Corp_FINV-001_$45.99.pdf", filepath.Base(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4", string(data))
	})

	t.Run("non-invoices keep their name under Otros", func(t *testing.T) {
		a := newTestArchive(t)

		path, err := a.Store(Document{
			Filename: "logo.png",
			Data:     []byte{0x89, 0x50},
			Date:     date,
		})
		require.NoError(t, err)

		rel, err := filepath.Rel(a.root, path)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("2024", "01-January", "Otros"), filepath.Dir(rel))
		assert.Equal(t, "logo.png", filepath.Base(path))
	})

	t.Run("collisions get a numeric suffix", func(t *testing.T) {
		a := newTestArchive(t)
		doc := Document{Filename: "recibo.txt", Data: []byte("a"), Date: date}

		first, err := a.Store(doc)
		require.NoError(t, err)
		second, err := a.Store(doc)
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
		assert.Equal(t, "recibo_2.txt", filepath.Base(second))
	})

	t.Run("invoice with no extracted fields keeps the original name", func(t *testing.T) {
		a := newTestArchive(t)

		path, err := a.Store(Document{
			Filename:  "invoice.pdf",
			Data:      []byte("x"),
			Date:      date,
			IsInvoice: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "invoice.pdf", filepath.Base(path))
	})

	t.Run("missing filename is rejected", func(t *testing.T) {
		a := newTestArchive(t)
		_, err := a.Store(Document{Data: []byte("x"), Date: date})
		assert.Error(t, err)
	})

	t.Run("traversal attempts stay inside the archive", func(t *testing.T) {
		a := newTestArchive(t)

		path, err := a.Store(Document{
			Filename: "../../etc/passwd",
			Data:     []byte("x"),
			Date:     date,
		})
		require.NoError(t, err)
		assert.NoError(t, a.files.ValidatePath(path))
	})
}

func TestIsInvoiceFile(t *testing.T) {
	assert.True(t, IsInvoiceFile("Factura_enero.txt"))
	assert.True(t, IsInvoiceFile("INVOICE-2024.docx"))
	assert.True(t, IsInvoiceFile("documento.pdf"))
	assert.True(t, IsInvoiceFile("resumen.xlsx"))
	assert.False(t, IsInvoiceFile("logo.png"))
	assert.False(t, IsInvoiceFile("notas.txt"))
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "etcpasswd", SanitizeFileName("../../etc/passwd"))
	assert.Equal(t, "factura enero.pdf", SanitizeFileName("factura enero.pdf"))
	assert.Equal(t, "adjunto", SanitizeFileName("///"))
}

func TestLocalFileStorage_ValidatePath(t *testing.T) {
	base := t.TempDir()
	s := NewLocalFileStorage(base, zap.NewNop())

	assert.NoError(t, s.ValidatePath(filepath.Join(base, "a", "b.txt")))
	assert.Error(t, s.ValidatePath(filepath.Join(base, "..", "escape.txt")))
	assert.Error(t, s.ValidatePath("/tmp/elsewhere.txt"))
}
