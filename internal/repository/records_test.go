package repository

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gmcortes/docufind/internal/extract"
	"github.com/gmcortes/docufind/pkg/database"
)

func newTestRepository(t *testing.T) *RecordRepository {
	t.Helper()

	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate())
	return NewRecordRepository(db, zap.NewNop())
}

func testRecord() extract.InvoiceRecord {
	amount := 45.99
	return extract.InvoiceRecord{
		Amount:           &amount,
		Currency:         "USD",
		Vendor:           "techservices.com - Tech Services Inc.",
		Concept:          "Monthly hosting service",
		InvoiceNumber:    "INV-2024-001",
		InvoiceDate:      "2024-01-15",
		DueDate:          "2024-02-15",
		Category:         extract.CategoryHosting,
		Confidence:       0.94,
		ExtractionMethod: extract.MethodPatternMatching,
	}
}

func TestRecordRepository_SaveAndQuery(t *testing.T) {
	repo := newTestRepository(t)

	email := ProcessedEmail{
		UID:       42,
		MessageID: "<m1@acme.com>",
		Sender:    "billing@acme.com",
		Subject:   "Invoice INV-2024-001",
		EmailDate: "2024-01-15",
		Status:    StatusExtracted,
	}

	emailID, err := repo.SaveResult(email, testRecord(), []string{"/a/factura.pdf", "/a/otros.png"})
	require.NoError(t, err)
	assert.NotEmpty(t, emailID)

	t.Run("dedupe sees the saved email", func(t *testing.T) {
		processed, err := repo.IsProcessed(42, "<m1@acme.com>")
		require.NoError(t, err)
		assert.True(t, processed)

		processed, err = repo.IsProcessed(43, "<m2@acme.com>")
		require.NoError(t, err)
		assert.False(t, processed)
	})

	t.Run("stored record round-trips", func(t *testing.T) {
		records, err := repo.RecentRecords(10)
		require.NoError(t, err)
		require.Len(t, records, 1)

		got := records[0]
		assert.Equal(t, emailID, got.EmailID)
		require.NotNil(t, got.Record.Amount)
		assert.Equal(t, 45.99, *got.Record.Amount)
		assert.Nil(t, got.Record.TaxAmount)
		assert.Equal(t, extract.CategoryHosting, got.Record.Category)
		assert.Equal(t, []string{"/a/factura.pdf", "/a/otros.png"}, got.ArchivedPaths)
	})

	t.Run("duplicate uid and message id is rejected", func(t *testing.T) {
		_, err := repo.SaveResult(email, testRecord(), nil)
		assert.Error(t, err)
	})
}

func TestRecordRepository_MarkSkipped(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.MarkSkipped(ProcessedEmail{UID: 7, MessageID: "<s@x.co>"}))

	processed, err := repo.IsProcessed(7, "<s@x.co>")
	require.NoError(t, err)
	assert.True(t, processed)

	counts, err := repo.CountByStatus()
	require.NoError(t, err)
	assert.Equal(t, 1, counts[StatusSkipped])
}

func TestRecordRepository_NullAmounts(t *testing.T) {
	repo := newTestRepository(t)

	rec := extract.InvoiceRecord{
		Currency:         "USD",
		Vendor:           extract.VendorUnknown,
		Category:         extract.CategoryError,
		ExtractionMethod: extract.MethodFallback,
	}
	_, err := repo.SaveResult(ProcessedEmail{UID: 1, Status: StatusFallback}, rec, nil)
	require.NoError(t, err)

	records, err := repo.RecentRecords(1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].Record.Amount)
	assert.Empty(t, records[0].ArchivedPaths)
}
