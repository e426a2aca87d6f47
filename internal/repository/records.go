package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gmcortes/docufind/internal/extract"
	"github.com/gmcortes/docufind/pkg/database"
)

// Processing status values recorded per email.
const (
	StatusExtracted = "extracted"
	StatusFallback  = "fallback"
	StatusSkipped   = "skipped"
)

// ProcessedEmail is the persistence view of one handled email.
type ProcessedEmail struct {
	ID          string
	UID         uint32
	MessageID   string
	Sender      string
	Subject     string
	EmailDate   string
	Status      string
	ProcessedAt time.Time
}

// StoredRecord is one persisted extraction result.
type StoredRecord struct {
	ID            string
	EmailID       string
	Record        extract.InvoiceRecord
	ArchivedPaths []string
	CreatedAt     time.Time
}

// RecordRepository persists processed emails and their extraction results.
type RecordRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *database.DB, logger *zap.Logger) *RecordRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordRepository{db: db, logger: logger}
}

// IsProcessed reports whether this (uid, message id) pair was handled in an
// earlier run. Reprocessing the same mailbox window stays idempotent.
func (r *RecordRepository) IsProcessed(uid uint32, messageID string) (bool, error) {
	var count int
	err := r.db.QueryRow(
		"SELECT COUNT(1) FROM processed_emails WHERE uid = ? AND message_id = ?",
		uid, messageID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking processed email: %w", err)
	}
	return count > 0, nil
}

// SaveResult stores the email and its extraction result in one transaction
// and returns the generated email id.
func (r *RecordRepository) SaveResult(
	email ProcessedEmail,
	rec extract.InvoiceRecord,
	archivedPaths []string,
) (string, error) {
	emailID := uuid.NewString()
	recordID := uuid.NewString()

	err := r.db.WithTransaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
			INSERT INTO processed_emails (id, uid, message_id, sender, subject, email_date, status)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			emailID, email.UID, email.MessageID, email.Sender,
			email.Subject, email.EmailDate, email.Status,
		); err != nil {
			return fmt.Errorf("inserting processed email: %w", err)
		}

		_, err := tx.Exec(`
			INSERT INTO invoice_records (
				id, email_id, amount, currency, vendor, concept,
				invoice_number, invoice_date, due_date, tax_amount, tax_id,
				payment_method, category, confidence, extraction_method, archived_paths
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			recordID, emailID, nullableFloat(rec.Amount), rec.Currency, rec.Vendor,
			rec.Concept, rec.InvoiceNumber, rec.InvoiceDate, rec.DueDate,
			nullableFloat(rec.TaxAmount), rec.TaxID, rec.PaymentMethod,
			string(rec.Category), rec.Confidence, rec.ExtractionMethod,
			strings.Join(archivedPaths, ";"),
		)
		if err != nil {
			return fmt.Errorf("inserting invoice record: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	r.logger.Debug("extraction result saved",
		zap.String("email_id", emailID),
		zap.Uint32("uid", email.UID),
		zap.String("status", email.Status))
	return emailID, nil
}

// MarkSkipped records an email that was seen but not extracted, so the next
// run will not touch it again.
func (r *RecordRepository) MarkSkipped(email ProcessedEmail) error {
	_, err := r.db.Exec(`
		INSERT INTO processed_emails (id, uid, message_id, sender, subject, email_date, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), email.UID, email.MessageID, email.Sender,
		email.Subject, email.EmailDate, StatusSkipped,
	)
	if err != nil {
		return fmt.Errorf("marking email skipped: %w", err)
	}
	return nil
}

// RecentRecords returns the newest stored records, most recent first.
func (r *RecordRepository) RecentRecords(limit int) ([]StoredRecord, error) {
	rows, err := r.db.Query(`
		SELECT id, email_id, amount, currency, vendor, concept,
		       invoice_number, invoice_date, due_date, tax_amount, tax_id,
		       payment_method, category, confidence, extraction_method,
		       archived_paths, created_at
		FROM invoice_records
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []StoredRecord
	for rows.Next() {
		var (
			sr        StoredRecord
			amount    sql.NullFloat64
			taxAmount sql.NullFloat64
			category  string
			paths     string
		)
		if err := rows.Scan(
			&sr.ID, &sr.EmailID, &amount, &sr.Record.Currency, &sr.Record.Vendor,
			&sr.Record.Concept, &sr.Record.InvoiceNumber, &sr.Record.InvoiceDate,
			&sr.Record.DueDate, &taxAmount, &sr.Record.TaxID,
			&sr.Record.PaymentMethod, &category, &sr.Record.Confidence,
			&sr.Record.ExtractionMethod, &paths, &sr.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		if amount.Valid {
			v := amount.Float64
			sr.Record.Amount = &v
		}
		if taxAmount.Valid {
			v := taxAmount.Float64
			sr.Record.TaxAmount = &v
		}
		sr.Record.Category = extract.Category(category)
		if paths != "" {
			sr.ArchivedPaths = strings.Split(paths, ";")
		}
		records = append(records, sr)
	}
	return records, rows.Err()
}

// CountByStatus returns how many processed emails carry each status.
func (r *RecordRepository) CountByStatus() (map[string]int, error) {
	rows, err := r.db.Query("SELECT status, COUNT(1) FROM processed_emails GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("counting by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
