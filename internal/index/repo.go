package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DocRow is a row in the documents table.
type DocRow struct {
	ID               int
	Filename         string
	OriginalFilename string
	FileType         string
	Status           string
	UploadedAt       time.Time
}

// DetailRow carries the OCR fields merged into an existing row by Enrich.
type DetailRow struct {
	ID              int
	Notes           string
	VIN             string
	BuyerName       string
	SellerName      string
	SaleDate        string
	SaleAmount      string
	OdometerReading string
	DocumentType    string
}

// SearchResult is one local search hit.
type SearchResult struct {
	ID               int
	OriginalFilename string
	Status           string
	Snippet          string
}

// ReplaceAll swaps the cached document set for the given snapshot in one
// transaction, mirroring the repository's wholesale-replace semantics.
// OCR enrichment is preserved for documents that survive the refresh.
func (db *DB) ReplaceAll(docs []DocRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if len(docs) == 0 {
		if _, err := tx.Exec(`DELETE FROM documents`); err != nil {
			return fmt.Errorf("index: clear documents: %w", err)
		}
		return tx.Commit()
	}

	stmt, err := tx.Prepare(`
		INSERT INTO documents (id, filename, original_filename, file_type, status, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename          = excluded.filename,
			original_filename = excluded.original_filename,
			file_type         = excluded.file_type,
			status            = excluded.status,
			uploaded_at       = excluded.uploaded_at
	`)
	if err != nil {
		return fmt.Errorf("index: prepare upsert: %w", err)
	}
	defer stmt.Close()

	ids := make([]any, 0, len(docs))
	marks := ""
	for i, d := range docs {
		if _, err := stmt.Exec(d.ID, d.Filename, d.OriginalFilename, d.FileType, d.Status, d.UploadedAt); err != nil {
			return fmt.Errorf("index: upsert document %d: %w", d.ID, err)
		}
		ids = append(ids, d.ID)
		if i > 0 {
			marks += ","
		}
		marks += "?"
	}

	// Drop rows the server no longer reports.
	if _, err := tx.Exec(`DELETE FROM documents WHERE id NOT IN (`+marks+`)`, ids...); err != nil {
		return fmt.Errorf("index: prune documents: %w", err)
	}

	return tx.Commit()
}

// Enrich merges OCR fields and notes into an existing document row.
func (db *DB) Enrich(d DetailRow) error {
	_, err := db.conn.Exec(`
		UPDATE documents SET
			notes            = ?,
			vin              = ?,
			buyer_name       = ?,
			seller_name      = ?,
			sale_date        = ?,
			sale_amount      = ?,
			odometer_reading = ?,
			document_type    = ?,
			enriched         = 1
		WHERE id = ?
	`, d.Notes, d.VIN, d.BuyerName, d.SellerName, d.SaleDate, d.SaleAmount, d.OdometerReading, d.DocumentType, d.ID)
	if err != nil {
		return fmt.Errorf("index: enrich document %d: %w", d.ID, err)
	}
	return nil
}

// Get returns one cached document row, or nil when absent.
func (db *DB) Get(id int) (*DocRow, error) {
	var r DocRow
	err := db.conn.QueryRow(`
		SELECT id, filename, original_filename, file_type, status, COALESCE(uploaded_at, '')
		FROM documents WHERE id = ?
	`, id).Scan(&r.ID, &r.Filename, &r.OriginalFilename, &r.FileType, &r.Status, &sqlTime{&r.UploadedAt})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("index: get document %d: %w", id, err)
	}
	return &r, nil
}

// Search performs a LIKE-based search over filenames, OCR fields, and notes.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT id, original_filename, status,
			trim(vin || ' ' || buyer_name || ' ' || seller_name || ' ' || document_type || ' ' || substr(notes, 1, 120))
		FROM documents
		WHERE original_filename LIKE ? OR vin LIKE ? OR buyer_name LIKE ?
			OR seller_name LIKE ? OR document_type LIKE ? OR notes LIKE ?
		ORDER BY uploaded_at DESC
		LIMIT ?
	`, like, like, like, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.OriginalFilename, &r.Status, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SeenUpload reports whether a file with this content checksum has already
// been uploaded from the inbox.
func (db *DB) SeenUpload(checksum string) (bool, error) {
	var one int
	err := db.conn.QueryRow(`SELECT 1 FROM inbox_uploads WHERE checksum = ?`, checksum).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("index: seen upload: %w", err)
	}
	return true, nil
}

// RecordUpload marks a content checksum as uploaded.
func (db *DB) RecordUpload(checksum, filename string) error {
	_, err := db.conn.Exec(`
		INSERT INTO inbox_uploads (checksum, filename, uploaded_at)
		VALUES (?, ?, ?)
		ON CONFLICT(checksum) DO NOTHING
	`, checksum, filename, time.Now())
	if err != nil {
		return fmt.Errorf("index: record upload: %w", err)
	}
	return nil
}

// sqlTime scans SQLite datetime text (or empty) into a time.Time.
type sqlTime struct {
	t *time.Time
}

func (s *sqlTime) Scan(v any) error {
	switch x := v.(type) {
	case time.Time:
		*s.t = x
	case string:
		if x == "" {
			*s.t = time.Time{}
			return nil
		}
		parsed, err := time.Parse("2006-01-02 15:04:05.999999999-07:00", x)
		if err != nil {
			parsed, err = time.Parse(time.RFC3339Nano, x)
		}
		if err != nil {
			return fmt.Errorf("index: parse time %q: %w", x, err)
		}
		*s.t = parsed
	case nil:
		*s.t = time.Time{}
	default:
		return fmt.Errorf("index: unsupported time type %T", v)
	}
	return nil
}
