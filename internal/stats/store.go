package stats

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Record captures the outcome of one translation request.
type Record struct {
	ID             string
	Filename       string
	TargetLanguage string
	Mode           string
	TotalBlocks    int
	TotalChunks    int
	RetryCount     int
	FailedChunks   int
	DurationMS     int64
	Status         string
	ErrorMessage   string
	CreatedAt      time.Time
}

// Record status values.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Summary aggregates lifetime totals across every recorded request.
type Summary struct {
	TotalRequests     int
	CompletedRequests int
	FailedRequests    int
	TotalBlocks       int
	TotalRetries      int
	TotalFailedChunks int
}

// Store manages translation statistics backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the stats database at the given path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("stats: database path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create stats directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Add persists one finished request. A missing ID gets a fresh UUID; a
// missing timestamp gets the current time. The stored record is returned.
func (s *Store) Add(ctx context.Context, record Record) (Record, error) {
	if strings.TrimSpace(record.ID) == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if record.Status == "" {
		record.Status = StatusCompleted
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO translation_requests (
            id, filename, target_language, mode,
            total_blocks, total_chunks, retry_count, failed_chunks,
            duration_ms, status, error_message, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Filename,
		record.TargetLanguage,
		record.Mode,
		record.TotalBlocks,
		record.TotalChunks,
		record.RetryCount,
		record.FailedChunks,
		record.DurationMS,
		record.Status,
		nullableString(record.ErrorMessage),
		record.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert request record: %w", err)
	}
	return record, nil
}

// Recent returns the newest records, capped at limit.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, filename, target_language, mode,
            total_blocks, total_chunks, retry_count, failed_chunks,
            duration_ms, status, error_message, created_at
        FROM translation_requests
        ORDER BY created_at DESC, id DESC
        LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent records: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// Totals returns lifetime aggregates across every recorded request.
func (s *Store) Totals(ctx context.Context) (Summary, error) {
	var summary Summary
	err := s.db.QueryRowContext(
		ctx,
		`SELECT
            COUNT(1),
            COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(total_blocks), 0),
            COALESCE(SUM(retry_count), 0),
            COALESCE(SUM(failed_chunks), 0)
        FROM translation_requests`,
		StatusCompleted,
		StatusFailed,
	).Scan(
		&summary.TotalRequests,
		&summary.CompletedRequests,
		&summary.FailedRequests,
		&summary.TotalBlocks,
		&summary.TotalRetries,
		&summary.TotalFailedChunks,
	)
	if err != nil {
		return Summary{}, fmt.Errorf("query totals: %w", err)
	}
	return summary, nil
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var record Record
	var errorMessage sql.NullString
	var createdAt string
	if err := rows.Scan(
		&record.ID,
		&record.Filename,
		&record.TargetLanguage,
		&record.Mode,
		&record.TotalBlocks,
		&record.TotalChunks,
		&record.RetryCount,
		&record.FailedChunks,
		&record.DurationMS,
		&record.Status,
		&errorMessage,
		&createdAt,
	); err != nil {
		return Record{}, fmt.Errorf("scan record: %w", err)
	}
	record.ErrorMessage = errorMessage.String
	if parsed, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		record.CreatedAt = parsed
	}
	return record, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
