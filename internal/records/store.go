package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Status is the lifecycle of a correlation record.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Record maps one submission to the external engine back to the stream and
// files it covered.
type Record struct {
	ID            int64
	CorrelationID string
	Stream        string
	Paths         []string
	Status        Status
	Message       string
	SubmittedAt   time.Time
	UpdatedAt     time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS anon_records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    correlation_id TEXT NOT NULL UNIQUE,
    stream TEXT NOT NULL,
    paths_json TEXT NOT NULL,
    status TEXT NOT NULL,
    message TEXT,
    submitted_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_anon_records_status ON anon_records(status);
`

// Store manages correlation record persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the records database.
func Open(path string) (*Store, error) {
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

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Add appends a pending record for a fresh submission.
func (s *Store) Add(ctx context.Context, correlationID, stream string, paths []string) (*Record, error) {
	pathsJSON, err := json.Marshal(paths)
	if err != nil {
		return nil, fmt.Errorf("marshal paths: %w", err)
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO anon_records (correlation_id, stream, paths_json, status, message, submitted_at, updated_at)
         VALUES (?, ?, ?, ?, NULL, ?, ?)`,
		correlationID,
		stream,
		string(pathsJSON),
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a record by identifier, nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM anon_records WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// GetByCorrelationID fetches a record by correlation id, nil when absent.
func (s *Store) GetByCorrelationID(ctx context.Context, correlationID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM anon_records WHERE correlation_id = ?`, correlationID)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record by correlation id: %w", err)
	}
	return record, nil
}

// Pending returns all records still awaiting an outcome, oldest first.
func (s *Store) Pending(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+recordColumns+` FROM anon_records WHERE status = ? ORDER BY submitted_at`,
		StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("query pending records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// SubmittedPaths returns the set of file paths covered by open records, used
// to tell freshly arrived pending files from ones already submitted.
func (s *Store) SubmittedPaths(ctx context.Context) (map[string]struct{}, error) {
	pending, err := s.Pending(ctx)
	if err != nil {
		return nil, err
	}
	paths := make(map[string]struct{})
	for _, record := range pending {
		for _, path := range record.Paths {
			paths[path] = struct{}{}
		}
	}
	return paths, nil
}

// Resolve closes a record with the engine's outcome and an optional
// human-readable message.
func (s *Store) Resolve(ctx context.Context, id int64, status Status, message string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE anon_records SET status = ?, message = ?, updated_at = ? WHERE id = ?`,
		status,
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("resolve record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("resolve record: no record with id %d", id)
	}
	return nil
}

// Stats returns a count of records grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM anon_records GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("record stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

const recordColumns = "id, correlation_id, stream, paths_json, status, message, submitted_at, updated_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id           int64
		correlation  string
		stream       string
		pathsJSON    string
		statusStr    string
		message      sql.NullString
		submittedRaw string
		updatedRaw   string
	)
	if err := scanner.Scan(&id, &correlation, &stream, &pathsJSON, &statusStr, &message, &submittedRaw, &updatedRaw); err != nil {
		return nil, err
	}

	record := &Record{
		ID:            id,
		CorrelationID: correlation,
		Stream:        stream,
		Status:        Status(statusStr),
		Message:       message.String,
	}
	if err := json.Unmarshal([]byte(pathsJSON), &record.Paths); err != nil {
		return nil, fmt.Errorf("unmarshal record paths: %w", err)
	}
	if submitted, err := time.Parse(time.RFC3339Nano, submittedRaw); err == nil {
		record.SubmittedAt = submitted
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		record.UpdatedAt = updated
	}
	return record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
