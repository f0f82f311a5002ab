package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a report does not exist or the caller
	// has no access to it. The two cases are deliberately not
	// distinguished: an unauthorized read fails closed as not-found.
	ErrNotFound = errors.New("report not found")
	// ErrNoShare is returned when a report has no active share row.
	ErrNoShare = errors.New("no share for report")
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	report_id  TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	body       TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS report_shares (
	report_id   TEXT PRIMARY KEY,
	share_token TEXT NOT NULL UNIQUE,
	created_by  TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	expires_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS share_events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	created_by TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_share_events_by_user ON share_events (created_by, created_at);
`

// Store persists reports and share records in SQLite.
type Store struct {
	db *sqlx.DB
}

func Open(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for maintenance and tests.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// IsSchemaError reports whether an error indicates the backing database is
// behind the code's expected schema, which callers map to a support message.
func IsSchemaError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no such table") || strings.Contains(msg, "no such column")
}

// IsConflictError reports whether an error is a uniqueness violation, such
// as a share token colliding with one already issued for another report.
func IsConflictError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type ReportRow struct {
	ReportID  string `db:"report_id"`
	OwnerID   string `db:"owner_id"`
	Title     string `db:"title"`
	Body      []byte `db:"body"`
	CreatedAt string `db:"created_at"`
}

type ShareRow struct {
	ReportID   string `db:"report_id"`
	ShareToken string `db:"share_token"`
	CreatedBy  string `db:"created_by"`
	CreatedAt  string `db:"created_at"`
	ExpiresAt  string `db:"expires_at"`
}

// Expired reports whether the share row's expiry is in the past.
func (r ShareRow) Expired(now time.Time) bool {
	exp, err := time.Parse(time.RFC3339, r.ExpiresAt)
	if err != nil {
		return true
	}
	return now.After(exp)
}

func (s *Store) InsertReport(ctx context.Context, row ReportRow) error {
	if row.CreatedAt == "" {
		row.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (report_id, owner_id, title, body, created_at) VALUES (?, ?, ?, ?, ?)`,
		row.ReportID, row.OwnerID, row.Title, string(row.Body), row.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// GetReport fetches a report scoped to its owner. A report owned by someone
// else is indistinguishable from a missing one.
func (s *Store) GetReport(ctx context.Context, ownerID, reportID string) (*ReportRow, error) {
	var row ReportRow
	err := s.db.GetContext(ctx, &row,
		`SELECT report_id, owner_id, title, body, created_at FROM reports WHERE report_id = ? AND owner_id = ?`,
		reportID, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return &row, nil
}

// GetSharedReport fetches a report through an unexpired share token. This is
// the only unauthenticated read path.
func (s *Store) GetSharedReport(ctx context.Context, token string, now time.Time) (*ReportRow, error) {
	var share ShareRow
	err := s.db.GetContext(ctx, &share,
		`SELECT report_id, share_token, created_by, created_at, expires_at FROM report_shares WHERE share_token = ?`,
		token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get share by token: %w", err)
	}
	if share.Expired(now) {
		return nil, ErrNotFound
	}
	var row ReportRow
	err = s.db.GetContext(ctx, &row,
		`SELECT report_id, owner_id, title, body, created_at FROM reports WHERE report_id = ?`,
		share.ReportID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get shared report: %w", err)
	}
	return &row, nil
}

// UpsertShare creates the share row for a report or refreshes its expiry.
// The token is written only on first insert, so repeated calls for the same
// report return the same token.
func (s *Store) UpsertShare(ctx context.Context, reportID, createdBy, token string, expiresAt time.Time) (*ShareRow, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	var row ShareRow
	err := s.db.GetContext(ctx, &row,
		`INSERT INTO report_shares (report_id, share_token, created_by, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(report_id) DO UPDATE SET expires_at = excluded.expires_at
		 RETURNING report_id, share_token, created_by, created_at, expires_at`,
		reportID, token, createdBy, now, expiresAt.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("upsert share: %w", err)
	}
	return &row, nil
}

// GetShare reads the existing share row for a report, distinguishing
// "no rows" from a real query error.
func (s *Store) GetShare(ctx context.Context, reportID string) (*ShareRow, error) {
	var row ShareRow
	err := s.db.GetContext(ctx, &row,
		`SELECT report_id, share_token, created_by, created_at, expires_at FROM report_shares WHERE report_id = ?`,
		reportID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoShare
	}
	if err != nil {
		return nil, fmt.Errorf("get share: %w", err)
	}
	return &row, nil
}

// DeleteShare removes the share row, scoped to its creator.
func (s *Store) DeleteShare(ctx context.Context, createdBy, reportID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM report_shares WHERE report_id = ? AND created_by = ?`,
		reportID, createdBy)
	if err != nil {
		return fmt.Errorf("delete share: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNoShare
	}
	return nil
}

// RecordShareEvent logs one share issuance for rate accounting.
func (s *Store) RecordShareEvent(ctx context.Context, createdBy string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO share_events (created_by, created_at) VALUES (?, ?)`,
		createdBy, at.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record share event: %w", err)
	}
	return nil
}

// CountShareEvents counts share issuances by a user since the given time.
func (s *Store) CountShareEvents(ctx context.Context, createdBy string, since time.Time) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM share_events WHERE created_by = ? AND created_at >= ?`,
		createdBy, since.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("count share events: %w", err)
	}
	return n, nil
}
