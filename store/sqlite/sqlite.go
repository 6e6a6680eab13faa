/*
Package sqlite provides a SQLite-backed implementation of the draft and
schedule stores.

PURPOSE:
  Persists the wizard's drafts and the confirmed schedules produced from
  them. The engine itself stays pure; this package only stores its inputs
  (contract JSON, override maps) and its final output.

INTERFACES IMPLEMENTED:
  contract.DraftStore:    Drafts and their override maps
  contract.ScheduleStore: Confirmed schedules (append-only)

KEY TABLES:
  drafts:              Contract JSON plus overrides JSON, mutable
  confirmed_schedules: Frozen event lists, one per draft

APPEND-ONLY ENFORCEMENT:
  confirmed_schedules is never updated or deleted. draft_id is UNIQUE, so
  confirming a draft twice fails with contract.ErrAlreadyConfirmed.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Override updates are
  read-modify-write inside a single database transaction.

USAGE:
  store, err := sqlite.New("./data/contracts.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - contract/store.go: Interface definitions
  - contract/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/contract-engine/calendar"
	"github.com/warp/contract-engine/contract"
)

// Store implements contract.DraftStore and contract.ScheduleStore.
type Store struct {
	db *sql.DB
	mu sync.RWMutex

	// Now is the clock used for created/updated timestamps.
	Now func() time.Time
}

var (
	_ contract.DraftStore    = (*Store)(nil)
	_ contract.ScheduleStore = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every pooled connection to ":memory:" would see its own database.
	db.SetMaxOpenConns(1)

	store := &Store{
		db:  db,
		Now: func() time.Time { return time.Now().UTC() },
	}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Drafts (mutable while the contract is being configured)
	CREATE TABLE IF NOT EXISTS drafts (
		id TEXT PRIMARY KEY,
		config_json TEXT NOT NULL,
		overrides_json TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_drafts_updated_at
		ON drafts(updated_at);

	-- Confirmed schedules (append-only)
	CREATE TABLE IF NOT EXISTS confirmed_schedules (
		id TEXT PRIMARY KEY,
		draft_id TEXT UNIQUE,
		config_json TEXT NOT NULL,
		events_json TEXT NOT NULL,
		confirmed_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// DRAFT STORE (contract.DraftStore interface)
// =============================================================================

// SaveDraft inserts or replaces a draft definition. A nil Overrides map
// keeps the stored overrides.
func (s *Store) SaveDraft(ctx context.Context, d contract.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now().UTC().Format(time.RFC3339)
	created := now
	if !d.CreatedAt.IsZero() {
		created = d.CreatedAt.UTC().Format(time.RFC3339)
	}

	if d.Overrides == nil {
		query := `
			INSERT INTO drafts (id, config_json, overrides_json, created_at, updated_at)
			VALUES (?, ?, '{}', ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				config_json = excluded.config_json,
				updated_at = excluded.updated_at
		`
		_, err := s.db.ExecContext(ctx, query, d.ID, d.ConfigJSON, created, now)
		if err != nil {
			return fmt.Errorf("failed to save draft: %w", err)
		}
		return nil
	}

	overridesJSON, err := encodeOverrides(d.Overrides)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO drafts (id, config_json, overrides_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			config_json = excluded.config_json,
			overrides_json = excluded.overrides_json,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, d.ID, d.ConfigJSON, overridesJSON, created, now); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// GetDraft retrieves a draft by ID.
func (s *Store) GetDraft(ctx context.Context, id string) (*contract.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, config_json, overrides_json, created_at, updated_at FROM drafts WHERE id = ?",
		id,
	)
	d, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contract.ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ListDrafts returns all drafts, most recently updated first.
func (s *Store) ListDrafts(ctx context.Context) ([]contract.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, config_json, overrides_json, created_at, updated_at FROM drafts ORDER BY updated_at DESC, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	drafts := []contract.Draft{}
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, *d)
	}
	return drafts, rows.Err()
}

// DeleteDraft removes a draft. Confirmed schedules are unaffected.
func (s *Store) DeleteDraft(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM drafts WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return contract.ErrDraftNotFound
	}
	return nil
}

// SetOverride records a replacement date for one event of a draft.
func (s *Store) SetOverride(ctx context.Context, draftID, eventID string, d calendar.Date) error {
	if d.IsZero() {
		return contract.ErrInvalidDate
	}
	return s.updateOverrides(ctx, draftID, func(o contract.Overrides) { o.Set(eventID, d) })
}

// ResetOverride drops the replacement date for one event of a draft.
func (s *Store) ResetOverride(ctx context.Context, draftID, eventID string) error {
	return s.updateOverrides(ctx, draftID, func(o contract.Overrides) { o.Reset(eventID) })
}

func (s *Store) updateOverrides(ctx context.Context, draftID string, fn func(contract.Overrides)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, "SELECT overrides_json FROM drafts WHERE id = ?", draftID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return contract.ErrDraftNotFound
	}
	if err != nil {
		return err
	}

	overrides, err := decodeOverrides(raw)
	if err != nil {
		return err
	}
	fn(overrides)

	encoded, err := encodeOverrides(overrides)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE drafts SET overrides_json = ?, updated_at = ? WHERE id = ?",
		encoded, s.Now().UTC().Format(time.RFC3339), draftID,
	)
	if err != nil {
		return fmt.Errorf("failed to update overrides: %w", err)
	}
	return tx.Commit()
}

// DeleteDraftsBefore removes drafts not updated since cutoff.
func (s *Store) DeleteDraftsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM drafts WHERE updated_at < ?",
		cutoff.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale drafts: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDraft(row scanner) (*contract.Draft, error) {
	var d contract.Draft
	var overridesJSON, createdAt, updatedAt string
	if err := row.Scan(&d.ID, &d.ConfigJSON, &overridesJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	overrides, err := decodeOverrides(overridesJSON)
	if err != nil {
		return nil, err
	}
	d.Overrides = overrides
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &d, nil
}

// Overrides are stored as {"event-id": "YYYY-MM-DD"}.
func encodeOverrides(o contract.Overrides) (string, error) {
	raw := make(map[string]string, len(o))
	for id, d := range o {
		raw[id] = d.String()
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("failed to encode overrides: %w", err)
	}
	return string(b), nil
}

func decodeOverrides(s string) (contract.Overrides, error) {
	raw := map[string]string{}
	if strings.TrimSpace(s) != "" {
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			return nil, fmt.Errorf("failed to decode overrides: %w", err)
		}
	}
	overrides, _ := contract.ParseOverrides(raw)
	return overrides, nil
}

// =============================================================================
// SCHEDULE STORE (contract.ScheduleStore interface)
// =============================================================================

// SaveConfirmed stores a confirmed schedule.
func (s *Store) SaveConfirmed(ctx context.Context, cs contract.ConfirmedSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	eventsJSON, err := json.Marshal(cs.Events)
	if err != nil {
		return fmt.Errorf("failed to encode events: %w", err)
	}
	confirmedAt := cs.ConfirmedAt
	if confirmedAt.IsZero() {
		confirmedAt = s.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO confirmed_schedules (id, draft_id, config_json, events_json, confirmed_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		cs.ID,
		nullString(cs.DraftID),
		cs.ConfigJSON,
		string(eventsJSON),
		confirmedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return contract.ErrAlreadyConfirmed
		}
		return fmt.Errorf("failed to save schedule: %w", err)
	}
	return nil
}

// GetConfirmed retrieves a confirmed schedule by ID.
func (s *Store) GetConfirmed(ctx context.Context, id string) (*contract.ConfirmedSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cs contract.ConfirmedSchedule
	var draftID sql.NullString
	var eventsJSON, confirmedAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, draft_id, config_json, events_json, confirmed_at FROM confirmed_schedules WHERE id = ?",
		id,
	).Scan(&cs.ID, &draftID, &cs.ConfigJSON, &eventsJSON, &confirmedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contract.ErrScheduleNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(eventsJSON), &cs.Events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	cs.DraftID = draftID.String
	cs.ConfirmedAt, _ = time.Parse(time.RFC3339, confirmedAt)
	return &cs, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY constraint failed"))
}
