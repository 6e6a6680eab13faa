/*
store.go - Persistence seams for drafts and confirmed schedules

PURPOSE:
  The engine keeps no state. While a contract is being configured, the
  wizard owns a draft: the raw contract definition plus the override map
  the user has built on top of the computed timeline. Confirming a draft
  bakes the overrides into a final event list that is stored once.

KEY INTERFACES:
  DraftStore:    Drafts and their override maps
  ScheduleStore: Confirmed, immutable event lists

IMPLEMENTATIONS:
  - contract/store/memory.go: In-memory for testing and dev
  - store/sqlite/sqlite.go:   SQLite
*/
package contract

import (
	"context"
	"time"

	"github.com/warp/contract-engine/calendar"
)

// Draft is a contract under configuration.
type Draft struct {
	ID         string
	ConfigJSON string
	Overrides  Overrides
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ConfirmedSchedule is the final timeline of a confirmed contract.
type ConfirmedSchedule struct {
	ID          string
	DraftID     string
	ConfigJSON  string
	Events      []ContractEvent
	ConfirmedAt time.Time
}

// DraftStore persists drafts. Every write bumps UpdatedAt.
type DraftStore interface {
	// SaveDraft inserts or replaces the draft definition. Existing
	// overrides are kept unless d.Overrides is non-nil.
	SaveDraft(ctx context.Context, d Draft) error

	// GetDraft returns ErrDraftNotFound for unknown ids.
	GetDraft(ctx context.Context, id string) (*Draft, error)

	// ListDrafts returns drafts, most recently updated first.
	ListDrafts(ctx context.Context) ([]Draft, error)

	DeleteDraft(ctx context.Context, id string) error

	SetOverride(ctx context.Context, draftID, eventID string, d calendar.Date) error
	ResetOverride(ctx context.Context, draftID, eventID string) error

	// DeleteDraftsBefore removes drafts not updated since cutoff and
	// returns how many were removed.
	DeleteDraftsBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// ScheduleStore persists confirmed schedules. Append-only: a schedule is
// never updated once saved.
type ScheduleStore interface {
	// SaveConfirmed returns ErrAlreadyConfirmed if the draft already has
	// a confirmed schedule.
	SaveConfirmed(ctx context.Context, s ConfirmedSchedule) error

	// GetConfirmed returns ErrScheduleNotFound for unknown ids.
	GetConfirmed(ctx context.Context, id string) (*ConfirmedSchedule, error)
}
