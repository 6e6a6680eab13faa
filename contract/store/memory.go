// Package store provides in-memory contract.DraftStore and
// contract.ScheduleStore implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/contract-engine/calendar"
	"github.com/warp/contract-engine/contract"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	drafts    map[string]contract.Draft
	schedules map[string]contract.ConfirmedSchedule
	confirmed map[string]string // draft id -> schedule id

	// Now is the clock used for CreatedAt/UpdatedAt.
	Now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		drafts:    make(map[string]contract.Draft),
		schedules: make(map[string]contract.ConfirmedSchedule),
		confirmed: make(map[string]string),
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

var (
	_ contract.DraftStore    = (*Memory)(nil)
	_ contract.ScheduleStore = (*Memory)(nil)
)

// SaveDraft inserts or replaces a draft.
func (m *Memory) SaveDraft(_ context.Context, d contract.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Now()
	existing, ok := m.drafts[d.ID]
	if ok {
		d.CreatedAt = existing.CreatedAt
		if d.Overrides == nil {
			d.Overrides = existing.Overrides
		}
	} else if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.Overrides = d.Overrides.Clone()
	d.UpdatedAt = now
	m.drafts[d.ID] = d
	return nil
}

func (m *Memory) GetDraft(_ context.Context, id string) (*contract.Draft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.drafts[id]
	if !ok {
		return nil, contract.ErrDraftNotFound
	}
	d.Overrides = d.Overrides.Clone()
	return &d, nil
}

func (m *Memory) ListDrafts(_ context.Context) ([]contract.Draft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]contract.Draft, 0, len(m.drafts))
	for _, d := range m.drafts {
		d.Overrides = d.Overrides.Clone()
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *Memory) DeleteDraft(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.drafts[id]; !ok {
		return contract.ErrDraftNotFound
	}
	delete(m.drafts, id)
	return nil
}

func (m *Memory) SetOverride(_ context.Context, draftID, eventID string, d calendar.Date) error {
	if d.IsZero() {
		return contract.ErrInvalidDate
	}
	return m.updateOverrides(draftID, func(o contract.Overrides) { o.Set(eventID, d) })
}

func (m *Memory) ResetOverride(_ context.Context, draftID, eventID string) error {
	return m.updateOverrides(draftID, func(o contract.Overrides) { o.Reset(eventID) })
}

func (m *Memory) updateOverrides(draftID string, fn func(contract.Overrides)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.drafts[draftID]
	if !ok {
		return contract.ErrDraftNotFound
	}
	overrides := d.Overrides.Clone()
	fn(overrides)
	d.Overrides = overrides
	d.UpdatedAt = m.Now()
	m.drafts[draftID] = d
	return nil
}

func (m *Memory) DeleteDraftsBefore(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, d := range m.drafts {
		if d.UpdatedAt.Before(cutoff) {
			delete(m.drafts, id)
			removed++
		}
	}
	return removed, nil
}

// =============================================================================
// CONFIRMED SCHEDULES
// =============================================================================

func (m *Memory) SaveConfirmed(_ context.Context, s contract.ConfirmedSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.confirmed[s.DraftID]; ok && s.DraftID != "" {
		return contract.ErrAlreadyConfirmed
	}
	if _, ok := m.schedules[s.ID]; ok {
		return contract.ErrAlreadyConfirmed
	}
	if s.ConfirmedAt.IsZero() {
		s.ConfirmedAt = m.Now()
	}
	events := make([]contract.ContractEvent, len(s.Events))
	copy(events, s.Events)
	s.Events = events

	m.schedules[s.ID] = s
	if s.DraftID != "" {
		m.confirmed[s.DraftID] = s.ID
	}
	return nil
}

func (m *Memory) GetConfirmed(_ context.Context, id string) (*contract.ConfirmedSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.schedules[id]
	if !ok {
		return nil, contract.ErrScheduleNotFound
	}
	events := make([]contract.ContractEvent, len(s.Events))
	copy(events, s.Events)
	s.Events = events
	return &s, nil
}
