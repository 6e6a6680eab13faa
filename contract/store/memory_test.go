package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/contract-engine/calendar"
	"github.com/warp/contract-engine/contract"
)

func TestMemory_DraftOverrides(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.SaveDraft(ctx, contract.Draft{ID: "d1", ConfigJSON: "{}"}))
	require.NoError(t, m.SetOverride(ctx, "d1", "e1", calendar.MustParseDate("2025-02-01")))
	assert.ErrorIs(t, m.SetOverride(ctx, "d1", "e1", calendar.Date{}), contract.ErrInvalidDate)

	// Callers cannot mutate stored overrides through a returned draft
	d, err := m.GetDraft(ctx, "d1")
	require.NoError(t, err)
	d.Overrides.Reset("e1")

	d, err = m.GetDraft(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, d.Overrides, 1)

	// Saving a definition without overrides keeps them
	require.NoError(t, m.SaveDraft(ctx, contract.Draft{ID: "d1", ConfigJSON: `{"v":2}`}))
	d, err = m.GetDraft(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, d.ConfigJSON)
	assert.Len(t, d.Overrides, 1)

	require.NoError(t, m.ResetOverride(ctx, "d1", "e1"))
	d, err = m.GetDraft(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, d.Overrides)

	assert.ErrorIs(t, m.SetOverride(ctx, "missing", "e1", calendar.MustParseDate("2025-02-01")), contract.ErrDraftNotFound)
}

func TestMemory_ListAndSweep(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	m.Now = func() time.Time { return t0 }
	require.NoError(t, m.SaveDraft(ctx, contract.Draft{ID: "a", ConfigJSON: "{}"}))
	m.Now = func() time.Time { return t0.Add(time.Hour) }
	require.NoError(t, m.SaveDraft(ctx, contract.Draft{ID: "b", ConfigJSON: "{}"}))

	drafts, err := m.ListDrafts(ctx)
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, "b", drafts[0].ID)

	n, err := m.DeleteDraftsBefore(ctx, t0.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.NoError(t, m.DeleteDraft(ctx, "b"))
	assert.ErrorIs(t, m.DeleteDraft(ctx, "b"), contract.ErrDraftNotFound)
}

func TestMemory_ConfirmedSchedules(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	events := []contract.ContractEvent{{ID: "e1", Type: contract.EventService}}
	require.NoError(t, m.SaveConfirmed(ctx, contract.ConfirmedSchedule{ID: "s1", DraftID: "d1", Events: events}))
	events[0].ID = "mutated"

	s, err := m.GetConfirmed(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "e1", s.Events[0].ID)
	assert.False(t, s.ConfirmedAt.IsZero())

	assert.ErrorIs(t, m.SaveConfirmed(ctx, contract.ConfirmedSchedule{ID: "s2", DraftID: "d1"}), contract.ErrAlreadyConfirmed)
	assert.ErrorIs(t, m.SaveConfirmed(ctx, contract.ConfirmedSchedule{ID: "s1"}), contract.ErrAlreadyConfirmed)

	_, err = m.GetConfirmed(ctx, "missing")
	assert.ErrorIs(t, err, contract.ErrScheduleNotFound)
}
