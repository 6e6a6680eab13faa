package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/contract-engine/contract"
	"github.com/warp/contract-engine/contract/store"
	"go.uber.org/zap"
)

func TestDraftSweeper_RemovesStaleDrafts(t *testing.T) {
	// GIVEN: One draft untouched for two days and one fresh draft
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mem := store.NewMemory()
	mem.Now = func() time.Time { return now.Add(-48 * time.Hour) }
	require.NoError(t, mem.SaveDraft(ctx, contract.Draft{ID: "stale", ConfigJSON: "{}"}))
	mem.Now = func() time.Time { return now.Add(-time.Hour) }
	require.NoError(t, mem.SaveDraft(ctx, contract.Draft{ID: "fresh", ConfigJSON: "{}"}))

	metrics := NewMetrics()
	sweeper := NewDraftSweeper(mem, zap.NewNop(), metrics)
	sweeper.Now = func() time.Time { return now }

	// WHEN: Sweeping with the default 24h TTL
	removed, err := sweeper.RunNow()

	// THEN: Only the stale draft is gone
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, now, sweeper.LastRun())

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "drafts_swept_total 1")

	_, err = mem.GetDraft(ctx, "stale")
	assert.ErrorIs(t, err, contract.ErrDraftNotFound)
	_, err = mem.GetDraft(ctx, "fresh")
	assert.NoError(t, err)
}

func TestDraftSweeper_StartStop(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	mem.Now = func() time.Time { return time.Now().Add(-72 * time.Hour) }
	require.NoError(t, mem.SaveDraft(ctx, contract.Draft{ID: "old", ConfigJSON: "{}"}))

	sweeper := NewDraftSweeper(mem, nil, nil)
	sweeper.Interval = time.Hour

	// Start sweeps immediately
	sweeper.Start()
	assert.Eventually(t, func() bool {
		_, err := mem.GetDraft(ctx, "old")
		return err != nil
	}, time.Second, 10*time.Millisecond)
	sweeper.Stop()

	// Stop is idempotent
	sweeper.Stop()
}

func TestDraftSweeper_Disabled(t *testing.T) {
	mem := store.NewMemory()
	sweeper := NewDraftSweeper(mem, nil, nil)
	sweeper.Enabled = false

	sweeper.Start()
	sweeper.Stop()
	assert.True(t, sweeper.LastRun().IsZero())
}
