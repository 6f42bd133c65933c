package auditlog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modbox/backend/internal/models"
	"modbox/backend/internal/store"
)

func fixedClock(ts string) func() time.Time {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func TestAppendBucketsByDay(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemStore()
	log := NewWithClock(mem, fixedClock("2026-08-29T14:00:00Z"))

	require.NoError(t, log.Append(ctx, "admin-1", models.ActionDeleteModule, "m1", ""))

	bucket, err := log.Day(ctx, "2026-08-29")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-29", bucket["date"])
	entries, ok := bucket["logs"].([]interface{})
	require.True(t, ok)
	require.Len(t, entries, 1)
	entry, ok := entries[0].(models.LogEntry)
	require.True(t, ok)
	assert.Equal(t, "admin-1", entry.UID)
	assert.Equal(t, models.ActionDeleteModule, entry.Action)
	assert.Equal(t, "m1", entry.ItemID)
	assert.Equal(t, "2026-08-29T14:00:00Z", entry.Timestamp)
}

func TestAppendSameDayAccumulates(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemStore()
	log := NewWithClock(mem, fixedClock("2026-08-29T08:00:00Z"))

	require.NoError(t, log.Append(ctx, "admin-1", models.ActionDeleteModule, "m1", ""))
	require.NoError(t, log.Append(ctx, "admin-2", models.ActionDeleteProduct, "p1", "musterstadt"))

	bucket, err := log.Day(ctx, "2026-08-29")
	require.NoError(t, err)
	entries := bucket["logs"].([]interface{})
	require.Len(t, entries, 2)
	first := entries[0].(models.LogEntry)
	second := entries[1].(models.LogEntry)
	assert.Equal(t, "m1", first.ItemID)
	assert.Equal(t, "p1", second.ItemID)
	assert.Equal(t, "musterstadt", second.Extra)
}

func TestAppendSplitsAcrossDays(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemStore()

	log := NewWithClock(mem, fixedClock("2026-08-28T23:59:00Z"))
	require.NoError(t, log.Append(ctx, "admin-1", models.ActionCreateProduct, "p1", ""))

	log = NewWithClock(mem, fixedClock("2026-08-29T00:01:00Z"))
	require.NoError(t, log.Append(ctx, "admin-1", models.ActionCreateModule, "m1", ""))

	yesterday, err := log.Day(ctx, "2026-08-28")
	require.NoError(t, err)
	require.Len(t, yesterday["logs"].([]interface{}), 1)

	today, err := log.Day(ctx, "2026-08-29")
	require.NoError(t, err)
	require.Len(t, today["logs"].([]interface{}), 1)
}

func TestDayEmpty(t *testing.T) {
	ctx := context.Background()
	log := New(store.NewMemStore())

	_, err := log.Day(ctx, "2000-01-01")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
