// Package auditlog appends structured action records to a date-bucketed log
// collection. One document accumulates all entries of one UTC calendar day;
// entries are never mutated or removed.
package auditlog

import (
	"context"
	"fmt"
	"time"

	"modbox/backend/internal/models"
	"modbox/backend/internal/store"
)

type Logger struct {
	docs store.Store
	now  func() time.Time
}

func New(docs store.Store) *Logger {
	return &Logger{docs: docs, now: time.Now}
}

// NewWithClock is used by tests that pin the bucket date.
func NewWithClock(docs store.Store, now func() time.Time) *Logger {
	return &Logger{docs: docs, now: now}
}

// Append records one action. The write is an array-union merge, so
// near-simultaneous appends from different actions both land in the bucket.
// Failures are returned to the caller; audit completeness matters for the
// delete feature, so nothing is swallowed here.
func (l *Logger) Append(ctx context.Context, uid, action, itemID, extra string) error {
	now := l.now().UTC()
	date := now.Format("2006-01-02")
	path := models.LogPath(date)

	entry := models.LogEntry{
		UID:       uid,
		Action:    action,
		ItemID:    itemID,
		Extra:     extra,
		Timestamp: now.Format(time.RFC3339Nano),
	}
	if err := l.docs.Merge(ctx, path, map[string]interface{}{"date": date}); err != nil {
		return fmt.Errorf("writing log bucket %s: %w", date, err)
	}
	if err := l.docs.ArrayAppend(ctx, path, "logs", entry); err != nil {
		return fmt.Errorf("appending log entry for %s: %w", date, err)
	}
	return nil
}

// Day returns the raw bucket document of one date (YYYY-MM-DD), or
// store.ErrNotFound when nothing was logged that day.
func (l *Logger) Day(ctx context.Context, date string) (map[string]interface{}, error) {
	return l.docs.Get(ctx, models.LogPath(date))
}
