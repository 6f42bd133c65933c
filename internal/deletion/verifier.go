package deletion

import (
	"context"
	"errors"
	"time"

	"modbox/backend/internal/store"
)

// ConfirmAbsent polls a document until the store confirms it is gone,
// retrying up to attempts times with a fixed delay. It returns true only when
// absence was observed within the budget. A short bounded poll is enough
// here: deletes are rare operator actions, and the check exists to catch the
// store reporting stale data right after the delete call returned.
func ConfirmAbsent(ctx context.Context, docs store.Store, path string, attempts int, delay time.Duration) bool {
	for i := 0; i < attempts; i++ {
		_, err := docs.Get(ctx, path)
		if errors.Is(err, store.ErrNotFound) {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}
	}
	return false
}
