package deletion

import (
	"context"

	"go.uber.org/zap"

	"modbox/backend/internal/store"
)

// Walker removes a document subtree depth-first: every document's own
// subcollections are cleared before the document itself is deleted.
type Walker struct {
	docs store.Store
	log  *zap.Logger
}

func NewWalker(docs store.Store, log *zap.Logger) *Walker {
	return &Walker{docs: docs, log: log}
}

// PurgeCollection deletes every document of a collection, recursing into each
// document's subcollections first. An empty or unknown collection is a
// successful no-op. Individual failures inside the bulk purge are logged and
// skipped so one bad document does not abort the whole cascade; the caller's
// final existence check on the root decides overall success.
func (w *Walker) PurgeCollection(ctx context.Context, collection string) error {
	docs, err := w.docs.Docs(ctx, collection)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		path := collection + "/" + doc.ID
		if err := w.purgeDoc(ctx, path); err != nil {
			w.log.Warn("skipping document during purge",
				zap.String("path", path), zap.Error(err))
		}
	}
	return nil
}

func (w *Walker) purgeDoc(ctx context.Context, path string) error {
	subcollections, err := w.docs.Collections(ctx, path)
	if err != nil {
		return err
	}
	for _, name := range subcollections {
		if err := w.PurgeCollection(ctx, path+"/"+name); err != nil {
			w.log.Warn("skipping subcollection during purge",
				zap.String("collection", path+"/"+name), zap.Error(err))
		}
	}
	return w.docs.Delete(ctx, path)
}
