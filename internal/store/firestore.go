package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore adapts a *firestore.Client to the Store interface.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) Get(ctx context.Context, path string) (map[string]interface{}, error) {
	snap, err := s.client.Doc(path).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return snap.Data(), nil
}

func (s *FirestoreStore) Set(ctx context.Context, path string, data interface{}) error {
	_, err := s.client.Doc(path).Set(ctx, data)
	return err
}

func (s *FirestoreStore) Merge(ctx context.Context, path string, data map[string]interface{}) error {
	_, err := s.client.Doc(path).Set(ctx, data, firestore.MergeAll)
	return err
}

func (s *FirestoreStore) ArrayAppend(ctx context.Context, path, field string, values ...interface{}) error {
	_, err := s.client.Doc(path).Set(ctx, map[string]interface{}{
		field: firestore.ArrayUnion(values...),
	}, firestore.MergeAll)
	return err
}

func (s *FirestoreStore) Delete(ctx context.Context, path string) error {
	_, err := s.client.Doc(path).Delete(ctx)
	return err
}

func (s *FirestoreStore) Docs(ctx context.Context, collection string) ([]Doc, error) {
	return collectDocs(s.client.Collection(collection).Documents(ctx))
}

func (s *FirestoreStore) Collections(ctx context.Context, path string) ([]string, error) {
	var names []string
	iter := s.client.Doc(path).Collections(ctx)
	for {
		col, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("collections of %s: %w", path, err)
		}
		names = append(names, col.ID)
	}
	return names, nil
}

func (s *FirestoreStore) QueryEq(ctx context.Context, collection, field string, value interface{}) ([]Doc, error) {
	return collectDocs(s.client.Collection(collection).Where(field, "==", value).Documents(ctx))
}

func (s *FirestoreStore) NewID() string {
	return uuid.NewString()
}

func (s *FirestoreStore) Batch() Batch {
	return &firestoreBatch{client: s.client, batch: s.client.Batch()}
}

type firestoreBatch struct {
	client *firestore.Client
	batch  *firestore.WriteBatch
}

func (b *firestoreBatch) Set(path string, data interface{}) {
	b.batch.Set(b.client.Doc(path), data)
}

func (b *firestoreBatch) Delete(path string) {
	b.batch.Delete(b.client.Doc(path))
}

func (b *firestoreBatch) Commit(ctx context.Context) error {
	_, err := b.batch.Commit(ctx)
	return err
}

func collectDocs(iter *firestore.DocumentIterator) ([]Doc, error) {
	docs := []Doc{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, Doc{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs, nil
}
