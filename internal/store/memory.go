package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store used by tests and by local development
// without Firestore credentials. It mirrors the semantics that matter here:
// deleting a document does not delete its subcollections, and array appends
// from concurrent callers accumulate instead of overwriting.
type MemStore struct {
	mu   sync.Mutex
	docs map[string]map[string]interface{}
}

func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string]map[string]interface{})}
}

func (s *MemStore) Get(ctx context.Context, path string) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.docs[path]
	if !ok {
		return nil, ErrNotFound
	}
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out, nil
}

func (s *MemStore) Set(ctx context.Context, path string, data interface{}) error {
	m, err := toMap(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = m
	return nil
}

func (s *MemStore) Merge(ctx context.Context, path string, data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[path]
	if !ok {
		doc = make(map[string]interface{})
		s.docs[path] = doc
	}
	for k, v := range data {
		doc[k] = v
	}
	return nil
}

func (s *MemStore) ArrayAppend(ctx context.Context, path, field string, values ...interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[path]
	if !ok {
		doc = make(map[string]interface{})
		s.docs[path] = doc
	}
	arr, _ := doc[field].([]interface{})
	doc[field] = append(arr, values...)
	return nil
}

func (s *MemStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, path)
	return nil
}

func (s *MemStore) Docs(ctx context.Context, collection string) ([]Doc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := collection + "/"
	docs := []Doc{}
	for path, data := range s.docs {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok || strings.Contains(rest, "/") {
			continue
		}
		copied := make(map[string]interface{}, len(data))
		for k, v := range data {
			copied[k] = v
		}
		docs = append(docs, Doc{ID: rest, Data: copied})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *MemStore) Collections(ctx context.Context, path string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := path + "/"
	seen := map[string]bool{}
	for p := range s.docs {
		rest, ok := strings.CutPrefix(p, prefix)
		if !ok || !strings.Contains(rest, "/") {
			continue
		}
		seen[rest[:strings.Index(rest, "/")]] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *MemStore) QueryEq(ctx context.Context, collection, field string, value interface{}) ([]Doc, error) {
	docs, err := s.Docs(ctx, collection)
	if err != nil {
		return nil, err
	}
	matched := []Doc{}
	for _, d := range docs {
		if reflect.DeepEqual(d.Data[field], value) {
			matched = append(matched, d)
		}
	}
	return matched, nil
}

func (s *MemStore) NewID() string {
	return uuid.NewString()
}

func (s *MemStore) Batch() Batch {
	return &memBatch{store: s}
}

// Len reports the number of stored documents, for test assertions.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

type memOp struct {
	path   string
	data   interface{}
	delete bool
}

type memBatch struct {
	store *MemStore
	ops   []memOp
}

func (b *memBatch) Set(path string, data interface{}) {
	b.ops = append(b.ops, memOp{path: path, data: data})
}

func (b *memBatch) Delete(path string) {
	b.ops = append(b.ops, memOp{path: path, delete: true})
}

func (b *memBatch) Commit(ctx context.Context) error {
	// Convert first so a bad value fails the whole batch.
	converted := make([]map[string]interface{}, len(b.ops))
	for i, op := range b.ops {
		if op.delete {
			continue
		}
		m, err := toMap(op.data)
		if err != nil {
			return err
		}
		converted[i] = m
	}
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	for i, op := range b.ops {
		if op.delete {
			delete(b.store.docs, op.path)
			continue
		}
		b.store.docs[op.path] = converted[i]
	}
	return nil
}

// toMap normalizes structs and maps into a generic document, the way the
// Firestore client encodes values on write.
func toMap(data interface{}) (map[string]interface{}, error) {
	if m, ok := data.(map[string]interface{}); ok {
		out := make(map[string]interface{}, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return out, nil
}

// MemBlobs is an in-memory Blobs used by tests.
type MemBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemBlobs() *MemBlobs {
	return &MemBlobs{objects: make(map[string][]byte)}
}

func (b *MemBlobs) List(ctx context.Context, prefix string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := []string{}
	for name := range b.objects {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (b *MemBlobs) Delete(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, name)
	return nil
}

func (b *MemBlobs) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[name] = content
	return "mem://" + name, nil
}
