package deletion

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"modbox/backend/internal/auditlog"
	"modbox/backend/internal/models"
	"modbox/backend/internal/store"
	"modbox/backend/internal/userinfo"
)

const actorUID = "admin-1"

type fixture struct {
	mem   *store.MemStore
	blobs *store.MemBlobs
	orch  *Orchestrator
	audit *auditlog.Logger
}

func newFixture(t *testing.T, docs store.Store) fixture {
	t.Helper()
	ctx := context.Background()
	mem, _ := docs.(*store.MemStore)
	blobs := store.NewMemBlobs()
	clock := func() time.Time {
		return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	}
	audit := auditlog.NewWithClock(docs, clock)
	grants := userinfo.New(docs, nil)
	require.NoError(t, docs.Set(ctx, models.UserPath(actorUID), map[string]interface{}{
		"email":             "admin@example.com",
		"allowDeleteModule": true,
	}))
	orch := NewOrchestrator(docs, blobs, audit, grants, zaptest.NewLogger(t)).
		WithRetryBudget(2, time.Millisecond)
	return fixture{mem: mem, blobs: blobs, orch: orch, audit: audit}
}

func seedModule(t *testing.T, docs store.Store, blobs *store.MemBlobs, productID, moduleID string, typ models.ModuleType) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, docs.Set(ctx, models.ModulePath(productID, moduleID), map[string]interface{}{
		"name": "test " + string(typ),
		"type": string(typ),
	}))
	modulePath := models.ModulePath(productID, moduleID)
	for _, sub := range typ.Subcollections() {
		require.NoError(t, docs.Set(ctx, modulePath+"/"+sub+"/child-1", map[string]interface{}{
			"name": "child",
		}))
	}
	for _, prefix := range typ.BlobPrefixes(productID, moduleID) {
		_, err := blobs.Upload(ctx, prefix+"/file.bin", "application/octet-stream", strings.NewReader("payload"))
		require.NoError(t, err)
	}
}

func TestDeleteModuleCascadesEveryType(t *testing.T) {
	for _, typ := range models.ModuleTypes {
		t.Run(string(typ), func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, store.NewMemStore())
			require.NoError(t, f.mem.Set(ctx, models.ProductPath("p1"), map[string]interface{}{"name": "Musterstadt"}))
			moduleID := "m-" + string(typ)
			seedModule(t, f.mem, f.blobs, "p1", moduleID, typ)

			require.NoError(t, f.orch.DeleteModule(ctx, actorUID, "p1", moduleID))

			modulePath := models.ModulePath("p1", moduleID)
			_, err := f.mem.Get(ctx, modulePath)
			assert.ErrorIs(t, err, store.ErrNotFound)
			for _, sub := range typ.Subcollections() {
				docs, err := f.mem.Docs(ctx, modulePath+"/"+sub)
				require.NoError(t, err)
				assert.Empty(t, docs, "subcollection %s should be purged", sub)
			}
			for _, prefix := range typ.BlobPrefixes("p1", moduleID) {
				names, err := f.blobs.List(ctx, prefix)
				require.NoError(t, err)
				assert.Empty(t, names, "blob prefix %s should be erased", prefix)
			}

			// The product itself stays.
			_, err = f.mem.Get(ctx, models.ProductPath("p1"))
			assert.NoError(t, err)
		})
	}
}

func TestDeleteModulePurgesNestedSubtrees(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.NewMemStore())
	require.NoError(t, f.mem.Set(ctx, models.ProductPath("p1"), map[string]interface{}{"name": "p"}))
	seedModule(t, f.mem, f.blobs, "p1", "m1", models.TypeFilialfinder)

	// A grandchild collection under an object, two levels below the module.
	objectPath := models.ModulePath("p1", "m1") + "/objects/child-1"
	require.NoError(t, f.mem.Set(ctx, objectPath+"/notes/n1", map[string]interface{}{"text": "deep"}))

	require.NoError(t, f.orch.DeleteModule(ctx, actorUID, "p1", "m1"))

	docs, err := f.mem.Docs(ctx, objectPath+"/notes")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDeleteModuleUnauthorized(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.NewMemStore())
	require.NoError(t, f.mem.Set(ctx, models.ProductPath("p1"), map[string]interface{}{"name": "p"}))
	seedModule(t, f.mem, f.blobs, "p1", "m1", models.TypeKartenmodul)
	before := f.mem.Len()

	// No grants document at all.
	err := f.orch.DeleteModule(ctx, "stranger", "p1", "m1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Grants document present but without the delete flag.
	require.NoError(t, f.mem.Set(ctx, models.UserPath("viewer"), map[string]interface{}{
		"email":             "viewer@example.com",
		"allowDeleteModule": false,
	}))
	err = f.orch.DeleteModule(ctx, "viewer", "p1", "m1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.mem.Get(ctx, models.ModulePath("p1", "m1"))
	assert.NoError(t, err)
	assert.Equal(t, before+1, f.mem.Len())
	names, err := f.blobs.List(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, names)
}

func TestDeleteModuleIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.NewMemStore())
	require.NoError(t, f.mem.Set(ctx, models.ProductPath("p1"), map[string]interface{}{"name": "p"}))
	seedModule(t, f.mem, f.blobs, "p1", "m1", models.TypeLinkModul)

	require.NoError(t, f.orch.DeleteModule(ctx, actorUID, "p1", "m1"))
	after := f.mem.Len()

	err := f.orch.DeleteModule(ctx, actorUID, "p1", "m1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, after, f.mem.Len())
}

func TestDeleteModuleMissingProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.NewMemStore())

	err := f.orch.DeleteModule(ctx, actorUID, "ghost", "m1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// stickyStore refuses to delete one path, simulating a backend whose delete
// never takes effect.
type stickyStore struct {
	store.Store
	keep string
}

func (s *stickyStore) Delete(ctx context.Context, path string) error {
	if path == s.keep {
		return nil
	}
	return s.Store.Delete(ctx, path)
}

func TestDeleteModuleVerificationFailure(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemStore()
	sticky := &stickyStore{Store: mem, keep: models.ModulePath("p1", "m1")}
	f := newFixture(t, sticky)
	require.NoError(t, mem.Set(ctx, models.ProductPath("p1"), map[string]interface{}{"name": "p"}))
	seedModule(t, mem, f.blobs, "p1", "m1", models.TypeKontaktModul)

	err := f.orch.DeleteModule(ctx, actorUID, "p1", "m1")
	assert.ErrorIs(t, err, ErrVerificationFailed)
	assert.ErrorContains(t, err, "failed to delete module with ID m1")

	// Verification failure writes no audit entry.
	_, err = f.audit.Day(ctx, "2026-08-29")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteProductCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.NewMemStore())
	require.NoError(t, f.mem.Set(ctx, models.ProductPath("p1"), map[string]interface{}{"name": "Musterstadt"}))
	seedModule(t, f.mem, f.blobs, "p1", "m1", models.TypeFilialfinder)
	seedModule(t, f.mem, f.blobs, "p1", "m2", models.TypePDFModul)
	require.NoError(t, f.mem.Set(ctx, models.ProductPath("p1")+"/categories/c1", map[string]interface{}{"name": "legacy"}))

	require.NoError(t, f.orch.DeleteProduct(ctx, actorUID, "p1"))

	_, err := f.mem.Get(ctx, models.ProductPath("p1"))
	assert.ErrorIs(t, err, store.ErrNotFound)
	for _, id := range []string{"m1", "m2"} {
		_, err := f.mem.Get(ctx, models.ModulePath("p1", id))
		assert.ErrorIs(t, err, store.ErrNotFound)
	}
	docs, err := f.mem.Docs(ctx, models.ProductPath("p1")+"/categories")
	require.NoError(t, err)
	assert.Empty(t, docs)

	names, err := f.blobs.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)

	bucket, err := f.audit.Day(ctx, "2026-08-29")
	require.NoError(t, err)
	entries := bucket["logs"].([]interface{})
	require.Len(t, entries, 1)
	entry := entries[0].(models.LogEntry)
	assert.Equal(t, models.ActionDeleteProduct, entry.Action)
	assert.Equal(t, "p1", entry.ItemID)
}

// End-to-end teardown of a small store finder: one product, one module, one
// category with one object, one stored image.
func TestDeleteModuleEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.NewMemStore())

	require.NoError(t, f.mem.Set(ctx, models.ProductPath("P1"), models.Product{
		ID:   "P1",
		Name: "Musterstadt",
		Slug: "musterstadt",
	}))
	modulePath := models.ModulePath("P1", "M1")
	require.NoError(t, f.mem.Set(ctx, modulePath, models.Module{
		ID:   "M1",
		Name: "Filialen",
		Type: models.TypeFilialfinder,
	}))
	require.NoError(t, f.mem.Set(ctx, modulePath+"/categories/C1", models.Category{
		ID:   "C1",
		Name: "Restaurants",
		Sort: 1,
	}))
	addr := models.Field{Name: "Adresse", Value: "Hauptstr. 1"}
	addr.SetMode(models.ModeAddress)
	addr.Coordinates = &models.Coordinates{Latitude: 48.1, Longitude: 11.5}
	require.NoError(t, f.mem.Set(ctx, modulePath+"/objects/O1", models.Object{
		ID:       "O1",
		Name:     "Pizzeria Roma",
		Category: "Restaurants",
		Sort:     1,
		Fields:   []models.Field{addr},
	}))
	_, err := f.blobs.Upload(ctx, models.ImagePrefix("M1")+"/storefront.jpg", "image/jpeg", strings.NewReader("jpg"))
	require.NoError(t, err)

	require.NoError(t, f.orch.DeleteModule(ctx, actorUID, "P1", "M1"))

	for _, path := range []string{
		modulePath,
		modulePath + "/categories/C1",
		modulePath + "/objects/O1",
	} {
		_, err := f.mem.Get(ctx, path)
		assert.ErrorIs(t, err, store.ErrNotFound, path)
	}
	names, err := f.blobs.List(ctx, models.ImagePrefix("M1"))
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = f.mem.Get(ctx, models.ProductPath("P1"))
	assert.NoError(t, err)

	bucket, err := f.audit.Day(ctx, "2026-08-29")
	require.NoError(t, err)
	entries := bucket["logs"].([]interface{})
	require.Len(t, entries, 1)
	entry := entries[0].(models.LogEntry)
	assert.Equal(t, models.ActionDeleteModule, entry.Action)
	assert.Equal(t, "M1", entry.ItemID)
	assert.Equal(t, actorUID, entry.UID)
}

func TestConfirmAbsent(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemStore()
	require.NoError(t, mem.Set(ctx, "a/1", map[string]interface{}{"v": 1}))

	assert.False(t, ConfirmAbsent(ctx, mem, "a/1", 2, time.Millisecond))
	require.NoError(t, mem.Delete(ctx, "a/1"))
	assert.True(t, ConfirmAbsent(ctx, mem, "a/1", 2, time.Millisecond))
}
