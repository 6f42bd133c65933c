package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"modbox/backend/internal/models"
	"modbox/backend/internal/store"
)

const modulePath = "products/p1/modules/m1"

// stubGeocoder resolves every address to a fixed point, or fails every
// lookup when fail is set.
type stubGeocoder struct {
	fail  bool
	calls int
}

func (g *stubGeocoder) Geocode(ctx context.Context, address string) (models.Coordinates, error) {
	g.calls++
	if g.fail {
		return models.Coordinates{}, errors.New("quota exceeded")
	}
	return models.Coordinates{Latitude: 48.1, Longitude: 11.5}, nil
}

func TestParseDetectsDelimiter(t *testing.T) {
	semicolon := []byte("Filialname;Filialart;Filialbeschreibung\nPizzeria Roma;Restaurants;Steinofen\n")
	sheet, err := Parse(semicolon)
	require.NoError(t, err)
	assert.Equal(t, ';', sheet.Delimiter)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, "Pizzeria Roma", sheet.Rows[0]["filialname"])
	assert.Equal(t, "Restaurants", sheet.Rows[0]["filialart"])

	comma := []byte("Filialname,Filialart\nCafe Milo,Cafes\n")
	sheet, err = Parse(comma)
	require.NoError(t, err)
	assert.Equal(t, ',', sheet.Delimiter)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, "Cafes", sheet.Rows[0]["filialart"])
}

func TestParseNormalizesColumnsAndValues(t *testing.T) {
	data := []byte("\"Filialname\"; FILIALART ;Telefon\n\" Pizzeria Roma \";Restaurants;089 123\n")
	sheet, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"filialname", "filialart", "telefon"}, sheet.Columns)
	assert.Equal(t, "Pizzeria Roma", sheet.Rows[0]["filialname"])
}

func TestParseSkipsEmptyRows(t *testing.T) {
	data := []byte("Filialname;Filialart\nPizzeria Roma;Restaurants\n;\n\n")
	sheet, err := Parse(data)
	require.NoError(t, err)
	assert.Len(t, sheet.Rows, 1)
}

func TestParseMissingCategoryColumn(t *testing.T) {
	_, err := Parse([]byte("Filialname;Telefon\nPizzeria Roma;089 123\n"))
	assert.ErrorIs(t, err, ErrMissingCategoryColumn)

	_, err = Parse([]byte(""))
	assert.ErrorIs(t, err, ErrMissingCategoryColumn)
}

func TestCategoryNamesDedupCaseInsensitive(t *testing.T) {
	data := []byte("Filialname;Filialart\nA;Restaurants\nB;restaurants\nC;Cafes\nD;\n")
	sheet, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Restaurants", "Cafes"}, sheet.CategoryNames())
}

func TestDiffMatchesExistingCategories(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemStore()
	require.NoError(t, mem.Set(ctx, modulePath+"/categories/c1", models.Category{ID: "c1", Name: "Restaurants", Sort: 1}))
	require.NoError(t, mem.Set(ctx, modulePath+"/categories/c2", models.Category{ID: "c2", Name: "Cafes", Sort: 2}))
	require.NoError(t, mem.Set(ctx, modulePath+"/objects/o1", models.Object{ID: "o1", Category: "c1", Sort: 1}))

	sheet, err := Parse([]byte("Filialname;Filialart\nA;restaurants\nB;Apotheken\n"))
	require.NoError(t, err)

	imp := New(mem, &stubGeocoder{}, zaptest.NewLogger(t))
	d, err := imp.Diff(ctx, modulePath, sheet)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"restaurants": "c1"}, d.ExistingCategories)
	assert.Equal(t, []string{"Apotheken"}, d.NewCategories)
	assert.Equal(t, 2, d.RowCount)
	assert.Equal(t, 2, d.MaxSort)
	assert.Equal(t, 1, d.ExistingCount())
}

func TestCommitCreatesCategoriesAndObjects(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemStore()
	require.NoError(t, mem.Set(ctx, modulePath+"/categories/c1", models.Category{ID: "c1", Name: "Restaurants", Sort: 3}))
	require.NoError(t, mem.Set(ctx, modulePath+"/objects/o1", models.Object{ID: "o1", Category: "c1", Sort: 1}))

	data := []byte("Filialname;Filialart;Telefon;Email;Website;Adresse\n" +
		"Pizzeria Roma;Restaurants;089 123;roma@example.com;roma.example.com;Hauptstr. 1\n" +
		"Cafe Milo;Cafes;;;;\n")
	sheet, err := Parse(data)
	require.NoError(t, err)

	geocoder := &stubGeocoder{}
	imp := New(mem, geocoder, zaptest.NewLogger(t))
	d, err := imp.Diff(ctx, modulePath, sheet)
	require.NoError(t, err)

	result, err := imp.Commit(ctx, modulePath, sheet, d)
	require.NoError(t, err)
	assert.Equal(t, 1, result.CategoriesCreated)
	assert.Equal(t, 2, result.ObjectsCreated)
	assert.Equal(t, 0, result.RowsSkipped)
	assert.Equal(t, 1, geocoder.calls)

	// New category continues the sort sequence after the existing maximum.
	categories, err := mem.Docs(ctx, modulePath+"/categories")
	require.NoError(t, err)
	require.Len(t, categories, 2)
	for _, doc := range categories {
		if doc.Data["name"] == "Cafes" {
			assert.Equal(t, float64(4), doc.Data["sort"])
		}
	}

	objects, err := mem.Docs(ctx, modulePath+"/objects")
	require.NoError(t, err)
	require.Len(t, objects, 3)
	var roma map[string]interface{}
	for _, doc := range objects {
		if doc.Data["name"] == "Pizzeria Roma" {
			roma = doc.Data
		}
	}
	require.NotNil(t, roma)
	// Existing "Restaurants" object count continues the per-category sort.
	assert.Equal(t, "c1", roma["category"])
	assert.Equal(t, float64(2), roma["sort"])

	fields := roma["fields"].([]interface{})
	require.Len(t, fields, 4)
	addr := fields[3].(map[string]interface{})
	assert.Equal(t, "Adresse", addr["name"])
	assert.Equal(t, true, addr["address"])
	coords := addr["coordinates"].(map[string]interface{})
	assert.Equal(t, 48.1, coords["latitude"])
	assert.Equal(t, 11.5, coords["longitude"])
}

func TestCommitGeocodeFailureOmitsAddressField(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemStore()

	sheet, err := Parse([]byte("Filialname;Filialart;Telefon;Standort\nPizzeria Roma;Restaurants;089 123;Hauptstr. 1\n"))
	require.NoError(t, err)

	imp := New(mem, &stubGeocoder{fail: true}, zaptest.NewLogger(t))
	d, err := imp.Diff(ctx, modulePath, sheet)
	require.NoError(t, err)

	result, err := imp.Commit(ctx, modulePath, sheet, d)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ObjectsCreated)

	objects, err := mem.Docs(ctx, modulePath+"/objects")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	fields := objects[0].Data["fields"].([]interface{})
	require.Len(t, fields, 1)
	phone := fields[0].(map[string]interface{})
	assert.Equal(t, "Telefon", phone["name"])
}

func TestCommitSkipsRowsWithoutCategory(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemStore()

	sheet, err := Parse([]byte("Filialname;Filialart\nA;Restaurants\nB;\n"))
	require.NoError(t, err)

	imp := New(mem, &stubGeocoder{}, zaptest.NewLogger(t))
	d, err := imp.Diff(ctx, modulePath, sheet)
	require.NoError(t, err)

	result, err := imp.Commit(ctx, modulePath, sheet, d)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ObjectsCreated)
	assert.Equal(t, 1, result.RowsSkipped)
}
