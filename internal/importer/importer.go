// Package importer bulk-loads Filialfinder categories and objects from an
// operator-supplied CSV export. The flow is parse, diff against existing
// state (read-only), then commit everything in one atomic batch.
package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"modbox/backend/internal/geo"
	"modbox/backend/internal/models"
	"modbox/backend/internal/store"
)

// ErrMissingCategoryColumn aborts the whole import before any write.
var ErrMissingCategoryColumn = errors.New(`required column "Filialart" missing`)

// Recognized column names after normalization.
const (
	colName        = "filialname"
	colCategory    = "filialart"
	colDescription = "filialbeschreibung"
	colPhone       = "telefon"
	colEmail       = "email"
	colWebsite     = "website"
	colAddress     = "adresse"
	colLocation    = "standort"
)

// Sheet is a parsed CSV file with normalized lowercase column names.
type Sheet struct {
	Delimiter rune
	Columns   []string
	Rows      []map[string]string
}

// Parse reads a CSV file, detecting whether fields are comma- or
// semicolon-delimited from the header row, and fails if the category column
// is absent.
func Parse(data []byte) (*Sheet, error) {
	header, _, _ := strings.Cut(string(data), "\n")
	delimiter := ','
	if strings.Count(header, ";") > strings.Count(header, ",") {
		delimiter = ';'
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrMissingCategoryColumn
	}

	columns := make([]string, len(records[0]))
	hasCategory := false
	for i, raw := range records[0] {
		columns[i] = strings.ToLower(clean(raw))
		if columns[i] == colCategory {
			hasCategory = true
		}
	}
	if !hasCategory {
		return nil, ErrMissingCategoryColumn
	}

	sheet := &Sheet{Delimiter: delimiter, Columns: columns}
	for _, record := range records[1:] {
		row := make(map[string]string, len(columns))
		empty := true
		for i, value := range record {
			if i >= len(columns) {
				break
			}
			row[columns[i]] = clean(value)
			if row[columns[i]] != "" {
				empty = false
			}
		}
		if !empty {
			sheet.Rows = append(sheet.Rows, row)
		}
	}
	return sheet, nil
}

// CategoryNames returns the distinct category values of the data rows in
// first-seen order.
func (s *Sheet) CategoryNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, row := range s.Rows {
		name := row[colCategory]
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if !seen[key] {
			seen[key] = true
			names = append(names, name)
		}
	}
	return names
}

// clean trims whitespace and strips one layer of wrapping quotes.
func clean(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = value[1 : len(value)-1]
	}
	return strings.TrimSpace(value)
}

// Diff is the read-only comparison of a sheet against the module's current
// categories. Nothing is written while diffing.
type Diff struct {
	// ExistingCategories maps lowercased category name to its document id.
	ExistingCategories map[string]string
	// NewCategories are the names that must be created, in first-seen order.
	NewCategories []string
	// RowCount is the number of data rows in the sheet.
	RowCount int
	// MaxSort is the highest sort value currently assigned to a category.
	MaxSort int

	objectsPerCategory map[string]int
}

// ExistingCount reports how many sheet categories were matched.
func (d *Diff) ExistingCount() int {
	return len(d.ExistingCategories)
}

type Importer struct {
	docs store.Store
	geo  geo.Geocoder
	log  *zap.Logger
}

func New(docs store.Store, geocoder geo.Geocoder, log *zap.Logger) *Importer {
	return &Importer{docs: docs, geo: geocoder, log: log}
}

// Diff compares the sheet's categories against the module's existing ones.
// Matching is case-insensitive after trimming and quote-stripping, so an
// existing "Restaurants" absorbs a CSV value "restaurants".
func (imp *Importer) Diff(ctx context.Context, modulePath string, sheet *Sheet) (*Diff, error) {
	existing, err := imp.docs.Docs(ctx, modulePath+"/categories")
	if err != nil {
		return nil, err
	}

	d := &Diff{
		ExistingCategories: map[string]string{},
		RowCount:           len(sheet.Rows),
		objectsPerCategory: map[string]int{},
	}
	byName := map[string]string{}
	for _, doc := range existing {
		name, _ := doc.Data["name"].(string)
		byName[strings.ToLower(clean(name))] = doc.ID
		if sort := intValue(doc.Data["sort"]); sort > d.MaxSort {
			d.MaxSort = sort
		}
	}

	objects, err := imp.docs.Docs(ctx, modulePath+"/objects")
	if err != nil {
		return nil, err
	}
	for _, doc := range objects {
		if cat, _ := doc.Data["category"].(string); cat != "" {
			d.objectsPerCategory[cat]++
		}
	}

	for _, name := range sheet.CategoryNames() {
		key := strings.ToLower(name)
		if id, ok := byName[key]; ok {
			d.ExistingCategories[key] = id
		} else {
			d.NewCategories = append(d.NewCategories, name)
		}
	}
	return d, nil
}

// CommitResult reports what one import wrote.
type CommitResult struct {
	CategoriesCreated int `json:"categoriesCreated"`
	ObjectsCreated    int `json:"objectsCreated"`
	RowsSkipped       int `json:"rowsSkipped"`
}

// Commit assigns ids and sort values to the new categories, builds an object
// per data row, and writes everything in one atomic batch. Rows whose
// category cannot be resolved are skipped; a failed geocoding lookup only
// omits the address field of that row. A repeated import of the same file
// will match all categories as existing but create duplicate objects, since
// objects carry no dedup key.
func (imp *Importer) Commit(ctx context.Context, modulePath string, sheet *Sheet, d *Diff) (*CommitResult, error) {
	batch := imp.docs.Batch()
	result := &CommitResult{}

	categoryIDs := make(map[string]string, len(d.ExistingCategories)+len(d.NewCategories))
	for key, id := range d.ExistingCategories {
		categoryIDs[key] = id
	}
	sort := d.MaxSort
	for _, name := range d.NewCategories {
		sort++
		id := imp.docs.NewID()
		categoryIDs[strings.ToLower(name)] = id
		batch.Set(modulePath+"/categories/"+id, models.Category{ID: id, Name: name, Sort: sort})
		result.CategoriesCreated++
	}

	objectSort := make(map[string]int, len(categoryIDs))
	for id, count := range d.objectsPerCategory {
		objectSort[id] = count
	}
	for _, row := range sheet.Rows {
		categoryID, ok := categoryIDs[strings.ToLower(row[colCategory])]
		if !ok {
			result.RowsSkipped++
			continue
		}
		objectSort[categoryID]++
		id := imp.docs.NewID()
		object := models.Object{
			ID:          id,
			Name:        row[colName],
			Category:    categoryID,
			Fields:      imp.buildFields(ctx, row),
			Sort:        objectSort[categoryID],
			Description: row[colDescription],
		}
		batch.Set(modulePath+"/objects/"+id, object)
		result.ObjectsCreated++
	}

	if err := batch.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing import: %w", err)
	}
	return result, nil
}

func (imp *Importer) buildFields(ctx context.Context, row map[string]string) []models.Field {
	fields := []models.Field{}
	if phone := row[colPhone]; phone != "" {
		fields = append(fields, models.Field{Name: "Telefon", Value: phone, Icon: "phone"})
	}
	if email := row[colEmail]; email != "" {
		f := models.Field{Name: "Email", Value: email, Icon: "mail"}
		f.SetMode(models.ModeLink)
		fields = append(fields, f)
	}
	if website := row[colWebsite]; website != "" {
		f := models.Field{Name: "Website", Value: website, Icon: "globe"}
		f.SetMode(models.ModeLink)
		fields = append(fields, f)
	}
	address := row[colAddress]
	if address == "" {
		address = row[colLocation]
	}
	if address != "" {
		f := models.Field{Name: "Adresse", Value: address, Icon: "map-pin"}
		f.SetMode(models.ModeAddress)
		coords, err := imp.geo.Geocode(ctx, address)
		if err != nil {
			// Soft failure: keep the row, drop only the address field.
			imp.log.Warn("geocoding failed, omitting address field",
				zap.String("address", address), zap.Error(err))
			return fields
		}
		f.Coordinates = &coords
		fields = append(fields, f)
	}
	return fields
}

func intValue(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
