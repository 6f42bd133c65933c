package models

// ModuleType identifies which widget a module renders. The type decides which
// subcollections and storage prefixes the module owns, so every type must
// appear in the tables below or a delete will leave orphaned data behind.
type ModuleType string

const (
	TypeFilialfinder   ModuleType = "Filialfinder"
	TypeKartenmodul    ModuleType = "Kartenmodul"
	TypePDFModul       ModuleType = "PDF-Modul"
	TypeOffnungszeiten ModuleType = "Offnungszeiten"
	TypeFormularModul  ModuleType = "Formular-Modul"
	TypeKontaktModul   ModuleType = "Kontakt-Modul"
	TypeLinkModul      ModuleType = "Link-Modul"
	TypeTerminalModul  ModuleType = "Terminal-Modul"
	TypeBeteiligung    ModuleType = "Beteiligungs-Modul"
)

// ModuleTypes lists every known type, for validation and for tests that need
// to cover the whole registry.
var ModuleTypes = []ModuleType{
	TypeFilialfinder,
	TypeKartenmodul,
	TypePDFModul,
	TypeOffnungszeiten,
	TypeFormularModul,
	TypeKontaktModul,
	TypeLinkModul,
	TypeTerminalModul,
	TypeBeteiligung,
}

var moduleSubcollections = map[ModuleType][]string{
	TypeFilialfinder:   {"categories", "objects"},
	TypeKartenmodul:    {"marks"},
	TypePDFModul:       {"files"},
	TypeOffnungszeiten: {"times"},
	TypeFormularModul:  {"data", "recipients"},
	TypeKontaktModul:   {"fields"},
	TypeLinkModul:      {"linkdetails"},
	TypeTerminalModul:  {"tiles", "settings"},
	TypeBeteiligung:    {"posts"},
}

// Valid reports whether t is a registered module type.
func (t ModuleType) Valid() bool {
	_, ok := moduleSubcollections[t]
	return ok
}

// Subcollections returns the subcollection names a module of this type owns.
// Unknown types return nil.
func (t ModuleType) Subcollections() []string {
	return moduleSubcollections[t]
}

// BlobPrefixes returns every storage prefix a module of this type may have
// written files under. All types carry a module image folder; PDF modules
// additionally own a product-scoped PDF folder.
func (t ModuleType) BlobPrefixes(productID, moduleID string) []string {
	prefixes := []string{ImagePrefix(moduleID)}
	if t == TypePDFModul {
		prefixes = append(prefixes, PDFPrefix(productID, moduleID))
	}
	return prefixes
}

// ImagePrefix is the storage folder for a module's images.
func ImagePrefix(moduleID string) string {
	return "IMAGES/" + moduleID
}

// PDFPrefix is the storage folder for a PDF module's documents.
func PDFPrefix(productID, moduleID string) string {
	return "PDF/" + productID + "/" + moduleID + "/"
}
