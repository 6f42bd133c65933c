package models

import "time"

// Product is the root entity of a portal. It owns a "modules" and a
// "categories" subcollection.
type Product struct {
	ID      string    `firestore:"id" json:"id"`
	Name    string    `firestore:"name" json:"name"`
	Slug    string    `firestore:"slug" json:"slug"`
	Created time.Time `firestore:"created" json:"created"`
}

// Module is a configurable widget owned by exactly one product. The
// type-specific optional fields are only written for the types that use them.
type Module struct {
	ID          string       `firestore:"id" json:"id"`
	Name        string       `firestore:"name" json:"name"`
	Type        ModuleType   `firestore:"type" json:"type"`
	Description string       `firestore:"description" json:"description"`
	Settings    string       `firestore:"settings" json:"settings"`
	Center      *Coordinates `firestore:"center,omitempty" json:"center,omitempty"`
	Privacy     string       `firestore:"privacy,omitempty" json:"privacy,omitempty"`
	LogoURL     string       `firestore:"logoUrl,omitempty" json:"logoUrl,omitempty"`
}

// Category groups Filialfinder objects. Sort is 1-based and contiguous
// within its module.
type Category struct {
	ID   string `firestore:"id" json:"id"`
	Name string `firestore:"name" json:"name"`
	Sort int    `firestore:"sort" json:"sort"`
}

// Object is one store entry of a Filialfinder module.
type Object struct {
	ID           string  `firestore:"id" json:"id"`
	Name         string  `firestore:"name" json:"name"`
	Category     string  `firestore:"category" json:"category"`
	Fields       []Field `firestore:"fields" json:"fields"`
	Sort         int     `firestore:"sort" json:"sort"`
	ImageURL     string  `firestore:"imageUrl" json:"imageUrl"`
	Description  string  `firestore:"description" json:"description"`
	ImageInsight bool    `firestore:"imageInsight" json:"imageInsight"`
}

type Coordinates struct {
	Latitude  float64 `firestore:"latitude" json:"latitude"`
	Longitude float64 `firestore:"longitude" json:"longitude"`
}

// FieldMode selects how a field value is rendered. At most one mode flag of a
// Field is true at a time.
type FieldMode string

const (
	ModeLink    FieldMode = "link"
	ModeGremium FieldMode = "gremium"
	ModeList    FieldMode = "list"
	ModeAddress FieldMode = "address"
)

// Field is embedded in an Object, never stored as its own document.
// Coordinates are only meaningful while the address flag is set.
type Field struct {
	Name        string       `firestore:"name" json:"name"`
	Value       string       `firestore:"value" json:"value"`
	Icon        string       `firestore:"icon" json:"icon"`
	Link        bool         `firestore:"link" json:"link"`
	Gremium     bool         `firestore:"gremium" json:"gremium"`
	List        bool         `firestore:"list" json:"list"`
	Address     bool         `firestore:"address" json:"address"`
	Coordinates *Coordinates `firestore:"coordinates,omitempty" json:"coordinates,omitempty"`
}

// SetMode enables one mode flag and clears the others. Switching away from
// address mode also drops stale coordinates.
func (f *Field) SetMode(m FieldMode) {
	f.Link = m == ModeLink
	f.Gremium = m == ModeGremium
	f.List = m == ModeList
	f.Address = m == ModeAddress
	if !f.Address {
		f.Coordinates = nil
	}
}

// Mode returns the active mode flag, or "" if none is set.
func (f *Field) Mode() FieldMode {
	switch {
	case f.Link:
		return ModeLink
	case f.Gremium:
		return ModeGremium
	case f.List:
		return ModeList
	case f.Address:
		return ModeAddress
	}
	return ""
}

// LogEntry is one audit record inside a date-bucketed log document.
type LogEntry struct {
	UID       string `firestore:"uid" json:"uid"`
	Action    string `firestore:"action" json:"action"`
	ItemID    string `firestore:"itemId" json:"itemId"`
	Extra     string `firestore:"extra" json:"extra"`
	Timestamp string `firestore:"timestamp" json:"timestamp"`
}

// Audit log action tags.
const (
	ActionDeleteModule  = "DeleteModule"
	ActionDeleteProduct = "DeleteProduct"
	ActionCreateModule  = "CreateModule"
	ActionCreateProduct = "CreateProduct"
	ActionImportCSV     = "ImportCSV"
	ActionCreateUser    = "CreateUser"
	ActionDeleteUser    = "DeleteUser"
)

// UserInfo holds the grants for one Firebase Auth user. Projects is the sole
// authorization scope: either every product (AllProjects) or a fixed list.
type UserInfo struct {
	Email             string    `firestore:"email" json:"email"`
	Projects          []string  `firestore:"projects" json:"projects"`
	AllProjects       bool      `firestore:"allProjects" json:"allProjects"`
	CreatedAt         time.Time `firestore:"createdAt" json:"createdAt"`
	CreatedBy         string    `firestore:"createdBy" json:"createdBy"`
	AllowDeleteModule bool      `firestore:"allowDeleteModule" json:"allowDeleteModule"`
	AllowCreateModule bool      `firestore:"allowCreateModule" json:"allowCreateModule"`
}

// Mark is a pin of a Kartenmodul.
type Mark struct {
	ID          string      `firestore:"id" json:"id"`
	Name        string      `firestore:"name" json:"name"`
	Description string      `firestore:"description" json:"description"`
	Position    Coordinates `firestore:"position" json:"position"`
}

// FileDoc describes one stored PDF of a PDF-Modul.
type FileDoc struct {
	ID         string    `firestore:"id" json:"id"`
	Name       string    `firestore:"name" json:"name"`
	URL        string    `firestore:"url" json:"url"`
	Size       int64     `firestore:"size" json:"size"`
	UploadedAt time.Time `firestore:"uploadedAt" json:"uploadedAt"`
}

// OpeningTime is one row of an Offnungszeiten table.
type OpeningTime struct {
	ID     string `firestore:"id" json:"id"`
	Day    string `firestore:"day" json:"day"`
	Opens  string `firestore:"opens" json:"opens"`
	Closes string `firestore:"closes" json:"closes"`
	Closed bool   `firestore:"closed" json:"closed"`
	Sort   int    `firestore:"sort" json:"sort"`
}

// FormSubmission is one visitor submission stored under a Formular-Modul.
type FormSubmission struct {
	ID          string            `firestore:"id" json:"id"`
	Values      map[string]string `firestore:"values" json:"values"`
	SubmittedAt time.Time         `firestore:"submittedAt" json:"submittedAt"`
}

// Recipient receives form submissions of a Formular-Modul by mail.
type Recipient struct {
	ID    string `firestore:"id" json:"id"`
	Email string `firestore:"email" json:"email"`
}
