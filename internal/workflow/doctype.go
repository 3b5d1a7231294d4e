package workflow

import (
	"fmt"

	"github.com/fairooos/scanner-web/internal/scanning"
)

// DocumentType is one of the closed set of scannable document kinds.
// Each value carries its stable store key, its scanner API route and
// its display title, so callers never branch on raw strings.
type DocumentType struct {
	key   string
	route scanning.Route
	title string
}

var (
	Passport   = DocumentType{key: "passport", route: scanning.RoutePassport, title: "Passport"}
	EmiratesID = DocumentType{key: "emirates_id", route: scanning.RouteEmiratesID, title: "Emirates ID"}
)

// DocumentTypes returns every supported type, in presentation order
func DocumentTypes() []DocumentType {
	return []DocumentType{Passport, EmiratesID}
}

// ParseDocumentType maps a persisted key back to its DocumentType
func ParseDocumentType(key string) (DocumentType, error) {
	for _, doc := range DocumentTypes() {
		if doc.key == key {
			return doc, nil
		}
	}
	return DocumentType{}, fmt.Errorf("unknown document type: %q", key)
}

// Key is the stable identifier persisted in the session store
func (d DocumentType) Key() string { return d.key }

// Route is the scanner API endpoint segment for this type
func (d DocumentType) Route() scanning.Route { return d.route }

// Title is the human-readable name shown on the upload page
func (d DocumentType) Title() string { return d.title }

func (d DocumentType) String() string { return d.key }
