package document

import "encoding/json"

// SchemaVersion is the current document schema revision. Committed versions
// record the revision they were written with so older snapshots stay readable.
const SchemaVersion = 1

// Kind identifies a block type. The set is closed: anything outside it is
// rejected at validation time.
type Kind string

const (
	KindHeading Kind = "heading"
	KindText    Kind = "text"
	KindImage   Kind = "image"
	KindHero    Kind = "hero"
	KindButton  Kind = "button"
	KindColumns Kind = "columns"
	KindSpacer  Kind = "spacer"
)

// Document is the structured content payload of a page. The store treats it
// as an opaque value; only validation and sanitization look inside.
type Document struct {
	SchemaVersion int     `json:"schemaVersion"`
	Blocks        []Block `json:"blocks"`
}

// Block is one node of the content tree. Which attributes are meaningful
// depends on Kind; Validate enforces the per-kind schema.
type Block struct {
	Kind     Kind    `json:"kind"`
	Text     string  `json:"text,omitempty"`
	HTML     string  `json:"html,omitempty"`
	Level    int     `json:"level,omitempty"`
	Src      string  `json:"src,omitempty"`
	Alt      string  `json:"alt,omitempty"`
	Title    string  `json:"title,omitempty"`
	Subtitle string  `json:"subtitle,omitempty"`
	Label    string  `json:"label,omitempty"`
	Href     string  `json:"href,omitempty"`
	Height   int     `json:"height,omitempty"`
	Children []Block `json:"children,omitempty"`
}

// Empty returns the document shell used to seed a fresh draft for a page
// that has never been published.
func Empty() Document {
	return Document{
		SchemaVersion: SchemaVersion,
		Blocks:        []Block{},
	}
}

// Decode parses a stored document payload.
func Decode(raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Encode serializes a document for storage.
func Encode(doc Document) ([]byte, error) {
	return json.Marshal(doc)
}
