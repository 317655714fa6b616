package document

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ValidationError reports every structural rule a document violates.
// Publishing a document that fails validation applies no state change,
// so the full list is collected in one pass for the editor to fix.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("document validation failed: %s", strings.Join(e.Violations, "; "))
}

const (
	maxHeadingLevel = 4
	maxSpacerHeight = 500
	maxColumns      = 4
)

// Validate checks the document against the structural rules of the closed
// block set. It returns a *ValidationError listing all violations, or nil.
func (d Document) Validate() error {
	var violations []string

	if d.SchemaVersion != SchemaVersion {
		violations = append(violations, fmt.Sprintf("unsupported schema version %d", d.SchemaVersion))
	}
	if d.Blocks == nil {
		violations = append(violations, "blocks must be present (may be empty)")
	}
	for i, b := range d.Blocks {
		violations = append(violations, validateBlock(b, fmt.Sprintf("blocks[%d]", i), false)...)
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func validateBlock(b Block, path string, nested bool) []string {
	var violations []string

	switch b.Kind {
	case KindHeading:
		if b.Text == "" {
			violations = append(violations, path+": heading requires text")
		}
		if b.Level < 1 || b.Level > maxHeadingLevel {
			violations = append(violations, fmt.Sprintf("%s: heading level must be 1-%d, got %d", path, maxHeadingLevel, b.Level))
		}
	case KindText:
		if b.HTML == "" {
			violations = append(violations, path+": text block requires html")
		}
	case KindImage:
		if b.Src == "" {
			violations = append(violations, path+": image requires src")
		}
	case KindHero:
		if b.Title == "" {
			violations = append(violations, path+": hero requires title")
		}
	case KindButton:
		if b.Label == "" {
			violations = append(violations, path+": button requires label")
		}
		if b.Href == "" {
			violations = append(violations, path+": button requires href")
		} else if !validHref(b.Href) {
			violations = append(violations, path+": button href must be http(s) or a relative path")
		}
	case KindSpacer:
		if b.Height < 1 || b.Height > maxSpacerHeight {
			violations = append(violations, fmt.Sprintf("%s: spacer height must be 1-%d, got %d", path, maxSpacerHeight, b.Height))
		}
	case KindColumns:
		if nested {
			violations = append(violations, path+": columns cannot be nested")
		}
		if len(b.Children) < 1 || len(b.Children) > maxColumns {
			violations = append(violations, fmt.Sprintf("%s: columns requires 1-%d children, got %d", path, maxColumns, len(b.Children)))
		}
	default:
		violations = append(violations, fmt.Sprintf("%s: unknown block kind %q", path, string(b.Kind)))
		return violations
	}

	if b.Kind != KindColumns && len(b.Children) > 0 {
		violations = append(violations, path+": only columns blocks may have children")
	}
	for i, child := range b.Children {
		violations = append(violations, validateBlock(child, fmt.Sprintf("%s.children[%d]", path, i), true)...)
	}

	return violations
}

func validHref(href string) bool {
	return strings.HasPrefix(href, "/") ||
		strings.HasPrefix(href, "http://") ||
		strings.HasPrefix(href, "https://")
}

// Sanitize returns a deep copy of the document with the rich-text html of
// every text block run through a UGC sanitization policy. The receiver is
// left untouched so a failed publish never mutates the draft.
func (d Document) Sanitize() Document {
	policy := bluemonday.UGCPolicy()

	out := Document{
		SchemaVersion: d.SchemaVersion,
		Blocks:        sanitizeBlocks(d.Blocks, policy),
	}
	return out
}

func sanitizeBlocks(blocks []Block, policy *bluemonday.Policy) []Block {
	if blocks == nil {
		return nil
	}
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = b
		if b.Kind == KindText {
			out[i].HTML = policy.Sanitize(b.HTML)
		}
		out[i].Children = sanitizeBlocks(b.Children, policy)
	}
	return out
}
