// Package export renders finished letters to PDF and optionally archives
// them in object storage.
package export

import "errors"

// Template selects the visual style of the rendered letter.
type Template string

const (
	TemplateClassic Template = "classic"
	TemplateModern  Template = "modern"
	TemplateMinimal Template = "minimal"
)

// TemplateInfo describes a template for the gallery listing.
type TemplateInfo struct {
	ID          Template `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
}

// ListTemplates returns the available letter templates.
func ListTemplates() []TemplateInfo {
	return []TemplateInfo{
		{ID: TemplateClassic, Name: "Classic", Description: "Serif typography with a traditional letterhead."},
		{ID: TemplateModern, Name: "Modern", Description: "Clean sans-serif layout with an accent rule."},
		{ID: TemplateMinimal, Name: "Minimal", Description: "Plain, compact layout with no ornament."},
	}
}

// Request contains parameters for a letter export.
type Request struct {
	Body     string
	Template Template
	Author   string
	Title    string
}

// Result contains the export output.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrEmptyBody indicates there is no letter content to export.
	ErrEmptyBody = errors.New("export: empty letter body")
	// ErrUnknownTemplate indicates the requested template does not exist.
	ErrUnknownTemplate = errors.New("export: unknown template")
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export: pdf dependency missing")
)
