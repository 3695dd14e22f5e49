// Package backend is the stateless request/response wrapper around the
// local redaction service: text scan, image mask, data-file mask, and
// report submission. Each call is one HTTP round trip with its own
// timeout; a failed call degrades its channel, it never fails a cycle.
package backend

import "github.com/promptveil/promptveil/internal/page"

// Entity is one detected sensitive span in scanned text.
type Entity struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// ScanResult is the outcome of one text scan. Immutable; consumed once
// per send cycle.
type ScanResult struct {
	OriginalText string
	RedactedText string
	Entities     []Entity
	Types        []string
}

// PreviewRow pairs original and masked values for one sampled row or
// field of a structured data file.
type PreviewRow struct {
	Kind     string `json:"kind"`
	Index    int    `json:"index,omitempty"`
	Path     string `json:"path,omitempty"`
	Original any    `json:"original"`
	Masked   any    `json:"masked"`
}

// MaskResult is the outcome of one image or data-file mask call.
type MaskResult struct {
	Original page.File
	Redacted page.File

	// Types lists the detected sensitive-data categories.
	Types []string

	// TotalCount is the number of detected entities across the file.
	// Data files only.
	TotalCount int

	// Preview carries a bounded sample of paired original/masked rows.
	// Data files only.
	Preview []PreviewRow
}

// scanResponse mirrors the /scan wire format.
type scanResponse struct {
	OK           bool     `json:"ok"`
	Error        string   `json:"error"`
	OriginalText string   `json:"original_text"`
	RedactedText string   `json:"redacted_text"`
	Entities     []Entity `json:"entities"`
	Types        []string `json:"types"`
}

// maskResponse mirrors the /ocr-mask and /file-mask wire formats.
type maskResponse struct {
	OK           bool         `json:"ok"`
	Error        string       `json:"error"`
	MaskedBase64 string       `json:"masked_base64"`
	MaskedMIME   string       `json:"masked_mime"`
	MaskedName   string       `json:"masked_name"`
	OriginalName string       `json:"original_name"`
	Types        []string     `json:"types"`
	TotalCount   int          `json:"total_count"`
	Preview      []PreviewRow `json:"preview"`
}
