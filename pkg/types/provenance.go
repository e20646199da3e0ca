package types

import "fmt"

// Provenance tracks where a document's text came from.
type Provenance interface {
	Kind() string
	// Path returns displayable path (if applicable)
	Path() string
}

// FileProvenance for plain text files.
type FileProvenance struct {
	FilePath string
}

// Kind returns "file".
func (f FileProvenance) Kind() string {
	return "file"
}

// Path returns the file path.
func (f FileProvenance) Path() string {
	return f.FilePath
}

// ExtractedProvenance tracks text extracted from a container format (PDF, DOCX).
type ExtractedProvenance struct {
	FilePath   string // path to the container file
	MemberPath string // part within the container (e.g., "word/document.xml")
}

// Kind returns "extracted".
func (e ExtractedProvenance) Kind() string {
	return "extracted"
}

// Path returns the container path with member path.
func (e ExtractedProvenance) Path() string {
	if e.MemberPath == "" {
		return e.FilePath
	}
	return fmt.Sprintf("%s:%s", e.FilePath, e.MemberPath)
}

// InlineProvenance for text handed over directly (stdin, server requests).
type InlineProvenance struct {
	Label string
}

// Kind returns "inline".
func (i InlineProvenance) Kind() string {
	return "inline"
}

// Path returns the label.
func (i InlineProvenance) Path() string {
	return i.Label
}
