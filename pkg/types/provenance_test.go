package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileProvenance(t *testing.T) {
	prov := FileProvenance{FilePath: "/path/to/file.txt"}

	assert.Equal(t, "file", prov.Kind())
	assert.Equal(t, "/path/to/file.txt", prov.Path())
}

func TestExtractedProvenance(t *testing.T) {
	prov := ExtractedProvenance{FilePath: "/docs/report.docx", MemberPath: "word/document.xml"}
	assert.Equal(t, "extracted", prov.Kind())
	assert.Equal(t, "/docs/report.docx:word/document.xml", prov.Path())

	pdf := ExtractedProvenance{FilePath: "/docs/paper.pdf"}
	assert.Equal(t, "/docs/paper.pdf", pdf.Path())
}

func TestInlineProvenance(t *testing.T) {
	var prov Provenance = InlineProvenance{Label: "stdin"}
	assert.Equal(t, "inline", prov.Kind())
	assert.Equal(t, "stdin", prov.Path())
}
