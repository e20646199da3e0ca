package enum

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// ExtractedContent is text extracted from a container file.
type ExtractedContent struct {
	Name string // part within the container (e.g., "word/document.xml")
	Text string
}

// IsExtractable reports whether ExtractText supports the file's extension.
func IsExtractable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx", ".pdf":
		return true
	default:
		return false
	}
}

// ExtractText extracts text from supported container files (docx, pdf).
func ExtractText(path string, content []byte) ([]ExtractedContent, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".docx":
		return extractDOCX(content)
	case ".pdf":
		return extractPDF(content)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
}

// extractDOCX extracts the body text of a Word document, one line per
// paragraph.
func extractDOCX(content []byte) ([]ExtractedContent, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open docx as zip: %w", err)
	}

	for _, file := range zipReader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", file.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file.Name, err)
		}

		text := extractParagraphs(data)
		if text == "" {
			return nil, nil
		}
		return []ExtractedContent{{Name: file.Name, Text: text}}, nil
	}
	return nil, nil
}

// extractPDF extracts the plain text of every page, one page per line group.
func extractPDF(content []byte) ([]ExtractedContent, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var text strings.Builder
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}

	extracted := text.String()
	if strings.TrimSpace(extracted) == "" {
		return nil, nil
	}
	return []ExtractedContent{{Name: "content", Text: extracted}}, nil
}

// extractParagraphs collects the text runs of a WordprocessingML body,
// ending each paragraph with a newline.
func extractParagraphs(data []byte) string {
	var text strings.Builder
	var para strings.Builder
	decoder := xml.NewDecoder(bytes.NewReader(data))

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "tab" {
				para.WriteByte(' ')
			}
		case xml.CharData:
			para.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" {
				if line := cleanText(para.String()); line != "" {
					text.WriteString(line)
					text.WriteByte('\n')
				}
				para.Reset()
			}
		}
	}

	return text.String()
}

// cleanText collapses whitespace runs and drops non-printable characters.
func cleanText(s string) string {
	var result strings.Builder
	lastSpace := false

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastSpace {
				result.WriteRune(' ')
				lastSpace = true
			}
		} else if unicode.IsPrint(r) {
			result.WriteRune(r)
			lastSpace = false
		}
	}

	return strings.TrimSpace(result.String())
}
