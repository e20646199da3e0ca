package enum

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/praetorian-inc/sennatag/pkg/types"
)

// collector gathers enumerated documents from concurrent callbacks.
type collector struct {
	mu   sync.Mutex
	docs map[string]string // provenance path -> text
}

func (c *collector) add(text string, prov types.Provenance) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.docs == nil {
		c.docs = make(map[string]string)
	}
	c.docs[prov.Path()] = text
	return nil
}

func (c *collector) names() []string {
	var out []string
	for p := range c.docs {
		out = append(out, filepath.Base(p))
	}
	sort.Strings(out)
	return out
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
}

func TestFilesystemEnumerator(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "a.txt"), "Ana won.")
	writeFile(t, filepath.Join(tmpDir, "b.txt"), "John ran.")
	writeFile(t, filepath.Join(tmpDir, "sub", "c.txt"), "Bo lost.")

	var c collector
	err := NewFilesystemEnumerator(Config{Root: tmpDir}).Enumerate(context.Background(), c.add)
	if err != nil {
		t.Fatalf("enumerate failed: %v", err)
	}

	if got := strings.Join(c.names(), ","); got != "a.txt,b.txt,c.txt" {
		t.Errorf("unexpected files: %s", got)
	}
	if got := c.docs[filepath.Join(tmpDir, "sub", "c.txt")]; got != "Bo lost." {
		t.Errorf("unexpected text: %q", got)
	}
}

func TestFilesystemEnumerator_SingleFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "only.txt")
	writeFile(t, path, "Ana won.")
	writeFile(t, filepath.Join(tmpDir, "other.txt"), "ignored")

	var c collector
	if err := NewFilesystemEnumerator(Config{Root: path}).Enumerate(context.Background(), c.add); err != nil {
		t.Fatalf("enumerate failed: %v", err)
	}

	if len(c.docs) != 1 || c.docs[path] != "Ana won." {
		t.Errorf("unexpected documents: %v", c.docs)
	}
}

func TestFilesystemEnumerator_Filters(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "visible.txt"), "visible")
	writeFile(t, filepath.Join(tmpDir, ".hidden.txt"), "hidden")
	writeFile(t, filepath.Join(tmpDir, ".git", "config"), "hidden dir")
	writeFile(t, filepath.Join(tmpDir, "large.txt"), strings.Repeat("x", 100))
	writeFile(t, filepath.Join(tmpDir, "binary.dat"), "abc\x00def")

	var c collector
	err := NewFilesystemEnumerator(Config{Root: tmpDir, MaxFileSize: 50}).Enumerate(context.Background(), c.add)
	if err != nil {
		t.Fatalf("enumerate failed: %v", err)
	}

	if got := strings.Join(c.names(), ","); got != "visible.txt" {
		t.Errorf("expected only visible.txt, got %s", got)
	}
}

func TestFilesystemEnumerator_Gitignore(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ".gitignore"), "ignored.txt\n*.log\n")
	writeFile(t, filepath.Join(tmpDir, "included.txt"), "included")
	writeFile(t, filepath.Join(tmpDir, "ignored.txt"), "ignored")
	writeFile(t, filepath.Join(tmpDir, "run.log"), "ignored")

	var c collector
	err := NewFilesystemEnumerator(Config{Root: tmpDir}).Enumerate(context.Background(), c.add)
	if err != nil {
		t.Fatalf("enumerate failed: %v", err)
	}

	if got := strings.Join(c.names(), ","); got != "included.txt" {
		t.Errorf("expected only included.txt, got %s", got)
	}
}

func TestFilesystemEnumerator_ExtractsDocx(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "report.docx")
	if err := os.WriteFile(path, buildDocx(t, "Ana won.", "John ran."), 0644); err != nil {
		t.Fatalf("failed to create docx: %v", err)
	}

	var c collector
	var provs []types.Provenance
	var mu sync.Mutex
	err := NewFilesystemEnumerator(Config{Root: tmpDir, Extract: true}).Enumerate(context.Background(),
		func(text string, prov types.Provenance) error {
			mu.Lock()
			provs = append(provs, prov)
			mu.Unlock()
			return c.add(text, prov)
		})
	if err != nil {
		t.Fatalf("enumerate failed: %v", err)
	}

	if len(provs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(provs))
	}
	want := types.ExtractedProvenance{FilePath: path, MemberPath: "word/document.xml"}
	if provs[0] != want {
		t.Errorf("provenance = %#v, want %#v", provs[0], want)
	}
	if got := c.docs[want.Path()]; got != "Ana won.\nJohn ran.\n" {
		t.Errorf("unexpected text: %q", got)
	}
}

func TestFilesystemEnumerator_CallbackError(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "a.txt"), "a")

	boom := errors.New("boom")
	err := NewFilesystemEnumerator(Config{Root: tmpDir}).Enumerate(context.Background(),
		func(string, types.Provenance) error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected callback error, got %v", err)
	}
}

func TestFilesystemEnumerator_ContextCancellation(t *testing.T) {
	tmpDir := t.TempDir()
	for i := 0; i < 10; i++ {
		writeFile(t, filepath.Join(tmpDir, string(rune('a'+i))+".txt"), "content")
	}

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	count := 0
	err := NewFilesystemEnumerator(Config{Root: tmpDir, Workers: 1}).Enumerate(ctx, func(string, types.Provenance) error {
		mu.Lock()
		defer mu.Unlock()
		count++
		if count == 3 {
			cancel()
		}
		return nil
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled error, got %v", err)
	}
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     bool
	}{
		{"current dir", ".", false},
		{"parent dir", "..", false},
		{"hidden file", ".hidden", true},
		{"hidden directory", ".git", true},
		{"normal file", "file.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isHidden(tt.filename); got != tt.want {
				t.Errorf("isHidden(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestIsText(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"empty", "", true},
		{"ascii", "Ana won.", true},
		{"utf-8", "José ganó.", true},
		{"nul byte", "abc\x00def", false},
		{"latin-1", "Jos\xe9 gan\xf3.", false},
		{"nul after sniff window", strings.Repeat("a", sniffLength) + "\x00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isText([]byte(tt.content)); got != tt.want {
				t.Errorf("isText(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestFilesystemEnumerator_SkipsInvalidUTF8(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "utf8.txt"), "José ganó.")
	writeFile(t, filepath.Join(tmpDir, "latin1.txt"), "Jos\xe9 gan\xf3.")

	var c collector
	if err := NewFilesystemEnumerator(Config{Root: tmpDir}).Enumerate(context.Background(), c.add); err != nil {
		t.Fatalf("enumerate failed: %v", err)
	}

	if got := strings.Join(c.names(), ","); got != "utf8.txt" {
		t.Errorf("expected only utf8.txt, got %s", got)
	}
}

func TestFilesystemEnumerator_MissingRoot(t *testing.T) {
	err := NewFilesystemEnumerator(Config{Root: filepath.Join(t.TempDir(), "missing")}).
		Enumerate(context.Background(), func(string, types.Provenance) error { return nil })
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestReaderEnumerator(t *testing.T) {
	var c collector
	err := NewReaderEnumerator(strings.NewReader("Ana won."), "stdin").Enumerate(context.Background(), c.add)
	if err != nil {
		t.Fatalf("enumerate failed: %v", err)
	}
	if c.docs["stdin"] != "Ana won." {
		t.Errorf("unexpected documents: %v", c.docs)
	}
}

// buildDocx creates a minimal Word document with one paragraph per line.
func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		half := len(p) / 2
		body.WriteString(`<w:p><w:r><w:t>` + p[:half] + `</w:t></w:r><w:r><w:t>` + p[half:] + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	if _, err := w.Write([]byte(body.String())); err != nil {
		t.Fatalf("zip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}
