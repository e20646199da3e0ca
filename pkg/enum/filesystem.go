package enum

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"unicode/utf8"

	gitignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"github.com/praetorian-inc/sennatag/pkg/types"
)

// sniffLength is how much of a file is searched for NUL bytes.
const sniffLength = 8192

// FilesystemEnumerator enumerates text documents from a file or directory.
type FilesystemEnumerator struct {
	config Config
}

// NewFilesystemEnumerator creates a new filesystem enumerator.
func NewFilesystemEnumerator(config Config) *FilesystemEnumerator {
	return &FilesystemEnumerator{config: config}
}

// Enumerate lists the documents under the root first, then reads them on
// Config.Workers goroutines. Files that are not text are skipped; PDF and
// DOCX files yield their extracted text when Config.Extract is set.
func (e *FilesystemEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	paths, err := e.documents(ctx)
	if err != nil {
		return err
	}

	readers := e.config.Workers
	if readers < 1 {
		readers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(readers)
	for _, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return e.read(gctx, path, callback)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// documents returns the candidate files under the root in walk order.
func (e *FilesystemEnumerator) documents(ctx context.Context) ([]string, error) {
	root := e.config.Root
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	ignore := loadIgnore(root)
	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if path == root {
			return nil
		}

		if !e.config.IncludeHidden && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 && !e.config.FollowSymlinks {
			return nil
		}

		if ignore != nil {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if ignore.MatchesPath(rel) {
				return nil
			}
		}

		if e.config.MaxFileSize > 0 {
			info, err := d.Info()
			if err != nil {
				return err
			}
			if info.Size() > e.config.MaxFileSize {
				return nil
			}
		}

		paths = append(paths, path)
		return nil
	})
	return paths, err
}

// loadIgnore compiles the root's .gitignore, if it has a readable one.
func loadIgnore(root string) *gitignore.GitIgnore {
	ignore, err := gitignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return ignore
}

// read hands the text of one file to callback.
func (e *FilesystemEnumerator) read(ctx context.Context, path string, callback Callback) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}

	if e.config.Extract && IsExtractable(path) {
		extracted, err := ExtractText(path, content)
		if err != nil {
			// damaged documents are skipped like any other non-text file
			return nil
		}
		for _, ec := range extracted {
			if err := callback(ec.Text, types.ExtractedProvenance{FilePath: path, MemberPath: ec.Name}); err != nil {
				return err
			}
		}
		return nil
	}

	if !isText(content) {
		return nil
	}
	return callback(string(content), types.FileProvenance{FilePath: path})
}

// isHidden reports dot-files and dot-directories. The path elements "." and
// ".." name the walk root, not hidden entries.
func isHidden(name string) bool {
	return name != "." && name != ".." && strings.HasPrefix(name, ".")
}

// isText accepts UTF-8 content with no NUL byte in its first sniffLength bytes.
func isText(content []byte) bool {
	head := content[:min(len(content), sniffLength)]
	return bytes.IndexByte(head, 0) == -1 && utf8.Valid(content)
}
