// Package enum discovers the documents to tag.
package enum

import (
	"context"

	"github.com/praetorian-inc/sennatag/pkg/types"
)

// Callback receives one document's text and where it came from.
type Callback func(text string, prov types.Provenance) error

// Enumerator discovers documents from a source.
type Enumerator interface {
	// Enumerate yields documents from the source. Implementations may invoke
	// callback from several goroutines at once.
	Enumerate(ctx context.Context, callback Callback) error
}

// Config for enumeration.
type Config struct {
	// Root is the starting path for enumeration: a directory or a single file.
	Root string

	// IncludeHidden includes hidden files/directories (starting with .).
	IncludeHidden bool

	// MaxFileSize is the maximum file size to process (0 = no limit).
	MaxFileSize int64

	// FollowSymlinks follows symbolic links.
	FollowSymlinks bool

	// Extract enables text extraction from PDF and DOCX files.
	Extract bool

	// Workers is the number of parallel file readers (0 = one per CPU).
	Workers int
}
