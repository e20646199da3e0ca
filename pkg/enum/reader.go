package enum

import (
	"context"
	"fmt"
	"io"

	"github.com/praetorian-inc/sennatag/pkg/types"
)

// ReaderEnumerator yields the whole content of a reader as one document.
type ReaderEnumerator struct {
	r     io.Reader
	label string
}

// NewReaderEnumerator creates an enumerator over r, labelled for provenance.
func NewReaderEnumerator(r io.Reader, label string) *ReaderEnumerator {
	return &ReaderEnumerator{r: r, label: label}
}

// Enumerate reads r to the end and yields it.
func (e *ReaderEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	content, err := io.ReadAll(e.r)
	if err != nil {
		return fmt.Errorf("reading %s: %w", e.label, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return callback(string(content), types.InlineProvenance{Label: e.label})
}
