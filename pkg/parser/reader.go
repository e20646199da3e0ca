package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/praetorian-inc/sennatag/pkg/types"
)

// maxLineSize bounds a single engine output line.
const maxLineSize = 1024 * 1024

// ErrMalformed marks engine output that does not match the column plan.
var ErrMalformed = errors.New("malformed engine output")

// ReadSentences reads blank-line separated groups of lines from r and calls fn
// for each group as soon as its terminating blank line arrives. A trailing
// group without a terminator is incomplete and dropped.
func ReadSentences(r io.Reader, fn func(lines []string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var group []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			if len(group) > 0 {
				if err := fn(group); err != nil {
					return err
				}
				group = nil
			}
			continue
		}
		group = append(group, line)
	}
	return scanner.Err()
}

// Consume streams engine output for doc, tagging its rendered sentences in
// order. It returns how many sentences received output. Groups beyond the last
// sentence are ignored; sentences without output stay untagged.
func (p Plan) Consume(r io.Reader, doc *types.Document) (int, error) {
	rendered := doc.Rendered()
	n := 0
	err := ReadSentences(r, func(lines []string) error {
		if n >= len(rendered) {
			return nil
		}
		s := rendered[n]
		n++
		if err := p.Apply(doc, s, lines); err != nil {
			return fmt.Errorf("%w: sentence %d: %v", ErrMalformed, n-1, err)
		}
		return nil
	})
	return n, err
}
