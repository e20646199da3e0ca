package annotate

import (
	"strings"

	"github.com/praetorian-inc/sennatag/pkg/store"
	"github.com/praetorian-inc/sennatag/pkg/types"
)

// SegmentLines adds a sentence annotation for every non-blank line of a stored
// document, trimmed of surrounding whitespace, unless the document already has
// sentences of that type. It returns the number of sentences added.
func SegmentLines(s store.Store, docID, set, typ string) (int, error) {
	doc, err := s.Document(docID)
	if err != nil {
		return 0, err
	}
	existing, err := s.Spans(docID, set, typ, types.Span(0, len(doc.Text)))
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	added := 0
	for _, span := range lineSpans(doc.Text) {
		if _, err := s.AddSpan(docID, set, typ, span, nil); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// lineSpans returns the trimmed extent of each non-blank line.
func lineSpans(text string) []types.OffsetSpan {
	var spans []types.OffsetSpan
	start := 0
	for start <= len(text) {
		end := strings.IndexByte(text[start:], '\n')
		if end < 0 {
			end = len(text)
		} else {
			end += start
		}

		line := text[start:end]
		trimmed := strings.TrimLeft(line, " \t\r\v\f")
		left := start + len(line) - len(trimmed)
		right := left + len(strings.TrimRight(trimmed, " \t\r\v\f"))
		if right > left {
			spans = append(spans, types.Span(left, right))
		}
		start = end + 1
	}
	return spans
}
