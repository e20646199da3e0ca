// Package builder turns a text plus optional sentence and token boundaries
// into a Document whose engine text is the line-per-sentence form the tagging
// engine reads.
package builder

import (
	"sort"
	"strings"

	"github.com/praetorian-inc/sennatag/pkg/types"
)

// DefaultMaxSentenceLength is the engine's default line limit in bytes.
const DefaultMaxSentenceLength = 1024

const (
	tokenSeparator    = " "
	sentenceSeparator = "\n"
)

// Boundary is a caller-supplied span with an optional store identity.
type Boundary struct {
	Span types.OffsetSpan `json:"span"`
	ID   types.ID         `json:"id,omitempty"`
}

// Options configures document building.
type Options struct {
	// MaxSentenceLength is the longest engine line accepted, in bytes.
	// Zero or negative selects DefaultMaxSentenceLength.
	MaxSentenceLength int
}

func (o Options) maxLength() int {
	if o.MaxSentenceLength <= 0 {
		return DefaultMaxSentenceLength
	}
	return o.MaxSentenceLength
}

// Build validates the boundaries and constructs the document with its engine
// text.
//
// With no sentences the whole text is one sentence. When tokens are given,
// every token must lie inside a sentence and the engine is told to keep the
// caller's tokenization; otherwise the engine tokenizes each sentence itself.
func Build(text string, sentences, tokens []Boundary, opts Options) (*types.Document, error) {
	if len(sentences) == 0 {
		sentences = []Boundary{{Span: types.Span(0, len(text))}}
	}

	doc := &types.Document{
		Text:       text,
		Sentences:  make([]*types.Sentence, 0, len(sentences)),
		UserTokens: len(tokens) > 0,
	}

	for _, b := range sentences {
		if !b.Span.Within(len(text)) {
			return nil, &types.BoundsError{Kind: "sentence", Span: b.Span, TextLength: len(text)}
		}
		doc.Sentences = append(doc.Sentences, &types.Sentence{ExternalID: b.ID, Document: b.Span})
	}
	sort.SliceStable(doc.Sentences, func(i, j int) bool {
		return doc.Sentences[i].Document.Start < doc.Sentences[j].Document.Start
	})

	for _, b := range tokens {
		if !b.Span.Within(len(text)) {
			return nil, &types.BoundsError{Kind: "token", Span: b.Span, TextLength: len(text)}
		}
		s := owner(doc.Sentences, b.Span)
		if s == nil {
			return nil, &types.UnassignableTokenError{Span: b.Span}
		}
		s.Tokens = append(s.Tokens, &types.Token{ExternalID: b.ID, Document: b.Span})
	}
	for _, s := range doc.Sentences {
		sort.SliceStable(s.Tokens, func(i, j int) bool {
			return s.Tokens[i].Document.Start < s.Tokens[j].Document.Start
		})
	}

	if err := Render(doc, opts); err != nil {
		return nil, err
	}
	return doc, nil
}

// owner finds the sentence containing span. Sentences must be sorted by start;
// the closest preceding sentence wins when several overlap.
func owner(sentences []*types.Sentence, span types.OffsetSpan) *types.Sentence {
	i := sort.Search(len(sentences), func(i int) bool {
		return sentences[i].Document.Start > span.Start
	})
	for i--; i >= 0; i-- {
		if sentences[i].Document.Contains(span) {
			return sentences[i]
		}
	}
	return nil
}

// Render (re)computes the engine text and every engine coordinate of doc.
//
// Sentences are joined by a newline and user tokens by a single space.
// Whitespace inside a user token is removed; newlines inside an
// engine-tokenized sentence are removed and recorded in the sentence's offset
// table. Blank sentences and whitespace-only tokens are left out.
func Render(doc *types.Document, opts Options) error {
	limit := opts.maxLength()

	var b strings.Builder
	for _, s := range doc.Sentences {
		s.Rendered = false
		s.Offsets = nil

		var line string
		if doc.UserTokens {
			line = renderTokens(doc.Text, s)
		} else {
			line, s.Offsets = stripNewlines(doc.Text[s.Document.Start:s.Document.End])
		}

		if strings.TrimSpace(line) == "" {
			pos := b.Len()
			s.Engine = types.Span(pos, pos)
			s.Offsets = nil
			for _, t := range s.Tokens {
				t.Engine = types.Span(pos, pos)
			}
			continue
		}
		if len(line) > limit {
			return &types.SentenceTooLongError{Sentence: s.Document, Text: line, Length: len(line), Max: limit}
		}

		if b.Len() > 0 {
			b.WriteString(sentenceSeparator)
		}
		base := b.Len()
		b.WriteString(line)

		s.Engine = types.Span(base, b.Len())
		s.Rendered = true
		if doc.UserTokens {
			for _, t := range s.Tokens {
				t.Engine = t.Engine.Shift(base)
			}
		}
	}

	doc.EngineText = b.String()
	return nil
}

// renderTokens joins the sentence's tokens and sets their sentence-relative
// engine spans.
func renderTokens(text string, s *types.Sentence) string {
	var lb strings.Builder
	for _, t := range s.Tokens {
		word := strings.Join(strings.Fields(text[t.Document.Start:t.Document.End]), "")
		if word == "" {
			t.Engine = types.Span(lb.Len(), lb.Len())
			continue
		}
		if lb.Len() > 0 {
			lb.WriteString(tokenSeparator)
		}
		start := lb.Len()
		lb.WriteString(word)
		t.Engine = types.Span(start, lb.Len())
	}
	return lb.String()
}

// stripNewlines removes line breaks. The returned table maps each kept byte
// (and the end) to its offset in s; it is nil when nothing was removed.
func stripNewlines(s string) (string, []int) {
	if !strings.ContainsAny(s, "\r\n") {
		return s, nil
	}

	var b strings.Builder
	offsets := make([]int, 0, len(s)+1)
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' || s[i] == '\r' {
			continue
		}
		b.WriteByte(s[i])
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(s))
	return b.String(), offsets
}
