package builder

import (
	"github.com/praetorian-inc/sennatag/pkg/types"
)

// Part is a contiguous run of sentences [First, End) processed by one worker.
type Part struct {
	First int
	End   int
	Index int // part number (0-indexed)
}

// Len returns the number of sentences in the part.
func (p Part) Len() int {
	return p.End - p.First
}

// Partition splits n sentences into at most parts contiguous runs whose sizes
// differ by at most one. With f = n/parts and r = n%parts, the first parts-r
// runs get f sentences and the rest f+1. Empty runs are dropped.
func Partition(n, parts int) []Part {
	if parts < 1 {
		parts = 1
	}
	f, r := n/parts, n%parts

	var out []Part
	first := 0
	for i := 0; i < parts; i++ {
		size := f
		if i >= parts-r {
			size++
		}
		if size == 0 {
			continue
		}
		out = append(out, Part{First: first, End: first + size, Index: len(out)})
		first += size
	}
	return out
}

// SubDocument is a slice of a parent document, re-based so that its text
// starts at offset 0.
type SubDocument struct {
	Document *types.Document
	Part     Part
	// Offset is the parent document offset where the sub-document's text starts.
	Offset int
}

// Split carves the sentences of part out of doc into an independent document
// with its own engine text. Engine-tokenized documents carry no tokens into the
// sub-document; caller tokens are copied with their identities.
func Split(doc *types.Document, part Part, opts Options) (*SubDocument, error) {
	sentences := doc.Sentences[part.First:part.End]

	offset := sentences[0].Document.Start
	end := sentences[0].Document.End
	for _, s := range sentences[1:] {
		end = max(end, s.Document.End)
	}

	sub := &types.Document{
		Text:       doc.Text[offset:end],
		Sentences:  make([]*types.Sentence, 0, len(sentences)),
		UserTokens: doc.UserTokens,
	}
	for _, s := range sentences {
		ss := &types.Sentence{
			ExternalID: s.ExternalID,
			Document:   s.Document.Shift(-offset),
		}
		if doc.UserTokens {
			ss.Tokens = make([]*types.Token, 0, len(s.Tokens))
			for _, t := range s.Tokens {
				ss.Tokens = append(ss.Tokens, &types.Token{
					ExternalID: t.ExternalID,
					Document:   t.Document.Shift(-offset),
				})
			}
		}
		sub.Sentences = append(sub.Sentences, ss)
	}

	if err := Render(sub, opts); err != nil {
		return nil, err
	}
	return &SubDocument{Document: sub, Part: part, Offset: offset}, nil
}

// MergeInto copies the sub-document's tagging results into the parent's
// corresponding sentences, translating every token and span back into the
// parent's coordinates.
func (sd *SubDocument) MergeInto(parent *types.Document) {
	for i, ss := range sd.Document.Sentences {
		ps := parent.Sentences[sd.Part.First+i]
		engineDelta := ps.Engine.Start - ss.Engine.Start

		if parent.UserTokens {
			for j, st := range ss.Tokens {
				if j >= len(ps.Tokens) {
					break
				}
				ps.Tokens[j].Tags = st.Tags
				ps.Tokens[j].Roles = st.Roles
			}
		} else {
			ps.Tokens = make([]*types.Token, 0, len(ss.Tokens))
			for _, st := range ss.Tokens {
				ps.Tokens = append(ps.Tokens, &types.Token{
					Document: st.Document.Shift(sd.Offset),
					Engine:   st.Engine.Shift(engineDelta),
					Tags:     st.Tags,
					Roles:    st.Roles,
				})
			}
		}

		ps.Spans = nil
		for _, spans := range ss.Spans {
			for _, m := range spans {
				c := m.Clone()
				c.Shift(sd.Offset, engineDelta)
				ps.AddSpan(c)
			}
		}
	}
}
