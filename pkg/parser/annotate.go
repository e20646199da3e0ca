package parser

import "github.com/praetorian-inc/sennatag/pkg/types"

// Style selects how span boundaries are encoded in tag values.
type Style int

const (
	StyleIOB     Style = iota // B-/I-/E-/S-/O prefixes
	StyleBracket              // "(TYPE*", "*", "*)"
)

func (s Style) String() string {
	if s == StyleBracket {
		return "bracket"
	}
	return "iob"
}

// Annotate rebuilds the spans of the given layers from the tags of the
// sentence's tokens, replacing any spans those layers already had.
// Part-of-speech has no span form and is skipped. The constituency layer is
// always read as brackets.
func Annotate(s *types.Sentence, layers []types.Layer, style Style) {
	var tokens []*types.Token
	var index []int // position in tokens -> position in s.Tokens
	for i, t := range s.Tokens {
		if t.Rendered() {
			tokens = append(tokens, t)
			index = append(index, i)
		}
	}

	for _, l := range types.SortLayers(layers) {
		if s.Spans != nil {
			delete(s.Spans, l)
		}
		switch l {
		case types.LayerCHK, types.LayerNER:
			for _, seg := range extract(tagColumn(tokens, l), style) {
				s.AddSpan(s.NewSpan(types.SpanPlain, l, seg.Type, index[seg.First], index[seg.Last]))
			}
		case types.LayerSRL:
			annotateRoles(s, tokens, index, style)
		case types.LayerPSG:
			for _, n := range ExtractBrackets(tagColumn(tokens, l)) {
				m := s.NewSpan(types.SpanTree, l, n.Type, index[n.First], index[n.Last])
				m.Parent = n.Parent
				m.Children = n.Children
				s.AddSpan(m)
			}
		}
	}
}

// annotateRoles creates one verb span per predicate token, each carrying the
// arguments found in that verb's role column. Arguments typed "V" mark the verb
// itself and are dropped.
func annotateRoles(s *types.Sentence, tokens []*types.Token, index []int, style Style) {
	ordinal := 0
	for i, t := range tokens {
		if v := t.Tag(types.LayerSRL); v == "" || v == "-" {
			continue
		}

		verb := s.NewSpan(types.SpanVerb, types.LayerSRL, "V", index[i], index[i])
		roles := make([]string, len(tokens))
		for j, rt := range tokens {
			roles[j] = rt.Role(ordinal)
		}
		for _, seg := range extract(roles, style) {
			if seg.Type == "V" {
				continue
			}
			arg := s.NewSpan(types.SpanArgument, types.LayerSRL, seg.Type, index[seg.First], index[seg.Last])
			arg.Verb = ordinal
			verb.Arguments = append(verb.Arguments, arg)
		}

		s.AddSpan(verb)
		ordinal++
	}
}

func tagColumn(tokens []*types.Token, l types.Layer) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Tag(l)
	}
	return out
}

func extract(tags []string, style Style) []Segment {
	if style == StyleBracket {
		return flatten(ExtractBrackets(tags))
	}
	return ExtractIOB(tags)
}

// AnnotateDocument runs Annotate over every rendered sentence of doc.
func AnnotateDocument(doc *types.Document, layers []types.Layer, style Style) {
	for _, s := range doc.Rendered() {
		Annotate(s, layers, style)
	}
}
