package types

import "fmt"

// SpanKind distinguishes the variants of a MultiToken.
type SpanKind int

const (
	SpanPlain    SpanKind = iota // chunk or named entity
	SpanVerb                     // predicate with its arguments
	SpanArgument                 // role argument of a verb
	SpanTree                     // constituency node
)

func (k SpanKind) String() string {
	switch k {
	case SpanPlain:
		return "plain"
	case SpanVerb:
		return "verb"
	case SpanArgument:
		return "argument"
	case SpanTree:
		return "tree"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k SpanKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// MultiToken is a span over one or more consecutive tokens of a sentence.
//
// First and Last index into the owning sentence's Tokens. Variant-specific
// fields are only meaningful for their kind:
//   - SpanVerb: Arguments.
//   - SpanArgument: Verb, the ordinal of the owning verb in the sentence's
//     SRL spans.
//   - SpanTree: Parent and Children, indices into the sentence's PSG spans;
//     Parent is -1 for roots.
type MultiToken struct {
	Kind       SpanKind   `json:"kind"`
	Layer      Layer      `json:"layer"`
	Type       string     `json:"type"`
	First      int        `json:"first"`
	Last       int        `json:"last"`
	Document   OffsetSpan `json:"document"`
	Engine     OffsetSpan `json:"engine"`
	ExternalID ID         `json:"id,omitempty"`

	Verb      int           `json:"verb"`
	Arguments []*MultiToken `json:"arguments,omitempty"`
	Parent    int           `json:"parent"`
	Children  []int         `json:"children,omitempty"`
}

// TokenCount returns the number of tokens the span covers.
func (m *MultiToken) TokenCount() int {
	return m.Last - m.First + 1
}

// Shift moves both coordinates by the given deltas.
func (m *MultiToken) Shift(docDelta, engineDelta int) {
	m.Document = m.Document.Shift(docDelta)
	m.Engine = m.Engine.Shift(engineDelta)
	for _, a := range m.Arguments {
		a.Shift(docDelta, engineDelta)
	}
}

// Clone returns a deep copy of the span.
func (m *MultiToken) Clone() *MultiToken {
	c := *m
	if m.Arguments != nil {
		c.Arguments = make([]*MultiToken, len(m.Arguments))
		for i, a := range m.Arguments {
			c.Arguments[i] = a.Clone()
		}
	}
	if m.Children != nil {
		c.Children = append([]int(nil), m.Children...)
	}
	return &c
}

// Relation is an n-ary link between stored spans.
type Relation struct {
	Type    string `json:"type"`
	Members []ID   `json:"members"`
}

// RelationType is the type of the verb/argument relation.
const RelationType = "SRL"

// Relation returns the verb-to-arguments relation (verb first, then arguments
// in order). It reports false unless the span is a verb with at least one
// argument and every participant has an external identity.
func (m *MultiToken) Relation() (Relation, bool) {
	if m.Kind != SpanVerb || len(m.Arguments) == 0 || !m.ExternalID.Valid() {
		return Relation{}, false
	}
	members := make([]ID, 0, len(m.Arguments)+1)
	members = append(members, m.ExternalID)
	for _, a := range m.Arguments {
		if !a.ExternalID.Valid() {
			return Relation{}, false
		}
		members = append(members, a.ExternalID)
	}
	return Relation{Type: RelationType, Members: members}, true
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *SpanKind) UnmarshalText(text []byte) error {
	for _, candidate := range []SpanKind{SpanPlain, SpanVerb, SpanArgument, SpanTree} {
		if candidate.String() == string(text) {
			*k = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown span kind %q", text)
}
