package types

// Document is a text together with its sentence/token structure and the
// flattened engine text derived from it.
//
// Every sentence, token and span carries two coordinates: a Document span into
// Text and an Engine span into EngineText.
type Document struct {
	Text       string      `json:"text"`
	EngineText string      `json:"engine_text"`
	Sentences  []*Sentence `json:"sentences"`
	// UserTokens is set when tokens were supplied by the caller rather than
	// produced by the engine's tokenizer.
	UserTokens bool `json:"user_tokens"`
}

// DocumentText returns the document substring covered by span.
func (d *Document) DocumentText(span OffsetSpan) string {
	if !span.Within(len(d.Text)) {
		return ""
	}
	return d.Text[span.Start:span.End]
}

// EngineSubstring returns the engine-text substring covered by span.
func (d *Document) EngineSubstring(span OffsetSpan) string {
	if !span.Within(len(d.EngineText)) {
		return ""
	}
	return d.EngineText[span.Start:span.End]
}

// Rendered returns the sentences that are part of the engine text, in order.
func (d *Document) Rendered() []*Sentence {
	out := make([]*Sentence, 0, len(d.Sentences))
	for _, s := range d.Sentences {
		if s.Rendered {
			out = append(out, s)
		}
	}
	return out
}

// TokenCount returns the number of tokens across all sentences.
func (d *Document) TokenCount() int {
	n := 0
	for _, s := range d.Sentences {
		n += len(s.Tokens)
	}
	return n
}

// Sentence is a contiguous region of the document sent to the engine as one
// line.
type Sentence struct {
	ExternalID ID         `json:"id,omitempty"`
	Document   OffsetSpan `json:"document"`
	Engine     OffsetSpan `json:"engine"`
	// Rendered is false for sentences with no engine text (blank sentences).
	Rendered bool                    `json:"rendered"`
	Tokens   []*Token                `json:"tokens"`
	Spans    map[Layer][]*MultiToken `json:"spans,omitempty"`

	// Offsets maps a sentence-relative engine offset to a sentence-relative
	// document offset. It has one entry per engine byte plus one for the end.
	// Nil means the two coordinates coincide.
	Offsets []int `json:"-"`
}

// ToDocument translates a sentence-relative engine offset into an absolute
// document offset.
func (s *Sentence) ToDocument(local int) int {
	if s.Offsets == nil || local < 0 || local >= len(s.Offsets) {
		return s.Document.Start + local
	}
	return s.Document.Start + s.Offsets[local]
}

// DocumentSpan translates a sentence-relative engine span into an absolute
// document span.
func (s *Sentence) DocumentSpan(local OffsetSpan) OffsetSpan {
	start := s.ToDocument(local.Start)
	if local.Empty() {
		return OffsetSpan{Start: start, End: start}
	}
	return OffsetSpan{Start: start, End: s.ToDocument(local.End-1) + 1}
}

// RenderedTokens returns the tokens that appear in the engine text.
func (s *Sentence) RenderedTokens() []*Token {
	out := make([]*Token, 0, len(s.Tokens))
	for _, t := range s.Tokens {
		if t.Rendered() {
			out = append(out, t)
		}
	}
	return out
}

// AddSpan records a reconstructed span under its layer.
func (s *Sentence) AddSpan(m *MultiToken) {
	if s.Spans == nil {
		s.Spans = make(map[Layer][]*MultiToken)
	}
	s.Spans[m.Layer] = append(s.Spans[m.Layer], m)
}

// NewSpan builds a span of kind over tokens [first, last], deriving both
// coordinates from the bounding tokens.
func (s *Sentence) NewSpan(kind SpanKind, layer Layer, typ string, first, last int) *MultiToken {
	m := &MultiToken{
		Kind:   kind,
		Layer:  layer,
		Type:   typ,
		First:  first,
		Last:   last,
		Verb:   -1,
		Parent: -1,
	}
	if first >= 0 && last < len(s.Tokens) && first <= last {
		m.Document = OffsetSpan{Start: s.Tokens[first].Document.Start, End: s.Tokens[last].Document.End}
		m.Engine = OffsetSpan{Start: s.Tokens[first].Engine.Start, End: s.Tokens[last].Engine.End}
	}
	return m
}

// Roots returns the top-level nodes of the sentence's constituency tree.
func (s *Sentence) Roots() []*MultiToken {
	var roots []*MultiToken
	for _, n := range s.Spans[LayerPSG] {
		if n.Parent < 0 {
			roots = append(roots, n)
		}
	}
	return roots
}

// Token is the smallest unit the engine tags.
type Token struct {
	ExternalID ID               `json:"id,omitempty"`
	Document   OffsetSpan       `json:"document"`
	Engine     OffsetSpan       `json:"engine"`
	Tags       map[Layer]string `json:"tags,omitempty"`
	// Roles holds one semantic-role tag per verb of the sentence.
	Roles []string `json:"roles,omitempty"`
}

// Rendered reports whether the token appears in the engine text.
func (t *Token) Rendered() bool {
	return !t.Engine.Empty()
}

// Tag returns the token's value for a layer, or "" when absent.
func (t *Token) Tag(l Layer) string {
	return t.Tags[l]
}

// SetTag records the token's value for a layer.
func (t *Token) SetTag(l Layer, value string) {
	if t.Tags == nil {
		t.Tags = make(map[Layer]string)
	}
	t.Tags[l] = value
}

// Role returns the token's role tag for the verb with the given ordinal.
func (t *Token) Role(verb int) string {
	if verb < 0 || verb >= len(t.Roles) {
		return ""
	}
	return t.Roles[verb]
}
