package types

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoTokenSentence() *Sentence {
	return &Sentence{
		Document: Span(10, 18),
		Engine:   Span(0, 8),
		Rendered: true,
		Tokens: []*Token{
			{Document: Span(10, 13), Engine: Span(0, 3)},
			{Document: Span(14, 18), Engine: Span(4, 8)},
		},
	}
}

func TestDocument_TextAccessors(t *testing.T) {
	doc := &Document{Text: "Hello Ana won.", EngineText: "Ana won."}

	assert.Equal(t, "Ana", doc.DocumentText(Span(6, 9)))
	assert.Equal(t, "won.", doc.EngineSubstring(Span(4, 8)))
	assert.Equal(t, "", doc.DocumentText(Span(6, 99)))
}

func TestSentence_ToDocument_Identity(t *testing.T) {
	s := twoTokenSentence()

	assert.Equal(t, 14, s.ToDocument(4))
	assert.Equal(t, Span(14, 18), s.DocumentSpan(Span(4, 8)))
}

func TestSentence_ToDocument_StrippedNewline(t *testing.T) {
	// document "ab\ncd" rendered as "abcd"
	s := &Sentence{
		Document: Span(100, 105),
		Offsets:  []int{0, 1, 3, 4, 5},
	}

	assert.Equal(t, 103, s.ToDocument(2))
	assert.Equal(t, Span(100, 102), s.DocumentSpan(Span(0, 2)))
	assert.Equal(t, Span(103, 105), s.DocumentSpan(Span(2, 4)))
	assert.Equal(t, Span(100, 105), s.DocumentSpan(Span(0, 4)))
	assert.Equal(t, Span(101, 101), s.DocumentSpan(Span(1, 1)))
}

func TestSentence_NewSpan(t *testing.T) {
	s := twoTokenSentence()

	m := s.NewSpan(SpanPlain, LayerNER, "PER", 0, 1)
	assert.Equal(t, Span(10, 18), m.Document)
	assert.Equal(t, Span(0, 8), m.Engine)
	assert.Equal(t, 2, m.TokenCount())
	assert.Equal(t, -1, m.Parent)
	assert.Equal(t, -1, m.Verb)

	s.AddSpan(m)
	assert.Len(t, s.Spans[LayerNER], 1)
}

func TestSentence_Roots(t *testing.T) {
	s := twoTokenSentence()
	root := s.NewSpan(SpanTree, LayerPSG, "S", 0, 1)
	root.Children = []int{1}
	child := s.NewSpan(SpanTree, LayerPSG, "NP", 0, 0)
	child.Parent = 0
	s.AddSpan(root)
	s.AddSpan(child)

	roots := s.Roots()
	require.Len(t, roots, 1)
	assert.Equal(t, "S", roots[0].Type)
}

func TestSentence_RenderedTokens(t *testing.T) {
	s := twoTokenSentence()
	s.Tokens = append(s.Tokens, &Token{Document: Span(18, 19), Engine: Span(8, 8)})

	assert.Len(t, s.RenderedTokens(), 2)
	doc := &Document{Sentences: []*Sentence{s, {Document: Span(19, 20)}}}
	assert.Len(t, doc.Rendered(), 1)
	assert.Equal(t, 3, doc.TokenCount())
}

func TestToken_Tags(t *testing.T) {
	tok := &Token{}
	assert.Equal(t, "", tok.Tag(LayerPOS))

	tok.SetTag(LayerPOS, "NNP")
	tok.Roles = []string{"B-A0", "O"}

	assert.Equal(t, "NNP", tok.Tag(LayerPOS))
	assert.Equal(t, "O", tok.Role(1))
	assert.Equal(t, "", tok.Role(2))
	assert.Equal(t, "", tok.Role(-1))
}

func TestMultiToken_ShiftAndClone(t *testing.T) {
	verb := &MultiToken{Kind: SpanVerb, Document: Span(4, 7), Engine: Span(4, 7)}
	verb.Arguments = []*MultiToken{{Kind: SpanArgument, Document: Span(0, 3), Engine: Span(0, 3)}}

	clone := verb.Clone()
	clone.Shift(100, 10)

	assert.Equal(t, Span(104, 107), clone.Document)
	assert.Equal(t, Span(14, 17), clone.Engine)
	assert.Equal(t, Span(100, 103), clone.Arguments[0].Document)
	// original untouched
	assert.Equal(t, Span(0, 3), verb.Arguments[0].Document)
}

func TestMultiToken_Relation(t *testing.T) {
	arg := &MultiToken{Kind: SpanArgument, Type: "A0"}
	verb := &MultiToken{Kind: SpanVerb, Type: "V", Arguments: []*MultiToken{arg}}

	_, ok := verb.Relation()
	assert.False(t, ok, "no identities yet")

	verb.ExternalID = 9
	_, ok = verb.Relation()
	assert.False(t, ok, "argument lacks identity")

	arg.ExternalID = 4
	rel, ok := verb.Relation()
	require.True(t, ok)
	assert.Equal(t, Relation{Type: "SRL", Members: []ID{9, 4}}, rel)

	empty := &MultiToken{Kind: SpanVerb, ExternalID: 3}
	_, ok = empty.Relation()
	assert.False(t, ok)
}

func TestDocument_JSON(t *testing.T) {
	s := twoTokenSentence()
	s.Tokens[0].SetTag(LayerNER, "S-PER")
	s.AddSpan(s.NewSpan(SpanPlain, LayerNER, "PER", 0, 0))
	doc := &Document{Text: "0123456789Ana won.", EngineText: "Ana won.", Sentences: []*Sentence{s}}

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tags":{"NER":"S-PER"}`)
	assert.Contains(t, string(data), `"spans":{"NER":[`)
	assert.Contains(t, string(data), `"kind":"plain"`)

	var decoded Document
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Sentences, 1)
	assert.Equal(t, "S-PER", decoded.Sentences[0].Tokens[0].Tag(LayerNER))
}

func TestErrors(t *testing.T) {
	bounds := &BoundsError{Kind: "token", Span: Span(3, 40), TextLength: 10}
	assert.Equal(t, "token span [3,40) out of bounds for text of length 10", bounds.Error())

	launch := &LaunchError{Path: "/opt/senna/senna", Err: io.ErrUnexpectedEOF}
	assert.ErrorIs(t, launch, io.ErrUnexpectedEOF)

	stream := &StreamError{Op: "read", Err: io.ErrClosedPipe}
	assert.ErrorIs(t, stream, io.ErrClosedPipe)
	assert.Equal(t, -1, stream.ExitCode())

	interrupted := &InterruptedError{Err: context.Canceled}
	assert.ErrorIs(t, interrupted, context.Canceled)

	var target *InterruptedError
	wrapped := errors.Join(errors.New("outer"), interrupted)
	assert.ErrorAs(t, wrapped, &target)

	tooLong := &SentenceTooLongError{Sentence: Span(0, 1025), Text: strings.Repeat("é", 30), Length: 1025, Max: 1024}
	assert.Contains(t, tooLong.Error(), "1025")
	assert.Contains(t, tooLong.Error(), `"`+strings.Repeat("é", 20)+`..."`)

	short := &SentenceTooLongError{Sentence: Span(0, 8), Text: "Ana won.", Length: 8, Max: 5}
	assert.Equal(t, `sentence [0,8) renders to 8 bytes, limit is 5: "Ana won."`, short.Error())
	assert.Contains(t, (&UnassignableTokenError{Span: Span(1, 2)}).Error(), "[1,2)")
}
