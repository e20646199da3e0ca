package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/sennatag/pkg/builder"
	"github.com/praetorian-inc/sennatag/pkg/types"
)

func TestPlan_DecodeAllLayers(t *testing.T) {
	plan := NewPlan([]types.Layer{types.LayerPSG, types.LayerSRL, types.LayerNER, types.LayerCHK, types.LayerPOS})
	assert.Equal(t, 8, plan.MinColumns())

	row, err := plan.Decode("ran\t 5 8\tVBD\tS-VP\tO\tran\tS-V\tO\t(VP*)")
	require.NoError(t, err)

	assert.Equal(t, "ran", row.Word)
	assert.Equal(t, types.Span(5, 8), row.Engine)
	assert.Equal(t, "VBD", row.Tags[types.LayerPOS])
	assert.Equal(t, "S-VP", row.Tags[types.LayerCHK])
	assert.Equal(t, "O", row.Tags[types.LayerNER])
	assert.Equal(t, "ran", row.Tags[types.LayerSRL])
	assert.Equal(t, "(VP*)", row.Tags[types.LayerPSG])
	assert.Equal(t, []string{"S-V", "O"}, row.Roles)
}

func TestPlan_DecodeWithoutVerbs(t *testing.T) {
	plan := NewPlan([]types.Layer{types.LayerSRL})

	row, err := plan.Decode("John 0 4 -")
	require.NoError(t, err)
	assert.Equal(t, "-", row.Tags[types.LayerSRL])
	assert.Empty(t, row.Roles)
}

func TestPlan_DecodeErrors(t *testing.T) {
	plan := NewPlan([]types.Layer{types.LayerPOS, types.LayerNER})

	_, err := plan.Decode("John 0 4 NNP")
	assert.ErrorContains(t, err, "expected at least 5 columns")

	_, err = plan.Decode("John x 4 NNP O")
	assert.ErrorContains(t, err, "start offset")

	_, err = plan.Decode("John 0 y NNP O")
	assert.ErrorContains(t, err, "end offset")
}

func TestPlan_ApplyEngineTokens(t *testing.T) {
	doc, err := builder.Build("Ana\nwon .", nil, nil, builder.Options{})
	require.NoError(t, err)
	plan := NewPlan([]types.Layer{types.LayerPOS})

	s := doc.Sentences[0]
	require.NoError(t, plan.Apply(doc, s, []string{"Ana 0 3 NNP", "won 3 6 VBD", ". 7 8 ."}))

	require.Len(t, s.Tokens, 3)
	assert.Equal(t, "won", doc.DocumentText(s.Tokens[1].Document))
	assert.Equal(t, "won", doc.EngineSubstring(s.Tokens[1].Engine))
	assert.Equal(t, ".", doc.DocumentText(s.Tokens[2].Document))
	assert.Equal(t, "VBD", s.Tokens[1].Tag(types.LayerPOS))
}

func TestPlan_ApplyRejectsOffsetsOutsideSentence(t *testing.T) {
	doc, err := builder.Build("Ana won", nil, nil, builder.Options{})
	require.NoError(t, err)
	plan := NewPlan([]types.Layer{types.LayerPOS})

	err = plan.Apply(doc, doc.Sentences[0], []string{"Ana 0 30 NNP"})
	assert.Error(t, err)
}

func TestPlan_ApplyUserTokensPositionally(t *testing.T) {
	text := "Ana   won"
	tokens := []builder.Boundary{
		{Span: types.Span(0, 3), ID: 1},
		{Span: types.Span(3, 6), ID: 2},
		{Span: types.Span(6, 9), ID: 3},
	}
	doc, err := builder.Build(text, nil, tokens, builder.Options{})
	require.NoError(t, err)
	plan := NewPlan([]types.Layer{types.LayerPOS})

	s := doc.Sentences[0]
	require.NoError(t, plan.Apply(doc, s, []string{"Ana 0 3 NNP", "won 4 7 VBD", "extra 8 13 XX"}))

	assert.Equal(t, "NNP", s.Tokens[0].Tag(types.LayerPOS))
	assert.Equal(t, "", s.Tokens[1].Tag(types.LayerPOS), "whitespace token is not rendered")
	assert.Equal(t, "VBD", s.Tokens[2].Tag(types.LayerPOS))
	assert.Equal(t, types.ID(3), s.Tokens[2].ExternalID)
}

func TestReadSentences(t *testing.T) {
	out := "a 0 1 X\nb 2 3 Y\n\n\n\r\nc 0 1 Z\r\n\nincomplete 0 10 W\n"

	var groups [][]string
	err := ReadSentences(strings.NewReader(out), func(lines []string) error {
		groups = append(groups, lines)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"a 0 1 X", "b 2 3 Y"}, {"c 0 1 Z"}}, groups)
}

func TestPlan_Consume(t *testing.T) {
	doc, err := builder.Build("Ana won. Bo lost.", []builder.Boundary{
		{Span: types.Span(0, 8)}, {Span: types.Span(9, 17)},
	}, nil, builder.Options{})
	require.NoError(t, err)
	plan := NewPlan([]types.Layer{types.LayerPOS})

	// second sentence output truncated
	n, err := plan.Consume(strings.NewReader("Ana 0 3 NNP\nwon. 4 8 VBD\n\nBo 0 2 NNP\n"), doc)
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Len(t, doc.Sentences[0].Tokens, 2)
	assert.Empty(t, doc.Sentences[1].Tokens)
}

func TestPlan_ConsumeParseError(t *testing.T) {
	doc, err := builder.Build("Ana won.", nil, nil, builder.Options{})
	require.NoError(t, err)
	plan := NewPlan([]types.Layer{types.LayerPOS, types.LayerNER})

	_, err = plan.Consume(strings.NewReader("Ana 0 3 NNP\n\n"), doc)
	assert.Error(t, err)
}

func TestPlan_ConsumeMalformedIsTyped(t *testing.T) {
	doc, err := builder.Build("Ana won.", nil, nil, builder.Options{})
	require.NoError(t, err)

	_, err = NewPlan([]types.Layer{types.LayerNER}).Consume(strings.NewReader("Ana zero 3 O\n\n"), doc)
	assert.ErrorIs(t, err, ErrMalformed)
}
