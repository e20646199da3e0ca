// Package parser decodes the tagging engine's column output and rebuilds
// multi-token spans (chunks, entities, semantic roles, parse trees) from it.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/praetorian-inc/sennatag/pkg/types"
)

// Plan is the column layout of one engine run, fixed by the layers it was
// started with.
//
// Each output line is: token, start, end, then one column per layer in
// priority order. The semantic-role layer is followed by one extra column per
// verb of the sentence, and the constituency column is always last.
type Plan struct {
	columns []types.Layer // layers before the constituency column
	psg     bool
}

// NewPlan builds the layout for the given executed layers.
func NewPlan(layers []types.Layer) Plan {
	var p Plan
	for _, l := range types.SortLayers(layers) {
		if l == types.LayerPSG {
			p.psg = true
			continue
		}
		p.columns = append(p.columns, l)
	}
	return p
}

// MinColumns is the smallest number of columns a well-formed line has.
func (p Plan) MinColumns() int {
	n := 3 + len(p.columns)
	if p.psg {
		n++
	}
	return n
}

// Row is one decoded output line.
type Row struct {
	Word   string
	Engine types.OffsetSpan // sentence-relative
	Tags   map[types.Layer]string
	Roles  []string
}

// Decode splits one output line into its columns.
func (p Plan) Decode(line string) (Row, error) {
	fields := strings.Fields(line)
	if len(fields) < p.MinColumns() {
		return Row{}, fmt.Errorf("expected at least %d columns, got %d: %q", p.MinColumns(), len(fields), line)
	}

	start, err := strconv.Atoi(fields[1])
	if err != nil {
		return Row{}, fmt.Errorf("parsing start offset %q: %w", fields[1], err)
	}
	end, err := strconv.Atoi(fields[2])
	if err != nil {
		return Row{}, fmt.Errorf("parsing end offset %q: %w", fields[2], err)
	}

	row := Row{
		Word:   fields[0],
		Engine: types.Span(start, end),
		Tags:   make(map[types.Layer]string, len(p.columns)+1),
	}

	cols := fields[3:]
	if p.psg {
		row.Tags[types.LayerPSG] = cols[len(cols)-1]
		cols = cols[:len(cols)-1]
	}
	for i, l := range p.columns {
		row.Tags[l] = cols[i]
		if l == types.LayerSRL {
			row.Roles = append([]string(nil), cols[i+1:]...)
			break
		}
	}
	return row, nil
}

// Apply attaches one sentence's decoded lines to s.
//
// With caller tokens, values are attached by position to the sentence's
// rendered tokens. Otherwise one token is created per line, its coordinates
// derived from the sentence start and the engine-reported offsets.
func (p Plan) Apply(doc *types.Document, s *types.Sentence, lines []string) error {
	rows := make([]Row, 0, len(lines))
	for _, line := range lines {
		row, err := p.Decode(line)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	if doc.UserTokens {
		tokens := s.RenderedTokens()
		for i, row := range rows {
			if i >= len(tokens) {
				break
			}
			tokens[i].Tags = row.Tags
			tokens[i].Roles = row.Roles
		}
		return nil
	}

	s.Tokens = make([]*types.Token, 0, len(rows))
	for _, row := range rows {
		if !row.Engine.Within(s.Engine.Len()) {
			return fmt.Errorf("token %q offsets %s outside sentence of length %d", row.Word, row.Engine, s.Engine.Len())
		}
		s.Tokens = append(s.Tokens, &types.Token{
			Document: s.DocumentSpan(row.Engine),
			Engine:   row.Engine.Shift(s.Engine.Start),
			Tags:     row.Tags,
			Roles:    row.Roles,
		})
	}
	return nil
}
