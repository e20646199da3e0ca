// Package annotate tags documents held in a store: it reads sentence and
// token annotations, runs them through the tagging engine and writes the
// results back as token features, spans and relations.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/praetorian-inc/sennatag/internal/logging"
	"github.com/praetorian-inc/sennatag/pkg/builder"
	"github.com/praetorian-inc/sennatag/pkg/store"
	"github.com/praetorian-inc/sennatag/pkg/types"
)

// DefaultMaxInputLength bounds the text of one processing unit.
const DefaultMaxInputLength = math.MaxInt32 / 2

// ErrInputTooLong is returned for a document, or a single sentence, longer than
// the maximum input length. Nothing is tagged in that case.
var ErrInputTooLong = errors.New("exceeds the maximum input length")

// Annotation type and feature names written to the store.
const (
	TypeSentence = "Sentence"
	TypeToken    = "Token"

	FeatureValue    = "value"
	FeatureType     = "type"
	FeatureVerb     = "verb"
	FeatureParent   = "parent"
	FeatureChildren = "children"

	// argumentJoin separates repeated arguments of one type on a verb span.
	argumentJoin = " [...] "
)

// Tagger builds and tags documents. *engine.Engine implements it.
type Tagger interface {
	Build(text string, sentences, tokens []builder.Boundary) (*types.Document, error)
	Execute(ctx context.Context, doc *types.Document) error
}

// Options selects the annotations read and written.
type Options struct {
	InputSet  string `yaml:"input_set" json:"input_set"`
	OutputSet string `yaml:"output_set" json:"output_set"`
	// SentenceType names the input sentence annotations. Empty treats the
	// whole document as one sentence.
	SentenceType string `yaml:"sentence_type" json:"sentence_type"`
	// TokenType names the input token annotations. Empty lets the engine
	// tokenize.
	TokenType string `yaml:"token_type" json:"token_type"`
	// MaxInputLength bounds the text handed to the engine at once; sentences
	// are grouped into units no longer than it. A longer document or sentence
	// fails with ErrInputTooLong. Zero selects DefaultMaxInputLength.
	MaxInputLength int `yaml:"max_input_length" json:"max_input_length"`
}

// DefaultOptions reads "Sentence" annotations from and writes to the default
// set.
func DefaultOptions() Options {
	return Options{SentenceType: TypeSentence, MaxInputLength: DefaultMaxInputLength}
}

func (o Options) maxInputLength() int {
	if o.MaxInputLength <= 0 {
		return DefaultMaxInputLength
	}
	return o.MaxInputLength
}

// Summary counts what one or more Annotate calls did.
type Summary struct {
	Documents int `json:"documents"`
	Units     int `json:"units"`
	Sentences int `json:"sentences"`
	Tokens    int `json:"tokens"`
	Spans     int `json:"spans"`
	Relations int `json:"relations"`
}

// Add accumulates other into s.
func (s *Summary) Add(other Summary) {
	s.Documents += other.Documents
	s.Units += other.Units
	s.Sentences += other.Sentences
	s.Tokens += other.Tokens
	s.Spans += other.Spans
	s.Relations += other.Relations
}

// Annotator tags stored documents.
type Annotator struct {
	store  store.Store
	tagger Tagger
	opts   Options
	logger *slog.Logger
}

// New creates an Annotator. A nil logger discards log output.
func New(s store.Store, tagger Tagger, opts Options, logger *slog.Logger) *Annotator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Annotator{store: s, tagger: tagger, opts: opts, logger: logger}
}

// unit is a run of consecutive sentences tagged together.
type unit struct {
	start, end int // document extent
	sentences  []builder.Boundary
	tokens     []builder.Boundary
}

func (u *unit) empty() bool {
	return len(u.sentences) == 0
}

// Annotate tags one stored document.
//
// Input annotation IDs are carried through only when the input and output
// sets are the same, so that token features land on the existing tokens.
func (a *Annotator) Annotate(ctx context.Context, docID string) (Summary, error) {
	doc, err := a.store.Document(docID)
	if err != nil {
		return Summary{}, err
	}
	whole := types.Span(0, len(doc.Text))
	limit := a.opts.maxInputLength()

	var units []*unit
	if a.opts.SentenceType == "" {
		if len(doc.Text) > limit {
			return Summary{}, fmt.Errorf("document %s: %d bytes %w %d", docID, len(doc.Text), ErrInputTooLong, limit)
		}
		u := &unit{start: 0, end: len(doc.Text)}
		if err := a.addSentence(docID, u, &store.Annotation{Span: whole}); err != nil {
			return Summary{}, err
		}
		units = append(units, u)
	} else {
		sentences, err := a.store.Spans(docID, a.opts.InputSet, a.opts.SentenceType, whole)
		if err != nil {
			return Summary{}, fmt.Errorf("reading sentences: %w", err)
		}
		cur := &unit{}
		for _, s := range sentences {
			if s.Span.Len() > limit {
				return Summary{}, fmt.Errorf("document %s: sentence %s: %d bytes %w %d", docID, s.Span, s.Span.Len(), ErrInputTooLong, limit)
			}
			if !cur.empty() && s.Span.End-cur.start > limit {
				units = append(units, cur)
				cur = &unit{}
			}
			if cur.empty() {
				cur.start, cur.end = s.Span.Start, s.Span.End
			}
			if err := a.addSentence(docID, cur, s); err != nil {
				return Summary{}, err
			}
		}
		if !cur.empty() {
			units = append(units, cur)
		}
	}

	summary := Summary{Documents: 1}
	for _, u := range units {
		if err := a.run(ctx, docID, doc.Text, u, &summary); err != nil {
			return summary, err
		}
	}
	a.logger.Debug("document annotated", "document", docID, "units", summary.Units,
		"sentences", summary.Sentences, "spans", summary.Spans, "relations", summary.Relations)
	return summary, nil
}

func (a *Annotator) reuse() bool {
	return a.opts.InputSet == a.opts.OutputSet
}

// addSentence appends a sentence, and its tokens when a token type is set, to
// u. Offsets are stored document-absolute and re-based in run.
func (a *Annotator) addSentence(docID string, u *unit, s *store.Annotation) error {
	u.end = max(u.end, s.Span.End)
	b := builder.Boundary{Span: s.Span}
	if a.reuse() {
		b.ID = s.ID
	}
	u.sentences = append(u.sentences, b)

	if a.opts.TokenType == "" {
		return nil
	}
	tokens, err := a.store.Spans(docID, a.opts.InputSet, a.opts.TokenType, s.Span)
	if err != nil {
		return fmt.Errorf("reading tokens: %w", err)
	}
	for _, t := range tokens {
		tb := builder.Boundary{Span: t.Span}
		if a.reuse() {
			tb.ID = t.ID
		}
		u.tokens = append(u.tokens, tb)
	}
	return nil
}

func rebase(bounds []builder.Boundary, offset int) []builder.Boundary {
	out := make([]builder.Boundary, len(bounds))
	for i, b := range bounds {
		out[i] = builder.Boundary{Span: b.Span.Shift(-offset), ID: b.ID}
	}
	return out
}

// run tags one unit and writes its results back.
func (a *Annotator) run(ctx context.Context, docID, text string, u *unit, summary *Summary) error {
	doc, err := a.tagger.Build(text[u.start:u.end], rebase(u.sentences, u.start), rebase(u.tokens, u.start))
	if err != nil {
		return err
	}
	if err := a.tagger.Execute(ctx, doc); err != nil {
		return err
	}

	w := writer{store: a.store, docID: docID, set: a.opts.OutputSet, offset: u.start, doc: doc, summary: summary}
	if err := w.write(); err != nil {
		return fmt.Errorf("writing annotations: %w", err)
	}
	summary.Units++
	summary.Sentences += len(u.sentences)
	return nil
}

// writer stores the results of one tagged unit.
type writer struct {
	store   store.Store
	docID   string
	set     string
	offset  int // unit start in the stored document
	doc     *types.Document
	summary *Summary
}

func (w *writer) span(local types.OffsetSpan) types.OffsetSpan {
	return local.Shift(w.offset)
}

func (w *writer) add(typ string, local types.OffsetSpan, features map[string]any) (types.ID, error) {
	id, err := w.store.AddSpan(w.docID, w.set, typ, w.span(local), features)
	if err != nil {
		return 0, err
	}
	w.summary.Spans++
	return id, nil
}

func (w *writer) write() error {
	for _, s := range w.doc.Sentences {
		if err := w.writeTokens(s); err != nil {
			return err
		}
	}
	for _, l := range []types.Layer{types.LayerCHK, types.LayerNER} {
		for _, s := range w.doc.Sentences {
			for _, m := range s.Spans[l] {
				id, err := w.add(l.String(), m.Document, map[string]any{FeatureValue: m.Type})
				if err != nil {
					return err
				}
				m.ExternalID = id
			}
		}
	}
	for _, s := range w.doc.Sentences {
		if err := w.writeRoles(s); err != nil {
			return err
		}
	}
	for _, s := range w.doc.Sentences {
		nodes := s.Spans[types.LayerPSG]
		for i, n := range nodes {
			if n.Parent < 0 {
				if _, err := w.writeTree(nodes, i, 0); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// writeTokens records each token's tags as features, on the existing token
// annotation when the token carries one and on a new Token span otherwise.
func (w *writer) writeTokens(s *types.Sentence) error {
	for _, t := range s.Tokens {
		features := make(map[string]any, len(t.Tags))
		for l, v := range t.Tags {
			features[l.String()] = v
		}

		if t.ExternalID.Valid() {
			if len(features) > 0 {
				if err := w.store.PutFeatures(t.ExternalID, features); err != nil {
					return err
				}
			}
		} else {
			id, err := w.store.AddSpan(w.docID, w.set, TypeToken, w.span(t.Document), features)
			if err != nil {
				return err
			}
			t.ExternalID = id
		}
		w.summary.Tokens++
	}
	return nil
}

// writeRoles stores each verb's arguments, then the verb itself, then the
// relation linking them.
func (w *writer) writeRoles(s *types.Sentence) error {
	for _, verb := range s.Spans[types.LayerSRL] {
		verbText := w.doc.DocumentText(verb.Document)
		verbFeatures := map[string]any{FeatureType: verb.Type, FeatureVerb: verbText}

		for _, arg := range verb.Arguments {
			argText := w.doc.DocumentText(arg.Document)
			if prev, ok := verbFeatures[arg.Type].(string); ok {
				verbFeatures[arg.Type] = strings.Join([]string{prev, argText}, argumentJoin)
			} else {
				verbFeatures[arg.Type] = argText
			}

			id, err := w.add(types.LayerSRL.String(), arg.Document, map[string]any{FeatureType: arg.Type, FeatureVerb: verbText})
			if err != nil {
				return err
			}
			arg.ExternalID = id
		}

		id, err := w.add(types.LayerSRL.String(), verb.Document, verbFeatures)
		if err != nil {
			return err
		}
		verb.ExternalID = id

		if rel, ok := verb.Relation(); ok {
			if _, err := w.store.AddRelation(w.docID, w.set, rel.Type, rel.Members); err != nil {
				return err
			}
			w.summary.Relations++
		}
	}
	return nil
}

// writeTree stores node i and its subtree parent-first. The parent's
// children list is filled in once the children have IDs.
func (w *writer) writeTree(nodes []*types.MultiToken, i int, parent types.ID) (types.ID, error) {
	n := nodes[i]
	var parentFeature any
	if parent.Valid() {
		parentFeature = parent
	}
	id, err := w.add(types.LayerPSG.String(), n.Document, map[string]any{FeatureValue: n.Type, FeatureParent: parentFeature})
	if err != nil {
		return 0, err
	}
	n.ExternalID = id

	children := make([]types.ID, 0, len(n.Children))
	for _, c := range n.Children {
		cid, err := w.writeTree(nodes, c, id)
		if err != nil {
			return 0, err
		}
		children = append(children, cid)
	}
	if err := w.store.PutFeatures(id, map[string]any{FeatureChildren: children}); err != nil {
		return 0, err
	}
	return id, nil
}
