// Package sennatag tags text with the SENNA natural language tagger.
//
// SENNA is an external program that reads one sentence per line and writes one
// row of tags per token. sennatag turns a text (optionally with caller-supplied
// sentence and token boundaries) into the engine's input, runs one or more
// engine processes, and maps every tag back onto byte offsets of the original
// text: part-of-speech tags per token, plus chunk, named entity, semantic role
// and constituency spans.
//
// # Basic Usage
//
//	tagger, err := sennatag.NewTagger("/opt/senna/senna")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	doc, err := tagger.Tag(ctx, "Ana won the race. John ran.")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, s := range doc.Sentences {
//	    for _, m := range s.Spans[sennatag.LayerNER] {
//	        fmt.Printf("%s %q\n", m.Type, doc.DocumentText(m.Document))
//	    }
//	}
//
// # Caller Tokenization
//
// Supply sentence and token boundaries to keep an existing segmentation:
//
//	doc, err := tagger.TagSpans(ctx, text,
//	    []sennatag.Boundary{{Span: sennatag.Span(0, 12)}},
//	    []sennatag.Boundary{{Span: sennatag.Span(0, 8)}, {Span: sennatag.Span(9, 12)}},
//	)
package sennatag

import (
	"context"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/praetorian-inc/sennatag/pkg/builder"
	"github.com/praetorian-inc/sennatag/pkg/engine"
	"github.com/praetorian-inc/sennatag/pkg/types"
)

// Re-export commonly used types for convenience.
// Users can import just "github.com/praetorian-inc/sennatag" without subpackages.
type (
	// Document is a tagged text with its sentences, tokens and spans.
	Document = types.Document

	// Sentence is one engine line of a document.
	Sentence = types.Sentence

	// Token is the smallest tagged unit.
	Token = types.Token

	// MultiToken is a span over consecutive tokens of a sentence.
	MultiToken = types.MultiToken

	// Layer is one of the engine's annotation layers.
	Layer = types.Layer

	// OffsetSpan is a half-open byte range.
	OffsetSpan = types.OffsetSpan

	// Boundary is a caller-supplied sentence or token span.
	Boundary = builder.Boundary

	// ID is a caller identity carried by sentences, tokens and spans.
	ID = types.ID

	// InterruptedError reports a tagging run stopped by cancellation.
	InterruptedError = types.InterruptedError

	// LaunchError reports an engine process that could not be started.
	LaunchError = types.LaunchError

	// StreamError reports a failure talking to an engine process.
	StreamError = types.StreamError
)

// Re-export layer constants.
const (
	LayerPOS = types.LayerPOS
	LayerCHK = types.LayerCHK
	LayerNER = types.LayerNER
	LayerSRL = types.LayerSRL
	LayerPSG = types.LayerPSG
)

// Span returns the half-open span [start, end).
func Span(start, end int) OffsetSpan {
	return types.Span(start, end)
}

// Tagger runs the SENNA engine. It is safe for concurrent use.
type Tagger struct {
	engine *engine.Engine
}

// taggerConfig holds tagger configuration.
type taggerConfig struct {
	engine  engine.Config
	options []engine.Option
}

// Option configures a Tagger.
type Option func(*taggerConfig)

// WithProcesses spreads each document over n engine processes.
// Default is 1.
func WithProcesses(n int) Option {
	return func(c *taggerConfig) {
		c.engine.Processes = n
	}
}

// WithLayers selects the layers the engine executes.
// Default is every layer.
func WithLayers(layers ...Layer) Option {
	return func(c *taggerConfig) {
		c.engine.Layers = layers
	}
}

// WithMaterialize selects the executed layers that are turned into spans.
// Default is CHK, NER, SRL and PSG.
func WithMaterialize(layers ...Layer) Option {
	return func(c *taggerConfig) {
		c.engine.Materialize = layers
	}
}

// WithIOBTags asks the engine for IOB instead of IOBES tags.
func WithIOBTags() Option {
	return func(c *taggerConfig) {
		c.engine.IOBTags = true
	}
}

// WithBracketTags asks the engine for bracket tags.
func WithBracketTags() Option {
	return func(c *taggerConfig) {
		c.engine.BracketTags = true
	}
}

// WithVerbsFile names a file of verbs for semantic role labeling instead of
// selecting them from part-of-speech tags.
func WithVerbsFile(path string) Option {
	return func(c *taggerConfig) {
		c.engine.VerbsFile = path
		c.engine.PosVerbs = false
	}
}

// WithMaxSentenceLength bounds the engine line length, in bytes.
func WithMaxSentenceLength(n int) Option {
	return func(c *taggerConfig) {
		c.engine.MaxSentenceLength = n
	}
}

// WithEnv adds "KEY=value" entries to the engine processes' environment.
func WithEnv(env ...string) Option {
	return func(c *taggerConfig) {
		c.engine.Env = append(c.engine.Env, env...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *taggerConfig) {
		c.options = append(c.options, engine.WithLogger(logger))
	}
}

// WithStderr receives the engine's diagnostic output.
func WithStderr(w io.Writer) Option {
	return func(c *taggerConfig) {
		c.options = append(c.options, engine.WithStderr(w))
	}
}

// WithMetrics registers engine process metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *taggerConfig) {
		c.options = append(c.options, engine.WithMetrics(engine.NewMetrics(reg)))
	}
}

// NewTagger creates a Tagger running the engine at executable.
//
// Example:
//
//	// Two processes per document, entities only
//	tagger, err := sennatag.NewTagger(path,
//	    sennatag.WithProcesses(2),
//	    sennatag.WithLayers(sennatag.LayerPOS, sennatag.LayerNER),
//	    sennatag.WithMaterialize(sennatag.LayerNER),
//	)
func NewTagger(executable string, opts ...Option) (*Tagger, error) {
	config := &taggerConfig{engine: engine.DefaultConfig()}
	config.engine.Executable = executable

	for _, opt := range opts {
		opt(config)
	}

	e, err := engine.New(config.engine, config.options...)
	if err != nil {
		return nil, err
	}
	return &Tagger{engine: e}, nil
}

// Tag tags text, letting the engine split it into tokens. The whole text is
// one sentence; use TagSpans to supply sentence boundaries.
func (t *Tagger) Tag(ctx context.Context, text string) (*Document, error) {
	return t.TagSpans(ctx, text, nil, nil)
}

// TagSpans tags text using caller-supplied sentence and token boundaries.
// Without sentences the whole text is one sentence; without tokens the engine
// tokenizes. Boundary IDs are carried onto the matching sentences and tokens.
func (t *Tagger) TagSpans(ctx context.Context, text string, sentences, tokens []Boundary) (*Document, error) {
	doc, err := t.engine.Build(text, sentences, tokens)
	if err != nil {
		return nil, err
	}
	if err := t.engine.Execute(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Cancel interrupts every tagging call in flight; they return an
// *InterruptedError.
func (t *Tagger) Cancel() {
	t.engine.Cancel()
}

// Layers returns the layers the engine executes.
func (t *Tagger) Layers() []Layer {
	return append([]Layer(nil), t.engine.Config().Layers...)
}
