// Package engine runs the external tagging engine over documents, spreading
// large documents across several engine processes.
package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/praetorian-inc/sennatag/internal/logging"
	"github.com/praetorian-inc/sennatag/pkg/builder"
	"github.com/praetorian-inc/sennatag/pkg/types"
)

// State is a stage of one Execute call.
type State int

const (
	StateIdle State = iota
	StateSplitting
	StateRunning
	StateMerging
	StateDone
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSplitting:
		return "splitting"
	case StateRunning:
		return "running"
	case StateMerging:
		return "merging"
	case StateDone:
		return "done"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStderr sets the sink for the engine's diagnostic output. Writes from
// concurrent processes are serialized.
func WithStderr(w io.Writer) Option {
	return func(e *Engine) {
		e.stderr = newLockedWriter(w)
	}
}

// WithMetrics records process statistics.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithStateHook is called on every state transition of every Execute call.
// Calls from concurrent Execute calls may overlap.
func WithStateHook(hook func(State)) Option {
	return func(e *Engine) {
		e.hook = hook
	}
}

// Engine tags documents with the configured engine. It is safe for concurrent
// use; each Execute call owns its processes.
type Engine struct {
	config  Config
	stderr  *lockedWriter
	logger  *slog.Logger
	metrics *Metrics
	hook    func(State)

	mu       sync.Mutex
	nextCall int
	inflight map[int]context.CancelFunc
}

// New validates config and creates an Engine.
func New(config Config, opts ...Option) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		config:   config,
		stderr:   newLockedWriter(nil),
		logger:   logging.NewNop(),
		inflight: make(map[int]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the validated configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Build constructs a document using the engine's sentence length limit.
func (e *Engine) Build(text string, sentences, tokens []builder.Boundary) (*types.Document, error) {
	return builder.Build(text, sentences, tokens, e.config.builderOptions())
}

// Execute tags doc in place.
//
// With one process, or a single sentence, the document is run directly.
// Otherwise its sentences are split into contiguous parts, each part is run
// as an independent sub-document on its own process, and results are merged
// back once every part has succeeded. The first failure cancels the other
// processes and nothing is merged. A failed call leaves doc untagged on either
// path.
func (e *Engine) Execute(ctx context.Context, doc *types.Document) error {
	ctx, cancel := context.WithCancel(ctx)
	call := e.track(cancel)
	defer e.untrack(call)
	defer cancel()

	worker := NewWorker(e.config, e.stderr, e.logger, e.metrics)

	if e.config.Processes == 1 || len(doc.Sentences) <= 1 {
		e.transition(StateRunning)
		if err := worker.Run(ctx, doc); err != nil {
			discard(doc)
			return e.fail(ctx, err)
		}
		e.transition(StateDone)
		return nil
	}

	e.transition(StateSplitting)
	parts := builder.Partition(len(doc.Sentences), e.config.Processes)
	subs := make([]*builder.SubDocument, 0, len(parts))
	for _, part := range parts {
		sub, err := builder.Split(doc, part, e.config.builderOptions())
		if err != nil {
			return e.fail(ctx, err)
		}
		subs = append(subs, sub)
	}
	e.logger.Debug("document partitioned", "sentences", len(doc.Sentences), "parts", len(subs))

	e.transition(StateRunning)
	g, gctx := errgroup.WithContext(ctx)
	for _, sub := range subs {
		g.Go(func() error {
			return worker.Run(gctx, sub.Document)
		})
	}
	if err := g.Wait(); err != nil {
		return e.fail(ctx, err)
	}

	e.transition(StateMerging)
	for _, sub := range subs {
		sub.MergeInto(doc)
	}
	e.transition(StateDone)
	return nil
}

// Cancel interrupts every Execute call in flight. It is safe to call any
// number of times.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, cancel := range e.inflight {
		cancel()
	}
}

// discard drops whatever a failed run wrote into doc. Caller tokens are kept
// but lose their tags.
func discard(doc *types.Document) {
	for _, s := range doc.Sentences {
		s.Spans = nil
		if !doc.UserTokens {
			s.Tokens = nil
			continue
		}
		for _, t := range s.Tokens {
			t.Tags = nil
			t.Roles = nil
		}
	}
}

func (e *Engine) fail(ctx context.Context, err error) error {
	var interrupted *types.InterruptedError
	if ctx.Err() != nil || errors.As(err, &interrupted) {
		e.transition(StateCancelled)
	} else {
		e.transition(StateFailed)
	}
	return err
}

func (e *Engine) transition(s State) {
	e.logger.Debug("engine state", "state", s.String())
	if e.hook != nil {
		e.hook(s)
	}
}

func (e *Engine) track(cancel context.CancelFunc) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextCall++
	e.inflight[e.nextCall] = cancel
	return e.nextCall
}

func (e *Engine) untrack(call int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, call)
}
