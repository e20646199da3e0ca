package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/praetorian-inc/sennatag/internal/logging"
	"github.com/praetorian-inc/sennatag/pkg/parser"
	"github.com/praetorian-inc/sennatag/pkg/types"
)

// Worker drives one engine process over one document: it streams the engine
// text in, drains diagnostics, and parses tagged output as it arrives.
type Worker struct {
	config  Config
	plan    parser.Plan
	stderr  io.Writer
	logger  *slog.Logger
	metrics *Metrics
}

// NewWorker creates a worker for a validated configuration. Diagnostics are
// copied to stderr (discarded when nil).
func NewWorker(config Config, stderr io.Writer, logger *slog.Logger, metrics *Metrics) *Worker {
	if stderr == nil {
		stderr = io.Discard
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Worker{
		config:  config,
		plan:    parser.NewPlan(config.Layers),
		stderr:  stderr,
		logger:  logger,
		metrics: metrics,
	}
}

// Run tags doc in place. Cancelling ctx kills the process and yields an
// *types.InterruptedError. Sentences without output are left untagged; only a
// stream fault or an unsuccessful exit fails the run.
func (w *Worker) Run(ctx context.Context, doc *types.Document) error {
	rendered := len(doc.Rendered())
	if rendered == 0 {
		return nil
	}

	pctx, kill := context.WithCancel(ctx)
	defer kill()

	args := w.config.Args(doc.UserTokens)
	cmd := exec.CommandContext(pctx, w.config.Executable, args...)
	cmd.Dir = w.config.Dir()
	if len(w.config.Env) > 0 {
		cmd.Env = append(cmd.Environ(), w.config.Env...)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return w.launchFailed(err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return w.launchFailed(err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return w.launchFailed(err)
	}

	started := time.Now()
	if err := cmd.Start(); err != nil {
		if ctx.Err() != nil {
			return &types.InterruptedError{Err: ctx.Err()}
		}
		return w.launchFailed(err)
	}
	w.metrics.processStarted()
	w.logger.Debug("engine process started", "pid", cmd.Process.Pid, "sentences", rendered, "args", args)

	// The first stream fault wins and kills the process, which unblocks the
	// other two streams.
	var (
		once  sync.Once
		first error
	)
	fail := func(op string, err error) error {
		serr := &types.StreamError{Op: op, Err: err}
		once.Do(func() { first = serr })
		kill()
		return serr
	}

	var g errgroup.Group
	g.Go(func() error {
		_, err := io.WriteString(stdin, doc.EngineText)
		if cerr := stdin.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fail("write", err)
		}
		return nil
	})
	g.Go(func() error {
		if _, err := io.Copy(w.stderr, stderr); err != nil {
			return fail("stderr", err)
		}
		return nil
	})

	var tagged int
	g.Go(func() error {
		n, err := w.plan.Consume(stdout, doc)
		tagged = n
		if err != nil {
			if errors.Is(err, parser.ErrMalformed) {
				return fail("parse", err)
			}
			return fail("read", err)
		}
		return nil
	})

	_ = g.Wait()
	streamErr := first
	waitErr := cmd.Wait()
	elapsed := time.Since(started)

	switch {
	case streamErr == nil && waitErr == nil:
		w.metrics.processDone(OutcomeOK, elapsed, tagged)
		w.logger.Debug("engine process finished", "pid", cmd.Process.Pid, "tagged", tagged, "elapsed", elapsed)
		parser.AnnotateDocument(doc, w.config.Materialize, w.config.Style())
		return nil
	case ctx.Err() != nil:
		w.metrics.processDone(OutcomeInterrupted, elapsed, tagged)
		w.logger.Debug("engine process interrupted", "pid", cmd.Process.Pid)
		return &types.InterruptedError{Err: ctx.Err()}
	case streamErr != nil:
		w.metrics.processDone(OutcomeFailed, elapsed, tagged)
		w.logger.Warn("engine stream failed", "pid", cmd.Process.Pid, "error", streamErr)
		return streamErr
	default:
		w.metrics.processDone(OutcomeFailed, elapsed, tagged)
		serr := &types.StreamError{Op: "wait", Err: waitErr}
		w.logger.Warn("engine exited unsuccessfully", "pid", cmd.Process.Pid, "exit_code", serr.ExitCode(), "error", waitErr)
		return serr
	}
}

func (w *Worker) launchFailed(err error) error {
	w.metrics.launchFailed()
	w.logger.Error("engine failed to start", "path", w.config.Executable, "error", err)
	return &types.LaunchError{Path: w.config.Executable, Err: err}
}
