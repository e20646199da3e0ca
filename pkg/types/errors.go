package types

import (
	"errors"
	"fmt"
	"os/exec"
	"unicode/utf8"
)

// BoundsError reports a caller-supplied span that does not fit the document.
type BoundsError struct {
	Kind       string // "sentence" or "token"
	Span       OffsetSpan
	TextLength int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%s span %s out of bounds for text of length %d", e.Kind, e.Span, e.TextLength)
}

// UnassignableTokenError reports a token that lies inside no sentence.
type UnassignableTokenError struct {
	Span OffsetSpan
}

func (e *UnassignableTokenError) Error() string {
	return fmt.Sprintf("token %s is not contained in any sentence", e.Span)
}

// SentenceTooLongError reports a sentence whose engine text exceeds the
// engine's line limit.
type SentenceTooLongError struct {
	Sentence OffsetSpan // document span of the offending sentence
	Text     string     // rendered engine text of the sentence
	Length   int
	Max      int
}

// excerptLength bounds how much of the offending text an error message quotes.
const excerptLength = 40

func (e *SentenceTooLongError) Error() string {
	return fmt.Sprintf("sentence %s renders to %d bytes, limit is %d: %q",
		e.Sentence, e.Length, e.Max, excerpt(e.Text, excerptLength))
}

// excerpt shortens s to at most n bytes without splitting a UTF-8 sequence.
func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// LaunchError reports that the engine process could not be started.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launching %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// StreamError reports an I/O fault on one of the engine's streams, a
// malformed output line, or an unsuccessful exit. Op is one of "write",
// "stderr", "read", "parse" or "wait".
type StreamError struct {
	Op  string
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("engine %s: %v", e.Op, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// ExitCode returns the engine's exit status, or -1 when the error is not an
// exit failure.
func (e *StreamError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// InterruptedError reports that a run was cancelled before it completed.
type InterruptedError struct {
	Err error
}

func (e *InterruptedError) Error() string {
	if e.Err == nil {
		return "engine run interrupted"
	}
	return fmt.Sprintf("engine run interrupted: %v", e.Err)
}

func (e *InterruptedError) Unwrap() error { return e.Err }
