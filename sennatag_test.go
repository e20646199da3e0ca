package sennatag

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/sennatag/internal/fakeengine"
	"github.com/praetorian-inc/sennatag/pkg/engine"
)

func TestMain(m *testing.M) {
	fakeengine.RunIfRequested()
	os.Exit(m.Run())
}

func newTagger(t *testing.T, mode string, opts ...Option) *Tagger {
	t.Helper()
	exe, err := fakeengine.Executable()
	require.NoError(t, err)

	tagger, err := NewTagger(exe, append([]Option{WithEnv(fakeengine.Env(mode)...)}, opts...)...)
	require.NoError(t, err)
	return tagger
}

func TestNewTagger(t *testing.T) {
	_, err := NewTagger("")
	assert.ErrorIs(t, err, engine.ErrNoExecutable)

	_, err = NewTagger("senna", WithMaterialize(LayerPOS))
	assert.ErrorContains(t, err, "cannot be materialized")

	tagger, err := NewTagger("senna", WithLayers(LayerNER, LayerPOS), WithMaterialize(LayerNER))
	require.NoError(t, err)
	assert.Equal(t, []Layer{LayerPOS, LayerNER}, tagger.Layers())
}

func TestTag(t *testing.T) {
	tagger := newTagger(t, fakeengine.ModeTag)

	doc, err := tagger.Tag(context.Background(), "Ana met John Smith.")
	require.NoError(t, err)

	require.Len(t, doc.Sentences, 1)
	s := doc.Sentences[0]
	require.Len(t, s.Tokens, 5)
	assert.Equal(t, "NNP", s.Tokens[0].Tag(LayerPOS))
	assert.Equal(t, "VBD", s.Tokens[1].Tag(LayerPOS))

	var names []string
	for _, m := range s.Spans[LayerNER] {
		names = append(names, doc.DocumentText(m.Document))
	}
	assert.Equal(t, []string{"Ana", "John Smith"}, names)
	require.Len(t, s.Spans[LayerSRL], 1)
	assert.Equal(t, "met", doc.DocumentText(s.Spans[LayerSRL][0].Document))
}

func TestTagSpans_Processes(t *testing.T) {
	text := "Ana won.\nJohn ran.\nBo lost."
	sentences := []Boundary{{Span: Span(0, 8), ID: 1}, {Span: Span(9, 18), ID: 2}, {Span: Span(19, 27), ID: 3}}

	single, err := newTagger(t, fakeengine.ModeTag).TagSpans(context.Background(), text, sentences, nil)
	require.NoError(t, err)
	parallel, err := newTagger(t, fakeengine.ModeTag, WithProcesses(3)).TagSpans(context.Background(), text, sentences, nil)
	require.NoError(t, err)

	require.Len(t, parallel.Sentences, 3)
	assert.Equal(t, ID(3), parallel.Sentences[2].ExternalID)
	for i := range single.Sentences {
		assert.Equal(t, single.Sentences[i].Tokens, parallel.Sentences[i].Tokens)
		assert.Equal(t, single.Sentences[i].Spans, parallel.Sentences[i].Spans)
	}
	assert.Equal(t, "Bo", parallel.DocumentText(parallel.Sentences[2].Tokens[0].Document))
}

func TestTagSpans_UserTokens(t *testing.T) {
	tagger := newTagger(t, fakeengine.ModeTag, WithIOBTags())

	doc, err := tagger.TagSpans(context.Background(), "New York won",
		nil,
		[]Boundary{{Span: Span(0, 3), ID: 7}, {Span: Span(4, 8), ID: 8}, {Span: Span(9, 12), ID: 9}},
	)
	require.NoError(t, err)

	s := doc.Sentences[0]
	require.Len(t, s.Tokens, 3)
	assert.Equal(t, ID(8), s.Tokens[1].ExternalID)
	assert.Equal(t, "I-PER", s.Tokens[1].Tag(LayerNER))
	require.Len(t, s.Spans[LayerNER], 1)
	assert.Equal(t, "New York", doc.DocumentText(s.Spans[LayerNER][0].Document))
}

func TestTag_EngineFailure(t *testing.T) {
	tagger := newTagger(t, fakeengine.ModeCrash)

	_, err := tagger.TagSpans(context.Background(), "Ana won.\nJohn ran.",
		[]Boundary{{Span: Span(0, 8)}, {Span: Span(9, 18)}}, nil)
	var serr *StreamError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, 3, serr.ExitCode())
}

func TestCancel(t *testing.T) {
	tagger := newTagger(t, fakeengine.ModeHang)

	done := make(chan error, 1)
	go func() {
		_, err := tagger.Tag(context.Background(), "Ana won.")
		done <- err
	}()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(10 * time.Second)
	for {
		select {
		case err := <-done:
			var interrupted *InterruptedError
			assert.True(t, errors.As(err, &interrupted), "expected InterruptedError, got %v", err)
			return
		case <-ticker.C:
			tagger.Cancel()
		case <-deadline:
			t.Fatal("tagging was not cancelled")
		}
	}
}

func TestWithMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	tagger := newTagger(t, fakeengine.ModeTag, WithMetrics(reg))

	_, err := tagger.Tag(context.Background(), "Ana won.")
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "sennatag_engine_processes_total")
}
