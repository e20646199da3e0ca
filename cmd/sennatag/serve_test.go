package main

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/sennatag/internal/fakeengine"
	"github.com/praetorian-inc/sennatag/pkg/serve"
	"github.com/praetorian-inc/sennatag/pkg/types"
)

func TestServeCommand_Integration(t *testing.T) {
	useFakeEngine(t, fakeengine.ModeTag)

	pr, pw := io.Pipe()
	out := &bytes.Buffer{}

	cmd := newServeCmd()
	cmd.SetIn(pr)
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--layers", "POS,NER", "--materialize", "NER"})

	done := make(chan error, 1)
	go func() {
		done <- cmd.Execute()
	}()

	_, err := pw.Write([]byte(`{"type":"tag","payload":{"text":"Ana met John Smith"}}` + "\n"))
	require.NoError(t, err)
	_, err = pw.Write([]byte(`{"type":"close","payload":{}}` + "\n"))
	require.NoError(t, err)
	pw.Close()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(20 * time.Second):
		t.Fatal("command did not exit in time")
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var ready serve.Response
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ready))
	assert.Equal(t, "ready", ready.Type)
	assert.Contains(t, string(ready.Data), `"layers":["POS","NER"]`)

	var resp serve.Response
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &resp))
	require.True(t, resp.Success, resp.Error)

	var doc types.Document
	require.NoError(t, json.Unmarshal(resp.Data, &doc))
	var names []string
	for _, m := range doc.Sentences[0].Spans[types.LayerNER] {
		names = append(names, doc.DocumentText(m.Document))
	}
	assert.Equal(t, []string{"Ana", "John Smith"}, names)
	assert.Empty(t, doc.Sentences[0].Spans[types.LayerSRL])
}

func TestServeCommand_NoExecutable(t *testing.T) {
	cmd := newServeCmd()
	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	assert.ErrorContains(t, err, "engine executable not configured")
}
