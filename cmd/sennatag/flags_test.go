package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/sennatag/pkg/engine"
	"github.com/praetorian-inc/sennatag/pkg/types"
)

func TestEngineFlags_OnlyChangedFlagsOverride(t *testing.T) {
	var f engineFlags
	cmd := &cobra.Command{}
	f.bind(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--engine", "/opt/senna/senna", "-p", "3", "--layers", "pos,ner", "--materialize", "NER"}))

	config := engine.DefaultConfig()
	config.IOBTags = true
	require.NoError(t, f.apply(cmd, &config))

	assert.Equal(t, "/opt/senna/senna", config.Executable)
	assert.Equal(t, 3, config.Processes)
	assert.True(t, config.IOBTags, "unset flags keep the configured value")
	assert.Equal(t, []types.Layer{types.LayerPOS, types.LayerNER}, config.Layers)
	assert.Equal(t, []types.Layer{types.LayerNER}, config.Materialize)
}

func TestEngineFlags_UnknownLayer(t *testing.T) {
	var f engineFlags
	cmd := &cobra.Command{}
	f.bind(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--layers", "pos,xyz"}))

	config := engine.DefaultConfig()
	err := f.apply(cmd, &config)
	assert.ErrorContains(t, err, "--layers")
	assert.ErrorContains(t, err, `unknown layer "xyz"`)
}
