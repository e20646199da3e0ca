package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/sennatag/pkg/engine"
	"github.com/praetorian-inc/sennatag/pkg/types"
)

// engineFlags mirror engine.Config. Only flags set on the command line
// override the configuration file.
type engineFlags struct {
	executable        string
	processes         int
	iobTags           bool
	bracketTags       bool
	posVerbs          bool
	verbsFile         string
	engineVerbose     bool
	layers            []string
	materialize       []string
	maxSentenceLength int
}

func (f *engineFlags) bind(cmd *cobra.Command) {
	defaults := engine.DefaultConfig()
	fs := cmd.Flags()
	fs.StringVar(&f.executable, "engine", "", "Path to the SENNA executable")
	fs.IntVarP(&f.processes, "processes", "p", defaults.Processes, "Engine processes per document")
	fs.BoolVar(&f.iobTags, "iob-tags", false, "Ask the engine for IOB instead of IOBES tags")
	fs.BoolVar(&f.bracketTags, "bracket-tags", false, "Ask the engine for bracket tags")
	fs.BoolVar(&f.posVerbs, "pos-verbs", defaults.PosVerbs, "Let part-of-speech tags select the verbs for semantic roles")
	fs.StringVar(&f.verbsFile, "verbs-file", "", "File of verbs for semantic roles (one per line)")
	fs.BoolVar(&f.engineVerbose, "engine-verbose", false, "Run the engine in verbose mode")
	fs.StringSliceVar(&f.layers, "layers", layerNames(defaults.Layers), "Layers to execute (POS, CHK, NER, SRL, PSG)")
	fs.StringSliceVar(&f.materialize, "materialize", layerNames(defaults.Materialize), "Layers to turn into spans")
	fs.IntVar(&f.maxSentenceLength, "max-sentence-length", defaults.MaxSentenceLength, "Longest engine line accepted (bytes)")
}

// apply overrides c with the flags set on cmd.
func (f *engineFlags) apply(cmd *cobra.Command, c *engine.Config) error {
	fs := cmd.Flags()
	if fs.Changed("engine") {
		c.Executable = f.executable
	}
	if fs.Changed("processes") {
		c.Processes = f.processes
	}
	if fs.Changed("iob-tags") {
		c.IOBTags = f.iobTags
	}
	if fs.Changed("bracket-tags") {
		c.BracketTags = f.bracketTags
	}
	if fs.Changed("pos-verbs") {
		c.PosVerbs = f.posVerbs
	}
	if fs.Changed("verbs-file") {
		c.VerbsFile = f.verbsFile
	}
	if fs.Changed("engine-verbose") {
		c.Verbose = f.engineVerbose
	}
	if fs.Changed("max-sentence-length") {
		c.MaxSentenceLength = f.maxSentenceLength
	}
	if fs.Changed("layers") {
		layers, err := parseLayers(f.layers)
		if err != nil {
			return fmt.Errorf("--layers: %w", err)
		}
		c.Layers = layers
	}
	if fs.Changed("materialize") {
		layers, err := parseLayers(f.materialize)
		if err != nil {
			return fmt.Errorf("--materialize: %w", err)
		}
		c.Materialize = layers
	}
	return nil
}

func parseLayers(names []string) ([]types.Layer, error) {
	layers := make([]types.Layer, 0, len(names))
	for _, name := range names {
		l, err := types.ParseLayer(name)
		if err != nil {
			return nil, err
		}
		layers = append(layers, l)
	}
	return layers, nil
}

func layerNames(layers []types.Layer) []string {
	names := make([]string, len(layers))
	for i, l := range layers {
		names[i] = l.String()
	}
	return names
}
