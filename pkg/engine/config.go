package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/sennatag/pkg/builder"
	"github.com/praetorian-inc/sennatag/pkg/parser"
	"github.com/praetorian-inc/sennatag/pkg/types"
)

// ErrNoExecutable is returned when no engine executable is configured.
var ErrNoExecutable = errors.New("engine executable not configured")

// Config describes how the tagging engine is invoked.
type Config struct {
	Executable string `yaml:"executable" json:"executable"`
	// Processes is the number of engine processes a document is spread over.
	Processes int `yaml:"processes" json:"processes"`

	Verbose     bool   `yaml:"verbose" json:"verbose"`
	IOBTags     bool   `yaml:"iob_tags" json:"iob_tags"`
	BracketTags bool   `yaml:"bracket_tags" json:"bracket_tags"`
	PosVerbs    bool   `yaml:"pos_verbs" json:"pos_verbs"`
	VerbsFile   string `yaml:"verbs_file" json:"verbs_file"`

	// Layers are executed by the engine; Materialize selects which of them
	// are turned into spans.
	Layers      []types.Layer `yaml:"layers" json:"layers"`
	Materialize []types.Layer `yaml:"materialize" json:"materialize"`

	MaxSentenceLength int      `yaml:"max_sentence_length" json:"max_sentence_length"`
	Env               []string `yaml:"env,omitempty" json:"env,omitempty"`
}

// DefaultConfig runs every layer on one process and materializes every
// spanning layer.
func DefaultConfig() Config {
	return Config{
		Processes:         1,
		PosVerbs:          true,
		Layers:            append([]types.Layer(nil), types.AllLayers...),
		Materialize:       []types.Layer{types.LayerCHK, types.LayerNER, types.LayerSRL, types.LayerPSG},
		MaxSentenceLength: builder.DefaultMaxSentenceLength,
	}
}

// Validate checks the configuration and normalizes defaults in place.
// Relative paths are made absolute because engine processes run inside the
// executable's directory. A bare executable name is left to the PATH lookup.
func (c *Config) Validate() error {
	if c.Executable == "" {
		return ErrNoExecutable
	}
	if strings.ContainsRune(c.Executable, filepath.Separator) || strings.ContainsRune(c.Executable, '/') {
		exe, err := filepath.Abs(c.Executable)
		if err != nil {
			return fmt.Errorf("resolving executable %s: %w", c.Executable, err)
		}
		c.Executable = exe
	}
	if c.VerbsFile != "" {
		verbs, err := filepath.Abs(c.VerbsFile)
		if err != nil {
			return fmt.Errorf("resolving verbs file %s: %w", c.VerbsFile, err)
		}
		c.VerbsFile = verbs
	}
	if c.Processes < 1 {
		c.Processes = 1
	}
	for _, l := range c.Layers {
		if !l.Valid() {
			return fmt.Errorf("unknown layer %d", int(l))
		}
	}
	for _, l := range c.Materialize {
		if !l.Spanning() {
			return fmt.Errorf("layer %s cannot be materialized as spans", l)
		}
		if !types.ContainsLayer(c.Layers, l) {
			return fmt.Errorf("layer %s is materialized but not executed", l)
		}
	}
	c.Layers = types.SortLayers(c.Layers)
	c.Materialize = types.SortLayers(c.Materialize)
	return nil
}

// Style is the span encoding the engine is asked to produce. Brackets are only
// used when requested without IOB tags.
func (c Config) Style() parser.Style {
	if c.BracketTags && !c.IOBTags {
		return parser.StyleBracket
	}
	return parser.StyleIOB
}

// Dir is the working directory of engine processes: the executable's parent.
func (c Config) Dir() string {
	return filepath.Dir(c.Executable)
}

// Args returns the engine's command-line flags in their fixed order.
func (c Config) Args(userTokens bool) []string {
	var args []string
	if c.Verbose {
		args = append(args, "-verbose")
	}
	args = append(args, "-offsettags")
	if c.IOBTags {
		args = append(args, "-iobtags")
	}
	if c.BracketTags {
		args = append(args, "-brackettags")
	}
	if userTokens {
		args = append(args, "-usrtokens")
	}
	if c.PosVerbs {
		args = append(args, "-posvbs")
	}
	if c.VerbsFile != "" {
		args = append(args, "-usrvbs", c.VerbsFile)
	}
	for _, l := range types.SortLayers(c.Layers) {
		args = append(args, l.Flag())
	}
	return args
}

func (c Config) builderOptions() builder.Options {
	return builder.Options{MaxSentenceLength: c.MaxSentenceLength}
}
