package types

import (
	"fmt"
	"slices"
	"strings"
)

// Layer is one of the tagging engine's annotation layers. The numeric value
// is the layer's column priority: output columns appear in ascending order.
type Layer int

const (
	LayerPOS Layer = iota + 1 // part-of-speech
	LayerCHK                  // chunking
	LayerNER                  // named entities
	LayerSRL                  // semantic roles
	LayerPSG                  // constituency parse
)

// AllLayers lists every layer in priority order.
var AllLayers = []Layer{LayerPOS, LayerCHK, LayerNER, LayerSRL, LayerPSG}

var layerNames = map[Layer]string{
	LayerPOS: "POS",
	LayerCHK: "CHK",
	LayerNER: "NER",
	LayerSRL: "SRL",
	LayerPSG: "PSG",
}

// String returns the layer's short name (POS, CHK, NER, SRL, PSG).
func (l Layer) String() string {
	if name, ok := layerNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Layer(%d)", int(l))
}

// Flag returns the engine command-line flag that enables the layer.
func (l Layer) Flag() string {
	return "-" + strings.ToLower(l.String())
}

// Valid reports whether l is a known layer.
func (l Layer) Valid() bool {
	_, ok := layerNames[l]
	return ok
}

// Spanning reports whether the layer has a span form (everything but POS).
func (l Layer) Spanning() bool {
	return l.Valid() && l != LayerPOS
}

// ParseLayer parses a layer name, case-insensitively.
func ParseLayer(s string) (Layer, error) {
	for l, name := range layerNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown layer %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Layer) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("unknown layer %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Layer) UnmarshalText(text []byte) error {
	parsed, err := ParseLayer(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// SortLayers returns the distinct layers of ls in priority order.
func SortLayers(ls []Layer) []Layer {
	out := slices.Clone(ls)
	slices.Sort(out)
	return slices.Compact(out)
}

// ContainsLayer reports whether ls contains l.
func ContainsLayer(ls []Layer, l Layer) bool {
	return slices.Contains(ls, l)
}
