package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/praetorian-inc/sennatag/pkg/types"
)

// newDocumentID returns a time-ordered document identity.
func newDocumentID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}

// encodeFeatures serializes a feature map. A nil map encodes as "{}".
func encodeFeatures(features map[string]any) (string, error) {
	if features == nil {
		return "{}", nil
	}
	data, err := json.Marshal(features)
	if err != nil {
		return "", fmt.Errorf("marshaling features: %w", err)
	}
	return string(data), nil
}

// decodeFeatures parses a serialized feature map, keeping numbers as
// json.Number.
func decodeFeatures(data string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	features := make(map[string]any)
	if err := dec.Decode(&features); err != nil {
		return nil, fmt.Errorf("unmarshaling features: %w", err)
	}
	return features, nil
}

// normalizeFeatures gives a feature map the shape it has after a database
// round trip.
func normalizeFeatures(features map[string]any) (map[string]any, error) {
	data, err := encodeFeatures(features)
	if err != nil {
		return nil, err
	}
	return decodeFeatures(data)
}

// mergeFeatures returns current overlaid with update.
func mergeFeatures(current, update map[string]any) map[string]any {
	out := make(map[string]any, len(current)+len(update))
	maps.Copy(out, current)
	maps.Copy(out, update)
	return out
}

// provenanceColumns flattens a provenance into its stored columns.
func provenanceColumns(prov types.Provenance) (kind, path, member string, err error) {
	switch p := prov.(type) {
	case nil:
		return "", "", "", nil
	case types.FileProvenance:
		return p.Kind(), p.FilePath, "", nil
	case types.ExtractedProvenance:
		return p.Kind(), p.FilePath, p.MemberPath, nil
	case types.InlineProvenance:
		return p.Kind(), p.Label, "", nil
	default:
		return "", "", "", fmt.Errorf("unknown provenance type: %T", prov)
	}
}

// provenanceFromColumns is the inverse of provenanceColumns.
func provenanceFromColumns(kind, path, member string) types.Provenance {
	switch kind {
	case "file":
		return types.FileProvenance{FilePath: path}
	case "extracted":
		return types.ExtractedProvenance{FilePath: path, MemberPath: member}
	case "inline":
		return types.InlineProvenance{Label: path}
	default:
		return nil
	}
}
