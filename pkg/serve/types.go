package serve

import (
	"encoding/json"

	"github.com/praetorian-inc/sennatag/pkg/builder"
	"github.com/praetorian-inc/sennatag/pkg/types"
)

// Request represents an incoming NDJSON request
type Request struct {
	Type    string          `json:"type"` // "tag" | "tag_batch" | "close"
	Payload json.RawMessage `json:"payload"`
}

// TagPayload is the payload for "tag" requests. Without sentences the whole
// text is one sentence; without tokens the engine tokenizes.
type TagPayload struct {
	Text      string             `json:"text"`
	Sentences []builder.Boundary `json:"sentences,omitempty"`
	Tokens    []builder.Boundary `json:"tokens,omitempty"`
}

// TagBatchPayload is the payload for "tag_batch" requests
type TagBatchPayload struct {
	Items []TagPayload `json:"items"`
}

// BatchItem is the outcome of one item of a batch.
type BatchItem struct {
	Document *types.Document `json:"document,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Response represents an outgoing NDJSON response
type Response struct {
	Success bool            `json:"success"`
	Type    string          `json:"type"` // "ready" | "tag" | "tag_batch" | "decode" | "unknown"
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ReadyData is the data field for "ready" responses
type ReadyData struct {
	Version string        `json:"version"`
	Layers  []types.Layer `json:"layers,omitempty"`
}
