package serve

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/sennatag/pkg/types"
)

func TestRequest_TagUnmarshal(t *testing.T) {
	input := `{"type":"tag","payload":{"text":"Ana won.","sentences":[{"span":{"start":0,"end":8}}],"tokens":[{"span":{"start":0,"end":3},"id":7}]}}`

	var req Request
	err := json.Unmarshal([]byte(input), &req)
	require.NoError(t, err)

	assert.Equal(t, "tag", req.Type)

	var payload TagPayload
	err = json.Unmarshal(req.Payload, &payload)
	require.NoError(t, err)

	assert.Equal(t, "Ana won.", payload.Text)
	require.Len(t, payload.Sentences, 1)
	assert.Equal(t, types.Span(0, 8), payload.Sentences[0].Span)
	require.Len(t, payload.Tokens, 1)
	assert.Equal(t, types.ID(7), payload.Tokens[0].ID)
}

func TestResponse_Marshal(t *testing.T) {
	resp := Response{
		Success: true,
		Type:    "ready",
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"success":true`)
	assert.Contains(t, string(data), `"type":"ready"`)
	assert.NotContains(t, string(data), `"error"`)
}

func TestReadyData_LayersByName(t *testing.T) {
	data, err := json.Marshal(ReadyData{Version: Version, Layers: []types.Layer{types.LayerPOS, types.LayerSRL}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"1.0.0","layers":["POS","SRL"]}`, string(data))
}
