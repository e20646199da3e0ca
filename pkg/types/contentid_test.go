package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeContentID(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"empty text", "", "da39a3ee5e6b4b0d3255bfef95601890afd80709"},
		{"hello world", "hello world", "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := ComputeContentID(tt.text)
			assert.Equal(t, tt.expected, id.Hex())
			assert.Equal(t, tt.expected, id.String())
		})
	}
}

func TestParseContentID(t *testing.T) {
	id := ComputeContentID("Ana won.")

	parsed, err := ParseContentID(id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseContentID("abc")
	assert.Error(t, err)

	_, err = ParseContentID("zz39a3ee5e6b4b0d3255bfef95601890afd80709")
	assert.Error(t, err)
}

func TestContentID_JSONAndSQL(t *testing.T) {
	id := ComputeContentID("text")

	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"`+id.Hex()+`"`, string(data))

	var decoded ContentID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded)

	value, err := id.Value()
	require.NoError(t, err)

	var scanned ContentID
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, id, scanned)
	require.NoError(t, scanned.Scan([]byte(id.Hex())))
	assert.Equal(t, id, scanned)
	assert.Error(t, scanned.Scan(42))
}
