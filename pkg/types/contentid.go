package types

import (
	"crypto/sha1"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ContentID is a SHA-1 hash of a document's text (20 bytes).
type ContentID [20]byte

// ComputeContentID hashes document text.
func ComputeContentID(text string) ContentID {
	return ContentID(sha1.Sum([]byte(text)))
}

// Hex returns 40-character hex string.
func (id ContentID) Hex() string {
	return hex.EncodeToString(id[:])
}

// String implements Stringer (returns Hex()).
func (id ContentID) String() string {
	return id.Hex()
}

// ParseContentID parses 40-char hex string to ContentID.
func ParseContentID(hexStr string) (ContentID, error) {
	if len(hexStr) != 40 {
		return ContentID{}, fmt.Errorf("invalid content ID length: expected 40, got %d", len(hexStr))
	}

	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return ContentID{}, fmt.Errorf("invalid hex string: %w", err)
	}

	var id ContentID
	copy(id[:], decoded)
	return id, nil
}

// MarshalJSON implements json.Marshaler.
func (id ContentID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Hex())
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *ContentID) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}

	parsed, err := ParseContentID(hexStr)
	if err != nil {
		return err
	}

	*id = parsed
	return nil
}

// Value implements driver.Valuer for SQL serialization.
func (id ContentID) Value() (driver.Value, error) {
	return id.Hex(), nil
}

// Scan implements sql.Scanner for SQL deserialization.
func (id *ContentID) Scan(value interface{}) error {
	var hexStr string
	switch v := value.(type) {
	case string:
		hexStr = v
	case []byte:
		hexStr = string(v)
	default:
		return fmt.Errorf("cannot scan type %T into ContentID", value)
	}

	parsed, err := ParseContentID(hexStr)
	if err != nil {
		return err
	}

	*id = parsed
	return nil
}
