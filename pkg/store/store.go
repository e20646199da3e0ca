package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/praetorian-inc/sennatag/pkg/types"
)

// ErrNotFound is returned when a document or annotation does not exist.
var ErrNotFound = errors.New("not found")

// StoredDocument is a document as persisted in a store.
type StoredDocument struct {
	ID         string           `json:"id"`
	ContentID  types.ContentID  `json:"content_id"`
	Text       string           `json:"text"`
	Provenance types.Provenance `json:"-"`
	Added      time.Time        `json:"added"`
}

// Annotation is a typed span of a document's text with a feature map.
// Feature values round-trip through JSON, so numbers read back as
// json.Number and lists as []any.
type Annotation struct {
	ID         types.ID         `json:"id"`
	DocumentID string           `json:"document_id"`
	Set        string           `json:"set"`
	Type       string           `json:"type"`
	Span       types.OffsetSpan `json:"span"`
	Features   map[string]any   `json:"features,omitempty"`
}

// Relation is a typed, ordered group of annotations.
type Relation struct {
	ID         types.ID   `json:"id"`
	DocumentID string     `json:"document_id"`
	Set        string     `json:"set"`
	Type       string     `json:"type"`
	Members    []types.ID `json:"members"`
}

// Store persists documents and the annotations produced for them.
// Annotation sets are named groups; "" is the default set.
type Store interface {
	// AddDocument stores text and returns its new document ID.
	AddDocument(text string, prov types.Provenance) (string, error)

	// Document retrieves a document by ID.
	Document(id string) (*StoredDocument, error)

	// DocumentByContent retrieves the first document with the given text hash.
	DocumentByContent(id types.ContentID) (*StoredDocument, error)

	// Documents lists all documents in insertion order.
	Documents() ([]*StoredDocument, error)

	// AddSpan stores an annotation and returns its ID.
	AddSpan(docID, set, typ string, span types.OffsetSpan, features map[string]any) (types.ID, error)

	// Spans returns the annotations of one type lying inside within,
	// ordered by start offset and then ID.
	Spans(docID, set, typ string, within types.OffsetSpan) ([]*Annotation, error)

	// Annotations returns every annotation of a document in document order.
	Annotations(docID string) ([]*Annotation, error)

	// Features returns an annotation's features.
	Features(id types.ID) (map[string]any, error)

	// PutFeatures merges features into an annotation's feature map.
	PutFeatures(id types.ID, features map[string]any) error

	// AddRelation stores a relation between annotations of a document.
	AddRelation(docID, set, typ string, members []types.ID) (types.ID, error)

	// Relations returns every relation of a document in insertion order.
	Relations(docID string) ([]*Relation, error)

	// Close releases the store.
	Close() error
}

// Config for store initialization.
type Config struct {
	// Path is the database file path.
	// Use ":memory:" for an in-memory store (useful for testing).
	Path string `yaml:"path" json:"path"`
}

// New creates a Store: a MemoryStore for ":memory:", otherwise an SQLite
// database at Path.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if cfg.Path == ":memory:" {
		return NewMemory(), nil
	}
	return NewSQLite(cfg.Path)
}
