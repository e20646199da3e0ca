package store

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/praetorian-inc/sennatag/pkg/types"
)

// MemoryStore implements Store using in-memory data structures.
type MemoryStore struct {
	mu          sync.RWMutex
	documents   map[string]*StoredDocument
	order       []string                 // document IDs in insertion order
	annotations map[types.ID]*Annotation // keyed by annotation ID
	byDocument  map[string][]*Annotation // keyed by document ID, insertion order
	relations   map[string][]*Relation   // keyed by document ID
	nextID      types.ID
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		documents:   make(map[string]*StoredDocument),
		annotations: make(map[types.ID]*Annotation),
		byDocument:  make(map[string][]*Annotation),
		relations:   make(map[string][]*Relation),
	}
}

// AddDocument stores text and returns its new document ID.
func (m *MemoryStore) AddDocument(text string, prov types.Provenance) (string, error) {
	if _, _, _, err := provenanceColumns(prov); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	doc := &StoredDocument{
		ID:         newDocumentID(now),
		ContentID:  types.ComputeContentID(text),
		Text:       text,
		Provenance: prov,
		Added:      now,
	}
	m.documents[doc.ID] = doc
	m.order = append(m.order, doc.ID)
	return doc.ID, nil
}

// Document retrieves a document by ID.
func (m *MemoryStore) Document(id string) (*StoredDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	c := *doc
	return &c, nil
}

// DocumentByContent retrieves the first document with the given text hash.
func (m *MemoryStore) DocumentByContent(id types.ContentID) (*StoredDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, docID := range m.order {
		if doc := m.documents[docID]; doc.ContentID == id {
			c := *doc
			return &c, nil
		}
	}
	return nil, fmt.Errorf("content %s: %w", id, ErrNotFound)
}

// Documents lists all documents in insertion order.
func (m *MemoryStore) Documents() ([]*StoredDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*StoredDocument, 0, len(m.order))
	for _, id := range m.order {
		c := *m.documents[id]
		result = append(result, &c)
	}
	return result, nil
}

// AddSpan stores an annotation and returns its ID.
func (m *MemoryStore) AddSpan(docID, set, typ string, span types.OffsetSpan, features map[string]any) (types.ID, error) {
	normalized, err := normalizeFeatures(features)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.documents[docID]
	if !ok {
		return 0, fmt.Errorf("document %s: %w", docID, ErrNotFound)
	}
	if !span.Within(len(doc.Text)) {
		return 0, &types.BoundsError{Kind: typ, Span: span, TextLength: len(doc.Text)}
	}

	m.nextID++
	a := &Annotation{
		ID:         m.nextID,
		DocumentID: docID,
		Set:        set,
		Type:       typ,
		Span:       span,
		Features:   normalized,
	}
	m.annotations[a.ID] = a
	m.byDocument[docID] = append(m.byDocument[docID], a)
	return a.ID, nil
}

// Spans returns the annotations of one type lying inside within.
func (m *MemoryStore) Spans(docID, set, typ string, within types.OffsetSpan) ([]*Annotation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Annotation
	for _, a := range m.byDocument[docID] {
		if a.Set == set && a.Type == typ && within.Contains(a.Span) {
			result = append(result, cloneAnnotation(a))
		}
	}
	sortAnnotations(result)
	return result, nil
}

// Annotations returns every annotation of a document in document order.
func (m *MemoryStore) Annotations(docID string) ([]*Annotation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Annotation, 0, len(m.byDocument[docID]))
	for _, a := range m.byDocument[docID] {
		result = append(result, cloneAnnotation(a))
	}
	sortAnnotations(result)
	return result, nil
}

// Features returns an annotation's features.
func (m *MemoryStore) Features(id types.ID) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.annotations[id]
	if !ok {
		return nil, fmt.Errorf("annotation %d: %w", id, ErrNotFound)
	}
	return mergeFeatures(a.Features, nil), nil
}

// PutFeatures merges features into an annotation's feature map.
func (m *MemoryStore) PutFeatures(id types.ID, features map[string]any) error {
	normalized, err := normalizeFeatures(features)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.annotations[id]
	if !ok {
		return fmt.Errorf("annotation %d: %w", id, ErrNotFound)
	}
	a.Features = mergeFeatures(a.Features, normalized)
	return nil
}

// AddRelation stores a relation between annotations of a document.
func (m *MemoryStore) AddRelation(docID, set, typ string, members []types.ID) (types.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.documents[docID]; !ok {
		return 0, fmt.Errorf("document %s: %w", docID, ErrNotFound)
	}
	for _, id := range members {
		if a, ok := m.annotations[id]; !ok || a.DocumentID != docID {
			return 0, fmt.Errorf("relation member %d: %w", id, ErrNotFound)
		}
	}

	m.nextID++
	r := &Relation{
		ID:         m.nextID,
		DocumentID: docID,
		Set:        set,
		Type:       typ,
		Members:    slices.Clone(members),
	}
	m.relations[docID] = append(m.relations[docID], r)
	return r.ID, nil
}

// Relations returns every relation of a document in insertion order.
func (m *MemoryStore) Relations(docID string) ([]*Relation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Relation, 0, len(m.relations[docID]))
	for _, r := range m.relations[docID] {
		c := *r
		c.Members = slices.Clone(r.Members)
		result = append(result, &c)
	}
	return result, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

func cloneAnnotation(a *Annotation) *Annotation {
	c := *a
	c.Features = mergeFeatures(a.Features, nil)
	return &c
}

func sortAnnotations(as []*Annotation) {
	slices.SortStableFunc(as, func(a, b *Annotation) int {
		if a.Span.Start != b.Span.Start {
			return a.Span.Start - b.Span.Start
		}
		return int(a.ID - b.ID)
	})
}
