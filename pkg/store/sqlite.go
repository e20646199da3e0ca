package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/praetorian-inc/sennatag/pkg/types"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-based store.
// Use ":memory:" for in-memory database (useful for testing).
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection: keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// AddDocument stores text and returns its new document ID.
func (s *SQLiteStore) AddDocument(text string, prov types.Provenance) (string, error) {
	kind, path, member, err := provenanceColumns(prov)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	id := newDocumentID(now)
	_, err = s.db.Exec(`
		INSERT INTO documents (id, content_id, size, text, provenance_type, path, member_path, added)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		types.ComputeContentID(text),
		len(text),
		text,
		kind,
		path,
		member,
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("inserting document: %w", err)
	}
	return id, nil
}

const documentColumns = "id, content_id, text, provenance_type, path, member_path, added"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*StoredDocument, error) {
	var doc StoredDocument
	var kind, path, member, added string
	if err := row.Scan(&doc.ID, &doc.ContentID, &doc.Text, &kind, &path, &member, &added); err != nil {
		return nil, err
	}
	doc.Provenance = provenanceFromColumns(kind, path, member)

	t, err := time.Parse(time.RFC3339Nano, added)
	if err != nil {
		return nil, fmt.Errorf("parsing added time: %w", err)
	}
	doc.Added = t
	return &doc, nil
}

// Document retrieves a document by ID.
func (s *SQLiteStore) Document(id string) (*StoredDocument, error) {
	doc, err := scanDocument(s.db.QueryRow("SELECT "+documentColumns+" FROM documents WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying document: %w", err)
	}
	return doc, nil
}

// DocumentByContent retrieves the first document with the given text hash.
func (s *SQLiteStore) DocumentByContent(id types.ContentID) (*StoredDocument, error) {
	doc, err := scanDocument(s.db.QueryRow(
		"SELECT "+documentColumns+" FROM documents WHERE content_id = ? ORDER BY id LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("content %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying document: %w", err)
	}
	return doc, nil
}

// Documents lists all documents in insertion order.
func (s *SQLiteStore) Documents() ([]*StoredDocument, error) {
	rows, err := s.db.Query("SELECT " + documentColumns + " FROM documents ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []*StoredDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// AddSpan stores an annotation and returns its ID.
func (s *SQLiteStore) AddSpan(docID, set, typ string, span types.OffsetSpan, features map[string]any) (types.ID, error) {
	featuresJSON, err := encodeFeatures(features)
	if err != nil {
		return 0, err
	}

	var size int
	err = s.db.QueryRow("SELECT size FROM documents WHERE id = ?", docID).Scan(&size)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("document %s: %w", docID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("querying document: %w", err)
	}
	if !span.Within(size) {
		return 0, &types.BoundsError{Kind: typ, Span: span, TextLength: size}
	}

	res, err := s.db.Exec(`
		INSERT INTO annotations (document_id, set_name, type, offset_start, offset_end, features_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`, docID, set, typ, span.Start, span.End, featuresJSON)
	if err != nil {
		return 0, fmt.Errorf("inserting annotation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading annotation id: %w", err)
	}
	return types.ID(id), nil
}

const annotationColumns = "id, document_id, set_name, type, offset_start, offset_end, features_json"

func (s *SQLiteStore) queryAnnotations(query string, args ...any) ([]*Annotation, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying annotations: %w", err)
	}
	defer rows.Close()

	var result []*Annotation
	for rows.Next() {
		var a Annotation
		var featuresJSON string
		if err := rows.Scan(&a.ID, &a.DocumentID, &a.Set, &a.Type, &a.Span.Start, &a.Span.End, &featuresJSON); err != nil {
			return nil, fmt.Errorf("scanning annotation: %w", err)
		}
		if a.Features, err = decodeFeatures(featuresJSON); err != nil {
			return nil, err
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating annotations: %w", err)
	}
	return result, nil
}

// Spans returns the annotations of one type lying inside within.
func (s *SQLiteStore) Spans(docID, set, typ string, within types.OffsetSpan) ([]*Annotation, error) {
	return s.queryAnnotations(`
		SELECT `+annotationColumns+`
		FROM annotations
		WHERE document_id = ? AND set_name = ? AND type = ? AND offset_start >= ? AND offset_end <= ?
		ORDER BY offset_start, id
	`, docID, set, typ, within.Start, within.End)
}

// Annotations returns every annotation of a document in document order.
func (s *SQLiteStore) Annotations(docID string) ([]*Annotation, error) {
	return s.queryAnnotations(`
		SELECT `+annotationColumns+`
		FROM annotations
		WHERE document_id = ?
		ORDER BY offset_start, id
	`, docID)
}

// Features returns an annotation's features.
func (s *SQLiteStore) Features(id types.ID) (map[string]any, error) {
	var featuresJSON string
	err := s.db.QueryRow("SELECT features_json FROM annotations WHERE id = ?", id).Scan(&featuresJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("annotation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying features: %w", err)
	}
	return decodeFeatures(featuresJSON)
}

// PutFeatures merges features into an annotation's feature map.
func (s *SQLiteStore) PutFeatures(id types.ID, features map[string]any) error {
	update, err := normalizeFeatures(features)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var featuresJSON string
	err = tx.QueryRow("SELECT features_json FROM annotations WHERE id = ?", id).Scan(&featuresJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("annotation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("querying features: %w", err)
	}
	current, err := decodeFeatures(featuresJSON)
	if err != nil {
		return err
	}

	merged, err := encodeFeatures(mergeFeatures(current, update))
	if err != nil {
		return err
	}
	if _, err := tx.Exec("UPDATE annotations SET features_json = ? WHERE id = ?", merged, id); err != nil {
		return fmt.Errorf("updating features: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// AddRelation stores a relation between annotations of a document.
func (s *SQLiteStore) AddRelation(docID, set, typ string, members []types.ID) (types.ID, error) {
	var exists int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM documents WHERE id = ?", docID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("querying document: %w", err)
	}
	if exists == 0 {
		return 0, fmt.Errorf("document %s: %w", docID, ErrNotFound)
	}
	for _, id := range members {
		var n int
		err := s.db.QueryRow("SELECT COUNT(*) FROM annotations WHERE id = ? AND document_id = ?", id, docID).Scan(&n)
		if err != nil {
			return 0, fmt.Errorf("querying relation member: %w", err)
		}
		if n == 0 {
			return 0, fmt.Errorf("relation member %d: %w", id, ErrNotFound)
		}
	}

	membersJSON, err := json.Marshal(members)
	if err != nil {
		return 0, fmt.Errorf("marshaling members: %w", err)
	}
	res, err := s.db.Exec(`
		INSERT INTO relations (document_id, set_name, type, members_json)
		VALUES (?, ?, ?, ?)
	`, docID, set, typ, string(membersJSON))
	if err != nil {
		return 0, fmt.Errorf("inserting relation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading relation id: %w", err)
	}
	return types.ID(id), nil
}

// Relations returns every relation of a document in insertion order.
func (s *SQLiteStore) Relations(docID string) ([]*Relation, error) {
	rows, err := s.db.Query(`
		SELECT id, document_id, set_name, type, members_json
		FROM relations
		WHERE document_id = ?
		ORDER BY id
	`, docID)
	if err != nil {
		return nil, fmt.Errorf("querying relations: %w", err)
	}
	defer rows.Close()

	var result []*Relation
	for rows.Next() {
		var r Relation
		var membersJSON string
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.Set, &r.Type, &membersJSON); err != nil {
			return nil, fmt.Errorf("scanning relation: %w", err)
		}
		if err := json.Unmarshal([]byte(membersJSON), &r.Members); err != nil {
			return nil, fmt.Errorf("unmarshaling members: %w", err)
		}
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relations: %w", err)
	}
	return result, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
