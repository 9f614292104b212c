package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/quenlab/mariavec/internal/encoding"
)

// Document is a stored text with its metadata.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]any
}

// Embedding pairs a document with its vector.
type Embedding struct {
	Document
	Vector []float32
}

// AddEmbeddings inserts documents with precomputed vectors. Documents
// without an id get a generated UUID; documents with an existing id are
// updated in place. Returns the ids in input order.
func (s *Store) AddEmbeddings(ctx context.Context, embeddings []Embedding) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, wrapError("add", ErrStoreClosed)
	}
	if len(embeddings) == 0 {
		return nil, nil
	}

	ids := make([]string, len(embeddings))
	for i, emb := range embeddings {
		id := emb.ID
		if id == "" {
			id = uuid.NewString()
		} else if err := validateID(id); err != nil {
			return nil, wrapError("add", err)
		}
		ids[i] = id
		if len(emb.Vector) != s.config.EmbeddingLength {
			return nil, wrapError("add", fmt.Errorf("%w: got %d, want %d",
				ErrDimensionMismatch, len(emb.Vector), s.config.EmbeddingLength))
		}
		if err := encoding.ValidateVector(emb.Vector); err != nil {
			return nil, wrapError("add", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapError("add", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(
		"INSERT INTO %s (%s, %s, %s, %s, collection_id) "+
			"VALUES (?, ?, ?, ?, ?) "+
			"ON DUPLICATE KEY UPDATE "+
			"%s = VALUES(%s), %s = VALUES(%s), %s = VALUES(%s)",
		s.embTable, s.embID, s.contentCol, s.metaCol, s.embCol,
		s.contentCol, s.contentCol, s.metaCol, s.metaCol, s.embCol, s.embCol)
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return nil, wrapError("add", err)
	}
	defer stmt.Close()

	for i, emb := range embeddings {
		metadataJSON, err := encoding.EncodeMetadata(emb.Metadata)
		if err != nil {
			return nil, wrapError("add", err)
		}
		vector, err := encoding.EncodeVector(emb.Vector)
		if err != nil {
			return nil, wrapError("add", err)
		}
		if _, err := stmt.ExecContext(ctx, ids[i], emb.Content, metadataJSON, vector, s.collectionID); err != nil {
			return nil, wrapError("add", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, wrapError("add", err)
	}
	s.logger.Debug("embeddings added", "count", len(embeddings), "collection", s.config.Collection)
	return ids, nil
}

// AddTexts embeds the given documents through the configured embedder and
// stores them. Returns the ids in input order.
func (s *Store) AddTexts(ctx context.Context, docs []Document) ([]string, error) {
	if s.config.Embedder == nil {
		return nil, wrapError("add_texts", ErrNoEmbedder)
	}
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}
	vectors, err := s.config.Embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, wrapError("add_texts", err)
	}
	if len(vectors) != len(docs) {
		return nil, wrapError("add_texts",
			fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(docs)))
	}
	embeddings := make([]Embedding, len(docs))
	for i, doc := range docs {
		embeddings[i] = Embedding{Document: doc, Vector: vectors[i]}
	}
	return s.AddEmbeddings(ctx, embeddings)
}

// Delete removes documents. With ids it deletes those ids; with a non-nil
// metadata filter it deletes all matching documents in the collection. At
// least one of the two must be given.
func (s *Store) Delete(ctx context.Context, ids []string, metadataFilter any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return wrapError("delete", ErrStoreClosed)
	}
	if len(ids) == 0 && metadataFilter == nil {
		return wrapError("delete", fmt.Errorf("%w: ids or a filter is required", ErrInvalidID))
	}

	var sb strings.Builder
	args := make([]any, 0, len(ids)+1)
	fmt.Fprintf(&sb, "DELETE FROM %s WHERE collection_id = ?", s.embTable)
	args = append(args, s.collectionID)

	if len(ids) > 0 {
		for _, id := range ids {
			if err := validateID(id); err != nil {
				return wrapError("delete", err)
			}
			args = append(args, id)
		}
		fmt.Fprintf(&sb, " AND %s IN (?%s)", s.embID, strings.Repeat(", ?", len(ids)-1))
	}
	if metadataFilter != nil {
		pred, err := s.filterSQL(metadataFilter)
		if err != nil {
			return wrapError("delete", err)
		}
		sb.WriteString(" AND ")
		sb.WriteString(pred)
	}

	result, err := s.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return wrapError("delete", err)
	}
	if n, err := result.RowsAffected(); err == nil {
		s.logger.Debug("documents deleted", "count", n, "collection", s.config.Collection)
	}
	return nil
}

// GetByIDs fetches documents by id. Missing ids are skipped; results come
// back in database order.
func (s *Store) GetByIDs(ctx context.Context, ids []string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, wrapError("get", ErrStoreClosed)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, s.collectionID)
	for _, id := range ids {
		if err := validateID(id); err != nil {
			return nil, wrapError("get", err)
		}
		args = append(args, id)
	}
	query := fmt.Sprintf(
		"SELECT %s, %s, %s FROM %s WHERE collection_id = ? AND %s IN (?%s)",
		s.embID, s.contentCol, s.metaCol, s.embTable,
		s.embID, strings.Repeat(", ?", len(ids)-1))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError("get", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, wrapError("get", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("get", err)
	}
	return docs, nil
}

func scanDocument(rows *sql.Rows) (Document, error) {
	var doc Document
	var content sql.NullString
	var metadataJSON sql.NullString
	if err := rows.Scan(&doc.ID, &content, &metadataJSON); err != nil {
		return Document{}, err
	}
	doc.Content = content.String
	if metadataJSON.Valid {
		metadata, err := encoding.DecodeMetadata([]byte(metadataJSON.String))
		if err != nil {
			return Document{}, err
		}
		doc.Metadata = metadata
	}
	return doc, nil
}
