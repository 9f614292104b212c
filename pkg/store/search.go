package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/quenlab/mariavec/internal/encoding"
	"github.com/quenlab/mariavec/internal/mmr"
)

// SearchResult is a document returned from a similarity search together
// with its relevance score. Scores are normalized so that higher is more
// similar, 1 being an exact match under cosine distance.
type SearchResult struct {
	Document
	Score float64
}

// SimilaritySearch embeds the query through the configured embedder and
// returns the k most similar documents. metadataFilter is an optional
// filter in the map or expression form accepted by filter.Compile; nil
// searches the whole collection.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int, metadataFilter any) ([]Document, error) {
	results, err := s.SimilaritySearchWithScore(ctx, query, k, metadataFilter)
	if err != nil {
		return nil, err
	}
	docs := make([]Document, len(results))
	for i, res := range results {
		docs[i] = res.Document
	}
	return docs, nil
}

// SimilaritySearchWithScore is SimilaritySearch with relevance scores.
func (s *Store) SimilaritySearchWithScore(ctx context.Context, query string, k int, metadataFilter any) ([]SearchResult, error) {
	if s.config.Embedder == nil {
		return nil, wrapError("search", ErrNoEmbedder)
	}
	vector, err := s.config.Embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, wrapError("search", err)
	}
	return s.SimilaritySearchByVector(ctx, vector, k, metadataFilter)
}

// SimilaritySearchByVector returns the k documents closest to the given
// embedding, with scores.
func (s *Store) SimilaritySearchByVector(ctx context.Context, vector []float32, k int, metadataFilter any) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, wrapError("search", ErrStoreClosed)
	}
	rows, err := s.queryCollection(ctx, vector, k, metadataFilter, false)
	if err != nil {
		return nil, wrapError("search", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		res, _, err := s.scanResult(rows, false)
		if err != nil {
			return nil, wrapError("search", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("search", err)
	}
	return results, nil
}

// MaxMarginalRelevanceSearch returns k documents selected for relevance to
// the query and diversity among themselves. fetchK candidates are pulled
// from the database and re-ranked; lambda weighs relevance (1) against
// diversity (0).
func (s *Store) MaxMarginalRelevanceSearch(ctx context.Context, query string, k, fetchK int, lambda float64, metadataFilter any) ([]SearchResult, error) {
	if s.config.Embedder == nil {
		return nil, wrapError("mmr_search", ErrNoEmbedder)
	}
	vector, err := s.config.Embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, wrapError("mmr_search", err)
	}
	return s.MaxMarginalRelevanceSearchByVector(ctx, vector, k, fetchK, lambda, metadataFilter)
}

// MaxMarginalRelevanceSearchByVector is MaxMarginalRelevanceSearch for a
// precomputed query embedding.
func (s *Store) MaxMarginalRelevanceSearchByVector(ctx context.Context, vector []float32, k, fetchK int, lambda float64, metadataFilter any) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, wrapError("mmr_search", ErrStoreClosed)
	}
	if fetchK < k {
		fetchK = k
	}
	rows, err := s.queryCollection(ctx, vector, fetchK, metadataFilter, true)
	if err != nil {
		return nil, wrapError("mmr_search", err)
	}
	defer rows.Close()

	var candidates []SearchResult
	var embeddings [][]float32
	for rows.Next() {
		res, emb, err := s.scanResult(rows, true)
		if err != nil {
			return nil, wrapError("mmr_search", err)
		}
		candidates = append(candidates, res)
		embeddings = append(embeddings, emb)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("mmr_search", err)
	}

	selected := mmr.Select(vector, embeddings, lambda, k)
	results := make([]SearchResult, 0, len(selected))
	for _, idx := range selected {
		results = append(results, candidates[idx])
	}
	return results, nil
}

// queryCollection runs the distance-ordered select. The metadata predicate
// is appended to the collection guard so a malformed filter can never widen
// the result set beyond the collection.
func (s *Store) queryCollection(ctx context.Context, vector []float32, limit int, metadataFilter any, withEmbedding bool) (*sql.Rows, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidConfig)
	}
	if len(vector) != s.config.EmbeddingLength {
		return nil, fmt.Errorf("%w: got %d, want %d",
			ErrDimensionMismatch, len(vector), s.config.EmbeddingLength)
	}
	encoded, err := encoding.EncodeVector(vector)
	if err != nil {
		return nil, err
	}
	pred, err := s.filterSQL(metadataFilter)
	if err != nil {
		return nil, err
	}

	// The vector binds twice: once in the score expression and once in the
	// ORDER BY distance expression.
	query := s.buildSelectQuery(pred, withEmbedding)
	return s.db.QueryContext(ctx, query, encoded, s.collectionID, encoded, limit)
}

// buildSelectQuery assembles the similarity select. Score expressions match
// the distance strategy: cosine maps distance d to 1-d, euclidean maps it
// into [0,1] via 1-d/sqrt(2) on normalized vectors.
func (s *Store) buildSelectQuery(predicate string, withEmbedding bool) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(s.embID)
	sb.WriteString(", ")
	sb.WriteString(s.contentCol)
	sb.WriteString(", ")
	sb.WriteString(s.metaCol)
	sb.WriteString(", ")
	sb.WriteString(s.scoreExpression())
	sb.WriteString(" AS score")
	if withEmbedding {
		sb.WriteString(", ")
		sb.WriteString(s.embCol)
	}
	sb.WriteString(" FROM ")
	sb.WriteString(s.embTable)
	sb.WriteString(" WHERE collection_id = ?")
	if predicate != "" {
		sb.WriteString(" AND ")
		sb.WriteString(predicate)
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(s.distanceExpression())
	sb.WriteString(" ASC LIMIT ?")
	return sb.String()
}

func (s *Store) distanceExpression() string {
	switch s.config.Distance {
	case DistanceEuclidean:
		return fmt.Sprintf("vec_distance_euclidean(%s, ?)", s.embCol)
	default:
		return fmt.Sprintf("vec_distance_cosine(%s, ?)", s.embCol)
	}
}

func (s *Store) scoreExpression() string {
	switch s.config.Distance {
	case DistanceEuclidean:
		return fmt.Sprintf("1.0 - vec_distance_euclidean(%s, ?) / SQRT(2)", s.embCol)
	default:
		return fmt.Sprintf("1.0 - vec_distance_cosine(%s, ?)", s.embCol)
	}
}

func (s *Store) scanResult(rows *sql.Rows, withEmbedding bool) (SearchResult, []float32, error) {
	var res SearchResult
	var content sql.NullString
	var metadataJSON sql.NullString
	var raw []byte

	dest := []any{&res.ID, &content, &metadataJSON, &res.Score}
	if withEmbedding {
		dest = append(dest, &raw)
	}
	if err := rows.Scan(dest...); err != nil {
		return SearchResult{}, nil, err
	}
	res.Content = content.String
	if metadataJSON.Valid {
		metadata, err := encoding.DecodeMetadata([]byte(metadataJSON.String))
		if err != nil {
			return SearchResult{}, nil, err
		}
		res.Metadata = metadata
	}
	var embedding []float32
	if withEmbedding {
		var err error
		embedding, err = encoding.DecodeVector(raw)
		if err != nil {
			return SearchResult{}, nil, err
		}
	}
	return res, embedding, nil
}
