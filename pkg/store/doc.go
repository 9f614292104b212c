// Package store implements a vector store on MariaDB 11.7+. Documents are
// rows in an embedding table with a native VECTOR column, a TEXT content
// column and a JSON metadata column, grouped into named collections.
//
// Similarity search orders by vec_distance_cosine or vec_distance_euclidean
// and can be narrowed by metadata filters compiled through pkg/filter:
//
//	s, err := store.New(store.DefaultConfig(dsn))
//	if err != nil { ... }
//	if err := s.Init(ctx); err != nil { ... }
//	defer s.Close()
//
//	results, err := s.SimilaritySearchByVector(ctx, queryVec, 5,
//		map[string]any{"category": "news", "year": map[string]any{"$gte": 2020}})
package store
