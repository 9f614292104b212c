package store

import "context"

// Embedder turns text into embedding vectors. Implementations typically
// call an external model endpoint; the store only requires that documents
// and queries embed into the configured vector length.
type Embedder interface {
	// EmbedDocuments embeds a batch of document texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
