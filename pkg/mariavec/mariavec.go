// Package mariavec provides a MariaDB-backed vector store for Go AI
// projects, with metadata filtering and chat history persistence.
package mariavec

import (
	"context"
	"fmt"

	"github.com/quenlab/mariavec/pkg/chat"
	"github.com/quenlab/mariavec/pkg/filter"
	"github.com/quenlab/mariavec/pkg/store"
)

// Config represents database configuration.
type Config struct {
	DSN               string                 // MariaDB data source name
	Collection        string                 // Collection label (default "mariavec")
	Dimensions        int                    // Vector dimensions (default 1536)
	Distance          store.DistanceStrategy // Distance function (default cosine)
	HistoryTable      string                 // Chat history table (default "mariavec_chat")
	PreDeleteExisting bool                   // Drop an existing collection on open
}

// DefaultConfig returns default configuration for the given DSN.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:          dsn,
		Collection:   "mariavec",
		Dimensions:   1536,
		Distance:     store.DistanceCosine,
		HistoryTable: "mariavec_chat",
	}
}

// DB represents a MariaDB vector database instance.
type DB struct {
	store        *store.Store
	historyTable string
	embedder     store.Embedder
	logger       store.Logger
}

// Option is a functional option for configuring the DB.
type Option func(*DB)

// WithEmbedder configures the DB with an embedder for text operations.
// When set, you can use AddTexts, Search and the other text-based methods.
func WithEmbedder(e store.Embedder) Option {
	return func(db *DB) {
		db.embedder = e
	}
}

// WithLogger routes store diagnostics to the given logger.
func WithLogger(l store.Logger) Option {
	return func(db *DB) {
		db.logger = l
	}
}

// Open opens a vector database, creating tables and the collection as
// needed. Additional options can be passed to configure the database, such
// as WithEmbedder.
func Open(ctx context.Context, config Config, opts ...Option) (*DB, error) {
	db := &DB{historyTable: config.HistoryTable}
	for _, opt := range opts {
		opt(db)
	}
	if db.historyTable == "" {
		db.historyTable = "mariavec_chat"
	}

	storeConfig := store.DefaultConfig(config.DSN)
	if config.Collection != "" {
		storeConfig.Collection = config.Collection
	}
	if config.Dimensions > 0 {
		storeConfig.EmbeddingLength = config.Dimensions
	}
	if config.Distance != "" {
		storeConfig.Distance = config.Distance
	}
	storeConfig.PreDeleteCollection = config.PreDeleteExisting
	storeConfig.Embedder = db.embedder
	storeConfig.Logger = db.logger

	s, err := store.New(storeConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	if err := s.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	db.store = s
	return db, nil
}

// Store returns the underlying vector store for operations not covered by
// the facade.
func (db *DB) Store() *store.Store {
	return db.store
}

// Close closes the database.
func (db *DB) Close() error {
	return db.store.Close()
}

// AddTexts embeds and stores documents, returning their ids.
func (db *DB) AddTexts(ctx context.Context, docs []store.Document) ([]string, error) {
	return db.store.AddTexts(ctx, docs)
}

// AddEmbeddings stores documents with precomputed vectors.
func (db *DB) AddEmbeddings(ctx context.Context, embeddings []store.Embedding) ([]string, error) {
	return db.store.AddEmbeddings(ctx, embeddings)
}

// Search returns the k documents most similar to the query text.
// metadataFilter is an optional map or expression accepted by
// filter.Compile.
func (db *DB) Search(ctx context.Context, query string, k int, metadataFilter any) ([]store.SearchResult, error) {
	return db.store.SimilaritySearchWithScore(ctx, query, k, metadataFilter)
}

// SearchByVector returns the k documents closest to the given embedding.
func (db *DB) SearchByVector(ctx context.Context, vector []float32, k int, metadataFilter any) ([]store.SearchResult, error) {
	return db.store.SimilaritySearchByVector(ctx, vector, k, metadataFilter)
}

// SearchMMR returns k documents balancing relevance against diversity.
func (db *DB) SearchMMR(ctx context.Context, query string, k, fetchK int, lambda float64, metadataFilter any) ([]store.SearchResult, error) {
	return db.store.MaxMarginalRelevanceSearch(ctx, query, k, fetchK, lambda, metadataFilter)
}

// Delete removes documents by id, by metadata filter, or both.
func (db *DB) Delete(ctx context.Context, ids []string, metadataFilter any) error {
	return db.store.Delete(ctx, ids, metadataFilter)
}

// GetByIDs fetches documents by id.
func (db *DB) GetByIDs(ctx context.Context, ids []string) ([]store.Document, error) {
	return db.store.GetByIDs(ctx, ids)
}

// FilterSQL compiles a metadata filter into the SQL predicate the store
// would use, without touching the database. Useful for debugging filters.
func (db *DB) FilterSQL(metadataFilter any, metadataColumn string) (string, error) {
	return filter.ToSQL(metadataFilter, metadataColumn)
}

// History returns the chat message history for a session. The history table
// is created on first use.
func (db *DB) History(ctx context.Context, sessionID string) (*chat.History, error) {
	sqlDB := db.store.DB()
	if err := chat.CreateTable(ctx, sqlDB, db.historyTable); err != nil {
		return nil, err
	}
	return chat.NewHistory(sqlDB, db.historyTable, sessionID)
}
