package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql" // MariaDB driver
	"github.com/quenlab/mariavec/internal/encoding"
	"github.com/quenlab/mariavec/pkg/filter"
)

// idPattern is the accepted document id shape: alphanumeric with underscore
// and minus sign.
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// identCleaner strips everything outside [0-9a-zA-Z_] from derived index
// names.
var identCleaner = regexp.MustCompile(`[^0-9a-zA-Z_]`)

// Store is a MariaDB-backed vector store. Documents live in an embedding
// table with a VECTOR column and a JSON metadata column; collections group
// documents under a label. Metadata filters compile through pkg/filter into
// predicates over JSON_VALUE lookups.
//
// Requires MariaDB 11.7.1 or later for the VECTOR type and vector index.
type Store struct {
	db     *sql.DB
	config Config
	logger Logger
	conv   *filter.Converter

	mu           sync.RWMutex
	closed       bool
	collectionID string

	// Quoted identifiers, resolved once at construction.
	embTable   string
	embID      string
	embCol     string
	contentCol string
	metaCol    string
	colTable   string
	colID      string
	colLabel   string
	colMeta    string
}

// New creates a store from the given configuration. Call Init to open the
// connection and prepare tables.
func New(config Config) (*Store, error) {
	if config.DSN == "" {
		return nil, wrapError("init", fmt.Errorf("%w: DSN cannot be empty", ErrInvalidConfig))
	}
	if config.EmbeddingLength <= 0 {
		return nil, wrapError("init", fmt.Errorf("%w: embedding length must be positive", ErrInvalidConfig))
	}
	if config.Collection == "" {
		config.Collection = DefaultConfig("").Collection
	}
	if config.Distance == "" {
		config.Distance = DistanceCosine
	}
	if config.Distance != DistanceCosine && config.Distance != DistanceEuclidean {
		return nil, wrapError("init", fmt.Errorf("%w: unknown distance strategy %q", ErrInvalidConfig, config.Distance))
	}
	if config.Tables == (TableConfig{}) {
		config.Tables = DefaultTableConfig()
	}
	if config.Columns == (ColumnConfig{}) {
		config.Columns = DefaultColumnConfig()
	}
	if config.Logger == nil {
		config.Logger = NopLogger()
	}

	s := &Store{
		config: config,
		logger: config.Logger,

		embTable:   quoteIdentifier(config.Tables.EmbeddingTable),
		embID:      quoteIdentifier(config.Columns.EmbeddingID),
		embCol:     quoteIdentifier(config.Columns.Embedding),
		contentCol: quoteIdentifier(config.Columns.Content),
		metaCol:    quoteIdentifier(config.Columns.Metadata),
		colTable:   quoteIdentifier(config.Tables.CollectionTable),
		colID:      quoteIdentifier(config.Columns.CollectionID),
		colLabel:   quoteIdentifier(config.Columns.CollectionLabel),
		colMeta:    quoteIdentifier(config.Columns.CollectionMetadata),
	}
	s.conv = filter.NewSQLConverter(s.metaCol)
	return s, nil
}

// Init opens the database, creates the tables if needed and ensures the
// configured collection exists.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return wrapError("init", ErrStoreClosed)
	}

	db, err := sql.Open("mysql", s.config.DSN)
	if err != nil {
		return wrapError("init", fmt.Errorf("failed to open database: %w", err))
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(2 * time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return wrapError("init", fmt.Errorf("failed to reach database: %w", err))
	}
	s.db = db

	if err := s.createTables(ctx); err != nil {
		return wrapError("init", err)
	}
	if s.config.PreDeleteCollection {
		if err := s.deleteCollection(ctx); err != nil {
			s.logger.Debug("failed to delete previous collection", "collection", s.config.Collection, "err", err)
		}
	}
	if err := s.ensureCollection(ctx); err != nil {
		return wrapError("init", err)
	}

	s.logger.Info("store initialized",
		"collection", s.config.Collection,
		"dimensions", s.config.EmbeddingLength,
		"distance", s.config.Distance)
	return nil
}

// createTables creates the embedding and collection tables, the vector
// index and the collection foreign key.
func (s *Store) createTables(ctx context.Context) error {
	vectorIndex := identCleaner.ReplaceAllString(
		fmt.Sprintf("idx_%s_%s", s.config.Tables.EmbeddingTable, s.config.Columns.Embedding), "")
	labelKey := identCleaner.ReplaceAllString(
		fmt.Sprintf("idx_%s_%s", s.config.Tables.CollectionTable, s.config.Columns.CollectionLabel), "")
	fkName := identCleaner.ReplaceAllString(
		fmt.Sprintf("%s_collection_id_fkey", s.config.Tables.EmbeddingTable), "")

	statements := []string{
		fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s ("+
				"%s VARCHAR(36) NOT NULL DEFAULT UUID_v7() PRIMARY KEY,"+
				"%s TEXT,"+
				"%s JSON,"+
				"%s VECTOR(%d) NOT NULL,"+
				"VECTOR INDEX %s (%s)"+
				") ENGINE=InnoDB",
			s.embTable, s.embID, s.contentCol, s.metaCol,
			s.embCol, s.config.EmbeddingLength, vectorIndex, s.embCol),
		fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s ("+
				"%s UUID NOT NULL DEFAULT UUID_v7() PRIMARY KEY,"+
				"%s VARCHAR(256),"+
				"%s JSON,"+
				"UNIQUE KEY %s (%s)"+
				")",
			s.colTable, s.colID, s.colLabel, s.colMeta, labelKey, s.colLabel),
		fmt.Sprintf(
			"ALTER TABLE %s "+
				"ADD COLUMN IF NOT EXISTS collection_id UUID,"+
				"ADD CONSTRAINT FOREIGN KEY IF NOT EXISTS %s (collection_id) "+
				"REFERENCES %s(%s) ON DELETE CASCADE",
			s.embTable, fkName, s.colTable, s.colID),
		fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS coll_id_idx ON %s (collection_id)",
			s.embTable),
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}

// ensureCollection looks the collection up by label, creating it on first
// use, and caches its id.
func (s *Store) ensureCollection(ctx context.Context) error {
	var id string
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", s.colID, s.colTable, s.colLabel)
	err := s.db.QueryRowContext(ctx, query, s.config.Collection).Scan(&id)
	switch {
	case err == nil:
		s.collectionID = id
		return nil
	case err != sql.ErrNoRows:
		return fmt.Errorf("failed to look up collection: %w", err)
	}

	metadataJSON, err := encoding.EncodeMetadata(s.config.CollectionMetadata)
	if err != nil {
		return err
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (?, ?) RETURNING %s",
		s.colTable, s.colLabel, s.colMeta, s.colID)
	if err := s.db.QueryRowContext(ctx, insert, s.config.Collection, metadataJSON).Scan(&id); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	s.collectionID = id
	s.logger.Debug("collection created", "collection", s.config.Collection, "id", id)
	return nil
}

// deleteCollection removes the collection row and its embeddings.
func (s *Store) deleteCollection(ctx context.Context) error {
	var id string
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", s.colID, s.colTable, s.colLabel)
	err := s.db.QueryRowContext(ctx, query, s.config.Collection).Scan(&id)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE collection_id = ?", s.embTable), id); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE %s = ?", s.colTable, s.colID), id); err != nil {
		return err
	}
	return nil
}

// DeleteCollection deletes the configured collection and all documents in it.
func (s *Store) DeleteCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return wrapError("delete_collection", ErrStoreClosed)
	}
	if err := s.deleteCollection(ctx); err != nil {
		return wrapError("delete_collection", err)
	}
	s.collectionID = ""
	return nil
}

// DropTables drops both store tables. Intended for tests and teardown.
func (s *Store) DropTables(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return wrapError("drop_tables", ErrStoreClosed)
	}
	// The embedding table goes first because of the foreign key.
	for _, table := range []string{s.embTable, s.colTable} {
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return wrapError("drop_tables", err)
		}
	}
	s.collectionID = ""
	return nil
}

// DB exposes the underlying connection pool so related features, like chat
// history, can share it.
func (s *Store) DB() *sql.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

// Close closes the database connection. The store cannot be reused after.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// filterSQL compiles a metadata filter into a predicate fragment, or ""
// when the filter is nil.
func (s *Store) filterSQL(f any) (string, error) {
	if f == nil {
		return "", nil
	}
	expr, err := filter.Compile(f)
	if err != nil {
		return "", err
	}
	return s.conv.ConvertOperand(expr)
}

func validateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q (must be alphanumeric with underscore and minus sign)", ErrInvalidID, id)
	}
	return nil
}
