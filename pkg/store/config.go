package store

import "strings"

// DistanceStrategy selects the vector distance function used for similarity
// search.
type DistanceStrategy string

const (
	DistanceCosine    DistanceStrategy = "cosine"
	DistanceEuclidean DistanceStrategy = "euclidean"
)

// TableConfig holds the database table names.
type TableConfig struct {
	EmbeddingTable  string
	CollectionTable string
}

// DefaultTableConfig returns the default table names.
func DefaultTableConfig() TableConfig {
	return TableConfig{
		EmbeddingTable:  "mariavec_embedding",
		CollectionTable: "mariavec_collection",
	}
}

// ColumnConfig holds the database column names.
type ColumnConfig struct {
	// Embedding table columns
	EmbeddingID string
	Embedding   string
	Content     string
	Metadata    string

	// Collection table columns
	CollectionID       string
	CollectionLabel    string
	CollectionMetadata string
}

// DefaultColumnConfig returns the default column names.
func DefaultColumnConfig() ColumnConfig {
	return ColumnConfig{
		EmbeddingID: "id",
		Embedding:   "embedding",
		Content:     "content",
		Metadata:    "metadata",

		CollectionID:       "id",
		CollectionLabel:    "label",
		CollectionMetadata: "metadata",
	}
}

// Config configures a Store.
type Config struct {
	// DSN is the MariaDB data source name, e.g.
	// "user:pass@tcp(localhost:3306)/vectors".
	DSN string

	// Collection is the label grouping documents. Searches and deletes are
	// scoped to it.
	Collection string

	// CollectionMetadata is stored alongside the collection row.
	CollectionMetadata map[string]any

	// EmbeddingLength is the dimensionality of the VECTOR column.
	EmbeddingLength int

	// Distance selects the similarity function. Defaults to cosine.
	Distance DistanceStrategy

	Tables  TableConfig
	Columns ColumnConfig

	// PreDeleteCollection drops any existing collection with the same label
	// during Init.
	PreDeleteCollection bool

	// Embedder powers the text-based operations. Optional; vector-based
	// operations work without it.
	Embedder Embedder

	// Logger receives store diagnostics. Defaults to a silent logger.
	Logger Logger
}

// DefaultConfig returns a configuration with default naming and a 1536-wide
// cosine-indexed embedding column.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:             dsn,
		Collection:      "mariavec",
		EmbeddingLength: 1536,
		Distance:        DistanceCosine,
		Tables:          DefaultTableConfig(),
		Columns:         DefaultColumnConfig(),
	}
}

// quoteIdentifier wraps a table or column name in backticks, doubling any
// embedded backtick, so configured names can never break out of identifier
// position.
func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
