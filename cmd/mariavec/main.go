package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/quenlab/mariavec/pkg/filter"
	"github.com/quenlab/mariavec/pkg/store"
)

var (
	dsn        string
	collection string
	dimensions int
	distance   string
	configFile string
	verbose    bool
)

// fileConfig is the YAML config file shape. Flags override file values,
// the MARIAVEC_DSN environment variable fills in a missing DSN.
type fileConfig struct {
	DSN        string `yaml:"dsn"`
	Collection string `yaml:"collection"`
	Dimensions int    `yaml:"dimensions"`
	Distance   string `yaml:"distance"`
}

var rootCmd = &cobra.Command{
	Use:   "mariavec",
	Short: "CLI tool for MariaDB vector storage",
	Long:  `A command-line interface for managing vector embeddings in a MariaDB database.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; ignore a missing file.
		_ = godotenv.Load()
		return loadConfigFile()
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the vector tables and collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		fmt.Printf("Vector store initialized for collection '%s' with %d dimensions\n",
			collection, dimensions)
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add [id]",
	Short: "Add or update a document with its embedding",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, _ := cmd.Flags().GetString("content")
		vectorStr, _ := cmd.Flags().GetString("vector")
		metadataStr, _ := cmd.Flags().GetString("metadata")

		vector, err := parseVector(vectorStr)
		if err != nil {
			return err
		}

		var metadata map[string]any
		if metadataStr != "" {
			if err := json.Unmarshal([]byte(metadataStr), &metadata); err != nil {
				return fmt.Errorf("invalid metadata JSON: %w", err)
			}
		}

		emb := store.Embedding{Vector: vector}
		emb.Content = content
		emb.Metadata = metadata
		if len(args) == 1 {
			emb.ID = args[0]
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		ids, err := s.AddEmbeddings(context.Background(), []store.Embedding{emb})
		if err != nil {
			return fmt.Errorf("failed to add document: %w", err)
		}
		fmt.Printf("Document '%s' added successfully\n", ids[0])
		return nil
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch <json-file>",
	Short: "Add documents in batch from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		var embeddings []store.Embedding
		if err := json.Unmarshal(data, &embeddings); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		ids, err := s.AddEmbeddings(context.Background(), embeddings)
		if err != nil {
			return fmt.Errorf("batch insert failed: %w", err)
		}
		fmt.Printf("Successfully added %d documents\n", len(ids))
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <id>...",
	Short: "Get documents by ID",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		docs, err := s.GetByIDs(context.Background(), args)
		if err != nil {
			return fmt.Errorf("failed to get documents: %w", err)
		}

		outputJSON, _ := cmd.Flags().GetBool("json")
		if outputJSON {
			data, _ := json.MarshalIndent(docs, "", "  ")
			fmt.Println(string(data))
			return nil
		}
		for _, doc := range docs {
			fmt.Printf("ID: %s\n", doc.ID)
			fmt.Printf("Content: %s\n", doc.Content)
			if doc.Metadata != nil {
				meta, _ := json.Marshal(doc.Metadata)
				fmt.Printf("Metadata: %s\n", meta)
			}
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]...",
	Short: "Delete documents by ID or by metadata filter",
	RunE: func(cmd *cobra.Command, args []string) error {
		metadataFilter, err := parseFilterFlag(cmd)
		if err != nil {
			return err
		}
		if len(args) == 0 && metadataFilter == nil {
			return fmt.Errorf("provide document ids or --filter")
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Delete(context.Background(), args, metadataFilter); err != nil {
			return fmt.Errorf("failed to delete documents: %w", err)
		}
		fmt.Println("Documents deleted successfully")
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search for similar vectors",
	RunE: func(cmd *cobra.Command, args []string) error {
		vectorStr, _ := cmd.Flags().GetString("vector")
		k, _ := cmd.Flags().GetInt("top-k")

		vector, err := parseVector(vectorStr)
		if err != nil {
			return err
		}
		metadataFilter, err := parseFilterFlag(cmd)
		if err != nil {
			return err
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		results, err := s.SimilaritySearchByVector(context.Background(), vector, k, metadataFilter)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		outputJSON, _ := cmd.Flags().GetBool("json")
		if outputJSON {
			data, _ := json.MarshalIndent(results, "", "  ")
			fmt.Println(string(data))
			return nil
		}
		fmt.Printf("Found %d results:\n", len(results))
		for i, result := range results {
			fmt.Printf("%d. %s (score: %.4f)\n", i+1, result.ID, result.Score)
			if verbose && result.Content != "" {
				fmt.Printf("   Content: %s\n", result.Content)
			}
		}
		return nil
	},
}

var filterCmd = &cobra.Command{
	Use:   "filter <json-filter>",
	Short: "Compile a metadata filter to its SQL predicate",
	Long: `Compile a metadata filter to the SQL predicate the store would use,
without connecting to a database. Useful for debugging filters:

  mariavec filter '{"category": "news", "year": {"$gte": 2020}}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var f map[string]any
		if err := json.Unmarshal([]byte(args[0]), &f); err != nil {
			return fmt.Errorf("invalid filter JSON: %w", err)
		}
		column, _ := cmd.Flags().GetString("column")
		pred, err := filter.ToSQL(f, column)
		if err != nil {
			return fmt.Errorf("failed to compile filter: %w", err)
		}
		fmt.Println(pred)
		return nil
	},
}

var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the collection and all documents in it",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if !force {
			fmt.Printf("Are you sure you want to delete collection '%s'? This will delete all documents in it. [y/N]: ", collection)
			var response string
			fmt.Scanln(&response)
			if response != "y" && response != "Y" {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.DeleteCollection(context.Background()); err != nil {
			return fmt.Errorf("failed to delete collection: %w", err)
		}
		fmt.Printf("Collection '%s' deleted successfully\n", collection)
		return nil
	},
}

func parseVector(str string) ([]float32, error) {
	if str == "" {
		return nil, fmt.Errorf("vector is required")
	}
	parts := strings.Split(str, ",")
	vector := make([]float32, 0, len(parts))
	for _, part := range parts {
		val, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector format: %w", err)
		}
		vector = append(vector, float32(val))
	}
	return vector, nil
}

func parseFilterFlag(cmd *cobra.Command) (any, error) {
	filterStr, _ := cmd.Flags().GetString("filter")
	if filterStr == "" {
		return nil, nil
	}
	var f map[string]any
	if err := json.Unmarshal([]byte(filterStr), &f); err != nil {
		return nil, fmt.Errorf("invalid filter JSON: %w", err)
	}
	return f, nil
}

func loadConfigFile() error {
	if configFile == "" {
		return nil
	}
	data, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	if dsn == "" {
		dsn = fc.DSN
	}
	if collection == "" && fc.Collection != "" {
		collection = fc.Collection
	}
	if dimensions == 0 && fc.Dimensions > 0 {
		dimensions = fc.Dimensions
	}
	if distance == "" && fc.Distance != "" {
		distance = fc.Distance
	}
	return nil
}

func openStore() (*store.Store, error) {
	if dsn == "" {
		dsn = os.Getenv("MARIAVEC_DSN")
	}
	if dsn == "" {
		return nil, fmt.Errorf("DSN not specified (use --dsn, a config file or MARIAVEC_DSN)")
	}
	if collection == "" {
		collection = "mariavec"
	}
	if dimensions == 0 {
		dimensions = 1536
	}

	config := store.DefaultConfig(dsn)
	config.Collection = collection
	config.EmbeddingLength = dimensions
	if distance != "" {
		config.Distance = store.DistanceStrategy(distance)
	}
	if verbose {
		config.Logger = store.NewStdLogger(store.LevelDebug)
	}

	s, err := store.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if err := s.Init(context.Background()); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	return s, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "MariaDB DSN (user:pass@tcp(host:port)/db)")
	rootCmd.PersistentFlags().StringVarP(&collection, "collection", "c", "", "Collection name")
	rootCmd.PersistentFlags().IntVarP(&dimensions, "dimensions", "n", 0, "Vector dimensions")
	rootCmd.PersistentFlags().StringVar(&distance, "distance", "", "Distance strategy (cosine/euclidean)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	addCmd.Flags().String("content", "", "Document content")
	addCmd.Flags().String("vector", "", "Vector values (comma-separated)")
	addCmd.Flags().String("metadata", "", "Metadata as JSON")
	addCmd.MarkFlagRequired("vector")

	getCmd.Flags().Bool("json", false, "Output as JSON")

	deleteCmd.Flags().String("filter", "", "Metadata filter as JSON")

	searchCmd.Flags().String("vector", "", "Query vector (comma-separated)")
	searchCmd.Flags().Int("top-k", 10, "Number of results")
	searchCmd.Flags().String("filter", "", "Metadata filter as JSON")
	searchCmd.Flags().Bool("json", false, "Output as JSON")
	searchCmd.MarkFlagRequired("vector")

	filterCmd.Flags().String("column", "metadata", "Metadata column name")

	dropCmd.Flags().Bool("force", false, "Skip confirmation prompt")

	rootCmd.AddCommand(
		initCmd,
		addCmd,
		batchCmd,
		getCmd,
		deleteCmd,
		searchCmd,
		filterCmd,
		dropCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
