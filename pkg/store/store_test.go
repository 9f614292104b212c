package store

import (
	"errors"
	"strings"
	"testing"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty DSN",
			config:  Config{EmbeddingLength: 3},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "zero embedding length",
			config:  Config{DSN: "user:pass@tcp(localhost)/db"},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "negative embedding length",
			config:  Config{DSN: "user:pass@tcp(localhost)/db", EmbeddingLength: -1},
			wantErr: ErrInvalidConfig,
		},
		{
			name: "unknown distance",
			config: Config{
				DSN:             "user:pass@tcp(localhost)/db",
				EmbeddingLength: 3,
				Distance:        DistanceStrategy("manhattan"),
			},
			wantErr: ErrInvalidConfig,
		},
		{
			name:   "valid",
			config: Config{DSN: "user:pass@tcp(localhost)/db", EmbeddingLength: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("New() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	s, err := New(Config{DSN: "user:pass@tcp(localhost)/db", EmbeddingLength: 8})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.config.Collection != "mariavec" {
		t.Errorf("Collection = %q, want mariavec", s.config.Collection)
	}
	if s.config.Distance != DistanceCosine {
		t.Errorf("Distance = %q, want cosine", s.config.Distance)
	}
	if s.config.Tables.EmbeddingTable != "mariavec_embedding" {
		t.Errorf("EmbeddingTable = %q", s.config.Tables.EmbeddingTable)
	}
	if s.config.Logger == nil {
		t.Error("Logger not defaulted")
	}
}

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"embedding", "`embedding`"},
		{"my table", "`my table`"},
		{"weird`name", "`weird``name`"},
	}
	for _, tt := range tests {
		if got := quoteIdentifier(tt.in); got != tt.want {
			t.Errorf("quoteIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateID(t *testing.T) {
	valid := []string{"doc1", "a", "A-b_c", "123", "f47ac10b-58cc-4372-a567-0e02b2c3d479"}
	for _, id := range valid {
		if err := validateID(id); err != nil {
			t.Errorf("validateID(%q) = %v, want nil", id, err)
		}
	}
	invalid := []string{"", "has space", "semi;colon", "quote'", "drop;--", "tab\tid"}
	for _, id := range invalid {
		if err := validateID(id); !errors.Is(err, ErrInvalidID) {
			t.Errorf("validateID(%q) = %v, want ErrInvalidID", id, err)
		}
	}
}

func TestFilterSQL(t *testing.T) {
	s, err := New(Config{DSN: "user:pass@tcp(localhost)/db", EmbeddingLength: 3})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	pred, err := s.filterSQL(nil)
	if err != nil || pred != "" {
		t.Fatalf("filterSQL(nil) = (%q, %v), want empty", pred, err)
	}

	pred, err = s.filterSQL(map[string]any{"category": "news"})
	if err != nil {
		t.Fatalf("filterSQL() error = %v", err)
	}
	want := "JSON_VALUE(`metadata`, '$.category') = 'news'"
	if pred != want {
		t.Errorf("filterSQL() = %q, want %q", pred, want)
	}

	if _, err := s.filterSQL(map[string]any{"bad name": 1}); err == nil {
		t.Error("filterSQL() accepted invalid field name")
	}
}

func TestBuildSelectQuery(t *testing.T) {
	s, err := New(Config{DSN: "user:pass@tcp(localhost)/db", EmbeddingLength: 3})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	query := s.buildSelectQuery("", false)
	want := "SELECT `id`, `content`, `metadata`, " +
		"1.0 - vec_distance_cosine(`embedding`, ?) AS score " +
		"FROM `mariavec_embedding` WHERE collection_id = ? " +
		"ORDER BY vec_distance_cosine(`embedding`, ?) ASC LIMIT ?"
	if query != want {
		t.Errorf("buildSelectQuery() =\n%q\nwant\n%q", query, want)
	}

	query = s.buildSelectQuery("JSON_VALUE(`metadata`, '$.year') >= 2020", true)
	if !strings.Contains(query, "WHERE collection_id = ? AND JSON_VALUE(`metadata`, '$.year') >= 2020") {
		t.Errorf("predicate not appended to collection guard: %q", query)
	}
	if !strings.Contains(query, ", `embedding` FROM") {
		t.Errorf("embedding column missing from candidate query: %q", query)
	}
}

func TestBuildSelectQueryEuclidean(t *testing.T) {
	s, err := New(Config{
		DSN:             "user:pass@tcp(localhost)/db",
		EmbeddingLength: 3,
		Distance:        DistanceEuclidean,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	query := s.buildSelectQuery("", false)
	if !strings.Contains(query, "1.0 - vec_distance_euclidean(`embedding`, ?) / SQRT(2)") {
		t.Errorf("euclidean score expression missing: %q", query)
	}
	if !strings.Contains(query, "ORDER BY vec_distance_euclidean(`embedding`, ?) ASC") {
		t.Errorf("euclidean ordering missing: %q", query)
	}
}

func TestStoreErrorWrapping(t *testing.T) {
	err := wrapError("search", ErrStoreClosed)
	if !errors.Is(err, ErrStoreClosed) {
		t.Fatal("wrapped error lost its sentinel")
	}
	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatal("wrapError did not produce a *StoreError")
	}
	if se.Op != "search" {
		t.Errorf("Op = %q, want search", se.Op)
	}
	if got := se.Error(); !strings.HasPrefix(got, "vectorstore: search:") {
		t.Errorf("Error() = %q", got)
	}
	if wrapError("x", nil) != nil {
		t.Error("wrapError(nil) should be nil")
	}
}

func TestLoggerLevels(t *testing.T) {
	var sb strings.Builder
	logger := NewLogger(&sb, LevelWarn)
	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)
	logger.Error("also shown")

	out := sb.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("low-severity messages leaked: %q", out)
	}
	if !strings.Contains(out, "WARN mariavec: shown k=1") {
		t.Errorf("warn line malformed: %q", out)
	}
	if !strings.Contains(out, "ERROR mariavec: also shown") {
		t.Errorf("error line malformed: %q", out)
	}
}
