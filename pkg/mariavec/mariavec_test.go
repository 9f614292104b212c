package mariavec

import (
	"strings"
	"testing"

	"github.com/quenlab/mariavec/pkg/store"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig("user:pass@tcp(localhost:3306)/vectors")
	if config.Collection != "mariavec" {
		t.Errorf("Collection = %q", config.Collection)
	}
	if config.Dimensions != 1536 {
		t.Errorf("Dimensions = %d", config.Dimensions)
	}
	if config.Distance != store.DistanceCosine {
		t.Errorf("Distance = %q", config.Distance)
	}
	if config.HistoryTable != "mariavec_chat" {
		t.Errorf("HistoryTable = %q", config.HistoryTable)
	}
}

func TestFilterSQL(t *testing.T) {
	db := &DB{}
	pred, err := db.FilterSQL(map[string]any{
		"$or": []any{
			map[string]any{"category": "news"},
			map[string]any{"year": map[string]any{"$gte": 2020}},
		},
	}, "metadata")
	if err != nil {
		t.Fatalf("FilterSQL() error = %v", err)
	}
	for _, fragment := range []string{
		"JSON_VALUE(metadata, '$.category') = 'news'",
		" OR ",
		"JSON_VALUE(metadata, '$.year') >= 2020",
	} {
		if !strings.Contains(pred, fragment) {
			t.Errorf("predicate %q missing %q", pred, fragment)
		}
	}
}
