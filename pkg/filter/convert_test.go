package filter

import (
	"errors"
	"strings"
	"testing"
)

func TestConvertScalarRendering(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"int", 42, "42"},
		{"negative int", -7, "-7"},
		{"int64", int64(1 << 40), "1099511627776"},
		{"float", 0.9, "0.9"},
		{"integral float keeps decimal", 5.0, "5.0"},
		{"large float", 1e21, "1e+21"},
		{"bool true", true, "true"},
		{"bool false", false, "false"},
		{"string", "adam", "'adam'"},
		{"string with quote", "it's", "'it''s'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := Eq("field", tt.value)
			if err != nil {
				t.Fatal(err)
			}
			sql, err := NewSQLConverter("metadata").Convert(expr)
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			want := "JSON_VALUE(metadata, '$.field') = " + tt.want
			if sql != want {
				t.Errorf("Convert() = %q, want %q", sql, want)
			}
		})
	}
}

func TestConvertGroupedExpression(t *testing.T) {
	// (status = 'active' OR status = 'pending') AND age >= 18
	active, _ := Eq("status", "active")
	pending, _ := Eq("status", "pending")
	either, _ := Either(active, pending)
	grouped, _ := NewGroup(either)
	adult, _ := Gte("age", 18)
	expr, _ := Both(grouped, adult)

	sql, err := NewSQLConverter("meta").Convert(expr)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	want := "(JSON_VALUE(meta, '$.status') = 'active' OR JSON_VALUE(meta, '$.status') = 'pending')" +
		" AND JSON_VALUE(meta, '$.age') >= 18"
	if sql != want {
		t.Errorf("Convert() = %q, want %q", sql, want)
	}
}

func TestConvertStructuralErrors(t *testing.T) {
	value, err := newValue(1)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		expr *Expression
	}{
		{"nil expression", nil},
		{"unknown operator", &Expression{Op: Operator(99), Left: Key{Name: "id"}, Right: value}},
		{"missing left", &Expression{Op: OpEq, Right: value}},
		{"missing right", &Expression{Op: OpEq, Left: Key{Name: "id"}}},
		{"comparison with key right", &Expression{Op: OpEq, Left: Key{Name: "id"}, Right: Key{Name: "other"}}},
	}

	conv := NewSQLConverter("metadata")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := conv.Convert(tt.expr)
			if err == nil {
				t.Fatal("Convert() expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidExpression) && !errors.Is(err, ErrUnsupportedOperator) {
				t.Errorf("Convert() error = %v, want structural error", err)
			}
			if out != "" {
				t.Errorf("Convert() produced partial output %q on error", out)
			}
		})
	}
}

func TestConvertNeverEmitsNotKeyword(t *testing.T) {
	in, _ := Includes("tags", []string{"a", "b"})
	like, _ := Like("name", "ad%")
	both, _ := Both(in, like)
	negated, _ := Negate(both)

	sql, err := NewSQLConverter("metadata").Convert(negated)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	// NOT IN / NOT LIKE are the negated operator forms, not a wrapping NOT.
	stripped := strings.ReplaceAll(strings.ReplaceAll(sql, "NOT IN", ""), "NOT LIKE", "")
	if strings.Contains(stripped, "NOT") {
		t.Errorf("Convert() emitted a literal NOT wrapper: %q", sql)
	}
	want := "JSON_VALUE(metadata, '$.tags') NOT IN ('a','b') OR JSON_VALUE(metadata, '$.name') NOT LIKE 'ad%'"
	if sql != want {
		t.Errorf("Convert() = %q, want %q", sql, want)
	}
}

func TestConvertOperandRendersGroups(t *testing.T) {
	inner, _ := Eq("id", 1)
	grouped, _ := NewGroup(inner)

	sql, err := NewSQLConverter("metadata").ConvertOperand(grouped)
	if err != nil {
		t.Fatalf("ConvertOperand() error = %v", err)
	}
	want := "(JSON_VALUE(metadata, '$.id') = 1)"
	if sql != want {
		t.Errorf("ConvertOperand() = %q, want %q", sql, want)
	}

	if _, err := NewSQLConverter("metadata").ConvertOperand(Key{Name: "id"}); err == nil {
		t.Error("ConvertOperand(Key) expected error")
	}
}

func TestConverterIsReusable(t *testing.T) {
	conv := NewSQLConverter("metadata")
	a, _ := Eq("id", 1)
	b, _ := Eq("id", 2)

	first, err := conv.Convert(a)
	if err != nil {
		t.Fatal(err)
	}
	second, err := conv.Convert(b)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("distinct expressions rendered identically")
	}
	again, err := conv.Convert(a)
	if err != nil {
		t.Fatal(err)
	}
	if again != first {
		t.Errorf("repeat render differs: %q vs %q", again, first)
	}
}
