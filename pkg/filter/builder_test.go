package filter

import (
	"errors"
	"math"
	"testing"
)

func TestBuilderValidation(t *testing.T) {
	tests := []struct {
		name    string
		build   func() (*Expression, error)
		wantErr error
	}{
		{
			name:    "empty key",
			build:   func() (*Expression, error) { return Eq("", 1) },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "nil value",
			build:   func() (*Expression, error) { return Eq("id", nil) },
			wantErr: ErrInvalidType,
		},
		{
			name:    "map value",
			build:   func() (*Expression, error) { return Eq("id", map[string]int{"a": 1}) },
			wantErr: ErrInvalidType,
		},
		{
			name: "mixed list value",
			build: func() (*Expression, error) {
				return Includes("id", []any{1, "two"})
			},
			wantErr: ErrInvalidType,
		},
		{
			name: "non-finite float",
			build: func() (*Expression, error) {
				return Gt("height", math.NaN())
			},
			wantErr: ErrInvalidValue,
		},
		{
			name: "logical over a bare key",
			build: func() (*Expression, error) {
				eq, err := Eq("id", 1)
				if err != nil {
					return nil, err
				}
				return Both(eq, Key{Name: "id"})
			},
			wantErr: ErrInvalidType,
		},
		{
			name:    "negate nil",
			build:   func() (*Expression, error) { return Negate(nil) },
			wantErr: ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuilderProducesFreshNodes(t *testing.T) {
	a, err := Eq("id", 1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Eq("id", 2)
	if err != nil {
		t.Fatal(err)
	}
	combined, err := Both(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if combined == a || combined == b {
		t.Error("Both() must allocate a new node")
	}
	if combined.Left != Operand(a) || combined.Right != Operand(b) {
		t.Error("Both() must reference the given operands")
	}
}

func TestValueCopiesLists(t *testing.T) {
	src := []any{"a", "b"}
	expr, err := Includes("tags", src)
	if err != nil {
		t.Fatal(err)
	}
	src[0] = "mutated"

	sql, err := NewSQLConverter("metadata").Convert(expr)
	if err != nil {
		t.Fatal(err)
	}
	want := "JSON_VALUE(metadata, '$.tags') IN ('a','b')"
	if sql != want {
		t.Errorf("rendered %q, want %q; list value must not alias caller storage", sql, want)
	}
}

func TestOperatorString(t *testing.T) {
	if got := OpNotLike.String(); got != "NLIKE" {
		t.Errorf("OpNotLike.String() = %q, want NLIKE", got)
	}
	if got := Operator(200).String(); got != "Operator(200)" {
		t.Errorf("unknown operator String() = %q", got)
	}
}
