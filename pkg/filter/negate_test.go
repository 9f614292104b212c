package filter

import (
	"reflect"
	"testing"
)

func TestNegationTableRoundTrip(t *testing.T) {
	for op, inverse := range negations {
		if negations[inverse] != op {
			t.Errorf("negating %s twice gives %s, want %s", op, negations[inverse], op)
		}
	}
}

func TestInvertLeafComparisons(t *testing.T) {
	tests := []struct {
		name string
		expr func() (*Expression, error)
		want Operator
	}{
		{"eq becomes ne", func() (*Expression, error) { return Eq("id", 1) }, OpNe},
		{"ne becomes eq", func() (*Expression, error) { return Ne("id", 1) }, OpEq},
		{"gt becomes lte", func() (*Expression, error) { return Gt("id", 1) }, OpLte},
		{"gte becomes lt", func() (*Expression, error) { return Gte("id", 1) }, OpLt},
		{"lt becomes gte", func() (*Expression, error) { return Lt("id", 1) }, OpGte},
		{"lte becomes gt", func() (*Expression, error) { return Lte("id", 1) }, OpGt},
		{"like becomes not like", func() (*Expression, error) { return Like("name", "a%") }, OpNotLike},
		{"in becomes not in", func() (*Expression, error) { return Includes("id", []int{1, 2}) }, OpNotIn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := tt.expr()
			if err != nil {
				t.Fatal(err)
			}
			inverted, err := Invert(expr)
			if err != nil {
				t.Fatalf("Invert() error = %v", err)
			}
			got, ok := inverted.(*Expression)
			if !ok {
				t.Fatalf("Invert() returned %T, want *Expression", inverted)
			}
			if got.Op != tt.want {
				t.Errorf("Invert() operator = %s, want %s", got.Op, tt.want)
			}
			// Operands carry over untouched.
			if !reflect.DeepEqual(got.Left, expr.Left) || !reflect.DeepEqual(got.Right, expr.Right) {
				t.Error("Invert() must keep leaf operands unchanged")
			}
		})
	}
}

func TestInvertIsInvolutive(t *testing.T) {
	eq, _ := Eq("name", "adam")
	gt, _ := Gt("count", 2)
	in, _ := Includes("tags", []string{"a", "b"})
	and, _ := Both(eq, gt)
	or, _ := Either(and, in)
	grouped, _ := NewGroup(or)

	tests := []struct {
		name string
		op   Operand
	}{
		{"leaf", eq},
		{"membership", in},
		{"and", and},
		{"nested or", or},
		{"group", grouped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once, err := Invert(tt.op)
			if err != nil {
				t.Fatalf("Invert() error = %v", err)
			}
			twice, err := Invert(once)
			if err != nil {
				t.Fatalf("Invert(Invert()) error = %v", err)
			}
			if !reflect.DeepEqual(twice, tt.op) {
				t.Errorf("Invert(Invert(x)) = %+v, want %+v", twice, tt.op)
			}
		})
	}
}

func TestInvertDeMorgan(t *testing.T) {
	// negate(both(a, b)) must render the same SQL as
	// either(negate(a), negate(b)).
	a, _ := Eq("name", "adam")
	b, _ := Gt("count", 2)

	both, _ := Both(a, b)
	negatedBoth, _ := Negate(both)

	notA, _ := Negate(a)
	notB, _ := Negate(b)
	eitherNots, _ := Either(notA, notB)

	conv := NewSQLConverter("metadata")
	left, err := conv.Convert(negatedBoth)
	if err != nil {
		t.Fatal(err)
	}
	right, err := conv.Convert(eitherNots)
	if err != nil {
		t.Fatal(err)
	}
	if left != right {
		t.Errorf("NOT(a AND b) = %q, NOT(a) OR NOT(b) = %q; want equal", left, right)
	}
	want := "JSON_VALUE(metadata, '$.name') != 'adam' OR JSON_VALUE(metadata, '$.count') <= 2"
	if left != want {
		t.Errorf("rendered %q, want %q", left, want)
	}
}

func TestInvertGroups(t *testing.T) {
	inner, _ := Eq("id", 1)
	grouped, _ := NewGroup(inner)

	// Negating a group negates inside the parentheses.
	got, err := Invert(grouped)
	if err != nil {
		t.Fatalf("Invert() error = %v", err)
	}
	g, ok := got.(*Group)
	if !ok {
		t.Fatalf("Invert(Group) = %T, want *Group", got)
	}
	if g.Content.Op != OpNe {
		t.Errorf("group content operator = %s, want NE", g.Content.Op)
	}

	// Collapsing NOT(Group(x)) sheds exactly one group layer.
	notGroup := &Expression{Op: OpNot, Left: grouped}
	collapsed, err := Invert(notGroup)
	if err != nil {
		t.Fatalf("Invert() error = %v", err)
	}
	if !reflect.DeepEqual(collapsed, Operand(inner)) {
		t.Errorf("Invert(NOT(Group(x))) = %+v, want %+v", collapsed, inner)
	}

	// The converter renders NOT(Group(x)) with the negation kept inside
	// the parentheses.
	sql, err := NewSQLConverter("metadata").Convert(&Expression{Op: OpNot, Left: grouped})
	if err != nil {
		t.Fatal(err)
	}
	want := "(JSON_VALUE(metadata, '$.id') != 1)"
	if sql != want {
		t.Errorf("rendered %q, want %q", sql, want)
	}
}

func TestInvertRejectsLeaves(t *testing.T) {
	if _, err := Invert(Key{Name: "id"}); err == nil {
		t.Error("Invert(Key) expected error")
	}
	v, err := newValue(1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Invert(v); err == nil {
		t.Error("Invert(Value) expected error")
	}
}
