package filter

import (
	"fmt"
	"math"
)

// Operator identifies a filter operation. The set is closed: the converter
// rejects anything it does not recognize.
type Operator uint8

const (
	OpInvalid Operator = iota
	OpAnd
	OpOr
	OpEq
	OpNe
	OpGt
	OpGte
	OpLt
	OpLte
	OpLike
	OpNotLike
	OpIn
	OpNotIn
	OpNot
)

var operatorNames = map[Operator]string{
	OpAnd:     "AND",
	OpOr:      "OR",
	OpEq:      "EQ",
	OpNe:      "NE",
	OpGt:      "GT",
	OpGte:     "GTE",
	OpLt:      "LT",
	OpLte:     "LTE",
	OpLike:    "LIKE",
	OpNotLike: "NLIKE",
	OpIn:      "IN",
	OpNotIn:   "NIN",
	OpNot:     "NOT",
}

// String returns the operator name for diagnostics.
func (op Operator) String() string {
	if name, ok := operatorNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Operator(%d)", uint8(op))
}

// negations maps every operator to its logical inverse. NOT maps to itself:
// negating a NOT node is handled structurally by Invert.
var negations = map[Operator]Operator{
	OpAnd:     OpOr,
	OpOr:      OpAnd,
	OpEq:      OpNe,
	OpNe:      OpEq,
	OpGt:      OpLte,
	OpGte:     OpLt,
	OpLt:      OpGte,
	OpLte:     OpGt,
	OpLike:    OpNotLike,
	OpNotLike: OpLike,
	OpIn:      OpNotIn,
	OpNotIn:   OpIn,
	OpNot:     OpNot,
}

// Operand is the closed union of node kinds accepted wherever a sub-tree is
// expected: Key, Value, *Expression or *Group.
type Operand interface {
	isOperand()
}

// Key names a metadata field on the left side of a comparison.
type Key struct {
	Name string
}

func (Key) isOperand() {}

// Value holds the right side of a comparison: a scalar (string, bool, int or
// float) or a homogeneous list of scalars. Lists are copied on construction,
// so a Value never aliases caller-owned storage.
type Value struct {
	scalar any
	list   []any
}

func (Value) isOperand() {}

// IsList reports whether the value is a list of scalars.
func (v Value) IsList() bool { return v.list != nil }

// Scalar returns the scalar payload. Undefined for list values.
func (v Value) Scalar() any { return v.scalar }

// List returns a copy of the list payload, or nil for scalar values.
func (v Value) List() []any {
	if v.list == nil {
		return nil
	}
	out := make([]any, len(v.list))
	copy(out, v.list)
	return out
}

// Expression is a boolean filter node: an operator, a left operand and, for
// every operator except NOT, a right operand. Treat expressions as immutable
// after construction; all transformations allocate new nodes.
type Expression struct {
	Op    Operator
	Left  Operand
	Right Operand
}

func (*Expression) isOperand() {}

// Group wraps one expression and marks explicit parenthesization.
type Group struct {
	Content *Expression
}

func (*Group) isOperand() {}

func newKey(name string) (Key, error) {
	if name == "" {
		return Key{}, fmt.Errorf("%w: empty key", ErrInvalidValue)
	}
	return Key{Name: name}, nil
}

// scalarKind classifies a scalar for list-homogeneity checks.
type scalarKind uint8

const (
	kindNone scalarKind = iota
	kindString
	kindBool
	kindNumber
)

func classifyScalar(v any) (scalarKind, error) {
	switch s := v.(type) {
	case string:
		return kindString, nil
	case bool:
		return kindBool, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return kindNumber, nil
	case float32:
		return classifyFloat(float64(s))
	case float64:
		return classifyFloat(s)
	default:
		return kindNone, fmt.Errorf("%w: unsupported value type %T", ErrInvalidType, v)
	}
}

func classifyFloat(f float64) (scalarKind, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return kindNone, fmt.Errorf("%w: non-finite float %v", ErrInvalidValue, f)
	}
	return kindNumber, nil
}

// newValue validates and normalizes a caller-supplied value. All supported
// slice types collapse to []any so rendering has one list representation.
func newValue(v any) (Value, error) {
	if v == nil {
		return Value{}, fmt.Errorf("%w: nil value", ErrInvalidType)
	}
	list, ok := asList(v)
	if !ok {
		if _, err := classifyScalar(v); err != nil {
			return Value{}, err
		}
		return Value{scalar: v}, nil
	}

	out := make([]any, len(list))
	kind := kindNone
	for i, elem := range list {
		k, err := classifyScalar(elem)
		if err != nil {
			return Value{}, err
		}
		if kind == kindNone {
			kind = k
		} else if k != kind {
			return Value{}, fmt.Errorf("%w: mixed element types in list value", ErrInvalidType)
		}
		out[i] = elem
	}
	return Value{list: out}, nil
}

// asList widens the supported slice types to []any.
func asList(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []int:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []int64:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []float64:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []float32:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []bool:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	default:
		return nil, false
	}
}
