package filter

import "fmt"

// The constructors below are pure: they validate their inputs, allocate new
// nodes and never mutate existing ones. There is no builder state, so they
// are safe to call from any goroutine.

func comparison(op Operator, key string, value any) (*Expression, error) {
	k, err := newKey(key)
	if err != nil {
		return nil, err
	}
	v, err := newValue(value)
	if err != nil {
		return nil, err
	}
	return &Expression{Op: op, Left: k, Right: v}, nil
}

// Eq matches records whose field equals value.
func Eq(key string, value any) (*Expression, error) { return comparison(OpEq, key, value) }

// Ne matches records whose field does not equal value.
func Ne(key string, value any) (*Expression, error) { return comparison(OpNe, key, value) }

// Gt matches records whose field is greater than value.
func Gt(key string, value any) (*Expression, error) { return comparison(OpGt, key, value) }

// Gte matches records whose field is greater than or equal to value.
func Gte(key string, value any) (*Expression, error) { return comparison(OpGte, key, value) }

// Lt matches records whose field is less than value.
func Lt(key string, value any) (*Expression, error) { return comparison(OpLt, key, value) }

// Lte matches records whose field is less than or equal to value.
func Lte(key string, value any) (*Expression, error) { return comparison(OpLte, key, value) }

// Like matches records whose field matches a SQL LIKE pattern.
func Like(key string, pattern any) (*Expression, error) { return comparison(OpLike, key, pattern) }

// NotLike matches records whose field does not match a SQL LIKE pattern.
func NotLike(key string, pattern any) (*Expression, error) {
	return comparison(OpNotLike, key, pattern)
}

// Includes matches records whose field value is one of values.
func Includes(key string, values any) (*Expression, error) { return comparison(OpIn, key, values) }

// Excludes matches records whose field value is none of values.
func Excludes(key string, values any) (*Expression, error) { return comparison(OpNotIn, key, values) }

func logical(op Operator, left, right Operand) (*Expression, error) {
	for _, operand := range []Operand{left, right} {
		switch operand.(type) {
		case *Expression, *Group:
		case nil:
			return nil, fmt.Errorf("%w: %s requires two operands", ErrInvalidValue, op)
		default:
			return nil, fmt.Errorf("%w: %s operand must be an expression or group, got %T",
				ErrInvalidType, op, operand)
		}
	}
	return &Expression{Op: op, Left: left, Right: right}, nil
}

// Both combines two expressions with a logical AND.
func Both(left, right Operand) (*Expression, error) { return logical(OpAnd, left, right) }

// Either combines two expressions with a logical OR.
func Either(left, right Operand) (*Expression, error) { return logical(OpOr, left, right) }

// Negate wraps an expression in a logical NOT. The converter never renders a
// literal NOT keyword; the wrapper is rewritten through Invert at render time.
func Negate(content *Expression) (*Expression, error) {
	if content == nil {
		return nil, fmt.Errorf("%w: NOT requires an operand", ErrInvalidValue)
	}
	return &Expression{Op: OpNot, Left: content}, nil
}

// NewGroup marks an expression as explicitly parenthesized.
func NewGroup(content *Expression) (*Group, error) {
	if content == nil {
		return nil, fmt.Errorf("%w: group requires an expression", ErrInvalidValue)
	}
	return &Group{Content: content}, nil
}
