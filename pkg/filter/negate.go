package filter

import "fmt"

// Invert returns the logical negation of op with every NOT pushed down to
// the leaves: AND/OR swap and recurse (De Morgan), comparison operators flip
// through the negation table, double negation collapses. The input tree is
// never modified; the result shares leaf operands but all rewritten nodes
// are fresh allocations.
func Invert(op Operand) (Operand, error) {
	switch o := op.(type) {
	case *Group:
		inner, err := Invert(o.Content)
		if err != nil {
			return nil, err
		}
		// Avoid stacking parentheses when the negation itself grouped.
		if g, ok := inner.(*Group); ok {
			return g, nil
		}
		expr, ok := inner.(*Expression)
		if !ok {
			return nil, fmt.Errorf("%w: group content negated to %T", ErrInvalidExpression, inner)
		}
		return &Group{Content: expr}, nil

	case *Expression:
		switch {
		case o.Op == OpNot:
			// NOT(NOT(x)) collapses to x, unwrapping one group layer.
			if g, ok := o.Left.(*Group); ok {
				return g.Content, nil
			}
			return o.Left, nil
		case o.Op == OpAnd || o.Op == OpOr:
			left, err := Invert(o.Left)
			if err != nil {
				return nil, err
			}
			right, err := Invert(o.Right)
			if err != nil {
				return nil, err
			}
			return &Expression{Op: negations[o.Op], Left: left, Right: right}, nil
		default:
			inverse, ok := negations[o.Op]
			if !ok {
				return nil, fmt.Errorf("%w: cannot negate %s", ErrUnsupportedOperator, o.Op)
			}
			return &Expression{Op: inverse, Left: o.Left, Right: o.Right}, nil
		}

	default:
		return nil, fmt.Errorf("%w: cannot negate operand of type %T", ErrInvalidExpression, op)
	}
}
