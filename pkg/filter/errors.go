package filter

import "errors"

// Compilation and rendering errors. Every failure aborts the whole compile;
// no partial predicate is ever produced. All errors are deterministic
// input-validation failures, never transient faults.
var (
	// ErrInvalidType is returned when a key or value has an unsupported Go type.
	ErrInvalidType = errors.New("invalid type")

	// ErrInvalidValue is returned for structurally invalid filter input: an
	// empty key, an empty filter map, a short $and/$or list, or a malformed
	// $not shape.
	ErrInvalidValue = errors.New("invalid value")

	// ErrUnsupportedOperator is returned when an operator string is outside
	// the supported whitelist.
	ErrUnsupportedOperator = errors.New("unsupported operator")

	// ErrInvalidField is returned when a field name starts with '$' or is not
	// a valid identifier.
	ErrInvalidField = errors.New("invalid field name")

	// ErrUnsupportedValueType is returned when an $in/$nin element is boolean
	// or non-scalar, or a $like/$nlike value is not a string.
	ErrUnsupportedValueType = errors.New("unsupported value type")

	// ErrInvalidExpression is returned when an expression tree violates a
	// structural invariant, such as a missing right operand.
	ErrInvalidExpression = errors.New("invalid expression")
)
