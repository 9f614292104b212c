package filter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// fieldNamePattern is the accepted identifier shape for metadata fields.
// '$' is disallowed until escape characters are supported.
var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// comparisonBuilders maps the query-syntax operators onto their builder
// constructors. $in/$nin/$like/$nlike carry extra element checks and are
// dispatched separately in handleFieldFilter.
var comparisonBuilders = map[string]func(string, any) (*Expression, error){
	"$eq":  Eq,
	"$ne":  Ne,
	"$gt":  Gt,
	"$gte": Gte,
	"$lt":  Lt,
	"$lte": Lte,
}

// Compile translates a metadata filter into an expression tree. The filter
// is either a prebuilt *Expression or *Group, which passes through
// unchanged, or a nested map in the query syntax:
//
//   - {field: value} is an equality check
//   - {field: {"$op": value}} applies one operator from the whitelist
//     $eq $ne $gt $gte $lt $lte $in $nin $like $nlike
//   - {"$and": [...]} / {"$or": [...]} combine two or more sub-filters
//   - {"$not": ...} negates one sub-filter
//   - a map with several fields is an implicit AND over its entries,
//     folded in sorted key order so output is deterministic
func Compile(f any) (Operand, error) {
	switch filter := f.(type) {
	case *Expression:
		if filter == nil {
			return nil, fmt.Errorf("%w: nil expression", ErrInvalidValue)
		}
		return filter, nil
	case *Group:
		if filter == nil {
			return nil, fmt.Errorf("%w: nil group", ErrInvalidValue)
		}
		return filter, nil
	case map[string]any:
		return compileMap(filter)
	case nil:
		return nil, fmt.Errorf("%w: nil filter", ErrInvalidValue)
	default:
		return nil, fmt.Errorf("%w: expected a map or expression, got %T", ErrInvalidType, f)
	}
}

func compileMap(m map[string]any) (Operand, error) {
	switch {
	case len(m) == 0:
		return nil, fmt.Errorf("%w: empty filter", ErrInvalidValue)

	case len(m) == 1:
		for key, value := range m {
			if strings.HasPrefix(key, "$") {
				return compileDirective(key, value)
			}
			return handleFieldFilter(key, value)
		}
		panic("unreachable")

	default:
		// Implicit AND over the entries, folded left to right. Map keys are
		// sorted so the tree shape (and the rendered SQL) is deterministic.
		keys := make([]string, 0, len(m))
		for key := range m {
			if strings.HasPrefix(key, "$") {
				return nil, fmt.Errorf("%w: expected a field but got an operator: %s",
					ErrInvalidField, key)
			}
			keys = append(keys, key)
		}
		sort.Strings(keys)

		acc, err := handleFieldFilter(keys[0], m[keys[0]])
		if err != nil {
			return nil, err
		}
		for _, key := range keys[1:] {
			next, err := handleFieldFilter(key, m[key])
			if err != nil {
				return nil, err
			}
			acc, err = Both(acc, next)
			if err != nil {
				return nil, err
			}
		}
		return acc, nil
	}
}

func compileDirective(key string, value any) (Operand, error) {
	switch strings.ToLower(key) {
	case "$and":
		return compileConjunction(OpAnd, key, value)
	case "$or":
		return compileConjunction(OpOr, key, value)
	case "$not":
		return compileNot(value)
	default:
		return nil, fmt.Errorf("%w: expected $and, $or or $not but got: %s", ErrInvalidValue, key)
	}
}

// compileConjunction folds a directive list into a strictly binary tree.
// The fold runs right to left, so the head of the list ends up as the left
// operand of the root: [a, b, c] becomes op(a, op(b, c)). A sub-filter that
// fails to compile aborts the whole conjunction.
func compileConjunction(op Operator, key string, value any) (Operand, error) {
	items, ok := directiveList(value)
	if !ok || len(items) < 2 {
		return nil, fmt.Errorf("%w: %s expects a list of at least 2 filters", ErrInvalidValue, key)
	}

	parts := make([]Operand, len(items))
	for i, item := range items {
		part, err := Compile(item)
		if err != nil {
			return nil, err
		}
		parts[i] = part
	}

	acc := parts[len(parts)-1]
	for i := len(parts) - 2; i >= 0; i-- {
		combined, err := logical(op, parts[i], acc)
		if err != nil {
			return nil, err
		}
		acc = combined
	}
	return acc, nil
}

func compileNot(value any) (Operand, error) {
	switch v := value.(type) {
	case *Expression:
		return Negate(v)
	case *Group:
		return &Expression{Op: OpNot, Left: v}, nil
	case map[string]any:
		inner, err := compileMap(v)
		if err != nil {
			return nil, err
		}
		return &Expression{Op: OpNot, Left: inner}, nil
	case []any:
		if len(v) == 1 {
			switch v[0].(type) {
			case *Expression, *Group, map[string]any:
				return compileNot(v[0])
			}
		}
	}
	return nil, fmt.Errorf(
		"%w: $not expects an expression, a map, or a single-item list of either, got %T",
		ErrInvalidValue, value)
}

// directiveList widens the accepted list shapes for $and/$or values.
func directiveList(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out, true
	default:
		return nil, false
	}
}

// handleFieldFilter compiles one {field: value} entry into a comparison.
func handleFieldFilter(field string, value any) (*Expression, error) {
	if strings.HasPrefix(field, "$") {
		return nil, fmt.Errorf("%w: expected a field but got an operator: %s", ErrInvalidField, field)
	}
	if !fieldNamePattern.MatchString(field) {
		return nil, fmt.Errorf("%w: %q is not a valid identifier", ErrInvalidField, field)
	}

	spec, ok := value.(map[string]any)
	if !ok {
		// Bare values default to an equality check.
		return Eq(field, value)
	}

	if len(spec) != 1 {
		return nil, fmt.Errorf(
			"%w: field filter expects a single {operator: value} entry, got %d keys",
			ErrInvalidValue, len(spec))
	}

	for operator, operand := range spec {
		if build, ok := comparisonBuilders[operator]; ok {
			return build(field, operand)
		}
		switch operator {
		case "$in":
			if err := checkMembershipElements(operator, operand); err != nil {
				return nil, err
			}
			return Includes(field, operand)
		case "$nin":
			if err := checkMembershipElements(operator, operand); err != nil {
				return nil, err
			}
			return Excludes(field, operand)
		case "$like":
			if err := checkPatternValue(operator, operand); err != nil {
				return nil, err
			}
			return Like(field, operand)
		case "$nlike":
			if err := checkPatternValue(operator, operand); err != nil {
				return nil, err
			}
			return NotLike(field, operand)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperator, operator)
		}
	}
	panic("unreachable")
}

// checkMembershipElements enforces the $in/$nin element whitelist: strings,
// integers and floats only. Booleans are rejected explicitly even though
// some query languages treat them as integers.
func checkMembershipElements(operator string, operand any) error {
	elems, ok := asList(operand)
	if !ok {
		return fmt.Errorf("%w: %s expects a list of values, got %T",
			ErrUnsupportedValueType, operator, operand)
	}
	for _, elem := range elems {
		switch elem.(type) {
		case bool:
			return fmt.Errorf("%w: %s does not accept booleans, got %v",
				ErrUnsupportedValueType, operator, elem)
		case string, int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64, float32, float64:
		default:
			return fmt.Errorf("%w: %s element %T", ErrUnsupportedValueType, operator, elem)
		}
	}
	return nil
}

// checkPatternValue enforces string-only patterns for $like/$nlike, for a
// scalar pattern or a list of patterns.
func checkPatternValue(operator string, operand any) error {
	elems, ok := asList(operand)
	if !ok {
		elems = []any{operand}
	}
	for _, elem := range elems {
		if _, ok := elem.(string); !ok {
			return fmt.Errorf("%w: %s expects string patterns, got %T",
				ErrUnsupportedValueType, operator, elem)
		}
	}
	return nil
}
