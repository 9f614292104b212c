package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// symbols holds the fixed infix form of every renderable operator. NOT is
// deliberately absent: NOT subtrees are rewritten through Invert before
// rendering, because the SQL dialect has direct negated forms (NOT LIKE,
// NOT IN, !=) and a wrapping NOT(...) is avoided.
var symbols = map[Operator]string{
	OpAnd:     " AND ",
	OpOr:      " OR ",
	OpEq:      " = ",
	OpNe:      " != ",
	OpGt:      " > ",
	OpGte:     " >= ",
	OpLt:      " < ",
	OpLte:     " <= ",
	OpLike:    " LIKE ",
	OpNotLike: " NOT LIKE ",
	OpIn:      " IN ",
	OpNotIn:   " NOT IN ",
}

// Dialect supplies the output-format hooks of the converter: how keys are
// rendered and which delimiters wrap groups and value lists.
type Dialect interface {
	WriteKey(sb *strings.Builder, key Key)
	WriteGroupStart(sb *strings.Builder)
	WriteGroupEnd(sb *strings.Builder)
	WriteRangeStart(sb *strings.Builder)
	WriteRangeEnd(sb *strings.Builder)
	WriteRangeSeparator(sb *strings.Builder)
}

// Converter renders expression trees into string predicates through a
// Dialect. A Converter holds no per-call state and may be shared.
type Converter struct {
	dialect Dialect
}

// NewConverter returns a converter rendering through the given dialect.
func NewConverter(d Dialect) *Converter {
	return &Converter{dialect: d}
}

// Convert validates expr and renders it into a boolean predicate string.
// On any error no partial output is returned.
func (c *Converter) Convert(expr *Expression) (string, error) {
	if err := validateExpression(expr); err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := c.writeOperand(&sb, expr); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// ConvertOperand renders a top-level operand, which must be an expression or
// a group. Keys and values are not predicates on their own.
func (c *Converter) ConvertOperand(op Operand) (string, error) {
	switch o := op.(type) {
	case *Expression:
		return c.Convert(o)
	case *Group:
		if o == nil {
			return "", fmt.Errorf("%w: nil group", ErrInvalidExpression)
		}
		if err := validateExpression(o.Content); err != nil {
			return "", err
		}
		var sb strings.Builder
		if err := c.writeOperand(&sb, o); err != nil {
			return "", err
		}
		return sb.String(), nil
	default:
		return "", fmt.Errorf("%w: cannot render %T as a predicate", ErrInvalidExpression, op)
	}
}

// validateExpression enforces the structural invariants before any output is
// produced. The per-node checks in writeOperand re-verify nested expressions
// defensively.
func validateExpression(expr *Expression) error {
	if expr == nil {
		return fmt.Errorf("%w: nil expression", ErrInvalidExpression)
	}
	if _, ok := operatorNames[expr.Op]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedOperator, expr.Op)
	}
	if expr.Left == nil {
		return fmt.Errorf("%w: %s is missing its left operand", ErrInvalidExpression, expr.Op)
	}
	if expr.Op != OpNot && expr.Right == nil {
		return fmt.Errorf("%w: %s is missing its right operand", ErrInvalidExpression, expr.Op)
	}
	return nil
}

func (c *Converter) writeOperand(sb *strings.Builder, op Operand) error {
	switch o := op.(type) {
	case *Group:
		if o == nil || o.Content == nil {
			return fmt.Errorf("%w: empty group", ErrInvalidExpression)
		}
		c.dialect.WriteGroupStart(sb)
		if err := c.writeOperand(sb, o.Content); err != nil {
			return err
		}
		c.dialect.WriteGroupEnd(sb)
		return nil

	case Key:
		c.dialect.WriteKey(sb, o)
		return nil

	case Value:
		return c.writeValue(sb, o)

	case *Expression:
		if err := validateExpression(o); err != nil {
			return err
		}
		if o.Op != OpNot && o.Op != OpAnd && o.Op != OpOr {
			if _, ok := o.Right.(Value); !ok {
				return fmt.Errorf("%w: %s requires a value right operand, got %T",
					ErrInvalidExpression, o.Op, o.Right)
			}
		}
		if o.Op == OpNot {
			rewritten, err := Invert(o.Left)
			if err != nil {
				return err
			}
			return c.writeOperand(sb, rewritten)
		}
		return c.writeExpression(sb, o)

	default:
		return fmt.Errorf("%w: unexpected operand type %T", ErrInvalidExpression, op)
	}
}

func (c *Converter) writeExpression(sb *strings.Builder, expr *Expression) error {
	if err := c.writeOperand(sb, expr.Left); err != nil {
		return err
	}
	symbol, ok := symbols[expr.Op]
	if !ok {
		return fmt.Errorf("%w: no symbol for %s", ErrUnsupportedOperator, expr.Op)
	}
	sb.WriteString(symbol)
	if expr.Right != nil {
		if err := c.writeOperand(sb, expr.Right); err != nil {
			return err
		}
	}
	return nil
}

func (c *Converter) writeValue(sb *strings.Builder, v Value) error {
	if !v.IsList() {
		return writeScalar(sb, v.scalar)
	}
	c.dialect.WriteRangeStart(sb)
	for i, elem := range v.list {
		if err := writeScalar(sb, elem); err != nil {
			return err
		}
		if i < len(v.list)-1 {
			c.dialect.WriteRangeSeparator(sb)
		}
	}
	c.dialect.WriteRangeEnd(sb)
	return nil
}

func writeScalar(sb *strings.Builder, v any) error {
	switch s := v.(type) {
	case string:
		sb.WriteByte('\'')
		sb.WriteString(strings.ReplaceAll(s, "'", "''"))
		sb.WriteByte('\'')
	case bool:
		sb.WriteString(strconv.FormatBool(s))
	case int:
		sb.WriteString(strconv.FormatInt(int64(s), 10))
	case int8:
		sb.WriteString(strconv.FormatInt(int64(s), 10))
	case int16:
		sb.WriteString(strconv.FormatInt(int64(s), 10))
	case int32:
		sb.WriteString(strconv.FormatInt(int64(s), 10))
	case int64:
		sb.WriteString(strconv.FormatInt(s, 10))
	case uint:
		sb.WriteString(strconv.FormatUint(uint64(s), 10))
	case uint8:
		sb.WriteString(strconv.FormatUint(uint64(s), 10))
	case uint16:
		sb.WriteString(strconv.FormatUint(uint64(s), 10))
	case uint32:
		sb.WriteString(strconv.FormatUint(uint64(s), 10))
	case uint64:
		sb.WriteString(strconv.FormatUint(s, 10))
	case float32:
		sb.WriteString(formatFloat(float64(s)))
	case float64:
		sb.WriteString(formatFloat(s))
	default:
		return fmt.Errorf("%w: cannot render %T as a SQL literal", ErrInvalidType, v)
	}
	return nil
}

// formatFloat renders floats with an explicit decimal point so integral
// floats stay distinguishable from integers in the output (5.0, not 5).
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
