package filter

import "strings"

// SQLDialect renders keys as JSON_VALUE lookups against a metadata column,
// matching the MariaDB JSON path syntax. Value lists use parentheses so the
// output composes directly with IN / NOT IN.
type SQLDialect struct {
	// MetadataColumn is the (already quoted, if needed) column holding the
	// JSON metadata document.
	MetadataColumn string
}

func (d SQLDialect) WriteKey(sb *strings.Builder, key Key) {
	sb.WriteString("JSON_VALUE(")
	sb.WriteString(d.MetadataColumn)
	sb.WriteString(", '$.")
	sb.WriteString(key.Name)
	sb.WriteString("')")
}

func (d SQLDialect) WriteGroupStart(sb *strings.Builder) { sb.WriteByte('(') }
func (d SQLDialect) WriteGroupEnd(sb *strings.Builder)   { sb.WriteByte(')') }

func (d SQLDialect) WriteRangeStart(sb *strings.Builder)     { sb.WriteByte('(') }
func (d SQLDialect) WriteRangeEnd(sb *strings.Builder)       { sb.WriteByte(')') }
func (d SQLDialect) WriteRangeSeparator(sb *strings.Builder) { sb.WriteByte(',') }

// NewSQLConverter returns a converter emitting MariaDB SQL predicates with
// metadata lookups against the given column.
func NewSQLConverter(metadataColumn string) *Converter {
	return NewConverter(SQLDialect{MetadataColumn: metadataColumn})
}

// ToSQL compiles a metadata filter (map syntax or a prebuilt tree) and
// renders it as a SQL predicate against the given metadata column.
func ToSQL(f any, metadataColumn string) (string, error) {
	expr, err := Compile(f)
	if err != nil {
		return "", err
	}
	return NewSQLConverter(metadataColumn).ConvertOperand(expr)
}
