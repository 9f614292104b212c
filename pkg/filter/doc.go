// Package filter provides a composable metadata-filter expression system
// that compiles to SQL boolean predicates.
//
// Filters can be built two ways: through the fluent constructors (Eq, Gt,
// Includes, Both, Either, ...) or from a nested map in the common NoSQL
// query syntax:
//
//	{"name": "adam"}
//	{"id": {"$gt": 1}}
//	{"$or": [{"id": 1}, {"id": 2}]}
//	{"$not": {"height": {"$gt": 5.0}}}
//
// Both forms normalize to the same expression tree, which a Converter then
// renders into a SQL fragment such as:
//
//	JSON_VALUE(metadata, '$.id') > 1 AND JSON_VALUE(metadata, '$.is_active') = true
//
// The rendered string is a bare predicate: callers splice it behind their
// own WHERE/AND clause. Nothing in this package touches a database.
//
// Expression trees are immutable once constructed. Every transformation,
// including negation pushdown, allocates new nodes, so trees may be shared
// and rendered concurrently without coordination.
package filter
