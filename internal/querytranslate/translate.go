// Package querytranslate turns a validated queryparse.Node AST into a
// parameterized Postgres predicate plus count/page query forms, ported from
// original_source's query/executor.rs. The target store is Postgres (the
// teacher's pgx/sqlx stack), so the regex operator compiles to Postgres's
// native `~*` rather than a portable substring fallback (DESIGN.md open
// question #4).
package querytranslate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tetrabit/cardcache/internal/queryparse"
)

// textFields maps a canonical text field name to its backing column, for
// the fields that get full-text/equality/regex treatment.
var textFields = map[string]string{
	"name":   "name",
	"oracle": "oracle_text",
	"type":   "type_line",
}

// equalityFields are matched with plain case-insensitive equality.
var equalityFields = map[string]string{
	"set":    "set_code",
	"rarity": "rarity",
}

// numericFields map to their (possibly textual) backing column, cast to
// double precision for comparison.
var numericFields = map[string]string{
	"cmc":       "cmc",
	"power":     "power",
	"toughness": "toughness",
	"loyalty":   "loyalty",
}

// colorFields map to their backing text[] column.
var colorFields = map[string]string{
	"color":          "colors",
	"colors":         "colors",
	"color_identity": "color_identity",
}

// auxiliaryFields are accepted by the validator but have no dedicated
// column; they are matched against the raw upstream JSON passthrough
// document so the query language can still filter on them.
var auxiliaryFields = map[string]string{
	"artist": "artist",
	"flavor": "flavor_text",
	"border": "border_color",
	"frame":  "frame",
	"layout": "layout",
}

// builder accumulates parameters and renumbers placeholders as predicate
// fragments are assembled, so Predicate(A and B).Params ==
// Predicate(A).Params ++ Predicate(B).Params with consistent numbering.
type builder struct {
	params []any
}

func (b *builder) bind(v any) string {
	b.params = append(b.params, v)
	return "$" + strconv.Itoa(len(b.params))
}

// Predicate is a parameterized boolean expression over the cards table.
type Predicate struct {
	SQL    string
	Params []any
}

// Translate converts node into a Predicate. It never returns a
// syntactically invalid predicate: unrecognized color values fall back to a
// "no color" clause rather than erroring.
func Translate(node *queryparse.Node) (*Predicate, error) {
	b := &builder{}
	sql, err := b.node(node)
	if err != nil {
		return nil, err
	}
	return &Predicate{SQL: sql, Params: b.params}, nil
}

func (b *builder) node(n *queryparse.Node) (string, error) {
	switch n.Kind {
	case queryparse.KindAnd:
		return b.join(n.Children, " AND ")
	case queryparse.KindOr:
		return b.join(n.Children, " OR ")
	case queryparse.KindNot:
		inner, err := b.node(n.Children[0])
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	case queryparse.KindFilter:
		return b.filter(n.Filter)
	default:
		return "", fmt.Errorf("querytranslate: unknown node kind %v", n.Kind)
	}
}

func (b *builder) join(children []*queryparse.Node, sep string) (string, error) {
	parts := make([]string, 0, len(children))
	for _, c := range children {
		p, err := b.node(c)
		if err != nil {
			return "", err
		}
		parts = append(parts, p)
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

func (b *builder) filter(f *queryparse.Filter) (string, error) {
	field := strings.ToLower(f.Field)

	if col, ok := textFields[field]; ok {
		return b.textFilter(col, f), nil
	}
	if col, ok := equalityFields[field]; ok {
		return fmt.Sprintf("lower(%s) = lower(%s)", col, b.bind(f.Value)), nil
	}
	if col, ok := numericFields[field]; ok {
		return b.numericFilter(col, f)
	}
	if col, ok := colorFields[field]; ok {
		return b.colorFilter(col, f), nil
	}
	if key, ok := auxiliaryFields[field]; ok {
		return b.auxiliaryFilter(key, f), nil
	}
	return "", fmt.Errorf("querytranslate: unsupported field %q", f.Field)
}

// textFilter handles name/oracle/type. Contains uses a full-text search
// over plainto_tsquery; equality and regex are case-insensitive.
func (b *builder) textFilter(col string, f *queryparse.Filter) string {
	switch f.Operator {
	case queryparse.Equal:
		return fmt.Sprintf("lower(%s) = lower(%s)", col, b.bind(f.Value))
	case queryparse.NotEqual:
		return fmt.Sprintf("lower(%s) != lower(%s)", col, b.bind(f.Value))
	case queryparse.Regex:
		return fmt.Sprintf("%s ~* %s", col, b.bind(f.Value))
	default: // Contains
		return fmt.Sprintf("to_tsvector('english', coalesce(%s, '')) @@ plainto_tsquery('english', %s)", col, b.bind(f.Value))
	}
}

// numericTextColumns are the numeric fields backed by a TEXT column (power,
// toughness, loyalty accept values like "*" or "X" upstream), so they need
// the nullif(..., '')::text guard before the cast. cmc is already
// DOUBLE PRECISION (migration 00001_cards.sql) and must not be wrapped in
// ::text, or nullif's untyped '' literal fails to coerce at evaluation.
var numericTextColumns = map[string]bool{
	"power":     true,
	"toughness": true,
	"loyalty":   true,
}

// numericFilter coerces the backing column to double precision and applies
// the filter's comparison operator directly; the value itself is parsed
// here so a malformed numeric literal fails translation rather than the
// database.
func (b *builder) numericFilter(col string, f *queryparse.Filter) (string, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(f.Value), 64)
	if err != nil {
		return "", fmt.Errorf("querytranslate: %s requires a numeric value, got %q", f.Field, f.Value)
	}
	op := f.Operator.String()
	switch f.Operator {
	case queryparse.Contains:
		op = "="
	}
	if numericTextColumns[col] {
		return fmt.Sprintf("cast(nullif(%s, '')::text as double precision) %s %s", col, op, b.bind(n)), nil
	}
	return fmt.Sprintf("cast(%s as double precision) %s %s", col, op, b.bind(n)), nil
}

// colorFilter reproduces original_source's build_color_clause /
// build_color_identity_clause truncation bug faithfully (DESIGN.md open
// question #2): the value is decoded into an ordered list of color codes,
// but only the first one is ever bound as a parameter.
func (b *builder) colorFilter(col string, f *queryparse.Filter) string {
	codes := decodeColors(f.Value)
	if len(codes) == 0 {
		return fmt.Sprintf("coalesce(array_length(%s, 1), 0) = 0", col)
	}
	placeholder := b.bind(codes[0])
	if f.Operator == queryparse.NotEqual {
		return fmt.Sprintf("NOT (%s = ANY(%s))", placeholder, col)
	}
	return fmt.Sprintf("%s = ANY(%s)", placeholder, col)
}

// decodeColors maps each character of value to its uppercase WUBRG/C code,
// skipping anything outside the accepted alphabet (the validator already
// rejects such values before translation is reached in the HTTP path, but
// translation stays defensive for direct callers).
func decodeColors(value string) []string {
	var codes []string
	for _, ch := range strings.ToLower(value) {
		switch ch {
		case 'w':
			codes = append(codes, "W")
		case 'u':
			codes = append(codes, "U")
		case 'b':
			codes = append(codes, "B")
		case 'r':
			codes = append(codes, "R")
		case 'g':
			codes = append(codes, "G")
		case 'c':
			codes = append(codes, "C")
		}
	}
	return codes
}

// auxiliaryFilter matches passthrough fields that have no dedicated column
// against the raw upstream JSON document.
func (b *builder) auxiliaryFilter(jsonKey string, f *queryparse.Filter) string {
	expr := fmt.Sprintf("raw_json->>'%s'", jsonKey)
	switch f.Operator {
	case queryparse.Equal:
		return fmt.Sprintf("lower(%s) = lower(%s)", expr, b.bind(f.Value))
	case queryparse.NotEqual:
		return fmt.Sprintf("lower(%s) != lower(%s)", expr, b.bind(f.Value))
	case queryparse.Regex:
		return fmt.Sprintf("%s ~* %s", expr, b.bind(f.Value))
	default: // Contains
		return fmt.Sprintf("%s ILIKE '%%' || %s || '%%'", expr, b.bind(f.Value))
	}
}
