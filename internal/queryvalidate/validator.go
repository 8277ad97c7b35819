// Package queryvalidate enforces the query language's field whitelist,
// operator/field compatibility, color alphabet, and complexity limits,
// ported from original_source's query/validator.rs.
package queryvalidate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tetrabit/cardcache/internal/queryparse"
)

// ErrInvalid wraps every error this package returns, so callers can
// distinguish a too-long/too-complex/out-of-whitelist query from a parse
// failure or an infrastructure error without string-matching messages.
var ErrInvalid = errors.New("query validation failed")

// validFields is the closed set of filterable field names.
var validFields = map[string]bool{
	"name": true, "type": true, "oracle": true, "color": true, "colors": true,
	"cmc": true, "mana": true, "power": true, "toughness": true, "set": true,
	"rarity": true, "artist": true, "flavor": true, "border": true,
	"frame": true, "layout": true, "loyalty": true, "color_identity": true,
}

// numericFields support the ordering operators (>, <, >=, <=).
var numericFields = map[string]bool{
	"cmc": true, "power": true, "toughness": true, "loyalty": true,
}

// validColors is the WUBRG-plus-colorless alphabet accepted in color/colors
// filter values, lowercase as original_source compares case-insensitively.
var validColors = map[rune]bool{
	'w': true, 'u': true, 'b': true, 'r': true, 'g': true, 'c': true,
}

// Limits bounds query string size and AST complexity (SPEC_FULL.md §6.5).
type Limits struct {
	MaxQueryLength  int
	MaxNestingDepth int
	MaxOrClauses    int
}

// Validator checks query strings and ASTs against Limits.
type Validator struct {
	limits Limits
}

// New builds a Validator for the given Limits.
func New(limits Limits) *Validator {
	return &Validator{limits: limits}
}

// ValidateQueryString checks the raw query text's length and parenthesis
// balance before it is ever tokenized. Unbalanced-parenthesis errors also
// wrap queryparse.ErrSyntax, so callers classify them as parse failures.
func (v *Validator) ValidateQueryString(query string) error {
	if len(query) > v.limits.MaxQueryLength {
		return fmt.Errorf("%w: query too long: maximum %d characters allowed, got %d", ErrInvalid, v.limits.MaxQueryLength, len(query))
	}

	depth := 0
	for _, ch := range query {
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return fmt.Errorf("%w: %w: unbalanced parentheses: too many closing parentheses", ErrInvalid, queryparse.ErrSyntax)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("%w: %w: unbalanced parentheses: %d unclosed parentheses", ErrInvalid, queryparse.ErrSyntax, depth)
	}
	return nil
}

// ValidateAST checks nesting depth, OR-clause count, and every filter leaf.
func (v *Validator) ValidateAST(node *queryparse.Node) error {
	if depth := calculateDepth(node); depth > v.limits.MaxNestingDepth {
		return fmt.Errorf("%w: query too complex: maximum nesting depth is %d, got %d", ErrInvalid, v.limits.MaxNestingDepth, depth)
	}
	if orCount := countOrClauses(node); orCount > v.limits.MaxOrClauses {
		return fmt.Errorf("%w: query too complex: maximum %d OR clauses allowed, got %d", ErrInvalid, v.limits.MaxOrClauses, orCount)
	}
	return v.validateNode(node)
}

func (v *Validator) validateNode(node *queryparse.Node) error {
	switch node.Kind {
	case queryparse.KindAnd, queryparse.KindOr:
		for _, child := range node.Children {
			if err := v.validateNode(child); err != nil {
				return err
			}
		}
	case queryparse.KindNot:
		return v.validateNode(node.Children[0])
	case queryparse.KindFilter:
		return v.ValidateFilter(node.Filter)
	}
	return nil
}

// ValidateFilter checks one leaf's field name, operator/field compatibility,
// and (for color/colors fields) its value's color alphabet.
func (v *Validator) ValidateFilter(f *queryparse.Filter) error {
	field := strings.ToLower(f.Field)

	if !validFields[field] {
		return fmt.Errorf("%w: invalid field name '%s'", ErrInvalid, f.Field)
	}

	if !numericFields[field] {
		switch f.Operator {
		case queryparse.GreaterThan, queryparse.LessThan, queryparse.GreaterThanOrEqual, queryparse.LessThanOrEqual:
			return fmt.Errorf("%w: operator '%s' not valid for text field '%s': numeric operators only work with cmc, power, toughness, loyalty", ErrInvalid, f.Operator, f.Field)
		}
	}

	if field == "color" || field == "colors" {
		for _, ch := range f.Value {
			if !validColors[toLowerRune(ch)] {
				return fmt.Errorf("%w: invalid color code '%c' in value '%s'", ErrInvalid, ch, f.Value)
			}
		}
	}

	return nil
}

func toLowerRune(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}

func calculateDepth(node *queryparse.Node) int {
	switch node.Kind {
	case queryparse.KindAnd, queryparse.KindOr:
		max := 0
		for _, child := range node.Children {
			if d := calculateDepth(child); d > max {
				max = d
			}
		}
		return 1 + max
	case queryparse.KindNot:
		return 1 + calculateDepth(node.Children[0])
	default:
		return 1
	}
}

func countOrClauses(node *queryparse.Node) int {
	switch node.Kind {
	case queryparse.KindOr:
		total := 1
		for _, child := range node.Children {
			total += countOrClauses(child)
		}
		return total
	case queryparse.KindAnd:
		total := 0
		for _, child := range node.Children {
			total += countOrClauses(child)
		}
		return total
	case queryparse.KindNot:
		return countOrClauses(node.Children[0])
	default:
		return 0
	}
}
