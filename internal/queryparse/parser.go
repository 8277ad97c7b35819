package queryparse

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSyntax wraps every error ParseExpression/Parse returns, so callers can
// distinguish a malformed query string from validation or infrastructure
// failures without string-matching messages.
var ErrSyntax = errors.New("query syntax error")

// Parser turns a tokenized query string into an AST via recursive descent.
type Parser struct {
	tokens   []string
	position int
}

// New tokenizes query and returns a ready-to-parse Parser.
func New(query string) *Parser {
	return &Parser{tokens: tokenize(query)}
}

// Parse tokenizes and parses query in one call.
func Parse(query string) (*Node, error) {
	return New(query).ParseExpression()
}

// tokenize splits on whitespace and parens, respecting double-quoted
// substrings as single tokens, matching original_source's tokenize().
func tokenize(query string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, ch := range query {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
			current.WriteRune(ch)
		case ch == ' ' && !inQuotes:
			flush()
		case (ch == '(' || ch == ')') && !inQuotes:
			flush()
			tokens = append(tokens, string(ch))
		default:
			current.WriteRune(ch)
		}
	}
	flush()
	return tokens
}

func (p *Parser) current() (string, bool) {
	if p.position >= len(p.tokens) {
		return "", false
	}
	return p.tokens[p.position], true
}

func (p *Parser) advance() { p.position++ }

// ParseExpression parses the full OR-level expression.
func (p *Parser) ParseExpression() (*Node, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (*Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for {
		tok, ok := p.current()
		if !ok || !strings.EqualFold(tok, "or") {
			break
		}
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		if left.Kind == KindOr {
			left.Children = append(left.Children, right)
		} else {
			left = or([]*Node{left, right})
		}
	}
	return left, nil
}

func (p *Parser) parseAnd() (*Node, error) {
	first, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	terms := []*Node{first}

	for {
		tok, ok := p.current()
		if !ok || tok == ")" || strings.EqualFold(tok, "or") {
			break
		}
		if strings.EqualFold(tok, "and") {
			p.advance()
		}
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}

	if len(terms) == 1 {
		return terms[0], nil
	}
	return and(terms), nil
}

func (p *Parser) parseTerm() (*Node, error) {
	tok, ok := p.current()
	if !ok {
		return nil, fmt.Errorf("%w: unexpected end of query", ErrSyntax)
	}

	if tok == "(" {
		p.advance()
		expr, err := p.ParseExpression()
		if err != nil {
			return nil, err
		}
		if tok, ok := p.current(); ok && tok == ")" {
			p.advance()
		}
		return expr, nil
	}

	if strings.EqualFold(tok, "not") || tok == "-" {
		p.advance()
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return not(term), nil
	}

	// A leading dash glued to its term ("-c:red") negates it too.
	if len(tok) > 1 && strings.HasPrefix(tok, "-") {
		p.tokens[p.position] = tok[1:]
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return not(term), nil
	}

	return p.parseFilter()
}

func (p *Parser) parseFilter() (*Node, error) {
	tok, ok := p.current()
	if !ok {
		return nil, fmt.Errorf("%w: expected filter", ErrSyntax)
	}
	p.advance()

	if field, rest, found := strings.Cut(tok, ":"); found {
		op, value := parseOperatorAndValue(rest)
		return filterNode(Filter{
			Field:    normalizeField(field),
			Operator: op,
			Value:    strings.Trim(value, `"`),
		}), nil
	}

	return filterNode(Filter{
		Field:    "name",
		Operator: Contains,
		Value:    strings.Trim(tok, `"`),
	}), nil
}

func parseOperatorAndValue(s string) (Operator, string) {
	switch {
	case strings.HasPrefix(s, ">="):
		return GreaterThanOrEqual, s[2:]
	case strings.HasPrefix(s, "<="):
		return LessThanOrEqual, s[2:]
	case strings.HasPrefix(s, ">"):
		return GreaterThan, s[1:]
	case strings.HasPrefix(s, "<"):
		return LessThan, s[1:]
	case strings.HasPrefix(s, "!="):
		return NotEqual, s[2:]
	case strings.HasPrefix(s, "="):
		return Equal, s[1:]
	case len(s) > 2 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/"):
		return Regex, s[1 : len(s)-1]
	default:
		return Contains, s
	}
}

func normalizeField(field string) string {
	switch strings.ToLower(field) {
	case "c":
		return "color"
	case "id", "identity":
		return "color_identity"
	case "t", "type_line":
		return "type"
	case "o", "oracle_text":
		return "oracle"
	case "s":
		return "set"
	case "r":
		return "rarity"
	case "pow":
		return "power"
	case "tou":
		return "toughness"
	case "loy":
		return "loyalty"
	case "mana":
		return "cmc"
	default:
		return field
	}
}
