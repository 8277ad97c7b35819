// Package queryparse tokenizes and parses the Scryfall-like query language
// into an AST, ported from original_source's query/parser.rs field for
// field, including its whitespace tokenizer and recursive-descent grammar.
package queryparse

import "fmt"

// Operator is one of the filter comparison operators.
type Operator int

const (
	Equal Operator = iota
	NotEqual
	GreaterThan
	LessThan
	GreaterThanOrEqual
	LessThanOrEqual
	Contains
	Regex
)

func (o Operator) String() string {
	switch o {
	case Equal:
		return "="
	case NotEqual:
		return "!="
	case GreaterThan:
		return ">"
	case LessThan:
		return "<"
	case GreaterThanOrEqual:
		return ">="
	case LessThanOrEqual:
		return "<="
	case Contains:
		return ":"
	case Regex:
		return "~"
	default:
		return "?"
	}
}

// Filter is a single field/operator/value leaf.
type Filter struct {
	Field    string
	Operator Operator
	Value    string
}

// NodeKind discriminates Node's variant, since Go has no sum types.
type NodeKind int

const (
	KindAnd NodeKind = iota
	KindOr
	KindNot
	KindFilter
)

// Node is one AST node: And/Or carry Children, Not carries exactly one
// Children entry, Filter carries a non-nil Filter.
type Node struct {
	Kind     NodeKind
	Children []*Node
	Filter   *Filter
}

func and(nodes []*Node) *Node    { return &Node{Kind: KindAnd, Children: nodes} }
func or(nodes []*Node) *Node     { return &Node{Kind: KindOr, Children: nodes} }
func not(n *Node) *Node          { return &Node{Kind: KindNot, Children: []*Node{n}} }
func filterNode(f Filter) *Node  { return &Node{Kind: KindFilter, Filter: &f} }

func (n *Node) String() string {
	switch n.Kind {
	case KindFilter:
		return fmt.Sprintf("%s%s%s", n.Filter.Field, n.Filter.Operator, n.Filter.Value)
	case KindNot:
		return "NOT " + n.Children[0].String()
	case KindAnd:
		return joinNodes(n.Children, " AND ")
	case KindOr:
		return joinNodes(n.Children, " OR ")
	default:
		return ""
	}
}

func joinNodes(nodes []*Node, sep string) string {
	s := ""
	for i, n := range nodes {
		if i > 0 {
			s += sep
		}
		s += n.String()
	}
	return s
}
