package queryparse_test

import (
	"testing"

	"github.com/tetrabit/cardcache/internal/queryparse"
)

func TestParseSimpleFilterDefaultsToName(t *testing.T) {
	node, err := queryparse.Parse("name:lightning")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if node.Kind != queryparse.KindFilter {
		t.Fatalf("expected a filter node, got kind %v", node.Kind)
	}
	if node.Filter.Field != "name" || node.Filter.Value != "lightning" {
		t.Fatalf("got %+v", node.Filter)
	}
}

func TestParseBareTokenDefaultsToNameContains(t *testing.T) {
	node, err := queryparse.Parse("lightning")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if node.Filter.Field != "name" || node.Filter.Operator != queryparse.Contains {
		t.Fatalf("got %+v", node.Filter)
	}
}

func TestParseAndCombinesAdjacentTerms(t *testing.T) {
	node, err := queryparse.Parse("c:red t:creature")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if node.Kind != queryparse.KindAnd || len(node.Children) != 2 {
		t.Fatalf("expected a 2-child And node, got %+v", node)
	}
}

func TestParseOrCombinesClauses(t *testing.T) {
	node, err := queryparse.Parse("c:red or c:blue")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if node.Kind != queryparse.KindOr || len(node.Children) != 2 {
		t.Fatalf("expected a 2-child Or node, got %+v", node)
	}
}

func TestParseComparisonOperator(t *testing.T) {
	node, err := queryparse.Parse("cmc:>=3")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if node.Filter.Field != "cmc" || node.Filter.Operator != queryparse.GreaterThanOrEqual || node.Filter.Value != "3" {
		t.Fatalf("got %+v", node.Filter)
	}
}

func TestParseNotNormalizesFieldAlias(t *testing.T) {
	node, err := queryparse.Parse("not c:red")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if node.Kind != queryparse.KindNot {
		t.Fatalf("expected a Not node, got %+v", node)
	}
	inner := node.Children[0]
	if inner.Filter.Field != "color" || inner.Filter.Value != "red" {
		t.Fatalf("got %+v", inner.Filter)
	}
}

func TestParseDashAsNotAlias(t *testing.T) {
	node, err := queryparse.Parse("-c:red")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if node.Kind != queryparse.KindNot {
		t.Fatalf("expected a Not node, got %+v", node)
	}
}

func TestParseParenthesizedGrouping(t *testing.T) {
	node, err := queryparse.Parse("(c:red or c:blue) t:creature")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if node.Kind != queryparse.KindAnd || len(node.Children) != 2 {
		t.Fatalf("expected a 2-child And node, got %+v", node)
	}
	if node.Children[0].Kind != queryparse.KindOr {
		t.Fatalf("expected first child to be the parenthesized Or, got %+v", node.Children[0])
	}
}

func TestParseRegexOperator(t *testing.T) {
	node, err := queryparse.Parse("o:/draw.a.card/")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if node.Filter.Operator != queryparse.Regex || node.Filter.Value != "draw.a.card" {
		t.Fatalf("got %+v", node.Filter)
	}
}

func TestParseFieldAliases(t *testing.T) {
	cases := map[string]string{
		"c:red":        "color",
		"id:gw":        "color_identity",
		"identity:gw":  "color_identity",
		"t:creature":   "type",
		"o:flying":     "oracle",
		"s:mh3":        "set",
		"r:mythic":     "rarity",
		"pow:>=4":      "power",
		"tou:>=4":      "toughness",
		"loy:>=3":      "loyalty",
	}
	for query, wantField := range cases {
		node, err := queryparse.Parse(query)
		if err != nil {
			t.Fatalf("Parse(%q): %v", query, err)
		}
		if node.Filter.Field != wantField {
			t.Errorf("Parse(%q).Field = %q, want %q", query, node.Filter.Field, wantField)
		}
	}
}

func TestParseQuotedValuePreservesSpaces(t *testing.T) {
	node, err := queryparse.Parse(`o:"draw a card"`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if node.Filter.Value != "draw a card" {
		t.Fatalf("got %q", node.Filter.Value)
	}
}
