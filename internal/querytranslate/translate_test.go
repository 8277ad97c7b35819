package querytranslate

import (
	"strings"
	"testing"

	"github.com/tetrabit/cardcache/internal/queryparse"
)

func mustParse(t *testing.T, q string) *queryparse.Node {
	t.Helper()
	node, err := queryparse.Parse(q)
	if err != nil {
		t.Fatalf("parse %q: %v", q, err)
	}
	return node
}

func TestTranslate_ColorFilter_UsesOnlyFirstCharacter(t *testing.T) {
	node := mustParse(t, "c:wu")
	pred, err := Translate(node)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if len(pred.Params) != 1 || pred.Params[0] != "W" {
		t.Fatalf("expected bug-compat single 'W' param, got %v", pred.Params)
	}
	if !strings.Contains(pred.SQL, "= ANY(colors)") {
		t.Fatalf("expected ANY(colors) predicate, got %q", pred.SQL)
	}
}

func TestTranslate_EmptyColorValue_NoColorPredicate(t *testing.T) {
	node := &queryparse.Node{
		Kind:   queryparse.KindFilter,
		Filter: &queryparse.Filter{Field: "color", Operator: queryparse.Contains, Value: ""},
	}
	pred, err := Translate(node)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if len(pred.Params) != 0 {
		t.Fatalf("expected no params for empty color value, got %v", pred.Params)
	}
	if !strings.Contains(pred.SQL, "array_length") {
		t.Fatalf("expected no-color fallback predicate, got %q", pred.SQL)
	}
}

func TestTranslate_AndParamsConcatenateInOrder(t *testing.T) {
	node := mustParse(t, "set:lea rarity:common")
	pred, err := Translate(node)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if len(pred.Params) != 2 || pred.Params[0] != "lea" || pred.Params[1] != "common" {
		t.Fatalf("unexpected params: %v", pred.Params)
	}
	if !strings.Contains(pred.SQL, "$1") || !strings.Contains(pred.SQL, "$2") {
		t.Fatalf("expected renumbered placeholders, got %q", pred.SQL)
	}
}

func TestTranslate_NotDoesNotChangeParams(t *testing.T) {
	plain, err := Translate(mustParse(t, "set:lea"))
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	negated, err := Translate(mustParse(t, "-set:lea"))
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if len(negated.Params) != len(plain.Params) {
		t.Fatalf("NOT changed param count: %v vs %v", plain.Params, negated.Params)
	}
	if !strings.HasPrefix(negated.SQL, "NOT (") {
		t.Fatalf("expected NOT-wrapped predicate, got %q", negated.SQL)
	}
}

func TestTranslate_NumericFilter(t *testing.T) {
	node := mustParse(t, "cmc:>=3")
	pred, err := Translate(node)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if len(pred.Params) != 1 || pred.Params[0] != 3.0 {
		t.Fatalf("expected numeric param 3.0, got %v", pred.Params)
	}
	if !strings.Contains(pred.SQL, ">=") {
		t.Fatalf("expected >= operator in sql, got %q", pred.SQL)
	}
}

// cmc is DOUBLE PRECISION (migration 00001_cards.sql); wrapping it in
// nullif(cmc, '')::text forces Postgres to coerce the untyped '' literal to
// double precision, which fails at evaluation. Only the TEXT-backed
// power/toughness/loyalty columns need that guard.
func TestTranslate_NumericFilter_CmcDoesNotTextCast(t *testing.T) {
	node := mustParse(t, "cmc:>=3")
	pred, err := Translate(node)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if strings.Contains(pred.SQL, "nullif(cmc") || strings.Contains(pred.SQL, "cmc, '')::text") {
		t.Fatalf("expected no text-cast guard on cmc, got %q", pred.SQL)
	}
	if !strings.Contains(pred.SQL, "cast(cmc as double precision)") {
		t.Fatalf("expected a plain numeric cast on cmc, got %q", pred.SQL)
	}
}

// power is TEXT (it can hold "*" or "X" upstream), so it still needs the
// nullif(..., '')::text guard before the numeric cast.
func TestTranslate_NumericFilter_PowerKeepsTextCast(t *testing.T) {
	node := mustParse(t, "power:>=3")
	pred, err := Translate(node)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if !strings.Contains(pred.SQL, "nullif(power, '')::text") {
		t.Fatalf("expected text-cast guard on power, got %q", pred.SQL)
	}
}

func TestTranslate_UnsupportedField(t *testing.T) {
	node := &queryparse.Node{
		Kind:   queryparse.KindFilter,
		Filter: &queryparse.Filter{Field: "nope", Operator: queryparse.Contains, Value: "x"},
	}
	if _, err := Translate(node); err == nil {
		t.Fatal("expected error for unsupported field")
	}
}

func TestBuildPaginated_DefaultsAndClamping(t *testing.T) {
	node := mustParse(t, "c:r")

	p, err := BuildPaginated(node, 0, 0)
	if err != nil {
		t.Fatalf("build paginated: %v", err)
	}
	if p.Page != DefaultPage || p.PageSize != DefaultPageSize {
		t.Fatalf("expected defaults, got page=%d pageSize=%d", p.Page, p.PageSize)
	}

	p2, err := BuildPaginated(node, 2, 5000)
	if err != nil {
		t.Fatalf("build paginated: %v", err)
	}
	if p2.PageSize != MaxPageSize {
		t.Fatalf("expected page size clamped to %d, got %d", MaxPageSize, p2.PageSize)
	}
	if len(p2.PageParams) != len(p2.CountParams)+2 {
		t.Fatalf("expected page params to extend count params by limit+offset")
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct{ total, size, want int }{
		{0, 10, 0}, {1, 10, 1}, {10, 10, 1}, {11, 10, 2}, {100, 10, 10},
	}
	for _, c := range cases {
		if got := TotalPages(c.total, c.size); got != c.want {
			t.Errorf("TotalPages(%d,%d) = %d, want %d", c.total, c.size, got, c.want)
		}
	}
}
