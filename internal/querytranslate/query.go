package querytranslate

import (
	"strconv"

	"github.com/tetrabit/cardcache/internal/queryparse"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 100
	MinPageSize     = 1
	MaxPageSize     = 1000
)

// Paginated is the two query forms SPEC_FULL.md §4.6 derives from one AST:
// a counting form and an ordered, limited/offset page form sharing the same
// WHERE predicate.
type Paginated struct {
	CountSQL    string
	CountParams []any
	PageSQL     string
	PageParams  []any
	Page        int
	PageSize    int
}

// ClampPage normalizes page to its 1-based default and pageSize to
// [MinPageSize, MaxPageSize], defaulting to DefaultPageSize.
func ClampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize < MinPageSize {
		pageSize = MinPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// BuildPaginated translates node and assembles the counting and page SQL
// forms, ordering by name ascending with id as a tiebreaker to keep paging
// stable across ties.
func BuildPaginated(node *queryparse.Node, page, pageSize int) (*Paginated, error) {
	pred, err := Translate(node)
	if err != nil {
		return nil, err
	}
	page, pageSize = ClampPage(page, pageSize)
	offset := (page - 1) * pageSize

	pageParams := append(append([]any{}, pred.Params...), pageSize, offset)
	limitPlaceholder := "$" + strconv.Itoa(len(pred.Params)+1)
	offsetPlaceholder := "$" + strconv.Itoa(len(pred.Params)+2)

	return &Paginated{
		CountSQL:    pred.SQL,
		CountParams: pred.Params,
		PageSQL:     pred.SQL + " ORDER BY name ASC, id ASC LIMIT " + limitPlaceholder + " OFFSET " + offsetPlaceholder,
		PageParams:  pageParams,
		Page:        page,
		PageSize:    pageSize,
	}, nil
}

// BuildSearch translates node for the unpaginated search path
// (internal/cachemanager's Search), capped at limit results ordered by name.
func BuildSearch(node *queryparse.Node, limit int) (*Predicate, string, error) {
	pred, err := Translate(node)
	if err != nil {
		return nil, "", err
	}
	return pred, "ORDER BY name ASC, id ASC LIMIT " + strconv.Itoa(limit), nil
}

// TotalPages computes the page count for total items at pageSize per page.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	if total <= 0 {
		return 0
	}
	pages := total / pageSize
	if total%pageSize != 0 {
		pages++
	}
	return pages
}
