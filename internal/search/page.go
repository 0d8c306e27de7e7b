package search

// DefaultPageSize is the page size used when a screen does not choose one.
const DefaultPageSize = 20

// Request is the canonical request handed to the search capability.
type Request struct {
	Query   Query
	Filters FilterSet
	Offset  int
	Limit   int
}

// Page is the unified {items, totalCount} contract every backend adapter returns.
type Page[T any] struct {
	Items      []T `json:"items"       yaml:"items"`
	TotalCount int `json:"total_count" yaml:"total_count"`
}

// TotalPages returns ceil(totalCount/pageSize), or 0 when either is non-positive.
func TotalPages(totalCount, pageSize int) int {
	if totalCount <= 0 || pageSize <= 0 {
		return 0
	}
	pages := totalCount / pageSize
	if totalCount%pageSize > 0 {
		pages++
	}
	return pages
}

// PageOffset returns the row offset of a zero-based page index.
func PageOffset(pageIndex, pageSize int) int {
	if pageIndex <= 0 || pageSize <= 0 {
		return 0
	}
	return pageIndex * pageSize
}

// ValidPage reports whether pageIndex addresses an existing page.
func ValidPage(pageIndex, totalCount, pageSize int) bool {
	return pageIndex >= 0 && pageIndex < TotalPages(totalCount, pageSize)
}
