package shared

// Filter represents list query options. Filters holds exact-match column
// predicates that the repository whitelists.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]any
}

// Offset returns the row offset for the filter's page, or 0 when unpaginated
func (f Filter) Offset() int {
	if f.Page <= 1 || f.PageSize <= 0 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
