package persistence

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortSpec whitelists the columns a list endpoint may order by. Anything
// else, including injection attempts, falls back to the default column.
type sortSpec struct {
	columns  map[string]struct{}
	fallback string
}

func newSortSpec(fallback string, columns ...string) sortSpec {
	spec := sortSpec{columns: make(map[string]struct{}, len(columns)), fallback: fallback}
	for _, c := range columns {
		spec.columns[c] = struct{}{}
	}
	return spec
}

// productSort covers the product list.
var productSort = newSortSpec("created_at",
	"id", "created_at", "updated_at", "name", "sku", "product_type", "base_price", "quantity")

// column resolves a requested sort field.
func (s sortSpec) column(field string) string {
	field = strings.TrimSpace(field)
	if _, ok := s.columns[field]; ok {
		return field
	}
	return s.fallback
}

// descending reports whether dir asks for a descending sort. Only "asc"
// (any case) sorts ascending.
func descending(dir string) bool {
	return !strings.EqualFold(strings.TrimSpace(dir), "asc")
}

// apply orders query by the resolved column, breaking ties on id so that
// pages are stable.
func (s sortSpec) apply(query *gorm.DB, field, dir string) *gorm.DB {
	desc := descending(dir)
	return query.
		Order(clause.OrderByColumn{Column: clause.Column{Name: s.column(field)}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc})
}
