package search

import (
	"slices"
	"sort"
	"strings"
)

// FilterSet maps a filter dimension (e.g. "class", "primary_class") to its accepted
// values. A dimension with no values places no restriction on results.
//
// FilterSet is a value type: every mutating method returns a new set.
type FilterSet struct {
	dims map[string][]string
}

// NewFilterSet returns an empty FilterSet.
func NewFilterSet() FilterSet {
	return FilterSet{}
}

// ParseFilters builds a FilterSet from "dimension=value" expressions. Repeated
// dimensions accumulate values; a value list may also be comma separated.
func ParseFilters(exprs []string) (FilterSet, error) {
	fs := NewFilterSet()
	for _, expr := range exprs {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		dim, values, ok := strings.Cut(expr, "=")
		dim = strings.TrimSpace(dim)
		if !ok || dim == "" {
			return FilterSet{}, &FilterError{Expr: expr}
		}
		var parsed []string
		for _, v := range strings.Split(values, ",") {
			if v = strings.TrimSpace(v); v != "" {
				parsed = append(parsed, v)
			}
		}
		if len(parsed) == 0 {
			return FilterSet{}, &FilterError{Expr: expr}
		}
		fs = fs.With(dim, parsed...)
	}
	return fs, nil
}

// With returns a copy of fs with values added to dim.
func (fs FilterSet) With(dim string, values ...string) FilterSet {
	out := fs.Clone()
	if out.dims == nil {
		out.dims = make(map[string][]string)
	}
	merged := append(slices.Clone(out.dims[dim]), values...)
	sort.Strings(merged)
	out.dims[dim] = slices.Compact(merged)
	return out
}

// Without returns a copy of fs with dim removed.
func (fs FilterSet) Without(dim string) FilterSet {
	out := fs.Clone()
	delete(out.dims, dim)
	return out
}

// Values returns the sorted accepted values for dim, or nil when unrestricted.
func (fs FilterSet) Values(dim string) []string {
	return slices.Clone(fs.dims[dim])
}

// Dimensions returns the restricted dimensions in sorted order.
func (fs FilterSet) Dimensions() []string {
	dims := make([]string, 0, len(fs.dims))
	for dim, values := range fs.dims {
		if len(values) > 0 {
			dims = append(dims, dim)
		}
	}
	sort.Strings(dims)
	return dims
}

// IsEmpty reports whether no dimension is restricted.
func (fs FilterSet) IsEmpty() bool {
	return len(fs.Dimensions()) == 0
}

// Clone returns a deep copy of fs.
func (fs FilterSet) Clone() FilterSet {
	if fs.dims == nil {
		return FilterSet{}
	}
	out := FilterSet{dims: make(map[string][]string, len(fs.dims))}
	for dim, values := range fs.dims {
		out.dims[dim] = slices.Clone(values)
	}
	return out
}

// Equal reports whether both sets restrict the same dimensions to the same values.
func (fs FilterSet) Equal(other FilterSet) bool {
	dims := fs.Dimensions()
	if !slices.Equal(dims, other.Dimensions()) {
		return false
	}
	for _, dim := range dims {
		if !slices.Equal(fs.dims[dim], other.dims[dim]) {
			return false
		}
	}
	return true
}

// Map returns the restricted dimensions as a plain map, suitable for encoding.
func (fs FilterSet) Map() map[string][]string {
	out := make(map[string][]string)
	for _, dim := range fs.Dimensions() {
		out[dim] = fs.Values(dim)
	}
	return out
}

// String renders the set as "dim=v1,v2 dim2=v3".
func (fs FilterSet) String() string {
	parts := make([]string, 0, len(fs.dims))
	for _, dim := range fs.Dimensions() {
		parts = append(parts, dim+"="+strings.Join(fs.dims[dim], ","))
	}
	return strings.Join(parts, " ")
}
