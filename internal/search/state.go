package search

// State is the lifecycle state of a Controller.
type State int

// Controller states.
const (
	// StateIdle means no search has been performed (or the query was cleared).
	StateIdle State = iota
	// StateLoading means the latest dispatched fetch is in flight.
	StateLoading
	// StateLoaded means the result set holds the latest completed fetch, possibly empty.
	StateLoaded
	// StateError means the latest fetch failed; the result set is empty.
	StateError
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot is a consistent, host-visible copy of a controller's state.
type Snapshot[T any] struct {
	// Version increases on every change; hosts may drop snapshots older than the last seen.
	Version uint64 `json:"-" yaml:"-"`

	State      State     `json:"state"       yaml:"state"`
	Query      Query     `json:"query"       yaml:"query"`
	Filters    FilterSet `json:"-"           yaml:"-"`
	PageIndex  int       `json:"page_index"  yaml:"page_index"`
	PageSize   int       `json:"page_size"   yaml:"page_size"`
	TotalCount int       `json:"total_count" yaml:"total_count"`
	TotalPages int       `json:"total_pages" yaml:"total_pages"`
	Items      []T       `json:"items"       yaml:"items"`
	Err        error     `json:"-"           yaml:"-"`
}

// HasError reports whether the last fetch failed and a retry affordance should be shown.
func (s Snapshot[T]) HasError() bool {
	return s.State == StateError
}

// HasNext reports whether a next page exists.
func (s Snapshot[T]) HasNext() bool {
	return s.PageIndex+1 < s.TotalPages
}

// HasPrevious reports whether a previous page exists.
func (s Snapshot[T]) HasPrevious() bool {
	return s.PageIndex > 0
}
