// Package backend maps the vegan-checker admin procedures onto typed Go records.
//
// Each list screen is served by a method with the search.Func signature, so a
// search.Controller can drive it directly. The heterogeneous response shapes of the
// backend (bare arrays with no total, or envelopes carrying total_count) are
// unified into search.Page. Mutations publish an events.Event on success and are
// recorded in the audit log when one is attached to the context.
package backend
