// Package search implements the per-screen search, filter and pagination controller.
//
// A Controller owns the query text, the structured filters, the page cursor and the
// current result set of one admin screen, and reconciles them against an injected
// asynchronous search capability (a Func). Key behaviors:
//   - Query text is debounced; filters and page changes fetch immediately
//   - Wildcard queries are normalized into a backend pattern and a SearchType
//   - Every fetch carries a sequence number and only the latest dispatch is applied
//   - Failures never escape: they become the error state with an empty result set
//
// Each screen owns an independent Controller; there is no package-level state.
package search
