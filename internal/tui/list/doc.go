// Package listview renders a scrolling cursor over a page of rows for Bubble Tea
// screens. Only the rows inside the viewport are rendered.
package listview
