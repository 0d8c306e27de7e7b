package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const truncateSuffix = "…"

// Column describes one rendered field of a row type.
type Column[T any] struct {
	Title string
	Width int
	Value func(T) string
}

// Headers returns the column titles.
func Headers[T any](cols []Column[T]) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Title
	}
	return out
}

// Cells returns item's values in column order.
func Cells[T any](cols []Column[T], item T) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Value(item)
	}
	return out
}

// FormatRow lays cells out in fixed-width columns separated by two spaces.
func FormatRow[T any](cols []Column[T], cells []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = Fit(cell, c.Width)
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

// Fit pads or truncates s to exactly width display cells. Newlines become spaces.
func Fit(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if width <= 0 {
		return s
	}
	if lipgloss.Width(s) > width {
		r := []rune(s)
		for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
			r = r[:len(r)-1]
		}
		s = string(r) + truncateSuffix
	}
	return s + strings.Repeat(" ", max(width-lipgloss.Width(s), 0))
}
