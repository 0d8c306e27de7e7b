package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/yaml.v3"

	"github.com/veganchecker/vcadmin/internal/search"
	listview "github.com/veganchecker/vcadmin/internal/tui/list"
)

// Key bindings.
const (
	keyQuit     = "q"
	keyCtrlC    = "ctrl+c"
	keyEnter    = "enter"
	keyEsc      = "esc"
	keySlash    = "/"
	keyNext     = "n"
	keyPrev     = "p"
	keyRight    = "right"
	keyLeft     = "left"
	keyPgDown   = "pgdown"
	keyPgUp     = "pgup"
	keyRefresh  = "r"
	keyFilter   = "f"
	keyClearAll = "ctrl+u"
)

const (
	defaultWidth  = 120
	defaultHeight = 30

	// chromeHeight is the number of lines used by title, input, header, status and help.
	chromeHeight = 7
)

// RefreshMsg asks the browser to re-issue its current search, e.g. after a
// mutation event for the screen's entity.
type RefreshMsg struct{}

// changedMsg signals that the controller state changed.
type changedMsg struct{}

// Notifier bridges controller change callbacks into the Bubble Tea event loop.
// Notify never blocks; bursts of changes collapse into one message.
type Notifier struct {
	ch   chan struct{}
	done chan struct{}
}

// NewNotifier creates a Notifier. Pass Notify to search.WithOnChange.
func NewNotifier() *Notifier {
	return &Notifier{
		ch:   make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Notify records a change.
func (n *Notifier) Notify() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// Close releases a pending wait.
func (n *Notifier) Close() {
	select {
	case <-n.done:
	default:
		close(n.done)
	}
}

func (n *Notifier) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-n.ch:
			return changedMsg{}
		case <-n.done:
			return nil
		}
	}
}

// Browser is the interactive screen for one search controller: a query input,
// a scrolling page of results, page navigation and a detail pane.
type Browser[T any] struct {
	title    string
	ctrl     *search.Controller[T]
	notifier *Notifier
	columns  []Column[T]

	input textinput.Model
	list  *listview.Model[T]
	snap  search.Snapshot[T]

	// Filter editing is off until EnableFilters is called.
	filterInput  textinput.Model
	checkFilters func(search.FilterSet) error
	filterErr    error

	width      int
	height     int
	showDetail bool
	quitting   bool
}

// NewBrowser creates a browser over ctrl. The controller must have been created
// with search.WithOnChange(notifier.Notify).
func NewBrowser[T any](
	title string,
	ctrl *search.Controller[T],
	notifier *Notifier,
	columns []Column[T],
) *Browser[T] {
	input := textinput.New()
	input.Placeholder = "type to search, * or % as wildcard"
	input.Prompt = "search: "
	input.CharLimit = 200

	b := &Browser[T]{
		title:    title,
		ctrl:     ctrl,
		notifier: notifier,
		columns:  columns,
		input:    input,
		width:    defaultWidth,
		height:   defaultHeight,
		snap:     ctrl.Snapshot(),
	}
	b.input.SetValue(b.snap.Query.Raw)
	b.list = listview.New(b.snap.Items, b.listHeight(), b.width, b.renderRow)
	return b
}

// EnableFilters lets the user edit the filter set with the f key. Filters are
// typed as "dim=v1,v2 dim2=v3"; check rejects sets the screen cannot serve.
func (b *Browser[T]) EnableFilters(hint string, check func(search.FilterSet) error) *Browser[T] {
	input := textinput.New()
	input.Placeholder = hint
	input.Prompt = "filters: "
	input.CharLimit = 200
	input.Width = max(b.width-len(input.Prompt)-1, 0)

	b.filterInput = input
	b.checkFilters = check
	return b
}

// Init implements tea.Model.
func (b *Browser[T]) Init() tea.Cmd {
	return b.notifier.wait()
}

// Update implements tea.Model.
func (b *Browser[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width, b.height = msg.Width, msg.Height
		b.input.Width = max(b.width-len(b.input.Prompt)-1, 0)
		b.filterInput.Width = max(b.width-len(b.filterInput.Prompt)-1, 0)
		b.list.SetSize(b.listHeight(), b.width)
		return b, nil
	case changedMsg:
		b.applySnapshot()
		return b, b.notifier.wait()
	case RefreshMsg:
		b.ctrl.Refresh()
		return b, nil
	case tea.KeyMsg:
		if b.filterInput.Focused() {
			return b.handleFilterKey(msg)
		}
		if b.input.Focused() {
			return b.handleInputKey(msg)
		}
		return b.handleKey(msg)
	}
	return b, nil
}

func (b *Browser[T]) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyCtrlC:
		return b.quit()
	case keyEnter:
		b.input.Blur()
		b.ctrl.Flush()
		return b, nil
	case keyEsc:
		b.input.Blur()
		return b, nil
	}

	before := b.input.Value()
	var cmd tea.Cmd
	b.input, cmd = b.input.Update(msg)
	if b.input.Value() != before {
		b.ctrl.SetQuery(b.input.Value())
	}
	return b, cmd
}

func (b *Browser[T]) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyCtrlC:
		return b.quit()
	case keyEsc:
		b.filterInput.Blur()
		b.filterErr = nil
		return b, nil
	case keyEnter:
		filters, err := search.ParseFilters(strings.Fields(b.filterInput.Value()))
		if err == nil {
			err = b.checkFilters(filters)
		}
		if err != nil {
			b.filterErr = err
			return b, nil
		}
		b.filterInput.Blur()
		b.filterErr = nil
		b.ctrl.SetFilters(filters)
		return b, nil
	}

	var cmd tea.Cmd
	b.filterInput, cmd = b.filterInput.Update(msg)
	return b, cmd
}

func (b *Browser[T]) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyQuit, keyCtrlC:
		return b.quit()
	case keySlash:
		b.showDetail = false
		b.input.Focus()
		return b, textinput.Blink
	case keyFilter:
		if b.checkFilters == nil {
			return b, nil
		}
		b.showDetail = false
		b.filterErr = nil
		b.filterInput.Reset()
		b.filterInput.SetValue(b.snap.Filters.String())
		b.filterInput.Focus()
		return b, textinput.Blink
	case keyClearAll:
		b.input.SetValue("")
		b.ctrl.SetQuery("")
		return b, nil
	case keyNext, keyRight, keyPgDown:
		b.ctrl.NextPage()
		return b, nil
	case keyPrev, keyLeft, keyPgUp:
		b.ctrl.PreviousPage()
		return b, nil
	case keyRefresh:
		b.ctrl.Refresh()
		return b, nil
	case keyEnter:
		b.showDetail = b.list.SelectedItem() != nil && !b.showDetail
		return b, nil
	case keyEsc:
		b.showDetail = false
		return b, nil
	}

	b.list.Update(msg)
	return b, nil
}

func (b *Browser[T]) quit() (tea.Model, tea.Cmd) {
	b.quitting = true
	b.notifier.Close()
	return b, tea.Quit
}

func (b *Browser[T]) applySnapshot() {
	snap := b.ctrl.Snapshot()
	if snap.Version < b.snap.Version {
		return
	}
	if snap.PageIndex != b.snap.PageIndex || snap.Query.Pattern != b.snap.Query.Pattern ||
		!snap.Filters.Equal(b.snap.Filters) {
		b.list.SetSelected(0)
	}
	b.snap = snap
	b.list.SetItems(snap.Items)
	if len(snap.Items) == 0 {
		b.showDetail = false
	}
}

// Snapshot returns the state the browser last rendered.
func (b *Browser[T]) Snapshot() search.Snapshot[T] {
	return b.snap
}

func (b *Browser[T]) listHeight() int {
	return max(b.height-chromeHeight, 1)
}

func (b *Browser[T]) renderRow(item T, selected bool) string {
	line := FormatRow(b.columns, Cells(b.columns, item))
	if selected {
		return selectedStyle.Render("> " + line)
	}
	return "  " + line
}

// View implements tea.Model.
func (b *Browser[T]) View() string {
	if b.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(b.title))
	sb.WriteString("\n")
	sb.WriteString(b.input.View())
	sb.WriteString("\n")
	switch {
	case b.filterInput.Focused():
		sb.WriteString(b.filterInput.View())
		if b.filterErr != nil {
			sb.WriteString("  " + errorStyle.Render(b.filterErr.Error()))
		}
	case !b.snap.Filters.IsEmpty():
		sb.WriteString(labelStyle.Render("filters: " + b.snap.Filters.String()))
	}
	sb.WriteString("\n")

	if b.showDetail {
		sb.WriteString(b.detailView())
	} else {
		sb.WriteString(headerStyle.Render("  " + FormatRow(b.columns, Headers(b.columns))))
		sb.WriteString("\n")
		sb.WriteString(b.bodyView())
	}

	sb.WriteString("\n")
	sb.WriteString(StatusLine(b.snap))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render(b.help()))
	return sb.String()
}

func (b *Browser[T]) help() string {
	if b.checkFilters != nil {
		return "/ search · f filters · ↑/↓ move · n/p page · r refresh · enter details · q quit"
	}
	return "/ search · ↑/↓ move · n/p page · r refresh · enter details · q quit"
}

func (b *Browser[T]) bodyView() string {
	if b.list.ItemCount() > 0 {
		return b.list.View()
	}
	switch b.snap.State {
	case search.StateIdle:
		return mutedStyle.Render("  Type a query to search.")
	case search.StateLoading:
		return mutedStyle.Render("  Loading…")
	case search.StateError:
		return errorStyle.Render("  Search failed. Press r to retry.")
	case search.StateLoaded:
		return mutedStyle.Render("  No results.")
	}
	return ""
}

func (b *Browser[T]) detailView() string {
	item := b.list.SelectedItem()
	if item == nil {
		return ""
	}
	data, err := yaml.Marshal(item)
	if err != nil {
		return errorStyle.Render(err.Error())
	}
	return detailStyle.Width(max(b.width-2, 0)).Render(strings.TrimRight(string(data), "\n"))
}

// StatusLine summarizes a snapshot: state, result count and page position.
func StatusLine[T any](s search.Snapshot[T]) string {
	switch s.State {
	case search.StateIdle:
		return labelStyle.Render("idle")
	case search.StateLoading:
		return labelStyle.Render("loading…")
	case search.StateError:
		msg := "error"
		if s.Err != nil {
			msg = "error: " + s.Err.Error()
		}
		return errorStyle.Render(msg)
	case search.StateLoaded:
	}

	if s.TotalCount == 0 {
		return labelStyle.Render("0 results")
	}

	parts := []string{
		fmt.Sprintf("%d results", s.TotalCount),
		fmt.Sprintf("page %d/%d", s.PageIndex+1, s.TotalPages),
	}
	nav := make([]string, 0, 2)
	if s.HasPrevious() {
		nav = append(nav, "◀ prev")
	}
	if s.HasNext() {
		nav = append(nav, "next ▶")
	}
	if len(nav) > 0 {
		parts = append(parts, strings.Join(nav, " "))
	}
	return labelStyle.Render(strings.Join(parts, " · "))
}
