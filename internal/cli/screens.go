package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/veganchecker/vcadmin/internal/backend"
	"github.com/veganchecker/vcadmin/internal/cli/pagination"
	"github.com/veganchecker/vcadmin/internal/config"
	"github.com/veganchecker/vcadmin/internal/events"
	"github.com/veganchecker/vcadmin/internal/search"
	"github.com/veganchecker/vcadmin/internal/tui"
)

// Screen command errors.
var (
	ErrQueryRequired  = errors.New("a search query is required for this screen")
	ErrPageOutOfRange = errors.New("page out of range")
	ErrNoEvents       = errors.New("screen has no mutation events")
	ErrEventsDisabled = errors.New("events are disabled; set events.url or VCADMIN_NATS_URL")
	ErrNotInteractive = errors.New("browse requires an interactive terminal")
)

// screenRequest is what a screen command asks for.
type screenRequest struct {
	query   string
	filters search.FilterSet
	page    pagination.PaginationParams
	format  string
}

// screenResult is the structured (json/yaml) rendering of one result page.
type screenResult[T any] struct {
	Screen     string                    `json:"screen"     yaml:"screen"`
	Query      search.Query              `json:"query"      yaml:"query"`
	Filters    map[string][]string       `json:"filters"    yaml:"filters"`
	Pagination pagination.PaginationMeta `json:"pagination" yaml:"pagination"`
	Items      []T                       `json:"items"      yaml:"items"`

	// TotalIsLowerBound is set when more rows exist than the total counts.
	TotalIsLowerBound bool `json:"total_is_lower_bound" yaml:"total_is_lower_bound"`
}

// screenView runs one screen in each host mode.
type screenView interface {
	Info() backend.ScreenInfo
	Search(cmd *cobra.Command, cfg *config.Config, req screenRequest) error
	Browse(cmd *cobra.Command, cfg *config.Config, req screenRequest) error
	Watch(cmd *cobra.Command, cfg *config.Config, req screenRequest) error
}

// binding ties a screen to its typed search capability and columns.
type binding[T any] struct {
	info    backend.ScreenInfo
	fn      search.Func[T]
	columns []tui.Column[T]
}

// bindScreen returns the view for info served by client.
func bindScreen(client *backend.Client, info backend.ScreenInfo) (screenView, error) {
	switch info.Screen {
	case backend.ScreenIngredients:
		return &binding[backend.Ingredient]{info, client.SearchIngredients, ingredientColumns}, nil
	case backend.ScreenNewest:
		return &binding[backend.Ingredient]{info, client.NewestIngredients, ingredientColumns}, nil
	case backend.ScreenUnclassified:
		return &binding[backend.Ingredient]{info, client.UnclassifiedIngredients, ingredientColumns}, nil
	case backend.ScreenProducts:
		return &binding[backend.Product]{info, client.SearchProducts, productColumns}, nil
	case backend.ScreenSubscriptions:
		return &binding[backend.Subscription]{info, client.SearchSubscriptions, subscriptionColumns}, nil
	case backend.ScreenProfiles:
		return &binding[backend.Profile]{info, client.SearchProfiles, profileColumns}, nil
	case backend.ScreenActivity:
		return &binding[backend.ActivityEntry]{info, client.SearchActivity, activityColumns}, nil
	default:
		return nil, fmt.Errorf("%w: %q", backend.ErrUnknownScreen, info.Screen)
	}
}

func (b *binding[T]) Info() backend.ScreenInfo {
	return b.info
}

// newController builds a controller configured for this screen.
func (b *binding[T]) newController(
	ctx context.Context,
	cfg *config.Config,
	req screenRequest,
	onChange func(),
) (*search.Controller[T], error) {
	normalizer := search.DefaultNormalizer()
	if cfg.Search.WildcardMarkers != "" {
		normalizer.Markers = cfg.Search.WildcardMarkers
	}
	if r := []rune(cfg.Search.PatternChar); len(r) == 1 {
		normalizer.PatternChar = r[0]
	}

	opts := []search.Option{
		search.WithContext(ctx),
		search.WithPageSize(req.page.EffectivePageSize(cfg.Search.PageSizeFor(string(b.info.Screen)))),
		search.WithDebounce(cfg.Search.Debounce),
		search.WithNormalizer(normalizer),
		search.WithLogger(logger.With().Str("screen", string(b.info.Screen)).Logger()),
	}
	if b.info.ListAll {
		opts = append(opts, search.WithListAll())
	}
	if onChange != nil {
		opts = append(opts, search.WithOnChange(onChange))
	}
	return search.New(b.fn, opts...)
}

// start issues the first fetch for req, opening on page seek when it is positive.
func (b *binding[T]) start(ctrl *search.Controller[T], req screenRequest, seek int) {
	if !req.filters.IsEmpty() {
		ctrl.SetFilters(req.filters)
	}
	if req.query != "" {
		ctrl.SetQuery(req.query)
	}
	switch {
	case seek > 0:
		ctrl.SeekPage(seek)
	case req.query != "":
		ctrl.Flush()
	case b.info.ListAll && req.filters.IsEmpty():
		ctrl.Refresh()
	}
}

// load runs req to completion and returns the requested page.
//
// Screens with an estimated total cannot range-check a page up front, so they
// fetch it directly and report it out of range only when it comes back empty.
func (b *binding[T]) load(ctx context.Context, ctrl *search.Controller[T], req screenRequest) (search.Snapshot[T], error) {
	idx := req.page.PageIndex()
	seek := 0
	if b.info.EstimatedTotal {
		seek = idx
	}

	b.start(ctrl, req, seek)
	snap, err := ctrl.Wait(ctx)
	if err != nil {
		return snap, err
	}
	if snap.Err != nil {
		return snap, snap.Err
	}

	if seek > 0 {
		if len(snap.Items) == 0 {
			return snap, fmt.Errorf("%w: page %d is empty", ErrPageOutOfRange, req.page.Page)
		}
		return snap, nil
	}

	if idx > 0 {
		if !search.ValidPage(idx, snap.TotalCount, snap.PageSize) {
			return snap, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, req.page.Page, snap.TotalPages)
		}
		ctrl.GoToPage(idx)
		if snap, err = ctrl.Wait(ctx); err != nil {
			return snap, err
		}
		if snap.Err != nil {
			return snap, snap.Err
		}
	}
	return snap, nil
}

func (b *binding[T]) checkQuery(req screenRequest) error {
	if req.query == "" && !b.info.ListAll {
		return fmt.Errorf("%w: %s", ErrQueryRequired, b.info.Screen)
	}
	return nil
}

// Search prints one page of results.
func (b *binding[T]) Search(cmd *cobra.Command, cfg *config.Config, req screenRequest) error {
	if err := b.checkQuery(req); err != nil {
		return err
	}

	ctx := cmd.Context()
	ctrl, err := b.newController(ctx, cfg, req, nil)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	snap, err := b.load(ctx, ctrl, req)
	if err != nil {
		return err
	}
	return b.render(cmd.OutOrStdout(), req.format, snap)
}

// Watch prints the results, then re-prints them after every mutation event
// for the screen's entity until the context is cancelled.
func (b *binding[T]) Watch(cmd *cobra.Command, cfg *config.Config, req screenRequest) error {
	if err := b.checkQuery(req); err != nil {
		return err
	}
	updates, closeSub, err := subscribe(cfg, b.info)
	if err != nil {
		return err
	}
	defer closeSub()

	ctx := cmd.Context()
	ctrl, err := b.newController(ctx, cfg, req, nil)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	snap, err := b.load(ctx, ctrl, req)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err = b.render(out, req.format, snap); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case data, ok := <-updates:
			if !ok {
				return nil
			}
			ev, decodeErr := events.Decode(data)
			if decodeErr != nil {
				logger.Warn().Ctx(ctx).Err(decodeErr).Msg("ignoring malformed event")
				continue
			}
			logger.Debug().Ctx(ctx).
				Str("operation", "watch").
				Str("entity", ev.Entity).
				Str("action", ev.Action).
				Str("key", ev.Key).
				Msg("refreshing after mutation")

			ctrl.Refresh()
			if snap, err = ctrl.Wait(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			fmt.Fprintf(out, "\n--- %s %s %q at %s ---\n",
				ev.Entity, ev.Action, ev.Key, ev.OccurredAt.UTC().Format(time.RFC3339))
			if snap.Err != nil {
				fmt.Fprintf(out, "refresh failed: %v\n", snap.Err)
				continue
			}
			if err = b.render(out, req.format, snap); err != nil {
				return err
			}
		}
	}
}

// Browse runs the interactive screen.
func (b *binding[T]) Browse(cmd *cobra.Command, cfg *config.Config, req screenRequest) error {
	if !tui.IsTTY() {
		return ErrNotInteractive
	}

	ctx := cmd.Context()
	notifier := tui.NewNotifier()
	defer notifier.Close()

	ctrl, err := b.newController(ctx, cfg, req, notifier.Notify)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	browser := tui.NewBrowser(b.info.Title, ctrl, notifier, b.columns)
	if len(b.info.Dimensions) > 0 {
		browser.EnableFilters(filterHint(b.info), b.info.CheckFilters)
	}
	program := tea.NewProgram(browser,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)

	if cfg.Events.Enabled && b.info.Entity != "" {
		updates, closeSub, subErr := subscribe(cfg, b.info)
		if subErr != nil {
			logger.Warn().Ctx(ctx).Err(subErr).Msg("live refresh disabled")
		} else {
			defer closeSub()
			go func() {
				for range updates {
					program.Send(tui.RefreshMsg{})
				}
			}()
		}
	}

	b.start(ctrl, req, 0)
	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// render writes snap in the requested format.
func (b *binding[T]) render(w io.Writer, format string, snap search.Snapshot[T]) error {
	meta := pagination.NewPaginationMeta(snap.PageIndex, snap.PageSize, snap.TotalCount)
	lowerBound := b.info.EstimatedTotal && meta.HasNext

	if format != config.FormatTable {
		return writeStructured(w, format, screenResult[T]{
			Screen:            string(b.info.Screen),
			Query:             snap.Query,
			Filters:           snap.Filters.Map(),
			Pagination:        meta,
			Items:             snap.Items,
			TotalIsLowerBound: lowerBound,
		})
	}

	if len(snap.Items) == 0 {
		fmt.Fprintln(w, "No results.")
		return nil
	}

	tw := newTable(w)
	writeRow(tw, tui.Headers(b.columns)...)
	for _, item := range snap.Items {
		writeRow(tw, tui.Cells(b.columns, item)...)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	footer := fmt.Sprintf("Page %d of %d (%d results)", meta.CurrentPage, meta.TotalPages, meta.TotalItems)
	if lowerBound {
		footer = fmt.Sprintf("Page %d of %d+ (%d+ results)", meta.CurrentPage, meta.TotalPages, meta.TotalItems)
	}
	if meta.HasNext {
		footer += fmt.Sprintf("; next: --page %d", meta.CurrentPage+1)
	}
	fmt.Fprintln(w, footer)
	return nil
}

// filterHint shows one example value per dimension the screen filters by.
func filterHint(info backend.ScreenInfo) string {
	parts := make([]string, 0, len(info.Dimensions))
	for _, d := range info.Dimensions {
		if len(d.Values) > 0 {
			parts = append(parts, d.Name+"="+d.Values[0])
		}
	}
	return strings.Join(parts, " ")
}

// subscribe opens a NATS subscription to every mutation of the screen's entity.
func subscribe(cfg *config.Config, info backend.ScreenInfo) (<-chan []byte, func(), error) {
	if info.Entity == "" {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoEvents, info.Screen)
	}
	if !cfg.Events.Enabled {
		return nil, nil, ErrEventsDisabled
	}

	sub, err := events.NewNATSSubscriber(cfg.Events.URL)
	if err != nil {
		return nil, nil, err
	}
	updates, cancel, err := sub.Subscribe(events.EntityTopic(cfg.Events.SubjectPrefix, info.Entity))
	if err != nil {
		_ = sub.Close()
		return nil, nil, err
	}
	return updates, func() {
		cancel()
		_ = sub.Close()
	}, nil
}

// screenNames is the completion list for screen arguments.
func screenNames(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return backend.ScreenNames(), cobra.ShellCompDirectiveNoFileComp
}

// screenCmdOptions holds the flags shared by search, browse and watch.
type screenCmdOptions struct {
	filters []string
	page    *pagination.PaginationParams
}

func (o *screenCmdOptions) addFlags(cmd *cobra.Command, withPage bool) {
	cmd.Flags().StringArrayVarP(&o.filters, "filter", "f", nil,
		"filter as dim=value[,value] (repeatable); use 'null' for unset values")
	o.page = pagination.NewPaginationParams()
	if withPage {
		o.page.AddFlags(cmd)
	} else {
		cmd.Flags().IntVar(&o.page.PageSize, "page-size", 0, "rows per page (default from config)")
	}
}

// runScreen resolves the screen and request, opens the backend and runs fn.
func runScreen(
	cmd *cobra.Command,
	args []string,
	opts *screenCmdOptions,
	fn func(v screenView, cfg *config.Config, req screenRequest) error,
) error {
	info, err := backend.LookupScreen(args[0])
	if err != nil {
		return err
	}
	if err = opts.page.Validate(); err != nil {
		return err
	}
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	filters, err := ParseScreenFilters(cmd.Context(), info, opts.filters)
	if err != nil {
		return err
	}

	req := screenRequest{
		query:   strings.TrimSpace(strings.Join(args[1:], " ")),
		filters: filters,
		page:    *opts.page,
		format:  format,
	}

	return withApp(cmd, func(_ context.Context, a *app) error {
		view, bindErr := bindScreen(a.client, info)
		if bindErr != nil {
			return bindErr
		}
		return fn(view, a.cfg, req)
	})
}
