package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veganchecker/vcadmin/internal/backend"
	"github.com/veganchecker/vcadmin/internal/config"
)

// NewSearchCmd creates the search command that prints one page of a screen.
func NewSearchCmd() *cobra.Command {
	var opts screenCmdOptions

	cmd := &cobra.Command{
		Use:   "search <screen> [query...]",
		Short: "Search a screen and print one page of results",
		Long: `Searches one admin screen and prints a single page of results.

Use * or % as wildcards: 'soy*' starts with, '*oil' ends with, '*milk*' contains,
'so*a' is a pattern. Text without wildcards is matched exactly on ingredients and
products. Screens that list everything accept an empty query.

Run 'vcadmin screens' to list screens and their filter dimensions.`,
		Example: `  # Ingredients starting with "soy"
  vcadmin search ingredients 'soy*'

  # Unclassified ingredients, classes unset or vegan
  vcadmin search ingredients '*' --filter class=null,vegan

  # Second page of premium subscriptions as JSON
  vcadmin search subscriptions --filter level=premium --page 2 -o json`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: screenNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScreen(cmd, args, &opts, func(v screenView, cfg *config.Config, req screenRequest) error {
				return v.Search(cmd, cfg, req)
			})
		},
	}

	opts.addFlags(cmd, true)
	return cmd
}

// NewBrowseCmd creates the interactive browse command.
func NewBrowseCmd() *cobra.Command {
	var opts screenCmdOptions

	cmd := &cobra.Command{
		Use:   "browse <screen> [query...]",
		Short: "Browse a screen interactively",
		Long: `Opens an interactive screen with a debounced search box, paging and a detail pane.

When events are enabled the screen refreshes itself after any vcadmin process
changes a record it shows.`,
		Example: `  vcadmin browse ingredients
  vcadmin browse subscriptions --filter level=premium`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: screenNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScreen(cmd, args, &opts, func(v screenView, cfg *config.Config, req screenRequest) error {
				return v.Browse(cmd, cfg, req)
			})
		},
	}

	opts.addFlags(cmd, false)
	return cmd
}

// NewWatchCmd creates the watch command that re-prints a screen on mutation events.
func NewWatchCmd() *cobra.Command {
	var opts screenCmdOptions

	cmd := &cobra.Command{
		Use:   "watch <screen> [query...]",
		Short: "Print a screen and re-print it whenever its records change",
		Long: `Prints a page of results and subscribes to mutation events for the screen's
entity; every create, update or delete made through vcadmin re-runs the search.
Requires events.enabled with a NATS url. Stop with Ctrl+C.`,
		Example: `  vcadmin watch unclassified
  vcadmin watch ingredients 'soy*' -o json`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: screenNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScreen(cmd, args, &opts, func(v screenView, cfg *config.Config, req screenRequest) error {
				return v.Watch(cmd, cfg, req)
			})
		},
	}

	opts.addFlags(cmd, true)
	return cmd
}

// NewScreensCmd lists the screens and their filters.
func NewScreensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "screens",
		Short: "List screens and their filter dimensions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			return writeScreens(cmd, format)
		},
	}
}

type screenDescription struct {
	Name       string              `json:"name"       yaml:"name"`
	Title      string              `json:"title"      yaml:"title"`
	ListAll    bool                `json:"list_all"   yaml:"list_all"`
	Searchable bool                `json:"searchable" yaml:"searchable"`
	Entity     string              `json:"entity"     yaml:"entity,omitempty"`
	Filters    map[string][]string `json:"filters"    yaml:"filters,omitempty"`
}

func writeScreens(cmd *cobra.Command, format string) error {
	screens := backend.Screens()

	if format != config.FormatTable {
		out := make([]screenDescription, 0, len(screens))
		for _, s := range screens {
			d := screenDescription{
				Name:       string(s.Screen),
				Title:      s.Title,
				ListAll:    s.ListAll,
				Searchable: s.Searchable,
				Entity:     s.Entity,
				Filters:    map[string][]string{},
			}
			for _, dim := range s.Dimensions {
				d.Filters[dim.Name] = dim.Values
			}
			out = append(out, d)
		}
		return writeStructured(cmd.OutOrStdout(), format, out)
	}

	tw := newTable(cmd.OutOrStdout())
	writeRow(tw, "SCREEN", "TITLE", "EMPTY QUERY", "FILTERS")
	for _, s := range screens {
		emptyQuery := "required"
		if s.ListAll {
			emptyQuery = "lists all"
		}
		filters := make([]string, 0, len(s.Dimensions))
		for _, dim := range s.Dimensions {
			filters = append(filters, fmt.Sprintf("%s=%s", dim.Name, strings.Join(dim.Values, "|")))
		}
		writeRow(tw, string(s.Screen), s.Title, emptyQuery, strings.Join(filters, " "))
	}
	return tw.Flush()
}
