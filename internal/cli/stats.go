package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/veganchecker/vcadmin/internal/backend"
	"github.com/veganchecker/vcadmin/internal/config"
)

// NewStatsCmd creates the stats command showing the dashboard summary.
func NewStatsCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard statistics",
		Long: `Shows ingredient, product and user counts, the class distributions and the
most recent activity. Results are cached briefly; --refresh bypasses the cache.`,
		Example: `  vcadmin stats
  vcadmin stats --refresh -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				stats, serr := a.client.Stats(ctx, refresh)
				if serr != nil {
					return serr
				}
				if format != config.FormatTable {
					return writeStructured(cmd.OutOrStdout(), format, stats)
				}
				return renderStats(cmd.OutOrStdout(), newPrinter(a.cfg.Output.Locale), stats)
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the statistics cache")
	return cmd
}

// newPrinter returns a number formatter for locale, falling back to English.
func newPrinter(locale string) *message.Printer {
	tag := language.English
	if locale != "" {
		if parsed, err := language.Parse(locale); err == nil {
			tag = parsed
		}
	}
	return message.NewPrinter(tag)
}

func renderStats(w io.Writer, p *message.Printer, s *backend.DashboardStats) error {
	tw := newTable(w)

	fmt.Fprintln(tw, "INGREDIENTS")
	writeCount(tw, p, "Total", s.Ingredients.Total)
	writeCount(tw, p, "Classified", s.Ingredients.WithClassification)
	writeCount(tw, p, "Unclassified", s.Ingredients.WithoutClassification)
	writeShares(tw, p, "By class", s.Ingredients.ClassDistribution)
	writeShares(tw, p, "By primary class", s.Ingredients.PrimaryClassDistribution)

	fmt.Fprintln(tw, "\nPRODUCTS")
	writeCount(tw, p, "Total", s.Products.Total)
	writeCount(tw, p, "Classified", s.Products.Classified)
	writeCount(tw, p, "Unclassified", s.Products.Unclassified)
	writeCount(tw, p, "Vegan", s.Products.Vegan)
	writeCount(tw, p, "Vegetarian", s.Products.Vegetarian)
	writeShares(tw, p, "By classification", s.Products.ClassificationDistribution)
	writeShares(tw, p, "Top brands", s.Products.BrandDistribution)

	fmt.Fprintln(tw, "\nUSERS")
	writeCount(tw, p, "Total", s.Users.Total)
	writeCount(tw, p, "Email", s.Users.EmailUsers)
	writeCount(tw, p, "New (30 days)", s.Users.RecentUsers)

	if err := tw.Flush(); err != nil {
		return err
	}

	if len(s.RecentActivity) > 0 {
		fmt.Fprintln(w, "\nRECENT ACTIVITY")
		tw = newTable(w)
		writeRow(tw, "TIME", "TYPE", "USER", "INPUT")
		for _, e := range s.RecentActivity {
			writeRow(tw, formatTime(e.CreatedAt), e.Type, e.UserEmail, e.Input)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	source := "live"
	if s.Cached {
		source = "cached"
	}
	fmt.Fprintf(w, "\nFetched %s (%s)\n", formatTime(backend.NewTimestamp(s.FetchedAt)), source)
	return nil
}

func writeCount(w io.Writer, p *message.Printer, label string, n int) {
	fmt.Fprintf(w, "  %s\t%s\n", label, p.Sprintf("%d", n))
}

func writeShares(w io.Writer, p *message.Printer, label string, shares []backend.Share) {
	if len(shares) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s\n", label)
	for _, sh := range shares {
		name := sh.Label
		if name == "" {
			name = backend.NullFilterValue
		}
		fmt.Fprintf(w, "    %s\t%s\t%s\n", name, p.Sprintf("%d", sh.Count), p.Sprintf("%.1f%%", sh.Percentage))
	}
}
