package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/veganchecker/vcadmin/internal/backend"
)

// neverExpires is the --expires value that removes an expiry.
const neverExpires = "never"

func newSubscriptionCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "subscription", Short: "Edit user subscriptions"}
	cmd.AddCommand(newSubscriptionEditCmd())
	return cmd
}

func newSubscriptionEditCmd() *cobra.Command {
	var (
		level   string
		active  bool
		expires string
	)

	cmd := &cobra.Command{
		Use:   "edit <subscription-id>",
		Short: "Change a subscription's level, status or expiry",
		Example: `  vcadmin subscription edit 0b7e... --level premium --expires 2027-01-01
  vcadmin subscription edit 0b7e... --active=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("invalid subscription id %q: %w", args[0], err)
			}

			patch := backend.Patch{}
			if cmd.Flags().Changed("level") {
				patch["subscription_level"] = level
			}
			if cmd.Flags().Changed("active") {
				patch["is_active"] = active
			}
			if cmd.Flags().Changed("expires") {
				at, perr := parseExpiry(expires, time.Now())
				if perr != nil {
					return perr
				}
				patch["expires_at"] = expiryValue(at)
			}
			if len(patch) == 0 {
				return backend.ErrEmptyPatch
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err = a.client.UpdateSubscription(ctx, id, patch); err != nil {
					return err
				}
				cmd.Printf("✅ Updated subscription %s: %s\n", id, strings.Join(sortedFields(patch), ", "))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&level, "level", "",
		fmt.Sprintf("subscription level (%s)", strings.Join(backend.SubscriptionLevels, ", ")))
	cmd.Flags().BoolVar(&active, "active", true, "whether the subscription is active")
	cmd.Flags().StringVar(&expires, "expires", "", expiresUsage)
	return cmd
}

const expiresUsage = `expiry: a date (2027-01-01), an RFC 3339 time, a duration from now (+720h) or "never"`

// parseExpiry converts an --expires value into a time. nil means no expiry.
func parseExpiry(s string, now time.Time) (*time.Time, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "" || strings.EqualFold(s, neverExpires) || s == backend.NullFilterValue:
		return nil, nil //nolint:nilnil // No expiry.
	case strings.HasPrefix(s, "+"):
		d, err := time.ParseDuration(s[1:])
		if err != nil {
			return nil, fmt.Errorf("invalid expiry duration %q: %w", s, err)
		}
		at := now.Add(d).UTC()
		return &at, nil
	}

	ts, err := backend.ParseTimestamp(s)
	if err != nil {
		return nil, fmt.Errorf("invalid expiry: %w", err)
	}
	at := ts.UTC()
	return &at, nil
}

// expiryValue renders an expiry for a patch.
func expiryValue(at *time.Time) any {
	if at == nil {
		return nil
	}
	return at.UTC().Format(time.RFC3339)
}

func sortedFields(p backend.Patch) []string {
	fields := p.Fields()
	slices.Sort(fields)
	return fields
}
