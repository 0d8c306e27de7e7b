package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/veganchecker/vcadmin/internal/backend"
	"github.com/veganchecker/vcadmin/internal/config"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "profile", Short: "Grant complimentary subscription levels"}
	cmd.AddCommand(newProfileAddCmd(), newProfileEditCmd())
	return cmd
}

// profileFlags holds --level and --expires.
type profileFlags struct {
	level   string
	expires string
}

func (f *profileFlags) add(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.level, "level", "",
		fmt.Sprintf("subscription level (%s)", strings.Join(backend.SubscriptionLevels, ", ")))
	cmd.Flags().StringVar(&f.expires, "expires", "", expiresUsage+` (default never)`)
	_ = cmd.MarkFlagRequired("level")
}

func newProfileAddCmd() *cobra.Command {
	var flags profileFlags

	cmd := &cobra.Command{
		Use:     "add <email>",
		Short:   "Grant a level to a registered account",
		Example: `  vcadmin profile add tester@example.com --level premium --expires +720h`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expiresAt, err := parseExpiry(flags.expires, time.Now())
			if err != nil {
				return err
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				result, aerr := a.client.CreateOrUpdateProfile(ctx, args[0], flags.level, expiresAt)
				if aerr != nil {
					return aerr
				}

				format, ferr := outputFormat(cmd)
				if ferr != nil {
					return ferr
				}
				if format != config.FormatTable && len(result) > 0 {
					var v any
					if err := json.Unmarshal(result, &v); err != nil {
						return fmt.Errorf("decoding result: %w", err)
					}
					return writeStructured(cmd.OutOrStdout(), format, v)
				}
				cmd.Printf("✅ Granted %s to %s (expires %s)\n",
					flags.level, strings.TrimSpace(args[0]), describeExpiry(expiresAt))
				return nil
			})
		},
	}

	flags.add(cmd)
	return cmd
}

func newProfileEditCmd() *cobra.Command {
	var flags profileFlags

	cmd := &cobra.Command{
		Use:     "edit <profile-id>",
		Short:   "Change a profile's level and expiry",
		Example: `  vcadmin profile edit 5f0c... --level standard --expires never`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("invalid profile id %q: %w", args[0], err)
			}
			expiresAt, err := parseExpiry(flags.expires, time.Now())
			if err != nil {
				return err
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err = a.client.UpdateProfile(ctx, id, flags.level, expiresAt); err != nil {
					return err
				}
				cmd.Printf("✅ Updated profile %s: %s (expires %s)\n", id, flags.level, describeExpiry(expiresAt))
				return nil
			})
		},
	}

	flags.add(cmd)
	return cmd
}

func describeExpiry(at *time.Time) string {
	if at == nil {
		return neverExpires
	}
	return formatTime(backend.NewTimestamp(*at))
}
