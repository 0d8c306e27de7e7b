package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/veganchecker/vcadmin/internal/config"
	"github.com/veganchecker/vcadmin/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the vcadmin CLI.
// It resolves configuration, wires up logging, tracing and audit logging, and
// registers every subcommand.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:     "vcadmin",
		Short:   "Vegan Checker administration console",
		Long:    "vcadmin: search, review and edit Vegan Checker ingredients, products, users and activity",
		Version: ver,
		Example: rootCmdExample,
		// Errors are printed once by main.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}
			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, logResult)
		},
	}

	cmd.PersistentFlags().String("config", "", "config file (default ~/.vcadmin/config.yaml, env VCADMIN_CONFIG)")
	cmd.PersistentFlags().String("project-dir", "", "project .vcadmin directory (env VCADMIN_PROJECT_DIR)")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().StringP("output", "o", "", "output format: table, json or yaml (default from config)")

	cmd.AddCommand(
		NewSearchCmd(), NewBrowseCmd(), NewWatchCmd(), NewScreensCmd(),
		newIngredientCmd(), newProductCmd(), newSubscriptionCmd(), newProfileCmd(),
		NewStatsCmd(), newNotifyCmd(), newAccessCmd(), newConfigCmd(),
	)

	return cmd
}

const rootCmdExample = `  # Find ingredients starting with "soy"
  vcadmin search ingredients 'soy*'

  # List unclassified ingredients as JSON
  vcadmin search unclassified -o json

  # Browse premium subscriptions interactively
  vcadmin browse subscriptions --filter level=premium

  # Classify an ingredient
  vcadmin ingredient edit "soy lecithin" --class vegan --primary-class vegan

  # Show dashboard statistics
  vcadmin stats

  # Initialize configuration
  vcadmin config init`

// loadConfig resolves the effective configuration and installs it globally:
// --config (or VCADMIN_CONFIG) or the default file, the project overlay, then
// environment overrides.
func loadConfig(cmd *cobra.Command) error {
	ctx := cmd.Context()

	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		config.ApplyEnv(cfg)
		config.SetGlobalConfig(cfg)
		return nil
	}

	projectFlag, _ := cmd.Flags().GetString("project-dir")
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	projectDir := config.ResolveProjectDir(ctx, projectFlag, wd)
	config.SetGlobalConfig(config.NewWithProjectDir(ctx, projectDir))
	return nil
}

// newConfigCmd creates the config command group with configuration subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigValidateCmd(), NewConfigShowCmd())
	return cmd
}

// resolvedProjectDir returns the project directory selected by flag, env or discovery.
func resolvedProjectDir(cmd *cobra.Command) string {
	projectFlag, _ := cmd.Flags().GetString("project-dir")
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return config.ResolveProjectDir(cmd.Context(), projectFlag, wd)
}

// requireArgsError formats a missing-argument error with the command's usage line.
func requireArgsError(cmd *cobra.Command, what string) error {
	return fmt.Errorf("%s is required\nUsage: %s", what, cmd.UseLine())
}
