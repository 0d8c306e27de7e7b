package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veganchecker/vcadmin/internal/config"
)

// NewConfigValidateCmd creates the config validate command for validating configuration.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the effective configuration (config file, project overlay and
VCADMIN_* environment variables) for semantic correctness.

This includes:
- Schema version compatibility
- Backend driver settings (URL and anon key, or database URL)
- Search page sizes, debounce and wildcard settings
- Events, notifications and output settings`,
		Example: `  # Validate current configuration
  vcadmin config validate

  # Validate and show detailed information
  vcadmin config validate --verbose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate(cmd, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")

	return cmd
}

// runConfigValidate executes the configuration validation logic.
func runConfigValidate(cmd *cobra.Command, verbose bool) error {
	cfg := config.GetGlobalConfig()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cmd.Printf("✅ Configuration is valid\n")

	if verbose {
		printVerboseDetails(cmd, cfg)
	}

	return nil
}

// printVerboseDetails prints detailed configuration information.
func printVerboseDetails(cmd *cobra.Command, cfg *config.Config) {
	cmd.Println()
	cmd.Println("Configuration details:")
	cmd.Printf("  Config file: %s\n", cfg.Path())
	cmd.Printf("  Backend driver: %s\n", cfg.Backend.Driver)
	switch cfg.Backend.Driver {
	case config.DriverPostgres:
		cmd.Printf("  Database URL: %s\n", redact(cfg.Backend.DatabaseURL))
	default:
		cmd.Printf("  Backend URL: %s\n", cfg.Backend.URL)
		cmd.Printf("  Anon key: %s\n", redact(cfg.Backend.AnonKey))
	}
	if cfg.Backend.AdminEmail != "" {
		cmd.Printf("  Admin email: %s\n", cfg.Backend.AdminEmail)
	}
	cmd.Printf("  Page size: %d (debounce %s)\n", cfg.Search.PageSize, cfg.Search.Debounce)
	for screen, n := range cfg.Search.PageSizes {
		cmd.Printf("    - %s: %d\n", screen, n)
	}
	cmd.Printf("  Output format: %s\n", cfg.Output.DefaultFormat)
	cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
	cmd.Printf("  Log file: %s\n", cfg.Logging.File)

	printEventsDetails(cmd, cfg)
	printCacheDetails(cmd, cfg)
}

// printEventsDetails prints mutation event settings.
func printEventsDetails(cmd *cobra.Command, cfg *config.Config) {
	if !cfg.Events.Enabled {
		cmd.Println("  Events: disabled")
		return
	}
	cmd.Printf("  Events: %s (prefix %s)\n", cfg.Events.URL, cfg.Events.SubjectPrefix)
}

// printCacheDetails prints statistics cache settings.
func printCacheDetails(cmd *cobra.Command, cfg *config.Config) {
	if !cfg.Cache.Enabled {
		cmd.Println("  Stats cache: disabled")
		return
	}
	cmd.Printf("  Stats cache: %s (ttl %s)\n", cfg.Cache.Directory, cfg.Cache.StatsTTL)
}

// redact hides all but the last four characters of a secret.
func redact(secret string) string {
	const visible = 4
	switch {
	case secret == "":
		return "(not set)"
	case len(secret) <= visible:
		return "****"
	default:
		return "****" + secret[len(secret)-visible:]
	}
}
