package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/perpjournal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
	Long: `Manage perpjournal configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  perpjournal config init -o perpjournal.yaml
  perpjournal config validate -f perpjournal.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default configuration file",
	Long: `Create a new configuration file with default settings. Set account.user
(or HL_USER) before running a rebuild.

Example:
  perpjournal config init -o perpjournal.yaml --user 0x...`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check if a configuration file is valid and can be loaded.

Example:
  perpjournal config validate -f perpjournal.yaml`,
	RunE: runConfigValidate,
}

var (
	configInitOutput   string
	configInitUser     string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "perpjournal.yaml", "output config file path")
	configInitCmd.Flags().StringVar(&configInitUser, "user", "", "account address to write into the file")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	cfg.Account.User = configInitUser
	if err := cfg.SaveToFile(configInitOutput); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Created default configuration: %s\n", configInitOutput)
	fmt.Fprintln(out, "\nEdit the file and run with:")
	fmt.Fprintf(out, "  perpjournal rebuild -c %s\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configValidatePath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Configuration valid: %s\n", configValidatePath)
	fmt.Fprintf(out, "  Account: %s (%s)\n", cfg.Account.User, cfg.Account.TimeZone)
	fmt.Fprintf(out, "  API: %s (%d attempts, throttle %s)\n", cfg.API.BaseURL, cfg.API.MaxAttempts, cfg.API.PageThrottle)
	fmt.Fprintf(out, "  Rebuild: %d days, assets %v\n", cfg.Rebuild.LookbackDays, cfg.Rebuild.Assets)
	fmt.Fprintf(out, "  Journal: %s\n", cfg.Journal.Type)
	return nil
}
