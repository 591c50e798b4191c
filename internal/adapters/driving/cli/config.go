package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/windward-data/sailtap/internal/adapters/driven/config/file"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage extractor configuration",
	RunE:  runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file template",
	Long:  `Writes a config file populated with the defaults. Credentials must then be filled in by hand or supplied via environment variables.`,
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	loader, err := file.NewLoader(cfgFile)
	if err != nil {
		return err
	}
	settings, err := loader.Load()
	if err != nil {
		return err
	}

	cmd.Printf("Config file: %s\n\n", loader.Path())

	cmd.Println("[account]")
	cmd.Printf("  API Key: %s\n", maskSecret(settings.Account.APIKey))
	cmd.Printf("  API Secret: %s\n", maskSecret(settings.Account.APISecret))
	cmd.Printf("  Name: %s\n", settings.Account.AccountName)
	cmd.Println()

	cmd.Println("[api]")
	cmd.Printf("  Base URL: %s\n", settings.API.BaseURL)
	cmd.Printf("  Rate limit: %.1f req/s (burst %d)\n", settings.API.RateLimit, settings.API.Burst)
	cmd.Printf("  Request timeout: %s\n", settings.API.RequestTimeout)
	cmd.Println()

	cmd.Println("[jobs]")
	cmd.Printf("  Poll interval: %s\n", settings.Jobs.PollInterval)
	cmd.Printf("  Timeout: %s\n", settings.Jobs.Timeout)
	cmd.Println()

	cmd.Println("[sync]")
	cmd.Printf("  Start date: %s\n", orUnset(settings.Sync.StartDate))
	cmd.Printf("  Checkpoint frequency: %d records\n", settings.Sync.CheckpointFrequency)
	if settings.Sync.RecordLimit > 0 {
		cmd.Printf("  Record limit: %d\n", settings.Sync.RecordLimit)
	}
	if len(settings.Sync.Streams) > 0 {
		cmd.Printf("  Streams: %s\n", strings.Join(settings.Sync.Streams, ", "))
	}
	cmd.Println()

	if err := settings.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	loader, err := file.NewLoader(cfgFile)
	if err != nil {
		return err
	}
	if err := loader.WriteTemplate(); err != nil {
		return fmt.Errorf("write config template: %w", err)
	}
	cmd.Printf("Wrote config template to %s\n", loader.Path())
	return nil
}

func maskSecret(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

func orUnset(value string) string {
	if value == "" {
		return "(not set)"
	}
	return value
}
