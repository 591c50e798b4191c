package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/windward-data/sailtap/internal/core/domain"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect the stored checkpoint",
	RunE:  runStateShow,
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored checkpoint as JSON",
	RunE:  runStateShow,
}

var stateClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the stored checkpoint",
	Long:  `Deletes the account's checkpoint so the next sync starts from scratch.`,
	RunE:  runStateClear,
}

func init() {
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateClearCmd)
	rootCmd.AddCommand(stateCmd)
}

func runStateShow(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}
	if checkpointStore == nil {
		return errors.New("checkpoint store not configured")
	}

	state, err := checkpointStore.Load(cmd.Context(), appSettings.Account.APIKey)
	if errors.Is(err, domain.ErrNotFound) {
		cmd.Println("No checkpoint stored for this account.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}

	pretty, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	cmd.Println(string(pretty))
	return nil
}

func runStateClear(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}
	if checkpointStore == nil {
		return errors.New("checkpoint store not configured")
	}

	if err := checkpointStore.Delete(cmd.Context(), appSettings.Account.APIKey); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	cmd.Println("Checkpoint cleared.")
	return nil
}
