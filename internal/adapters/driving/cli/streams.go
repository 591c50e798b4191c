package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var streamsCmd = &cobra.Command{
	Use:   "streams",
	Short: "List extractable streams",
	Long: `Lists every stream in the catalog with its replication contract:
acquisition kind, primary keys, replication key and parent stream.`,
	RunE: runStreams,
}

func init() {
	rootCmd.AddCommand(streamsCmd)
}

func runStreams(cmd *cobra.Command, _ []string) error {
	if err := initCatalog(); err != nil {
		return err
	}
	if streamCatalog == nil {
		return errors.New("catalog not configured")
	}

	cmd.Printf("%-14s %-5s %-22s %-14s %s\n",
		"STREAM", "KIND", "PRIMARY KEYS", "REPLICATION", "PARENT")
	for _, name := range streamCatalog.Names() {
		stream, err := streamCatalog.Stream(name)
		if err != nil {
			return err
		}
		def := stream.Def()

		replication := def.ReplicationKey
		if replication == "" {
			replication = "-"
		}
		parent := def.Parent
		if parent == "" {
			parent = "-"
		}
		cmd.Printf("%-14s %-5s %-22s %-14s %s\n",
			def.Name, def.Kind, strings.Join(def.PrimaryKeys, ","), replication, parent)
	}
	return nil
}
