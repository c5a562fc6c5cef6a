package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newExportCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every hash row of the fingerprint database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.AllHashes()
			if err != nil {
				return err
			}

			switch format {
			case "yaml":
				out, err := yaml.Marshal(entries)
				if err != nil {
					return fmt.Errorf("encode export: %w", err)
				}
				cmd.Print(string(out))
			case "jsonl":
				enc := json.NewEncoder(cmd.OutOrStdout())
				for _, entry := range entries {
					if err := enc.Encode(entry); err != nil {
						return fmt.Errorf("encode export: %w", err)
					}
				}
			default:
				return fmt.Errorf("unknown export format %q", format)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "Export format: yaml|jsonl")
	return cmd
}
