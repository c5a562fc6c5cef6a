package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newLookupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <hash>",
		Short: "Look up the technology and versions matching a file fingerprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			entry, err := store.Lookup(strings.ToLower(args[0]))
			if err != nil {
				return err
			}

			out, err := yaml.Marshal(entry)
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			cmd.Print(string(out))
			return nil
		},
	}
	return cmd
}
