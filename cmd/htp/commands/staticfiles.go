package commands

import (
	"github.com/spf13/cobra"
)

func newStaticFilesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "static-files",
		Short: "List known file paths likely to be served verbatim by a deployment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			paths, err := store.StaticFilePaths()
			if err != nil {
				return err
			}
			for _, path := range paths {
				cmd.Println(path)
			}
			return nil
		},
	}
	return cmd
}
