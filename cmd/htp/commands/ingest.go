package commands

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hashtheplanet/hashtheplanet/pkg/ingest"
	"github.com/hashtheplanet/hashtheplanet/pkg/vcs"
	"github.com/hashtheplanet/hashtheplanet/pkg/workspace"
)

func newIngestCommand() *cobra.Command {
	var (
		url        string
		technology string
		firstTag   string
		lastTag    string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest the tagged history of a technology's git repository",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if url == "" {
				return errors.New("--url is required")
			}
			if technology == "" {
				return errors.New("--technology is required")
			}

			cfg := configFromContext(cmd.Context())

			order, err := ingest.OrderByName(cfg.Ingest.TagOrder)
			if err != nil {
				return err
			}

			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := store.Close(); closeErr != nil {
					log.Warn().Err(closeErr).Msg("close fingerprint database")
				}
			}()

			cloner := vcs.GitCloner{}
			if ws, ok := workspace.FromContext(cmd.Context()); ok {
				cloner.BaseDir = workspace.CloneDir(ws)
			}

			ctx := cmd.Context()
			if cfg.Ingest.CloneTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.Ingest.CloneTimeout)
				defer cancel()
			}

			svc := &ingest.Service{
				Cloner: cloner,
				Store:  store,
				Order:  order,
				First:  firstTag,
				Last:   lastTag,
			}
			return svc.Run(ctx, technology, url)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Git repository URL to ingest")
	cmd.Flags().StringVar(&technology, "technology", "", "Technology label for the ingested repository")
	cmd.Flags().StringVar(&firstTag, "from", "", "First tag of the ingestion window (inclusive)")
	cmd.Flags().StringVar(&lastTag, "to", "", "Last tag of the ingestion window (exclusive)")

	return cmd
}
