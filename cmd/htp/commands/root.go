package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hashtheplanet/hashtheplanet/pkg/config"
	"github.com/hashtheplanet/hashtheplanet/pkg/logging"
	"github.com/hashtheplanet/hashtheplanet/pkg/workspace"
)

const cliExecutable = "htp"

type ctxKey string

const configKey ctxKey = "htp.config"

// NewCommand constructs the top-level htp CLI command, wiring global flags,
// configuration loading and shared workspace preparation.
func NewCommand() *cobra.Command {
	var (
		configFile   string
		workspaceDir string
	)

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "Build a content-addressable fingerprint database from tagged git releases",
		Long: `htp walks every tagged release of a technology's git repository, hashes the
content of every file it has ever shipped, and maintains a database mapping
sha256(file bytes) to the technology versions sharing that exact content.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			manager := config.NewManager()
			if err := manager.Load(cmd.Flags(), configFile); err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			cfg := manager.Get()

			logging.Configure(cfg.Log.Level, cfg.Log.Format)

			if workspaceDir == "" {
				workspaceDir = cfg.Ingest.WorkspaceDir
			}
			prepared, err := workspace.Prepare(workspaceDir)
			if err != nil {
				return fmt.Errorf("prepare workspace: %w", err)
			}
			log.Debug().Str("workspace", prepared).Msg("workspace ready")

			ctx := workspace.WithContext(cmd.Context(), prepared)
			ctx = context.WithValue(ctx, configKey, cfg)
			cmd.SetContext(ctx)
			if root := cmd.Root(); root != nil && root != cmd {
				root.SetContext(ctx)
			}
			return nil
		},
	}

	cmd.SilenceUsage = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().StringVar(&workspaceDir, "workspace-dir", "", "Override workspace root directory")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(newIngestCommand())
	cmd.AddCommand(newLookupCommand())
	cmd.AddCommand(newExportCommand())
	cmd.AddCommand(newStaticFilesCommand())

	return cmd
}

// configFromContext returns the loaded configuration for a command.
func configFromContext(ctx context.Context) config.Config {
	if cfg, ok := ctx.Value(configKey).(config.Config); ok {
		return cfg
	}
	return config.DefaultConfig()
}
