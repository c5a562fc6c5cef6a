package commands

import (
	"context"
	"path/filepath"

	"github.com/hashtheplanet/hashtheplanet/pkg/config"
	"github.com/hashtheplanet/hashtheplanet/pkg/fingerprint"
	"github.com/hashtheplanet/hashtheplanet/pkg/workspace"
)

const defaultDatabaseName = "hashtheplanet.yaml"

// databasePath resolves the configured database file, defaulting to the
// workspace db directory.
func databasePath(ctx context.Context, cfg config.Config) string {
	if cfg.Ingest.DatabasePath != "" {
		return cfg.Ingest.DatabasePath
	}
	if ws, ok := workspace.FromContext(ctx); ok {
		return filepath.Join(workspace.DatabaseDir(ws), defaultDatabaseName)
	}
	return defaultDatabaseName
}

// openStore opens the fingerprint database for a command.
func openStore(ctx context.Context) (*fingerprint.FileStore, error) {
	cfg := configFromContext(ctx)
	return fingerprint.OpenFileStore(
		databasePath(ctx, cfg),
		fingerprint.WithStaticExtensions(cfg.Ingest.StaticExtensions),
	)
}
