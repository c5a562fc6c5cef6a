// pkg/config/types.go
package config

import "time"

// Config is the root configuration structure for the htp application.
type Config struct {
	Log    LogConfig    `koanf:"log"`
	Ingest IngestConfig `koanf:"ingest"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic"`
	Format string `koanf:"format" validate:"omitempty,oneof=text json"`
}

// IngestConfig holds configuration for the repository ingestion pipeline.
type IngestConfig struct {
	// DatabasePath is the fingerprint database file. When empty, the
	// database lives under <workspace>/db/hashtheplanet.yaml.
	DatabasePath string `koanf:"database_path"`

	// WorkspaceDir is the workspace root directory holding clones and the
	// default database location.
	WorkspaceDir string `koanf:"workspace_dir"`

	// CloneTimeout bounds the clone step, the only unbounded-latency
	// network operation in the pipeline. Zero means no deadline.
	CloneTimeout time.Duration `koanf:"clone_timeout" validate:"min=0"`

	// TagOrder selects the tag ordering applied before diffing:
	// "native" (repository reference order) or "semver".
	TagOrder string `koanf:"tag_order" validate:"omitempty,oneof=native semver"`

	// StaticExtensions overrides the extensions considered static-file
	// fingerprint candidates.
	StaticExtensions []string `koanf:"static_extensions" validate:"dive,startswith=."`
}
