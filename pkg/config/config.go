// pkg/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex
}

// NewManager creates a Manager with an empty koanf instance.
func NewManager() *Manager {
	return &Manager{koanfInstance: koanf.New(".")}
}

// DefaultConfig returns a Config populated with hardcoded default values.
// These serve as the baseline if no other source overrides them.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Ingest: IngestConfig{
			TagOrder:         "native",
			StaticExtensions: []string{".html", ".md", ".txt"},
		},
	}
}

// defaultConfigAsMap flattens DefaultConfig for the confmap provider.
func defaultConfigAsMap() map[string]interface{} {
	def := DefaultConfig()
	return map[string]interface{}{
		"log.level":                def.Log.Level,
		"log.format":               def.Log.Format,
		"ingest.database_path":     def.Ingest.DatabasePath,
		"ingest.workspace_dir":     def.Ingest.WorkspaceDir,
		"ingest.clone_timeout":     def.Ingest.CloneTimeout,
		"ingest.tag_order":         def.Ingest.TagOrder,
		"ingest.static_extensions": def.Ingest.StaticExtensions,
	}
}

// Load merges configuration sources in precedence order: hardcoded defaults,
// then an optional YAML file, then command-line flags.
func (m *Manager) Load(flags *pflag.FlagSet, configFilePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.koanfInstance.Load(confmap.Provider(defaultConfigAsMap(), "."), nil); err != nil {
		return fmt.Errorf("load defaults: %w", err)
	}

	if configFilePath != "" {
		if err := m.koanfInstance.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return fmt.Errorf("load config file %q: %w", configFilePath, err)
		}
	}

	if flags != nil {
		if err := m.koanfInstance.Load(posflag.Provider(flags, ".", m.koanfInstance), nil); err != nil {
			return fmt.Errorf("load command-line flags: %w", err)
		}
	}

	var newCfg Config
	if err := m.koanfInstance.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	if err := normalize(&newCfg); err != nil {
		return err
	}
	if err := Validate(&newCfg); err != nil {
		return err
	}

	m.currentConfig = newCfg
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentConfig
}

// Validate runs struct-tag validation over cfg.
func Validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// normalize expands tildes and makes configured paths absolute.
func normalize(cfg *Config) error {
	for _, p := range []*string{&cfg.Ingest.DatabasePath, &cfg.Ingest.WorkspaceDir} {
		if *p == "" {
			continue
		}
		expanded, err := expandPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", path, err)
	}
	return abs, nil
}

// BindFlags registers the configuration flags shared by all commands.
func BindFlags(flags *pflag.FlagSet) {
	flags.String("log.level", "", "Log level: trace|debug|info|warn|error")
	flags.String("log.format", "", "Log format: text|json")
	flags.String("ingest.database_path", "", "Fingerprint database file path")
	flags.Duration("ingest.clone_timeout", 0, "Deadline for the repository clone step")
	flags.String("ingest.tag_order", "", "Tag ordering before diffing: native|semver")
}
