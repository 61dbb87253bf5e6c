package app

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Input formats accepted by Config.Format.
const (
	FormatAuto = "auto"
	FormatHCL  = "hcl"
	FormatYAML = "yaml"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// Paths are project definition files or directories.
	Paths []string
	// Format selects the loader; auto runs both and merges the results.
	Format string
	// Catalogs are YAML files listing templates owned by other projects.
	Catalogs []string
	// EnvFiles are dotenv files applied as project-scope overrides.
	EnvFiles []string
	// Sets are name=value project-scope overrides, applied after EnvFiles.
	Sets []string

	LogFormat string
	LogLevel  string

	// DBPath is the SQLite database holding snapshots.
	DBPath string
	// Addr is the listen address of the API server.
	Addr string
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Paths) == 0 {
		return nil, errors.New("at least one project path is required")
	}
	if cfg.Format == "" {
		cfg.Format = FormatAuto
	}
	cfg.Format = strings.ToLower(cfg.Format)
	if !slices.Contains([]string{FormatAuto, FormatHCL, FormatYAML}, cfg.Format) {
		return nil, fmt.Errorf("unknown input format %q: expected auto, hcl or yaml", cfg.Format)
	}
	for _, set := range cfg.Sets {
		if _, _, err := splitSet(set); err != nil {
			return nil, err
		}
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "pipedef.db"
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	return &cfg, nil
}

func splitSet(s string) (name, value string, err error) {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("invalid --set %q: expected name=value", s)
	}
	return name, value, nil
}
