// Package config loads the small set of knobs collabctl needs to start:
// where its bbolt data lives, how verbose it logs, how often the
// background repair sweep runs, and how many rows each open database
// keeps cached. Values come from an optional YAML file and can be
// overridden by CLI flags, with the YAML file itself entirely optional —
// a missing file just means "use the defaults".
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// defaults mirror the constants already chosen elsewhere in the
// codebase: the reconciler's own sweep cadence and the RowBlock LRU
// size.
const (
	defaultDataDir        = "./data"
	defaultLogLevel       = "info"
	defaultRepairInterval = 10 * time.Second
	defaultRowCacheSize   = 1000
)

// Config is collabctl's full set of startup settings.
type Config struct {
	DataDir        string        `yaml:"dataDir"`
	LogLevel       string        `yaml:"logLevel"`
	LogJSON        bool          `yaml:"logJSON"`
	RepairInterval time.Duration `yaml:"repairInterval"`
	RowCacheSize   int           `yaml:"rowCacheSize"`
}

// Default returns a Config populated with the package's defaults.
func Default() Config {
	return Config{
		DataDir:        defaultDataDir,
		LogLevel:       defaultLogLevel,
		RepairInterval: defaultRepairInterval,
		RowCacheSize:   defaultRowCacheSize,
	}
}

// Load reads path as YAML over top of Default. A path of "" or a
// non-existent file is not an error: the defaults are returned as-is,
// since the config file is optional.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
