package main

import (
	"fmt"
	"os"

	"github.com/cuemby/collabkit/pkg/config"
	"github.com/cuemby/collabkit/pkg/database"
	"github.com/cuemby/collabkit/pkg/log"
	"github.com/cuemby/collabkit/pkg/persistence"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:     "collabctl",
	Short:   "Inspect and repair collabkit folder, database, and document objects",
	Version: Version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("collabctl version %s\nCommit: %s\n", Version, Commit))

	rootCmd.PersistentFlags().String("config", "", "Path to an optional YAML config file")
	rootCmd.PersistentFlags().String("data-dir", "", "bbolt data directory (overrides the config file)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides the config file)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initConfigAndLogging)

	rootCmd.AddCommand(folderCmd)
	rootCmd.AddCommand(databaseCmd)
	rootCmd.AddCommand(documentCmd)
	rootCmd.AddCommand(repairCmd)
}

func initConfigAndLogging() {
	path, _ := rootCmd.PersistentFlags().GetString("config")
	loaded, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg = loaded

	if v, _ := rootCmd.PersistentFlags().GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := rootCmd.PersistentFlags().GetBool("log-json"); v {
		cfg.LogJSON = v
	}

	log.Init(log.Config{Level: log.Level(cfg.LogLevel), JSONOutput: cfg.LogJSON})
	database.DefaultRowCacheSize = cfg.RowCacheSize
}

// openService opens the bbolt-backed persistence service under the
// configured data directory. Every subcommand that touches real
// objects goes through this, opening and closing its own service
// rather than keeping one alive across commands.
func openService() (*persistence.BoltService, error) {
	svc, err := persistence.NewBoltService(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open data directory %s: %w", cfg.DataDir, err)
	}
	return svc, nil
}
