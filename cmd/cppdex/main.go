package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/hward/cppdex"
	"github.com/hward/cppdex/internal/config"
)

var flagVerbose bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "cppdex",
	Short:         "C++ symbol indexer for documentation generation",
	Long:          "cppdex parses C++ sources with tree-sitter and builds a cross-referenced symbol index, exported as a SQLite database.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if flagVerbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
	// No Run; prints help by default.
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(indexCmd)
}

var (
	flagConfig          string
	flagCompileCommands string
	flagDB              string
	flagLimit           int
	flagJobs            int
	flagIgnorePrivate   bool
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a C++ codebase",
	Long:  "Enumerates translation units (from a compilation database when available), traverses them in parallel, resolves cross-references, and writes the index to SQLite.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&flagConfig, "config", "", "TOML config file (default: .cppdex.toml in the target dir, if present)")
	indexCmd.Flags().StringVar(&flagCompileCommands, "compile-commands", "", "path to compile_commands.json")
	indexCmd.Flags().StringVar(&flagDB, "db", "", "output database path (default: cppdex.db in the target dir)")
	indexCmd.Flags().IntVar(&flagLimit, "limit", 0, "index at most this many translation units (0 = all)")
	indexCmd.Flags().IntVar(&flagJobs, "jobs", 0, "traversal worker count (0 = one per CPU)")
	indexCmd.Flags().BoolVar(&flagIgnorePrivate, "ignore-private", false, "exclude private members from the index")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(targetDir)
	if err != nil {
		return err
	}
	if flagCompileCommands != "" {
		cfg.CompileCommands = flagCompileCommands
	}
	if flagIgnorePrivate {
		cfg.IgnorePrivateMembers = true
	}

	dbPath := flagDB
	if dbPath == "" {
		dbPath = filepath.Join(targetDir, "cppdex.db")
	}
	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale database: %w", err)
	}

	engine := cppdex.New(cfg, cppdex.WithLimit(flagLimit), cppdex.WithJobs(flagJobs))

	stats, err := engine.Run(context.Background())
	if err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	if err := engine.Export(dbPath); err != nil {
		return fmt.Errorf("exporting: %w", err)
	}

	fmt.Fprintln(os.Stderr, stats)
	fmt.Fprintf(os.Stderr, "Database: %s (total %s)\n", dbPath, time.Since(start).Round(time.Millisecond))
	return nil
}

// loadConfig reads the --config file when given, falls back to
// .cppdex.toml in the target directory, and otherwise uses defaults.
func loadConfig(targetDir string) (*config.Config, error) {
	path := flagConfig
	if path == "" {
		candidate := filepath.Join(targetDir, ".cppdex.toml")
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path == "" {
		return config.Default(targetDir), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.RootDir == "" {
		cfg.RootDir = targetDir
	}
	return cfg, nil
}

// resolveTargetDir returns the absolute path of the directory to index.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}
