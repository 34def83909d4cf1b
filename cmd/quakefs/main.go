package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jchantrell/quakefs/internal/config"
	"github.com/jchantrell/quakefs/internal/filesys"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	cfg     *config.Config
	cfgFile string

	baseDir    string
	game       string
	rogue      bool
	hipnotic   bool
	searchPath []string
	progHack   bool
	dbPath     string
	logLevel   string
	logFormat  string
	noProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "quakefs",
	Short: "Quake search path and archive inspection tool",
	Long: `quakefs resolves game files the way the engine does: through a layered
search path of game directories and .pak archives, where later entries
shadow earlier ones.

It can show the search path, list and extract pack contents, inspect WAD2
lump files and record everything visible on the path in a SQLite catalog.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		flags := cmd.Flags()
		if flags.Changed("basedir") {
			cfg.BaseDir = baseDir
		}
		if flags.Changed("game") {
			cfg.Game = game
		}
		if flags.Changed("rogue") {
			cfg.Rogue = rogue
		}
		if flags.Changed("hipnotic") {
			cfg.Hipnotic = hipnotic
		}
		if flags.Changed("path") {
			cfg.Path = searchPath
		}
		if flags.Changed("proghack") {
			cfg.ProgHack = progHack
		}
		if flags.Changed("database") {
			cfg.Database = dbPath
		}
		if flags.Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if flags.Changed("log-format") {
			cfg.LogFormat = logFormat
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		var handler slog.Handler
		if cfg.LogFormat == config.LogFormatJSON {
			handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: cfg.Level(),
			})
		} else {
			handler = tint.NewHandler(os.Stderr, &tint.Options{
				Level: cfg.Level(),
			})
		}

		slog.SetDefault(slog.New(handler))

		slog.Debug("Configuration",
			"base_dir", cfg.BaseDir,
			"game", cfg.Game,
			"rogue", cfg.Rogue,
			"hipnotic", cfg.Hipnotic,
			"path", cfg.Path,
			"proghack", cfg.ProgHack,
			"database", cfg.Database,
			"log_level", cfg.LogLevel,
			"log_format", cfg.LogFormat)

		return nil
	},
}

// openFileSys builds the search path from the loaded configuration
func openFileSys() (*filesys.FileSys, error) {
	fsys, err := filesys.New(cfg.FileSysOptions())
	if err != nil {
		return nil, fmt.Errorf("building search path: %w", err)
	}
	return fsys, nil
}

// progressEnabled reports whether progress bars should be drawn
func progressEnabled() bool {
	return !(noProgress || cfg.LogFormat == config.LogFormatJSON || cfg.LogLevel == "debug")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is quakefs.yaml in $HOME or pwd)")
	rootCmd.PersistentFlags().StringVarP(&baseDir, "basedir", "b", "", "directory containing the game directories")
	rootCmd.PersistentFlags().StringVarP(&game, "game", "g", "", "game directory to add above id1")
	rootCmd.PersistentFlags().BoolVar(&rogue, "rogue", false, "add the rogue mission pack")
	rootCmd.PersistentFlags().BoolVar(&hipnotic, "hipnotic", false, "add the hipnotic mission pack")
	rootCmd.PersistentFlags().StringSliceVar(&searchPath, "path", []string{}, "comma-separated list of directories and .pak files replacing the search path, lowest priority first")
	rootCmd.PersistentFlags().BoolVar(&progHack, "proghack", false, "leave the highest priority entry out of lookups")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "database", "d", "", "catalog database file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bar")
}
