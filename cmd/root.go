package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/worktime/internal/client"
	"github.com/joescharf/worktime/internal/models"
	"github.com/joescharf/worktime/internal/output"
	"github.com/joescharf/worktime/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	dataStore store.Store

	verbose bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "worktime",
	Short: "Work time tracker - projects, activity sampling, idle detection",
	Long: `worktime tracks time spent on projects.

A background daemon (worktime serve start) owns the single tracking slot,
samples activity, carves out idle gaps and auto-stops forgotten sessions.
The other commands edit sessions, attribute idle time and render timelines.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return rootRun(cmd)
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/worktime/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDirFunc()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("WORKTIME")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	defaultConfigDir, _ := configDirFunc()
	setDefaults(defaultConfigDir)

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

// setDefaults registers every config key with its default value.
func setDefaults(dir string) {
	viper.SetDefault("state_dir", dir)
	viper.SetDefault("db_path", filepath.Join(dir, "worktime.db"))
	viper.SetDefault("port", 8765)
	viper.SetDefault("server_url", "")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("tracking.idle_threshold_minutes", 5)
	viper.SetDefault("tracking.checkpoint_interval", "5m")
	viper.SetDefault("sampler.interval", "30s")
	viper.SetDefault("sampler.command", "")
	viper.SetDefault("sampler.app_name", "Work session")
	viper.SetDefault("store.timeout", "5s")
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	// Initialize store lazily: only when commands actually need it.
	// This allows config/version commands to run without a db.
}

// rootRun handles `worktime` with no subcommand: show the tracking status
// when a daemon is running, help otherwise.
func rootRun(cmd *cobra.Command) error {
	if err := apiClient().Health(cmd.Context()); err != nil {
		return cmd.Help()
	}
	return trackStatusRun(cmd.Context())
}

// getStore returns the shared store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	dbPath := viper.GetString("db_path")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ctx := rootCmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}

// serverURL is the daemon base URL: server_url when set, localhost:port otherwise.
func serverURL() string {
	if u := viper.GetString("server_url"); u != "" {
		return u
	}
	return fmt.Sprintf("http://localhost:%d", viper.GetInt("port"))
}

func apiClient() *client.Client {
	return client.New(serverURL())
}

// newLogger builds the slog logger configured by log.level and log.format.
func newLogger(w io.Writer) *slog.Logger {
	level := parseLogLevel(viper.GetString("log.level"))
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if viper.GetString("log.format") == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// resolveProject finds a project by name, then by ID.
func resolveProject(ctx context.Context, s store.Store, nameOrID string) (*models.Project, error) {
	if p, err := s.GetProjectByName(ctx, nameOrID); err == nil {
		return p, nil
	}
	if p, err := s.GetProject(ctx, nameOrID); err == nil {
		return p, nil
	}
	return nil, fmt.Errorf("project not found: %s", nameOrID)
}

// activityFlag maps an empty flag or "none" to no activity type.
func activityFlag(v string) *string {
	if strings.EqualFold(v, "none") {
		return nil
	}
	return models.StringPtr(v)
}
