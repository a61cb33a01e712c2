package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "worktime"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage worktime configuration.

Running bare 'worktime config' is the same as 'worktime config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# worktime configuration
# See: worktime config show (for effective values and sources)

# State/data directory (default: ~/.config/worktime)
# state_dir: {{ .StateDir }}

# SQLite database path (default: ~/.config/worktime/worktime.db)
# db_path: {{ .DBPath }}

# Daemon HTTP port (default: 8765)
port: {{ .Port }}

# Logging: level is debug, info, warn or error; format is text or json
log:
  level: "{{ .LogLevel }}"
  format: "{{ .LogFormat }}"

# Tracking engine
tracking:
  # Silence longer than this many minutes is idle time (default: 5)
  idle_threshold_minutes: {{ .IdleThreshold }}

  # How often the running session is checkpointed for crash recovery (default: 5m)
  checkpoint_interval: "{{ .CheckpointInterval }}"

# Activity sampler
sampler:
  # How often the daemon samples activity (default: 30s)
  interval: "{{ .SamplerInterval }}"

  # Shell command printing the foreground application; empty means
  # every sample counts as activity under app_name. Exit status != 0 means no activity.
  command: "{{ .SamplerCommand }}"

  # App name recorded when no command is configured
  app_name: "{{ .SamplerAppName }}"
`

type configTemplateData struct {
	StateDir           string
	DBPath             string
	Port               int
	LogLevel           string
	LogFormat          string
	IdleThreshold      int
	CheckpointInterval string
	SamplerInterval    string
	SamplerCommand     string
	SamplerAppName     string
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	// Build template data from current viper values
	data := configTemplateData{
		StateDir:           viper.GetString("state_dir"),
		DBPath:             viper.GetString("db_path"),
		Port:               viper.GetInt("port"),
		LogLevel:           viper.GetString("log.level"),
		LogFormat:          viper.GetString("log.format"),
		IdleThreshold:      viper.GetInt("tracking.idle_threshold_minutes"),
		CheckpointInterval: viper.GetDuration("tracking.checkpoint_interval").String(),
		SamplerInterval:    viper.GetDuration("sampler.interval").String(),
		SamplerCommand:     viper.GetString("sampler.command"),
		SamplerAppName:     viper.GetString("sampler.app_name"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	if dryRun {
		ui.DryRunMsg("Would create config file: %s", cfgPath)
		fmt.Fprintln(ui.Out)
		fmt.Fprint(ui.Out, buf.String())
		return nil
	}

	// Create config directory
	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(cfgPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

// configKeyInfo describes a config key for display purposes.
type configKeyInfo struct {
	Key    string
	EnvVar string
}

var configKeys = []configKeyInfo{
	{Key: "state_dir", EnvVar: "WORKTIME_STATE_DIR"},
	{Key: "db_path", EnvVar: "WORKTIME_DB_PATH"},
	{Key: "port", EnvVar: "WORKTIME_PORT"},
	{Key: "server_url", EnvVar: "WORKTIME_SERVER_URL"},
	{Key: "log.level", EnvVar: "WORKTIME_LOG_LEVEL"},
	{Key: "log.format", EnvVar: "WORKTIME_LOG_FORMAT"},
	{Key: "tracking.idle_threshold_minutes", EnvVar: "WORKTIME_TRACKING_IDLE_THRESHOLD_MINUTES"},
	{Key: "tracking.checkpoint_interval", EnvVar: "WORKTIME_TRACKING_CHECKPOINT_INTERVAL"},
	{Key: "sampler.interval", EnvVar: "WORKTIME_SAMPLER_INTERVAL"},
	{Key: "sampler.command", EnvVar: "WORKTIME_SAMPLER_COMMAND"},
	{Key: "sampler.app_name", EnvVar: "WORKTIME_SAMPLER_APP_NAME"},
	{Key: "store.timeout", EnvVar: "WORKTIME_STORE_TIMEOUT"},
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if config file exists
	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	fmt.Fprintln(ui.Out)

	// Read config file values to determine file source
	fileValues := readConfigFileValues(cfgPath)

	for _, k := range configKeys {
		val := viper.Get(k.Key)
		source := detectSource(k.Key, k.EnvVar, fileValues)
		fmt.Fprintf(ui.Out, "  %-32s %v  %s\n", k.Key, val, source)
	}

	return nil
}

// readConfigFileValues reads the raw YAML file and returns a flat map of keys present in it.
func readConfigFileValues(path string) map[string]bool {
	result := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return result
	}

	// Flatten nested keys with dot notation
	flattenKeys("", parsed, result)
	return result
}

// flattenKeys recursively flattens a nested map to dot-notation keys.
func flattenKeys(prefix string, m map[string]any, result map[string]bool) {
	for key, val := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flattenKeys(fullKey, nested, result)
		} else {
			result[fullKey] = true
		}
	}
}

// detectSource determines where a config value is coming from.
func detectSource(key, envVar string, fileValues map[string]bool) string {
	if _, ok := os.LookupEnv(envVar); ok {
		return fmt.Sprintf("(env: %s)", envVar)
	}
	if fileValues[key] {
		return "(file)"
	}
	return "(default)"
}

func configEditRun() error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		return fmt.Errorf("$EDITOR is not set; set it to your preferred editor (e.g. export EDITOR=vim)")
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s (run 'worktime config init' first)", cfgPath)
	}

	if dryRun {
		ui.DryRunMsg("Would open %s in %s", cfgPath, editor)
		return nil
	}

	editCmd := exec.Command(editor, cfgPath)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	return editCmd.Run()
}
