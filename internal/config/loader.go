package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the default configuration file name
	ConfigFileName = "stackpilot.yaml"

	// DefaultTimeout is the fallback readiness timeout.
	DefaultTimeout = 60 * time.Second
	// DefaultInterval is the fallback poll interval.
	DefaultInterval = 1 * time.Second
	// DefaultStateFile is the fallback handoff record location,
	// relative to the working directory.
	DefaultStateFile = ".stackpilot/state.json"
)

// StateFileEnvVar names the handoff record file for test processes.
const StateFileEnvVar = "STACKPILOT_STATE_FILE"

// ConfigNotFoundError indicates the configuration file does not exist.
type ConfigNotFoundError struct {
	Path string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("config file not found: %s", e.Path)
}

// Loader handles loading and parsing of stackpilot configuration
type Loader struct {
	workDir string
	viper   *viper.Viper
}

// NewLoader creates a new configuration loader for the given working directory
func NewLoader(workDir string) *Loader {
	return &Loader{
		workDir: workDir,
		viper:   viper.New(),
	}
}

// Load reads and parses the stackpilot.yaml configuration file
func (l *Loader) Load() (*File, error) {
	configPath := l.ConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, &ConfigNotFoundError{Path: configPath}
	}

	l.viper.SetConfigFile(configPath)
	l.viper.SetConfigType("yaml")

	l.viper.SetDefault("version", "1")
	l.viper.SetDefault("defaults.timeout", DefaultTimeout)
	l.viper.SetDefault("defaults.interval", DefaultInterval)
	l.viper.SetDefault("defaults.state_file", DefaultStateFile)

	if err := l.viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg File
	if err := l.viper.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Viper lowercases map keys, but env var names are case-sensitive.
	// Re-read the YAML to restore original casing for stack vars.
	// Non-fatal: vars still work, just with lowercased names.
	_ = l.fixVarKeyCase(&cfg, configPath)

	// Map keys don't carry their own name; fill it in and apply defaults.
	for name, stack := range cfg.Stacks {
		stack.Name = name
		stack.ApplyDefaults(cfg.Defaults)
		cfg.Stacks[name] = stack
	}

	return &cfg, nil
}

// fixVarKeyCase re-reads the YAML to preserve original case for var keys.
func (l *Loader) fixVarKeyCase(cfg *File, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	// Partial struct just for extracting vars with original case
	var raw struct {
		Stacks map[string]struct {
			Vars map[string]string `yaml:"vars"`
		} `yaml:"stacks"`
	}

	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}

	for name, rawStack := range raw.Stacks {
		if len(rawStack.Vars) == 0 {
			continue
		}
		if stack, ok := cfg.Stacks[name]; ok {
			stack.Vars = rawStack.Vars
			cfg.Stacks[name] = stack
		}
	}

	return nil
}

// Resolve returns the named stack from the configuration file, validated.
func (l *Loader) Resolve(name string) (*Stack, error) {
	cfg, err := l.Load()
	if err != nil {
		return nil, err
	}

	stack, ok := cfg.Stacks[name]
	if !ok {
		return nil, fmt.Errorf("stack %q not defined in %s", name, l.ConfigPath())
	}
	if err := stack.Validate(); err != nil {
		return nil, fmt.Errorf("stack %q: %w", name, err)
	}
	return &stack, nil
}

// ConfigPath returns the full path to the config file
func (l *Loader) ConfigPath() string {
	return filepath.Join(l.workDir, ConfigFileName)
}

// Exists checks if the configuration file exists
func (l *Loader) Exists() bool {
	_, err := os.Stat(l.ConfigPath())
	return err == nil
}

// LogsDir returns the directory for rotated log files, next to the
// default state file location.
func LogsDir() string {
	return filepath.Join(".stackpilot", "logs")
}
