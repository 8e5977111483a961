package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ComposeConfig holds orchestration-related configuration.
type ComposeConfig struct {
	Files         string `mapstructure:"compose_files"`
	ProjectPrefix string `mapstructure:"compose_project_prefix"`
}

// ProbeConfig holds readiness-probe configuration.
type ProbeConfig struct {
	RestPort        int    `mapstructure:"probe_rest_port"`
	PeerNamePattern string `mapstructure:"probe_peer_name_pattern"`
	PollInterval    int    `mapstructure:"probe_poll_interval"`
	Timeout         int    `mapstructure:"probe_timeout"`
}

// LoggingConfig holds the logging-related configuration.
type LoggingConfig struct {
	Level string `mapstructure:"log_level"`
}

// Config is the top-level configuration struct.
type Config struct {
	Compose ComposeConfig `mapstructure:"compose"`
	Probe   ProbeConfig   `mapstructure:"probe"`
	Logging LoggingConfig `mapstructure:"log"`
}

// InitConfig performs the initial configuration: setting defaults, specifying the config file, and reading it.
func InitConfig() error {
	// Set defaults for each sub-configuration.
	viper.SetDefault("compose.compose_files", "docker-compose.yml")
	viper.SetDefault("compose.compose_project_prefix", "")
	viper.SetDefault("probe.probe_rest_port", 7050)
	viper.SetDefault("probe.probe_peer_name_pattern", "vp[0-9]+")
	viper.SetDefault("probe.probe_poll_interval", 1)
	viper.SetDefault("probe.probe_timeout", 120)
	viper.SetDefault("log.log_level", "INFO")

	// Specify the config file details.
	viper.SetConfigName("config") // Looks for config.yaml
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".") // current directory

	// Read the config file if available.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// If the file is not found, just continue with defaults and env vars.
	}

	// Enable automatic environment variable binding.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return nil
}

// Load unmarshals the configuration into the Config struct.
func Load() (*Config, error) {
	if err := InitConfig(); err != nil {
		return nil, err
	}
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	return &config, nil
}
