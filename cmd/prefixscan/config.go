package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the prefixscan configuration file
// (~/.config/prefixscan/config.yaml). Pointer fields distinguish "not set"
// from zero values.
type Config struct {
	// Engine
	Backend           string `yaml:"backend"`
	Strategy          string `yaml:"strategy"`
	GroupSize         *int64 `yaml:"group_size"`
	ElementsPerWorker *int64 `yaml:"elements_per_worker"`
	ResidentGroups    *int64 `yaml:"resident_groups"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "prefixscan", "config.yaml")
}

// applyEngineConfig applies config file defaults to the engine flags that
// were not set on the command line.
func applyEngineConfig(c *cli.Command, cfg Config) {
	if cfg.Backend != "" && !c.IsSet("backend") {
		backendName = cfg.Backend
	}
	if cfg.Strategy != "" && !c.IsSet("strategy") {
		strategyName = cfg.Strategy
	}
	if cfg.GroupSize != nil && !c.IsSet("group-size") {
		groupSize = *cfg.GroupSize
	}
	if cfg.ElementsPerWorker != nil && !c.IsSet("elements-per-worker") {
		elementsPerWorker = *cfg.ElementsPerWorker
	}
	if cfg.ResidentGroups != nil && !c.IsSet("resident-groups") {
		residentGroups = *cfg.ResidentGroups
	}
}

func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	applyEngineConfig(c, cfg)
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	cfg, err := loadConfigFile(path)
	if err != nil {
		return Config{}
	}
	return cfg
}

func loadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
