// Package config loads the integrity service configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete integrity service configuration.
type Config struct {
	Verify  VerifyConfig  `mapstructure:"verify"`
	Rekor   RekorConfig   `mapstructure:"rekor"`
	Storage StorageConfig `mapstructure:"storage"`
	Policy  PolicyConfig  `mapstructure:"policy"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// VerifyConfig configures attestation verification behavior.
type VerifyConfig struct {
	// Provider is the registered verification provider name.
	Provider string `mapstructure:"provider"`

	// Null selects the null verifier: structural checks only, no
	// cryptography. Never for production.
	Null bool `mapstructure:"null"`
}

// RekorConfig configures transparency-log behavior.
type RekorConfig struct {
	URL               string `mapstructure:"url"`
	CheckTransparency bool   `mapstructure:"check-transparency"`
}

// StorageConfig configures the blob store used for provenance documents.
type StorageConfig struct {
	Dir string `mapstructure:"dir"`
}

// PolicyConfig configures the optional provenance policy gate.
type PolicyConfig struct {
	File string `mapstructure:"file"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Timestamps bool   `mapstructure:"timestamps"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Verify: VerifyConfig{
			Provider: "sigstore",
			Null:     false,
		},
		Rekor: RekorConfig{
			URL:               "https://rekor.sigstore.dev",
			CheckTransparency: false,
		},
		Storage: StorageConfig{
			Dir: ".integrity/provenance",
		},
		Policy: PolicyConfig{
			File: "",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Timestamps: true,
		},
	}
}

// Load loads configuration from file, environment variables, and defaults.
//
// Configuration priority (highest to lowest):
//  1. Environment variables (INTEGRITY_*)
//  2. Configuration file (integrity.yaml)
//  3. Default values
//
// The configPath parameter specifies the path to the configuration file.
// If empty, the loader searches for integrity.yaml in the current directory
// only; configuration is project-scoped by design.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("integrity")
	v.SetConfigType("yaml")
	v.SetEnvPrefix("INTEGRITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		v.AddConfigPath(cwd)
	}

	// The config file is optional; defaults apply when it is absent.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default values in Viper.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("verify.provider", defaults.Verify.Provider)
	v.SetDefault("verify.null", defaults.Verify.Null)

	v.SetDefault("rekor.url", defaults.Rekor.URL)
	v.SetDefault("rekor.check-transparency", defaults.Rekor.CheckTransparency)

	v.SetDefault("storage.dir", defaults.Storage.Dir)

	v.SetDefault("policy.file", defaults.Policy.File)

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.timestamps", defaults.Logging.Timestamps)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Verify.Null && c.Verify.Provider == "" {
		return fmt.Errorf("verify.provider is required unless verify.null is set")
	}

	if c.Rekor.CheckTransparency && c.Rekor.URL == "" {
		return fmt.Errorf("rekor.url is required when rekor.check-transparency is set")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}

	if c.Policy.File != "" {
		if _, err := os.Stat(c.Policy.File); os.IsNotExist(err) {
			return fmt.Errorf("policy file not found: %s", c.Policy.File)
		}
	}

	return nil
}
