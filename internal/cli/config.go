// Package cli holds flagctl's own configuration and output helpers,
// kept separate from internal/config (the server's configuration) since
// the CLI runs standalone against a remote server and persists a
// per-profile credentials file rather than reading environment
// variables for server startup.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is flagctl's on-disk configuration: a set of named profiles,
// each pointing at a server plus the two audience keys for it.
type Config struct {
	DefaultProfile string                    `yaml:"default_profile"`
	Profiles       map[string]ProfileConfig `yaml:"profiles"`
}

// ProfileConfig is one named server target.
type ProfileConfig struct {
	BaseURL       string `yaml:"base_url"`
	ManagementKey string `yaml:"management_key"`
	EvalKey       string `yaml:"eval_key,omitempty"`
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".flagctl", "config.yaml"), nil
}

// LoadConfig loads the configuration from file.
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{
				DefaultProfile: "default",
				Profiles:       make(map[string]ProfileConfig),
			}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// SaveConfig saves the configuration to file.
func SaveConfig(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GetProfile resolves the effective server target and credentials.
// Priority: command flags > environment variables > config file profile.
func GetProfile(profileName, baseURLFlag, managementKeyFlag string) (*ProfileConfig, error) {
	if baseURLFlag != "" && managementKeyFlag != "" {
		return &ProfileConfig{BaseURL: baseURLFlag, ManagementKey: managementKeyFlag, EvalKey: os.Getenv("FLAGCTL_EVAL_KEY")}, nil
	}

	envBaseURL := os.Getenv("FLAGCTL_BASE_URL")
	envKey := os.Getenv("FLAGCTL_MANAGEMENT_KEY")
	if envBaseURL != "" && envKey != "" {
		return &ProfileConfig{BaseURL: envBaseURL, ManagementKey: envKey, EvalKey: os.Getenv("FLAGCTL_EVAL_KEY")}, nil
	}

	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if profileName == "" {
		profileName = cfg.DefaultProfile
	}

	profile, ok := cfg.Profiles[profileName]
	if !ok {
		return nil, fmt.Errorf("profile '%s' not found in config", profileName)
	}

	if baseURLFlag != "" {
		profile.BaseURL = baseURLFlag
	} else if envBaseURL != "" {
		profile.BaseURL = envBaseURL
	}
	if managementKeyFlag != "" {
		profile.ManagementKey = managementKeyFlag
	} else if envKey != "" {
		profile.ManagementKey = envKey
	}

	if profile.BaseURL == "" || profile.ManagementKey == "" {
		return nil, fmt.Errorf("base_url and management_key must be configured for profile '%s'", profileName)
	}
	return &profile, nil
}

// InitConfig creates a default config file.
func InitConfig() error {
	cfg := &Config{
		DefaultProfile: "dev",
		Profiles: map[string]ProfileConfig{
			"dev": {BaseURL: "http://localhost:8080", ManagementKey: "mgmt-dev-key", EvalKey: "eval-dev-key"},
		},
	}
	return SaveConfig(cfg)
}
