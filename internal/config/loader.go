package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".logocluster"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile reads a YAML configuration file. If the file does not
// exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	f := NewFile()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if f.Hosts == nil {
		f.Hosts = make(map[string]HostConfig)
	}
	return f, nil
}

// ApplyEnv overlays LOGOCLUSTER_* environment variables onto s.
func ApplyEnv(s *Settings) error {
	if err := cleanenv.UpdateEnv(s); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

// Load resolves the configuration file and environment into cfg. A missing
// file is only an error when cfg.ConfigFilePath names it explicitly.
func Load(cfg *Config) error {
	file := NewFile()
	path := FindConfigFile(cfg.ConfigFilePath)
	switch {
	case path != "":
		loaded, err := LoadConfigFile(path)
		if err != nil {
			return err
		}
		file = loaded
	case cfg.ConfigFilePath != "":
		return fmt.Errorf("%w: %s", ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if err := ApplyEnv(&file.Settings); err != nil {
		return err
	}
	cfg.ApplySettings(file.Settings)
	cfg.Hosts = file
	return nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .logocluster in the current directory
// 3. Look for .logocluster in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
