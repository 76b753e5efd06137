package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Modes the host can run in.
const (
	// ModeLocal keeps all data in an embedded database; no server.
	ModeLocal = "local"
	// ModeAPI syncs against a caloriemate server.
	ModeAPI = "api"
)

const (
	defaultConfigPath   = "~/.config/caloriemate/config.toml"
	defaultDatabasePath = "~/.local/share/caloriemate/meals.db"

	// Warnings and errors only; lower log_level in the config to see
	// store activity.
	defaultLogLevel = 4
)

// Config is the host configuration. Tokens are stored in it, so the
// file is written with owner-only permissions.
type Config struct {
	Mode     string      `toml:"mode"`
	LogLevel int         `toml:"log_level"`
	Local    LocalConfig `toml:"local"`
	API      APIConfig   `toml:"api"`
}

// LocalConfig configures local mode.
type LocalConfig struct {
	DatabasePath string `toml:"database_path"`
}

// APIConfig configures api mode. The tokens are written by login and
// rotated transparently afterwards.
type APIConfig struct {
	ServerURL    string `toml:"server_url"`
	AccessToken  string `toml:"access_token"`
	RefreshToken string `toml:"refresh_token"`
}

func defaultConfig() Config {
	return Config{
		Mode:     ModeLocal,
		LogLevel: defaultLogLevel,
		Local:    LocalConfig{DatabasePath: defaultDatabasePath},
	}
}

// loadConfig reads the config file, falling back to defaults when it
// does not exist. An empty path means the default location.
func loadConfig(path string) (Config, error) {
	resolved, err := resolveConfigPath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := defaultConfig()
	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", resolved, err)
	}

	if cfg.Mode == "" {
		cfg.Mode = ModeLocal
	}
	if cfg.Local.DatabasePath == "" {
		cfg.Local.DatabasePath = defaultDatabasePath
	}
	return cfg, nil
}

// saveConfig writes the config, creating its directory if needed.
func saveConfig(path string, cfg Config) error {
	resolved, err := resolveConfigPath(path)
	if err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultConfigPath
	}
	return expandPath(path)
}

// expandPath resolves a leading ~ against the home directory.
func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
