package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all daemon configuration.
type Config struct {
	Server       ServerConfig
	Logging      LogConfig
	RateLimit    RateLimitConfig
	Collaborator CollaboratorConfig
	State        StateConfig
	Discovery    DiscoveryConfig
	Installer    InstallerConfig
}

// ServerConfig holds HTTP control API configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8765"`
	Host string `envconfig:"HOST" default:"127.0.0.1"`
	// CORSOrigins is a comma-separated list of browser origins allowed to
	// call the API and open the stream. "*" allows any origin.
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:1420,http://127.0.0.1:1420,tauri://localhost,http://tauri.localhost"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds API rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"50"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"100"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CollaboratorConfig controls how adb and scrcpy are located and invoked.
type CollaboratorConfig struct {
	// BinDir is searched before ./scrcpy-bin and PATH. A per-request
	// override from SessionConfig takes precedence over it.
	BinDir         string        `envconfig:"SCRCPY_BIN_DIR" default:""`
	ConnectTimeout time.Duration `envconfig:"ADB_CONNECT_TIMEOUT" default:"5s"`
	CommandTimeout time.Duration `envconfig:"ADB_COMMAND_TIMEOUT" default:"60s"`
}

// StateConfig locates the persisted key/value state file.
type StateConfig struct {
	Path string `envconfig:"STATE_PATH" default:""`
}

// DiscoveryConfig controls background refresh and mDNS browsing.
type DiscoveryConfig struct {
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"5s"`
	MDNSEnabled     bool          `envconfig:"MDNS_ENABLED" default:"true"`
	MDNSTimeout     time.Duration `envconfig:"MDNS_TIMEOUT" default:"3s"`
}

// InstallerConfig controls the scrcpy binary download.
type InstallerConfig struct {
	ReleaseAPI  string `envconfig:"RELEASE_API_URL" default:"https://api.github.com/repos/Genymobile/scrcpy/releases/latest"`
	ReleasePage string `envconfig:"RELEASE_PAGE_URL" default:"https://github.com/Genymobile/scrcpy/releases/latest"`
	InstallDir  string `envconfig:"INSTALL_DIR" default:""`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.State.Path = resolveStatePath(cfg.State.Path)
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8765",
			Host:        "127.0.0.1",
			CORSOrigins: []string{
				"http://localhost:1420",
				"http://127.0.0.1:1420",
				"tauri://localhost",
				"http://tauri.localhost",
			},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
			Enabled:           true,
		},
		Collaborator: CollaboratorConfig{
			ConnectTimeout: 5 * time.Second,
			CommandTimeout: 60 * time.Second,
		},
		State: StateConfig{
			Path: resolveStatePath(""),
		},
		Discovery: DiscoveryConfig{
			RefreshInterval: 5 * time.Second,
			MDNSEnabled:     true,
			MDNSTimeout:     3 * time.Second,
		},
		Installer: InstallerConfig{
			ReleaseAPI:  "https://api.github.com/repos/Genymobile/scrcpy/releases/latest",
			ReleasePage: "https://github.com/Genymobile/scrcpy/releases/latest",
		},
	}
}

// Addr returns the listen address of the control API.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// resolveStatePath falls back to <user config dir>/scrcpy-gui/state.json,
// or a file in the working directory when no config dir is available.
func resolveStatePath(path string) string {
	if path != "" {
		return path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "scrcpy-gui-state.json"
	}
	return filepath.Join(dir, "scrcpy-gui", "state.json")
}
