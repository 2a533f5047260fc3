package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/therandomlabs/mpdl/internal/index"
	"github.com/therandomlabs/mpdl/internal/resolver"
)

// APIKeyEnv overrides an unset CurseForge API key.
const APIKeyEnv = "CURSEFORGE_API_KEY"

var ErrUnsupportedFormat = errors.New("unsupported config format")

// Config holds the settings of the mpdl command.
type Config struct {
	CurseForge CurseForge        `yaml:"curseforge" toml:"curseforge"`
	Threads    int               `yaml:"threads" toml:"threads"`
	Timeout    time.Duration     `yaml:"timeout" toml:"timeout"`
	Presets    map[string]string `yaml:"presets" toml:"presets"`
}

// CurseForge configures the mod index client.
type CurseForge struct {
	Endpoint  string `yaml:"endpoint" toml:"endpoint"`
	APIKey    string `yaml:"apiKey" toml:"apiKey"`
	UserAgent string `yaml:"userAgent" toml:"userAgent"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		CurseForge: CurseForge{
			Endpoint:  index.DefaultEndpoint,
			UserAgent: index.DefaultUserAgent,
		},
		Threads: resolver.DefaultWorkers,
		Timeout: 30 * time.Second,
	}
}

// Load reads a YAML or TOML config file on top of Default. An empty path
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := decode(path, data, cfg); err != nil {
			return nil, err
		}
	}

	if cfg.CurseForge.APIKey == "" {
		cfg.CurseForge.APIKey = os.Getenv(APIKeyEnv)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing config YAML: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing config TOML: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Threads < 1 {
		return fmt.Errorf("threads must be positive, got %d", c.Threads)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.CurseForge.Endpoint == "" {
		return errors.New("curseforge endpoint must not be empty")
	}
	return nil
}

// IndexOptions returns the CurseForge client options for c.
func (c *Config) IndexOptions() index.Options {
	return index.Options{
		Endpoint:  c.CurseForge.Endpoint,
		APIKey:    c.CurseForge.APIKey,
		UserAgent: c.CurseForge.UserAgent,
	}
}
