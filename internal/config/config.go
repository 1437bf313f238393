package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces environment overrides: SILO_SERVER__PORT=9000 sets
// server.port.
const EnvPrefix = "SILO_"

// Config is the service configuration.
type Config struct {
	Server  ServerConfig  `json:"server"`
	Store   StoreConfig   `json:"store"`
	Catalog CatalogConfig `json:"catalog"`
	Log     LogConfig     `json:"log"`
	Planner PlannerConfig `json:"planner"`
}

type ServerConfig struct {
	Port int `json:"port"`
	// Mode is the gin mode: debug, release or test.
	Mode                string   `json:"mode"`
	AllowedOrigins      []string `json:"allowed_origins"`
	ReadTimeoutSeconds  int      `json:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `json:"write_timeout_seconds"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Mode == "" {
		c.Mode = "release"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if c.ReadTimeoutSeconds == 0 {
		c.ReadTimeoutSeconds = 15
	}
	if c.WriteTimeoutSeconds == 0 {
		c.WriteTimeoutSeconds = 30
	}
}

func (c ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Port)
	}
	switch c.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", c.Mode)
	}
	return nil
}

// Addr is the listen address.
func (c ServerConfig) Addr() string { return fmt.Sprintf(":%d", c.Port) }

type StoreConfig struct {
	// Path of the SQLite database. Empty disables persistence.
	Path string `json:"path"`
}

type CatalogConfig struct {
	Path string `json:"path"`
}

func (c *CatalogConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "configs/catalog.yaml"
	}
}

type LogConfig struct {
	Level string `json:"level"`
}

func (c *LogConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

func (c LogConfig) Validate() error {
	switch c.Level {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
		return nil
	}
	return fmt.Errorf("unknown log level %s", c.Level)
}

type PlannerConfig struct {
	// Concurrency bounds parallel product simulations in a plan request.
	Concurrency int `json:"concurrency"`
	// CacheTTLMinutes is how long a simulation result stays retrievable by id.
	CacheTTLMinutes int `json:"cache_ttl_minutes"`
}

func (c *PlannerConfig) SetDefaults() {
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
	if c.CacheTTLMinutes == 0 {
		c.CacheTTLMinutes = 30
	}
}

func (c PlannerConfig) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("planner.concurrency must be >= 1")
	}
	if c.CacheTTLMinutes < 1 {
		return fmt.Errorf("planner.cache_ttl_minutes must be >= 1")
	}
	return nil
}

// Load reads path (YAML or JSON) when given, then applies SILO_ environment
// overrides, defaults and validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		var parser koanf.Parser
		switch ext := strings.ToLower(filepath.Ext(path)); ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Catalog.SetDefaults()
	c.Log.SetDefaults()
	c.Planner.SetDefaults()
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return c.Planner.Validate()
}
