// Package config loads marqant settings from a YAML file and the environment.
//
// Precedence, lowest first: built-in defaults, the YAML file, environment
// variables. Command-line flags are applied on top by the CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/marqant/internal/format"
)

// Environment overrides.
const (
	EnvDigCommand = "MQ_DIG_CMD"
	EnvZone       = "MARQANT_ZONE"
	EnvCache      = "MARQANT_CACHE"
)

// Resolver client kinds.
const (
	ClientNet = "net"
	ClientDig = "dig"
)

// Config is the full configuration.
type Config struct {
	Resolver ResolverConfig `yaml:"resolver"`
	Cache    CacheConfig    `yaml:"cache"`
	Encode   EncodeConfig   `yaml:"encode"`
}

// ResolverConfig configures dictionary resolution.
type ResolverConfig struct {
	Zone       string        `yaml:"zone"`
	Timeout    time.Duration `yaml:"timeout"`
	Retries    int           `yaml:"retries"`
	Client     string        `yaml:"client"`
	DigCommand string        `yaml:"dig_command"`
	Server     string        `yaml:"server"`
}

// CacheConfig configures the persistent dictionary cache ("" = disabled).
type CacheConfig struct {
	Path string `yaml:"path"`
}

// EncodeConfig holds default native encoding flags.
type EncodeConfig struct {
	Flags string `yaml:"flags"`
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Path    string
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Resolver: ResolverConfig{
			Timeout: 5 * time.Second,
			Retries: 2,
			Client:  ClientNet,
		},
	}
}

// Load reads path (if non-empty) over the defaults, then applies the
// environment. A missing path is an error; use "" for no file.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := decode(f, &cfg); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg.ApplyEnv(getenv)

	if err := cfg.Validate(); err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML data over the defaults without consulting the
// environment.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := decode(bytes.NewReader(data), &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// ApplyEnv overlays environment variables. MQ_DIG_CMD also selects the dig
// client, since naming a dig executable only makes sense for it.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvDigCommand); v != "" {
		c.Resolver.DigCommand = v
		c.Resolver.Client = ClientDig
	}
	if v := getenv(EnvZone); v != "" {
		c.Resolver.Zone = v
	}
	if v := getenv(EnvCache); v != "" {
		c.Cache.Path = v
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch c.Resolver.Client {
	case ClientNet, ClientDig:
	default:
		return &ConfigError{Field: "resolver.client", Message: fmt.Sprintf("must be %q or %q, got %q", ClientNet, ClientDig, c.Resolver.Client)}
	}
	if c.Resolver.Timeout <= 0 {
		return &ConfigError{Field: "resolver.timeout", Message: "must be positive"}
	}
	if c.Resolver.Retries < 0 {
		return &ConfigError{Field: "resolver.retries", Message: "must not be negative"}
	}
	if _, err := format.ParseFlags(c.Encode.Flags); err != nil {
		return &ConfigError{Field: "encode.flags", Message: err.Error()}
	}
	return nil
}

// Flags returns the parsed default encoding flags.
func (c *Config) Flags() format.Flags {
	f, _ := format.ParseFlags(c.Encode.Flags)
	return f
}
