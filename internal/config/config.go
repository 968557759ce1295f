// Package config loads bridge daemon settings from an optional YAML file
// overlaid with environment variables. Environment always wins.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Store kinds accepted by Config.Store.Kind.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// Duration wraps time.Duration so "5s"-style values parse from both YAML
// and environment variables.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

type Config struct {
	Listen string `yaml:"listen" env:"BRIDGE_LISTEN"`

	Log struct {
		Level  string `yaml:"level" env:"BRIDGE_LOG_LEVEL"`
		Format string `yaml:"format" env:"BRIDGE_LOG_FORMAT"`
	} `yaml:"log"`

	Store struct {
		Kind string `yaml:"kind" env:"BRIDGE_STORE_KIND"`
		Path string `yaml:"path" env:"BRIDGE_STORE_PATH"`

		Redis struct {
			Addr     string   `yaml:"addr" env:"BRIDGE_REDIS_ADDR"`
			Password string   `yaml:"password" env:"BRIDGE_REDIS_PASSWORD"`
			DB       int      `yaml:"db" env:"BRIDGE_REDIS_DB"`
			TTL      Duration `yaml:"ttl" env:"BRIDGE_REDIS_TTL"`
		} `yaml:"redis"`
	} `yaml:"store"`

	Attestation struct {
		BaseURL      string   `yaml:"base_url" env:"BRIDGE_ATTESTATION_URL"`
		PollInterval Duration `yaml:"poll_interval" env:"BRIDGE_ATTESTATION_POLL_INTERVAL"`
	} `yaml:"attestation"`

	Relay struct {
		BaseURL string `yaml:"base_url" env:"BRIDGE_RELAY_URL"`
	} `yaml:"relay"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	var c Config
	c.Listen = ":8780"
	c.Log.Level = "info"
	c.Log.Format = "text"
	c.Store.Kind = StoreMemory
	c.Store.Redis.Addr = "localhost:6379"
	c.Attestation.PollInterval = Duration(5 * time.Second)
	return c
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (skipped when path is empty or the file does not exist), then
// environment variables.
func Load(path string) (Config, error) {
	c := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Missing file is fine, env alone can configure everything.
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(raw, &c); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	return c, c.validate()
}

func (c Config) validate() error {
	switch c.Store.Kind {
	case StoreMemory, StoreRedis:
	case StoreFile, StoreSQLite:
		// Path has adapter-level defaults for file, sqlite needs one.
		if c.Store.Kind == StoreSQLite && c.Store.Path == "" {
			return errors.New("store.path is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}
	if c.Attestation.PollInterval <= 0 {
		return errors.New("attestation.poll_interval must be positive")
	}
	return nil
}
