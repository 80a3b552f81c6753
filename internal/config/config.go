package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers for the primary store.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
		// PublicURL is the base of share links, e.g. https://forms.example.com/
		PublicURL string `yaml:"public_url"`
	} `yaml:"server"`
	Storage struct {
		Driver     string `yaml:"driver"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Forms struct {
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"forms"`
	Summary struct {
		Delay string `yaml:"delay"`
	} `yaml:"summary"`
}

// Load reads YAML config from path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg.withDefaults(), nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverMemory
		if c.Postgres.URL != "" {
			c.Storage.Driver = DriverPostgres
		}
	}
	if c.Storage.Driver == DriverSQLite && c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "formflow.db"
	}
	return c
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
