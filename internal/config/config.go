// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Keycroft Contributors

// Package config loads service configuration from defaults, an optional
// YAML file, and command-line flags, in that order of precedence.
package config

import (
	"net"
	"os"
	"strconv"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Environment variables consulted when the file and flags leave a secret
// unset. Secrets belong in the environment, not on the command line.
const (
	EnvJWTSecret   = "KEYCROFT_JWT_SECRET"
	EnvDatabaseURL = "KEYCROFT_DATABASE_URL"
)

// ServerConfig configures the API listener.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// Addr returns the listen address in host:port form.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DatabaseConfig configures the Postgres connection.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// JWTConfig configures token signing.
type JWTConfig struct {
	Secret string `koanf:"secret"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `koanf:"format"`
}

// MetricsConfig configures the observability listener.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// HashConfig bounds concurrent password hashing. Zero means the built-in
// default.
type HashConfig struct {
	Concurrency int `koanf:"concurrency"`
}

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	JWT      JWTConfig      `koanf:"jwt"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Hash     HashConfig     `koanf:"hash"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Host: "0.0.0.0", Port: 8080},
		Log:     LogConfig{Format: "json"},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
	}
}

// Flags returns the flag set understood by Load. Flag names mirror the
// YAML keys; defaults match Default so an untouched flag never shadows a
// file-provided value.
func Flags() *pflag.FlagSet {
	def := Default()
	fs := pflag.NewFlagSet("keycroft", pflag.ContinueOnError)
	fs.String("server.host", def.Server.Host, "API listen host")
	fs.Int("server.port", def.Server.Port, "API listen port")
	fs.String("database.url", def.Database.URL, "Postgres connection URL")
	fs.String("jwt.secret", def.JWT.Secret, "JWT signing secret")
	fs.String("log.format", def.Log.Format, "log format (json or text)")
	fs.String("metrics.addr", def.Metrics.Addr, "observability listen address")
	fs.Int("hash.concurrency", def.Hash.Concurrency, "max concurrent password hashes (0 = default)")
	return fs
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then flags. Missing secrets fall back to environment
// variables before validation.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	errb := oops.Code("CONFIG_LOAD_FAILED")

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errb.With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, errb.Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errb.Wrap(err)
	}

	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = os.Getenv(EnvJWTSecret)
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv(EnvDatabaseURL)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is complete enough to serve.
func (c *Config) Validate() error {
	errb := oops.Code("CONFIG_INVALID")
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return errb.With("port", c.Server.Port).Errorf("server port out of range")
	}
	if c.Database.URL == "" {
		return errb.Errorf("database URL is required (database.url or %s)", EnvDatabaseURL)
	}
	if c.JWT.Secret == "" {
		return errb.Errorf("JWT secret is required (jwt.secret or %s)", EnvJWTSecret)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return errb.With("format", c.Log.Format).Errorf("log format must be json or text")
	}
	if c.Hash.Concurrency < 0 {
		return errb.With("concurrency", c.Hash.Concurrency).Errorf("hash concurrency must not be negative")
	}
	return nil
}
