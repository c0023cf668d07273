// ============================================================================
// laplace - Minimax Exponential Sums
// ============================================================================
//
// Package:     config
// Description: Application configuration from TOML or YAML and the environment
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	mdwerror "github.com/msto63/laplace/foundation/core/error"
	fconfig "github.com/msto63/laplace/foundation/core/config"
)

// EnvPrefix prefixes every environment override, e.g. LAPLACE_SERVER_PORT
const EnvPrefix = "LAPLACE"

// Config holds the complete application configuration
type Config struct {
	General GeneralConfig `toml:"general"`
	Solver  SolverConfig  `toml:"solver"`
	Store   StoreConfig   `toml:"store"`
	Cache   CacheConfig   `toml:"cache"`
	Server  ServerConfig  `toml:"server"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name        string `toml:"name"`
	Environment string `toml:"environment"`
	DataDir     string `toml:"data_dir"`
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`
}

// SolverConfig holds the minimax iteration settings
type SolverConfig struct {
	Norm          string   `toml:"norm"`
	MaxIterations int      `toml:"max_iterations"`
	Tolerance     float64  `toml:"tolerance"`
	Timeout       Duration `toml:"timeout"`
}

// StoreConfig holds the seed database settings
type StoreConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// CacheConfig holds the result cache settings
type CacheConfig struct {
	Enabled  bool     `toml:"enabled"`
	MaxItems int      `toml:"max_items"`
	TTL      Duration `toml:"ttl"`
}

// ServerConfig holds the gRPC server settings
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	Reflection     bool     `toml:"reflection"`
	MaxOrder       int      `toml:"max_order"`
	RequestTimeout Duration `toml:"request_timeout"`
}

// Duration wraps time.Duration for text parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a configuration holding only defaults and env overrides.
// Malformed environment values are ignored here; Load reports them.
func Default() *Config {
	cfg := newConfig()
	_ = cfg.overlay(fconfig.Empty(fconfig.LoadOptions{EnvPrefix: EnvPrefix}))
	cfg.applyDefaults()
	cfg.expandEnvVars()
	return cfg
}

// Booleans default to true, so they are seeded before any overlay.
func newConfig() *Config {
	return &Config{
		Store: StoreConfig{Enabled: true},
		Cache: CacheConfig{Enabled: true},
	}
}

// Load loads configuration from a TOML or YAML file, chosen by extension.
// LAPLACE_<SECTION>_<KEY> environment variables override file values.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, mdwerror.New("config file not found").
			WithCode(mdwerror.CodeMissingConfig).
			WithOperation("config.Load").
			WithDetail("path", path)
	}

	tree, err := fconfig.LoadWithOptions(path, fconfig.LoadOptions{
		Format:    fconfig.FormatAuto,
		EnvPrefix: EnvPrefix,
	})
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to parse config").
			WithCode(mdwerror.CodeInvalidConfig).
			WithOperation("config.Load").
			WithDetail("path", path)
	}

	cfg := newConfig()
	if err := cfg.overlay(tree); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from the LAPLACE_CONFIG environment variable
// or the first default location that exists. Without any file the defaults
// are returned.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv(EnvPrefix + "_CONFIG")
	if path == "" {
		for _, p := range DefaultPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	return Load(path)
}

// DefaultPaths lists the locations searched by LoadFromEnv
func DefaultPaths() []string {
	return []string{
		"./configs/laplace.toml",
		"./configs/laplace.yaml",
		"./laplace.toml",
		"./laplace.yaml",
		filepath.Join(os.Getenv("HOME"), ".config/laplace/laplace.toml"),
	}
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "laplace"
	}
	if c.General.Environment == "" {
		c.General.Environment = "development"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "text"
	}

	// Solver
	if c.Solver.Norm == "" {
		c.Solver.Norm = "absolute"
	}
	if c.Solver.MaxIterations == 0 {
		c.Solver.MaxIterations = 40
	}
	if c.Solver.Tolerance == 0 {
		c.Solver.Tolerance = 1e-12
	}
	if c.Solver.Timeout.Duration == 0 {
		c.Solver.Timeout.Duration = 5 * time.Minute
	}

	// Store
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(c.General.DataDir, "seeds.db")
	}

	// Cache
	if c.Cache.MaxItems == 0 {
		c.Cache.MaxItems = 1024
	}
	if c.Cache.TTL.Duration == 0 {
		c.Cache.TTL.Duration = time.Hour
	}

	// Server
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 9310
	}
	if c.Server.MaxOrder == 0 {
		c.Server.MaxOrder = 30
	}
	if c.Server.RequestTimeout.Duration == 0 {
		c.Server.RequestTimeout.Duration = 2 * time.Minute
	}
}

// overlay copies every key present in src onto c. A value that does not
// parse as its field's type fails the whole overlay.
func (c *Config) overlay(src *fconfig.Config) error {
	var bad error
	set := func(key string, parse func(string) error) {
		if bad != nil || !src.Has(key) {
			return
		}
		if err := parse(src.GetString(key)); err != nil {
			bad = mdwerror.Wrap(err, "malformed config value").
				WithCode(mdwerror.CodeInvalidConfig).
				WithOperation("config.Load").
				WithDetail("key", key).
				WithDetail("path", src.FilePath()).
				WithDetail("format", src.Format().String())
		}
	}
	str := func(key string, dst *string) {
		set(key, func(v string) error { *dst = v; return nil })
	}
	num := func(key string, dst *int) {
		set(key, func(v string) (err error) { *dst, err = strconv.Atoi(v); return err })
	}
	float := func(key string, dst *float64) {
		set(key, func(v string) (err error) { *dst, err = strconv.ParseFloat(v, 64); return err })
	}
	flag := func(key string, dst *bool) {
		set(key, func(v string) (err error) { *dst, err = strconv.ParseBool(v); return err })
	}
	dur := func(key string, dst *Duration) {
		set(key, func(v string) error { return dst.UnmarshalText([]byte(v)) })
	}

	str("general.name", &c.General.Name)
	str("general.environment", &c.General.Environment)
	str("general.data_dir", &c.General.DataDir)
	str("general.log_level", &c.General.LogLevel)
	str("general.log_format", &c.General.LogFormat)

	str("solver.norm", &c.Solver.Norm)
	num("solver.max_iterations", &c.Solver.MaxIterations)
	float("solver.tolerance", &c.Solver.Tolerance)
	dur("solver.timeout", &c.Solver.Timeout)

	flag("store.enabled", &c.Store.Enabled)
	str("store.path", &c.Store.Path)

	flag("cache.enabled", &c.Cache.Enabled)
	num("cache.max_items", &c.Cache.MaxItems)
	dur("cache.ttl", &c.Cache.TTL)

	str("server.host", &c.Server.Host)
	num("server.port", &c.Server.Port)
	flag("server.reflection", &c.Server.Reflection)
	num("server.max_order", &c.Server.MaxOrder)
	dur("server.request_timeout", &c.Server.RequestTimeout)
	return bad
}

// expandEnvVars expands environment variables in path values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.Store.Path = os.ExpandEnv(c.Store.Path)
}

// Validate rejects settings the services cannot run with
func (c *Config) Validate() error {
	invalid := func(key string, value interface{}, msg string) error {
		return mdwerror.New(msg).
			WithCode(mdwerror.CodeInvalidConfig).
			WithOperation("config.Validate").
			WithDetail("key", key).
			WithDetail("value", value)
	}

	switch c.Solver.Norm {
	case "absolute", "abs", "relative", "rel":
	default:
		return invalid("solver.norm", c.Solver.Norm, "norm must be absolute or relative")
	}
	if c.Solver.MaxIterations < 1 {
		return invalid("solver.max_iterations", c.Solver.MaxIterations, "iteration budget must be positive")
	}
	if !(c.Solver.Tolerance > 0) || c.Solver.Tolerance >= 1 {
		return invalid("solver.tolerance", c.Solver.Tolerance, "tolerance must lie in (0, 1)")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("server.port", c.Server.Port, "port out of range")
	}
	if c.Server.MaxOrder < 1 {
		return invalid("server.max_order", c.Server.MaxOrder, "max_order must be at least 1")
	}
	if c.Cache.MaxItems < 0 {
		return invalid("cache.max_items", c.Cache.MaxItems, "max_items must not be negative")
	}
	return nil
}

// ServerAddress returns host:port of the gRPC server
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
