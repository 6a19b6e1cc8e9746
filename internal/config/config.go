// Package config loads the kaas server configuration.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultListenAddr   = "0.0.0.0:3000"
	DefaultJava         = "java"
	DefaultJar          = "lib/karate.jar"
	DefaultTimeout      = 5 * time.Minute
	DefaultVersionTTL   = 10 * time.Minute
	DefaultMaxBodyBytes = 1 << 20
	DefaultKarate       = "1.4.0"
)

// DefaultCORSOrigin is allowed when no origins are configured
const DefaultCORSOrigin = "http://localhost:3000"

// Config describes the kaas YAML configuration.
type Config struct {
	Server   Server         `yaml:"server"`
	Engine   Engine         `yaml:"engine"`
	Defaults map[string]any `yaml:"karate_defaults"`
	Webhook  Webhook        `yaml:"webhook"`
	Upload   Upload         `yaml:"upload"`
}

type Server struct {
	ListenAddr   string   `yaml:"listen_addr"`
	CORSOrigins  []string `yaml:"cors_origins"`
	MaxBodyBytes int64    `yaml:"max_body_bytes"`
}

type Engine struct {
	Java            string        `yaml:"java"`
	Jar             string        `yaml:"jar"`
	Timeout         time.Duration `yaml:"timeout"`
	WorkDir         string        `yaml:"work_dir"`
	FallbackVersion string        `yaml:"fallback_version"`
	VersionTTL      time.Duration `yaml:"version_ttl"`
}

type Webhook struct {
	URL        string            `yaml:"url"`
	Method     string            `yaml:"method"`
	Headers    map[string]string `yaml:"headers"`
	AuthType   string            `yaml:"auth_type"`
	AuthToken  string            `yaml:"auth_token"`
	Timeout    time.Duration     `yaml:"timeout"`
	MaxRetries int               `yaml:"max_retries"`
	RetryDelay time.Duration     `yaml:"retry_delay"`
}

// Enabled reports whether a webhook URL is configured
func (w Webhook) Enabled() bool {
	return w.URL != ""
}

type Upload struct {
	Provider string         `yaml:"provider"`
	Config   map[string]any `yaml:"config"`
}

// Enabled reports whether an upload provider is configured
func (u Upload) Enabled() bool {
	return u.Provider != ""
}

// Default returns a configuration with every default applied.
func Default() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

// Load reads path (when non-empty), applies defaults and the PORT
// environment override, and validates the result.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyDefaults(&cfg)
	if err := applyPort(&cfg, os.Getenv("PORT")); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values that have no sensible default
func (c Config) Validate() error {
	var errs []error
	if c.Engine.Timeout < 0 {
		errs = append(errs, errors.New("engine.timeout must not be negative"))
	}
	if c.Server.MaxBodyBytes < 0 {
		errs = append(errs, errors.New("server.max_body_bytes must not be negative"))
	}
	switch c.Webhook.AuthType {
	case "", "none", "bearer", "api-key":
	default:
		errs = append(errs, fmt.Errorf("webhook.auth_type %q is not one of none, bearer, api-key", c.Webhook.AuthType))
	}
	if c.Webhook.MaxRetries < 0 {
		errs = append(errs, errors.New("webhook.max_retries must not be negative"))
	}
	return errors.Join(errs...)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{DefaultCORSOrigin}
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Engine.Java == "" {
		cfg.Engine.Java = DefaultJava
	}
	if cfg.Engine.Jar == "" {
		cfg.Engine.Jar = DefaultJar
	}
	if cfg.Engine.Timeout == 0 {
		cfg.Engine.Timeout = DefaultTimeout
	}
	if cfg.Engine.FallbackVersion == "" {
		cfg.Engine.FallbackVersion = DefaultKarate
	}
	if cfg.Engine.VersionTTL == 0 {
		cfg.Engine.VersionTTL = DefaultVersionTTL
	}
}

// applyPort replaces the port of the listen address with port
func applyPort(cfg *Config, port string) error {
	port = strings.TrimSpace(port)
	if port == "" {
		return nil
	}
	host, _, err := net.SplitHostPort(cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("invalid server.listen_addr %q: %w", cfg.Server.ListenAddr, err)
	}
	cfg.Server.ListenAddr = net.JoinHostPort(host, port)
	return nil
}
