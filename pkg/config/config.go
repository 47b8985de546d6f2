/*
Copyright The Volcano Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config loads the server configuration from defaults, an optional
// YAML file and environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"

	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"

	"github.com/volcano-sh/tokens-codex/pkg/ratelimit"
	"github.com/volcano-sh/tokens-codex/pkg/server/accesslog"
)

const (
	DefaultPort          = 3000
	DefaultMaxInputBytes = 1 << 20
	DefaultCacheSize     = 256
	DefaultHistorySize   = 100
)

type ErrInvalidConfig struct {
	Message string
}

func (e ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid config: %s", e.Message)
}

type Config struct {
	Port    int    `json:"port"`
	TLSCert string `json:"tlsCert,omitempty"`
	TLSKey  string `json:"tlsKey,omitempty"`
	// MaxInputBytes bounds request bodies and live frames.
	MaxInputBytes int64 `json:"maxInputBytes"`
	// CacheSize is the number of comparison outcomes kept; 0 disables the cache.
	CacheSize int `json:"cacheSize"`
	// HistorySize is the number of comparisons listed by /debug/comparisons.
	HistorySize int                          `json:"historySize"`
	AccessLog   accesslog.AccessLoggerConfig `json:"accessLog"`
	RateLimit   ratelimit.Config             `json:"rateLimit"`
}

func Default() *Config {
	return &Config{
		Port:          DefaultPort,
		MaxInputBytes: DefaultMaxInputBytes,
		CacheSize:     DefaultCacheSize,
		HistorySize:   DefaultHistorySize,
		AccessLog:     *accesslog.DefaultAccessLoggerConfig(),
		RateLimit: ratelimit.Config{
			Unit: ratelimit.Minute,
		},
	}
}

// Load reads path on top of the defaults, when path is not empty, then applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.UnmarshalStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file %s: %w", path, err)
		}
		klog.V(2).Infof("loaded configuration from %s", path)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from ACCESS_LOG_* and RATE_LIMIT_* / REDIS_* variables.
func (c *Config) ApplyEnv() error {
	if v := LoadEnv("ACCESS_LOG_ENABLED", ""); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return ErrInvalidConfig{Message: fmt.Sprintf("ACCESS_LOG_ENABLED=%q is not a boolean", v)}
		}
		c.AccessLog.Enabled = enabled
	}
	c.AccessLog.Format = accesslog.LogFormat(LoadEnv("ACCESS_LOG_FORMAT", string(c.AccessLog.Format)))
	c.AccessLog.Output = LoadEnv("ACCESS_LOG_OUTPUT", c.AccessLog.Output)

	if v := LoadEnv("RATE_LIMIT_TOKENS_PER_UNIT", ""); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return ErrInvalidConfig{Message: fmt.Sprintf("RATE_LIMIT_TOKENS_PER_UNIT=%q is not a token count", v)}
		}
		c.RateLimit.TokensPerUnit = uint32(n)
	}
	c.RateLimit.Unit = ratelimit.Unit(LoadEnv("RATE_LIMIT_UNIT", string(c.RateLimit.Unit)))

	if host := LoadEnv("REDIS_HOST", ""); host != "" {
		if c.RateLimit.Redis == nil {
			c.RateLimit.Redis = &ratelimit.RedisConfig{}
		}
		c.RateLimit.Redis.Address = host + ":" + LoadEnv("REDIS_PORT", "6379")
		c.RateLimit.Redis.Password = LoadEnv("REDIS_PASSWORD", c.RateLimit.Redis.Password)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidConfig{Message: fmt.Sprintf("port %d out of range", c.Port)}
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return ErrInvalidConfig{Message: "tlsCert and tlsKey must be specified together"}
	}
	if c.MaxInputBytes <= 0 {
		return ErrInvalidConfig{Message: "maxInputBytes must be positive"}
	}
	if c.CacheSize < 0 || c.HistorySize < 0 {
		return ErrInvalidConfig{Message: "cacheSize and historySize must not be negative"}
	}
	switch c.AccessLog.Format {
	case accesslog.FormatJSON, accesslog.FormatText:
	default:
		return ErrInvalidConfig{Message: fmt.Sprintf("unknown access log format %q", c.AccessLog.Format)}
	}
	if c.RateLimit.TokensPerUnit > 0 {
		if _, err := c.RateLimit.Unit.Duration(); err != nil {
			return ErrInvalidConfig{Message: err.Error()}
		}
	}
	return nil
}

// TLSEnabled reports whether the server should serve HTTPS.
func (c *Config) TLSEnabled() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

// LoadEnv returns the value of key, or defaultValue when it is unset or empty.
func LoadEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}
