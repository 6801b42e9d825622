// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPort            = 3318
	DefaultDatabaseType    = "sqlite"
	DefaultSQLiteURL       = "file:runoff.db?_pragma=foreign_keys(1)"
	DefaultPollDuration    = 24 * time.Hour
	DefaultResultsCacheTTL = time.Hour
)

type Config struct {
	Port            int
	DatabaseURL     string
	DatabaseType    string
	AdminKeySalt    string
	PollSlugSalt    string
	AuditSalt       string
	PollDuration    time.Duration
	ResultsCacheTTL time.Duration
	ConfigFile      string
}

// FileConfig is the optional YAML config file. Unset keys fall through to defaults.
type FileConfig struct {
	Port            *int    `yaml:"port"`
	DatabaseURL     *string `yaml:"database_url"`
	DatabaseType    *string `yaml:"database_type"`
	AdminKeySalt    *string `yaml:"admin_key_salt"`
	PollSlugSalt    *string `yaml:"poll_slug_salt"`
	AuditSalt       *string `yaml:"audit_salt"`
	PollDuration    *string `yaml:"poll_duration"`
	ResultsCacheTTL *string `yaml:"results_cache_ttl"`
}

// LoadFile reads a YAML config file from the provided path
func LoadFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return fc, nil
}

// ParseFlags resolves configuration: CLI flags, then environment, then the
// config file, then defaults.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var pollDuration, cacheTTL string

	fs := flag.NewFlagSet("runoff", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.ConfigFile, "c", "", "YAML config file")
	fs.StringVar(&pollDuration, "duration", "", "Default poll duration (e.g. 24h)")
	fs.StringVar(&cacheTTL, "cache-ttl", "", "How long closed poll results stay cached")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")
	fs.StringVar(&cfg.PollSlugSalt, "slug-salt", "", "Poll slug salt (prefer env)")
	fs.StringVar(&cfg.AuditSalt, "audit-salt", "", "Voter anonymization salt (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.ConfigFile == "" {
		cfg.ConfigFile = os.Getenv("CONFIG_FILE")
	}
	var file FileConfig
	if cfg.ConfigFile != "" {
		var err error
		if file, err = LoadFile(cfg.ConfigFile); err != nil {
			return Config{}, err
		}
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else if file.Port != nil {
			cfg.Port = *file.Port
		} else {
			cfg.Port = DefaultPort
		}
	}

	cfg.DatabaseType = pick(cfg.DatabaseType, "DATABASE_TYPE", file.DatabaseType, DefaultDatabaseType)
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	defaultURL := ""
	if cfg.DatabaseType == "sqlite" {
		defaultURL = DefaultSQLiteURL
	}
	cfg.DatabaseURL = pick(cfg.DatabaseURL, "DATABASE_URL", file.DatabaseURL, defaultURL)
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	// Secrets - MUST be provided
	cfg.AdminKeySalt = pick(cfg.AdminKeySalt, "ADMIN_KEY_SALT", file.AdminKeySalt, "")
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}
	cfg.PollSlugSalt = pick(cfg.PollSlugSalt, "POLL_SLUG_SALT", file.PollSlugSalt, "")
	if cfg.PollSlugSalt == "" {
		return Config{}, errors.New("POLL_SLUG_SALT required")
	}
	cfg.AuditSalt = pick(cfg.AuditSalt, "AUDIT_SALT", file.AuditSalt, cfg.AdminKeySalt)

	var err error
	pollDuration = pick(pollDuration, "POLL_DURATION", file.PollDuration, DefaultPollDuration.String())
	if cfg.PollDuration, err = parsePositiveDuration("poll duration", pollDuration); err != nil {
		return Config{}, err
	}
	cacheTTL = pick(cacheTTL, "RESULTS_CACHE_TTL", file.ResultsCacheTTL, DefaultResultsCacheTTL.String())
	if cfg.ResultsCacheTTL, err = parsePositiveDuration("results cache TTL", cacheTTL); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// pick returns the first non-empty of flag value, env var, file value, fallback
func pick(flagVal, envKey string, fileVal *string, fallback string) string {
	if flagVal != "" {
		return flagVal
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	if fileVal != nil && *fileVal != "" {
		return *fileVal
	}
	return fallback
}

func parsePositiveDuration(name, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", name, d)
	}
	return d, nil
}
