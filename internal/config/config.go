// Package config resolves process settings from an optional .env file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"

	"worktrack/internal/util"
)

// Driver selects the storage backend.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

type Config struct {
	Addr               string
	Driver             Driver
	DBPath             string
	PostgresDSN        string
	StaticDir          string
	LogLevel           slog.Level
	CORSOrigins        []string
	RequireTicketScope bool
}

// Load reads the given env files (".env" when none are named) into the
// process environment and builds a Config from it. Missing files are
// skipped; variables already set in the environment win over the files.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from WORKTRACK_* environment variables.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:        util.EnvOrDefault("WORKTRACK_ADDR", ":8080"),
		Driver:      Driver(strings.ToLower(util.EnvOrDefault("WORKTRACK_DRIVER", string(DriverSQLite)))),
		DBPath:      util.EnvOrDefault("WORKTRACK_DB_PATH", "data/worktrack.db"),
		PostgresDSN: util.EnvOrDefault("WORKTRACK_PG_DSN", ""),
		StaticDir:   util.EnvOrDefault("WORKTRACK_STATIC_DIR", "web/dist"),
		CORSOrigins: SplitList(util.EnvOrDefault("WORKTRACK_CORS_ORIGINS", "")),
	}

	level, err := ParseLevel(util.EnvOrDefault("WORKTRACK_LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	scope, err := util.EnvBool("WORKTRACK_REQUIRE_TICKET_SCOPE", false)
	if err != nil {
		return Config{}, err
	}
	cfg.RequireTicketScope = scope
	return cfg, nil
}

// Validate checks that the settings describe a runnable process.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("config: listen address is required")
	}
	switch c.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.DBPath == "" {
			return errors.New("config: sqlite driver requires a database path")
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return errors.New("config: postgres driver requires WORKTRACK_PG_DSN")
		}
	default:
		return fmt.Errorf("config: unknown driver %q", c.Driver)
	}
	return nil
}

// ParseLevel accepts debug, info, warn or error in any case.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("parse log level: %w", err)
	}
	return level, nil
}

// SplitList splits a comma-separated value and drops blank items.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
