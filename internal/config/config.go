// Package config loads the browser configuration from built-in defaults, an
// optional YAML file, TERMISQL_* environment variables and command-line
// flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Ellen-desu/termisql/internal/database"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TERMISQL_"

// Validation errors.
var (
	ErrBackend         = errors.New("unknown backend")
	ErrMissingFile     = errors.New("sqlite backend needs a database file")
	ErrMissingDatabase = errors.New("server backend needs a database name")
	ErrPageSize        = errors.New("page size must be between 1 and 255")
	ErrPoolSize        = errors.New("invalid connection pool size")
	ErrInterval        = errors.New("intervals and timeouts must be positive")
	ErrLogLevel        = errors.New("unknown log level")
)

// Config represents the application configuration.
type Config struct {
	Backend string       `koanf:"backend"`
	SQLite  SQLiteConfig `koanf:"sqlite"`
	Server  ServerConfig `koanf:"server"`
	Pool    PoolConfig   `koanf:"pool"`
	UI      UIConfig     `koanf:"ui"`
	Log     LogConfig    `koanf:"log"`
}

// SQLiteConfig configures the embedded backend.
type SQLiteConfig struct {
	Path string `koanf:"path"`
	// BusyTimeout is in milliseconds.
	BusyTimeout int `koanf:"busy_timeout"`
}

// ServerConfig configures the networked backends. A zero port or an empty
// user falls back to the backend's usual default.
type ServerConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`
}

// PoolConfig sizes the connection pool.
type PoolConfig struct {
	MaxConns       int           `koanf:"max_conns"`
	MinConns       int           `koanf:"min_conns"`
	AcquireTimeout time.Duration `koanf:"acquire_timeout"`
}

// UIConfig holds the browser settings.
type UIConfig struct {
	PageSize         int           `koanf:"page_size"`
	ResyncInterval   time.Duration `koanf:"resync_interval"`
	DebounceInterval time.Duration `koanf:"debounce_interval"`
	// Watch enables the file watcher of the embedded backend.
	Watch bool `koanf:"watch"`
}

// LogConfig controls logging. Logs are discarded when File is empty.
type LogConfig struct {
	File  string `koanf:"file"`
	Level string `koanf:"level"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SQLite: SQLiteConfig{
			BusyTimeout: 5000,
		},
		Server: ServerConfig{
			Host: "localhost",
		},
		Pool: PoolConfig{
			MaxConns:       5,
			MinConns:       1,
			AcquireTimeout: time.Second,
		},
		UI: UIConfig{
			PageSize:         25,
			ResyncInterval:   5 * time.Second,
			DebounceInterval: 50 * time.Millisecond,
			Watch:            true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func (c *Config) toMap() map[string]any {
	return map[string]any{
		"backend":              c.Backend,
		"sqlite.path":          c.SQLite.Path,
		"sqlite.busy_timeout":  c.SQLite.BusyTimeout,
		"server.host":          c.Server.Host,
		"server.port":          c.Server.Port,
		"server.user":          c.Server.User,
		"server.password":      c.Server.Password,
		"server.database":      c.Server.Database,
		"pool.max_conns":       c.Pool.MaxConns,
		"pool.min_conns":       c.Pool.MinConns,
		"pool.acquire_timeout": c.Pool.AcquireTimeout,
		"ui.page_size":         c.UI.PageSize,
		"ui.resync_interval":   c.UI.ResyncInterval,
		"ui.debounce_interval": c.UI.DebounceInterval,
		"ui.watch":             c.UI.Watch,
		"log.file":             c.Log.File,
		"log.level":            c.Log.Level,
	}
}

// LoadOptions selects the sources Load reads.
type LoadOptions struct {
	// File is an explicit config file. When empty, termisql.yaml or
	// termisql.yml in the working directory is used if present.
	File string
	// Backend and Database come from the chosen subcommand and its
	// positional argument; they override every other source.
	Backend  string
	Database string
	Flags    *pflag.FlagSet
}

// Load reads, merges and validates the configuration.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(DefaultConfig().toMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(opts.File); path != "" {
		values, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only explicitly set flags override the other sources.
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	overrides := map[string]any{}
	if opts.Backend != "" {
		overrides["backend"] = opts.Backend
	}
	if opts.Database != "" {
		overrides["server.database"] = opts.Database
	}
	if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load overrides: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyBackendDefaults()
	return &cfg, nil
}

// findConfigFile returns the config file to use, or "" for none.
// Priority: explicit path > termisql.yaml > termisql.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"termisql.yaml", "termisql.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

func readFile(path string) (map[string]any, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	values := map[string]any{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return values, nil
}

// sections are the top-level keys that hold nested settings.
var sections = []string{"sqlite", "server", "pool", "ui", "log"}

// envKey maps TERMISQL_POOL_MAX_CONNS to pool.max_conns.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range sections {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok {
			return section + "." + rest
		}
	}
	return key
}

// Kind returns the backend kind. Only valid after Validate.
func (c *Config) Kind() database.Kind {
	kind, _ := database.ParseKind(c.Backend)
	return kind
}

// Validate checks the configuration for values the browser cannot run with.
func (c *Config) Validate() error {
	kind, err := database.ParseKind(c.Backend)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrBackend, c.Backend)
	}

	switch {
	case kind == database.KindSQLite && c.SQLite.Path == "":
		return ErrMissingFile
	case kind.Networked() && c.Server.Database == "":
		return ErrMissingDatabase
	}

	if c.UI.PageSize < 1 || c.UI.PageSize > 255 {
		return fmt.Errorf("%w: got %d", ErrPageSize, c.UI.PageSize)
	}

	if c.Pool.MaxConns < 1 || c.Pool.MinConns < 0 || c.Pool.MinConns > c.Pool.MaxConns {
		return fmt.Errorf("%w: min %d, max %d", ErrPoolSize, c.Pool.MinConns, c.Pool.MaxConns)
	}

	if c.UI.ResyncInterval <= 0 || c.UI.DebounceInterval <= 0 || c.Pool.AcquireTimeout <= 0 {
		return ErrInterval
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func (c *Config) applyBackendDefaults() {
	switch c.Kind() {
	case database.KindMySQL:
		if c.Server.Port == 0 {
			c.Server.Port = 3306
		}
		if c.Server.User == "" {
			c.Server.User = "root"
		}
	case database.KindPostgres:
		if c.Server.Port == 0 {
			c.Server.Port = 5432
		}
		if c.Server.User == "" {
			c.Server.User = "postgres"
		}
	}
}

// PoolOptions returns the options for opening the backend.
func (c *Config) PoolOptions(logger *slog.Logger) database.Options {
	return database.Options{
		MaxConns:       c.Pool.MaxConns,
		MinConns:       c.Pool.MinConns,
		AcquireTimeout: c.Pool.AcquireTimeout,
		BusyTimeout:    c.SQLite.BusyTimeout,
		Logger:         logger,
	}
}

// ServerParams returns the connection parameters of a networked backend.
func (c *Config) ServerParams() database.ServerParams {
	return database.ServerParams{
		Host:     c.Server.Host,
		Port:     c.Server.Port,
		User:     c.Server.User,
		Password: c.Server.Password,
		Database: c.Server.Database,
	}
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrLogLevel, s)
	}
	return level, nil
}
