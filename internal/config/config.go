// Package config provides configuration management for archivist.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"gorm.io/gorm/logger"

	gormdb "github.com/thebtf/archivable/internal/db/gorm"
	"github.com/thebtf/archivable/pkg/archive"
)

const (
	// DefaultPort is the default HTTP port for the archive API.
	DefaultPort = 37780

	// DefaultFile is the config file looked up in the working directory.
	DefaultFile = "archivist.yaml"

	// EnvPrefix prefixes every environment override. Nested keys use a double
	// underscore: ARCHIVIST_DB__MAX_CONNS sets db.max_conns.
	EnvPrefix = "ARCHIVIST_"

	// OutputTable and OutputJSON are the CLI output formats.
	OutputTable = "table"
	OutputJSON  = "json"
)

// Config holds the application configuration.
type Config struct {
	Archives map[string]ArchiveConfig `koanf:"archives"`
	DB       DBConfig                 `koanf:"db"`
	Log      LogConfig                `koanf:"log"`
	Dates    DateConfig               `koanf:"dates"`
	Output   string                   `koanf:"output"`
	HTTP     HTTPConfig               `koanf:"http"`
}

// DBConfig selects the database. Path (SQLite) wins over DSN (PostgreSQL).
type DBConfig struct {
	Path         string        `koanf:"path"`
	DSN          string        `koanf:"dsn"`
	MaxConns     int           `koanf:"max_conns"`
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Timeout time.Duration `koanf:"timeout"`
	Port    int           `koanf:"port"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

// DateConfig configures how string dates are parsed.
type DateConfig struct {
	Timezone   string `koanf:"timezone"`
	DayFirst   bool   `koanf:"day_first"`
	RecentDays int    `koanf:"recent_days"`
}

// ArchiveConfig is the archive attribute and default order of one resource.
type ArchiveConfig struct {
	Attribute string `koanf:"attribute"`
	Order     string `koanf:"order"`
}

// identifierRe matches the column names archive attributes may use. The
// attribute is rendered into SQL unquoted.
var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// flagKeys maps CLI flag names to config keys. Flags not listed are
// command-level and never reach the config.
var flagKeys = map[string]string{
	"db":        "db.path",
	"dsn":       "db.dsn",
	"port":      "http.port",
	"log-level": "log.level",
	"day-first": "dates.day_first",
	"timezone":  "dates.timezone",
	"output":    "output",
}

// DataDir returns the data directory path (~/.archivist).
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".archivist")
}

// DBPath returns the default SQLite database path.
func DBPath() string {
	return filepath.Join(DataDir(), "archive.db")
}

func defaults() map[string]any {
	return map[string]any{
		"db.path":                     "",
		"db.dsn":                      "",
		"db.max_conns":                0,
		"db.query_timeout":            "5s",
		"http.port":                   DefaultPort,
		"http.timeout":                "30s",
		"log.level":                   "info",
		"log.pretty":                  true,
		"dates.timezone":              "UTC",
		"dates.day_first":             false,
		"dates.recent_days":           archive.DefaultRecentDays,
		"output":                      OutputTable,
		"archives.entries.attribute":  archive.DefaultAttribute,
		"archives.entries.order":      string(archive.Desc),
		"archives.comments.attribute": "replied_on",
		"archives.comments.order":     string(archive.Asc),
	}
}

// Default returns a Config with default values only.
func Default() *Config {
	k := koanf.New(".")
	_ = k.Load(confmap.Provider(defaults(), "."), nil)

	var cfg Config
	_ = k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"})
	cfg.applyDBDefault()
	return &cfg
}

// applyDBDefault falls back to the SQLite file in DataDir when no database
// is configured.
func (c *Config) applyDBDefault() {
	if c.DB.Path == "" && c.DB.DSN == "" {
		c.DB.Path = DBPath()
	}
}

// Load loads configuration from defaults, the config file, environment
// variables and explicitly set flags, in increasing precedence. An empty path
// loads archivist.yaml from the working directory if it exists.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDBDefault()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values no component could use.
func (c *Config) Validate() error {
	var errs []error

	if c.DB.Path == "" && c.DB.DSN == "" {
		errs = append(errs, gormdb.ErrNoDatabase)
	}
	if c.DB.MaxConns < 0 {
		errs = append(errs, fmt.Errorf("db.max_conns must not be negative, got %d", c.DB.MaxConns))
	}
	if c.DB.QueryTimeout < 0 {
		errs = append(errs, fmt.Errorf("db.query_timeout must not be negative, got %s", c.DB.QueryTimeout))
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d out of range", c.HTTP.Port))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if _, err := time.LoadLocation(c.Dates.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("dates.timezone: %w", err))
	}
	if c.Dates.RecentDays <= 0 {
		errs = append(errs, fmt.Errorf("dates.recent_days must be positive, got %d", c.Dates.RecentDays))
	}
	if c.Output != OutputTable && c.Output != OutputJSON {
		errs = append(errs, fmt.Errorf("output %q: want %s or %s", c.Output, OutputTable, OutputJSON))
	}
	for name, a := range c.Archives {
		if a.Attribute != "" && !identifierRe.MatchString(a.Attribute) {
			errs = append(errs, fmt.Errorf("archives.%s.attribute %q: not a column name", name, a.Attribute))
		}
		if _, err := archive.ParseDirection(a.Order); err != nil {
			errs = append(errs, fmt.Errorf("archives.%s.order: %w", name, err))
		}
	}

	return errors.Join(errs...)
}

// StoreConfig returns the database settings for gormdb.NewStore.
func (c *Config) StoreConfig() gormdb.Config {
	return gormdb.Config{
		Path:         c.DB.Path,
		DSN:          c.DB.DSN,
		MaxConns:     c.DB.MaxConns,
		QueryTimeout: c.DB.QueryTimeout,
		LogLevel:     c.GormLogLevel(),
	}
}

// Location returns the configured parsing time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Dates.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Parser returns the date parser described by the dates section.
func (c *Config) Parser() *archive.Parser {
	return &archive.Parser{Location: c.Location(), DayFirst: c.Dates.DayFirst}
}

// ArchiveOptions returns the builder options for resource. Unknown resources
// get only the shared parser, leaving attribute and order at their defaults.
func (c *Config) ArchiveOptions(resource string) []archive.Option {
	opts := []archive.Option{archive.WithParser(c.Parser())}
	a, ok := c.Archives[resource]
	if !ok {
		return opts
	}
	if a.Attribute != "" {
		opts = append(opts, archive.On(a.Attribute))
	}
	if dir, err := archive.ParseDirection(a.Order); err == nil {
		opts = append(opts, archive.Ordered(dir))
	}
	return opts
}

// LogLevel returns the zerolog level, defaulting to info.
func (c *Config) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// GormLogLevel maps the zerolog level onto GORM's logger levels.
func (c *Config) GormLogLevel() logger.LogLevel {
	switch level := c.LogLevel(); {
	case level <= zerolog.DebugLevel:
		return logger.Info
	case level <= zerolog.WarnLevel:
		return logger.Warn
	case level <= zerolog.ErrorLevel:
		return logger.Error
	default:
		return logger.Silent
	}
}
