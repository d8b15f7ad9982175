package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ArtemEIPS/presentation-maker/store"
)

// Config is the deckd configuration. Values come from defaults, then the
// YAML file, then DECKD_* environment variables.
type Config struct {
	Addr           string        `yaml:"addr"`
	Document       string        `yaml:"document"`
	Language       string        `yaml:"language"`
	HistoryDepth   int           `yaml:"historyDepth"`
	AllowedOrigins []string      `yaml:"allowedOrigins"`
	Store          StoreConfig   `yaml:"store"`
	Export         ExportConfig  `yaml:"export"`
	Preview        PreviewConfig `yaml:"preview"`
	Log            LogConfig     `yaml:"log"`
}

type StoreConfig struct {
	// Kind is one of file, redis, sqlite or memory.
	Kind       string        `yaml:"kind"`
	DataDir    string        `yaml:"dataDir"`
	RedisAddr  string        `yaml:"redisAddr"`
	RedisTTL   time.Duration `yaml:"redisTTL"`
	SQLitePath string        `yaml:"sqlitePath"`
}

type ExportConfig struct {
	FontPath     string        `yaml:"fontPath"`
	FontFamily   string        `yaml:"fontFamily"`
	FontDirs     []string      `yaml:"fontDirs"`
	FetchTimeout time.Duration `yaml:"fetchTimeout"`
}

type PreviewConfig struct {
	Width int `yaml:"width"`
}

type LogConfig struct {
	Format string `yaml:"format"` // text or json
	Level  string `yaml:"level"`
}

func defaultConfig() Config {
	return Config{
		Addr:     ":8080",
		Document: "default",
		Language: "en",
		Store: StoreConfig{
			Kind:       "file",
			DataDir:    "./data",
			SQLitePath: "./data/decks.db",
		},
		Export:  ExportConfig{FetchTimeout: 10 * time.Second},
		Preview: PreviewConfig{Width: 480},
		Log:     LogConfig{Format: "text", Level: "info"},
	}
}

// LoadConfig reads path (optional) and applies environment overrides.
func LoadConfig(path string, getenv func(string) string) (Config, error) {
	cfg := defaultConfig()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv(getenv)
	return cfg, cfg.validate()
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, name string) {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}
	set(&c.Addr, "DECKD_ADDR")
	set(&c.Document, "DECKD_DOCUMENT")
	set(&c.Language, "DECKD_LANGUAGE")
	set(&c.Store.Kind, "DECKD_STORE")
	set(&c.Store.DataDir, "DECKD_DATA_DIR")
	set(&c.Store.RedisAddr, "DECKD_REDIS_ADDR")
	set(&c.Store.SQLitePath, "DECKD_SQLITE_PATH")
	set(&c.Export.FontPath, "DECKD_FONT_PATH")
	set(&c.Log.Format, "DECKD_LOG_FORMAT")
	set(&c.Log.Level, "DECKD_LOG_LEVEL")
}

func (c *Config) validate() error {
	if !store.ValidKey(c.Document) {
		return fmt.Errorf("invalid document key %q: use 1-64 letters, digits, '-' or '_'", c.Document)
	}
	switch c.Store.Kind {
	case "file", "sqlite", "memory":
	case "redis":
		if c.Store.RedisAddr == "" {
			return errors.New("store.redisAddr is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	if _, err := c.logLevel(); err != nil {
		return err
	}
	return nil
}

func (c *Config) logLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.Log.Level))); err != nil {
		return level, fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return level, nil
}

// newLogger builds the process logger described by c.
func (c *Config) newLogger(w io.Writer) *slog.Logger {
	level, _ := c.logLevel()
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
