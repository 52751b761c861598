// Package config loads the YAML configuration of the rtcdemo superloop.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Journal drivers
const (
	DriverNone   = "none"
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config is the top-level configuration.
type Config struct {
	Scenario  string        `yaml:"scenario"`
	MaxRounds int           `yaml:"max_rounds"`
	Log       LogConfig     `yaml:"log"`
	Queue     QueueConfig   `yaml:"queue"`
	Journal   JournalConfig `yaml:"journal"`
}

// LogConfig selects the slog handler and level
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn or error
	Format string `yaml:"format"` // text or json
}

// QueueConfig sizes each active object's event queue
type QueueConfig struct {
	Capacity int `yaml:"capacity"`
}

// JournalConfig selects where transitions are journaled
type JournalConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Scenario:  "request-retry",
		MaxRounds: 1000,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Queue: QueueConfig{
			Capacity: 16,
		},
		Journal: JournalConfig{
			Driver: DriverMemory,
		},
	}
}

// Load reads and parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("yaml unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations
func (c Config) Validate() error {
	if c.Scenario == "" {
		return errors.New("scenario is required")
	}
	if c.MaxRounds < 0 {
		return fmt.Errorf("max_rounds must not be negative, got %d", c.MaxRounds)
	}
	if c.Queue.Capacity < 1 {
		return fmt.Errorf("queue.capacity must be positive, got %d", c.Queue.Capacity)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	switch c.Journal.Driver {
	case DriverNone, DriverMemory:
	case DriverSQLite:
		if c.Journal.DSN == "" {
			return errors.New("journal.dsn is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown journal.driver %q", c.Journal.Driver)
	}
	return nil
}

// SlogLevel maps log.level to a slog.Level
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	return level, nil
}

// NewLogger builds a logger writing to w with the configured handler and level.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
