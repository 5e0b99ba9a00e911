// Package logging builds zerolog loggers for gitrun components.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config selects the level, encoding, and destination of log output.
type Config struct {
	Level  string `yaml:"level"`  // trace, debug, info, warn, error
	Format string `yaml:"format"` // json or console
	Output string `yaml:"output"` // stdout or stderr
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
}

// ApplyEnv overrides fields from GITRUN_LOG_LEVEL and GITRUN_LOG_FORMAT.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("GITRUN_LOG_LEVEL"); v != "" {
		c.Level = v
	}
	if v := os.Getenv("GITRUN_LOG_FORMAT"); v != "" {
		c.Format = v
	}
}

// Logger is a zerolog logger that satisfies runner.Logger.
type Logger struct {
	zl zerolog.Logger
}

// New returns a logger writing to the configured output.
func New(cfg Config) *Logger {
	cfg.ApplyDefaults()
	return NewWithWriter(cfg, outputWriter(cfg.Output))
}

// NewWithWriter returns a logger writing to w, ignoring cfg.Output.
func NewWithWriter(cfg Config, w io.Writer) *Logger {
	cfg.ApplyDefaults()
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	if strings.ToLower(cfg.Format) == FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: "15:04:05"}
	}
	return &Logger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// WithComponent returns a logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", name).Logger()}
}

// With returns a logger carrying an extra string field.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{zl: l.zl.With().Str(key, value).Logger()}
}

func (l *Logger) Debug(msg string) { l.zl.Debug().Msg(msg) }

func (l *Logger) Info(msg string) { l.zl.Info().Msg(msg) }

func (l *Logger) Warn(msg string) { l.zl.Warn().Msg(msg) }

// Error logs msg with err attached.
func (l *Logger) Error(msg string, err error) { l.zl.Error().Err(err).Msg(msg) }

func outputWriter(output string) io.Writer {
	switch strings.ToLower(output) {
	case "stdout":
		return os.Stdout
	default:
		return os.Stderr
	}
}
