package log

import (
	"fmt"
	"log/slog"
	"strings"
)

// Config declares how a logger is assembled.
type Config struct {
	// Level is one of debug, info, warn, error, fatal.
	Level string
	// Format is "text" or "json".
	Format string
	// FilePath, when set, adds a file output next to the console.
	FilePath string
	// DisableConsole drops the default console output.
	DisableConsole bool
	// RedactKeys lists field keys whose values are replaced with [REDACTED].
	RedactKeys []string
	// SampleInitial and SampleThereafter enable per-message sampling when
	// SampleThereafter is positive.
	SampleInitial    int
	SampleThereafter int
	// Outputs are appended after the console and file outputs.
	Outputs []Output
}

// ParseLevel maps a level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	default:
		return InfoLevel, fmt.Errorf("log: unknown level %q", s)
	}
}

// ApplyConfig builds a logger from cfg.
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var formatter Formatter
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		formatter = &TextFormatter{}
	case "json":
		formatter = &JSONFormatter{}
	default:
		return nil, fmt.Errorf("log: unknown format %q", cfg.Format)
	}

	opts := []LoggerOption{WithLevel(level), WithFormatter(formatter)}
	if !cfg.DisableConsole {
		opts = append(opts, WithOutput(NewConsoleOutput()))
	}
	if cfg.FilePath != "" {
		fo, err := NewFileOutput(cfg.FilePath)
		if err != nil {
			return nil, fmt.Errorf("log: open %s: %w", cfg.FilePath, err)
		}
		opts = append(opts, WithOutput(fo))
	}
	for _, o := range cfg.Outputs {
		opts = append(opts, WithOutput(o))
	}
	if cfg.DisableConsole && cfg.FilePath == "" && len(cfg.Outputs) == 0 {
		opts = append(opts, WithOutput(NewNullOutput()))
	}

	l := NewLogger(opts...).(*BaseLogger)
	h := l.slogLogger.Handler().(*bridgeHandler)
	h = h.withRedactions(cfg.RedactKeys).withSampler(cfg.SampleInitial, cfg.SampleThereafter)
	l.slogLogger = slog.New(h)
	return l, nil
}
