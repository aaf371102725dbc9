package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend names accepted in Config.Backend.
const (
	BackendPebble = "pebble"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// Start modes accepted in Config.Mode.
const (
	ModeAuto    = "auto"
	ModeInit    = "init"
	ModeUpgrade = "upgrade"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	Greeting string `mapstructure:"greeting" env:"TALLY_GREETING"`
	DataDir  string `mapstructure:"dataDir" env:"TALLY_DATA_DIR"`
	Backend  string `mapstructure:"backend" env:"TALLY_BACKEND"`
	// Fsync is the pebble sync policy. Only "always" makes an event durable
	// before the request that recorded it returns; "interval" and "never" may
	// lose the most recent acknowledged events on a machine crash.
	Fsync           string        `mapstructure:"fsync" env:"TALLY_FSYNC"`
	FsyncInterval   time.Duration `mapstructure:"fsyncInterval" env:"TALLY_FSYNC_INTERVAL"`
	MaxPages        uint64        `mapstructure:"maxPages" env:"TALLY_MAX_PAGES"`
	BucketSizePages uint16        `mapstructure:"bucketSizePages" env:"TALLY_BUCKET_SIZE_PAGES"`
	Mode            string        `mapstructure:"mode" env:"TALLY_MODE"`
	HTTPAddr        string        `mapstructure:"httpAddr" env:"TALLY_HTTP_ADDR"`
	GRPCAddr        string        `mapstructure:"grpcAddr" env:"TALLY_GRPC_ADDR"`
	Log             LogConfig     `mapstructure:"log"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level" env:"TALLY_LOG_LEVEL"`
	Format string `mapstructure:"format" env:"TALLY_LOG_FORMAT"`
	// BufferSize is the number of recent entries kept for the /logs endpoint.
	BufferSize int `mapstructure:"bufferSize" env:"TALLY_LOG_BUFFER_SIZE"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Greeting:        "Hello",
		DataDir:         DefaultDataDir(),
		Backend:         BackendPebble,
		Fsync:           "always",
		FsyncInterval:   5 * time.Millisecond,
		BucketSizePages: 128,
		Mode:            ModeAuto,
		HTTPAddr:        ":8080",
		GRPCAddr:        ":50051",
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			BufferSize: 4096,
		},
	}
}

// Load reads configuration from a JSON, YAML or TOML file (by extension) on
// top of Default. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml", ".toml":
	default:
		v.SetConfigType("json")
	}
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that cfg can be used to start a server. The greeting is
// checked when the process state is built, which reports it as a
// *state.InvalidStateError.
func (c Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendPebble, BackendBolt:
		if c.DataDir == "" {
			errs = append(errs, fmt.Errorf("dataDir is required for backend %q", c.Backend))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q; use pebble|bolt|memory", c.Backend))
	}
	switch c.Fsync {
	case "", "always", "interval", "never":
	default:
		errs = append(errs, fmt.Errorf("unknown fsync mode %q; use always|interval|never", c.Fsync))
	}
	switch c.Mode {
	case ModeAuto, ModeInit, ModeUpgrade:
	default:
		errs = append(errs, fmt.Errorf("unknown mode %q; use auto|init|upgrade", c.Mode))
	}
	if c.BucketSizePages == 0 {
		errs = append(errs, errors.New("bucketSizePages must be positive"))
	}
	if c.Log.BufferSize < 0 {
		errs = append(errs, errors.New("log.bufferSize cannot be negative"))
	}
	return errors.Join(errs...)
}
