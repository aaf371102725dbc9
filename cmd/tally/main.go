package main

import (
	"context"
	"fmt"
	"os"
	"time"

	clientcmd "github.com/rzbill/tally/internal/cmd/client"
	serverrun "github.com/rzbill/tally/internal/cmd/server"
	cfgpkg "github.com/rzbill/tally/internal/config"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "tally",
		Short:        "Tally runtime CLI",
		Long:         "Tally is a single-binary greeting counter backed by a durable event log.",
		SilenceUsage: true,
	}

	// server start
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start tally server (gRPC and HTTP)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := serverrun.Run(context.Background(), serverrun.Options{Config: cfg, Version: version}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	f := serverStartCmd.Flags()
	f.String("config", os.Getenv("TALLY_CONFIG"), "Config file (json, yaml or toml)")
	f.String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	f.String("backend", "", "Storage backend: pebble|bolt|memory")
	f.String("mode", "", "Start mode: auto|init|upgrade")
	f.String("greeting", "", "Greeting prefix")
	f.String("grpc", "", "gRPC listen address (default :50051)")
	f.String("http", "", "HTTP listen address (default :8080)")
	f.String("fsync", "", "Fsync mode: always|interval|never")
	f.Int("fsync-interval-ms", 0, "When --fsync=interval, group-commit window in ms (default 5)")
	f.String("log-level", "", "Log level: debug|info|warn|error")
	f.String("log-format", "", "Log format: text|json (default text)")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	clientcmd.Register(rootCmd, apiURL)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig layers defaults, the config file, TALLY_* env vars and finally
// explicitly set flags.
func loadConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	f := cmd.Flags()
	path, _ := f.GetString("config")
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfg, err
	}
	if err := cfgpkg.FromEnv(&cfg); err != nil {
		return cfg, err
	}
	str := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	str("data-dir", &cfg.DataDir)
	str("backend", &cfg.Backend)
	str("mode", &cfg.Mode)
	str("greeting", &cfg.Greeting)
	str("grpc", &cfg.GRPCAddr)
	str("http", &cfg.HTTPAddr)
	str("fsync", &cfg.Fsync)
	str("log-level", &cfg.Log.Level)
	str("log-format", &cfg.Log.Format)
	if f.Changed("fsync-interval-ms") {
		ms, _ := f.GetInt("fsync-interval-ms")
		cfg.FsyncInterval = time.Duration(ms) * time.Millisecond
	}
	return cfg, cfg.Validate()
}

func apiURL() string {
	if v := os.Getenv("TALLY_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}
