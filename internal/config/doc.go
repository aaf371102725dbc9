// Package config provides loading and environment overlay for tally server
// configuration. It exposes a Default() baseline, a file loader for JSON,
// YAML or TOML, and a TALLY_* environment overlay.
//
// Example:
//
//	cfg, err := config.Load("/etc/tally.yaml")
//	if err != nil { ... }
//	if err := config.FromEnv(&cfg); err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
package config
