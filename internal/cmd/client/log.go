package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/rzbill/tally/internal/audit"
	cfgpkg "github.com/rzbill/tally/internal/config"
	"github.com/rzbill/tally/internal/eventlog"
	"github.com/rzbill/tally/internal/runtime"
	"github.com/spf13/cobra"
)

// errEmptyStore is returned by offline commands pointed at a store that holds
// no event log yet.
var errEmptyStore = errors.New("no event log found in data dir")

// NewLogCommand constructs the offline `log` command group. Its subcommands
// open the store directly, so the server must not be running against the
// same data dir.
func NewLogCommand() *cobra.Command {
	logCmd := &cobra.Command{Use: "log", Short: "Inspect the event log of a stopped server"}
	logCmd.PersistentFlags().String("data-dir", "", "Data directory (defaults to the OS-specific application data directory)")
	logCmd.PersistentFlags().String("backend", cfgpkg.BackendPebble, "Storage backend: pebble|bolt")
	logCmd.AddCommand(newLogDumpCommand(), newLogReplayCommand())
	return logCmd
}

func openOffline(cmd *cobra.Command) (*runtime.Runtime, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	backend, _ := cmd.Flags().GetString("backend")
	if backend == cfgpkg.BackendMemory {
		return nil, fmt.Errorf("backend %q has nothing to inspect", backend)
	}
	cfg := cfgpkg.Default()
	cfg.Backend = backend
	cfg.Fsync = "never"
	cfg.DataDir = cfgpkg.StoreDir(dataDir)
	rt, err := runtime.Open(runtime.Options{Config: cfg})
	if err != nil {
		return nil, err
	}
	if rt.Fresh() {
		_ = rt.Close()
		return nil, fmt.Errorf("%w: %s", errEmptyStore, cfg.DataDir)
	}
	return rt, nil
}

// newLogDumpCommand constructs the `log dump` subcommand.
func newLogDumpCommand() *cobra.Command {
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Print events as JSON lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			reverse, _ := cmd.Flags().GetBool("reverse")
			expr, _ := cmd.Flags().GetString("filter")
			filter, err := eventlog.NewFilter(expr)
			if err != nil {
				return fmt.Errorf("invalid --filter: %w", err)
			}
			rt, err := openOffline(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			opts := eventlog.ReadOptions{Reverse: reverse, Filter: filter, Limit: 256}
			printed := 0
			for {
				if limit > 0 && limit-printed < opts.Limit {
					opts.Limit = limit - printed
				}
				items, next, err := rt.Events(opts)
				if err != nil {
					return err
				}
				for _, it := range items {
					if err := enc.Encode(decodedPayload(it.Seq, it.Payload)); err != nil {
						return err
					}
				}
				printed += len(items)
				if next.IsZero() || (limit > 0 && printed >= limit) {
					return nil
				}
				opts.Start = next
			}
		},
	}
	dumpCmd.Flags().Int("limit", 0, "Stop after N events (0 = all)")
	dumpCmd.Flags().Bool("reverse", false, "Newest first")
	dumpCmd.Flags().String("filter", "", "CEL filter over sequence, size, text and json")
	return dumpCmd
}

// newLogReplayCommand constructs the `log replay` subcommand.
func newLogReplayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Rebuild the per-name counts from the event log and print them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openOffline(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			counts, err := audit.Replay(rt.Recorder())
			if err != nil {
				return err
			}
			names := make([]string, 0, len(counts))
			for name := range counts {
				names = append(names, name)
			}
			sort.Strings(names)
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, name := range names {
				if err := enc.Encode(map[string]any{"name": name, "count": counts[name]}); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
