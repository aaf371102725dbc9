package serverrun

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	cfgpkg "github.com/rzbill/tally/internal/config"
	"github.com/rzbill/tally/internal/lifecycle"
	"github.com/rzbill/tally/internal/state"
)

func testConfig(t *testing.T) cfgpkg.Config {
	t.Helper()
	cfg := cfgpkg.Default()
	cfg.DataDir = t.TempDir()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.GRPCAddr = "127.0.0.1:0"
	cfg.Fsync = "never"
	cfg.BucketSizePages = 1
	cfg.Log.Level = "error"
	return cfg
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	if _, _, err := NewLogger(cfgpkg.LogConfig{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backend = "s3"
	if err := Run(context.Background(), Options{Config: cfg}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestRunBlankGreetingIsInvalidState(t *testing.T) {
	cfg := testConfig(t)
	cfg.Greeting = " "
	err := Run(context.Background(), Options{Config: cfg})
	var invalid *state.InvalidStateError
	if !errors.As(err, &invalid) {
		t.Fatalf("want *state.InvalidStateError, got %v", err)
	}
}

func TestRunUpgradeOnFreshStoreIsFatal(t *testing.T) {
	cfg := testConfig(t)
	cfg.Mode = cfgpkg.ModeUpgrade
	err := Run(context.Background(), Options{Config: cfg})
	if !errors.Is(err, lifecycle.ErrUpgradeArgOnInit) {
		t.Fatalf("want ErrUpgradeArgOnInit, got %v", err)
	}
}

func runUntilReady(t *testing.T, cfg cfgpkg.Config, fn func(httpAddr string)) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, Options{Config: cfg, Version: "test", Ready: func(httpAddr, _ string) {
			fn(httpAddr)
			cancel()
		}})
	}()
	if err := <-errCh; err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunServesAndRestarts(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	cfg := testConfig(t)

	runUntilReady(t, cfg, func(addr string) {
		for _, name := range []string{"a", "b", "a"} {
			resp, err := http.Post("http://"+addr+"/v1/greet", "application/json", strings.NewReader(`{"name":"`+name+`"}`))
			if err != nil {
				t.Errorf("greet: %v", err)
				return
			}
			resp.Body.Close()
		}
	})

	cfg.Mode = cfgpkg.ModeUpgrade
	cfg.Greeting = "Hoi"
	runUntilReady(t, cfg, func(addr string) {
		resp, err := http.Get("http://" + addr + "/v1/greeted?name=a")
		if err != nil {
			t.Errorf("count: %v", err)
			return
		}
		defer resp.Body.Close()
		var body struct {
			Count uint64 `json:"count"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
			return
		}
		if body.Count != 2 {
			t.Errorf("count(a) after restart = %d, want 2", body.Count)
		}
	})

	cfg.Mode = cfgpkg.ModeInit
	if err := Run(context.Background(), Options{Config: cfg}); !errors.Is(err, lifecycle.ErrInitArgOnUpgrade) {
		t.Fatalf("want ErrInitArgOnUpgrade, got %v", err)
	}
}
