// Package cli holds the setup shared by the spooltag commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/barnettlynn/spooltag/internal/config"
	"github.com/barnettlynn/spooltag/pkg/mifare"
	"github.com/barnettlynn/spooltag/pkg/spool"
	"github.com/barnettlynn/spooltag/pkg/store"
)

// SetupLogging installs the default slog handler on stderr.
func SetupLogging(verbose bool, format string) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, opts)))
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
	}
}

// LoadConfig finds and loads config.yaml.
func LoadConfig() (*config.Config, error) {
	configPath, err := config.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("resolve config path failed: %w", err)
	}
	slog.Debug("using config", "path", configPath)
	return config.Load(configPath)
}

// OpenLibrary opens the dump library in the configured directory.
func OpenLibrary(cfg *config.Config) (*spool.Library, error) {
	dir, err := store.NewDir(cfg.Storage.DumpDir)
	if err != nil {
		return nil, fmt.Errorf("open dump dir: %w", err)
	}
	return spool.NewLibrary(dir), nil
}

// OpenReader opens the reader named on the command line, or the configured one.
func OpenReader(cfg *config.Config, arg string) (*mifare.Context, error) {
	selector := arg
	if selector == "" {
		selector = cfg.ReaderSelector()
	}
	pc, err := mifare.OpenContext(selector)
	if err != nil {
		return nil, err
	}
	fmt.Printf("Using reader [%d]: %s\n", pc.ReaderIdx, pc.Reader)
	return pc, nil
}

// CancelOnSignal interrupts pc.Watch on SIGINT or SIGTERM.
func CancelOnSignal(pc *mifare.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived %v, shutting down...\n", sig)
		if err := pc.Cancel(); err != nil {
			slog.Warn("cancel failed", "err", err)
		}
	}()
}
