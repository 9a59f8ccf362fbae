package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/benaskins/halcyon/internal/api"
	"github.com/benaskins/halcyon/internal/config"
	"github.com/benaskins/halcyon/internal/vault"
)

const watcherDebounce = 500 * time.Millisecond

var agentAddr string

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run the halcyon agent",
	Long:  "Serve the local session and secret-storage API over a Unix socket, reloading configuration when the config file changes.",
	RunE:  runAgent,
}

func init() {
	agentCmd.Flags().StringVar(&agentAddr, "api-addr", "", "Optional TCP address for the API (e.g. 127.0.0.1:9090)")
	rootCmd.AddCommand(agentCmd)
}

func runAgent(cmd *cobra.Command, args []string) error {
	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config %s: %w", cfgPath, err)
	}

	slog.Info("halcyon agent starting", "config", cfgPath)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	mgr, store, err := newManager(cfg, "agent")
	if err != nil {
		return err
	}
	srv := api.NewServer(store, mgr)

	socketPath := cfg.Socket()
	// Remove stale socket
	os.Remove(socketPath)
	if err := os.MkdirAll(filepath.Dir(socketPath), 0700); err != nil {
		return fmt.Errorf("creating socket dir: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenUnix(socketPath)
	}()

	if agentAddr != "" {
		go func() {
			if err := srv.ListenTCP(agentAddr); err != nil {
				slog.Error("TCP API error", "error", err)
			}
		}()
	}

	go watchConfig(ctx, cfgPath, srv, store)

	slog.Info("halcyon agent ready", "socket", socketPath)

	select {
	case sig := <-sigCh:
		slog.Info("received signal, shutting down", "signal", sig)
	case err := <-errCh:
		if err != nil {
			slog.Error("API server error", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

// watchConfig watches the config file and swaps the server's session
// manager when it changes, so a new homeserver URL or timeout takes effect
// without restarting the agent. It blocks until the context is cancelled.
func watchConfig(ctx context.Context, cfgPath string, srv *api.Server, store vault.Store) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Error("config watcher unavailable", "error", err)
		return
	}
	defer watcher.Close()

	// Watch the directory: editors replace files on save, which drops a
	// watch on the file itself.
	if err := watcher.Add(filepath.Dir(cfgPath)); err != nil {
		slog.Error("watching config dir", "error", err)
		return
	}

	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name != cfgPath {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			slog.Debug("config file changed", "op", event.Op)

			// Debounce: reset timer on each event
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watcherDebounce, func() {
				cfg, err := config.Load(cfgPath)
				if err != nil {
					slog.Error("config reload failed", "error", err)
					return
				}
				mgr, err := newManagerWithStore(cfg, store)
				if err != nil {
					slog.Error("config reload failed", "error", err)
					return
				}
				srv.ReplaceManager(mgr)
				slog.Info("config reloaded", "homeserver", cfg.HomeserverURL)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Error("config watcher error", "error", err)
		}
	}
}
