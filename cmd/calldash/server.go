package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/calldash/internal/api"
	"github.com/kalambet/calldash/internal/backend"
	"github.com/kalambet/calldash/internal/config"
	"github.com/kalambet/calldash/internal/session"
	"github.com/kalambet/calldash/internal/storage"
	"github.com/kalambet/calldash/internal/sweep"
	"github.com/kalambet/calldash/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running dashboard server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show calldash status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP()
	},
}

const sweepInterval = time.Hour

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "calldash.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func setupLogging(cfg config.Config) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})))
}

// openSessionStorage returns the client-readable storage. The sqlite store is
// also returned so the caller can close and purge it; it is nil in memory mode.
func openSessionStorage(cfg config.Config) (session.Storage, *storage.Store, error) {
	if cfg.Session.Storage == config.StorageMemory {
		return session.NewMemoryStorage(), nil, nil
	}
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening storage: %w", err)
	}
	return store, store, nil
}

func sessionOptions(cfg config.Config) session.Options {
	return session.Options{
		MaxAge:   cfg.Session.MaxAge(),
		Secure:   cfg.Session.Secure,
		SameSite: cfg.Session.SameSiteMode(),
		Role:     cfg.Session.Role,
	}
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "calldash version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	pidPath := pidFilePath(cfg.Storage.DataDir)
	if newAPIClient(cfg).healthy(context.Background()) {
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("calldash is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("calldash is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessStore, store, err := openSessionStorage(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
			}
		}()
		go sweep.New(store, cfg.Session.MaxAge(), sweepInterval).Run(ctx)
	}
	slog.Info("session storage ready", "kind", cfg.Session.Storage)

	handler := web.NewHandler(web.Deps{
		Gateway:  backend.New(cfg.Backend.BaseURL),
		Sessions: session.NewManager(sessStore, sessionOptions(cfg)),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("calldash listening", "addr", addr, "backend", cfg.Backend.BaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runMCP() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Backend.Token == "" {
		slog.Warn("CALLDASH_BACKEND_TOKEN is not set; every tool will fail")
	}
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Gateway: backend.New(cfg.Backend.BaseURL),
		Token:   cfg.Backend.Token,
		Version: version,
	})
	slog.Info("MCP server started (stdio transport)")
	if err := server.NewStdioServer(mcpSrv).Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP stdio server: %w", err)
	}
	return nil
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("calldash is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop calldash (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to calldash (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	if newAPIClient(cfg).healthy(ctx) {
		printStatus("Server", "running on port %d", cfg.Server.Port)
	} else {
		printStatus("Server", "stopped")
	}

	printStatus("Backend", "%s", cfg.Backend.BaseURL)
	if cfg.Backend.Token != "" {
		printStatus("Service token", "set")
	} else {
		printStatus("Service token", "not set (MCP tools and CLI lookups disabled)")
	}
	printStatus("Session storage", "%s", cfg.Session.Storage)
	printStatus("Session max age", "%s", cfg.Session.MaxAge())
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
