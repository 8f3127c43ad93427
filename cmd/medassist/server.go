package main

import (
	"context"
	"errors"
	"fmt"
	"io"
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
	"golang.org/x/sync/errgroup"

	"github.com/2339036/medication-adherence-system/internal/api"
	"github.com/2339036/medication-adherence-system/internal/assistant"
	"github.com/2339036/medication-adherence-system/internal/config"
	"github.com/2339036/medication-adherence-system/internal/devstack"
	"github.com/2339036/medication-adherence-system/internal/faq"
	"github.com/2339036/medication-adherence-system/internal/logging"
	"github.com/2339036/medication-adherence-system/internal/observability"
	"github.com/2339036/medication-adherence-system/internal/scheduler"
	"github.com/2339036/medication-adherence-system/internal/services"
	"github.com/2339036/medication-adherence-system/internal/storage"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat API (foreground)",
	Long: `Run the chat API on server.port.

With --devstack the local medications, notifications and adherence services
run in the same process on devstack.port, the chat API is pointed at them and
the reminder scheduler is started.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		withDevstack, _ := cmd.Flags().GetBool("devstack")
		return runStack(stackOptions{chat: true, devstack: withDevstack})
	},
}

var devstackCmd = &cobra.Command{
	Use:   "devstack",
	Short: "Run only the local collaborator services and reminder scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStack(stackOptions{devstack: true})
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running medassist server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show medassist status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the assistant as MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP()
	},
}

func init() {
	serveCmd.Flags().Bool("devstack", false, "also run the local collaborator services")
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "medassist.pid")
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

func loadKnowledgeBase(path string) (*faq.KnowledgeBase, error) {
	if path == "" {
		return faq.Default(), nil
	}
	kb, err := faq.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading faq: %w", err)
	}
	return kb, nil
}

func devstackURL(port int, service string) string {
	return fmt.Sprintf("http://127.0.0.1:%d/api/%s", port, service)
}

// pointAtDevstack rewrites the collaborator URLs to the in-process devstack.
func pointAtDevstack(cfg *config.Config) {
	cfg.Services.MedicationsURL = devstackURL(cfg.DevStack.Port, "medications")
	cfg.Services.NotificationsURL = devstackURL(cfg.DevStack.Port, "notifications")
	cfg.Services.AdherenceURL = devstackURL(cfg.DevStack.Port, "adherence")
}

// newEngine wires the collaborator clients, metrics and knowledge base into
// an assistant engine.
func newEngine(cfg config.Config, kb *faq.KnowledgeBase, metrics *observability.Metrics) *assistant.Engine {
	opts := []services.Option{
		services.WithTimeout(cfg.Services.TimeoutDuration()),
		services.WithObserver(metrics),
	}
	return assistant.New(assistant.Deps{
		Medications: services.NewMedicationClient(cfg.Services.MedicationsURL, opts...),
		Reminders:   services.NewNotificationClient(cfg.Services.NotificationsURL, opts...),
		Adherence:   services.NewAdherenceClient(cfg.Services.AdherenceURL, opts...),
		FAQ:         kb,
	}, assistant.WithObserver(metrics))
}

type stackOptions struct {
	chat     bool
	devstack bool
}

func runStack(opts stackOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logCloser, err := logging.Init(cfg.Log)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	slog.Info("medassist starting", "version", version, "chat", opts.chat, "devstack", opts.devstack)

	// Refuse to start twice.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	port := cfg.Server.Port
	if !opts.chat {
		port = cfg.DevStack.Port
	}
	if probeHealth(fmt.Sprintf("http://127.0.0.1:%d/health", port)) == nil {
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("medassist is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("something is already serving on port %d", port)
		return fmt.Errorf("port %d already in use", port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	metrics := observability.NewMetrics(cfg.Metrics.Namespace)
	var servers []*http.Server

	if opts.devstack {
		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
			}
		}()

		servers = append(servers, &http.Server{
			Addr:    fmt.Sprintf("127.0.0.1:%d", cfg.DevStack.Port),
			Handler: devstack.NewHandler(store),
		})
		pointAtDevstack(&cfg)

		if cfg.Scheduler.Enabled {
			scanner, err := scheduler.New(store, scheduler.WithObserver(metrics))
			if err != nil {
				return err
			}
			g.Go(func() error { return scanner.Run(gctx) })
		} else {
			slog.Info("reminder scheduler disabled")
		}
	}

	if opts.chat {
		kb, err := loadKnowledgeBase(cfg.FAQ.Path)
		if err != nil {
			return err
		}
		servers = append(servers, &http.Server{
			Addr: fmt.Sprintf(":%d", cfg.Server.Port),
			Handler: api.NewHandler(api.Deps{
				Engine:         newEngine(cfg, kb, metrics),
				Errors:         metrics,
				Metrics:        metrics.Handler(),
				AllowedOrigins: cfg.Server.Origins(),
			}),
		})
	}

	for _, srv := range servers {
		g.Go(func() error {
			fmt.Fprintf(os.Stderr, "medassist listening on %s\n", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	// Graceful shutdown when a signal arrives or any component fails.
	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("medassist is not running (no PID file)")
		return nil
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		removePIDFile(pidPath)
		return fmt.Errorf("finding process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		removePIDFile(pidPath)
		printWarning("process %d not running, removed stale PID file", pid)
		return nil
	}

	printSuccess("sent SIGTERM to medassist (PID %d)", pid)
	return nil
}

var healthClient = &http.Client{Timeout: 2 * time.Second}

// probeHealth returns nil when url answers 200.
func probeHealth(url string) error {
	resp, err := healthClient.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health returned %d", resp.StatusCode)
	}
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return writeStatus(cfg)
}

func writeStatus(cfg config.Config) error {
	fmt.Fprintln(os.Stderr, colorize(colorBold, "medassist status"))

	chatURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	if err := probeHealth(chatURL + "/health"); err != nil {
		printStatus("Chat API", "%s (%s)", colorize(colorRed, "not running"), chatURL)
	} else {
		printStatus("Chat API", "%s (%s)", colorize(colorGreen, "running"), chatURL)
	}

	devURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.DevStack.Port)
	if err := probeHealth(devURL + "/health"); err != nil {
		printStatus("Devstack", "%s (%s)", colorize(colorYellow, "not running"), devURL)
	} else {
		printStatus("Devstack", "%s (%s)", colorize(colorGreen, "running"), devURL)
	}

	if pid, err := readPIDFile(pidFilePath(cfg.Storage.DataDir)); err == nil {
		printStatus("PID", "%d", pid)
	}
	printStatus("Medications", "%s", cfg.Services.MedicationsURL)
	printStatus("Notifications", "%s", cfg.Services.NotificationsURL)
	printStatus("Adherence", "%s", cfg.Services.AdherenceURL)
	printStatus("Timeout", "%s", cfg.Services.TimeoutDuration())
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	printStatus("Config", "%s", config.ConfigFilePath())
	return nil
}

// runMCP serves the assistant over stdio. Logs go to stderr so stdout stays
// reserved for the protocol.
func runMCP() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logCloser, err := logging.Init(cfg.Log)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	kb, err := loadKnowledgeBase(cfg.FAQ.Path)
	if err != nil {
		return err
	}
	metrics := observability.NewMetrics(cfg.Metrics.Namespace)
	srv := api.NewMCPServer(api.MCPDeps{
		Engine:  newEngine(cfg, kb, metrics),
		FAQ:     kb,
		Version: version,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stdio := server.NewStdioServer(srv)
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp stdio: %w", err)
	}
	return nil
}
