package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/worktime/internal/api"
	"github.com/joescharf/worktime/internal/daemon"
	"github.com/joescharf/worktime/internal/engine"
	"github.com/joescharf/worktime/internal/mcp"
	"github.com/joescharf/worktime/internal/models"
	"github.com/joescharf/worktime/internal/sampler"
	"github.com/joescharf/worktime/internal/timeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tracking daemon in the foreground",
	Long: `Run the tracking daemon: the REST API under /api/, MCP over streamable
HTTP at /mcp, the activity sampler and the auto-stop watchdog.

Only one daemon may run per state directory. Use 'serve start' to run it
in the background.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveRun(cmd.Context())
	},
}

var serveStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStartRun()
	},
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStopRun()
	},
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the daemon is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStatusRun()
	},
}

func init() {
	serveCmd.PersistentFlags().IntP("port", "p", 8765, "Port to listen on")
	_ = viper.BindPFlag("port", serveCmd.PersistentFlags().Lookup("port"))

	serveCmd.AddCommand(serveStartCmd)
	serveCmd.AddCommand(serveStopCmd)
	serveCmd.AddCommand(serveStatusCmd)
	rootCmd.AddCommand(serveCmd)
}

func pidFile() *daemon.PIDFile {
	return daemon.NewPIDFile(filepath.Join(viper.GetString("state_dir"), "worktime-serve.pid"))
}

func serveLogPath() string {
	return filepath.Join(viper.GetString("state_dir"), "worktime-serve.log")
}

func serveRun(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	pf := pidFile()
	if err := pf.Acquire(); err != nil {
		return fmt.Errorf("%w (pid file %s)", err, pf.Path)
	}
	defer func() { _ = pf.Release() }()

	logger := newLogger(ui.ErrOut)

	s, err := getStore()
	if err != nil {
		return err
	}

	cfg := engine.DefaultConfig()
	tracker := engine.NewTracker(s, engine.SystemClock{}, logger, cfg)
	if err := tracker.LoadSettings(ctx); err != nil {
		logger.Warn("failed to load settings, using defaults", "error", err)
	}
	if sess, err := tracker.Recover(ctx); err != nil {
		logger.Error("failed to recover interrupted session", "error", err)
	} else if sess != nil {
		logger.Info("recovered interrupted session", "session", sess.ID, "project", sess.ProjectID, "seconds", sess.Seconds)
	}

	editor := engine.NewEditor(s, logger, cfg)
	timelines := timeline.NewService(s, cfg)

	router := http.NewServeMux()
	router.Handle("/api/", api.NewServer(s, tracker, editor, timelines, logger).Router())
	mcpHandler := mcp.NewServer(s, tracker, editor, timelines, buildVersion).HTTPHandler()
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/", mcpHandler)

	ctx, stop := signal.NotifyContext(ctx, shutdownSignals()...)
	defer stop()

	events, unsubscribe := tracker.Subscribe()
	defer unsubscribe()
	go logEvents(ctx, logger, events)

	loop := sampler.NewLoop(tracker,
		sampler.New(viper.GetString("sampler.command"), cfg.AppName),
		viper.GetDuration("sampler.interval"), logger)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = loop.Run(ctx)
	}()

	addr := fmt.Sprintf("localhost:%d", viper.GetInt("port"))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "version", buildVersion)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	<-loopDone

	flushTracking(shutdownCtx, tracker, logger)
	return serveErr
}

// flushTracking checkpoints a run still in progress so the next start
// recovers it in full.
func flushTracking(ctx context.Context, tracker *engine.Tracker, logger *slog.Logger) {
	st := tracker.Status()
	if !st.IsTracking {
		return
	}
	if err := tracker.Checkpoint(ctx); err != nil {
		logger.Error("failed to checkpoint running session", "project", st.ProjectName, "error", err)
		return
	}
	logger.Info("tracking left running, recovered on next start", "project", st.ProjectName)
}

func logEvents(ctx context.Context, logger *slog.Logger, events <-chan models.TrackingEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			logger.Info("tracking event", "kind", ev.Kind, "project", ev.ProjectID, "seconds", ev.Seconds, "reason", ev.Reason)
		}
	}
}

func serveStartRun() error {
	pf := pidFile()
	if pid, running := pf.IsRunning(); running {
		return fmt.Errorf("server already running (pid %d)", pid)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("find executable: %w", err)
	}

	if err := os.MkdirAll(viper.GetString("state_dir"), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	logFile, err := os.OpenFile(serveLogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	args := []string{"serve", "--port", fmt.Sprint(viper.GetInt("port"))}
	if f := viper.ConfigFileUsed(); f != "" {
		args = append(args, "--config", f)
	}

	if dryRun {
		ui.DryRunMsg("Would run: %s %v", exe, args)
		return nil
	}

	child := exec.Command(exe, args...)
	child.Stdout = logFile
	child.Stderr = logFile
	setDaemonAttrs(child)
	if err := child.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	_ = child.Process.Release()

	ui.Success("Server started on %s (pid %d)", serverURL(), child.Process.Pid)
	ui.VerboseLog("Log: %s", serveLogPath())
	return nil
}

func serveStopRun() error {
	pf := pidFile()
	pid, running := pf.IsRunning()
	if !running {
		if pid != 0 {
			_ = pf.Remove()
		}
		return fmt.Errorf("server not running")
	}

	if dryRun {
		ui.DryRunMsg("Would stop server (pid %d)", pid)
		return nil
	}

	if err := pf.Signal(sigTERM()); err != nil {
		return fmt.Errorf("stop server: %w", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, running := pf.IsRunning(); !running {
			ui.Success("Server stopped (pid %d)", pid)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	ui.Warning("Server did not exit in time, killing pid %d", pid)
	if err := pf.Signal(sigKILL()); err != nil {
		return fmt.Errorf("kill server: %w", err)
	}
	_ = pf.Remove()
	return nil
}

func serveStatusRun() error {
	pid, running := pidFile().IsRunning()
	if !running {
		ui.Info("Server not running")
		return nil
	}
	ui.Success("Server running (pid %d) on %s", pid, serverURL())
	ui.VerboseLog("Log: %s", serveLogPath())
	return nil
}
