package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/worktime/internal/daemon"
	"github.com/joescharf/worktime/internal/engine"
	"github.com/joescharf/worktime/internal/mcp"
	"github.com/joescharf/worktime/internal/sampler"
	"github.com/joescharf/worktime/internal/timeline"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

The stdio server owns the tracking slot like the daemon does, so it refuses
to start while 'worktime serve' is running. Point the client at the
daemon's streamable HTTP endpoint (http://localhost:<port>/mcp) instead.

  {
    "mcpServers": {
      "worktime": { "command": "worktime", "args": ["mcp"] }
    }
  }

Available tools: wt_list_projects, wt_tracking_status, wt_start_tracking,
wt_stop_tracking, wt_check_idle, wt_attribute_idle, wt_timeline,
wt_split_session`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcpRun(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func mcpRun(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	pf := pidFile()
	if err := pf.Acquire(); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return fmt.Errorf("daemon is running; use %s/mcp instead: %w", serverURL(), err)
		}
		return err
	}
	defer func() { _ = pf.Release() }()

	// stdout carries the protocol, so logs go to stderr.
	logger := newLogger(os.Stderr)

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
		logger.Info("recovered interrupted session", "session", sess.ID, "seconds", sess.Seconds)
	}

	ctx, stop := signal.NotifyContext(ctx, shutdownSignals()...)
	defer stop()

	loop := sampler.NewLoop(tracker,
		sampler.New(viper.GetString("sampler.command"), cfg.AppName),
		viper.GetDuration("sampler.interval"), logger)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = loop.Run(ctx)
	}()

	srv := mcp.NewServer(s, tracker, engine.NewEditor(s, logger, cfg), timeline.NewService(s, cfg), buildVersion)
	serveErr := srv.ServeStdio(ctx)
	stop()
	<-loopDone
	flushTracking(context.WithoutCancel(ctx), tracker, logger)

	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		return serveErr
	}
	return nil
}
