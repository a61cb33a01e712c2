package cmd

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joescharf/worktime/internal/engine"
	"github.com/joescharf/worktime/internal/output"
)

var idleCmd = &cobra.Command{
	Use:   "idle",
	Short: "Resolve the pending idle period",
	Long: `An idle period is a stretch of silence longer than the idle threshold.
It is carved out of the running session and waits here until you either
book it on a project as off-computer time or discard it as a break.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return idleCheckRun(cmd.Context())
	},
}

var idleCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Show the pending idle period",
	RunE: func(cmd *cobra.Command, args []string) error {
		return idleCheckRun(cmd.Context())
	},
}

var idleAttributeCmd = &cobra.Command{
	Use:   "attribute <project>",
	Short: "Book the idle period on a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return idleAttributeRun(cmd.Context(), args[0])
	},
}

var idleBreakCmd = &cobra.Command{
	Use:   "break",
	Short: "Discard the idle period as a break",
	RunE: func(cmd *cobra.Command, args []string) error {
		return idleBreakRun(cmd.Context())
	},
}

var thresholdCmd = &cobra.Command{
	Use:   "threshold [minutes]",
	Short: "Show or set the idle threshold in minutes",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return thresholdShowRun(cmd.Context())
		}
		minutes, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		return thresholdSetRun(cmd.Context(), minutes)
	},
}

func init() {
	idleCmd.AddCommand(idleCheckCmd)
	idleCmd.AddCommand(idleAttributeCmd)
	idleCmd.AddCommand(idleBreakCmd)
	rootCmd.AddCommand(idleCmd)
	rootCmd.AddCommand(thresholdCmd)
}

func idleCheckRun(ctx context.Context) error {
	p, err := apiClient().PendingIdle(ctx)
	if err != nil {
		return daemonErr(err)
	}
	if p == nil {
		ui.Info("No pending idle period")
		return nil
	}
	printPending(p)
	return nil
}

func idleAttributeRun(ctx context.Context, project string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	p, err := resolveProject(ctx, s, project)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would attribute idle time to %s", p.Name)
		return nil
	}

	sess, err := apiClient().AttributeIdle(ctx, p.ID)
	if err != nil {
		return daemonErr(err)
	}
	ui.Success("Booked %s of off-computer time on %s", output.Duration(sess.Seconds), output.Cyan(p.Name))
	return nil
}

func idleBreakRun(ctx context.Context) error {
	if dryRun {
		ui.DryRunMsg("Would discard the pending idle period")
		return nil
	}

	p, err := apiClient().Break(ctx)
	if err != nil {
		return daemonErr(err)
	}
	ui.Success("Discarded %d min as a break", p.Minutes)
	return nil
}

func thresholdShowRun(ctx context.Context) error {
	if st, err := apiClient().Status(ctx); err == nil {
		ui.Info("Idle threshold: %d min", st.IdleThresholdMinutes)
		return nil
	}

	tracker, err := offlineTracker(ctx)
	if err != nil {
		return err
	}
	ui.Info("Idle threshold: %d min", tracker.IdleThreshold())
	return nil
}

// thresholdSetRun updates the daemon when it runs and the stored setting otherwise.
func thresholdSetRun(ctx context.Context, minutes int) error {
	if dryRun {
		ui.DryRunMsg("Would set idle threshold to %d min", minutes)
		return nil
	}

	c := apiClient()
	if c.Health(ctx) == nil {
		if err := c.SetIdleThreshold(ctx, minutes); err != nil {
			return err
		}
		ui.Success("Idle threshold set to %d min", minutes)
		return nil
	}

	tracker, err := offlineTracker(ctx)
	if err != nil {
		return err
	}
	if err := tracker.SetIdleThreshold(ctx, minutes); err != nil {
		return err
	}
	ui.Success("Idle threshold set to %d min (applies when the daemon starts)", minutes)
	return nil
}

// offlineTracker builds a tracker over the local store for settings only.
func offlineTracker(ctx context.Context) (*engine.Tracker, error) {
	s, err := getStore()
	if err != nil {
		return nil, err
	}
	tracker := engine.NewTracker(s, engine.SystemClock{}, newLogger(ui.ErrOut), engine.DefaultConfig())
	if err := tracker.LoadSettings(ctx); err != nil {
		return nil, err
	}
	return tracker, nil
}
