package cmd

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/joescharf/worktime/internal/client"
	"github.com/joescharf/worktime/internal/engine"
	"github.com/joescharf/worktime/internal/models"
	"github.com/joescharf/worktime/internal/output"
)

var trackActivity string

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Start, stop and inspect tracking on the running daemon",
}

var trackStartCmd = &cobra.Command{
	Use:   "start <project>",
	Short: "Start tracking a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return trackStartRun(cmd.Context(), args[0])
	},
}

var trackStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop tracking and save the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return trackStopRun(cmd.Context())
	},
}

var trackStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current tracking status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return trackStatusRun(cmd.Context())
	},
}

func init() {
	trackStartCmd.Flags().StringVarP(&trackActivity, "activity", "a", "", "Activity type")

	trackCmd.AddCommand(trackStartCmd)
	trackCmd.AddCommand(trackStopCmd)
	trackCmd.AddCommand(trackStatusCmd)
	rootCmd.AddCommand(trackCmd)
}

func trackStartRun(ctx context.Context, project string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	p, err := resolveProject(ctx, s, project)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would start tracking %s", p.Name)
		return nil
	}

	st, err := apiClient().Start(ctx, p.ID, models.StringPtr(trackActivity))
	if err != nil {
		return daemonErr(err)
	}
	ui.Success("Tracking %s", output.Cyan(st.ProjectName))
	if st.ActivityType != nil {
		ui.VerboseLog("Activity: %s", *st.ActivityType)
	}
	return nil
}

func trackStopRun(ctx context.Context) error {
	if dryRun {
		ui.DryRunMsg("Would stop tracking")
		return nil
	}

	res, err := apiClient().Stop(ctx)
	if err != nil {
		return daemonErr(err)
	}
	if res.Session == nil {
		ui.Warning("Stopped after %s; nothing saved (all time was idle)", output.Duration(res.Seconds))
	} else {
		ui.Success("Saved %s (session %s)", output.Green(output.Duration(res.Session.Seconds)), res.Session.ID)
	}
	if res.PendingIdle != nil {
		printPending(res.PendingIdle)
	}
	return nil
}

func trackStatusRun(ctx context.Context) error {
	st, err := apiClient().Status(ctx)
	if err != nil {
		return daemonErr(err)
	}

	if !st.IsTracking {
		ui.Info("Not tracking")
	} else {
		fmt.Fprintf(ui.Out, "%s %s\n", output.Green("Tracking"), output.Cyan(st.ProjectName))
		if st.ActivityType != nil {
			fmt.Fprintf(ui.Out, "  Activity:   %s\n", *st.ActivityType)
		}
		fmt.Fprintf(ui.Out, "  Elapsed:    %s\n", output.Duration(st.ElapsedSeconds))
		if st.StartedAt != nil {
			fmt.Fprintf(ui.Out, "  Started:    %s\n", st.StartedAt)
		}
		if st.LastActivityAt != nil {
			fmt.Fprintf(ui.Out, "  Last seen:  %s\n", st.LastActivityAt)
		}
		if st.AppName != "" {
			fmt.Fprintf(ui.Out, "  App:        %s\n", st.AppName)
		}
		for _, app := range slices.Sorted(maps.Keys(st.AppSeconds)) {
			fmt.Fprintf(ui.Out, "    %-10s %s\n", app, output.Duration(st.AppSeconds[app]))
		}
	}
	fmt.Fprintf(ui.Out, "  Idle after: %d min\n", st.IdleThresholdMinutes)
	if st.PendingIdle != nil {
		printPending(st.PendingIdle)
	}
	return nil
}

func printPending(p *engine.PendingIdlePeriod) {
	ui.Warning("%d min idle from %s to %s awaiting attribution (worktime idle attribute <project> | worktime idle break)",
		p.Minutes, p.StartTime, p.EndTime)
}

// daemonErr adds a hint when the daemon cannot be reached.
func daemonErr(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return err
	}
	return fmt.Errorf("%w\nStart it with 'worktime serve start'", err)
}
