package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/joescharf/worktime/internal/engine"
	"github.com/joescharf/worktime/internal/models"
	"github.com/joescharf/worktime/internal/output"
	"github.com/joescharf/worktime/internal/store"
	"github.com/joescharf/worktime/internal/timeline"
	"github.com/joescharf/worktime/internal/wallclock"
)

var (
	sessionAt             string
	sessionDuration       string
	sessionActivity       string
	sessionApp            string
	sessionFirstActivity  string
	sessionSecondActivity string
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"s"},
	Short:   "List and edit recorded sessions",
}

var sessionListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List sessions in a date range (default today)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionListRun(cmd.Context())
	},
}

var sessionAddCmd = &cobra.Command{
	Use:   "add <project>",
	Short: "Add a manual session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionAddRun(cmd.Context(), args[0])
	},
}

var sessionDurationCmd = &cobra.Command{
	Use:   "duration <id> <duration>",
	Short: "Change a session's duration, keeping its start",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionDurationRun(cmd.Context(), args[0], args[1])
	},
}

var sessionActivityCmd = &cobra.Command{
	Use:   "activity <id> <activity|none>",
	Short: "Change a session's activity type",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionActivityRun(cmd.Context(), args[0], args[1])
	},
}

var sessionRetimeCmd = &cobra.Command{
	Use:   "retime <id>",
	Short: "Move a session and set its duration and activity together",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionRetimeRun(cmd.Context(), args[0])
	},
}

var sessionSplitCmd = &cobra.Command{
	Use:   "split <id> <first-duration>",
	Short: "Split a session in two contiguous parts",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionSplitRun(cmd.Context(), args[0], args[1])
	},
}

var sessionRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a session",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionRemoveRun(cmd.Context(), args[0])
	},
}

func init() {
	addRangeFlags(sessionListCmd)

	sessionAddCmd.Flags().StringVar(&sessionAt, "at", "", "Start, e.g. \"2025-01-15 09:00\" (required)")
	sessionAddCmd.Flags().StringVar(&sessionDuration, "duration", "", "Duration, e.g. 1h30m or seconds (required)")
	sessionAddCmd.Flags().StringVar(&sessionActivity, "activity", "", "Activity type")
	sessionAddCmd.Flags().StringVar(&sessionApp, "app", "", "App name (default \""+engine.ManualAppName+"\")")
	_ = sessionAddCmd.MarkFlagRequired("at")
	_ = sessionAddCmd.MarkFlagRequired("duration")

	sessionRetimeCmd.Flags().StringVar(&sessionAt, "at", "", "New start (default unchanged)")
	sessionRetimeCmd.Flags().StringVar(&sessionDuration, "duration", "", "New duration (default unchanged)")
	sessionRetimeCmd.Flags().StringVar(&sessionActivity, "activity", "", "New activity type, or none (default unchanged)")

	sessionSplitCmd.Flags().StringVar(&sessionFirstActivity, "first-activity", "", "Activity type of the first part")
	sessionSplitCmd.Flags().StringVar(&sessionSecondActivity, "second-activity", "", "Activity type of the second part")

	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionAddCmd)
	sessionCmd.AddCommand(sessionDurationCmd)
	sessionCmd.AddCommand(sessionActivityCmd)
	sessionCmd.AddCommand(sessionRetimeCmd)
	sessionCmd.AddCommand(sessionSplitCmd)
	sessionCmd.AddCommand(sessionRemoveCmd)
	rootCmd.AddCommand(sessionCmd)
}

// parseSeconds accepts a Go duration ("1h30m") or a bare number of seconds.
func parseSeconds(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q (use e.g. 45m, 1h30m or seconds)", s)
	}
	return int64(d / time.Second), nil
}

func newEditor(s store.Store) *engine.Editor {
	return engine.NewEditor(s, newLogger(ui.ErrOut), engine.DefaultConfig())
}

func sessionListRun(ctx context.Context) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	start, end, err := rangeFromFlags()
	if err != nil {
		return err
	}
	rng, err := timeline.ResolveRange(start, end)
	if err != nil {
		return err
	}

	sessions, err := s.GetSessionsInRange(ctx, rng.Start, rng.End)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		ui.Info("No sessions between %s and %s.", start, end)
		return nil
	}

	names := map[string]string{}
	table := ui.Table([]string{"ID", "Start", "Time", "Project", "Type", "Activity", "App"})
	for _, sess := range sessions {
		name, ok := names[sess.ProjectID]
		if !ok {
			if p, err := s.GetProject(ctx, sess.ProjectID); err == nil {
				name = p.Name
			}
			names[sess.ProjectID] = name
		}
		table.Append([]string{
			sess.ID,
			sess.Timestamp.String(),
			output.Duration(sess.Seconds),
			output.Cyan(name),
			output.SessionTypeColor(string(sess.Type)),
			activityLabel(sess.ActivityType),
			sess.AppName,
		})
	}
	table.Render()
	return nil
}

func sessionAddRun(ctx context.Context, project string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	p, err := resolveProject(ctx, s, project)
	if err != nil {
		return err
	}
	ts, err := wallclock.Parse(sessionAt)
	if err != nil {
		return err
	}
	seconds, err := parseSeconds(sessionDuration)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would add %s to %s at %s", output.Duration(seconds), p.Name, ts)
		return nil
	}

	sess, err := newEditor(s).CreateManual(ctx, engine.ManualSession{
		ProjectID:    p.ID,
		AppName:      sessionApp,
		Seconds:      seconds,
		ActivityType: models.StringPtr(sessionActivity),
		Timestamp:    ts,
	})
	if err != nil {
		return err
	}
	ui.Success("Added session %s: %s on %s", sess.ID, output.Duration(sess.Seconds), output.Cyan(p.Name))
	return nil
}

func sessionDurationRun(ctx context.Context, id, duration string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	seconds, err := parseSeconds(duration)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would set session %s to %s", id, output.Duration(seconds))
		return nil
	}

	sess, err := newEditor(s).UpdateDuration(ctx, id, seconds)
	if err != nil {
		return err
	}
	ui.Success("Session %s now %s (%s - %s)", sess.ID, output.Duration(sess.Seconds), sess.Timestamp, sess.End())
	return nil
}

func sessionActivityRun(ctx context.Context, id, activity string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would set session %s activity to %s", id, activity)
		return nil
	}

	sess, err := newEditor(s).UpdateActivityType(ctx, id, activityFlag(activity))
	if err != nil {
		return err
	}
	ui.Success("Session %s activity: %s", sess.ID, activityLabel(sess.ActivityType))
	return nil
}

func sessionRetimeRun(ctx context.Context, id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	cur, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}

	ts, seconds, activity := cur.Timestamp, cur.Seconds, cur.ActivityType
	if sessionAt != "" {
		if ts, err = wallclock.Parse(sessionAt); err != nil {
			return err
		}
	}
	if sessionDuration != "" {
		if seconds, err = parseSeconds(sessionDuration); err != nil {
			return err
		}
	}
	if sessionActivity != "" {
		activity = activityFlag(sessionActivity)
	}

	if dryRun {
		ui.DryRunMsg("Would move session %s to %s for %s", id, ts, output.Duration(seconds))
		return nil
	}

	sess, err := newEditor(s).Retime(ctx, id, ts, seconds, activity)
	if err != nil {
		return err
	}
	ui.Success("Session %s: %s - %s (%s)", sess.ID, sess.Timestamp, sess.End(), output.Duration(sess.Seconds))
	return nil
}

func sessionSplitRun(ctx context.Context, id, first string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	firstSeconds, err := parseSeconds(first)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would split session %s after %s", id, output.Duration(firstSeconds))
		return nil
	}

	res, err := newEditor(s).Split(ctx, id, firstSeconds,
		models.StringPtr(sessionFirstActivity), models.StringPtr(sessionSecondActivity))
	if err != nil {
		return err
	}
	ui.Success("Split session %s", id)
	for _, part := range []*models.Session{res.First, res.Second} {
		fmt.Fprintf(ui.Out, "  %s  %s - %s  %s  %s\n", part.ID, part.Timestamp, part.End(),
			output.Duration(part.Seconds), activityLabel(part.ActivityType))
	}
	return nil
}

func sessionRemoveRun(ctx context.Context, id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would delete session: %s", id)
		return nil
	}

	if err := newEditor(s).Delete(ctx, id); err != nil {
		return err
	}
	ui.Success("Deleted session: %s", id)
	return nil
}
