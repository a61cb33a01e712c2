package cmd

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joescharf/worktime/internal/output"
	"github.com/joescharf/worktime/internal/store"
)

var (
	eventsUnacked bool
	eventsLimit   int
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List tracking notifications (auto-stops, idle detections, recoveries)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return eventsListRun(cmd.Context())
	},
}

var eventsAckCmd = &cobra.Command{
	Use:   "ack <id>...",
	Short: "Acknowledge events",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return eventsAckRun(cmd.Context(), args)
	},
}

func init() {
	eventsCmd.Flags().BoolVarP(&eventsUnacked, "unacked", "u", false, "Only unacknowledged events")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 20, "Maximum number of events")

	eventsCmd.AddCommand(eventsAckCmd)
	rootCmd.AddCommand(eventsCmd)
}

func eventsListRun(ctx context.Context) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	events, err := s.ListEvents(ctx, store.EventFilter{UnackedOnly: eventsUnacked, Limit: eventsLimit})
	if err != nil {
		return err
	}
	if len(events) == 0 {
		ui.Info("No events.")
		return nil
	}

	table := ui.Table([]string{"ID", "When", "Kind", "Time", "Reason", "Acked"})
	for _, ev := range events {
		acked := output.Yellow("no")
		if ev.Acked {
			acked = "yes"
		}
		table.Append([]string{
			strconv.FormatInt(ev.ID, 10),
			ev.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			output.Cyan(string(ev.Kind)),
			output.Duration(ev.Seconds),
			ev.Reason,
			acked,
		})
	}
	table.Render()
	return nil
}

func eventsAckRun(ctx context.Context, ids []string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		if dryRun {
			ui.DryRunMsg("Would acknowledge event %d", id)
			continue
		}
		if err := s.AckEvent(ctx, id); err != nil {
			return err
		}
		ui.Success("Acknowledged event %d", id)
	}
	return nil
}
