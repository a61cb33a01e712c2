package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/worktime/internal/models"
	"github.com/joescharf/worktime/internal/output"
	"github.com/joescharf/worktime/internal/timeline"
	"github.com/joescharf/worktime/internal/wallclock"
)

var noteAt string

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Attach timestamped notes to projects",
}

var noteAddCmd = &cobra.Command{
	Use:   "add <project> <text...>",
	Short: "Add a note",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return noteAddRun(cmd.Context(), args[0], strings.Join(args[1:], " "))
	},
}

var noteListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List notes in a date range (default today)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return noteListRun(cmd.Context())
	},
}

var noteRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a note",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return noteRemoveRun(cmd.Context(), args[0])
	},
}

func init() {
	noteAddCmd.Flags().StringVar(&noteAt, "at", "", "Timestamp, e.g. \"2025-01-15 10:30\" (default now)")
	addRangeFlags(noteListCmd)

	noteCmd.AddCommand(noteAddCmd)
	noteCmd.AddCommand(noteListCmd)
	noteCmd.AddCommand(noteRemoveCmd)
	rootCmd.AddCommand(noteCmd)
}

func noteAddRun(ctx context.Context, project, text string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	p, err := resolveProject(ctx, s, project)
	if err != nil {
		return err
	}

	ts := wallclock.Now()
	if noteAt != "" {
		if ts, err = wallclock.Parse(noteAt); err != nil {
			return err
		}
	}

	n := &models.Note{ProjectID: p.ID, Text: text, Timestamp: ts}
	if dryRun {
		ui.DryRunMsg("Would add note to %s at %s", p.Name, ts)
		return nil
	}
	if err := s.CreateNote(ctx, n); err != nil {
		return fmt.Errorf("add note: %w", err)
	}
	ui.Success("Added note to %s at %s", output.Cyan(p.Name), ts)
	return nil
}

func noteListRun(ctx context.Context) error {
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

	notes, err := s.ListNotesInRange(ctx, rng.Start, rng.End)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		ui.Info("No notes between %s and %s.", start, end)
		return nil
	}

	names := map[string]string{}
	table := ui.Table([]string{"ID", "When", "Project", "Note"})
	for _, n := range notes {
		name, ok := names[n.ProjectID]
		if !ok {
			if p, err := s.GetProject(ctx, n.ProjectID); err == nil {
				name = p.Name
			}
			names[n.ProjectID] = name
		}
		table.Append([]string{n.ID, n.Timestamp.String(), output.Cyan(name), n.Text})
	}
	table.Render()
	return nil
}

func noteRemoveRun(ctx context.Context, id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	if dryRun {
		ui.DryRunMsg("Would remove note: %s", id)
		return nil
	}
	if err := s.DeleteNote(ctx, id); err != nil {
		return fmt.Errorf("remove note: %w", err)
	}
	ui.Success("Removed note: %s", id)
	return nil
}
