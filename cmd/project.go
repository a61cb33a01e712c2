package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joescharf/worktime/internal/engine"
	"github.com/joescharf/worktime/internal/models"
	"github.com/joescharf/worktime/internal/output"
	"github.com/joescharf/worktime/internal/timeline"
)

var (
	projectDescription string
	projectStatus      string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
	Long:  "Add, archive, reactivate, remove, list, and show projects.",
}

var projectAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectAddRun(cmd.Context(), args[0])
	},
}

var projectRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a project without sessions",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectRemoveRun(cmd.Context(), args[0])
	},
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectListRun(cmd.Context())
	},
}

var projectShowCmd = &cobra.Command{
	Use:     "show <name>",
	Aliases: []string{"report"},
	Short:   "Show a project's time report",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectShowRun(cmd.Context(), args[0])
	},
}

var projectArchiveCmd = &cobra.Command{
	Use:     "archive <name>",
	Aliases: []string{"close"},
	Short:   "Archive a project and print its closing report",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectArchiveRun(cmd.Context(), args[0])
	},
}

var projectReactivateCmd = &cobra.Command{
	Use:   "reactivate <name>",
	Short: "Reactivate an archived project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return projectReactivateRun(cmd.Context(), args[0])
	},
}

func init() {
	projectAddCmd.Flags().StringVarP(&projectDescription, "description", "d", "", "Project description")
	projectListCmd.Flags().StringVar(&projectStatus, "status", "", "Filter by status (active, archived)")

	projectCmd.AddCommand(projectAddCmd)
	projectCmd.AddCommand(projectRemoveCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectArchiveCmd)
	projectCmd.AddCommand(projectReactivateCmd)
	rootCmd.AddCommand(projectCmd)
}

func projectAddRun(ctx context.Context, name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	p := &models.Project{Name: name, Description: projectDescription}

	if dryRun {
		ui.DryRunMsg("Would add project: %s", name)
		return nil
	}

	if err := s.CreateProject(ctx, p); err != nil {
		return fmt.Errorf("add project: %w", err)
	}

	ui.Success("Added project: %s", output.Cyan(name))
	ui.VerboseLog("ID: %s", p.ID)
	return nil
}

func projectRemoveRun(ctx context.Context, name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	p, err := resolveProject(ctx, s, name)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would remove project: %s", p.Name)
		return nil
	}

	if err := s.DeleteProject(ctx, p.ID); err != nil {
		return fmt.Errorf("remove project: %w (archive it instead)", err)
	}

	ui.Success("Removed project: %s", output.Cyan(p.Name))
	return nil
}

func projectListRun(ctx context.Context) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	projects, err := s.ListProjects(ctx, models.ProjectStatus(projectStatus))
	if err != nil {
		return err
	}

	if len(projects) == 0 {
		ui.Info("No projects. Use 'worktime project add <name>' to get started.")
		return nil
	}

	table := ui.Table([]string{"Name", "Status", "Tracked", "Description"})
	for _, p := range projects {
		sessions, _ := s.ListProjectSessions(ctx, p.ID)
		var total int64
		for _, sess := range sessions {
			total += sess.Seconds
		}
		table.Append([]string{
			output.Cyan(p.Name),
			output.StatusColor(string(p.Status)),
			output.Duration(total),
			p.Description,
		})
	}
	table.Render()
	return nil
}

func projectShowRun(ctx context.Context, name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	p, err := resolveProject(ctx, s, name)
	if err != nil {
		return err
	}

	rep, err := timeline.NewService(s, engine.DefaultConfig()).ProjectReport(ctx, p.ID)
	if err != nil {
		return err
	}
	printReport(rep)
	return nil
}

func projectArchiveRun(ctx context.Context, name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	p, err := resolveProject(ctx, s, name)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would archive project: %s", p.Name)
		return nil
	}

	if err := s.ArchiveProject(ctx, p.ID); err != nil {
		return fmt.Errorf("archive project: %w", err)
	}
	ui.Success("Archived project: %s", output.Cyan(p.Name))
	fmt.Fprintln(ui.Out)

	rep, err := timeline.NewService(s, engine.DefaultConfig()).ProjectReport(ctx, p.ID)
	if err != nil {
		return err
	}
	printReport(rep)
	return nil
}

func projectReactivateRun(ctx context.Context, name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	p, err := resolveProject(ctx, s, name)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would reactivate project: %s", p.Name)
		return nil
	}

	if err := s.ReactivateProject(ctx, p.ID); err != nil {
		return fmt.Errorf("reactivate project: %w", err)
	}
	ui.Success("Reactivated project: %s", output.Cyan(p.Name))
	return nil
}

func printReport(rep *timeline.Report) {
	p := rep.Project
	fmt.Fprintf(ui.Out, "%s\n", output.Cyan(p.Name))
	if p.Description != "" {
		fmt.Fprintf(ui.Out, "  Desc:       %s\n", p.Description)
	}
	fmt.Fprintf(ui.Out, "  Status:     %s\n", output.StatusColor(string(p.Status)))
	fmt.Fprintf(ui.Out, "  Created:    %s\n", p.CreatedAt.Local().Format(time.DateOnly))
	if p.ClosedAt != nil {
		fmt.Fprintf(ui.Out, "  Closed:     %s\n", p.ClosedAt.Local().Format(time.DateOnly))
	}
	fmt.Fprintf(ui.Out, "  Total:      %s in %d sessions\n", output.Green(output.Duration(rep.TotalSeconds)), rep.SessionCount)
	if rep.FirstSession != nil {
		fmt.Fprintf(ui.Out, "  First:      %s\n", rep.FirstSession)
	}
	if rep.LastActivity != nil {
		fmt.Fprintf(ui.Out, "  Last:       %s\n", rep.LastActivity)
	}

	if len(rep.ByActivity) > 0 {
		fmt.Fprintln(ui.Out)
		table := ui.Table([]string{"Activity", "Time", "Share"})
		for _, r := range rep.ByActivity {
			table.Append([]string{r.Name, output.Duration(r.Seconds), output.Percent(r.Percentage)})
		}
		table.Render()
	}
	if len(rep.BySessionType) > 0 {
		fmt.Fprintln(ui.Out)
		table := ui.Table([]string{"Type", "Time", "Share"})
		for _, r := range rep.BySessionType {
			table.Append([]string{output.SessionTypeColor(r.Name), output.Duration(r.Seconds), output.Percent(r.Percentage)})
		}
		table.Render()
	}
}
