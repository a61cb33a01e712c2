package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/worktime/internal/models"
	"github.com/joescharf/worktime/internal/output"
	"github.com/joescharf/worktime/internal/store"
)

var (
	activityColor   float64
	activityPattern string
)

var activityCmd = &cobra.Command{
	Use:     "activity",
	Aliases: []string{"act"},
	Short:   "Manage activity types",
}

var activityListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List activity types",
	RunE: func(cmd *cobra.Command, args []string) error {
		return activityListRun(cmd.Context())
	},
}

var activityAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add an activity type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return activityAddRun(cmd.Context(), args[0])
	},
}

var activityRenameCmd = &cobra.Command{
	Use:   "rename <name> <new-name>",
	Short: "Rename an activity type and relabel its sessions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return activityRenameRun(cmd.Context(), args[0], args[1])
	},
}

var activityRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove an activity type; its sessions keep their time",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return activityRemoveRun(cmd.Context(), args[0])
	},
}

func init() {
	activityAddCmd.Flags().Float64Var(&activityColor, "color", 0, "Color variant in [-1.0, 1.0]")
	activityAddCmd.Flags().StringVar(&activityPattern, "pattern", string(models.PatternSolid), "Fill pattern (solid, stripes, dots)")

	activityCmd.AddCommand(activityListCmd)
	activityCmd.AddCommand(activityAddCmd)
	activityCmd.AddCommand(activityRenameCmd)
	activityCmd.AddCommand(activityRemoveCmd)
	rootCmd.AddCommand(activityCmd)
}

// findActivityType matches an activity type name case-insensitively.
func findActivityType(ctx context.Context, s store.Store, name string) (*models.ActivityType, error) {
	types, err := s.ListActivityTypes(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range types {
		if strings.EqualFold(a.Name, name) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("activity type not found: %s", name)
}

func activityListRun(ctx context.Context) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	types, err := s.ListActivityTypes(ctx)
	if err != nil {
		return err
	}
	if len(types) == 0 {
		ui.Info("No activity types.")
		return nil
	}

	table := ui.Table([]string{"Name", "Color", "Pattern", "Order"})
	for _, a := range types {
		table.Append([]string{
			output.Cyan(a.Name),
			fmt.Sprintf("%+.1f", a.ColorVariant),
			string(a.Pattern),
			fmt.Sprintf("%d", a.DisplayOrder),
		})
	}
	table.Render()
	return nil
}

func activityAddRun(ctx context.Context, name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	a := &models.ActivityType{
		Name:         strings.TrimSpace(name),
		ColorVariant: activityColor,
		Pattern:      models.Pattern(activityPattern),
	}
	if !a.Pattern.Valid() {
		return fmt.Errorf("invalid pattern %q (use solid, stripes or dots)", activityPattern)
	}
	if a.ColorVariant < -1 || a.ColorVariant > 1 {
		return fmt.Errorf("color must be within [-1.0, 1.0]")
	}

	if dryRun {
		ui.DryRunMsg("Would add activity type: %s", a.Name)
		return nil
	}

	if err := s.CreateActivityType(ctx, a); err != nil {
		return fmt.Errorf("add activity type: %w", err)
	}
	ui.Success("Added activity type: %s", output.Cyan(a.Name))
	return nil
}

func activityRenameRun(ctx context.Context, name, newName string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	a, err := findActivityType(ctx, s, name)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would rename activity type %s to %s", a.Name, newName)
		return nil
	}

	old := a.Name
	a.Name = strings.TrimSpace(newName)
	if err := s.UpdateActivityType(ctx, a); err != nil {
		return fmt.Errorf("rename activity type: %w", err)
	}
	ui.Success("Renamed activity type %s to %s", old, output.Cyan(a.Name))
	return nil
}

func activityRemoveRun(ctx context.Context, name string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	a, err := findActivityType(ctx, s, name)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would remove activity type: %s", a.Name)
		return nil
	}

	if err := s.DeleteActivityType(ctx, a.ID); err != nil {
		return fmt.Errorf("remove activity type: %w", err)
	}
	ui.Success("Removed activity type: %s", a.Name)
	return nil
}
