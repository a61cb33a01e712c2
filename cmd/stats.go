package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/worktime/internal/engine"
	"github.com/joescharf/worktime/internal/output"
	"github.com/joescharf/worktime/internal/timeline"
)

var (
	statsDate  string
	statsLimit int
	statsJSON  bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show time tracked today, this week and this month",
	Long: `Show total time for the day, its Monday to Sunday week and its calendar
month, with the time per app and the most used apps of the day.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return statsRun(cmd.Context())
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsDate, "date", "", "Anchor day YYYY-MM-DD (default today)")
	statsCmd.Flags().IntVar(&statsLimit, "limit", timeline.DefaultTopApps, "Number of top apps to list")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Print the stats as JSON")
	rootCmd.AddCommand(statsCmd)
}

func statsRun(ctx context.Context) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	anchor, err := timeline.ParseAnchor(statsDate)
	if err != nil {
		return err
	}

	st, err := timeline.NewService(s, engine.DefaultConfig()).Stats(ctx, anchor, statsLimit)
	if err != nil {
		return err
	}

	if statsJSON {
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	table := ui.Table([]string{"Period", "From", "To", "Time", "Sessions"})
	for _, p := range []struct {
		label  string
		period timeline.Period
	}{
		{"Today", st.Today},
		{"Week", st.Week},
		{"Month", st.Month},
	} {
		table.Append([]string{
			p.label,
			p.period.Range.StartDate,
			p.period.Range.EndDate,
			output.Green(output.Duration(p.period.TotalSeconds)),
			fmt.Sprintf("%d", p.period.SessionCount),
		})
	}
	table.Render()

	if len(st.TopApps) == 0 {
		ui.Info("No app usage recorded on %s.", st.Date)
		return nil
	}
	fmt.Fprintln(ui.Out)
	rollupTable("Top apps "+st.Date, st.TopApps)
	return nil
}
