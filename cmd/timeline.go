package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/worktime/internal/engine"
	"github.com/joescharf/worktime/internal/output"
	"github.com/joescharf/worktime/internal/timeline"
	"github.com/joescharf/worktime/internal/wallclock"
)

var (
	rangeDate  string
	rangeStart string
	rangeEnd   string
	rangeWeek  bool
	rangeMonth bool

	timelineJSON bool
)

var timelineCmd = &cobra.Command{
	Use:     "timeline [start] [end]",
	Aliases: []string{"tl", "report"},
	Short:   "Show aggregated time per project and activity",
	Long: `Show the timeline for a date range: per-project lanes of merged
segments, time markers, and totals per project and activity type.

The range defaults to today. Use --date, --start/--end, --week or --month,
or pass the start and end dates as arguments.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			rangeStart = args[0]
		}
		if len(args) > 1 {
			rangeEnd = args[1]
		}
		return timelineRun(cmd.Context())
	},
}

func init() {
	addRangeFlags(timelineCmd)
	timelineCmd.Flags().BoolVar(&timelineJSON, "json", false, "Print the timeline as JSON")
	rootCmd.AddCommand(timelineCmd)
}

func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&rangeDate, "date", "", "Single day YYYY-MM-DD (anchor for --week/--month)")
	cmd.Flags().StringVar(&rangeStart, "start", "", "Start date YYYY-MM-DD")
	cmd.Flags().StringVar(&rangeEnd, "end", "", "End date YYYY-MM-DD (default start)")
	cmd.Flags().BoolVar(&rangeWeek, "week", false, "Monday to Sunday of the anchor week")
	cmd.Flags().BoolVar(&rangeMonth, "month", false, "Whole calendar month of the anchor day")
}

// rangeFromFlags turns the range flags into inclusive start and end dates.
func rangeFromFlags() (string, string, error) {
	anchor := wallclock.Now().StartOfDay()
	if rangeDate != "" {
		d, err := wallclock.ParseDate(rangeDate)
		if err != nil {
			return "", "", err
		}
		anchor = d
	}

	switch {
	case rangeWeek:
		offset := (int(anchor.Time().Weekday()) + 6) % 7
		monday := anchor.AddDays(-offset)
		return monday.FormatDate(), monday.AddDays(6).FormatDate(), nil
	case rangeMonth:
		t := anchor.Time()
		first := wallclock.Date(t.Year(), t.Month(), 1, 0, 0, 0)
		last := wallclock.Date(t.Year(), t.Month()+1, 1, 0, 0, 0).AddDays(-1)
		return first.FormatDate(), last.FormatDate(), nil
	case rangeStart != "":
		end := rangeEnd
		if end == "" {
			end = rangeStart
		}
		return rangeStart, end, nil
	}
	return anchor.FormatDate(), anchor.FormatDate(), nil
}

func timelineRun(ctx context.Context) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	start, end, err := rangeFromFlags()
	if err != nil {
		return err
	}

	tl, err := timeline.NewService(s, engine.DefaultConfig()).GetTimeline(ctx, start, end)
	if err != nil {
		return err
	}

	if timelineJSON {
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(tl)
	}
	printTimeline(tl)
	return nil
}

func printTimeline(tl *timeline.Timeline) {
	r := tl.Range
	if r.StartDate == r.EndDate {
		fmt.Fprintf(ui.Out, "%s\n", output.Cyan(r.StartDate))
	} else {
		fmt.Fprintf(ui.Out, "%s .. %s (%d days)\n", output.Cyan(r.StartDate), output.Cyan(r.EndDate), r.Days())
	}

	if tl.Empty {
		ui.Info("No sessions in this range.")
		return
	}
	fmt.Fprintf(ui.Out, "Total: %s\n\n", output.Green(output.Duration(tl.TotalSeconds)))

	table := ui.Table([]string{"Project", "Start", "End", "Time", "Type", "Activity"})
	for _, lane := range tl.Lanes {
		for _, seg := range lane.Segments {
			table.Append([]string{
				output.Cyan(lane.ProjectName),
				segmentTime(seg.Start, r),
				segmentTime(seg.End, r),
				output.Duration(seg.Seconds),
				output.SessionTypeColor(string(seg.SessionType)),
				activityLabel(seg.ActivityType),
			})
		}
	}
	table.Render()

	fmt.Fprintln(ui.Out)
	rollupTable("Project", tl.ByProject)
	fmt.Fprintln(ui.Out)
	rollupTable("Activity", tl.ByActivity)
	if len(tl.ByApp) > 0 {
		fmt.Fprintln(ui.Out)
		rollupTable("App", tl.ByApp)
	}

	if len(tl.Notes) > 0 {
		fmt.Fprintln(ui.Out)
		for _, n := range tl.Notes {
			fmt.Fprintf(ui.Out, "  %s  %s: %s\n", segmentTime(n.Timestamp, r), output.Cyan(n.ProjectName), n.Text)
		}
	}
}

// segmentTime prints HH:MM for single-day ranges and a full timestamp otherwise.
func segmentTime(i wallclock.Instant, r timeline.Range) string {
	if r.StartDate == r.EndDate {
		return i.Time().Format("15:04")
	}
	return i.Time().Format("Mon 02 Jan 15:04")
}

func rollupTable(heading string, rollups []timeline.Rollup) {
	table := ui.Table([]string{heading, "Time", "Share"})
	for _, r := range rollups {
		table.Append([]string{r.Name, output.Duration(r.Seconds), output.Percent(r.Percentage)})
	}
	table.Render()
}

func activityLabel(a *string) string {
	if a == nil {
		return "-"
	}
	return *a
}
