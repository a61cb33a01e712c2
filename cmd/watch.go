package cmd

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/joescharf/worktime/internal/tui"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live view of tracking status and today's timeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := apiClient()
		if err := c.Health(cmd.Context()); err != nil {
			return daemonErr(err)
		}
		p := tea.NewProgram(tui.New(c, watchInterval), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		_, err := p.Run()
		return err
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Second, "Refresh interval")
	rootCmd.AddCommand(watchCmd)
}
