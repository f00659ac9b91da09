package cli

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/tally/internal/tui"
)

func (c *ctl) dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Open the live terminal console",
		Long: `Open the interactive terminal console. Channels, alerts and inputs are
refreshed in the background at the configured intervals; press r to
refresh now. Logs go to --log-file since the console owns the screen.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c.console.Start(ctx)

			p := tea.NewProgram(tui.New(ctx, c.console, c.cfg.APIBase),
				tea.WithAltScreen(),
				tea.WithContext(ctx))
			if _, err := p.Run(); err != nil {
				if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("dashboard error: %w", err)
			}
			return nil
		},
	}
}
