package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/tally/internal/snapshot"
	"github.com/MrSnakeDoc/tally/internal/version"
)

// errUnhealthy makes `tallyctl health` exit non-zero for scripts.
var errUnhealthy = errors.New("monitoring API is not healthy")

func (c *ctl) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the monitoring API health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.console.RefreshHealth(cmd.Context()); err != nil {
				return fmt.Errorf("health check failed: %s", describe(err))
			}
			h := c.console.View().Health
			if h == nil {
				return errors.New("health check returned no status")
			}
			c.render(cmd, h, healthRowOf(*h))
			if !h.IsHealthy() {
				return errUnhealthy
			}
			return nil
		},
	}
}

func (c *ctl) debugCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "debug",
		Short: "Show the monitoring API debug dumps (inspector profile)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.console.SetDebug(true); err != nil {
				return err
			}
			if err := c.refresh(cmd.Context(), snapshot.Debug); err != nil {
				return err
			}
			d, err := c.console.Debug()
			if err != nil {
				return err
			}
			c.render(cmd, d, debugSummaryOf(d))
			return nil
		},
	}
}

func (c *ctl) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the tallyctl version",
		Args:  cobra.NoArgs,
		// No console needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String("tallyctl"))
		},
	}
}
