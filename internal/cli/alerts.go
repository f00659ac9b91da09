package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/tally/internal/domain"
	"github.com/MrSnakeDoc/tally/internal/snapshot"
)

func (c *ctl) alertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List, acknowledge and resolve active alerts",
	}

	var filter string
	list := &cobra.Command{
		Use:   "list",
		Short: "List active alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := domain.ParseAlertFilter(filter)
			if err != nil {
				return err
			}
			if err := c.refresh(cmd.Context(), snapshot.Alerts); err != nil {
				return err
			}
			view := c.console.Alerts(f)
			c.render(cmd, view, alertRows(view.Alerts))
			if c.isTable() {
				n := view.Counts
				fmt.Fprintf(cmd.OutOrStdout(), "\nall: %d  critical: %d  major: %d  minor: %d  unack: %d\n",
					n.All, n.Critical, n.Major, n.Minor, n.Unacknowledged)
			}
			return nil
		},
	}
	list.Flags().StringVar(&filter, "filter", "all", "alert tab: all, critical, major, minor, unack")

	ack := &cobra.Command{
		Use:   "ack <alert-id>",
		Short: "Acknowledge an alert as the configured operator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.alertAction(cmd, args[0], "acknowledge", c.console.AcknowledgeAlert)
		},
	}

	resolve := &cobra.Command{
		Use:   "resolve <alert-id>",
		Short: "Resolve an alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.alertAction(cmd, args[0], "resolve", c.console.ResolveAlert)
		},
	}

	cmd.AddCommand(list, ack, resolve)
	return cmd
}

func (c *ctl) alertAction(cmd *cobra.Command, rawID, verb string, do func(context.Context, int) error) error {
	id, err := parseID("alert-id", rawID)
	if err != nil {
		return err
	}
	if err := do(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to %s alert %d: %s", verb, id, describe(err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), c.notice(fmt.Sprintf("Alert %d: %s done.", id, verb)))
	return nil
}
