package cli

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/tally/internal/domain"
	"github.com/MrSnakeDoc/tally/internal/snapshot"
)

func (c *ctl) channelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "List monitored channels",
	}

	var tier, is4k string
	list := &cobra.Command{
		Use:   "list",
		Short: "List channels, optionally filtered by tier and 4K",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := domain.ParseChannelFilter(tier, is4k)
			if err != nil {
				return err
			}
			c.console.SetFilter(f)
			if err := c.refresh(cmd.Context(), snapshot.Channels); err != nil {
				return err
			}
			view := c.console.Channels()
			c.render(cmd, view, channelRows(view.Channels))
			return nil
		},
	}
	list.Flags().StringVar(&tier, "tier", "", "tier to show: 1, 2, 3 or all")
	list.Flags().StringVar(&is4k, "is-4k", "", "true or false to keep only (non-)4K channels")

	cmd.AddCommand(list)
	return cmd
}
