package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/tally/internal/scheduler"
)

func (c *ctl) metricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics <input-id>",
		Short: "Show the stream metrics of an input",
		Long: `Fetch the metrics panel of one input: bitrate history, TR 101 290
counters, status, MDI, QoE and codec. Profiles without deep metrics only
show the bitrate and status sections. Sections that fail to load are
reported on stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("input-id", args[0])
			if err != nil {
				return err
			}

			panel, errs := c.console.LoadMetrics(cmd.Context(), id)
			if len(errs) == len(scheduler.Sections) {
				return fmt.Errorf("failed to load metrics of input %d: %s", id, describe(errs[scheduler.SectionStatus]))
			}
			names := make([]string, 0, len(errs))
			for name := range errs {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", name, describe(errs[name]))
			}

			c.render(cmd, panel, metricsSummaryOf(panel))
			return nil
		},
	}
}
