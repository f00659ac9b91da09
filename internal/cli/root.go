// Package cli implements tallyctl, the operator command line of the
// monitoring console. Every command drives the same console controller as
// the daemon and the dashboard.
package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/tally/internal/app"
	"github.com/MrSnakeDoc/tally/internal/config"
	"github.com/MrSnakeDoc/tally/internal/console"
	"github.com/MrSnakeDoc/tally/internal/logger"
	"github.com/MrSnakeDoc/tally/internal/monitorapi"
	"github.com/MrSnakeDoc/tally/internal/snapshot"
)

// ctl holds the global flags and the state built in PersistentPreRunE.
type ctl struct {
	// Global flags
	serverURL    string
	operator     string
	outputFormat string
	profileName  string
	logFile      string
	yes          bool // --yes: skip confirmation prompts for destructive operations

	// Shared state set during PersistentPreRunE
	cfg       *config.ClientConfig
	log       logger.Logger
	console   *console.Controller
	formatter Formatter
}

func newCtl() *ctl {
	return &ctl{log: logger.NewNop()}
}

// rootCmd builds the command tree bound to c.
func (c *ctl) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tallyctl",
		Short: "tally operator CLI: channels, alerts, probe inputs and stream metrics",
		Long: `tallyctl is the operator-facing command line of the tally monitoring
console. It reads channels, alerts and probe inputs from the monitoring API,
acts on alerts, manages probe inputs and shows stream metrics. The
dashboard command opens the live terminal console.

Configuration comes from the TALLY_* environment (and an optional .env
file); global flags override it.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.PersistentFlags().StringVar(&c.serverURL, "server", "", "monitoring API base URL (overrides TALLY_API_BASE)")
	root.PersistentFlags().StringVar(&c.operator, "operator", "", "operator name recorded on acknowledgements (overrides TALLY_OPERATOR)")
	root.PersistentFlags().StringVarP(&c.outputFormat, "output", "o", FormatTable, "output format: table, json, yaml")
	root.PersistentFlags().BoolVar(&c.yes, "yes", false, "skip confirmation prompts for destructive operations")
	root.PersistentFlags().StringVar(&c.profileName, "profile", "", "console profile: basic, standard, inspector (overrides TALLY_PROFILE)")
	root.PersistentFlags().StringVar(&c.logFile, "log-file", "", "write JSON logs to this file")

	root.AddCommand(
		c.channelsCmd(),
		c.alertsCmd(),
		c.inputsCmd(),
		c.metricsCmd(),
		c.healthCmd(),
		c.debugCmd(),
		c.versionCmd(),
		c.dashboardCmd(),
	)
	return root
}

// setup loads the configuration, applies the flag overrides and builds the
// console.
func (c *ctl) setup(cmd *cobra.Command, _ []string) error {
	var err error
	if c.formatter, err = NewFormatter(c.outputFormat); err != nil {
		return err
	}

	c.cfg = config.LoadClient()
	if c.serverURL != "" {
		u, err := url.Parse(c.serverURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid --server %q: want an http(s) URL", c.serverURL)
		}
		c.cfg.APIBase = strings.TrimRight(c.serverURL, "/")
	}
	if c.operator != "" {
		c.cfg.Operator = c.operator
	}
	if c.profileName != "" {
		c.cfg.Profile = c.profileName
	}

	if c.logFile != "" {
		c.log = logger.NewFile(c.logFile, c.cfg.LogLevel)
	}
	c.log = c.log.With(logger.String("cmd", cmd.CommandPath()))

	c.console, _, err = app.NewConsole(c.cfg, c.log, console.Options{})
	if err != nil {
		return err
	}
	c.log.Debug("console ready",
		logger.String("api_base", c.cfg.APIBase),
		logger.String("profile", c.console.Profile().Name))
	return nil
}

// shutdown stops the console and flushes the log.
func (c *ctl) shutdown() {
	if c.console != nil {
		c.console.Stop()
	}
	_ = c.log.Sync()
}

// Execute runs tallyctl and exits non-zero on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	c := newCtl()
	err := c.rootCmd().ExecuteContext(ctx)
	c.shutdown()
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// render prints full in json / yaml, and table (when non-nil) in table
// output.
func (c *ctl) render(cmd *cobra.Command, full, table any) {
	data := full
	if _, ok := c.formatter.(*TableFormatter); ok && table != nil {
		data = table
	}
	fmt.Fprint(cmd.OutOrStdout(), c.formatter.Format(data))
}

func (c *ctl) isTable() bool {
	_, ok := c.formatter.(*TableFormatter)
	return ok
}

// refresh runs one refresh round and fails when a slice the command needs
// could not be fetched.
func (c *ctl) refresh(ctx context.Context, need ...snapshot.Slice) error {
	rep := c.console.Refresh(ctx)
	for _, s := range need {
		if err := rep.Failed[s]; err != nil {
			return fmt.Errorf("failed to fetch %s: %s", s, describe(err))
		}
	}
	return nil
}

// notice returns the latest console notification, the outcome of the
// action just run, or fallback when it already expired.
func (c *ctl) notice(fallback string) string {
	notes := c.console.Notifications()
	if len(notes) == 0 {
		return fallback
	}
	return notes[len(notes)-1].Message
}

func parseID(kind, raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q: want a positive integer", kind, raw)
	}
	return id, nil
}

// describe is the operator-facing text of err: the server message for an
// API answer, the error itself otherwise.
func describe(err error) string {
	if code := monitorapi.StatusCode(err); code != 0 {
		return fmt.Sprintf("%s (HTTP %d)", monitorapi.Message(err), code)
	}
	return err.Error()
}
