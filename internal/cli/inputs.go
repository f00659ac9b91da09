package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/MrSnakeDoc/tally/internal/console"
	"github.com/MrSnakeDoc/tally/internal/domain"
	"github.com/MrSnakeDoc/tally/internal/snapshot"
	"github.com/MrSnakeDoc/tally/internal/utils"
)

func (c *ctl) inputsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inputs",
		Aliases: []string{"input"},
		Short:   "Manage probe inputs",
		Long:    "List, inspect, create, update and delete the stream inputs read by the probes.",
	}
	cmd.AddCommand(
		c.inputsListCmd(),
		c.inputsGetCmd(),
		c.inputsCreateCmd(),
		c.inputsUpdateCmd(),
		c.inputsDeleteCmd(),
		c.inputsSnapshotCmd(),
	)
	return cmd
}

func (c *ctl) inputsListCmd() *cobra.Command {
	var q console.InputQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List probe inputs, ten per page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.refresh(cmd.Context(), snapshot.Inputs); err != nil {
				return err
			}
			page, err := c.console.Inputs(q)
			if err != nil {
				return err
			}
			c.render(cmd, page, inputRows(page.Items))
			if c.isTable() {
				fmt.Fprintf(cmd.OutOrStdout(), "\npage %d/%d, %d inputs\n", page.Page, page.TotalPages, page.Total)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&q.Search, "query", "q", "", "keep inputs whose name, URL, type, id, channel or protocol contains this text")
	cmd.Flags().StringVar(&q.Sort, "sort", "", "sort column: id, name, type, bitrate")
	cmd.Flags().BoolVar(&q.Desc, "desc", false, "sort descending")
	cmd.Flags().IntVar(&q.Page, "page", 1, "page to show")
	return cmd
}

func (c *ctl) inputsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <input-id>",
		Short: "Show one probe input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("input-id", args[0])
			if err != nil {
				return err
			}
			in, err := c.console.Input(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to get input %d: %s", id, describe(err))
			}
			c.render(cmd, in, inputDetailOf(in))
			return nil
		},
	}
}

// inputFlags are the form fields settable from the command line.
type inputFlags struct {
	name, url, inputType, protocol string
	port, channelID, probeID       string
	bitrate                        string
	primary, enabled               bool
}

func (f *inputFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "input name")
	fs.StringVar(&f.url, "url", "", "stream URL: udp://ip:port, http(s)://, rtmp:// or srt://")
	fs.StringVar(&f.inputType, "type", "", "input type (default "+domain.DefaultInputType+")")
	fs.StringVar(&f.protocol, "protocol", "", "transport protocol (default: taken from the URL)")
	fs.StringVar(&f.port, "port", "", "port (default: taken from the URL)")
	fs.StringVar(&f.channelID, "channel-id", "", "channel the input feeds")
	fs.StringVar(&f.probeID, "probe-id", "", "probe reading the input")
	fs.StringVar(&f.bitrate, "bitrate", "", "expected bitrate in Mbps")
	fs.BoolVar(&f.primary, "primary", true, "input is the channel's primary feed")
	fs.BoolVar(&f.enabled, "enabled", true, "input is polled by the probe")
}

// values returns the form values of the flags the operator set. Protocol
// and port default to the parts of a new URL.
func (f *inputFlags) values(fs *pflag.FlagSet) (map[string]string, error) {
	v := make(map[string]string)
	set := func(flag, field, value string) {
		if fs.Changed(flag) {
			v[field] = value
		}
	}
	set("name", console.FieldName, f.name)
	set("url", console.FieldURL, f.url)
	set("type", console.FieldType, f.inputType)
	set("protocol", console.FieldProtocol, f.protocol)
	set("port", console.FieldPort, f.port)
	set("channel-id", console.FieldChannelID, f.channelID)
	set("probe-id", console.FieldProbeID, f.probeID)
	set("bitrate", console.FieldBitrate, f.bitrate)
	set("primary", console.FieldIsPrimary, strconv.FormatBool(f.primary))
	set("enabled", console.FieldEnabled, strconv.FormatBool(f.enabled))

	if fs.Changed("url") {
		if !domain.IsValidInputURL(f.url) {
			return nil, fmt.Errorf("invalid --url %q: want udp://ip:port, http(s)://, rtmp:// or srt://", f.url)
		}
		if u, ok := domain.ParseInputURL(f.url); ok {
			if !fs.Changed("protocol") {
				v[console.FieldProtocol] = u.Protocol
			}
			if !fs.Changed("port") && u.Port != nil {
				v[console.FieldPort] = strconv.Itoa(*u.Port)
			}
		}
	}
	return v, nil
}

func (c *ctl) inputsCreateCmd() *cobra.Command {
	var f inputFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a probe input",
		Example: `  tallyctl inputs create --name "News HD" --url udp://239.1.1.1:5000 --channel-id 12
  tallyctl inputs create --name backup --url srt://origin:9000 --primary=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values, err := f.values(cmd.Flags())
			if err != nil {
				return err
			}
			if err := c.console.OpenCreateForm(); err != nil {
				return err
			}
			id, err := c.submit(cmd.Context(), values)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (input %d)\n", c.notice("Input added successfully"), id)
			return nil
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func (c *ctl) inputsUpdateCmd() *cobra.Command {
	var f inputFlags
	cmd := &cobra.Command{
		Use:   "update <input-id>",
		Short: "Update a probe input; fields not given keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("input-id", args[0])
			if err != nil {
				return err
			}
			values, err := f.values(cmd.Flags())
			if err != nil {
				return err
			}
			if err := c.console.OpenEditForm(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to load input %d: %s", id, describe(err))
			}
			if _, err := c.submit(cmd.Context(), values); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (input %d)\n", c.notice("Input updated successfully"), id)
			return nil
		},
	}
	f.register(cmd.Flags())
	return cmd
}

// submit fills the open form and sends it. The form is cancelled on any
// failure; a one-shot command has no one to fix the draft.
func (c *ctl) submit(ctx context.Context, values map[string]string) (int, error) {
	defer c.console.CancelForm()

	if err := c.console.UpdateForm(values); err != nil {
		return 0, err
	}
	id, err := c.console.SubmitForm(ctx)
	if err != nil {
		if errors.Is(err, console.ErrMissingField) || errors.Is(err, console.ErrInvalidField) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to save input: %s", describe(err))
	}
	return id, nil
}

func (c *ctl) inputsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <input-id>",
		Short: "Delete a probe input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("input-id", args[0])
			if err != nil {
				return err
			}

			var confirm console.Confirmer = console.Confirmed(true)
			if !c.yes {
				confirm = promptConfirm(cmd.InOrStdin(), cmd.OutOrStdout())
			}

			err = c.console.DeleteInput(cmd.Context(), id, confirm)
			if errors.Is(err, console.ErrDeleteNotConfirmed) {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to delete input %d: %s", id, describe(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.notice("Input deleted"))
			return nil
		},
	}
}

// promptConfirm asks on out and reads the answer from in. Only y or yes
// confirms.
func promptConfirm(in io.Reader, out io.Writer) console.Confirmer {
	return console.ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
		fmt.Fprintf(out, "%s [y/N]: ", prompt)
		scanner := bufio.NewScanner(in)
		scanner.Scan()
		if err := scanner.Err(); err != nil {
			return false, err
		}
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		return answer == "y" || answer == "yes", nil
	})
}

func (c *ctl) inputsSnapshotCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "snapshot <input-id>",
		Short: "Save the latest thumbnail of an input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("input-id", args[0])
			if err != nil {
				return err
			}
			thumb, err := c.console.Snapshot(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to fetch snapshot of input %d: %s", id, describe(err))
			}

			if file == "-" {
				_, err := cmd.OutOrStdout().Write(thumb.Data)
				return err
			}
			if file == "" {
				file = fmt.Sprintf("input-%d%s", id, imageExt(thumb.ContentType))
			}
			if err := c.writeFile(file, thumb.Data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d bytes (%s) to %s\n", len(thumb.Data), thumb.ContentType, file)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", `output file, "-" for stdout (default input-<id>.<ext>)`)
	return cmd
}

func (c *ctl) writeFile(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer utils.MustClose(f, c.log)

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Sync()
}

func imageExt(contentType string) string {
	switch {
	case strings.Contains(contentType, "png"):
		return ".png"
	case strings.Contains(contentType, "jpeg"), strings.Contains(contentType, "jpg"):
		return ".jpg"
	case strings.Contains(contentType, "webp"):
		return ".webp"
	default:
		return ".bin"
	}
}
