package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/h-mayorquin/nwb-lens/pkg/errors"
	"github.com/h-mayorquin/nwb-lens/pkg/export"
	"github.com/h-mayorquin/nwb-lens/pkg/inspect"
	"github.com/h-mayorquin/nwb-lens/pkg/session"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	output        string // output file path (stdout if empty)
	format        string // json, dot, or svg
	inspect       bool   // run the validator before exporting
	inspectorJSON string // merge a pre-existing validator report instead
}

// exportCommand creates the export command.
//
// When --inspect is given and validation fails, the export is still
// written without findings and the process exits with code 2 so
// scripted pipelines can tell "export ok, validation failed" from a
// hard failure.
func (c *CLI) exportCommand() *cobra.Command {
	opts := exportOpts{format: FormatJSON}

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export a file's structure as JSON, DOT, or SVG",
		Long: `Export extracts the complete object hierarchy of a data file and writes
it in a machine-readable format.

Examples:
  nwb-lens export session.nwb.json                          # JSON to stdout
  nwb-lens export session.nwb.json -o structure.json        # JSON to file
  nwb-lens export session.nwb.json --inspect -o out.json    # with validator findings
  nwb-lens export session.nwb.json --format svg -o tree.svg # Graphviz rendering
  nwb-lens export session.nwb.json --inspector-json report.json -o out.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: json, dot, or svg")
	cmd.Flags().BoolVar(&opts.inspect, "inspect", false, "run the validator and include findings")
	cmd.Flags().StringVar(&opts.inspectorJSON, "inspector-json", "", "merge findings from an existing validator report")

	return cmd
}

func (c *CLI) runExport(cmd *cobra.Command, path string, opts exportOpts) error {
	format := strings.ToLower(opts.format)
	switch format {
	case FormatJSON, FormatDOT, FormatSVG:
	default:
		return fmt.Errorf("unknown format: %s (available: json, dot, svg)", opts.format)
	}
	if opts.inspect && opts.inspectorJSON != "" {
		return fmt.Errorf("--inspect and --inspector-json are mutually exclusive")
	}

	ctx := cmd.Context()
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	mgr, err := c.newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer mgr.Close()

	p := newProgress(c.Logger)
	snap, err := mgr.OpenFile(ctx, path)
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Extracted %d objects", snap.Tree.Len()))

	var validationErr error
	switch {
	case opts.inspect:
		snap, validationErr = c.inspectSnapshot(cmd, mgr)
		if snap == nil {
			return validationErr
		}
	case opts.inspectorJSON != "":
		report, err := inspect.LoadReport(opts.inspectorJSON)
		if err != nil {
			return err
		}
		snap, err = mgr.ApplyReport(snap.Generation, report)
		if err != nil {
			return err
		}
	}

	if err := c.writeExport(cmd, snap, format, opts.output); err != nil {
		return err
	}

	if validationErr != nil {
		printWarning("Validation failed: %s", errors.UserMessage(validationErr))
		return &ExitError{Code: 2, Err: validationErr}
	}
	return nil
}

// inspectSnapshot runs the validator, returning the current snapshot
// unchanged alongside the error when validation fails.
func (c *CLI) inspectSnapshot(cmd *cobra.Command, mgr *session.Manager) (*session.Snapshot, error) {
	ctx := cmd.Context()
	sp := newSpinner(ctx, "Running validator...")
	sp.Start()
	snap, err := mgr.StartInspection(ctx)
	sp.Stop()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return mgr.Current(), err
	}
	total := snap.Overlay.Total()
	if total == 0 {
		printSuccess("Validator found no issues")
	} else {
		printInfo("Validator found %d issues", total)
	}
	return snap, nil
}

func (c *CLI) writeExport(cmd *cobra.Command, snap *session.Snapshot, format, output string) error {
	var data []byte
	switch format {
	case FormatJSON:
		doc, err := export.Render(snap.Tree, snap.Overlay, snap.Info)
		if err != nil {
			return err
		}
		data, err = export.Marshal(doc)
		if err != nil {
			return err
		}
		data = append(data, '\n')
	case FormatDOT:
		data = []byte(export.ToDOT(snap.Tree, snap.Overlay))
	case FormatSVG:
		dot := export.ToDOT(snap.Tree, snap.Overlay)
		svg, err := export.RenderSVG(cmd.Context(), dot)
		if err != nil {
			return err
		}
		data = svg
	}

	if output == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := errors.ValidateOutputPath(output); err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printFile(output)
	return nil
}
