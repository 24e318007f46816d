package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/h-mayorquin/nwb-lens/pkg/session"
	"github.com/h-mayorquin/nwb-lens/pkg/tree"
)

// inspectCommand creates the inspect command, which runs the validator
// and prints a summary of findings grouped by object path.
func (c *CLI) inspectCommand() *cobra.Command {
	var showAll bool

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Run the validator and summarize its findings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd, args[0], showAll)
		},
	}

	cmd.Flags().BoolVarP(&showAll, "all", "a", false, "include INFO-level findings")

	return cmd
}

func (c *CLI) runInspect(cmd *cobra.Command, path string, showAll bool) error {
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

	snap, err := mgr.OpenFile(ctx, path)
	if err != nil {
		return err
	}
	printInfo("%s: %d objects", snap.Info.Path, snap.Tree.Len())

	sp := newSpinner(ctx, "Running validator...")
	sp.Start()
	snap, err = mgr.StartInspection(ctx)
	sp.Stop()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}

	counts := snap.Overlay.Counts()
	if snap.Overlay.Total() == 0 {
		printSuccess("No issues found")
		return nil
	}

	printSummaryCounts(counts)
	printIssueTable(snap, showAll)
	printOrphans(snap)
	return nil
}

func printSummaryCounts(counts map[tree.Severity]int) {
	for _, s := range []tree.Severity{tree.SeverityCritical, tree.SeverityWarning, tree.SeverityInfo} {
		if n := counts[s]; n > 0 {
			printDetail("%s: %d", severityBadge(s), n)
		}
	}
}

func printIssueTable(snap *session.Snapshot, showAll bool) {
	rows := [][]string{}
	for _, issue := range snap.Overlay.AllIssues(snap.Tree) {
		if issue.Severity == tree.SeverityInfo && !showAll {
			continue
		}
		rows = append(rows, []string{severityBadge(issue.Severity), issue.Path, issue.Message})
	}
	if len(rows) == 0 {
		printDetail("only INFO-level findings, use --all to show them")
		return
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Severity", "Path", "Message").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 1 {
				return lipgloss.NewStyle().Foreground(colorGray)
			}
			return lipgloss.NewStyle()
		})
	fmt.Println(t.Render())
}

func printOrphans(snap *session.Snapshot) {
	if len(snap.Overlay.Orphans) == 0 {
		return
	}
	printWarning("%d findings reference paths not present in the file:", len(snap.Overlay.Orphans))
	for _, issue := range snap.Overlay.Orphans {
		printDetail("%s %s: %s", severityBadge(issue.Severity), issue.Path, issue.Message)
	}
}
