package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/h-mayorquin/nwb-lens/pkg/session"
	"github.com/h-mayorquin/nwb-lens/pkg/tree"
)

// exploreCommand creates the explore command, an interactive tree
// browser for a file's structure.
func (c *CLI) exploreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "explore <file>",
		Short: "Browse a file's structure interactively",
		Long: `Explore opens an interactive tree view of the file's object hierarchy.

Keys:
  ↑/↓ or k/j   move
  →/← or l/h   expand / collapse
  enter        toggle expansion
  i            run the validator and show findings
  q            quit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExplore(cmd, args[0])
		},
	}
}

func (c *CLI) runExplore(cmd *cobra.Command, path string) error {
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

	model := newExploreModel(ctx, mgr, snap)
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// =============================================================================
// ExploreModel - Interactive structure browsing
// =============================================================================

// exploreRow is one visible line of the tree pane.
type exploreRow struct {
	path  string
	depth int
}

// inspectDoneMsg carries the result of an async validator run.
type inspectDoneMsg struct {
	snap *session.Snapshot
	err  error
}

// ExploreModel is the bubbletea model for the structure browser.
type ExploreModel struct {
	ctx  context.Context
	mgr  *session.Manager
	snap *session.Snapshot

	expanded map[string]bool
	rows     []exploreRow
	cursor   int
	offset   int
	height   int
	width    int

	detail     viewport.Model
	inspecting bool
	status     string
}

// newExploreModel creates the browser with the root expanded.
func newExploreModel(ctx context.Context, mgr *session.Manager, snap *session.Snapshot) ExploreModel {
	m := ExploreModel{
		ctx:      ctx,
		mgr:      mgr,
		snap:     snap,
		expanded: map[string]bool{snap.Tree.RootPath(): true},
		height:   20,
		width:    80,
		detail:   viewport.New(40, 20),
	}
	m.rebuildRows()
	m.refreshDetail()
	return m
}

func (m ExploreModel) Init() tea.Cmd {
	return nil
}

func (m ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.moveCursor(-1)
		case "down", "j":
			m.moveCursor(1)
		case "right", "l":
			m.setExpanded(true)
		case "left", "h":
			m.collapseOrAscend()
		case "enter", " ":
			m.toggleExpanded()
		case "i":
			if !m.inspecting {
				m.inspecting = true
				m.status = "running validator..."
				return m, m.inspectCmd()
			}
		default:
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}
	case inspectDoneMsg:
		m.inspecting = false
		if msg.err != nil {
			m.status = "validation failed: " + msg.err.Error()
		} else {
			m.snap = msg.snap
			m.status = fmt.Sprintf("%d findings", msg.snap.Overlay.Total())
		}
		m.refreshDetail()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
		m.detail.Width = m.width/2 - 2
		m.detail.Height = m.height
		m.clampScroll()
	}
	return m, nil
}

// inspectCmd runs the validator off the UI goroutine.
func (m ExploreModel) inspectCmd() tea.Cmd {
	ctx, mgr := m.ctx, m.mgr
	return func() tea.Msg {
		snap, err := mgr.StartInspection(ctx)
		return inspectDoneMsg{snap: snap, err: err}
	}
}

func (m *ExploreModel) moveCursor(delta int) {
	next := m.cursor + delta
	if next < 0 || next >= len(m.rows) {
		return
	}
	m.cursor = next
	m.clampScroll()
	m.refreshDetail()
}

func (m *ExploreModel) clampScroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m *ExploreModel) currentNode() *tree.Node {
	if m.cursor >= len(m.rows) {
		return nil
	}
	n, _ := m.snap.Tree.Lookup(m.rows[m.cursor].path)
	return n
}

func (m *ExploreModel) setExpanded(open bool) {
	n := m.currentNode()
	if n == nil || !n.HasChildren() {
		return
	}
	m.expanded[n.Path] = open
	m.rebuildRows()
	m.clampScroll()
}

func (m *ExploreModel) toggleExpanded() {
	n := m.currentNode()
	if n == nil || !n.HasChildren() {
		return
	}
	m.expanded[n.Path] = !m.expanded[n.Path]
	m.rebuildRows()
	m.clampScroll()
}

// collapseOrAscend collapses an open node, or moves to the parent of a
// closed one.
func (m *ExploreModel) collapseOrAscend() {
	n := m.currentNode()
	if n == nil {
		return
	}
	if n.HasChildren() && m.expanded[n.Path] {
		m.expanded[n.Path] = false
		m.rebuildRows()
		m.clampScroll()
		return
	}
	depth := m.rows[m.cursor].depth
	for i := m.cursor - 1; i >= 0; i-- {
		if m.rows[i].depth < depth {
			m.cursor = i
			m.clampScroll()
			m.refreshDetail()
			return
		}
	}
}

// rebuildRows flattens the expanded portion of the tree into rows.
func (m *ExploreModel) rebuildRows() {
	m.rows = m.rows[:0]
	var walk func(path string, depth int)
	walk = func(path string, depth int) {
		n, ok := m.snap.Tree.Lookup(path)
		if !ok {
			return
		}
		m.rows = append(m.rows, exploreRow{path: path, depth: depth})
		if m.expanded[path] {
			for _, child := range n.Children {
				walk(child, depth+1)
			}
		}
	}
	walk(m.snap.Tree.RootPath(), 0)
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
}

// refreshDetail rewrites the detail pane for the selected node.
func (m *ExploreModel) refreshDetail() {
	n := m.currentNode()
	if n == nil {
		m.detail.SetContent("")
		return
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render(n.DisplayName()) + "\n")
	b.WriteString(StyleDim.Render(n.Path) + "\n")
	b.WriteString(StyleDim.Render("kind: ") + string(n.Kind) + "\n")
	if n.ClassName != "" {
		b.WriteString(StyleDim.Render("class: ") + n.ClassName + "\n")
	}
	if n.Kind == tree.KindCycleReference {
		b.WriteString(StyleDim.Render("refers to: ") + n.Target + "\n")
	}

	writeValues := func(title string, vals *tree.Values) {
		if vals == nil || vals.Len() == 0 {
			return
		}
		b.WriteString("\n" + StyleHighlight.Render(title) + "\n")
		for _, k := range vals.Keys() {
			v, _ := vals.Get(k)
			b.WriteString("  " + k + StyleDim.Render(" = ") + v.String() + "\n")
		}
	}
	writeValues("Attributes", n.Attributes)
	writeValues("Fields", n.Fields)

	if issues := m.snap.Overlay.Issues(n.Path); len(issues) > 0 {
		b.WriteString("\n" + StyleHighlight.Render("Findings") + "\n")
		for _, issue := range issues {
			b.WriteString("  " + severityBadge(issue.Severity) + " " + issue.Message + "\n")
		}
	}

	m.detail.SetContent(b.String())
}

func (m ExploreModel) View() string {
	var left strings.Builder
	end := m.offset + m.height
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := m.offset; i < end; i++ {
		row := m.rows[i]
		n, _ := m.snap.Tree.Lookup(row.path)
		if n == nil {
			continue
		}

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}

		marker := "  "
		if n.HasChildren() {
			if m.expanded[row.path] {
				marker = "▾ "
			} else {
				marker = "▸ "
			}
		}

		label := n.DisplayName()
		style := StyleValue
		if i == m.cursor {
			style = StyleHighlight.Bold(true)
		}
		line := cursor + strings.Repeat("  ", row.depth) + StyleDim.Render(marker) + style.Render(label)
		if badge := severityBadge(m.snap.Overlay.AggregateSeverity(row.path)); badge != "" {
			line += " " + badge
		}
		left.WriteString(line + "\n")
	}

	treeWidth := m.width / 2
	leftPane := lipgloss.NewStyle().Width(treeWidth).Render(left.String())
	body := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, m.detail.View())

	header := StyleTitle.Render(m.snap.Info.Path) + "  " +
		StyleDim.Render(fmt.Sprintf("%d objects", m.snap.Tree.Len()))
	footer := StyleDim.Render("↑/↓ move  →/← expand/collapse  i inspect  q quit")
	if m.status != "" {
		footer += "  " + StyleDim.Render("· ") + m.status
	}

	return header + "\n\n" + body + "\n" + footer
}
