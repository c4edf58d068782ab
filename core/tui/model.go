package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pkgtree/pkgtree/core/tree"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	versionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cycleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Italic(true)
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	rootStyle    = lipgloss.NewStyle().Bold(true)
)

// row is one visible line of the flattened tree.
type row struct {
	node      *tree.Node
	depth     int
	ancestors []string
	cycle     bool
}

func (r row) key() string {
	return strings.Join(append(append([]string{}, r.ancestors...), r.node.Name()), "\x1f")
}

type model struct {
	provider *tree.Provider

	rows     []row
	cursor   int
	offset   int
	expanded map[string]bool

	spinner spinner.Model
	loading bool
	notice  string
	err     error

	width  int
	height int
}

func newModel(provider *tree.Provider) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return model{
		provider: provider,
		expanded: make(map[string]bool),
		spinner:  sp,
		loading:  true,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadCmd(m.provider))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampCursor()
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.rebuild()
		}
		return m, nil

	case treeChangedMsg:
		m.rebuild()
		m.notice = fmt.Sprintf("reloaded: %d packages", msg.event.Packages)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		m.clampCursor()

	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		m.clampCursor()

	case "g":
		m.cursor = 0
		m.clampCursor()

	case "G":
		m.cursor = len(m.rows) - 1
		m.clampCursor()

	case "enter", " ":
		if m.cursor < len(m.rows) {
			r := m.rows[m.cursor]
			if r.node.Expandable() {
				key := r.key()
				m.expanded[key] = !m.expanded[key]
				m.rebuild()
			}
		}

	case "r":
		m.loading = true
		m.notice = ""
		return m, tea.Batch(m.spinner.Tick, refreshCmd(m.provider))
	}
	return m, nil
}

// rebuild flattens the tree into visible rows, expanding along recorded
// keys. Cycle notices surfaced during expansion land in the status line.
func (m *model) rebuild() {
	m.rows = m.rows[:0]
	m.notice = ""

	roots, err := m.provider.Roots(context.Background())
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	for _, root := range roots {
		m.walk(root, 0, nil, false)
	}
	m.clampCursor()
}

func (m *model) walk(node *tree.Node, depth int, ancestors []string, cycle bool) {
	r := row{node: node, depth: depth, ancestors: ancestors, cycle: cycle}
	m.rows = append(m.rows, r)

	expandedHere := m.expanded[r.key()]
	if node.Kind == tree.KindRoot {
		// The workspace root always shows its members.
		expandedHere = true
	}
	if !expandedHere || cycle {
		return
	}

	var childAncestors []string
	if node.Kind != tree.KindRoot {
		childAncestors = append(append([]string{}, ancestors...), node.Name())
	}
	children, notices := m.provider.Expand(node, ancestors)
	for _, notice := range notices {
		m.notice = fmt.Sprintf("circular dependency: %s -> %s", notice.From, notice.To)
	}
	cycled := make(map[string]bool, len(notices))
	for _, notice := range notices {
		cycled[notice.To] = true
	}
	for _, child := range children {
		m.walk(child, depth+1, childAncestors, cycled[child.Name()])
	}
}

func (m *model) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	visible := m.visibleLines()
	if visible <= 0 {
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

// visibleLines is the row budget left after the title and footer lines.
func (m *model) visibleLines() int {
	if m.height == 0 {
		return len(m.rows)
	}
	return m.height - 4
}
