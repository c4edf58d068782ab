package tui

import (
	"fmt"
	"strings"

	"github.com/pkgtree/pkgtree/core/tree"
)

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("pkgtree"))
	b.WriteString("  ")
	b.WriteString(statusStyle.Render(m.provider.Status()))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(fmt.Sprintf("%s loading workspace...\n", m.spinner.View()))
	case m.err != nil:
		b.WriteString(errStyle.Render(fmt.Sprintf("error: %v", m.err)))
		b.WriteString("\n")
	case len(m.rows) == 0:
		b.WriteString(statusStyle.Render("no packages discovered"))
		b.WriteString("\n")
	default:
		m.renderRows(&b)
	}

	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("up/down move  enter expand  r refresh  q quit"))
	return b.String()
}

func (m model) renderRows(b *strings.Builder) {
	visible := m.visibleLines()
	end := len(m.rows)
	if visible > 0 && m.offset+visible < end {
		end = m.offset + visible
	}

	for i := m.offset; i < end; i++ {
		r := m.rows[i]
		indent := strings.Repeat("  ", r.depth)

		glyph := "  "
		if r.node.Expandable() {
			if m.expanded[r.key()] || r.node.Kind == tree.KindRoot {
				glyph = "v "
			} else {
				glyph = "> "
			}
		}

		label := r.node.Name()
		if r.node.Kind == tree.KindRoot {
			label = rootStyle.Render(label)
		}
		line := indent + glyph + label
		if r.node.Description != "" {
			line += " " + versionStyle.Render(r.node.Description)
		}
		if r.cycle {
			line += " " + cycleStyle.Render("(circular)")
		}

		if i == m.cursor {
			line = cursorStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
}
