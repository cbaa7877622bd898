package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// listView tracks a cursor and scroll offset over n rows.
type listView struct {
	cursor int
	offset int
	rows   int
}

func (l *listView) pageSize() int {
	if l.rows > 0 {
		return l.rows
	}
	return 1
}

func (l *listView) reset() {
	l.cursor = 0
	l.offset = 0
}

func (l *listView) normalize(n int) {
	rows := l.pageSize()
	if n == 0 {
		l.reset()
		return
	}
	l.cursor = min(max(l.cursor, 0), n-1)
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+rows {
		l.offset = l.cursor - rows + 1
	}
	l.offset = min(max(l.offset, 0), max(n-rows, 0))
}

func (l *listView) up(n int) {
	l.cursor--
	l.normalize(n)
}

func (l *listView) down(n int) {
	l.cursor++
	l.normalize(n)
}

func (l *listView) pageUp(n int) {
	l.cursor -= l.pageSize()
	l.offset -= l.pageSize()
	l.normalize(n)
}

func (l *listView) pageDown(n int) {
	l.cursor += l.pageSize()
	l.offset += l.pageSize()
	l.normalize(n)
}

func (l *listView) home() {
	l.reset()
}

func (l *listView) end(n int) {
	l.cursor = n - 1
	l.normalize(n)
}

// move handles the navigation keys shared by every list. It reports whether
// key was one of them.
func (l *listView) move(key string, n int) bool {
	switch key {
	case "up", "k":
		l.up(n)
	case "down", "j":
		l.down(n)
	case "pgup", "ctrl+u":
		l.pageUp(n)
	case "pgdown", "ctrl+d":
		l.pageDown(n)
	case "home", "g":
		l.home()
	case "end", "G":
		l.end(n)
	default:
		return false
	}
	return true
}

// render draws rows [offset, offset+rows) of n using row, followed by a
// position line when the list scrolls.
func (l *listView) render(n, width int, row func(i int, selected bool, width int) string) string {
	l.normalize(n)
	var sb strings.Builder
	rowWidth := max(width-selectedStyle.GetHorizontalFrameSize(), 12)
	end := min(l.offset+l.pageSize(), n)
	for i := l.offset; i < end; i++ {
		sb.WriteString(row(i, i == l.cursor, rowWidth))
		sb.WriteString("\n")
	}
	if n > l.pageSize() {
		sb.WriteString(padToWidth(helpStyle.Render(fmt.Sprintf("  %d/%d", l.cursor+1, n)), width))
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderRow(name, detail string, rowWidth int, isSelected bool) string {
	line := fmt.Sprintf("  %s  %s",
		nameStyle.Render(truncateText(name, max(12, rowWidth-24))),
		detailStyle.Render(truncateText(detail, 20)),
	)
	if isSelected {
		return selectedStyle.Render(padToWidth(line, rowWidth))
	}
	return normalStyle.Render(padToWidth(line, rowWidth))
}

func truncateText(s string, maxWidth int) string {
	if maxWidth < 4 {
		return s
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	r := []rune(s)
	if len(r) <= maxWidth {
		return s
	}
	return string(r[:maxWidth-3]) + "..."
}

func padToWidth(s string, width int) string {
	pad := width - lipgloss.Width(s)
	if pad <= 0 {
		return s
	}
	return s + strings.Repeat(" ", pad)
}
