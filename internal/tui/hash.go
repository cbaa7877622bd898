package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"

	"github.com/JohnDeved/rahash/internal/lookup"
)

// hashModel is the hash prompt with a history of lookups, newest first.
type hashModel struct {
	input   textinput.Model
	history []hashEntry
	list    listView
	busy    bool
}

type hashEntry struct {
	query  string
	result lookup.Result
	err    error
}

func newHashModel() hashModel {
	ti := textinput.New()
	ti.Placeholder = "MD5 from RetroAchievements, e.g. 1b6d0b8e8a5e6a9b..."
	ti.CharLimit = 64
	ti.Width = 48
	ti.Prompt = "Hash: "
	ti.PromptStyle = promptStyle
	ti.Focus()
	return hashModel{input: ti}
}

func (h *hashModel) add(e hashEntry) {
	h.history = append([]hashEntry{e}, h.history...)
	h.busy = false
	h.list.reset()
}

func (h *hashModel) selected() *hashEntry {
	h.list.normalize(len(h.history))
	if h.list.cursor < len(h.history) {
		return &h.history[h.list.cursor]
	}
	return nil
}

func (h *hashModel) view(width, height int, spin string) string {
	var sb strings.Builder
	sb.WriteString(padToWidth(h.input.View(), width))
	sb.WriteString("\n\n")

	if h.busy {
		sb.WriteString(fmt.Sprintf("  %s Looking up %s...\n", spin, h.input.Value()))
		return sb.String()
	}
	if len(h.history) == 0 {
		sb.WriteString(helpStyle.Render("  Paste a hash and press Enter."))
		sb.WriteString("\n")
		return sb.String()
	}

	sel := h.selected()
	box := renderEntry(*sel, width)
	sb.WriteString(box)
	sb.WriteString("\n")

	used := 3 + strings.Count(box, "\n") + 2
	h.list.rows = max(height-used, 1)
	sb.WriteString(helpStyle.Render("  History"))
	sb.WriteString("\n")
	sb.WriteString(h.list.render(len(h.history), width, func(i int, selected bool, w int) string {
		e := h.history[i]
		detail := e.result.Platform.String()
		if e.err != nil {
			detail = "not found"
		}
		return renderRow(e.query, detail, w, selected)
	}))
	return sb.String()
}

func renderEntry(e hashEntry, width int) string {
	if e.err != nil {
		return errorStyle.Render("  " + e.err.Error())
	}
	return renderResult(e.result, width)
}

func renderResult(r lookup.Result, width int) string {
	var lines []string
	if r.Title != "" {
		lines = append(lines, nameStyle.Bold(true).Render(r.Title)+"  "+detailStyle.Render(r.Console))
	}
	lines = append(lines,
		platformBadge.Render(r.Platform.String())+"  "+detailStyle.Render("bucket "+r.BucketID+"  hash "+r.Hash),
		detailStyle.Render(truncateText(r.Path, max(width-8, 20))),
		successStyle.Render(truncateText(r.URL, max(width-8, 20))),
	)
	if r.Region != "" {
		region := "region " + r.Region
		if !r.Preferred {
			region += " (no preferred tag, first candidate)"
			lines = append(lines, warningStyle.Render(region))
		} else {
			lines = append(lines, detailStyle.Render(region))
		}
	}
	return resultBoxStyle.Width(max(width-4, 20)).Render(strings.Join(lines, "\n"))
}
