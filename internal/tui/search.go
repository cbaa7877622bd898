package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"

	"github.com/JohnDeved/rahash/internal/index"
	"github.com/JohnDeved/rahash/internal/util"
)

// searchModel searches the local index by name.
type searchModel struct {
	input     textinput.Model
	results   []index.Rom
	list      listView
	searching bool
	err       error
	lastQuery string
}

func newSearchModel() searchModel {
	ti := textinput.New()
	ti.Placeholder = "Search ROM names in the local index..."
	ti.CharLimit = 256
	ti.Width = 60
	ti.Prompt = "Search: "
	ti.PromptStyle = promptStyle
	return searchModel{input: ti}
}

func (s *searchModel) setResults(results []index.Rom) {
	s.results = results
	s.searching = false
	s.err = nil
	s.list.reset()
}

func (s *searchModel) setError(err error) {
	s.err = err
	s.searching = false
}

func (s *searchModel) selected() *index.Rom {
	s.list.normalize(len(s.results))
	if s.list.cursor < len(s.results) {
		return &s.results[s.list.cursor]
	}
	return nil
}

func (s *searchModel) view(width, height int, spin string) string {
	var sb strings.Builder
	sb.WriteString(padToWidth(s.input.View(), width))
	sb.WriteString("\n\n")

	switch {
	case s.searching:
		sb.WriteString(fmt.Sprintf("  %s Searching local index...\n", spin))
		return sb.String()
	case s.err != nil:
		sb.WriteString(errorStyle.Render(fmt.Sprintf("  Error: %v", s.err)))
		sb.WriteString("\n")
		return sb.String()
	case s.lastQuery != "" && len(s.results) == 0:
		sb.WriteString(helpStyle.Render("  No results found."))
		sb.WriteString("\n")
		return sb.String()
	case len(s.results) == 0:
		sb.WriteString(helpStyle.Render("  Type to search the local index. Run 'rahash catalog index' to build it."))
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString(helpStyle.Render(fmt.Sprintf("  Found %d results:", len(s.results))))
	sb.WriteString("\n")
	if sel := s.selected(); sel != nil {
		sb.WriteString(padToWidth(detailStyle.Render("  "+util.TruncatePath(sel.Path, max(width-4, 20))), width))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	s.list.rows = max(height-6, 1)
	sb.WriteString(s.list.render(len(s.results), width, func(i int, selected bool, rw int) string {
		r := s.results[i]
		return renderRow(r.Name, r.Platform, rw, selected)
	}))
	return sb.String()
}
