package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/JohnDeved/rahash/internal/catalog"
	"github.com/JohnDeved/rahash/internal/index"
	"github.com/JohnDeved/rahash/internal/lookup"
	"github.com/JohnDeved/rahash/internal/util"
	"github.com/JohnDeved/rahash/internal/wishlist"
)

// Tab identifies the active view.
type Tab int

const (
	TabHash Tab = iota
	TabWishlist
	TabSearch
)

// Messages
type lookupMsg struct {
	query  string
	result lookup.Result
	err    error
}

type wishlistMsg struct {
	wl  *wishlist.Wishlist
	err error
}

type gameResultMsg struct {
	result lookup.Result
	err    error
}

type searchResultsMsg struct {
	results []index.Rom
	query   string
}

type searchErrMsg struct{ err error }

type statusClearMsg struct{ id int }

// Deps are what the TUI looks things up with. DB and LoadWishlist may be nil.
type Deps struct {
	Lookup        *lookup.Service
	DB            *index.DB
	LoadWishlist  func() (*wishlist.Wishlist, error)
	MinHashLength int
	// OpenURL opens a download URL; defaults to the system browser.
	OpenURL func(string) error
}

// Model is the main Bubble Tea model.
type Model struct {
	deps      Deps
	activeTab Tab
	hash      hashModel
	wish      wishlistModel
	search    searchModel
	spinner   spinner.Model
	width     int
	height    int
	showHelp  bool
	statusMsg string
	statusID  int
}

// NewModel creates the TUI model.
func NewModel(d Deps) Model {
	if d.OpenURL == nil {
		d.OpenURL = util.OpenURL
	}
	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		deps:      d,
		activeTab: TabHash,
		hash:      newHashModel(),
		wish:      wishlistModel{loading: d.LoadWishlist != nil},
		search:    newSearchModel(),
		spinner:   s,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, textinput.Blink}
	if m.deps.LoadWishlist != nil {
		cmds = append(cmds, m.loadWishlist())
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case lookupMsg:
		m.hash.add(hashEntry{query: msg.query, result: msg.result, err: msg.err})
		return m, nil

	case wishlistMsg:
		m.wish.setWishlist(msg.wl, msg.err)
		return m, nil

	case gameResultMsg:
		m.wish.loading = false
		if msg.err != nil {
			m.wish.result, m.wish.resultErr = nil, msg.err
		} else {
			r := msg.result
			m.wish.result, m.wish.resultErr = &r, nil
		}
		return m, nil

	case searchResultsMsg:
		m.search.lastQuery = msg.query
		m.search.setResults(msg.results)
		return m, nil

	case searchErrMsg:
		m.search.setError(msg.err)
		return m, nil

	case statusClearMsg:
		if msg.id == m.statusID {
			m.statusMsg = ""
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Cursor blink and friends go to whichever input is on screen.
	var cmd tea.Cmd
	switch m.activeTab {
	case TabHash:
		m.hash.input, cmd = m.hash.input.Update(msg)
	case TabSearch:
		m.search.input, cmd = m.search.input.Update(msg)
	}
	return m, cmd
}

func (m Model) inputFocused() bool {
	switch m.activeTab {
	case TabHash:
		return m.hash.input.Focused()
	case TabSearch:
		return m.search.input.Focused()
	}
	return false
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	focused := m.inputFocused()

	if m.showHelp {
		if key == "?" || key == "esc" || key == "q" {
			m.showHelp = false
		}
		return m, nil
	}

	// Global keys.
	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if !focused {
			return m, tea.Quit
		}
	case "?":
		if !focused {
			m.showHelp = true
			return m, nil
		}
	case "tab":
		return m.switchTab((m.activeTab + 1) % 3), nil
	case "shift+tab":
		return m.switchTab((m.activeTab + 2) % 3), nil
	case "1", "2", "3":
		if !focused {
			return m.switchTab(Tab(key[0] - '1')), nil
		}
	}

	switch m.activeTab {
	case TabHash:
		return m.handleHashKey(key, msg)
	case TabWishlist:
		return m.handleWishlistKey(key)
	case TabSearch:
		return m.handleSearchKey(key, msg)
	}
	return m, nil
}

func (m Model) switchTab(t Tab) Model {
	m.activeTab = t
	m.hash.input.Blur()
	m.search.input.Blur()
	switch t {
	case TabHash:
		m.hash.input.Focus()
	case TabSearch:
		m.search.input.Focus()
	}
	return m
}

func (m Model) handleHashKey(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.hash.input.Focused() {
		switch key {
		case "enter":
			query := strings.TrimSpace(m.hash.input.Value())
			if query == "" {
				return m, nil
			}
			if err := catalog.ValidHash(query, m.deps.MinHashLength); err != nil {
				cmd := m.setStatus(err.Error())
				return m, cmd
			}
			m.hash.busy = true
			return m, m.lookupHash(query)
		case "esc":
			m.hash.input.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.hash.input, cmd = m.hash.input.Update(msg)
		return m, cmd
	}

	if m.hash.list.move(key, len(m.hash.history)) {
		return m, nil
	}
	switch key {
	case "i", "/", "esc":
		m.hash.input.Focus()
	case "o", "enter":
		if sel := m.hash.selected(); sel != nil && sel.err == nil {
			cmd := m.open(sel.result.URL)
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) handleWishlistKey(key string) (tea.Model, tea.Cmd) {
	if m.wish.wl == nil {
		if key == "r" && m.deps.LoadWishlist != nil {
			m.wish.loading = true
			return m, m.loadWishlist()
		}
		return m, nil
	}
	if m.wish.list.move(key, m.wish.count()) {
		return m, nil
	}
	switch key {
	case "enter", "l", "right":
		if g, ok := m.wish.open(); ok {
			m.wish.result, m.wish.resultErr = nil, nil
			return m, m.lookupGame(g)
		}
	case "backspace", "h", "left", "esc":
		m.wish.back()
	case "o":
		if m.wish.result != nil {
			cmd := m.open(m.wish.result.URL)
			return m, cmd
		}
	case "r":
		if m.deps.LoadWishlist != nil {
			m.wish.loading = true
			return m, m.loadWishlist()
		}
	}
	return m, nil
}

func (m Model) handleSearchKey(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.search.input.Focused() {
		switch key {
		case "enter":
			query := m.search.input.Value()
			if query != "" {
				m.search.searching = true
				m.search.input.Blur()
				return m, m.performSearch(query)
			}
			return m, nil
		case "esc":
			m.search.input.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search.input, cmd = m.search.input.Update(msg)
		return m, cmd
	}

	if m.search.list.move(key, len(m.search.results)) {
		return m, nil
	}
	switch key {
	case "i", "/", "esc":
		m.search.input.Focus()
	case "o", "enter":
		if sel := m.search.selected(); sel != nil {
			cmd := m.open(sel.URL)
			return m, cmd
		}
	}
	return m, nil
}

// Commands

func (m Model) lookupHash(query string) tea.Cmd {
	svc := m.deps.Lookup
	return func() tea.Msg {
		res, err := svc.ByHash(query)
		return lookupMsg{query: query, result: res, err: err}
	}
}

func (m Model) lookupGame(g wishlist.Game) tea.Cmd {
	svc := m.deps.Lookup
	return func() tea.Msg {
		res, err := svc.ByGame(g)
		return gameResultMsg{result: res, err: err}
	}
}

func (m Model) loadWishlist() tea.Cmd {
	load := m.deps.LoadWishlist
	return func() tea.Msg {
		wl, err := load()
		return wishlistMsg{wl: wl, err: err}
	}
}

func (m Model) performSearch(query string) tea.Cmd {
	db := m.deps.DB
	return func() tea.Msg {
		if db == nil {
			return searchErrMsg{err: fmt.Errorf("no local index; run 'rahash catalog index'")}
		}
		results, err := db.Search(query, 100)
		if err != nil {
			return searchErrMsg{err: err}
		}
		return searchResultsMsg{results: results, query: query}
	}
}

func (m *Model) open(u string) tea.Cmd {
	if err := m.deps.OpenURL(u); err != nil {
		return m.setStatus(err.Error())
	}
	return m.setStatus("Opened " + truncateText(u, 60))
}

func (m *Model) setStatus(msg string) tea.Cmd {
	m.statusMsg = msg
	m.statusID++
	id := m.statusID
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return statusClearMsg{id: id}
	})
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("  rahash  "))
	sb.WriteString("\n")

	tabs := []struct {
		name string
		tab  Tab
	}{
		{"Hash", TabHash},
		{"Wish list", TabWishlist},
		{"Search", TabSearch},
	}
	for i, t := range tabs {
		label := fmt.Sprintf(" %d %s ", i+1, t.name)
		if m.activeTab == t.tab {
			sb.WriteString(tabActiveStyle.Render(label))
		} else {
			sb.WriteString(tabInactiveStyle.Render(label))
		}
		sb.WriteString(" ")
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("─", m.width))
	sb.WriteString("\n")

	contentHeight := m.height - 8
	if m.showHelp {
		sb.WriteString(helpView())
	} else {
		switch m.activeTab {
		case TabHash:
			sb.WriteString(m.hash.view(m.width, contentHeight, m.spinner.View()))
		case TabWishlist:
			sb.WriteString(m.wish.view(m.width, contentHeight, m.spinner.View()))
		case TabSearch:
			sb.WriteString(m.search.view(m.width, contentHeight, m.spinner.View()))
		}
	}

	statusLine := m.statusMsg
	if statusLine == "" {
		statusLine = m.defaultStatus()
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("─", m.width))
	sb.WriteString("\n")
	sb.WriteString(statusBarStyle.Width(m.width).Render(statusLine))
	return sb.String()
}

func (m Model) defaultStatus() string {
	switch m.activeTab {
	case TabHash:
		return "Enter:look up  Esc:history  o:open URL  Tab:switch  ?:help"
	case TabWishlist:
		return "j/k:navigate  Enter:open/resolve  Backspace:back  o:open URL  r:reload  ?:help"
	case TabSearch:
		return "/:focus search  j/k:navigate results  Enter/o:open URL  ?:help"
	}
	return ""
}

func helpView() string {
	lines := []string{
		"  Keyboard Shortcuts",
		"  ──────────────────",
		"",
		"  Global:",
		"    Tab / 1-3     Switch views",
		"    ?             Toggle help",
		"    q / Ctrl+C    Quit",
		"",
		"  Hash:",
		"    Enter         Look up the typed hash",
		"    Esc           Leave the prompt to browse history",
		"    o / Enter     Open the selected URL",
		"",
		"  Wish list:",
		"    Enter / l     Open console / resolve game",
		"    Backspace / h Back to consoles",
		"    o             Open the resolved URL",
		"    r             Reload game_hashes.json",
		"",
		"  Search:",
		"    / or i        Focus search input",
		"    j/k           Navigate results",
		"    o / Enter     Open selected URL",
		"",
		"  Press ? or Esc to close help.",
	}
	return helpStyle.Render(strings.Join(lines, "\n"))
}

// Run starts the TUI.
func Run(d Deps) error {
	p := tea.NewProgram(NewModel(d), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
