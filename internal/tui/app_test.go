package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnDeved/rahash/internal/catalog"
	"github.com/JohnDeved/rahash/internal/lookup"
	"github.com/JohnDeved/rahash/internal/preference"
	"github.com/JohnDeved/rahash/internal/wishlist"
)

func testModel(t *testing.T, opened *[]string) Model {
	t.Helper()
	cat := catalog.New([]catalog.Bucket{
		{ID: "3", Entries: []catalog.Entry{
			{"AAAA0001": "SNES-Super Famicom/Foo (USA).sfc"},
			{"AAAA0002": "SNES-Super Famicom/Foo (Japan).sfc"},
		}},
	})
	m := NewModel(Deps{
		Lookup:        lookup.New(cat, nil, nil),
		MinHashLength: 8,
		OpenURL: func(u string) error {
			*opened = append(*opened, u)
			return nil
		},
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func press(t *testing.T, m Model, key string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		msg = tea.KeyMsg{Type: tea.KeyBackspace}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestHashLookupAndOpen(t *testing.T) {
	t.Parallel()

	var opened []string
	m := testModel(t, &opened)
	m.hash.input.SetValue("aaaa0001")

	m, cmd := press(t, m, "enter")
	require.NotNil(t, cmd)
	assert.True(t, m.hash.busy)

	next, _ := m.Update(cmd())
	m = next.(Model)
	require.Len(t, m.hash.history, 1)
	require.NoError(t, m.hash.history[0].err)
	assert.Equal(t, "AAAA0001", m.hash.history[0].result.Hash)
	assert.False(t, m.hash.busy)
	assert.Contains(t, m.View(), "Foo (USA).sfc")

	m, _ = press(t, m, "esc")
	assert.False(t, m.hash.input.Focused())
	m, cmd = press(t, m, "o")
	require.NotNil(t, cmd)
	require.Len(t, opened, 1)
	assert.True(t, strings.HasSuffix(opened[0], "Foo%20%28USA%29.sfc"))
	assert.True(t, strings.HasPrefix(m.statusMsg, "Opened "))
}

func TestHashLookupRejectsMalformedHash(t *testing.T) {
	t.Parallel()

	var opened []string
	m := testModel(t, &opened)
	m.hash.input.SetValue("xyz")

	m, cmd := press(t, m, "enter")
	require.NotNil(t, cmd)
	assert.False(t, m.hash.busy)
	assert.Contains(t, m.statusMsg, "invalid hash")
	assert.Empty(t, m.hash.history)
}

func TestHashLookupMiss(t *testing.T) {
	t.Parallel()

	var opened []string
	m := testModel(t, &opened)
	m.hash.input.SetValue("deadbeef")

	m, cmd := press(t, m, "enter")
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	m = next.(Model)
	require.Len(t, m.hash.history, 1)
	require.ErrorIs(t, m.hash.history[0].err, catalog.ErrHashNotFound)

	// Nothing to open for a miss.
	m, _ = press(t, m, "esc")
	_, _ = press(t, m, "o")
	assert.Empty(t, opened)
}

func TestWishlistBrowse(t *testing.T) {
	t.Parallel()

	var opened []string
	m := testModel(t, &opened)

	var regions preference.RegionMap
	regions.Add("JPN", preference.Candidate{Hash: "AAAA0002", Name: "Foo (Japan)"})
	regions.Add("USA", preference.Candidate{Hash: "AAAA0001", Name: "Foo (USA)"})
	wl := &wishlist.Wishlist{}
	wl.Add(wishlist.Game{Title: "Foo", Console: "SNES/Super Famicom", Regions: regions})

	next, _ := m.Update(wishlistMsg{wl: wl})
	m = next.(Model)

	m, _ = press(t, m, "tab")
	assert.Equal(t, TabWishlist, m.activeTab)
	assert.False(t, m.inputFocused())

	m, cmd := press(t, m, "enter")
	assert.Nil(t, cmd)
	assert.Equal(t, "SNES/Super Famicom", m.wish.console)

	m, cmd = press(t, m, "enter")
	require.NotNil(t, cmd)
	next, _ = m.Update(cmd())
	m = next.(Model)
	require.NoError(t, m.wish.resultErr)
	require.NotNil(t, m.wish.result)
	assert.Equal(t, "USA", m.wish.result.Region)
	assert.True(t, m.wish.result.Preferred)

	m, _ = press(t, m, "o")
	require.Len(t, opened, 1)

	m, _ = press(t, m, "backspace")
	assert.Empty(t, m.wish.console)
	assert.Nil(t, m.wish.result)
}

func TestQuitAndHelp(t *testing.T) {
	t.Parallel()

	var opened []string
	m := testModel(t, &opened)

	// Typed into the focused prompt, not a quit.
	m, _ = press(t, m, "q")
	assert.Equal(t, "q", m.hash.input.Value())

	m, _ = press(t, m, "esc")
	m, _ = press(t, m, "?")
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")
	m, _ = press(t, m, "?")
	assert.False(t, m.showHelp)

	_, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
}
