package tui

import (
	"fmt"
	"strings"

	"github.com/JohnDeved/rahash/internal/lookup"
	"github.com/JohnDeved/rahash/internal/wishlist"
)

// wishlistModel browses consoles, then the games of one console.
type wishlistModel struct {
	wl       *wishlist.Wishlist
	err      error
	consoles []string
	console  string // empty at the console level
	games    []wishlist.Game
	list     listView
	// cursor on the console list, restored when going back
	consoleCursor int
	result        *lookup.Result
	resultErr     error
	loading       bool
}

func (w *wishlistModel) setWishlist(wl *wishlist.Wishlist, err error) {
	w.loading = false
	w.wl, w.err = wl, err
	w.console = ""
	w.games = nil
	w.result, w.resultErr = nil, nil
	w.list.reset()
	w.consoles = nil
	if wl != nil {
		w.consoles = wl.Consoles()
	}
}

func (w *wishlistModel) count() int {
	if w.console == "" {
		return len(w.consoles)
	}
	return len(w.games)
}

// open descends into the selected console. At the game level it returns the
// selected game instead.
func (w *wishlistModel) open() (wishlist.Game, bool) {
	w.list.normalize(w.count())
	if w.count() == 0 {
		return wishlist.Game{}, false
	}
	if w.console == "" {
		w.consoleCursor = w.list.cursor
		w.console = w.consoles[w.list.cursor]
		w.games = w.wl.GamesFor(w.console)
		w.list.reset()
		w.result, w.resultErr = nil, nil
		return wishlist.Game{}, false
	}
	return w.games[w.list.cursor], true
}

func (w *wishlistModel) back() bool {
	if w.console == "" {
		return false
	}
	w.console = ""
	w.games = nil
	w.result, w.resultErr = nil, nil
	w.list.reset()
	w.list.cursor = w.consoleCursor
	return true
}

func (w *wishlistModel) view(width, height int, spin string) string {
	var sb strings.Builder

	switch {
	case w.loading:
		sb.WriteString(fmt.Sprintf("  %s Loading wish list...\n", spin))
		return sb.String()
	case w.err != nil:
		sb.WriteString(errorStyle.Render("  " + w.err.Error()))
		sb.WriteString("\n")
		sb.WriteString(helpStyle.Render("  Run 'rahash wishlist sync' to build game_hashes.json."))
		sb.WriteString("\n")
		return sb.String()
	case w.wl == nil || len(w.consoles) == 0:
		sb.WriteString(helpStyle.Render("  The wish list is empty."))
		sb.WriteString("\n")
		return sb.String()
	}

	crumb := "Consoles"
	if w.console != "" {
		crumb += " / " + w.console
	}
	sb.WriteString(breadcrumbStyle.Render("  " + crumb))
	sb.WriteString("\n\n")
	used := 2

	if w.result != nil || w.resultErr != nil {
		var box string
		if w.resultErr != nil {
			box = errorStyle.Render("  " + w.resultErr.Error())
		} else {
			box = renderResult(*w.result, width)
		}
		sb.WriteString(box)
		sb.WriteString("\n\n")
		used += strings.Count(box, "\n") + 2
	}

	w.list.rows = max(height-used-1, 1)
	if w.console == "" {
		sb.WriteString(w.list.render(len(w.consoles), width, func(i int, selected bool, rw int) string {
			return renderRow(w.consoles[i], fmt.Sprintf("%d games", len(w.wl.GamesFor(w.consoles[i]))), rw, selected)
		}))
		return sb.String()
	}
	sb.WriteString(w.list.render(len(w.games), width, func(i int, selected bool, rw int) string {
		g := w.games[i]
		return renderRow(g.Title, strings.Join(g.Regions.Codes(), ","), rw, selected)
	}))
	return sb.String()
}
