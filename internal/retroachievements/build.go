package retroachievements

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/JohnDeved/rahash/internal/preference"
	"github.com/JohnDeved/rahash/internal/wishlist"
)

// ClassifyName derives region and language codes from a hash's file name,
// as in "Game (USA) (En,Es)".
//
// WORLD is independent of the others. Of RU, USA, EUROPE, JPN and KOR only
// the first that matches, in that order, is reported. Languages are plain
// case-sensitive substring checks.
func ClassifyName(name string) (regions, languages []string) {
	if strings.Contains(name, "World") {
		regions = append(regions, "WORLD")
	}
	switch {
	case strings.Contains(name, "(Ru)"):
		regions = append(regions, "RU")
	case strings.Contains(name, "USA"):
		regions = append(regions, "USA")
	case strings.Contains(name, "Europe"), strings.Contains(name, "EUR"):
		regions = append(regions, "EUROPE")
	case strings.Contains(name, "Japan"):
		regions = append(regions, "JPN")
	case strings.Contains(name, "Korea"):
		regions = append(regions, "KOR")
	}

	for _, l := range []struct{ sub, code string }{
		{"En", "EN"},
		{"Es", "ES"},
		{"Fr", "FR"},
		{"Pt", "PT"},
	} {
		if strings.Contains(name, l.sub) {
			languages = append(languages, l.code)
		}
	}
	return regions, languages
}

// GameFromHashes builds a wish-list game from its hash list. Hashes without
// a name are skipped.
func GameFromHashes(title, console string, hashes []GameHash) wishlist.Game {
	g := wishlist.Game{
		Title:     title,
		Console:   console,
		Regions:   preference.RegionMap{},
		Languages: preference.RegionMap{},
	}
	for _, h := range hashes {
		if h.Name == nil {
			log.Debug().Str("title", title).Str("hash", h.MD5).Msg("skipping hash without name")
			continue
		}
		c := preference.Candidate{Hash: h.MD5, Name: *h.Name}
		regions, languages := ClassifyName(*h.Name)
		for _, r := range regions {
			g.Regions.Add(r, c)
		}
		for _, l := range languages {
			g.Languages.Add(l, c)
		}
	}
	return g
}

// Progress is called after each game with the number done so far.
type Progress func(done, total int, title string)

// BuildWishlist fetches the want-to-play list and the details and hashes of
// every game on it. Games whose details or hashes cannot be fetched are
// logged and left out; only failures of the list itself are returned.
func (c *Client) BuildWishlist(ctx context.Context, progress Progress) (*wishlist.Wishlist, error) {
	games, err := c.WantToPlay(ctx)
	if err != nil {
		return nil, err
	}
	log.Info().Int("games", len(games)).Str("user", c.username).Msg("want-to-play list fetched")

	w := &wishlist.Wishlist{}
	for i, game := range games {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if progress != nil {
			progress(i, len(games), game.Title)
		}

		details, err := c.Game(ctx, game.ID)
		if err != nil || details.ConsoleName == "" {
			log.Warn().Err(err).Str("title", game.Title).Int("id", game.ID).Msg("no console for game")
			continue
		}
		hashes, err := c.GameHashes(ctx, game.ID)
		if err != nil {
			log.Warn().Err(err).Str("title", game.Title).Int("id", game.ID).Msg("fetching hashes failed")
			continue
		}
		w.Add(GameFromHashes(game.Title, details.ConsoleName, hashes))
	}
	if progress != nil {
		progress(len(games), len(games), "")
	}
	return w, nil
}
