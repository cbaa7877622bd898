// Package wishlist reads and writes the game_hashes.json wish list: games a
// user wants to play, with the hashes known for each region and language.
package wishlist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	iofs "io/fs"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/JohnDeved/rahash/internal/preference"
	"github.com/JohnDeved/rahash/internal/util"
)

// Game is one wish-list entry.
type Game struct {
	Title     string               `json:"-"`
	Console   string               `json:"console"`
	Regions   preference.RegionMap `json:"regions"`
	Languages preference.RegionMap `json:"languages"`
}

// Wishlist is an ordered list of games keyed by title.
type Wishlist struct {
	Games []Game
}

// MarshalJSON writes {title: {console, regions, languages}} in list order.
func (w Wishlist) MarshalJSON() ([]byte, error) {
	o := util.NewObjectWriter()
	for _, g := range w.Games {
		g := g
		if g.Regions == nil {
			g.Regions = preference.RegionMap{}
		}
		if g.Languages == nil {
			g.Languages = preference.RegionMap{}
		}
		o.Field(g.Title, g)
	}
	return o.Bytes()
}

// UnmarshalJSON reads the object form, keeping title order.
func (w *Wishlist) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	var games []Game
	err := util.WalkObject(dec, func(title string) error {
		var g Game
		if err := dec.Decode(&g); err != nil {
			return err
		}
		g.Title = title
		games = append(games, g)
		return nil
	})
	if err != nil {
		return err
	}
	w.Games = games
	return nil
}

// Load reads a wish list from path.
func Load(fs afero.Fs, path string) (*Wishlist, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading wish list: %w", err)
	}
	var w Wishlist
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("parsing wish list %s: %w", path, err)
	}
	log.Debug().Str("path", path).Int("games", len(w.Games)).Msg("wish list loaded")
	return &w, nil
}

// Save writes the wish list to path, indented, creating parent directories.
func (w *Wishlist) Save(fs afero.Fs, path string) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	raw, err := json.Marshal(w)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "    "); err != nil {
		return err
	}
	buf.WriteByte('\n')

	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing wish list: %w", err)
	}
	if err := fs.Rename(tmp, path); err != nil {
		_ = fs.Remove(tmp)
		return fmt.Errorf("writing wish list: %w", err)
	}
	return nil
}

// Add appends g, or replaces the game with the same title.
func (w *Wishlist) Add(g Game) {
	for i := range w.Games {
		if w.Games[i].Title == g.Title {
			w.Games[i] = g
			return
		}
	}
	w.Games = append(w.Games, g)
}

// Consoles returns distinct console names in first-appearance order.
func (w *Wishlist) Consoles() []string {
	seen := make(map[string]bool)
	var out []string
	for _, g := range w.Games {
		if !seen[g.Console] {
			seen[g.Console] = true
			out = append(out, g.Console)
		}
	}
	return out
}

// GamesFor returns the games of console, in list order.
func (w *Wishlist) GamesFor(console string) []Game {
	var out []Game
	for _, g := range w.Games {
		if g.Console == console {
			out = append(out, g)
		}
	}
	return out
}

// Find returns the game titled title. An exact match wins; otherwise titles
// are compared ignoring case and diacritics.
func (w *Wishlist) Find(title string) (Game, bool) {
	for _, g := range w.Games {
		if g.Title == title {
			return g, true
		}
	}
	key := Fold(title)
	for _, g := range w.Games {
		if Fold(g.Title) == key {
			return g, true
		}
	}
	return Game{}, false
}

// Suggestion is a title close to a query.
type Suggestion struct {
	Title      string  `json:"title"`
	Similarity float32 `json:"similarity"`
}

const minSimilarity = 0.7

// Suggest returns up to n titles most similar to query, best first.
func (w *Wishlist) Suggest(query string, n int) []Suggestion {
	q := Fold(query)
	var out []Suggestion
	for _, g := range w.Games {
		sim := edlib.JaroWinklerSimilarity(q, Fold(g.Title))
		if sim >= minSimilarity {
			out = append(out, Suggestion{Title: g.Title, Similarity: sim})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Fold lower-cases s, strips diacritics and collapses whitespace.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// IsNotExist reports whether err came from a missing wish-list file.
func IsNotExist(err error) bool {
	return errors.Is(err, iofs.ErrNotExist)
}
