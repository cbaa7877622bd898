package wishlist

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnDeved/rahash/internal/preference"
)

const sampleWishlist = `{
    "Pokémon Snap": {
        "console": "Nintendo 64",
        "regions": {
            "USA": [{"hash": "AAAA0001", "name": "Pokemon Snap (USA)"}],
            "JPN": [{"hash": "AAAA0002", "name": "Pokemon Snap (Japan)"}]
        },
        "languages": {}
    },
    "Chrono Trigger": {
        "console": "SNES/Super Famicom",
        "regions": {
            "USA": [{"hash": "BBBB0001", "name": "Chrono Trigger (USA)"}]
        },
        "languages": {
            "EN": [{"hash": "BBBB0001", "name": "Chrono Trigger (USA)"}]
        }
    },
    "Mario Kart 64": {
        "console": "Nintendo 64",
        "regions": {
            "EUROPE": [{"hash": "CCCC0001", "name": "Mario Kart 64 (Europe)"}]
        },
        "languages": {}
    }
}`

func loadSample(t *testing.T) *Wishlist {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/w/game_hashes.json", []byte(sampleWishlist), 0o644))
	w, err := Load(fs, "/w/game_hashes.json")
	require.NoError(t, err)
	return w
}

func TestLoadKeepsOrder(t *testing.T) {
	t.Parallel()

	w := loadSample(t)
	require.Len(t, w.Games, 3)
	assert.Equal(t, "Pokémon Snap", w.Games[0].Title)
	assert.Equal(t, "Chrono Trigger", w.Games[1].Title)
	assert.Equal(t, "Mario Kart 64", w.Games[2].Title)
	assert.Equal(t, []string{"USA", "JPN"}, w.Games[0].Regions.Codes())
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()

	_, err := Load(afero.NewMemMapFs(), "/nope.json")
	require.Error(t, err)
	assert.True(t, IsNotExist(err))
}

func TestLoadMalformed(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bad.json", []byte(`{"x": [1]}`), 0o644))
	_, err := Load(fs, "/bad.json")
	require.Error(t, err)
	assert.False(t, IsNotExist(err))
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	w := loadSample(t)
	require.NoError(t, w.Save(fs, "/out/dir/game_hashes.json"))

	again, err := Load(fs, "/out/dir/game_hashes.json")
	require.NoError(t, err)
	assert.Equal(t, w.Games, again.Games)

	exists, err := afero.Exists(fs, "/out/dir/game_hashes.json.tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSaveWritesEmptyMaps(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	w := &Wishlist{}
	w.Add(Game{Title: "Solo", Console: "NES"})
	require.NoError(t, w.Save(fs, "/w.json"))

	data, err := afero.ReadFile(fs, "/w.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"Solo":{"console":"NES","regions":{},"languages":{}}}`, string(data))
}

func TestConsolesAndGames(t *testing.T) {
	t.Parallel()

	w := loadSample(t)
	assert.Equal(t, []string{"Nintendo 64", "SNES/Super Famicom"}, w.Consoles())

	games := w.GamesFor("Nintendo 64")
	require.Len(t, games, 2)
	assert.Equal(t, "Pokémon Snap", games[0].Title)
	assert.Equal(t, "Mario Kart 64", games[1].Title)
	assert.Empty(t, w.GamesFor("Atari 2600"))
}

func TestFind(t *testing.T) {
	t.Parallel()

	w := loadSample(t)

	g, ok := w.Find("Chrono Trigger")
	require.True(t, ok)
	assert.Equal(t, "SNES/Super Famicom", g.Console)

	g, ok = w.Find("pokemon  snap")
	require.True(t, ok)
	assert.Equal(t, "Pokémon Snap", g.Title)

	_, ok = w.Find("Zelda")
	assert.False(t, ok)
}

func TestSuggest(t *testing.T) {
	t.Parallel()

	w := loadSample(t)
	got := w.Suggest("Chrono Trigga", 2)
	require.NotEmpty(t, got)
	assert.Equal(t, "Chrono Trigger", got[0].Title)

	assert.Empty(t, w.Suggest("zzzzzzzzzzzzzz", 5))
}

func TestAddReplaces(t *testing.T) {
	t.Parallel()

	w := &Wishlist{}
	w.Add(Game{Title: "A", Console: "NES"})
	w.Add(Game{Title: "B", Console: "NES"})
	var regions preference.RegionMap
	regions.Add("USA", preference.Candidate{Hash: "H"})
	w.Add(Game{Title: "A", Console: "SNES", Regions: regions})

	require.Len(t, w.Games, 2)
	assert.Equal(t, "SNES", w.Games[0].Console)
	assert.Equal(t, "B", w.Games[1].Title)
}

func TestFold(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pokemon snap", Fold("  Pokémon   SNAP "))
	assert.Equal(t, "", Fold(""))
}
