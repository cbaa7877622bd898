package preference

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectEmpty(t *testing.T) {
	t.Parallel()

	_, err := Select(nil, DefaultOrder)
	require.ErrorIs(t, err, ErrNoCandidates)

	_, err = Select(RegionMap{{Code: "USA"}}, DefaultOrder)
	require.ErrorIs(t, err, ErrNoCandidates)
}

func TestSelectRegionPriority(t *testing.T) {
	t.Parallel()

	m := RegionMap{
		{Code: "JPN", Candidates: []Candidate{{Hash: "J1", Name: "Game (Japan)"}}},
		{Code: "USA", Candidates: []Candidate{{Hash: "U1", Name: "Game (USA)"}}},
	}
	sel, err := Select(m, DefaultOrder)
	require.NoError(t, err)
	assert.Equal(t, "USA", sel.Region)
	assert.Equal(t, "U1", sel.Candidate.Hash)
	assert.True(t, sel.Preferred)
}

func TestSelectRegionKeyIgnoresCase(t *testing.T) {
	t.Parallel()

	m := RegionMap{
		{Code: "jpn", Candidates: []Candidate{{Hash: "J1", Name: "Game"}}},
		{Code: "es", Candidates: []Candidate{{Hash: "E1", Name: "Game"}}},
	}
	sel, err := Select(m, DefaultOrder)
	require.NoError(t, err)
	assert.Equal(t, "es", sel.Region)
	assert.Equal(t, "E1", sel.Candidate.Hash)
	assert.False(t, sel.Preferred)
}

func TestSelectFallsBackToFirstRegion(t *testing.T) {
	t.Parallel()

	m := RegionMap{
		{Code: "KOR", Candidates: []Candidate{{Hash: "K1", Name: "Game (Korea)"}}},
		{Code: "RU", Candidates: []Candidate{{Hash: "R1", Name: "Game (Ru)"}}},
	}
	sel, err := Select(m, DefaultOrder)
	require.NoError(t, err)
	assert.Equal(t, "KOR", sel.Region)
	assert.Equal(t, "K1", sel.Candidate.Hash)
	assert.False(t, sel.Preferred)
}

func TestSelectEuropeOnly(t *testing.T) {
	t.Parallel()

	m := RegionMap{
		{Code: "EUROPE", Candidates: []Candidate{{Hash: "H1", Name: "Game (Europe)"}}},
	}
	sel, err := Select(m, DefaultOrder)
	require.NoError(t, err)
	assert.Equal(t, "EUROPE", sel.Region)
	assert.Equal(t, "H1", sel.Candidate.Hash)
}

func TestSelectIgnoresBlankTokens(t *testing.T) {
	t.Parallel()

	m := RegionMap{
		{Code: "USA", Candidates: []Candidate{
			{Hash: "A", Name: "Game (Beta)"},
			{Hash: "B", Name: "Game (Proto)"},
		}},
	}
	sel, err := Select(m, Order{"", "USA", "  "})
	require.NoError(t, err)
	assert.Equal(t, "A", sel.Candidate.Hash)
	assert.False(t, sel.Preferred)
}

func TestSelectNameTokenWithinRegion(t *testing.T) {
	t.Parallel()

	m := RegionMap{
		{Code: "USA", Candidates: []Candidate{
			{Hash: "A", Name: "Game (Beta)"},
			{Hash: "B", Name: "Game (usa, es)"},
			{Hash: "C", Name: "Game (USA)"},
		}},
	}
	sel, err := Select(m, DefaultOrder)
	require.NoError(t, err)
	assert.Equal(t, "B", sel.Candidate.Hash)
	assert.True(t, sel.Preferred)
}

func TestSelectDefaultsToFirstCandidate(t *testing.T) {
	t.Parallel()

	m := RegionMap{
		{Code: "JPN", Candidates: []Candidate{
			{Hash: "A", Name: "Gēmu"},
			{Hash: "B", Name: "Gēmu (Rev 1)"},
		}},
	}
	sel, err := Select(m, Order{"JPN"})
	require.NoError(t, err)
	assert.Equal(t, "A", sel.Candidate.Hash)
	assert.False(t, sel.Preferred)
}

func TestSelectNilOrderUsesDefault(t *testing.T) {
	t.Parallel()

	m := RegionMap{
		{Code: "WORLD", Candidates: []Candidate{{Hash: "W", Name: "x"}}},
		{Code: "USA", Candidates: []Candidate{{Hash: "U", Name: "x"}}},
	}
	sel, err := Select(m, nil)
	require.NoError(t, err)
	assert.Equal(t, "U", sel.Candidate.Hash)
}

func TestRegionMapJSONKeepsOrder(t *testing.T) {
	t.Parallel()

	in := `{"USA":[{"hash":"U1","name":"Game (USA)"}],"EUROPE":[{"hash":"E1","name":"Game (Europe)"}],"JPN":[]}`
	var m RegionMap
	require.NoError(t, json.Unmarshal([]byte(in), &m))
	assert.Equal(t, []string{"USA", "EUROPE", "JPN"}, m.Codes())

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
	assert.Equal(t, in, string(out))
}

func TestRegionMapHelpers(t *testing.T) {
	t.Parallel()

	var m RegionMap
	m.Add("USA", Candidate{Hash: "U1"})
	m.Add("JPN", Candidate{Hash: "J1"})
	m.Add("USA", Candidate{Hash: "U2"})
	require.Len(t, m, 2)

	got, ok := m.Get("usa")
	require.True(t, ok)
	assert.Len(t, got, 2)

	_, ok = m.Get("EUROPE")
	assert.False(t, ok)
}
