package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	m := DefaultMirrors()
	tests := []struct {
		name   string
		raw    string
		bucket Bucket
		url    string
	}{
		{
			name:   "snes strips platform folder",
			raw:    "SNES-Super Famicom/Foo (USA).sfc",
			bucket: BucketSNES,
			url:    m[BucketSNES] + "Foo%20%28USA%29.sfc",
		},
		{
			name:   "backslashes are normalized",
			raw:    `SNES-Super Famicom\Foo (USA).sfc`,
			bucket: BucketSNES,
			url:    m[BucketSNES] + "Foo%20%28USA%29.sfc",
		},
		{
			name:   "nes",
			raw:    "NES-Famicom/Bar!.nes",
			bucket: BucketNES,
			url:    m[BucketNES] + "Bar%21.nes",
		},
		{
			name:   "ps1 folder is not doubled",
			raw:    "PlayStation/Foo/bar.zip",
			bucket: BucketPS1,
			url:    m[BucketPS1] + "Foo/bar.zip",
		},
		{
			name:   "ps1 repeated folder collapses",
			raw:    "PlayStation/PlayStation/Foo/bar.zip",
			bucket: BucketPS1,
			url:    m[BucketPS1] + "Foo/bar.zip",
		},
		{
			name:   "ps2 a-m",
			raw:    "PlayStation 2/Gran Turismo 4/Gran Turismo 4 (USA).chd",
			bucket: BucketPS2AM,
			url:    m[BucketPS2AM] + "Gran%20Turismo%204/Gran%20Turismo%204%20%28USA%29.chd",
		},
		{
			name:   "ps2 n-z",
			raw:    "PlayStation 2/Okami/Okami (USA).chd",
			bucket: BucketPS2NZ,
			url:    m[BucketPS2NZ] + "Okami/Okami%20%28USA%29.chd",
		},
		{
			name:   "ps2 uses file name letter, not folder letter",
			raw:    "PlayStation 2/Alpha/Zeta.iso",
			bucket: BucketPS2NZ,
			url:    m[BucketPS2NZ] + "Alpha/Zeta.iso",
		},
		{
			name:   "ps2 lower case letter",
			raw:    "PlayStation 2/x/m.iso",
			bucket: BucketPS2AM,
			url:    m[BucketPS2AM] + "x/m.iso",
		},
		{
			name:   "ps2 digit falls back to n-z",
			raw:    "PlayStation 2/007/007 Nightfire.iso",
			bucket: BucketPS2NZ,
			url:    m[BucketPS2NZ] + "007/007%20Nightfire.iso",
		},
		{
			name:   "ps2 single segment",
			raw:    "PlayStation 2 Demo.iso",
			bucket: BucketPS2NZ,
			url:    m[BucketPS2NZ] + "PlayStation%202%20Demo.iso",
		},
		{
			name:   "psp",
			raw:    "PlayStation Portable/Lumines/Lumines (USA).iso",
			bucket: BucketPSP,
			url:    m[BucketPSP] + "Lumines/Lumines%20%28USA%29.iso",
		},
		{
			name:   "psp single segment",
			raw:    "PlayStation Portable.iso",
			bucket: BucketPSP,
			url:    m[BucketPSP] + "PlayStation%20Portable.iso",
		},
		{
			name:   "genesis keeps full path",
			raw:    "Genesis-Mega Drive/Sonic (World).md",
			bucket: BucketSega,
			url:    m[BucketSega] + "Genesis-Mega%20Drive/Sonic%20%28World%29.md",
		},
		{
			name:   "sega cd",
			raw:    "Sega CD/Snatcher (USA).chd",
			bucket: BucketSega,
			url:    m[BucketSega] + "Sega%20CD/Snatcher%20%28USA%29.chd",
		},
		{
			name:   "arcade strips leading folder",
			raw:    "arcade/sf2.zip",
			bucket: BucketArcade,
			url:    m[BucketArcade] + "sf2.zip",
		},
		{
			name:   "arcade capitalized",
			raw:    `Arcade\mslug.zip`,
			bucket: BucketArcade,
			url:    m[BucketArcade] + "mslug.zip",
		},
		{
			name:   "default",
			raw:    "Game Boy/Tetris (World) (Rev 1).gb",
			bucket: BucketDefault,
			url:    m[BucketDefault] + "Game%20Boy/Tetris%20%28World%29%20%28Rev%201%29.gb",
		},
		{
			name:   "leading slash dropped",
			raw:    "/Game Boy/a.gb",
			bucket: BucketDefault,
			url:    m[BucketDefault] + "Game%20Boy/a.gb",
		},
		{
			name:   "arcade in a file name is not a folder",
			raw:    "Game Boy/arcade",
			bucket: BucketDefault,
			url:    m[BucketDefault] + "Game%20Boy/arcade",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Resolve(tt.raw)
			assert.Equal(t, tt.bucket, got.Bucket)
			assert.Equal(t, tt.url, got.URL)
		})
	}
}

func TestRuleOrder(t *testing.T) {
	t.Parallel()

	var names []string
	for _, r := range Rules() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"SNES", "NES", "PSP", "PS2", "PS1", "SEGA", "ARCADE", "DEFAULT"}, names)
}

func TestPS1RuleExcludesOtherPlayStations(t *testing.T) {
	t.Parallel()

	var ps1 Rule
	for _, r := range Rules() {
		if r.Name == "PS1" {
			ps1 = r
		}
	}
	require.NotNil(t, ps1.Match)
	assert.True(t, ps1.Match("PlayStation/x.bin"))
	assert.False(t, ps1.Match("PlayStation 2/x.iso"))
	assert.False(t, ps1.Match("PlayStation Portable/x.iso"))
}

func TestNewOverridesMirror(t *testing.T) {
	t.Parallel()

	r := New(map[Bucket]string{BucketDefault: "https://mirror.example/files"})
	assert.Equal(t, "https://mirror.example/files/", r.Mirror(BucketDefault))
	assert.Equal(t, "https://mirror.example/files/a%20b.bin", r.Resolve("a b.bin").URL)
	// Untouched buckets keep their defaults.
	assert.Equal(t, DefaultMirrors()[BucketSNES], r.Mirror(BucketSNES))
}

func TestEscapePath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a%20b/c%28d%29%21.zip", EscapePath("a b/c(d)!.zip"))
	assert.Equal(t, "keep-_.~", EscapePath("keep-_.~"))
	assert.Equal(t, "already%20done", EscapePath("already%20done"))
	assert.Equal(t, "100%25", EscapePath("100%"))
	assert.Equal(t, "%25zz", EscapePath("%zz"))
	assert.Equal(t, "caf%C3%A9", EscapePath("café"))
}

func TestBucketNames(t *testing.T) {
	t.Parallel()

	for _, b := range Buckets() {
		parsed, err := ParseBucket(b.String())
		require.NoError(t, err)
		assert.Equal(t, b, parsed)
	}
	b, err := ParseBucket("dc")
	require.NoError(t, err)
	assert.Equal(t, BucketDefault, b)

	_, err = ParseBucket("GAMECUBE")
	require.Error(t, err)
}
