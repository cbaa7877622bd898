package resolver

import (
	"fmt"
	"strings"
)

// Bucket identifies an archive mirror with its own base URL and path layout.
type Bucket int

const (
	BucketDefault Bucket = iota
	BucketSNES
	BucketNES
	BucketPSP
	BucketPS1
	BucketPS2AM
	BucketPS2NZ
	BucketArcade
	BucketSega
)

var bucketNames = map[Bucket]string{
	BucketDefault: "DEFAULT",
	BucketSNES:    "SNES",
	BucketNES:     "NES",
	BucketPSP:     "PSP",
	BucketPS1:     "PS1",
	BucketPS2AM:   "PS2_A_M",
	BucketPS2NZ:   "PS2_N_Z",
	BucketArcade:  "ARCADE",
	BucketSega:    "SEGA_GENERIC",
}

func (b Bucket) String() string {
	if name, ok := bucketNames[b]; ok {
		return name
	}
	return fmt.Sprintf("Bucket(%d)", int(b))
}

// MarshalText encodes the bucket by name.
func (b Bucket) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText accepts any name ParseBucket does.
func (b *Bucket) UnmarshalText(text []byte) error {
	v, err := ParseBucket(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// ParseBucket maps a bucket name (case-insensitive) back to a Bucket.
// "DC" is accepted as an alias for DEFAULT.
func ParseBucket(name string) (Bucket, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "DC" {
		return BucketDefault, nil
	}
	for b, n := range bucketNames {
		if n == name {
			return b, nil
		}
	}
	return BucketDefault, fmt.Errorf("unknown bucket %q", name)
}

// Buckets lists every bucket in display order.
func Buckets() []Bucket {
	return []Bucket{
		BucketSNES, BucketNES, BucketPSP, BucketPS1, BucketPS2AM,
		BucketPS2NZ, BucketArcade, BucketSega, BucketDefault,
	}
}

// DefaultMirrors returns the mirror root for every bucket. Each root ends
// with a slash and is already escaped.
func DefaultMirrors() map[Bucket]string {
	return map[Bucket]string{
		BucketArcade:  "https://archive.org/download/fbnarcade-fullnonmerged/arcade/",
		BucketSNES:    "https://archive.org/download/retroachievements_collection_SNES-Super_Famicom/",
		BucketNES:     "https://archive.org/download/retroachievements_collection_NES-Famicom/",
		BucketPSP:     "https://dn720005.ca.archive.org/0/items/retroachievements_collection_PlayStation_Portable/PlayStation%20Portable/",
		BucketPS1:     "https://archive.org/download/retroachievements_collection_PlayStation/PlayStation/",
		BucketPS2AM:   "https://archive.org/download/retroachievements_collection_PlayStation_2_A-M/PlayStation%202/",
		BucketPS2NZ:   "https://archive.org/download/retroachievements_collection_PlayStation_2_N-Z/PlayStation%202/",
		BucketSega:    "https://archive.org/download/retroachievements_collection_v5/",
		BucketDefault: "https://archive.org/download/retroachievements_collection_v5/",
	}
}
