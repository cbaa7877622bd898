// Package catalog holds the hash → path catalog and answers lookups by hash.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/JohnDeved/rahash/internal/util"
)

var (
	// ErrCatalogUnavailable means the catalog could not be loaded or parsed.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrHashNotFound means the catalog loaded but holds no usable entry for the hash.
	ErrHashNotFound = errors.New("hash not found")
	// ErrInvalidHash means the query is not a plausible hex digest.
	ErrInvalidHash = errors.New("invalid hash")
)

// Entry maps upper-cased hashes to raw paths. Most entries carry one hash.
type Entry map[string]string

// Bucket is one top-level catalog group, usually a console id.
type Bucket struct {
	ID      string
	Entries []Entry
}

// Match is a successful lookup.
type Match struct {
	BucketID string `json:"bucket_id"`
	Hash     string `json:"hash"`
	Path     string `json:"path"`
}

type location struct {
	bucket int
	entry  int
}

// Catalog is an immutable, ordered set of buckets.
type Catalog struct {
	Buckets []Bucket
	// first occurrence of every hash, in bucket then entry order
	byHash map[string]location
}

// New builds a Catalog from buckets. Entry keys are upper-cased.
func New(buckets []Bucket) *Catalog {
	c := &Catalog{
		Buckets: make([]Bucket, len(buckets)),
		byHash:  make(map[string]location),
	}
	for bi, b := range buckets {
		nb := Bucket{ID: b.ID, Entries: make([]Entry, len(b.Entries))}
		for ei, e := range b.Entries {
			ne := make(Entry, len(e))
			for h, p := range e {
				h = strings.ToUpper(h)
				if _, dup := ne[h]; !dup {
					ne[h] = p
				}
				if _, seen := c.byHash[h]; !seen {
					c.byHash[h] = location{bucket: bi, entry: ei}
				}
			}
			nb.Entries[ei] = ne
		}
		c.Buckets[bi] = nb
	}
	return c
}

// Parse decodes a catalog document of the form
//
//	{"<bucket id>": [{"<HASH>": "<path>"}, ...], ...}
//
// keeping bucket and entry order. Anything but a single object, null
// included, is an error.
func Parse(r io.Reader) (*Catalog, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("parsing catalog: expected object, got %v", tok)
	}

	var buckets []Bucket
	err = util.WalkMembers(dec, func(id string) error {
		b := Bucket{ID: id}
		err := util.WalkArray(dec, func(int) error {
			var raw map[string]*string
			if err := decodeObject(dec, &raw); err != nil {
				return err
			}
			e := make(Entry, len(raw))
			for h, p := range raw {
				if p == nil {
					e[h] = ""
					continue
				}
				e[h] = *p
			}
			b.Entries = append(b.Entries, e)
			return nil
		})
		if err != nil {
			return err
		}
		buckets = append(buckets, b)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing catalog: trailing data after object")
	}
	return New(buckets), nil
}

// decodeObject decodes the next value, which must be a JSON object.
func decodeObject(dec *json.Decoder, v any) error {
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("expected entry object, got %s", truncate(trimmed, 32))
	}
	return json.Unmarshal(trimmed, v)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// LoadFile reads and parses the catalog at path.
func LoadFile(fs afero.Fs, path string) (*Catalog, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("path", path).
		Int("buckets", len(c.Buckets)).
		Int("hashes", c.Len()).
		Msg("catalog loaded")
	return c, nil
}

// Len returns the number of distinct hashes.
func (c *Catalog) Len() int {
	return len(c.byHash)
}

// FindEntry looks hash up case-insensitively.
func (c *Catalog) FindEntry(hash string) (Match, error) {
	h := strings.ToUpper(strings.TrimSpace(hash))
	if h == "" {
		return Match{}, notFound(hash)
	}
	loc, ok := c.byHash[h]
	if !ok {
		return Match{}, notFound(hash)
	}
	b := c.Buckets[loc.bucket]
	p := b.Entries[loc.entry][h]
	if p == "" {
		return Match{}, notFound(hash)
	}
	return Match{BucketID: b.ID, Hash: h, Path: p}, nil
}

// Find returns the raw path stored for hash.
func (c *Catalog) Find(hash string) (string, error) {
	m, err := c.FindEntry(hash)
	if err != nil {
		return "", err
	}
	return m.Path, nil
}

// Each calls fn for every (bucket, hash, path) triple in catalog order.
func (c *Catalog) Each(fn func(bucketID, hash, path string) error) error {
	for _, b := range c.Buckets {
		for _, e := range b.Entries {
			for h, p := range e {
				if err := fn(b.ID, h, p); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func notFound(hash string) error {
	return fmt.Errorf("%w: %q", ErrHashNotFound, hash)
}

// ValidHash reports whether hash is hexadecimal and at least minLen long.
func ValidHash(hash string, minLen int) error {
	if minLen <= 0 {
		minLen = 8
	}
	if len(hash) < minLen {
		return fmt.Errorf("%w: %q is shorter than %d characters", ErrInvalidHash, hash, minLen)
	}
	for i := 0; i < len(hash); i++ {
		c := hash[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return fmt.Errorf("%w: %q is not hexadecimal", ErrInvalidHash, hash)
		}
	}
	return nil
}
