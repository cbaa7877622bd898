package catalog

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Index answers lookups against a catalog that may have failed to load.
// A failed load is remembered so that lookups report ErrCatalogUnavailable
// instead of a plain miss.
type Index struct {
	cat *Catalog
	err error
}

// NewIndex wraps a loaded catalog.
func NewIndex(c *Catalog) *Index {
	if c == nil {
		return Unavailable(errors.New("no catalog"))
	}
	return &Index{cat: c}
}

// Unavailable returns an index whose every lookup fails with err.
func Unavailable(err error) *Index {
	return &Index{err: err}
}

// Err returns the load error, if any.
func (ix *Index) Err() error {
	if ix.err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrCatalogUnavailable, ix.err)
}

// FindEntry looks hash up.
func (ix *Index) FindEntry(hash string) (Match, error) {
	if err := ix.Err(); err != nil {
		return Match{}, err
	}
	return ix.cat.FindEntry(hash)
}

// Find returns the raw path for hash.
func (ix *Index) Find(hash string) (string, error) {
	m, err := ix.FindEntry(hash)
	if err != nil {
		return "", err
	}
	return m.Path, nil
}

// Handle owns the catalog for the lifetime of a process and can reload it
// from disk. Lookups read the current index without locking.
type Handle struct {
	fs   afero.Fs
	path string
	cur  atomic.Pointer[Index]
}

// Open loads the catalog at path. A load failure does not fail Open: the
// handle reports it through lookups and Err until a Reload succeeds.
func Open(fs afero.Fs, path string) *Handle {
	h := &Handle{fs: fs, path: path}
	if err := h.Reload(); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("catalog unavailable")
	}
	return h
}

// Reload reads the catalog again and swaps it in. On failure the error is
// returned and a previously loaded catalog keeps serving lookups; a handle
// that never loaded one stays unavailable.
func (h *Handle) Reload() error {
	c, err := LoadFile(h.fs, h.path)
	if err != nil {
		if cur := h.cur.Load(); cur == nil || cur.Err() != nil {
			h.cur.Store(Unavailable(err))
		} else {
			log.Warn().Err(err).Str("path", h.path).Msg("reload failed, keeping loaded catalog")
		}
		return fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	h.cur.Store(NewIndex(c))
	return nil
}

// Path returns the file the handle loads from.
func (h *Handle) Path() string {
	return h.path
}

// Index returns the current index.
func (h *Handle) Index() *Index {
	return h.cur.Load()
}

// Err reports why the catalog is unavailable, or nil.
func (h *Handle) Err() error {
	return h.Index().Err()
}

// FindEntry looks hash up in the current index.
func (h *Handle) FindEntry(hash string) (Match, error) {
	return h.Index().FindEntry(hash)
}

// Find returns the raw path for hash from the current index.
func (h *Handle) Find(hash string) (string, error) {
	return h.Index().Find(hash)
}
