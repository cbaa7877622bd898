// Package lookup ties the catalog, resolver and preference selector together:
// a hash or a wish-list game goes in, a download URL comes out.
package lookup

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/JohnDeved/rahash/internal/catalog"
	"github.com/JohnDeved/rahash/internal/preference"
	"github.com/JohnDeved/rahash/internal/resolver"
	"github.com/JohnDeved/rahash/internal/wishlist"
)

// Finder looks hashes up in a catalog. *catalog.Catalog, *catalog.Index and
// *catalog.Handle all satisfy it.
type Finder interface {
	FindEntry(hash string) (catalog.Match, error)
}

// Result describes one resolved hash.
type Result struct {
	Title     string          `json:"title,omitempty"`
	Console   string          `json:"console,omitempty"`
	Hash      string          `json:"hash"`
	Region    string          `json:"region,omitempty"`
	BucketID  string          `json:"bucket_id"`
	Path      string          `json:"path"`
	Platform  resolver.Bucket `json:"platform"`
	URL       string          `json:"url"`
	Preferred bool            `json:"preferred"`
}

// Service answers lookups.
type Service struct {
	finder   Finder
	resolver *resolver.Resolver
	order    preference.Order
}

// New returns a Service. A nil resolver uses the default mirrors and a nil
// order uses preference.DefaultOrder.
func New(f Finder, r *resolver.Resolver, order preference.Order) *Service {
	if r == nil {
		r = resolver.New(nil)
	}
	if len(order) == 0 {
		order = preference.DefaultOrder
	}
	return &Service{finder: f, resolver: r, order: order}
}

// Order returns the region preference in use.
func (s *Service) Order() preference.Order {
	return s.order
}

// ByHash resolves a single hash. Errors wrap catalog.ErrHashNotFound or
// catalog.ErrCatalogUnavailable.
func (s *Service) ByHash(hash string) (Result, error) {
	m, err := s.finder.FindEntry(hash)
	if err != nil {
		return Result{}, err
	}
	res := s.resolver.Resolve(m.Path)
	return Result{
		Hash:      m.Hash,
		BucketID:  m.BucketID,
		Path:      m.Path,
		Platform:  res.Bucket,
		URL:       res.URL,
		Preferred: true,
	}, nil
}

// ByGame picks the preferred hash of g and resolves it.
func (s *Service) ByGame(g wishlist.Game) (Result, error) {
	sel, err := preference.Select(g.Regions, s.order)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", g.Title, err)
	}
	r, err := s.ByHash(sel.Candidate.Hash)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", g.Title, err)
	}
	r.Title = g.Title
	r.Console = g.Console
	r.Region = sel.Region
	r.Preferred = sel.Preferred
	if !sel.Preferred {
		log.Warn().
			Str("title", g.Title).
			Str("region", sel.Region).
			Str("hash", sel.Candidate.Hash).
			Msg("no preferred region tag, using first candidate")
	}
	return r, nil
}

// Miss is a game that could not be resolved.
type Miss struct {
	Title string `json:"title"`
	Err   string `json:"error"`
}

// Report summarises a batch run.
type Report struct {
	Resolved    []Result `json:"resolved"`
	Missing     []Miss   `json:"missing"`
	Unpreferred []string `json:"unpreferred"`
}

// MissingTitles lists the titles that failed, in order.
func (r *Report) MissingTitles() []string {
	out := make([]string, len(r.Missing))
	for i, m := range r.Missing {
		out[i] = m.Title
	}
	return out
}

// Batch resolves every game in order. A failing game is recorded as a Miss
// and the rest are still processed. When the catalog itself is unavailable
// every game ends up in Missing and that error is also returned, after the
// report is complete.
func (s *Service) Batch(games []wishlist.Game) (*Report, error) {
	rep := &Report{}
	var catalogErr error
	for _, g := range games {
		r, err := s.ByGame(g)
		if err != nil {
			if errors.Is(err, catalog.ErrCatalogUnavailable) && catalogErr == nil {
				catalogErr = err
			}
			log.Info().Str("title", g.Title).Err(err).Msg("game not resolved")
			rep.Missing = append(rep.Missing, Miss{Title: g.Title, Err: err.Error()})
			continue
		}
		rep.Resolved = append(rep.Resolved, r)
		if !r.Preferred {
			rep.Unpreferred = append(rep.Unpreferred, g.Title)
		}
	}
	return rep, catalogErr
}

// WriteMissingReport writes one title per line to path.
func WriteMissingReport(fs afero.Fs, path string, titles []string) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	for _, t := range titles {
		buf.WriteString(t)
		buf.WriteByte('\n')
	}
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing missing report: %w", err)
	}
	return nil
}
