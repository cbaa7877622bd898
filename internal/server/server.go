// Package server exposes hash lookups over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/JohnDeved/rahash/internal/catalog"
	"github.com/JohnDeved/rahash/internal/lookup"
	"github.com/JohnDeved/rahash/internal/preference"
	"github.com/JohnDeved/rahash/internal/resolver"
	"github.com/JohnDeved/rahash/internal/wishlist"
)

const requestTimeout = 30 * time.Second

// Deps are the services the handlers call.
type Deps struct {
	Lookup   *lookup.Service
	Resolver *resolver.Resolver
	// Wishlist loads the current wish list; nil disables /api/wishlist.
	Wishlist func() (*wishlist.Wishlist, error)
	// Reload re-reads the catalog; nil disables POST /api/reload.
	Reload        func() error
	MinHashLength int
}

type handlers struct {
	Deps
}

// NewRouter builds the HTTP routes.
func NewRouter(d Deps) http.Handler {
	if d.Resolver == nil {
		d.Resolver = resolver.New(nil)
	}
	h := &handlers{Deps: d}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Post("/search", h.search)
	r.Route("/api", func(r chi.Router) {
		r.Get("/hash/{hash}", h.hash)
		r.Get("/resolve", h.resolve)
		r.Get("/wishlist/{title}", h.wishlistGame)
		r.Post("/reload", h.reload)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}

// ListenAndServe serves router on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, router http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("http server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}

type searchResponse struct {
	Success     bool   `json:"success"`
	DownloadURL string `json:"download_url,omitempty"`
	Message     string `json:"message,omitempty"`
}

// search is the form endpoint used by the web front end. It accepts the hash
// as search_term, or as hash for older forms.
func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.FormValue("search_term"))
	if term == "" {
		term = strings.TrimSpace(r.FormValue("hash"))
	}
	if err := catalog.ValidHash(term, h.MinHashLength); err != nil {
		writeJSON(w, http.StatusBadRequest, searchResponse{Message: err.Error()})
		return
	}

	res, err := h.Lookup.ByHash(term)
	if err != nil {
		writeJSON(w, statusFor(err), searchResponse{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Success: true, DownloadURL: res.URL})
}

func (h *handlers) hash(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	if err := catalog.ValidHash(hash, h.MinHashLength); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	res, err := h.Lookup.ByHash(hash)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) resolve(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("path")
	if p == "" {
		writeError(w, http.StatusBadRequest, errors.New("path is required"))
		return
	}
	writeJSON(w, http.StatusOK, h.Resolver.Resolve(p))
}

type wishlistMiss struct {
	Error       string                `json:"error"`
	Suggestions []wishlist.Suggestion `json:"suggestions,omitempty"`
}

func (h *handlers) wishlistGame(w http.ResponseWriter, r *http.Request) {
	if h.Wishlist == nil {
		writeError(w, http.StatusNotFound, errors.New("no wish list configured"))
		return
	}
	title := chi.URLParam(r, "title")
	if t, err := url.PathUnescape(title); err == nil {
		title = t
	}

	wl, err := h.Wishlist()
	if wishlist.IsNotExist(err) {
		writeError(w, http.StatusNotFound, errors.New("no wish list yet, run 'rahash wishlist sync'"))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	g, ok := wl.Find(title)
	if !ok {
		writeJSON(w, http.StatusNotFound, wishlistMiss{
			Error:       fmt.Sprintf("game %q not in wish list", title),
			Suggestions: wl.Suggest(title, 5),
		})
		return
	}

	res, err := h.Lookup.ByGame(g)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) reload(w http.ResponseWriter, _ *http.Request) {
	if h.Reload == nil {
		writeError(w, http.StatusNotFound, errors.New("reload not supported"))
		return
	}
	if err := h.Reload(); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrHashNotFound), errors.Is(err, preference.ErrNoCandidates):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrInvalidHash):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("writing response")
	}
}
