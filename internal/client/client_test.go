package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnDeved/rahash/internal/catalog"
)

func TestParseDirectoryListing_TableAndAnchorDedup(t *testing.T) {
	t.Parallel()

	page := `
<html><body>
<table>
  <tr><td><a href="game.zip">game.zip</a></td><td>1.2M</td><td>2026-01-01</td></tr>
</table>
</body></html>`

	entries, err := parseDirectoryListing(strings.NewReader(page), "https://example.com/SNES/")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "game.zip", entries[0].Name)
	assert.Equal(t, "https://example.com/SNES/game.zip", entries[0].URL)
	assert.Equal(t, "1.2M", entries[0].Size)
	assert.Equal(t, "2026-01-01", entries[0].Date)
}

func TestParseDirectoryListing_ArchiveOrgColumns(t *testing.T) {
	t.Parallel()

	page := `
<table class="directory-listing-table">
  <thead><tr><th>Name</th><th>Last modified</th><th>Size</th></tr></thead>
  <tr><td><a href="/download/item/">Go to parent directory</a></td><td></td><td></td></tr>
  <tr><td><a href="Foo%20%28USA%29.sfc">Foo (USA).sfc</a></td><td>04-Jan-2024 10:00</td><td>1.0M</td></tr>
  <tr><td><a href="Sub/">Sub/</a></td><td>04-Jan-2024 10:00</td><td>-</td></tr>
</table>`

	entries, err := parseDirectoryListing(strings.NewReader(page), "https://archive.org/download/item/SNES/")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Foo (USA).sfc", entries[0].Name)
	assert.Equal(t, "https://archive.org/download/item/SNES/Foo%20%28USA%29.sfc", entries[0].URL)
	assert.Equal(t, "1.0M", entries[0].Size)
	assert.Equal(t, "04-Jan-2024 10:00", entries[0].Date)
	assert.False(t, entries[0].IsDir)
	assert.Equal(t, "Sub", entries[1].Name)
	assert.True(t, entries[1].IsDir)
}

func TestParseDirectoryListing_PreListingFallback(t *testing.T) {
	t.Parallel()

	page := `
<html><body><pre>
<a href="?C=N;O=D">Name</a>
<a href="../">Parent Directory</a>
<a href="data:text/html;base64,SGVsbG8=">bad</a>
<a href="Folder/">Folder/</a>
<a href="file%20name.zip">file name.zip</a>
</pre></body></html>`

	entries, err := parseDirectoryListing(strings.NewReader(page), "https://example.com/SNES/")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Folder", entries[0].Name)
	assert.True(t, entries[0].IsDir)
	assert.Equal(t, "file name.zip", entries[1].Name)
	assert.False(t, entries[1].IsDir)
}

func TestListDirectory(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/SNES/", r.URL.Path)
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`<pre><a href="a.sfc">a.sfc</a></pre>`))
	}))
	defer srv.Close()

	entries, err := New(100).ListDirectory(context.Background(), srv.URL+"/SNES")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, srv.URL+"/SNES/a.sfc", entries[0].URL)
}

const catalogDoc = `{"3": [{"AABBCCDD": "SNES-Super Famicom/Foo (USA).sfc"}]}`

func TestFetchCatalogRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			_, _ = w.Write([]byte(`{"3": [`))
		default:
			_, _ = w.Write([]byte(catalogDoc))
		}
	}))
	defer srv.Close()

	c := New(100)
	c.RetryDelay = 0
	data, cat, err := c.FetchCatalog(context.Background(), srv.URL, 5)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.JSONEq(t, catalogDoc, string(data))
	p, err := cat.Find("aabbccdd")
	require.NoError(t, err)
	assert.Equal(t, "SNES-Super Famicom/Foo (USA).sfc", p)
}

func TestFetchCatalogGivesUp(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(100)
	c.RetryDelay = 0
	_, _, err := c.FetchCatalog(context.Background(), srv.URL, 3)
	require.ErrorIs(t, err, catalog.ErrCatalogUnavailable)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.Code)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchCatalogNotFoundStopsEarly(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(100)
	c.RetryDelay = 0
	_, _, err := c.FetchCatalog(context.Background(), srv.URL, 5)
	require.ErrorIs(t, err, catalog.ErrCatalogUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchCatalogCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := New(100).FetchCatalog(ctx, "http://127.0.0.1:1/", 5)
	require.ErrorIs(t, err, context.Canceled)
}
