package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

const samplePage = `<!DOCTYPE html>
<html><head><title>Weekly update</title></head><body>
<article>
<p>Rates rose during the quarter, and lending slowed down noticeably across most regions. Banks tightened their standards for both consumer and commercial credit, citing funding costs and a weaker economic outlook for the remainder of the year.</p>
<p>Inflation eased across most advanced economies, according to the latest figures. Core measures, which strip out food and energy, moved down for a third consecutive month, giving central banks room to pause further increases.</p>
<p>Markets were mixed, with equities flat and bond yields drifting slightly lower. Investors weighed resilient labor data against softer manufacturing surveys, and currency moves stayed muted through the week.</p>
</article>
</body></html>`

func newFetcher() *Fetcher {
	return NewFetcher(Config{Timeout: 5 * time.Second, MaxRetries: 2})
}

func TestFetch_ExtractsParagraphText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	doc, err := newFetcher().Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, server.URL, doc.Source)
	assert.Contains(t, doc.Content, "Inflation eased across most advanced economies")
	assert.NotContains(t, doc.Content, "<p>")
	assert.NotContains(t, doc.Content, "\n")
}

func TestFetch_PlainTextPassedThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("Rates rose.\n\nInflation   eased."))
	}))
	defer server.Close()

	doc, err := newFetcher().Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Rates rose. Inflation eased.", doc.Content)
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("Recovered content."))
	}))
	defer server.Close()

	doc, err := newFetcher().Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "Recovered content.", doc.Content)
}

func TestFetch_NotFoundFailsWithoutRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newFetcher().Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestFetch_RetriesExhausted(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newFetcher().Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Equal(t, 3, calls) // initial attempt + 2 retries
}

func TestFetch_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
	}))
	defer server.Close()

	_, err := newFetcher().Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, domain.ErrNoContent)
}

func TestCachedFetch_ReadsAndWritesCache(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("Fetched once."))
	}))
	defer server.Close()

	cachePath := filepath.Join(t.TempDir(), "cached_content.txt")
	f := newFetcher()

	doc, err := f.CachedFetch(context.Background(), server.URL, cachePath)
	require.NoError(t, err)
	assert.Equal(t, "Fetched once.", doc.Content)
	assert.Equal(t, 1, calls)

	// second run hits the cache, not the network
	doc, err = f.CachedFetch(context.Background(), server.URL, cachePath)
	require.NoError(t, err)
	assert.Equal(t, "Fetched once.", doc.Content)
	assert.Equal(t, 1, calls)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte("Local   text.\n"), 0o644))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Local text.", doc.Content)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
