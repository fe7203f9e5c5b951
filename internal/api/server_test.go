package api

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookskyapp/booksky-server/internal/classify"
	"github.com/bookskyapp/booksky-server/internal/domain"
	"github.com/bookskyapp/booksky-server/internal/extract"
	"github.com/bookskyapp/booksky-server/internal/http/response"
	"github.com/bookskyapp/booksky-server/internal/id"
	"github.com/bookskyapp/booksky-server/internal/pipeline"
	"github.com/bookskyapp/booksky-server/internal/ratelimit"
	"github.com/bookskyapp/booksky-server/internal/resolve"
	"github.com/bookskyapp/booksky-server/internal/search"
	"github.com/bookskyapp/booksky-server/internal/service"
	"github.com/bookskyapp/booksky-server/internal/store/sqlite"
	"github.com/bookskyapp/booksky-server/internal/taxonomy"
	"github.com/bookskyapp/booksky-server/internal/validation"
)

// setupTestServer creates a test server with all dependencies over a
// fresh store with the default taxonomy seeded.
func setupTestServer(t *testing.T) (*Server, *sqlite.Store) {
	t.Helper()
	return setupTestServerWithLimiter(t, ratelimit.New(1000, 1000))
}

func setupTestServerWithLimiter(t *testing.T, limiter *ratelimit.KeyedRateLimiter) (*Server, *sqlite.Store) {
	t.Helper()
	ctx := context.Background()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	for _, sig := range taxonomy.Defaults {
		g := &domain.Genre{
			Name:        sig.Name,
			Slug:        sig.Slug,
			Description: sig.Description,
			Priority:    sig.Priority,
			Fallback:    sig.Fallback,
		}
		g.ID = id.MustGenerate("genre")
		g.InitTimestamps()
		require.NoError(t, st.CreateGenre(ctx, g))
	}

	index, err := search.NewBookIndex(search.Options{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	coordinator := pipeline.New(
		st,
		extract.New(0.40),
		resolve.New(st, index, logger, resolve.Options{FuzzyThreshold: 0.85, CreationThreshold: 0.75}),
		classify.New(taxonomy.Defaults, 1.0),
		index,
		logger,
	)

	ingestService := service.NewIngestService(st, coordinator, validation.New(), 2, logger)
	catalogService := service.NewCatalogService(st, index, logger)

	return NewServer(ingestService, catalogService, limiter, logger), st
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestHealthCheck(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
}

func TestClassifySkeetEndpoint(t *testing.T) {
	srv, st := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/skeets/classify", service.RawSkeet{
		Handle:   "reader.bsky.social",
		Text:     "Just finished 'Project Hail Mary', glorious sci-fi",
		URI:      "at://did:plc:t/app.bsky.feed.post/1",
		PostedAt: time.Now(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decodeEnvelope(t, rec)
	require.True(t, env.Success)

	shelf, err := st.ListShelf(context.Background())
	require.NoError(t, err)
	require.Len(t, shelf, 1)
	assert.Equal(t, "science-fiction", shelf[0].Genre.Slug)
	assert.Equal(t, "Project Hail Mary", shelf[0].Book.Title)
}

func TestClassifySkeetInvalidBody(t *testing.T) {
	srv, _ := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/skeets/classify", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClassifySkeetMissingFields(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/skeets/classify", service.RawSkeet{Text: "no uri"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestBatchEndpoint(t *testing.T) {
	srv, _ := setupTestServer(t)

	body := map[string]any{
		"skeets": []service.RawSkeet{
			{Text: "Just finished 'Dune', a classic", URI: "at://b/1", PostedAt: time.Now()},
			{Text: "no titles here, just vibes", URI: "at://b/2", PostedAt: time.Now()},
		},
	}
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/skeets/ingest", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env struct {
		Data service.BatchResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.NotEmpty(t, env.Data.BatchID)
	assert.Equal(t, 2, env.Data.Received)
	assert.Equal(t, 1, env.Data.Linked)
	assert.Equal(t, 1, env.Data.Dropped)
}

func TestIngestBatchEmpty(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/skeets/ingest", map[string]any{"skeets": []service.RawSkeet{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListBooksAndGetBook(t *testing.T) {
	srv, st := setupTestServer(t)
	ctx := context.Background()

	b := &domain.Book{Title: "Dune", TitleKey: "dune"}
	b.ID = id.MustGenerate("book")
	b.InitTimestamps()
	require.NoError(t, st.CreateBook(ctx, b))

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/books/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listEnv struct {
		Data []domain.Book `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listEnv))
	require.Len(t, listEnv.Data, 1)
	assert.Equal(t, "Dune", listEnv.Data[0].Title)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/books/"+b.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/books/book-missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListGenres(t *testing.T) {
	srv, _ := setupTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/genres", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data []domain.Genre `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Data, len(taxonomy.Defaults))
	assert.Equal(t, "science-fiction", env.Data[0].Slug)
}

func TestSearchEndpoint(t *testing.T) {
	srv, _ := setupTestServer(t)

	// Index through the pipeline.
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/skeets/classify", service.RawSkeet{
		Text:     "Just finished 'The Fifth Season', fantasy perfection",
		URI:      "at://s/1",
		PostedAt: time.Now(),
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/search?q=fifth+season", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data []search.Candidate `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotEmpty(t, env.Data)
	assert.Equal(t, "The Fifth Season", env.Data[0].Title)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestRateLimited(t *testing.T) {
	srv, _ := setupTestServerWithLimiter(t, ratelimit.New(0.1, 1))

	first := doJSON(t, srv, http.MethodPost, "/api/v1/skeets/classify", service.RawSkeet{
		Text: "Just finished 'Dune' again", URI: "at://r/1", PostedAt: time.Now(),
	})
	require.Equal(t, http.StatusOK, first.Code)

	second := doJSON(t, srv, http.MethodPost, "/api/v1/skeets/classify", service.RawSkeet{
		Text: "Just finished 'Dune' again", URI: "at://r/2", PostedAt: time.Now(),
	})
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
