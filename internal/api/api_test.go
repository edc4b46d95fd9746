package api_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/rockaxx/freegames/internal/aggregator"
	"github.com/rockaxx/freegames/internal/api"
	"github.com/rockaxx/freegames/internal/cache"
	"github.com/rockaxx/freegames/internal/fetcher"
	"github.com/rockaxx/freegames/internal/game"
	"github.com/rockaxx/freegames/internal/logger"
	"github.com/rockaxx/freegames/internal/metrics"
	"github.com/rockaxx/freegames/internal/sources"
	"github.com/rockaxx/freegames/internal/sources/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router  *gin.Engine
	game3rb *mocks.MockAdapter
}

func newEnv(t *testing.T, imageHosts ...string) *testEnv {
	t.Helper()

	ctrl := gomock.NewController(t)
	rb := mocks.NewMockAdapter(ctrl)
	rb.EXPECT().Source().Return(game.Game3RB).AnyTimes()
	rb.EXPECT().Hosts().Return([]string{"game3rb.com"}).AnyTimes()
	rb.EXPECT().Homepage().Return("https://game3rb.com/").AnyTimes()
	rb.EXPECT().Concurrency().Return(5).AnyTimes()

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	registry := sources.NewRegistry(rb)
	store := cache.NewMemoryStore()
	agg := aggregator.New(registry.All(), aggregator.Config{}, logger.NewNop(), aggregator.WithMetrics(m))
	f := fetcher.New(fetcher.Config{}, store, logger.NewNop(), fetcher.WithMetrics(m))

	h := api.NewHandler(agg, registry, f, store,
		api.Config{ImageHosts: imageHosts},
		logger.NewNop(),
		api.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	)

	router := gin.New()
	h.Register(router)
	return &testEnv{router: router, game3rb: rb}
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
	return w
}

func hadesStub() game.Stub {
	return game.Stub{
		Source:    game.Game3RB,
		Title:     "Hades II",
		URL:       "https://game3rb.com/hades-ii/",
		Thumbnail: "https://game3rb.com/hades-ii.jpg",
	}
}

func TestSearchStream_WritesItemsThenDone(t *testing.T) {
	t.Parallel()

	env := newEnv(t)
	st := hadesStub()
	rec := game.Record{Stub: st, Version: "v1.0.2"}
	env.game3rb.EXPECT().Search(gomock.Any(), "hades ii").Return([]game.Stub{st}, nil)
	env.game3rb.EXPECT().Detail(gomock.Any(), st).Return(rec, nil)

	w := env.get("/api/search/stream?q=" + url.QueryEscape("hades ii"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "event: item\ndata: {\"source\":\"Game3RB\",\"item\":{"), body)
	assert.Contains(t, body, `"version":"v1.0.2"`)
	assert.Contains(t, body, `"screenshots":[]`)
	assert.True(t, strings.HasSuffix(body, "event: done\ndata: {\"items\":1}\n\n"), body)
	assert.Equal(t, 1, strings.Count(body, "event: done"))
}

func TestSearchStream_EmptyQuery(t *testing.T) {
	t.Parallel()

	w := newEnv(t).get("/api/search/stream?q=")
	assert.Equal(t, "event: done\ndata: {\"items\":0}\n\n", w.Body.String())
}

func TestCatalogStream(t *testing.T) {
	t.Parallel()

	env := newEnv(t)
	env.game3rb.EXPECT().Listing(gomock.Any(), "https://game3rb.com/").Return([]game.Stub{
		hadesStub(),
		{Source: game.Game3RB, Title: "Balatro", URL: "https://game3rb.com/balatro/"},
	}, nil)

	body := env.get("/api/all/stream").Body.String()
	assert.Equal(t, 2, strings.Count(body, "event: item\n"))
	assert.True(t, strings.HasSuffix(body, "event: done\ndata: {\"items\":2}\n\n"), body)
}

func TestSearch_ReturnsJSONArray(t *testing.T) {
	t.Parallel()

	env := newEnv(t)
	st := hadesStub()
	env.game3rb.EXPECT().Search(gomock.Any(), "hades").Return([]game.Stub{st}, nil)
	env.game3rb.EXPECT().Detail(gomock.Any(), st).Return(game.Record{}, errors.New("timeout"))

	w := env.get("/api/search?q=hades")
	require.Equal(t, http.StatusOK, w.Code)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "Game3RB", records[0]["src"])
	assert.Equal(t, "Hades II", records[0]["title"])
	assert.Equal(t, "https://game3rb.com/hades-ii.jpg", records[0]["poster"])
}

func TestSearch_EmptyQueryIsEmptyArray(t *testing.T) {
	t.Parallel()

	w := newEnv(t).get("/api/search")
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestScrape(t *testing.T) {
	t.Parallel()

	t.Run("listing is cached", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t)
		env.game3rb.EXPECT().
			Listing(gomock.Any(), "https://game3rb.com/category/action/").
			Return([]game.Stub{hadesStub()}, nil).
			Times(1)

		path := "/api/scrape?url=" + url.QueryEscape("https://game3rb.com/category/action/")
		first := env.get(path)
		second := env.get(path)

		require.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, first.Body.String(), second.Body.String())

		var resp api.ListingResponse
		require.NoError(t, json.Unmarshal(first.Body.Bytes(), &resp))
		assert.Equal(t, "https://game3rb.com/category/action/", resp.Source)
		assert.Equal(t, 1, resp.Count)
		assert.Equal(t, []game.Stub{hadesStub()}, resp.Items)
	})

	t.Run("unknown domain", func(t *testing.T) {
		t.Parallel()
		w := newEnv(t).get("/api/scrape?url=" + url.QueryEscape("https://example.com/"))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"error":"unknown domain"}`, w.Body.String())
	})

	t.Run("invalid url", func(t *testing.T) {
		t.Parallel()
		for _, raw := range []string{"", "ftp://game3rb.com/", "/relative/path"} {
			w := newEnv(t).get("/api/scrape?url=" + url.QueryEscape(raw))
			assert.Equal(t, http.StatusBadRequest, w.Code, raw)
		}
	})

	t.Run("upstream failure", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t)
		env.game3rb.EXPECT().Listing(gomock.Any(), "https://game3rb.com/").Return(nil, fetcher.ErrTransient)

		w := env.get("/api/scrape?url=" + url.QueryEscape("https://game3rb.com/"))
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestImageProxy(t *testing.T) {
	t.Parallel()

	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}))
	t.Cleanup(upstream.Close)

	env := newEnv(t, "127.0.0.1")

	w := env.get("/api/img?url=" + url.QueryEscape(upstream.URL+"/poster.png"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=86400", w.Header().Get("Cache-Control"))
	assert.Equal(t, png, w.Body.Bytes())

	w = env.get("/api/img?url=" + url.QueryEscape(upstream.URL+"/missing.png"))
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = env.get("/api/img?url=" + url.QueryEscape("https://evil.example/x.png"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.get("/api/img")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	env := newEnv(t)
	env.game3rb.EXPECT().Search(gomock.Any(), "x").Return(nil, nil)
	env.get("/api/search?q=x")

	w := env.get("/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "freegames_streams_active 0")
}
