package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"kintone-catalog/internal/config"
	"kintone-catalog/internal/handler"
	"kintone-catalog/internal/imageproxy"
	"kintone-catalog/internal/model"
	"kintone-catalog/internal/repository"
	"kintone-catalog/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rewriteTransport sends every request to target regardless of its URL, so
// the image fetcher can be pointed at a local server.
type rewriteTransport struct {
	target *url.URL
	seen   []*url.URL
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	original := *req.URL
	t.seen = append(t.seen, &original)

	out := req.Clone(req.Context())
	out.URL.Scheme = t.target.Scheme
	out.URL.Host = t.target.Host
	out.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(out)
}

type testServer struct {
	handler    http.Handler
	kintoneReq chan url.Values
	images     *rewriteTransport
}

func newTestServer(t *testing.T, kintone http.HandlerFunc, images http.HandlerFunc) *testServer {
	t.Helper()
	logger := zerolog.Nop()

	kintoneQueries := make(chan url.Values, 4)
	kintoneServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kintoneQueries <- r.URL.Query()
		kintone(w, r)
	}))
	t.Cleanup(kintoneServer.Close)

	imageServer := httptest.NewServer(images)
	t.Cleanup(imageServer.Close)
	imageURL, err := url.Parse(imageServer.URL)
	require.NoError(t, err)
	transport := &rewriteTransport{target: imageURL}

	layout := config.DefaultLayout()
	fields := model.DefaultFieldMapping()

	repo := repository.NewRecordRepository(
		kintoneServer.Client(), kintoneServer.URL+"/k/v1/records.json", "1", "token", fields, logger,
	)
	fetcher := imageproxy.NewFetcher(
		&http.Client{Transport: transport},
		imageproxy.FetcherConfig{Timeout: 5 * time.Second, MaxBytes: 1 << 20},
		logger,
	)

	catalogHandler := handler.NewCatalogHandler(
		service.NewCatalogService(repo, layout.ImageFields, logger), layout, fields, logger,
	)
	imageHandler := handler.NewImageHandler(service.NewImageService(fetcher, logger), logger)

	static := fstest.MapFS{
		"index.html": &fstest.MapFile{Data: []byte("<!doctype html><title>catalog</title>")},
	}

	return &testServer{
		handler:    New(catalogHandler, imageHandler, static, logger),
		kintoneReq: kintoneQueries,
		images:     transport,
	}
}

func (s *testServer) get(target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func kintoneReply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}

func noImages(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected image fetch: %s", r.URL)
	}
}

func TestRouter_Ping(t *testing.T) {
	s := newTestServer(t, kintoneReply(http.StatusOK, `{}`), noImages(t))

	w := s.get("/api/ping")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Search(t *testing.T) {
	body := `{"records":[` +
		`{"$id":{"type":"__ID__","value":"1"}},` +
		`{"$id":{"type":"__ID__","value":"2"}},` +
		`{"$id":{"type":"__ID__","value":"3"}}],"totalCount":"3"}`
	s := newTestServer(t, kintoneReply(http.StatusOK, body), noImages(t))

	w := s.get("/api/search?keyword=ABC&limit=10&offset=0")

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		OK         bool              `json:"ok"`
		TotalCount string            `json:"totalCount"`
		Records    []json.RawMessage `json:"records"`
		NextOffset int               `json:"nextOffset"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "3", resp.TotalCount)
	assert.Len(t, resp.Records, 3)
	assert.Equal(t, 10, resp.NextOffset)

	q := <-s.kintoneReq
	assert.Equal(t, "1", q.Get("app"))
	assert.Equal(t, "true", q.Get("totalCount"))
	assert.Equal(t,
		`商品コード like "ABC" or 商品名 like "ABC" order by 更新日時 desc limit 10 offset 0`,
		q.Get("query"))
}

func TestRouter_Search_InvalidLimit(t *testing.T) {
	s := newTestServer(t, kintoneReply(http.StatusOK, `{}`), noImages(t))

	w := s.get("/api/search?limit=abc")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"ok":false,"error":"invalid limit parameter"}`, w.Body.String())
	assert.Empty(t, s.kintoneReq)
}

func TestRouter_Search_RejectedParameters(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		expectedBody string
	}{
		{
			name:         "Limit above maximum",
			query:        "?limit=9223372036854775807",
			expectedBody: `{"ok":false,"error":"limit must be an integer between 0 and 500"}`,
		},
		{
			name:         "Offset above maximum",
			query:        "?offset=10001",
			expectedBody: `{"ok":false,"error":"offset must be an integer between 0 and 10000"}`,
		},
		{
			name:         "Order with extra clause",
			query:        "?order=" + url.QueryEscape("$id asc limit 500"),
			expectedBody: `{"ok":false,"error":"order must list sortable fields, each optionally followed by asc or desc"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, kintoneReply(http.StatusOK, `{}`), noImages(t))

			w := s.get("/api/search" + tt.query)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			assert.Empty(t, s.kintoneReq)
		})
	}
}

func TestRouter_Record(t *testing.T) {
	t.Run("No match", func(t *testing.T) {
		s := newTestServer(t, kintoneReply(http.StatusOK, `{"records":[]}`), noImages(t))

		w := s.get("/api/record?id=999")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"ok":true,"record":null}`, w.Body.String())

		q := <-s.kintoneReq
		assert.Equal(t, "$id = 999 limit 1", q.Get("query"))
		assert.Empty(t, q.Get("totalCount"))
	})

	t.Run("Missing id", func(t *testing.T) {
		s := newTestServer(t, kintoneReply(http.StatusOK, `{}`), noImages(t))

		w := s.get("/api/record")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"ok":false,"error":"id is required"}`, w.Body.String())
		assert.Empty(t, s.kintoneReq)
	})

	t.Run("Upstream error passed through", func(t *testing.T) {
		s := newTestServer(t,
			kintoneReply(http.StatusForbidden, `{"code":"GAIA_NO01","message":"no permission"}`),
			noImages(t))

		w := s.get("/api/record?id=1")

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t,
			`{"ok":false,"error":{"code":"GAIA_NO01","message":"no permission"}}`,
			w.Body.String())
	})
}

func TestRouter_Layout(t *testing.T) {
	s := newTestServer(t, kintoneReply(http.StatusOK, `{}`), noImages(t))

	w := s.get("/api/layout")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"imageFields":["DropBox"]`)
}

func TestRouter_UnknownAPIPath(t *testing.T) {
	s := newTestServer(t, kintoneReply(http.StatusOK, `{}`), noImages(t))

	for _, path := range []string{"/api/unknown", "/api/search/extra"} {
		w := s.get(path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.JSONEq(t, `{"ok":false,"error":"Not Found"}`, w.Body.String(), path)
	}
}

func TestRouter_StaticFiles(t *testing.T) {
	s := newTestServer(t, kintoneReply(http.StatusOK, `{}`), noImages(t))

	w := s.get("/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>catalog</title>")
}

func TestRouter_ImageRelay(t *testing.T) {
	t.Run("Relayed", func(t *testing.T) {
		s := newTestServer(t, kintoneReply(http.StatusOK, `{}`), func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, imageproxy.UserAgent, r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write([]byte("GIF89a"))
		})

		w := s.get("/img?url=" + url.QueryEscape("https://www.dropbox.com/s/x/anim.gif?dl=0"))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "GIF89a", w.Body.String())
		assert.Equal(t, "image/gif", w.Header().Get("Content-Type"))
		assert.Equal(t, "public, max-age=86400", w.Header().Get("Cache-Control"))
		assert.Equal(t, "inline; filename*=UTF-8''anim.gif", w.Header().Get("Content-Disposition"))

		require.Len(t, s.images.seen, 1)
		fetched := s.images.seen[0]
		assert.Equal(t, "https", fetched.Scheme)
		assert.Equal(t, imageproxy.DirectContentHost, fetched.Host)
		assert.Equal(t, "/s/x/anim.gif", fetched.Path)
		assert.Equal(t, "1", fetched.Query().Get("raw"))
		assert.False(t, fetched.Query().Has("dl"))
	})

	t.Run("Unsupported host makes no request", func(t *testing.T) {
		s := newTestServer(t, kintoneReply(http.StatusOK, `{}`), noImages(t))

		w := s.get("/img?url=" + url.QueryEscape("https://dropbox.com.evil.net/a.png"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "unsupported host", strings.TrimSpace(w.Body.String()))
		assert.Empty(t, s.images.seen)
	})

	t.Run("Upstream status passed through", func(t *testing.T) {
		s := newTestServer(t, kintoneReply(http.StatusOK, `{}`), func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		w := s.get("/img?url=" + url.QueryEscape("https://www.dropbox.com/s/x/gone.png"))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "image fetch failed", strings.TrimSpace(w.Body.String()))
	})
}
