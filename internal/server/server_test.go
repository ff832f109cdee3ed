package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grahms/markupmsg"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	catalogs := fstest.MapFS{
		"locales/en-US/common.yaml": {Data: []byte("locale: en-US\nnamespace: common\nmessages:\n  greeting: Hello\n")},
		"locales/pt-BR/common.yaml": {Data: []byte("locale: pt-BR\nnamespace: common\nmessages:\n  greeting: Olá\n")},
	}
	bundle, err := markupmsg.LoadBundle(catalogs, "en-US")
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	engine := markupmsg.NewEngine(nil,
		markupmsg.WithLocalizer(markupmsg.NewCatalogLocalizer(bundle)),
		markupmsg.WithMetrics(markupmsg.NewMetrics(reg)),
	)

	srv, err := New(Config{
		Templates: fstest.MapFS{
			"home.html":     {Data: []byte(`<h1><wicket:message key="greeting">Hi</wicket:message></h1>`)},
			"broken.html":   {Data: []byte(`<h1><wicket:message>Hi</wicket:message></h1>`)},
			"unclosed.html": {Data: []byte(`<wicket:message key="greeting">`)},
		},
		Engine:   engine,
		Bundle:   bundle,
		Logger:   zerolog.Nop(),
		Gatherer: reg,
	})
	require.NoError(t, err)
	return srv
}

func get(t *testing.T, h http.Handler, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func Test_Server(t *testing.T) {
	h := newTestServer(t).Handler()

	t.Run("should render in the default locale", func(t *testing.T) {
		rec := get(t, h, "/render/home", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `<h1><wicket:message key="greeting">Hello</wicket:message></h1>`, rec.Body.String())
		assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, "en-US", rec.Header().Get("Content-Language"))
	})

	t.Run("should negotiate Accept-Language", func(t *testing.T) {
		rec := get(t, h, "/render/home", http.Header{"Accept-Language": {"pt-BR,pt;q=0.9"}})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Olá")
		assert.Equal(t, "pt-BR", rec.Header().Get("Content-Language"))
	})

	t.Run("should prefer the lang query parameter", func(t *testing.T) {
		rec := get(t, h, "/render/home?lang=pt", http.Header{"Accept-Language": {"en"}})
		assert.Contains(t, rec.Body.String(), "Olá")
	})

	t.Run("should 404 unknown or invalid pages", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get(t, h, "/render/nope", nil).Code)
		assert.Equal(t, http.StatusNotFound, get(t, h, "/render/..", nil).Code)
	})

	t.Run("should 500 on template errors", func(t *testing.T) {
		for _, page := range []string{"broken", "unclosed"} {
			rec := get(t, h, "/render/"+page, nil)
			assert.Equal(t, http.StatusInternalServerError, rec.Code, page)
			assert.Contains(t, rec.Body.String(), "template error")
			assert.NotContains(t, rec.Body.String(), "wicket", "errors do not leak template source")
		}
	})

	t.Run("should report health", func(t *testing.T) {
		rec := get(t, h, "/healthz", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
	})

	t.Run("should expose metrics", func(t *testing.T) {
		rec := get(t, h, "/metrics", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `markupmsg_resolutions_total{outcome="translated"}`)
		assert.Contains(t, rec.Body.String(), "markupmsg_renders_total")
	})
}

func Test_Server_Should_Cache_Parsed_Templates(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	get(t, h, "/render/home", nil)
	get(t, h, "/render/home", nil)

	srv.mu.RLock()
	defer srv.mu.RUnlock()
	assert.Len(t, srv.cache, 1)
}

func Test_New_Should_Require_Dependencies(t *testing.T) {
	_, err := New(Config{Engine: markupmsg.NewEngine(nil)})
	assert.Error(t, err)

	_, err = New(Config{Templates: fstest.MapFS{}})
	assert.Error(t, err)
}
