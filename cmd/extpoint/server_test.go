package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BaSui01/extpoint"
	"github.com/BaSui01/extpoint/config"
)

// --- test extension points ---

type checker interface{ Check() string }

type alpha struct{ hits int }

func (a *alpha) Check() string { return "alpha" }

func (a *alpha) Metadata() extpoint.Metadata {
	return extpoint.Metadata{Name: "alpha", Version: "0.1.0", Tags: []string{"fast"}}
}

type beta struct{ hits int }

func (b *beta) Check() string { return "beta" }

type unused interface{ Unused() }

// newTestCatalog builds a sealed catalog holding two checkers, a declared but
// empty point, and one dropped registration.
func newTestCatalog(t *testing.T) *extpoint.Catalog {
	t.Helper()
	c := extpoint.New()
	extpoint.DeclareIn[checker](c, "checker", extpoint.WithDescription("health checks"))
	extpoint.DeclareIn[unused](c, "unused")
	require.NotNil(t, extpoint.RegisterIn[checker, alpha](c))
	require.NotNil(t, extpoint.RegisterIn[checker, beta](c))
	require.Nil(t, extpoint.RegisterFuncIn(c, func() checker { return nil }))
	c.Seal()
	return c
}

func newTestServer(t *testing.T, c *extpoint.Catalog) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Metrics.Namespace = "test"
	cfg.Server.RateLimitRPS = 0
	return NewServer(cfg, c, zaptest.NewLogger(t))
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

// --- handlers ---

func TestServer_Healthz(t *testing.T) {
	s := newTestServer(t, newTestCatalog(t))
	w := get(t, s.Handler(t.Context()), "/healthz")

	require.Equal(t, http.StatusOK, w.Code)
	var body healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.True(t, body.Sealed)
	assert.Equal(t, 2, body.ExtensionPoints)
	assert.Equal(t, 2, body.Plugins)
	assert.Equal(t, 1, body.Failures)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestServer_HealthzOK(t *testing.T) {
	c := extpoint.New()
	extpoint.RegisterIn[checker, alpha](c)
	s := newTestServer(t, c)

	var body healthResponse
	require.NoError(t, json.Unmarshal(get(t, s.Handler(t.Context()), "/healthz").Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
}

func TestServer_Catalog(t *testing.T) {
	s := newTestServer(t, newTestCatalog(t))
	w := get(t, s.Handler(t.Context()), "/v1/catalog")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var snap extpoint.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.Len(t, snap.Points, 2)
	assert.Equal(t, "checker", snap.Points[0].Name)
	assert.Equal(t, "health checks", snap.Points[0].Description)
	require.Len(t, snap.Points[0].Plugins, 2)
	assert.Equal(t, "*main.alpha", snap.Points[0].Plugins[0].Type)
	assert.Equal(t, "0.1.0", snap.Points[0].Plugins[0].Metadata.Version)
	assert.Equal(t, "*main.beta", snap.Points[0].Plugins[1].Type)
	assert.Equal(t, "unused", snap.Points[1].Name)
	assert.Empty(t, snap.Points[1].Plugins)

	require.Len(t, snap.Failures, 1)
	assert.Equal(t, extpoint.ErrNilInstance.Error(), snap.Failures[0].Reason)
}

func TestServer_CatalogByTag(t *testing.T) {
	s := newTestServer(t, newTestCatalog(t))
	w := get(t, s.Handler(t.Context()), "/v1/catalog?tag=fast")

	var snap extpoint.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.Len(t, snap.Points, 1)
	require.Len(t, snap.Points[0].Plugins, 1)
	assert.Equal(t, "alpha", snap.Points[0].Plugins[0].Metadata.Name)
}

func TestServer_Point(t *testing.T) {
	s := newTestServer(t, newTestCatalog(t))
	h := s.Handler(t.Context())

	for _, name := range []string{"checker", "main.checker"} {
		t.Run(name, func(t *testing.T) {
			w := get(t, h, "/v1/catalog/"+name)
			require.Equal(t, http.StatusOK, w.Code)

			var p extpoint.PointInfo
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
			assert.Equal(t, "checker", p.Name)
			assert.Len(t, p.Plugins, 2)
		})
	}
}

func TestServer_PointWithImportPath(t *testing.T) {
	c := extpoint.New()
	extpoint.RegisterFuncIn(c, func() http.Handler { return http.NotFoundHandler() })
	s := newTestServer(t, c)

	w := get(t, s.Handler(t.Context()), "/v1/catalog/net/http.Handler")
	require.Equal(t, http.StatusOK, w.Code)

	var p extpoint.PointInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "net/http.Handler", p.Name)
	assert.Len(t, p.Plugins, 1)
}

func TestServer_PointNotFound(t *testing.T) {
	s := newTestServer(t, newTestCatalog(t))
	w := get(t, s.Handler(t.Context()), "/v1/catalog/missing")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `unknown extension point \"missing\"`)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, newTestCatalog(t))
	w := httptest.NewRecorder()
	s.Handler(t.Context()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/catalog", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServer_Version(t *testing.T) {
	s := newTestServer(t, newTestCatalog(t))
	w := get(t, s.Handler(t.Context()), "/version")

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, Version, body["version"])
}

// --- metrics ---

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(t, newTestCatalog(t))
	h := s.Handler(t.Context())
	get(t, h, "/v1/catalog/checker")

	w := get(t, s.MetricsHandler(), "/metrics")
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "test_extension_points 2")
	assert.Contains(t, text, `test_plugins_registered{extension_point="checker"} 2`)
	assert.Contains(t, text, `test_registration_failures{extension_point="checker"} 1`)
	assert.Contains(t, text, `test_http_requests_total{method="GET",path="/v1/catalog/:point",status="2xx"} 1`)
	assert.True(t, strings.Contains(text, "go_goroutines"))
}

func TestServer_MetricsDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Metrics.Enabled = false
	s := NewServer(cfg, newTestCatalog(t), nil)

	assert.Nil(t, s.registry)
	assert.Nil(t, s.metricsCollector)
	assert.Equal(t, http.StatusNotFound, get(t, s.MetricsHandler(), "/metrics").Code)
	assert.Equal(t, http.StatusOK, get(t, s.Handler(t.Context()), "/healthz").Code)
}

// --- bootstrap logging ---

func TestAttachCatalogLogger(t *testing.T) {
	c := newTestCatalog(t)
	core, logs := observer.New(zap.DebugLevel)

	attachCatalogLogger(c, config.LogConfig{CatalogEvents: true}, zap.New(core))

	dropped := logs.FilterMessage("extension point registration was dropped during bootstrap").All()
	require.Len(t, dropped, 1)
	assert.Equal(t, "main.checker", dropped[0].ContextMap()["extension_point"])

	// catalog events now reach the same logger
	extpoint.RegisterIn[checker, alpha](c)
	assert.Equal(t, 1, logs.FilterMessage("extension point registration dropped").Len())
}

func TestAttachCatalogLogger_EventsOff(t *testing.T) {
	c := newTestCatalog(t)
	core, logs := observer.New(zap.DebugLevel)

	attachCatalogLogger(c, config.LogConfig{CatalogEvents: false}, zap.New(core))
	extpoint.RegisterIn[checker, alpha](c)

	assert.Equal(t, 1, logs.Len(), "only the bootstrap summary is logged")
}

func TestServer_ServerConfig(t *testing.T) {
	s := newTestServer(t, newTestCatalog(t))

	cfg := s.serverConfig("metrics", 9091)
	assert.Equal(t, "metrics", cfg.Name)
	assert.Equal(t, ":9091", cfg.Addr)
	assert.Equal(t, s.cfg.Server.ShutdownTimeout, cfg.ShutdownTimeout)
	assert.Equal(t, 2*s.cfg.Server.ReadTimeout, cfg.IdleTimeout)
	assert.Equal(t, 1<<20, cfg.MaxHeaderBytes)
}

func TestServeCmd_MissingConfigFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "extpoint.yaml")
	cmd := newServeCmd(newTestCatalog(t))
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", missing})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
	assert.Contains(t, err.Error(), missing)
}
