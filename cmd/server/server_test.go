package server

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ispeed-collector/pkg/config"
	"github.com/ispeed-collector/pkg/registers"
)

func TestMetricsAndHealth(t *testing.T) {
	reg, stats := registers.InitPromRegistry(false)
	stats.Upload.WithLabelValues("Ethernet").Set(9.5)

	srv := NewHTTPServer(config.NewDefaultConfig().Server, reg, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `ispeed_upload_mbps{interface="Ethernet"} 9.5`)

	resp, err = http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthReportsFailure(t *testing.T) {
	reg, _ := registers.InitPromRegistry(false)
	srv := NewHTTPServer(config.NewDefaultConfig().Server, reg, func() error { return errors.New("store closed") })
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestStartAndShutdown(t *testing.T) {
	cfg := config.NewDefaultConfig().Server
	cfg.Addr = "127.0.0.1:0"
	reg, _ := registers.InitPromRegistry(false)
	srv := NewHTTPServer(cfg, reg, nil)

	require.NoError(t, srv.Start())
	assert.NoError(t, srv.Shutdown())
}
