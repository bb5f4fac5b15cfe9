package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMux_HealthEndpoint(t *testing.T) {
	mux := buildMux(context.Background(), nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	err := json.Unmarshal(rr.Body.Bytes(), &body)
	require.NoError(t, err)
	assert.Equal(t, "ok", body["status"])
}

func TestBuildMux_WebhookRun_NilPipeline(t *testing.T) {
	// With a nil pipeline, the goroutine logs and returns.
	mux := buildMux(context.Background(), nil, nil, nil)

	body, _ := json.Marshal(map[string]any{"target": 50, "dry_run": true})

	req := httptest.NewRequest(http.MethodPost, "/webhook/run", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)

	var resp map[string]string
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "accepted", resp["status"])

	// Give the goroutine time to hit the nil check path.
	time.Sleep(10 * time.Millisecond)
}

func TestBuildMux_WebhookRun_BadBody(t *testing.T) {
	mux := buildMux(context.Background(), nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhook/run", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid request body")
}

func TestBuildMux_RunLookup_NoStore(t *testing.T) {
	mux := buildMux(context.Background(), nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/runs/abc", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
