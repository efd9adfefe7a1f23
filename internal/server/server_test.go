package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	err error
}

func (c stubChecker) Ping(ctx context.Context) error {
	return c.err
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		health HealthChecker
		want   int
	}{
		{name: "no checker is healthy", health: nil, want: http.StatusOK},
		{name: "reachable storage is healthy", health: stubChecker{}, want: http.StatusOK},
		{name: "unreachable storage is unhealthy", health: stubChecker{err: errors.New("down")}, want: http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := New("127.0.0.1:0", tc.health, nil, "release")

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			resp := httptest.NewRecorder()
			s.Engine.ServeHTTP(resp, req)

			require.Equal(t, tc.want, resp.Code)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	s := New("127.0.0.1:0", nil, registry, "release")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	s.Engine.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
}

func TestMetricsEndpointAbsentWithoutRegistry(t *testing.T) {
	s := New("127.0.0.1:0", nil, nil, "release")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	s.Engine.ServeHTTP(resp, req)

	require.Equal(t, http.StatusNotFound, resp.Code)
}
