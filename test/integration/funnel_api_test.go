//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	v1 "github.com/quizlab-dev/quizfunnel/internal/api/v1"
	"github.com/quizlab-dev/quizfunnel/internal/auth"
	"github.com/quizlab-dev/quizfunnel/internal/dashboard"
	"github.com/quizlab-dev/quizfunnel/internal/funnel"
	"github.com/quizlab-dev/quizfunnel/internal/ingestion"
	"github.com/quizlab-dev/quizfunnel/internal/metrics"
	"github.com/quizlab-dev/quizfunnel/internal/questions"
	"github.com/quizlab-dev/quizfunnel/internal/recorder"
	"github.com/quizlab-dev/quizfunnel/internal/server"
)

type integrationHarness struct {
	baseURL    string
	client     *http.Client
	store      *metrics.Store
	cancel     context.CancelFunc
	serverDone chan error
}

func (h *integrationHarness) close(t *testing.T) {
	t.Helper()

	h.cancel()
	select {
	case <-h.serverDone:
	case <-time.After(5 * time.Second):
		t.Log("server shutdown timed out")
	}
}

func startHarness(t *testing.T) *integrationHarness {
	t.Helper()

	store := metrics.NewStore(metrics.NewMemoryBackend())

	registry := prometheus.NewRegistry()
	ops := recorder.NewMetrics()
	require.NoError(t, ops.Register(registry))

	rec := recorder.New(store, recorder.Locale{Country: "Brazil"}, ops)

	qsData := "questions:\n"
	for i := 1; i <= 3; i++ {
		qsData += fmt.Sprintf("  - id: %d\n    text: Question %d?\n    options: [Yes, No]\n", i, i)
	}
	qs, err := questions.Parse([]byte(qsData))
	require.NoError(t, err)

	authz, err := auth.New("admin123", "integration-signing-key", time.Hour)
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	srv := server.New(addr, nil, registry, "release")
	ingestion.NewService(rec, 1).RegisterRoutes(srv.Engine)
	dashboard.NewService(store, qs, authz).RegisterRoutes(srv.Engine)

	ctx, cancel := context.WithCancel(context.Background())
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Run(ctx)
	}()

	h := &integrationHarness{
		baseURL:    "http://" + addr,
		client:     &http.Client{Timeout: 5 * time.Second},
		store:      store,
		cancel:     cancel,
		serverDone: serverDone,
	}

	require.Eventually(t, func() bool {
		resp, err := h.client.Get(h.baseURL + "/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond, "server did not become healthy")

	return h
}

func postJSON(t *testing.T, client *http.Client, url string, payload any) (int, []byte) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestFunnelAPI_TrackToDashboard(t *testing.T) {
	h := startHarness(t)
	defer h.close(t)

	track := func(evt v1.Event) {
		status, body := postJSON(t, h.client, h.baseURL+"/v1/track", evt)
		require.Equal(t, http.StatusAccepted, status, string(body))
	}

	// Walk three visitors in, one all the way through the funnel.
	for range 3 {
		track(v1.Event{Kind: v1.KindVisit})
	}
	track(v1.Event{Kind: v1.KindQuizStart})
	for id := 1; id <= 3; id++ {
		track(v1.Event{Kind: v1.KindQuestionComplete, Payload: &v1.Payload{QuestionID: id}})
	}
	track(v1.Event{Kind: v1.KindLeadSubmit})
	track(v1.Event{Kind: v1.KindQuizComplete})
	track(v1.Event{Kind: v1.KindAddToCart})

	// Login to the dashboard and read the funnel back.
	status, _ := postJSON(t, h.client, h.baseURL+"/v1/auth/login", map[string]string{"secret": "admin123"})
	require.Equal(t, http.StatusOK, status)

	jar := newCookieClient(t, h)
	resp, err := jar.Get(h.baseURL + "/v1/dashboard/funnel")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view funnel.View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	require.Equal(t, uint64(3), view.Visits)
	require.Equal(t, uint64(1), view.QuizStarts)
	require.Equal(t, uint64(1), view.AddToCarts)
	require.Len(t, view.Steps, 7)
}

func TestFunnelAPI_DashboardRejectsWithoutLogin(t *testing.T) {
	h := startHarness(t)
	defer h.close(t)

	resp, err := h.client.Get(h.baseURL + "/v1/dashboard/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// newCookieClient logs in and returns a client carrying the session cookie.
func newCookieClient(t *testing.T, h *integrationHarness) *http.Client {
	t.Helper()

	body, err := json.Marshal(map[string]string{"secret": "admin123"})
	require.NoError(t, err)

	resp, err := h.client.Post(h.baseURL+"/v1/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			session = c
		}
	}
	require.NotNil(t, session, "login did not set the session cookie")

	return &http.Client{
		Timeout: 5 * time.Second,
		Transport: cookieTransport{
			cookie: session,
			next:   http.DefaultTransport,
		},
	}
}

type cookieTransport struct {
	cookie *http.Cookie
	next   http.RoundTripper
}

func (t cookieTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.AddCookie(t.cookie)
	return t.next.RoundTrip(req)
}
