package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	v1 "github.com/quizlab-dev/quizfunnel/internal/api/v1"
	httperr "github.com/quizlab-dev/quizfunnel/internal/core/errors"
	"github.com/quizlab-dev/quizfunnel/internal/metrics"
	"github.com/quizlab-dev/quizfunnel/internal/recorder"
)

func newTestService(t *testing.T) (*Service, *metrics.Store) {
	t.Helper()
	store := metrics.NewStore(metrics.NewMemoryBackend())
	return NewService(recorder.New(store, recorder.Locale{}, nil), 1), store
}

func newTestRouter(t *testing.T) (*gin.Engine, *metrics.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, store := newTestService(t)
	r := gin.New()
	svc.RegisterRoutes(r)
	return r, store
}

func postTrack(t *testing.T, r *gin.Engine, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/v1/track", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestTrackHandler_Success(t *testing.T) {
	r, store := newTestRouter(t)

	body, _ := json.Marshal(&v1.Event{Kind: v1.KindQuizStart})
	resp := postTrack(t, r, body)

	require.Equal(t, http.StatusAccepted, resp.Code)
	var result map[string]string
	json.Unmarshal(resp.Body.Bytes(), &result)
	require.Equal(t, "accepted", result["status"])

	require.Equal(t, uint64(1), store.Read(context.Background()).QuizStarts)
}

func TestTrackHandler_QuestionComplete(t *testing.T) {
	r, store := newTestRouter(t)

	body, _ := json.Marshal(&v1.Event{
		Kind:    v1.KindQuestionComplete,
		Payload: &v1.Payload{QuestionID: 4},
	})
	resp := postTrack(t, r, body)

	require.Equal(t, http.StatusAccepted, resp.Code)
	require.Equal(t, uint64(1), store.Read(context.Background()).CompletionsFor(4))
}

func TestTrackHandler_InvalidJSON(t *testing.T) {
	r, _ := newTestRouter(t)

	resp := postTrack(t, r, []byte("not json"))
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var errResp httperr.ErrorResponse
	json.Unmarshal(resp.Body.Bytes(), &errResp)
	require.Equal(t, httperr.HttpInvalidJsonError, errResp.ErrorType)
}

func TestTrackHandler_MissingKind(t *testing.T) {
	r, _ := newTestRouter(t)

	body, _ := json.Marshal(&v1.Event{})
	resp := postTrack(t, r, body)

	require.Equal(t, http.StatusBadRequest, resp.Code)

	var errResp httperr.ErrorResponse
	json.Unmarshal(resp.Body.Bytes(), &errResp)
	require.Equal(t, httperr.HttpValidationError, errResp.ErrorType)
}

func TestTrackHandler_UnknownKindAcceptedAsNoop(t *testing.T) {
	r, store := newTestRouter(t)

	body, _ := json.Marshal(&v1.Event{Kind: "page_scroll"})
	resp := postTrack(t, r, body)

	// Unknown kinds never fail the client; the recorder drops them.
	require.Equal(t, http.StatusAccepted, resp.Code)

	rec := store.Read(context.Background())
	require.Equal(t, uint64(0), rec.Visits+rec.QuizStarts+rec.Leads+rec.QuizCompletions+rec.AddToCarts)
}

func TestTrackHandler_BodyTooLarge(t *testing.T) {
	r, _ := newTestRouter(t)

	oversized := bytes.Repeat([]byte("a"), 2*1024*1024)
	resp := postTrack(t, r, oversized)

	require.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
}
