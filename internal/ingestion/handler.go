package ingestion

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	v1 "github.com/quizlab-dev/quizfunnel/internal/api/v1"
	httperr "github.com/quizlab-dev/quizfunnel/internal/core/errors"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
)

// trackError carries the structured HTTP error shape from a helper back to
// the orchestrator. Helpers return this instead of writing to gin.Context
// directly, keeping them decoupled from HTTP.
type trackError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *trackError) Error() string {
	return e.message
}

// TrackHandler handles HTTP POST requests for funnel events.
func (s *Service) TrackHandler(c *gin.Context) {
	evt, payloadSize, err := s.parseEvent(c)
	if err != nil {
		writeError(c, err)
		return
	}

	if vErr := evt.Validate(); vErr != nil {
		slog.Warn("Envelope validation failed", "error", vErr)
		writeError(c, &trackError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpValidationError,
			message:    vErr.Error(),
		})
		return
	}

	if !v1.Known(evt.Kind) {
		slog.Warn("Unrecognized event kind accepted", "kind", evt.Kind)
	}

	slog.Info("Received funnel event",
		"kind", evt.Kind,
		"question_id", evt.QuestionID(),
		"payload_size", payloadSize)

	// The recorder absorbs unknown kinds and storage failures; tracking is
	// fire-and-forget from the client's point of view.
	s.rec.Record(c.Request.Context(), evt)

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// parseEvent reads the raw request body and binds it into an Event envelope.
// Returns the parsed event and the raw payload size (used for structured
// logging upstream).
func (s *Service) parseEvent(c *gin.Context) (*v1.Event, int, *trackError) {
	// Enforce maximum body size to prevent OOM attacks
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return nil, 0, &trackError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, len(bodyBytes), &trackError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	var evt v1.Event
	if err := c.ShouldBindJSON(&evt); err != nil {
		slog.Warn("Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, len(bodyBytes), &trackError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}

	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	return &evt, len(bodyBytes), nil
}

// writeError serializes a trackError as the JSON HTTP response.
func writeError(c *gin.Context, err *trackError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
