// Package ingestion exposes the funnel event intake over HTTP. Clients post
// event envelopes; the recorder applies them to the metrics record.
package ingestion

import (
	"github.com/gin-gonic/gin"

	"github.com/quizlab-dev/quizfunnel/internal/recorder"
)

type Service struct {
	rec              *recorder.Recorder
	maxBodySizeBytes int
}

func NewService(rec *recorder.Recorder, maxBodySizeMB int) *Service {
	if rec == nil {
		panic("ingestion: recorder must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		rec:              rec,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
	}
}

// RegisterRoutes registers the tracking endpoint.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/track", s.TrackHandler)
}
