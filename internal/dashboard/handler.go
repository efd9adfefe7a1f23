package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quizlab-dev/quizfunnel/internal/auth"
	httperr "github.com/quizlab-dev/quizfunnel/internal/core/errors"
	"github.com/quizlab-dev/quizfunnel/internal/funnel"
)

type loginRequest struct {
	Secret string `json:"secret"`
}

// LoginHandler verifies the dashboard secret and sets the session cookie.
// Failures are uniform 401s so the endpoint does not confirm whether a secret
// was close.
func (s *Service) LoginHandler(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid JSON body",
			Details:   err.Error(),
		})
		return
	}

	if !s.authz.Verify(req.Secret) {
		slog.Warn("Dashboard login rejected")
		c.JSON(http.StatusUnauthorized, httperr.ErrorResponse{
			ErrorType: httperr.HttpUnauthorizedError,
			Message:   "Invalid dashboard secret",
		})
		return
	}

	token, err := s.authz.IssueToken()
	if err != nil {
		slog.Error("Failed to issue dashboard session token", "error", err)
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Failed to create session",
		})
		return
	}

	// Session cookie: MaxAge 0 so the browser drops it when the browsing
	// session ends; the token carries its own expiry.
	c.SetCookie(auth.CookieName, token, 0, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"status": "authorized"})
}

// MetricsHandler returns the raw metrics record.
func (s *Service) MetricsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Read(c.Request.Context()))
}

// FunnelHandler returns the aggregated funnel view.
func (s *Service) FunnelHandler(c *gin.Context) {
	rec := s.store.Read(c.Request.Context())
	c.JSON(http.StatusOK, funnel.Aggregate(rec, s.qs.Len()))
}

// ResetHandler zeroes the metrics record and returns the fresh state.
func (s *Service) ResetHandler(c *gin.Context) {
	slog.Info("Metrics record reset requested")
	c.JSON(http.StatusOK, s.store.Reset(c.Request.Context()))
}
