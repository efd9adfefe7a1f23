// Package dashboard serves the operator-facing read side: raw metrics
// snapshots, the aggregated funnel, the reset action, and the login endpoint
// that issues the session cookie guarding all of it.
package dashboard

import (
	"github.com/gin-gonic/gin"

	"github.com/quizlab-dev/quizfunnel/internal/auth"
	"github.com/quizlab-dev/quizfunnel/internal/metrics"
	"github.com/quizlab-dev/quizfunnel/internal/questions"
)

type Service struct {
	store *metrics.Store
	qs    *questions.Set
	authz *auth.Capability
}

func NewService(store *metrics.Store, qs *questions.Set, authz *auth.Capability) *Service {
	if store == nil {
		panic("dashboard: store must not be nil")
	}
	if qs == nil {
		panic("dashboard: question set must not be nil")
	}
	if authz == nil {
		panic("dashboard: auth capability must not be nil")
	}
	return &Service{store: store, qs: qs, authz: authz}
}

// RegisterRoutes attaches the login endpoint and the guarded dashboard group.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/auth/login", s.LoginHandler)

	grp := r.Group("/v1/dashboard", s.authz.Middleware())
	grp.GET("/metrics", s.MetricsHandler)
	grp.GET("/funnel", s.FunnelHandler)
	grp.POST("/reset", s.ResetHandler)
}
