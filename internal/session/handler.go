package session

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	v1 "github.com/quizlab-dev/quizfunnel/internal/api/v1"
	httperr "github.com/quizlab-dev/quizfunnel/internal/core/errors"
)

// Handler exposes the session state machine over HTTP. Every transition
// returns the resulting state snapshot so a thin client can render without
// a second round trip.
type Handler struct {
	router *Router
}

func NewHandler(router *Router) *Handler {
	if router == nil {
		panic("session handler requires a non-nil router")
	}
	return &Handler{router: router}
}

// RegisterRoutes attaches the session API and the quiz content endpoint.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/questions", h.questions)

	grp := r.Group("/v1/session")
	grp.GET("", h.state)
	grp.POST("/start", h.start)
	grp.POST("/answer", h.answer)
	grp.POST("/lead", h.submitLead)
	grp.POST("/checkout", h.checkout)
	grp.POST("/auth", h.authenticate)
	grp.POST("/back", h.back)
	grp.POST("/navigate", h.navigate)
}

func (h *Handler) questions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"questions": h.router.Questions()})
}

func (h *Handler) state(c *gin.Context) {
	c.JSON(http.StatusOK, h.router.State())
}

func (h *Handler) start(c *gin.Context) {
	c.JSON(http.StatusOK, h.router.Start(c.Request.Context()))
}

func (h *Handler) answer(c *gin.Context) {
	c.JSON(http.StatusOK, h.router.Answer(c.Request.Context()))
}

func (h *Handler) submitLead(c *gin.Context) {
	var lead v1.Lead
	if err := c.ShouldBindJSON(&lead); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid JSON payload",
			Details:   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, h.router.SubmitLead(c.Request.Context(), lead))
}

// checkoutResponse carries the external hand-off URL alongside the state.
type checkoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
	State       State  `json:"state"`
}

func (h *Handler) checkout(c *gin.Context) {
	checkoutURL, ok := h.router.Checkout(c.Request.Context())
	if !ok {
		c.JSON(http.StatusConflict, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidStateError,
			Message:   "Checkout is only available from the results view",
		})
		return
	}
	c.JSON(http.StatusOK, checkoutResponse{
		CheckoutURL: checkoutURL,
		State:       h.router.State(),
	})
}

type authRequest struct {
	Secret string `json:"secret"`
}

func (h *Handler) authenticate(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid JSON payload",
			Details:   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, h.router.Authenticate(req.Secret))
}

func (h *Handler) back(c *gin.Context) {
	c.JSON(http.StatusOK, h.router.Back())
}

type navigateRequest struct {
	Path  string            `json:"path"`
	Query map[string]string `json:"query"`
}

func (h *Handler) navigate(c *gin.Context) {
	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid JSON payload",
			Details:   err.Error(),
		})
		return
	}

	query := url.Values{}
	for k, v := range req.Query {
		query.Set(k, v)
	}
	c.JSON(http.StatusOK, h.router.Navigate(Location{Path: req.Path, Query: query}))
}
