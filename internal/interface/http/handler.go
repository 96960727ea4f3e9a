package http

import (
	"context"
	"net/http"
	"strings"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/oceanchat/oceanchat/internal/domain/localdata"
	"github.com/oceanchat/oceanchat/internal/domain/routing"
	"github.com/oceanchat/oceanchat/internal/infra/provider"
)

// CoverageSource reports the stored data extent.
type CoverageSource interface {
	Coverage(ctx context.Context) localdata.CoverageSummary
}

// StatusSource reports upstream freshness.
type StatusSource interface {
	LiveStatus(ctx context.Context) provider.LiveStatus
}

// Handler wires the HTTP transport to domain services.
type Handler struct {
	router   routing.Service
	coverage CoverageSource
	status   StatusSource
	logger   *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(router routing.Service, coverage CoverageSource, status StatusSource, logger *slog.Logger) *Handler {
	return &Handler{
		router:   router,
		coverage: coverage,
		status:   status,
		logger:   logger.With("component", "http.handler"),
	}
}

type queryRequest struct {
	Query  string `json:"query"`
	UserID string `json:"user_id"`
}

// Query handles the natural-language query endpoint. The router always
// produces an envelope, so the only client error is a missing query text.
func (h *Handler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "query text is required", nil))
		return
	}

	envelope := h.router.Route(c.Request.Context(), req.Query, req.UserID)
	c.JSON(http.StatusOK, envelope)
}

// QueryGet is the GET form of Query for quick manual checks.
func (h *Handler) QueryGet(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "query parameter q is required", nil))
		return
	}

	envelope := h.router.Route(c.Request.Context(), query, c.Query("user_id"))
	c.JSON(http.StatusOK, envelope)
}

// Health reports liveness plus a storage snapshot.
func (h *Handler) Health(c *gin.Context) {
	summary := h.coverage.Coverage(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "oceanchat",
		"storage": gin.H{
			"total_measurements": summary.TotalMeasurements,
		},
	})
}

// Coverage reports the stored data extent.
func (h *Handler) Coverage(c *gin.Context) {
	summary := h.coverage.Coverage(c.Request.Context())
	c.JSON(http.StatusOK, summary)
}

// LiveDataStatus reports upstream freshness.
func (h *Handler) LiveDataStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.status.LiveStatus(c.Request.Context()))
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
