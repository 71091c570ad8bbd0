// Package api exposes the comparator over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aluiziolira/go-price-compare/models"
	"github.com/aluiziolira/go-price-compare/pipeline"
	"github.com/gin-gonic/gin"
)

// statusClientClosedRequest is written when the caller went away mid-request.
const statusClientClosedRequest = 499

// Comparer runs one price comparison.
type Comparer interface {
	Compare(ctx context.Context, name string) (*models.ComparisonResult, error)
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	comparer Comparer
	logger   *slog.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(comparer Comparer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{comparer: comparer, logger: logger}
}

// Root returns the service identification payload.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Perfume Price Comparator API"})
}

// HealthCheck returns the liveness status.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Search compares prices for the perfume named in the request body.
func (h *Handler) Search(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Perfume name is required"})
		return
	}

	result, err := h.comparer.Compare(c.Request.Context(), req.Name)
	switch {
	case errors.Is(err, pipeline.ErrEmptyQuery):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Perfume name is required"})
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.logger.Debug("search abandoned by client", slog.String("name", req.Name))
		c.AbortWithStatus(statusClientClosedRequest)
		return
	case err != nil:
		h.logger.Error("search failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Comparison failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}
