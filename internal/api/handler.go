package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	specnock "github.com/specnock/specnock"
	"github.com/specnock/specnock/internal/models"
)

// Handler handles debug API requests
type Handler struct {
	repo *specnock.Repository
}

// NewHandler creates a new debug API handler
func NewHandler(repo *specnock.Repository) *Handler {
	return &Handler{repo: repo}
}

// GetState returns the repository state snapshot
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.repo.GetState())
}

// ListEndpoints returns the configured endpoints
func (h *Handler) ListEndpoints(c *gin.Context) {
	c.JSON(http.StatusOK, h.repo.GetState().Endpoints)
}

// ListSpecs returns all loaded specifications
func (h *Handler) ListSpecs(c *gin.Context) {
	specs := h.repo.Specs()
	if specs == nil {
		specs = []models.SpecInfo{}
	}
	c.JSON(http.StatusOK, specs)
}

// ListIntercepts returns the active intercept handles
func (h *Handler) ListIntercepts(c *gin.Context) {
	c.JSON(http.StatusOK, h.repo.Intercepts())
}

// GetStats returns activation statistics
func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.repo.Stats())
}

// ListTraces returns recorded activation traces, newest first
func (h *Handler) ListTraces(c *gin.Context) {
	filter := &models.TraceFilter{
		Endpoint: c.Query("endpoint"),
		Outcome:  c.Query("outcome"),
		Method:   c.Query("method"),
		SpecKey:  c.Query("specKey"),
	}
	if limit := c.Query("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			filter.Limit = n
		}
	}
	if offset := c.Query("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil {
			filter.Offset = n
		}
	}

	c.JSON(http.StatusOK, h.repo.Traces(filter))
}

// Match performs a dry-run resolve+match+synthesize for a request without
// installing an intercept
func (h *Handler) Match(c *gin.Context) {
	var req models.RequestDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.URL == "" || req.Method == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url and method are required"})
		return
	}

	trace, err := h.repo.Preview(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, trace)
}

// Restore clears all active interceptions
func (h *Handler) Restore(c *gin.Context) {
	h.repo.Restore()
	c.JSON(http.StatusOK, gin.H{"message": "All intercepts restored"})
}
