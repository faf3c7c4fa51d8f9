package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/healthlog-backend/internal/domain/health"
	"github.com/yungbote/healthlog-backend/internal/http/response"
	"github.com/yungbote/healthlog-backend/internal/services"
)

type MetricHandler struct {
	metrics services.MetricService
	loc     *time.Location
}

func NewMetricHandler(metrics services.MetricService, loc *time.Location) *MetricHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &MetricHandler{metrics: metrics, loc: loc}
}

type createMetricRequest struct {
	OwnerID *uuid.UUID `json:"owner_id"`
	services.MetricInput
}

// POST /api/metrics
func (h *MetricHandler) Create(c *gin.Context) {
	var req createMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	owner := uuid.Nil
	if req.OwnerID != nil {
		owner = *req.OwnerID
	}
	m, err := h.metrics.Create(c.Request.Context(), owner, req.MetricInput)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"metric": m})
}

func (h *MetricHandler) query(c *gin.Context) (uuid.UUID, services.MetricQuery, bool) {
	owner, ok := parseOwner(c)
	if !ok {
		return uuid.Nil, services.MetricQuery{}, false
	}
	page, ok := parsePage(c)
	if !ok {
		return uuid.Nil, services.MetricQuery{}, false
	}
	from, ok := parseTimeQuery(c, "from", h.loc)
	if !ok {
		return uuid.Nil, services.MetricQuery{}, false
	}
	to, ok := parseTimeQuery(c, "to", h.loc)
	if !ok {
		return uuid.Nil, services.MetricQuery{}, false
	}
	return owner, services.MetricQuery{
		Kind:     c.Query("kind"),
		From:     from,
		To:       to,
		Limit:    page.Limit,
		Offset:   page.Offset,
		SortDesc: page.SortDesc,
	}, true
}

// GET /api/metrics
func (h *MetricHandler) List(c *gin.Context) {
	owner, q, ok := h.query(c)
	if !ok {
		return
	}
	items, total, err := h.metrics.List(c.Request.Context(), owner, q)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, response.Page[*health.MetricLog]{Items: items, Total: total, Limit: q.Limit, Offset: q.Offset})
}

// GET /api/metrics/aggregate?kind=steps
func (h *MetricHandler) Aggregate(c *gin.Context) {
	owner, q, ok := h.query(c)
	if !ok {
		return
	}
	agg, err := h.metrics.Aggregate(c.Request.Context(), owner, q)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"kind": q.Kind, "aggregate": agg})
}

// DELETE /api/metrics/:id
func (h *MetricHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.metrics.Delete(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	response.RespondNoContent(c)
}
