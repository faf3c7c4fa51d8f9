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

type ActivityHandler struct {
	activities services.ActivityService
	loc        *time.Location
}

func NewActivityHandler(activities services.ActivityService, loc *time.Location) *ActivityHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ActivityHandler{activities: activities, loc: loc}
}

// POST /api/activities
func (h *ActivityHandler) CreateType(c *gin.Context) {
	var in services.ActivityTypeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	a, err := h.activities.CreateType(c.Request.Context(), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"activity": a})
}

// GET /api/activities
func (h *ActivityHandler) ListTypes(c *gin.Context) {
	page, ok := parsePage(c)
	if !ok {
		return
	}
	items, total, err := h.activities.ListTypes(c.Request.Context(), c.Query("q"), page.Limit, page.Offset)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, response.Page[*health.ActivityType]{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset})
}

// GET /api/activities/:id
func (h *ActivityHandler) GetType(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	a, err := h.activities.GetType(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"activity": a})
}

// DELETE /api/activities/:id
func (h *ActivityHandler) DeleteType(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.activities.DeleteType(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	response.RespondNoContent(c)
}

type createActivityLogRequest struct {
	OwnerID *uuid.UUID `json:"owner_id"`
	services.ActivityLogInput
}

// POST /api/activity-logs
func (h *ActivityHandler) CreateLog(c *gin.Context) {
	var req createActivityLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	owner := uuid.Nil
	if req.OwnerID != nil {
		owner = *req.OwnerID
	}
	entry, err := h.activities.Log(c.Request.Context(), owner, req.ActivityLogInput)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"activity_log": entry})
}

func (h *ActivityHandler) query(c *gin.Context) (uuid.UUID, services.ActivityLogQuery, bool) {
	owner, ok := parseOwner(c)
	if !ok {
		return uuid.Nil, services.ActivityLogQuery{}, false
	}
	page, ok := parsePage(c)
	if !ok {
		return uuid.Nil, services.ActivityLogQuery{}, false
	}
	from, ok := parseTimeQuery(c, "from", h.loc)
	if !ok {
		return uuid.Nil, services.ActivityLogQuery{}, false
	}
	to, ok := parseTimeQuery(c, "to", h.loc)
	if !ok {
		return uuid.Nil, services.ActivityLogQuery{}, false
	}
	return owner, services.ActivityLogQuery{
		From:     from,
		To:       to,
		Limit:    page.Limit,
		Offset:   page.Offset,
		SortDesc: page.SortDesc,
	}, true
}

// GET /api/activity-logs
func (h *ActivityHandler) ListLogs(c *gin.Context) {
	owner, q, ok := h.query(c)
	if !ok {
		return
	}
	items, total, err := h.activities.ListLogs(c.Request.Context(), owner, q)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, response.Page[*health.ActivityLog]{Items: items, Total: total, Limit: q.Limit, Offset: q.Offset})
}

// GET /api/activity-logs/totals
func (h *ActivityHandler) Totals(c *gin.Context) {
	owner, q, ok := h.query(c)
	if !ok {
		return
	}
	totals, err := h.activities.Totals(c.Request.Context(), owner, q)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"totals": totals})
}

// GET /api/activity-logs/:id
func (h *ActivityHandler) GetLog(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	entry, err := h.activities.GetLog(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"activity_log": entry})
}

// DELETE /api/activity-logs/:id
func (h *ActivityHandler) DeleteLog(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.activities.DeleteLog(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	response.RespondNoContent(c)
}
