package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/healthlog-backend/internal/domain/health"
	"github.com/yungbote/healthlog-backend/internal/http/response"
	"github.com/yungbote/healthlog-backend/internal/services"
)

type FoodLogHandler struct {
	logs services.FoodLogService
	loc  *time.Location
}

func NewFoodLogHandler(logs services.FoodLogService, loc *time.Location) *FoodLogHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &FoodLogHandler{logs: logs, loc: loc}
}

type createFoodLogRequest struct {
	OwnerID *uuid.UUID `json:"owner_id"`
	services.ManualLogInput
}

// POST /api/food-logs
func (h *FoodLogHandler) Create(c *gin.Context) {
	var req createFoodLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	owner := uuid.Nil
	if req.OwnerID != nil {
		owner = *req.OwnerID
	}
	entry, err := h.logs.Create(c.Request.Context(), owner, req.ManualLogInput)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"food_log": entry})
}

// GET /api/food-logs
func (h *FoodLogHandler) List(c *gin.Context) {
	owner, ok := parseOwner(c)
	if !ok {
		return
	}
	page, ok := parsePage(c)
	if !ok {
		return
	}
	from, ok := parseTimeQuery(c, "from", h.loc)
	if !ok {
		return
	}
	to, ok := parseTimeQuery(c, "to", h.loc)
	if !ok {
		return
	}
	items, total, err := h.logs.List(c.Request.Context(), owner, services.FoodLogQuery{
		From:     from,
		To:       to,
		Limit:    page.Limit,
		Offset:   page.Offset,
		SortDesc: page.SortDesc,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, response.Page[*health.FoodLog]{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset})
}

// GET /api/food-logs/:id
func (h *FoodLogHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	entry, err := h.logs.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"food_log": entry})
}

// DELETE /api/food-logs/:id
func (h *FoodLogHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.logs.Delete(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	response.RespondNoContent(c)
}

// GET /api/food-logs/summary?from=YYYY-MM-DD&to=YYYY-MM-DD
// Both bounds are required; to is exclusive.
func (h *FoodLogHandler) Summary(c *gin.Context) {
	owner, ok := parseOwner(c)
	if !ok {
		return
	}
	from, ok := parseTimeQuery(c, "from", h.loc)
	if !ok {
		return
	}
	to, ok := parseTimeQuery(c, "to", h.loc)
	if !ok {
		return
	}
	if from == nil || to == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_range", errors.New("from and to are required"))
		return
	}
	days, err := h.logs.DailySummary(c.Request.Context(), owner, *from, *to)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"days": days})
}
