package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/healthlog-backend/internal/domain/health"
	"github.com/yungbote/healthlog-backend/internal/http/response"
	"github.com/yungbote/healthlog-backend/internal/services"
)

type FoodHandler struct {
	foods services.FoodService
}

func NewFoodHandler(foods services.FoodService) *FoodHandler {
	return &FoodHandler{foods: foods}
}

// POST /api/foods
func (h *FoodHandler) Create(c *gin.Context) {
	var in services.FoodItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	item, err := h.foods.Create(c.Request.Context(), in)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"food": item})
}

// GET /api/foods
func (h *FoodHandler) List(c *gin.Context) {
	page, ok := parsePage(c)
	if !ok {
		return
	}
	items, total, err := h.foods.List(c.Request.Context(), services.FoodListParams{
		Query:    c.Query("q"),
		Limit:    page.Limit,
		Offset:   page.Offset,
		SortBy:   c.Query("sort"),
		SortDesc: page.SortDesc,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, response.Page[*health.FoodItem]{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset})
}

// GET /api/foods/:id
func (h *FoodHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	item, err := h.foods.Get(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"food": item})
}

// PATCH /api/foods/:id
func (h *FoodHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var patch services.FoodItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	item, err := h.foods.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"food": item})
}

// DELETE /api/foods/:id
func (h *FoodHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.foods.Delete(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	response.RespondNoContent(c)
}
