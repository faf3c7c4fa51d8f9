package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/healthlog-backend/internal/http/response"
	"github.com/yungbote/healthlog-backend/internal/ingestion"
	"github.com/yungbote/healthlog-backend/internal/platform/ctxutil"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler { return &AuthHandler{} }

// GET /api/me
func (h *AuthHandler) Me(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", ingestion.ErrAccessDenied)
		return
	}
	response.RespondOK(c, gin.H{"user_id": rd.UserID, "role": rd.Role})
}
