package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/healthlog-backend/internal/http/response"
	"github.com/yungbote/healthlog-backend/internal/ingestion/pipeline"
	"github.com/yungbote/healthlog-backend/internal/platform/ctxutil"
)

type Ingester interface {
	Ingest(ctx context.Context, ownerID uuid.UUID, text string) (*pipeline.BatchResult, error)
}

type IngestHandler struct {
	ingester Ingester
}

func NewIngestHandler(ingester Ingester) *IngestHandler {
	return &IngestHandler{ingester: ingester}
}

type ingestRequest struct {
	OwnerID   *uuid.UUID `json:"owner_id"`
	VoiceText string     `json:"voice_text"`
}

// POST /api/ingest
func (h *IngestHandler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.VoiceText) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errMissing("voice_text"))
		return
	}
	ctx := c.Request.Context()
	owner := uuid.Nil
	if req.OwnerID != nil {
		owner = *req.OwnerID
	} else if rd := ctxutil.GetRequestData(ctx); rd != nil {
		owner = rd.UserID
	}

	res, err := h.ingester.Ingest(ctx, owner, req.VoiceText)
	if err != nil {
		respondErr(c, err)
		return
	}
	if res.Failed {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": res.Message})
		return
	}
	response.RespondOK(c, res)
}
