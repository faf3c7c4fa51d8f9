package admission

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/healthlog-backend/internal/http/response"
	"github.com/yungbote/healthlog-backend/internal/ingestion"
	"github.com/yungbote/healthlog-backend/internal/observability"
	"github.com/yungbote/healthlog-backend/internal/platform/ctxutil"
)

// RateLimit denies with 429 once the authenticated caller exceeds limit
// requests per window. Callers without identity share the unknown bucket.
func RateLimit(l Limiter, limit int, window time.Duration) gin.HandlerFunc {
	retryAfter := strconv.Itoa(max(1, int(window/time.Second)))
	return func(c *gin.Context) {
		identity := UnknownIdentity
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != uuid.Nil {
			identity = rd.UserID.String()
		}
		if !l.Allow(c.Request.Context(), identity, limit, window) {
			observability.Current().IncAdmissionDenied(c.FullPath())
			c.Header("Retry-After", retryAfter)
			response.RespondError(c, http.StatusTooManyRequests, "rate_limited", ingestion.ErrRateLimited)
			return
		}
		c.Next()
	}
}
