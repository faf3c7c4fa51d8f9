package admission

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/healthlog-backend/internal/platform/ctxutil"
)

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	user := uuid.New()
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if c.GetHeader("X-Test-User") != "" {
			ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: user, Role: ctxutil.RoleUser})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	})
	r.POST("/api/ingest", RateLimit(NewLocalLimiter(), 2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	do := func(withUser bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/ingest", nil)
		if withUser {
			req.Header.Set("X-Test-User", "1")
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := do(true); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status=%d", i+1, rec.Code)
		}
	}
	rec := do(true)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: status=%d want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After=%q", rec.Header().Get("Retry-After"))
	}

	// Anonymous callers get their own shared bucket.
	if rec := do(false); rec.Code != http.StatusOK {
		t.Fatalf("anonymous: status=%d", rec.Code)
	}
}
