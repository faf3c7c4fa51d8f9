package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/healthlog-backend/internal/data/repos/repoerr"
	"github.com/yungbote/healthlog-backend/internal/http/response"
	"github.com/yungbote/healthlog-backend/internal/ingestion"
	"github.com/yungbote/healthlog-backend/internal/platform/apierr"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

// classify maps a service error to an HTTP status and stable code.
func classify(err error) *apierr.Error {
	if ae, ok := apierr.From(err); ok {
		return ae
	}
	switch {
	case errors.Is(err, ingestion.ErrAccessDenied):
		return apierr.Forbidden("forbidden", err)
	case errors.Is(err, ingestion.ErrInvalidInput):
		return apierr.BadRequest("invalid_input", err)
	case errors.Is(err, ingestion.ErrFutureTimestamp):
		return apierr.BadRequest("future_timestamp", err)
	case errors.Is(err, ingestion.ErrDuplicateWindow):
		return apierr.Conflict("duplicate_window", err)
	case errors.Is(err, ingestion.ErrInactiveCatalogEntry):
		return apierr.Conflict("inactive_catalog_entry", err)
	case errors.Is(err, ingestion.ErrNotFound), errors.Is(err, repoerr.ErrNotFound):
		return apierr.NotFound("not_found", err)
	case errors.Is(err, repoerr.ErrConflict):
		return apierr.Conflict("conflict", err)
	case errors.Is(err, ingestion.ErrUpstreamUnavailable):
		return apierr.New(http.StatusServiceUnavailable, "upstream_unavailable", err)
	case errors.Is(err, ingestion.ErrUpstreamFormat):
		return apierr.New(http.StatusBadGateway, "upstream_format", err)
	case errors.Is(err, ingestion.ErrRateLimited):
		return apierr.New(http.StatusTooManyRequests, "rate_limited", err)
	default:
		return apierr.New(http.StatusInternalServerError, "internal", errors.New("internal error"))
	}
}

func respondErr(c *gin.Context, err error) {
	ae := classify(err)
	if ae.Status >= 500 {
		_ = c.Error(err)
	}
	response.RespondError(c, ae.Status, ae.Code, ae.Err)
}

func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_"+name, err)
		return uuid.Nil, false
	}
	return id, true
}

// parseOwner reads the optional owner_id query parameter; absent means the caller.
func parseOwner(c *gin.Context) (uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Query("owner_id"))
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_owner_id", err)
		return uuid.Nil, false
	}
	return id, true
}

type pageParams struct {
	Limit    int
	Offset   int
	SortDesc bool
}

func parsePage(c *gin.Context) (pageParams, bool) {
	p := pageParams{Limit: defaultPageLimit}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", errors.New("limit must be a positive integer"))
			return p, false
		}
		p.Limit = min(n, maxPageLimit)
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_offset", errors.New("offset must be a non-negative integer"))
			return p, false
		}
		p.Offset = n
	}
	switch strings.ToLower(c.DefaultQuery("order", "asc")) {
	case "asc":
	case "desc":
		p.SortDesc = true
	default:
		response.RespondError(c, http.StatusBadRequest, "invalid_order", errors.New("order must be asc or desc"))
		return p, false
	}
	return p, true
}

// parseTimeQuery accepts RFC 3339 or a bare date interpreted in loc.
func parseTimeQuery(c *gin.Context, name string, loc *time.Location) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, true
	}
	if t, err := time.ParseInLocation(time.DateOnly, raw, loc); err == nil {
		return &t, true
	}
	response.RespondError(c, http.StatusBadRequest, "invalid_"+name, errors.New(name+" must be RFC 3339 or YYYY-MM-DD"))
	return nil, false
}

func errMissing(field string) error { return fmt.Errorf("%s is required", field) }
