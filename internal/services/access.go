package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/healthlog-backend/internal/ingestion"
	"github.com/yungbote/healthlog-backend/internal/platform/ctxutil"
)

// actingOwner resolves whose records the caller is touching. A nil ownerID
// means the caller's own; anyone else's requires the admin role.
func actingOwner(ctx context.Context, ownerID uuid.UUID) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: no authenticated caller", ingestion.ErrAccessDenied)
	}
	if ownerID == uuid.Nil || ownerID == rd.UserID {
		return rd.UserID, nil
	}
	if !rd.IsAdmin() {
		return uuid.Nil, ingestion.ErrAccessDenied
	}
	return ownerID, nil
}

// canModify reports whether the caller may change a record owned by ownerID.
// Public records (nil owner) are admin-only.
func canModify(ctx context.Context, ownerID *uuid.UUID) bool {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return false
	}
	if rd.IsAdmin() {
		return true
	}
	return ownerID != nil && *ownerID == rd.UserID
}
