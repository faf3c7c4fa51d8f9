package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/healthlog-backend/internal/data/repos"
	"github.com/yungbote/healthlog-backend/internal/data/repos/repoerr"
	"github.com/yungbote/healthlog-backend/internal/domain/health"
	"github.com/yungbote/healthlog-backend/internal/ingestion"
	"github.com/yungbote/healthlog-backend/internal/platform/ctxutil"
	"github.com/yungbote/healthlog-backend/internal/platform/logger"
)

const maxActivityFutureSkew = 10 * time.Minute

type ActivityTypeInput struct {
	Name             string   `json:"name"`
	Unit             string   `json:"unit"`
	BaselineQuantity float64  `json:"baseline_quantity"`
	CaloriesBurned   *float64 `json:"calories_burned"`
	// Public entries may only be created by admins.
	Public bool `json:"public"`
}

type ActivityLogInput struct {
	ActivityTypeID uuid.UUID  `json:"activity_type_id"`
	Quantity       float64    `json:"quantity"`
	LoggedAt       *time.Time `json:"logged_at"`
	Note           string     `json:"note"`
}

type ActivityLogQuery struct {
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
	SortDesc bool
}

type ActivityService interface {
	CreateType(ctx context.Context, in ActivityTypeInput) (*health.ActivityType, error)
	GetType(ctx context.Context, id uuid.UUID) (*health.ActivityType, error)
	ListTypes(ctx context.Context, query string, limit, offset int) ([]*health.ActivityType, int64, error)
	DeleteType(ctx context.Context, id uuid.UUID) error

	Log(ctx context.Context, ownerID uuid.UUID, in ActivityLogInput) (*health.ActivityLog, error)
	GetLog(ctx context.Context, id uuid.UUID) (*health.ActivityLog, error)
	ListLogs(ctx context.Context, ownerID uuid.UUID, q ActivityLogQuery) ([]*health.ActivityLog, int64, error)
	Totals(ctx context.Context, ownerID uuid.UUID, q ActivityLogQuery) (repos.ActivityTotals, error)
	DeleteLog(ctx context.Context, id uuid.UUID) error
}

type activityService struct {
	log   *logger.Logger
	types repos.ActivityTypeRepo
	logs  repos.ActivityLogRepo
	now   func() time.Time
}

func NewActivityService(log *logger.Logger, types repos.ActivityTypeRepo, logs repos.ActivityLogRepo) ActivityService {
	serviceLog := log.With("service", "ActivityService")
	return &activityService{log: serviceLog, types: types, logs: logs, now: time.Now}
}

func (as *activityService) CreateType(ctx context.Context, in ActivityTypeInput) (*health.ActivityType, error) {
	caller, err := actingOwner(ctx, uuid.Nil)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ingestion.ErrInvalidInput)
	}
	unit, ok := health.CanonicalActivityUnit(in.Unit)
	if !ok {
		return nil, fmt.Errorf("%w: unknown activity unit %q", ingestion.ErrInvalidInput, in.Unit)
	}
	if in.BaselineQuantity < 0 {
		return nil, fmt.Errorf("%w: baseline_quantity must not be negative", ingestion.ErrInvalidInput)
	}
	if in.CaloriesBurned != nil && *in.CaloriesBurned < 0 {
		return nil, fmt.Errorf("%w: calories_burned must not be negative", ingestion.ErrInvalidInput)
	}
	a := &health.ActivityType{
		Name:             name,
		Unit:             unit,
		BaselineQuantity: in.BaselineQuantity,
		CaloriesBurned:   in.CaloriesBurned,
	}
	if in.Public {
		if !ctxutil.GetRequestData(ctx).IsAdmin() {
			return nil, fmt.Errorf("%w: public entries are admin-only", ingestion.ErrAccessDenied)
		}
	} else {
		a.OwnerID = &caller
	}
	created, err := as.types.Create(ctx, nil, a)
	if err != nil {
		return nil, err
	}
	as.log.Info("activity type created", "activity_type_id", created.ID, "visibility", created.Visibility)
	return created, nil
}

func (as *activityService) GetType(ctx context.Context, id uuid.UUID) (*health.ActivityType, error) {
	if _, err := actingOwner(ctx, uuid.Nil); err != nil {
		return nil, err
	}
	a, err := as.types.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if a.OwnerID != nil {
		rd := ctxutil.GetRequestData(ctx)
		if !rd.IsAdmin() && *a.OwnerID != rd.UserID {
			return nil, fmt.Errorf("activity type %s: %w", id, repoerr.ErrNotFound)
		}
	}
	return a, nil
}

func (as *activityService) ListTypes(ctx context.Context, query string, limit, offset int) ([]*health.ActivityType, int64, error) {
	caller, err := actingOwner(ctx, uuid.Nil)
	if err != nil {
		return nil, 0, err
	}
	return as.types.List(ctx, nil, repos.ActivityTypeListParams{
		ViewerID: caller,
		Query:    query,
		Limit:    limit,
		Offset:   offset,
	})
}

func (as *activityService) DeleteType(ctx context.Context, id uuid.UUID) error {
	a, err := as.GetType(ctx, id)
	if err != nil {
		return err
	}
	if !canModify(ctx, a.OwnerID) {
		return ingestion.ErrAccessDenied
	}
	return as.types.SoftDelete(ctx, nil, id)
}

// Log records an activity and derives its calorie burn from the catalog entry:
// burned = calories_burned × quantity ÷ baseline_quantity.
func (as *activityService) Log(ctx context.Context, ownerID uuid.UUID, in ActivityLogInput) (*health.ActivityLog, error) {
	owner, err := actingOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if in.ActivityTypeID == uuid.Nil {
		return nil, fmt.Errorf("%w: activity_type_id is required", ingestion.ErrInvalidInput)
	}
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ingestion.ErrInvalidInput)
	}
	now := as.now()
	at := now
	if in.LoggedAt != nil {
		at = *in.LoggedAt
	}
	if at.After(now.Add(maxActivityFutureSkew)) {
		return nil, fmt.Errorf("logged_at %s: %w", at.UTC().Format(time.RFC3339), ingestion.ErrFutureTimestamp)
	}

	a, err := as.types.GetByIDUnscoped(ctx, nil, in.ActivityTypeID)
	if err != nil {
		return nil, err
	}
	if a.OwnerID != nil && *a.OwnerID != owner && !ctxutil.GetRequestData(ctx).IsAdmin() {
		return nil, fmt.Errorf("activity type %s: %w", a.ID, repoerr.ErrNotFound)
	}
	if !a.Active() {
		return nil, fmt.Errorf("activity type %s: %w", a.ID, ingestion.ErrInactiveCatalogEntry)
	}
	return as.logs.Create(ctx, nil, &health.ActivityLog{
		OwnerID:        owner,
		ActivityTypeID: a.ID,
		LoggedAt:       at,
		Quantity:       in.Quantity,
		Unit:           a.Unit,
		CaloriesBurned: health.Scale(a.CaloriesBurned, in.Quantity, a.BaselineQuantity),
		Note:           in.Note,
	})
}

func (as *activityService) GetLog(ctx context.Context, id uuid.UUID) (*health.ActivityLog, error) {
	l, err := as.logs.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if _, err := actingOwner(ctx, l.OwnerID); err != nil {
		return nil, fmt.Errorf("activity log %s: %w", id, repoerr.ErrNotFound)
	}
	return l, nil
}

func (as *activityService) ListLogs(ctx context.Context, ownerID uuid.UUID, q ActivityLogQuery) ([]*health.ActivityLog, int64, error) {
	p, err := as.params(ctx, ownerID, q)
	if err != nil {
		return nil, 0, err
	}
	return as.logs.List(ctx, nil, p)
}

func (as *activityService) Totals(ctx context.Context, ownerID uuid.UUID, q ActivityLogQuery) (repos.ActivityTotals, error) {
	p, err := as.params(ctx, ownerID, q)
	if err != nil {
		return repos.ActivityTotals{}, err
	}
	return as.logs.Totals(ctx, nil, p)
}

func (as *activityService) DeleteLog(ctx context.Context, id uuid.UUID) error {
	if _, err := as.GetLog(ctx, id); err != nil {
		return err
	}
	return as.logs.SoftDelete(ctx, nil, id)
}

func (as *activityService) params(ctx context.Context, ownerID uuid.UUID, q ActivityLogQuery) (repos.ActivityLogListParams, error) {
	owner, err := actingOwner(ctx, ownerID)
	if err != nil {
		return repos.ActivityLogListParams{}, err
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return repos.ActivityLogListParams{}, fmt.Errorf("%w: to precedes from", ingestion.ErrInvalidInput)
	}
	return repos.ActivityLogListParams{
		OwnerID:  owner,
		From:     q.From,
		To:       q.To,
		Limit:    q.Limit,
		Offset:   q.Offset,
		SortDesc: q.SortDesc,
	}, nil
}
