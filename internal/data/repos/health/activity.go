package health

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/healthlog-backend/internal/data/repos/repoerr"
	types "github.com/yungbote/healthlog-backend/internal/domain/health"
	"github.com/yungbote/healthlog-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type ActivityTypeListParams struct {
	ViewerID uuid.UUID
	Query    string
	Limit    int
	Offset   int
}

type ActivityTypeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, a *types.ActivityType) (*types.ActivityType, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ActivityType, error)
	GetByIDUnscoped(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ActivityType, error)
	List(ctx context.Context, tx *gorm.DB, p ActivityTypeListParams) ([]*types.ActivityType, int64, error)
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type activityTypeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityTypeRepo(db *gorm.DB, baseLog *logger.Logger) ActivityTypeRepo {
	repoLog := baseLog.With("repo", "ActivityTypeRepo")
	return &activityTypeRepo{db: db, log: repoLog}
}

func (r *activityTypeRepo) Create(ctx context.Context, tx *gorm.DB, a *types.ActivityType) (*types.ActivityType, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if a == nil {
		return nil, errors.New("activity type required")
	}
	if err := transaction.WithContext(ctx).Create(a).Error; err != nil {
		return nil, repoerr.MapError("activity_type.create", err)
	}
	return a, nil
}

func (r *activityTypeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ActivityType, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var a types.ActivityType
	if err := transaction.WithContext(ctx).Where("id = ?", id).Take(&a).Error; err != nil {
		return nil, repoerr.MapError("activity_type.get", err)
	}
	return &a, nil
}

func (r *activityTypeRepo) GetByIDUnscoped(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ActivityType, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var a types.ActivityType
	if err := transaction.WithContext(ctx).Unscoped().Where("id = ?", id).Take(&a).Error; err != nil {
		return nil, repoerr.MapError("activity_type.get_unscoped", err)
	}
	return &a, nil
}

// List returns the viewer's private activity types plus all public ones, by name.
func (r *activityTypeRepo) List(ctx context.Context, tx *gorm.DB, p ActivityTypeListParams) ([]*types.ActivityType, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.ActivityType{}).
		Where("owner_id IS NULL OR owner_id = ?", p.ViewerID)
	if s := types.NormalizeName(p.Query); s != "" {
		q = q.Where("lower(name) LIKE ?", "%"+escapeLike(s)+"%")
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, repoerr.MapError("activity_type.count", err)
	}
	limit := p.Limit
	if limit <= 0 {
		limit = -1
	}
	var results []*types.ActivityType
	if err := q.Order("name ASC, id ASC").Limit(limit).Offset(p.Offset).Find(&results).Error; err != nil {
		return nil, 0, repoerr.MapError("activity_type.list", err)
	}
	return results, total, nil
}

func (r *activityTypeRepo) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.ActivityType{})
	if res.Error != nil {
		return repoerr.MapError("activity_type.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return repoerr.MapError("activity_type.delete", gorm.ErrRecordNotFound)
	}
	return nil
}

type ActivityLogListParams struct {
	OwnerID  uuid.UUID
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
	SortDesc bool
}

// ActivityTotals sums an owner's activity logs over a range. Unknown calorie
// values count as zero.
type ActivityTotals struct {
	Count          int64   `json:"count"`
	Quantity       float64 `json:"quantity"`
	CaloriesBurned float64 `json:"calories_burned"`
}

type ActivityLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, l *types.ActivityLog) (*types.ActivityLog, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ActivityLog, error)
	List(ctx context.Context, tx *gorm.DB, p ActivityLogListParams) ([]*types.ActivityLog, int64, error)
	Totals(ctx context.Context, tx *gorm.DB, p ActivityLogListParams) (ActivityTotals, error)
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type activityLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityLogRepo(db *gorm.DB, baseLog *logger.Logger) ActivityLogRepo {
	repoLog := baseLog.With("repo", "ActivityLogRepo")
	return &activityLogRepo{db: db, log: repoLog}
}

func (r *activityLogRepo) Create(ctx context.Context, tx *gorm.DB, l *types.ActivityLog) (*types.ActivityLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if l == nil {
		return nil, errors.New("activity log required")
	}
	if err := transaction.WithContext(ctx).Create(l).Error; err != nil {
		return nil, repoerr.MapError("activity_log.create", err)
	}
	return l, nil
}

func (r *activityLogRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ActivityLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var l types.ActivityLog
	if err := transaction.WithContext(ctx).Where("id = ?", id).Take(&l).Error; err != nil {
		return nil, repoerr.MapError("activity_log.get", err)
	}
	return &l, nil
}

func (r *activityLogRepo) scope(transaction *gorm.DB, ctx context.Context, p ActivityLogListParams) *gorm.DB {
	q := transaction.WithContext(ctx).Model(&types.ActivityLog{}).
		Where("owner_id = ?", p.OwnerID)
	if p.From != nil {
		q = q.Where("logged_at >= ?", p.From.UTC())
	}
	if p.To != nil {
		q = q.Where("logged_at < ?", p.To.UTC())
	}
	return q
}

func (r *activityLogRepo) List(ctx context.Context, tx *gorm.DB, p ActivityLogListParams) ([]*types.ActivityLog, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var total int64
	if err := r.scope(transaction, ctx, p).Count(&total).Error; err != nil {
		return nil, 0, repoerr.MapError("activity_log.count", err)
	}
	order := "logged_at ASC, id ASC"
	if p.SortDesc {
		order = "logged_at DESC, id DESC"
	}
	limit := p.Limit
	if limit <= 0 {
		limit = -1
	}
	var results []*types.ActivityLog
	if err := r.scope(transaction, ctx, p).Order(order).Limit(limit).Offset(p.Offset).Find(&results).Error; err != nil {
		return nil, 0, repoerr.MapError("activity_log.list", err)
	}
	return results, total, nil
}

func (r *activityLogRepo) Totals(ctx context.Context, tx *gorm.DB, p ActivityLogListParams) (ActivityTotals, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row struct {
		Count          int64
		Quantity       *float64
		CaloriesBurned *float64
	}
	if err := r.scope(transaction, ctx, p).
		Select("COUNT(*) AS count, SUM(quantity) AS quantity, SUM(calories_burned) AS calories_burned").
		Scan(&row).Error; err != nil {
		return ActivityTotals{}, repoerr.MapError("activity_log.totals", err)
	}
	return ActivityTotals{
		Count:          row.Count,
		Quantity:       deref(row.Quantity),
		CaloriesBurned: deref(row.CaloriesBurned),
	}, nil
}

func (r *activityLogRepo) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.ActivityLog{})
	if res.Error != nil {
		return repoerr.MapError("activity_log.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return repoerr.MapError("activity_log.delete", gorm.ErrRecordNotFound)
	}
	return nil
}
