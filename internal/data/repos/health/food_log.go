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

type FoodLogListParams struct {
	OwnerID  uuid.UUID
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
	SortDesc bool
}

type FoodLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, log *types.FoodLog) (*types.FoodLog, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.FoodLog, error)
	ExistsInWindow(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, from, to time.Time) (bool, error)
	List(ctx context.Context, tx *gorm.DB, p FoodLogListParams) ([]*types.FoodLog, int64, error)
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type foodLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFoodLogRepo(db *gorm.DB, baseLog *logger.Logger) FoodLogRepo {
	repoLog := baseLog.With("repo", "FoodLogRepo")
	return &foodLogRepo{db: db, log: repoLog}
}

func (r *foodLogRepo) Create(ctx context.Context, tx *gorm.DB, l *types.FoodLog) (*types.FoodLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if l == nil {
		return nil, errors.New("food log required")
	}
	if err := transaction.WithContext(ctx).Create(l).Error; err != nil {
		return nil, repoerr.MapError("food_log.create", err)
	}
	return l, nil
}

func (r *foodLogRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.FoodLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var l types.FoodLog
	if err := transaction.WithContext(ctx).Where("id = ?", id).Take(&l).Error; err != nil {
		return nil, repoerr.MapError("food_log.get", err)
	}
	return &l, nil
}

// ExistsInWindow reports whether the owner has an active log with logged_at in [from, to].
func (r *foodLogRepo) ExistsInWindow(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, from, to time.Time) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.FoodLog{}).
		Where("owner_id = ? AND logged_at >= ? AND logged_at <= ?", ownerID, from.UTC(), to.UTC()).
		Count(&count).Error; err != nil {
		return false, repoerr.MapError("food_log.window", err)
	}
	return count > 0, nil
}

func (r *foodLogRepo) List(ctx context.Context, tx *gorm.DB, p FoodLogListParams) ([]*types.FoodLog, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.FoodLog{}).Where("owner_id = ?", p.OwnerID)
	if p.From != nil {
		q = q.Where("logged_at >= ?", p.From.UTC())
	}
	if p.To != nil {
		q = q.Where("logged_at < ?", p.To.UTC())
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, repoerr.MapError("food_log.count", err)
	}

	order := "logged_at ASC, id ASC"
	if p.SortDesc {
		order = "logged_at DESC, id DESC"
	}
	limit := p.Limit
	if limit <= 0 {
		limit = -1
	}
	var results []*types.FoodLog
	if err := q.Order(order).Limit(limit).Offset(p.Offset).Find(&results).Error; err != nil {
		return nil, 0, repoerr.MapError("food_log.list", err)
	}
	return results, total, nil
}

func (r *foodLogRepo) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.FoodLog{})
	if res.Error != nil {
		return repoerr.MapError("food_log.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return repoerr.MapError("food_log.delete", gorm.ErrRecordNotFound)
	}
	return nil
}
