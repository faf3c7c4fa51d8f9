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

type MetricLogListParams struct {
	OwnerID  uuid.UUID
	Kind     string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
	SortDesc bool
}

type MetricAggregate struct {
	Count int64   `json:"count"`
	Sum   float64 `json:"sum"`
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

type MetricLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, m *types.MetricLog) (*types.MetricLog, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.MetricLog, error)
	List(ctx context.Context, tx *gorm.DB, p MetricLogListParams) ([]*types.MetricLog, int64, error)
	Aggregate(ctx context.Context, tx *gorm.DB, p MetricLogListParams) (MetricAggregate, error)
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type metricLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMetricLogRepo(db *gorm.DB, baseLog *logger.Logger) MetricLogRepo {
	repoLog := baseLog.With("repo", "MetricLogRepo")
	return &metricLogRepo{db: db, log: repoLog}
}

func (r *metricLogRepo) Create(ctx context.Context, tx *gorm.DB, m *types.MetricLog) (*types.MetricLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if m == nil {
		return nil, errors.New("metric log required")
	}
	if err := transaction.WithContext(ctx).Create(m).Error; err != nil {
		return nil, repoerr.MapError("metric_log.create", err)
	}
	return m, nil
}

func (r *metricLogRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.MetricLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var m types.MetricLog
	if err := transaction.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		return nil, repoerr.MapError("metric_log.get", err)
	}
	return &m, nil
}

func (r *metricLogRepo) scope(transaction *gorm.DB, ctx context.Context, p MetricLogListParams) *gorm.DB {
	q := transaction.WithContext(ctx).Model(&types.MetricLog{}).
		Where("owner_id = ?", p.OwnerID)
	if p.Kind != "" {
		q = q.Where("kind = ?", p.Kind)
	}
	if p.From != nil {
		q = q.Where("logged_at >= ?", p.From.UTC())
	}
	if p.To != nil {
		q = q.Where("logged_at < ?", p.To.UTC())
	}
	return q
}

func (r *metricLogRepo) List(ctx context.Context, tx *gorm.DB, p MetricLogListParams) ([]*types.MetricLog, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var total int64
	if err := r.scope(transaction, ctx, p).Count(&total).Error; err != nil {
		return nil, 0, repoerr.MapError("metric_log.count", err)
	}
	order := "logged_at ASC, id ASC"
	if p.SortDesc {
		order = "logged_at DESC, id DESC"
	}
	limit := p.Limit
	if limit <= 0 {
		limit = -1
	}
	var results []*types.MetricLog
	if err := r.scope(transaction, ctx, p).Order(order).Limit(limit).Offset(p.Offset).Find(&results).Error; err != nil {
		return nil, 0, repoerr.MapError("metric_log.list", err)
	}
	return results, total, nil
}

// Aggregate computes count/sum/avg/min/max over the range. An empty range
// returns a zero aggregate.
func (r *metricLogRepo) Aggregate(ctx context.Context, tx *gorm.DB, p MetricLogListParams) (MetricAggregate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row struct {
		Count int64
		Sum   *float64
		Avg   *float64
		Min   *float64
		Max   *float64
	}
	if err := r.scope(transaction, ctx, p).
		Select("COUNT(*) AS count, SUM(value) AS sum, AVG(value) AS avg, MIN(value) AS min, MAX(value) AS max").
		Scan(&row).Error; err != nil {
		return MetricAggregate{}, repoerr.MapError("metric_log.aggregate", err)
	}
	out := MetricAggregate{Count: row.Count}
	if row.Count > 0 {
		out.Sum = deref(row.Sum)
		out.Avg = deref(row.Avg)
		out.Min = deref(row.Min)
		out.Max = deref(row.Max)
	}
	return out, nil
}

func (r *metricLogRepo) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.MetricLog{})
	if res.Error != nil {
		return repoerr.MapError("metric_log.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return repoerr.MapError("metric_log.delete", gorm.ErrRecordNotFound)
	}
	return nil
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
