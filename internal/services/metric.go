package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/healthlog-backend/internal/data/repos"
	"github.com/yungbote/healthlog-backend/internal/data/repos/repoerr"
	"github.com/yungbote/healthlog-backend/internal/domain/health"
	"github.com/yungbote/healthlog-backend/internal/ingestion"
	"github.com/yungbote/healthlog-backend/internal/platform/logger"
)

type MetricInput struct {
	Kind     string     `json:"kind"`
	Value    float64    `json:"value"`
	LoggedAt *time.Time `json:"logged_at"`
	Note     string     `json:"note"`
}

type MetricQuery struct {
	Kind     string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
	SortDesc bool
}

type MetricService interface {
	Create(ctx context.Context, ownerID uuid.UUID, in MetricInput) (*health.MetricLog, error)
	List(ctx context.Context, ownerID uuid.UUID, q MetricQuery) ([]*health.MetricLog, int64, error)
	Aggregate(ctx context.Context, ownerID uuid.UUID, q MetricQuery) (repos.MetricAggregate, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type metricService struct {
	log     *logger.Logger
	metrics repos.MetricLogRepo
	now     func() time.Time
}

func NewMetricService(log *logger.Logger, metrics repos.MetricLogRepo) MetricService {
	serviceLog := log.With("service", "MetricService")
	return &metricService{log: serviceLog, metrics: metrics, now: time.Now}
}

func (ms *metricService) Create(ctx context.Context, ownerID uuid.UUID, in MetricInput) (*health.MetricLog, error) {
	owner, err := actingOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	kind, ok := health.LookupMetricKind(strings.ToLower(strings.TrimSpace(in.Kind)))
	if !ok {
		return nil, fmt.Errorf("%w: unknown metric kind %q", ingestion.ErrInvalidInput, in.Kind)
	}
	if math.IsNaN(in.Value) || in.Value < kind.Min || in.Value > kind.Max {
		return nil, fmt.Errorf("%w: %s must be within [%g, %g] %s", ingestion.ErrInvalidInput, kind.Name, kind.Min, kind.Max, kind.Unit)
	}
	now := ms.now()
	at := now
	if in.LoggedAt != nil {
		at = *in.LoggedAt
	}
	if at.After(now.Add(10 * time.Minute)) {
		return nil, ingestion.ErrFutureTimestamp
	}
	return ms.metrics.Create(ctx, nil, &health.MetricLog{
		OwnerID:  owner,
		Kind:     kind.Name,
		Value:    in.Value,
		Unit:     kind.Unit,
		LoggedAt: at,
		Note:     in.Note,
	})
}

func (ms *metricService) List(ctx context.Context, ownerID uuid.UUID, q MetricQuery) ([]*health.MetricLog, int64, error) {
	p, err := ms.params(ctx, ownerID, q, false)
	if err != nil {
		return nil, 0, err
	}
	return ms.metrics.List(ctx, nil, p)
}

// Aggregate summarizes one metric kind over a range.
func (ms *metricService) Aggregate(ctx context.Context, ownerID uuid.UUID, q MetricQuery) (repos.MetricAggregate, error) {
	p, err := ms.params(ctx, ownerID, q, true)
	if err != nil {
		return repos.MetricAggregate{}, err
	}
	return ms.metrics.Aggregate(ctx, nil, p)
}

func (ms *metricService) Delete(ctx context.Context, id uuid.UUID) error {
	m, err := ms.metrics.GetByID(ctx, nil, id)
	if err != nil {
		return err
	}
	if _, err := actingOwner(ctx, m.OwnerID); err != nil {
		return fmt.Errorf("metric log %s: %w", id, repoerr.ErrNotFound)
	}
	return ms.metrics.SoftDelete(ctx, nil, id)
}

func (ms *metricService) params(ctx context.Context, ownerID uuid.UUID, q MetricQuery, kindRequired bool) (repos.MetricLogListParams, error) {
	owner, err := actingOwner(ctx, ownerID)
	if err != nil {
		return repos.MetricLogListParams{}, err
	}
	kind := strings.ToLower(strings.TrimSpace(q.Kind))
	if kind == "" && kindRequired {
		return repos.MetricLogListParams{}, fmt.Errorf("%w: kind is required", ingestion.ErrInvalidInput)
	}
	if _, ok := health.LookupMetricKind(kind); kind != "" && !ok {
		return repos.MetricLogListParams{}, fmt.Errorf("%w: unknown metric kind %q", ingestion.ErrInvalidInput, q.Kind)
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return repos.MetricLogListParams{}, fmt.Errorf("%w: to precedes from", ingestion.ErrInvalidInput)
	}
	return repos.MetricLogListParams{
		OwnerID:  owner,
		Kind:     kind,
		From:     q.From,
		To:       q.To,
		Limit:    q.Limit,
		Offset:   q.Offset,
		SortDesc: q.SortDesc,
	}, nil
}
