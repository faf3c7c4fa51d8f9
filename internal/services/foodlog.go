package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/healthlog-backend/internal/data/repos"
	"github.com/yungbote/healthlog-backend/internal/data/repos/repoerr"
	"github.com/yungbote/healthlog-backend/internal/domain/health"
	"github.com/yungbote/healthlog-backend/internal/ingestion"
	"github.com/yungbote/healthlog-backend/internal/ingestion/extractor"
	"github.com/yungbote/healthlog-backend/internal/platform/logger"
	"github.com/yungbote/healthlog-backend/internal/platform/pointers"
)

// ManualLogWriter persists a user-entered log under the ingestion write rules.
type ManualLogWriter interface {
	WriteManual(ctx context.Context, c extractor.Candidate, item *health.FoodItem, ownerID uuid.UUID) (*health.FoodLog, error)
}

type ManualLogInput struct {
	FoodItemID uuid.UUID  `json:"food_item_id"`
	Quantity   float64    `json:"quantity"`
	Unit       string     `json:"unit"`
	MealType   string     `json:"meal_type"`
	LoggedAt   *time.Time `json:"logged_at"`
	Note       string     `json:"note"`
}

type FoodLogQuery struct {
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
	SortDesc bool
}

// DaySummary totals one local calendar day. Unknown nutrition values count as zero.
type DaySummary struct {
	Date     string  `json:"date"`
	Entries  int     `json:"entries"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

type FoodLogService interface {
	Create(ctx context.Context, ownerID uuid.UUID, in ManualLogInput) (*health.FoodLog, error)
	Get(ctx context.Context, id uuid.UUID) (*health.FoodLog, error)
	List(ctx context.Context, ownerID uuid.UUID, q FoodLogQuery) ([]*health.FoodLog, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DailySummary(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]DaySummary, error)
}

type foodLogService struct {
	log    *logger.Logger
	foods  FoodService
	logs   repos.FoodLogRepo
	writer ManualLogWriter
	loc    *time.Location
	now    func() time.Time
}

func NewFoodLogService(log *logger.Logger, foods FoodService, logs repos.FoodLogRepo, writer ManualLogWriter, loc *time.Location) FoodLogService {
	serviceLog := log.With("service", "FoodLogService")
	if loc == nil {
		loc = time.UTC
	}
	return &foodLogService{log: serviceLog, foods: foods, logs: logs, writer: writer, loc: loc, now: time.Now}
}

func (fls *foodLogService) Create(ctx context.Context, ownerID uuid.UUID, in ManualLogInput) (*health.FoodLog, error) {
	owner, err := actingOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if in.FoodItemID == uuid.Nil {
		return nil, fmt.Errorf("%w: food_item_id is required", ingestion.ErrInvalidInput)
	}
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ingestion.ErrInvalidInput)
	}
	meal := strings.ToLower(strings.TrimSpace(in.MealType))
	if meal != "" && !health.ValidMealType(meal) {
		return nil, fmt.Errorf("%w: unknown meal_type %q", ingestion.ErrInvalidInput, in.MealType)
	}

	item, err := fls.foods.Get(ctx, in.FoodItemID)
	if err != nil {
		return nil, err
	}
	at := fls.now()
	if in.LoggedAt != nil {
		at = *in.LoggedAt
	}
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = item.DefaultUnit
	}
	if meal == "" {
		meal = health.MealTypeForHour(at.In(fls.loc).Hour())
	}
	return fls.writer.WriteManual(ctx, extractor.Candidate{
		Name:     item.Name,
		Quantity: in.Quantity,
		Unit:     unit,
		Category: meal,
		LoggedAt: at,
		Note:     in.Note,
	}, item, owner)
}

func (fls *foodLogService) Get(ctx context.Context, id uuid.UUID) (*health.FoodLog, error) {
	entry, err := fls.logs.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if _, err := actingOwner(ctx, entry.OwnerID); err != nil {
		// Other owners' logs are indistinguishable from missing ones.
		return nil, fmt.Errorf("food log %s: %w", id, repoerr.ErrNotFound)
	}
	return entry, nil
}

func (fls *foodLogService) List(ctx context.Context, ownerID uuid.UUID, q FoodLogQuery) ([]*health.FoodLog, int64, error) {
	owner, err := actingOwner(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return nil, 0, fmt.Errorf("%w: to precedes from", ingestion.ErrInvalidInput)
	}
	return fls.logs.List(ctx, nil, repos.FoodLogListParams{
		OwnerID:  owner,
		From:     q.From,
		To:       q.To,
		Limit:    q.Limit,
		Offset:   q.Offset,
		SortDesc: q.SortDesc,
	})
}

func (fls *foodLogService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := fls.Get(ctx, id); err != nil {
		return err
	}
	if err := fls.logs.SoftDelete(ctx, nil, id); err != nil {
		return err
	}
	fls.log.Info("food log deleted", "food_log_id", id)
	return nil
}

// DailySummary totals the owner's logs in [from, to) per local day, oldest first.
func (fls *foodLogService) DailySummary(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]DaySummary, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: to precedes from", ingestion.ErrInvalidInput)
	}
	entries, _, err := fls.List(ctx, ownerID, FoodLogQuery{From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	byDay := map[string]*DaySummary{}
	for _, e := range entries {
		day := e.LoggedAt.In(fls.loc).Format(time.DateOnly)
		s, ok := byDay[day]
		if !ok {
			s = &DaySummary{Date: day}
			byDay[day] = s
		}
		s.Entries++
		s.Calories += pointers.Float64Value(e.Calories, 0)
		s.Protein += pointers.Float64Value(e.Protein, 0)
		s.Carbs += pointers.Float64Value(e.Carbs, 0)
		s.Fat += pointers.Float64Value(e.Fat, 0)
		s.Fiber += pointers.Float64Value(e.Fiber, 0)
	}
	out := make([]DaySummary, 0, len(byDay))
	for _, s := range byDay {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
