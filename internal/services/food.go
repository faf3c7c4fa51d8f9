package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/healthlog-backend/internal/data/repos"
	"github.com/yungbote/healthlog-backend/internal/data/repos/repoerr"
	"github.com/yungbote/healthlog-backend/internal/domain/health"
	"github.com/yungbote/healthlog-backend/internal/ingestion"
	"github.com/yungbote/healthlog-backend/internal/ingestion/catalog"
	"github.com/yungbote/healthlog-backend/internal/ingestion/extractor"
	"github.com/yungbote/healthlog-backend/internal/platform/ctxutil"
	"github.com/yungbote/healthlog-backend/internal/platform/logger"
)

type FoodItemInput struct {
	Name             string   `json:"name"`
	DefaultUnit      string   `json:"default_unit"`
	BaselineQuantity float64  `json:"baseline_quantity"`
	WeightPerUnit    float64  `json:"weight_per_unit"`
	Calories         *float64 `json:"calories"`
	Protein          *float64 `json:"protein"`
	Carbs            *float64 `json:"carbs"`
	Fat              *float64 `json:"fat"`
	Fiber            *float64 `json:"fiber"`
	// Public entries may only be created by admins.
	Public bool `json:"public"`
}

// FoodItemPatch holds the fields an update may change; nil leaves a field alone.
type FoodItemPatch struct {
	Name             *string  `json:"name"`
	DefaultUnit      *string  `json:"default_unit"`
	BaselineQuantity *float64 `json:"baseline_quantity"`
	WeightPerUnit    *float64 `json:"weight_per_unit"`
	Calories         *float64 `json:"calories"`
	Protein          *float64 `json:"protein"`
	Carbs            *float64 `json:"carbs"`
	Fat              *float64 `json:"fat"`
	Fiber            *float64 `json:"fiber"`
}

type FoodListParams struct {
	Query    string
	Limit    int
	Offset   int
	SortBy   string
	SortDesc bool
}

type FoodService interface {
	Create(ctx context.Context, in FoodItemInput) (*health.FoodItem, error)
	Get(ctx context.Context, id uuid.UUID) (*health.FoodItem, error)
	List(ctx context.Context, p FoodListParams) ([]*health.FoodItem, int64, error)
	Update(ctx context.Context, id uuid.UUID, patch FoodItemPatch) (*health.FoodItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type foodService struct {
	log   *logger.Logger
	items repos.FoodItemRepo
	units *catalog.UnitTable
}

func NewFoodService(log *logger.Logger, items repos.FoodItemRepo, units *catalog.UnitTable) FoodService {
	serviceLog := log.With("service", "FoodService")
	if units == nil {
		units = catalog.MustDefaultReferenceData().Units
	}
	return &foodService{log: serviceLog, items: items, units: units}
}

func (fs *foodService) Create(ctx context.Context, in FoodItemInput) (*health.FoodItem, error) {
	caller, err := actingOwner(ctx, uuid.Nil)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ingestion.ErrInvalidInput)
	}
	if err := validateNutrition(in.Calories, in.Protein, in.Carbs, in.Fat, in.Fiber); err != nil {
		return nil, err
	}
	if in.BaselineQuantity < 0 || in.WeightPerUnit < 0 {
		return nil, fmt.Errorf("%w: quantities must not be negative", ingestion.ErrInvalidInput)
	}

	unit := fs.canonicalUnit(in.DefaultUnit)
	weight := in.WeightPerUnit
	if weight == 0 {
		weight, _ = fs.units.GramsPerUnit(unit, name)
	}
	item := &health.FoodItem{
		Name:             name,
		DefaultUnit:      unit,
		BaselineQuantity: in.BaselineQuantity,
		WeightPerUnit:    weight,
		Calories:         in.Calories,
		Protein:          in.Protein,
		Carbs:            in.Carbs,
		Fat:              in.Fat,
		Fiber:            in.Fiber,
		Source:           health.SourceManual,
	}
	if in.Public {
		if !ctxutil.GetRequestData(ctx).IsAdmin() {
			return nil, fmt.Errorf("%w: public entries are admin-only", ingestion.ErrAccessDenied)
		}
	} else {
		item.OwnerID = &caller
	}

	created, err := fs.items.Create(ctx, nil, item)
	if err != nil {
		return nil, err
	}
	fs.log.Info("food item created", "food_item_id", created.ID, "visibility", created.Visibility)
	return created, nil
}

func (fs *foodService) Get(ctx context.Context, id uuid.UUID) (*health.FoodItem, error) {
	if _, err := actingOwner(ctx, uuid.Nil); err != nil {
		return nil, err
	}
	item, err := fs.items.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if !fs.visible(ctx, item) {
		return nil, fmt.Errorf("food item %s: %w", id, repoerr.ErrNotFound)
	}
	return item, nil
}

func (fs *foodService) List(ctx context.Context, p FoodListParams) ([]*health.FoodItem, int64, error) {
	caller, err := actingOwner(ctx, uuid.Nil)
	if err != nil {
		return nil, 0, err
	}
	items, total, err := fs.items.List(ctx, nil, repos.FoodItemListParams{
		ViewerID: caller,
		Query:    p.Query,
		Limit:    p.Limit,
		Offset:   p.Offset,
		SortBy:   p.SortBy,
		SortDesc: p.SortDesc,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ingestion.ErrInvalidInput, err)
	}
	return items, total, nil
}

func (fs *foodService) Update(ctx context.Context, id uuid.UUID, patch FoodItemPatch) (*health.FoodItem, error) {
	item, err := fs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModify(ctx, item.OwnerID) {
		return nil, ingestion.ErrAccessDenied
	}
	if err := validateNutrition(patch.Calories, patch.Protein, patch.Carbs, patch.Fat, patch.Fiber); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if patch.Name != nil {
		name := strings.Join(strings.Fields(*patch.Name), " ")
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ingestion.ErrInvalidInput)
		}
		updates["name"] = name
	}
	if patch.DefaultUnit != nil {
		updates["default_unit"] = fs.canonicalUnit(*patch.DefaultUnit)
	}
	if patch.BaselineQuantity != nil {
		if *patch.BaselineQuantity <= 0 {
			return nil, fmt.Errorf("%w: baseline_quantity must be positive", ingestion.ErrInvalidInput)
		}
		updates["baseline_quantity"] = *patch.BaselineQuantity
	}
	if patch.WeightPerUnit != nil {
		if *patch.WeightPerUnit < 0 {
			return nil, fmt.Errorf("%w: weight_per_unit must not be negative", ingestion.ErrInvalidInput)
		}
		updates["weight_per_unit"] = *patch.WeightPerUnit
	}
	for col, v := range map[string]*float64{
		"calories": patch.Calories,
		"protein":  patch.Protein,
		"carbs":    patch.Carbs,
		"fat":      patch.Fat,
		"fiber":    patch.Fiber,
	} {
		if v != nil {
			updates[col] = *v
		}
	}
	if len(updates) == 0 {
		return item, nil
	}
	if err := fs.items.Update(ctx, nil, id, updates); err != nil {
		return nil, err
	}
	return fs.items.GetByID(ctx, nil, id)
}

func (fs *foodService) Delete(ctx context.Context, id uuid.UUID) error {
	item, err := fs.Get(ctx, id)
	if err != nil {
		return err
	}
	if !canModify(ctx, item.OwnerID) {
		return ingestion.ErrAccessDenied
	}
	if err := fs.items.SoftDelete(ctx, nil, id); err != nil {
		return err
	}
	fs.log.Info("food item deleted", "food_item_id", id)
	return nil
}

func (fs *foodService) visible(ctx context.Context, item *health.FoodItem) bool {
	if item.OwnerID == nil {
		return true
	}
	rd := ctxutil.GetRequestData(ctx)
	return rd.IsAdmin() || (rd != nil && *item.OwnerID == rd.UserID)
}

func (fs *foodService) canonicalUnit(unit string) string {
	u, _ := fs.units.Canonical(unit)
	if u == "" {
		return extractor.DefaultUnit
	}
	return u
}

func validateNutrition(values ...*float64) error {
	for _, v := range values {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: nutrition values must not be negative", ingestion.ErrInvalidInput)
		}
	}
	return nil
}
