package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/healthlog-backend/internal/domain/health"
	"github.com/yungbote/healthlog-backend/internal/platform/pointers"
	"gorm.io/gorm"
)

// SeedFoodItem inserts a catalog entry with nutrition per one DefaultUnit.
// ownerID nil creates a public entry.
func SeedFoodItem(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, ownerID *uuid.UUID, unit string, calories float64) *health.FoodItem {
	tb.Helper()
	item := &health.FoodItem{
		Name:             name,
		OwnerID:          ownerID,
		DefaultUnit:      unit,
		BaselineQuantity: 1,
		WeightPerUnit:    100,
		Calories:         pointers.Float64(calories),
		Protein:          pointers.Float64(calories / 20),
		Carbs:            pointers.Float64(calories / 10),
		Fat:              pointers.Float64(calories / 30),
	}
	if err := tx.WithContext(ctx).Create(item).Error; err != nil {
		tb.Fatalf("seed food item: %v", err)
	}
	return item
}

func SeedFoodLog(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, item *health.FoodItem, at time.Time) *health.FoodLog {
	tb.Helper()
	l := &health.FoodLog{
		OwnerID:    ownerID,
		FoodItemID: item.ID,
		LoggedAt:   at,
		Quantity:   1,
		Unit:       item.DefaultUnit,
		MealType:   health.MealTypeForHour(at.Hour()),
		Calories:   item.Calories,
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed food log: %v", err)
	}
	return l
}
