package health

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealSnack     = "snack"
	MealDinner    = "dinner"
)

var mealTypes = map[string]bool{
	MealBreakfast: true,
	MealLunch:     true,
	MealSnack:     true,
	MealDinner:    true,
}

func ValidMealType(s string) bool { return mealTypes[s] }

// MealTypeForHour buckets a local hour of day into a meal.
func MealTypeForHour(hour int) string {
	switch {
	case hour < 11:
		return MealBreakfast
	case hour < 16:
		return MealLunch
	case hour < 18:
		return MealSnack
	default:
		return MealDinner
	}
}

// FoodLog is one consumption record. Derived nutrition is computed once at
// write time from the referenced FoodItem.
type FoodLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID    uuid.UUID `gorm:"type:uuid;column:owner_id;not null;index:idx_food_log_owner_time,priority:1" json:"owner_id"`
	FoodItemID uuid.UUID `gorm:"type:uuid;column:food_item_id;not null;index" json:"food_item_id"`

	LoggedAt time.Time `gorm:"column:logged_at;not null;index:idx_food_log_owner_time,priority:2" json:"logged_at"`
	Quantity float64   `gorm:"column:quantity;not null" json:"quantity"`
	Unit     string    `gorm:"column:unit;not null" json:"unit"`
	MealType string    `gorm:"column:meal_type;not null" json:"meal_type"`

	Calories *float64 `gorm:"column:calories" json:"calories,omitempty"`
	Protein  *float64 `gorm:"column:protein" json:"protein,omitempty"`
	Carbs    *float64 `gorm:"column:carbs" json:"carbs,omitempty"`
	Fat      *float64 `gorm:"column:fat" json:"fat,omitempty"`
	Fiber    *float64 `gorm:"column:fiber" json:"fiber,omitempty"`

	Note       string         `gorm:"column:note;type:text" json:"note,omitempty"`
	Source     string         `gorm:"column:source;not null" json:"source"`
	Provenance datatypes.JSON `gorm:"column:provenance" json:"provenance,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (FoodLog) TableName() string { return "food_log" }

func (l *FoodLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Source == "" {
		l.Source = SourceManual
	}
	l.LoggedAt = l.LoggedAt.UTC()
	return nil
}
