package health

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	VisibilityPrivate = "private"
	VisibilityPublic  = "public"

	SourceManual      = "manual"
	SourceSynthesized = "synthesized"
	SourceIngested    = "ingested"
)

// FoodItem is a catalog entry. Nutrition fields are per BaselineQuantity of DefaultUnit;
// a nil field means the value is unknown, not zero.
type FoodItem struct {
	ID      uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name    string     `gorm:"column:name;not null" json:"name"`
	OwnerID *uuid.UUID `gorm:"type:uuid;column:owner_id;index" json:"owner_id,omitempty"`

	DefaultUnit      string  `gorm:"column:default_unit;not null" json:"default_unit"`
	BaselineQuantity float64 `gorm:"column:baseline_quantity;not null" json:"baseline_quantity"`
	WeightPerUnit    float64 `gorm:"column:weight_per_unit;not null" json:"weight_per_unit"`

	Calories *float64 `gorm:"column:calories" json:"calories,omitempty"`
	Protein  *float64 `gorm:"column:protein" json:"protein,omitempty"`
	Carbs    *float64 `gorm:"column:carbs" json:"carbs,omitempty"`
	Fat      *float64 `gorm:"column:fat" json:"fat,omitempty"`
	Fiber    *float64 `gorm:"column:fiber" json:"fiber,omitempty"`

	Visibility string `gorm:"column:visibility;not null;index" json:"visibility"`
	Source     string `gorm:"column:source;not null" json:"source"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (FoodItem) TableName() string { return "food_item" }

func (f *FoodItem) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	f.Name = strings.Join(strings.Fields(f.Name), " ")
	if f.Visibility == "" {
		if f.OwnerID == nil {
			f.Visibility = VisibilityPublic
		} else {
			f.Visibility = VisibilityPrivate
		}
	}
	if f.Source == "" {
		f.Source = SourceManual
	}
	if f.BaselineQuantity <= 0 {
		f.BaselineQuantity = 1
	}
	return nil
}

// IsPublic reports whether the entry is visible to every user.
func (f *FoodItem) IsPublic() bool {
	return f != nil && f.OwnerID == nil
}

// Active reports whether the entry has not been soft-deleted.
func (f *FoodItem) Active() bool {
	return f != nil && !f.DeletedAt.Valid
}

// NormalizeName lower-cases, trims and collapses inner whitespace. Catalog
// names are compared in this form everywhere.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Scale derives v × qty ÷ baseline for a per-baseline catalog value. An
// absent value stays absent; a non-positive baseline counts as 1.
func Scale(v *float64, qty, baseline float64) *float64 {
	if v == nil {
		return nil
	}
	if baseline <= 0 {
		baseline = 1
	}
	out := *v * qty / baseline
	return &out
}
