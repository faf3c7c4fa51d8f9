package health

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActivityUnitMinute = "minute"
	ActivityUnitKm     = "km"
	ActivityUnitRep    = "rep"
)

var activityUnits = map[string]string{
	"minute":  ActivityUnitMinute,
	"minutes": ActivityUnitMinute,
	"min":     ActivityUnitMinute,
	"mins":    ActivityUnitMinute,
	"km":      ActivityUnitKm,
	"kms":     ActivityUnitKm,
	"rep":     ActivityUnitRep,
	"reps":    ActivityUnitRep,
}

// CanonicalActivityUnit maps a unit alias to its canonical form. Empty input
// means minutes.
func CanonicalActivityUnit(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ActivityUnitMinute, true
	}
	u, ok := activityUnits[s]
	return u, ok
}

// ActivityType is an activity catalog entry. CaloriesBurned is per
// BaselineQuantity of Unit; nil means unknown.
type ActivityType struct {
	ID      uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name    string     `gorm:"column:name;not null" json:"name"`
	OwnerID *uuid.UUID `gorm:"type:uuid;column:owner_id;index" json:"owner_id,omitempty"`

	Unit             string   `gorm:"column:unit;not null" json:"unit"`
	BaselineQuantity float64  `gorm:"column:baseline_quantity;not null" json:"baseline_quantity"`
	CaloriesBurned   *float64 `gorm:"column:calories_burned" json:"calories_burned,omitempty"`

	Visibility string `gorm:"column:visibility;not null;index" json:"visibility"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ActivityType) TableName() string { return "activity_type" }

func (a *ActivityType) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.Name = strings.Join(strings.Fields(a.Name), " ")
	if a.Visibility == "" {
		if a.OwnerID == nil {
			a.Visibility = VisibilityPublic
		} else {
			a.Visibility = VisibilityPrivate
		}
	}
	if a.Unit == "" {
		a.Unit = ActivityUnitMinute
	}
	if a.BaselineQuantity <= 0 {
		a.BaselineQuantity = 1
	}
	return nil
}

func (a *ActivityType) Active() bool {
	return a != nil && !a.DeletedAt.Valid
}

// ActivityLog is one performed activity. CaloriesBurned is derived at write
// time from the referenced ActivityType.
type ActivityLog struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID        uuid.UUID `gorm:"type:uuid;column:owner_id;not null;index:idx_activity_log_owner_time,priority:1" json:"owner_id"`
	ActivityTypeID uuid.UUID `gorm:"type:uuid;column:activity_type_id;not null;index" json:"activity_type_id"`

	LoggedAt       time.Time `gorm:"column:logged_at;not null;index:idx_activity_log_owner_time,priority:2" json:"logged_at"`
	Quantity       float64   `gorm:"column:quantity;not null" json:"quantity"`
	Unit           string    `gorm:"column:unit;not null" json:"unit"`
	CaloriesBurned *float64  `gorm:"column:calories_burned" json:"calories_burned,omitempty"`
	Note           string    `gorm:"column:note;type:text" json:"note,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ActivityLog) TableName() string { return "activity_log" }

func (l *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.LoggedAt = l.LoggedAt.UTC()
	return nil
}
