package health

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MetricSteps  = "steps"
	MetricWater  = "water"
	MetricWeight = "weight"
	MetricSleep  = "sleep"
	MetricMood   = "mood"
	MetricCycle  = "cycle"
)

// MetricKind describes the unit and accepted range of one metric.
type MetricKind struct {
	Name string
	Unit string
	Min  float64
	Max  float64
}

var metricKinds = map[string]MetricKind{
	MetricSteps:  {Name: MetricSteps, Unit: "steps", Min: 0, Max: 200000},
	MetricWater:  {Name: MetricWater, Unit: "ml", Min: 0, Max: 20000},
	MetricWeight: {Name: MetricWeight, Unit: "kg", Min: 1, Max: 500},
	MetricSleep:  {Name: MetricSleep, Unit: "hours", Min: 0, Max: 24},
	MetricMood:   {Name: MetricMood, Unit: "score", Min: 1, Max: 10},
	MetricCycle:  {Name: MetricCycle, Unit: "day", Min: 1, Max: 60},
}

func LookupMetricKind(name string) (MetricKind, bool) {
	k, ok := metricKinds[name]
	return k, ok
}

// MetricLog is one reading of a simple tracked metric.
type MetricLog struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID  uuid.UUID `gorm:"type:uuid;column:owner_id;not null;index:idx_metric_log_owner_kind_time,priority:1" json:"owner_id"`
	Kind     string    `gorm:"column:kind;not null;index:idx_metric_log_owner_kind_time,priority:2" json:"kind"`
	Value    float64   `gorm:"column:value;not null" json:"value"`
	Unit     string    `gorm:"column:unit;not null" json:"unit"`
	LoggedAt time.Time `gorm:"column:logged_at;not null;index:idx_metric_log_owner_kind_time,priority:3" json:"logged_at"`
	Note     string    `gorm:"column:note;type:text" json:"note,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (MetricLog) TableName() string { return "metric_log" }

func (m *MetricLog) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.LoggedAt = m.LoggedAt.UTC()
	return nil
}
