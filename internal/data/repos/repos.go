package repos

import (
	"github.com/yungbote/healthlog-backend/internal/data/repos/health"
	"github.com/yungbote/healthlog-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type FoodItemRepo = health.FoodItemRepo
type FoodLogRepo = health.FoodLogRepo
type MetricLogRepo = health.MetricLogRepo
type ActivityTypeRepo = health.ActivityTypeRepo
type ActivityLogRepo = health.ActivityLogRepo

type FoodItemListParams = health.FoodItemListParams
type FoodLogListParams = health.FoodLogListParams
type MetricLogListParams = health.MetricLogListParams
type MetricAggregate = health.MetricAggregate
type ActivityTypeListParams = health.ActivityTypeListParams
type ActivityLogListParams = health.ActivityLogListParams
type ActivityTotals = health.ActivityTotals

// Set bundles every repository the app wires.
type Set struct {
	FoodItems  FoodItemRepo
	FoodLogs   FoodLogRepo
	MetricLogs MetricLogRepo

	ActivityTypes ActivityTypeRepo
	ActivityLogs  ActivityLogRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		FoodItems:  health.NewFoodItemRepo(db, log),
		FoodLogs:   health.NewFoodLogRepo(db, log),
		MetricLogs: health.NewMetricLogRepo(db, log),

		ActivityTypes: health.NewActivityTypeRepo(db, log),
		ActivityLogs:  health.NewActivityLogRepo(db, log),
	}
}
