package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/healthlog-backend/internal/data/repos"
	"github.com/yungbote/healthlog-backend/internal/data/repos/repoerr"
	"github.com/yungbote/healthlog-backend/internal/domain/health"
	"github.com/yungbote/healthlog-backend/internal/ingestion"
	"github.com/yungbote/healthlog-backend/internal/ingestion/catalog"
	"github.com/yungbote/healthlog-backend/internal/ingestion/extractor"
	"github.com/yungbote/healthlog-backend/internal/platform/logger"
)

const (
	// MaxFutureSkew is how far ahead of now a log timestamp may be.
	MaxFutureSkew = 10 * time.Minute
	// DuplicateWindow is the half-width of the per-owner exclusion window.
	DuplicateWindow = 5 * time.Minute
)

type LogWriter struct {
	log   *logger.Logger
	db    *gorm.DB
	items repos.FoodItemRepo
	logs  repos.FoodLogRepo
	units *catalog.UnitTable
	now   func() time.Time
}

func NewLogWriter(log *logger.Logger, db *gorm.DB, items repos.FoodItemRepo, logs repos.FoodLogRepo, units *catalog.UnitTable) *LogWriter {
	if units == nil {
		units = catalog.MustDefaultReferenceData().Units
	}
	return &LogWriter{
		log:   log.With("service", "LogWriter"),
		db:    db,
		items: items,
		logs:  logs,
		units: units,
		now:   time.Now,
	}
}

// WithClock returns a copy that reads the current time from now.
func (w *LogWriter) WithClock(now func() time.Time) *LogWriter {
	cp := *w
	cp.now = now
	return &cp
}

// Write records an ingested candidate against item for ownerID. The candidate
// is stored as provenance.
func (w *LogWriter) Write(ctx context.Context, c extractor.Candidate, item *health.FoodItem, ownerID uuid.UUID) (*health.FoodLog, error) {
	prov, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode provenance: %w", err)
	}
	return w.write(ctx, c, item, ownerID, health.SourceIngested, datatypes.JSON(prov))
}

// WriteManual records a user-entered log under the same invariants.
func (w *LogWriter) WriteManual(ctx context.Context, c extractor.Candidate, item *health.FoodItem, ownerID uuid.UUID) (*health.FoodLog, error) {
	return w.write(ctx, c, item, ownerID, health.SourceManual, nil)
}

func (w *LogWriter) write(ctx context.Context, c extractor.Candidate, item *health.FoodItem, ownerID uuid.UUID, source string, prov datatypes.JSON) (*health.FoodLog, error) {
	if item == nil {
		return nil, fmt.Errorf("write log: %w", ingestion.ErrNotFound)
	}
	if c.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ingestion.ErrInvalidInput)
	}
	at := c.LoggedAt.UTC()
	if at.After(w.now().Add(MaxFutureSkew)) {
		return nil, fmt.Errorf("logged_at %s: %w", at.Format(time.RFC3339), ingestion.ErrFutureTimestamp)
	}

	var out *health.FoodLog
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwner(tx, ownerID); err != nil {
			return err
		}

		current, err := w.items.GetByIDUnscoped(ctx, tx, item.ID)
		if err != nil {
			if repoerr.IsNotFound(err) {
				return fmt.Errorf("food item %s: %w", item.ID, ingestion.ErrNotFound)
			}
			return err
		}
		if !current.Active() {
			return fmt.Errorf("food item %s: %w", item.ID, ingestion.ErrInactiveCatalogEntry)
		}

		dup, err := w.logs.ExistsInWindow(ctx, tx, ownerID, at.Add(-DuplicateWindow), at.Add(DuplicateWindow))
		if err != nil {
			return err
		}
		if dup {
			return fmt.Errorf("logged_at %s: %w", at.Format(time.RFC3339), ingestion.ErrDuplicateWindow)
		}

		qty, baseline := w.quantityInItemUnit(c, current)
		mealType := c.Category
		if !health.ValidMealType(mealType) {
			mealType = health.MealTypeForHour(at.Hour())
		}
		entry := &health.FoodLog{
			OwnerID:    ownerID,
			FoodItemID: current.ID,
			LoggedAt:   at,
			Quantity:   c.Quantity,
			Unit:       c.Unit,
			MealType:   mealType,
			Calories:   health.Scale(current.Calories, qty, baseline),
			Protein:    health.Scale(current.Protein, qty, baseline),
			Carbs:      health.Scale(current.Carbs, qty, baseline),
			Fat:        health.Scale(current.Fat, qty, baseline),
			Fiber:      health.Scale(current.Fiber, qty, baseline),
			Note:       c.Note,
			Source:     source,
			Provenance: prov,
		}
		created, err := w.logs.Create(ctx, tx, entry)
		if err != nil {
			return err
		}
		out = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// quantityInItemUnit converts the candidate quantity into the item's unit when
// the units differ and both gram weights are known, and returns it with the
// item's baseline quantity.
func (w *LogWriter) quantityInItemUnit(c extractor.Candidate, item *health.FoodItem) (qty, baseline float64) {
	baseline = item.BaselineQuantity
	if baseline <= 0 {
		baseline = 1
	}
	qty = c.Quantity
	fromUnit, fromKnown := w.units.Canonical(c.Unit)
	toUnit, _ := w.units.Canonical(item.DefaultUnit)
	if fromUnit != toUnit && fromKnown && item.WeightPerUnit > 0 {
		grams, _ := w.units.GramsPerUnit(fromUnit, item.Name)
		qty = qty * grams / item.WeightPerUnit
	}
	return qty, baseline
}

// lockOwner serializes log writes per owner on Postgres so concurrent
// requests cannot both pass the duplicate-window check. SQLite already
// serializes writers.
func lockOwner(tx *gorm.DB, ownerID uuid.UUID) error {
	if tx.Dialector == nil || tx.Dialector.Name() != "postgres" {
		return nil
	}
	if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", ownerID.String()).Error; err != nil {
		return fmt.Errorf("lock owner: %w", err)
	}
	return nil
}
