package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/healthlog-backend/internal/data/repos"
	"github.com/yungbote/healthlog-backend/internal/data/repos/testutil"
	"github.com/yungbote/healthlog-backend/internal/domain/health"
	"github.com/yungbote/healthlog-backend/internal/ingestion"
	"github.com/yungbote/healthlog-backend/internal/ingestion/extractor"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newWriter(t *testing.T) (*gorm.DB, repos.Set, *LogWriter, context.Context) {
	t.Helper()
	db := testutil.DB(t)
	set := repos.NewSet(db, testutil.Logger(t))
	w := NewLogWriter(testutil.Logger(t), db, set.FoodItems, set.FoodLogs, nil).
		WithClock(func() time.Time { return fixedNow })
	return db, set, w, context.Background()
}

func candidate(name string, qty float64, unit string, at time.Time) extractor.Candidate {
	return extractor.Candidate{Name: name, Quantity: qty, Unit: unit, LoggedAt: at, Note: name}
}

func TestWriteScalesLinearly(t *testing.T) {
	db, _, w, ctx := newWriter(t)
	owner := uuid.New()
	item := testutil.SeedFoodItem(t, ctx, db, "boiled egg", nil, "piece", 78)

	one, err := w.Write(ctx, candidate("boiled egg", 1, "piece", fixedNow.Add(-2*time.Hour)), item, owner)
	require.NoError(t, err)
	three, err := w.Write(ctx, candidate("boiled egg", 3, "piece", fixedNow.Add(-time.Hour)), item, owner)
	require.NoError(t, err)

	require.NotNil(t, one.Calories)
	require.NotNil(t, three.Calories)
	assert.InDelta(t, 78, *one.Calories, 1e-9)
	assert.InDelta(t, 3**one.Calories, *three.Calories, 1e-9)
	assert.InDelta(t, 3**one.Protein, *three.Protein, 1e-9)
	assert.Nil(t, three.Fiber, "absent field stays absent")
	assert.Equal(t, health.SourceIngested, three.Source)
	assert.NotEmpty(t, three.Provenance)
}

func TestWriteRespectsBaselineQuantity(t *testing.T) {
	db, _, w, ctx := newWriter(t)
	item := testutil.SeedFoodItem(t, ctx, db, "white rice", nil, "gram", 130)
	require.NoError(t, db.Model(item).Update("baseline_quantity", 100).Error)
	item.BaselineQuantity = 100

	got, err := w.Write(ctx, candidate("white rice", 250, "g", fixedNow.Add(-time.Hour)), item, uuid.New())
	require.NoError(t, err)
	assert.InDelta(t, 325, *got.Calories, 1e-9)
}

func TestWriteConvertsUnits(t *testing.T) {
	db, _, w, ctx := newWriter(t)
	// 200 kcal per cup weighing 100 g.
	item := testutil.SeedFoodItem(t, ctx, db, "rice", nil, "cup", 200)

	got, err := w.Write(ctx, candidate("rice", 50, "grams", fixedNow.Add(-time.Hour)), item, uuid.New())
	require.NoError(t, err)
	assert.InDelta(t, 100, *got.Calories, 1e-9)
	assert.Equal(t, 50.0, got.Quantity, "stored quantity keeps the spoken unit")
	assert.Equal(t, "grams", got.Unit)
}

func TestWriteDuplicateWindow(t *testing.T) {
	db, _, w, ctx := newWriter(t)
	owner := uuid.New()
	item := testutil.SeedFoodItem(t, ctx, db, "coffee", nil, "cup", 5)
	base := fixedNow.Add(-time.Hour)
	testutil.SeedFoodLog(t, ctx, db, owner, item, base)

	for _, off := range []time.Duration{-5 * time.Minute, -3 * time.Minute, 0, 3 * time.Minute, 5 * time.Minute} {
		_, err := w.Write(ctx, candidate("coffee", 1, "cup", base.Add(off)), item, owner)
		assert.True(t, errors.Is(err, ingestion.ErrDuplicateWindow), "offset %s: err=%v", off, err)
	}

	_, err := w.Write(ctx, candidate("coffee", 1, "cup", base.Add(3*time.Minute)), item, uuid.New())
	require.NoError(t, err, "other owners are unaffected")

	_, err = w.Write(ctx, candidate("coffee", 1, "cup", base.Add(5*time.Minute+time.Second)), item, owner)
	require.NoError(t, err)
}

func TestWriteIgnoresDeletedLogsInWindow(t *testing.T) {
	db, set, w, ctx := newWriter(t)
	owner := uuid.New()
	item := testutil.SeedFoodItem(t, ctx, db, "tea", nil, "cup", 30)
	at := fixedNow.Add(-time.Hour)
	prior := testutil.SeedFoodLog(t, ctx, db, owner, item, at)
	require.NoError(t, set.FoodLogs.SoftDelete(ctx, nil, prior.ID))

	_, err := w.Write(ctx, candidate("tea", 1, "cup", at.Add(time.Minute)), item, owner)
	require.NoError(t, err)
}

func TestWriteFutureBoundary(t *testing.T) {
	db, _, w, ctx := newWriter(t)
	item := testutil.SeedFoodItem(t, ctx, db, "apple", nil, "piece", 95)

	_, err := w.Write(ctx, candidate("apple", 1, "piece", fixedNow.Add(MaxFutureSkew)), item, uuid.New())
	require.NoError(t, err, "exactly +10m is accepted")

	_, err = w.Write(ctx, candidate("apple", 1, "piece", fixedNow.Add(MaxFutureSkew+time.Second)), item, uuid.New())
	assert.True(t, errors.Is(err, ingestion.ErrFutureTimestamp), "err=%v", err)
}

func TestWriteInactiveCatalogEntry(t *testing.T) {
	db, set, w, ctx := newWriter(t)
	item := testutil.SeedFoodItem(t, ctx, db, "samosa", nil, "piece", 260)
	require.NoError(t, set.FoodItems.SoftDelete(ctx, nil, item.ID))

	_, err := w.Write(ctx, candidate("samosa", 1, "piece", fixedNow), item, uuid.New())
	assert.True(t, errors.Is(err, ingestion.ErrInactiveCatalogEntry), "err=%v", err)

	ghost := &health.FoodItem{ID: uuid.New(), Name: "ghost"}
	_, err = w.Write(ctx, candidate("ghost", 1, "piece", fixedNow), ghost, uuid.New())
	assert.True(t, errors.Is(err, ingestion.ErrNotFound), "err=%v", err)
}

func TestWriteMealTypeFallsBackToHour(t *testing.T) {
	db, _, w, ctx := newWriter(t)
	item := testutil.SeedFoodItem(t, ctx, db, "toast", nil, "piece", 80)

	c := candidate("toast", 1, "piece", time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	c.Category = "elevenses"
	got, err := w.WriteManual(ctx, c, item, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, health.MealBreakfast, got.MealType)
	assert.Equal(t, health.SourceManual, got.Source)
}
