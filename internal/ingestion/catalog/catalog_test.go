package catalog

import (
	"context"
	"errors"
	"sync"
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
	"github.com/yungbote/healthlog-backend/internal/platform/pointers"
)

func newRepos(t *testing.T) (*gorm.DB, repos.Set, context.Context) {
	t.Helper()
	db := testutil.DB(t)
	return db, repos.NewSet(db, testutil.Logger(t)), context.Background()
}

func TestResolverMatchOrder(t *testing.T) {
	db, set, ctx := newRepos(t)
	owner := uuid.New()
	public := testutil.SeedFoodItem(t, ctx, db, "Oatmeal", nil, "cup", 150)
	private := testutil.SeedFoodItem(t, ctx, db, "oatmeal", &owner, "cup", 120)

	r := NewResolver(testutil.Logger(t), set.FoodItems, ResolverOptions{})

	got, err := r.Resolve(ctx, "OATMEAL", owner)
	require.NoError(t, err)
	assert.Equal(t, private.ID, got.ID, "owner's entry wins")

	got, err = r.Resolve(ctx, "oatmeal", uuid.New())
	require.NoError(t, err)
	assert.Equal(t, public.ID, got.ID, "other owners see the public entry")

	_, err = r.Resolve(ctx, "pizza", owner)
	assert.True(t, errors.Is(err, ingestion.ErrNotFound), "err=%v", err)
}

func TestResolverIdempotent(t *testing.T) {
	db, set, ctx := newRepos(t)
	owner := uuid.New()
	testutil.SeedFoodItem(t, ctx, db, "Masala Dosa", nil, "piece", 250)
	r := NewResolver(testutil.Logger(t), set.FoodItems, ResolverOptions{})

	first, err := r.Resolve(ctx, "Masala Dosa", owner)
	require.NoError(t, err)
	second, err := r.Resolve(ctx, "Masala Dosa", owner)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestResolverFuzzyWithStubScore(t *testing.T) {
	db, set, ctx := newRepos(t)
	idly := testutil.SeedFoodItem(t, ctx, db, "idly", nil, "piece", 58)
	testutil.SeedFoodItem(t, ctx, db, "upma", nil, "cup", 200)

	scorer := func(a, b string) float64 {
		if b == "idly" {
			return 0.85
		}
		return 0.1
	}
	r := NewResolver(testutil.Logger(t), set.FoodItems, ResolverOptions{Scorer: scorer})

	got, err := r.Resolve(ctx, "idli", uuid.New())
	require.NoError(t, err)
	assert.Equal(t, idly.ID, got.ID)
}

func TestResolverFuzzyThresholdIsStrict(t *testing.T) {
	db, set, ctx := newRepos(t)
	testutil.SeedFoodItem(t, ctx, db, "idly", nil, "piece", 58)

	r := NewResolver(testutil.Logger(t), set.FoodItems, ResolverOptions{
		Scorer: func(a, b string) float64 { return 0.8 },
	})
	_, err := r.Resolve(ctx, "idli", uuid.New())
	assert.True(t, errors.Is(err, ingestion.ErrNotFound), "score equal to threshold must not match")
}

func TestResolverFuzzyTieKeepsFirst(t *testing.T) {
	db, set, ctx := newRepos(t)
	first := testutil.SeedFoodItem(t, ctx, db, "chapathi", nil, "piece", 120)
	time.Sleep(2 * time.Millisecond)
	testutil.SeedFoodItem(t, ctx, db, "chappati", nil, "piece", 120)

	r := NewResolver(testutil.Logger(t), set.FoodItems, ResolverOptions{})
	got, err := r.Resolve(ctx, "chapati", uuid.New())
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestResolverFuzzyIgnoresPrivateAndDeleted(t *testing.T) {
	db, set, ctx := newRepos(t)
	owner := uuid.New()
	testutil.SeedFoodItem(t, ctx, db, "chapathi", &owner, "piece", 120)
	deleted := testutil.SeedFoodItem(t, ctx, db, "chappati", nil, "piece", 120)
	require.NoError(t, set.FoodItems.SoftDelete(ctx, nil, deleted.ID))

	r := NewResolver(testutil.Logger(t), set.FoodItems, ResolverOptions{})
	_, err := r.Resolve(ctx, "chapati", uuid.New())
	assert.True(t, errors.Is(err, ingestion.ErrNotFound), "err=%v", err)
}

func TestValidateEstimate(t *testing.T) {
	tests := []struct {
		name string
		est  *extractor.NutritionEstimate
		ok   bool
		want Per100
	}{
		{name: "nil", est: nil},
		{name: "zero calories", est: &extractor.NutritionEstimate{Calories: 0.5, Protein: 1}},
		{name: "negative protein", est: &extractor.NutritionEstimate{Calories: 100, Protein: -1}},
		{name: "negative carbs", est: &extractor.NutritionEstimate{Calories: 100, Carbs: -1}},
		{
			name: "clamped",
			est:  &extractor.NutritionEstimate{Calories: 2500, Protein: 150, Carbs: 20, Fat: -3, Fiber: 70},
			ok:   true,
			want: Per100{Calories: 1000, Protein: 100, Carbs: 20, Fat: 0, Fiber: 50},
		},
		{
			name: "in range",
			est:  &extractor.NutritionEstimate{Calories: 155, Protein: 13, Carbs: 1.1, Fat: 11},
			ok:   true,
			want: Per100{Calories: 155, Protein: 13, Carbs: 1.1, Fat: 11},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ValidateEstimate(tt.est, DefaultMinCalories)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
	_, ok := ValidateEstimate(&extractor.NutritionEstimate{Calories: 20}, 50)
	assert.False(t, ok, "configurable minimum")
}

func TestSynthesizerBuild(t *testing.T) {
	_, set, _ := newRepos(t)
	s := NewSynthesizer(testutil.Logger(t), set.FoodItems, nil, SynthesizerOptions{})

	egg, source := s.Build(extractor.Candidate{Name: "boiled egg", Quantity: 2, Unit: "pieces"})
	assert.Equal(t, EstimateTable, source)
	assert.Equal(t, "piece", egg.DefaultUnit)
	assert.Equal(t, 1.0, egg.BaselineQuantity)
	assert.Equal(t, 50.0, egg.WeightPerUnit)
	assert.Equal(t, 77.5, *egg.Calories)
	assert.Nil(t, egg.OwnerID)
	assert.Equal(t, health.VisibilityPublic, egg.Visibility)
	assert.Equal(t, health.SourceSynthesized, egg.Source)

	rice, source := s.Build(extractor.Candidate{Name: "jeera rice", Unit: "g", Nutrition: &extractor.NutritionEstimate{Calories: 180, Protein: 3.5, Carbs: 30, Fat: 5}})
	assert.Equal(t, EstimateUpstream, source)
	assert.Equal(t, "gram", rice.DefaultUnit)
	assert.Equal(t, 100.0, rice.BaselineQuantity)
	assert.Equal(t, 180.0, *rice.Calories)

	mystery, source := s.Build(extractor.Candidate{Name: "mystery stew", Unit: "serving", Nutrition: &extractor.NutritionEstimate{Calories: 0}})
	assert.Equal(t, EstimateGeneric, source)
	assert.Equal(t, 150.0, *mystery.Calories)
	assert.Equal(t, 7.5, *mystery.Protein)
	assert.Equal(t, 1.5, *mystery.Fiber)
}

func TestSynthesizerPersistsPublicEntry(t *testing.T) {
	_, set, ctx := newRepos(t)
	s := NewSynthesizer(testutil.Logger(t), set.FoodItems, nil, SynthesizerOptions{})

	item, err := s.Synthesize(ctx, extractor.Candidate{Name: "Coffee", Quantity: 1, Unit: "cup"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, item.ID)
	assert.Equal(t, 5.0, *item.Calories)

	r := NewResolver(testutil.Logger(t), set.FoodItems, ResolverOptions{})
	got, err := r.Resolve(ctx, "coffee", uuid.New())
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)

	again, err := s.Synthesize(ctx, extractor.Candidate{Name: "COFFEE", Quantity: 2, Unit: "cup"})
	require.NoError(t, err)
	assert.Equal(t, item.ID, again.ID, "existing public entry is reused")
}

func TestSynthesizerConcurrentSameName(t *testing.T) {
	_, set, ctx := newRepos(t)
	s := NewSynthesizer(testutil.Logger(t), set.FoodItems, nil, SynthesizerOptions{})

	const n = 8
	ids := make([]uuid.UUID, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			item, err := s.Synthesize(ctx, extractor.Candidate{Name: "banana", Quantity: 1, Unit: "piece"})
			errs[i] = err
			if item != nil {
				ids[i] = item.ID
			}
		}(i)
	}
	wg.Wait()
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	all, err := set.FoodItems.ListPublic(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSynthesizerConflictResolvesExisting(t *testing.T) {
	_, set, ctx := newRepos(t)
	racer := &racingRepo{FoodItemRepo: set.FoodItems}
	s := NewSynthesizer(testutil.Logger(t), racer, nil, SynthesizerOptions{})

	// The first lookup misses, then another writer inserts before our Create.
	racer.beforeCreate = func() {
		_, err := set.FoodItems.Create(ctx, nil, &health.FoodItem{
			Name: "apple", DefaultUnit: "piece", BaselineQuantity: 1, WeightPerUnit: 180, Calories: pointers.Float64(94),
		})
		require.NoError(t, err)
	}
	item, err := s.Synthesize(ctx, extractor.Candidate{Name: "Apple", Quantity: 1, Unit: "piece"})
	require.NoError(t, err)
	assert.Equal(t, 94.0, *item.Calories, "the concurrently inserted entry is returned")
}

type racingRepo struct {
	repos.FoodItemRepo
	beforeCreate func()
}

func (r *racingRepo) Create(ctx context.Context, tx *gorm.DB, item *health.FoodItem) (*health.FoodItem, error) {
	if r.beforeCreate != nil {
		r.beforeCreate()
		r.beforeCreate = nil
	}
	return r.FoodItemRepo.Create(ctx, tx, item)
}

func TestSynthesizerSharedInsertSurvivesLeaderCancel(t *testing.T) {
	_, set, ctx := newRepos(t)
	gate := &gatedRepo{FoodItemRepo: set.FoodItems, entered: make(chan struct{}), release: make(chan struct{})}
	s := NewSynthesizer(testutil.Logger(t), gate, nil, SynthesizerOptions{})

	leaderCtx, cancel := context.WithCancel(ctx)
	leaderErr := make(chan error, 1)
	go func() {
		_, err := s.Synthesize(leaderCtx, extractor.Candidate{Name: "mango", Quantity: 1, Unit: "piece"})
		leaderErr <- err
	}()
	<-gate.entered

	type result struct {
		item *health.FoodItem
		err  error
	}
	follower := make(chan result, 1)
	go func() {
		item, err := s.Synthesize(ctx, extractor.Candidate{Name: "Mango", Quantity: 2, Unit: "piece"})
		follower <- result{item, err}
	}()

	cancel()
	select {
	case err := <-leaderErr:
		assert.True(t, errors.Is(err, context.Canceled), "err=%v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(gate.release)
	select {
	case res := <-follower:
		require.NoError(t, res.err)
		require.NotNil(t, res.item)
		assert.Equal(t, "mango", res.item.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("waiting caller did not receive the shared entry")
	}

	all, err := set.FoodItems.ListPublic(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

// gatedRepo blocks the first public-name lookup until released.
type gatedRepo struct {
	repos.FoodItemRepo
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (r *gatedRepo) FindPublicByName(ctx context.Context, tx *gorm.DB, name string) (*health.FoodItem, error) {
	first := false
	r.once.Do(func() { first = true })
	if first {
		close(r.entered)
		<-r.release
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.FoodItemRepo.FindPublicByName(ctx, tx, name)
}
