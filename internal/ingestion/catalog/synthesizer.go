package catalog

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/singleflight"

	"github.com/yungbote/healthlog-backend/internal/data/repos"
	"github.com/yungbote/healthlog-backend/internal/data/repos/repoerr"
	"github.com/yungbote/healthlog-backend/internal/domain/health"
	"github.com/yungbote/healthlog-backend/internal/ingestion/extractor"
	"github.com/yungbote/healthlog-backend/internal/platform/logger"
	"github.com/yungbote/healthlog-backend/internal/platform/pointers"
)

const DefaultMinCalories = 1.0

// Clamp bounds for accepted upstream estimates, per 100 base units.
var (
	caloriesRange = [2]float64{1, 1000}
	macroRange    = [2]float64{0, 100}
	fiberRange    = [2]float64{0, 50}
)

const (
	EstimateUpstream = "upstream"
	EstimateTable    = "reference_table"
	EstimateGeneric  = "generic"
)

type SynthesizerOptions struct {
	// MinCalories rejects upstream estimates below it. Zero means DefaultMinCalories.
	MinCalories float64
}

type Synthesizer struct {
	log         *logger.Logger
	items       repos.FoodItemRepo
	ref         *ReferenceData
	minCalories float64
	group       singleflight.Group
}

func NewSynthesizer(log *logger.Logger, items repos.FoodItemRepo, ref *ReferenceData, opts SynthesizerOptions) *Synthesizer {
	if ref == nil {
		ref = MustDefaultReferenceData()
	}
	if opts.MinCalories <= 0 {
		opts.MinCalories = DefaultMinCalories
	}
	return &Synthesizer{
		log:         log.With("service", "CatalogSynthesizer"),
		items:       items,
		ref:         ref,
		minCalories: opts.MinCalories,
	}
}

// Synthesize creates a public catalog entry for the candidate. Only storage
// failures and the caller's own cancellation are returned. Concurrent calls
// for one name share a single insert, and a racing insert from another
// process resolves to the existing entry.
func (s *Synthesizer) Synthesize(ctx context.Context, c extractor.Candidate) (*health.FoodItem, error) {
	key := health.NormalizeName(c.Name)
	if key == "" {
		return nil, fmt.Errorf("synthesize: empty name")
	}
	// The shared insert must outlive whichever caller started it.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return s.synthesize(shared, c)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*health.FoodItem), nil
	}
}

func (s *Synthesizer) synthesize(ctx context.Context, c extractor.Candidate) (*health.FoodItem, error) {
	if existing, err := s.items.FindPublicByName(ctx, nil, c.Name); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	item, source := s.Build(c)
	created, err := s.items.Create(ctx, nil, item)
	if err == nil {
		s.log.Info("catalog entry synthesized", "food_item_id", created.ID, "unit", created.DefaultUnit, "estimate", source)
		return created, nil
	}
	if !repoerr.IsConflict(err) {
		return nil, err
	}
	existing, ferr := s.items.FindPublicByName(ctx, nil, c.Name)
	if ferr != nil {
		return nil, ferr
	}
	if existing == nil {
		return nil, err
	}
	return existing, nil
}

// Build computes the entry Synthesize would insert without persisting it,
// and reports which nutrition source was used.
func (s *Synthesizer) Build(c extractor.Candidate) (*health.FoodItem, string) {
	unit, _ := s.ref.Units.Canonical(c.Unit)
	if unit == "" {
		unit = extractor.DefaultUnit
	}
	grams, _ := s.ref.Units.GramsPerUnit(unit, c.Name)

	per100, source := s.estimate(c)

	baseline := 1.0
	if s.ref.Units.IsBase(unit) {
		baseline = 100
	}
	factor := baseline * grams / 100
	return &health.FoodItem{
		Name:             c.Name,
		OwnerID:          nil,
		DefaultUnit:      unit,
		BaselineQuantity: baseline,
		WeightPerUnit:    grams,
		Calories:         pointers.Float64(round2(per100.Calories * factor)),
		Protein:          pointers.Float64(round2(per100.Protein * factor)),
		Carbs:            pointers.Float64(round2(per100.Carbs * factor)),
		Fat:              pointers.Float64(round2(per100.Fat * factor)),
		Fiber:            pointers.Float64(round2(per100.Fiber * factor)),
		Visibility:       health.VisibilityPublic,
		Source:           health.SourceSynthesized,
	}, source
}

func (s *Synthesizer) estimate(c extractor.Candidate) (Per100, string) {
	if est, ok := ValidateEstimate(c.Nutrition, s.minCalories); ok {
		return est, EstimateUpstream
	}
	if v, ok := s.ref.Foods.Lookup(c.Name); ok {
		return v, EstimateTable
	}
	return GenericPer100, EstimateGeneric
}

// ValidateEstimate rejects an estimate with calories below minCalories or
// negative protein or carbs, and clamps an accepted one into plausible ranges.
func ValidateEstimate(est *extractor.NutritionEstimate, minCalories float64) (Per100, bool) {
	if est == nil {
		return Per100{}, false
	}
	if est.Calories < minCalories || est.Protein < 0 || est.Carbs < 0 {
		return Per100{}, false
	}
	return Per100{
		Calories: clamp(est.Calories, caloriesRange),
		Protein:  clamp(est.Protein, macroRange),
		Carbs:    clamp(est.Carbs, macroRange),
		Fat:      clamp(est.Fat, macroRange),
		Fiber:    clamp(est.Fiber, fiberRange),
	}, true
}

func clamp(v float64, r [2]float64) float64 {
	return math.Min(math.Max(v, r[0]), r[1])
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
