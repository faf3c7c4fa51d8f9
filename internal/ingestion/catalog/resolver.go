// Package catalog binds candidate food names to catalog entries and
// synthesizes new public entries when nothing matches.
package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/healthlog-backend/internal/data/repos"
	"github.com/yungbote/healthlog-backend/internal/domain/health"
	"github.com/yungbote/healthlog-backend/internal/ingestion"
	"github.com/yungbote/healthlog-backend/internal/platform/logger"
)

const DefaultFuzzyThreshold = 0.8

const (
	MatchOwned  = "owned"
	MatchPublic = "public"
	MatchFuzzy  = "fuzzy"
)

type ResolverOptions struct {
	// Threshold a fuzzy score must strictly exceed. Zero means DefaultFuzzyThreshold.
	Threshold float64
	Scorer    Scorer
}

type Resolver struct {
	log       *logger.Logger
	items     repos.FoodItemRepo
	threshold float64
	score     Scorer
}

func NewResolver(log *logger.Logger, items repos.FoodItemRepo, opts ResolverOptions) *Resolver {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultFuzzyThreshold
	}
	if opts.Scorer == nil {
		opts.Scorer = Similarity
	}
	return &Resolver{
		log:       log.With("service", "CatalogResolver"),
		items:     items,
		threshold: opts.Threshold,
		score:     opts.Scorer,
	}
}

// Resolve returns the catalog entry for name: the owner's exact match, then a
// public exact match, then the best public fuzzy match above the threshold.
// Returns an error wrapping ingestion.ErrNotFound when nothing qualifies.
func (r *Resolver) Resolve(ctx context.Context, name string, ownerID uuid.UUID) (*health.FoodItem, error) {
	item, kind, err := r.resolve(ctx, name, ownerID)
	if err != nil {
		return nil, err
	}
	r.log.Debug("catalog entry resolved", "match", kind, "food_item_id", item.ID)
	return item, nil
}

func (r *Resolver) resolve(ctx context.Context, name string, ownerID uuid.UUID) (*health.FoodItem, string, error) {
	norm := health.NormalizeName(name)
	if norm == "" {
		return nil, "", fmt.Errorf("resolve empty name: %w", ingestion.ErrNotFound)
	}

	if ownerID != uuid.Nil {
		owned, err := r.items.FindOwnedByName(ctx, nil, ownerID, norm)
		if err != nil {
			return nil, "", err
		}
		if owned != nil {
			return owned, MatchOwned, nil
		}
	}

	public, err := r.items.FindPublicByName(ctx, nil, norm)
	if err != nil {
		return nil, "", err
	}
	if public != nil {
		return public, MatchPublic, nil
	}

	candidates, err := r.items.ListPublic(ctx, nil)
	if err != nil {
		return nil, "", err
	}
	var (
		best      *health.FoodItem
		bestScore float64
	)
	for _, c := range candidates {
		s := r.score(norm, c.Name)
		// Strict comparison keeps the first of equally scored entries.
		if s > r.threshold && s > bestScore {
			best, bestScore = c, s
		}
	}
	if best == nil {
		return nil, "", fmt.Errorf("resolve %q: %w", norm, ingestion.ErrNotFound)
	}
	r.log.Debug("fuzzy catalog match", "score", bestScore, "threshold", r.threshold)
	return best, MatchFuzzy, nil
}
