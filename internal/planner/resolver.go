package planner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/thiagoisdead/sustento-back/internal/foodsearch"
	"github.com/thiagoisdead/sustento-back/internal/logging"
	"github.com/thiagoisdead/sustento-back/internal/models"
)

const (
	// Products at or above this NOVA group are ultra-processed.
	maxProcessingLevel = 4
	maxWarnings        = 3
)

// Searcher is the food database used to resolve concepts.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]foodsearch.Product, error)
}

// Resolver turns food concepts into filtered candidate foods.
type Resolver struct {
	search     Searcher
	maxResults int
	logger     *zap.Logger
}

func NewResolver(s Searcher, opts Options, logger *zap.Logger) *Resolver {
	return &Resolver{search: s, maxResults: opts.SearchMaxResults, logger: logging.OrNop(logger).Named("resolver")}
}

// Resolve searches each concept in order and keeps the top result when it
// passes every filter. A failed lookup skips only that concept.
func (r *Resolver) Resolve(ctx context.Context, concepts []string, restrictions models.RestrictionSet) ([]models.CandidateFood, error) {
	var accepted []models.CandidateFood
	for _, concept := range concepts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		products, err := r.search.Search(ctx, concept, r.maxResults)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			r.logger.Warn("food search failed, skipping concept", zap.String("concept", concept), zap.Error(err))
			continue
		}
		if len(products) == 0 {
			r.logger.Debug("no search results", zap.String("concept", concept))
			continue
		}

		top := products[0]
		if reason := rejectReason(top, restrictions); reason != "" {
			r.logger.Debug("candidate rejected",
				zap.String("concept", concept),
				zap.String("product", top.Name),
				zap.String("reason", reason))
			continue
		}
		accepted = append(accepted, candidateFrom(top))
	}

	if len(accepted) == 0 {
		return nil, fmt.Errorf("%w: none of %d concepts passed the filters", models.ErrNoCandidateFoods, len(concepts))
	}
	return accepted, nil
}

func rejectReason(p foodsearch.Product, restrictions models.RestrictionSet) string {
	switch {
	case p.NovaGroup >= maxProcessingLevel:
		return "ultra-processed"
	case len(p.Warnings) >= maxWarnings:
		return "too many warnings"
	case p.Violates(restrictions):
		return "violates restriction"
	}
	m := p.Nutrients.Macros()
	if m.Calories <= 0 || m.Protein <= 0 {
		return "missing calories or protein"
	}
	return ""
}

func candidateFrom(p foodsearch.Product) models.CandidateFood {
	return models.CandidateFood{
		Name:            p.Name,
		Brand:           p.Brand,
		ExternalID:      p.ID,
		Per100g:         p.Nutrients.Macros(),
		ProcessingLevel: p.NovaGroup,
		QualityFlags:    p.Warnings,
	}
}
