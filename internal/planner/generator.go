package planner

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thiagoisdead/sustento-back/internal/logging"
	"github.com/thiagoisdead/sustento-back/internal/models"
	"github.com/thiagoisdead/sustento-back/internal/oracle"
)

const (
	// maxAttempts caps oracle calls per generation.
	maxAttempts = 3
	// tolerance is the accepted shortfall as a fraction of each target.
	tolerance = 0.10
)

// GenerateInput is everything one generation run needs.
type GenerateInput struct {
	Targets      models.NutrientTargets
	Candidates   []models.CandidateFood
	Restrictions models.RestrictionSet
	Objective    models.Objective
}

// GenerateResult is the last plan the oracle produced and its simulated totals.
type GenerateResult struct {
	Plan     *models.MealPlan
	Totals   models.PlanTotals
	Attempts int
}

// Generator drives the generate, simulate, evaluate loop.
type Generator struct {
	oracle oracle.Oracle
	opts   Options
	logger *zap.Logger
}

func NewGenerator(o oracle.Oracle, opts Options, logger *zap.Logger) *Generator {
	return &Generator{oracle: o, opts: opts, logger: logging.OrNop(logger).Named("generator")}
}

// generationState lives for one Generate call.
type generationState struct {
	attempt int
	parsed  bool
	plan    *models.MealPlan
	totals  models.PlanTotals
}

// deficit is the shortfall against targets, never negative.
func (s *generationState) deficit(t models.NutrientTargets) models.PlanTotals {
	return models.PlanTotals{
		TotalCalories: math.Max(0, float64(t.Calories)-s.totals.TotalCalories),
		TotalProtein:  math.Max(0, float64(t.ProteinG)-s.totals.TotalProtein),
		TotalCarbs:    math.Max(0, float64(t.CarbsG)-s.totals.TotalCarbs),
		TotalFat:      math.Max(0, float64(t.FatG)-s.totals.TotalFat),
	}
}

// converged only looks at shortfall; overshooting a target still converges.
func (s *generationState) converged(t models.NutrientTargets) bool {
	d := s.deficit(t)
	return d.TotalCalories <= tolerance*float64(t.Calories) &&
		d.TotalProtein <= tolerance*float64(t.ProteinG)
}

// Generate runs at most three oracle attempts. Oracle errors and malformed
// plans consume an attempt. The last parsed plan wins; if none parsed or it
// is empty the run fails with ErrGenerationIncomplete.
func (g *Generator) Generate(ctx context.Context, in GenerateInput) (*GenerateResult, error) {
	log := g.logger.With(zap.String("run_id", uuid.NewString()))
	state := &generationState{}
	system := planSystemPrompt(in.Restrictions)

	for state.attempt = 1; state.attempt <= maxAttempts; state.attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		attemptLog := log.With(zap.Int("attempt", state.attempt))

		// GENERATE
		text, err := g.oracle.Complete(ctx, oracle.Request{
			System:      system,
			User:        planUserPrompt(state.attempt, in, state.deficit(in.Targets), state.plan),
			Temperature: g.opts.PlanTemperature,
			MaxTokens:   g.opts.PlanMaxTokens,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			attemptLog.Warn("oracle call failed", zap.Error(err))
			continue
		}

		// SIMULATE
		plan, err := ParsePlan(text)
		if err != nil {
			attemptLog.Warn("malformed plan", zap.Error(err))
			continue
		}
		totals, unmatched := Simulate(plan, in.Candidates)
		if len(unmatched) > 0 {
			attemptLog.Debug("items without candidate macros", zap.Strings("names", unmatched))
		}

		// EVALUATE
		state.parsed = true
		state.plan = plan
		state.totals = totals
		attemptLog.Info("attempt evaluated",
			zap.Float64("calories", totals.TotalCalories),
			zap.Float64("protein", totals.TotalProtein),
			zap.Int("target_calories", in.Targets.Calories),
			zap.Int("target_protein", in.Targets.ProteinG))

		if state.attempt > 1 && state.converged(in.Targets) {
			break
		}
	}

	attempts := state.attempt
	if attempts > maxAttempts {
		attempts = maxAttempts
	}
	if !state.parsed || state.plan.IsEmpty() {
		return nil, fmt.Errorf("%w after %d attempts", models.ErrGenerationIncomplete, attempts)
	}

	log.Info("generation done", zap.Int("attempts", attempts), zap.Int("items", state.plan.ItemCount()))
	return &GenerateResult{Plan: state.plan, Totals: state.totals, Attempts: attempts}, nil
}
