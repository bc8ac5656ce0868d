package planner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/thiagoisdead/sustento-back/internal/logging"
	"github.com/thiagoisdead/sustento-back/internal/models"
	"github.com/thiagoisdead/sustento-back/internal/nutrition"
)

// SuggestStore is the persistence the suggestion flow reads and writes.
type SuggestStore interface {
	PlanStore
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetPlan(ctx context.Context, id int64) (*models.PlanRecord, error)
	PlanPortions(ctx context.Context, planID int64) ([]nutrition.Portion, error)
}

// SuggestRequest asks for a new plan, or for regenerating PlanID against the
// targets it still misses.
type SuggestRequest struct {
	UserID   int64  `json:"user_id"`
	PlanID   int64  `json:"meal_plan_id,omitempty"`
	PlanName string `json:"plan_name,omitempty"`
}

// Suggestion is a persisted generated plan.
type Suggestion struct {
	Plan      *models.PlanRecord     `json:"plan"`
	Targets   models.NutrientTargets `json:"targets"`
	Simulated models.PlanTotals      `json:"simulated_totals"`
	Attempts  int                    `json:"attempts"`
}

// Suggester runs the whole suggestion flow for a user.
type Suggester struct {
	store        SuggestStore
	brainstormer *Brainstormer
	resolver     *Resolver
	generator    *Generator
	reconciler   *Reconciler
	logger       *zap.Logger
}

func NewSuggester(store SuggestStore, b *Brainstormer, r *Resolver, g *Generator, logger *zap.Logger) *Suggester {
	logger = logging.OrNop(logger)
	return &Suggester{
		store:        store,
		brainstormer: b,
		resolver:     r,
		generator:    g,
		reconciler:   NewReconciler(store, logger),
		logger:       logger.Named("suggester"),
	}
}

// Suggest computes the user's targets, generates a plan and persists it.
// Nothing is written unless generation succeeds.
func (s *Suggester) Suggest(ctx context.Context, req SuggestRequest) (*Suggestion, error) {
	user, err := s.store.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", req.UserID, err)
	}

	targets, err := nutrition.CalculateTargets(user.Biometrics)
	if err != nil {
		return nil, err
	}

	rec := &models.PlanRecord{
		UserID: user.ID,
		Name:   req.PlanName,
		Source: models.AutomaticPlan,
		Active: true,
	}
	if req.PlanID != 0 {
		rec, err = s.store.GetPlan(ctx, req.PlanID)
		if err != nil {
			return nil, fmt.Errorf("failed to load plan %d: %w", req.PlanID, err)
		}
		if rec.UserID != user.ID {
			return nil, fmt.Errorf("plan %d of user %d: %w", req.PlanID, user.ID, models.ErrNotFound)
		}
		portions, err := s.store.PlanPortions(ctx, rec.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load plan portions: %w", err)
		}
		targets = nutrition.Remaining(targets, nutrition.Aggregate(portions))
	}

	objective := user.Objective
	if objective == "" {
		objective = models.Maintenance
	}
	restrictions := models.NewRestrictionSet(user.Restrictions...)

	log := s.logger.With(zap.Int64("user_id", user.ID), zap.Int64("plan_id", rec.ID))
	log.Info("suggesting plan",
		zap.Int("calories", targets.Calories),
		zap.Int("protein_g", targets.ProteinG),
		zap.String("objective", string(objective)),
		zap.String("restrictions", restrictions.String()))

	concepts, err := s.brainstormer.Concepts(ctx, targets, restrictions, objective)
	if err != nil {
		return nil, err
	}
	candidates, err := s.resolver.Resolve(ctx, concepts, restrictions)
	if err != nil {
		return nil, err
	}
	result, err := s.generator.Generate(ctx, GenerateInput{
		Targets:      targets,
		Candidates:   candidates,
		Restrictions: restrictions,
		Objective:    objective,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.reconciler.Reconcile(ctx, rec, result.Plan, candidates); err != nil {
		return nil, err
	}

	stored, err := s.store.GetPlan(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload plan %d: %w", rec.ID, err)
	}
	return &Suggestion{Plan: stored, Targets: targets, Simulated: result.Totals, Attempts: result.Attempts}, nil
}
