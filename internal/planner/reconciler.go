package planner

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/thiagoisdead/sustento-back/internal/logging"
	"github.com/thiagoisdead/sustento-back/internal/models"
)

const defaultPlanName = "Personalized Nutrition Plan"

// PlanStore is the persistence the reconciler writes through.
type PlanStore interface {
	FindFoodByName(ctx context.Context, name string) (*models.FoodRecord, error)
	CreateFood(ctx context.Context, food *models.FoodRecord) error
	// ReplacePlanMeals atomically creates or clears the plan, stores meals and
	// sets the plan's targets to the totals of the stored items.
	ReplacePlanMeals(ctx context.Context, plan *models.PlanRecord, meals []models.Meal) (models.PlanTotals, error)
}

// Reconciler persists a generated plan and rewrites the plan's targets to
// the totals its stored items actually deliver.
type Reconciler struct {
	store  PlanStore
	logger *zap.Logger
}

func NewReconciler(store PlanStore, logger *zap.Logger) *Reconciler {
	return &Reconciler{store: store, logger: logging.OrNop(logger).Named("reconciler")}
}

// Prepare fills the defaults of a plan that is not stored yet. Clearing the
// meals of an existing plan happens in the same transaction that stores the
// new ones, so a failed reconciliation leaves the old plan untouched.
func (r *Reconciler) Prepare(rec *models.PlanRecord) {
	if rec.ID != 0 {
		return
	}
	if rec.Name == "" {
		rec.Name = defaultPlanName
	}
	if rec.Source == "" {
		rec.Source = models.AutomaticPlan
	}
}

// Reconcile stores every slot of plan as a fixed meal of rec, replacing its
// previous meals, and returns the ground-truth totals written to the plan's
// target fields.
func (r *Reconciler) Reconcile(ctx context.Context, rec *models.PlanRecord, plan *models.MealPlan, candidates []models.CandidateFood) (models.PlanTotals, error) {
	r.Prepare(rec)

	foods := newFoodResolver(r.store, candidates)
	meals := make([]models.Meal, 0, len(models.SlotNames))
	for pos, name := range models.SlotNames {
		meal := models.Meal{Name: string(name), Type: models.FixedMeal, Position: pos}
		slot := plan.Slot(name)
		for _, key := range slot.Keys() {
			item := slot[key]
			if item.Name == "" || item.Quantity <= 0 {
				continue
			}
			food, err := foods.resolve(ctx, item.Name)
			if err != nil {
				return models.PlanTotals{}, err
			}
			meal.Items = append(meal.Items, models.MealItem{
				FoodID:   food.ID,
				Quantity: item.Quantity,
				Unit:     item.Unit,
				Food:     food,
			})
		}
		meals = append(meals, meal)
	}

	totals, err := r.store.ReplacePlanMeals(ctx, rec, meals)
	if err != nil {
		return models.PlanTotals{}, fmt.Errorf("failed to store plan meals: %w", err)
	}

	r.logger.Info("plan reconciled",
		zap.Int64("plan_id", rec.ID),
		zap.Int("new_foods", foods.created),
		zap.Float64("calories", totals.TotalCalories),
		zap.Float64("protein", totals.TotalProtein))
	return totals, nil
}

// foodResolver maps item names to catalog records for one reconciliation.
type foodResolver struct {
	store      PlanStore
	candidates map[string]models.CandidateFood
	cache      map[string]*models.FoodRecord
	created    int
}

func newFoodResolver(store PlanStore, candidates []models.CandidateFood) *foodResolver {
	idx := make(map[string]models.CandidateFood, len(candidates))
	for _, c := range candidates {
		if _, seen := idx[c.Name]; !seen {
			idx[c.Name] = c
		}
	}
	return &foodResolver{store: store, candidates: idx, cache: make(map[string]*models.FoodRecord)}
}

func (f *foodResolver) resolve(ctx context.Context, name string) (*models.FoodRecord, error) {
	if food, ok := f.cache[name]; ok {
		return food, nil
	}

	food, err := f.store.FindFoodByName(ctx, name)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrNotFound):
		// Unknown names get a record with zero macros.
		food = &models.FoodRecord{Name: name}
		if c, ok := f.candidates[name]; ok {
			food.Brand = c.Brand
			food.ExternalID = c.ExternalID
			food.Per100g = c.Per100g
		}
		if err := f.store.CreateFood(ctx, food); err != nil {
			return nil, fmt.Errorf("failed to create food %q: %w", name, err)
		}
		f.created++
	default:
		return nil, fmt.Errorf("failed to look up food %q: %w", name, err)
	}

	f.cache[name] = food
	return food, nil
}
