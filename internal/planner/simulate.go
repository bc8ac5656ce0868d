package planner

import (
	"github.com/thiagoisdead/sustento-back/internal/models"
	"github.com/thiagoisdead/sustento-back/internal/nutrition"
)

// Simulate totals a plan against the candidates' declared macros. Items are
// matched by exact name, first candidate wins. Unmatched names contribute
// nothing and are returned for logging.
func Simulate(plan *models.MealPlan, candidates []models.CandidateFood) (models.PlanTotals, []string) {
	if plan == nil {
		return models.PlanTotals{}, nil
	}
	macros := candidateIndex(candidates)

	var portions []nutrition.Portion
	var unmatched []string
	for _, name := range models.SlotNames {
		slot := plan.Slot(name)
		for _, key := range slot.Keys() {
			item := slot[key]
			if item.Name == "" || item.Quantity <= 0 {
				continue
			}
			m, ok := macros[item.Name]
			if !ok {
				unmatched = append(unmatched, item.Name)
				continue
			}
			portions = append(portions, nutrition.Portion{Quantity: item.Quantity, Unit: string(item.Unit), Per100g: m})
		}
	}
	return nutrition.Aggregate(portions), unmatched
}

func candidateIndex(candidates []models.CandidateFood) map[string]models.Macros {
	idx := make(map[string]models.Macros, len(candidates))
	for _, c := range candidates {
		if _, seen := idx[c.Name]; !seen {
			idx[c.Name] = c.Per100g
		}
	}
	return idx
}
