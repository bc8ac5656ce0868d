package nutrition

import (
	"math"

	"github.com/thiagoisdead/sustento-back/internal/models"
)

// Portion is a quantity of a food together with its macros per 100 g.
type Portion struct {
	Quantity float64
	Unit     string
	Per100g  models.Macros
}

// Aggregate sums the macro contribution of every portion. Accumulation keeps
// full precision; only the returned totals are rounded to two decimals.
func Aggregate(portions []Portion) models.PlanTotals {
	var cal, prot, carbs, fat float64
	for _, p := range portions {
		scale := ToGrams(p.Quantity, p.Unit) / 100
		cal += finite(p.Per100g.Calories) * scale
		prot += finite(p.Per100g.Protein) * scale
		carbs += finite(p.Per100g.Carbs) * scale
		fat += finite(p.Per100g.Fat) * scale
	}
	return models.PlanTotals{
		TotalCalories: round2(finite(cal)),
		TotalProtein:  round2(finite(prot)),
		TotalCarbs:    round2(finite(carbs)),
		TotalFat:      round2(finite(fat)),
	}
}

// finite maps NaN and infinities to zero.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
