// Package nutrition holds the numeric core of plan generation: daily targets
// from biometrics, unit conversion to grams and macro aggregation.
package nutrition

import (
	"fmt"
	"math"

	"github.com/thiagoisdead/sustento-back/internal/models"
)

var activityFactors = map[models.ActivityLevel]float64{
	models.Sedentary:        1.2,
	models.LightlyActive:    1.375,
	models.ModeratelyActive: 1.55,
	models.Active:           1.725,
	models.VeryActive:       1.9,
}

// Macro split of the daily calories.
const (
	proteinShare = 0.20
	fatShare     = 0.30
	carbShare    = 0.50

	kcalPerGramProtein = 4
	kcalPerGramFat     = 9
	kcalPerGramCarbs   = 4
)

// CalculateTargets derives daily calorie and macro targets with the
// Mifflin-St Jeor equation. The calories lost by flooring each macro are
// added to the carb grams as a whole number, so carbs absorb the remainder.
func CalculateTargets(b models.Biometrics) (models.NutrientTargets, error) {
	if b.Gender == "" || b.HeightCm <= 0 || b.WeightKg <= 0 || b.Age <= 0 || b.ActivityLevel == "" {
		return models.NutrientTargets{}, models.ErrIncompleteProfile
	}

	base := 10*b.WeightKg + 6.25*b.HeightCm - 5*float64(b.Age)

	var calories float64
	switch b.Gender {
	case models.Male:
		calories = base + 5
	case models.Female:
		calories = base - 161
	default:
		return models.NutrientTargets{}, fmt.Errorf("%w: %q", models.ErrInvalidGender, b.Gender)
	}

	factor, ok := activityFactors[b.ActivityLevel]
	if !ok {
		return models.NutrientTargets{}, fmt.Errorf("%w: %q", models.ErrInvalidActivityLevel, b.ActivityLevel)
	}

	kcal := int(math.Floor(calories * factor))

	t := models.NutrientTargets{
		Calories: kcal,
		ProteinG: int(math.Floor(float64(kcal) * proteinShare / kcalPerGramProtein)),
		FatG:     int(math.Floor(float64(kcal) * fatShare / kcalPerGramFat)),
		CarbsG:   int(math.Floor(float64(kcal) * carbShare / kcalPerGramCarbs)),
	}

	t.CarbsG += kcal - Calories(t)

	return t, nil
}

// Remaining returns what is still missing from fresh once current is counted.
// Negative values are kept: they tell the oracle to shrink quantities.
func Remaining(fresh models.NutrientTargets, current models.PlanTotals) models.NutrientTargets {
	return models.NutrientTargets{
		Calories: int(math.Round(float64(fresh.Calories) - current.TotalCalories)),
		ProteinG: int(math.Round(float64(fresh.ProteinG) - current.TotalProtein)),
		FatG:     int(math.Round(float64(fresh.FatG) - current.TotalFat)),
		CarbsG:   int(math.Round(float64(fresh.CarbsG) - current.TotalCarbs)),
	}
}

// Calories returns the energy implied by the macro targets.
func Calories(t models.NutrientTargets) int {
	return t.ProteinG*kcalPerGramProtein + t.FatG*kcalPerGramFat + t.CarbsG*kcalPerGramCarbs
}
