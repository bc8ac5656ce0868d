package nutrition

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thiagoisdead/sustento-back/internal/models"
)

func TestAggregate_Empty(t *testing.T) {
	assert.Equal(t, models.PlanTotals{}, Aggregate(nil))
}

func TestAggregate_CountableUnits(t *testing.T) {
	got := Aggregate([]Portion{
		{Quantity: 2, Unit: "UN", Per100g: models.Macros{Calories: 50}},
	})
	assert.Equal(t, 100.0, got.TotalCalories)
}

func TestAggregate_MixedUnits(t *testing.T) {
	rice := models.Macros{Calories: 130, Protein: 2.7, Carbs: 28, Fat: 0.3}
	chicken := models.Macros{Calories: 165, Protein: 31, Carbs: 0, Fat: 3.6}
	milk := models.Macros{Calories: 61, Protein: 3.2, Carbs: 4.8, Fat: 3.3}

	got := Aggregate([]Portion{
		{Quantity: 200, Unit: "G", Per100g: rice},
		{Quantity: 0.15, Unit: "KG", Per100g: chicken},
		{Quantity: 0.25, Unit: "L", Per100g: milk},
	})

	assert.Equal(t, models.PlanTotals{
		TotalCalories: 260 + 247.5 + 152.5,
		TotalProtein:  5.4 + 46.5 + 8,
		TotalCarbs:    56 + 0 + 12,
		TotalFat:      0.6 + 5.4 + 8.25,
	}, got)
}

func TestAggregate_MissingMacrosCountAsZero(t *testing.T) {
	got := Aggregate([]Portion{
		{Quantity: 100, Unit: "G", Per100g: models.Macros{Calories: 80}},
	})
	assert.Equal(t, 80.0, got.TotalCalories)
	assert.Zero(t, got.TotalProtein)
	assert.Zero(t, got.TotalCarbs)
	assert.Zero(t, got.TotalFat)
}

func TestAggregate_RoundsOnlyAtTheEnd(t *testing.T) {
	// Rounding each of these portions first would give 0.99.
	portions := []Portion{
		{Quantity: 0.333, Unit: "G", Per100g: models.Macros{Calories: 100.5}},
		{Quantity: 0.333, Unit: "G", Per100g: models.Macros{Calories: 100.5}},
		{Quantity: 0.333, Unit: "G", Per100g: models.Macros{Calories: 100.5}},
	}
	assert.Equal(t, 1.0, Aggregate(portions).TotalCalories)
}

func TestAggregate_OrderInvariant(t *testing.T) {
	portions := []Portion{
		{Quantity: 120, Unit: "G", Per100g: models.Macros{Calories: 389, Protein: 16.9, Carbs: 66.3, Fat: 6.9}},
		{Quantity: 2, Unit: "UN", Per100g: models.Macros{Calories: 143, Protein: 12.6, Carbs: 0.7, Fat: 9.5}},
		{Quantity: 0.2, Unit: "KG", Per100g: models.Macros{Calories: 76, Protein: 4.8, Carbs: 13.6, Fat: 0.5}},
		{Quantity: 300, Unit: "ML", Per100g: models.Macros{Calories: 61, Protein: 3.2, Carbs: 4.8, Fat: 3.3}},
	}
	want := Aggregate(portions)

	reversed := make([]Portion, len(portions))
	for i, p := range portions {
		reversed[len(portions)-1-i] = p
	}
	assert.Equal(t, want, Aggregate(reversed))

	rotated := append(append([]Portion{}, portions[2:]...), portions[:2]...)
	assert.Equal(t, want, Aggregate(rotated))
}

func TestAggregate_NonFiniteContributions(t *testing.T) {
	got := Aggregate([]Portion{
		{Quantity: 1e308, Unit: "KG", Per100g: models.Macros{Calories: 100, Protein: 10}},
		{Quantity: 100, Unit: "G", Per100g: models.Macros{Calories: math.NaN(), Protein: 5}},
		{Quantity: 1e300, Unit: "G", Per100g: models.Macros{Fat: 1e300}},
		{Quantity: 1e300, Unit: "G", Per100g: models.Macros{Fat: 1e300}},
	})
	assert.Equal(t, models.PlanTotals{TotalProtein: 5}, got)

	_, err := json.Marshal(got)
	assert.NoError(t, err)
}
