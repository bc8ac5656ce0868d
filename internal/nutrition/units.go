package nutrition

import (
	"math"
	"strconv"
	"strings"

	"github.com/thiagoisdead/sustento-back/internal/models"
)

// gramsPerUnit assumes 1 g/ml density for liquids and 100 g per countable unit.
var gramsPerUnit = map[models.Unit]float64{
	models.Grams:      1,
	models.Millilitre: 1,
	models.Kilograms:  1000,
	models.Litre:      1000,
	models.Countable:  100,
}

// ToGrams converts a quantity in the given unit to grams. Units are matched
// case-insensitively; an unknown unit is treated as grams.
func ToGrams(quantity float64, unit string) float64 {
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return 0
	}
	factor, ok := gramsPerUnit[models.Unit(strings.ToUpper(strings.TrimSpace(unit)))]
	if !ok {
		return quantity
	}
	return finite(quantity * factor)
}

// ParseQuantity reads a numeric quantity, returning 0 for anything that is not a number.
func ParseQuantity(s string) float64 {
	q, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(q) || math.IsInf(q, 0) {
		return 0
	}
	return q
}

// QuantityToGrams is ToGrams for quantities stored as text.
func QuantityToGrams(quantity, unit string) float64 {
	return ToGrams(ParseQuantity(quantity), unit)
}
