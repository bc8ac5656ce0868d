package foodsearch

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/thiagoisdead/sustento-back/internal/models"
)

// Violation is a dietary rule a product breaks.
type Violation string

const (
	NotVegan        Violation = "NOT_VEGAN"
	NotVegetarian   Violation = "NOT_VEGETARIAN"
	ContainsGluten  Violation = "CONTAINS_GLUTEN"
	ContainsLactose Violation = "CONTAINS_LACTOSE"
)

// Vetoes maps each restriction to the violation that excludes a product.
var Vetoes = map[models.Restriction]Violation{
	models.Vegan:       NotVegan,
	models.Vegetarian:  NotVegetarian,
	models.GlutenFree:  ContainsGluten,
	models.LactoseFree: ContainsLactose,
}

// Product is one search result of the food database.
type Product struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Brand       string      `json:"brand,omitempty"`
	Nutrients   Nutrients   `json:"nutrients"`
	NovaGroup   int         `json:"novaGroup"`
	Warnings    []string    `json:"anvisaWarnings"`
	DietaryInfo DietaryInfo `json:"dietaryInfo"`
}

// Nutrients are per 100 g. Providers send them as numbers or numeric strings.
type Nutrients struct {
	Calories Number `json:"calories_100g"`
	Protein  Number `json:"protein_100g"`
	Carbs    Number `json:"carbs_100g"`
	Fat      Number `json:"fat_100g"`
}

// Macros converts the nutrients to the plan representation.
func (n Nutrients) Macros() models.Macros {
	return models.Macros{
		Calories: float64(n.Calories),
		Protein:  float64(n.Protein),
		Carbs:    float64(n.Carbs),
		Fat:      float64(n.Fat),
	}
}

type DietaryInfo struct {
	Vegan      Status   `json:"vegan"`
	Vegetarian Status   `json:"vegetarian"`
	Gluten     string   `json:"status_gluten"`
	Allergens  []string `json:"allergens"`
}

type Status struct {
	Status string `json:"status"`
}

// Number decodes a JSON number, a numeric string or null. Anything else is 0.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = Number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*n = Number(f)
			return nil
		}
	}
	*n = 0
	return nil
}

// Violations derives the dietary rules the product breaks from its metadata.
// Labels are compared without case or accents, in English or Portuguese.
func (p Product) Violations() []Violation {
	info := p.DietaryInfo
	hasMilk := info.hasAllergen("leite", "milk")
	hasEgg := info.hasAllergen("ovo", "ovos", "egg", "eggs")

	var out []Violation
	if isOneOf(info.Vegan.Status, "nao vegano", "non-vegan", "non vegan", "not vegan") || hasMilk || hasEgg {
		out = append(out, NotVegan)
	}
	if isOneOf(info.Vegetarian.Status, "nao vegetariano", "non-vegetarian", "non vegetarian", "not vegetarian") {
		out = append(out, NotVegetarian)
	}
	if mayContainGluten(info.Gluten) {
		out = append(out, ContainsGluten)
	}
	if hasMilk {
		out = append(out, ContainsLactose)
	}
	return out
}

// Violates reports whether the product breaks any active restriction.
func (p Product) Violates(restrictions models.RestrictionSet) bool {
	violations := p.Violations()
	for _, r := range restrictions.List() {
		for _, v := range violations {
			if Vetoes[r] == v {
				return true
			}
		}
	}
	return false
}

func (d DietaryInfo) hasAllergen(names ...string) bool {
	for _, a := range d.Allergens {
		if isOneOf(a, names...) {
			return true
		}
	}
	return false
}

func mayContainGluten(status string) bool {
	s := fold(status)
	if s == "" || strings.HasPrefix(s, "nao ") || strings.HasPrefix(s, "sem ") || strings.Contains(s, "free") {
		return false
	}
	for _, marker := range []string{"contem gluten", "pode conter gluten", "contains gluten", "may contain gluten"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

func isOneOf(label string, candidates ...string) bool {
	s := fold(label)
	if s == "" {
		return false
	}
	for _, c := range candidates {
		if s == c {
			return true
		}
	}
	return false
}

// fold lower-cases s and strips diacritics, so "Contém Glúten" reads "contem gluten".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}
