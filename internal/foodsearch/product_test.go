package foodsearch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagoisdead/sustento-back/internal/models"
)

func TestViolations(t *testing.T) {
	tests := []struct {
		name string
		info DietaryInfo
		want []Violation
	}{
		{"no metadata", DietaryInfo{}, nil},
		{"portuguese non-vegan", DietaryInfo{Vegan: Status{"Não Vegano"}}, []Violation{NotVegan}},
		{"english non-vegan", DietaryInfo{Vegan: Status{"non-vegan"}}, []Violation{NotVegan}},
		{"vegan label", DietaryInfo{Vegan: Status{"Vegano"}}, nil},
		{"non-vegetarian", DietaryInfo{Vegetarian: Status{"NAO VEGETARIANO"}}, []Violation{NotVegetarian}},
		{"milk allergen", DietaryInfo{Allergens: []string{"Leite"}}, []Violation{NotVegan, ContainsLactose}},
		{"egg allergen", DietaryInfo{Allergens: []string{"Ovos"}}, []Violation{NotVegan}},
		{"english allergens", DietaryInfo{Allergens: []string{"soy", "Milk"}}, []Violation{NotVegan, ContainsLactose}},
		{"contains gluten", DietaryInfo{Gluten: "Contém Glúten"}, []Violation{ContainsGluten}},
		{"may contain gluten", DietaryInfo{Gluten: "Pode Conter Glúten"}, []Violation{ContainsGluten}},
		{"gluten free", DietaryInfo{Gluten: "Não Contém Glúten"}, nil},
		{"english gluten free", DietaryInfo{Gluten: "gluten free"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Product{DietaryInfo: tt.info}.Violations())
		})
	}
}

func TestViolates(t *testing.T) {
	cheese := Product{DietaryInfo: DietaryInfo{
		Vegetarian: Status{"Vegetariano"},
		Allergens:  []string{"Leite"},
	}}

	assert.False(t, cheese.Violates(models.NewRestrictionSet()))
	assert.False(t, cheese.Violates(models.NewRestrictionSet(models.Vegetarian, models.GlutenFree)))
	assert.True(t, cheese.Violates(models.NewRestrictionSet(models.Vegan)))
	assert.True(t, cheese.Violates(models.NewRestrictionSet(models.LactoseFree)))
}

func TestNumber(t *testing.T) {
	var n struct {
		A, B, C, D Number
	}
	require.NoError(t, json.Unmarshal([]byte(`{"A": 1.5, "B": " 2.25 ", "C": "n/a", "D": null}`), &n))
	assert.Equal(t, Number(1.5), n.A)
	assert.Equal(t, Number(2.25), n.B)
	assert.Zero(t, n.C)
	assert.Zero(t, n.D)
}
