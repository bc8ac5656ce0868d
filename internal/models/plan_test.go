package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMealPlanItem_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want MealPlanItem
	}{
		{"number", `{"name":"Arroz","quantity":150,"unit":"g"}`, MealPlanItem{"Arroz", 150, Grams}},
		{"numeric string", `{"name":" Ovo ","quantity":" 2 ","unit":"un"}`, MealPlanItem{"Ovo", 2, Countable}},
		{"measurement_unit key", `{"name":"Leite","quantity":0.3,"measurement_unit":"L"}`, MealPlanItem{"Leite", 0.3, Litre}},
		{"default unit", `{"name":"Feijão","quantity":100}`, MealPlanItem{"Feijão", 100, Grams}},
		{"non-numeric quantity", `{"name":"Banana","quantity":"one","unit":"UN"}`, MealPlanItem{"Banana", 0, Countable}},
		{"missing quantity", `{"name":"Banana","unit":"UN"}`, MealPlanItem{"Banana", 0, Countable}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got MealPlanItem
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSlot_KeysNaturalOrder(t *testing.T) {
	s := Slot{"item10": {}, "item2": {}, "item1": {}, "item9": {}, "extra": {}}
	assert.Equal(t, []string{"extra", "item1", "item2", "item9", "item10"}, s.Keys())
	assert.Empty(t, Slot(nil).Keys())
}

func TestMealPlan_ItemCount(t *testing.T) {
	var nilPlan *MealPlan
	assert.Zero(t, nilPlan.ItemCount())
	assert.True(t, nilPlan.IsEmpty())

	p := &MealPlan{
		Breakfast: Slot{"item1": {Name: "Aveia"}},
		Snacks:    Slot{"item1": {Name: "Maçã"}, "item2": {Name: "Castanha"}},
	}
	assert.Equal(t, 3, p.ItemCount())
	assert.False(t, p.IsEmpty())
	assert.Len(t, p.Slot(Snacks), 2)
	assert.Nil(t, p.Slot("brunch"))
}

func TestRestrictionSet(t *testing.T) {
	s := NewRestrictionSet(" vegan ", "GLUTEN_FREE", "vegan")
	assert.True(t, s.Has(Vegan))
	assert.True(t, s.PlantBased())
	assert.Equal(t, []Restriction{GlutenFree, Vegan}, s.List())
	assert.Equal(t, "GLUTEN_FREE, VEGAN", s.String())

	empty := NewRestrictionSet()
	assert.False(t, empty.PlantBased())
	assert.Equal(t, "NONE", empty.String())
}
