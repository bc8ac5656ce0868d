package models

import (
	"strings"
	"time"
)

type Gender string

const (
	Male   Gender = "M"
	Female Gender = "F"
)

type ActivityLevel string

const (
	Sedentary        ActivityLevel = "SEDENTARY"
	LightlyActive    ActivityLevel = "LIGHTLY_ACTIVE"
	ModeratelyActive ActivityLevel = "MODERATELY_ACTIVE"
	Active           ActivityLevel = "ACTIVE"
	VeryActive       ActivityLevel = "VERY_ACTIVE"
)

type Objective string

const (
	GainMuscle  Objective = "GAIN_MUSCLE"
	LoseWeight  Objective = "LOSE_WEIGHT"
	Maintenance Objective = "MAINTENANCE"
)

// Biometrics are the inputs of the daily target calculation.
// A zero value in any field means the field was not informed.
type Biometrics struct {
	Gender        Gender        `json:"gender" yaml:"gender"`
	HeightCm      float64       `json:"height_cm" yaml:"height_cm"`
	WeightKg      float64       `json:"weight_kg" yaml:"weight_kg"`
	Age           int           `json:"age" yaml:"age"`
	ActivityLevel ActivityLevel `json:"activity_level" yaml:"activity_level"`
}

// NutrientTargets holds daily goals. Carbs carry the rounding remainder of
// the macro split.
type NutrientTargets struct {
	Calories int `json:"calories"`
	ProteinG int `json:"protein_g"`
	FatG     int `json:"fat_g"`
	CarbsG   int `json:"carbs_g"`
}

type Restriction string

const (
	GlutenFree  Restriction = "GLUTEN_FREE"
	LactoseFree Restriction = "LACTOSE_FREE"
	Vegan       Restriction = "VEGAN"
	Vegetarian  Restriction = "VEGETARIAN"
)

// RestrictionSet is the set of dietary restrictions active for a user.
type RestrictionSet map[Restriction]bool

func NewRestrictionSet(rs ...Restriction) RestrictionSet {
	set := make(RestrictionSet, len(rs))
	for _, r := range rs {
		set[Restriction(strings.ToUpper(strings.TrimSpace(string(r))))] = true
	}
	return set
}

func (s RestrictionSet) Has(r Restriction) bool {
	return s[r]
}

// PlantBased reports whether the user avoids animal protein.
func (s RestrictionSet) PlantBased() bool {
	return s[Vegan] || s[Vegetarian]
}

// List returns the restrictions in a stable order.
func (s RestrictionSet) List() []Restriction {
	var out []Restriction
	for _, r := range []Restriction{GlutenFree, LactoseFree, Vegan, Vegetarian} {
		if s[r] {
			out = append(out, r)
		}
	}
	return out
}

// String renders the set the way prompts expect it, "NONE" when empty.
func (s RestrictionSet) String() string {
	list := s.List()
	if len(list) == 0 {
		return "NONE"
	}
	parts := make([]string, len(list))
	for i, r := range list {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

// User is the persisted profile of a person receiving plans.
type User struct {
	ID           int64         `json:"user_id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Biometrics   Biometrics    `json:"biometrics"`
	Objective    Objective     `json:"objective"`
	Restrictions []Restriction `json:"restrictions"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
