// internal/models/meal.go
package models

import (
	"time"
)

// Meal is one persisted slot (breakfast, lunch, ...) of a plan.
type Meal struct {
	ID       int64      `json:"meal_id"`
	PlanID   int64      `json:"plan_id"`
	Name     string     `json:"meal_name"`
	Type     MealType   `json:"meal_type"`
	Items    []MealItem `json:"items,omitempty"`
	Position int        `json:"-"`
}

type MealType string

const (
	FixedMeal    MealType = "FIXED"
	FlexibleMeal MealType = "FLEXIBLE"
)

// MealItem is a food placed in a meal with its quantity.
type MealItem struct {
	ID       int64       `json:"meal_item_id"`
	MealID   int64       `json:"meal_id"`
	FoodID   int64       `json:"food_id"`
	Quantity float64     `json:"quantity"`
	Unit     Unit        `json:"measurement_unit"`
	Food     *FoodRecord `json:"food,omitempty"`
}

// ConsumptionRecord marks that a user actually ate a planned meal.
type ConsumptionRecord struct {
	ID         int64     `json:"record_id"`
	MealID     int64     `json:"meal_id"`
	UserID     int64     `json:"user_id"`
	MealDate   string    `json:"meal_date"`   // YYYY-MM-DD
	MealMoment string    `json:"meal_moment"` // HH:MM
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
