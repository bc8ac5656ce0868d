package models

// Macros are nutrient amounts for 100 g (or 100 ml) of a food.
type Macros struct {
	Calories float64 `json:"calories_100g"`
	Protein  float64 `json:"protein_100g"`
	Carbs    float64 `json:"carbs_100g"`
	Fat      float64 `json:"fat_100g"`
}

// CandidateFood is a filtered search result eligible for a generated plan.
// It is resolved fresh for every generation run and never mutated afterwards.
type CandidateFood struct {
	Name            string   `json:"name"`
	Brand           string   `json:"brand,omitempty"`
	ExternalID      string   `json:"external_id,omitempty"`
	Per100g         Macros   `json:"per_100g"`
	ProcessingLevel int      `json:"processing_level"`
	QualityFlags    []string `json:"quality_flags,omitempty"`
}

// FoodRecord is a food persisted in the local catalog.
type FoodRecord struct {
	ID         int64  `json:"food_id"`
	Name       string `json:"name"`
	Brand      string `json:"brand,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
	Per100g    Macros `json:"per_100g"`
}
