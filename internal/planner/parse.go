package planner

import (
	"encoding/json"
	"fmt"

	"github.com/thiagoisdead/sustento-back/internal/models"
)

// ParsePlan decodes an oracle plan document. Every slot present must be an
// object of item objects; missing slots are empty and unknown top-level keys
// are ignored.
func ParsePlan(text string) (*models.MealPlan, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("plan is not a JSON object: %w", err)
	}

	plan := &models.MealPlan{}
	for _, name := range models.SlotNames {
		raw, ok := doc[string(name)]
		if !ok || string(raw) == "null" {
			continue
		}
		var slot models.Slot
		if err := json.Unmarshal(raw, &slot); err != nil {
			return nil, fmt.Errorf("slot %q: %w", name, err)
		}
		setSlot(plan, name, slot)
	}
	return plan, nil
}

func setSlot(p *models.MealPlan, name models.SlotName, s models.Slot) {
	switch name {
	case models.Breakfast:
		p.Breakfast = s
	case models.Lunch:
		p.Lunch = s
	case models.Dinner:
		p.Dinner = s
	case models.Snacks:
		p.Snacks = s
	}
}
