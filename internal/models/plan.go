package models

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
)

type Unit string

const (
	Grams      Unit = "G"
	Kilograms  Unit = "KG"
	Millilitre Unit = "ML"
	Litre      Unit = "L"
	Countable  Unit = "UN"
)

// Units lists the measurement units accepted in a plan.
var Units = []Unit{Grams, Kilograms, Millilitre, Litre, Countable}

type SlotName string

const (
	Breakfast SlotName = "breakfast"
	Lunch     SlotName = "lunch"
	Dinner    SlotName = "dinner"
	Snacks    SlotName = "snacks"
)

// SlotNames is the fixed order of the four meal slots.
var SlotNames = []SlotName{Breakfast, Lunch, Dinner, Snacks}

// MealPlanItem is one food of a generated plan.
type MealPlanItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     Unit    `json:"unit"`
}

// UnmarshalJSON accepts quantities sent as numbers or numeric strings and the
// unit under either "unit" or "measurement_unit". Non-numeric quantities
// decode to zero.
func (it *MealPlanItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name            string          `json:"name"`
		Quantity        json.RawMessage `json:"quantity"`
		Unit            string          `json:"unit"`
		MeasurementUnit string          `json:"measurement_unit"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	unit := raw.Unit
	if unit == "" {
		unit = raw.MeasurementUnit
	}
	if unit == "" {
		unit = string(Grams)
	}

	it.Name = strings.TrimSpace(raw.Name)
	it.Quantity = decodeQuantity(raw.Quantity)
	it.Unit = Unit(strings.ToUpper(strings.TrimSpace(unit)))
	return nil
}

func decodeQuantity(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return n
}

// Slot maps sequential item keys (item1, item2, ...) to plan items.
type Slot map[string]MealPlanItem

// Keys returns the slot's item keys in natural order, so item10 sorts after item9.
func (s Slot) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return itemKeyLess(keys[i], keys[j])
	})
	return keys
}

func itemKeyLess(a, b string) bool {
	pa, na := splitItemKey(a)
	pb, nb := splitItemKey(b)
	if pa != pb {
		return pa < pb
	}
	if na != nb {
		return na < nb
	}
	return a < b
}

func splitItemKey(k string) (string, int) {
	i := len(k)
	for i > 0 && k[i-1] >= '0' && k[i-1] <= '9' {
		i--
	}
	n, err := strconv.Atoi(k[i:])
	if err != nil {
		return k, -1
	}
	return k[:i], n
}

// MealPlan is the structured document produced by the generative oracle.
type MealPlan struct {
	Breakfast Slot `json:"breakfast"`
	Lunch     Slot `json:"lunch"`
	Dinner    Slot `json:"dinner"`
	Snacks    Slot `json:"snacks"`
}

// Slot returns the items of the named slot.
func (p *MealPlan) Slot(name SlotName) Slot {
	switch name {
	case Breakfast:
		return p.Breakfast
	case Lunch:
		return p.Lunch
	case Dinner:
		return p.Dinner
	case Snacks:
		return p.Snacks
	}
	return nil
}

// ItemCount returns the number of items across all slots.
func (p *MealPlan) ItemCount() int {
	if p == nil {
		return 0
	}
	return len(p.Breakfast) + len(p.Lunch) + len(p.Dinner) + len(p.Snacks)
}

// IsEmpty reports whether no slot holds any item.
func (p *MealPlan) IsEmpty() bool {
	return p.ItemCount() == 0
}

// PlanTotals are the macro sums of a plan. They are always derived from the
// plan that produced them.
type PlanTotals struct {
	TotalCalories float64 `json:"total_calories"`
	TotalProtein  float64 `json:"total_protein"`
	TotalCarbs    float64 `json:"total_carbs"`
	TotalFat      float64 `json:"total_fat"`
}

type PlanSource string

const (
	AutomaticPlan PlanSource = "AUTOMATIC"
	ManualPlan    PlanSource = "MANUAL"
)

// PlanRecord is a persisted meal plan. After generation the target fields
// hold the totals actually delivered by the plan's items.
type PlanRecord struct {
	ID             int64      `json:"plan_id"`
	UserID         int64      `json:"user_id"`
	Name           string     `json:"plan_name"`
	Source         PlanSource `json:"source"`
	Active         bool       `json:"active"`
	TargetCalories float64    `json:"target_calories"`
	TargetProtein  float64    `json:"target_protein"`
	TargetCarbs    float64    `json:"target_carbs"`
	TargetFat      float64    `json:"target_fat"`
	Meals          []Meal     `json:"meals,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
