package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/thiagoisdead/sustento-back/internal/models"
)

const conceptSystemPrompt = "You are a professional nutrition expert. Your only task is to generate JSON output."

const planSystemTemplate = `You are a professional nutritionist and a strict JSON generator. Output one JSON object that follows the structure and rules below.

%s

INSTRUCTION: Use the calorie and macro values of the AVAILABLE FOODS list so the whole plan lands within 10%% of the targets. For GAIN_MUSCLE, slightly exceeding a target is better than falling short.

STRICT OUTPUT PROTOCOL:
1. Structure: exactly four top-level keys, "breakfast", "lunch", "dinner" and "snacks". Each one holds an OBJECT.
2. Item keys: inside each meal use sequential keys starting at "item1" ("item1", "item2", "item3", ...).
3. Item value: each "itemN" is an object with exactly three keys, "name" (string), "quantity" (number) and "unit" (string).
4. Units: "unit" is one of G, KG, ML, L or UN. Use ML for liquids such as yogurt or milk and UN for countable items such as a banana or a slice of bread, e.g. {"quantity": 2, "unit": "UN"}.
5. Food source: use only the exact names listed under AVAILABLE FOODS.
6. No aggregates: never add keys such as "totalCalories".

Required format:
{
  "breakfast": {"item1": {"name": "Aveia", "quantity": 80, "unit": "G"}, "item2": {"name": "Iogurte Natural", "quantity": 170, "unit": "ML"}},
  "lunch": {...},
  "dinner": {...},
  "snacks": {...}
}`

// restrictionInstruction is empty when the user has no restriction.
func restrictionInstruction(restrictions models.RestrictionSet) string {
	if len(restrictions.List()) == 0 {
		return ""
	}
	return fmt.Sprintf("CRITICAL RESTRICTION: the user follows these dietary restrictions: [%s]. Do NOT include any food that violates them.", restrictions)
}

func densityInstruction(objective models.Objective) string {
	switch objective {
	case models.GainMuscle:
		return "CRITICAL INSTRUCTION: the goal is GAIN_MUSCLE. Prioritize CALORIE-DENSE foods that are HIGH IN PROTEIN or RICH IN HEALTHY FATS so the macro targets can be met."
	case models.LoseWeight:
		return "CRITICAL INSTRUCTION: the goal is LOSE_WEIGHT. Prioritize HIGH-VOLUME, HIGH-FIBER, LOW CALORIE-DENSITY foods such as lean protein and vegetables to keep the user satiated."
	default:
		return "CRITICAL INSTRUCTION: the goal is MAINTENANCE. Suggest a wide variety of nutrient-dense whole foods for a balanced diet."
	}
}

func cohesionInstruction(targets models.NutrientTargets, restrictions models.RestrictionSet) string {
	protein := "ONE animal protein anchor (Peito de Frango, Carne Bovina or Peixe)"
	if restrictions.PlantBased() {
		protein = "ONE plant protein anchor (Tofu, Grão-de-Bico or Lentilha)"
	}
	return fmt.Sprintf(`COHESION AND CULTURAL CONTEXT PROTOCOL (CRITICAL):
Each meal must read as a coherent, palatable Brazilian dish, not a list of macros.
1. BREAKFAST: a primary carbohydrate (Pão or Aveia) and a quality protein source.
2. LUNCH and DINNER: a staple carbohydrate (Arroz, Macarrão or Batata Doce), a legume (Feijão, Lentilha or Grão-de-Bico), %s, and at least one vegetable or fiber source.
3. SNACKS: convenient items such as Castanhas, Frutas or Iogurte.
4. MACRO ADJUSTMENT: scale the primary carbohydrates up to reach the %d kcal goal.`, protein, targets.Calories)
}

func mandatoryInstruction(restrictions models.RestrictionSet) string {
	if restrictions.PlantBased() {
		return "MANDATORY FOODS (PLANT-BASED): prioritize Tofu, Grão-de-Bico, Lentilha, Feijão Preto, Pasta de Amendoim, Arroz Integral and Batata Doce. Ignore any instruction about animal protein."
	}
	return "MANDATORY FOODS (OMNIVORE): include the staples Peito de Frango, Carne Bovina, Salmão, Ovos, Arroz Integral, Feijão Preto and Batata Doce."
}

func conceptPrompt(count int, targets models.NutrientTargets, restrictions models.RestrictionSet, objective models.Objective) string {
	sections := []string{
		fmt.Sprintf("You are a professional nutritionist. Based on the macro goals (Cal: %d, Prot: %dg, Carbs: %dg, Fat: %dg), suggest %d essential, common and healthy food names in Portuguese that will form the basis of this diet.",
			targets.Calories, targets.ProteinG, targets.CarbsG, targets.FatG, count),
		"NAMING RULE: names are short, direct search terms with no parentheses, descriptions or synonyms (e.g. 'Peito de Frango', 'Salmão', 'Ovo', 'Arroz Integral', 'Feijão').",
		cohesionInstruction(targets, restrictions),
		mandatoryInstruction(restrictions),
		restrictionInstruction(restrictions),
		densityInstruction(objective),
		`Output only a JSON object of the form {"foods": ["name", ...]} and nothing else.`,
	}
	return joinSections(sections)
}

func planSystemPrompt(restrictions models.RestrictionSet) string {
	return fmt.Sprintf(planSystemTemplate, restrictionInstruction(restrictions))
}

func planUserPrompt(attempt int, in GenerateInput, deficit models.PlanTotals, previous *models.MealPlan) string {
	var instruction string
	if attempt == 1 {
		instruction = fmt.Sprintf("Target Calories: %d kcal | Target Protein: %dg. Using the macro data of the AVAILABLE FOODS list, generate the full diet plan that meets the targets and follows the STRICT OUTPUT PROTOCOL.",
			in.Targets.Calories, in.Targets.ProteinG)
	} else {
		prev, err := json.Marshal(previous)
		if err != nil || previous == nil {
			prev = []byte("{}")
		}
		instruction = fmt.Sprintf("CORRECTION ATTEMPT %d: the current plan is short by %.0f kcal and %.0fg of protein. Return the ENTIRE REVISED DIET PLAN (breakfast, lunch, dinner, snacks) with quantities adjusted to close the gap. Never return a partial patch or keys such as '_add1'. The previous plan was: %s",
			attempt, deficit.TotalCalories, deficit.TotalProtein, prev)
	}

	lines := []string{
		"Generate a personalized diet suggestion for:",
		fmt.Sprintf("- Goal: %s", in.Objective),
		fmt.Sprintf("- Target Calories: %d kcal | Target Protein: %dg", in.Targets.Calories, in.Targets.ProteinG),
	}
	if len(in.Restrictions.List()) > 0 {
		lines = append(lines, fmt.Sprintf("- Restrictions: [%s]", in.Restrictions))
	}

	sections := []string{
		strings.Join(lines, "\n"),
		fmt.Sprintf("AVAILABLE FOODS (Name + Macro/100g): [%s]", formatCandidates(in.Candidates)),
		densityInstruction(in.Objective),
		cohesionInstruction(in.Targets, in.Restrictions),
		instruction,
		"Return only the JSON object.",
	}
	return joinSections(sections)
}

func formatCandidates(candidates []models.CandidateFood) string {
	parts := make([]string, len(candidates))
	for i, c := range candidates {
		m := c.Per100g
		parts[i] = fmt.Sprintf("%s (Cal: %.1f, Prot: %.1f, Carb: %.1f, Fat: %.1f)", c.Name, m.Calories, m.Protein, m.Carbs, m.Fat)
	}
	return strings.Join(parts, "; ")
}

func joinSections(sections []string) string {
	var out []string
	for _, s := range sections {
		if s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "\n\n")
}
