package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/thiagoisdead/sustento-back/internal/models"
	"github.com/thiagoisdead/sustento-back/internal/nutrition"
)

const planColumns = `id, user_id, name, source, active, target_calories, target_protein, target_carbs, target_fat, created_at, updated_at`

func scanPlan(row scanner) (*models.PlanRecord, error) {
	p := &models.PlanRecord{}
	var source, createdAt, updatedAt string
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &source, &p.Active,
		&p.TargetCalories, &p.TargetProtein, &p.TargetCarbs, &p.TargetFat, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.Source = models.PlanSource(source)

	var err error
	if p.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePlan inserts the plan and any meals it carries in one transaction.
func (s *SQLiteStorage) CreatePlan(ctx context.Context, plan *models.PlanRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	created := *plan
	if err := s.insertPlan(ctx, tx, &created); err != nil {
		return err
	}
	meals := append([]models.Meal(nil), plan.Meals...)
	if err := insertMeals(ctx, tx, created.ID, meals); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit plan: %w", err)
	}

	created.Meals = meals
	*plan = created
	return nil
}

func (s *SQLiteStorage) insertPlan(ctx context.Context, db dbtx, plan *models.PlanRecord) error {
	if plan.Source == "" {
		plan.Source = models.ManualPlan
	}
	now := s.now()
	res, err := db.ExecContext(ctx, `
        INSERT INTO meal_plans (user_id, name, source, active, target_calories, target_protein, target_carbs, target_fat, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, plan.UserID, plan.Name, string(plan.Source), plan.Active, plan.TargetCalories, plan.TargetProtein,
		plan.TargetCarbs, plan.TargetFat, formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("failed to insert plan: %w", err)
	}
	if plan.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read plan id: %w", err)
	}
	plan.CreatedAt, plan.UpdatedAt = now, now
	return nil
}

// ReplacePlanMeals stores meals as the plan's complete content and overwrites
// its targets with the totals of the stored items. A plan without an id is
// created first; an existing one loses its previous meals. Either every
// change is committed or none is.
func (s *SQLiteStorage) ReplacePlanMeals(ctx context.Context, plan *models.PlanRecord, meals []models.Meal) (models.PlanTotals, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.PlanTotals{}, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	updated := *plan
	if updated.ID == 0 {
		if err := s.insertPlan(ctx, tx, &updated); err != nil {
			return models.PlanTotals{}, err
		}
	} else if err := s.clearPlan(ctx, tx, updated.ID); err != nil {
		return models.PlanTotals{}, err
	}

	meals = append([]models.Meal(nil), meals...)
	if err := insertMeals(ctx, tx, updated.ID, meals); err != nil {
		return models.PlanTotals{}, err
	}
	portions, err := planPortions(ctx, tx, updated.ID)
	if err != nil {
		return models.PlanTotals{}, err
	}
	totals := nutrition.Aggregate(portions)
	if err := s.updatePlanTargets(ctx, tx, updated.ID, totals); err != nil {
		return models.PlanTotals{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.PlanTotals{}, fmt.Errorf("failed to commit plan: %w", err)
	}

	updated.Meals = meals
	updated.TargetCalories = totals.TotalCalories
	updated.TargetProtein = totals.TotalProtein
	updated.TargetCarbs = totals.TotalCarbs
	updated.TargetFat = totals.TotalFat
	*plan = updated
	return totals, nil
}

// GetPlan loads a plan with its meals, items and foods.
func (s *SQLiteStorage) GetPlan(ctx context.Context, id int64) (*models.PlanRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM meal_plans WHERE id = ?`, id)
	plan, err := scanPlan(row)
	if err != nil {
		return nil, notFound(err, "meal plan", id)
	}

	if plan.Meals, err = s.ListMeals(ctx, id); err != nil {
		return nil, err
	}
	return plan, nil
}

// ListPlans returns plan headers, newest first. userID 0 lists every plan.
func (s *SQLiteStorage) ListPlans(ctx context.Context, userID int64) ([]*models.PlanRecord, error) {
	query := `SELECT ` + planColumns + ` FROM meal_plans WHERE 1=1`
	args := []interface{}{}
	if userID != 0 {
		query += " AND user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	var plans []*models.PlanRecord
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// UpdatePlan saves the plan's name, source and active flag.
func (s *SQLiteStorage) UpdatePlan(ctx context.Context, plan *models.PlanRecord) error {
	now := s.now()
	res, err := s.db.ExecContext(ctx, `
        UPDATE meal_plans SET name = ?, source = ?, active = ?, updated_at = ? WHERE id = ?
    `, plan.Name, string(plan.Source), plan.Active, formatTime(now), plan.ID)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	if err := requireAffected(res, "meal plan", plan.ID); err != nil {
		return err
	}
	plan.UpdatedAt = now
	return nil
}

// updatePlanTargets overwrites the plan's target fields with delivered totals.
func (s *SQLiteStorage) updatePlanTargets(ctx context.Context, db dbtx, planID int64, totals models.PlanTotals) error {
	res, err := db.ExecContext(ctx, `
        UPDATE meal_plans
        SET target_calories = ?, target_protein = ?, target_carbs = ?, target_fat = ?, updated_at = ?
        WHERE id = ?
    `, totals.TotalCalories, totals.TotalProtein, totals.TotalCarbs, totals.TotalFat, formatTime(s.now()), planID)
	if err != nil {
		return fmt.Errorf("failed to update plan targets: %w", err)
	}
	return requireAffected(res, "meal plan", planID)
}

func (s *SQLiteStorage) DeletePlan(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM meal_plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	return requireAffected(res, "meal plan", id)
}

// clearPlan deletes every meal and item of a plan, keeping the plan itself.
func (s *SQLiteStorage) clearPlan(ctx context.Context, db dbtx, planID int64) error {
	res, err := db.ExecContext(ctx, `UPDATE meal_plans SET updated_at = ? WHERE id = ?`, formatTime(s.now()), planID)
	if err != nil {
		return fmt.Errorf("failed to touch plan: %w", err)
	}
	if err := requireAffected(res, "meal plan", planID); err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `
        DELETE FROM meal_items WHERE meal_id IN (SELECT id FROM meals WHERE plan_id = ?)
    `, planID); err != nil {
		return fmt.Errorf("failed to delete meal items: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM meals WHERE plan_id = ?`, planID); err != nil {
		return fmt.Errorf("failed to delete meals: %w", err)
	}
	return nil
}

// insertMeals stores meals and their items, filling in the generated ids.
func insertMeals(ctx context.Context, db dbtx, planID int64, meals []models.Meal) error {
	for i := range meals {
		meal := &meals[i]
		meal.PlanID = planID
		if meal.Type == "" {
			meal.Type = models.FixedMeal
		}
		res, err := db.ExecContext(ctx, `
            INSERT INTO meals (plan_id, name, meal_type, position) VALUES (?, ?, ?, ?)
        `, planID, meal.Name, string(meal.Type), meal.Position)
		if err != nil {
			return fmt.Errorf("failed to insert meal: %w", err)
		}
		if meal.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read meal id: %w", err)
		}

		items := append([]models.MealItem(nil), meal.Items...)
		for j := range items {
			item := &items[j]
			item.MealID = meal.ID
			unit := strings.ToUpper(string(item.Unit))
			if unit == "" {
				unit = string(models.Grams)
			}
			item.Unit = models.Unit(unit)
			res, err := db.ExecContext(ctx, `
                INSERT INTO meal_items (meal_id, food_id, quantity, unit) VALUES (?, ?, ?, ?)
            `, meal.ID, item.FoodID, item.Quantity, unit)
			if err != nil {
				return fmt.Errorf("failed to insert meal item: %w", err)
			}
			if item.ID, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("failed to read meal item id: %w", err)
			}
		}
		meal.Items = items
	}
	return nil
}

// ListMeals returns a plan's meals in slot order with items and foods.
func (s *SQLiteStorage) ListMeals(ctx context.Context, planID int64) ([]models.Meal, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, plan_id, name, meal_type, position FROM meals
        WHERE plan_id = ? ORDER BY position, id
    `, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query meals: %w", err)
	}

	var meals []models.Meal
	index := make(map[int64]int)
	for rows.Next() {
		var m models.Meal
		var mealType string
		if err := rows.Scan(&m.ID, &m.PlanID, &m.Name, &mealType, &m.Position); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		m.Type = models.MealType(mealType)
		index[m.ID] = len(meals)
		meals = append(meals, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read meals: %w", err)
	}

	if err := s.loadItemsForPlan(ctx, planID, meals, index); err != nil {
		return nil, fmt.Errorf("failed to load items for plan %d: %w", planID, err)
	}
	return meals, nil
}

func (s *SQLiteStorage) loadItemsForPlan(ctx context.Context, planID int64, meals []models.Meal, index map[int64]int) error {
	rows, err := s.db.QueryContext(ctx, `
        SELECT mi.id, mi.meal_id, mi.food_id, mi.quantity, mi.unit,
               f.id, f.name, f.brand, f.external_id, f.calories_100g, f.protein_100g, f.carbs_100g, f.fat_100g
        FROM meal_items mi
        JOIN meals m ON m.id = mi.meal_id
        JOIN foods f ON f.id = mi.food_id
        WHERE m.plan_id = ?
        ORDER BY mi.id
    `, planID)
	if err != nil {
		return fmt.Errorf("failed to query meal items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.MealItem
		var unit string
		food := &models.FoodRecord{}
		if err := rows.Scan(&item.ID, &item.MealID, &item.FoodID, &item.Quantity, &unit,
			&food.ID, &food.Name, &food.Brand, &food.ExternalID,
			&food.Per100g.Calories, &food.Per100g.Protein, &food.Per100g.Carbs, &food.Per100g.Fat); err != nil {
			return fmt.Errorf("failed to scan meal item: %w", err)
		}
		item.Unit = models.Unit(unit)
		item.Food = food
		if i, ok := index[item.MealID]; ok {
			meals[i].Items = append(meals[i].Items, item)
		}
	}
	return rows.Err()
}

// PlanPortions returns every stored item of a plan with its food's macros.
func (s *SQLiteStorage) PlanPortions(ctx context.Context, planID int64) ([]nutrition.Portion, error) {
	return planPortions(ctx, s.db, planID)
}

func planPortions(ctx context.Context, db dbtx, planID int64) ([]nutrition.Portion, error) {
	rows, err := db.QueryContext(ctx, `
        SELECT mi.quantity, mi.unit, f.calories_100g, f.protein_100g, f.carbs_100g, f.fat_100g
        FROM meal_items mi
        JOIN meals m ON m.id = mi.meal_id
        JOIN foods f ON f.id = mi.food_id
        WHERE m.plan_id = ?
        ORDER BY m.position, mi.id
    `, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan portions: %w", err)
	}
	defer rows.Close()

	var portions []nutrition.Portion
	for rows.Next() {
		var p nutrition.Portion
		if err := rows.Scan(&p.Quantity, &p.Unit, &p.Per100g.Calories, &p.Per100g.Protein,
			&p.Per100g.Carbs, &p.Per100g.Fat); err != nil {
			return nil, fmt.Errorf("failed to scan portion: %w", err)
		}
		portions = append(portions, p)
	}
	return portions, rows.Err()
}
