package storage

import (
	"context"
	"fmt"

	"github.com/thiagoisdead/sustento-back/internal/models"
)

const foodColumns = `id, name, brand, external_id, calories_100g, protein_100g, carbs_100g, fat_100g`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanFood(row scanner, f *models.FoodRecord) error {
	return row.Scan(&f.ID, &f.Name, &f.Brand, &f.ExternalID,
		&f.Per100g.Calories, &f.Per100g.Protein, &f.Per100g.Carbs, &f.Per100g.Fat)
}

func (s *SQLiteStorage) CreateFood(ctx context.Context, food *models.FoodRecord) error {
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO foods (name, brand, external_id, calories_100g, protein_100g, carbs_100g, fat_100g, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `, food.Name, food.Brand, food.ExternalID, food.Per100g.Calories, food.Per100g.Protein,
		food.Per100g.Carbs, food.Per100g.Fat, formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("failed to insert food: %w", err)
	}
	if food.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read food id: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetFood(ctx context.Context, id int64) (*models.FoodRecord, error) {
	food := &models.FoodRecord{}
	row := s.db.QueryRowContext(ctx, `SELECT `+foodColumns+` FROM foods WHERE id = ?`, id)
	if err := scanFood(row, food); err != nil {
		return nil, notFound(err, "food", id)
	}
	return food, nil
}

// FindFoodByName returns the oldest food with exactly this name.
func (s *SQLiteStorage) FindFoodByName(ctx context.Context, name string) (*models.FoodRecord, error) {
	food := &models.FoodRecord{}
	row := s.db.QueryRowContext(ctx, `SELECT `+foodColumns+` FROM foods WHERE name = ? ORDER BY id LIMIT 1`, name)
	if err := scanFood(row, food); err != nil {
		return nil, notFound(err, "food", fmt.Sprintf("%q", name))
	}
	return food, nil
}

// ListFoods returns catalog foods whose name contains query, by name.
func (s *SQLiteStorage) ListFoods(ctx context.Context, query string, limit int) ([]*models.FoodRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT `+foodColumns+` FROM foods
        WHERE name LIKE '%' || ? || '%'
        ORDER BY name, id LIMIT ?
    `, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query foods: %w", err)
	}
	defer rows.Close()

	var foods []*models.FoodRecord
	for rows.Next() {
		food := &models.FoodRecord{}
		if err := scanFood(rows, food); err != nil {
			return nil, fmt.Errorf("failed to scan food: %w", err)
		}
		foods = append(foods, food)
	}
	return foods, rows.Err()
}
