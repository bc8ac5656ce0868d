package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/thiagoisdead/sustento-back/internal/models"
)

const recordColumns = `id, meal_id, user_id, meal_date, meal_moment, notes, created_at, updated_at`

func scanRecord(row scanner) (*models.ConsumptionRecord, error) {
	r := &models.ConsumptionRecord{}
	var createdAt, updatedAt string
	if err := row.Scan(&r.ID, &r.MealID, &r.UserID, &r.MealDate, &r.MealMoment, &r.Notes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if r.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SQLiteStorage) CreateRecord(ctx context.Context, rec *models.ConsumptionRecord) error {
	now := s.now()
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO consumption_records (meal_id, user_id, meal_date, meal_moment, notes, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `, rec.MealID, rec.UserID, rec.MealDate, rec.MealMoment, rec.Notes, formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("failed to insert meal record: %w", err)
	}
	if rec.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read meal record id: %w", err)
	}
	rec.CreatedAt, rec.UpdatedAt = now, now
	return nil
}

func (s *SQLiteStorage) GetRecord(ctx context.Context, id int64) (*models.ConsumptionRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM consumption_records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, notFound(err, "meal record", id)
	}
	return rec, nil
}

// ListRecords returns records newest first. Zero userID lists every user.
func (s *SQLiteStorage) ListRecords(ctx context.Context, userID int64) ([]*models.ConsumptionRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM consumption_records WHERE 1=1`
	args := []interface{}{}
	if userID != 0 {
		query += " AND user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY created_at DESC, id DESC"
	return s.queryRecords(ctx, query, args...)
}

// ListRecordsByMealOn returns a meal's records created on day's calendar
// date in day's location, newest first.
func (s *SQLiteStorage) ListRecordsByMealOn(ctx context.Context, mealID int64, day time.Time) ([]*models.ConsumptionRecord, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)
	return s.queryRecords(ctx, `
        SELECT `+recordColumns+` FROM consumption_records
        WHERE meal_id = ? AND created_at >= ? AND created_at < ?
        ORDER BY created_at DESC, id DESC
    `, mealID, formatTime(start), formatTime(end))
}

func (s *SQLiteStorage) queryRecords(ctx context.Context, query string, args ...interface{}) ([]*models.ConsumptionRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meal records: %w", err)
	}
	defer rows.Close()

	var records []*models.ConsumptionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpdateRecord saves date, moment and notes of a record.
func (s *SQLiteStorage) UpdateRecord(ctx context.Context, rec *models.ConsumptionRecord) error {
	now := s.now()
	res, err := s.db.ExecContext(ctx, `
        UPDATE consumption_records SET meal_date = ?, meal_moment = ?, notes = ?, updated_at = ? WHERE id = ?
    `, rec.MealDate, rec.MealMoment, rec.Notes, formatTime(now), rec.ID)
	if err != nil {
		return fmt.Errorf("failed to update meal record: %w", err)
	}
	if err := requireAffected(res, "meal record", rec.ID); err != nil {
		return err
	}
	rec.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) DeleteRecord(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM consumption_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete meal record: %w", err)
	}
	return requireAffected(res, "meal record", id)
}
