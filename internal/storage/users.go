package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/thiagoisdead/sustento-back/internal/models"
)

func (s *SQLiteStorage) CreateUser(ctx context.Context, user *models.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	b := user.Biometrics
	res, err := tx.ExecContext(ctx, `
        INSERT INTO users (name, email, gender, height_cm, weight_kg, age, activity_level, objective, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, user.Name, user.Email, string(b.Gender), b.HeightCm, b.WeightKg, b.Age,
		string(b.ActivityLevel), string(user.Objective), formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}

	if err := replaceRestrictions(ctx, tx, id, user.Restrictions); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user: %w", err)
	}

	user.ID = id
	user.Restrictions = models.NewRestrictionSet(user.Restrictions...).List()
	user.CreatedAt, user.UpdatedAt = now, now
	return nil
}

func (s *SQLiteStorage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	var gender, activity, objective, createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, `
        SELECT id, name, email, gender, height_cm, weight_kg, age, activity_level, objective, created_at, updated_at
        FROM users WHERE id = ?
    `, id).Scan(&user.ID, &user.Name, &user.Email, &gender, &user.Biometrics.HeightCm,
		&user.Biometrics.WeightKg, &user.Biometrics.Age, &activity, &objective, &createdAt, &updatedAt)
	if err != nil {
		return nil, notFound(err, "user", id)
	}

	user.Biometrics.Gender = models.Gender(gender)
	user.Biometrics.ActivityLevel = models.ActivityLevel(activity)
	user.Objective = models.Objective(objective)
	if user.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if user.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT restriction FROM user_restrictions WHERE user_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query restrictions: %w", err)
	}
	defer rows.Close()

	var rs []models.Restriction
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, fmt.Errorf("failed to scan restriction: %w", err)
		}
		rs = append(rs, models.Restriction(r))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read restrictions: %w", err)
	}
	user.Restrictions = models.NewRestrictionSet(rs...).List()

	return user, nil
}

// UpdateUser overwrites the profile and replaces the restriction set.
func (s *SQLiteStorage) UpdateUser(ctx context.Context, user *models.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	b := user.Biometrics
	res, err := tx.ExecContext(ctx, `
        UPDATE users
        SET name = ?, email = ?, gender = ?, height_cm = ?, weight_kg = ?, age = ?,
            activity_level = ?, objective = ?, updated_at = ?
        WHERE id = ?
    `, user.Name, user.Email, string(b.Gender), b.HeightCm, b.WeightKg, b.Age,
		string(b.ActivityLevel), string(user.Objective), formatTime(now), user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if err := requireAffected(res, "user", user.ID); err != nil {
		return err
	}

	if err := replaceRestrictions(ctx, tx, user.ID, user.Restrictions); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit user: %w", err)
	}

	user.Restrictions = models.NewRestrictionSet(user.Restrictions...).List()
	user.UpdatedAt = now
	return nil
}

func replaceRestrictions(ctx context.Context, tx *sql.Tx, userID int64, rs []models.Restriction) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_restrictions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to clear restrictions: %w", err)
	}
	for _, r := range models.NewRestrictionSet(rs...).List() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO user_restrictions (user_id, restriction) VALUES (?, ?)`, userID, string(r)); err != nil {
			return fmt.Errorf("failed to insert restriction: %w", err)
		}
	}
	return nil
}
