package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/larder/internal/apperr"
	"github.com/starford/larder/internal/models"
)

// CreatePlan stores a weekly plan with its meals. The id is assigned by the caller.
func (db *DB) CreatePlan(ctx context.Context, p models.WeeklyPlan) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `INSERT INTO weekly_plans (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("sqlstore: plan %s: %w", p.ID, apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("sqlstore: insert plan: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO meal_slots (plan_id, position, day, meal, recipe_slug, multiplier) VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("sqlstore: prepare meal insert: %w", err)
	}
	defer stmt.Close()
	for i, m := range p.Meals {
		if _, err := stmt.ExecContext(ctx, p.ID, i, m.Day, m.Meal, m.RecipeSlug, m.Multiplier); err != nil {
			return fmt.Errorf("sqlstore: insert meal: %w", err)
		}
	}
	return tx.Commit()
}

// GetPlan loads a plan and its meals in scheduled order.
func (db *DB) GetPlan(ctx context.Context, id string) (*models.WeeklyPlan, error) {
	var p models.WeeklyPlan
	err := db.conn.QueryRowContext(ctx, `SELECT id, name, created_at, updated_at FROM weekly_plans WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "plan", id)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT day, meal, recipe_slug, multiplier FROM meal_slots WHERE plan_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: meals: %w", err)
	}
	defer rows.Close()
	p.Meals = []models.MealSlot{}
	for rows.Next() {
		var m models.MealSlot
		if err := rows.Scan(&m.Day, &m.Meal, &m.RecipeSlug, &m.Multiplier); err != nil {
			return nil, err
		}
		p.Meals = append(p.Meals, m)
	}
	return &p, rows.Err()
}

// ListPlans returns every plan, newest first.
func (db *DB) ListPlans(ctx context.Context) ([]models.WeeklyPlan, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id FROM weekly_plans ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list plans: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]models.WeeklyPlan, 0, len(ids))
	for _, id := range ids {
		p, err := db.GetPlan(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

// DeletePlan removes a plan and its meals.
func (db *DB) DeletePlan(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM weekly_plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: delete plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sqlstore: plan %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
