package database

import (
	"context"
	"fmt"

	"labmanager/internal/models"
)

// ListResources returns the whole registry in stable id order.
func (db *DB) ListResources(ctx context.Context) ([]models.Resource, error) {
	query := `SELECT id, name, created_at FROM resources ORDER BY id`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close()

	var resources []models.Resource
	for rows.Next() {
		var r models.Resource
		if err := rows.Scan(&r.ID, &r.Name, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

func (db *DB) GetResource(ctx context.Context, id int64) (*models.Resource, error) {
	var r models.Resource
	query := `SELECT id, name, created_at FROM resources WHERE id = ?`
	err := db.QueryRowContext(ctx, query, id).Scan(&r.ID, &r.Name, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get resource %d: %w", id, err)
	}
	return &r, nil
}

// EnsureSeeded populates the registry on first run. If any resource already
// exists this is a no-op, so repeated starts never duplicate the pool.
func (db *DB) EnsureSeeded(ctx context.Context, count int, nameTemplate string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var existing int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM resources`).Scan(&existing); err != nil {
		return fmt.Errorf("failed to count resources: %w", err)
	}
	if existing > 0 {
		return nil
	}

	for i := 1; i <= count; i++ {
		name := fmt.Sprintf(nameTemplate, i)
		if _, err := tx.ExecContext(ctx, `INSERT INTO resources (name) VALUES (?)`, name); err != nil {
			return fmt.Errorf("failed to seed resource %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}
	db.logger.Info().Int("count", count).Str("template", nameTemplate).Msg("resource registry seeded")
	return nil
}
