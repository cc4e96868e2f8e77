package repository

import (
	"context"
	"database/sql"
	"fmt"
)

const (
	selectAttributes = `SELECT name, value FROM user_attributes WHERE user_id = $1`
	upsertAttribute  = `INSERT INTO user_attributes (user_id, name, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (user_id, name) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
)

// PostgresRepository stores attributes in the user_attributes table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a repository that uses db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Attributes returns all attributes of userID.
func (r *PostgresRepository) Attributes(ctx context.Context, userID string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, selectAttributes, userID)
	if err != nil {
		return nil, fmt.Errorf("user: query attributes: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("user: scan attribute: %w", err)
		}
		out[name] = value
	}
	return out, rows.Err()
}

// SetAttribute upserts one attribute.
func (r *PostgresRepository) SetAttribute(ctx context.Context, userID, name, value string) error {
	if _, err := r.db.ExecContext(ctx, upsertAttribute, userID, name, value); err != nil {
		return fmt.Errorf("user: upsert attribute: %w", err)
	}
	return nil
}
