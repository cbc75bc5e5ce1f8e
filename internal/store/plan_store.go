package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Priya8975/football-predictions/internal/domain"
	"github.com/jackc/pgx/v5"
)

// GetPlanBySlug returns the plan with the given slug, or nil if none exists.
func (s *PostgresStore) GetPlanBySlug(ctx context.Context, slug string) (*domain.Plan, error) {
	var p domain.Plan
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, slug, is_active FROM plans WHERE slug = $1
	`, slug).Scan(&p.ID, &p.Name, &p.Slug, &p.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying plan %q: %w", slug, err)
	}
	return &p, nil
}
