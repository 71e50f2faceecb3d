package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/compliance/pep-registry/internal/domain"
)

// uniqueViolation is the PostgreSQL error code for unique index failures.
const uniqueViolation = "23505"

// SavePosition inserts or updates a position template. The combination
// of title, country and year must be unique among active templates; a
// collision returns ErrDuplicateRecord.
func (s *Store) SavePosition(ctx context.Context, position *domain.PositionTemplate) error {
	createdAt := position.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO position_templates
			(id, title, category, country, year, notes, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title, category = EXCLUDED.category,
			country = EXCLUDED.country, year = EXCLUDED.year,
			notes = EXCLUDED.notes, active = EXCLUDED.active`,
		position.ID, position.Title, position.Category, position.Country,
		position.Year, position.Notes, position.Active, createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateRecord
		}
		return fmt.Errorf("failed to save position template: %w", err)
	}
	return nil
}

// ListPositions returns all position templates, active first, then by
// title.
func (s *Store) ListPositions(ctx context.Context) ([]*domain.PositionTemplate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, category, country, year, notes, active, created_at
		FROM position_templates
		ORDER BY active DESC, title`)
	if err != nil {
		return nil, fmt.Errorf("failed to list position templates: %w", err)
	}
	defer rows.Close()

	var out []*domain.PositionTemplate
	for rows.Next() {
		var p domain.PositionTemplate
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Category, &p.Country, &p.Year,
			&p.Notes, &p.Active, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
