package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/compliance/pep-registry/internal/domain"
)

// foreignKeyViolation is the PostgreSQL error code for FK failures.
const foreignKeyViolation = "23503"

// AddRelated attaches a related person to an existing record. A missing
// anchor record surfaces as ErrNotFound.
func (s *Store) AddRelated(ctx context.Context, person *domain.RelatedPerson) error {
	if person.PEPID == uuid.Nil {
		return domain.NewValidationError("pep_id", "must reference a record")
	}
	createdAt := person.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO related_persons
			(id, pep_id, full_name, date_of_birth, relationship_kind,
			 family_relation, association_type, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		person.ID, person.PEPID, person.FullName, person.DateOfBirth,
		person.RelationshipKind, person.FamilyRelation, person.AssociationType,
		person.Notes, createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to insert related person: %w", err)
	}
	return nil
}

// ListRelated returns the related persons for a record.
func (s *Store) ListRelated(ctx context.Context, pepID uuid.UUID) ([]*domain.RelatedPerson, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pep_records WHERE id = $1)`, pepID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check record existence: %w", err)
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, pep_id, full_name, date_of_birth, relationship_kind,
		       family_relation, association_type, notes, created_at
		FROM related_persons
		WHERE pep_id = $1
		ORDER BY created_at`,
		pepID)
	if err != nil {
		return nil, fmt.Errorf("failed to list related persons: %w", err)
	}
	defer rows.Close()

	var out []*domain.RelatedPerson
	for rows.Next() {
		var p domain.RelatedPerson
		if err := rows.Scan(
			&p.ID, &p.PEPID, &p.FullName, &p.DateOfBirth, &p.RelationshipKind,
			&p.FamilyRelation, &p.AssociationType, &p.Notes, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
