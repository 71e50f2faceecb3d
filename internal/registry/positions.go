package registry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/compliance/pep-registry/internal/domain"
)

// CreatePosition stores a position template. Duplicates on
// (title, country, year) among active templates are rejected by the
// store.
func (s *Service) CreatePosition(ctx context.Context, position *domain.PositionTemplate) (*domain.PositionTemplate, error) {
	if err := position.Validate(); err != nil {
		return nil, err
	}
	if position.ID == uuid.Nil {
		position.ID = uuid.New()
	}
	if position.CreatedAt.IsZero() {
		position.CreatedAt = time.Now().UTC()
	}
	position.Active = true

	if err := s.store.SavePosition(ctx, position); err != nil {
		return nil, err
	}

	s.log.Info("position template created",
		zap.String("position_id", position.ID.String()),
		zap.String("title", position.Title),
		zap.String("country", position.Country),
	)
	return position, nil
}

// ListPositions returns all known position templates.
func (s *Service) ListPositions(ctx context.Context) ([]*domain.PositionTemplate, error) {
	return s.store.ListPositions(ctx)
}
