// Package registry manages the PEP register itself: record lifecycle,
// related persons, position templates, and promotion of discovered
// candidates. Screening reads the register; everything that writes it
// goes through this package so derived fields stay consistent.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/compliance/pep-registry/internal/config"
	"github.com/compliance/pep-registry/internal/domain"
	"github.com/compliance/pep-registry/internal/metrics"
	"github.com/compliance/pep-registry/internal/pkg/logger"
	"github.com/compliance/pep-registry/internal/screening"
)

// casRetries bounds how often a write is retried after losing a version
// race before the conflict is surfaced to the caller.
const casRetries = 3

// Store is the persistence surface the registry needs. Both the
// Postgres and the in-memory store satisfy it.
type Store interface {
	Save(ctx context.Context, record *domain.PEPRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.PEPRecord, error)
	FindByPhoneticKeyOrSubstring(ctx context.Context, key, text string) ([]*domain.PEPRecord, error)
	FindActiveByExactName(ctx context.Context, name string) ([]*domain.PEPRecord, error)
	List(ctx context.Context) ([]*domain.PEPRecord, error)
	AddRelated(ctx context.Context, person *domain.RelatedPerson) error
	ListRelated(ctx context.Context, pepID uuid.UUID) ([]*domain.RelatedPerson, error)
	SavePosition(ctx context.Context, position *domain.PositionTemplate) error
	ListPositions(ctx context.Context) ([]*domain.PositionTemplate, error)
}

// Service owns register writes. Every create and update re-derives the
// phonetic key, PEP type, risk tier, and next review date so stored
// records never drift from their inputs.
type Service struct {
	store      Store
	classifier *screening.RiskClassifier
	cfg        *config.ScreeningConfig
	sources    map[string]CandidateSource
	log        *logger.Logger
}

// NewService creates a registry service.
func NewService(store Store, cfg *config.ScreeningConfig, log *logger.Logger) *Service {
	return &Service{
		store:      store,
		classifier: screening.NewRiskClassifier(cfg),
		cfg:        cfg,
		sources:    make(map[string]CandidateSource),
		log:        log.Named("registry"),
	}
}

// Create validates and stores a new register record. Uniqueness is
// checked against active records sharing the normalized name and date
// of birth.
func (s *Service) Create(ctx context.Context, record *domain.PEPRecord) (*domain.PEPRecord, error) {
	s.applyDefaults(record)
	if err := record.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.findSameSubject(ctx, record)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s already registered as %s", domain.ErrDuplicateRecord, record.FullName, existing.ID)
	}

	now := time.Now().UTC()
	s.classifier.Recompute(record, now)
	record.CreatedAt = now
	record.UpdatedAt = now

	if err := s.store.Save(ctx, record); err != nil {
		return nil, err
	}

	metrics.RecordsCreatedTotal.WithLabelValues(sourceLabel(record.Source)).Inc()
	s.log.RecordCreated(record.ID.String(), string(record.RiskTier), record.Source)
	return record, nil
}

// Get returns one record by ID, including deactivated ones.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.PEPRecord, error) {
	return s.store.FindByID(ctx, id)
}

// List returns all active records.
func (s *Service) List(ctx context.Context) ([]*domain.PEPRecord, error) {
	return s.store.List(ctx)
}

// Update loads the record, applies mutate, re-derives the computed
// fields, and saves under the version guard. Lost races reload and
// reapply the mutation rather than failing the caller.
func (s *Service) Update(ctx context.Context, id uuid.UUID, mutate func(*domain.PEPRecord) error) (*domain.PEPRecord, error) {
	var conflict error
	for attempt := 0; attempt < casRetries; attempt++ {
		record, err := s.store.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}

		previousTier := record.RiskTier
		if err := mutate(record); err != nil {
			return nil, err
		}
		if err := record.Validate(); err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		s.classifier.Recompute(record, now)
		record.UpdatedAt = now

		if err := s.store.Save(ctx, record); err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				conflict = err
				continue
			}
			return nil, err
		}

		if record.RiskTier != previousTier {
			s.log.RiskReclassified(record.ID.String(), string(previousTier), string(record.RiskTier))
		}
		return record, nil
	}
	return nil, conflict
}

// Deactivate soft-deletes a record. Deactivating an already inactive
// record is a no-op.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	var conflict error
	for attempt := 0; attempt < casRetries; attempt++ {
		record, err := s.store.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !record.Active {
			return nil
		}

		record.Active = false
		record.UpdatedAt = time.Now().UTC()
		if err := s.store.Save(ctx, record); err != nil {
			if errors.Is(err, domain.ErrVersionConflict) {
				conflict = err
				continue
			}
			return err
		}

		s.log.RecordDeactivated(record.ID.String())
		return nil
	}
	return conflict
}

// MarkReviewed completes an EDD review: stamps the review date, resets
// the status to completed, and schedules the next review from today.
func (s *Service) MarkReviewed(ctx context.Context, id uuid.UUID) (*domain.PEPRecord, error) {
	return s.Update(ctx, id, func(record *domain.PEPRecord) error {
		now := time.Now().UTC()
		record.LastEDDReviewDate = &now
		record.EDDStatus = domain.EDDCompleted
		record.LastCheckedAt = &now
		return nil
	})
}

// AttachRelated links a family member or close associate to a record.
func (s *Service) AttachRelated(ctx context.Context, person *domain.RelatedPerson) (*domain.RelatedPerson, error) {
	if err := person.Validate(); err != nil {
		return nil, err
	}
	if person.ID == uuid.Nil {
		person.ID = uuid.New()
	}
	if person.CreatedAt.IsZero() {
		person.CreatedAt = time.Now().UTC()
	}
	if err := s.store.AddRelated(ctx, person); err != nil {
		return nil, err
	}
	return person, nil
}

// ListRelated returns the related persons attached to a record.
func (s *Service) ListRelated(ctx context.Context, pepID uuid.UUID) ([]*domain.RelatedPerson, error) {
	return s.store.ListRelated(ctx, pepID)
}

// applyDefaults fills the fields a minimal create request may omit.
func (s *Service) applyDefaults(record *domain.PEPRecord) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Status == "" {
		record.Status = domain.StatusActive
	}
	if record.EDDStatus == "" {
		record.EDDStatus = domain.EDDPending
	}
	if record.MonitoringFrequency == "" {
		record.MonitoringFrequency = s.defaultFrequency()
	}
	if record.Source == "" {
		record.Source = "manual"
	}
	record.Active = true
}

func (s *Service) defaultFrequency() domain.MonitoringFrequency {
	freq := domain.MonitoringFrequency(s.cfg.DefaultFrequency)
	if !freq.Valid() {
		return domain.FrequencyAnnual
	}
	return freq
}

// findSameSubject looks for an active record that is the same person:
// equal normalized name and equal date of birth. The key-or-substring
// search casts a wide net; the equality filter narrows it. The phonetic
// key side also catches names whose punctuation defeats the substring
// comparison.
func (s *Service) findSameSubject(ctx context.Context, record *domain.PEPRecord) (*domain.PEPRecord, error) {
	normalized := screening.Normalize(record.FullName)
	if normalized == "" {
		return nil, nil
	}

	hits, err := s.store.FindByPhoneticKeyOrSubstring(ctx, screening.PhoneticKey(record.FullName), normalized)
	if err != nil {
		return nil, err
	}
	for _, hit := range hits {
		if hit.ID == record.ID {
			continue
		}
		if screening.Normalize(hit.FullName) == normalized && sameBirthDate(hit.DateOfBirth, record.DateOfBirth) {
			return hit, nil
		}
	}
	return nil, nil
}

func sameBirthDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sourceLabel(source string) string {
	if source == "" {
		return "manual"
	}
	return source
}
