// Package memory provides an in-memory register store. It backs tests
// and single-node deployments; semantics mirror the postgres store,
// including version checking on writes.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/compliance/pep-registry/internal/domain"
)

// Store holds the register in process memory. Safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	peps      map[uuid.UUID]*domain.PEPRecord
	related   map[uuid.UUID][]*domain.RelatedPerson
	positions map[uuid.UUID]*domain.PositionTemplate
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		peps:      make(map[uuid.UUID]*domain.PEPRecord),
		related:   make(map[uuid.UUID][]*domain.RelatedPerson),
		positions: make(map[uuid.UUID]*domain.PositionTemplate),
	}
}

// Save inserts or updates a record. Updates are compare-and-set on the
// record's version: a stale version returns ErrVersionConflict and the
// stored record is left untouched. On success the record's Version is
// set to the stored version.
func (s *Store) Save(ctx context.Context, record *domain.PEPRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.peps[record.ID]
	if !ok {
		stored := record.Clone()
		if stored.Version == 0 {
			stored.Version = 1
		}
		s.peps[record.ID] = stored
		record.Version = stored.Version
		return nil
	}

	if existing.Version != record.Version {
		return domain.ErrVersionConflict
	}
	stored := record.Clone()
	stored.Version++
	s.peps[record.ID] = stored
	record.Version = stored.Version
	return nil
}

// FindByID returns the record or ErrNotFound. Deactivated records are
// still retrievable by ID for audit purposes.
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*domain.PEPRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.peps[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return record.Clone(), nil
}

// FindByPhoneticKeyOrSubstring returns every active record whose
// phonetic key equals key or whose full name contains text
// case-insensitively. Either side alone is enough for a hit.
func (s *Store) FindByPhoneticKeyOrSubstring(ctx context.Context, key, text string) ([]*domain.PEPRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.PEPRecord
	for _, record := range s.peps {
		if !record.Active {
			continue
		}
		keyHit := key != "" && record.PhoneticKey == key
		textHit := text != "" && strings.Contains(strings.ToLower(record.FullName), text)
		if keyHit || textHit {
			out = append(out, record.Clone())
		}
	}
	sortByName(out)
	return out, nil
}

// FindActiveByExactName returns active records whose full name equals
// name case-insensitively.
func (s *Store) FindActiveByExactName(ctx context.Context, name string) ([]*domain.PEPRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.PEPRecord
	for _, record := range s.peps {
		if record.Active && strings.EqualFold(record.FullName, name) {
			out = append(out, record.Clone())
		}
	}
	sortByName(out)
	return out, nil
}

// List returns all active records.
func (s *Store) List(ctx context.Context) ([]*domain.PEPRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.PEPRecord, 0, len(s.peps))
	for _, record := range s.peps {
		if record.Active {
			out = append(out, record.Clone())
		}
	}
	sortByName(out)
	return out, nil
}

// AddRelated attaches a related person to an existing record.
func (s *Store) AddRelated(ctx context.Context, person *domain.RelatedPerson) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if person.PEPID == uuid.Nil {
		return domain.NewValidationError("pep_id", "must reference a record")
	}
	if _, ok := s.peps[person.PEPID]; !ok {
		return domain.ErrNotFound
	}

	stored := *person
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.related[person.PEPID] = append(s.related[person.PEPID], &stored)
	return nil
}

// ListRelated returns the related persons for a record in insertion
// order.
func (s *Store) ListRelated(ctx context.Context, pepID uuid.UUID) ([]*domain.RelatedPerson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.peps[pepID]; !ok {
		return nil, domain.ErrNotFound
	}
	persons := s.related[pepID]
	out := make([]*domain.RelatedPerson, len(persons))
	for i, p := range persons {
		copied := *p
		out[i] = &copied
	}
	return out, nil
}

// SavePosition inserts or updates a position template. The combination
// of title, country and year must be unique among active templates.
func (s *Store) SavePosition(ctx context.Context, position *domain.PositionTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.positions {
		if existing.ID == position.ID || !existing.Active {
			continue
		}
		if strings.EqualFold(existing.Title, position.Title) &&
			strings.EqualFold(existing.Country, position.Country) &&
			existing.Year == position.Year {
			return domain.ErrDuplicateRecord
		}
	}

	stored := *position
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	s.positions[position.ID] = &stored
	return nil
}

// ListPositions returns all position templates, active first, then by
// title.
func (s *Store) ListPositions(ctx context.Context) ([]*domain.PositionTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.PositionTemplate, 0, len(s.positions))
	for _, position := range s.positions {
		copied := *position
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Active != out[j].Active {
			return out[i].Active
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

// Ping reports the store as always reachable.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() {}

func sortByName(records []*domain.PEPRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].FullName < records[j].FullName
	})
}
