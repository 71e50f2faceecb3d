package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/compliance/pep-registry/internal/domain"
	"github.com/compliance/pep-registry/internal/pkg/logger"
	"github.com/compliance/pep-registry/internal/screening"
)

// CandidateQuery scopes a discovery run. Position is ignored by sources
// that enumerate whole declarations rather than single offices.
type CandidateQuery struct {
	Position string `json:"position,omitempty"`
	Country  string `json:"country"`
	Year     string `json:"year,omitempty"`
}

// CandidateSource yields unconfirmed register lines from an upstream
// discovery channel. Lines are returned for review; nothing is written
// to the register until a line is promoted.
type CandidateSource interface {
	Name() string
	Discover(ctx context.Context, query CandidateQuery) ([]domain.CandidateLine, error)
}

// RegisterSource makes a candidate source available for discovery runs.
func (s *Service) RegisterSource(source CandidateSource) {
	s.sources[source.Name()] = source
}

// DiscoverCandidates runs one discovery query against a named source.
func (s *Service) DiscoverCandidates(ctx context.Context, sourceName string, query CandidateQuery) ([]domain.CandidateLine, error) {
	source, ok := s.sources[sourceName]
	if !ok {
		return nil, domain.NewValidationError("source", "unknown candidate source "+sourceName)
	}
	if query.Country == "" {
		return nil, domain.NewValidationError("country", "must not be empty")
	}

	lines, err := source.Discover(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("discover candidates via %s: %w", sourceName, err)
	}

	s.log.Info("candidate discovery completed",
		logger.StringField("source", sourceName),
		logger.StringField("country", query.Country),
		logger.IntField("lines", len(lines)),
	)
	return lines, nil
}

// PromoteCandidate turns a reviewed candidate line into a register
// record. Duplicate checks match the manual path plus a substring
// search on the Latin segment, so a line like
// "Дамдин Ганзориг (Ganzorig Damdin)" cannot re-enter an existing
// subject under a spelling variant.
func (s *Service) PromoteCandidate(ctx context.Context, line domain.CandidateLine) (*domain.PEPRecord, error) {
	if err := line.Validate(); err != nil {
		return nil, err
	}

	if existing, err := s.findPromoted(ctx, line); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%w: %s matches existing record %s (%s)",
			domain.ErrDuplicateRecord, line.FullName, existing.ID, existing.FullName)
	}

	record := recordFromLine(line)
	created, err := s.Create(ctx, record)
	if err != nil {
		return nil, err
	}

	s.log.CandidatePromoted(created.ID.String(), created.Source)
	return created, nil
}

// findPromoted mirrors the dedup the promote path has always used:
// exact composite name, widened by a substring search on the
// Latin-script segment when the line carries one.
func (s *Service) findPromoted(ctx context.Context, line domain.CandidateLine) (*domain.PEPRecord, error) {
	exact, err := s.store.FindActiveByExactName(ctx, line.FullName)
	if err != nil {
		return nil, err
	}
	if len(exact) > 0 {
		return exact[0], nil
	}

	latin := screening.Normalize(screening.LatinSegment(line.FullName))
	if latin == "" {
		return nil, nil
	}
	hits, err := s.store.FindByPhoneticKeyOrSubstring(ctx, "", latin)
	if err != nil {
		return nil, err
	}
	if len(hits) > 0 {
		return hits[0], nil
	}
	return nil, nil
}

// recordFromLine builds the register record a candidate line promotes
// into. Discovered positions land under the "other" category with the
// reported title preserved verbatim.
func recordFromLine(line domain.CandidateLine) *domain.PEPRecord {
	record := &domain.PEPRecord{
		FullName:            line.FullName,
		Nationality:         line.Nationality,
		PositionCategory:    domain.PositionOther,
		CustomPositionTitle: line.SpecificTitle,
		Organization:        line.Organization,
		OrganizationType:    domain.OrgTypeGovernment,
		Status:              domain.StatusActive,
		Source:              line.Source,
		Notes:               promotionNotes(line),
	}

	if line.StartYear > 0 {
		start := time.Date(line.StartYear, time.January, 1, 0, 0, 0, 0, time.UTC)
		record.StartPeriod = &start
	}
	if line.EndYear > 0 {
		end := time.Date(line.EndYear, time.December, 31, 0, 0, 0, 0, time.UTC)
		record.EndPeriod = &end
		if end.Before(time.Now().UTC()) {
			record.Status = domain.StatusFormer
		}
	}
	return record
}

func promotionNotes(line domain.CandidateLine) string {
	var parts []string
	if line.Notes != "" {
		parts = append(parts, line.Notes)
	}
	switch {
	case line.StartYear > 0 && line.EndYear > 0:
		parts = append(parts, fmt.Sprintf("tenure %d-%d", line.StartYear, line.EndYear))
	case line.StartYear > 0:
		parts = append(parts, fmt.Sprintf("in office since %d", line.StartYear))
	}
	if line.BirthYear > 0 {
		parts = append(parts, fmt.Sprintf("born %d", line.BirthYear))
	}
	return strings.Join(parts, "; ")
}
