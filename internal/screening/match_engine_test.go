package screening_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compliance/pep-registry/internal/domain"
	"github.com/compliance/pep-registry/internal/pkg/logger"
	"github.com/compliance/pep-registry/internal/screening"
)

// fakeRepo is an in-memory PEPRepository with version checking, shared
// by the engine and orchestrator tests.
type fakeRepo struct {
	mu      sync.Mutex
	records []*domain.PEPRecord
	findErr error
	saveErr error
}

func (f *fakeRepo) FindByPhoneticKeyOrSubstring(ctx context.Context, key, text string) ([]*domain.PEPRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	out := make([]*domain.PEPRecord, len(f.records))
	for i, r := range f.records {
		out[i] = r.Clone()
	}
	return out, nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.PEPRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.ID == id {
			return r.Clone(), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRepo) Save(ctx context.Context, record *domain.PEPRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	for i, existing := range f.records {
		if existing.ID == record.ID {
			if existing.Version != record.Version {
				return domain.ErrVersionConflict
			}
			updated := record.Clone()
			updated.Version++
			f.records[i] = updated
			record.Version = updated.Version
			return nil
		}
	}
	f.records = append(f.records, record.Clone())
	return nil
}

func (f *fakeRepo) List(ctx context.Context) ([]*domain.PEPRecord, error) {
	return f.FindByPhoneticKeyOrSubstring(ctx, "", "")
}

type fakeClassifier struct {
	verdict *domain.ExternalVerdict
	err     error
	calls   int
}

func (c *fakeClassifier) Provider() string { return "fake" }

func (c *fakeClassifier) Classify(ctx context.Context, query domain.ScreeningQuery) (*domain.ExternalVerdict, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.verdict, nil
}

type fakeSink struct {
	mu    sync.Mutex
	tasks []screening.ReviewTask
}

func (s *fakeSink) PublishReviewTask(ctx context.Context, task screening.ReviewTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task)
	return nil
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func registerRecord(name string) *domain.PEPRecord {
	now := time.Now().UTC()
	return &domain.PEPRecord{
		ID:                  uuid.New(),
		FullName:            name,
		PhoneticKey:         screening.PhoneticKey(name),
		Nationality:         "MN",
		PositionCategory:    domain.PositionMinister,
		OrganizationType:    domain.OrgTypeGovernment,
		PEPType:             domain.PEPTypeDomestic,
		Status:              domain.StatusActive,
		RiskTier:            domain.RiskTierHigh,
		EDDStatus:           domain.EDDPending,
		NextEDDReviewDate:   now.AddDate(0, 6, 0),
		MonitoringFrequency: domain.FrequencyAnnual,
		Source:              "test",
		Active:              true,
		Version:             1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func query(name string) domain.ScreeningQuery {
	return domain.ScreeningQuery{Name: name}
}

func TestMatchEngineResolveNoHits(t *testing.T) {
	engine := screening.NewMatchEngine(&fakeRepo{}, nil, logger.NewNop())

	candidates, err := engine.Resolve(context.Background(), query("Unknown Person"))

	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestMatchEngineResolveSingleHit(t *testing.T) {
	record := registerRecord("Дамдин Ганзориг (Ganzorig Damdin)")
	engine := screening.NewMatchEngine(&fakeRepo{records: []*domain.PEPRecord{record}}, nil, logger.NewNop())

	candidates, err := engine.Resolve(context.Background(), query("Ganzorig Damdin"))

	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, domain.OutcomeMatch, candidates[0].Kind)
	assert.Equal(t, 1.0, candidates[0].Score)
	assert.Equal(t, record.ID, candidates[0].Record.ID)
}

func TestMatchEngineResolveMultipleHits(t *testing.T) {
	farther := registerRecord("Ganzorig Damdinsuren")
	closer := registerRecord("Ganzorig Damdin")
	repo := &fakeRepo{records: []*domain.PEPRecord{farther, closer}}
	engine := screening.NewMatchEngine(repo, nil, logger.NewNop())

	candidates, err := engine.Resolve(context.Background(), query("Ganzorig Damdin"))

	require.NoError(t, err)
	require.Len(t, candidates, 2)
	for _, c := range candidates {
		assert.Equal(t, domain.OutcomePossibleMatch, c.Kind)
		assert.Zero(t, c.Score)
	}
	assert.Equal(t, closer.ID, candidates[0].Record.ID, "closest name must rank first")
	assert.Equal(t, farther.ID, candidates[1].Record.ID)
}

func TestMatchEngineResolveRepositoryError(t *testing.T) {
	repo := &fakeRepo{findErr: domain.ErrRepositoryUnavailable}
	engine := screening.NewMatchEngine(repo, nil, logger.NewNop())

	_, err := engine.Resolve(context.Background(), query("Any Name"))

	assert.ErrorIs(t, err, domain.ErrRepositoryUnavailable)
}

func TestMatchEngineResolveExternal(t *testing.T) {
	tests := []struct {
		name     string
		verdict  *domain.ExternalVerdict
		wantKind domain.MatchOutcome
	}{
		{
			name: "positive_verdict_is_possible_match",
			verdict: &domain.ExternalVerdict{
				IsPEP:    true,
				Position: "Minister of Finance",
				Country:  "MN",
				Summary:  "current cabinet member",
			},
			wantKind: domain.OutcomePossibleMatch,
		},
		{
			name:     "negative_verdict_is_no_match",
			verdict:  &domain.ExternalVerdict{IsPEP: false, Summary: "no exposure found"},
			wantKind: domain.OutcomeNoMatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := &fakeClassifier{verdict: tt.verdict}
			engine := screening.NewMatchEngine(&fakeRepo{}, classifier, logger.NewNop())

			candidate, err := engine.ResolveExternal(context.Background(), query("Somebody"))

			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, candidate.Kind)
			assert.Nil(t, candidate.Record)
			require.NotNil(t, candidate.External)
			assert.Equal(t, tt.verdict.IsPEP, candidate.External.IsPEP)
		})
	}
}

func TestMatchEngineHasExternal(t *testing.T) {
	withOut := screening.NewMatchEngine(&fakeRepo{}, nil, logger.NewNop())
	with := screening.NewMatchEngine(&fakeRepo{}, &fakeClassifier{}, logger.NewNop())

	assert.False(t, withOut.HasExternal())
	assert.True(t, with.HasExternal())
}
