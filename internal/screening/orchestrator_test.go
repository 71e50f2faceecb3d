package screening_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compliance/pep-registry/internal/config"
	"github.com/compliance/pep-registry/internal/domain"
	"github.com/compliance/pep-registry/internal/pkg/logger"
	"github.com/compliance/pep-registry/internal/screening"
)

func newOrchestrator(repo *fakeRepo, classifier screening.ExternalClassifier, sink screening.NotificationSink) *screening.Orchestrator {
	engine := screening.NewMatchEngine(repo, classifier, logger.NewNop())
	cfg := &config.ScreeningConfig{
		SweepConcurrency:    2,
		MaxScreeningLatency: time.Second,
	}
	return screening.NewOrchestrator(engine, repo, sink, cfg, logger.NewNop())
}

func screenRequest(name string) domain.ScreeningRequest {
	return domain.ScreeningRequest{
		ID:          uuid.New(),
		Query:       domain.ScreeningQuery{Name: name},
		Type:        domain.ScreeningInitial,
		Method:      domain.MethodDatabase,
		RequestedAt: time.Now(),
	}
}

func TestScreenSingleInternalMatch(t *testing.T) {
	record := registerRecord("Ganzorig Damdin")
	repo := &fakeRepo{records: []*domain.PEPRecord{record}}
	classifier := &fakeClassifier{verdict: &domain.ExternalVerdict{IsPEP: true}}
	orch := newOrchestrator(repo, classifier, nil)

	result, err := orch.Screen(context.Background(), screenRequest("Ganzorig Damdin"))

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeMatch, result.Outcome)
	assert.Equal(t, domain.StateFinalized, result.State)
	require.NotNil(t, result.MatchedPEPID)
	assert.Equal(t, record.ID, *result.MatchedPEPID)
	assert.Equal(t, 1.0, result.ConfidenceScore)
	assert.Zero(t, classifier.calls, "internal hits must not reach the external classifier")
	assert.True(t, result.IsConclusive())
}

func TestScreenMultipleInternalCandidates(t *testing.T) {
	repo := &fakeRepo{records: []*domain.PEPRecord{
		registerRecord("Ganzorig Damdin"),
		registerRecord("Ganzorig Damdinsuren"),
	}}
	orch := newOrchestrator(repo, &fakeClassifier{}, nil)

	result, err := orch.Screen(context.Background(), screenRequest("Ganzorig Damdin"))

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomePossibleMatch, result.Outcome)
	assert.Equal(t, domain.StateFinalized, result.State)
	assert.Nil(t, result.MatchedPEPID)
	assert.Len(t, result.Candidates, 2)
	assert.False(t, result.IsConclusive())
}

func TestScreenNoHitsWithoutClassifier(t *testing.T) {
	orch := newOrchestrator(&fakeRepo{}, nil, nil)

	result, err := orch.Screen(context.Background(), screenRequest("Unknown Person"))

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNoMatch, result.Outcome)
	assert.Equal(t, domain.StateFinalized, result.State)
	assert.Empty(t, result.Candidates)
}

func TestScreenEscalatesToExternal(t *testing.T) {
	tests := []struct {
		name        string
		verdict     *domain.ExternalVerdict
		wantOutcome domain.MatchOutcome
	}{
		{
			name:        "positive_verdict",
			verdict:     &domain.ExternalVerdict{IsPEP: true, Summary: "provincial governor"},
			wantOutcome: domain.OutcomePossibleMatch,
		},
		{
			name:        "negative_verdict",
			verdict:     &domain.ExternalVerdict{IsPEP: false, Summary: "no exposure"},
			wantOutcome: domain.OutcomeNoMatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifier := &fakeClassifier{verdict: tt.verdict}
			orch := newOrchestrator(&fakeRepo{}, classifier, nil)

			result, err := orch.Screen(context.Background(), screenRequest("Unknown Person"))

			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, result.Outcome)
			assert.Equal(t, domain.StateFinalized, result.State)
			assert.Equal(t, 1, classifier.calls)
			require.Len(t, result.Candidates, 1)
			assert.Nil(t, result.Candidates[0].Record)
			require.NotNil(t, result.Candidates[0].External)
		})
	}
}

func TestScreenExternalTransportErrorPropagates(t *testing.T) {
	classifier := &fakeClassifier{
		err: &domain.ExternalServiceError{Provider: "fake", Message: "503 from upstream"},
	}
	orch := newOrchestrator(&fakeRepo{}, classifier, nil)

	_, err := orch.Screen(context.Background(), screenRequest("Unknown Person"))

	require.Error(t, err)
	var external *domain.ExternalServiceError
	assert.ErrorAs(t, err, &external)
}

// A parseable transport but unparseable payload is an error, never a
// silent no-match.
func TestScreenMalformedExternalResponsePropagates(t *testing.T) {
	classifier := &fakeClassifier{
		err: &domain.MalformedExternalResponse{
			Provider: "fake",
			Excerpt:  "I think this person might be famous",
			Err:      errors.New("invalid character 'I' looking for beginning of value"),
		},
	}
	orch := newOrchestrator(&fakeRepo{}, classifier, nil)

	result, err := orch.Screen(context.Background(), screenRequest("Unknown Person"))

	require.Error(t, err)
	assert.Nil(t, result)
	var malformed *domain.MalformedExternalResponse
	assert.ErrorAs(t, err, &malformed)
}

func TestScreenRejectsInvalidRequest(t *testing.T) {
	classifier := &fakeClassifier{}
	orch := newOrchestrator(&fakeRepo{}, classifier, nil)

	request := screenRequest("")
	_, err := orch.Screen(context.Background(), request)

	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Zero(t, classifier.calls)
}

func TestSweepFlagsDueRecordsOnce(t *testing.T) {
	due1 := registerRecord("Due One")
	due1.NextEDDReviewDate = time.Now().UTC().AddDate(0, 0, -1)
	due2 := registerRecord("Due Two")
	due2.NextEDDReviewDate = time.Now().UTC().AddDate(0, -1, 0)
	notDue := registerRecord("Not Due")

	repo := &fakeRepo{records: []*domain.PEPRecord{due1, due2, notDue}}
	sink := &fakeSink{}
	orch := newOrchestrator(repo, nil, sink)

	report, err := orch.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Examined)
	assert.Equal(t, 2, report.Flagged)
	assert.Equal(t, 2, sink.count())

	// Flagged records are excluded next time around.
	report, err = orch.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Flagged)
	assert.Equal(t, 2, sink.count(), "a record must produce exactly one review task")
}

func TestSweepSkipsVersionConflicts(t *testing.T) {
	due := registerRecord("Contended Record")
	due.NextEDDReviewDate = time.Now().UTC().AddDate(0, 0, -1)

	repo := &fakeRepo{
		records: []*domain.PEPRecord{due},
		saveErr: domain.ErrVersionConflict,
	}
	sink := &fakeSink{}
	orch := newOrchestrator(repo, nil, sink)

	report, err := orch.Sweep(context.Background())

	require.NoError(t, err, "losing the version race is not a sweep failure")
	assert.Equal(t, 0, report.Flagged)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, sink.count())
}

func TestSweepPropagatesStorageErrors(t *testing.T) {
	due := registerRecord("Due Record")
	due.NextEDDReviewDate = time.Now().UTC().AddDate(0, 0, -1)

	repo := &fakeRepo{
		records: []*domain.PEPRecord{due},
		saveErr: errors.New("connection reset"),
	}
	orch := newOrchestrator(repo, nil, &fakeSink{})

	report, err := orch.Sweep(context.Background())

	require.Error(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Flagged)
}
