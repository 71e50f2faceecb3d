package classifier_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compliance/pep-registry/internal/classifier"
	"github.com/compliance/pep-registry/internal/config"
	"github.com/compliance/pep-registry/internal/domain"
	"github.com/compliance/pep-registry/internal/pkg/logger"
)

type stubClassifier struct {
	verdict *domain.ExternalVerdict
	err     error
	calls   int
}

func (s *stubClassifier) Provider() string { return "stub" }

func (s *stubClassifier) Classify(ctx context.Context, query domain.ScreeningQuery) (*domain.ExternalVerdict, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	verdict := *s.verdict
	return &verdict, nil
}

func newCachedClassifier(t *testing.T, inner *stubClassifier, ttl time.Duration) (*classifier.CachedClassifier, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cached := classifier.NewCached(inner, client, &config.RedisConfig{VerdictTTL: ttl}, logger.NewNop())
	return cached, mr
}

func TestCachedClassifierReusesVerdict(t *testing.T) {
	inner := &stubClassifier{verdict: &domain.ExternalVerdict{
		IsPEP:    true,
		Position: "Senator",
		Country:  "Argentina",
		Summary:  "Current senator.",
	}}
	cached, _ := newCachedClassifier(t, inner, time.Hour)

	first, err := cached.Classify(context.Background(), domain.ScreeningQuery{Name: "Juan Perez"})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)

	// Spelling-equivalent lookups share the cache entry.
	second, err := cached.Classify(context.Background(), domain.ScreeningQuery{Name: "  JUAN Perez "})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first, second)
	assert.True(t, second.IsPEP)
	assert.Equal(t, "Senator", second.Position)
}

func TestCachedClassifierDistinguishesSubjects(t *testing.T) {
	inner := &stubClassifier{verdict: &domain.ExternalVerdict{IsPEP: false}}
	cached, _ := newCachedClassifier(t, inner, time.Hour)

	dob := time.Date(1970, 3, 15, 0, 0, 0, 0, time.UTC)
	_, err := cached.Classify(context.Background(), domain.ScreeningQuery{Name: "Juan Perez"})
	require.NoError(t, err)
	_, err = cached.Classify(context.Background(), domain.ScreeningQuery{Name: "Juan Perez", DateOfBirth: &dob})
	require.NoError(t, err)
	_, err = cached.Classify(context.Background(), domain.ScreeningQuery{Name: "Juan Perez", Nationality: "AR"})
	require.NoError(t, err)

	assert.Equal(t, 3, inner.calls)
}

func TestCachedClassifierExpiresEntries(t *testing.T) {
	inner := &stubClassifier{verdict: &domain.ExternalVerdict{IsPEP: true}}
	cached, mr := newCachedClassifier(t, inner, time.Hour)

	_, err := cached.Classify(context.Background(), domain.ScreeningQuery{Name: "Jane Doe"})
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	_, err = cached.Classify(context.Background(), domain.ScreeningQuery{Name: "Jane Doe"})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedClassifierDoesNotCacheErrors(t *testing.T) {
	inner := &stubClassifier{err: &domain.ExternalServiceError{Provider: "stub", Message: "overloaded"}}
	cached, _ := newCachedClassifier(t, inner, time.Hour)

	for i := 0; i < 2; i++ {
		_, err := cached.Classify(context.Background(), domain.ScreeningQuery{Name: "Jane Doe"})
		require.Error(t, err)
		var external *domain.ExternalServiceError
		require.ErrorAs(t, err, &external)
	}
	assert.Equal(t, 2, inner.calls)
}

func TestCachedClassifierSurvivesRedisOutage(t *testing.T) {
	inner := &stubClassifier{verdict: &domain.ExternalVerdict{IsPEP: true}}
	cached, mr := newCachedClassifier(t, inner, time.Hour)
	mr.Close()

	verdict, err := cached.Classify(context.Background(), domain.ScreeningQuery{Name: "Jane Doe"})
	require.NoError(t, err)
	require.NotNil(t, verdict)
	assert.True(t, verdict.IsPEP)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedClassifierProviderPassthrough(t *testing.T) {
	inner := &stubClassifier{verdict: &domain.ExternalVerdict{}}
	cached, _ := newCachedClassifier(t, inner, time.Hour)
	assert.Equal(t, "stub", cached.Provider())
}

func TestCachedClassifierPropagatesInnerErrorVerbatim(t *testing.T) {
	sentinel := errors.New("context deadline exceeded")
	inner := &stubClassifier{err: &domain.ExternalServiceError{Provider: "stub", Err: sentinel}}
	cached, _ := newCachedClassifier(t, inner, time.Hour)

	_, err := cached.Classify(context.Background(), domain.ScreeningQuery{Name: "Jane Doe"})
	require.ErrorIs(t, err, sentinel)
}
