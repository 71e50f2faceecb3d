package screening

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"

	"github.com/compliance/pep-registry/internal/domain"
	"github.com/compliance/pep-registry/internal/pkg/logger"
)

// PEPRepository is the register storage the match engine reads. The OR
// search must return every record whose phonetic key equals key or whose
// full name contains text case-insensitively; a record matching only one
// side is still included.
type PEPRepository interface {
	FindByPhoneticKeyOrSubstring(ctx context.Context, key, text string) ([]*domain.PEPRecord, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.PEPRecord, error)
	Save(ctx context.Context, record *domain.PEPRecord) error
	List(ctx context.Context) ([]*domain.PEPRecord, error)
}

// ExternalClassifier is the AI-backed fallback consulted only when the
// internal register yields nothing. Implementations return a structured
// verdict or a typed transport/parsing error; the engine imposes no
// retry policy on them.
type ExternalClassifier interface {
	Provider() string
	Classify(ctx context.Context, query domain.ScreeningQuery) (*domain.ExternalVerdict, error)
}

// MatchEngine resolves screening queries against the register.
type MatchEngine struct {
	repo       PEPRepository
	classifier ExternalClassifier
	log        *logger.Logger
}

// NewMatchEngine creates a match engine. classifier may be nil when no
// external fallback is configured.
func NewMatchEngine(repo PEPRepository, classifier ExternalClassifier, log *logger.Logger) *MatchEngine {
	return &MatchEngine{
		repo:       repo,
		classifier: classifier,
		log:        log.Named("match_engine"),
	}
}

// HasExternal reports whether an external classifier is configured.
func (e *MatchEngine) HasExternal() bool {
	return e.classifier != nil
}

// Resolve runs the internal resolution steps: a recall-favoring OR
// search on phonetic key and name substring, then outcome
// classification. Zero hits yield no candidates; exactly one hit is a
// match with full confidence; several hits are possible matches with a
// neutral score, left to a human to disambiguate.
func (e *MatchEngine) Resolve(ctx context.Context, query domain.ScreeningQuery) ([]domain.Candidate, error) {
	start := time.Now()

	key := PhoneticKey(query.Name)
	records, err := e.repo.FindByPhoneticKeyOrSubstring(ctx, key, Normalize(query.Name))
	if err != nil {
		return nil, err
	}

	candidates := e.classifyHits(query, records)

	e.log.InternalLookupCompleted(Normalize(query.Name), len(candidates), time.Since(start).Milliseconds())
	return candidates, nil
}

// classifyHits maps repository hits to candidates per the resolution
// contract.
func (e *MatchEngine) classifyHits(query domain.ScreeningQuery, records []*domain.PEPRecord) []domain.Candidate {
	switch len(records) {
	case 0:
		return nil
	case 1:
		return []domain.Candidate{{
			Record: records[0],
			Kind:   domain.OutcomeMatch,
			Score:  1.0,
		}}
	}

	// Several hits: all possible matches, most similar first. The
	// ordering is a presentation aid; the score stays neutral.
	sorted := make([]*domain.PEPRecord, len(records))
	copy(sorted, records)
	queryName := Normalize(query.Name)
	sort.SliceStable(sorted, func(i, j int) bool {
		return nameSimilarity(queryName, sorted[i]) > nameSimilarity(queryName, sorted[j])
	})

	candidates := make([]domain.Candidate, 0, len(sorted))
	for _, record := range sorted {
		candidates = append(candidates, domain.Candidate{
			Record: record,
			Kind:   domain.OutcomePossibleMatch,
		})
	}
	return candidates
}

// ResolveExternal consults the external classifier with the same query
// and maps its verdict to a synthetic candidate. Transport and parsing
// failures surface as typed errors, never as a silent no-match.
func (e *MatchEngine) ResolveExternal(ctx context.Context, query domain.ScreeningQuery) (*domain.Candidate, error) {
	verdict, err := e.classifier.Classify(ctx, query)
	if err != nil {
		return nil, err
	}

	candidate := &domain.Candidate{External: verdict}
	if verdict.IsPEP {
		candidate.Kind = domain.OutcomePossibleMatch
	} else {
		candidate.Kind = domain.OutcomeNoMatch
	}
	return candidate, nil
}

// nameSimilarity scores how close a record's name is to the query,
// considering the native form and the Latin transliteration separately.
func nameSimilarity(queryName string, record *domain.PEPRecord) float64 {
	best := levenshteinSimilarity(queryName, Normalize(record.FullName))
	if latin := LatinSegment(record.FullName); latin != "" {
		if s := levenshteinSimilarity(queryName, normalizeName(latin)); s > best {
			best = s
		}
	}
	return best
}

// levenshteinSimilarity converts edit distance into a 0..1 similarity.
func levenshteinSimilarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}
	maxLen := len(s1)
	if len(s2) > maxLen {
		maxLen = len(s2)
	}
	if maxLen == 0 {
		return 1.0
	}
	distance := levenshtein.ComputeDistance(strings.ToLower(s1), strings.ToLower(s2))
	return 1.0 - float64(distance)/float64(maxLen)
}
