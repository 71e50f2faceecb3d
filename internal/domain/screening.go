package domain

import (
	"time"

	"github.com/google/uuid"
)

// MatchOutcome represents the outcome of resolving a name against the
// register.
type MatchOutcome string

const (
	// OutcomeMatch is a single unambiguous hit.
	OutcomeMatch MatchOutcome = "match"
	// OutcomePossibleMatch requires human disambiguation. It is a valid
	// result, not a failure.
	OutcomePossibleMatch MatchOutcome = "possible_match"
	// OutcomeNoMatch means no register entry resembles the query.
	OutcomeNoMatch MatchOutcome = "no_match"
)

// ScreeningType states why the screening was requested.
type ScreeningType string

const (
	ScreeningInitial  ScreeningType = "initial"
	ScreeningPeriodic ScreeningType = "periodic"
	ScreeningTrigger  ScreeningType = "trigger"
	ScreeningExit     ScreeningType = "exit"
)

// ScreeningMethod states which channel produced the screening evidence.
type ScreeningMethod string

const (
	MethodDatabase    ScreeningMethod = "database"
	MethodMedia       ScreeningMethod = "media"
	MethodOfficial    ScreeningMethod = "official"
	MethodManual      ScreeningMethod = "manual"
	MethodAIScreening ScreeningMethod = "ai_screening"
)

// ScreeningState tracks a screening request through its workflow.
type ScreeningState string

const (
	StateReceived            ScreeningState = "received"
	StateInternalLookup      ScreeningState = "internal_lookup"
	StateResolved            ScreeningState = "resolved"
	StateEscalatedToExternal ScreeningState = "escalated_to_external"
	StateExternalLookup      ScreeningState = "external_lookup"
	StateFinalized           ScreeningState = "finalized"
)

// ScreeningQuery is the identity being screened.
type ScreeningQuery struct {
	Name        string     `json:"name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Nationality string     `json:"nationality,omitempty"`
}

// ScreeningRequest is an ephemeral query against the register. It is
// owned by the caller; the core never retains it beyond producing the
// result.
type ScreeningRequest struct {
	ID          uuid.UUID       `json:"id"`
	Query       ScreeningQuery  `json:"query"`
	Type        ScreeningType   `json:"screening_type"`
	Method      ScreeningMethod `json:"method"`
	RequestedAt time.Time       `json:"requested_at"`
}

// Validate checks the request's enums and query shape.
func (r *ScreeningRequest) Validate() error {
	if r.Query.Name == "" {
		return NewValidationError("query.name", "must not be empty")
	}
	switch r.Type {
	case ScreeningInitial, ScreeningPeriodic, ScreeningTrigger, ScreeningExit:
	default:
		return NewValidationError("screening_type", "unknown type "+string(r.Type))
	}
	switch r.Method {
	case MethodDatabase, MethodMedia, MethodOfficial, MethodManual, MethodAIScreening:
	default:
		return NewValidationError("method", "unknown method "+string(r.Method))
	}
	return nil
}

// Candidate is one ranked resolution of a screening query.
type Candidate struct {
	// Record is the matched register entry. Nil for synthetic candidates
	// produced by the external classifier.
	Record *PEPRecord `json:"record,omitempty"`

	Kind  MatchOutcome `json:"kind"`
	Score float64      `json:"score"`

	// External holds the classifier verdict backing a synthetic candidate.
	External *ExternalVerdict `json:"external,omitempty"`
}

// ExternalVerdict is the structured result of the external classifier,
// after the adapter's own parsing.
type ExternalVerdict struct {
	IsPEP      bool     `json:"is_pep"`
	Position   string   `json:"position,omitempty"`
	Country    string   `json:"country,omitempty"`
	Summary    string   `json:"summary"`
	SourceURLs []string `json:"source_urls"`
}

// ScreeningResult is the audit record produced for one screening
// request.
type ScreeningResult struct {
	ID        uuid.UUID `json:"id"`
	RequestID uuid.UUID `json:"request_id"`

	Outcome         MatchOutcome `json:"outcome"`
	MatchedPEPID    *uuid.UUID   `json:"matched_pep_id,omitempty"`
	ConfidenceScore float64      `json:"confidence_score"`
	EvidenceNotes   string       `json:"evidence_notes,omitempty"`

	// Candidates lists every resolution for possible_match outcomes so
	// a reviewer can disambiguate.
	Candidates []Candidate `json:"candidates,omitempty"`

	State      ScreeningState `json:"state"`
	DurationMs int64          `json:"duration_ms"`
	ScreenedAt time.Time      `json:"screened_at"`
}

// IsConclusive reports whether the result needs no human follow-up.
func (s *ScreeningResult) IsConclusive() bool {
	return s.Outcome == OutcomeMatch || s.Outcome == OutcomeNoMatch
}
