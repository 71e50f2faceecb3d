package screening

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/compliance/pep-registry/internal/config"
	"github.com/compliance/pep-registry/internal/domain"
	"github.com/compliance/pep-registry/internal/metrics"
	"github.com/compliance/pep-registry/internal/pkg/logger"
)

// ReviewTask is the payload pushed to the notification sink when a
// record is flagged for enhanced due diligence review.
type ReviewTask struct {
	PEPID          uuid.UUID       `json:"pep_id"`
	FullName       string          `json:"full_name"`
	RiskTier       domain.RiskTier `json:"risk_tier"`
	NextReviewDate time.Time       `json:"next_review_date"`
	FlaggedAt      time.Time       `json:"flagged_at"`
}

// NotificationSink receives review tasks for downstream compliance
// queues. Implementations must be safe for concurrent use.
type NotificationSink interface {
	PublishReviewTask(ctx context.Context, task ReviewTask) error
}

// SweepReport summarizes one review sweep run.
type SweepReport struct {
	Examined   int   `json:"examined"`
	Flagged    int   `json:"flagged"`
	Skipped    int   `json:"skipped"`
	DurationMs int64 `json:"duration_ms"`
}

// Orchestrator drives a screening request through its lifecycle and
// runs the periodic review sweep. Screening is a strict progression:
// received, internal lookup, then either resolved or escalation to the
// external classifier, then finalized. A failed external lookup ends
// the run with an error; retrying is the caller's decision.
type Orchestrator struct {
	engine *MatchEngine
	repo   PEPRepository
	sink   NotificationSink
	cfg    *config.ScreeningConfig
	tracer trace.Tracer
	log    *logger.Logger
}

// NewOrchestrator creates an orchestrator. sink may be nil when no
// review queue is configured; flagged records are then only logged.
func NewOrchestrator(engine *MatchEngine, repo PEPRepository, sink NotificationSink, cfg *config.ScreeningConfig, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		engine: engine,
		repo:   repo,
		sink:   sink,
		cfg:    cfg,
		tracer: otel.Tracer("pep-registry/screening"),
		log:    log.Named("orchestrator"),
	}
}

// Screen resolves one screening request. The returned result carries
// the outcome, the candidate evidence, and the terminal state reached.
func (o *Orchestrator) Screen(ctx context.Context, request domain.ScreeningRequest) (*domain.ScreeningResult, error) {
	ctx, span := o.tracer.Start(ctx, "screening.screen",
		trace.WithAttributes(
			attribute.String("screening.type", string(request.Type)),
			attribute.String("screening.method", string(request.Method)),
		))
	defer span.End()

	if err := request.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	start := time.Now()
	o.log.ScreeningStarted(request.ID.String(), string(request.Type), request.Query.Name)

	result := &domain.ScreeningResult{
		ID:        uuid.New(),
		RequestID: request.ID,
		State:     domain.StateInternalLookup,
	}

	candidates, err := o.engine.Resolve(ctx, request.Query)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("internal lookup: %w", err)
	}

	if len(candidates) > 0 {
		result.State = domain.StateResolved
		o.applyInternalOutcome(result, candidates)
	} else if o.engine.HasExternal() {
		result.State = domain.StateEscalatedToExternal
		if err := o.runExternalLookup(ctx, request, result); err != nil {
			span.RecordError(err)
			return nil, err
		}
	} else {
		result.State = domain.StateResolved
		result.Outcome = domain.OutcomeNoMatch
		result.EvidenceNotes = "no register hits; external classifier not configured"
	}

	result.State = domain.StateFinalized
	result.ScreenedAt = time.Now().UTC()
	result.DurationMs = time.Since(start).Milliseconds()

	span.SetAttributes(attribute.String("screening.outcome", string(result.Outcome)))
	metrics.ScreeningsTotal.WithLabelValues(string(result.Outcome), string(request.Method)).Inc()
	metrics.ScreeningDuration.WithLabelValues(string(result.Outcome)).Observe(time.Since(start).Seconds())

	if max := o.cfg.MaxScreeningLatency; max > 0 && time.Since(start) > max {
		o.log.LatencyWarning(request.ID.String(), time.Since(start).Milliseconds(), max.Milliseconds())
	}
	o.log.ScreeningCompleted(request.ID.String(), string(result.Outcome), len(result.Candidates), result.DurationMs)

	return result, nil
}

// applyInternalOutcome fills the result from internal candidates. The
// engine guarantees a single-element slice is a full match and a
// multi-element slice holds possible matches only.
func (o *Orchestrator) applyInternalOutcome(result *domain.ScreeningResult, candidates []domain.Candidate) {
	result.Candidates = candidates
	if len(candidates) == 1 && candidates[0].Kind == domain.OutcomeMatch {
		result.Outcome = domain.OutcomeMatch
		result.ConfidenceScore = candidates[0].Score
		id := candidates[0].Record.ID
		result.MatchedPEPID = &id
		result.EvidenceNotes = fmt.Sprintf("register match: %s", candidates[0].Record.FullName)
		return
	}
	result.Outcome = domain.OutcomePossibleMatch
	result.EvidenceNotes = fmt.Sprintf("%d register candidates require manual review", len(candidates))
}

// runExternalLookup escalates to the external classifier and maps its
// verdict into the result.
func (o *Orchestrator) runExternalLookup(ctx context.Context, request domain.ScreeningRequest, result *domain.ScreeningResult) error {
	provider := o.engine.classifier.Provider()
	o.log.ExternalLookupStarted(request.ID.String(), provider)
	result.State = domain.StateExternalLookup

	candidate, err := o.engine.ResolveExternal(ctx, request.Query)
	if err != nil {
		status := "error"
		var malformed *domain.MalformedExternalResponse
		if errors.As(err, &malformed) {
			status = "malformed"
		}
		metrics.ExternalLookupsTotal.WithLabelValues(provider, status).Inc()
		o.log.ExternalLookupFailed(request.ID.String(), provider, err)
		return fmt.Errorf("external lookup: %w", err)
	}
	metrics.ExternalLookupsTotal.WithLabelValues(provider, "ok").Inc()

	result.Candidates = []domain.Candidate{*candidate}
	result.Outcome = candidate.Kind
	if candidate.External != nil && candidate.External.IsPEP {
		result.EvidenceNotes = fmt.Sprintf("external classifier (%s): %s", provider, candidate.External.Summary)
	} else {
		result.EvidenceNotes = fmt.Sprintf("external classifier (%s) found no exposure", provider)
	}
	return nil
}

// Sweep examines a snapshot of the register and flags every high-risk
// active record whose review date has arrived. Flagging is a versioned
// update: a concurrent flag of the same record loses the version race
// and is skipped, so each due record produces exactly one review task.
func (o *Orchestrator) Sweep(ctx context.Context) (*SweepReport, error) {
	ctx, span := o.tracer.Start(ctx, "screening.sweep")
	defer span.End()

	start := time.Now()

	records, err := o.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("sweep snapshot: %w", err)
	}

	due := DueForReview(records, start)
	report := &SweepReport{Examined: len(records)}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.sweepConcurrency())
	flagged := make(chan uuid.UUID, len(due))

	for _, record := range due {
		record := record
		g.Go(func() error {
			ok, err := o.flagForReview(gctx, record)
			if err != nil {
				return err
			}
			if ok {
				flagged <- record.ID
			}
			return nil
		})
	}

	err = g.Wait()
	close(flagged)
	report.Flagged = len(flagged)
	report.Skipped = len(due) - report.Flagged
	report.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		span.RecordError(err)
		return report, fmt.Errorf("sweep: %w", err)
	}

	metrics.SweepRunsTotal.Inc()
	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.Int("sweep.examined", report.Examined),
		attribute.Int("sweep.flagged", report.Flagged),
	)
	o.log.SweepCompleted(report.Examined, report.Flagged, report.DurationMs)
	return report, nil
}

// flagForReview marks one record as needing review. Returns false when
// another writer got there first.
func (o *Orchestrator) flagForReview(ctx context.Context, record *domain.PEPRecord) (bool, error) {
	update := record.Clone()
	update.EDDStatus = domain.EDDReviewNeeded
	update.UpdatedAt = time.Now().UTC()

	if err := o.repo.Save(ctx, update); err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			return false, nil
		}
		return false, fmt.Errorf("flag record %s: %w", record.ID, err)
	}

	metrics.ReviewsFlaggedTotal.Inc()
	o.log.ReviewFlagged(record.ID.String(), record.NextEDDReviewDate)

	if o.sink != nil {
		task := ReviewTask{
			PEPID:          record.ID,
			FullName:       record.FullName,
			RiskTier:       record.RiskTier,
			NextReviewDate: record.NextEDDReviewDate,
			FlaggedAt:      time.Now().UTC(),
		}
		if err := o.sink.PublishReviewTask(ctx, task); err != nil {
			// The record stays flagged; the queue catches up on the
			// next consumer poll of the register.
			o.log.Error("failed to publish review task",
				logger.StringField("pep_id", record.ID.String()),
				logger.ErrorField(err))
		}
	}
	return true, nil
}

func (o *Orchestrator) sweepConcurrency() int {
	if o.cfg.SweepConcurrency > 0 {
		return o.cfg.SweepConcurrency
	}
	return 4
}
