package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/compliance/pep-registry/internal/pkg/logger"
	"github.com/compliance/pep-registry/internal/screening"
)

// LogSink records review tasks in the service log. It stands in for the
// Kafka queue in deployments without a broker, keeping sweep behavior
// identical.
type LogSink struct {
	log *logger.Logger
}

func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log.Named("review-queue")}
}

func (s *LogSink) PublishReviewTask(ctx context.Context, task screening.ReviewTask) error {
	s.log.Info("review task",
		zap.String("pep_id", task.PEPID.String()),
		zap.String("full_name", task.FullName),
		zap.String("risk_tier", string(task.RiskTier)),
		zap.Time("next_review_date", task.NextReviewDate),
	)
	return nil
}
