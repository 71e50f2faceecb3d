package logger

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with screening-specific functionality
type Logger struct {
	*zap.Logger
	serviceName string
}

// ContextKey for request context values
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	TraceIDKey   ContextKey = "trace_id"
	SpanIDKey    ContextKey = "span_id"
	PEPIDKey     ContextKey = "pep_id"
)

// New creates a new logger instance
func New(serviceName, environment string, debug bool) (*Logger, error) {
	var config zap.Config

	if environment == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if debug {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	// Add service metadata
	config.InitialFields = map[string]interface{}{
		"service": serviceName,
		"env":     environment,
		"pid":     os.Getpid(),
	}

	zapLogger, err := config.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
	)
	if err != nil {
		return nil, err
	}

	return &Logger{
		Logger:      zapLogger,
		serviceName: serviceName,
	}, nil
}

// NewNop returns a no-op logger for tests.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop(), serviceName: "test"}
}

// Named returns a named sub-logger
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		Logger:      l.Logger.Named(name),
		serviceName: l.serviceName,
	}
}

// WithContext returns a logger with context values
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := []zap.Field{}

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok && traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	if spanID, ok := ctx.Value(SpanIDKey).(string); ok && spanID != "" {
		fields = append(fields, zap.String("span_id", spanID))
	}
	if pepID, ok := ctx.Value(PEPIDKey).(string); ok && pepID != "" {
		fields = append(fields, zap.String("pep_id", pepID))
	}

	return &Logger{
		Logger:      l.With(fields...),
		serviceName: l.serviceName,
	}
}

// WithScreening returns a logger with screening context
func (l *Logger) WithScreening(requestID, screeningType string) *Logger {
	return &Logger{
		Logger: l.With(
			zap.String("request_id", requestID),
			zap.String("screening_type", screeningType),
		),
		serviceName: l.serviceName,
	}
}

// WithRecord returns a logger with PEP record context
func (l *Logger) WithRecord(pepID string) *Logger {
	return &Logger{
		Logger:      l.With(zap.String("pep_id", pepID)),
		serviceName: l.serviceName,
	}
}

// ScreeningStarted logs the start of a screening request
func (l *Logger) ScreeningStarted(requestID, screeningType, name string) {
	l.Info("screening started",
		zap.String("request_id", requestID),
		zap.String("screening_type", screeningType),
		zap.String("name", name),
	)
}

// ScreeningCompleted logs the completion of a screening request
func (l *Logger) ScreeningCompleted(requestID string, outcome string, candidates int, durationMs int64) {
	l.Info("screening completed",
		zap.String("request_id", requestID),
		zap.String("outcome", outcome),
		zap.Int("candidates", candidates),
		zap.Int64("duration_ms", durationMs),
	)
}

// InternalLookupCompleted logs the internal resolution step
func (l *Logger) InternalLookupCompleted(query string, candidates int, durationMs int64) {
	l.Info("internal lookup completed",
		zap.String("query", query),
		zap.Int("candidates", candidates),
		zap.Int64("duration_ms", durationMs),
	)
}

// ExternalLookupStarted logs escalation to the external classifier
func (l *Logger) ExternalLookupStarted(requestID, provider string) {
	l.Info("external lookup started",
		zap.String("request_id", requestID),
		zap.String("provider", provider),
	)
}

// ExternalLookupFailed logs a failed external classification
func (l *Logger) ExternalLookupFailed(requestID, provider string, err error) {
	l.Error("external lookup failed",
		zap.String("request_id", requestID),
		zap.String("provider", provider),
		zap.Error(err),
	)
}

// RecordCreated logs creation of a register entry
func (l *Logger) RecordCreated(pepID, riskTier, source string) {
	l.Info("pep record created",
		zap.String("pep_id", pepID),
		zap.String("risk_tier", riskTier),
		zap.String("source", source),
	)
}

// RecordDeactivated logs soft deletion of a register entry
func (l *Logger) RecordDeactivated(pepID string) {
	l.Info("pep record deactivated",
		zap.String("pep_id", pepID),
	)
}

// RiskReclassified logs a risk tier change after recomputation
func (l *Logger) RiskReclassified(pepID string, from, to string) {
	l.Info("risk tier reclassified",
		zap.String("pep_id", pepID),
		zap.String("from", from),
		zap.String("to", to),
	)
}

// ReviewFlagged logs a record flagged for EDD review
func (l *Logger) ReviewFlagged(pepID string, nextReview time.Time) {
	l.Warn("edd review flagged",
		zap.String("pep_id", pepID),
		zap.Time("next_review", nextReview),
	)
}

// SweepCompleted logs a finished review sweep
func (l *Logger) SweepCompleted(examined, flagged int, durationMs int64) {
	l.Info("review sweep completed",
		zap.Int("examined", examined),
		zap.Int("flagged", flagged),
		zap.Int64("duration_ms", durationMs),
	)
}

// CandidatePromoted logs promotion of a discovery candidate
func (l *Logger) CandidatePromoted(pepID, source string) {
	l.Info("candidate promoted",
		zap.String("pep_id", pepID),
		zap.String("source", source),
	)
}

// LatencyWarning logs when an operation exceeds expected latency
func (l *Logger) LatencyWarning(operation string, durationMs, thresholdMs int64) {
	l.Warn("latency threshold exceeded",
		zap.String("operation", operation),
		zap.Int64("duration_ms", durationMs),
		zap.Int64("threshold_ms", thresholdMs),
	)
}

// Helper field functions

// ErrorField creates an error field
func ErrorField(err error) zap.Field {
	return zap.Error(err)
}

// DurationField creates a duration field
func DurationField(name string, d time.Duration) zap.Field {
	return zap.Duration(name, d)
}

// StringField creates a string field
func StringField(key, value string) zap.Field {
	return zap.String(key, value)
}

// IntField creates an int field
func IntField(key string, value int) zap.Field {
	return zap.Int(key, value)
}

// Float64Field creates a float64 field
func Float64Field(key string, value float64) zap.Field {
	return zap.Float64(key, value)
}

// BoolField creates a bool field
func BoolField(key string, value bool) zap.Field {
	return zap.Bool(key, value)
}
