// Package notify delivers flagged review tasks to downstream compliance
// queues.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/compliance/pep-registry/internal/config"
	"github.com/compliance/pep-registry/internal/pkg/logger"
	"github.com/compliance/pep-registry/internal/screening"
)

// producer is the slice of sarama.SyncProducer the sink uses.
type producer interface {
	SendMessage(msg *sarama.ProducerMessage) (partition int32, offset int64, err error)
	Close() error
}

// KafkaSink publishes review tasks to a Kafka topic. Messages are keyed
// by record ID so tasks for one record stay ordered within a partition.
type KafkaSink struct {
	producer producer
	topic    string
	log      *logger.Logger
}

// NewKafkaSink connects a synchronous producer to the configured
// brokers.
func NewKafkaSink(cfg *config.KafkaConfig, log *logger.Logger) (*KafkaSink, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3
	saramaCfg.Producer.Return.Successes = true

	prod, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &KafkaSink{
		producer: prod,
		topic:    cfg.ReviewTaskTopic,
		log:      log.Named("review-queue"),
	}, nil
}

// PublishReviewTask sends one task to the review topic.
func (s *KafkaSink) PublishReviewTask(ctx context.Context, task screening.ReviewTask) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal review task: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(task.PEPID.String()),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("risk_tier"), Value: []byte(task.RiskTier)},
		},
	}

	partition, offset, err := s.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("publish review task: %w", err)
	}

	s.log.Debug("review task published",
		zap.String("pep_id", task.PEPID.String()),
		zap.String("topic", s.topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// Close shuts the underlying producer down.
func (s *KafkaSink) Close() error {
	return s.producer.Close()
}
