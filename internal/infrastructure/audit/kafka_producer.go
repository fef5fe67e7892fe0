package audit

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/rampartlabs/rampart/internal/config"
	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/pkg/logger"
)

// KafkaProducer streams signed audit records to a Kafka topic for SIEM and
// analytics consumers. The Postgres store remains the system of record; a
// failed publish is logged and counted but never fails the request.
type KafkaProducer struct {
	writer *kafka.Writer
	logger logger.Logger
}

// NewKafkaProducer creates a producer for the audit topic.
func NewKafkaProducer(cfg config.KafkaConfig, log logger.Logger) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.AuditTopic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
	}
	return &KafkaProducer{
		writer: writer,
		logger: log.WithComponent("audit_kafka_producer"),
	}
}

// Publish sends one signed record to the topic, keyed by tenant so one
// tenant's records stay ordered within a partition.
func (p *KafkaProducer) Publish(ctx context.Context, record *models.AuditRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		p.logger.Error(ctx, "failed to marshal audit record", err,
			logger.String("record_id", record.ID),
		)
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(record.TenantID),
		Value: payload,
	})
	if err != nil {
		p.logger.Error(ctx, "failed to publish audit record", err,
			logger.String("record_id", record.ID),
		)
	}
	return err
}

// Close flushes and closes the underlying writer.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
