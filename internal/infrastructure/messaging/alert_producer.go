// Package messaging connects the engine to Kafka: alerts fan out on one topic and
// access events from the access-control layer arrive on another.
package messaging

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/dataguard/internal/config"
	"github.com/turtacn/dataguard/internal/domain/models"
	"github.com/turtacn/dataguard/internal/domain/service"
	"github.com/turtacn/dataguard/pkg/logger"
)

var _ service.AlertPublisher = (*AlertProducer)(nil)

// MessageWriter is the part of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AlertProducer is a Kafka-backed implementation of the AlertPublisher.
type AlertProducer struct {
	writer MessageWriter
	logger logger.Logger
}

// NewAlertProducer creates a producer writing to cfg.AlertTopic.
func NewAlertProducer(cfg config.KafkaConfig, log logger.Logger) *AlertProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.AlertTopic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
	}
	return NewAlertProducerWithWriter(writer, log)
}

// NewAlertProducerWithWriter wraps any writer; tests pass an in-memory one.
func NewAlertProducerWithWriter(w MessageWriter, log logger.Logger) *AlertProducer {
	return &AlertProducer{writer: w, logger: log.WithComponent("AlertProducer")}
}

// PublishAlert sends the alert keyed by its id, so the raise and the resolve of one
// alert land on the same partition in order.
func (p *AlertProducer) PublishAlert(ctx context.Context, alert *models.Alert) error {
	bytes, err := json.Marshal(alert)
	if err != nil {
		p.logger.Error(ctx, "failed to marshal alert", err)
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(alert.ID.String()),
		Value: bytes,
		Headers: []kafka.Header{
			{Key: "alert_type", Value: []byte(alert.Type)},
			{Key: "status", Value: []byte(alert.Status)},
		},
	})
	if err != nil {
		p.logger.Error(ctx, "failed to write alert to Kafka", err, logger.String("alert_id", alert.ID.String()))
	}
	return err
}

// Close closes the underlying Kafka writer.
func (p *AlertProducer) Close() error {
	return p.writer.Close()
}

//Personal.AI order the ending
