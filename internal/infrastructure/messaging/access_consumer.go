package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"

	"github.com/turtacn/dataguard/internal/application"
	"github.com/turtacn/dataguard/internal/config"
	"github.com/turtacn/dataguard/pkg/constants"
	"github.com/turtacn/dataguard/pkg/errors"
	"github.com/turtacn/dataguard/pkg/logger"
)

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AccessEvaluator scores one access attempt.
type AccessEvaluator interface {
	EvaluateAccess(ctx context.Context, req application.AccessRequest) (*application.AccessResult, error)
}

// AccessEventMessage is the wire form of an access attempt.
// AccessEventMessage 是访问事件在 Kafka 上的消息格式。
type AccessEventMessage struct {
	UserID     string    `json:"user_id"`
	Department string    `json:"department"`
	Action     string    `json:"action"`
	DocumentID string    `json:"document_id,omitempty"`
	Outcome    string    `json:"outcome"`
	Timestamp  time.Time `json:"timestamp,omitempty"`
}

func (m AccessEventMessage) request() application.AccessRequest {
	return application.AccessRequest{
		UserID:     m.UserID,
		Department: m.Department,
		Action:     constants.AccessAction(m.Action),
		DocumentID: m.DocumentID,
		Outcome:    constants.AccessOutcome(m.Outcome),
		Timestamp:  m.Timestamp,
	}
}

// AccessConsumer feeds access events from Kafka through the engine.
// Messages are processed in order: a transient failure is retried with backoff until it
// succeeds or the consumer stops, so the offset never moves past an unprocessed event.
// Malformed and invalid messages are committed and skipped.
type AccessConsumer struct {
	reader       MessageReader
	evaluator    AccessEvaluator
	retryInitial time.Duration
	retryMax     time.Duration
	logger       logger.Logger
}

// NewAccessConsumer creates a consumer group member on cfg.AccessEventTopic.
func NewAccessConsumer(cfg config.KafkaConfig, evaluator AccessEvaluator, log logger.Logger) *AccessConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.AccessEventTopic,
		GroupID:        cfg.ConsumerGroup, // all engine replicas share the group
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        cfg.ReadTimeout,
		CommitInterval: time.Second,
	})
	return NewAccessConsumerWithReader(reader, evaluator, log).
		WithRetryIntervals(cfg.RetryInitialInterval, cfg.RetryMaxInterval)
}

// NewAccessConsumerWithReader wraps any reader; tests pass an in-memory one.
func NewAccessConsumerWithReader(r MessageReader, evaluator AccessEvaluator, log logger.Logger) *AccessConsumer {
	return &AccessConsumer{
		reader:       r,
		evaluator:    evaluator,
		retryInitial: defaultRetryInitial,
		retryMax:     defaultRetryMax,
		logger:       log.WithComponent("AccessConsumer"),
	}
}

const (
	defaultRetryInitial = 500 * time.Millisecond
	defaultRetryMax     = 30 * time.Second
)

// WithRetryIntervals sets the backoff bounds for transient failures. Non-positive values
// keep the current setting.
func (c *AccessConsumer) WithRetryIntervals(initial, maxInterval time.Duration) *AccessConsumer {
	if initial > 0 {
		c.retryInitial = initial
	}
	if maxInterval > 0 {
		c.retryMax = maxInterval
	}
	if c.retryMax < c.retryInitial {
		c.retryMax = c.retryInitial
	}
	return c
}

// Run consumes until ctx is cancelled. It's a blocking call.
func (c *AccessConsumer) Run(ctx context.Context) error {
	c.logger.Info(ctx, "starting access event consumer...")
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.Error(context.Background(), "failed to close kafka reader", err)
		}
	}()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info(context.Background(), "stopping access event consumer...")
				return nil
			}
			c.logger.Error(ctx, "failed to fetch message from kafka", err)
			continue
		}
		if err := c.process(ctx, msg); err != nil {
			// Stopped mid-retry: leave the offset where it is so the group resumes here.
			c.logger.Info(context.Background(), "stopping access event consumer with an unprocessed message",
				logger.Int64("offset", msg.Offset))
			return nil
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error(ctx, "failed to commit offset", err, logger.Int64("offset", msg.Offset))
		}
	}
}

// process handles msg until it is done with. It only returns an error when ctx ends
// before a transient failure clears.
func (c *AccessConsumer) process(ctx context.Context, msg kafka.Message) error {
	ctx = context.WithValue(ctx, constants.ContextKeyRequestID, fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset))
	var event AccessEventMessage
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// Acknowledge the message to avoid reprocessing a poison pill.
		c.logger.Error(ctx, "failed to unmarshal access event", err, logger.String("kafka_message", string(msg.Value)))
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryInitial
	policy.MaxInterval = c.retryMax
	policy.MaxElapsedTime = 0

	return backoff.RetryNotify(func() error {
		return c.evaluate(ctx, event)
	}, backoff.WithContext(policy, ctx), func(err error, wait time.Duration) {
		c.logger.Warn(ctx, "access event evaluation failed, retrying",
			logger.String("user_id", event.UserID),
			logger.String("error", err.Error()),
			logger.Duration("retry_in", wait),
		)
	})
}

// evaluate returns nil once the event needs no further attempts.
func (c *AccessConsumer) evaluate(ctx context.Context, event AccessEventMessage) error {
	result, err := c.evaluator.EvaluateAccess(ctx, event.request())
	switch {
	case err == nil:
		if result.AlertCreated {
			c.logger.Info(ctx, "access event raised an alert",
				logger.String("user_id", event.UserID),
				logger.String("alert_id", result.Alert.ID.String()),
				logger.Float64("risk_score", result.RiskScore),
			)
		}
		return nil
	case errors.IsInvalidArgumentError(err):
		c.logger.Warn(ctx, "dropping invalid access event",
			logger.String("user_id", event.UserID),
			logger.String("reason", err.Error()),
		)
		return nil
	default:
		return err
	}
}

//Personal.AI order the ending
