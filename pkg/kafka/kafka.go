package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Astemirdum/bookstore/pkg/circuit_breaker"
	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	NotificationTopic = "bookstore.notifications"
	AuditTopic        = "bookstore.audit"
)

type Config struct {
	// Addrs empty disables publishing.
	Addrs []string `envconfig:"KAFKA_ADDRS"`
	CB    circuit_breaker.Config
}

type EventType string

const (
	EventNotification EventType = "NOTIFICATION"
	EventAudit        EventType = "AUDIT"
)

type Event struct {
	Type      EventType `json:"type"`
	UserEmail string    `json:"userEmail"`
	BookID    int       `json:"bookId,omitempty"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, topic string, event Event) error
	Close() error
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true
	defaultCfg.Producer.Retry.Max = 3

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

// NewPublisher returns a no-op publisher when no brokers are configured.
func NewPublisher(cfg Config, log *zap.Logger) (Publisher, error) {
	if len(cfg.Addrs) == 0 {
		log.Info("kafka disabled: no brokers configured")
		return NopPublisher{}, nil
	}
	producer, err := NewProducer(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "kafka.NewProducer")
	}
	return NewSyncPublisher(producer, circuit_breaker.New(cfg.CB), log), nil
}

type syncPublisher struct {
	producer sarama.SyncProducer
	cb       circuit_breaker.CircuitBreaker
	log      *zap.Logger
}

func NewSyncPublisher(producer sarama.SyncProducer, cb circuit_breaker.CircuitBreaker, log *zap.Logger) Publisher {
	return &syncPublisher{
		producer: producer,
		cb:       cb,
		log:      log.Named("kafka"),
	}
}

func (p *syncPublisher) Publish(_ context.Context, topic string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.UserEmail),
		Value: sarama.ByteEncoder(data),
	}
	return p.cb.Call(func() error {
		partition, offset, err := p.producer.SendMessage(msg)
		if err != nil {
			return err
		}
		p.log.Debug("message sent", zap.String("topic", topic), zap.Int32("partition", partition), zap.Int64("offset", offset))
		return nil
	})
}

func (p *syncPublisher) Close() error {
	return p.producer.Close()
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, Event) error { return nil }
func (NopPublisher) Close() error                                 { return nil }
