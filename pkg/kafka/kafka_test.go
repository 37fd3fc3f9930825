package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Astemirdum/bookstore/pkg/circuit_breaker"
	"github.com/Astemirdum/bookstore/pkg/kafka"
	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSyncPublisher_Publish(t *testing.T) {
	t.Parallel()
	producer := mocks.NewSyncProducer(t, nil)
	event := kafka.Event{
		Type:      kafka.EventNotification,
		UserEmail: "reader@mail.com",
		BookID:    7,
		Kind:      "due_soon",
		Message:   "Book 7 is due soon!",
		Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got kafka.Event
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.UserEmail != event.UserEmail || got.BookID != event.BookID || got.Kind != event.Kind ||
			got.Message != event.Message || !got.Timestamp.Equal(event.Timestamp) {
			return errors.New("unexpected event payload")
		}
		return nil
	})

	pub := kafka.NewSyncPublisher(producer, circuit_breaker.New(circuit_breaker.Config{}), zap.NewNop())
	require.NoError(t, pub.Publish(context.Background(), kafka.NotificationTopic, event))
	require.NoError(t, pub.Close())
}

func TestSyncPublisher_OpensBreaker(t *testing.T) {
	t.Parallel()
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	cb := circuit_breaker.New(circuit_breaker.Config{RecordLength: 1, Timeout: time.Hour, Percentile: 1})
	pub := kafka.NewSyncPublisher(producer, cb, zap.NewNop())

	err := pub.Publish(context.Background(), kafka.AuditTopic, kafka.Event{Type: kafka.EventAudit})
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.Equal(t, circuit_breaker.Open, cb.State())

	err = pub.Publish(context.Background(), kafka.AuditTopic, kafka.Event{Type: kafka.EventAudit})
	require.ErrorIs(t, err, circuit_breaker.ErrOpenCB)
	require.NoError(t, producer.Close())
}

func TestNewPublisher_Disabled(t *testing.T) {
	t.Parallel()
	pub, err := kafka.NewPublisher(kafka.Config{}, zap.NewNop())
	require.NoError(t, err)
	require.IsType(t, kafka.NopPublisher{}, pub)
	require.NoError(t, pub.Publish(context.Background(), kafka.AuditTopic, kafka.Event{}))
}
