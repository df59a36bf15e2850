package producers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockTopicAdmin struct {
	mock.Mock
}

func (m *MockTopicAdmin) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	args := m.Called(topics)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]kafka.Partition), args.Error(1)
}

func (m *MockTopicAdmin) CreateTopics(topics ...kafka.TopicConfig) error {
	return m.Called(topics).Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLedgerEventProducer_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("WritesKeyValueAndHeaders", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &LedgerEventProducer{logger: newTestLogger(), writer: mockWriter, topic: "ledger_events"}

		value := []byte(`{"type":"transfer.completed"}`)
		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			msg := msgs[0]
			return string(msg.Key) == "acc-1" &&
				string(msg.Value) == string(value) &&
				len(msg.Headers) == 2 &&
				msg.Headers[0].Key == "correlation-id" &&
				msg.Headers[1].Key == "event-type" &&
				string(msg.Headers[1].Value) == "transfer.completed"
		})).Return(nil).Once()

		err := producer.Publish(ctx, "acc-1", value, map[string]string{
			"event-type":     "transfer.completed",
			"correlation-id": "c-1",
		})
		require.NoError(t, err)
		mockWriter.AssertExpectations(t)
	})

	t.Run("WrapsWriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &LedgerEventProducer{logger: newTestLogger(), writer: mockWriter, topic: "ledger_events"}
		writerErr := errors.New("broker unavailable")
		mockWriter.On("WriteMessages", ctx, mock.Anything).Return(writerErr).Once()

		err := producer.Publish(ctx, "acc-1", []byte("{}"), nil)
		assert.ErrorIs(t, err, writerErr)
	})

	t.Run("Close", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &LedgerEventProducer{logger: newTestLogger(), writer: mockWriter, topic: "ledger_events"}
		mockWriter.On("Close").Return(nil).Once()
		assert.NoError(t, producer.Close())
	})
}

func TestDLQProducer_PublishToDLQ(t *testing.T) {
	ctx := context.Background()

	t.Run("WrapsOriginalMessage", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &DLQProducer{logger: newTestLogger(), writer: mockWriter, dlqTopic: "ledger_events_dlq"}

		original := []byte(`not json`)
		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			var letter DeadLetter
			if err := json.Unmarshal(msgs[0].Value, &letter); err != nil {
				return false
			}
			return letter.OriginalKey == "key-1" &&
				letter.OriginalValue == string(original) &&
				letter.Reason == "undecodable" &&
				letter.Timestamp != "" &&
				msgs[0].Headers[0].Key == DLQHeaderReason
		})).Return(nil).Once()

		require.NoError(t, producer.PublishToDLQ(ctx, "key-1", original, "undecodable"))
		mockWriter.AssertExpectations(t)
	})

	t.Run("WriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &DLQProducer{logger: newTestLogger(), writer: mockWriter, dlqTopic: "ledger_events_dlq"}
		writerErr := errors.New("write failed")
		mockWriter.On("WriteMessages", ctx, mock.Anything).Return(writerErr).Once()

		assert.ErrorIs(t, producer.PublishToDLQ(ctx, "k", []byte("v"), "r"), writerErr)
	})

	t.Run("Disabled", func(t *testing.T) {
		var producer *DLQProducer
		assert.ErrorIs(t, producer.PublishToDLQ(ctx, "k", []byte("v"), "r"), ErrDLQDisabled)
		assert.NoError(t, producer.Close())
	})
}

func TestEnsureTopic(t *testing.T) {
	partitionReadBackoff = 0

	t.Run("ExistingTopic", func(t *testing.T) {
		admin := new(MockTopicAdmin)
		admin.On("ReadPartitions", []string{"ledger_events"}).Return([]kafka.Partition{{ID: 0}}, nil).Once()

		require.NoError(t, ensureTopic(admin, "ledger_events", 3, 1, newTestLogger()))
		admin.AssertNotCalled(t, "CreateTopics", mock.Anything)
	})

	t.Run("CreatesMissingTopicWithDefaults", func(t *testing.T) {
		admin := new(MockTopicAdmin)
		admin.On("ReadPartitions", []string{"ledger_events"}).Return(nil, errors.New("unknown topic"))
		admin.On("CreateTopics", []kafka.TopicConfig{{Topic: "ledger_events", NumPartitions: 1, ReplicationFactor: 1}}).Return(nil).Once()

		require.NoError(t, ensureTopic(admin, "ledger_events", 0, 0, newTestLogger()))
		admin.AssertNumberOfCalls(t, "ReadPartitions", partitionReadAttempts)
		admin.AssertExpectations(t)
	})

	t.Run("CreateFails", func(t *testing.T) {
		admin := new(MockTopicAdmin)
		admin.On("ReadPartitions", mock.Anything).Return([]kafka.Partition{}, nil)
		admin.On("CreateTopics", mock.Anything).Return(errors.New("not authorized"))

		assert.ErrorContains(t, ensureTopic(admin, "ledger_events", 1, 1, newTestLogger()), "not authorized")
	})
}
