package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// MockKafkaWriter implements KafkaWriter for testing
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

func testEvent() Event {
	return New(ApplicationStatusChanged, EntityApplication, uuid.New(), uuid.New(), "SUBMITTED", "REVIEWED", uuid.New())
}

func TestNewProducerDefaults(t *testing.T) {
	producer := newProducer(new(MockKafkaWriter), zaptest.NewLogger(t))

	assert.NotNil(t, producer.writer)
	assert.NotNil(t, producer.events)
	assert.NotNil(t, producer.closeChan)
	assert.Equal(t, "kafka_producer", producer.logger.Check(zap.InfoLevel, "").LoggerName)
}

func TestProducer_Produce(t *testing.T) {
	t.Run("successful produce", func(t *testing.T) {
		producer := newProducer(new(MockKafkaWriter), zaptest.NewLogger(t))

		producer.Produce(testEvent())

		assert.Equal(t, 1, len(producer.events))
	})

	t.Run("dropped event when queue full", func(t *testing.T) {
		core, recorded := observer.New(zap.WarnLevel)
		producer := newProducer(new(MockKafkaWriter), zap.New(core))
		producer.events = make(chan Event, 1) // Small buffer for test

		producer.Produce(testEvent())
		producer.Produce(testEvent()) // This should be dropped

		assert.Equal(t, 1, recorded.FilterMessage("Kafka producer queue full, dropping event").Len())
	})
}

func TestProducer_SendEvent(t *testing.T) {
	mockWriter := new(MockKafkaWriter)
	producer := &Producer{
		writer: mockWriter,
		logger: zaptest.NewLogger(t),
	}
	event := testEvent()

	t.Run("successful send keyed by application", func(t *testing.T) {
		mockWriter.On("WriteMessages", mock.Anything, mock.Anything).Return(nil)

		producer.sendEvent(context.Background(), event)

		mockWriter.AssertCalled(t, "WriteMessages", mock.Anything, []kafka.Message{
			{
				Key:   []byte(event.ApplicationID.String()),
				Value: mustMarshal(event),
			},
		})
	})

	t.Run("serialization error", func(t *testing.T) {
		core, recorded := observer.New(zap.ErrorLevel)
		producer.logger = zap.New(core)

		oldMarshal := jsonMarshal
		jsonMarshal = func(_ interface{}) ([]byte, error) {
			return nil, errors.New("mock marshal error")
		}
		defer func() { jsonMarshal = oldMarshal }()

		producer.sendEvent(context.Background(), event)

		assert.Equal(t, 1, recorded.FilterMessage("Failed to serialize event").Len())
		assert.Equal(t, 1, recorded.FilterField(zap.String("entity_id", event.EntityID.String())).Len())
	})

	t.Run("write error", func(t *testing.T) {
		core, recorded := observer.New(zap.ErrorLevel)
		producer.logger = zap.New(core)
		mockWriter.ExpectedCalls = nil
		mockWriter.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("kafka error"))

		producer.sendEvent(context.Background(), event)

		assert.Equal(t, 1, recorded.FilterMessage("Failed to produce event").Len())
	})
}

func TestProducer_Close(t *testing.T) {
	mockWriter := new(MockKafkaWriter)
	mockWriter.On("Close").Return(nil)

	producer := newProducer(mockWriter, zaptest.NewLogger(t))
	producer.Close()

	select {
	case <-producer.closeChan:
	default:
		t.Error("closeChan not closed")
	}

	mockWriter.AssertCalled(t, "Close")
}

func TestProducer_EventLoop(t *testing.T) {
	mockWriter := new(MockKafkaWriter)
	written := make(chan struct{}, 1)
	mockWriter.On("WriteMessages", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { written <- struct{}{} }).
		Return(nil)

	mockWriter.On("Close").Return(nil)

	producer := newProducer(mockWriter, zaptest.NewLogger(t))
	producer.start()
	defer producer.Close()

	producer.Produce(testEvent())

	select {
	case <-written:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not written")
	}
	mockWriter.AssertCalled(t, "WriteMessages", mock.Anything, mock.Anything)
}

func TestProducer_CloseFlushesQueue(t *testing.T) {
	mockWriter := new(MockKafkaWriter)
	mockWriter.On("WriteMessages", mock.Anything, mock.Anything).Return(nil)
	mockWriter.On("Close").Return(nil)

	producer := newProducer(mockWriter, zaptest.NewLogger(t))
	// queue before the loop runs so every event is still buffered at Close
	for i := 0; i < 5; i++ {
		producer.Produce(testEvent())
	}
	producer.start()
	producer.Close()

	mockWriter.AssertNumberOfCalls(t, "WriteMessages", 5)
	mockWriter.AssertCalled(t, "Close")
	assert.Empty(t, producer.events)
}

func TestEventKeyFallsBackToEntity(t *testing.T) {
	jobID := uuid.New()
	ev := New(JobCreated, EntityJob, jobID, uuid.Nil, "", "DRAFT", uuid.New())
	assert.Equal(t, jobID.String(), ev.Key())
}

func TestEventRecord(t *testing.T) {
	ev := testEvent()
	rec := ev.Record()
	assert.Equal(t, ev.ID, rec.ID)
	assert.Equal(t, string(ApplicationStatusChanged), rec.Type)
	assert.Equal(t, "SUBMITTED", rec.FromStatus)
	assert.Equal(t, "REVIEWED", rec.ToStatus)
	assert.Equal(t, ev.ApplicationID, rec.ApplicationID)
}

func TestLogProducer(t *testing.T) {
	core, recorded := observer.New(zap.InfoLevel)
	NewLogProducer(zap.New(core)).Produce(testEvent())
	assert.Equal(t, 1, recorded.FilterMessage("pipeline event").Len())
}

func mustMarshal(ev Event) []byte {
	data, _ := json.Marshal(ev)
	return data
}
