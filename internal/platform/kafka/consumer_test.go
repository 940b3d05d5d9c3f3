package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestConsumer(attempts int) *Consumer {
	return &Consumer{logger: zap.NewNop(), attempts: attempts, backoff: time.Millisecond}
}

func TestConsumerHandle_RetriesUntilSuccess(t *testing.T) {
	c := newTestConsumer(3)
	calls := 0

	err := c.handle(context.Background(), kafkago.Message{Offset: 7}, func(context.Context, kafkago.Message) error {
		calls++
		if calls < 3 {
			return errors.New("broker hiccup")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestConsumerHandle_GivesUpAfterAttempts(t *testing.T) {
	c := newTestConsumer(2)
	calls := 0
	failure := errors.New("still failing")

	err := c.handle(context.Background(), kafkago.Message{}, func(context.Context, kafkago.Message) error {
		calls++
		return failure
	})

	assert.ErrorIs(t, err, failure)
	assert.Equal(t, 2, calls)
}

func TestConsumerHandle_StopsOnCancel(t *testing.T) {
	c := &Consumer{logger: zap.NewNop(), attempts: 5, backoff: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := c.handle(ctx, kafkago.Message{}, func(context.Context, kafkago.Message) error {
		calls++
		cancel()
		return errors.New("failed")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
