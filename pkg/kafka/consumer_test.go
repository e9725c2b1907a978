package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	applogger "FolioPull/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyHandler struct {
	failures int
	calls    int
	panics   bool
}

func (h *flakyHandler) Topic() string { return "foliopull.commands" }

func (h *flakyHandler) Handle(_ context.Context, _ []byte) error {
	h.calls++
	if h.panics {
		panic("boom")
	}
	if h.calls <= h.failures {
		return errors.New("transient")
	}
	return nil
}

func newTestConsumer(t *testing.T, retries int) *Consumer {
	t.Helper()
	c, err := NewConsumer(applogger.Nop(),
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(retries, time.Millisecond, 2*time.Millisecond),
	)
	require.NoError(t, err)
	return c
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	_, err := NewConsumer(applogger.Nop())
	require.Error(t, err)
}

func TestHandleRetriesUntilSuccess(t *testing.T) {
	c := newTestConsumer(t, 3)
	h := &flakyHandler{failures: 2}

	require.NoError(t, c.handle(h, []byte(`{}`)))
	assert.Equal(t, 3, h.calls)
}

func TestHandleGivesUpAfterRetryMax(t *testing.T) {
	c := newTestConsumer(t, 1)
	h := &flakyHandler{failures: 10}

	require.Error(t, c.handle(h, nil))
	assert.Equal(t, 2, h.calls)
}

func TestHandleRecoversPanics(t *testing.T) {
	c := newTestConsumer(t, 0)
	h := &flakyHandler{panics: true}

	err := c.handle(h, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt <= 8; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 100*time.Millisecond, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 100*time.Millisecond)
	}
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	require.Error(t, err)

	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithCompression("zstd"))
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}
