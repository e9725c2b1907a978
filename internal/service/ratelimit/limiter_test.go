package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterBurstThenRefill(t *testing.T) {
	now := time.Unix(1700000000, 0)
	l := New(2, 6) // one token every 10s
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("prune"))
	assert.True(t, l.Allow("prune"))

	ok, wait := l.Reserve("prune")
	assert.False(t, ok)
	assert.InDelta(t, float64(10*time.Second), float64(wait), float64(time.Millisecond))

	now = now.Add(10*time.Second + time.Millisecond)
	assert.True(t, l.Allow("prune"))
	assert.False(t, l.Allow("prune"))
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	l := New(1, 1)

	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
}
