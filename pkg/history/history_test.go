package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trumenapp/go-tileguard/pkg/models"
)

func sampleAt(i int) models.LocationSample {
	return models.LocationSample{
		Latitude:         float64(i),
		Longitude:        float64(-i),
		CapturedAtMillis: int64(i) * 1000,
	}
}

func TestHistoryAppendAndOrder(t *testing.T) {
	h := New(10)

	for i := 1; i <= 5; i++ {
		h.Append(sampleAt(i))
	}

	require.Equal(t, 5, h.Len())
	samples := h.Samples()
	require.Len(t, samples, 5)
	for i, s := range samples {
		assert.Equal(t, float64(i+1), s.Latitude, "insertion order must be preserved")
	}
}

func TestHistoryBoundedEviction(t *testing.T) {
	h := New(100)

	for i := 1; i <= 150; i++ {
		h.Append(sampleAt(i))
	}

	require.Equal(t, 100, h.Len())
	samples := h.Samples()
	require.Len(t, samples, 100)
	// Samples 1-50 evicted; 51-150 remain in arrival order.
	assert.Equal(t, float64(51), samples[0].Latitude)
	assert.Equal(t, float64(150), samples[99].Latitude)
	for i := 1; i < len(samples); i++ {
		assert.Equal(t, samples[i-1].Latitude+1, samples[i].Latitude)
	}
}

func TestHistoryLatestAndPrevious(t *testing.T) {
	h := New(3)

	_, ok := h.Latest()
	assert.False(t, ok)
	_, ok = h.Previous()
	assert.False(t, ok)

	h.Append(sampleAt(1))
	latest, ok := h.Latest()
	require.True(t, ok)
	assert.Equal(t, float64(1), latest.Latitude)
	_, ok = h.Previous()
	assert.False(t, ok, "single sample has no previous")

	h.Append(sampleAt(2))
	prev, ok := h.Previous()
	require.True(t, ok)
	assert.Equal(t, float64(1), prev.Latitude)

	// Wrap the ring and check again.
	h.Append(sampleAt(3))
	h.Append(sampleAt(4))
	latest, _ = h.Latest()
	prev, _ = h.Previous()
	assert.Equal(t, float64(4), latest.Latitude)
	assert.Equal(t, float64(3), prev.Latitude)
}

func TestHistoryTail(t *testing.T) {
	h := New(5)
	for i := 1; i <= 7; i++ {
		h.Append(sampleAt(i))
	}

	tail := h.Tail(3)
	require.Len(t, tail, 3)
	assert.Equal(t, float64(5), tail[0].Latitude)
	assert.Equal(t, float64(7), tail[2].Latitude)

	assert.Len(t, h.Tail(50), 5, "Tail caps at buffered count")
	assert.Nil(t, h.Tail(0))
}

func TestHistoryClear(t *testing.T) {
	h := New(4)
	for i := 0; i < 6; i++ {
		h.Append(sampleAt(i))
	}

	h.Clear()
	assert.Equal(t, 0, h.Len())
	assert.Empty(t, h.Samples())

	h.Append(sampleAt(9))
	require.Equal(t, 1, h.Len())
	latest, ok := h.Latest()
	require.True(t, ok)
	assert.Equal(t, float64(9), latest.Latitude)
}

func TestHistoryDefaultCapacity(t *testing.T) {
	h := New(0)
	for i := 0; i < DefaultCapacity+10; i++ {
		h.Append(sampleAt(i))
	}
	assert.Equal(t, DefaultCapacity, h.Len())
}
