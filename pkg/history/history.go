// Package history implements the bounded per-session buffers the detection
// guards read: a fixed-capacity ring of recent location samples and a
// time-windowed log of tile visits.
//
// Neither type is safe for concurrent use on its own. The owning session
// serializes access (see pkg/engine).
package history

import "github.com/trumenapp/go-tileguard/pkg/models"

// DefaultCapacity is the number of samples retained per session.
const DefaultCapacity = 100

// History is a fixed-capacity FIFO buffer of location samples. Appending
// beyond capacity evicts the oldest sample in O(1); insertion order is
// preserved, including out-of-order timestamps (samples are kept in arrival
// order, not timestamp order).
type History struct {
	buf  []models.LocationSample
	head int // index of the oldest sample
	size int
}

// New returns an empty history with the given capacity.
// Non-positive capacities fall back to DefaultCapacity.
func New(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{buf: make([]models.LocationSample, capacity)}
}

// Append inserts a sample at the tail, evicting the oldest sample if the
// buffer is full.
func (h *History) Append(s models.LocationSample) {
	tail := (h.head + h.size) % len(h.buf)
	h.buf[tail] = s
	if h.size < len(h.buf) {
		h.size++
		return
	}
	h.head = (h.head + 1) % len(h.buf)
}

// Len returns the number of buffered samples.
func (h *History) Len() int { return h.size }

// At returns the i-th sample in insertion order, 0 being the oldest.
// The caller must ensure 0 <= i < Len().
func (h *History) At(i int) models.LocationSample {
	return h.buf[(h.head+i)%len(h.buf)]
}

// Latest returns the most recently appended sample.
func (h *History) Latest() (models.LocationSample, bool) {
	if h.size == 0 {
		return models.LocationSample{}, false
	}
	return h.At(h.size - 1), true
}

// Previous returns the sample appended just before the latest one. Guards
// use it to compare a freshly appended sample against the prior position.
func (h *History) Previous() (models.LocationSample, bool) {
	if h.size < 2 {
		return models.LocationSample{}, false
	}
	return h.At(h.size - 2), true
}

// Samples returns a copy of the buffered samples in insertion order.
func (h *History) Samples() []models.LocationSample {
	return h.Tail(h.size)
}

// Tail returns a copy of the most recent n samples in insertion order, or
// all samples if fewer are buffered.
func (h *History) Tail(n int) []models.LocationSample {
	if n > h.size {
		n = h.size
	}
	if n <= 0 {
		return nil
	}
	out := make([]models.LocationSample, n)
	for i := 0; i < n; i++ {
		out[i] = h.At(h.size - n + i)
	}
	return out
}

// Clear discards all samples.
func (h *History) Clear() {
	h.head = 0
	h.size = 0
}
