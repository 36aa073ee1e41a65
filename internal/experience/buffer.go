package experience

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/rs/zerolog"
)

var (
	// ErrBufferClosed is returned when operations are attempted on a closed buffer
	ErrBufferClosed = errors.New("experience buffer is closed")
)

// DefaultCapacity is used when NewBuffer is given a non-positive capacity.
const DefaultCapacity = 10000

// Buffer is a thread-safe circular buffer of transitions. When full, Add
// overwrites the oldest entry.
type Buffer struct {
	mu       sync.RWMutex
	buffer   []*Transition
	capacity int
	size     int
	head     int // Write position
	tail     int // Read position
	closed   bool

	totalAdded   int64
	totalDropped int64
	totalDrained int64

	logger zerolog.Logger
}

// NewBuffer creates a new experience buffer with the specified capacity
func NewBuffer(capacity int, logger zerolog.Logger) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Buffer{
		buffer:   make([]*Transition, capacity),
		capacity: capacity,
		logger:   logger.With().Str("component", "experience_buffer").Logger(),
	}
}

// Add appends a transition, dropping the oldest one when the buffer is full.
func (b *Buffer) Add(t *Transition) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBufferClosed
	}
	b.push(t)
	return nil
}

// AddBatch adds multiple transitions under a single lock.
func (b *Buffer) AddBatch(ts []*Transition) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBufferClosed
	}
	for _, t := range ts {
		b.push(t)
	}

	if len(ts) > 0 {
		b.logger.Debug().
			Int("batch_size", len(ts)).
			Int64("total_added", b.totalAdded).
			Msg("Added batch of transitions")
	}
	return nil
}

func (b *Buffer) push(t *Transition) {
	if b.size >= b.capacity {
		b.tail = (b.tail + 1) % b.capacity
		b.totalDropped++
		b.logger.Debug().
			Int64("dropped_total", b.totalDropped).
			Msg("Buffer full, dropping oldest transition")
	} else {
		b.size++
	}

	b.buffer[b.head] = t
	b.head = (b.head + 1) % b.capacity
	b.totalAdded++
}

// Get removes and returns up to n of the oldest transitions.
func (b *Buffer) Get(n int) []*Transition {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.drain(n)
}

// GetAll removes and returns every transition, oldest first.
func (b *Buffer) GetAll() []*Transition {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.drain(b.size)
}

func (b *Buffer) drain(n int) []*Transition {
	if n > b.size {
		n = b.size
	}
	if n < 0 {
		n = 0
	}

	result := make([]*Transition, n)
	for i := 0; i < n; i++ {
		result[i] = b.buffer[b.tail]
		b.buffer[b.tail] = nil
		b.tail = (b.tail + 1) % b.capacity
		b.size--
	}
	b.totalDrained += int64(n)
	return result
}

// Sample returns up to n distinct transitions chosen uniformly at random
// without removing them.
func (b *Buffer) Sample(n int, rng *rand.Rand) []*Transition {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n > b.size {
		n = b.size
	}
	if n <= 0 {
		return []*Transition{}
	}

	result := make([]*Transition, n)
	for i, offset := range rng.Perm(b.size)[:n] {
		result[i] = b.buffer[(b.tail+offset)%b.capacity]
	}
	return result
}

// GetLatest returns the n most recent transitions, oldest first, without
// removing them.
func (b *Buffer) GetLatest(n int) []*Transition {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n > b.size {
		n = b.size
	}
	if n < 0 {
		n = 0
	}

	result := make([]*Transition, n)
	for i := 0; i < n; i++ {
		idx := (b.head - n + i + b.capacity) % b.capacity
		result[i] = b.buffer[idx]
	}
	return result
}

// Size returns the current number of transitions in the buffer
func (b *Buffer) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Capacity returns the maximum capacity of the buffer
func (b *Buffer) Capacity() int {
	return b.capacity
}

// IsFull returns true if the buffer is at capacity
func (b *Buffer) IsFull() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size >= b.capacity
}

// Clear removes all transitions from the buffer
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.size = 0
	b.head = 0
	b.tail = 0
	b.buffer = make([]*Transition, b.capacity)

	b.logger.Debug().Msg("Buffer cleared")
}

// Close rejects further writes. Reads keep working on what is left.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	b.logger.Info().
		Int64("total_added", b.totalAdded).
		Int64("total_dropped", b.totalDropped).
		Int64("total_drained", b.totalDrained).
		Msg("Buffer closed")

	return nil
}

// Stats returns buffer statistics
func (b *Buffer) Stats() BufferStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return BufferStats{
		CurrentSize:    b.size,
		Capacity:       b.capacity,
		TotalAdded:     b.totalAdded,
		TotalDropped:   b.totalDropped,
		TotalDrained:   b.totalDrained,
		UtilizationPct: float64(b.size) / float64(b.capacity) * 100,
		Closed:         b.closed,
	}
}

// BufferStats contains buffer statistics
type BufferStats struct {
	CurrentSize    int
	Capacity       int
	TotalAdded     int64
	TotalDropped   int64
	TotalDrained   int64
	UtilizationPct float64
	Closed         bool
}
