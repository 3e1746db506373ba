package service

import (
	"sync"
	"time"

	"payment-failure-monitor/internal/core/domain"

	"github.com/rs/zerolog"
)

const (
	// LogBufferCapacity bounds the diagnostic buffer; older entries are evicted.
	LogBufferCapacity = 100
	// RecentLogLimit is how many entries GET /logs returns.
	RecentLogLimit = 50
)

// LogBuffer is a bounded, append-only, in-memory record of pipeline events.
// It is safe for concurrent use and doubles as a zerolog.Hook so the
// activity logger feeds it directly.
type LogBuffer struct {
	mu       sync.Mutex
	entries  []domain.LogEntry // ring storage, len == capacity once full
	start    int               // index of the oldest entry
	size     int
	lifetime int64
	capacity int
	now      func() time.Time
}

// NewLogBuffer creates an empty buffer holding at most LogBufferCapacity entries.
func NewLogBuffer() *LogBuffer {
	return newLogBuffer(LogBufferCapacity, time.Now)
}

func newLogBuffer(capacity int, now func() time.Time) *LogBuffer {
	return &LogBuffer{
		entries:  make([]domain.LogEntry, capacity),
		capacity: capacity,
		now:      now,
	}
}

// Append adds an entry, evicting the oldest one when the buffer is full.
func (b *LogBuffer) Append(message string, level domain.LogLevel) {
	if level == "" {
		level = domain.LogLevelInfo
	}
	entry := domain.LogEntry{
		Timestamp: b.now().UTC().Format(domain.ISOTimestamp),
		Level:     level,
		Message:   message,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	idx := (b.start + b.size) % b.capacity
	b.entries[idx] = entry
	if b.size < b.capacity {
		b.size++
	} else {
		b.start = (b.start + 1) % b.capacity
	}
	b.lifetime++
}

// Recent returns up to n of the newest entries, oldest first.
func (b *LogBuffer) Recent(n int) []domain.LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n > b.size {
		n = b.size
	}
	if n <= 0 {
		return []domain.LogEntry{}
	}

	out := make([]domain.LogEntry, n)
	offset := b.size - n
	for i := 0; i < n; i++ {
		out[i] = b.entries[(b.start+offset+i)%b.capacity]
	}
	return out
}

// Size returns the current occupancy, never more than the capacity.
func (b *LogBuffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Lifetime returns how many entries were ever appended, evicted ones included.
func (b *LogBuffer) Lifetime() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lifetime
}

// Run implements zerolog.Hook. Debug and trace events are not buffered;
// warnings and worse are buffered as errors.
func (b *LogBuffer) Run(_ *zerolog.Event, level zerolog.Level, message string) {
	switch {
	case level == zerolog.NoLevel, level == zerolog.InfoLevel:
		b.Append(message, domain.LogLevelInfo)
	case level >= zerolog.WarnLevel:
		b.Append(message, domain.LogLevelError)
	}
}
