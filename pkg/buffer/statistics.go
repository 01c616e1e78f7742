package buffer

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks buffer activity. It is always collected, safe for
// concurrent use, and readable while the buffer is in use.
type Statistics struct {
	// Atomic counters for thread-safe updates
	adds          int64
	removes       int64
	peeks         int64
	overflows     int64
	underflows    int64
	evictions     int64
	waits         int64
	timeouts      int64
	cancellations int64

	// Protected by mutex
	mu          sync.RWMutex
	startTime   time.Time
	currentSize int64
	highWater   int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		startTime: time.Now(),
	}
}

// Added records n elements added.
func (s *Statistics) Added(n int) {
	atomic.AddInt64(&s.adds, int64(n))
}

// Removed records n elements removed.
func (s *Statistics) Removed(n int) {
	atomic.AddInt64(&s.removes, int64(n))
}

// Peeked records a Get.
func (s *Statistics) Peeked() {
	atomic.AddInt64(&s.peeks, 1)
}

// Overflowed records a rejected add.
func (s *Statistics) Overflowed() {
	atomic.AddInt64(&s.overflows, 1)
}

// Underflowed records a failed Get or Remove.
func (s *Statistics) Underflowed() {
	atomic.AddInt64(&s.underflows, 1)
}

// Evicted records an element discarded by an overwriting store.
func (s *Statistics) Evicted() {
	atomic.AddInt64(&s.evictions, 1)
}

// WaitStarted records a caller entering a wait.
func (s *Statistics) WaitStarted() {
	atomic.AddInt64(&s.waits, 1)
}

// TimedOut records a wait that reached its deadline.
func (s *Statistics) TimedOut() {
	atomic.AddInt64(&s.timeouts, 1)
}

// Cancelled records a wait ended by its context.
func (s *Statistics) Cancelled() {
	atomic.AddInt64(&s.cancellations, 1)
}

// UpdateSize updates the current buffer size.
func (s *Statistics) UpdateSize(size int64) {
	s.mu.Lock()
	s.currentSize = size
	if size > s.highWater {
		s.highWater = size
	}
	s.mu.Unlock()
}

// Adds returns the total number of elements added.
func (s *Statistics) Adds() int64 {
	return atomic.LoadInt64(&s.adds)
}

// Removes returns the total number of elements removed.
func (s *Statistics) Removes() int64 {
	return atomic.LoadInt64(&s.removes)
}

// Peeks returns the total number of Get calls that returned an element.
func (s *Statistics) Peeks() int64 {
	return atomic.LoadInt64(&s.peeks)
}

// Overflows returns the total number of rejected adds.
func (s *Statistics) Overflows() int64 {
	return atomic.LoadInt64(&s.overflows)
}

// Underflows returns the total number of failed takes.
func (s *Statistics) Underflows() int64 {
	return atomic.LoadInt64(&s.underflows)
}

// Evictions returns the total number of evicted elements.
func (s *Statistics) Evictions() int64 {
	return atomic.LoadInt64(&s.evictions)
}

// Waits returns the total number of waits entered.
func (s *Statistics) Waits() int64 {
	return atomic.LoadInt64(&s.waits)
}

// Timeouts returns the number of waits that timed out.
func (s *Statistics) Timeouts() int64 {
	return atomic.LoadInt64(&s.timeouts)
}

// Cancellations returns the number of waits ended by cancellation.
func (s *Statistics) Cancellations() int64 {
	return atomic.LoadInt64(&s.cancellations)
}

// CurrentSize returns the current number of items in the buffer.
func (s *Statistics) CurrentSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentSize
}

// HighWater returns the largest size the buffer has reached.
func (s *Statistics) HighWater() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.highWater
}

// Throughput returns the average number of adds per second.
func (s *Statistics) Throughput() float64 {
	elapsed := s.Uptime()
	if elapsed == 0 {
		return 0.0
	}
	return float64(s.Adds()) / elapsed.Seconds()
}

// RemoveThroughput returns the average number of removes per second.
func (s *Statistics) RemoveThroughput() float64 {
	elapsed := s.Uptime()
	if elapsed == 0 {
		return 0.0
	}
	return float64(s.Removes()) / elapsed.Seconds()
}

// OverflowRate returns the fraction of add attempts rejected (0.0 to 1.0).
func (s *Statistics) OverflowRate() float64 {
	overflows := s.Overflows()
	attempts := s.Adds() + overflows
	if attempts == 0 {
		return 0.0
	}
	return float64(overflows) / float64(attempts)
}

// UnderflowRate returns the fraction of take attempts that failed (0.0 to 1.0).
func (s *Statistics) UnderflowRate() float64 {
	underflows := s.Underflows()
	attempts := s.Removes() + s.Peeks() + underflows
	if attempts == 0 {
		return 0.0
	}
	return float64(underflows) / float64(attempts)
}

// EvictionRate returns the fraction of added elements later evicted (0.0 to 1.0).
func (s *Statistics) EvictionRate() float64 {
	adds := s.Adds()
	if adds == 0 {
		return 0.0
	}
	return float64(s.Evictions()) / float64(adds)
}

// Utilization returns the current buffer utilization as a fraction of capacity.
func (s *Statistics) Utilization(capacity int64) float64 {
	if capacity <= 0 {
		return 0.0
	}
	return float64(s.CurrentSize()) / float64(capacity)
}

// Uptime returns how long the buffer has been running.
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}

// Reset resets all statistics to zero.
func (s *Statistics) Reset() {
	atomic.StoreInt64(&s.adds, 0)
	atomic.StoreInt64(&s.removes, 0)
	atomic.StoreInt64(&s.peeks, 0)
	atomic.StoreInt64(&s.overflows, 0)
	atomic.StoreInt64(&s.underflows, 0)
	atomic.StoreInt64(&s.evictions, 0)
	atomic.StoreInt64(&s.waits, 0)
	atomic.StoreInt64(&s.timeouts, 0)
	atomic.StoreInt64(&s.cancellations, 0)

	s.mu.Lock()
	s.startTime = time.Now()
	s.currentSize = 0
	s.highWater = 0
	s.mu.Unlock()
}

// StatsSummary is a point-in-time snapshot of Statistics.
type StatsSummary struct {
	Adds             int64         `json:"adds"`
	Removes          int64         `json:"removes"`
	Peeks            int64         `json:"peeks"`
	Overflows        int64         `json:"overflows"`
	Underflows       int64         `json:"underflows"`
	Evictions        int64         `json:"evictions"`
	Waits            int64         `json:"waits"`
	Timeouts         int64         `json:"timeouts"`
	Cancellations    int64         `json:"cancellations"`
	CurrentSize      int64         `json:"current_size"`
	HighWater        int64         `json:"high_water"`
	Throughput       float64       `json:"throughput"`
	RemoveThroughput float64       `json:"remove_throughput"`
	OverflowRate     float64       `json:"overflow_rate"`
	UnderflowRate    float64       `json:"underflow_rate"`
	EvictionRate     float64       `json:"eviction_rate"`
	Uptime           time.Duration `json:"uptime"`
}

// Summary returns a snapshot of all statistics.
func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Adds:             s.Adds(),
		Removes:          s.Removes(),
		Peeks:            s.Peeks(),
		Overflows:        s.Overflows(),
		Underflows:       s.Underflows(),
		Evictions:        s.Evictions(),
		Waits:            s.Waits(),
		Timeouts:         s.Timeouts(),
		Cancellations:    s.Cancellations(),
		CurrentSize:      s.CurrentSize(),
		HighWater:        s.HighWater(),
		Throughput:       s.Throughput(),
		RemoveThroughput: s.RemoveThroughput(),
		OverflowRate:     s.OverflowRate(),
		UnderflowRate:    s.UnderflowRate(),
		EvictionRate:     s.EvictionRate(),
		Uptime:           s.Uptime(),
	}
}
