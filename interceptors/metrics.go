package interceptors

import (
	"sort"
	"sync"
	"time"
)

// DeliveryStats is a point-in-time snapshot for one message type
type DeliveryStats struct {
	MessageType   string
	Attempts      int64
	Delivered     int64
	Failed        int64
	TotalDuration time.Duration
	MaxDuration   time.Duration
	ErrorsByType  map[string]int64
}

// AverageDuration returns the mean wait of completed handoffs
func (s DeliveryStats) AverageDuration() time.Duration {
	if s.Delivered == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.Delivered)
}

// InMemoryMetricsCollector keeps per-type delivery counters in memory
type InMemoryMetricsCollector struct {
	stats map[string]*DeliveryStats
	mu    sync.Mutex
}

// NewInMemoryMetricsCollector creates a new in-memory collector
func NewInMemoryMetricsCollector() *InMemoryMetricsCollector {
	return &InMemoryMetricsCollector{
		stats: make(map[string]*DeliveryStats),
	}
}

func (c *InMemoryMetricsCollector) entry(messageType string) *DeliveryStats {
	s, ok := c.stats[messageType]
	if !ok {
		s = &DeliveryStats{MessageType: messageType, ErrorsByType: make(map[string]int64)}
		c.stats[messageType] = s
	}
	return s
}

// IncrementAttemptCount implements MetricsCollector
func (c *InMemoryMetricsCollector) IncrementAttemptCount(messageType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry(messageType).Attempts++
}

// IncrementMessageCount implements MetricsCollector
func (c *InMemoryMetricsCollector) IncrementMessageCount(messageType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry(messageType).Delivered++
}

// RecordDeliveryTime implements MetricsCollector
func (c *InMemoryMetricsCollector) RecordDeliveryTime(messageType string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.entry(messageType)
	s.TotalDuration += duration
	if duration > s.MaxDuration {
		s.MaxDuration = duration
	}
}

// IncrementErrorCount implements MetricsCollector
func (c *InMemoryMetricsCollector) IncrementErrorCount(messageType string, errorType string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.entry(messageType)
	s.Failed++
	s.ErrorsByType[errorType]++
}

// GetStats returns a copy of the collected stats, sorted by message type
func (c *InMemoryMetricsCollector) GetStats() []DeliveryStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]DeliveryStats, 0, len(c.stats))
	for _, s := range c.stats {
		cp := *s
		cp.ErrorsByType = make(map[string]int64, len(s.ErrorsByType))
		for k, v := range s.ErrorsByType {
			cp.ErrorsByType[k] = v
		}
		out = append(out, cp)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].MessageType < out[j].MessageType })
	return out
}
