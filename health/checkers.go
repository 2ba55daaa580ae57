package health

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/glimte/rendezvous-go/messaging"
)

// StatsSource provides channel snapshots; *messaging.Registry satisfies it
type StatsSource interface {
	Stats() []messaging.ChannelStats
}

// RegistryChecker reports on the channels of a rendezvous registry.
// Senders piling up on a channel mean nobody is listening for that type.
type RegistryChecker struct {
	name              string
	source            StatsSource
	warningThreshold  int
	criticalThreshold int
}

// NewRegistryChecker creates a checker that is degraded when any channel has more than
// warningThreshold waiting senders and unhealthy above criticalThreshold.
// A criticalThreshold of zero or less disables the unhealthy level.
func NewRegistryChecker(name string, source StatsSource, warningThreshold, criticalThreshold int) *RegistryChecker {
	return &RegistryChecker{
		name:              name,
		source:            source,
		warningThreshold:  warningThreshold,
		criticalThreshold: criticalThreshold,
	}
}

func (c *RegistryChecker) Name() string {
	return c.name
}

func (c *RegistryChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      c.Name(),
		Timestamp: start,
		Details:   make(map[string]interface{}),
	}

	stats := c.source.Stats()
	result.Details["channels"] = len(stats)

	if len(stats) == 0 {
		result.Status = StatusDegraded
		result.Message = "No channels registered"
		result.Duration = time.Since(start)
		return result
	}

	armed := 0
	maxWaiting := 0
	busiest := ""
	for _, s := range stats {
		if s.State == messaging.StateArmed {
			armed++
		}
		if s.WaitingSenders > maxWaiting {
			maxWaiting = s.WaitingSenders
			busiest = s.Name
		}
		result.Details[s.Name] = map[string]interface{}{
			"state":           string(s.State),
			"waiting_senders": s.WaitingSenders,
		}
	}
	result.Details["armed"] = armed
	result.Details["max_waiting_senders"] = maxWaiting

	switch {
	case c.criticalThreshold > 0 && maxWaiting > c.criticalThreshold:
		result.Status = StatusUnhealthy
		result.Message = fmt.Sprintf("Channel %s has %d waiting senders", busiest, maxWaiting)
	case maxWaiting > c.warningThreshold:
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("Channel %s has %d waiting senders", busiest, maxWaiting)
	default:
		result.Status = StatusHealthy
		result.Message = fmt.Sprintf("%d channels, %d armed", len(stats), armed)
	}

	result.Duration = time.Since(start)
	return result
}

// RuntimeChecker checks goroutine count; blocked senders and listeners each hold one
type RuntimeChecker struct {
	warningThreshold  int
	criticalThreshold int
}

// NewRuntimeChecker creates a new runtime checker
func NewRuntimeChecker(warningThreshold, criticalThreshold int) *RuntimeChecker {
	return &RuntimeChecker{
		warningThreshold:  warningThreshold,
		criticalThreshold: criticalThreshold,
	}
}

func (c *RuntimeChecker) Name() string {
	return "runtime"
}

func (c *RuntimeChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      c.Name(),
		Timestamp: start,
		Details:   make(map[string]interface{}),
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	goroutines := runtime.NumGoroutine()
	result.Details["goroutines"] = goroutines
	result.Details["heap_alloc_mb"] = float64(m.HeapAlloc) / 1024 / 1024
	result.Details["gc_runs"] = m.NumGC

	if goroutines > c.criticalThreshold {
		result.Status = StatusUnhealthy
		result.Message = fmt.Sprintf("Too many goroutines: %d", goroutines)
	} else if goroutines > c.warningThreshold {
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("High goroutine count: %d", goroutines)
	} else {
		result.Status = StatusHealthy
		result.Message = "Runtime is normal"
	}

	result.Duration = time.Since(start)
	return result
}

// ComponentChecker allows checking custom components
type ComponentChecker struct {
	name    string
	checker func(ctx context.Context) (Status, string, map[string]interface{}, error)
}

// NewComponentChecker creates a checker for custom components
func NewComponentChecker(name string, checker func(ctx context.Context) (Status, string, map[string]interface{}, error)) *ComponentChecker {
	return &ComponentChecker{
		name:    name,
		checker: checker,
	}
}

func (c *ComponentChecker) Name() string {
	return c.name
}

func (c *ComponentChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	result := CheckResult{
		Name:      c.Name(),
		Timestamp: start,
		Details:   make(map[string]interface{}),
	}

	status, message, details, err := c.checker(ctx)

	result.Status = status
	result.Message = message
	if details != nil {
		result.Details = details
	}
	if err != nil {
		result.Error = err.Error()
		if status == "" {
			result.Status = StatusUnhealthy
		}
	}
	result.Duration = time.Since(start)

	return result
}
