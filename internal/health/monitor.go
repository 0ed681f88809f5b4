package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/retrypolicy/internal/infra/storage"
)

// Checker is implemented by dependencies that can report their own health.
type Checker interface {
	Health(ctx context.Context) error
}

// Monitor aggregates health status from the journal and its backends.
type Monitor struct {
	checkers map[string]Checker
	journal  storage.FailedOperationRepository
	// degradedAfter marks the system degraded once this many failures are journaled; 0 disables.
	degradedAfter int
	cacheFor      time.Duration

	mu         sync.Mutex
	lastCheck  time.Time
	lastReport *HealthReport
}

// NewMonitor creates a new health monitor.
func NewMonitor(journal storage.FailedOperationRepository, degradedAfter int) *Monitor {
	return &Monitor{
		checkers:      make(map[string]Checker),
		journal:       journal,
		degradedAfter: degradedAfter,
		cacheFor:      10 * time.Second,
	}
}

// SetJournal sets the repository whose size feeds the report.
func (m *Monitor) SetJournal(journal storage.FailedOperationRepository) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.journal = journal
	m.lastReport = nil
}

// AddChecker registers a dependency. A failing checker makes the system critical.
func (m *Monitor) AddChecker(name string, c Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers[name] = c
	m.lastReport = nil
}

// CheckHealth performs a health check, reusing a recent result.
func (m *Monitor) CheckHealth(ctx context.Context) HealthReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastReport != nil && time.Since(m.lastCheck) < m.cacheFor {
		return *m.lastReport
	}

	report := HealthReport{
		SystemStatus: StatusHealthy,
		Components:   make(map[string]ComponentHealth, len(m.checkers)),
	}

	for name, c := range m.checkers {
		ch := ComponentHealth{Name: name, Status: StatusHealthy}
		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := c.Health(checkCtx); err != nil {
			ch.Status = StatusCritical
			ch.Error = err.Error()
			report.SystemStatus = StatusCritical
		}
		cancel()
		report.Components[name] = ch
	}

	if m.journal != nil {
		count, err := m.journal.Count(ctx)
		if err != nil {
			report.Components["journal"] = ComponentHealth{Name: "journal", Status: StatusDegraded, Error: err.Error()}
			if report.SystemStatus == StatusHealthy {
				report.SystemStatus = StatusDegraded
			}
		}
		report.FailedOperations = count
		if m.degradedAfter > 0 && count >= m.degradedAfter && report.SystemStatus == StatusHealthy {
			report.SystemStatus = StatusDegraded
		}
	}

	m.lastCheck = time.Now()
	m.lastReport = &report
	return report
}
