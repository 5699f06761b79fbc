package loader

import (
	"context"
	"sync"
	"time"

	"creditflow/internal/metrics"
	"creditflow/internal/model"
	"creditflow/logger"
)

// Manager ties the loader and the store together: it runs the initial load,
// serves on-demand reloads and optionally refreshes on an interval.
type Manager struct {
	loader   *Loader
	store    *Store
	interval time.Duration
	log      *logger.Log

	mu      sync.Mutex
	lastErr error
}

func NewManager(l *Loader, store *Store, refreshInterval time.Duration) *Manager {
	return &Manager{
		loader:   l,
		store:    store,
		interval: refreshInterval,
		log:      logger.GetLogger(),
	}
}

// Reload builds a fresh snapshot and publishes it unless a concurrent reload
// that started later already published. The returned snapshot is the build's
// own result even when it lost the publish race.
func (m *Manager) Reload(ctx context.Context) (*model.Snapshot, error) {
	gen := m.store.Begin()

	snap, err := m.loader.BuildSnapshot(ctx)
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
	if err != nil {
		// BuildSnapshot already counted the critical outcome.
		return nil, err
	}

	if !m.store.Commit(gen, snap) {
		m.log.WithComponent("manager").WithFields(logger.Fields{
			"snapshot_id": snap.ID,
			"generation":  gen,
		}).Warn("stale snapshot dropped, newer build already published")
		metrics.RecordBuild("stale")
		return snap, nil
	}

	metrics.RecordBuild("ready")
	m.emitCycleMetrics(snap)
	return snap, nil
}

// emitCycleMetrics publishes per-resource row counts and the publish event
// through the logger's metric path, which forwards to CloudWatch when
// configured.
func (m *Manager) emitCycleMetrics(snap *model.Snapshot) {
	degraded := 0
	for _, res := range snap.Results {
		m.log.LogMetric("manager", "resource_rows", res.Rows, "gauge", logger.Fields{"resource": res.Resource})
		if res.Degraded {
			degraded++
		}
	}
	m.log.LogMetric("manager", "degraded_resources", degraded, "gauge", logger.Fields{})
	m.log.LogMetric("manager", "snapshots_published", 1, "counter", logger.Fields{})
}

// Current exposes the store's latest snapshot.
func (m *Manager) Current() *model.Snapshot {
	return m.store.Current()
}

// LastError reports the outcome of the most recent build attempt; nil when it
// succeeded.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Run performs the initial load and then refreshes on the configured interval
// until the context is cancelled. A zero interval disables refreshing after
// the initial load.
func (m *Manager) Run(ctx context.Context) error {
	if _, err := m.Reload(ctx); err != nil {
		return err
	}

	if m.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := m.Reload(ctx); err != nil {
				m.log.WithComponent("manager").WithError(err).Error("scheduled refresh failed")
			}
		}
	}
}
