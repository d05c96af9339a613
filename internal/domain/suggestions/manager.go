// Package suggestions owns the lifecycle of automation suggestions:
// deduplication against the active set, staleness across analysis
// cycles, terminal dismiss/implement states, and snapshot files for
// offline inspection.
package suggestions

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/deskpilot/deskpilot/internal/infrastructure/logging"
	"github.com/deskpilot/deskpilot/internal/infrastructure/monitoring"
	"github.com/deskpilot/deskpilot/internal/infrastructure/scheduler"
	"github.com/deskpilot/deskpilot/internal/shared/types"
)

// Store persists suggestion state changes, typically backed by the
// relational activity store.
type Store interface {
	SaveSuggestion(s types.Suggestion) error
	SetSuggestionDismissed(id string) error
	SetSuggestionImplemented(id string) error
}

// Notifier receives the active set after every change, typically a
// websocket broadcast.
type Notifier func(active []types.Suggestion)

// Manager holds the active and settled suggestion sets. A suggestion's
// identity is its Key; the same detected pattern never appears twice,
// and a dismissed or implemented pattern never comes back.
type Manager struct {
	dir     string
	clock   scheduler.Clock
	logger  *logging.Logger
	store   Store
	metrics *monitoring.Metrics
	notify  Notifier

	mu      sync.Mutex
	active  map[string]types.Suggestion
	settled map[string]types.Suggestion
}

// NewManager creates a manager writing snapshots to dir.
func NewManager(dir string, clock scheduler.Clock, logger *logging.Logger) *Manager {
	return &Manager{
		dir:     dir,
		clock:   clock,
		logger:  logger,
		active:  make(map[string]types.Suggestion),
		settled: make(map[string]types.Suggestion),
	}
}

// WithStore adds a persistence sink for suggestion state changes.
func (m *Manager) WithStore(s Store) *Manager {
	m.store = s
	return m
}

// WithMetrics adds metrics tracking to the manager.
func (m *Manager) WithMetrics(mx *monitoring.Metrics) *Manager {
	m.metrics = mx
	return m
}

// SetNotifier installs the change broadcast hook.
func (m *Manager) SetNotifier(n Notifier) {
	m.mu.Lock()
	m.notify = n
	m.mu.Unlock()
}

// ReplaceCycle installs a full analysis result as the new active set.
// Suggestions absent from the batch went stale and are dropped.
// Settled patterns are filtered out. A pattern already active keeps
// its ID and creation time so clients can track it across cycles.
func (m *Manager) ReplaceCycle(batch []types.Suggestion) {
	m.mu.Lock()
	next := make(map[string]types.Suggestion, len(batch))
	for _, s := range batch {
		key := s.Key()
		if _, done := m.settled[key]; done {
			continue
		}
		if prev, ok := m.active[key]; ok {
			s.ID = prev.ID
			s.CreatedAt = prev.CreatedAt
		}
		next[key] = s
	}
	dropped := len(m.active) - overlap(m.active, next)
	m.active = next
	snapshot := m.activeLocked()
	m.mu.Unlock()

	if dropped > 0 {
		m.logger.Debug("Stale suggestions dropped", zap.Int("count", dropped))
	}
	m.afterChange(snapshot)
	m.writeSnapshot(snapshot)
}

// Merge adds suggestions between cycles. Patterns already active or
// settled are ignored.
func (m *Manager) Merge(batch []types.Suggestion) {
	m.mu.Lock()
	added := 0
	for _, s := range batch {
		key := s.Key()
		if _, done := m.settled[key]; done {
			continue
		}
		if _, ok := m.active[key]; ok {
			continue
		}
		m.active[key] = s
		added++
	}
	snapshot := m.activeLocked()
	m.mu.Unlock()

	if added == 0 {
		return
	}
	m.afterChange(snapshot)
}

// List returns the active suggestions ordered by confidence, highest
// first. With includeSettled, dismissed and implemented suggestions
// follow the active ones.
func (m *Manager) List(includeSettled bool) []types.Suggestion {
	m.mu.Lock()
	out := m.activeLocked()
	if includeSettled {
		for _, s := range m.settled {
			out = append(out, s)
		}
	}
	m.mu.Unlock()
	return out
}

// Get returns the suggestion with the given ID from either set.
func (m *Manager) Get(id string) (types.Suggestion, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.active {
		if s.ID == id {
			return s, true
		}
	}
	for _, s := range m.settled {
		if s.ID == id {
			return s, true
		}
	}
	return types.Suggestion{}, false
}

// Dismiss marks the suggestion as dismissed. Dismissal is terminal:
// the pattern leaves the active set and is never re-emitted. Returns
// false only when the ID is unknown; repeating a dismissal is a no-op
// success.
func (m *Manager) Dismiss(id string) bool {
	return m.settle(id, func(s *types.Suggestion) { s.Dismissed = true }, func(sid string) error {
		if m.store == nil {
			return nil
		}
		return m.store.SetSuggestionDismissed(sid)
	})
}

// Implement marks the suggestion as implemented. Terminal like
// Dismiss.
func (m *Manager) Implement(id string) bool {
	return m.settle(id, func(s *types.Suggestion) { s.Implemented = true }, func(sid string) error {
		if m.store == nil {
			return nil
		}
		return m.store.SetSuggestionImplemented(sid)
	})
}

func (m *Manager) settle(id string, mark func(*types.Suggestion), persist func(string) error) bool {
	m.mu.Lock()
	var (
		found    bool
		snapshot []types.Suggestion
	)
	for key, s := range m.active {
		if s.ID != id {
			continue
		}
		mark(&s)
		delete(m.active, key)
		m.settled[key] = s
		found = true
		break
	}
	if !found {
		// Settling an already-settled suggestion is idempotent.
		for _, s := range m.settled {
			if s.ID == id {
				m.mu.Unlock()
				return true
			}
		}
		m.mu.Unlock()
		return false
	}
	snapshot = m.activeLocked()
	m.mu.Unlock()

	if err := persist(id); err != nil {
		m.logger.Error("Failed to persist suggestion state", zap.String("id", id), zap.Error(err))
	}
	m.afterChange(snapshot)
	return true
}

// activeLocked returns the active set sorted by confidence descending,
// key ascending for ties. Caller holds mu.
func (m *Manager) activeLocked() []types.Suggestion {
	out := make([]types.Suggestion, 0, len(m.active))
	for _, s := range m.active {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Key() < out[j].Key()
	})
	return out
}

func (m *Manager) afterChange(active []types.Suggestion) {
	if m.metrics != nil {
		m.metrics.SuggestionsActive.Set(float64(len(active)))
	}
	if m.store != nil {
		for _, s := range active {
			if err := m.store.SaveSuggestion(s); err != nil {
				m.logger.Error("Failed to persist suggestion", zap.String("id", s.ID), zap.Error(err))
			}
		}
	}
	m.mu.Lock()
	notify := m.notify
	m.mu.Unlock()
	if notify != nil {
		notify(active)
	}
}

func overlap(a, b map[string]types.Suggestion) int {
	n := 0
	for key := range a {
		if _, ok := b[key]; ok {
			n++
		}
	}
	return n
}
