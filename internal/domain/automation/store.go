package automation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deskpilot/deskpilot/internal/infrastructure/logging"
	"github.com/deskpilot/deskpilot/internal/shared/types"
)

// Store keeps automations in memory and mirrors each one to a JSON
// document on disk. The in-memory copy is authoritative: a failed
// write leaves the automation usable until the next successful save.
type Store struct {
	dir    string
	logger *logging.Logger

	mu          sync.RWMutex
	automations map[string]*types.Automation
}

// NewStore creates the automation directory if needed and loads any
// existing automation documents. Malformed documents are skipped.
func NewStore(dir string, logger *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create automation dir: %w", err)
	}
	s := &Store{
		dir:         dir,
		logger:      logger,
		automations: make(map[string]*types.Automation),
	}
	s.loadExisting()
	return s, nil
}

func (s *Store) loadExisting() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Error("Failed to read automation dir", zap.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Error("Failed to read automation file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		var a types.Automation
		if err := json.Unmarshal(data, &a); err != nil {
			s.logger.Error("Skipping malformed automation file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		if a.Name == "" {
			a.Name = strings.TrimSuffix(entry.Name(), ".json")
		}
		s.automations[a.Name] = &a
	}
	s.logger.Info("Loaded automations", zap.Int("count", len(s.automations)))
}

// Get returns a copy of the named automation.
func (s *Store) Get(name string) (*types.Automation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.automations[name]
	if !ok {
		return nil, false
	}
	return copyAutomation(a), true
}

// List returns all automations, newest first.
func (s *Store) List() []*types.Automation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Automation, 0, len(s.automations))
	for _, a := range s.automations {
		out = append(out, copyAutomation(a))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Created.After(out[j].Created)
	})
	return out
}

// Save stores the automation in memory and writes its JSON document.
// The in-memory store is updated even when the write fails.
func (s *Store) Save(a *types.Automation) error {
	s.mu.Lock()
	s.automations[a.Name] = copyAutomation(a)
	s.mu.Unlock()
	return s.persist(a)
}

func (s *Store) persist(a *types.Automation) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal automation %q: %w", a.Name, err)
	}
	path := filepath.Join(s.dir, a.Name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write automation %q: %w", a.Name, err)
	}
	return nil
}

// Delete removes an automation from memory and disk. Returns false if
// the automation is unknown or its file was already gone.
func (s *Store) Delete(name string) bool {
	s.mu.Lock()
	_, known := s.automations[name]
	delete(s.automations, name)
	s.mu.Unlock()

	if !known {
		s.logger.Error("Automation not found", zap.String("name", name))
		return false
	}
	if err := os.Remove(filepath.Join(s.dir, name+".json")); err != nil {
		s.logger.Warn("Automation file missing on delete", zap.String("name", name), zap.Error(err))
		return false
	}
	s.logger.Info("Automation deleted", zap.String("name", name))
	return true
}

// Touch bumps the execution counter and timestamp after a successful
// replay. The write to disk is best-effort.
func (s *Store) Touch(name string, at time.Time) {
	s.mu.Lock()
	a, ok := s.automations[name]
	if !ok {
		s.mu.Unlock()
		return
	}
	a.ExecutionCount++
	t := at
	a.LastExecuted = &t
	snapshot := copyAutomation(a)
	s.mu.Unlock()

	if err := s.persist(snapshot); err != nil {
		s.logger.Error("Failed to persist execution update", zap.String("name", name), zap.Error(err))
	}
}

func copyAutomation(a *types.Automation) *types.Automation {
	c := *a
	c.Steps = slices.Clone(a.Steps)
	if a.LastExecuted != nil {
		t := *a.LastExecuted
		c.LastExecuted = &t
	}
	return &c
}
