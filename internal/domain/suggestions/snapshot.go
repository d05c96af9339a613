package suggestions

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/deskpilot/deskpilot/internal/shared/types"
)

const snapshotPrefix = "suggestions_"

// snapshotDocument is the shape of one suggestions_<ts>.json file.
type snapshotDocument struct {
	Timestamp   string             `json:"timestamp"`
	Suggestions []types.Suggestion `json:"suggestions"`
}

// writeSnapshot appends a timestamped snapshot file for the current
// active set. Empty sets are not snapshotted. Snapshots are write-only
// history; failures are logged, never propagated.
func (m *Manager) writeSnapshot(active []types.Suggestion) {
	if len(active) == 0 {
		return
	}
	ts := m.clock.Now().Format("20060102_150405")
	doc := snapshotDocument{Timestamp: ts, Suggestions: active}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		m.logger.Error("Failed to marshal suggestion snapshot", zap.Error(err))
		return
	}
	path := filepath.Join(m.dir, snapshotPrefix+ts+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		m.logger.Error("Failed to write suggestion snapshot", zap.Error(err))
		return
	}
	m.logger.Debug("Suggestion snapshot written",
		zap.String("file", filepath.Base(path)),
		zap.Int("suggestions", len(active)),
	)
}

// ArchiveOld gzip-compresses snapshot files older than maxAge and
// removes the originals. Returns the number of files archived.
func (m *Manager) ArchiveOld(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read suggestion dir: %w", err)
	}
	cutoff := m.clock.Now().Add(-maxAge)

	archived := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		ts, err := time.ParseInLocation("20060102_150405",
			strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), ".json"), time.Local)
		if err != nil {
			continue
		}
		if !ts.Before(cutoff) {
			continue
		}
		path := filepath.Join(m.dir, name)
		if err := compressFile(path); err != nil {
			m.logger.Error("Failed to archive snapshot", zap.String("file", name), zap.Error(err))
			continue
		}
		if err := os.Remove(path); err != nil {
			m.logger.Error("Failed to remove archived snapshot", zap.String("file", name), zap.Error(err))
			continue
		}
		archived++
	}
	if archived > 0 {
		m.logger.Info("Archived suggestion snapshots", zap.Int("count", archived))
	}
	return archived, nil
}

func compressFile(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		out.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
