package patterns

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// state is the on-disk shape of the pattern statistics. Hour keys are
// strings because JSON object keys always are; they parse back to ints
// on load and malformed keys are skipped.
type state struct {
	WindowSequences map[string][]string       `json:"window_sequences"`
	ClickPatterns   map[string]int            `json:"click_patterns"`
	AppUsage        map[string]map[string]int `json:"app_usage_patterns"`
	TimePatterns    map[string]map[string]int `json:"time_patterns"`
}

// clickKey flattens a window and grid cell into the persisted
// "window|x|y" form.
func clickKey(window string, c Cell) string {
	return fmt.Sprintf("%s|%d|%d", window, c.X, c.Y)
}

// parseClickKey splits a persisted click key back into its window and
// cell. Window titles may themselves contain separators, so the cell
// coordinates are taken from the right.
func parseClickKey(key string) (window string, c Cell, ok bool) {
	i := strings.LastIndex(key, "|")
	if i < 0 {
		return "", Cell{}, false
	}
	y, err := strconv.Atoi(key[i+1:])
	if err != nil {
		return "", Cell{}, false
	}
	rest := key[:i]
	j := strings.LastIndex(rest, "|")
	if j < 0 {
		return "", Cell{}, false
	}
	x, err := strconv.Atoi(rest[j+1:])
	if err != nil {
		return "", Cell{}, false
	}
	return rest[:j], Cell{X: x, Y: y}, true
}

func encodeHours(hours map[int]int) map[string]int {
	out := make(map[string]int, len(hours))
	for hour, count := range hours {
		out[strconv.Itoa(hour)] = count
	}
	return out
}

func decodeHours(hours map[string]int) map[int]int {
	out := make(map[int]int, len(hours))
	for key, count := range hours {
		hour, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		out[hour] = count
	}
	return out
}

// saveState writes the pattern statistics to path as indented JSON.
func saveState(path string, transitions *TransitionStats, clicks *ClickGrid, appHours *AppHourStats, dayHours *DayHourStats) error {
	s := state{
		WindowSequences: make(map[string][]string, len(transitions.sequences)),
		ClickPatterns:   make(map[string]int),
		AppUsage:        make(map[string]map[string]int, len(appHours.usage)),
		TimePatterns:    make(map[string]map[string]int, len(dayHours.usage)),
	}
	for source, dests := range transitions.sequences {
		s.WindowSequences[source] = dests
	}
	for window, cells := range clicks.cells {
		for cell, count := range cells {
			s.ClickPatterns[clickKey(window, cell)] = count
		}
	}
	for app, hours := range appHours.usage {
		s.AppUsage[app] = encodeHours(hours)
	}
	for day, hours := range dayHours.usage {
		s.TimePatterns[day] = encodeHours(hours)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal pattern state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write pattern state: %w", err)
	}
	return nil
}

// loadState reads path and merges its contents into the given
// statistics. A missing file is not an error.
func loadState(path string, transitions *TransitionStats, clicks *ClickGrid, appHours *AppHourStats, dayHours *DayHourStats) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read pattern state: %w", err)
	}
	var s state
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to parse pattern state: %w", err)
	}

	for source, dests := range s.WindowSequences {
		for _, dest := range dests {
			transitions.Record(source, dest)
		}
	}
	for key, count := range s.ClickPatterns {
		window, cell, ok := parseClickKey(key)
		if !ok {
			continue
		}
		m := clicks.cells[window]
		if m == nil {
			m = make(map[Cell]int)
			clicks.cells[window] = m
		}
		m[cell] += count
	}
	for app, hours := range s.AppUsage {
		for hour, count := range decodeHours(hours) {
			m := appHours.usage[app]
			if m == nil {
				m = make(map[int]int)
				appHours.usage[app] = m
			}
			m[hour] += count
		}
	}
	for day, hours := range s.TimePatterns {
		for hour, count := range decodeHours(hours) {
			m := dayHours.usage[day]
			if m == nil {
				m = make(map[int]int)
				dayHours.usage[day] = m
			}
			m[hour] += count
		}
	}
	return nil
}
