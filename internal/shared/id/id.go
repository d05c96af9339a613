// Package id provides ULID generation for the tracker's records.
// ULIDs sort lexicographically by creation time, so suggestion IDs
// line up with the order they were mined without a separate timestamp
// sort.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SuggestionID identifies an automation suggestion.
type SuggestionID string

func (s SuggestionID) String() string { return string(s) }

const suggestionPrefix = "sugg"

// Generator generates ULIDs with optional prefixes.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator. Entropy is monotonic
// within a millisecond so IDs generated back to back still sort in
// creation order.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator(ulid.Monotonic(rand.Reader, 0))
	})
	return defaultGenerator
}

// NewGenerator creates a generator with the given entropy source.
// Tests can pass a deterministic reader.
func NewGenerator(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewSuggestionID generates a new suggestion ID.
func NewSuggestionID() SuggestionID {
	return SuggestionID(Default().GenerateWithPrefix(suggestionPrefix))
}
