// Package id provides centralized ID generation for the docking core.
//
// All runtime identities (windows, drag sessions, saved layouts) are
// prefixed ULIDs:
//   - Lexicographic sortability: window stacking and session logs sort by time
//   - Prefixed types: win_*, drag_*, lay_* make logs readable
//   - Type safety: separate types prevent ID misuse across subsystems
//
// Panel identity is different: a panel's persistent ID is chosen by the host
// application and must be stable across runs, so it is a plain string owned
// by the registry, never generated here.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RootID identifies a top-level dock container (main area or floating window)
type RootID string

// DragID identifies one drag session
type DragID string

// LayoutID identifies a saved layout snapshot
type LayoutID string

const (
	RootPrefix   = "win"
	DragPrefix   = "drag"
	LayoutPrefix = "lay"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewRootID generates a new root container ID
func NewRootID() RootID {
	return RootID(Default().GenerateWithPrefix(RootPrefix))
}

// NewDragID generates a new drag session ID
func NewDragID() DragID {
	return DragID(Default().GenerateWithPrefix(DragPrefix))
}

// NewLayoutID generates a new layout snapshot ID
func NewLayoutID() LayoutID {
	return LayoutID(Default().GenerateWithPrefix(LayoutPrefix))
}

func (id RootID) String() string   { return string(id) }
func (id DragID) String() string   { return string(id) }
func (id LayoutID) String() string { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Parse parses a ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// Timestamp extracts the timestamp from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
