// Package uid generates unique keys for objects, listeners and elements.
//
// Keys have the form "chartkit-<hash>-<n>". The hash is random per process and
// keeps keys from separate processes apart. Serial mode drops the hash so that
// output is reproducible in tests and snapshot comparisons.
package uid

import (
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Prefix starts every generated key.
const Prefix = "chartkit-"

// Generator hands out unique keys. The zero value is not usable; use New.
type Generator struct {
	mu     sync.Mutex
	hash   string
	next   uint64
	serial bool
}

// New creates a generator with a fresh random hash.
func New() *Generator {
	return &Generator{hash: newHash()}
}

// newHash returns 7 characters of a random uuid followed by a dash.
func newHash() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:7] + "-"
}

// Key returns the next unique key.
func (g *Generator) Key() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.next
	g.next++

	var b strings.Builder
	b.WriteString(Prefix)
	if !g.serial {
		b.WriteString(g.hash)
	}
	b.WriteString(strconv.FormatUint(id, 10))
	return b.String()
}

// UseSerialIDs switches serial mode on or off and returns the new state.
func (g *Generator) UseSerialIDs(on bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.serial = on
	return g.serial
}

// Serial reports whether serial mode is active.
func (g *Generator) Serial() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.serial
}

// Reset sets the counter to seed. Only meant for tests.
func (g *Generator) Reset(seed uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next = seed
}

var std = New()

// Key returns the next key from the process-wide generator.
func Key() string { return std.Key() }

// UseSerialIDs toggles serial mode on the process-wide generator.
func UseSerialIDs(on bool) bool { return std.UseSerialIDs(on) }

// Reset seeds the process-wide counter.
func Reset(seed uint64) { std.Reset(seed) }
