// Package ident issues timestamp-shaped identifiers such as
// "doc_20250102150405". A Generator never hands out the same value twice:
// when two calls land in the same wall-clock second the later one is pushed
// forward to the next free second, so ids stay strictly increasing while
// keeping the human-readable <prefix><YYYYMMDDHHMMSS> shape.
package ident

import (
	"sync"
	"time"
)

// Layout is the whole-second timestamp layout embedded in every id.
const Layout = "20060102150405"

// Clock returns the current time. Tests inject a fixed or stepping clock.
type Clock func() time.Time

// Generator produces monotonically increasing ids with a fixed prefix.
// It is safe for concurrent use.
type Generator struct {
	// prefix is prepended to every id (e.g. "doc_").
	prefix string
	// clock supplies the wall-clock time.
	clock Clock

	// mu guards last.
	mu sync.Mutex
	// last is the timestamp of the most recently issued id, zero before the first call.
	last time.Time
}

// NewGenerator constructs a Generator. A nil clock means [time.Now].
func NewGenerator(prefix string, clock Clock) *Generator {
	if clock == nil {
		clock = time.Now
	}
	return &Generator{prefix: prefix, clock: clock}
}

// Next returns the next id. The embedded timestamp is UTC, truncated to the
// second, and at least one second after the previous id from this generator.
func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock().UTC().Truncate(time.Second)
	if !g.last.IsZero() && !now.After(g.last) {
		now = g.last.Add(time.Second)
	}
	g.last = now
	return g.prefix + now.Format(Layout)
}

// Prefix returns the generator's id prefix.
func (g *Generator) Prefix() string { return g.prefix }
