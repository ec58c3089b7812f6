package testfixtures

import (
	"fmt"
	"sync"
)

// IDGenerator produces deterministic identifiers for tests. Identifiers share
// one counter across kinds so the creation order stays visible in IDs.
type IDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
	issued  []string
}

// NewIDGenerator constructs a generator that yields identifiers with the given
// prefix. When prefix is empty, "id" is used.
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() string {
	return g.next(g.prefix)
}

// NextFunc exposes Next as a function suitable for dependency injection.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// KindFunc returns a generator of identifiers prefixed with kind, such as
// "absence-4", drawing from the shared counter.
func (g *IDGenerator) KindFunc(kind string) func() string {
	return func() string { return g.next(kind) }
}

// Issued returns every identifier handed out so far, in order.
func (g *IDGenerator) Issued() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.issued...)
}

// Reset clears the counter and the issued history.
func (g *IDGenerator) Reset() {
	g.mu.Lock()
	g.counter = 0
	g.issued = nil
	g.mu.Unlock()
}

func (g *IDGenerator) next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	id := fmt.Sprintf("%s-%d", prefix, g.counter)
	g.issued = append(g.issued, id)
	return id
}
