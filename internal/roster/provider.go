package roster

import (
	"sync"
)

// Generation identifies one sync request. Results are applied only when
// they are newer than the last applied generation, so a slow response can
// never overwrite a fresher one.
type Generation uint64

// Provider holds the current roster snapshot. Readers get values; the core
// never writes through it.
type Provider struct {
	mu      sync.RWMutex
	current Snapshot
	issued  Generation
	applied Generation
}

func NewProvider(initial Snapshot) *Provider {
	return &Provider{current: initial}
}

func (p *Provider) Current() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Load replaces the snapshot unconditionally and supersedes any sync in flight.
func (p *Provider) Load(s Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issued++
	p.applied = p.issued
	p.current = s
}

// Begin issues the generation for a new sync request.
func (p *Provider) Begin() Generation {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issued++
	return p.issued
}

// Commit applies s if gen is newer than the last applied result and reports
// whether it did.
func (p *Provider) Commit(gen Generation, s Snapshot) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen <= p.applied {
		return false
	}
	p.applied = gen
	p.current = s
	return true
}
