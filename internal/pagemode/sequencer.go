package pagemode

import (
	"sync"
	"sync/atomic"
)

// Sequencer closes the stale-response race on rapidly refreshed views: each
// fetch takes a monotonically increasing token, and a result is applied only
// while its token is still the latest one issued. A late response from a
// superseded request is simply dropped instead of overwriting newer state.
type Sequencer struct {
	last atomic.Uint64
}

// Next issues a new token, superseding all previously issued tokens.
func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Latest reports whether token is the most recently issued one.
func (s *Sequencer) Latest(token uint64) bool {
	return s.last.Load() == token
}

// SequencerGroup tracks one Sequencer per key. The board list handler keys
// by session so one user's rapid page clicks cannot clobber each other while
// unrelated users stay independent.
type SequencerGroup struct {
	mu   sync.Mutex
	seqs map[string]*Sequencer
}

// NewSequencerGroup creates an empty group.
func NewSequencerGroup() *SequencerGroup {
	return &SequencerGroup{seqs: make(map[string]*Sequencer)}
}

// Next issues a token for the given key.
func (g *SequencerGroup) Next(key string) uint64 {
	return g.get(key).Next()
}

// Latest reports whether token is still current for the given key.
func (g *SequencerGroup) Latest(key string, token uint64) bool {
	return g.get(key).Latest(token)
}

func (g *SequencerGroup) get(key string) *Sequencer {
	g.mu.Lock()
	defer g.mu.Unlock()

	seq, ok := g.seqs[key]
	if !ok {
		seq = &Sequencer{}
		g.seqs[key] = seq
	}
	return seq
}
