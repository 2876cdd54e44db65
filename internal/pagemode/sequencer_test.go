package pagemode

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequencer_StaleTokenIsRejected(t *testing.T) {
	var seq Sequencer

	first := seq.Next()
	assert.True(t, seq.Latest(first))

	// A newer request supersedes the first; its late result must not apply.
	second := seq.Next()
	assert.False(t, seq.Latest(first))
	assert.True(t, seq.Latest(second))
}

func TestSequencer_Concurrent(t *testing.T) {
	var seq Sequencer
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq.Next()
		}()
	}
	wg.Wait()

	// Exactly one token is current after the dust settles.
	last := seq.Next()
	assert.True(t, seq.Latest(last))
	assert.False(t, seq.Latest(last-1))
}

func TestSequencerGroup_KeysAreIndependent(t *testing.T) {
	group := NewSequencerGroup()

	a1 := group.Next("session-a")
	b1 := group.Next("session-b")

	// Advancing one key leaves the other key's token current.
	a2 := group.Next("session-a")

	assert.False(t, group.Latest("session-a", a1))
	assert.True(t, group.Latest("session-a", a2))
	assert.True(t, group.Latest("session-b", b1))
}
