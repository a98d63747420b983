package sequence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequencerLatestWins(t *testing.T) {
	var seq Sequencer
	first := seq.Next()
	second := seq.Next()

	assert.False(t, seq.Current(first))
	assert.True(t, seq.Current(second))
}

func TestSequencerConcurrentTicketsAreUnique(t *testing.T) {
	var seq Sequencer
	var wg sync.WaitGroup
	seen := make(chan Ticket, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- seq.Next()
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[Ticket]bool{}
	for ticket := range seen {
		unique[ticket] = true
	}
	assert.Len(t, unique, 100)
	assert.True(t, seq.Current(Ticket(100)))
}
