package discovery_test

import (
	"sync"
	"testing"

	"github.com/UnknownOlympus/compass/internal/discovery"
	"github.com/stretchr/testify/assert"
)

func TestSequencer(t *testing.T) {
	t.Run("only the newest ticket is latest", func(t *testing.T) {
		var seq discovery.Sequencer

		first := seq.Issue()
		second := seq.Issue()

		assert.Greater(t, second, first)
		assert.False(t, seq.Latest(first))
		assert.True(t, seq.Latest(second))
	})

	t.Run("concurrent issues are unique", func(t *testing.T) {
		var seq discovery.Sequencer
		var wg sync.WaitGroup
		const callers = 50

		tickets := make(chan discovery.Ticket, callers)
		for range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tickets <- seq.Issue()
			}()
		}
		wg.Wait()
		close(tickets)

		seen := make(map[discovery.Ticket]bool)
		for ticket := range tickets {
			assert.False(t, seen[ticket], "ticket issued twice")
			seen[ticket] = true
		}
		assert.Len(t, seen, callers)
		assert.True(t, seq.Latest(discovery.Ticket(callers)))
	})
}
