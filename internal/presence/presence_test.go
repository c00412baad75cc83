package presence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_TrackAndForget(t *testing.T) {
	r := NewRegistry()

	r.Track("c1", "alpha")
	r.Track("c2", "alpha")
	r.Track("c3", "bravo")
	require.Equal(t, 3, r.Count())

	team, ok := r.TeamFor("c1")
	require.True(t, ok)
	require.Equal(t, "alpha", team)

	r.Forget("c1")
	_, ok = r.TeamFor("c1")
	require.False(t, ok)
	require.Equal(t, 2, r.Count())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("c%d", n)
			r.Track(id, "alpha")
			r.TeamFor(id)
			if n%2 == 0 {
				r.Forget(id)
			}
		}(i)
	}
	wg.Wait()
	require.Equal(t, 25, r.Count())
}
