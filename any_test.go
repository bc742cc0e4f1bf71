package coroflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// S4 — Any: the first source to report wins; later activity on the loser
// has no effect on the Any.
func TestAny_FirstSourceWins(t *testing.T) {
	cq := NewCallQueue()
	s1 := NewChannel(cq)
	s2 := NewChannel(cq)

	s2.Send(42)
	cq.Iterate()

	a := Any(cq, true, s1, s2)
	cq.Iterate()

	require.Eventually(t, func() bool {
		cq.Iterate()
		return a.HasResult()
	}, time.Second, time.Millisecond)

	item, err := a.ResultRaw()
	require.NoError(t, err)
	require.False(t, item.Throw)
	require.Equal(t, []interface{}{s2, 42}, item.Values)

	// a later send to the losing source must not affect the Any's result.
	s1.Send(0)
	cq.Iterate()
	item2, err := a.ResultRaw()
	require.NoError(t, err)
	require.Equal(t, item, item2)
}
