package coroflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

// S1 — Echo: sequential NextRaw on a Channel yields each sent value in
// order, then the terminal Item repeated on every further read.
func TestChannel_Echo(t *testing.T) {
	cq := NewCallQueue()
	ch := NewChannel(cq)

	ch.Send(1)
	ch.Send(2)
	ch.Finish()
	cq.Iterate()

	item, ok := ch.NextRaw()
	require.True(t, ok)
	require.False(t, item.Final)
	require.Equal(t, []interface{}{1}, item.Values)

	item, ok = ch.NextRaw()
	require.True(t, ok)
	require.False(t, item.Final)
	require.Equal(t, []interface{}{2}, item.Values)

	item, ok = ch.NextRaw()
	require.True(t, ok)
	require.True(t, item.Final)
	require.False(t, item.Throw)

	// terminal repeats on further reads.
	again, ok := ch.NextRaw()
	require.True(t, ok)
	require.Equal(t, item, again)
}

func TestChannel_ThrowIsTerminal(t *testing.T) {
	cq := NewCallQueue()
	ch := NewChannel(cq)

	boom := errBoom
	ch.Send("first")
	ch.Throw(boom)
	ch.Send("dropped")
	cq.Iterate()

	item, ok := ch.NextRaw()
	require.True(t, ok)
	require.False(t, item.Final)

	item, ok = ch.NextRaw()
	require.True(t, ok)
	require.True(t, item.Final)
	require.True(t, item.Throw)
	require.ErrorIs(t, item.Err, boom)

	// the send queued after Throw was silently dropped (idempotent close).
	again, ok := ch.NextRaw()
	require.True(t, ok)
	require.True(t, again.Throw)
}

func TestChannel_AddMessageCallback_FiresImmediatelyWhenPending(t *testing.T) {
	cq := NewCallQueue()
	ch := NewChannel(cq)
	ch.Send(1)
	cq.Iterate()

	fired := false
	h := ch.AddMessageCallback(func(Stream) { fired = true })
	require.True(t, fired)
	require.False(t, h.valid())
}
