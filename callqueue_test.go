package coroflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCallQueue_AddAndIterateDrainsInFIFOOrder(t *testing.T) {
	cq := NewCallQueue()
	var order []int

	for i := 0; i < 3; i++ {
		i := i
		cq.Add(func() { order = append(order, i) })
	}
	require.Equal(t, 3, cq.Len())

	cq.Iterate()
	require.Equal(t, []int{0, 1, 2}, order)
	require.Equal(t, 0, cq.Len())
}

func TestCallQueue_ExclusiveWakesOnAdd(t *testing.T) {
	cq := NewCallQueue()
	woken := make(chan struct{}, 1)

	iterate, release := cq.Exclusive(func() {
		select {
		case woken <- struct{}{}:
		default:
		}
	})
	defer release()

	cq.Add(func() {})
	<-woken
	iterate()
	require.Equal(t, 0, cq.Len())
}

func TestCallQueue_TaskHooksDefaultsToNoop(t *testing.T) {
	cq := NewCallQueue()
	require.Equal(t, defaultTaskHooks, cq.taskHooks())
}

func TestCallQueue_SetHooksOverridesDefault(t *testing.T) {
	cq := NewCallQueue()
	custom := noopTaskHooks{}
	cq.setHooks(custom)
	require.Equal(t, taskHooks(custom), cq.taskHooks())
}
