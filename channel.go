package coroflow

import "sync"

// Channel is a Stream backed by an explicit FIFO of Items — the concrete
// wire between tasks. Grounded in idiokit/threado.py's Channel class.
//
// All mutation (Send/Finish/Throw) is routed through a CallQueue so the
// actual push and signalActivity call always execute on that queue's
// draining goroutine, regardless of which goroutine called Send/Finish/
// Throw. This is the Go adaptation of the dispatcher-thread invariant: the
// reference implementation relies on a single OS thread and a GIL, which
// Go does not have, so every mutating entry point hops onto the queue
// before touching shared state.
type Channel struct {
	base

	mu    sync.Mutex
	queue []Item

	cq *CallQueue
}

// NewChannel constructs a Channel whose mutations are serialized on cq.
func NewChannel(cq *CallQueue) *Channel {
	c := &Channel{cq: cq}
	c.base = newBase(c, c.nextRaw, c.nextIsFinal)
	return c
}

func (c *Channel) nextIsFinal() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue) > 0 && c.queue[0].Final
}

func (c *Channel) nextRaw() (Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.queue) == 0 {
		return Item{}, false
	}

	item := c.queue[0]
	if item.Final {
		// sticky terminal: leave it at the head so later reads see it again.
		return item, true
	}
	c.queue = c.queue[1:]
	return item, true
}

// Send pushes a non-terminal Item carrying values.
func (c *Channel) Send(values ...interface{}) {
	c.push(Item{Values: values})
}

// Finish pushes a terminal success Item.
func (c *Channel) Finish(values ...interface{}) {
	c.push(Item{Final: true, Values: values})
}

// Throw pushes a terminal failure Item.
func (c *Channel) Throw(err error) {
	c.push(Item{Final: true, Throw: true, Err: err})
}

func (c *Channel) push(item Item) {
	c.cq.Add(func() { c.pushNow(item) })
}

// pushNow performs the actual FIFO push; must only run on the call queue.
func (c *Channel) pushNow(item Item) {
	c.mu.Lock()
	if n := len(c.queue); n > 0 && c.queue[n-1].Final {
		// once a terminal Item has been appended, further pushes are
		// silently dropped (idempotent close).
		c.mu.Unlock()
		return
	}
	c.queue = append(c.queue, item)

	var result *Item
	switch {
	case item.Final:
		r := item
		result = &r
	case len(c.queue) == 1:
		// queue just became non-empty: nothing to report as result yet.
	default:
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.signalActivity(result)
}
