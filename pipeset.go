package coroflow

import "sync"

// UpstreamFinished is the marker a pipe-set substitutes for an upstream's
// real terminal Item, so a fan-in reader observes upstream completion as an
// ordinary data event instead of finalizing itself. Result carries the
// upstream's actual terminal Item for callers that care why it finished.
type UpstreamFinished struct {
	Upstream Stream
	Result   Item
}

// pipeSet is the internal fan-in Stream backing a Task's input window: it
// merges events from a changing set of upstreams in round-robin FIFO order.
// Grounded in idiokit/threado.py's _Pipeable.
type pipeSet struct {
	base

	cq *CallQueue

	mu       sync.Mutex
	pending  []Stream                   // upstreams with pending data, each appears at most once
	handles  map[Stream]*CallbackHandle // upstream -> registered callback handle, nil while queued in pending
	finished bool
}

func newPipeSet(cq *CallQueue) *pipeSet {
	p := &pipeSet{cq: cq, handles: make(map[Stream]*CallbackHandle)}
	p.base = newBase(p, p.nextRaw, p.isFinished)
	return p
}

func (p *pipeSet) isFinished() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finished
}

// pipeIn adds other to the fan-in set. No-op if other is already present or
// this pipe-set has already finalized.
func (p *pipeSet) pipeIn(other Stream) {
	p.cq.Add(func() { p.pipeInNow(other) })
}

func (p *pipeSet) pipeInNow(other Stream) {
	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return
	}
	if _, ok := p.handles[other]; ok {
		p.mu.Unlock()
		return
	}
	p.handles[other] = nil
	p.pending = append(p.pending, other)
	grew := len(p.pending) == 1
	p.mu.Unlock()

	if grew {
		p.signalActivity(nil)
	}
}

// finish latches a terminal result, clears all bookkeeping, and discards
// every registered upstream callback before signaling.
func (p *pipeSet) finish(item Item) {
	p.cq.Add(func() { p.finishNow(item) })
}

func (p *pipeSet) finishNow(item Item) {
	p.mu.Lock()
	if p.finished {
		p.mu.Unlock()
		return
	}
	p.finished = true
	p.pending = nil
	snapshot := p.handles
	p.handles = nil
	p.mu.Unlock()

	for other, h := range snapshot {
		if h != nil {
			other.DiscardMessageCallback(*h)
		}
	}
	result := item
	p.signalActivity(&result)
}

func (p *pipeSet) onUpstreamActivity(other Stream) {
	p.cq.Add(func() {
		p.mu.Lock()
		if _, ok := p.handles[other]; !ok {
			p.mu.Unlock()
			return
		}
		p.handles[other] = nil
		p.pending = append(p.pending, other)
		grew := len(p.pending) == 1
		p.mu.Unlock()

		if grew {
			p.signalActivity(nil)
		}
	})
}

// nextRaw drains the head of the pending queue: a non-terminal Item is
// returned and the upstream re-enqueued; a terminal Item is rewritten as an
// UpstreamFinished marker so the caller sees completion as data, not as its
// own finalization.
func (p *pipeSet) nextRaw() (Item, bool) {
	for {
		p.mu.Lock()
		if len(p.pending) == 0 {
			p.mu.Unlock()
			return Item{}, false
		}
		other := p.pending[0]
		p.pending = p.pending[1:]
		p.mu.Unlock()

		item, ok := other.NextRaw()
		if !ok {
			p.mu.Lock()
			if _, present := p.handles[other]; !present {
				p.mu.Unlock()
				continue
			}
			p.mu.Unlock()

			h := other.AddMessageCallback(p.onUpstreamActivity)

			p.mu.Lock()
			if _, present := p.handles[other]; present {
				p.handles[other] = &h
				p.mu.Unlock()
			} else {
				p.mu.Unlock()
				other.DiscardMessageCallback(h)
			}
			continue
		}

		if !item.Final {
			p.mu.Lock()
			p.pending = append(p.pending, other)
			p.mu.Unlock()
			return item, true
		}

		p.mu.Lock()
		h := p.handles[other]
		delete(p.handles, other)
		p.mu.Unlock()
		if h != nil {
			other.DiscardMessageCallback(*h)
		}
		return ValueItem(UpstreamFinished{Upstream: other, Result: item}), true
	}
}
