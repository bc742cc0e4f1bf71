package coroflow

import "sync"

// outputStack is the internal sequential-handover helper backing a Task's
// output: only the head upstream is ever read; when it finalizes it is
// popped and the next one becomes active. This models a subtask
// temporarily taking over a task's output (see Inner.Sub). Grounded in
// idiokit/threado.py's _Stackable, which GeneratorStream extends directly;
// here it is a plain helper a Task owns, so the Task itself — not some
// internal delegate — is the Stream identity external readers observe.
type outputStack struct {
	cq     *CallQueue
	notify func(result *Item)

	mu       sync.Mutex
	deque    []Stream
	finished bool
	result   Item
}

func newOutputStack(cq *CallQueue, notify func(result *Item)) *outputStack {
	return &outputStack{cq: cq, notify: notify}
}

func (s *outputStack) push(other Stream) {
	s.cq.Add(func() { s.pushNow(other) })
}

func (s *outputStack) pushNow(other Stream) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.deque = append(s.deque, other)
	s.mu.Unlock()

	s.notify(nil)
}

func (s *outputStack) finish(item Item) {
	s.cq.Add(func() { s.finishNow(item) })
}

func (s *outputStack) finishNow(item Item) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true
	s.result = item
	s.mu.Unlock()

	result := item
	s.notify(&result)
}

func (s *outputStack) onHeadActivity(other Stream) {
	s.cq.Add(func() {
		s.mu.Lock()
		if s.finished || len(s.deque) == 0 || s.deque[0] != other {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
		s.notify(nil)
	})
}

// nextRaw must only be called from the call queue's draining goroutine.
func (s *outputStack) nextRaw() (Item, bool) {
	for {
		s.mu.Lock()
		var head Stream
		if len(s.deque) > 0 {
			head = s.deque[0]
		} else if s.finished {
			item := s.result
			s.mu.Unlock()
			return item, true
		} else {
			s.mu.Unlock()
			return Item{}, false
		}
		s.mu.Unlock()

		item, ok := head.NextRaw()
		if !ok {
			head.AddMessageCallback(s.onHeadActivity)
			return Item{}, false
		}

		if !item.Final {
			return item, true
		}

		s.mu.Lock()
		if len(s.deque) > 0 && s.deque[0] == head {
			s.deque = s.deque[1:]
		}
		s.mu.Unlock()
		// loop: move on to the next entry, or the stack's own terminal.
	}
}

// isFinal walks the stack, popping finalized heads, and reports whether the
// overall output is done.
func (s *outputStack) isFinal() bool {
	for {
		s.mu.Lock()
		if len(s.deque) == 0 {
			finished := s.finished
			s.mu.Unlock()
			return finished
		}
		head := s.deque[0]
		s.mu.Unlock()

		if !head.NextIsFinal() {
			return false
		}

		s.mu.Lock()
		if len(s.deque) > 0 && s.deque[0] == head {
			s.deque = s.deque[1:]
		}
		s.mu.Unlock()
	}
}
