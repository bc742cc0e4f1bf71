package coroflow

import "sync"

// anyStream implements Any: the first of a fixed set of sources to
// produce any Item wins; every other source's callback registration is
// discarded. Grounded in idiokit/threado.py's Any.
type anyStream struct {
	base

	cq            *CallQueue
	includeSource bool

	mu        sync.Mutex
	callbacks map[Stream]CallbackHandle
	done      bool
	final     Item
}

// Any returns a Stream that resolves with whichever of sources is first to
// produce an Item (data or terminal). If includeSource is true, a winning
// non-throw Item's values are rewritten to (source, peelArgs(values)) so the
// caller can tell which source won.
func Any(cq *CallQueue, includeSource bool, sources ...Stream) Stream {
	a := &anyStream{cq: cq, includeSource: includeSource, callbacks: make(map[Stream]CallbackHandle)}
	a.base = newBase(a, a.nextRaw, a.isFinal)
	cq.Add(func() { a.init(sources) })
	return a
}

func (a *anyStream) callback(source Stream) func(Stream) {
	return func(Stream) {
		a.cq.Add(func() { a.onActivity(source) })
	}
}

func (a *anyStream) init(sources []Stream) {
	for _, s := range sources {
		h := s.AddMessageCallback(a.callback(s))
		a.mu.Lock()
		done := a.done
		if !done {
			a.callbacks[s] = h
		}
		a.mu.Unlock()
		if done {
			s.DiscardMessageCallback(h)
		}
	}
}

func (a *anyStream) onActivity(source Stream) {
	a.mu.Lock()
	if a.done {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	item, ok := source.NextRaw()
	if !ok {
		h := source.AddMessageCallback(a.callback(source))
		a.mu.Lock()
		if !a.done {
			a.callbacks[source] = h
		}
		a.mu.Unlock()
		return
	}

	a.mu.Lock()
	if a.done {
		a.mu.Unlock()
		return
	}
	a.done = true
	callbacks := a.callbacks
	a.callbacks = nil
	a.mu.Unlock()

	for other, h := range callbacks {
		if other != source {
			other.DiscardMessageCallback(h)
		}
	}

	values := item.Values
	if !item.Throw && a.includeSource {
		values = []interface{}{source, peelArgs(item.Values)}
	}
	final := Item{Final: true, Throw: item.Throw, Err: item.Err, Values: values}

	a.mu.Lock()
	a.final = final
	a.mu.Unlock()
	a.signalActivity(&final)
}

func (a *anyStream) nextRaw() (Item, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.done {
		return Item{}, false
	}
	return a.final, true
}

func (a *anyStream) isFinal() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done
}

// Pipe/Send/Throw are all unsupported on an Any stream — it has no input of
// its own. Go's Stream.Send/Throw have no error return, so (unlike the
// reference implementation, which raises) these are silent no-ops; Pipe
// still reports the usual "not pipeable" error via the embedded base.
