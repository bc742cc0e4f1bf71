package coroflow

import (
	"fmt"
	"sync"
)

// Stream is the abstract contract for anything that produces a (possibly
// infinite) sequence of Items followed by at most one terminal Item, plus
// callback registration for activity notification. See base for the shared
// bookkeeping every concrete Stream embeds.
type Stream interface {
	// NextRaw performs a non-blocking read. It returns (Item{}, false) when
	// no item is currently available (the stream is quiescent).
	NextRaw() (Item, bool)

	// HasResult reports whether a terminal Item has been latched.
	HasResult() bool

	// ResultRaw returns the latched terminal Item, or NotFinished if none
	// has been latched yet.
	ResultRaw() (Item, error)

	// AddMessageCallback fires fn exactly once on the stream's next activity
	// signal. If the stream already has activity pending at registration
	// time, fn fires synchronously, on the calling goroutine, before this
	// call returns, and the returned handle is the zero value (nothing to
	// discard).
	AddMessageCallback(fn func(Stream)) CallbackHandle

	// AddFinishCallback is the same contract as AddMessageCallback, but tied
	// to the terminal signal specifically.
	AddFinishCallback(fn func(Stream)) CallbackHandle

	// DiscardMessageCallback/DiscardFinishCallback cancel a pending
	// registration. Both are idempotent: discarding an unknown or
	// already-fired handle is always safe.
	DiscardMessageCallback(CallbackHandle)
	DiscardFinishCallback(CallbackHandle)

	// Pipe routes other into this stream's input window. Most streams are
	// not pipeable and return an error; Task and PipePair override this.
	Pipe(other Stream) error

	// Send/Throw push into this stream's input window. Most streams are
	// no-ops here; Channel and Task override them.
	Send(values ...interface{})
	Throw(err error)

	// NextIsFinal reports, without consuming, whether the very next Item
	// this stream will yield is its terminal Item.
	NextIsFinal() bool
}

type callbackEntry struct {
	fn func(Stream)
}

// base implements the bookkeeping shared by every concrete Stream: the
// activity-id/result latch and the two callback sets. Concrete types embed
// base and supply doNextRaw/doNextIsFinal hooks in place of virtual
// dispatch, since Go has none.
type base struct {
	mu sync.Mutex

	self Stream

	activityID uint64 // 0 means quiescent (no item currently available)
	result     *Item

	messageCallbacks map[CallbackHandle]callbackEntry
	finishCallbacks  map[CallbackHandle]callbackEntry

	doNextRaw     func() (Item, bool)
	doNextIsFinal func() bool
}

// newBase wires a concrete Stream's identity and its _next_raw/next_is_final
// hooks into the shared bookkeeping.
func newBase(self Stream, doNextRaw func() (Item, bool), doNextIsFinal func() bool) base {
	return base{self: self, doNextRaw: doNextRaw, doNextIsFinal: doNextIsFinal}
}

func (b *base) bumpLocked() {
	b.activityID++
	if b.activityID == 0 {
		b.activityID = 1
	}
}

// signalActivity rotates the activity-id, drains and fires message
// callbacks, and — when result is non-nil — additionally latches the
// terminal result and drains/fires finish callbacks. Callbacks always run
// outside the lock so a callback may safely re-register on this stream.
func (b *base) signalActivity(result *Item) {
	b.mu.Lock()
	b.bumpLocked()
	if result != nil {
		b.result = result
	}
	msgCallbacks := b.messageCallbacks
	b.messageCallbacks = nil
	b.mu.Unlock()

	for _, cb := range msgCallbacks {
		cb.fn(b.self)
	}

	if result == nil {
		return
	}

	b.mu.Lock()
	finCallbacks := b.finishCallbacks
	b.finishCallbacks = nil
	b.mu.Unlock()

	for _, cb := range finCallbacks {
		cb.fn(b.self)
	}
}

func (b *base) NextRaw() (Item, bool) {
	b.mu.Lock()
	id := b.activityID
	if id == 0 {
		b.mu.Unlock()
		return Item{}, false
	}
	b.mu.Unlock()

	item, ok := b.doNextRaw()
	if !ok {
		b.mu.Lock()
		if b.activityID == id {
			b.activityID = 0
		}
		b.mu.Unlock()
		return Item{}, false
	}

	if item.Final {
		b.mu.Lock()
		b.result = &item
		if b.activityID == 0 {
			b.bumpLocked()
		}
		b.mu.Unlock()
	}
	return item, true
}

func (b *base) HasResult() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.result != nil
}

func (b *base) ResultRaw() (Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.result == nil {
		return Item{}, NotFinished
	}
	return *b.result, nil
}

func (b *base) AddMessageCallback(fn func(Stream)) CallbackHandle {
	b.mu.Lock()
	if b.activityID == 0 {
		h := newCallbackHandle()
		if b.messageCallbacks == nil {
			b.messageCallbacks = make(map[CallbackHandle]callbackEntry)
		}
		b.messageCallbacks[h] = callbackEntry{fn: fn}
		b.mu.Unlock()
		return h
	}
	b.mu.Unlock()
	fn(b.self)
	return CallbackHandle{}
}

func (b *base) AddFinishCallback(fn func(Stream)) CallbackHandle {
	b.mu.Lock()
	if b.result == nil {
		h := newCallbackHandle()
		if b.finishCallbacks == nil {
			b.finishCallbacks = make(map[CallbackHandle]callbackEntry)
		}
		b.finishCallbacks[h] = callbackEntry{fn: fn}
		b.mu.Unlock()
		return h
	}
	b.mu.Unlock()
	fn(b.self)
	return CallbackHandle{}
}

func (b *base) DiscardMessageCallback(h CallbackHandle) {
	if !h.valid() {
		return
	}
	b.mu.Lock()
	delete(b.messageCallbacks, h)
	b.mu.Unlock()
}

func (b *base) DiscardFinishCallback(h CallbackHandle) {
	if !h.valid() {
		return
	}
	b.mu.Lock()
	delete(b.finishCallbacks, h)
	b.mu.Unlock()
}

func (b *base) Pipe(Stream) error {
	return fmt.Errorf("%w: this stream is not pipeable", ErrInvalidState)
}

func (b *base) Send(...interface{}) {}
func (b *base) Throw(error)         {}

func (b *base) NextIsFinal() bool {
	if b.doNextIsFinal != nil {
		return b.doNextIsFinal()
	}
	return b.HasResult()
}
