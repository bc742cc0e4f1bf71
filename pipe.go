package coroflow

import "sync"

// pipeBreaker is implemented by streams that need to forward a broken-pipe
// notification to whatever sits further downstream instead of absorbing it
// themselves — only PipePair does. Everything else gets the default
// behavior in breakPipe: an ordinary Throw(BrokenPipe).
type pipeBreaker interface {
	pipeBroken()
}

func breakPipe(s Stream) {
	if pb, ok := s.(pipeBreaker); ok {
		pb.pipeBroken()
		return
	}
	s.Throw(BrokenPipe)
}

// PipePair is the result of composing two streams left|right: left's output
// feeds right's input, and the pair presents right's output as its own.
// Grounded in idiokit/threado.py's PipePair.
//
// Ordering guarantee: if right finishes before left has, the pair withholds
// right's terminal Item (and throws BrokenPipe into left, so left can
// unwind) until left also reports a result; the pair's own terminal Item is
// then right's, but only observed once both halves are done.
type PipePair struct {
	base

	cq    *CallQueue
	left  Stream
	right Stream
	input *Channel

	mu             sync.Mutex
	leftHasResult  bool
	rightHasResult bool
}

// newPipePair wires left's output into right's input and right's output
// into the pair's own.
func newPipePair(cq *CallQueue, left, right Stream) *PipePair {
	p := &PipePair{cq: cq, left: left, right: right, input: NewChannel(cq)}
	p.base = newBase(p, p.nextRaw, right.NextIsFinal)

	_ = left.Pipe(p.input)
	_ = right.Pipe(left)
	left.AddFinishCallback(p.onLeftFinish)
	right.AddFinishCallback(p.onRightFinish)
	right.AddMessageCallback(p.onRightActivity)
	return p
}

func (p *PipePair) onLeftFinish(Stream) {
	p.mu.Lock()
	p.leftHasResult = true
	ready := p.rightHasResult
	p.mu.Unlock()
	if ready {
		p.finishPair()
	}
}

func (p *PipePair) onRightFinish(Stream) {
	breakPipe(p.left)

	p.mu.Lock()
	p.rightHasResult = true
	ready := p.leftHasResult
	p.mu.Unlock()
	if ready {
		p.finishPair()
	}
}

func (p *PipePair) onRightActivity(Stream) {
	p.signalActivity(nil)
}

func (p *PipePair) finishPair() {
	item, err := p.right.ResultRaw()
	if err != nil {
		return
	}
	p.signalActivity(&item)
}

func (p *PipePair) pipeBroken() {
	breakPipe(p.right)
}

func (p *PipePair) nextRaw() (Item, bool) {
	item, ok := p.right.NextRaw()
	if !ok {
		p.right.AddMessageCallback(p.onRightActivity)
		return Item{}, false
	}
	if item.Final {
		p.mu.Lock()
		leftDone := p.leftHasResult
		p.mu.Unlock()
		if !leftDone {
			return Item{}, false
		}
	}
	return item, true
}

// Pipe forwards to left: composing a pair with more downstream stages keeps
// routing new upstreams into the original leftmost input.
func (p *PipePair) Pipe(other Stream) error { return p.left.Pipe(other) }

func (p *PipePair) Send(values ...interface{}) { p.input.Send(values...) }
func (p *PipePair) Throw(err error)            { p.input.Throw(err) }

// Compose builds a left-deep/right-deep balanced binary tree of PipePairs
// from first and rest, so that composing a long pipeline never produces a
// single pair with an O(n)-deep chain of finish-callback forwarding.
// Grounded in idiokit/threado.py's module-level pipe() function.
func Compose(cq *CallQueue, first Stream, rest ...Stream) Stream {
	if len(rest) == 0 {
		return first
	}
	cut := len(rest) / 2
	left := Compose(cq, first, rest[:cut]...)
	right := Compose(cq, rest[cut], rest[cut+1:]...)
	return newPipePair(cq, left, right)
}
