package rewrite

import (
	"context"
	"sync"
)

const (
	// MinStreamBufferSize is the minimum buffer size to prevent deadlocks
	MinStreamBufferSize = 10
	// DefaultStreamBufferSize is used when no size is specified
	DefaultStreamBufferSize = 100
)

// InstanceStream provides streaming match results. The stream is
// finite and non-restartable: once drained, a new Match call is needed
// to observe live state again.
type InstanceStream struct {
	ch     chan Instance
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// NewInstanceStream creates a new instance stream.
// Enforces a minimum buffer size to prevent deadlocks with unbuffered channels.
func NewInstanceStream(bufferSize int) *InstanceStream {
	if bufferSize < MinStreamBufferSize {
		bufferSize = DefaultStreamBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &InstanceStream{
		ch:     make(chan Instance, bufferSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Next returns the next instance; ok is false once the stream is
// exhausted or closed.
func (is *InstanceStream) Next() (Instance, bool) {
	// Drain buffered instances before honoring cancellation.
	select {
	case inst, ok := <-is.ch:
		return inst, ok
	default:
		select {
		case inst, ok := <-is.ch:
			return inst, ok
		case <-is.ctx.Done():
			return nil, false
		}
	}
}

// Send delivers an instance to the stream; reports false if the
// consumer closed it.
func (is *InstanceStream) Send(inst Instance) bool {
	select {
	case is.ch <- inst:
		return true
	case <-is.ctx.Done():
		return false
	}
}

// finish marks the producer side done; Next then reports exhaustion
// once the buffer drains.
func (is *InstanceStream) finish() {
	is.once.Do(func() {
		close(is.ch)
	})
}

// Close abandons the stream from the consumer side. The producer
// observes this through Send and stops searching.
func (is *InstanceStream) Close() {
	is.cancel()
}

// Collect drains the stream into a slice.
func (is *InstanceStream) Collect() []Instance {
	var out []Instance
	for {
		inst, ok := is.Next()
		if !ok {
			return out
		}
		out = append(out, inst)
	}
}
