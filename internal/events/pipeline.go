package events

import "sync"

// defaultCapacity is the minimum bound named for the event queue.
const defaultCapacity = 1024

// Consumer receives every Event the Pipeline drains, in order.
type Consumer interface {
	Consume(Event)
}

// Pipeline owns the bounded queue and the single goroutine that drains
// it to every registered Consumer. Construct with NewPipeline, add
// consumers, then call Run in its own goroutine.
type Pipeline struct {
	queue     *boundedQueue
	consumers []Consumer

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewPipeline builds a Pipeline with the given queue capacity (clamped
// up to defaultCapacity) and consumers.
func NewPipeline(capacity int, consumers ...Consumer) *Pipeline {
	if capacity < defaultCapacity {
		capacity = defaultCapacity
	}
	return &Pipeline{
		queue:     newBoundedQueue(capacity),
		consumers: consumers,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Emit enqueues e for delivery to every consumer. Returns false if e (or
// an older event it displaced) was dropped under backpressure.
func (p *Pipeline) Emit(e Event) bool {
	return p.queue.push(e)
}

// Dropped returns the number of events lost to backpressure so far.
func (p *Pipeline) Dropped() uint64 {
	return p.queue.droppedCount()
}

// Run drains the queue until Stop is called, delivering each event to
// every consumer in registration order. Intended to run in its own
// goroutine for the lifetime of the process.
func (p *Pipeline) Run() {
	defer close(p.doneCh)
	for {
		for {
			e, ok := p.queue.pop()
			if !ok {
				break
			}
			for _, c := range p.consumers {
				c.Consume(e)
			}
		}

		select {
		case <-p.stopCh:
			// Drain whatever arrived between the last pop and the stop signal.
			for {
				e, ok := p.queue.pop()
				if !ok {
					return
				}
				for _, c := range p.consumers {
					c.Consume(e)
				}
			}
		case <-p.queue.wake:
		}
	}
}

// Stop signals Run to drain remaining events and return. Blocks until
// Run has exited.
func (p *Pipeline) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	<-p.doneCh
}
