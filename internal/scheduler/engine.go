package scheduler

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidTriggerTime = errors.New("scheduler: invalid trigger time")
	ErrEngineStopped      = errors.New("scheduler: engine stopped")
	ErrMissingJob         = errors.New("scheduler: trigger has no job")
)

// Trigger asks the runner to execute Job at At.
type Trigger struct {
	ID  string
	Job Job
	At  time.Time
}

type pendingTrigger struct {
	trigger Trigger
	index   int
}

// triggerHeap orders pending triggers by fire time and tracks each entry's
// position so a job's trigger can be moved or removed in place.
type triggerHeap []*pendingTrigger

func (h triggerHeap) Len() int { return len(h) }

func (h triggerHeap) Less(i, j int) bool {
	return h[i].trigger.At.Before(h[j].trigger.At)
}

func (h triggerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *triggerHeap) Push(x any) {
	p := x.(*pendingTrigger)
	p.index = len(*h)
	*h = append(*h, p)
}

func (h *triggerHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	old[n-1] = nil
	p.index = -1
	*h = old[:n-1]
	return p
}

// Engine holds at most one pending trigger per job and emits each on C when
// it comes due. A full output buffer drops the trigger and counts it.
type Engine struct {
	mu      sync.Mutex
	pending triggerHeap
	byJob   map[Job]*pendingTrigger
	out     chan Trigger
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped uint64
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		byJob:  make(map[Job]*pendingTrigger),
		out:    make(chan Trigger, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (e *Engine) C() <-chan Trigger {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started || e.stopped {
		return
	}
	e.started = true
	go e.loop()
}

// Stop halts the loop and closes C. Pending triggers are discarded.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	started := e.started
	e.mu.Unlock()
	if started {
		<-e.doneCh
	}
}

// Schedule queues tr, replacing any trigger still pending for the same job.
func (e *Engine) Schedule(tr Trigger) error {
	if tr.At.IsZero() {
		return ErrInvalidTriggerTime
	}
	if tr.Job == "" {
		return ErrMissingJob
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrEngineStopped
	}

	if p, ok := e.byJob[tr.Job]; ok {
		p.trigger = tr
		heap.Fix(&e.pending, p.index)
	} else {
		p := &pendingTrigger{trigger: tr}
		heap.Push(&e.pending, p)
		e.byJob[tr.Job] = p
	}
	e.signalWakeup()
	return nil
}

// Cancel drops the pending trigger for job and reports whether there was one.
func (e *Engine) Cancel(job Job) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.byJob[job]
	if !ok {
		return false
	}
	heap.Remove(&e.pending, p.index)
	delete(e.byJob, job)
	e.signalWakeup()
	return true
}

// Capacity is the number of fired triggers the engine buffers before it
// starts dropping.
func (e *Engine) Capacity() int {
	return cap(e.out)
}

func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// NextAt reports when job's pending trigger fires.
func (e *Engine) NextAt(job Job) (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.byJob[job]
	if !ok {
		return time.Time{}, false
	}
	return p.trigger.At, true
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	timer := time.NewTimer(time.Hour)
	stopTimer(timer)
	defer stopTimer(timer)

	for {
		var fire <-chan time.Time
		if at, ok := e.earliest(); ok {
			wait := time.Until(at)
			if wait < 0 {
				wait = 0
			}
			stopTimer(timer)
			timer.Reset(wait)
			fire = timer.C
		}

		select {
		case <-fire:
			for _, tr := range e.popDue(time.Now()) {
				select {
				case e.out <- tr:
				default:
					atomic.AddUint64(&e.dropped, 1)
				}
			}
		case <-e.wakeup:
		case <-e.stopCh:
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

func (e *Engine) earliest() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.pending) == 0 {
		return time.Time{}, false
	}
	return e.pending[0].trigger.At, true
}

func (e *Engine) popDue(now time.Time) []Trigger {
	e.mu.Lock()
	defer e.mu.Unlock()

	var due []Trigger
	for len(e.pending) > 0 && !e.pending[0].trigger.At.After(now) {
		p := heap.Pop(&e.pending).(*pendingTrigger)
		delete(e.byJob, p.trigger.Job)
		due = append(due, p.trigger)
	}
	return due
}

func stopTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
