package reactive

import (
	"fmt"
	"sort"
	"sync"
)

// scheduler is the process-wide (per ReactiveSystem) queue that batches
// tracker wake-ups, sorts them deterministically by creation id, drains
// them on a dedicated goroutine standing in for the micro-task boundary,
// and detects runaway update cycles.
type scheduler struct {
	rs *ReactiveSystem

	mu       sync.Mutex
	queue    []*Tracker
	has      map[int64]bool
	circular map[int64]int
	index    int
	flushing bool
	waiting  bool

	pending []func()

	queuedActivated  []*Tracker
	activatedHookFns []func(t *Tracker)
	updatedHookFns   []func(t *Tracker)
}

func newScheduler(rs *ReactiveSystem) *scheduler {
	return &scheduler{
		rs:       rs,
		has:      map[int64]bool{},
		circular: map[int64]int{},
	}
}

// enqueue queues t for the next flush. A tracker already present (and not
// yet dequeued this flush) is dropped — de-duplication. While a flush is
// already draining, t is inserted at the position that keeps the
// not-yet-processed tail of the queue sorted by id, so appended work still
// runs in creation order within the same flush.
func (s *scheduler) enqueue(t *Tracker) {
	s.mu.Lock()
	if s.has[t.id] {
		s.mu.Unlock()
		return
	}
	s.has[t.id] = true

	if !s.flushing {
		s.queue = append(s.queue, t)
	} else {
		i := len(s.queue) - 1
		for i >= s.index && s.queue[i].id > t.id {
			i--
		}
		s.queue = insertTrackerAt(s.queue, i+1, t)
	}

	needFlush := !s.waiting
	if needFlush {
		s.waiting = true
	}
	s.mu.Unlock()

	if needFlush {
		go s.runFlushLoop()
	}
}

func insertTrackerAt(queue []*Tracker, at int, t *Tracker) []*Tracker {
	queue = append(queue, nil)
	copy(queue[at+1:], queue[at:len(queue)-1])
	queue[at] = t
	return queue
}

// nextTick schedules cb to run once the current (or, if none is pending, a
// fresh) flush completes. Unlike enqueue, this always kicks off a flush cycle
// even with an empty tracker queue, since callers use it purely to observe
// "after the next micro-task" — Vue's nextTick behaves the same way.
func (s *scheduler) nextTick(cb func()) {
	s.mu.Lock()
	s.pending = append(s.pending, cb)
	needFlush := !s.waiting
	if needFlush {
		s.waiting = true
	}
	s.mu.Unlock()

	if needFlush {
		go s.runFlushLoop()
	}
}

// flushSync forces an immediate flush and blocks the calling goroutine
// until it, and any callbacks chained onto it via nextTick, have run.
func (s *scheduler) flushSync() {
	done := make(chan struct{})
	s.nextTick(func() { close(done) })
	<-done
}

// queueActivated registers t to receive an activated-hook callback at the
// end of the current flush, the second of the two post-flush lists Vue's
// scheduler drains alongside updated hooks.
func (s *scheduler) queueActivated(t *Tracker) {
	s.mu.Lock()
	s.queuedActivated = append(s.queuedActivated, t)
	s.mu.Unlock()
}

func (s *scheduler) onActivated(fn func(t *Tracker)) {
	s.mu.Lock()
	s.activatedHookFns = append(s.activatedHookFns, fn)
	s.mu.Unlock()
}

func (s *scheduler) onUpdated(fn func(t *Tracker)) {
	s.mu.Lock()
	s.updatedHookFns = append(s.updatedHookFns, fn)
	s.mu.Unlock()
}

func (s *scheduler) runFlushLoop() {
	s.flushSchedulerQueue()
}

// flushSchedulerQueue is the scheduler's drain. It sorts the queue once by
// id ascending (parents before children, since parents are created first),
// then walks it by index rather than by a snapshotted length so trackers
// queued mid-drain are still processed in this same flush, in their
// id-sorted position among the remaining work.
func (s *scheduler) flushSchedulerQueue() {
	s.mu.Lock()
	sort.Slice(s.queue, func(i, j int) bool { return s.queue[i].id < s.queue[j].id })
	s.flushing = true
	s.mu.Unlock()

	maxCount := s.rs.Config().MaxUpdateCount

	var ran []*Tracker

	for {
		s.mu.Lock()
		if s.index >= len(s.queue) {
			s.mu.Unlock()
			break
		}
		t := s.queue[s.index]
		s.index++
		delete(s.has, t.id) // allow this tracker to re-enter the queue later in the same flush
		s.circular[t.id]++
		count := s.circular[t.id]
		s.mu.Unlock()

		if count > maxCount {
			s.rs.warnf("possible infinite update loop", fmt.Sprintf("watcher id %d", t.id))
			continue
		}

		t.Run()
		ran = append(ran, t)
	}

	s.mu.Lock()
	s.queue = nil
	s.has = map[int64]bool{}
	s.circular = map[int64]int{}
	s.index = 0
	s.flushing = false
	s.waiting = false

	activated := s.queuedActivated
	s.queuedActivated = nil
	activatedHooks := s.activatedHookFns
	updatedHooks := s.updatedHookFns

	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, t := range ran {
		for _, fn := range updatedHooks {
			fn(t)
		}
	}
	for _, t := range activated {
		for _, fn := range activatedHooks {
			fn(t)
		}
	}

	for _, cb := range pending {
		cb()
	}
}
