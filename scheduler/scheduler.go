// Package scheduler drives every guest processor in cycle-accurate lockstep.
//
// It owns a single monotonically increasing cycle counter and a min-heap of
// future events. The main loop advances each processor by a bounded quantum
// and then calls Run, which fires every event whose deadline falls inside
// that quantum in non-decreasing timestamp order.
package scheduler

import "container/heap"

// EventID identifies a registered callback. It is opaque to callers besides
// being passed back into AddEvent.
type EventID int

// Callback is invoked when a scheduled event fires. param is whatever value
// was passed to AddEvent, echoed back unchanged.
type Callback func(param int64)

type event struct {
	timestamp int64
	seq       int64 // tiebreaker, preserves insertion order for equal timestamps
	id        EventID
	param     int64
}

type eventHeap []event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].timestamp != h[j].timestamp {
		return h[i].timestamp < h[j].timestamp
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)        { *h = append(*h, x.(event)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// Scheduler is a single cooperative, single-threaded event queue. There is no
// goroutine of its own; Run executes fired callbacks synchronously on the
// calling goroutine.
type Scheduler struct {
	cursor    int64
	nextSeq   int64
	queue     eventHeap
	callbacks []Callback
}

// New returns an empty scheduler positioned at cycle 0.
func New() *Scheduler {
	return &Scheduler{}
}

// Register binds cb to a new EventID. Call once per logical event source
// (e.g. one per DMA engine, one for VI vblank, one for the AI sample pump).
func (s *Scheduler) Register(cb Callback) EventID {
	s.callbacks = append(s.callbacks, cb)
	return EventID(len(s.callbacks) - 1)
}

// AddEvent schedules id to fire delta cycles from now, passing param to the
// callback. delta must be strictly positive.
func (s *Scheduler) AddEvent(id EventID, param int64, delta int64) {
	if delta <= 0 {
		panic("scheduler: AddEvent requires delta > 0")
	}
	heap.Push(&s.queue, event{
		timestamp: s.cursor + delta,
		seq:       s.nextSeq,
		id:        id,
		param:     param,
	})
	s.nextSeq++
}

// Now returns the current cycle cursor.
func (s *Scheduler) Now() int64 { return s.cursor }

// Run advances the cursor by quantum cycles, firing every event whose
// timestamp falls at or before the new cursor position, in non-decreasing
// timestamp order. When Run returns, the cursor has advanced by exactly
// quantum and every event due inside it has fired.
func (s *Scheduler) Run(quantum int64) {
	target := s.cursor + quantum
	for len(s.queue) > 0 && s.queue[0].timestamp <= target {
		ev := heap.Pop(&s.queue).(event)
		s.callbacks[ev.id](ev.param)
	}
	s.cursor = target
}
