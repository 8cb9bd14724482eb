package core

// TaskPoolSize is the number of deferred calls that can be armed at once.
const TaskPoolSize = 20

// MaxAfterMillis is the largest relative delay After accepts. Anything
// longer would be ambiguous under the signed 16-bit deadline comparison.
const MaxAfterMillis = 32767

// TaskFunc is a deferred call. arg is the opaque context given when arming.
type TaskFunc func(arg any)

// task is one pool slot
type task struct {
	deadline uint16
	fn       TaskFunc
	arg      any
	armed    bool
}

// Scheduler is a fixed pool of one-shot calls keyed by absolute virtual
// deadline, drained cooperatively from the idle loop. A task that wants to
// run periodically re-arms itself from its own callback.
type Scheduler struct {
	irq   InterruptController
	clock *Clock
	halt  *Halt
	wdt   Watchdog
	trace *Trace

	slots [TaskPoolSize]task
}

// At arms fn to run once the virtual clock reaches deadline.
// Safe from interrupt context. Exhausting the pool is fatal.
func (s *Scheduler) At(deadline uint16, fn TaskFunc, arg any) {
	if fn == nil {
		s.halt.Fatal(SubsysTimer | ReasonBadParam)
	}

	state := s.irq.Disable()
	defer s.irq.Restore(state)

	for i := range s.slots {
		t := &s.slots[i]
		if t.armed {
			continue
		}
		t.deadline = deadline
		t.fn = fn
		t.arg = arg
		t.armed = true
		s.trace.Record(EvtTaskArm, uint8(i), s.clock.millis, deadline)
		return
	}

	// A dropped safety callback is worse than a hard stop.
	s.halt.Fatal(SubsysTimer | ReasonTooBig)
}

// After arms fn to run delay milliseconds from now.
func (s *Scheduler) After(delay uint16, fn TaskFunc, arg any) {
	if delay > MaxAfterMillis {
		s.halt.Fatal(SubsysTimer | ReasonBadParam)
	}

	state := s.irq.Disable()
	defer s.irq.Restore(state)

	s.At(s.clock.ReadMillis()+delay, fn, arg)
}

// Drain runs every armed task whose deadline has been reached. Each slot is
// freed before its callback runs, and callbacks run with interrupts enabled.
// Relative order of tasks due together is unspecified.
func (s *Scheduler) Drain() {
	s.wdt.Reset()
	now := s.clock.ReadMillis()

	for i := range s.slots {
		fn, arg, ok := s.take(i, now)
		if !ok {
			continue
		}
		fn(arg)
		s.wdt.Reset()
	}
}

// take frees slot i if it is armed and due, returning its call.
func (s *Scheduler) take(i int, now uint16) (TaskFunc, any, bool) {
	state := s.irq.Disable()
	defer s.irq.Restore(state)

	t := &s.slots[i]
	if !t.armed || !Reached(now, t.deadline) {
		return nil, nil, false
	}
	fn, arg := t.fn, t.arg
	s.trace.Record(EvtTaskFire, uint8(i), now, t.deadline)
	*t = task{}
	return fn, arg, true
}

// Pending returns the number of armed tasks.
func (s *Scheduler) Pending() int {
	state := s.irq.Disable()
	defer s.irq.Restore(state)

	n := 0
	for i := range s.slots {
		if s.slots[i].armed {
			n++
		}
	}
	return n
}
