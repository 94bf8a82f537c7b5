package sched

import (
	"sync"
	"time"
)

// MinInterval is the smallest period accepted by Every.
const MinInterval = time.Millisecond

// Scheduler runs delayed and repeating callbacks against a game clock that
// only moves when Advance is called. All callbacks run on the goroutine that
// calls Advance.
type Scheduler struct {
	now    time.Duration
	seq    uint64
	timers []*Timer

	mu     sync.Mutex
	posted []func()
}

// Timer is a handle to a scheduled callback.
type Timer struct {
	s        *Scheduler
	fn       func()
	due      time.Duration
	interval time.Duration
	seq      uint64
	done     bool
}

func New() *Scheduler {
	return &Scheduler{}
}

// Now returns the scheduler clock.
func (s *Scheduler) Now() time.Duration {
	if s == nil {
		return 0
	}
	return s.now
}

// After runs fn once, d after the current clock.
func (s *Scheduler) After(d time.Duration, fn func()) *Timer {
	if s == nil || fn == nil {
		return nil
	}
	if d < 0 {
		d = 0
	}
	return s.add(d, 0, fn)
}

// Every runs fn each d until cancelled.
func (s *Scheduler) Every(d time.Duration, fn func()) *Timer {
	if s == nil || fn == nil {
		return nil
	}
	if d < MinInterval {
		d = MinInterval
	}
	return s.add(d, d, fn)
}

func (s *Scheduler) add(delay, interval time.Duration, fn func()) *Timer {
	s.seq++
	t := &Timer{s: s, fn: fn, due: s.now + delay, interval: interval, seq: s.seq}
	s.timers = append(s.timers, t)
	return t
}

// Post queues fn to run at the start of the next Advance. It is safe to call
// from any goroutine.
func (s *Scheduler) Post(fn func()) {
	if s == nil || fn == nil {
		return
	}
	s.mu.Lock()
	s.posted = append(s.posted, fn)
	s.mu.Unlock()
}

// Advance moves the clock forward by dt, firing every timer that comes due in
// deadline order. Timers that share a deadline fire in the order they were
// scheduled. Timers created by a callback fire in the same call when their
// deadline falls inside the window.
func (s *Scheduler) Advance(dt time.Duration) {
	if s == nil {
		return
	}
	s.drainPosted()
	if dt < 0 {
		dt = 0
	}
	target := s.now + dt
	for {
		next := s.nextDue(target)
		if next == nil {
			break
		}
		if next.due > s.now {
			s.now = next.due
		}
		if next.interval > 0 {
			next.due += next.interval
			s.seq++
			next.seq = s.seq
		} else {
			next.done = true
		}
		next.fn()
	}
	s.now = target
	s.compact()
}

// Pending reports how many timers are still scheduled.
func (s *Scheduler) Pending() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, t := range s.timers {
		if !t.done {
			n++
		}
	}
	return n
}

func (s *Scheduler) drainPosted() {
	s.mu.Lock()
	posted := s.posted
	s.posted = nil
	s.mu.Unlock()
	for _, fn := range posted {
		fn()
	}
}

func (s *Scheduler) nextDue(target time.Duration) *Timer {
	var best *Timer
	for _, t := range s.timers {
		if t.done || t.due > target {
			continue
		}
		if best == nil || t.due < best.due || (t.due == best.due && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (s *Scheduler) compact() {
	live := s.timers[:0]
	for _, t := range s.timers {
		if !t.done {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(s.timers); i++ {
		s.timers[i] = nil
	}
	s.timers = live
}

// Cancel stops the timer. It reports whether the timer was still pending.
func (t *Timer) Cancel() bool {
	if t == nil || t.done {
		return false
	}
	t.done = true
	return true
}

// Active reports whether the timer will still fire.
func (t *Timer) Active() bool {
	return t != nil && !t.done
}

// Group tracks timers created for one owner so they can be cancelled together.
type Group struct {
	s      *Scheduler
	timers []*Timer
}

func NewGroup(s *Scheduler) *Group {
	return &Group{s: s}
}

func (g *Group) After(d time.Duration, fn func()) *Timer {
	if g == nil {
		return nil
	}
	return g.track(g.s.After(d, fn))
}

func (g *Group) Every(d time.Duration, fn func()) *Timer {
	if g == nil {
		return nil
	}
	return g.track(g.s.Every(d, fn))
}

func (g *Group) track(t *Timer) *Timer {
	if t == nil {
		return nil
	}
	live := g.timers[:0]
	for _, old := range g.timers {
		if old.Active() {
			live = append(live, old)
		}
	}
	g.timers = append(live, t)
	return t
}

// CancelAll cancels every pending timer in the group and returns how many
// were stopped.
func (g *Group) CancelAll() int {
	if g == nil {
		return 0
	}
	n := 0
	for _, t := range g.timers {
		if t.Cancel() {
			n++
		}
	}
	g.timers = g.timers[:0]
	return n
}

// Active reports how many timers in the group are still pending.
func (g *Group) Active() int {
	if g == nil {
		return 0
	}
	n := 0
	for _, t := range g.timers {
		if t.Active() {
			n++
		}
	}
	return n
}
