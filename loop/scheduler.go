package loop

import (
	"slices"

	"github.com/richinsley/goshaderhero/graphics"
)

type frameRequest struct {
	id uint64
	fn graphics.FrameFunc
}

// StepScheduler is a host scheduler advanced explicitly with Step. It is
// used for offline rendering, where frames are produced at fixed
// timestamps instead of on display refresh.
type StepScheduler struct {
	next    uint64
	pending []frameRequest
	running []frameRequest
}

// NewStepScheduler returns an empty scheduler.
func NewStepScheduler() *StepScheduler {
	return &StepScheduler{}
}

func (s *StepScheduler) RequestFrame(fn graphics.FrameFunc) uint64 {
	s.next++
	s.pending = append(s.pending, frameRequest{id: s.next, fn: fn})
	return s.next
}

func (s *StepScheduler) CancelFrame(handle uint64) {
	s.pending = slices.DeleteFunc(s.pending, func(r frameRequest) bool { return r.id == handle })
	for i := range s.running {
		if s.running[i].id == handle {
			s.running[i].fn = nil
		}
	}
}

// Step runs the callbacks that were pending when it was called and returns
// how many ran. Callbacks requested during the step run on the next step.
func (s *StepScheduler) Step(now float64) int {
	s.running, s.pending = s.pending, nil
	n := 0
	for i := range s.running {
		if fn := s.running[i].fn; fn != nil {
			fn(now)
			n++
		}
	}
	s.running = nil
	return n
}

// Pending returns the number of scheduled callbacks.
func (s *StepScheduler) Pending() int { return len(s.pending) }

var _ graphics.Scheduler = (*StepScheduler)(nil)
