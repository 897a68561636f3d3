package loop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepSchedulerRunsPendingOnly(t *testing.T) {
	s := NewStepScheduler()
	var got []float64
	var fn func(now float64)
	fn = func(now float64) {
		got = append(got, now)
		s.RequestFrame(fn)
	}
	s.RequestFrame(fn)

	assert.Equal(t, 1, s.Step(1))
	assert.Equal(t, 1, s.Step(2))
	assert.Equal(t, []float64{1, 2}, got)
	assert.Equal(t, 1, s.Pending())
}

func TestStepSchedulerCancel(t *testing.T) {
	s := NewStepScheduler()
	ran := 0
	a := s.RequestFrame(func(float64) { ran++ })
	b := s.RequestFrame(func(float64) { ran++ })
	s.CancelFrame(a)

	assert.Equal(t, 1, s.Step(0))
	assert.Equal(t, 1, ran)

	// Cancelling an already-run handle is a no-op.
	s.CancelFrame(b)
	assert.Equal(t, 0, s.Pending())
}

func TestStepSchedulerCancelWithinStep(t *testing.T) {
	s := NewStepScheduler()
	ran := 0
	var second uint64
	s.RequestFrame(func(float64) {
		ran++
		s.CancelFrame(second)
	})
	second = s.RequestFrame(func(float64) { ran++ })

	assert.Equal(t, 1, s.Step(0))
	assert.Equal(t, 1, ran)
}
