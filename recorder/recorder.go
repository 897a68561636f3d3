// Package recorder renders the hero offline at a fixed frame rate and feeds
// every frame to an encoder.
package recorder

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/richinsley/goshaderhero/config"
	"github.com/richinsley/goshaderhero/encoder"
	"github.com/richinsley/goshaderhero/loop"
)

// ErrLoopStopped is returned when the render loop stops before the last
// frame was rendered.
var ErrLoopStopped = errors.New("render loop stopped before the recording finished")

// Target is the framebuffer frames are rendered into and read back from.
type Target interface {
	Bind() error
	Unbind()
	Size() (int, int)
	ReadPixels(dst []byte) error
}

// PointerInput receives scripted contacts.
type PointerInput interface {
	ContactStart(id int, clientX, clientY float64)
	ContactMove(id int, clientX, clientY, movementX, movementY float64)
	ContactEnd(id int)
}

// Options control a recording.
type Options struct {
	Duration    float64 // seconds
	FPS         int
	PointerPath []config.PathPoint
	Logger      *zap.Logger
}

// TotalFrames is the number of frames rendered for opts.
func (o Options) TotalFrames() int {
	return int(o.Duration * float64(o.FPS))
}

// Recorder steps a started loop.Controller through a StepScheduler.
type Recorder struct {
	ctrl     *loop.Controller
	sched    *loop.StepScheduler
	target   Target
	pointers PointerInput
	opts     Options
	logger   *zap.Logger

	nextPoint int
	down      map[int][2]float64
}

// New returns a Recorder. ctrl must schedule through sched and have its
// collaborators attached.
func New(ctrl *loop.Controller, sched *loop.StepScheduler, target Target, pointers PointerInput, opts Options) *Recorder {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		ctrl:     ctrl,
		sched:    sched,
		target:   target,
		pointers: pointers,
		opts:     opts,
		logger:   logger,
		down:     map[int][2]float64{},
	}
}

// Record renders every frame and sends it to enc. It must be called on the
// thread holding the GL context; enc consumes on its own goroutine.
func (r *Recorder) Record(ctx context.Context, enc *encoder.Encoder) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(enc.Run)

	err := r.produce(gctx, enc)
	enc.Close()
	if waitErr := g.Wait(); waitErr != nil {
		// A failed encoder stops or cancels the producer.
		return waitErr
	}
	return err
}

func (r *Recorder) produce(ctx context.Context, enc *encoder.Encoder) error {
	totalFrames := r.opts.TotalFrames()
	timeStep := 1000.0 / float64(r.opts.FPS)
	r.logger.Info("Starting in record mode...", zap.Int("frames", totalFrames), zap.Int("fps", r.opts.FPS))

	r.ctrl.Start()
	defer r.ctrl.Stop()
	defer r.target.Unbind()

	for i := 0; i < totalFrames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		now := float64(i) * timeStep
		r.applyPath(now)

		if err := r.target.Bind(); err != nil {
			return fmt.Errorf("failed to bind render target on frame %d: %w", i, err)
		}
		if r.sched.Step(now) == 0 {
			return fmt.Errorf("%w at frame %d", ErrLoopStopped, i)
		}

		w, h := r.target.Size()
		pixels := make([]byte, w*h*4)
		if err := r.target.ReadPixels(pixels); err != nil {
			return fmt.Errorf("failed to read pixels on frame %d: %w", i, err)
		}
		if err := enc.SendVideo(ctx, &encoder.Frame{Pixels: pixels, PTS: int64(i)}); err != nil {
			return err
		}
	}
	r.logger.Info("Recording complete", zap.Uint64("frames", r.ctrl.Frames()))
	return nil
}

// applyPath delivers every scripted point due at or before now
// (milliseconds).
func (r *Recorder) applyPath(now float64) {
	path := r.opts.PointerPath
	for r.nextPoint < len(path) && path[r.nextPoint].At*1000 <= now+epsilon {
		p := path[r.nextPoint]
		r.nextPoint++

		last, isDown := r.down[p.ID]
		switch {
		case p.Down && !isDown:
			r.pointers.ContactStart(p.ID, p.X, p.Y)
			r.down[p.ID] = [2]float64{p.X, p.Y}
		case p.Down:
			r.pointers.ContactMove(p.ID, p.X, p.Y, p.X-last[0], p.Y-last[1])
			r.down[p.ID] = [2]float64{p.X, p.Y}
		case isDown:
			r.pointers.ContactEnd(p.ID)
			delete(r.down, p.ID)
		}
	}
}

// Frame times are multiples of 1000/fps; tolerate the rounding.
const epsilon = 1e-6
