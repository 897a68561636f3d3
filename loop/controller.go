// Package loop drives the hero's per-frame cycle: pull the pointer snapshot,
// render, schedule the next frame through the host. It also keeps the
// renderer and the pointer aggregator on the same scale factor when the
// host surface is resized.
package loop

import (
	"math"

	"go.uber.org/zap"

	"github.com/richinsley/goshaderhero/graphics"
	"github.com/richinsley/goshaderhero/pointer"
)

// State of the loop.
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}

// FrameRenderer is the drawing side of a frame.
type FrameRenderer interface {
	Render(timestamp float64, snap pointer.Snapshot)
	UpdateScale(scale float64)
	Reset()
}

// SnapshotSource is the input side of a frame.
type SnapshotSource interface {
	Snapshot() pointer.Snapshot
	Rescale(scale float64)
}

// DefaultMinScale is the lowest scale factor the loop renders at.
const DefaultMinScale = 1.0

// ScaleFor returns the render scale for a device pixel ratio: half the
// native density, never below one.
func ScaleFor(devicePixelRatio float64) float64 {
	return math.Max(DefaultMinScale, 0.5*devicePixelRatio)
}

// Controller runs the frame loop. It is driven entirely by host callbacks
// and must only be used from the host's event thread.
type Controller struct {
	sched    graphics.Scheduler
	surface  graphics.Surface
	renderer FrameRenderer
	pointers SnapshotSource
	logger   *zap.Logger

	minScale float64
	scale    float64
	state    State
	handle   uint64
	frames   uint64
	hooks    []graphics.FrameFunc
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMinScale raises the scale floor applied on resize.
func WithMinScale(min float64) Option {
	return func(c *Controller) {
		if min > 0 {
			c.minScale = min
		}
	}
}

// New returns a stopped controller bound to a host scheduler and surface.
func New(sched graphics.Scheduler, surface graphics.Surface, opts ...Option) *Controller {
	c := &Controller{
		sched:    sched,
		surface:  surface,
		logger:   zap.NewNop(),
		minScale: DefaultMinScale,
		scale:    1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Attach sets the collaborators. Either may be nil, in which case ticks do
// nothing and do not reschedule.
func (c *Controller) Attach(r FrameRenderer, p SnapshotSource) {
	c.renderer = r
	c.pointers = p
}

// OnTick registers fn to run after every rendered frame, before the next
// frame is scheduled. fn may call Stop.
func (c *Controller) OnTick(fn graphics.FrameFunc) {
	c.hooks = append(c.hooks, fn)
}

// Start schedules the first frame.
func (c *Controller) Start() {
	if c.state == Running || c.renderer == nil || c.pointers == nil {
		return
	}
	c.state = Running
	c.handle = c.sched.RequestFrame(c.Tick)
	c.logger.Debug("Render loop started")
}

// Stop cancels the scheduled frame. A frame already executing completes.
func (c *Controller) Stop() {
	if c.handle != 0 {
		c.sched.CancelFrame(c.handle)
		c.handle = 0
	}
	if c.state == Running {
		c.logger.Debug("Render loop stopped", zap.Uint64("frames", c.frames))
	}
	c.state = Stopped
}

// Teardown stops the loop, resets the renderer's program and drops both
// collaborators.
func (c *Controller) Teardown() {
	c.Stop()
	if c.renderer != nil {
		c.renderer.Reset()
	}
	c.renderer = nil
	c.pointers = nil
}

// Tick renders one frame at now (milliseconds) and schedules the next.
func (c *Controller) Tick(now float64) {
	c.handle = 0
	if c.state != Running {
		return
	}
	if c.renderer == nil || c.pointers == nil {
		c.state = Stopped
		return
	}

	c.renderer.Render(now, c.pointers.Snapshot())
	c.frames++

	for _, hook := range c.hooks {
		hook(now)
	}

	if c.state == Running && c.renderer != nil && c.pointers != nil {
		c.handle = c.sched.RequestFrame(c.Tick)
	}
}

// Resize reacts to a viewport or device pixel ratio change. viewW and viewH
// are the host's logical viewport size.
func (c *Controller) Resize(viewW, viewH int, devicePixelRatio float64) {
	if c.surface == nil {
		return
	}
	scale := math.Max(c.minScale, 0.5*devicePixelRatio)
	c.scale = scale
	c.surface.SetDrawableSize(int(float64(viewW)*scale), int(float64(viewH)*scale))

	if c.renderer != nil {
		c.renderer.UpdateScale(scale)
	}
	if c.pointers != nil {
		c.pointers.Rescale(scale)
	}
}

// State returns the loop state.
func (c *Controller) State() State { return c.state }

// Frames returns the number of frames rendered.
func (c *Controller) Frames() uint64 { return c.frames }

// Scale returns the scale factor set by the last Resize.
func (c *Controller) Scale() float64 { return c.scale }
