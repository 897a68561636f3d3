// Package pointer tracks the contacts (mouse buttons held, touches, pens)
// currently down on a drawable surface and aggregates them into the values
// the hero shader consumes once per frame.
package pointer

import (
	"slices"

	"github.com/richinsley/goshaderhero/graphics"
)

// MaxPointers is the capacity of the shader's pointers[] uniform array.
const MaxPointers = 10

// Point is a coordinate in drawable pixel space, origin bottom-left.
type Point struct {
	X, Y float32
}

// Snapshot is a point-in-time copy of the aggregator state.
type Snapshot struct {
	// Count is the number of active contacts; len(Coords) == 2*Count.
	Count int
	// Coords holds x0,y0,x1,y1,... in first-contact order.
	Coords []float32
	// Primary is the first active contact, or the last contact released
	// when none is active.
	Primary Point
	// Move is the cumulative movement delta since the last ResetMove.
	Move Point
}

type contact struct {
	id  int
	pos Point
}

// Aggregator owns the contact table. It is not safe for concurrent use; all
// calls are expected on the thread that dispatches input events and frames.
type Aggregator struct {
	surface  graphics.Surface
	scale    float64
	capacity int

	active   bool
	contacts []contact
	fallback Point
	move     Point
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithCapacity lowers the number of simultaneous contacts tracked. Values
// outside 1..MaxPointers are ignored.
func WithCapacity(n int) Option {
	return func(a *Aggregator) {
		if n >= 1 && n <= MaxPointers {
			a.capacity = n
		}
	}
}

// New returns an aggregator mapping client coordinates on surface with the
// given scale factor.
func New(surface graphics.Surface, scale float64, opts ...Option) *Aggregator {
	a := &Aggregator{
		surface:  surface,
		scale:    scale,
		capacity: MaxPointers,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// mapCoords converts client coordinates (origin top-left, logical pixels)
// to drawable coordinates (origin bottom-left, scaled).
func (a *Aggregator) mapCoords(x, y float64) Point {
	_, h := a.surface.Size()
	return Point{
		X: float32(x * a.scale),
		Y: float32(float64(h)*a.scale - y*a.scale),
	}
}

func (a *Aggregator) index(id int) int {
	return slices.IndexFunc(a.contacts, func(c contact) bool { return c.id == id })
}

// ContactStart registers a new contact. A start for an id that is already
// down updates its position; starts beyond capacity are dropped.
func (a *Aggregator) ContactStart(id int, clientX, clientY float64) {
	pos := a.mapCoords(clientX, clientY)
	if i := a.index(id); i >= 0 {
		a.contacts[i].pos = pos
		a.active = true
		return
	}
	if len(a.contacts) >= a.capacity {
		return
	}
	a.contacts = append(a.contacts, contact{id: id, pos: pos})
	a.active = true
}

// ContactMove updates a contact's position and accumulates the movement
// delta. Moves are ignored entirely while no contact is down.
func (a *Aggregator) ContactMove(id int, clientX, clientY, movementX, movementY float64) {
	if !a.active {
		return
	}
	if i := a.index(id); i >= 0 {
		a.contacts[i].pos = a.mapCoords(clientX, clientY)
	}
	a.move.X += float32(movementX)
	a.move.Y += float32(movementY)
}

// ContactEnd releases a contact. When the last contact is released its
// position becomes the fallback primary coordinate.
func (a *Aggregator) ContactEnd(id int) {
	if len(a.contacts) == 1 {
		a.fallback = a.contacts[0].pos
	}
	if i := a.index(id); i >= 0 {
		a.contacts = slices.Delete(a.contacts, i, i+1)
	}
	a.active = len(a.contacts) > 0
}

// ContactCancel handles a cancelled contact or one that left the surface.
func (a *Aggregator) ContactCancel(id int) {
	a.ContactEnd(id)
}

// Snapshot returns the current aggregate. The returned Coords slice is not
// shared with the aggregator.
func (a *Aggregator) Snapshot() Snapshot {
	s := Snapshot{
		Count:   len(a.contacts),
		Coords:  make([]float32, 0, 2*len(a.contacts)),
		Primary: a.fallback,
		Move:    a.move,
	}
	for _, c := range a.contacts {
		s.Coords = append(s.Coords, c.pos.X, c.pos.Y)
	}
	if len(a.contacts) > 0 {
		s.Primary = a.contacts[0].pos
	}
	return s
}

// Rescale changes the factor applied to coordinates mapped from now on.
// Stored positions are left as they are.
func (a *Aggregator) Rescale(scale float64) {
	a.scale = scale
}

// Scale returns the current scale factor.
func (a *Aggregator) Scale() float64 { return a.scale }

// ResetMove zeroes the movement accumulator.
func (a *Aggregator) ResetMove() {
	a.move = Point{}
}

// Active reports whether at least one contact is down.
func (a *Aggregator) Active() bool { return a.active }
