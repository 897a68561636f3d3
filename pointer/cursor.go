package pointer

// Sink receives contact events in logical pixel coordinates.
type Sink interface {
	ContactStart(id int, clientX, clientY float64)
	ContactMove(id int, clientX, clientY, movementX, movementY float64)
	ContactEnd(id int)
	ContactCancel(id int)
}

var _ Sink = (*Aggregator)(nil)

// Cursor turns the events of a host with a single cursor (a mouse) into
// contact events for one contact id. Movement deltas are taken from the
// previous cursor position; the first position after entering has none.
type Cursor struct {
	id   int
	sink Sink

	lastX, lastY float64
	haveCursor   bool
}

// NewCursor returns a Cursor reporting contact id.
func NewCursor(id int) *Cursor {
	return &Cursor{id: id}
}

// SetSink routes events to sink; nil drops them. Position tracking
// continues either way.
func (c *Cursor) SetSink(sink Sink) { c.sink = sink }

// Press starts the contact at (x, y).
func (c *Cursor) Press(x, y float64) {
	if c.sink != nil {
		c.sink.ContactStart(c.id, x, y)
	}
}

// Release ends the contact.
func (c *Cursor) Release() {
	if c.sink != nil {
		c.sink.ContactEnd(c.id)
	}
}

// MoveTo reports the cursor at (x, y).
func (c *Cursor) MoveTo(x, y float64) {
	dx, dy := 0.0, 0.0
	if c.haveCursor {
		dx, dy = x-c.lastX, y-c.lastY
	}
	c.lastX, c.lastY, c.haveCursor = x, y, true
	if c.sink != nil {
		c.sink.ContactMove(c.id, x, y, dx, dy)
	}
}

// Leave forgets the cursor position and cancels the contact.
func (c *Cursor) Leave() {
	c.haveCursor = false
	if c.sink != nil {
		c.sink.ContactCancel(c.id)
	}
}
