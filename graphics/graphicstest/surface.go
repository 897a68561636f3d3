package graphicstest

import "github.com/richinsley/goshaderhero/graphics"

// Surface is a fixed-size fake drawable.
type Surface struct {
	Width, Height                 int
	DrawableWidth, DrawableHeight int
}

// NewSurface returns a surface whose drawable matches its logical size.
func NewSurface(width, height int) *Surface {
	return &Surface{Width: width, Height: height, DrawableWidth: width, DrawableHeight: height}
}

func (s *Surface) Size() (int, int) { return s.Width, s.Height }

func (s *Surface) SetDrawableSize(width, height int) {
	s.DrawableWidth, s.DrawableHeight = width, height
}

func (s *Surface) DrawableSize() (int, int) { return s.DrawableWidth, s.DrawableHeight }

var _ graphics.Surface = (*Surface)(nil)
