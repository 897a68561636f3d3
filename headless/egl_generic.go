//go:build !linux

package headless

import (
	"go.uber.org/zap"

	"github.com/richinsley/goshaderhero/graphics"
)

// Headless is unavailable off Linux.
type Headless struct {
	graphics.Context
	graphics.Surface
}

func NewHeadless(width, height int, logger *zap.Logger) (*Headless, error) {
	return nil, ErrUnsupported
}
