// Package headless provides a window-less OpenGL context for offline
// rendering.
package headless

import "errors"

// ErrUnsupported is returned where EGL pbuffers are not available.
var ErrUnsupported = errors.New("egl headless rendering is not supported on this platform")
