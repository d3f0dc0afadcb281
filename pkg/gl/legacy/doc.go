// Package legacy implements gl.Device and gl.Selector on an OpenGL 2.1
// compatibility context through github.com/go-gl/gl. A context must be
// current on the calling thread before New is called. Without the
// "legacygl" build tag New returns an error.
//
// Build with: go build -tags=legacygl
package legacy

import "github.com/chazu/zeo/pkg/gl"

// Device is a drawing device that also supports selection rendering.
type Device interface {
	gl.Device
	gl.Selector
}
