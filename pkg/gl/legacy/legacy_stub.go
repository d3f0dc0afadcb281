//go:build !legacygl

package legacy

import "errors"

// New returns an error indicating OpenGL support was not compiled in.
// Build with -tags=legacygl to enable.
func New() (Device, error) {
	return nil, errors.New("legacy OpenGL device not available: build with -tags=legacygl")
}
