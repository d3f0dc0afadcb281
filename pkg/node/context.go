package node

import (
	"fmt"

	"github.com/chazu/zeo/pkg/gl"
)

// Tier identifies one cached list of a node.
type Tier int

const (
	TierDraw Tier = iota
	TierBoundingBox
	TierTotal
	TierTransformation
	numTiers
)

func (t Tier) String() string {
	switch t {
	case TierDraw:
		return "draw"
	case TierBoundingBox:
		return "bounding box"
	case TierTotal:
		return "total"
	case TierTransformation:
		return "transformation"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// Revalidation is one pending unit of deferred work. Values are
// comparable; two entries for the same node and tier are equal.
type Revalidation struct {
	Target Renderable
	Tier   Tier
}

// Run revalidates the target tier. It is a no-op when the tier is already
// valid or the target holds no lease.
func (r Revalidation) Run() error {
	return r.Target.Revalidate(r.Tier)
}

func (r Revalidation) String() string {
	return fmt.Sprintf("%s(%s)", r.Tier, nameOf(r.Target))
}

// Context is the rendering surface a node compiles into. It is passed to
// AcquireResources and kept for the duration of the lease.
type Context interface {
	Device() gl.Device
	// RequestRedraw asks for a new frame to be drawn.
	RequestRedraw()
	// Enqueue schedules r to run before the next frame. Duplicate
	// entries are dropped.
	Enqueue(r Revalidation)
	// Register maps a draw list to its node for picking.
	Register(l gl.List, n Renderable)
	Unregister(l gl.List)
}
