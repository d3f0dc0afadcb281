package node

import "github.com/chazu/zeo/pkg/geom"

// localFrame is the frame n places its children in relative to its own
// parent. Nodes without a transformation contribute the identity.
func localFrame(n Node) geom.Frame {
	if t, ok := n.(Transformable); ok {
		return t.Transformation()
	}
	return geom.Identity()
}

// FrameUpTo returns the frame mapping n's coordinates into ancestor's.
// A nil ancestor means world coordinates.
func FrameUpTo(n, ancestor Node) (geom.Frame, error) {
	f := geom.Identity()
	for cur := n; cur != ancestor; cur = cur.AsBase().parent {
		if cur == nil {
			return geom.Frame{}, &FrameQueryError{Node: nameOf(n), Other: nameOf(ancestor)}
		}
		f = localFrame(cur).Compose(f)
	}
	return f, nil
}

// AbsoluteFrame returns the frame mapping n's coordinates to world
// coordinates.
func AbsoluteFrame(n Node) geom.Frame {
	f, _ := FrameUpTo(n, nil)
	return f
}

// FrameRelativeTo returns the frame mapping n's coordinates into other's,
// going through their deepest common ancestor.
func FrameRelativeTo(n, other Node) (geom.Frame, error) {
	common := CommonAncestor(n, other)
	if common == nil {
		return geom.Frame{}, &FrameQueryError{Node: nameOf(n), Other: nameOf(other)}
	}
	up, err := FrameUpTo(n, common)
	if err != nil {
		return geom.Frame{}, err
	}
	down, err := FrameUpTo(other, common)
	if err != nil {
		return geom.Frame{}, err
	}
	return down.Inverse().Compose(up), nil
}
