package scene

import (
	"errors"
	"math"
	"slices"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/zeo/pkg/geom"
	"github.com/chazu/zeo/pkg/gl"
	"github.com/chazu/zeo/pkg/node"
)

// tile is a 2x2 square in the z=0 plane of its own frame.
type tile struct {
	node.Transformer
	fail  error
	onBox func()
}

func newTile(name string, at v3.Vec) *tile {
	t := &tile{}
	t.Init(t, name)
	t.SetTransformation(geom.NewTranslation(at))
	return t
}

func (t *tile) Draw(dev gl.Device) error {
	if t.fail != nil {
		return t.fail
	}
	dev.Begin(gl.Triangles)
	for _, p := range [][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, -1}, {1, 1}, {-1, 1}} {
		dev.Vertex(p[0], p[1], 0)
	}
	dev.End()
	return nil
}

func (t *tile) ExtendBoundingBox(b *geom.BoundingBox) error {
	if t.onBox != nil {
		t.onBox()
	}
	b.ExtendPoint(v3.Vec{X: -1, Y: -1})
	b.ExtendPoint(v3.Vec{X: 1, Y: 1})
	return nil
}

type countingSurface struct{ n int }

func (c *countingSurface) QueueDraw() { c.n++ }

func newTestScene(t *testing.T, opts ...Option) (*Scene, *gl.Recorder) {
	t.Helper()
	rec := gl.NewRecorder(100, 100)
	opts = append([]Option{WithSize(100, 100)}, opts...)
	return New(rec, opts...), rec
}

func TestQueueDedup(t *testing.T) {
	var q Queue
	a, b := newTile("a", v3.Vec{}), newTile("b", v3.Vec{})
	q.Enqueue(node.Revalidation{Target: a, Tier: node.TierDraw})
	q.Enqueue(node.Revalidation{Target: b, Tier: node.TierBoundingBox})
	q.Enqueue(node.Revalidation{Target: a, Tier: node.TierDraw})
	q.Enqueue(node.Revalidation{Target: a, Tier: node.TierTotal})
	if q.Len() != 3 {
		t.Fatalf("Len = %d, want 3", q.Len())
	}
	p := q.Pending()
	if p[0].Target != node.Renderable(a) || p[1].Target != node.Renderable(b) || p[2].Tier != node.TierTotal {
		t.Errorf("Pending = %v", p)
	}
	if err := q.Drain(); err != nil {
		t.Fatal(err)
	}
	if q.Len() != 0 {
		t.Errorf("Len = %d after drain, want 0", q.Len())
	}
}

func TestDrainStopsAtFailure(t *testing.T) {
	s, _ := newTestScene(t)
	x, y := newTile("x", v3.Vec{}), newTile("y", v3.Vec{})
	x.fail = errors.New("broken mesh")
	for _, n := range []*tile{x, y} {
		if err := n.AcquireResources(s); err != nil {
			t.Fatal(err)
		}
	}

	err := s.Revalidate()
	var rerr *node.RevalidationError
	if !errors.As(err, &rerr) {
		t.Fatalf("err = %v, want *node.RevalidationError", err)
	}
	if rerr.Node != "x" || rerr.Tier != node.TierDraw {
		t.Errorf("failure reported for %s of %q, want draw of x", rerr.Tier, rerr.Node)
	}
	pending := s.Queue().Pending()
	if len(pending) == 0 || pending[0] != (node.Revalidation{Target: x, Tier: node.TierDraw}) {
		t.Fatalf("pending = %v, want the failed entry first", pending)
	}
	if y.IsValid(node.TierDraw) {
		t.Error("entries after the failure ran")
	}
	if x.IsValid(node.TierDraw) {
		t.Error("failed tier marked valid")
	}

	x.fail = nil
	if err := s.Revalidate(); err != nil {
		t.Fatal(err)
	}
	if !x.IsValid(node.TierDraw) || !y.IsValid(node.TierDraw) {
		t.Error("tiers invalid after a successful drain")
	}
}

func TestEnqueueDuringDrain(t *testing.T) {
	s, _ := newTestScene(t)
	a, b := newTile("a", v3.Vec{}), newTile("b", v3.Vec{})
	for _, n := range []*tile{a, b} {
		if err := n.AcquireResources(s); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Revalidate(); err != nil {
		t.Fatal(err)
	}

	a.onBox = func() { b.InvalidateDraw() }
	a.InvalidateBoundingBox()
	if err := s.Revalidate(); err != nil {
		t.Fatal(err)
	}
	if s.Queue().Len() != 0 {
		t.Errorf("queue length = %d, want 0", s.Queue().Len())
	}
	if !b.IsValid(node.TierDraw) {
		t.Error("entry enqueued while draining did not run")
	}
}

func TestDrawDrainsFirst(t *testing.T) {
	surf := &countingSurface{}
	s, rec := newTestScene(t, WithSurface(surf))
	root := node.NewGroup("root")
	if err := root.Add(newTile("a", v3.Vec{})); err != nil {
		t.Fatal(err)
	}
	if err := s.SetRoot(root); err != nil {
		t.Fatal(err)
	}
	if !s.NeedsRedraw() || surf.n == 0 {
		t.Error("setting the root did not request a redraw")
	}

	rec.ResetStats()
	if err := s.Draw(); err != nil {
		t.Fatal(err)
	}
	if s.Queue().Len() != 0 {
		t.Error("queue not drained by Draw")
	}
	if s.NeedsRedraw() {
		t.Error("redraw still pending after Draw")
	}
	if rec.Stats().Vertices != 6 {
		t.Errorf("vertices drawn = %d, want 6", rec.Stats().Vertices)
	}
	if err := rec.Err(); err != nil {
		t.Fatal(err)
	}
}

func TestDrawSkippedWhenDrainFails(t *testing.T) {
	s, rec := newTestScene(t)
	bad := newTile("bad", v3.Vec{})
	bad.fail = errors.New("broken mesh")
	if err := s.SetRoot(bad); err != nil {
		t.Fatal(err)
	}
	rec.ResetStats()
	if err := s.Draw(); err == nil {
		t.Fatal("expected error")
	}
	if rec.Stats().Calls != 0 {
		t.Errorf("lists executed = %d after a failed drain, want 0", rec.Stats().Calls)
	}
}

func TestSetRootLeases(t *testing.T) {
	s, rec := newTestScene(t)
	root := node.NewGroup("root")
	a := newTile("a", v3.Vec{})
	if err := root.Add(a); err != nil {
		t.Fatal(err)
	}
	if err := s.SetRoot(root); err != nil {
		t.Fatal(err)
	}
	if root.Active() != 1 || a.Active() != 1 {
		t.Fatal("root or child not leased")
	}
	if s.Registered() != 2 {
		t.Errorf("registered = %d, want 2", s.Registered())
	}
	draw, _ := a.List(node.TierDraw)
	if n, ok := s.Lookup(draw); !ok || n != node.Renderable(a) {
		t.Error("Lookup did not resolve the child's draw list")
	}

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if root.Active() != 0 || a.Active() != 0 {
		t.Error("leases kept after Close")
	}
	if s.Registered() != 0 || rec.Live() != 0 {
		t.Errorf("registered = %d, live lists = %d after Close", s.Registered(), rec.Live())
	}
}

func pickScene(t *testing.T) (s *Scene, a, b, c *tile) {
	t.Helper()
	s, _ = newTestScene(t, WithPickRadius(3))
	root := node.NewGroup("root")
	a = newTile("a", v3.Vec{})
	b = newTile("b", v3.Vec{Z: 5})
	c = newTile("c", v3.Vec{X: 10})
	for _, n := range []node.Node{a, b, c} {
		if err := root.Add(n); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.SetRoot(root); err != nil {
		t.Fatal(err)
	}
	return s, a, b, c
}

func TestHits(t *testing.T) {
	s, a, b, c := pickScene(t)

	tests := []struct {
		name                     string
		left, top, right, bottom int
		want                     []node.Renderable
	}{
		{"centre", 47, 47, 53, 53, []node.Renderable{a, b}},
		{"right", 88, 48, 92, 52, []node.Renderable{c}},
		{"whole window", 0, 0, 100, 100, []node.Renderable{a, b, c}},
		{"empty corner", 0, 0, 5, 5, nil},
		{"reversed corners", 53, 53, 47, 47, []node.Renderable{a, b}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Hits(tt.left, tt.top, tt.right, tt.bottom)
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("hits = %v, want %v", names(got), names(tt.want))
			}
		})
	}
}

func TestHiddenNodesAreNotHit(t *testing.T) {
	s, a, b, _ := pickScene(t)
	b.SetVisible(false)
	got, err := s.Hits(47, 47, 53, 53)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []node.Renderable{a}) {
		t.Errorf("hits = %v, want [a]", names(got))
	}
}

func TestNearest(t *testing.T) {
	s, _, b, _ := pickScene(t)
	got, err := s.Nearest(50, 50)
	if err != nil {
		t.Fatal(err)
	}
	if got != node.Renderable(b) {
		t.Errorf("Nearest = %v, want b", names([]node.Renderable{got}))
	}
	got, err = s.Nearest(10, 90)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("Nearest on empty space = %v, want nil", names([]node.Renderable{got}))
	}
}

func TestSelectionOverflow(t *testing.T) {
	s, _, _, _ := pickScene(t)
	s.selectBuffer = 4
	got, err := s.Hits(0, 0, 100, 100)
	if !errors.Is(err, gl.ErrSelectionOverflow) {
		t.Fatalf("err = %v, want ErrSelectionOverflow", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d hits, want none: each record needs five words", len(got))
	}
}

type drawOnly struct{ gl.Device }

func TestHitsNeedSelector(t *testing.T) {
	s := New(drawOnly{gl.NewRecorder(10, 10)})
	if _, err := s.Hits(0, 0, 10, 10); !errors.Is(err, ErrNoSelection) {
		t.Errorf("err = %v, want ErrNoSelection", err)
	}
}

func names(ns []node.Renderable) []string {
	var out []string
	for _, n := range ns {
		if n == nil {
			out = append(out, "<nil>")
			continue
		}
		out = append(out, n.AsBase().Name())
	}
	return out
}

func TestCameraHelpers(t *testing.T) {
	s, _ := newTestScene(t)
	cam := s.Camera()

	x, y := s.PositionOf(v3.Vec{})
	if math.Abs(x-50) > 1e-9 || math.Abs(y-50) > 1e-9 {
		t.Errorf("origin at (%g, %g), want (50, 50)", x, y)
	}
	x, y = s.PositionOf(v3.Vec{X: 10, Y: 5})
	if math.Abs(x-90) > 1e-6 || math.Abs(y-30) > 1e-6 {
		t.Errorf("(10, 5, 0) at (%g, %g), want (90, 30)", x, y)
	}
	if d := cam.Depth(v3.Vec{}); math.Abs(d-cam.Distance()) > 1e-9 {
		t.Errorf("depth of origin = %g, want %g", d, cam.Distance())
	}
	if got := cam.ScaleAt(cam.Distance(), 100, 100); math.Abs(got-0.25) > 1e-9 {
		t.Errorf("scale at centre = %g units/pixel, want 0.25", got)
	}
	n := newTile("n", v3.Vec{Z: 5})
	if d := s.DepthOf(n); math.Abs(d-(cam.Distance()-5)) > 1e-9 {
		t.Errorf("DepthOf = %g, want %g", d, cam.Distance()-5)
	}
}

func TestOrthographicProjection(t *testing.T) {
	cam := Camera{WindowSize: 10, Orientation: geom.Identity()}
	p := cam.Projection(200, 100)
	e := cam.ViewPosition(v3.Vec{Y: 5})
	c := gl.Transform(&p, e.X, e.Y, e.Z)
	if math.Abs(c[1]/c[3]-1) > 1e-9 {
		t.Errorf("top of window maps to ndc y %g, want 1", c[1]/c[3])
	}
	e = cam.ViewPosition(v3.Vec{X: 10})
	c = gl.Transform(&p, e.X, e.Y, e.Z)
	if math.Abs(c[0]/c[3]-1) > 1e-9 {
		t.Errorf("right of window maps to ndc x %g, want 1", c[0]/c[3])
	}
}

func TestToReduced(t *testing.T) {
	s, _ := newTestScene(t, WithSize(100, 50))
	tests := []struct {
		x, y, rx, ry float64
	}{
		{50, 25, 0, 0},
		{100, 25, 1, 0},
		{50, 0, 0, 0.5},
	}
	for _, tt := range tests {
		rx, ry := s.ToReduced(tt.x, tt.y)
		if rx != tt.rx || ry != tt.ry {
			t.Errorf("ToReduced(%g, %g) = (%g, %g), want (%g, %g)", tt.x, tt.y, rx, ry, tt.rx, tt.ry)
		}
	}
}

func TestToolOverlay(t *testing.T) {
	s, rec := newTestScene(t)
	s.ToolRectangle(10, 10, 40, 30)
	if !s.ToolActive() {
		t.Fatal("tool overlay not active")
	}
	listing := rec.Listing(s.tool)
	if !slices.Contains(listing, "begin line-loop") {
		t.Errorf("tool list = %v, want a line loop", listing)
	}

	rec.ResetStats()
	if err := s.Draw(); err != nil {
		t.Fatal(err)
	}
	if rec.Stats().Vertices != 4 {
		t.Errorf("vertices drawn = %d, want the 4 rectangle corners", rec.Stats().Vertices)
	}

	s.ToolChain([][2]float64{{0, 0}, {5, 5}, {10, 0}})
	if !slices.Contains(rec.Listing(s.tool), "begin line-strip") {
		t.Error("ToolChain did not replace the overlay")
	}
	s.ToolLine(0, 0, 1, 1)
	s.ToolCustom(func(dev gl.Device) {
		dev.Begin(gl.Points)
		dev.Vertex(1, 1, 0)
		dev.End()
	})
	if !slices.Contains(rec.Listing(s.tool), "begin points") {
		t.Error("ToolCustom did not replace the overlay")
	}

	s.ToolClear()
	rec.ResetStats()
	if err := s.Draw(); err != nil {
		t.Fatal(err)
	}
	if s.ToolActive() || rec.Stats().Vertices != 0 {
		t.Error("overlay still drawn after ToolClear")
	}
}
