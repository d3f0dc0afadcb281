package molecule

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/zeo/pkg/gl"
	"github.com/chazu/zeo/pkg/kernel/sdfx"
	"github.com/chazu/zeo/pkg/node"
	"github.com/chazu/zeo/pkg/pov"
	"github.com/chazu/zeo/pkg/scene"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func nearVec(a, b v3.Vec) bool { return near(a.X, b.X) && near(a.Y, b.Y) && near(a.Z, b.Z) }

func testShapes() *Shapes { return NewShapes(sdfx.NewWithCells(8)) }

// newMolecule builds a group holding two atoms and the bond between them.
func newMolecule(t *testing.T, shapes *Shapes, p, q v3.Vec) (*node.Group, *Atom, *Atom, *Bond) {
	t.Helper()
	g := node.NewGroup("mol")
	a := NewAtom(shapes, "a", "C", p)
	b := NewAtom(shapes, "b", "C", q)
	bond, err := NewBond(shapes, "ab", a, b)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []node.Node{a, b, bond} {
		if err := g.Add(n); err != nil {
			t.Fatal(err)
		}
	}
	return g, a, b, bond
}

func leased(t *testing.T, root node.Renderable) (*scene.Scene, *gl.Recorder) {
	t.Helper()
	dev := gl.NewRecorder(100, 100)
	sc := scene.New(dev, scene.WithSize(100, 100))
	if err := sc.SetRoot(root); err != nil {
		t.Fatal(err)
	}
	if err := sc.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if err := dev.Err(); err != nil {
		t.Fatalf("device: %v", err)
	}
	return sc, dev
}

func TestLookup(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
		ok     bool
	}{
		{"C", "C", true},
		{"c", "C", true},
		{"CL", "Cl", true},
		{" o ", "O", true},
		{"Xx", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			e, ok := Lookup(tt.symbol)
			if ok != tt.ok || e.Symbol != tt.want {
				t.Errorf("Lookup(%q) = %q, %v; want %q, %v", tt.symbol, e.Symbol, ok, tt.want, tt.ok)
			}
		})
	}
	if got := ElementOf("Xx"); got != Unknown {
		t.Errorf("ElementOf(Xx) = %v, want Unknown", got)
	}
}

func TestAtomDefaults(t *testing.T) {
	a := NewAtom(nil, "o1", "O", v3.Vec{X: 1})
	o, _ := Lookup("O")
	if a.Radius() != o.Radius || a.Color() != o.Color {
		t.Errorf("atom radius %g colour %v, want element defaults", a.Radius(), a.Color())
	}
	if err := a.SetRadius(2); err != nil {
		t.Fatal(err)
	}
	if a.Radius() != 2 {
		t.Errorf("Radius() = %g, want 2", a.Radius())
	}
	if err := a.SetRadius(-1); err == nil {
		t.Error("negative radius accepted")
	}
	if err := a.SetRadius(0); err != nil || a.Radius() != o.Radius {
		t.Errorf("SetRadius(0) = %v, radius %g; want element radius", err, a.Radius())
	}
	a.SetColor([4]float32{0, 1, 0, 1})
	if a.Color() != [4]float32{0, 1, 0, 1} {
		t.Errorf("Color() = %v after SetColor", a.Color())
	}
	a.SetElement("N")
	if a.Element().Symbol != "N" || a.Color() != [4]float32{0, 1, 0, 1} {
		t.Errorf("SetElement dropped the user colour: %v", a.Color())
	}
	a.ResetColor()
	if n, _ := Lookup("N"); a.Color() != n.Color {
		t.Errorf("ResetColor() left %v", a.Color())
	}
	if !nearVec(a.Position(), v3.Vec{X: 1}) {
		t.Errorf("Position() = %v", a.Position())
	}
}

func TestAtomsShareMeshes(t *testing.T) {
	shapes := testShapes()
	g := node.NewGroup("g")
	for i, sym := range []string{"C", "C", "O"} {
		if err := g.Add(NewAtom(shapes, sym, sym, v3.Vec{X: float64(i)})); err != nil {
			t.Fatal(err)
		}
	}
	_, dev := leased(t, g)
	if shapes.Len() != 2 {
		t.Errorf("cached %d meshes, want 2", shapes.Len())
	}
	if dev.Stats().Vertices == 0 {
		t.Error("nothing was drawn")
	}
}

func TestAtomBoundingBox(t *testing.T) {
	a := NewAtom(testShapes(), "c", "C", v3.Vec{X: 5})
	if err := a.SetRadius(1); err != nil {
		t.Fatal(err)
	}
	leased(t, a)
	box := a.BoundingBox()
	if !nearVec(box.Min(), v3.Vec{X: -1, Y: -1, Z: -1}) || !nearVec(box.Max(), v3.Vec{X: 1, Y: 1, Z: 1}) {
		t.Errorf("own box = %v..%v", box.Min(), box.Max())
	}
	pb := a.BoundingBoxInParentFrame()
	if !nearVec(pb.Min(), v3.Vec{X: 4, Y: -1, Z: -1}) || !nearVec(pb.Max(), v3.Vec{X: 6, Y: 1, Z: 1}) {
		t.Errorf("parent box = %v..%v", pb.Min(), pb.Max())
	}
}

func TestAtomPropertyInvalidatesDraw(t *testing.T) {
	a := NewAtom(testShapes(), "c", "C", v3.Vec{})
	sc, _ := leased(t, a)
	r := a.AsRenderer()
	a.SetElement("O")
	if r.IsValid(node.TierDraw) || r.IsValid(node.TierBoundingBox) {
		t.Error("element change left draw or bounding box valid")
	}
	if err := sc.Draw(); err != nil {
		t.Fatal(err)
	}
	if !r.IsValid(node.TierDraw) {
		t.Error("draw not revalidated")
	}
}

func TestBondFrame(t *testing.T) {
	tests := []struct {
		name string
		p, q v3.Vec
	}{
		{"along z", v3.Vec{}, v3.Vec{Z: 2}},
		{"against z", v3.Vec{Z: 1}, v3.Vec{Z: -1}},
		{"along x", v3.Vec{X: 1}, v3.Vec{X: 3}},
		{"diagonal", v3.Vec{X: 1, Y: 2, Z: 3}, v3.Vec{X: -1, Y: 0.5, Z: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, bond := newMolecule(t, nil, tt.p, tt.q)
			f := bond.Transformation()
			l := tt.q.Sub(tt.p).Length()
			if !near(bond.Length(), l) {
				t.Errorf("Length() = %g, want %g", bond.Length(), l)
			}
			if got := f.Apply(v3.Vec{}); !nearVec(got, tt.p) {
				t.Errorf("origin maps to %v, want %v", got, tt.p)
			}
			if got := f.Apply(v3.Vec{Z: l}); !nearVec(got, tt.q) {
				t.Errorf("(0,0,%g) maps to %v, want %v", l, got, tt.q)
			}
		})
	}
}

func TestBondDimensions(t *testing.T) {
	tests := []struct {
		name   string
		rb, re float64
		length float64
		want   Dimensions
	}{
		{
			name: "equal radii", rb: 1, re: 1, length: 2,
			want: Dimensions{Length: 2, BeginRadius: 0.5, EndRadius: 0.5, BeginPosition: 0, EndPosition: 2},
		},
		{
			name: "unequal radii", rb: 1, re: 0.5, length: 2,
			want: Dimensions{
				Length:        2,
				BeginRadius:   0.5 * math.Sqrt(0.9375),
				EndRadius:     0.25 * math.Sqrt(0.9375),
				BeginPosition: 0.125,
				EndPosition:   2.0625,
			},
		},
		{
			name: "touching inside", rb: 1, re: 0.5, length: 0.5,
			want: Dimensions{Length: 0.5, BeginPosition: 0.5, EndPosition: 0.75},
		},
		{
			name: "swallowed", rb: 1, re: 0.3, length: 0.1,
			want: Dimensions{Length: 0.1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, a, b, bond := newMolecule(t, nil, v3.Vec{}, v3.Vec{Z: tt.length})
			if err := a.SetRadius(tt.rb); err != nil {
				t.Fatal(err)
			}
			if err := b.SetRadius(tt.re); err != nil {
				t.Fatal(err)
			}
			d := bond.Dimensions()
			got := []float64{d.Length, d.BeginRadius, d.EndRadius, d.BeginPosition, d.EndPosition}
			want := []float64{tt.want.Length, tt.want.BeginRadius, tt.want.EndRadius, tt.want.BeginPosition, tt.want.EndPosition}
			for i := range got {
				if !near(got[i], want[i]) {
					t.Errorf("Dimensions() = %+v, want %+v", d, tt.want)
					break
				}
			}
		})
	}
}

func TestBondBoundingBox(t *testing.T) {
	g, a, b, bond := newMolecule(t, testShapes(), v3.Vec{}, v3.Vec{Z: 2})
	_ = a.SetRadius(1)
	_ = b.SetRadius(1)
	leased(t, g)
	box := bond.BoundingBox()
	if !nearVec(box.Min(), v3.Vec{X: -0.5, Y: -0.5}) || !nearVec(box.Max(), v3.Vec{X: 0.5, Y: 0.5, Z: 2}) {
		t.Errorf("bond box = %v..%v", box.Min(), box.Max())
	}
	gb := g.BoundingBox()
	if !nearVec(gb.Min(), v3.Vec{X: -1, Y: -1, Z: -1}) || !nearVec(gb.Max(), v3.Vec{X: 1, Y: 1, Z: 3}) {
		t.Errorf("group box = %v..%v", gb.Min(), gb.Max())
	}
}

func TestBondInsideAtomIsSkipped(t *testing.T) {
	g, a, b, bond := newMolecule(t, testShapes(), v3.Vec{}, v3.Vec{Z: 0.5})
	if err := a.SetRadius(1); err != nil {
		t.Fatal(err)
	}
	if err := b.SetRadius(0.5); err != nil {
		t.Fatal(err)
	}
	// leased fails the test if compiling the zero-radius cones errors.
	leased(t, g)
	if !bond.AsRenderer().IsValid(node.TierDraw) {
		t.Error("bond draw list not compiled")
	}
	parts, err := bond.Shape(sdfx.NewWithCells(8))
	if err != nil || len(parts) != 0 {
		t.Errorf("Shape() = %d parts, %v; want none", len(parts), err)
	}
	var buf bytes.Buffer
	bond.WritePOV(pov.NewIndenter(&buf))
	if buf.Len() != 0 {
		t.Errorf("WritePOV wrote %q for an undrawable bond", buf.String())
	}
}

func TestBondFollowsAtoms(t *testing.T) {
	g, a, _, bond := newMolecule(t, testShapes(), v3.Vec{}, v3.Vec{Z: 2})
	sc, _ := leased(t, g)
	r := bond.AsRenderer()

	a.SetPosition(v3.Vec{X: 2, Z: 2})
	for _, tier := range []node.Tier{node.TierTransformation, node.TierBoundingBox, node.TierDraw} {
		if r.IsValid(tier) {
			t.Errorf("atom move left bond %s valid", tier)
		}
	}
	if err := sc.Draw(); err != nil {
		t.Fatal(err)
	}
	if got := bond.Transformation().Translation(); !nearVec(got, v3.Vec{X: 2, Z: 2}) {
		t.Errorf("bond origin = %v, want (2, 0, 2)", got)
	}
	if !near(bond.Length(), 2) {
		t.Errorf("Length() = %g, want 2", bond.Length())
	}
	if !r.IsValid(node.TierTransformation) {
		t.Error("bond transformation not revalidated")
	}

	if err := a.SetRadius(0.5); err != nil {
		t.Fatal(err)
	}
	if r.IsValid(node.TierDraw) {
		t.Error("atom radius change left bond draw valid")
	}
	if err := sc.Draw(); err != nil {
		t.Fatal(err)
	}

	bond.Disconnect()
	if bond.Connected() {
		t.Error("Connected() after Disconnect")
	}
	a.SetPosition(v3.Vec{})
	if !r.IsValid(node.TierTransformation) {
		t.Error("disconnected bond still follows its atom")
	}
}

func TestNewBondRejectsTargets(t *testing.T) {
	a := NewAtom(nil, "a", "C", v3.Vec{})
	b := NewAtom(nil, "b", "C", v3.Vec{Z: 1})
	tests := []struct {
		name       string
		begin, end *Atom
	}{
		{"same atom", a, a},
		{"nil begin", nil, b},
		{"nil end", a, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewBond(nil, "x", tt.begin, tt.end); !errors.Is(err, ErrBondTargets) {
				t.Errorf("NewBond() error = %v, want ErrBondTargets", err)
			}
		})
	}
	bond, err := NewBond(nil, "ab", a, b)
	if err != nil {
		t.Fatal(err)
	}
	if bond.Other(a) != b || bond.Other(b) != a || bond.Other(NewAtom(nil, "c", "C", v3.Vec{})) != nil {
		t.Error("Other() does not pair the atoms")
	}
}

func TestDrawWithoutShapesFails(t *testing.T) {
	g, _, _, _ := newMolecule(t, nil, v3.Vec{}, v3.Vec{Z: 2})
	dev := gl.NewRecorder(100, 100)
	sc := scene.New(dev)
	if err := sc.SetRoot(g); err != nil {
		t.Fatal(err)
	}
	var rerr *node.RevalidationError
	if err := sc.Draw(); !errors.As(err, &rerr) {
		t.Fatalf("Draw() error = %v, want RevalidationError", err)
	}
	if rerr.Tier != node.TierDraw {
		t.Errorf("failed tier = %s, want draw", rerr.Tier)
	}
}

func TestBondType(t *testing.T) {
	for tt := Single; tt <= Hydrogen; tt++ {
		got, err := ParseBondType(tt.String())
		if err != nil || got != tt {
			t.Errorf("ParseBondType(%q) = %v, %v", tt.String(), got, err)
		}
	}
	if _, err := ParseBondType("quadruple"); err == nil {
		t.Error("ParseBondType accepted an unknown type")
	}

	g, _, _, bond := newMolecule(t, testShapes(), v3.Vec{}, v3.Vec{Z: 2})
	leased(t, g)
	bond.SetType(Double)
	if bond.Type() != Double || bond.AsRenderer().IsValid(node.TierDraw) {
		t.Error("SetType did not invalidate the draw list")
	}
}

func TestShape(t *testing.T) {
	k := sdfx.NewWithCells(8)
	_, a, _, bond := newMolecule(t, nil, v3.Vec{}, v3.Vec{Z: 2})
	parts, err := a.Shape(k)
	if err != nil || len(parts) != 1 || parts[0].Color != a.Color() {
		t.Fatalf("atom Shape() = %v, %v", parts, err)
	}
	parts, err = bond.Shape(k)
	if err != nil || len(parts) != 2 {
		t.Fatalf("bond Shape() = %d parts, %v", len(parts), err)
	}
	_, max := parts[1].Solid.BoundingBox()
	if d := bond.Dimensions(); math.Abs(max[2]-d.EndPosition) > 1e-6 {
		t.Errorf("second cone ends at %g, want %g", max[2], d.EndPosition)
	}
}

func TestWritePOV(t *testing.T) {
	a := NewAtom(nil, "c", "C", v3.Vec{X: 1, Y: 2, Z: 3})
	var buf bytes.Buffer
	a.WritePOV(pov.NewIndenter(&buf))
	want := strings.Join([]string{
		"sphere {",
		"  <0.0, 0.0, 0.0>, 0.760000",
		"  pigment { rgb <0.500000, 0.500000, 0.500000> }",
		"  finish { my_finish }",
		"  translate <1.000000, 2.000000, 3.000000>",
		"}",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("atom POV:\n%s\nwant:\n%s", buf.String(), want)
	}

	_, x, y, bond := newMolecule(t, nil, v3.Vec{}, v3.Vec{Z: 2})
	_ = x.SetRadius(1)
	_ = y.SetRadius(1)
	buf.Reset()
	in := pov.NewIndenter(&buf)
	bond.WritePOV(in)
	out := buf.String()
	for _, line := range []string{
		"union {",
		"  cone {",
		"    <0.0, 0.0, 0.000000>, 0.500000, <0.0, 0.0, 1.000000>, 0.500000",
		"    <0.0, 0.0, 1.000000>, 0.500000, <0.0, 0.0, 2.000000>, 0.500000",
		"  finish { my_finish }",
	} {
		if !strings.Contains(out, line+"\n") {
			t.Errorf("bond POV missing %q:\n%s", line, out)
		}
	}
	if strings.Count(out, "cone {") != 2 || in.Level() != 0 {
		t.Errorf("bond POV unbalanced:\n%s", out)
	}
}
