package gl

import (
	"errors"
	"fmt"
)

// maxCallDepth bounds nested CallList execution, matching the minimum
// nesting depth OpenGL guarantees.
const maxCallDepth = 64

type opcode uint8

const (
	opCall opcode = iota
	opPushName
	opPopName
	opPushMatrix
	opPopMatrix
	opMultMatrix
	opColor
	opBegin
	opNormal
	opVertex
	opEnd
)

type command struct {
	op  opcode
	arg uint32
	m   [16]float64
	v   [3]float64
	c   [4]float32
}

func (c command) String() string {
	switch c.op {
	case opCall:
		return fmt.Sprintf("call %d", c.arg)
	case opPushName:
		return fmt.Sprintf("push-name %d", c.arg)
	case opPopName:
		return "pop-name"
	case opPushMatrix:
		return "push-matrix"
	case opPopMatrix:
		return "pop-matrix"
	case opMultMatrix:
		return fmt.Sprintf("mult-matrix t=(%g %g %g)", c.m[12], c.m[13], c.m[14])
	case opColor:
		return fmt.Sprintf("color %g %g %g %g", c.c[0], c.c[1], c.c[2], c.c[3])
	case opBegin:
		return "begin " + Primitive(c.arg).String()
	case opNormal:
		return fmt.Sprintf("normal %g %g %g", c.v[0], c.v[1], c.v[2])
	case opVertex:
		return fmt.Sprintf("vertex %g %g %g", c.v[0], c.v[1], c.v[2])
	case opEnd:
		return "end"
	default:
		return fmt.Sprintf("op(%d)", c.op)
	}
}

// Stats counts the work a Recorder has done since the last ResetStats.
type Stats struct {
	Compiles   int // lists compiled
	Calls      int // lists executed
	Primitives int // primitives assembled while executing
	Vertices   int // vertices submitted while executing
}

// Recorder is a software Device. It keeps display lists in memory,
// executes them against its own matrix and name stacks, and implements
// Selector by projecting primitives into window space.
//
// Errors are sticky: the first one is kept and returned by Err, the way
// OpenGL reports errors through glGetError.
type Recorder struct {
	next  List
	lists map[List][]command

	compiling List
	buf       []command

	projection [16]float64
	modelview  [][16]float64
	viewport   Rect
	names      []uint32
	color      [4]float32

	mode      Primitive
	inPrim    bool
	prim      []vertex
	depth     int
	stats     Stats
	selecting bool
	region    Rect
	capacity  int
	used      int
	hits      []Hit
	hitFlag   bool
	hitMin    float64
	hitMax    float64
	overflow  bool

	err error
}

type vertex struct {
	x, y, z float64 // window coordinates
	ok      bool    // inside the view volume
}

// Compile-time interface checks.
var (
	_ Device   = (*Recorder)(nil)
	_ Selector = (*Recorder)(nil)
)

// NewRecorder returns a Recorder with identity matrices and a viewport of
// the given size.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{
		next:       1,
		lists:      make(map[List][]command),
		projection: Identity,
		modelview:  [][16]float64{Identity},
		viewport:   Rect{Width: width, Height: height},
		color:      [4]float32{1, 1, 1, 1},
	}
}

// Err returns the first error recorded since the last call and clears it.
func (r *Recorder) Err() error {
	err := r.err
	r.err = nil
	return err
}

func (r *Recorder) fail(format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf("gl: "+format, args...)
	}
}

// Stats returns the execution counters.
func (r *Recorder) Stats() Stats { return r.stats }

// ResetStats zeroes the execution counters.
func (r *Recorder) ResetStats() { r.stats = Stats{} }

// Live returns the number of allocated lists.
func (r *Recorder) Live() int { return len(r.lists) }

// Has reports whether l is allocated.
func (r *Recorder) Has(l List) bool {
	_, ok := r.lists[l]
	return ok
}

// Listing returns a readable form of the commands compiled into l.
func (r *Recorder) Listing(l List) []string {
	cmds := r.lists[l]
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.String()
	}
	return out
}

// Compiling reports whether a list is currently being compiled.
func (r *Recorder) Compiling() bool { return r.compiling != 0 }

// GenLists implements Device.
func (r *Recorder) GenLists(n int) List {
	if n <= 0 {
		r.fail("GenLists(%d): invalid range", n)
		return 0
	}
	first := r.next
	for i := 0; i < n; i++ {
		r.lists[first+List(i)] = nil
	}
	r.next += List(n)
	return first
}

// DeleteLists implements Device.
func (r *Recorder) DeleteLists(first List, n int) {
	for i := 0; i < n; i++ {
		delete(r.lists, first+List(i))
	}
}

// NewList implements Device.
func (r *Recorder) NewList(l List) {
	if r.compiling != 0 {
		r.fail("NewList(%d) while compiling %d", l, r.compiling)
		return
	}
	if l == 0 {
		r.fail("NewList(0)")
		return
	}
	r.compiling = l
	r.buf = nil
}

// EndList implements Device.
func (r *Recorder) EndList() {
	if r.compiling == 0 {
		r.fail("EndList without NewList")
		return
	}
	r.lists[r.compiling] = r.buf
	r.compiling = 0
	r.buf = nil
	r.stats.Compiles++
}

func (r *Recorder) record(c command) bool {
	if r.compiling == 0 {
		return false
	}
	r.buf = append(r.buf, c)
	return true
}

// CallList implements Device.
func (r *Recorder) CallList(l List) {
	if r.record(command{op: opCall, arg: uint32(l)}) {
		return
	}
	r.execute(l)
}

func (r *Recorder) execute(l List) {
	cmds, ok := r.lists[l]
	if !ok {
		return
	}
	if r.depth >= maxCallDepth {
		r.fail("CallList(%d): nesting deeper than %d", l, maxCallDepth)
		return
	}
	r.depth++
	r.stats.Calls++
	for _, c := range cmds {
		r.run(c)
	}
	r.depth--
}

func (r *Recorder) run(c command) {
	switch c.op {
	case opCall:
		r.execute(List(c.arg))
	case opPushName:
		r.pushName(c.arg)
	case opPopName:
		r.popName()
	case opPushMatrix:
		r.pushMatrix()
	case opPopMatrix:
		r.popMatrix()
	case opMultMatrix:
		r.multMatrix(&c.m)
	case opColor:
		r.color = c.c
	case opBegin:
		r.begin(Primitive(c.arg))
	case opNormal:
	case opVertex:
		r.vertex(c.v[0], c.v[1], c.v[2])
	case opEnd:
		r.end()
	}
}

// PushName implements Device.
func (r *Recorder) PushName(name uint32) {
	if r.record(command{op: opPushName, arg: name}) {
		return
	}
	r.pushName(name)
}

func (r *Recorder) pushName(name uint32) {
	r.flushHit()
	r.names = append(r.names, name)
}

// PopName implements Device.
func (r *Recorder) PopName() {
	if r.record(command{op: opPopName}) {
		return
	}
	r.popName()
}

func (r *Recorder) popName() {
	if len(r.names) == 0 {
		r.fail("PopName: name stack underflow")
		return
	}
	r.flushHit()
	r.names = r.names[:len(r.names)-1]
}

// PushMatrix implements Device.
func (r *Recorder) PushMatrix() {
	if r.record(command{op: opPushMatrix}) {
		return
	}
	r.pushMatrix()
}

func (r *Recorder) pushMatrix() {
	r.modelview = append(r.modelview, r.modelview[len(r.modelview)-1])
}

// PopMatrix implements Device.
func (r *Recorder) PopMatrix() {
	if r.record(command{op: opPopMatrix}) {
		return
	}
	r.popMatrix()
}

func (r *Recorder) popMatrix() {
	if len(r.modelview) == 1 {
		r.fail("PopMatrix: matrix stack underflow")
		return
	}
	r.modelview = r.modelview[:len(r.modelview)-1]
}

// MultMatrix implements Device.
func (r *Recorder) MultMatrix(m *[16]float64) {
	if r.record(command{op: opMultMatrix, m: *m}) {
		return
	}
	r.multMatrix(m)
}

func (r *Recorder) multMatrix(m *[16]float64) {
	top := &r.modelview[len(r.modelview)-1]
	*top = MulMatrix(top, m)
}

// Modelview returns the current top of the modelview stack.
func (r *Recorder) Modelview() [16]float64 { return r.modelview[len(r.modelview)-1] }

// MatrixDepth returns the modelview stack depth.
func (r *Recorder) MatrixDepth() int { return len(r.modelview) }

// NameDepth returns the name stack depth.
func (r *Recorder) NameDepth() int { return len(r.names) }

// Viewport implements Device.
func (r *Recorder) Viewport(x, y, width, height int) {
	r.viewport = Rect{X: x, Y: y, Width: width, Height: height}
}

// LoadProjection implements Device.
func (r *Recorder) LoadProjection(m *[16]float64) { r.projection = *m }

// LoadModelview implements Device. It replaces the top of the stack.
func (r *Recorder) LoadModelview(m *[16]float64) {
	r.modelview[len(r.modelview)-1] = *m
}

// Color implements Device.
func (r *Recorder) Color(red, green, blue, alpha float32) {
	c := [4]float32{red, green, blue, alpha}
	if r.record(command{op: opColor, c: c}) {
		return
	}
	r.color = c
}

// Begin implements Device.
func (r *Recorder) Begin(mode Primitive) {
	if r.record(command{op: opBegin, arg: uint32(mode)}) {
		return
	}
	r.begin(mode)
}

func (r *Recorder) begin(mode Primitive) {
	if r.inPrim {
		r.fail("Begin inside Begin/End")
		return
	}
	r.inPrim = true
	r.mode = mode
	r.prim = r.prim[:0]
}

// Normal implements Device.
func (r *Recorder) Normal(x, y, z float64) {
	r.record(command{op: opNormal, v: [3]float64{x, y, z}})
}

// Vertex implements Device.
func (r *Recorder) Vertex(x, y, z float64) {
	if r.record(command{op: opVertex, v: [3]float64{x, y, z}}) {
		return
	}
	r.vertex(x, y, z)
}

func (r *Recorder) vertex(x, y, z float64) {
	if !r.inPrim {
		r.fail("Vertex outside Begin/End")
		return
	}
	r.stats.Vertices++
	if r.selecting {
		r.prim = append(r.prim, r.project(x, y, z))
	}
}

// End implements Device.
func (r *Recorder) End() {
	if r.record(command{op: opEnd}) {
		return
	}
	r.end()
}

func (r *Recorder) end() {
	if !r.inPrim {
		r.fail("End without Begin")
		return
	}
	r.inPrim = false
	r.stats.Primitives++
	if r.selecting {
		r.testPrimitive()
	}
}

// project maps an object-space point to window coordinates.
func (r *Recorder) project(x, y, z float64) vertex {
	mv := r.modelview[len(r.modelview)-1]
	mvp := MulMatrix(&r.projection, &mv)
	c := Transform(&mvp, x, y, z)
	if c[3] <= 0 {
		return vertex{}
	}
	nx, ny, nz := c[0]/c[3], c[1]/c[3], c[2]/c[3]
	if nz < -1 || nz > 1 {
		return vertex{}
	}
	vp := r.viewport
	return vertex{
		x:  float64(vp.X) + (nx+1)/2*float64(vp.Width),
		y:  float64(vp.Y) + (ny+1)/2*float64(vp.Height),
		z:  (nz + 1) / 2,
		ok: true,
	}
}

// testPrimitive checks the assembled primitive against the selection
// region and raises the hit flag when it overlaps.
func (r *Recorder) testPrimitive() {
	var groups [][]vertex
	p := r.prim
	switch r.mode {
	case Points:
		for i := range p {
			groups = append(groups, p[i:i+1])
		}
	case Lines:
		for i := 0; i+1 < len(p); i += 2 {
			groups = append(groups, p[i:i+2])
		}
	case LineStrip, LineLoop:
		for i := 0; i+1 < len(p); i++ {
			groups = append(groups, p[i:i+2])
		}
		if r.mode == LineLoop && len(p) > 2 {
			groups = append(groups, []vertex{p[len(p)-1], p[0]})
		}
	case Triangles:
		for i := 0; i+2 < len(p); i += 3 {
			groups = append(groups, p[i:i+3])
		}
	}
	for _, g := range groups {
		if overlaps(r.region, g) {
			r.markHit(g)
		}
	}
}

func (r *Recorder) markHit(g []vertex) {
	for _, v := range g {
		if !v.ok {
			continue
		}
		if !r.hitFlag {
			r.hitFlag = true
			r.hitMin, r.hitMax = v.z, v.z
			continue
		}
		r.hitMin = min(r.hitMin, v.z)
		r.hitMax = max(r.hitMax, v.z)
	}
}

// flushHit writes a hit record for the current name stack if anything was
// drawn inside the region since the last name-stack change.
func (r *Recorder) flushHit() {
	if !r.selecting || !r.hitFlag {
		return
	}
	r.hitFlag = false
	words := 3 + len(r.names)
	if r.used+words > r.capacity {
		r.overflow = true
		return
	}
	r.used += words
	names := make([]uint32, len(r.names))
	copy(names, r.names)
	r.hits = append(r.hits, Hit{Names: names, ZMin: r.hitMin, ZMax: r.hitMax})
}

// BeginSelect implements Selector. capacity is measured in buffer words,
// three per record plus one per name, as OpenGL's selection buffer is.
func (r *Recorder) BeginSelect(region Rect, capacity int) {
	r.selecting = true
	r.region = region
	r.capacity = capacity
	r.used = 0
	r.hits = nil
	r.hitFlag = false
	r.overflow = false
	r.names = r.names[:0]
}

// EndSelect implements Selector.
func (r *Recorder) EndSelect() ([]Hit, error) {
	if !r.selecting {
		return nil, errors.New("gl: EndSelect without BeginSelect")
	}
	r.flushHit()
	r.selecting = false
	hits := r.hits
	r.hits = nil
	if r.overflow {
		return hits, ErrSelectionOverflow
	}
	return hits, nil
}

// overlaps reports whether the window-space primitive g touches rect.
func overlaps(rect Rect, g []vertex) bool {
	for _, v := range g {
		if !v.ok {
			return false
		}
	}
	for _, v := range g {
		if rect.Contains(v.x, v.y) {
			return true
		}
	}
	if len(g) < 2 {
		return false
	}
	x0, y0 := float64(rect.X), float64(rect.Y)
	x1, y1 := x0+float64(rect.Width), y0+float64(rect.Height)
	corners := [4][2]float64{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
	if len(g) == 3 {
		for _, c := range corners {
			if inTriangle(c[0], c[1], g[0], g[1], g[2]) {
				return true
			}
		}
	}
	for i := range g {
		a, b := g[i], g[(i+1)%len(g)]
		for j := range corners {
			c, d := corners[j], corners[(j+1)%4]
			if segmentsCross(a.x, a.y, b.x, b.y, c[0], c[1], d[0], d[1]) {
				return true
			}
		}
	}
	return false
}

func cross(ax, ay, bx, by, cx, cy float64) float64 {
	return (bx-ax)*(cy-ay) - (by-ay)*(cx-ax)
}

func inTriangle(x, y float64, a, b, c vertex) bool {
	d1 := cross(a.x, a.y, b.x, b.y, x, y)
	d2 := cross(b.x, b.y, c.x, c.y, x, y)
	d3 := cross(c.x, c.y, a.x, a.y, x, y)
	neg := d1 < 0 || d2 < 0 || d3 < 0
	pos := d1 > 0 || d2 > 0 || d3 > 0
	return !(neg && pos)
}

func segmentsCross(ax, ay, bx, by, cx, cy, dx, dy float64) bool {
	d1 := cross(cx, cy, dx, dy, ax, ay)
	d2 := cross(cx, cy, dx, dy, bx, by)
	d3 := cross(ax, ay, bx, by, cx, cy)
	d4 := cross(ax, ay, bx, by, dx, dy)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}
