// Package pov writes POV-Ray scene text.
package pov

import (
	"fmt"
	"io"
	"strings"
)

// Indenter writes lines with brace-aware indentation. The first write
// error is kept and every later write becomes a no-op.
type Indenter struct {
	w     io.Writer
	unit  string
	level int
	err   error
}

// NewIndenter returns an Indenter writing to w with two-space indentation.
func NewIndenter(w io.Writer) *Indenter {
	return &Indenter{w: w, unit: "  "}
}

// WriteLine writes one line. A negative delta dedents before writing, a
// positive delta indents the lines that follow.
func (in *Indenter) WriteLine(line string, delta int) {
	if in.err != nil {
		return
	}
	if delta < 0 {
		in.level = max(in.level+delta, 0)
	}
	_, in.err = fmt.Fprintf(in.w, "%s%s\n", strings.Repeat(in.unit, in.level), line)
	if delta > 0 {
		in.level += delta
	}
}

// Level returns the current indentation depth.
func (in *Indenter) Level() int { return in.level }

// Err returns the first write error.
func (in *Indenter) Err() error { return in.err }

// Vector formats a POV-Ray vector literal.
func Vector(xs ...float64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprintf("%f", x)
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// WriteHeader declares my_finish, used by every object, and places a
// camera at distance on +z looking at the origin with a light behind it.
func WriteHeader(in *Indenter, distance float64) {
	in.WriteLine("#declare my_finish = finish { ambient 0.2 diffuse 0.7 phong 0.6 }", 0)
	in.WriteLine("background { rgb <0.0, 0.0, 0.0> }", 0)
	in.WriteLine("camera {", 1)
	in.WriteLine("location "+Vector(0, 0, distance), 0)
	in.WriteLine("look_at <0.0, 0.0, 0.0>", 0)
	in.WriteLine("}", -1)
	in.WriteLine("light_source { "+Vector(distance, distance, 2*distance)+" rgb <1.0, 1.0, 1.0> }", 0)
}
