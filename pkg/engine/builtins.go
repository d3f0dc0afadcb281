package engine

import (
	"fmt"
	"math"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/zeo/pkg/geom"
	"github.com/chazu/zeo/pkg/model"
	"github.com/chazu/zeo/pkg/molecule"
	"github.com/chazu/zeo/pkg/node"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpNode wraps a node so it can be passed between builtins.
type sexpNode struct {
	n node.Node
}

func (s *sexpNode) SexpString(ps *zygo.PrintState) string {
	kind := "node"
	switch s.n.(type) {
	case *molecule.Atom:
		kind = "atom"
	case *molecule.Bond:
		kind = "bond"
	case *node.Group:
		kind = "group"
	}
	return fmt.Sprintf("(%s %q)", kind, s.n.AsBase().Name())
}
func (s *sexpNode) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a v3.Vec.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			// Keyword at end with no value: treat as flag with nil.
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// toVec3 extracts a v3.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toNode extracts the node of a sexpNode.
func toNode(s zygo.Sexp) (node.Node, error) {
	if ref, ok := s.(*sexpNode); ok {
		return ref.n, nil
	}
	return nil, fmt.Errorf("expected node reference, got %T (%s)", s, s.SexpString(nil))
}

// toAtom extracts an atom from a sexpNode.
func toAtom(s zygo.Sexp) (*molecule.Atom, error) {
	n, err := toNode(s)
	if err != nil {
		return nil, err
	}
	a, ok := n.(*molecule.Atom)
	if !ok {
		return nil, fmt.Errorf("expected atom, got %s", s.SexpString(nil))
	}
	return a, nil
}

// toColor converts an (vec3 r g b) to an opaque colour.
func toColor(s zygo.Sexp) ([4]float32, error) {
	v, err := toVec3(s)
	if err != nil {
		return [4]float32{}, err
	}
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if c < 0 || c > 1 {
			return [4]float32{}, fmt.Errorf("colour component %g outside [0, 1]", c)
		}
	}
	return [4]float32{float32(v.X), float32(v.Y), float32(v.Z), 1}, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// toNodes flattens node references and lists of them.
func toNodes(args []zygo.Sexp) ([]node.Node, error) {
	var out []node.Node
	for i, a := range args {
		if _, ok := a.(*sexpNode); !ok {
			items, err := sexpListToSlice(a)
			if err != nil {
				return nil, fmt.Errorf("child %d: expected node reference, got %s", i, a.SexpString(nil))
			}
			nested, err := toNodes(items)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
			continue
		}
		n, _ := toNode(a)
		out = append(out, n)
	}
	return out, nil
}

// toFrame builds a frame from :at, :rotate and :angle (degrees).
func toFrame(pa kwArgs) (geom.Frame, bool, error) {
	var (
		at, axis      v3.Vec
		hasAt, hasRot bool
		angle         float64
		err           error
	)
	if v, ok := pa.kw["at"]; ok {
		if at, err = toVec3(v); err != nil {
			return geom.Frame{}, false, fmt.Errorf("at: %w", err)
		}
		hasAt = true
	}
	if v, ok := pa.kw["rotate"]; ok {
		if axis, err = toVec3(v); err != nil {
			return geom.Frame{}, false, fmt.Errorf("rotate: %w", err)
		}
		if axis.Length() == 0 {
			return geom.Frame{}, false, fmt.Errorf("rotate: zero axis")
		}
		hasRot = true
	}
	if v, ok := pa.kw["angle"]; ok {
		if angle, err = toFloat64(v); err != nil {
			return geom.Frame{}, false, fmt.Errorf("angle: %w", err)
		}
		if !hasRot {
			return geom.Frame{}, false, fmt.Errorf("angle given without :rotate")
		}
	}
	rot := geom.NewRotation(axis, angle*math.Pi/180)
	switch {
	case hasAt && hasRot:
		return geom.NewComplete(rot, at), true, nil
	case hasAt:
		return geom.NewTranslation(at), true, nil
	case hasRot:
		return rot, true, nil
	}
	return geom.Frame{}, false, nil
}

// ---------------------------------------------------------------------------
// Model building
// ---------------------------------------------------------------------------

// builder collects the nodes created by one evaluation.
type builder struct {
	model   *model.Model
	shapes  *molecule.Shapes
	named   map[string]node.Node
	created []node.Node
	anon    int
}

func newBuilder(m *model.Model, shapes *molecule.Shapes) *builder {
	return &builder{model: m, shapes: shapes, named: make(map[string]node.Node)}
}

// name returns the optional leading string argument, or an anonymous
// name with the given prefix.
func (b *builder) name(pa *kwArgs, prefix string) (string, error) {
	if len(pa.positional) > 0 {
		if s, ok := pa.positional[0].(*zygo.SexpStr); ok {
			pa.positional = pa.positional[1:]
			if s.S == "" {
				return "", fmt.Errorf("empty name")
			}
			return s.S, nil
		}
	}
	b.anon++
	return fmt.Sprintf("%s_anon_%d", prefix, b.anon), nil
}

func (b *builder) add(n node.Node) (zygo.Sexp, error) {
	name := n.AsBase().Name()
	if _, ok := b.named[name]; ok {
		return zygo.SexpNull, fmt.Errorf("name %q already defined", name)
	}
	b.named[name] = n
	b.created = append(b.created, n)
	return &sexpNode{n: n}, nil
}

// unplaced reports nodes that never reached the model.
func (b *builder) unplaced() []EvalWarning {
	var warnings []EvalWarning
	for _, n := range b.created {
		if n.AsBase().Model() == nil {
			warnings = append(warnings, EvalWarning{
				Message: "never added to a molecule",
				Node:    n.AsBase().Name(),
			})
		}
	}
	return warnings
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs all zeo DSL builtins into a zygomys environment.
// The builtins operate on the provided builder, populating its model during
// evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var xyz [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			xyz[i] = f
		}
		return &sexpVec3{vec: v3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (atom "O1" :element :O :at (vec3 0 0 0) :radius 0.7 :color (vec3 1 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("atom", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		atomName, err := b.name(&pa, "atom")
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("atom: name: %w", err)
		}

		symbol := "C"
		if v, ok := pa.kw["element"]; ok {
			if symbol, err = toKeywordString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("atom: element: %w", err)
			}
			if _, known := molecule.Lookup(symbol); !known {
				return zygo.SexpNull, fmt.Errorf("atom: unknown element %q", symbol)
			}
		}
		var pos v3.Vec
		if v, ok := pa.kw["at"]; ok {
			if pos, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("atom: at: %w", err)
			}
		}

		a := molecule.NewAtom(b.shapes, atomName, symbol, pos)
		if v, ok := pa.kw["radius"]; ok {
			r, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("atom: radius: %w", err)
			}
			if err := a.SetRadius(r); err != nil {
				return zygo.SexpNull, err
			}
		}
		if v, ok := pa.kw["color"]; ok {
			c, err := toColor(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("atom: color: %w", err)
			}
			a.SetColor(c)
		}
		return b.add(a)
	})

	// -----------------------------------------------------------------------
	// (bond o1 h1 :name "O1-H1" :type :single)
	// -----------------------------------------------------------------------
	env.AddFunction("bond", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("bond requires two atoms, got %d arguments", len(pa.positional))
		}
		begin, err := toAtom(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("bond: begin: %w", err)
		}
		end, err := toAtom(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("bond: end: %w", err)
		}

		bondName := begin.Name() + "-" + end.Name()
		if v, ok := pa.kw["name"]; ok {
			if bondName, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("bond: name: %w", err)
			}
		}
		bond, err := molecule.NewBond(b.shapes, bondName, begin, end)
		if err != nil {
			return zygo.SexpNull, err
		}
		if v, ok := pa.kw["type"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("bond: type: %w", err)
			}
			t, err := molecule.ParseBondType(s)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("bond: %w", err)
			}
			bond.SetType(t)
		}
		return b.add(bond)
	})

	// -----------------------------------------------------------------------
	// (group "methyl" c1 h1 (list h2 h3) :at (vec3 0 0 1) :rotate (vec3 0 0 1) :angle 90)
	// -----------------------------------------------------------------------
	makeGroup := func(form string, args []zygo.Sexp) (*node.Group, zygo.Sexp, error) {
		pa := parseArgs(args)
		groupName, err := b.name(&pa, form)
		if err != nil {
			return nil, zygo.SexpNull, fmt.Errorf("%s: name: %w", form, err)
		}
		children, err := toNodes(pa.positional)
		if err != nil {
			return nil, zygo.SexpNull, fmt.Errorf("%s: %w", form, err)
		}
		f, ok, err := toFrame(pa)
		if err != nil {
			return nil, zygo.SexpNull, fmt.Errorf("%s: %w", form, err)
		}

		g := node.NewGroup(groupName)
		if ok {
			g.SetTransformation(f)
		}
		for _, c := range children {
			if err := g.Add(c); err != nil {
				return nil, zygo.SexpNull, fmt.Errorf("%s: %w", form, err)
			}
		}
		ref, err := b.add(g)
		return g, ref, err
	}

	env.AddFunction("group", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		_, ref, err := makeGroup("group", args)
		return ref, err
	})

	// -----------------------------------------------------------------------
	// (molecule "water" o1 h1 h2 (bond o1 h1) (bond o1 h2))
	// Like group, and adds the result to the model.
	// -----------------------------------------------------------------------
	env.AddFunction("molecule", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		g, ref, err := makeGroup("molecule", args)
		if err != nil {
			return ref, err
		}
		if err := b.model.Add(g); err != nil {
			return zygo.SexpNull, fmt.Errorf("molecule: %w", err)
		}
		return ref, nil
	})

	// -----------------------------------------------------------------------
	// (ref "O1")
	// -----------------------------------------------------------------------
	env.AddFunction("ref", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("ref requires a name argument")
		}
		refName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ref: name: %w", err)
		}
		n, ok := b.named[refName]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("ref: no node named %q", refName)
		}
		return &sexpNode{n: n}, nil
	})

	// -----------------------------------------------------------------------
	// (select o1 h1) and (hide h2)
	// -----------------------------------------------------------------------
	env.AddFunction("select", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		nodes, err := toNodes(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("select: %w", err)
		}
		for _, n := range nodes {
			r, ok := n.(node.Renderable)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("select: %q cannot be selected", n.AsBase().Name())
			}
			if err := b.model.Select(r); err != nil {
				return zygo.SexpNull, fmt.Errorf("select: %w", err)
			}
		}
		return zygo.SexpNull, nil
	})

	env.AddFunction("hide", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		nodes, err := toNodes(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("hide: %w", err)
		}
		for _, n := range nodes {
			if r, ok := n.(node.Renderable); ok {
				r.AsRenderer().SetVisible(false)
			}
		}
		return zygo.SexpNull, nil
	})
}
