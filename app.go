package main

import (
	"fmt"
	"io"
	"math"

	"github.com/chazu/zeo/pkg/config"
	"github.com/chazu/zeo/pkg/engine"
	"github.com/chazu/zeo/pkg/geom"
	"github.com/chazu/zeo/pkg/gl"
	"github.com/chazu/zeo/pkg/gl/legacy"
	"github.com/chazu/zeo/pkg/kernel"
	"github.com/chazu/zeo/pkg/kernel/sdfx"
	"github.com/chazu/zeo/pkg/logging"
	"github.com/chazu/zeo/pkg/model"
	"github.com/chazu/zeo/pkg/molecule"
	"github.com/chazu/zeo/pkg/node"
	"github.com/chazu/zeo/pkg/pov"
	"github.com/chazu/zeo/pkg/scene"
	"github.com/chazu/zeo/pkg/tessellate"
)

// App ties the engine, the current model and the scene together.
type App struct {
	cfg    config.Config
	kernel *sdfx.SdfxKernel
	shapes *molecule.Shapes
	engine *engine.Engine
	scene  *scene.Scene
	model  *model.Model
}

// MeshData is the JSON-serializable mesh format written by -meshes.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
	Node    string `json:"node,omitempty"`
}

// EvalResult is the full result of one evaluation.
type EvalResult struct {
	Atoms    int             `json:"atoms"`
	Bonds    int             `json:"bonds"`
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// NewApp creates an App drawing on dev.
func NewApp(cfg config.Config, dev gl.Device) *App {
	k := sdfx.NewWithCells(cfg.MeshCells)
	shapes := molecule.NewShapes(k)
	eng := engine.NewEngine(shapes)
	eng.SetTimeout(cfg.EvalTimeout)

	camera := scene.Camera{
		OpeningAngle: cfg.OpeningAngle * math.Pi / 180,
		WindowSize:   cfg.WindowSize,
		Orientation:  geom.Identity(),
	}
	s := scene.New(dev,
		scene.WithSize(cfg.Width, cfg.Height),
		scene.WithCamera(camera),
		scene.WithPickRadius(cfg.PickRadius),
		scene.WithSelectionBuffer(cfg.SelectionBuffer),
	)
	return &App{cfg: cfg, kernel: k, shapes: shapes, engine: eng, scene: s}
}

// NewHeadlessApp creates an App drawing on a software recorder.
func NewHeadlessApp(cfg config.Config) *App {
	return NewApp(cfg, gl.NewRecorder(cfg.Width, cfg.Height))
}

// NewLegacyApp creates an App drawing on the OpenGL context current on
// the calling thread. Without the legacygl build tag it always fails.
func NewLegacyApp(cfg config.Config) (*App, error) {
	dev, err := legacy.New()
	if err != nil {
		return nil, err
	}
	return NewApp(cfg, dev), nil
}

// Config returns the settings the App was built with.
func (a *App) Config() config.Config { return a.cfg }

// Scene returns the scene the model is drawn in.
func (a *App) Scene() *scene.Scene { return a.scene }

// Model returns the model currently shown, or nil.
func (a *App) Model() *model.Model { return a.model }

// Evaluate runs source and, when it produces a valid model, shows it in
// place of the previous one and returns its meshes. A failed evaluation
// leaves the previous model on screen.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// Step 1: Evaluate the Lisp source into a validated model.
	res, err := a.engine.EvaluateAll(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		logging.Logger().Error("evaluate failed", "error", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{
			Line:    w.Line,
			Col:     w.Col,
			Message: w.Message,
			Node:    w.Node,
		})
	}

	// Step 2: Eval and validation errors keep the previous model.
	if len(res.Errors) > 0 || res.Model == nil {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	// Step 3: Swap the model into the scene and draw it.
	if err := a.show(res.Model); err != nil {
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	result.Atoms = len(res.Model.Atoms())
	result.Bonds = len(res.Model.Bonds())

	// Step 4: Tessellate the model into world-space meshes.
	meshes, err := a.Meshes()
	if err != nil {
		logging.Logger().Error("tessellate failed", "error", err)
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}
	for _, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    hexColor(m.Color),
		})
	}
	return result
}

// show swaps m in as the scene root. A model that fails to draw is
// taken down again and the previous one restored.
func (a *App) show(m *model.Model) error {
	if err := a.scene.SetRoot(m.Root()); err != nil {
		return fmt.Errorf("showing model: %w", err)
	}
	if err := a.scene.Draw(); err != nil {
		if rerr := a.restore(); rerr != nil {
			logging.Logger().Error("restoring previous model", "error", rerr)
		}
		return fmt.Errorf("drawing model: %w", err)
	}
	a.model = m
	logging.Logger().Info("model shown", "nodes", m.NodeCount(), "shapes", a.shapes.Len())
	return nil
}

// restore puts the current model back as the scene root.
func (a *App) restore() error {
	var root node.Renderable
	if a.model != nil {
		root = a.model.Root()
	}
	if err := a.scene.SetRoot(root); err != nil {
		return err
	}
	return a.scene.Draw()
}

// Draw redraws the scene, recompiling whatever changed.
func (a *App) Draw() error { return a.scene.Draw() }

// Meshes tessellates the current model in world coordinates.
func (a *App) Meshes() ([]*kernel.Mesh, error) {
	if a.model == nil {
		return nil, nil
	}
	return tessellate.Tessellate(a.model.Root(), a.kernel)
}

// PickResult names the node under a pixel.
type PickResult struct {
	Name string
	ID   model.ID
}

// Pick returns the node nearest the viewer at pixel (x, y), origin top
// left. ok is false when nothing is drawn there.
func (a *App) Pick(x, y int) (res PickResult, ok bool, err error) {
	_, res, ok, err = a.pick(x, y)
	return res, ok, err
}

func (a *App) pick(x, y int) (node.Renderable, PickResult, bool, error) {
	n, err := a.scene.Nearest(x, y)
	if n == nil || a.model == nil {
		return nil, PickResult{}, false, err
	}
	id, _ := a.model.IDOf(n)
	return n, PickResult{Name: n.AsBase().Name(), ID: id}, true, err
}

// Select toggles the selection of the node at pixel (x, y) and redraws.
func (a *App) Select(x, y int) (PickResult, bool, error) {
	n, res, ok, err := a.pick(x, y)
	if err != nil || !ok {
		return res, ok, err
	}
	if n.AsRenderer().Selected() {
		err = a.model.Deselect(n)
	} else {
		err = a.model.Select(n)
	}
	if err != nil {
		return res, ok, err
	}
	return res, ok, a.scene.Draw()
}

// ExportPOV writes the current model as POV-Ray scene text.
func (a *App) ExportPOV(w io.Writer) error {
	if a.model == nil {
		return fmt.Errorf("no model to export")
	}
	in := pov.NewIndenter(w)
	pov.WriteHeader(in, a.scene.Camera().Distance())
	a.model.Root().WritePOV(in)
	return in.Err()
}

// Close releases the scene's lists.
func (a *App) Close() error { return a.scene.Close() }

func hexColor(c [4]float32) string {
	b := func(f float32) uint8 { return uint8(math.Round(float64(min(max(f, 0), 1)) * 255)) }
	return fmt.Sprintf("#%02X%02X%02X", b(c[0]), b(c[1]), b(c[2]))
}
