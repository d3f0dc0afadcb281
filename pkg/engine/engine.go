// Package engine provides the Lisp evaluation engine for zeo.
// It wraps zygomys in a sandboxed environment and builds a molecular
// Model from user source code.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/zeo/pkg/logging"
	"github.com/chazu/zeo/pkg/model"
	"github.com/chazu/zeo/pkg/molecule"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning represents a non-fatal warning produced during evaluation.
type EvalWarning struct {
	Line    int
	Col     int
	Message string
	Node    string
}

// EvalResult bundles the full output of an evaluation and validation.
type EvalResult struct {
	Model    *model.Model
	Errors   []EvalError
	Warnings []EvalWarning
}

// Engine wraps the zygomys interpreter for zeo evaluation.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
	shapes     *molecule.Shapes
}

// NewEngine creates a new Engine. Atoms and bonds it builds draw with
// shapes, which may be nil for models that are never drawn.
func NewEngine(shapes *molecule.Shapes) *Engine {
	return &Engine{timeout: EvalTimeout, shapes: shapes}
}

// SetTimeout changes the evaluation limit. Non-positive values restore
// EvalTimeout.
func (e *Engine) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = EvalTimeout
	}
	e.mu.Lock()
	e.timeout = d
	e.mu.Unlock()
}

// Evaluate takes Lisp source code and produces a new Model.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns model + nil errors + nil error
//   - On parse/eval failure: returns nil model + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*model.Model, []EvalError, error) {
	res, err := e.run(source)
	if err != nil {
		return nil, nil, err
	}
	return res.model, res.errors, nil
}

// EvaluateAll evaluates source and validates the resulting model.
// Validation errors are reported as eval errors alongside the model;
// unplaced nodes and validation warnings become warnings.
func (e *Engine) EvaluateAll(source string) (EvalResult, error) {
	res, err := e.run(source)
	if err != nil {
		return EvalResult{}, err
	}
	out := EvalResult{Model: res.model, Errors: res.errors, Warnings: res.warnings}
	if res.model == nil {
		return out, nil
	}
	v := model.ValidateAll(res.model)
	for _, ve := range v.Errors {
		out.Errors = append(out.Errors, EvalError{Message: ve.Error()})
	}
	for _, vw := range v.Warnings {
		out.Warnings = append(out.Warnings, EvalWarning{Message: vw.Message, Node: vw.Node})
	}
	return out, nil
}

func (e *Engine) run(source string) (evalResult, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	timeout := e.timeout
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		ch <- e.evaluate(source)
	}()

	res := waitWithTimeout(ch, gen, timeout, &e.mu, &e.generation)
	return res, res.err
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) evalResult {
	m := model.New("world")

	// Empty source is a valid program that produces an empty model.
	if strings.TrimSpace(source) == "" {
		return evalResult{model: m}
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	b := newBuilder(m, e.shapes)
	registerBuiltins(env, b)

	// Load and compile the source string into bytecode.
	if err := env.LoadString(preprocessSource(source)); err != nil {
		return evalResult{errors: parseZygomysError(err)}
	}

	// Execute the compiled bytecode.
	if _, err := env.Run(); err != nil {
		return evalResult{errors: parseZygomysError(err)}
	}

	warnings := b.unplaced()
	logging.Logger().Debug("evaluation finished", "nodes", m.NodeCount(), "warnings", len(warnings))
	return evalResult{model: m, warnings: warnings}
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	// zygomys formats parse errors as "Error on line N: <details>\n"
	for _, p := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := p.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
