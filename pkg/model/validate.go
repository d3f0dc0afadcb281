package model

import (
	"fmt"

	"github.com/chazu/zeo/pkg/molecule"
	"github.com/chazu/zeo/pkg/node"
)

// ValidationSeverity indicates whether a validation finding blocks drawing
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks drawing
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   ID                 // which node has the problem (zero if model-level)
	Node     string             // the node's name
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s (%s): %s", e.Severity, e.Node, e.NodeID.Short(), e.Message)
}

// ValidationResult bundles errors (blocking) and warnings (advisory).
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether there are no blocking errors.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Validate runs the structural checks and returns every finding. This
// function is read-only and never mutates the model.
func Validate(m *Model) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateTree(m)...)
	errs = append(errs, validateIndex(m)...)
	errs = append(errs, validateNames(m)...)
	errs = append(errs, validateBonds(m)...)
	return errs
}

// ValidateAll runs the structural and geometric checks and separates
// errors from warnings.
func ValidateAll(m *Model) ValidationResult {
	var result ValidationResult
	for _, e := range append(Validate(m), validateGeometry(m)...) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, e)
		} else {
			result.Errors = append(result.Errors, e)
		}
	}
	return result
}

func (m *Model) finding(n node.Node, sev ValidationSeverity, format string, args ...any) ValidationError {
	id := m.ids[n]
	return ValidationError{
		NodeID:   id,
		Node:     n.AsBase().Name(),
		Message:  fmt.Sprintf(format, args...),
		Severity: sev,
	}
}

// validateTree walks the children links with 3-color marking. A gray node
// met again is a cycle; a child whose parent link disagrees or whose owner
// is another model is inconsistent.
func validateTree(m *Model) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[node.Node]int)
	var errs []ValidationError

	var visit func(n node.Node) bool // returns true if cycle found
	visit = func(n node.Node) bool {
		switch color[n] {
		case black:
			return false
		case gray:
			errs = append(errs, m.finding(n, SeverityError, "cycle detected: node %q is its own ancestor", n.AsBase().Name()))
			return true
		}
		color[n] = gray
		if c, ok := n.(node.Container); ok {
			for _, child := range c.Children() {
				if child.AsBase().Parent() != n {
					errs = append(errs, m.finding(child, SeverityError, "parent link does not point at %q", n.AsBase().Name()))
				}
				if child.AsBase().Model() != node.Model(m) {
					errs = append(errs, m.finding(child, SeverityError, "not attached to this model"))
				}
				if visit(child) {
					return true
				}
			}
		}
		color[n] = black
		return false
	}
	visit(m.root)
	return errs
}

// validateIndex checks that every indexed node is reachable from the root.
func validateIndex(m *Model) []ValidationError {
	var errs []ValidationError
	for id, n := range m.nodes {
		if !node.IsAncestor(m.root, n) {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Node:     n.AsBase().Name(),
				Message:  "indexed node is not reachable from the root",
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateNames warns about nodes sharing a name; only the first of them
// can be looked up.
func validateNames(m *Model) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]int)
	node.Walk(m.root, func(n node.Node) bool {
		if name := n.AsBase().Name(); name != "" {
			seen[name]++
			if seen[name] == 2 {
				errs = append(errs, m.finding(n, SeverityWarning, "duplicate name %q", name))
			}
		}
		return true
	})
	return errs
}

// validateBonds checks that every bond joins two atoms of this model and
// still follows them.
func validateBonds(m *Model) []ValidationError {
	var errs []ValidationError
	for _, b := range m.Bonds() {
		for _, a := range []*molecule.Atom{b.Begin(), b.End()} {
			if a.Model() != node.Model(m) {
				errs = append(errs, m.finding(b, SeverityError, "atom %q is not part of this model", a.Name()))
			}
		}
		if !b.Connected() {
			errs = append(errs, m.finding(b, SeverityError, "bond no longer follows its atoms"))
		}
	}
	return errs
}
