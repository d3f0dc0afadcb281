package engine

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestEvaluateEmptyString(t *testing.T) {
	eng := NewEngine(nil)

	for _, source := range []string{"", "   \n\t  \n  "} {
		m, evalErrs, err := eng.Evaluate(source)
		if err != nil {
			t.Fatalf("unexpected fatal error: %v", err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("unexpected eval errors: %v", evalErrs)
		}
		if m == nil {
			t.Fatal("expected non-nil model")
		}
		// Only the root.
		if m.NodeCount() != 1 {
			t.Errorf("expected empty model, got %d nodes", m.NodeCount())
		}
	}
}

func TestEvaluateValidExpression(t *testing.T) {
	eng := NewEngine(nil)

	// Plain Lisp that builds nothing leaves the model empty.
	m, evalErrs, err := eng.Evaluate("(def x 10)\n(def y 20)\n(+ x y)")
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	if m == nil {
		t.Fatal("expected non-nil model")
	}
	if m.NodeCount() != 1 {
		t.Errorf("expected empty model, got %d nodes", m.NodeCount())
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	eng := NewEngine(nil)

	// Unmatched paren is a parse error.
	m, evalErrs, err := eng.Evaluate("(+ 1 2")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if m != nil {
		t.Fatal("expected nil model on syntax error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for syntax error")
	}
	if evalErrs[0].Message == "" {
		t.Error("eval error message should not be empty")
	}
}

func TestEvaluateUndefinedSymbol(t *testing.T) {
	eng := NewEngine(nil)

	m, evalErrs, err := eng.Evaluate("(molecule \"m\" undefined-atom)")
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if m != nil {
		t.Fatal("expected nil model on eval error")
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error for undefined symbol")
	}
}

func TestEvalErrorImplementsError(t *testing.T) {
	e := EvalError{Line: 5, Col: 0, Message: "something went wrong"}
	s := e.Error()
	if !strings.Contains(s, "line 5") {
		t.Errorf("Error() should contain line info, got: %s", s)
	}
	if !strings.Contains(s, "something went wrong") {
		t.Errorf("Error() should contain message, got: %s", s)
	}

	e2 := EvalError{Line: 0, Col: 0, Message: "no location"}
	if s2 := e2.Error(); strings.Contains(s2, "line") {
		t.Errorf("Error() with no line should not contain 'line', got: %s", s2)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	eng := NewEngine(nil)

	// Each evaluation gets a fresh sandbox, model and anonymous counter.
	for i := 0; i < 5; i++ {
		m, evalErrs, err := eng.Evaluate(`(molecule (atom) (atom :element :H))`)
		if err != nil {
			t.Fatalf("iteration %d: unexpected fatal error: %v", i, err)
		}
		if len(evalErrs) > 0 {
			t.Fatalf("iteration %d: unexpected eval errors: %v", i, evalErrs)
		}
		if m.NodeCount() != 4 {
			t.Errorf("iteration %d: expected 4 nodes, got %d", i, m.NodeCount())
		}
		if m.Lookup("atom_anon_2") == nil {
			t.Errorf("iteration %d: anonymous names are not reset", i)
		}
	}
}

func TestSetTimeout(t *testing.T) {
	eng := NewEngine(nil)
	eng.SetTimeout(time.Second)
	if eng.timeout != time.Second {
		t.Errorf("timeout = %s, want 1s", eng.timeout)
	}
	eng.SetTimeout(0)
	if eng.timeout != EvalTimeout {
		t.Errorf("timeout = %s, want %s", eng.timeout, EvalTimeout)
	}
}

func TestEvaluateTimeout(t *testing.T) {
	// A channel that never sends stands in for a runaway evaluation.
	var mu sync.Mutex
	var gen uint64 = 1
	ch := make(chan evalResult)

	start := time.Now()
	res := waitWithTimeout(ch, 1, 50*time.Millisecond, &mu, &gen)
	if res.err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if !strings.Contains(res.err.Error(), "timed out") {
		t.Errorf("expected timeout error message, got: %v", res.err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took %s", elapsed)
	}
}

func TestEvaluateGenerationDiscardsStale(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(2) // Current generation is 2

	ch := make(chan evalResult, 1)
	ch <- evalResult{}

	// Pass generation 1 (stale).
	res := waitWithTimeout(ch, 1, time.Second, &mu, &gen)
	if res.err == nil {
		t.Fatal("expected error for stale generation")
	}
	if !strings.Contains(res.err.Error(), "superseded") {
		t.Errorf("expected superseded error, got: %v", res.err)
	}
}

func TestEvaluateGenerationCurrent(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(3)

	ch := make(chan evalResult, 1)
	ch <- evalResult{errors: []EvalError{{Message: "kept"}}}

	res := waitWithTimeout(ch, 3, time.Second, &mu, &gen)
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}
	if len(res.errors) != 1 || res.errors[0].Message != "kept" {
		t.Errorf("result was not passed through: %+v", res)
	}
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		name     string
		msg      string
		wantLine int
		wantMsg  string
	}{
		{
			name:     "error on line format",
			msg:      "Error on line 5: unexpected token\n",
			wantLine: 5,
			wantMsg:  "unexpected token",
		},
		{
			name:     "no line info",
			msg:      "some generic error",
			wantLine: 0,
			wantMsg:  "some generic error",
		},
		{
			name:     "line format lowercase",
			msg:      "error on line 12: missing paren",
			wantLine: 12,
			wantMsg:  "missing paren",
		},
		{
			name:     "short line format",
			msg:      "line 3: bond requires two atoms",
			wantLine: 3,
			wantMsg:  "two atoms",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := parseZygomysError(errString(tt.msg))
			if len(errs) == 0 {
				t.Fatal("expected at least one error")
			}
			e := errs[0]
			if e.Line != tt.wantLine {
				t.Errorf("line = %d, want %d", e.Line, tt.wantLine)
			}
			if !strings.Contains(e.Message, tt.wantMsg) {
				t.Errorf("message = %q, want containing %q", e.Message, tt.wantMsg)
			}
		})
	}
}

// errString is a simple error type for testing.
type errString string

func (e errString) Error() string { return string(e) }
