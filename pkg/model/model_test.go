package model

import (
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/zeo/pkg/molecule"
	"github.com/chazu/zeo/pkg/node"
)

// buildWater creates a water molecule in its own group under the root.
func buildWater(t *testing.T) (*Model, *node.Group, []*molecule.Atom, []*molecule.Bond) {
	t.Helper()
	m := New("world")
	g := node.NewGroup("water")
	if err := m.Add(g); err != nil {
		t.Fatal(err)
	}
	o := molecule.NewAtom(nil, "O1", "O", v3.Vec{})
	h1 := molecule.NewAtom(nil, "H1", "H", v3.Vec{X: 0.96})
	h2 := molecule.NewAtom(nil, "H2", "H", v3.Vec{X: -0.24, Y: 0.93})
	b1, err := molecule.NewBond(nil, "O1-H1", o, h1)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := molecule.NewBond(nil, "O1-H2", o, h2)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []node.Node{o, h1, h2, b1, b2} {
		if err := m.AddTo(g, n); err != nil {
			t.Fatal(err)
		}
	}
	return m, g, []*molecule.Atom{o, h1, h2}, []*molecule.Bond{b1, b2}
}

func TestModelIndex(t *testing.T) {
	m, g, atoms, bonds := buildWater(t)
	if got := m.NodeCount(); got != 7 {
		t.Errorf("NodeCount() = %d, want 7", got)
	}
	if m.Lookup("H2") != node.Node(atoms[2]) {
		t.Error("Lookup(H2) did not find the atom")
	}
	if m.Lookup("nope") != nil {
		t.Error("Lookup of a missing name returned a node")
	}
	id, ok := m.IDOf(g)
	if !ok || id.IsZero() || m.Get(id) != node.Node(g) {
		t.Errorf("IDOf/Get round trip failed for %q", id)
	}
	if len(m.Atoms()) != 3 || len(m.Bonds()) != 2 {
		t.Errorf("Atoms() = %d, Bonds() = %d", len(m.Atoms()), len(m.Bonds()))
	}
	if m.Bonds()[0] != bonds[0] {
		t.Error("Bonds() not in tree order")
	}
}

func TestMustLookupPanics(t *testing.T) {
	m := New("world")
	defer func() {
		if recover() == nil {
			t.Error("MustLookup did not panic")
		}
	}()
	m.MustLookup("missing")
}

func TestIDShort(t *testing.T) {
	tests := []struct {
		id   ID
		want string
	}{
		{"", ""},
		{"abc", "abc"},
		{"0123456789abcdef", "01234567"},
	}
	for _, tt := range tests {
		if got := tt.id.Short(); got != tt.want {
			t.Errorf("ID(%q).Short() = %q, want %q", tt.id, got, tt.want)
		}
	}
	if NewID() == NewID() {
		t.Error("NewID returned the same identifier twice")
	}
}

func TestRemoveDetachesSubtree(t *testing.T) {
	m, g, atoms, bonds := buildWater(t)
	if err := m.Select(atoms[0]); err != nil {
		t.Fatal(err)
	}
	v := m.Version()
	if err := m.Remove(g); err != nil {
		t.Fatal(err)
	}
	if m.NodeCount() != 1 {
		t.Errorf("NodeCount() = %d after removal, want 1", m.NodeCount())
	}
	if m.Lookup("O1") != nil {
		t.Error("removed atom still indexed")
	}
	if atoms[0].Selected() || len(m.Selection()) != 0 {
		t.Error("removed atom still selected")
	}
	if bonds[0].Connected() {
		t.Error("removed bond still follows its atoms")
	}
	if m.Version() <= v {
		t.Error("Version() did not advance")
	}
	if err := m.Remove(m.Root()); err == nil {
		t.Error("removing the root succeeded")
	}
	if err := m.Remove(g); err == nil {
		t.Error("removing a detached node succeeded")
	}
}

func TestRename(t *testing.T) {
	m, _, atoms, _ := buildWater(t)
	if err := m.Rename(atoms[1], "Ha"); err != nil {
		t.Fatal(err)
	}
	if m.Lookup("Ha") != node.Node(atoms[1]) || m.Lookup("H1") != nil {
		t.Error("rename did not move the index entry")
	}
	if err := m.Rename(atoms[2], "Ha"); err == nil {
		t.Error("rename onto a taken name succeeded")
	}
}

func TestSelection(t *testing.T) {
	m, _, atoms, _ := buildWater(t)
	for _, a := range atoms[:2] {
		if err := m.Select(a); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.Select(atoms[0]); err != nil {
		t.Fatal(err)
	}
	if got := m.Selection(); len(got) != 2 || got[0] != node.Renderable(atoms[0]) {
		t.Errorf("Selection() = %v", got)
	}
	if err := m.Deselect(atoms[0]); err != nil {
		t.Fatal(err)
	}
	if atoms[0].Selected() || len(m.Selection()) != 1 {
		t.Error("Deselect left the atom selected")
	}
	m.ClearSelection()
	if atoms[1].Selected() || len(m.Selection()) != 0 {
		t.Error("ClearSelection left a selection")
	}

	loose := molecule.NewAtom(nil, "loose", "C", v3.Vec{})
	if err := m.Select(loose); err == nil {
		t.Error("selecting an unattached atom succeeded")
	}
	other := New("other")
	stranger := molecule.NewAtom(nil, "stranger", "C", v3.Vec{})
	if err := other.Add(stranger); err != nil {
		t.Fatal(err)
	}
	if err := m.Select(stranger); err == nil || stranger.Selected() {
		t.Error("selected a node of another model")
	}
}

func TestAddToForeignGroup(t *testing.T) {
	m := New("world")
	g := node.NewGroup("elsewhere")
	if err := m.AddTo(g, node.NewGroup("x")); err == nil {
		t.Error("AddTo accepted a group outside the model")
	}
}
