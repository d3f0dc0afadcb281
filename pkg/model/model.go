package model

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/chazu/zeo/pkg/logging"
	"github.com/chazu/zeo/pkg/molecule"
	"github.com/chazu/zeo/pkg/node"
)

// ID identifies a node for the lifetime of its attachment to a model.
type ID string

// NewID returns a fresh random identifier.
func NewID() ID { return ID(uuid.NewString()) }

// IsZero reports whether id is unset.
func (id ID) IsZero() bool { return id == "" }

// Short returns the first eight characters, for messages.
func (id ID) Short() string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

// Compile-time interface check.
var _ node.Model = (*Model)(nil)

// Model owns a tree rooted at a group. Nodes added anywhere below the root
// are indexed as they attach.
type Model struct {
	root      *node.Group
	nodes     map[ID]node.Node
	ids       map[node.Node]ID
	names     map[string]ID
	selection []node.Renderable
	version   uint64
}

// New returns a model with an empty root group.
func New(name string) *Model {
	m := &Model{
		root:  node.NewGroup(name),
		nodes: make(map[ID]node.Node),
		ids:   make(map[node.Node]ID),
		names: make(map[string]ID),
	}
	node.Attach(m.root, m)
	return m
}

// Root returns the model's root group.
func (m *Model) Root() *node.Group { return m.root }

// Version counts structural changes.
func (m *Model) Version() uint64 { return m.version }

// Attached implements node.Model.
func (m *Model) Attached(n node.Node) {
	if _, ok := m.ids[n]; ok {
		return
	}
	id := NewID()
	m.ids[n] = id
	m.nodes[id] = n
	if name := n.AsBase().Name(); name != "" {
		if prev, ok := m.names[name]; ok {
			logging.Logger().Warn("duplicate node name", "name", name, "previous", prev.Short(), "node", id.Short())
		} else {
			m.names[name] = id
		}
	}
	m.version++
}

// Detached implements node.Model.
func (m *Model) Detached(n node.Node) {
	id, ok := m.ids[n]
	if !ok {
		return
	}
	delete(m.ids, n)
	delete(m.nodes, id)
	if name := n.AsBase().Name(); m.names[name] == id {
		delete(m.names, name)
	}
	m.selection = slices.DeleteFunc(m.selection, func(r node.Renderable) bool { return node.Node(r) == n })
	m.version++
}

// Add places n under the root.
func (m *Model) Add(n node.Node) error { return m.root.Add(n) }

// AddTo places n under parent, which must belong to m.
func (m *Model) AddTo(parent *node.Group, n node.Node) error {
	if parent.Model() != node.Model(m) {
		return fmt.Errorf("model: group %q is not part of this model", parent.Name())
	}
	return parent.Add(n)
}

// Remove unlinks n from its parent. Bonds removed this way stop
// following their atoms.
func (m *Model) Remove(n node.Node) error {
	if n == node.Node(m.root) {
		return fmt.Errorf("model: cannot remove the root")
	}
	if _, ok := m.ids[n]; !ok {
		return fmt.Errorf("model: node %q is not part of this model", n.AsBase().Name())
	}
	parent, ok := n.AsBase().Parent().(*node.Group)
	if !ok {
		return fmt.Errorf("model: node %q has no group parent", n.AsBase().Name())
	}
	err := parent.Remove(n)
	node.Walk(n, func(c node.Node) bool {
		if b, ok := c.(*molecule.Bond); ok {
			b.Disconnect()
		}
		return true
	})
	return err
}

// Rename changes n's name and its entry in the name index.
func (m *Model) Rename(n node.Node, name string) error {
	id, ok := m.ids[n]
	if !ok {
		return fmt.Errorf("model: node %q is not part of this model", n.AsBase().Name())
	}
	if other, ok := m.names[name]; ok && other != id {
		return fmt.Errorf("model: name %q is already taken", name)
	}
	if old := n.AsBase().Name(); m.names[old] == id {
		delete(m.names, old)
	}
	n.AsBase().SetName(name)
	if name != "" {
		m.names[name] = id
	}
	return nil
}

// Lookup returns the node with the given name, or nil.
func (m *Model) Lookup(name string) node.Node {
	id, ok := m.names[name]
	if !ok {
		return nil
	}
	return m.nodes[id]
}

// MustLookup returns the node with the given name, or panics.
func (m *Model) MustLookup(name string) node.Node {
	n := m.Lookup(name)
	if n == nil {
		panic(fmt.Sprintf("model: no node named %q", name))
	}
	return n
}

// Get returns the node with the given ID, or nil.
func (m *Model) Get(id ID) node.Node { return m.nodes[id] }

// IDOf returns n's identifier.
func (m *Model) IDOf(n node.Node) (ID, bool) {
	id, ok := m.ids[n]
	return id, ok
}

// NodeCount returns the number of attached nodes, root included.
func (m *Model) NodeCount() int { return len(m.nodes) }

// Atoms returns every atom in tree order.
func (m *Model) Atoms() []*molecule.Atom { return collect[*molecule.Atom](m.root) }

// Bonds returns every bond in tree order.
func (m *Model) Bonds() []*molecule.Bond { return collect[*molecule.Bond](m.root) }

func collect[T node.Node](root node.Node) []T {
	var out []T
	node.Walk(root, func(n node.Node) bool {
		if t, ok := n.(T); ok {
			out = append(out, t)
		}
		return true
	})
	return out
}

// Select adds r to the selection.
func (m *Model) Select(r node.Renderable) error {
	if owner := r.AsBase().Model(); owner != nil && owner != node.Model(m) {
		return fmt.Errorf("model: node %q belongs to another model", r.AsBase().Name())
	}
	if err := r.AsRenderer().SetSelected(true); err != nil {
		return err
	}
	if !slices.Contains(m.selection, r) {
		m.selection = append(m.selection, r)
	}
	return nil
}

// Deselect removes r from the selection.
func (m *Model) Deselect(r node.Renderable) error {
	if err := r.AsRenderer().SetSelected(false); err != nil {
		return err
	}
	m.selection = slices.DeleteFunc(m.selection, func(s node.Renderable) bool { return s == r })
	return nil
}

// ClearSelection deselects every node.
func (m *Model) ClearSelection() {
	for _, r := range m.selection {
		_ = r.AsRenderer().SetSelected(false)
	}
	m.selection = nil
}

// Selection returns the selected nodes in selection order.
func (m *Model) Selection() []node.Renderable { return slices.Clone(m.selection) }
