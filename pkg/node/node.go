package node

// Node is any element of the model tree.
type Node interface {
	// AsBase returns the embedded Base.
	AsBase() *Base
}

// Container is a node with children.
type Container interface {
	Node
	Children() []Node
}

// Model owns a tree of nodes. Attaching a node to a model is what makes
// selecting it legal.
type Model interface {
	Attached(n Node)
	Detached(n Node)
}

// Base holds the tree links shared by every node. The parent link is a
// back-reference only: parents own children, never the reverse.
type Base struct {
	this   Node
	name   string
	parent Node
	model  Model
}

// InitBase records the outer value and the node's name.
func (b *Base) InitBase(this Node, name string) {
	b.this = this
	b.name = name
}

func (b *Base) AsBase() *Base { return b }

// This returns the outer value that embeds b.
func (b *Base) This() Node { return b.this }

func (b *Base) Name() string     { return b.name }
func (b *Base) SetName(s string) { b.name = s }

// Parent returns the enclosing node or nil for a root.
func (b *Base) Parent() Node { return b.parent }

// SetParent links b under p. Containers call it when adopting a child.
func (b *Base) SetParent(p Node) { b.parent = p }

// Model returns the owning model or nil.
func (b *Base) Model() Model { return b.model }

// Attach sets m as the owner of n and its whole subtree.
func Attach(n Node, m Model) {
	Walk(n, func(c Node) bool {
		c.AsBase().model = m
		m.Attached(c)
		return true
	})
}

// Detach clears the owner of n and its whole subtree. Detached nodes
// lose their selection.
func Detach(n Node) {
	Walk(n, func(c Node) bool {
		if r, ok := c.(Renderable); ok && r.AsRenderer().selected {
			r.AsRenderer().selected = false
			r.InvalidateTotal()
		}
		b := c.AsBase()
		if b.model != nil {
			b.model.Detached(c)
			b.model = nil
		}
		return true
	})
}

// Walk visits n and its descendants depth first, parents before children.
// Returning false from fn skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if !fn(n) {
		return
	}
	if c, ok := n.(Container); ok {
		for _, child := range c.Children() {
			Walk(child, fn)
		}
	}
}

// IsAncestor reports whether a is n or one of n's ancestors.
func IsAncestor(a, n Node) bool {
	for cur := n; cur != nil; cur = cur.AsBase().parent {
		if cur == a {
			return true
		}
	}
	return false
}

// CommonAncestor returns the deepest node that is an ancestor of both a
// and b, counting each node as its own ancestor, or nil when they belong
// to different trees.
func CommonAncestor(a, b Node) Node {
	for cur := a; cur != nil; cur = cur.AsBase().parent {
		if IsAncestor(cur, b) {
			return cur
		}
	}
	return nil
}

func nameOf(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.AsBase().name
}
