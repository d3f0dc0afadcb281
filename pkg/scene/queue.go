package scene

import (
	"slices"

	"github.com/chazu/zeo/pkg/logging"
	"github.com/chazu/zeo/pkg/node"
)

// Queue is the per-frame list of pending revalidations. An entry is
// queued at most once; order of first enqueue is preserved.
type Queue struct {
	entries []node.Revalidation
}

// Enqueue appends r unless an equal entry is already pending.
func (q *Queue) Enqueue(r node.Revalidation) {
	if slices.Contains(q.entries, r) {
		return
	}
	q.entries = append(q.entries, r)
}

// Len returns the number of pending entries.
func (q *Queue) Len() int { return len(q.entries) }

// Pending returns a copy of the pending entries in run order.
func (q *Queue) Pending() []node.Revalidation {
	return slices.Clone(q.entries)
}

// Drain runs the pending entries in order until none are left, including
// entries enqueued while draining. It stops at the first failure; the
// failing entry and everything after it stay pending.
func (q *Queue) Drain() error {
	n := 0
	for len(q.entries) > 0 {
		r := q.entries[0]
		if err := r.Run(); err != nil {
			logging.Logger().Warn("drain stopped", "entry", r.String(), "pending", len(q.entries), "err", err)
			return &node.RevalidationError{Node: r.Target.AsBase().Name(), Tier: r.Tier, Err: err}
		}
		q.entries = q.entries[1:]
		n++
	}
	q.entries = nil
	if n > 0 {
		logging.Logger().Debug("queue drained", "entries", n)
	}
	return nil
}
