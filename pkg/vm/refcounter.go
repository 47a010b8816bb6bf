package vm

import "github.com/vladimirpotek/neo-vm/pkg/vm/stackitem"

// rcInc and rcDec let the counter tell a compound item's first incoming
// reference (which must recurse into children) from a later one (which
// must not), and symmetrically for the last outgoing reference.
type (
	rcInc interface {
		IncRC() int
	}
	rcDec interface {
		DecRC() int
	}
)

// ReferenceCounter is a conservative upper
// bound on the number of items reachable from some evaluation stack or
// slot root. It is a bare counter rather than a precise live-object graph:
// §4.2 only requires check_zero_referred to be an upper bound, so the
// counter simply tracks every Add/Remove pair and trusts the per-item
// IncRC/DecRC gate to avoid double-counting a compound's children on a
// second incoming reference.
type ReferenceCounter int

// NewReferenceCounter returns a zeroed ReferenceCounter.
func NewReferenceCounter() *ReferenceCounter { return new(ReferenceCounter) }

// Add accounts for item entering a new root (evaluation stack push, slot
// store, or a compound gaining a child), recursing into children the
// first time a compound item becomes referenced.
func (r *ReferenceCounter) Add(item stackitem.Item) {
	if r == nil || item == nil {
		return
	}
	*r++

	irc, ok := item.(rcInc)
	if !ok || irc.IncRC() > 1 {
		return
	}
	switch t := item.(type) {
	case *stackitem.Array:
		for _, it := range t.Value().([]stackitem.Item) {
			r.Add(it)
		}
	case *stackitem.Struct:
		for _, it := range t.Value().([]stackitem.Item) {
			r.Add(it)
		}
	case *stackitem.Map:
		for _, e := range t.Value().([]stackitem.MapElement) {
			r.Add(e.Key)
			r.Add(e.Value)
		}
	}
}

// Remove accounts for item leaving a root, recursing into children only
// when this was the item's last outstanding reference.
func (r *ReferenceCounter) Remove(item stackitem.Item) {
	if r == nil || item == nil {
		return
	}
	*r--

	irc, ok := item.(rcDec)
	if !ok || irc.DecRC() > 0 {
		return
	}
	switch t := item.(type) {
	case *stackitem.Array:
		for _, it := range t.Value().([]stackitem.Item) {
			r.Remove(it)
		}
	case *stackitem.Struct:
		for _, it := range t.Value().([]stackitem.Item) {
			r.Remove(it)
		}
	case *stackitem.Map:
		for _, e := range t.Value().([]stackitem.MapElement) {
			r.Remove(e.Key)
			r.Remove(e.Value)
		}
	}
}

// CheckZeroReferred returns the current upper bound on live, rooted items.
func (r *ReferenceCounter) CheckZeroReferred() int {
	if r == nil {
		return 0
	}
	return int(*r)
}
