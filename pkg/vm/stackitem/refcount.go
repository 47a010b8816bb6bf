package stackitem

// rc is an embeddable reference counter used by compound items to let the
// VM-level ReferenceCounter tell a first reference (which must recurse into
// children) from a subsequent one (which must not).
type rc struct {
	refs int
}

// IncRC increments the reference count and returns the new value.
func (r *rc) IncRC() int {
	r.refs++
	return r.refs
}

// DecRC decrements the reference count and returns the new value.
func (r *rc) DecRC() int {
	r.refs--
	return r.refs
}

// ro is an embeddable one-way read-only flag used by DeepCopy results to
// reject further in-place mutation.
type ro struct {
	readOnly bool
}

// MarkAsReadOnly marks the item as read-only. It cannot be undone.
func (f *ro) MarkAsReadOnly() {
	f.readOnly = true
}

// IsReadOnly reports whether the item has been marked read-only.
func (f *ro) IsReadOnly() bool {
	return f.readOnly
}
