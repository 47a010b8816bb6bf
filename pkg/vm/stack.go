package vm

import (
	"math/big"

	"github.com/vladimirpotek/neo-vm/pkg/vm/stackitem"
)

// Element wraps a stackitem.Item with convenience accessors used by opcode
// handlers. The wrapped value is never nil once taken off a Stack.
type Element struct {
	value stackitem.Item
}

// NewElement wraps v, inferring the stack item variant via stackitem.Make.
func NewElement(v any) Element { return Element{stackitem.Make(v)} }

// Item returns the wrapped stack item.
func (e Element) Item() stackitem.Item { return e.value }

// BigInt coerces the element to an arbitrary-precision integer, panicking
// (caught by the dispatch loop) on failure.
func (e Element) BigInt() *big.Int {
	v, err := e.value.TryInteger()
	if err != nil {
		panic(err)
	}
	return v
}

// Bool coerces the element to a boolean.
func (e Element) Bool() bool {
	b, err := e.value.TryBool()
	if err != nil {
		panic(err)
	}
	return b
}

// Bytes coerces the element to a byte slice.
func (e Element) Bytes() []byte {
	bs, err := e.value.TryBytes()
	if err != nil {
		panic(err)
	}
	return bs
}

// Array returns the underlying slice of an Array or Struct element.
func (e Element) Array() []stackitem.Item {
	switch t := e.value.(type) {
	case *stackitem.Array:
		return t.Value().([]stackitem.Item)
	case *stackitem.Struct:
		return t.Value().([]stackitem.Item)
	default:
		panic("element is not an array")
	}
}

// Stack is a LIFO sequence of Elements. The top of stack is the end of
// the backing slice; index 0 in the public API (Peek, InsertAt, RemoveAt)
// always means "the top", consistent with §3's "push (top=index 0)".
type Stack struct {
	elems []Element
	name  string
	refs  *ReferenceCounter
}

// NewStack returns a new, empty Stack named n and backed by refs.
func NewStack(n string, refs *ReferenceCounter) *Stack {
	s := &Stack{name: n, refs: refs}
	s.elems = make([]Element, 0, 16)
	return s
}

// Len returns the number of elements on the stack.
func (s *Stack) Len() int { return len(s.elems) }

// Clear empties the stack, releasing every element's reference.
func (s *Stack) Clear() {
	for _, e := range s.elems {
		s.refs.Remove(e.value)
	}
	s.elems = s.elems[:0]
}

// Push pushes e onto the top of the stack.
func (s *Stack) Push(e Element) {
	s.elems = append(s.elems, e)
	s.refs.Add(e.value)
}

// PushItem wraps and pushes a stack item.
func (s *Stack) PushItem(item stackitem.Item) { s.Push(Element{item}) }

// PushVal wraps and pushes a native Go value.
func (s *Stack) PushVal(v any) { s.Push(NewElement(v)) }

// Pop removes and returns the top element. Panics if the stack is empty.
func (s *Stack) Pop() Element {
	l := len(s.elems)
	e := s.elems[l-1]
	s.elems = s.elems[:l-1]
	s.refs.Remove(e.value)
	return e
}

// Peek returns the element n positions from the top (0 = top), or a range
// error if n is out of range.
func (s *Stack) Peek(n int) (Element, error) {
	idx := len(s.elems) - n - 1
	if n < 0 || idx < 0 {
		return Element{}, rangeErr("stack index %d out of bounds (depth %d)", n, len(s.elems))
	}
	return s.elems[idx], nil
}

// InsertAt inserts e so that it ends up n positions from the top (0 means
// "becomes the new top").
func (s *Stack) InsertAt(e Element, n int) error {
	l := len(s.elems)
	if n < 0 || n > l {
		return rangeErr("stack insert index %d out of bounds (depth %d)", n, l)
	}
	s.elems = append(s.elems, Element{})
	copy(s.elems[l-n+1:], s.elems[l-n:l])
	s.elems[l-n] = e
	s.refs.Add(e.value)
	return nil
}

// RemoveAt removes and returns the element n positions from the top.
func (s *Stack) RemoveAt(n int) (Element, error) {
	l := len(s.elems)
	idx := l - 1 - n
	if n < 0 || idx < 0 {
		return Element{}, rangeErr("stack index %d out of bounds (depth %d)", n, l)
	}
	e := s.elems[idx]
	s.elems = append(s.elems[:idx], s.elems[idx+1:]...)
	s.refs.Remove(e.value)
	return e, nil
}

// RemoveAt removes the element n positions from the top, type-asserting
// its stack item to T and faulting with ErrType if the variant doesn't
// match. This is the generic counterpart of EvaluationStack.remove<T>(i).
func RemoveAt[T stackitem.Item](s *Stack, n int) (T, error) {
	var zero T
	e, err := s.RemoveAt(n)
	if err != nil {
		return zero, err
	}
	v, ok := e.value.(T)
	if !ok {
		_ = s.InsertAt(e, n) // undo: put the item back where it was
		return zero, typeErr("expected %T, got %s", zero, e.value.Type())
	}
	return v, nil
}

// Dup duplicates the element n positions from the top without removing
// it, ready to be pushed.
func (s *Stack) Dup(n int) (Element, error) {
	e, err := s.Peek(n)
	if err != nil {
		return Element{}, err
	}
	return Element{e.value.Dup()}, nil
}

// Swap exchanges the elements n1 and n2 positions from the top.
func (s *Stack) Swap(n1, n2 int) error {
	l := len(s.elems)
	if n1 < 0 || n2 < 0 || n1 >= l || n2 >= l {
		return rangeErr("swap indices %d,%d out of bounds (depth %d)", n1, n2, l)
	}
	s.elems[l-n1-1], s.elems[l-n2-1] = s.elems[l-n2-1], s.elems[l-n1-1]
	return nil
}

// ReverseTop reverses the top n elements in place.
func (s *Stack) ReverseTop(n int) error {
	l := len(s.elems)
	if n < 0 || n > l {
		return rangeErr("reverse count %d out of bounds (depth %d)", n, l)
	}
	if n <= 1 {
		return nil
	}
	for i, j := l-n, l-1; i < j; i, j = i+1, j-1 {
		s.elems[i], s.elems[j] = s.elems[j], s.elems[i]
	}
	return nil
}

// Roll brings the element n positions from the top to the top, shifting
// the elements above it down by one.
func (s *Stack) Roll(n int) error {
	l := len(s.elems)
	if n < 0 || n >= l {
		return rangeErr("roll index %d out of bounds (depth %d)", n, l)
	}
	if n == 0 {
		return nil
	}
	e := s.elems[l-1-n]
	copy(s.elems[l-1-n:], s.elems[l-n:])
	s.elems[l-1] = e
	return nil
}

// ToArray returns the stack contents as a slice, top-first.
func (s *Stack) ToArray() []stackitem.Item {
	items := make([]stackitem.Item, len(s.elems))
	for i, e := range s.elems {
		items[len(s.elems)-1-i] = e.Item()
	}
	return items
}

// CopyTo moves every element from s onto dst, preserving order, and
// empties s. It is the EvaluationStack.copy_to primitive §4.3 describes:
// a transfer, not a duplication, so reference counts are unaffected.
func (s *Stack) CopyTo(dst *Stack) {
	dst.elems = append(dst.elems, s.elems...)
	s.elems = s.elems[:0]
}
