package vm

import "github.com/vladimirpotek/neo-vm/pkg/vm/stackitem"

// Slot is a fixed-length, randomly-addressable sequence of stack items
// backing a frame's static fields, locals, or arguments.
type Slot struct {
	storage []stackitem.Item
	refs    *ReferenceCounter
}

// NewSlot returns a new Slot of n items, all initially unset.
func NewSlot(n int, refs *ReferenceCounter) *Slot {
	return &Slot{storage: make([]stackitem.Item, n), refs: refs}
}

// Set stores item at index i, updating the reference counter for the
// item it displaces. A no-op if the same item is already stored there.
func (s *Slot) Set(i int, item stackitem.Item) error {
	if i < 0 || i >= len(s.storage) {
		return rangeErr("slot index %d out of bounds [0,%d)", i, len(s.storage))
	}
	if s.storage[i] == item {
		return nil
	}
	old := s.storage[i]
	s.storage[i] = item
	if old != nil {
		s.refs.Remove(old)
	}
	s.refs.Add(item)
	return nil
}

// Get returns the item at index i. An index that was never Set reads back
// as stackitem.Null{}, matching the reference behavior for slots that
// were allocated but left sparse by the contract.
func (s *Slot) Get(i int) (stackitem.Item, error) {
	if i < 0 || i >= len(s.storage) {
		return nil, rangeErr("slot index %d out of bounds [0,%d)", i, len(s.storage))
	}
	if item := s.storage[i]; item != nil {
		return item, nil
	}
	return stackitem.Null{}, nil
}

// Size returns the slot's fixed length.
func (s *Slot) Size() int { return len(s.storage) }

// Clear releases every stored item's reference, used when a frame unloads.
func (s *Slot) Clear() {
	for i, item := range s.storage {
		if item != nil {
			s.refs.Remove(item)
			s.storage[i] = nil
		}
	}
}
