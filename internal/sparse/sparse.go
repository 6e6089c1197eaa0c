// Package sparse provides a sparse set of state IDs.
//
// A sparse set supports O(1) insertion and membership testing while keeping
// a dense list of members in insertion order. The automaton builder uses it
// as the visited set and work list of its reachability check.
package sparse

// SparseSet is a set of uint32 values below a fixed capacity.
type SparseSet struct {
	sparse []uint32 // maps value -> index in dense
	dense  []uint32 // members in insertion order
}

// NewSparseSet creates a set that can hold values in [0, capacity).
func NewSparseSet(capacity uint32) *SparseSet {
	return &SparseSet{
		sparse: make([]uint32, capacity),
		dense:  make([]uint32, 0, capacity),
	}
}

// Insert adds value and reports whether it was newly added.
// Panics if value >= capacity.
func (s *SparseSet) Insert(value uint32) bool {
	if s.Contains(value) {
		return false
	}
	//nolint:gosec // G115: len(dense) < capacity, which fits in uint32
	s.sparse[value] = uint32(len(s.dense))
	s.dense = append(s.dense, value)
	return true
}

// Contains reports whether value is in the set.
func (s *SparseSet) Contains(value uint32) bool {
	if int(value) >= len(s.sparse) {
		return false
	}
	idx := s.sparse[value]
	return int(idx) < len(s.dense) && s.dense[idx] == value
}

// At returns the i-th member in insertion order.
func (s *SparseSet) At(i int) uint32 {
	return s.dense[i]
}

// Len returns the number of members.
func (s *SparseSet) Len() int {
	return len(s.dense)
}
