package utils

import (
	"fmt"

	"github.com/notargets/gceed/ceed"
)

// ScatterTable is the transpose of a restriction's gather in compressed row
// form: L-vector entry l receives the E-vector positions
// Slots[Offsets[l]:Offsets[l+1]]. Rows are owned by exactly one writer, so
// a transpose restriction split by rows needs no atomics and sums in a fixed
// order.
type ScatterTable struct {
	LSize   int
	ESize   int
	Offsets []int
	Slots   []int
}

// NewScatterTable builds the table for r. Padded block slots are left out.
func NewScatterTable(r *ceed.ElemRestriction) *ScatterTable {
	st := &ScatterTable{
		LSize:   r.LSize(),
		ESize:   r.ESize(),
		Offsets: make([]int, r.LSize()+1),
	}
	bes := r.BlockESize()

	// Count contributions per L-vector entry
	visit := func(fn func(l, slot int)) {
		for b := 0; b < r.NumBlocks(); b++ {
			elems := r.BlockElements(b)[:r.BlockActive(b)]
			for eb, el := range elems {
				for c := 0; c < r.NumComponents(); c++ {
					for i := 0; i < r.ElemSize(); i++ {
						fn(r.LOffset(r.Index(el, i), c), b*bes+r.EOffset(eb, i, c))
					}
				}
			}
		}
	}
	visit(func(l, _ int) { st.Offsets[l+1]++ })
	for l := 0; l < st.LSize; l++ {
		st.Offsets[l+1] += st.Offsets[l]
	}

	// Fill rows in element order
	st.Slots = make([]int, st.Offsets[st.LSize])
	next := append([]int(nil), st.Offsets[:st.LSize]...)
	visit(func(l, slot int) {
		st.Slots[next[l]] = slot
		next[l]++
	})
	return st
}

// Row returns the E-vector positions that add into L-vector entry l
func (st *ScatterTable) Row(l int) []int {
	return st.Slots[st.Offsets[l]:st.Offsets[l+1]]
}

// MaxRow is the largest number of contributions to one entry
func (st *ScatterTable) MaxRow() int {
	m := 0
	for l := 0; l < st.LSize; l++ {
		m = max(m, st.Offsets[l+1]-st.Offsets[l])
	}
	return m
}

// ScatterAdd adds e into rows [first, last) of l
func (st *ScatterTable) ScatterAdd(e, l []float64, first, last int) {
	for row := first; row < last; row++ {
		sum := l[row]
		for _, s := range st.Slots[st.Offsets[row]:st.Offsets[row+1]] {
			sum += e[s]
		}
		l[row] = sum
	}
}

// Int32 returns the offsets and slots narrowed for device kernels
func (st *ScatterTable) Int32() (offsets, slots []int32) {
	offsets = make([]int32, len(st.Offsets))
	for i, o := range st.Offsets {
		offsets[i] = int32(o)
	}
	slots = make([]int32, len(st.Slots))
	for i, s := range st.Slots {
		slots[i] = int32(s)
	}
	return offsets, slots
}

// Verify checks that offsets are monotone, slots are in range and no
// E-vector position is used twice
func (st *ScatterTable) Verify() error {
	if len(st.Offsets) != st.LSize+1 || st.Offsets[0] != 0 {
		return fmt.Errorf("offsets have length %d, want %d starting at 0", len(st.Offsets), st.LSize+1)
	}
	for l := 0; l < st.LSize; l++ {
		if st.Offsets[l+1] < st.Offsets[l] {
			return fmt.Errorf("offsets decrease at row %d", l)
		}
	}
	if st.Offsets[st.LSize] != len(st.Slots) {
		return fmt.Errorf("offsets end at %d, have %d slots", st.Offsets[st.LSize], len(st.Slots))
	}
	seen := make([]bool, st.ESize)
	for _, s := range st.Slots {
		if s < 0 || s >= st.ESize {
			return fmt.Errorf("slot %d not in [0,%d)", s, st.ESize)
		}
		if seen[s] {
			return fmt.Errorf("slot %d scattered twice", s)
		}
		seen[s] = true
	}
	return nil
}
