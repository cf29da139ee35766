package ceed

import (
	"fmt"
	"io"
	"math"
	"sync"
	"unsafe"

	"gonum.org/v1/gonum/floats"
)

// Vector is a length n array of scalars with an ownership mode and copies
// in up to two memory spaces. Arrays are checked out with GetArray or
// GetArrayRead and returned with the matching Restore call; one writer or
// any number of readers may hold the vector at a time.
type Vector struct {
	object
	impl   VectorImpl
	length int
	own    Ownership

	mu     sync.Mutex
	writer bool
	wmem   MemType
	reads  []lease
}

type lease struct {
	mem  MemType
	data *float64
}

// Operator field markers
var (
	// VectorActive binds a field to the vectors passed to Operator.Apply
	VectorActive = &Vector{object: object{kind: "Vector", marker: "active"}}
	// VectorNone marks a field with no vector, such as quadrature weights
	VectorNone = &Vector{object: object{kind: "Vector", marker: "none"}}
)

// NewVector creates an uninitialized vector of length n
func (c *Ceed) NewVector(n int) (*Vector, error) {
	if n < 0 {
		return nil, Errorf("Vector", "Create", ErrInvalidArgument, "negative length %d", n)
	}
	v := &Vector{length: n}
	if err := v.init(c, "Vector"); err != nil {
		return nil, err
	}
	impl, err := c.backend.NewVector(v)
	if err != nil {
		v.abandon()
		return nil, wrap("Vector", "Create", err)
	}
	v.impl = impl
	c.log.Debug("vector created", "length", n)
	return v, nil
}

func (v *Vector) Length() int          { return v.length }
func (v *Vector) Ownership() Ownership { return v.own }
func (v *Vector) Impl() VectorImpl     { return v.impl }

func (v *Vector) State() BufferState {
	if v.impl == nil {
		return Uninitialized
	}
	return v.impl.State()
}

func (v *Vector) checkedOut() bool { return v.writer || len(v.reads) > 0 }

// SetArray hands data to the vector under the given ownership
func (v *Vector) SetArray(mem MemType, own Ownership, data []float64) error {
	if err := v.alive("SetArray"); err != nil {
		return err
	}
	if data == nil {
		return Errorf("Vector", "SetArray", ErrNullArray, "nil data")
	}
	if len(data) != v.length {
		return Errorf("Vector", "SetArray", ErrDimensionMismatch, "data length %d, vector length %d", len(data), v.length)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.checkedOut() {
		return Errorf("Vector", "SetArray", ErrAlreadyCheckedOut, "")
	}
	if err := v.impl.SetArray(mem, own, data); err != nil {
		return wrap("Vector", "SetArray", err)
	}
	v.own = own
	return nil
}

// SetValue sets every entry to x
func (v *Vector) SetValue(x float64) error {
	if err := v.alive("SetValue"); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.checkedOut() {
		return Errorf("Vector", "SetValue", ErrAlreadyCheckedOut, "")
	}
	if v.own == BorrowedReadOnly {
		return Errorf("Vector", "SetValue", ErrReadOnly, "")
	}
	return wrap("Vector", "SetValue", v.impl.SetValue(x))
}

// GetArray checks out the array in mem for writing. The copy in the other
// memory space becomes stale.
func (v *Vector) GetArray(mem MemType) ([]float64, error) {
	if err := v.alive("GetArray"); err != nil {
		return nil, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.checkedOut() {
		return nil, Errorf("Vector", "GetArray", ErrAlreadyCheckedOut, "writer=%v readers=%d", v.writer, len(v.reads))
	}
	if v.own == BorrowedReadOnly {
		return nil, Errorf("Vector", "GetArray", ErrReadOnly, "")
	}
	a, err := v.impl.GetArray(mem, true)
	if err != nil {
		return nil, wrap("Vector", "GetArray", err)
	}
	v.writer = true
	v.wmem = mem
	return a, nil
}

// GetArrayRead checks out the array in mem for reading
func (v *Vector) GetArrayRead(mem MemType) ([]float64, error) {
	if err := v.alive("GetArrayRead"); err != nil {
		return nil, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.writer {
		return nil, Errorf("Vector", "GetArrayRead", ErrAlreadyCheckedOut, "checked out for writing")
	}
	if v.impl.State() == Uninitialized {
		return nil, Errorf("Vector", "GetArrayRead", ErrNoData, "")
	}
	a, err := v.impl.GetArray(mem, false)
	if err != nil {
		return nil, wrap("Vector", "GetArrayRead", err)
	}
	v.reads = append(v.reads, lease{mem: mem, data: unsafe.SliceData(a)})
	return a, nil
}

// RestoreArray returns an array obtained from GetArray and clears *a
func (v *Vector) RestoreArray(a *[]float64) error {
	if err := v.alive("RestoreArray"); err != nil {
		return err
	}
	if a == nil || *a == nil {
		return Errorf("Vector", "RestoreArray", ErrNullArray, "nil array")
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.writer {
		return Errorf("Vector", "RestoreArray", ErrNullArray, "array was not checked out for writing")
	}
	if err := v.impl.RestoreArray(v.wmem, true); err != nil {
		return wrap("Vector", "RestoreArray", err)
	}
	v.writer = false
	*a = nil
	return nil
}

// RestoreArrayRead returns an array obtained from GetArrayRead and clears *a
func (v *Vector) RestoreArrayRead(a *[]float64) error {
	if err := v.alive("RestoreArrayRead"); err != nil {
		return err
	}
	if a == nil || *a == nil {
		return Errorf("Vector", "RestoreArrayRead", ErrNullArray, "nil array")
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	i := v.findLease(unsafe.SliceData(*a))
	if i < 0 {
		return Errorf("Vector", "RestoreArrayRead", ErrNullArray, "array was not checked out for reading")
	}
	if err := v.impl.RestoreArray(v.reads[i].mem, false); err != nil {
		return wrap("Vector", "RestoreArrayRead", err)
	}
	v.reads = append(v.reads[:i], v.reads[i+1:]...)
	*a = nil
	return nil
}

func (v *Vector) findLease(p *float64) int {
	for i, l := range v.reads {
		if l.data == p {
			return i
		}
	}
	// zero length arrays have no stable data pointer
	if v.length == 0 && len(v.reads) > 0 {
		return len(v.reads) - 1
	}
	return -1
}

// SyncArray makes mem hold current data without checking the array out
func (v *Vector) SyncArray(mem MemType) error {
	if err := v.alive("SyncArray"); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.writer {
		return Errorf("Vector", "SyncArray", ErrAlreadyCheckedOut, "checked out for writing")
	}
	if v.impl.State() == Uninitialized {
		return Errorf("Vector", "SyncArray", ErrNoData, "")
	}
	return wrap("Vector", "SyncArray", v.impl.SyncArray(mem))
}

// Norm computes the 1, 2 or max norm on the host
func (v *Vector) Norm(t NormType) (float64, error) {
	a, err := v.GetArrayRead(MemHost)
	if err != nil {
		return 0, err
	}
	defer v.RestoreArrayRead(&a)
	switch t {
	case Norm1:
		return floats.Norm(a, 1), nil
	case Norm2:
		return floats.Norm(a, 2), nil
	case NormMax:
		return floats.Norm(a, math.Inf(1)), nil
	}
	return 0, Errorf("Vector", "Norm", ErrInvalidArgument, "norm type %d", t)
}

// View writes the entries with format, one per line
func (v *Vector) View(w io.Writer, format string) error {
	a, err := v.GetArrayRead(MemHost)
	if err != nil {
		return err
	}
	defer v.RestoreArrayRead(&a)
	fmt.Fprintf(w, "Vector length %d\n", v.length)
	for _, x := range a {
		fmt.Fprintf(w, format+"\n", x)
	}
	return nil
}

// Destroy releases the vector. Borrowed arrays are left to their owner.
func (v *Vector) Destroy() error {
	if v == nil {
		return nil
	}
	ok, err := v.beginDestroy()
	if !ok {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.checkedOut() {
		return Errorf("Vector", "Destroy", ErrAlreadyCheckedOut, "")
	}
	if err := v.impl.Destroy(); err != nil {
		return wrap("Vector", "Destroy", err)
	}
	v.endDestroy()
	return nil
}
