package opt

import (
	"github.com/notargets/gceed/ceed"
)

// Vector keeps a host and an emulated device copy and moves data between
// them only when the requested side is stale
type Vector struct {
	n        int
	host     []float64
	device   []float64
	sync     ceed.SyncState
	borrowed bool         // one side is a caller's array
	bmem     ceed.MemType // the borrowed side
}

func NewVector(n int) *Vector { return &Vector{n: n} }

func (v *Vector) buffer(mem ceed.MemType) *[]float64 {
	if mem == ceed.MemDevice {
		return &v.device
	}
	return &v.host
}

// ensure returns the array for mem, allocating it on first use
func (v *Vector) ensure(mem ceed.MemType) []float64 {
	buf := v.buffer(mem)
	if *buf == nil {
		*buf = make([]float64, v.n)
	}
	return *buf
}

func (v *Vector) other(mem ceed.MemType) ceed.MemType {
	if mem == ceed.MemDevice {
		return ceed.MemHost
	}
	return ceed.MemDevice
}

func checkMem(op string, mem ceed.MemType) error {
	if mem != ceed.MemHost && mem != ceed.MemDevice {
		return ceed.Errorf("Vector", op, ceed.ErrInvalidMemType, "%s", mem)
	}
	return nil
}

func (v *Vector) SetArray(mem ceed.MemType, own ceed.Ownership, data []float64) error {
	if err := checkMem("SetArray", mem); err != nil {
		return err
	}
	buf := v.buffer(mem)
	if own == ceed.CopiedIn {
		// never write through to a previously borrowed array
		*buf = make([]float64, v.n)
		copy(*buf, data)
		if v.borrowed && v.bmem == mem {
			v.borrowed = false
		}
	} else {
		*buf = data
		v.borrowed, v.bmem = true, mem
	}
	v.sync.Reset()
	v.sync.MarkWritten(mem)
	return nil
}

// SetValue fills the device side, or the borrowed side when the caller
// lent an array, so the lent array holds x on return
func (v *Vector) SetValue(x float64) error {
	mem := ceed.MemDevice
	if v.borrowed {
		mem = v.bmem
	}
	a := v.ensure(mem)
	for i := range a {
		a[i] = x
	}
	v.sync.MarkWritten(mem)
	return nil
}

func (v *Vector) GetArray(mem ceed.MemType, write bool) ([]float64, error) {
	if err := v.SyncArray(mem); err != nil {
		return nil, err
	}
	a := v.ensure(mem)
	if write {
		v.sync.MarkWritten(mem)
	}
	return a, nil
}

func (v *Vector) RestoreArray(mem ceed.MemType, write bool) error { return nil }

func (v *Vector) SyncArray(mem ceed.MemType) error {
	if err := checkMem("SyncArray", mem); err != nil {
		return err
	}
	if v.sync.NeedsCopy(mem) {
		copy(v.ensure(mem), *v.buffer(v.other(mem)))
		v.sync.MarkSynced(mem)
	}
	return nil
}

func (v *Vector) State() ceed.BufferState { return v.sync.State() }

func (v *Vector) Destroy() error {
	v.host, v.device = nil, nil
	v.borrowed = false
	v.sync.Reset()
	return nil
}
