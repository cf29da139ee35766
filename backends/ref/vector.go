package ref

import (
	"github.com/notargets/gceed/ceed"
)

// Vector is host storage. Device requests fail with ErrInvalidMemType.
type Vector struct {
	n     int
	data  []float64
	owned bool
	state ceed.BufferState
}

func NewVector(n int) *Vector { return &Vector{n: n} }

func hostOnly(op string, mem ceed.MemType) error {
	if mem != ceed.MemHost {
		return ceed.Errorf("Vector", op, ceed.ErrInvalidMemType, "%s backend has no %s memory", Prefix, mem)
	}
	return nil
}

func (v *Vector) SetArray(mem ceed.MemType, own ceed.Ownership, data []float64) error {
	if err := hostOnly("SetArray", mem); err != nil {
		return err
	}
	if own == ceed.CopiedIn {
		if !v.owned || len(v.data) != v.n {
			v.data = make([]float64, v.n)
			v.owned = true
		}
		copy(v.data, data)
	} else {
		v.data = data
		v.owned = false
	}
	v.state = ceed.HostValid
	return nil
}

func (v *Vector) SetValue(x float64) error {
	v.alloc()
	for i := range v.data {
		v.data[i] = x
	}
	v.state = ceed.HostValid
	return nil
}

// alloc gives an uninitialized vector zeroed owned storage
func (v *Vector) alloc() {
	if v.data == nil {
		v.data = make([]float64, v.n)
		v.owned = true
	}
}

func (v *Vector) GetArray(mem ceed.MemType, write bool) ([]float64, error) {
	if err := hostOnly("GetArray", mem); err != nil {
		return nil, err
	}
	v.alloc()
	if write {
		v.state = ceed.HostValid
	}
	return v.data, nil
}

func (v *Vector) RestoreArray(mem ceed.MemType, write bool) error { return nil }

func (v *Vector) SyncArray(mem ceed.MemType) error { return hostOnly("SyncArray", mem) }

func (v *Vector) State() ceed.BufferState { return v.state }

func (v *Vector) Destroy() error {
	v.data = nil
	v.state = ceed.Uninitialized
	return nil
}
