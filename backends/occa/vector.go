package occa

import (
	"github.com/notargets/gceed/ceed"
	"github.com/notargets/gceed/runner"
	"github.com/notargets/gocca"
)

// Vector keeps a host slice and a device buffer. The device buffer is
// allocated on first use; host checkouts copy back only when the device
// holds newer data.
type Vector struct {
	n      int
	runner *runner.Runner
	host   []float64
	mem    *gocca.OCCAMemory
	sync   ceed.SyncState
}

func hostOnly(op string, mem ceed.MemType) error {
	if mem != ceed.MemHost {
		return ceed.Errorf("Vector", op, ceed.ErrInvalidMemType, "%s memory is not host addressable", mem)
	}
	return nil
}

func (v *Vector) ensureHost() []float64 {
	if v.host == nil {
		v.host = make([]float64, v.n)
	}
	return v.host
}

func (v *Vector) SetArray(mem ceed.MemType, own ceed.Ownership, data []float64) error {
	if err := hostOnly("SetArray", mem); err != nil {
		return err
	}
	if own == ceed.CopiedIn {
		v.host = make([]float64, v.n)
		copy(v.host, data)
	} else {
		v.host = data
	}
	v.sync.Reset()
	v.sync.MarkWritten(ceed.MemHost)
	return nil
}

func (v *Vector) SetValue(x float64) error {
	a := v.ensureHost()
	for i := range a {
		a[i] = x
	}
	v.sync.MarkWritten(ceed.MemHost)
	return nil
}

func (v *Vector) GetArray(mem ceed.MemType, write bool) ([]float64, error) {
	if err := hostOnly("GetArray", mem); err != nil {
		return nil, err
	}
	if err := v.SyncArray(mem); err != nil {
		return nil, err
	}
	a := v.ensureHost()
	if write {
		v.sync.MarkWritten(ceed.MemHost)
	}
	return a, nil
}

func (v *Vector) RestoreArray(mem ceed.MemType, write bool) error { return nil }

func (v *Vector) SyncArray(mem ceed.MemType) error {
	switch mem {
	case ceed.MemHost:
		if v.sync.NeedsCopy(ceed.MemHost) {
			runner.CopyToHost(v.mem, v.ensureHost())
			v.sync.MarkSynced(ceed.MemHost)
		}
		return nil
	case ceed.MemDevice:
		v.device()
		return nil
	}
	return hostOnly("SyncArray", mem)
}

// device returns the device buffer holding current data
func (v *Vector) device() *gocca.OCCAMemory {
	if v.mem == nil {
		v.mem = v.runner.MallocFloat64(v.n, v.ensureHost())
		v.sync.MarkSynced(ceed.MemDevice)
		return v.mem
	}
	if v.sync.NeedsCopy(ceed.MemDevice) {
		runner.CopyToDevice(v.mem, v.host)
		v.sync.MarkSynced(ceed.MemDevice)
	}
	return v.mem
}

func (v *Vector) State() ceed.BufferState { return v.sync.State() }

func (v *Vector) Destroy() error {
	if v.mem != nil {
		v.mem.Free()
		v.mem = nil
	}
	v.host = nil
	v.sync.Reset()
	return nil
}

func impl(op string, x *ceed.Vector) (*Vector, error) {
	v, ok := x.Impl().(*Vector)
	if !ok {
		return nil, ceed.Errorf("Vector", op, ceed.ErrInvalidArgument, "vector does not belong to an occa context")
	}
	return v, nil
}

// DeviceMemory returns the device buffer of x after bringing it up to date.
// Callers that write the buffer must call MarkDeviceWritten.
func DeviceMemory(x *ceed.Vector) (*gocca.OCCAMemory, error) {
	v, err := impl("DeviceMemory", x)
	if err != nil {
		return nil, err
	}
	return v.device(), nil
}

// MarkDeviceWritten records that a kernel modified the device buffer of x
func MarkDeviceWritten(x *ceed.Vector) error {
	v, err := impl("MarkDeviceWritten", x)
	if err != nil {
		return err
	}
	v.sync.MarkWritten(ceed.MemDevice)
	return nil
}
