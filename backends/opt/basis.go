package opt

import (
	"github.com/notargets/gceed/ceed"
)

// Basis evaluates on the emulated device arrays with GemmContract
type Basis struct {
	b       *ceed.Basis
	scratch []float64
}

func (bs *Basis) Apply(nelem int, tmode ceed.TransposeMode, emode ceed.EvalMode, u, v *ceed.Vector) error {
	var in []float64
	if emode != ceed.EvalWeight {
		var err error
		if in, err = u.GetArrayRead(ceed.MemDevice); err != nil {
			return err
		}
		defer u.RestoreArrayRead(&in)
	}
	out, err := v.GetArray(ceed.MemDevice)
	if err != nil {
		return err
	}
	defer v.RestoreArray(&out)
	if n := bs.b.ScratchSize(nelem); len(bs.scratch) < n {
		bs.scratch = make([]float64, n)
	}
	return bs.b.Eval(GemmContract, nelem, tmode, emode, in, out, bs.scratch)
}

func (bs *Basis) Destroy() error {
	bs.scratch = nil
	return nil
}
