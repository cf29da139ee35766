package ref

import (
	"github.com/notargets/gceed/ceed"
)

// Basis evaluates on the host with ceed.TensorContract
type Basis struct {
	b       *ceed.Basis
	scratch []float64
}

func (bs *Basis) Apply(nelem int, tmode ceed.TransposeMode, emode ceed.EvalMode, u, v *ceed.Vector) error {
	var in []float64
	if emode != ceed.EvalWeight {
		var err error
		if in, err = u.GetArrayRead(ceed.MemHost); err != nil {
			return err
		}
		defer u.RestoreArrayRead(&in)
	}
	out, err := v.GetArray(ceed.MemHost)
	if err != nil {
		return err
	}
	defer v.RestoreArray(&out)
	if n := bs.b.ScratchSize(nelem); len(bs.scratch) < n {
		bs.scratch = make([]float64, n)
	}
	return bs.b.Eval(ceed.TensorContract, nelem, tmode, emode, in, out, bs.scratch)
}

func (bs *Basis) Destroy() error {
	bs.scratch = nil
	return nil
}
