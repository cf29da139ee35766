package occa

import (
	"github.com/notargets/gceed/backends/ref"
	"github.com/notargets/gceed/ceed"
	"github.com/notargets/gceed/runner"
	"github.com/notargets/gceed/utils"
	"github.com/notargets/gocca"
)

// Restriction gathers through a flat index per E-vector position and
// scatters through the transpose table, one device thread per L-vector row
type Restriction struct {
	r       *ceed.ElemRestriction
	runner  *runner.Runner
	gather  *gocca.OCCAKernel
	scatter *gocca.OCCAKernel
	idx     *gocca.OCCAMemory
	offsets *gocca.OCCAMemory
	slots   *gocca.OCCAMemory
}

// GatherIndex returns the L-vector position read by every E-vector slot
func GatherIndex(r *ceed.ElemRestriction) []int32 {
	idx := make([]int32, r.ESize())
	bes := r.BlockESize()
	for b := 0; b < r.NumBlocks(); b++ {
		for eb, el := range r.BlockElements(b) {
			for c := 0; c < r.NumComponents(); c++ {
				for i := 0; i < r.ElemSize(); i++ {
					idx[b*bes+r.EOffset(eb, i, c)] = int32(r.LOffset(r.Index(el, i), c))
				}
			}
		}
	}
	return idx
}

func newRestriction(kr *runner.Runner, r *ceed.ElemRestriction) (*Restriction, error) {
	kb := kernelBuilder()
	gather, err := kr.BuildKernel(kb, restrictSource, "kRestrict")
	if err != nil {
		return nil, err
	}
	scatter, err := kr.BuildKernel(kb, restrictSource, "kRestrictTranspose")
	if err != nil {
		return nil, err
	}
	st := utils.NewScatterTable(r)
	if err := st.Verify(); err != nil {
		return nil, ceed.Errorf("ElemRestriction", "Create", ceed.ErrInvalidArgument, "transpose table: %v", err)
	}
	// kRestrictTranspose runs one thread per row, so the longest row bounds its time
	r.Ceed().Logger().Debug("occa restriction ready", "rows", st.LSize, "maxRow", st.MaxRow())
	offsets, slots := st.Int32()
	return &Restriction{
		r:       r,
		runner:  kr,
		gather:  gather,
		scatter: scatter,
		idx:     kr.MallocInt32(GatherIndex(r)),
		offsets: kr.MallocInt32(offsets),
		slots:   kr.MallocInt32(slots),
	}, nil
}

func (rs *Restriction) Apply(tmode ceed.TransposeMode, u, v *ceed.Vector) error {
	in, err := DeviceMemory(u)
	if err != nil {
		return err
	}
	out, err := DeviceMemory(v)
	if err != nil {
		return err
	}
	if tmode == ceed.Transpose {
		err = rs.runner.RunKernel(rs.scatter, int32(rs.r.LSize()), rs.offsets, rs.slots, in, out)
	} else {
		err = rs.runner.RunKernel(rs.gather, int32(rs.r.ESize()), rs.idx, in, out)
	}
	if err != nil {
		return err
	}
	return MarkDeviceWritten(v)
}

// ApplyBlock works on the host; single blocks are too small to launch for
func (rs *Restriction) ApplyBlock(block int, tmode ceed.TransposeMode, u, v *ceed.Vector) error {
	in, err := u.GetArrayRead(ceed.MemHost)
	if err != nil {
		return err
	}
	defer u.RestoreArrayRead(&in)
	out, err := v.GetArray(ceed.MemHost)
	if err != nil {
		return err
	}
	defer v.RestoreArray(&out)
	if tmode == ceed.Transpose {
		ref.ScatterAdd(rs.r, block, in, out)
	} else {
		ref.Gather(rs.r, block, in, out)
	}
	return nil
}

func (rs *Restriction) Destroy() error {
	for _, m := range []*gocca.OCCAMemory{rs.idx, rs.offsets, rs.slots} {
		m.Free()
	}
	rs.idx, rs.offsets, rs.slots = nil, nil, nil
	return nil
}
