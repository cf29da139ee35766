package occa

import (
	"github.com/notargets/gceed/ceed"
	"github.com/notargets/gceed/runner"
	"github.com/notargets/gceed/runner/builder"
	"github.com/notargets/gocca"
	"gonum.org/v1/gonum/mat"
)

// Basis replays the contraction plan of a basis on the device. The basis
// matrices are compiled into the kernel, so bases with equal matrices share
// one build.
type Basis struct {
	b        *ceed.Basis
	runner   *runner.Runner
	contract *gocca.OCCAKernel
	weight   *gocca.OCCAKernel
	scratch  *gocca.OCCAMemory
	nscratch int
}

// basisBuilder embeds the matrices of b. INTERP and GRAD keep their
// row-major layout, with dense gradients stacked by dimension; QWEIGHT is
// the 1 x Q row of full quadrature weights.
func basisBuilder(b *ceed.Basis) *builder.Builder {
	cols := b.NumNodes()
	if b.IsTensor() {
		cols = b.NumNodes1D()
	}
	asMatrix := func(a []float64) mat.Matrix {
		return mat.NewDense(len(a)/cols, cols, a)
	}
	w := make([]float64, b.NumQuadraturePoints())
	b.Eval(nil, 1, ceed.NoTranspose, ceed.EvalWeight, nil, w, nil)

	return kernelBuilder().
		Define("NQPTS", b.NumQuadraturePoints()).
		AddStaticMatrix("INTERP", asMatrix(b.Interp())).
		AddStaticMatrix("GRAD", asMatrix(b.Grad())).
		AddStaticMatrix("QWEIGHT", mat.NewDense(1, len(w), w))
}

func newBasis(kr *runner.Runner, b *ceed.Basis) (*Basis, error) {
	kb := basisBuilder(b)
	contract, err := kr.BuildKernel(kb, basisSource, "kContract")
	if err != nil {
		return nil, err
	}
	weight, err := kr.BuildKernel(kb, basisSource, "kWeight")
	if err != nil {
		return nil, err
	}
	return &Basis{b: b, runner: kr, contract: contract, weight: weight}, nil
}

func flag(x bool) int32 {
	if x {
		return 1
	}
	return 0
}

func (bs *Basis) Apply(nelem int, tmode ceed.TransposeMode, emode ceed.EvalMode, u, v *ceed.Vector) error {
	out, err := DeviceMemory(v)
	if err != nil {
		return err
	}
	if emode == ceed.EvalWeight {
		if err := bs.runner.RunKernel(bs.weight, int32(nelem), out); err != nil {
			return err
		}
		return MarkDeviceWritten(v)
	}

	steps, err := bs.b.Plan(nelem, tmode, emode)
	if err != nil {
		return err
	}
	in, err := DeviceMemory(u)
	if err != nil {
		return err
	}
	if n := bs.b.ScratchSize(nelem); bs.scratch == nil || n > bs.nscratch {
		if bs.scratch != nil {
			bs.scratch.Free()
		}
		bs.scratch, bs.nscratch = bs.runner.MallocFloat64(n, nil), n
	}
	buffers := map[ceed.Buffer]*gocca.OCCAMemory{
		ceed.BufIn:      in,
		ceed.BufOut:     out,
		ceed.BufScratch: bs.scratch,
	}
	for _, s := range steps {
		err := bs.runner.RunKernel(bs.contract,
			int32(s.A), int32(s.B), int32(s.C), int32(s.J),
			int32(s.Mat), int32(s.MatOff), flag(s.TMode == ceed.Transpose), flag(s.Add),
			buffers[s.In], int32(s.InOff), buffers[s.Out], int32(s.OutOff))
		if err != nil {
			return err
		}
	}
	return MarkDeviceWritten(v)
}

func (bs *Basis) Destroy() error {
	if bs.scratch != nil {
		bs.scratch.Free()
		bs.scratch = nil
	}
	return nil
}
