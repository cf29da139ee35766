// Package gallery provides QFunctions for mass and Poisson problems. Each
// constructor declares the fields an operator has to bind:
//
//	MassBuild     dx (dim*dim, grad), weights (1, weight) -> qdata (1, none)
//	MassApply     u (ncomp, interp), qdata (1, none)      -> v (ncomp, interp)
//	PoissonBuild  dx (dim*dim, grad), weights (1, weight) -> qdata (dim(dim+1)/2, none)
//	PoissonApply  du (dim, grad), qdata                   -> dv (dim, grad)
//
// Gradient fields hold entry d*ncomp+c for derivative d of component c, so
// the coordinate Jacobian arrives as dx[d*dim+c] = dx_c/dX_d.
package gallery

import (
	"fmt"

	"github.com/notargets/gceed/ceed"
)

// BuildContext is the context of the geometric factor QFunctions
type BuildContext struct {
	Dim      int32
	SpaceDim int32
}

type field struct {
	name  string
	size  int
	emode ceed.EvalMode
}

func create(c *ceed.Ceed, name string, fn ceed.QFunctionCallback, ctx any, inputs, outputs []field) (*ceed.QFunction, error) {
	qf, err := c.NewQFunction(name, fn)
	if err != nil {
		return nil, err
	}
	for _, f := range inputs {
		if err := qf.AddInput(f.name, f.size, f.emode); err != nil {
			qf.Destroy()
			return nil, err
		}
	}
	for _, f := range outputs {
		if err := qf.AddOutput(f.name, f.size, f.emode); err != nil {
			qf.Destroy()
			return nil, err
		}
	}
	if ctx != nil {
		data, err := ceed.EncodeContext(ctx)
		if err == nil {
			err = qf.SetContext(data)
		}
		if err != nil {
			qf.Destroy()
			return nil, err
		}
	}
	return qf, nil
}

func checkDim(dim int) error {
	if dim < 1 || dim > 3 {
		return ceed.Errorf("QFunction", "Create", ceed.ErrInvalidArgument, "dimension %d not in [1,3]", dim)
	}
	return nil
}

// NumQData is the number of stored geometric factors per point of a
// Poisson problem in dim dimensions
func NumQData(dim int) int { return dim * (dim + 1) / 2 }

func buildContext(ctx []byte) (int, error) {
	bc, err := ceed.DecodeContext[BuildContext](ctx)
	if err != nil {
		return 0, err
	}
	if bc.Dim != bc.SpaceDim || bc.Dim < 1 || bc.Dim > 3 {
		return 0, fmt.Errorf("dim %d in space dim %d not supported", bc.Dim, bc.SpaceDim)
	}
	return int(bc.Dim), nil
}

// MassBuild stores w*det(J) at every quadrature point
func MassBuild(c *ceed.Ceed, dim int) (*ceed.QFunction, error) {
	if err := checkDim(dim); err != nil {
		return nil, err
	}
	return create(c, "mass_build", massBuild, BuildContext{Dim: int32(dim), SpaceDim: int32(dim)},
		[]field{{"dx", dim * dim, ceed.EvalGrad}, {"weights", 1, ceed.EvalWeight}},
		[]field{{"qdata", 1, ceed.EvalNone}})
}

func massBuild(ctx []byte, Q int, in, out [][]float64) error {
	dim, err := buildContext(ctx)
	if err != nil {
		return err
	}
	dx, w, qd := in[0], in[1], out[0]
	var J [3][3]float64
	for i := 0; i < Q; i++ {
		jacobian(dim, dx, Q, i, &J)
		qd[i] = w[i] * det(dim, &J)
	}
	return nil
}

// MassApply computes v = qdata*u per component
func MassApply(c *ceed.Ceed, ncomp int) (*ceed.QFunction, error) {
	return create(c, "mass_apply", massApply, nil,
		[]field{{"u", ncomp, ceed.EvalInterp}, {"qdata", 1, ceed.EvalNone}},
		[]field{{"v", ncomp, ceed.EvalInterp}})
}

func massApply(_ []byte, Q int, in, out [][]float64) error {
	u, qd, v := in[0], in[1], out[0]
	for k := range len(v) / Q {
		for i := 0; i < Q; i++ {
			v[k*Q+i] = qd[i] * u[k*Q+i]
		}
	}
	return nil
}

// PoissonBuild stores the symmetric matrix w/det(J) adj(J) adj(J)^T in the
// order 00 (1-D); 00 11 01 (2-D); 00 11 22 12 02 01 (3-D)
func PoissonBuild(c *ceed.Ceed, dim int) (*ceed.QFunction, error) {
	if err := checkDim(dim); err != nil {
		return nil, err
	}
	return create(c, "poisson_build", poissonBuild, BuildContext{Dim: int32(dim), SpaceDim: int32(dim)},
		[]field{{"dx", dim * dim, ceed.EvalGrad}, {"weights", 1, ceed.EvalWeight}},
		[]field{{"qdata", NumQData(dim), ceed.EvalNone}})
}

var voigt = [4][][2]int{
	1: {{0, 0}},
	2: {{0, 0}, {1, 1}, {0, 1}},
	3: {{0, 0}, {1, 1}, {2, 2}, {1, 2}, {0, 2}, {0, 1}},
}

func poissonBuild(ctx []byte, Q int, in, out [][]float64) error {
	dim, err := buildContext(ctx)
	if err != nil {
		return err
	}
	dx, w, qd := in[0], in[1], out[0]
	var J, A [3][3]float64
	for i := 0; i < Q; i++ {
		jacobian(dim, dx, Q, i, &J)
		detJ := det(dim, &J)
		if detJ == 0 {
			return fmt.Errorf("point %d: singular Jacobian", i)
		}
		adjugate(dim, &J, &A)
		for k, de := range voigt[dim] {
			var s float64
			for c := 0; c < dim; c++ {
				s += A[de[0]][c] * A[de[1]][c]
			}
			qd[k*Q+i] = w[i] * s / detJ
		}
	}
	return nil
}

// PoissonApply computes dv = D du with D from PoissonBuild
func PoissonApply(c *ceed.Ceed, dim int) (*ceed.QFunction, error) {
	if err := checkDim(dim); err != nil {
		return nil, err
	}
	return create(c, "poisson_apply", poissonApply, BuildContext{Dim: int32(dim), SpaceDim: int32(dim)},
		[]field{{"du", dim, ceed.EvalGrad}, {"qdata", NumQData(dim), ceed.EvalNone}},
		[]field{{"dv", dim, ceed.EvalGrad}})
}

func poissonApply(ctx []byte, Q int, in, out [][]float64) error {
	dim, err := buildContext(ctx)
	if err != nil {
		return err
	}
	du, qd, dv := in[0], in[1], out[0]
	for i := 0; i < Q; i++ {
		var D [3][3]float64
		for k, de := range voigt[dim] {
			D[de[0]][de[1]] = qd[k*Q+i]
			D[de[1]][de[0]] = qd[k*Q+i]
		}
		for d := 0; d < dim; d++ {
			var s float64
			for e := 0; e < dim; e++ {
				s += D[d][e] * du[e*Q+i]
			}
			dv[d*Q+i] = s
		}
	}
	return nil
}

// WeightedMass computes v = w*u with w the quadrature weights, the mass
// matrix of the reference element
func WeightedMass(c *ceed.Ceed, ncomp int) (*ceed.QFunction, error) {
	return create(c, "weighted_mass", weightedMass, nil,
		[]field{{"u", ncomp, ceed.EvalInterp}, {"w", 1, ceed.EvalWeight}},
		[]field{{"v", ncomp, ceed.EvalInterp}})
}

func weightedMass(_ []byte, Q int, in, out [][]float64) error {
	return massApply(nil, Q, in, out)
}

// Identity copies its input to its output
func Identity(c *ceed.Ceed, size int, inMode, outMode ceed.EvalMode) (*ceed.QFunction, error) {
	return create(c, "identity", identity, nil,
		[]field{{"input", size, inMode}},
		[]field{{"output", size, outMode}})
}

func identity(_ []byte, Q int, in, out [][]float64) error {
	copy(out[0], in[0])
	return nil
}

// Scale multiplies its input by alpha, carried in the context
func Scale(c *ceed.Ceed, size int, alpha float64) (*ceed.QFunction, error) {
	return create(c, "scale", scale, alpha,
		[]field{{"input", size, ceed.EvalInterp}},
		[]field{{"output", size, ceed.EvalInterp}})
}

func scale(ctx []byte, Q int, in, out [][]float64) error {
	alpha, err := ceed.DecodeContext[float64](ctx)
	if err != nil {
		return err
	}
	for i, x := range in[0] {
		out[0][i] = alpha * x
	}
	return nil
}
