package ceed

import (
	"fmt"
	"io"

	"github.com/notargets/gceed/element"
	"gonum.org/v1/gonum/mat"
)

// Basis evaluates element values and gradients at quadrature points. A
// tensor basis holds 1-D matrices and applies them one axis at a time; a
// non-tensor basis holds full [Q x P] matrices.
type Basis struct {
	object
	impl   BasisImpl
	topo   Topology
	tensor bool
	dim    int
	ncomp  int
	p1d    int
	q1d    int
	p, q   int // nodes and points per element

	// row-major; 1-D for tensor bases
	interp  []float64 // [Q][P]
	grad    []float64 // tensor [Q][P], otherwise [dim][Q][P]
	qref    []float64 // tensor [Q], otherwise [dim][Q]
	qweight []float64 // [Q]
}

// BasisCollocated marks an operator field whose data already lives at
// quadrature points
var BasisCollocated = &Basis{object: object{kind: "Basis", marker: "collocated"}}

// NewBasisTensorH1 creates a tensor product basis from 1-D matrices.
// interp1d and grad1d are row-major [Q1d][P1d].
func (c *Ceed) NewBasisTensorH1(dim, ncomp, P1d, Q1d int, interp1d, grad1d, qref1d, qweight1d []float64) (*Basis, error) {
	if dim < 1 || dim > 3 || ncomp < 1 || P1d < 1 || Q1d < 1 {
		return nil, Errorf("Basis", "Create", ErrInvalidArgument, "dim=%d ncomp=%d P1d=%d Q1d=%d", dim, ncomp, P1d, Q1d)
	}
	if err := checkLen("interp1d", interp1d, Q1d*P1d); err != nil {
		return nil, err
	}
	if err := checkLen("grad1d", grad1d, Q1d*P1d); err != nil {
		return nil, err
	}
	if err := checkLen("qref1d", qref1d, Q1d); err != nil {
		return nil, err
	}
	if err := checkLen("qweight1d", qweight1d, Q1d); err != nil {
		return nil, err
	}
	b := &Basis{
		topo:    [...]Topology{Line, Quad, Hex}[dim-1],
		tensor:  true,
		dim:     dim,
		ncomp:   ncomp,
		p1d:     P1d,
		q1d:     Q1d,
		p:       ipow(P1d, dim),
		q:       ipow(Q1d, dim),
		interp:  clone(interp1d),
		grad:    clone(grad1d),
		qref:    clone(qref1d),
		qweight: clone(qweight1d),
	}
	return c.bindBasis(b)
}

// NewBasisTensorH1Lagrange creates a tensor Lagrange basis with P
// Gauss-Lobatto nodes and Q Gauss or Gauss-Lobatto points per direction
func (c *Ceed) NewBasisTensorH1Lagrange(dim, ncomp, P, Q int, qmode QuadMode) (*Basis, error) {
	if P < 2 {
		return nil, Errorf("Basis", "Create", ErrInvalidArgument, "P=%d, need at least 2 nodes", P)
	}
	nodes, _, err := LobattoQuadrature(P)
	if err != nil {
		return nil, err
	}
	var qref, qweight []float64
	switch qmode {
	case GaussQuad:
		qref, qweight, err = GaussQuadrature(Q)
	case GaussLobatto:
		qref, qweight, err = LobattoQuadrature(Q)
	default:
		err = Errorf("Basis", "Create", ErrInvalidArgument, "quadrature mode %d", qmode)
	}
	if err != nil {
		return nil, err
	}
	interp, grad := LagrangeMatrices(nodes, qref)
	return c.NewBasisTensorH1(dim, ncomp, P, Q, interp, grad, qref, qweight)
}

// NewBasisH1 creates a non-tensor basis from full matrices: interp
// [nqpts][nnodes], grad [dim][nqpts][nnodes], qref [dim][nqpts]
func (c *Ceed) NewBasisH1(topo Topology, ncomp, nnodes, nqpts int, interp, grad, qref, qweight []float64) (*Basis, error) {
	dim := topo.Dim()
	if ncomp < 1 || nnodes < 1 || nqpts < 1 {
		return nil, Errorf("Basis", "Create", ErrInvalidArgument, "ncomp=%d nnodes=%d nqpts=%d", ncomp, nnodes, nqpts)
	}
	if err := checkLen("interp", interp, nqpts*nnodes); err != nil {
		return nil, err
	}
	if err := checkLen("grad", grad, dim*nqpts*nnodes); err != nil {
		return nil, err
	}
	if err := checkLen("qref", qref, dim*nqpts); err != nil {
		return nil, err
	}
	if err := checkLen("qweight", qweight, nqpts); err != nil {
		return nil, err
	}
	b := &Basis{
		topo:    topo,
		dim:     dim,
		ncomp:   ncomp,
		p:       nnodes,
		q:       nqpts,
		interp:  clone(interp),
		grad:    clone(grad),
		qref:    clone(qref),
		qweight: clone(qweight),
	}
	return c.bindBasis(b)
}

// NewBasisH1Lagrange creates a Lagrange basis of the given order on a line,
// triangle or tetrahedron with a collapsed Gauss-Jacobi rule of q1d points
// per direction
func (c *Ceed) NewBasisH1Lagrange(topo Topology, ncomp, order, q1d int) (*Basis, error) {
	var geom element.ElementGeometry
	switch topo {
	case Line:
		geom = element.Line
	case Triangle:
		geom = element.Tri
	case Tet:
		geom = element.Tet
	default:
		return nil, Errorf("Basis", "Create", ErrUnsupported, "%s is a tensor topology, use NewBasisTensorH1Lagrange", topo)
	}
	bd, err := element.SimplexBasisData(geom, order, q1d)
	if err != nil {
		return nil, Errorf("Basis", "Create", ErrInvalidArgument, "%v", err)
	}
	return c.NewBasisH1(topo, ncomp, bd.P, bd.Q, bd.Interp, bd.Grad, bd.QRef, bd.QWeight)
}

func (c *Ceed) bindBasis(b *Basis) (*Basis, error) {
	if err := b.init(c, "Basis"); err != nil {
		return nil, err
	}
	impl, err := c.backend.NewBasis(b)
	if err != nil {
		b.abandon()
		return nil, wrap("Basis", "Create", err)
	}
	b.impl = impl
	c.log.Debug("basis created", "topology", b.topo.String(), "tensor", b.tensor, "ncomp", b.ncomp, "P", b.p, "Q", b.q)
	return b, nil
}

func checkLen(name string, a []float64, n int) error {
	if len(a) != n {
		return Errorf("Basis", "Create", ErrDimensionMismatch, "%s has %d entries, want %d", name, len(a), n)
	}
	return nil
}

func clone(a []float64) []float64 { return append([]float64(nil), a...) }

func (b *Basis) Topology() Topology       { return b.topo }
func (b *Basis) IsTensor() bool           { return b.tensor }
func (b *Basis) Dim() int                 { return b.dim }
func (b *Basis) NumComponents() int       { return b.ncomp }
func (b *Basis) NumNodes() int            { return b.p }
func (b *Basis) NumQuadraturePoints() int { return b.q }
func (b *Basis) NumNodes1D() int          { return b.p1d }
func (b *Basis) NumQuadPoints1D() int     { return b.q1d }
func (b *Basis) Impl() BasisImpl          { return b.impl }

// Interp returns the interpolation matrix, 1-D for tensor bases. Callers
// must not modify the returned slices.
func (b *Basis) Interp() []float64  { return b.interp }
func (b *Basis) Grad() []float64    { return b.grad }
func (b *Basis) QRef() []float64    { return b.qref }
func (b *Basis) QWeight() []float64 { return b.qweight }

// Sizes returns the lengths of the nodal and quadrature side arrays of an
// evaluation over nelem elements
func (b *Basis) Sizes(nelem int, emode EvalMode) (nodal, quad int, err error) {
	nodal = b.ncomp * b.p * nelem
	switch emode {
	case EvalInterp:
		return nodal, b.ncomp * b.q * nelem, nil
	case EvalGrad:
		return nodal, b.dim * b.ncomp * b.q * nelem, nil
	case EvalWeight:
		return 0, b.q * nelem, nil
	case EvalDiv, EvalCurl:
		return 0, 0, Errorf("Basis", "Apply", ErrUnsupported, "eval mode %s on an H1 basis", emode)
	}
	return 0, 0, Errorf("Basis", "Apply", ErrInvalidArgument, "eval mode %s", emode)
}

// ScratchSize is the work space Eval needs for nelem elements
func (b *Basis) ScratchSize(nelem int) int {
	if !b.tensor {
		return 0
	}
	m := max(b.p1d, b.q1d)
	return 2 * b.ncomp * ipow(m, b.dim) * nelem
}

// Apply evaluates the basis over nelem elements. NoTranspose maps nodal u
// to quadrature v; Transpose maps quadrature u back to nodal v, overwriting v.
// EvalWeight ignores u.
func (b *Basis) Apply(nelem int, tmode TransposeMode, emode EvalMode, u, v *Vector) error {
	if err := b.alive("Apply"); err != nil {
		return err
	}
	if nelem < 1 {
		return Errorf("Basis", "Apply", ErrInvalidArgument, "nelem=%d", nelem)
	}
	nodal, quad, err := b.Sizes(nelem, emode)
	if err != nil {
		return err
	}
	if emode == EvalWeight && tmode == Transpose {
		return Errorf("Basis", "Apply", ErrInvalidArgument, "weights have no transpose")
	}
	inLen, outLen := nodal, quad
	if tmode == Transpose {
		inLen, outLen = quad, nodal
	}
	if emode != EvalWeight {
		if u == nil || u.alive("Apply") != nil || u.Length() != inLen {
			return Errorf("Basis", "Apply", ErrDimensionMismatch, "input length %d, want %d", vecLen(u), inLen)
		}
	}
	if v == nil || v.alive("Apply") != nil || v.Length() != outLen {
		return Errorf("Basis", "Apply", ErrDimensionMismatch, "output length %d, want %d", vecLen(v), outLen)
	}
	return wrap("Basis", "Apply", b.impl.Apply(nelem, tmode, emode, u, v))
}

func vecLen(v *Vector) int {
	if v == nil {
		return -1
	}
	return v.Length()
}

// Matrix selects the basis matrix of a contraction step
type Matrix int

const (
	MatInterp Matrix = iota
	MatGrad
)

// Buffer selects the array a contraction step reads or writes
type Buffer int

const (
	BufIn Buffer = iota
	BufOut
	BufScratch
)

// ContractStep is one 1-D contraction of an evaluation. The matrix starts
// at MatOff in Interp() or Grad(); In and Out start at their offsets.
type ContractStep struct {
	A, B, C, J int
	Mat        Matrix
	MatOff     int
	TMode      TransposeMode
	Add        bool
	In, Out    Buffer
	InOff      int
	OutOff     int
}

// Plan lists the contractions that evaluate interp or grad over nelem
// elements. Devices replay it on their own buffers; the scratch buffer
// needs ScratchSize(nelem) entries.
func (b *Basis) Plan(nelem int, tmode TransposeMode, emode EvalMode) ([]ContractStep, error) {
	if emode != EvalInterp && emode != EvalGrad {
		_, _, err := b.Sizes(nelem, emode)
		if err == nil {
			err = Errorf("Basis", "Apply", ErrInvalidArgument, "eval mode %s", emode)
		}
		return nil, err
	}
	if !b.tensor {
		return b.planDense(nelem, tmode, emode), nil
	}
	ncomp, P, Q, dim := b.ncomp, b.p1d, b.q1d, b.dim
	qstride := ncomp * b.q * nelem
	half := b.ScratchSize(nelem) / 2

	nout := 1
	if emode == EvalGrad {
		nout = dim
	}
	var steps []ContractStep
	for p := 0; p < nout; p++ {
		in, inOff := BufIn, 0
		from, to := P, Q
		pre, post := ncomp*ipow(P, dim-1), nelem
		if tmode == Transpose {
			from, to = Q, P
			in, inOff = BufIn, p*qstride
			pre = ncomp * ipow(Q, dim-1)
		}
		for d := 0; d < dim; d++ {
			s := ContractStep{
				A: pre, B: from, C: post, J: to,
				Mat: MatInterp, TMode: tmode,
				In: in, InOff: inOff,
				Out: BufScratch, OutOff: (d % 2) * half,
			}
			if emode == EvalGrad && d == p {
				s.Mat = MatGrad
			}
			if d == dim-1 {
				s.Out, s.OutOff = BufOut, 0
				if tmode == NoTranspose {
					s.OutOff = p * qstride
				} else {
					s.Add = p > 0
				}
			}
			steps = append(steps, s)
			pre /= from
			post *= to
			in, inOff = s.Out, s.OutOff
		}
	}
	return steps, nil
}

func (b *Basis) planDense(nelem int, tmode TransposeMode, emode EvalMode) []ContractStep {
	qstride := b.ncomp * b.q * nelem
	step := func(mat Matrix, off int) ContractStep {
		if tmode == NoTranspose {
			return ContractStep{A: b.ncomp, B: b.p, C: nelem, J: b.q, Mat: mat, MatOff: off, TMode: NoTranspose, In: BufIn, Out: BufOut}
		}
		return ContractStep{A: b.ncomp, B: b.q, C: nelem, J: b.p, Mat: mat, MatOff: off, TMode: Transpose, In: BufIn, Out: BufOut}
	}
	if emode == EvalInterp {
		return []ContractStep{step(MatInterp, 0)}
	}
	steps := make([]ContractStep, b.dim)
	for d := range steps {
		s := step(MatGrad, d*b.q*b.p)
		if tmode == NoTranspose {
			s.OutOff = d * qstride
		} else {
			s.InOff = d * qstride
			s.Add = d > 0
		}
		steps[d] = s
	}
	return steps
}

// Matrix returns the row-major basis matrix selected by m
func (b *Basis) Matrix(m Matrix) []float64 {
	if m == MatGrad {
		return b.grad
	}
	return b.interp
}

// Eval is the host evaluation used by CPU backends. contract performs each
// 1-D contraction; scratch needs ScratchSize(nelem) entries or is nil.
func (b *Basis) Eval(contract Contractor, nelem int, tmode TransposeMode, emode EvalMode, u, v, scratch []float64) error {
	if emode == EvalWeight {
		b.evalWeight(nelem, v)
		return nil
	}
	steps, err := b.Plan(nelem, tmode, emode)
	if err != nil {
		return err
	}
	if len(scratch) < b.ScratchSize(nelem) {
		scratch = make([]float64, b.ScratchSize(nelem))
	}
	buf := func(k Buffer, off int) []float64 {
		switch k {
		case BufIn:
			return u[off:]
		case BufOut:
			return v[off:]
		}
		return scratch[off:]
	}
	for _, s := range steps {
		contract(s.A, s.B, s.C, s.J, b.Matrix(s.Mat)[s.MatOff:], s.TMode, s.Add, buf(s.In, s.InOff), buf(s.Out, s.OutOff))
	}
	return nil
}

// evalWeight writes the quadrature weights [Q][nelem]; tensor weights are
// products of the 1-D weights
func (b *Basis) evalWeight(nelem int, v []float64) {
	for q := 0; q < b.q; q++ {
		w := 1.0
		if b.tensor {
			for k, r := 0, q; k < b.dim; k++ {
				w *= b.qweight[r%b.q1d]
				r /= b.q1d
			}
		} else {
			w = b.qweight[q]
		}
		row := v[q*nelem : (q+1)*nelem]
		for e := range row {
			row[e] = w
		}
	}
}

// CollocatedGrad returns the [Q1d][Q1d] matrix that differentiates values
// given at the 1-D quadrature points, so that CollocatedGrad*Interp = Grad
func (b *Basis) CollocatedGrad() ([]float64, error) {
	if err := b.alive("CollocatedGrad"); err != nil {
		return nil, err
	}
	if !b.tensor {
		return nil, Errorf("Basis", "CollocatedGrad", ErrUnsupported, "non-tensor basis")
	}
	P, Q := b.p1d, b.q1d
	qm, r, err := QRFactorization(mat.NewDense(Q, P, clone(b.interp)))
	if err != nil {
		return nil, err
	}
	var rinv mat.Dense
	if err := rinv.Inverse(r.Slice(0, P, 0, P)); err != nil {
		return nil, Errorf("Basis", "CollocatedGrad", ErrInvalidArgument, "interpolation matrix is rank deficient: %v", err)
	}
	// [grad R^-1, 0] Q^T
	pad := mat.NewDense(Q, Q, nil)
	pad.Slice(0, Q, 0, P).(*mat.Dense).Mul(mat.NewDense(Q, P, clone(b.grad)), &rinv)
	var colo mat.Dense
	colo.Mul(pad, qm.T())
	return denseData(&colo), nil
}

// View writes the basis matrices
func (b *Basis) View(w io.Writer) error {
	if err := b.alive("View"); err != nil {
		return err
	}
	rows, cols := b.q, b.p
	if b.tensor {
		rows, cols = b.q1d, b.p1d
		fmt.Fprintf(w, "Basis: tensor %s dim=%d ncomp=%d P1d=%d Q1d=%d\n", b.topo, b.dim, b.ncomp, b.p1d, b.q1d)
	} else {
		fmt.Fprintf(w, "Basis: %s dim=%d ncomp=%d P=%d Q=%d\n", b.topo, b.dim, b.ncomp, b.p, b.q)
	}
	printMatrix(w, "qref", b.qref, len(b.qref)/rows, rows)
	printMatrix(w, "qweight", b.qweight, 1, rows)
	printMatrix(w, "interp", b.interp, rows, cols)
	printMatrix(w, "grad", b.grad, len(b.grad)/cols, cols)
	return nil
}

func printMatrix(w io.Writer, name string, a []float64, rows, cols int) {
	fmt.Fprintf(w, "  %s:\n", name)
	for i := 0; i < rows; i++ {
		fmt.Fprint(w, "   ")
		for j := 0; j < cols; j++ {
			fmt.Fprintf(w, " % 12.8f", a[i*cols+j])
		}
		fmt.Fprintln(w)
	}
}

// Destroy releases the basis
func (b *Basis) Destroy() error {
	if b == nil {
		return nil
	}
	ok, err := b.beginDestroy()
	if !ok {
		return err
	}
	if err := b.impl.Destroy(); err != nil {
		return wrap("Basis", "Destroy", err)
	}
	b.endDestroy()
	return nil
}
