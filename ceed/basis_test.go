package ceed_test

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/notargets/gceed/ceed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func applyBasis(t *testing.T, b *ceed.Basis, nelem int, tmode ceed.TransposeMode, emode ceed.EvalMode, u []float64) []float64 {
	t.Helper()
	c := b.Ceed()
	nodal, quad, err := b.Sizes(nelem, emode)
	require.NoError(t, err)
	outLen := quad
	if tmode == ceed.Transpose {
		outLen = nodal
	}
	var in *ceed.Vector
	if u != nil {
		in = newVector(t, c, u)
		defer in.Destroy()
	}
	out, err := c.NewVector(outLen)
	require.NoError(t, err)
	defer out.Destroy()
	require.NoError(t, b.Apply(nelem, tmode, emode, in, out))
	return readVector(t, out)
}

func TestBasisLinearInterp(t *testing.T) {
	c := newTestCeed(t)
	b, err := c.NewBasisTensorH1Lagrange(1, 1, 2, 2, ceed.GaussQuad)
	require.NoError(t, err)
	defer b.Destroy()

	s := 1 / math.Sqrt(3)
	got := applyBasis(t, b, 1, ceed.NoTranspose, ceed.EvalInterp, []float64{1, 3})
	assert.InDeltaSlice(t, []float64{2 - s, 2 + s}, got, 1e-14)
}

func TestBasisStiffness1D(t *testing.T) {
	c := newTestCeed(t)
	b, err := c.NewBasisTensorH1Lagrange(1, 1, 2, 2, ceed.GaussQuad)
	require.NoError(t, err)
	defer b.Destroy()

	w := applyBasis(t, b, 1, ceed.NoTranspose, ceed.EvalWeight, nil)
	want := [][]float64{{0.5, -0.5}, {-0.5, 0.5}}
	for j := 0; j < 2; j++ {
		e := []float64{0, 0}
		e[j] = 1
		du := applyBasis(t, b, 1, ceed.NoTranspose, ceed.EvalGrad, e)
		floats.Mul(du, w)
		col := applyBasis(t, b, 1, ceed.Transpose, ceed.EvalGrad, du)
		for i := 0; i < 2; i++ {
			assert.InDelta(t, want[i][j], col[i], 1e-14, "K[%d][%d]", i, j)
		}
	}
}

func TestBasisInterpAtNodes(t *testing.T) {
	c := newTestCeed(t)
	rng := rand.New(rand.NewSource(3))
	for dim := 1; dim <= 3; dim++ {
		b, err := c.NewBasisTensorH1Lagrange(dim, 2, 3, 3, ceed.GaussLobatto)
		require.NoError(t, err)
		u := make([]float64, 2*b.NumNodes()*2)
		for i := range u {
			u[i] = rng.Float64()
		}
		got := applyBasis(t, b, 2, ceed.NoTranspose, ceed.EvalInterp, u)
		if diff := cmp.Diff(u, got, cmpopts.EquateApprox(0, 1e-13)); diff != "" {
			t.Errorf("dim %d (-want +got):\n%s", dim, diff)
		}
		require.NoError(t, b.Destroy())
	}
}

func TestBasisGradOfLinear(t *testing.T) {
	c := newTestCeed(t)
	const P, Q = 3, 4
	b, err := c.NewBasisTensorH1Lagrange(2, 1, P, Q, ceed.GaussQuad)
	require.NoError(t, err)
	defer b.Destroy()

	nodes, _, err := ceed.LobattoQuadrature(P)
	require.NoError(t, err)
	u := make([]float64, P*P)
	for j := 0; j < P; j++ {
		for i := 0; i < P; i++ {
			u[i+P*j] = 2*nodes[i] + 3*nodes[j] + 1
		}
	}
	got := applyBasis(t, b, 1, ceed.NoTranspose, ceed.EvalGrad, u)
	require.Len(t, got, 2*Q*Q)
	for q := 0; q < Q*Q; q++ {
		assert.InDelta(t, 2, got[q], 1e-13)
		assert.InDelta(t, 3, got[Q*Q+q], 1e-13)
	}

	// values are bilinear too
	qref, _, err := ceed.GaussQuadrature(Q)
	require.NoError(t, err)
	vals := applyBasis(t, b, 1, ceed.NoTranspose, ceed.EvalInterp, u)
	for qy := 0; qy < Q; qy++ {
		for qx := 0; qx < Q; qx++ {
			assert.InDelta(t, 2*qref[qx]+3*qref[qy]+1, vals[qx+Q*qy], 1e-13)
		}
	}
}

func TestBasisTransposeIsAdjoint(t *testing.T) {
	c := newTestCeed(t)
	rng := rand.New(rand.NewSource(5))
	tests := []struct {
		name  string
		build func() (*ceed.Basis, error)
	}{
		{"tensor 3d", func() (*ceed.Basis, error) { return c.NewBasisTensorH1Lagrange(3, 2, 3, 4, ceed.GaussQuad) }},
		{"tensor 2d fewer points", func() (*ceed.Basis, error) { return c.NewBasisTensorH1Lagrange(2, 1, 4, 2, ceed.GaussQuad) }},
		{"triangle", func() (*ceed.Basis, error) { return c.NewBasisH1Lagrange(ceed.Triangle, 2, 2, 3) }},
		{"tet", func() (*ceed.Basis, error) { return c.NewBasisH1Lagrange(ceed.Tet, 1, 1, 2) }},
	}
	const nelem = 3
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := tt.build()
			require.NoError(t, err)
			defer b.Destroy()
			for _, emode := range []ceed.EvalMode{ceed.EvalInterp, ceed.EvalGrad} {
				nodal, quad, err := b.Sizes(nelem, emode)
				require.NoError(t, err)
				u, v := make([]float64, nodal), make([]float64, quad)
				for i := range u {
					u[i] = rng.Float64()
				}
				for i := range v {
					v[i] = rng.Float64()
				}
				bu := applyBasis(t, b, nelem, ceed.NoTranspose, emode, u)
				btv := applyBasis(t, b, nelem, ceed.Transpose, emode, v)
				assert.InDelta(t, floats.Dot(bu, v), floats.Dot(u, btv), 1e-12, "%s", emode)
			}
		})
	}
}

func TestBasisWeights(t *testing.T) {
	c := newTestCeed(t)
	tests := []struct {
		name   string
		build  func() (*ceed.Basis, error)
		volume float64
	}{
		{"hex", func() (*ceed.Basis, error) { return c.NewBasisTensorH1Lagrange(3, 1, 2, 3, ceed.GaussQuad) }, 8},
		{"quad lobatto", func() (*ceed.Basis, error) { return c.NewBasisTensorH1Lagrange(2, 1, 2, 3, ceed.GaussLobatto) }, 4},
		{"triangle", func() (*ceed.Basis, error) { return c.NewBasisH1Lagrange(ceed.Triangle, 1, 2, 3) }, 2},
		{"tet", func() (*ceed.Basis, error) { return c.NewBasisH1Lagrange(ceed.Tet, 1, 2, 3) }, 4.0 / 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := tt.build()
			require.NoError(t, err)
			defer b.Destroy()
			w := applyBasis(t, b, 2, ceed.NoTranspose, ceed.EvalWeight, nil)
			assert.InDelta(t, 2*tt.volume, floats.Sum(w), 1e-12)

			// partition of unity
			ones := make([]float64, b.NumNodes())
			floats.AddConst(1, ones)
			vals := applyBasis(t, b, 1, ceed.NoTranspose, ceed.EvalInterp, ones)
			for _, x := range vals {
				assert.InDelta(t, 1, x, 1e-12)
			}
		})
	}
}

func TestBasisCollocatedGrad(t *testing.T) {
	c := newTestCeed(t)
	const P, Q = 3, 4
	b, err := c.NewBasisTensorH1Lagrange(1, 1, P, Q, ceed.GaussQuad)
	require.NoError(t, err)
	defer b.Destroy()

	colo, err := b.CollocatedGrad()
	require.NoError(t, err)
	require.Len(t, colo, Q*Q)
	interp, grad := b.Interp(), b.Grad()
	for i := 0; i < Q; i++ {
		for j := 0; j < P; j++ {
			var s float64
			for k := 0; k < Q; k++ {
				s += colo[i*Q+k] * interp[k*P+j]
			}
			assert.InDelta(t, grad[i*P+j], s, 1e-12, "[%d][%d]", i, j)
		}
	}

	tri, err := c.NewBasisH1Lagrange(ceed.Triangle, 1, 1, 2)
	require.NoError(t, err)
	defer tri.Destroy()
	_, err = tri.CollocatedGrad()
	assert.ErrorIs(t, err, ceed.ErrUnsupported)
}

func TestBasisErrors(t *testing.T) {
	c := newTestCeed(t)
	_, err := c.NewBasisTensorH1(4, 1, 2, 2, nil, nil, nil, nil)
	assert.ErrorIs(t, err, ceed.ErrInvalidArgument)
	_, err = c.NewBasisTensorH1(1, 1, 2, 2, []float64{1, 0, 0}, nil, nil, nil)
	assert.ErrorIs(t, err, ceed.ErrDimensionMismatch)
	_, err = c.NewBasisTensorH1Lagrange(1, 1, 1, 2, ceed.GaussQuad)
	assert.ErrorIs(t, err, ceed.ErrInvalidArgument)
	_, err = c.NewBasisH1Lagrange(ceed.Hex, 1, 2, 3)
	assert.ErrorIs(t, err, ceed.ErrUnsupported)

	b, err := c.NewBasisTensorH1Lagrange(2, 1, 2, 2, ceed.GaussQuad)
	require.NoError(t, err)
	defer b.Destroy()
	u, err := c.NewVector(3)
	require.NoError(t, err)
	defer u.Destroy()
	v, err := c.NewVector(4)
	require.NoError(t, err)
	defer v.Destroy()
	assert.ErrorIs(t, b.Apply(1, ceed.NoTranspose, ceed.EvalInterp, u, v), ceed.ErrDimensionMismatch)
	assert.ErrorIs(t, b.Apply(1, ceed.NoTranspose, ceed.EvalDiv, u, v), ceed.ErrUnsupported)
	assert.ErrorIs(t, b.Apply(1, ceed.Transpose, ceed.EvalWeight, nil, v), ceed.ErrInvalidArgument)

	var buf bytes.Buffer
	require.NoError(t, b.View(&buf))
	assert.Contains(t, buf.String(), "Basis: tensor quad dim=2 ncomp=1 P1d=2 Q1d=2")
}

func TestBasisPlan(t *testing.T) {
	c := newTestCeed(t)
	hex, err := c.NewBasisTensorH1Lagrange(3, 2, 3, 4, ceed.GaussQuad)
	require.NoError(t, err)
	defer hex.Destroy()

	steps, err := hex.Plan(5, ceed.NoTranspose, ceed.EvalGrad)
	require.NoError(t, err)
	require.Len(t, steps, 9)
	first, last := steps[0], steps[2]
	assert.Equal(t, ceed.ContractStep{A: 2 * 9, B: 3, C: 5, J: 4, Mat: ceed.MatGrad, In: ceed.BufIn, Out: ceed.BufScratch}, first)
	assert.Equal(t, ceed.BufOut, last.Out)
	assert.Equal(t, 0, last.OutOff)
	assert.Equal(t, 2*64*5, steps[5].OutOff, "second derivative lands in the second block")

	steps, err = hex.Plan(5, ceed.Transpose, ceed.EvalGrad)
	require.NoError(t, err)
	for p := 0; p < 3; p++ {
		final := steps[3*p+2]
		assert.Equal(t, ceed.BufOut, final.Out)
		assert.Equal(t, p > 0, final.Add, "derivative %d", p)
		assert.Equal(t, p*2*64*5, steps[3*p].InOff)
	}

	tet, err := c.NewBasisH1Lagrange(ceed.Tet, 1, 2, 3)
	require.NoError(t, err)
	defer tet.Destroy()
	steps, err = tet.Plan(2, ceed.Transpose, ceed.EvalGrad)
	require.NoError(t, err)
	require.Len(t, steps, 3)
	for d, s := range steps {
		assert.Equal(t, d*tet.NumQuadraturePoints()*tet.NumNodes(), s.MatOff)
		assert.Equal(t, d > 0, s.Add)
	}
	assert.Len(t, tet.Matrix(ceed.MatGrad), 3*tet.NumQuadraturePoints()*tet.NumNodes())

	_, err = hex.Plan(1, ceed.NoTranspose, ceed.EvalWeight)
	assert.ErrorIs(t, err, ceed.ErrInvalidArgument)
	_, err = hex.Plan(1, ceed.NoTranspose, ceed.EvalDiv)
	assert.ErrorIs(t, err, ceed.ErrUnsupported)
}
