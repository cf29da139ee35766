package gallery

import (
	"testing"

	"github.com/notargets/gceed/backends/ref"
	"github.com/notargets/gceed/ceed"
	"github.com/notargets/gceed/mesh"
	"github.com/notargets/gceed/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func newCeed(t *testing.T) *ceed.Ceed {
	t.Helper()
	reg := ceed.NewRegistry()
	ref.Register(reg)
	c, err := reg.Init("/cpu/self/ref")
	require.NoError(t, err)
	return c
}

// problem holds the objects of a build + apply pair; every object is
// destroyed by close
type problem struct {
	t       *testing.T
	objects []interface{ Destroy() error }
}

func (p *problem) keep(o interface{ Destroy() error }, err error) {
	p.t.Helper()
	require.NoError(p.t, err)
	p.objects = append(p.objects, o)
}

func (p *problem) close() {
	for i := len(p.objects) - 1; i >= 0; i-- {
		assert.NoError(p.t, p.objects[i].Destroy())
	}
}

type discretization struct {
	dim      int
	nelem    int
	nqpts    int
	numNodes int
	r, rx    *ceed.ElemRestriction
	b, bx    *ceed.Basis
	coords   *ceed.Vector
	rq       *ceed.ElemRestriction
	qdata    *ceed.Vector
}

// geometricFactors runs build over the mesh and stores the qdata vector
func geometricFactors(p *problem, c *ceed.Ceed, d *discretization, build *ceed.QFunction, ncomp int) {
	t := p.t
	var err error
	d.rq, err = c.NewElemRestrictionIdentity(d.nelem, d.nqpts, ncomp, ceed.Interlaced)
	p.keep(d.rq, err)
	d.qdata, err = c.NewVector(d.rq.LSize())
	p.keep(d.qdata, err)
	op, err := c.NewOperator(build, nil, nil)
	p.keep(op, err)
	require.NoError(t, op.SetField("dx", d.rx, d.bx, ceed.VectorActive))
	require.NoError(t, op.SetField("weights", nil, d.bx, ceed.VectorNone))
	require.NoError(t, op.SetField("qdata", d.rq, ceed.BasisCollocated, ceed.VectorActive))
	require.NoError(t, op.Apply(d.coords, d.qdata, nil))
}

func boxDiscretization(p *problem, c *ceed.Ceed, dim, nelem1d, P, Q int) *discretization {
	m, err := utils.NewBoxMesh(dim, [3]int{nelem1d, nelem1d, nelem1d}, P)
	require.NoError(p.t, err)
	d := &discretization{dim: dim, nelem: m.NumElements, numNodes: m.NumNodes}
	d.r, err = m.Restriction(c, 1)
	p.keep(d.r, err)
	d.rx, err = m.Restriction(c, dim)
	p.keep(d.rx, err)
	d.b, err = c.NewBasisTensorH1Lagrange(dim, 1, P, Q, ceed.GaussQuad)
	p.keep(d.b, err)
	d.bx, err = c.NewBasisTensorH1Lagrange(dim, dim, P, Q, ceed.GaussQuad)
	p.keep(d.bx, err)
	d.coords, err = m.CoordinateVector(c)
	p.keep(d.coords, err)
	d.nqpts = d.b.NumQuadraturePoints()
	return d
}

func applyOperator(p *problem, c *ceed.Ceed, d *discretization, qf *ceed.QFunction, in, out string, u []float64) []float64 {
	t := p.t
	op, err := c.NewOperator(qf, nil, nil)
	p.keep(op, err)
	require.NoError(t, op.SetField(in, d.r, d.b, ceed.VectorActive))
	require.NoError(t, op.SetField("qdata", d.rq, ceed.BasisCollocated, d.qdata))
	require.NoError(t, op.SetField(out, d.r, d.b, ceed.VectorActive))

	uv, err := c.NewVector(len(u))
	p.keep(uv, err)
	require.NoError(t, uv.SetArray(ceed.MemHost, ceed.CopiedIn, u))
	vv, err := c.NewVector(len(u))
	p.keep(vv, err)
	require.NoError(t, op.Apply(uv, vv, nil))
	a, err := vv.GetArrayRead(ceed.MemHost)
	require.NoError(t, err)
	defer vv.RestoreArrayRead(&a)
	return append([]float64(nil), a...)
}

func TestMassBox(t *testing.T) {
	for dim := 1; dim <= 3; dim++ {
		c := newCeed(t)
		p := &problem{t: t}
		d := boxDiscretization(p, c, dim, 3, 3, 4)
		build, err := MassBuild(c, dim)
		p.keep(build, err)
		apply, err := MassApply(c, 1)
		p.keep(apply, err)
		geometricFactors(p, c, d, build, 1)

		ones := make([]float64, d.numNodes)
		floats.AddConst(1, ones)
		v := applyOperator(p, c, d, apply, "u", "v", ones)
		assert.InDelta(t, 1, floats.Sum(v), 1e-12, "dim %d", dim)

		p.close()
		require.NoError(t, c.Destroy())
	}
}

func TestPoissonBox(t *testing.T) {
	for dim := 1; dim <= 3; dim++ {
		c := newCeed(t)
		p := &problem{t: t}
		d := boxDiscretization(p, c, dim, 2, 3, 3)
		build, err := PoissonBuild(c, dim)
		p.keep(build, err)
		apply, err := PoissonApply(c, dim)
		p.keep(apply, err)
		geometricFactors(p, c, d, build, NumQData(dim))

		ones := make([]float64, d.numNodes)
		floats.AddConst(1, ones)
		v := applyOperator(p, c, d, apply, "du", "dv", ones)
		assert.InDelta(t, 0, floats.Norm(v, 1), 1e-11, "dim %d", dim)

		// u = x has energy |grad u|^2 integrated over the unit box
		x := make([]float64, d.numNodes)
		coords, err := d.coords.GetArrayRead(ceed.MemHost)
		require.NoError(t, err)
		for n := range x {
			x[n] = coords[n*dim]
		}
		require.NoError(t, d.coords.RestoreArrayRead(&coords))
		kx := applyOperator(p, c, d, apply, "du", "dv", x)
		assert.InDelta(t, 1, floats.Dot(x, kx), 1e-11, "dim %d", dim)

		p.close()
		require.NoError(t, c.Destroy())
	}
}

func TestMassTetMesh(t *testing.T) {
	tm, err := mesh.FromConnectivity(
		[][3]float64{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}, {2, 2, 0}, {0, 0, 2}, {2, 0, 2}, {0, 2, 2}, {2, 2, 2}},
		[][]int{{0, 1, 3, 7}, {0, 3, 2, 7}, {0, 2, 6, 7}, {0, 6, 4, 7}, {0, 4, 5, 7}, {0, 5, 1, 7}})
	require.NoError(t, err)

	c := newCeed(t)
	p := &problem{t: t}
	d := &discretization{dim: 3, nelem: tm.NumElements, numNodes: tm.NumNodes}
	d.r, err = tm.Restriction(c, 1)
	p.keep(d.r, err)
	d.rx, err = tm.Restriction(c, 3)
	p.keep(d.rx, err)
	d.b, err = c.NewBasisH1Lagrange(ceed.Tet, 1, 1, 2)
	p.keep(d.b, err)
	d.bx, err = c.NewBasisH1Lagrange(ceed.Tet, 3, 1, 2)
	p.keep(d.bx, err)
	d.coords, err = tm.CoordinateVector(c)
	p.keep(d.coords, err)
	d.nqpts = d.b.NumQuadraturePoints()

	build, err := MassBuild(c, 3)
	p.keep(build, err)
	apply, err := MassApply(c, 1)
	p.keep(apply, err)
	geometricFactors(p, c, d, build, 1)

	ones := make([]float64, d.numNodes)
	floats.AddConst(1, ones)
	v := applyOperator(p, c, d, apply, "u", "v", ones)
	assert.InDelta(t, 8, floats.Sum(v), 1e-12)
	p.close()
	require.NoError(t, c.Destroy())
}

func TestPointwiseQFunctions(t *testing.T) {
	c := newCeed(t)
	defer c.Destroy()

	scale, err := Scale(c, 2, -1.5)
	require.NoError(t, err)
	defer scale.Destroy()
	out := [][]float64{make([]float64, 4)}
	require.NoError(t, scale.Apply(2, [][]float64{{1, 2, 3, 4}}, out))
	assert.Equal(t, []float64{-1.5, -3, -4.5, -6}, out[0])

	id, err := Identity(c, 1, ceed.EvalNone, ceed.EvalInterp)
	require.NoError(t, err)
	defer id.Destroy()
	assert.Equal(t, ceed.EvalNone, id.Inputs()[0].EvalMode)
	out = [][]float64{make([]float64, 3)}
	require.NoError(t, id.Apply(3, [][]float64{{7, 8, 9}}, out))
	assert.Equal(t, []float64{7, 8, 9}, out[0])

	_, err = PoissonBuild(c, 4)
	assert.ErrorIs(t, err, ceed.ErrInvalidArgument)
	assert.Equal(t, []int{1, 3, 6}, []int{NumQData(1), NumQData(2), NumQData(3)})
}

func TestPoissonBuildSingularJacobian(t *testing.T) {
	c := newCeed(t)
	defer c.Destroy()
	qf, err := PoissonBuild(c, 2)
	require.NoError(t, err)
	defer qf.Destroy()
	out := [][]float64{make([]float64, 3)}
	err = qf.Apply(1, [][]float64{{1, 2, 2, 4}, {1}}, out)
	assert.ErrorIs(t, err, ceed.ErrQFunction)
	assert.Equal(t, ceed.ComputeError, ceed.ClassOf(err))
}

func TestGeometry(t *testing.T) {
	J := [3][3]float64{{2, 1, 0}, {0, 3, 1}, {1, 0, 1}}
	var A [3][3]float64
	adjugate(3, &J, &A)
	d := det(3, &J)
	assert.InDelta(t, 7, d, 1e-14)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += J[i][k] * A[k][j]
			}
			want := 0.0
			if i == j {
				want = d
			}
			assert.InDelta(t, want, s, 1e-13, "[%d][%d]", i, j)
		}
	}
}
