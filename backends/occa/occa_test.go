package occa

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/notargets/gceed/backends/ref"
	"github.com/notargets/gceed/ceed"
	"github.com/notargets/gceed/gallery"
	"github.com/notargets/gceed/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceProps(t *testing.T) {
	t.Setenv("CEED_OCCA_MODE", "")
	tests := []struct {
		name string
		opts ceed.Options
		want map[string]any
	}{
		{"default", nil, map[string]any{"mode": "Serial"}},
		{"mode", ceed.Options{"mode": "OpenMP"}, map[string]any{"mode": "OpenMP"}},
		{"ids", ceed.Options{"mode": "OpenCL", "device_id": "1", "platform_id": "0"},
			map[string]any{"mode": "OpenCL", "device_id": 1.0, "platform_id": 0.0}},
		{"unknown option", ceed.Options{"fast": "yes"}, map[string]any{"mode": "Serial"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props, err := DeviceProps("Serial", tt.opts)
			require.NoError(t, err)
			var got map[string]any
			require.NoError(t, json.Unmarshal([]byte(props), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DeviceProps("Serial", ceed.Options{"device_id": "gpu0"})
	assert.ErrorIs(t, err, ceed.ErrInvalidArgument)

	t.Setenv("CEED_OCCA_MODE", "HIP")
	props, err := DeviceProps("CUDA", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mode": "HIP"}`, props)
}

func TestGatherIndex(t *testing.T) {
	reg := ceed.NewRegistry()
	ref.Register(reg)
	c, err := reg.Init("/cpu/self/ref")
	require.NoError(t, err)
	defer c.Destroy()

	// 3 elements of 2 nodes in blocks of 2, the last block padded
	r, err := c.NewElemRestrictionBlocked(3, 2, 2, 1, 4, ceed.Interlaced, []int{0, 1, 1, 2, 2, 3})
	require.NoError(t, err)
	defer r.Destroy()
	assert.Equal(t, []int32{0, 1, 1, 2, 2, 2, 3, 3}, GatherIndex(r))
}

func newOCCACeed(t *testing.T) *ceed.Ceed {
	t.Helper()
	reg := ceed.NewRegistry()
	Register(reg)
	var lastErr error
	for _, mode := range []string{"OpenMP", "Serial"} {
		c, err := reg.Init(CPUPrefix + ":mode=" + mode)
		if err == nil {
			t.Cleanup(func() { c.Destroy() })
			return c
		}
		lastErr = err
	}
	t.Skipf("no OCCA device available: %v", lastErr)
	return nil
}

func TestVectorDeviceSync(t *testing.T) {
	c := newOCCACeed(t)
	v, err := c.NewVector(4)
	require.NoError(t, err)
	defer v.Destroy()

	require.NoError(t, v.SetArray(ceed.MemHost, ceed.CopiedIn, []float64{1, 2, 3, 4}))
	_, err = v.GetArray(ceed.MemDevice)
	assert.ErrorIs(t, err, ceed.ErrInvalidMemType)

	_, err = DeviceMemory(v)
	require.NoError(t, err)
	assert.Equal(t, ceed.BothValid, v.State())
	require.NoError(t, MarkDeviceWritten(v))
	assert.Equal(t, ceed.DeviceValid, v.State())

	a, err := v.GetArrayRead(ceed.MemHost)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, a)
	require.NoError(t, v.RestoreArrayRead(&a))
	assert.Equal(t, ceed.BothValid, v.State())
}

func TestRestrictionKernels(t *testing.T) {
	c := newOCCACeed(t)
	r, err := c.NewElemRestrictionBlocked(3, 2, 2, 2, 4, ceed.ComponentMajor, []int{0, 1, 1, 2, 2, 3})
	require.NoError(t, err)
	defer r.Destroy()
	l, e, err := r.NewVectors()
	require.NoError(t, err)
	defer l.Destroy()
	defer e.Destroy()

	require.NoError(t, l.SetArray(ceed.MemHost, ceed.CopiedIn, []float64{0, 1, 2, 3, 10, 11, 12, 13}))
	require.NoError(t, r.Apply(ceed.NoTranspose, l, e, nil))
	got, err := e.GetArrayRead(ceed.MemHost)
	require.NoError(t, err)
	// block 0: [comp][node][elem] for elements 0,1; block 1 pads element 2
	assert.Equal(t, []float64{0, 1, 1, 2, 10, 11, 11, 12, 2, 2, 3, 3, 12, 12, 13, 13}, got)
	require.NoError(t, e.RestoreArrayRead(&got))

	require.NoError(t, l.SetValue(0))
	require.NoError(t, r.Apply(ceed.Transpose, e, l, nil))
	back, err := l.GetArrayRead(ceed.MemHost)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2, 4, 3, 10, 22, 24, 13}, back)
	require.NoError(t, l.RestoreArrayRead(&back))
}

func massOnBox(t *testing.T, c *ceed.Ceed, dim int) []float64 {
	t.Helper()
	var objs []interface{ Destroy() error }
	keep := func(o interface{ Destroy() error }, err error) {
		t.Helper()
		require.NoError(t, err)
		objs = append(objs, o)
	}
	defer func() {
		for i := len(objs) - 1; i >= 0; i-- {
			assert.NoError(t, objs[i].Destroy())
		}
	}()

	m, err := utils.NewBoxMesh(dim, [3]int{2, 2, 2}, 3)
	require.NoError(t, err)
	r, err := m.Restriction(c, 1)
	keep(r, err)
	rx, err := m.Restriction(c, dim)
	keep(rx, err)
	b, err := c.NewBasisTensorH1Lagrange(dim, 1, 3, 4, ceed.GaussQuad)
	keep(b, err)
	bx, err := c.NewBasisTensorH1Lagrange(dim, dim, 3, 4, ceed.GaussQuad)
	keep(bx, err)
	coords, err := m.CoordinateVector(c)
	keep(coords, err)
	build, err := gallery.MassBuild(c, dim)
	keep(build, err)
	apply, err := gallery.MassApply(c, 1)
	keep(apply, err)

	rq, err := c.NewElemRestrictionIdentity(m.NumElements, b.NumQuadraturePoints(), 1, ceed.Interlaced)
	keep(rq, err)
	qdata, err := c.NewVector(rq.LSize())
	keep(qdata, err)
	opBuild, err := c.NewOperator(build, nil, nil)
	keep(opBuild, err)
	require.NoError(t, opBuild.SetField("dx", rx, bx, ceed.VectorActive))
	require.NoError(t, opBuild.SetField("weights", nil, bx, ceed.VectorNone))
	require.NoError(t, opBuild.SetField("qdata", rq, ceed.BasisCollocated, ceed.VectorActive))
	require.NoError(t, opBuild.Apply(coords, qdata, nil))

	op, err := c.NewOperator(apply, nil, nil)
	keep(op, err)
	require.NoError(t, op.SetField("u", r, b, ceed.VectorActive))
	require.NoError(t, op.SetField("qdata", rq, ceed.BasisCollocated, qdata))
	require.NoError(t, op.SetField("v", r, b, ceed.VectorActive))

	u := make([]float64, m.NumNodes)
	for n := range u {
		u[n] = math.Cos(float64(n))
	}
	uv, err := c.NewVector(len(u))
	keep(uv, err)
	require.NoError(t, uv.SetArray(ceed.MemHost, ceed.CopiedIn, u))
	vv, err := c.NewVector(len(u))
	keep(vv, err)
	require.NoError(t, op.Apply(uv, vv, nil))
	a, err := vv.GetArrayRead(ceed.MemHost)
	require.NoError(t, err)
	defer vv.RestoreArrayRead(&a)
	return append([]float64(nil), a...)
}

func TestMassMatchesRef(t *testing.T) {
	c := newOCCACeed(t)
	reg := ceed.NewRegistry()
	ref.Register(reg)
	rc, err := reg.Init("/cpu/self/ref")
	require.NoError(t, err)
	defer rc.Destroy()

	for dim := 1; dim <= 3; dim++ {
		want := massOnBox(t, rc, dim)
		got := massOnBox(t, c, dim)
		assert.InDeltaSlice(t, want, got, 1e-12, "dim %d", dim)
	}
	kernels := c.Backend().(*Backend).Runner().NumKernels()
	assert.Positive(t, kernels)
}
