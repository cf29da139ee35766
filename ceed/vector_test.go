package ceed_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/notargets/gceed/ceed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorOwnership(t *testing.T) {
	c := newTestCeed(t)
	tests := []struct {
		name     string
		own      ceed.Ownership
		aliased  bool
		writable bool
	}{
		{"copied", ceed.CopiedIn, false, true},
		{"borrowed", ceed.BorrowedMutable, true, true},
		{"borrowed read-only", ceed.BorrowedReadOnly, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []float64{1, 2, 3}
			v, err := c.NewVector(3)
			require.NoError(t, err)
			defer v.Destroy()
			require.NoError(t, v.SetArray(ceed.MemHost, tt.own, data))
			assert.Equal(t, tt.own, v.Ownership())
			assert.Equal(t, ceed.HostValid, v.State())

			data[0] = 10
			got := readVector(t, v)
			assert.Equal(t, tt.aliased, got[0] == 10)

			a, err := v.GetArray(ceed.MemHost)
			if !tt.writable {
				assert.ErrorIs(t, err, ceed.ErrReadOnly)
				assert.ErrorIs(t, v.SetValue(0), ceed.ErrReadOnly)
				return
			}
			require.NoError(t, err)
			a[1] = 20
			require.NoError(t, v.RestoreArray(&a))
			assert.Nil(t, a)
			assert.Equal(t, tt.aliased, data[1] == 20)
		})
	}
}

func TestVectorCheckout(t *testing.T) {
	c := newTestCeed(t)
	v := newVector(t, c, []float64{1, 2})
	defer v.Destroy()

	w, err := v.GetArray(ceed.MemHost)
	require.NoError(t, err)
	_, err = v.GetArray(ceed.MemHost)
	assert.ErrorIs(t, err, ceed.ErrAlreadyCheckedOut)
	_, err = v.GetArrayRead(ceed.MemHost)
	assert.ErrorIs(t, err, ceed.ErrAlreadyCheckedOut)
	assert.ErrorIs(t, v.SetValue(1), ceed.ErrAlreadyCheckedOut)
	assert.ErrorIs(t, v.Destroy(), ceed.ErrAlreadyCheckedOut)
	require.NoError(t, v.RestoreArray(&w))
	assert.ErrorIs(t, v.RestoreArray(&w), ceed.ErrNullArray)

	r1, err := v.GetArrayRead(ceed.MemHost)
	require.NoError(t, err)
	r2, err := v.GetArrayRead(ceed.MemHost)
	require.NoError(t, err)
	_, err = v.GetArray(ceed.MemHost)
	assert.ErrorIs(t, err, ceed.ErrAlreadyCheckedOut)
	require.NoError(t, v.RestoreArrayRead(&r1))
	require.NoError(t, v.RestoreArrayRead(&r2))
	assert.ErrorIs(t, v.RestoreArrayRead(&r2), ceed.ErrNullArray)

	stray := []float64{0}
	assert.ErrorIs(t, v.RestoreArrayRead(&stray), ceed.ErrNullArray)
	assert.Equal(t, ceed.StateError, ceed.ClassOf(v.RestoreArray(nil)))
}

func TestVectorErrors(t *testing.T) {
	c := newTestCeed(t)
	v, err := c.NewVector(3)
	require.NoError(t, err)
	assert.Equal(t, ceed.Uninitialized, v.State())

	_, err = v.GetArrayRead(ceed.MemHost)
	assert.ErrorIs(t, err, ceed.ErrNoData)
	assert.ErrorIs(t, v.SyncArray(ceed.MemHost), ceed.ErrNoData)
	assert.ErrorIs(t, v.SetArray(ceed.MemHost, ceed.CopiedIn, []float64{1}), ceed.ErrDimensionMismatch)
	assert.ErrorIs(t, v.SetArray(ceed.MemHost, ceed.CopiedIn, nil), ceed.ErrNullArray)
	assert.ErrorIs(t, v.SetArray(ceed.MemDevice, ceed.CopiedIn, []float64{1, 2, 3}), ceed.ErrInvalidMemType)
	_, err = v.GetArray(ceed.MemDevice)
	assert.ErrorIs(t, err, ceed.ErrInvalidMemType)

	_, err = c.NewVector(-1)
	assert.ErrorIs(t, err, ceed.ErrInvalidArgument)

	require.NoError(t, v.Destroy())
	require.NoError(t, v.Destroy())
	assert.ErrorIs(t, v.SetValue(1), ceed.ErrDestroyed)
	assert.ErrorIs(t, ceed.VectorActive.SetValue(1), ceed.ErrInvalidArgument)
}

func TestVectorNormAndView(t *testing.T) {
	c := newTestCeed(t)
	v := newVector(t, c, []float64{1, -2, 3})
	defer v.Destroy()

	tests := []struct {
		norm ceed.NormType
		want float64
	}{
		{ceed.Norm1, 6},
		{ceed.Norm2, math.Sqrt(14)},
		{ceed.NormMax, 3},
	}
	for _, tt := range tests {
		got, err := v.Norm(tt.norm)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-14)
	}

	var buf bytes.Buffer
	require.NoError(t, v.View(&buf, "%5.1f"))
	assert.Equal(t, "Vector length 3\n  1.0\n -2.0\n  3.0\n", buf.String())

	require.NoError(t, v.SetValue(0.5))
	assert.Equal(t, []float64{0.5, 0.5, 0.5}, readVector(t, v))
}

func TestCeedDestroyNeedsObjectsDestroyed(t *testing.T) {
	c := newTestCeed(t)
	v, err := c.NewVector(2)
	require.NoError(t, err)
	assert.Equal(t, 1, c.LiveObjects())
	assert.ErrorIs(t, c.Destroy(), ceed.ErrInUse)
	require.NoError(t, v.Destroy())
	assert.NoError(t, c.Destroy())
	_, err = c.NewVector(2)
	assert.ErrorIs(t, err, ceed.ErrDestroyed)
}
