package ceed_test

import (
	"testing"

	"github.com/notargets/gceed/backends/ref"
	"github.com/notargets/gceed/ceed"
	"github.com/stretchr/testify/require"
)

func newTestCeed(t *testing.T) *ceed.Ceed {
	t.Helper()
	reg := ceed.NewRegistry()
	ref.Register(reg)
	c, err := reg.Init("/cpu/self/ref")
	require.NoError(t, err)
	t.Cleanup(func() { c.Destroy() })
	return c
}

func newVector(t *testing.T, c *ceed.Ceed, data []float64) *ceed.Vector {
	t.Helper()
	v, err := c.NewVector(len(data))
	require.NoError(t, err)
	require.NoError(t, v.SetArray(ceed.MemHost, ceed.CopiedIn, data))
	return v
}

func readVector(t *testing.T, v *ceed.Vector) []float64 {
	t.Helper()
	a, err := v.GetArrayRead(ceed.MemHost)
	require.NoError(t, err)
	out := append([]float64(nil), a...)
	require.NoError(t, v.RestoreArrayRead(&a))
	return out
}
