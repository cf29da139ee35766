package element

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLagrange(t *testing.T) {
	tests := []struct {
		geom  ElementGeometry
		order int
		np    int
		nv    int
	}{
		{Line, 1, 2, 2},
		{Line, 4, 5, 2},
		{Tri, 1, 3, 3},
		{Tri, 3, 10, 3},
		{Tet, 1, 4, 4},
		{Tet, 3, 20, 4},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s%d", tt.geom, tt.order), func(t *testing.T) {
			el, err := NewLagrange(tt.geom, tt.order)
			require.NoError(t, err)
			props := el.GetProperties()
			assert.Equal(t, tt.np, props.Np)
			assert.Len(t, el.GetReferenceGeometry().VertexPoints, tt.nv)

			// mass matrix integrates the constant over the reference element
			M := el.GetNodalModal().M
			sum := 0.0
			for i := 0; i < props.Np; i++ {
				for j := 0; j < props.Np; j++ {
					sum += M.At(i, j)
				}
			}
			assert.InDelta(t, ReferenceVolume(tt.geom), sum, 1e-10)

			// derivative of a constant vanishes
			Dr := el.GetReferenceOperators().Dr
			for i := 0; i < props.Np; i++ {
				row := 0.0
				for j := 0; j < props.Np; j++ {
					row += Dr.At(i, j)
				}
				assert.InDelta(t, 0, row, 1e-10)
			}
		})
	}

	_, err := NewLagrange(Hex, 2)
	assert.Error(t, err)
	_, err = NewLagrange(Tri, 0)
	assert.Error(t, err)
}

func TestSimplexQuadrature(t *testing.T) {
	for _, geom := range []ElementGeometry{Line, Tri, Tet} {
		for q1d := 1; q1d <= 4; q1d++ {
			t.Run(fmt.Sprintf("%s/q=%d", geom, q1d), func(t *testing.T) {
				pts, w, err := SimplexQuadrature(geom, q1d)
				require.NoError(t, err)
				require.Len(t, pts, int(geom.Dimensions()))
				sum := 0.0
				for _, wi := range w {
					sum += wi
				}
				assert.InDelta(t, ReferenceVolume(geom), sum, 1e-12)
				// points lie inside the reference simplex
				for q := range w {
					total := 0.0
					for d := range pts {
						assert.GreaterOrEqual(t, pts[d][q], -1.0)
						total += pts[d][q] + 1
					}
					assert.LessOrEqual(t, total, 2.0+1e-12)
				}
			})
		}
	}

	// integral of (r+1) over the reference triangle is 4/3
	pts, w, err := SimplexQuadrature(Tri, 2)
	require.NoError(t, err)
	sum := 0.0
	for q := range w {
		sum += w[q] * (pts[0][q] + 1)
	}
	assert.InDelta(t, 4./3., sum, 1e-12)

	_, _, err = SimplexQuadrature(Hex, 2)
	assert.Error(t, err)
}

func TestSimplexBasisData(t *testing.T) {
	for _, geom := range []ElementGeometry{Line, Tri, Tet} {
		t.Run(geom.String(), func(t *testing.T) {
			bd, err := SimplexBasisData(geom, 2, 3)
			require.NoError(t, err)
			assert.Equal(t, NumNodes(geom, 2), bd.P)
			assert.Len(t, bd.Interp, bd.Q*bd.P)
			assert.Len(t, bd.Grad, bd.Dim*bd.Q*bd.P)
			assert.Len(t, bd.QRef, bd.Dim*bd.Q)

			// partition of unity and zero gradient of constants
			for q := 0; q < bd.Q; q++ {
				s := 0.0
				for p := 0; p < bd.P; p++ {
					s += bd.Interp[q*bd.P+p]
				}
				assert.InDelta(t, 1, s, 1e-12)
				for d := 0; d < bd.Dim; d++ {
					g := 0.0
					for p := 0; p < bd.P; p++ {
						g += bd.Grad[(d*bd.Q+q)*bd.P+p]
					}
					assert.InDelta(t, 0, g, 1e-10)
				}
			}

			// nodal values of r reproduce r and dr/dr = 1 at the points
			el, err := NewLagrange(geom, 2)
			require.NoError(t, err)
			r := el.GetReferenceGeometry().R
			for q := 0; q < bd.Q; q++ {
				u, du := 0.0, 0.0
				for p := 0; p < bd.P; p++ {
					u += bd.Interp[q*bd.P+p] * r[p]
					du += bd.Grad[q*bd.P+p] * r[p]
				}
				assert.InDelta(t, bd.QRef[q], u, 1e-12)
				assert.InDelta(t, 1, du, 1e-10)
			}
		})
	}

	bd, err := SimplexBasisData(Tri, 1, 1)
	require.NoError(t, err)
	var sb strings.Builder
	bd.Print(&sb)
	assert.True(t, strings.HasPrefix(sb.String(), "Tri basis: dim=2 P=3 Q=1"))
	assert.False(t, math.IsNaN(bd.Interp[0]))
}
