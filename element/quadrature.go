package element

import (
	"fmt"

	"github.com/notargets/gceed/element/library/gonudg"
)

// SimplexQuadrature returns a collapsed-coordinate Gauss-Jacobi rule with q1d
// points per direction on the reference simplex. Points are returned as
// pts[d][q], exact for polynomials of degree 2*q1d-1.
func SimplexQuadrature(geom ElementGeometry, q1d int) (pts [][]float64, weights []float64, err error) {
	if q1d < 1 {
		return nil, nil, fmt.Errorf("element: quadrature needs at least one point, got %d", q1d)
	}
	a, wa := gonudg.JacobiGQ(0, 0, q1d-1)
	switch geom {
	case Line:
		return [][]float64{a}, wa, nil
	case Tri:
		b, wb := gonudg.JacobiGQ(1, 0, q1d-1)
		r := make([]float64, 0, q1d*q1d)
		s := make([]float64, 0, q1d*q1d)
		for j := range b {
			for i := range a {
				r = append(r, 0.5*(1+a[i])*(1-b[j])-1)
				s = append(s, b[j])
				// (1-b) is carried by the Jacobi weight
				weights = append(weights, 0.5*wa[i]*wb[j])
			}
		}
		return [][]float64{r, s}, weights, nil
	case Tet:
		b, wb := gonudg.JacobiGQ(1, 0, q1d-1)
		c, wc := gonudg.JacobiGQ(2, 0, q1d-1)
		n := q1d * q1d * q1d
		r := make([]float64, 0, n)
		s := make([]float64, 0, n)
		t := make([]float64, 0, n)
		for k := range c {
			for j := range b {
				for i := range a {
					r = append(r, 0.25*(1+a[i])*(1-b[j])*(1-c[k])-1)
					s = append(s, 0.5*(1+b[j])*(1-c[k])-1)
					t = append(t, c[k])
					weights = append(weights, 0.125*wa[i]*wb[j]*wc[k])
				}
			}
		}
		return [][]float64{r, s, t}, weights, nil
	}
	return nil, nil, fmt.Errorf("element: no simplex quadrature for %s", geom)
}
