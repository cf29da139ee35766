package gonudg

import (
	"gonum.org/v1/gonum/mat"
)

// Vandermonde1D initializes the 1D Vandermonde matrix V_{ij} = P_j(r_i) with
// orthonormal Legendre modes
func Vandermonde1D(N int, r []float64) *mat.Dense {
	V1D := mat.NewDense(len(r), N+1, nil)
	for j := 0; j <= N; j++ {
		V1D.SetCol(j, JacobiP(r, 0, 0, j))
	}
	return V1D
}

// GradVandermonde1D initializes the derivative of the modal basis at r
func GradVandermonde1D(N int, r []float64) *mat.Dense {
	DVr := mat.NewDense(len(r), N+1, nil)
	for j := 0; j <= N; j++ {
		DVr.SetCol(j, GradJacobiP(r, 0, 0, j))
	}
	return DVr
}

// Lagrange1D returns the interpolation and derivative matrices that carry the
// Lagrange nodal values at nodes to values and derivatives at points. Both
// are len(points) x len(nodes).
func Lagrange1D(nodes, points []float64) (interp, grad *mat.Dense) {
	N := len(nodes) - 1
	V := Vandermonde1D(N, nodes)
	var Vinv mat.Dense
	if err := Vinv.Inverse(V); err != nil {
		panic(err)
	}
	interp, grad = new(mat.Dense), new(mat.Dense)
	interp.Mul(Vandermonde1D(N, points), &Vinv)
	grad.Mul(GradVandermonde1D(N, points), &Vinv)
	return interp, grad
}
