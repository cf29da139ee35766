package ceed

import (
	"github.com/notargets/gceed/element/library/gonudg"
)

// GaussQuadrature returns the Q point Gauss-Legendre rule on [-1,1]
func GaussQuadrature(Q int) (qref, qweight []float64, err error) {
	if Q < 1 {
		return nil, nil, Errorf("Basis", "GaussQuadrature", ErrInvalidArgument, "Q=%d", Q)
	}
	qref, qweight = gonudg.GaussLegendre(Q)
	return qref, qweight, nil
}

// LobattoQuadrature returns the Q point Gauss-Lobatto-Legendre rule on [-1,1]
func LobattoQuadrature(Q int) (qref, qweight []float64, err error) {
	if Q < 2 {
		return nil, nil, Errorf("Basis", "LobattoQuadrature", ErrInvalidArgument, "Q=%d, need at least 2", Q)
	}
	qref, qweight = gonudg.GaussLobattoLegendre(Q)
	return qref, qweight, nil
}

// LagrangeMatrices returns row-major [len(points)][len(nodes)] interpolation
// and derivative matrices of the Lagrange polynomials on nodes
func LagrangeMatrices(nodes, points []float64) (interp, grad []float64) {
	B, D := gonudg.Lagrange1D(nodes, points)
	return denseData(B), denseData(D)
}
