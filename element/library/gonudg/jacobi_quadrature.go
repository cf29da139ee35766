package gonudg

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// JacobiGL computes the Gauss-Lobatto quadrature points for Jacobi polynomials
// These are the zeros of (1-X^2)*P'_N^{alpha,beta}(X)
func JacobiGL(alpha, beta float64, N int) []float64 {
	if N == 0 {
		return []float64{0.0}
	}
	if N == 1 {
		return []float64{-1.0, 1.0}
	}

	// N-1 interior Gauss-Jacobi points plus the two endpoints
	xint, _ := JacobiGQ(alpha+1, beta+1, N-2)

	x := make([]float64, N+1)
	x[0] = -1.0
	copy(x[1:N], xint)
	x[N] = 1.0
	return x
}

// JacobiGQ computes the N+1 point Gauss quadrature rule for the Jacobi weight
// (1-x)^alpha (1+x)^beta using the Golub-Welsch eigenvalue method. Points are
// returned in ascending order.
func JacobiGQ(alpha, beta float64, N int) (X, W []float64) {
	if N == 0 {
		return []float64{-(alpha - beta) / (alpha + beta + 2.)}, []float64{Gamma0(alpha, beta)}
	}

	h1 := make([]float64, N+1)
	for i := 0; i < N+1; i++ {
		h1[i] = 2*float64(i) + alpha + beta
	}

	// main diagonal: d0[i] = -(α²-β²)/((2i+α+β)*(2i+α+β+2))
	d0 := make([]float64, N+1)
	fac := beta*beta - alpha*alpha
	for i := 0; i < N+1; i++ {
		d0[i] = fac / (h1[i] * (h1[i] + 2.))
	}
	if alpha+beta < 10*1.e-16 {
		d0[0] = 0.
	}

	// first super diagonal
	d1 := make([]float64, N)
	for i := 0; i < N; i++ {
		ip1 := float64(i + 1)
		d1[i] = 2.0 / (h1[i] + 2.0) * math.Sqrt(
			ip1*(ip1+alpha+beta)*(ip1+alpha)*(ip1+beta)/(h1[i]+1)/(h1[i]+3),
		)
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(NewSymTriDiagonal(d0, d1), true); !ok {
		panic(fmt.Sprintf("gonudg: Jacobi matrix eigen decomposition failed (alpha=%g, beta=%g, N=%d)",
			alpha, beta, N))
	}
	X = eig.Values(nil)

	var VVr mat.Dense
	eig.VectorsTo(&VVr)
	W = make([]float64, N+1)
	g0 := Gamma0(alpha, beta)
	for i := range W {
		v := VVr.At(0, i)
		W[i] = v * v * g0
	}
	return X, W
}

// GaussLegendre returns the Q point Gauss-Legendre rule on [-1,1]
func GaussLegendre(Q int) (X, W []float64) {
	return JacobiGQ(0, 0, Q-1)
}

// GaussLobattoLegendre returns the Q point Gauss-Lobatto-Legendre rule on
// [-1,1], Q >= 2. Weights are 2/(N(N+1) P_N(x)^2) with N = Q-1.
func GaussLobattoLegendre(Q int) (X, W []float64) {
	N := Q - 1
	X = JacobiGL(0, 0, N)
	W = make([]float64, Q)
	fN := float64(N)
	for i, x := range X {
		p := LegendreP(x, N)
		W[i] = 2 / (fN * (fN + 1) * p * p)
	}
	return X, W
}

// Gamma0 is the squared norm of the constant Jacobi polynomial, the integral
// of the weight (1-x)^alpha (1+x)^beta over [-1,1]
func Gamma0(alpha, beta float64) float64 {
	ab1 := alpha + beta + 1.
	a1 := alpha + 1.
	b1 := beta + 1.
	return math.Gamma(a1) * math.Gamma(b1) * math.Pow(2, ab1) / ab1 / math.Gamma(ab1)
}

// NewSymTriDiagonal assembles a symmetric tridiagonal matrix from its
// diagonal d0 and super diagonal d1
func NewSymTriDiagonal(d0, d1 []float64) *mat.SymDense {
	n := len(d0)
	Tri := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		Tri.SetSym(i, i, d0[i])
		if i < n-1 {
			Tri.SetSym(i, i+1, d1[i])
		}
	}
	return Tri
}
