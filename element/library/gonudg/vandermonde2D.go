package gonudg

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Vandermonde2D initializes the 2D Vandermonde Matrix V_{ij} = psi_j(r_i, s_i)
// on the reference triangle
func Vandermonde2D(N int, R, S []float64) *mat.Dense {
	Np := (N + 1) * (N + 2) / 2
	Nr := len(R)

	V2D := mat.NewDense(Nr, Np, nil)

	sk := 0
	for i := 0; i <= N; i++ {
		for j := 0; j <= (N - i); j++ {
			// Get the polynomial values for this mode
			P := Simplex2DP(R, S, i, j)

			// Set the column
			for row := 0; row < Nr; row++ {
				V2D.Set(row, sk, P[row])
			}
			sk++
		}
	}
	return V2D
}

// Simplex2DP evaluates 2D orthonormal polynomial on simplex at (R,
// S) of order (i,j)
func Simplex2DP(R, S []float64, i, j int) []float64 {
	// Transfer to (a,b) coordinates
	a, b := RStoAB(R, S)

	Np := len(R)
	h1 := JacobiP(a, 0, 0, i)
	h2 := JacobiP(b, float64(2*i+1), 0, j)

	P := make([]float64, Np)
	sq2 := 1.4142135623730951 // sqrt(2)

	for ii := range h1 {
		tv1 := sq2 * h1[ii] * h2[ii]
		tv2 := 1.0
		if i > 0 {
			tv2 = pow(1-b[ii], i)
		}
		P[ii] = tv1 * tv2
	}
	return P
}

// RStoAB converts from (r,s) to (a,b) coordinates
func RStoAB(R, S []float64) (a, b []float64) {
	Np := len(R)
	a = make([]float64, Np)
	b = make([]float64, Np)

	for n := 0; n < Np; n++ {
		if S[n] != 1 {
			a[n] = 2*(1+R[n])/(1-S[n]) - 1
		} else {
			a[n] = -1
		}
		b[n] = S[n]
	}
	return
}

// GradVandermonde2D builds the gradient Vandermonde matrices on the
// reference triangle, (Vr)_{ij} = dpsi_j/dr at point i
func GradVandermonde2D(N int, R, S []float64) (Vr, Vs *mat.Dense) {
	Np := (N + 1) * (N + 2) / 2
	Vr = mat.NewDense(len(R), Np, nil)
	Vs = mat.NewDense(len(R), Np, nil)
	a, b := RStoAB(R, S)

	sk := 0
	for i := 0; i <= N; i++ {
		for j := 0; j <= (N - i); j++ {
			dr, ds := GradSimplex2DP(a, b, i, j)
			Vr.SetCol(sk, dr)
			Vs.SetCol(sk, ds)
			sk++
		}
	}
	return Vr, Vs
}

// GradSimplex2DP evaluates the (r,s) derivatives of the modal basis
// function (id,jd) at collapsed coordinates (a,b)
func GradSimplex2DP(a, b []float64, id, jd int) (dmodedr, dmodeds []float64) {
	fa := JacobiP(a, 0, 0, id)
	dfa := GradJacobiP(a, 0, 0, id)
	gb := JacobiP(b, float64(2*id+1), 0, jd)
	dgb := GradJacobiP(b, float64(2*id+1), 0, jd)

	Np := len(a)
	dmodedr = make([]float64, Np)
	dmodeds = make([]float64, Np)
	scale := math.Pow(2, float64(id)+0.5)
	for n := 0; n < Np; n++ {
		hb := 0.5 * (1 - b[n])
		// d/dr
		dr := dfa[n] * gb[n]
		if id > 0 {
			dr *= pow(hb, id-1)
		}
		// d/ds
		ds := dfa[n] * gb[n] * 0.5 * (1 + a[n])
		if id > 0 {
			ds *= pow(hb, id-1)
		}
		tmp := dgb[n] * pow(hb, id)
		if id > 0 {
			tmp -= 0.5 * float64(id) * gb[n] * pow(hb, id-1)
		}
		ds += fa[n] * tmp

		dmodedr[n] = scale * dr
		dmodeds[n] = scale * ds
	}
	return
}

// EquiNodes2D returns the (N+1)(N+2)/2 equispaced nodes of order N on the
// reference triangle (-1,-1), (1,-1), (-1,1), ordered with r fastest
func EquiNodes2D(N int) (R, S []float64) {
	h := 2 / float64(N)
	for j := 0; j <= N; j++ {
		for i := 0; i <= N-j; i++ {
			R = append(R, -1+float64(i)*h)
			S = append(S, -1+float64(j)*h)
		}
	}
	return
}

// pow computes x^n for integer n
func pow(x float64, n int) float64 {
	if n == 0 {
		return 1.0
	}
	result := x
	for i := 1; i < n; i++ {
		result *= x
	}
	return result
}
