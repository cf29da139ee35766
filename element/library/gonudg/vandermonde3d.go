package gonudg

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Vandermonde3D initializes the 3D Vandermonde Matrix V_{ij} = phi_j(r_i, s_i, t_i)
func Vandermonde3D(N int, r, s, t []float64) *mat.Dense {
	Np := len(r)
	Ncol := (N + 1) * (N + 2) * (N + 3) / 6

	// Initialize the Vandermonde matrix
	V3D := mat.NewDense(Np, Ncol, nil)

	// Transfer to (a,b,c) coordinates
	a, b, c := RSTtoABC(r, s, t)

	// Build the Vandermonde matrix
	sk := 0 // 0-based column index
	for i := 0; i <= N; i++ {
		for j := 0; j <= N-i; j++ {
			for k := 0; k <= N-i-j; k++ {
				// Evaluate basis function at all points
				col := Simplex3DP(a, b, c, i, j, k)

				// Copy to matrix column
				V3D.SetCol(sk, col)
				sk++
			}
		}
	}

	return V3D
}

// GradVandermonde3D builds the gradient Vandermonde matrices
// Returns Vr, Vs, Vt where (Vr)_{ij} = dphi_j/dr at point i
func GradVandermonde3D(N int, r, s, t []float64) (Vr, Vs, Vt *mat.Dense) {
	Np := len(r)
	Ncol := (N + 1) * (N + 2) * (N + 3) / 6

	// Initialize the gradient matrices
	Vr = mat.NewDense(Np, Ncol, nil)
	Vs = mat.NewDense(Np, Ncol, nil)
	Vt = mat.NewDense(Np, Ncol, nil)

	a, b, c := RSTtoABC(r, s, t)

	// Build the gradient Vandermonde matrices
	sk := 0 // 0-based column index
	for i := 0; i <= N; i++ {
		for j := 0; j <= N-i; j++ {
			for k := 0; k <= N-i-j; k++ {
				// Evaluate gradient of basis function at all points
				dr, ds, dt := GradSimplex3DP(a, b, c, i, j, k)

				// Copy to matrix columns
				Vr.SetCol(sk, dr)
				Vs.SetCol(sk, ds)
				Vt.SetCol(sk, dt)
				sk++
			}
		}
	}

	return Vr, Vs, Vt
}

// RSTtoABC transfers from (r,s,t) on the reference tetrahedron to the
// collapsed (a,b,c) coordinates on the cube
func RSTtoABC(r, s, t []float64) (a, b, c []float64) {
	Np := len(r)
	a = make([]float64, Np)
	b = make([]float64, Np)
	c = make([]float64, Np)
	for n := 0; n < Np; n++ {
		if s[n]+t[n] != 0 {
			a[n] = 2*(1+r[n])/(-s[n]-t[n]) - 1
		} else {
			a[n] = -1
		}
		if t[n] != 1 {
			b[n] = 2*(1+s[n])/(1-t[n]) - 1
		} else {
			b[n] = -1
		}
		c[n] = t[n]
	}
	return
}

// Simplex3DP evaluates the 3D orthonormal polynomial of order (i,j,k) on the
// tetrahedron at collapsed coordinates (a,b,c)
func Simplex3DP(a, b, c []float64, i, j, k int) []float64 {
	h1 := JacobiP(a, 0, 0, i)
	h2 := JacobiP(b, float64(2*i+1), 0, j)
	h3 := JacobiP(c, float64(2*(i+j)+2), 0, k)

	P := make([]float64, len(a))
	for n := range P {
		P[n] = 2 * math.Sqrt2 * h1[n] * h2[n] * pow(1-b[n], i) * h3[n] * pow(1-c[n], i+j)
	}
	return P
}

// GradSimplex3DP evaluates the (r,s,t) derivatives of the modal basis
// function (id,jd,kd) at collapsed coordinates (a,b,c)
func GradSimplex3DP(a, b, c []float64, id, jd, kd int) (V3Dr, V3Ds, V3Dt []float64) {
	fa := JacobiP(a, 0, 0, id)
	dfa := GradJacobiP(a, 0, 0, id)
	gb := JacobiP(b, float64(2*id+1), 0, jd)
	dgb := GradJacobiP(b, float64(2*id+1), 0, jd)
	hc := JacobiP(c, float64(2*(id+jd)+2), 0, kd)
	dhc := GradJacobiP(c, float64(2*(id+jd)+2), 0, kd)

	Np := len(a)
	V3Dr = make([]float64, Np)
	V3Ds = make([]float64, Np)
	V3Dt = make([]float64, Np)
	scale := math.Pow(2, float64(2*id+jd)+1.5)
	for n := 0; n < Np; n++ {
		hb := 0.5 * (1 - b[n])
		hcc := 0.5 * (1 - c[n])

		dr := dfa[n] * gb[n] * hc[n]
		if id > 0 {
			dr *= pow(hb, id-1)
		}
		if id+jd > 0 {
			dr *= pow(hcc, id+jd-1)
		}

		ds := 0.5 * (1 + a[n]) * dr
		tmp := dgb[n] * pow(hb, id)
		if id > 0 {
			tmp -= 0.5 * float64(id) * gb[n] * pow(hb, id-1)
		}
		if id+jd > 0 {
			tmp *= pow(hcc, id+jd-1)
		}
		tmp = fa[n] * tmp * hc[n]
		ds += tmp

		dt := 0.5*(1+a[n])*dr + 0.5*(1+b[n])*tmp
		tmp = dhc[n] * pow(hcc, id+jd)
		if id+jd > 0 {
			tmp -= 0.5 * float64(id+jd) * hc[n] * pow(hcc, id+jd-1)
		}
		tmp = fa[n] * gb[n] * tmp * pow(hb, id)
		dt += tmp

		V3Dr[n] = scale * dr
		V3Ds[n] = scale * ds
		V3Dt[n] = scale * dt
	}
	return
}

// EquiNodes3D returns the (N+1)(N+2)(N+3)/6 equispaced nodes of order N on
// the reference tetrahedron, ordered with r fastest then s then t
func EquiNodes3D(N int) (R, S, T []float64) {
	h := 2 / float64(N)
	for k := 0; k <= N; k++ {
		for j := 0; j <= N-k; j++ {
			for i := 0; i <= N-j-k; i++ {
				R = append(R, -1+float64(i)*h)
				S = append(S, -1+float64(j)*h)
				T = append(T, -1+float64(k)*h)
			}
		}
	}
	return
}
