package gonudg

import (
	"math"
)

// JacobiP evaluates the orthonormal Jacobi polynomial P_n^{alpha,beta} at
// points x. Normalization is with respect to the weight (1-x)^alpha (1+x)^beta
// on [-1,1].
func JacobiP(x []float64, alpha, beta float64, n int) []float64 {
	Np := len(x)
	P := make([]float64, Np)

	gamma0 := Gamma0(alpha, beta)
	for i := range P {
		P[i] = 1.0 / math.Sqrt(gamma0)
	}
	if n == 0 {
		return P
	}

	Pm1 := P
	P = make([]float64, Np)
	gamma1 := (alpha + 1) * (beta + 1) / (alpha + beta + 3) * gamma0
	for i := range P {
		P[i] = ((alpha+beta+2)*x[i]/2 + (alpha-beta)/2) / math.Sqrt(gamma1)
	}
	if n == 1 {
		return P
	}

	// Three term recurrence
	aold := 2.0 / (2.0 + alpha + beta) * math.Sqrt((alpha+1)*(beta+1)/(alpha+beta+3))
	for i := 1; i < n; i++ {
		fi := float64(i)
		h1 := 2*fi + alpha + beta
		anew := 2.0 / (h1 + 2) * math.Sqrt((fi+1)*(fi+1+alpha+beta)*
			(fi+1+alpha)*(fi+1+beta)/(h1+1)/(h1+3))
		bnew := -(alpha*alpha - beta*beta) / h1 / (h1 + 2)

		Pp1 := make([]float64, Np)
		for j := range Pp1 {
			Pp1[j] = (-aold*Pm1[j] + (x[j]-bnew)*P[j]) / anew
		}
		Pm1, P = P, Pp1
		aold = anew
	}

	return P
}

// JacobiPSingle evaluates the orthonormal Jacobi polynomial at a single point
func JacobiPSingle(x, alpha, beta float64, n int) float64 {
	return JacobiP([]float64{x}, alpha, beta, n)[0]
}

// GradJacobiP evaluates the derivative of the orthonormal Jacobi polynomial
// of type (alpha,beta) at points x for order n
func GradJacobiP(x []float64, alpha, beta float64, n int) []float64 {
	dP := make([]float64, len(x))
	if n == 0 {
		return dP
	}

	// d/dx P_n^(a,b)(x) = sqrt(n(n+a+b+1)) * P_{n-1}^(a+1,b+1)(x)
	Ptemp := JacobiP(x, alpha+1, beta+1, n-1)
	scale := math.Sqrt(float64(n) * (float64(n) + alpha + beta + 1))
	for i := range dP {
		dP[i] = scale * Ptemp[i]
	}
	return dP
}

// LegendreP evaluates the classical (unnormalized, P_n(1) = 1) Legendre
// polynomial of degree n at x
func LegendreP(x float64, n int) float64 {
	return JacobiPSingle(x, 0, 0, n) * math.Sqrt(2/(2*float64(n)+1))
}
