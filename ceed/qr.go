package ceed

import (
	"gonum.org/v1/gonum/mat"
)

// QRFactorization factors the m x n (m >= n) matrix a = q r with q an m x m
// orthogonal matrix and r upper triangular
func QRFactorization(a mat.Matrix) (q, r *mat.Dense, err error) {
	m, n := a.Dims()
	if m < n {
		return nil, nil, Errorf("Basis", "QRFactorization", ErrDimensionMismatch, "%d x %d has more columns than rows", m, n)
	}
	var qr mat.QR
	qr.Factorize(a)
	q, r = new(mat.Dense), new(mat.Dense)
	qr.QTo(q)
	qr.RTo(r)
	return q, r, nil
}

// denseData returns the row-major contents of a gonum matrix
func denseData(m mat.Matrix) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out
}
