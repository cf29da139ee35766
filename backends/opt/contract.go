package opt

import (
	"github.com/notargets/gceed/ceed"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
)

// GemmContract is a ceed.Contractor on BLAS. Each slab a is one product
// V_a = T U_a; when the contracted index is innermost the whole contraction
// is a single product V = U T^T.
func GemmContract(A, B, C, J int, t []float64, tmode ceed.TransposeMode, add bool, u, v []float64) {
	beta := 0.0
	if add {
		beta = 1
	}
	// t is J x B, or B x J when transposed
	tm := blas64.General{Rows: J, Cols: B, Stride: B, Data: t[:J*B]}
	tTrans := blas.NoTrans
	if tmode == ceed.Transpose {
		tm = blas64.General{Rows: B, Cols: J, Stride: J, Data: t[:J*B]}
		tTrans = blas.Trans
	}
	if C == 1 {
		um := blas64.General{Rows: A, Cols: B, Stride: B, Data: u[:A*B]}
		vm := blas64.General{Rows: A, Cols: J, Stride: J, Data: v[:A*J]}
		// V = U T^T, flipping the transpose of t
		flip := blas.Trans
		if tTrans == blas.Trans {
			flip = blas.NoTrans
		}
		blas64.Gemm(blas.NoTrans, flip, 1, um, tm, beta, vm)
		return
	}
	for a := 0; a < A; a++ {
		um := blas64.General{Rows: B, Cols: C, Stride: C, Data: u[a*B*C : (a+1)*B*C]}
		vm := blas64.General{Rows: J, Cols: C, Stride: C, Data: v[a*J*C : (a+1)*J*C]}
		blas64.Gemm(tTrans, blas.NoTrans, 1, tm, um, beta, vm)
	}
}
