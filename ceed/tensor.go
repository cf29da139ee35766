package ceed

// Contractor contracts the middle index of u against t:
//
//	NoTranspose: v[a][j][c] (+)= sum_b t[j][b] u[a][b][c]    t is J x B
//	Transpose:   v[a][j][c] (+)= sum_b t[b][j] u[a][b][c]    t is B x J
//
// With add unset v is overwritten.
type Contractor func(A, B, C, J int, t []float64, tmode TransposeMode, add bool, u, v []float64)

// TensorContract is the reference Contractor
func TensorContract(A, B, C, J int, t []float64, tmode TransposeMode, add bool, u, v []float64) {
	tstride0, tstride1 := B, 1
	if tmode == Transpose {
		tstride0, tstride1 = 1, J
	}
	if !add {
		clear(v[:A*J*C])
	}
	for a := 0; a < A; a++ {
		for j := 0; j < J; j++ {
			vv := v[(a*J+j)*C : (a*J+j+1)*C]
			for b := 0; b < B; b++ {
				tjb := t[j*tstride0+b*tstride1]
				uu := u[(a*B+b)*C : (a*B+b+1)*C]
				for c := range vv {
					vv[c] += tjb * uu[c]
				}
			}
		}
	}
}

func ipow(b, e int) int {
	r := 1
	for ; e > 0; e-- {
		r *= b
	}
	return r
}
