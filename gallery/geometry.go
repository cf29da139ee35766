package gallery

// jacobian loads J[c][d] = dx_c/dX_d of point i from a gradient field of Q
// points
func jacobian(dim int, dx []float64, Q, i int, J *[3][3]float64) {
	for d := 0; d < dim; d++ {
		for c := 0; c < dim; c++ {
			J[c][d] = dx[(d*dim+c)*Q+i]
		}
	}
}

func det(dim int, J *[3][3]float64) float64 {
	switch dim {
	case 1:
		return J[0][0]
	case 2:
		return J[0][0]*J[1][1] - J[0][1]*J[1][0]
	}
	return J[0][0]*(J[1][1]*J[2][2]-J[1][2]*J[2][1]) -
		J[0][1]*(J[1][0]*J[2][2]-J[1][2]*J[2][0]) +
		J[0][2]*(J[1][0]*J[2][1]-J[1][1]*J[2][0])
}

// adjugate sets A = det(J) J^-1
func adjugate(dim int, J, A *[3][3]float64) {
	switch dim {
	case 1:
		A[0][0] = 1
		return
	case 2:
		A[0][0], A[0][1] = J[1][1], -J[0][1]
		A[1][0], A[1][1] = -J[1][0], J[0][0]
		return
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			// cofactor of J[j][i]
			r0, r1 := (j+1)%3, (j+2)%3
			c0, c1 := (i+1)%3, (i+2)%3
			A[i][j] = J[r0][c0]*J[r1][c1] - J[r0][c1]*J[r1][c0]
		}
	}
}
