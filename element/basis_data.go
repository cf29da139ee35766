package element

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
)

// BasisData holds the dense operators of a non-tensor H1 basis in row-major
// order, ready to hand to a basis constructor:
//
//	Interp  [Q][P]
//	Grad    [Dim][Q][P]
//	QRef    [Dim][Q]
//	QWeight [Q]
type BasisData struct {
	Geometry ElementGeometry
	Dim      int
	P, Q     int
	Interp   []float64
	Grad     []float64
	QRef     []float64
	QWeight  []float64
}

// SimplexBasisData builds the Lagrange basis of the given order evaluated on
// a collapsed Gauss-Jacobi rule with q1d points per direction
func SimplexBasisData(geom ElementGeometry, order, q1d int) (*BasisData, error) {
	el, err := NewLagrange(geom, order)
	if err != nil {
		return nil, err
	}
	pts, w, err := SimplexQuadrature(geom, q1d)
	if err != nil {
		return nil, err
	}
	props := el.GetProperties()
	bd := &BasisData{
		Geometry: geom,
		Dim:      int(props.Dimensions),
		P:        props.Np,
		Q:        len(w),
		QWeight:  w,
	}
	Vq, gradq := el.Vandermonde(pts)
	Vinv := el.GetNodalModal().Vinv

	bd.Interp = make([]float64, bd.Q*bd.P)
	bd.Grad = make([]float64, bd.Dim*bd.Q*bd.P)
	bd.QRef = make([]float64, 0, bd.Dim*bd.Q)

	interp := mat.NewDense(bd.Q, bd.P, bd.Interp)
	interp.Mul(Vq, Vinv)
	for d := 0; d < bd.Dim; d++ {
		g := mat.NewDense(bd.Q, bd.P, bd.Grad[d*bd.Q*bd.P:(d+1)*bd.Q*bd.P])
		g.Mul(gradq[d], Vinv)
		bd.QRef = append(bd.QRef, pts[d]...)
	}
	return bd, nil
}

// String is a one line summary
func (bd *BasisData) String() string {
	return fmt.Sprintf("%s basis: dim=%d P=%d Q=%d", bd.Geometry, bd.Dim, bd.P, bd.Q)
}

// Print writes the interpolation matrix, one quadrature point per line
func (bd *BasisData) Print(w io.Writer) {
	fmt.Fprintln(w, bd.String())
	for q := 0; q < bd.Q; q++ {
		for p := 0; p < bd.P; p++ {
			fmt.Fprintf(w, " % .6f", bd.Interp[q*bd.P+p])
		}
		fmt.Fprintln(w)
	}
}
