package element

import (
	"fmt"
	"math"

	"github.com/notargets/gceed/element/library/gonudg"
	"gonum.org/v1/gonum/mat"
)

// Dimensionality represents the spatial dimension of an element
type Dimensionality uint8

const (
	D0 Dimensionality = iota // 0D elements (points)
	D1                       // 1D elements (lines, edges)
	D2                       // 2D elements (triangles, quadrilaterals)
	D3                       // 3D elements (tetrahedra, hexahedra, etc.)
)

// ElementProperties contains metadata describing an element type
type ElementProperties struct {
	Name       string          // Full descriptive name (e.g., "Lagrange Tetrahedron Order 3")
	ShortName  string          // Abbreviated name (e.g., "Tet3")
	Type       ElementGeometry // Element shape
	Order      int             // Polynomial order
	Np         int             // Total number of nodes/points in element
	NVp        int             // Number of vertex nodes (equals number of vertices)
	Dimensions Dimensionality  // Spatial dimension (1D, 2D, or 3D)
}

// ReferenceGeometry defines the layout of nodes in the reference element
type ReferenceGeometry struct {
	// For 3D: all three are used; for 2D: only R,S; for 1D: only R
	R, S, T []float64 // Length Np each

	VertexPoints []int // Indices of nodes located at vertices
}

// NodalModalMatrices contains transformation matrices between nodal and modal representations
type NodalModalMatrices struct {
	V    mat.Matrix // Vandermonde matrix: modal to nodal transformation [Np × Np]
	Vinv mat.Matrix // Inverse Vandermonde: nodal to modal transformation [Np × Np]
	M    mat.Matrix // Mass matrix in nodal space [Np × Np]
}

// ReferenceOperators contains differential operators in reference space
type ReferenceOperators struct {
	Dr mat.Matrix // Derivative with respect to r [Np × Np]
	Ds mat.Matrix // Derivative with respect to s [Np × Np] (2D and 3D)
	Dt mat.Matrix // Derivative with respect to t [Np × Np] (3D only)
}

// ReferenceElement defines element properties and operators in reference space
type ReferenceElement interface {
	GetProperties() ElementProperties
	GetReferenceGeometry() ReferenceGeometry
	GetNodalModal() NodalModalMatrices
	GetReferenceOperators() ReferenceOperators

	// Vandermonde returns the modal basis and its reference gradients
	// evaluated at arbitrary points, one slice per reference dimension
	Vandermonde(pts [][]float64) (V *mat.Dense, grad []*mat.Dense)
}

// Lagrange is the nodal H1 element on a line, triangle or tetrahedron.
// Lines use Gauss-Lobatto nodes, triangles and tetrahedra equispaced nodes.
type Lagrange struct {
	props ElementProperties
	geom  ReferenceGeometry
	nm    NodalModalMatrices
	ops   ReferenceOperators
}

var _ ReferenceElement = (*Lagrange)(nil)

func NewLagrange(geom ElementGeometry, order int) (*Lagrange, error) {
	if !geom.IsSimplex() {
		return nil, fmt.Errorf("element: %s is not a simplex geometry", geom)
	}
	if order < 1 {
		return nil, fmt.Errorf("element: order %d must be at least 1", order)
	}
	el := &Lagrange{}
	el.props = ElementProperties{
		Name:       fmt.Sprintf("Lagrange %s Order %d", geom, order),
		ShortName:  fmt.Sprintf("%s%d", geom, order),
		Type:       geom,
		Order:      order,
		Np:         NumNodes(geom, order),
		NVp:        int(geom.Dimensions()) + 1,
		Dimensions: geom.Dimensions(),
	}

	switch geom {
	case Line:
		el.geom.R = gonudg.JacobiGL(0, 0, order)
	case Tri:
		el.geom.R, el.geom.S = gonudg.EquiNodes2D(order)
	case Tet:
		el.geom.R, el.geom.S, el.geom.T = gonudg.EquiNodes3D(order)
	}
	el.geom.VertexPoints = el.findVertices()

	V, grad := el.Vandermonde(el.nodes())
	var Vinv mat.Dense
	if err := Vinv.Inverse(V); err != nil {
		return nil, fmt.Errorf("element: %s Vandermonde is singular: %w", el.props.ShortName, err)
	}
	// M = (V V^T)^{-1} = Vinv^T Vinv
	M := mat.NewDense(el.props.Np, el.props.Np, nil)
	M.Mul(Vinv.T(), &Vinv)
	el.nm = NodalModalMatrices{V: V, Vinv: &Vinv, M: M}

	D := make([]*mat.Dense, len(grad))
	for d := range grad {
		D[d] = new(mat.Dense)
		D[d].Mul(grad[d], &Vinv)
	}
	el.ops.Dr = D[0]
	if len(D) > 1 {
		el.ops.Ds = D[1]
	}
	if len(D) > 2 {
		el.ops.Dt = D[2]
	}
	return el, nil
}

func (el *Lagrange) GetProperties() ElementProperties          { return el.props }
func (el *Lagrange) GetReferenceGeometry() ReferenceGeometry   { return el.geom }
func (el *Lagrange) GetNodalModal() NodalModalMatrices         { return el.nm }
func (el *Lagrange) GetReferenceOperators() ReferenceOperators { return el.ops }

func (el *Lagrange) Vandermonde(pts [][]float64) (V *mat.Dense, grad []*mat.Dense) {
	N := el.props.Order
	switch el.props.Type {
	case Line:
		return gonudg.Vandermonde1D(N, pts[0]), []*mat.Dense{gonudg.GradVandermonde1D(N, pts[0])}
	case Tri:
		Vr, Vs := gonudg.GradVandermonde2D(N, pts[0], pts[1])
		return gonudg.Vandermonde2D(N, pts[0], pts[1]), []*mat.Dense{Vr, Vs}
	default:
		Vr, Vs, Vt := gonudg.GradVandermonde3D(N, pts[0], pts[1], pts[2])
		return gonudg.Vandermonde3D(N, pts[0], pts[1], pts[2]), []*mat.Dense{Vr, Vs, Vt}
	}
}

func (el *Lagrange) nodes() [][]float64 {
	switch el.props.Dimensions {
	case D1:
		return [][]float64{el.geom.R}
	case D2:
		return [][]float64{el.geom.R, el.geom.S}
	default:
		return [][]float64{el.geom.R, el.geom.S, el.geom.T}
	}
}

func (el *Lagrange) findVertices() (verts []int) {
	pts := el.nodes()
	dim := len(pts)
	for i := range pts[0] {
		// a vertex has every coordinate at -1 except at most one at +1
		atMinus, atPlus := 0, 0
		for d := 0; d < dim; d++ {
			switch {
			case math.Abs(pts[d][i]+1) < 1e-12:
				atMinus++
			case math.Abs(pts[d][i]-1) < 1e-12:
				atPlus++
			}
		}
		if atMinus+atPlus == dim && atPlus <= 1 {
			verts = append(verts, i)
		}
	}
	return
}
