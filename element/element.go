package element

import "fmt"

type ElementGeometry uint8

const (
	Tet ElementGeometry = iota
	Hex
	Prism
	Pyramid
	Tri
	Rectangle
	Line
)

func (g ElementGeometry) String() string {
	switch g {
	case Tet:
		return "Tet"
	case Hex:
		return "Hex"
	case Prism:
		return "Prism"
	case Pyramid:
		return "Pyramid"
	case Tri:
		return "Tri"
	case Rectangle:
		return "Rectangle"
	case Line:
		return "Line"
	default:
		return fmt.Sprintf("ElementGeometry(%d)", uint8(g))
	}
}

// Dimensions returns the reference space dimension of the geometry
func (g ElementGeometry) Dimensions() Dimensionality {
	switch g {
	case Line:
		return D1
	case Tri, Rectangle:
		return D2
	default:
		return D3
	}
}

// IsSimplex reports whether the geometry is a line, triangle or tetrahedron
func (g ElementGeometry) IsSimplex() bool {
	return g == Line || g == Tri || g == Tet
}

// NumNodes returns the number of Lagrange nodes of a simplex of the given order
func NumNodes(g ElementGeometry, order int) int {
	switch g {
	case Line:
		return order + 1
	case Tri:
		return (order + 1) * (order + 2) / 2
	case Tet:
		return (order + 1) * (order + 2) * (order + 3) / 6
	}
	return 0
}

// ReferenceVolume is the measure of the reference element in [-1,1]^d
func ReferenceVolume(g ElementGeometry) float64 {
	switch g {
	case Line:
		return 2
	case Tri:
		return 2
	case Tet:
		return 4. / 3.
	case Rectangle:
		return 4
	case Hex:
		return 8
	}
	return 0
}
