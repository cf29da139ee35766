package utils

import (
	"fmt"

	"github.com/notargets/gceed/ceed"
)

// BoxMesh is a structured mesh of [0,1]^Dim with tensor product elements of
// P Gauss-Lobatto nodes per direction. Nodes and elements are numbered with
// x fastest.
type BoxMesh struct {
	Dim         int
	P           int
	NElem       [3]int
	NumElements int
	NumNodes    int
	Indices     []int     // [elem][P^Dim]
	Coords      []float64 // [node][Dim]
}

// NewBoxMesh builds a mesh of nelem[0] x ... x nelem[dim-1] elements.
// Entries of nelem beyond dim are ignored.
func NewBoxMesh(dim int, nelem [3]int, P int) (*BoxMesh, error) {
	if dim < 1 || dim > 3 {
		return nil, fmt.Errorf("dimension %d not in [1,3]", dim)
	}
	if P < 2 {
		return nil, fmt.Errorf("need at least 2 nodes per direction, have %d", P)
	}
	m := &BoxMesh{Dim: dim, P: P, NumElements: 1, NumNodes: 1}
	var nn [3]int
	for d := 0; d < 3; d++ {
		m.NElem[d], nn[d] = 1, 1
		if d < dim {
			if nelem[d] < 1 {
				return nil, fmt.Errorf("direction %d has %d elements", d, nelem[d])
			}
			m.NElem[d] = nelem[d]
			nn[d] = nelem[d]*(P-1) + 1
		}
		m.NumElements *= m.NElem[d]
		m.NumNodes *= nn[d]
	}
	gll, _, err := ceed.LobattoQuadrature(P)
	if err != nil {
		return nil, err
	}

	// Element connectivity
	np := 1
	for d := 0; d < dim; d++ {
		np *= P
	}
	m.Indices = make([]int, 0, m.NumElements*np)
	for ez := 0; ez < m.NElem[2]; ez++ {
		for ey := 0; ey < m.NElem[1]; ey++ {
			for ex := 0; ex < m.NElem[0]; ex++ {
				for n := 0; n < np; n++ {
					i, j, k := n%P, (n/P)%P, n/(P*P)
					gx, gy, gz := ex*(P-1)+i, ey*(P-1)+j, ez*(P-1)+k
					m.Indices = append(m.Indices, gx+nn[0]*(gy+nn[1]*gz))
				}
			}
		}
	}

	// Node coordinates, GLL spaced within each element
	coord := func(d, g int) float64 {
		e := min(g/(P-1), m.NElem[d]-1)
		i := g - e*(P-1)
		return (float64(e) + (gll[i]+1)/2) / float64(m.NElem[d])
	}
	m.Coords = make([]float64, m.NumNodes*dim)
	for g := 0; g < m.NumNodes; g++ {
		idx := [3]int{g % nn[0], (g / nn[0]) % nn[1], g / (nn[0] * nn[1])}
		for d := 0; d < dim; d++ {
			m.Coords[g*dim+d] = coord(d, idx[d])
		}
	}
	return m, nil
}

// Restriction creates an interlaced restriction with ncomp components per node
func (m *BoxMesh) Restriction(c *ceed.Ceed, ncomp int) (*ceed.ElemRestriction, error) {
	return c.NewElemRestriction(m.NumElements, len(m.Indices)/m.NumElements, ncomp, m.NumNodes, ceed.Interlaced, m.Indices)
}

// CoordinateVector returns the node coordinates as a vector for a Dim
// component restriction
func (m *BoxMesh) CoordinateVector(c *ceed.Ceed) (*ceed.Vector, error) {
	v, err := c.NewVector(len(m.Coords))
	if err != nil {
		return nil, err
	}
	if err := v.SetArray(ceed.MemHost, ceed.CopiedIn, m.Coords); err != nil {
		v.Destroy()
		return nil, err
	}
	return v, nil
}
