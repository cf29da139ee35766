// Package mesh adapts unstructured mesh files to restrictions and coordinate
// vectors
package mesh

import (
	"fmt"

	"github.com/notargets/gceed/ceed"
	"github.com/notargets/gocfd/DG3D/mesh/readers"
)

// TetMesh holds the linear tetrahedra of a mesh with vertices numbered
// compactly in order of first use
type TetMesh struct {
	NumElements int
	NumNodes    int
	Indices     []int     // [elem][4]
	Coords      []float64 // [node][3]
}

// ReadTetMesh reads a mesh file with the gocfd readers and keeps its
// tetrahedra
func ReadTetMesh(path string) (*TetMesh, error) {
	msh, err := readers.ReadMeshFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	verts := make([][3]float64, len(msh.Vertices))
	for i, v := range msh.Vertices {
		verts[i] = [3]float64{v[0], v[1], v[2]}
	}
	tm, err := FromConnectivity(verts, msh.EtoV)
	if err != nil {
		return nil, fmt.Errorf("mesh file %s: %w", path, err)
	}
	return tm, nil
}

// FromConnectivity builds a TetMesh from vertex coordinates and element to
// vertex lists. Elements without four vertices are skipped; negatively
// oriented tetrahedra are flipped.
func FromConnectivity(verts [][3]float64, etov [][]int) (*TetMesh, error) {
	tm := &TetMesh{}
	local := make(map[int]int)
	for k, ev := range etov {
		if len(ev) != 4 {
			continue
		}
		tet := [4]int{ev[0], ev[1], ev[2], ev[3]}
		for _, v := range tet {
			if v < 0 || v >= len(verts) {
				return nil, fmt.Errorf("element %d references vertex %d of %d", k, v, len(verts))
			}
		}
		vol := signedVolume(verts[tet[0]], verts[tet[1]], verts[tet[2]], verts[tet[3]])
		if vol == 0 {
			return nil, fmt.Errorf("element %d is degenerate", k)
		}
		if vol < 0 {
			tet[1], tet[2] = tet[2], tet[1]
		}
		for _, v := range tet {
			n, ok := local[v]
			if !ok {
				n = len(local)
				local[v] = n
				tm.Coords = append(tm.Coords, verts[v][:]...)
			}
			tm.Indices = append(tm.Indices, n)
		}
		tm.NumElements++
	}
	if tm.NumElements == 0 {
		return nil, fmt.Errorf("no tetrahedra among %d elements", len(etov))
	}
	tm.NumNodes = len(local)
	return tm, nil
}

func signedVolume(a, b, c, d [3]float64) float64 {
	var u, v, w [3]float64
	for i := 0; i < 3; i++ {
		u[i], v[i], w[i] = b[i]-a[i], c[i]-a[i], d[i]-a[i]
	}
	return (u[0]*(v[1]*w[2]-v[2]*w[1]) - u[1]*(v[0]*w[2]-v[2]*w[0]) + u[2]*(v[0]*w[1]-v[1]*w[0])) / 6
}

// Volume is the total volume of the mesh
func (tm *TetMesh) Volume() float64 {
	var sum float64
	p := func(n int) [3]float64 { return [3]float64(tm.Coords[3*n : 3*n+3]) }
	for e := 0; e < tm.NumElements; e++ {
		t := tm.Indices[4*e : 4*e+4]
		sum += signedVolume(p(t[0]), p(t[1]), p(t[2]), p(t[3]))
	}
	return sum
}

// Restriction creates the P1 restriction with ncomp interlaced components
func (tm *TetMesh) Restriction(c *ceed.Ceed, ncomp int) (*ceed.ElemRestriction, error) {
	return c.NewElemRestriction(tm.NumElements, 4, ncomp, tm.NumNodes, ceed.Interlaced, tm.Indices)
}

// CoordinateVector returns the vertex coordinates for a 3 component
// restriction
func (tm *TetMesh) CoordinateVector(c *ceed.Ceed) (*ceed.Vector, error) {
	v, err := c.NewVector(len(tm.Coords))
	if err != nil {
		return nil, err
	}
	if err := v.SetArray(ceed.MemHost, ceed.CopiedIn, tm.Coords); err != nil {
		v.Destroy()
		return nil, err
	}
	return v, nil
}
