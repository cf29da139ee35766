package utils

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/notargets/gceed/backends/ref"
	"github.com/notargets/gceed/ceed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoxMesh(t *testing.T) {
	tests := []struct {
		name   string
		dim    int
		nelem  [3]int
		P      int
		elems  int
		nodes  int
		corner []float64 // coordinates of the last node
	}{
		{"line", 1, [3]int{2, 9, 9}, 3, 2, 5, []float64{1}},
		{"quad", 2, [3]int{2, 3}, 2, 6, 12, []float64{1, 1}},
		{"hex", 3, [3]int{1, 2, 2}, 3, 4, 3 * 5 * 5, []float64{1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewBoxMesh(tt.dim, tt.nelem, tt.P)
			require.NoError(t, err)
			assert.Equal(t, tt.elems, m.NumElements)
			assert.Equal(t, tt.nodes, m.NumNodes)
			np := len(m.Indices) / m.NumElements
			assert.Equal(t, tt.elems*np, len(m.Indices))
			assert.InDeltaSlice(t, tt.corner, m.Coords[len(m.Coords)-tt.dim:], 1e-14)
			assert.InDeltaSlice(t, make([]float64, tt.dim), m.Coords[:tt.dim], 1e-14)
			used := make([]bool, m.NumNodes)
			for _, g := range m.Indices {
				used[g] = true
			}
			assert.NotContains(t, used, false)
		})
	}
}

func TestBoxMeshLineCoordinates(t *testing.T) {
	m, err := NewBoxMesh(1, [3]int{2}, 3)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.25, 0.5, 0.75, 1}, m.Coords, 1e-14)
	assert.Equal(t, []int{0, 1, 2, 2, 3, 4}, m.Indices)

	_, err = NewBoxMesh(4, [3]int{1}, 2)
	assert.Error(t, err)
	_, err = NewBoxMesh(2, [3]int{1, 0}, 2)
	assert.Error(t, err)
	_, err = NewBoxMesh(1, [3]int{1}, 1)
	assert.Error(t, err)
}

func TestScatterTable(t *testing.T) {
	reg := ceed.NewRegistry()
	ref.Register(reg)
	c, err := reg.Init("/cpu/self/ref")
	require.NoError(t, err)
	defer c.Destroy()

	m, err := NewBoxMesh(2, [3]int{3, 2}, 3)
	require.NoError(t, err)
	for _, blockSize := range []int{m.NumElements, 4} {
		r, err := c.NewElemRestrictionBlocked(m.NumElements, 9, blockSize, 2, m.NumNodes, ceed.ComponentMajor, m.Indices)
		require.NoError(t, err)

		st := NewScatterTable(r)
		require.NoError(t, st.Verify())
		assert.Equal(t, 4, st.MaxRow())
		assert.Len(t, st.Slots, m.NumElements*9*2)

		e := make([]float64, r.ESize())
		for i := range e {
			e[i] = float64(i%7) + 0.5
		}
		want := make([]float64, r.LSize())
		for b := 0; b < r.NumBlocks(); b++ {
			bes := r.BlockESize()
			ref.ScatterAdd(r, b, e[b*bes:(b+1)*bes], want)
		}
		got := make([]float64, r.LSize())
		st.ScatterAdd(e, got, 0, 5)
		st.ScatterAdd(e, got, 5, st.LSize)
		assert.InDeltaSlice(t, want, got, 1e-12)

		offsets, slots := st.Int32()
		assert.Equal(t, int32(len(st.Slots)), offsets[len(offsets)-1])
		assert.Len(t, slots, len(st.Slots))
		require.NoError(t, r.Destroy())
	}
}

func TestScatterTableVerifyRejects(t *testing.T) {
	valid := func() *ScatterTable {
		return &ScatterTable{LSize: 2, ESize: 3, Offsets: []int{0, 1, 3}, Slots: []int{2, 0, 1}}
	}
	require.NoError(t, valid().Verify())

	tests := []struct {
		name    string
		corrupt func(st *ScatterTable)
	}{
		{"short offsets", func(st *ScatterTable) { st.Offsets = st.Offsets[:2] }},
		{"decreasing offsets", func(st *ScatterTable) { st.Offsets[1] = 3; st.Offsets[2] = 2 }},
		{"slot count", func(st *ScatterTable) { st.Slots = st.Slots[:2] }},
		{"slot out of range", func(st *ScatterTable) { st.Slots[0] = 3 }},
		{"slot twice", func(st *ScatterTable) { st.Slots[0] = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := valid()
			tt.corrupt(st)
			assert.Error(t, st.Verify())
		})
	}
}

// utils is shared by the pure Go backends and must not pull in cgo
func TestNoDeviceImports(t *testing.T) {
	files, err := filepath.Glob("*.go")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	fset := token.NewFileSet()
	for _, name := range files {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
		require.NoError(t, err)
		for _, imp := range f.Imports {
			path, err := strconv.Unquote(imp.Path.Value)
			require.NoError(t, err)
			assert.NotContains(t, path, "gocca", name)
			assert.NotEqual(t, "C", path, name)
		}
	}
}
