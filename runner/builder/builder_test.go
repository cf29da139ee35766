package builder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestDataType(t *testing.T) {
	assert.Equal(t, 4, Float32.Size())
	assert.Equal(t, 8, Float64.Size())
	assert.Equal(t, 4, INT32.Size())
	assert.Equal(t, 8, INT64.Size())
	assert.Equal(t, "double", Float64.CType())
	assert.Equal(t, "int", INT32.CType())
	assert.Equal(t, "long", INT64.CType())
}

func TestGeneratePreamble(t *testing.T) {
	kb := NewBuilder(0, 0)
	kb.Define("NCOMP", 2).Define("P", 3)
	kb.AddStaticMatrix("B", mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6}))
	src := kb.GeneratePreamble()

	assert.Contains(t, src, "typedef double real_t;")
	assert.Contains(t, src, "typedef int int_t;")
	assert.Contains(t, src, "#define NCOMP 2\n#define P 3\n")
	assert.Contains(t, src, "const double B[2][3] = {")
	// rows are written in order
	assert.Less(t, strings.Index(src, "1.00000000000000000e+00"), strings.Index(src, "4.00000000000000000e+00"))

	// Redefining keeps the original position
	kb.Define("NCOMP", 5)
	assert.Contains(t, kb.GeneratePreamble(), "#define NCOMP 5\n#define P 3\n")
}

func TestFloat32Preamble(t *testing.T) {
	kb := NewBuilder(Float32, INT64)
	kb.AddStaticMatrix("I", mat.NewDiagDense(2, []float64{1, 1}))
	src := kb.GeneratePreamble()
	assert.Contains(t, src, "typedef float real_t;")
	assert.Contains(t, src, "typedef long int_t;")
	assert.Contains(t, src, "#define REAL_ONE 1.0f")
	assert.Contains(t, src, "1.0000000e+00f")
	assert.NotContains(t, src, "#define NCOMP")
}
