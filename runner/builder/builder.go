package builder

import (
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gonum.org/v1/gonum/mat"
)

// DataType represents the precision of numerical data
type DataType int

const (
	Float32 DataType = iota + 1
	Float64
	INT32
	INT64
)

// Size is the width of one value in bytes
func (dt DataType) Size() int {
	switch dt {
	case Float32, INT32:
		return 4
	}
	return 8
}

// CType is the C name of the type
func (dt DataType) CType() string {
	switch dt {
	case Float32:
		return "float"
	case Float64:
		return "double"
	case INT32:
		return "int"
	}
	return "long"
}

// Builder generates the preamble shared by the kernels of one
// configuration: type definitions, size constants and matrices embedded as
// static data. Constants and matrices are emitted in the order they were
// added, so equal configurations produce equal source.
type Builder struct {
	FloatType DataType
	IntType   DataType

	Constants      *orderedmap.OrderedMap[string, int]
	StaticMatrices *orderedmap.OrderedMap[string, mat.Matrix]
}

// NewBuilder creates a Builder. Zero types default to Float64 and INT32.
func NewBuilder(floatType, intType DataType) *Builder {
	if floatType == 0 {
		floatType = Float64
	}
	if intType == 0 {
		intType = INT32
	}
	return &Builder{
		FloatType:      floatType,
		IntType:        intType,
		Constants:      orderedmap.New[string, int](),
		StaticMatrices: orderedmap.New[string, mat.Matrix](),
	}
}

// Define adds a #define constant
func (kb *Builder) Define(name string, value int) *Builder {
	kb.Constants.Set(name, value)
	return kb
}

// AddStaticMatrix adds a matrix to be embedded as static const in kernels
func (kb *Builder) AddStaticMatrix(name string, m mat.Matrix) *Builder {
	kb.StaticMatrices.Set(name, m)
	return kb
}

// GeneratePreamble generates the kernel preamble
func (kb *Builder) GeneratePreamble() string {
	var sb strings.Builder
	sb.WriteString(kb.generateTypeDefinitions())
	sb.WriteString(kb.generateConstants())
	sb.WriteString(kb.generateStaticMatrices())
	return sb.String()
}

func (kb *Builder) generateTypeDefinitions() string {
	var sb strings.Builder
	suffix := ""
	if kb.FloatType == Float32 {
		suffix = "f"
	}
	fmt.Fprintf(&sb, "typedef %s real_t;\n", kb.FloatType.CType())
	fmt.Fprintf(&sb, "typedef %s int_t;\n", kb.IntType.CType())
	fmt.Fprintf(&sb, "#define REAL_ZERO 0.0%s\n", suffix)
	fmt.Fprintf(&sb, "#define REAL_ONE 1.0%s\n\n", suffix)
	return sb.String()
}

func (kb *Builder) generateConstants() string {
	if kb.Constants.Len() == 0 {
		return ""
	}
	var sb strings.Builder
	for pair := kb.Constants.Oldest(); pair != nil; pair = pair.Next() {
		fmt.Fprintf(&sb, "#define %s %d\n", pair.Key, pair.Value)
	}
	sb.WriteString("\n")
	return sb.String()
}

func (kb *Builder) generateStaticMatrices() string {
	if kb.StaticMatrices.Len() == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("// Static matrices\n")
	for pair := kb.StaticMatrices.Oldest(); pair != nil; pair = pair.Next() {
		sb.WriteString(kb.formatStaticMatrix(pair.Key, pair.Value))
	}
	return sb.String()
}

// formatStaticMatrix writes m row-major as NAME[rows][cols]
func (kb *Builder) formatStaticMatrix(name string, m mat.Matrix) string {
	rows, cols := m.Dims()
	var sb strings.Builder
	fmt.Fprintf(&sb, "const %s %s[%d][%d] = {\n", kb.FloatType.CType(), name, rows, cols)
	for i := 0; i < rows; i++ {
		sb.WriteString("    {")
		for j := 0; j < cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			if kb.FloatType == Float32 {
				fmt.Fprintf(&sb, "%.7ef", m.At(i, j))
			} else {
				fmt.Fprintf(&sb, "%.17e", m.At(i, j))
			}
		}
		sb.WriteString("}")
		if i < rows-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("};\n\n")
	return sb.String()
}
