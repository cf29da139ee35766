package ceed

import "fmt"

// MemType names a memory space
type MemType int

const (
	MemHost MemType = iota
	MemDevice
)

func (m MemType) String() string {
	switch m {
	case MemHost:
		return "host"
	case MemDevice:
		return "device"
	}
	return fmt.Sprintf("MemType(%d)", int(m))
}

// Ownership says who owns the array handed to Vector.SetArray
type Ownership int

const (
	// CopiedIn copies the caller's data into vector-owned storage
	CopiedIn Ownership = iota
	// BorrowedMutable uses the caller's slice directly; the vector may write it
	BorrowedMutable
	// BorrowedReadOnly uses the caller's slice directly; mutable access fails
	BorrowedReadOnly
)

func (o Ownership) String() string {
	switch o {
	case CopiedIn:
		return "copied"
	case BorrowedMutable:
		return "borrowed"
	case BorrowedReadOnly:
		return "borrowed-read-only"
	}
	return fmt.Sprintf("Ownership(%d)", int(o))
}

// BufferState records which memory spaces hold current data
type BufferState int

const (
	Uninitialized BufferState = iota
	HostValid
	DeviceValid
	BothValid
)

func (s BufferState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case HostValid:
		return "host-valid"
	case DeviceValid:
		return "device-valid"
	case BothValid:
		return "both-valid"
	}
	return fmt.Sprintf("BufferState(%d)", int(s))
}

type TransposeMode int

const (
	NoTranspose TransposeMode = iota
	Transpose
)

func (t TransposeMode) String() string {
	if t == Transpose {
		return "transpose"
	}
	return "notranspose"
}

// EvalMode selects what a basis computes at quadrature points
type EvalMode int

const (
	EvalNone EvalMode = iota
	EvalInterp
	EvalGrad
	EvalDiv
	EvalCurl
	EvalWeight
)

func (e EvalMode) String() string {
	switch e {
	case EvalNone:
		return "none"
	case EvalInterp:
		return "interp"
	case EvalGrad:
		return "grad"
	case EvalDiv:
		return "div"
	case EvalCurl:
		return "curl"
	case EvalWeight:
		return "weight"
	}
	return fmt.Sprintf("EvalMode(%d)", int(e))
}

type QuadMode int

const (
	GaussQuad QuadMode = iota
	GaussLobatto
)

// CompLayout is the component ordering of a restriction's L-vector
type CompLayout int

const (
	// Interlaced stores node g component c at g*ncomp+c
	Interlaced CompLayout = iota
	// ComponentMajor stores node g component c at c*nnodes+g
	ComponentMajor
)

func (l CompLayout) String() string {
	if l == ComponentMajor {
		return "component-major"
	}
	return "interlaced"
}

type Topology int

const (
	Line Topology = iota
	Quad
	Hex
	Triangle
	Tet
)

func (t Topology) Dim() int {
	switch t {
	case Line:
		return 1
	case Quad, Triangle:
		return 2
	}
	return 3
}

// IsTensor reports whether the topology is a tensor product of lines
func (t Topology) IsTensor() bool {
	return t == Line || t == Quad || t == Hex
}

func (t Topology) String() string {
	switch t {
	case Line:
		return "line"
	case Quad:
		return "quad"
	case Hex:
		return "hex"
	case Triangle:
		return "triangle"
	case Tet:
		return "tet"
	}
	return fmt.Sprintf("Topology(%d)", int(t))
}

type NormType int

const (
	Norm1 NormType = iota
	Norm2
	NormMax
)
