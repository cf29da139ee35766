package opt

import (
	"golang.org/x/sys/cpu"
)

// DefaultBlockSize is the number of float64 lanes of the widest vector unit
func DefaultBlockSize() int {
	switch {
	case cpu.X86.HasAVX512F:
		return 8
	case cpu.X86.HasAVX2, cpu.X86.HasAVX:
		return 4
	case cpu.ARM64.HasASIMD:
		return 2
	}
	return 1
}
