package runner

import (
	"unsafe"

	"github.com/notargets/gocca"
)

// MallocFloat64 allocates n doubles on the device, initialized from data
// when it is not nil
func (kr *Runner) MallocFloat64(n int, data []float64) *gocca.OCCAMemory {
	// zero-length allocations are not portable across modes
	bytes := int64(max(n, 1) * 8)
	if len(data) == 0 {
		return kr.Device.Malloc(bytes, nil, nil)
	}
	return kr.Device.Malloc(bytes, unsafe.Pointer(&data[0]), nil)
}

// MallocInt32 allocates and fills a device copy of data
func (kr *Runner) MallocInt32(data []int32) *gocca.OCCAMemory {
	if len(data) == 0 {
		return kr.Device.Malloc(4, nil, nil)
	}
	return kr.Device.Malloc(int64(len(data)*4), unsafe.Pointer(&data[0]), nil)
}

// CopyToDevice copies data into the start of mem
func CopyToDevice(mem *gocca.OCCAMemory, data []float64) {
	if len(data) > 0 {
		mem.CopyFrom(unsafe.Pointer(&data[0]), int64(len(data)*8))
	}
}

// CopyToHost copies the start of mem into data
func CopyToHost(mem *gocca.OCCAMemory, data []float64) {
	if len(data) > 0 {
		mem.CopyTo(unsafe.Pointer(&data[0]), int64(len(data)*8))
	}
}
