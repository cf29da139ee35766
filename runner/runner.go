package runner

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/notargets/gceed/runner/builder"
	"github.com/notargets/gocca"
)

// Runner compiles kernels on one device and caches them by preamble and
// source, so objects with equal size constants share a compiled kernel
type Runner struct {
	Device  *gocca.OCCADevice
	mu      sync.Mutex
	kernels map[string]*gocca.OCCAKernel
}

// NewRunner creates a new Runner instance
func NewRunner(device *gocca.OCCADevice) *Runner {
	return &Runner{
		Device:  device,
		kernels: make(map[string]*gocca.OCCAKernel),
	}
}

// BuildKernel compiles kernelName from the preamble of kb followed by
// kernelSource, or returns the cached kernel
func (kr *Runner) BuildKernel(kb *builder.Builder, kernelSource, kernelName string) (*gocca.OCCAKernel, error) {
	fullSource := kb.GeneratePreamble() + "\n" + kernelSource
	key := kernelName + "\x00" + fullSource

	kr.mu.Lock()
	defer kr.mu.Unlock()
	if kernel, ok := kr.kernels[key]; ok {
		return kernel, nil
	}

	var kernel *gocca.OCCAKernel
	var err error
	if kr.Device.Mode() == "OpenMP" {
		// OpenMP does not get the default -O3 flag
		props := gocca.JsonParse(`{"compiler_flags": "-O3"}`)
		defer props.Free()
		kernel, err = kr.Device.BuildKernelFromString(fullSource, kernelName, props)
	} else {
		kernel, err = kr.Device.BuildKernelFromString(fullSource, kernelName, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build kernel %s: %w", kernelName, err)
	}
	if kernel == nil {
		return nil, fmt.Errorf("kernel build returned nil for %s", kernelName)
	}
	kr.kernels[key] = kernel
	slog.Debug("kernel compiled", "kernel", kernelName, "mode", kr.Device.Mode(), "cached", len(kr.kernels))
	return kernel, nil
}

// RunKernel launches kernel and waits for the device
func (kr *Runner) RunKernel(kernel *gocca.OCCAKernel, args ...interface{}) error {
	if err := kernel.RunWithArgs(args...); err != nil {
		return fmt.Errorf("kernel execution failed: %w", err)
	}
	kr.Device.Finish()
	return nil
}

// NumKernels is the number of compiled kernels in the cache
func (kr *Runner) NumKernels() int {
	kr.mu.Lock()
	defer kr.mu.Unlock()
	return len(kr.kernels)
}

// Free releases the compiled kernels. The device stays with its owner.
func (kr *Runner) Free() {
	kr.mu.Lock()
	defer kr.mu.Unlock()
	for key, kernel := range kr.kernels {
		kernel.Free()
		delete(kr.kernels, key)
	}
}
