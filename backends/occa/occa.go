// Package occa runs restriction and basis kernels on an OCCA device. Vectors
// keep a host slice and a device buffer that are synchronized lazily;
// QFunctions and the operator pipeline run through the reference backend,
// which checks Q-vectors out on the host between device stages.
package occa

import (
	"cmp"
	"encoding/json"
	"log/slog"

	"github.com/notargets/gceed/backends/ref"
	"github.com/notargets/gceed/ceed"
	"github.com/notargets/gceed/envconfig"
	"github.com/notargets/gceed/runner"
	"github.com/notargets/gocca"
)

const (
	GPUPrefix   = "/gpu/occa"
	GPUPriority = 20
	CPUPrefix   = "/cpu/occa"
	CPUPriority = 60
)

// Register adds the GPU and CPU flavors of the backend to reg. The GPU
// flavor defaults to CUDA and the CPU flavor to Serial; CEED_OCCA_MODE and
// the "mode" option override both.
func Register(reg *ceed.Registry) {
	reg.Register(GPUPrefix, GPUPriority, func(resource string, opts ceed.Options) (ceed.Backend, error) {
		return New(GPUPrefix, "CUDA", opts)
	})
	reg.Register(CPUPrefix, CPUPriority, func(resource string, opts ceed.Options) (ceed.Backend, error) {
		return New(CPUPrefix, "Serial", opts)
	})
}

type Backend struct {
	name   string
	device *gocca.OCCADevice
	runner *runner.Runner
}

// DeviceProps builds the OCCA device properties for opts
func DeviceProps(defaultMode string, opts ceed.Options) (string, error) {
	props := map[string]any{
		"mode": opts.String("mode", cmp.Or(envconfig.OccaMode(), defaultMode)),
	}
	for _, key := range []string{"device_id", "platform_id"} {
		if _, ok := opts[key]; !ok {
			continue
		}
		n, err := opts.Int(key, 0)
		if err != nil {
			return "", err
		}
		props[key] = n
	}
	for k := range opts {
		switch k {
		case "mode", "device_id", "platform_id":
		default:
			slog.Warn("ignoring unknown backend option", "backend", "occa", "option", k)
		}
	}
	b, err := json.Marshal(props)
	return string(b), err
}

// New opens an OCCA device for the backend registered as name
func New(name, defaultMode string, opts ceed.Options) (*Backend, error) {
	props, err := DeviceProps(defaultMode, opts)
	if err != nil {
		return nil, err
	}
	device, err := gocca.NewDevice(props)
	if err != nil {
		return nil, err
	}
	slog.Debug("occa device ready", "backend", name, "mode", device.Mode())
	return &Backend{
		name:   name,
		device: device,
		runner: runner.NewRunner(device),
	}, nil
}

func (b *Backend) Name() string               { return b.name }
func (*Backend) PreferredMemType() ceed.MemType { return ceed.MemHost }
func (b *Backend) Mode() string               { return b.device.Mode() }
func (b *Backend) Runner() *runner.Runner     { return b.runner }

func (b *Backend) Destroy() error {
	b.runner.Free()
	b.device.Free()
	return nil
}

func (b *Backend) NewVector(v *ceed.Vector) (ceed.VectorImpl, error) {
	return &Vector{n: v.Length(), runner: b.runner}, nil
}

func (b *Backend) NewElemRestriction(r *ceed.ElemRestriction) (ceed.ElemRestrictionImpl, error) {
	return newRestriction(b.runner, r)
}

func (b *Backend) NewBasis(bs *ceed.Basis) (ceed.BasisImpl, error) {
	return newBasis(b.runner, bs)
}

func (*Backend) NewQFunction(qf *ceed.QFunction) (ceed.QFunctionImpl, error) {
	return ref.NewQFunction(qf), nil
}

func (*Backend) NewOperator(op *ceed.Operator) (ceed.OperatorImpl, error) {
	return ref.NewOperator(op)
}
