// Package opt is the blocked CPU backend. Elements are processed in blocks
// whose width matches the SIMD lanes of the host, blocks are spread over a
// pool of workers, and 1-D contractions go through BLAS. Vectors keep a
// separate "device" copy so that callers exercise the host/device sync
// protocol on a machine without an accelerator.
package opt

import (
	"log/slog"

	"github.com/notargets/gceed/backends/ref"
	"github.com/notargets/gceed/ceed"
	"github.com/notargets/gceed/envconfig"
)

const (
	Prefix   = "/cpu/self/opt"
	Priority = 40
)

// Register adds the blocked backend to reg
func Register(reg *ceed.Registry) {
	reg.Register(Prefix, Priority, func(resource string, opts ceed.Options) (ceed.Backend, error) {
		return New(opts)
	})
}

type Backend struct {
	block   int
	workers int
}

// New creates the backend. Options "block" and "workers" override
// CEED_BLOCK_SIZE and CEED_NUM_WORKERS.
func New(opts ceed.Options) (*Backend, error) {
	block := int(envconfig.BlockSize())
	if block == 0 {
		block = DefaultBlockSize()
	}
	block, err := opts.Int("block", block)
	if err != nil {
		return nil, err
	}
	workers, err := opts.Int("workers", int(envconfig.NumWorkers()))
	if err != nil {
		return nil, err
	}
	if block < 1 || workers < 1 {
		return nil, ceed.Errorf("Ceed", "Init", ceed.ErrInvalidArgument, "block=%d workers=%d must be positive", block, workers)
	}
	for k := range opts {
		if k != "block" && k != "workers" {
			slog.Warn("ignoring unknown backend option", "backend", Prefix, "option", k)
		}
	}
	return &Backend{block: block, workers: workers}, nil
}

func (*Backend) Name() string                   { return Prefix }
func (*Backend) PreferredMemType() ceed.MemType { return ceed.MemDevice }
func (*Backend) Destroy() error                 { return nil }
func (b *Backend) BlockSize() int               { return b.block }
func (b *Backend) Workers() int                 { return b.workers }

func (*Backend) NewVector(v *ceed.Vector) (ceed.VectorImpl, error) {
	return NewVector(v.Length()), nil
}

func (b *Backend) NewElemRestriction(r *ceed.ElemRestriction) (ceed.ElemRestrictionImpl, error) {
	return newRestriction(r, b.workers)
}

func (*Backend) NewBasis(b *ceed.Basis) (ceed.BasisImpl, error) {
	return &Basis{b: b}, nil
}

func (*Backend) NewQFunction(qf *ceed.QFunction) (ceed.QFunctionImpl, error) {
	return ref.NewQFunction(qf), nil
}

func (b *Backend) NewOperator(op *ceed.Operator) (ceed.OperatorImpl, error) {
	return newOperator(op, b.block, b.workers)
}
