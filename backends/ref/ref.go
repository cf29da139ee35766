// Package ref is the reference backend: serial loops over host memory. Its
// operator pipeline is exported for backends that only accelerate
// restrictions and bases.
package ref

import (
	"github.com/notargets/gceed/ceed"
)

const (
	Prefix   = "/cpu/self/ref"
	Priority = 50
)

// Register adds the reference backend to reg
func Register(reg *ceed.Registry) {
	reg.Register(Prefix, Priority, func(resource string, opts ceed.Options) (ceed.Backend, error) {
		return New(), nil
	})
}

type Backend struct{}

func New() *Backend { return &Backend{} }

func (*Backend) Name() string                   { return Prefix }
func (*Backend) PreferredMemType() ceed.MemType { return ceed.MemHost }
func (*Backend) Destroy() error                 { return nil }

func (*Backend) NewVector(v *ceed.Vector) (ceed.VectorImpl, error) {
	return NewVector(v.Length()), nil
}

func (*Backend) NewElemRestriction(r *ceed.ElemRestriction) (ceed.ElemRestrictionImpl, error) {
	return &Restriction{r: r}, nil
}

func (*Backend) NewBasis(b *ceed.Basis) (ceed.BasisImpl, error) {
	return &Basis{b: b}, nil
}

func (*Backend) NewQFunction(qf *ceed.QFunction) (ceed.QFunctionImpl, error) {
	return NewQFunction(qf), nil
}

func (*Backend) NewOperator(op *ceed.Operator) (ceed.OperatorImpl, error) {
	return NewOperator(op)
}
