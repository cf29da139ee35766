package ceed

// Backend is the capability table a context dispatches through. Each
// constructor receives the front-end object, already validated, and returns
// the backend realization bound to it.
type Backend interface {
	Name() string
	// PreferredMemType is the space where the backend computes
	PreferredMemType() MemType
	NewVector(v *Vector) (VectorImpl, error)
	NewElemRestriction(r *ElemRestriction) (ElemRestrictionImpl, error)
	NewBasis(b *Basis) (BasisImpl, error)
	NewQFunction(qf *QFunction) (QFunctionImpl, error)
	NewOperator(op *Operator) (OperatorImpl, error)
	Destroy() error
}

// VectorImpl stores a vector's data. Checkout bookkeeping, ownership rules
// and argument checks are done by Vector before these are called.
type VectorImpl interface {
	SetArray(mem MemType, own Ownership, data []float64) error
	SetValue(x float64) error
	// GetArray returns the array in mem, syncing it first if stale. With
	// write set the other space becomes stale.
	GetArray(mem MemType, write bool) ([]float64, error)
	RestoreArray(mem MemType, write bool) error
	SyncArray(mem MemType) error
	State() BufferState
	Destroy() error
}

// ElemRestrictionImpl applies a restriction. NoTranspose overwrites the
// E-vector, Transpose adds into the L-vector.
type ElemRestrictionImpl interface {
	Apply(tmode TransposeMode, u, v *Vector) error
	ApplyBlock(block int, tmode TransposeMode, u, v *Vector) error
	Destroy() error
}

type BasisImpl interface {
	Apply(nelem int, tmode TransposeMode, emode EvalMode, u, v *Vector) error
	Destroy() error
}

type QFunctionImpl interface {
	Apply(Q int, in, out [][]float64) error
	Destroy() error
}

// OperatorImpl evaluates the composed operator. ApplyAdd adds the result into
// out; the front end zeroes out first when overwrite is requested and
// completes req once the call returns.
type OperatorImpl interface {
	ApplyAdd(in, out *Vector, req *Request) error
	Destroy() error
}

// JacobianApplier is implemented by operators that support the linearized
// action
type JacobianApplier interface {
	ApplyJacobian(qdata, in, out *Vector, req *Request) error
}
