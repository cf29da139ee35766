package ceed

import (
	"github.com/notargets/gceed/partitions"
)

// ElemRestriction maps an L-vector of nnodes*ncomp global values to an
// E-vector of per-element values. Elements are grouped in blocks of
// BlockSize; an unblocked restriction is a single block of all elements.
// Within a block the E-vector is laid out [comp][node][elem].
type ElemRestriction struct {
	object
	impl      ElemRestrictionImpl
	nelem     int
	elemSize  int
	ncomp     int
	nnodes    int
	layout    CompLayout
	blockSize int
	nblocks   int
	indices   []int // [nelem][elemSize], nil for identity
	blocks    *partitions.PartitionLayout
}

// NewElemRestriction creates a restriction from an index table of nelem
// rows of elemSize node numbers in [0, nnodes). The table is copied.
func (c *Ceed) NewElemRestriction(nelem, elemSize, ncomp, nnodes int, layout CompLayout, indices []int) (*ElemRestriction, error) {
	return c.newElemRestriction(nelem, elemSize, nelem, ncomp, nnodes, layout, indices)
}

// NewElemRestrictionIdentity creates a restriction whose element e node i
// is global node e*elemSize+i
func (c *Ceed) NewElemRestrictionIdentity(nelem, elemSize, ncomp int, layout CompLayout) (*ElemRestriction, error) {
	return c.newElemRestriction(nelem, elemSize, nelem, ncomp, nelem*elemSize, layout, nil)
}

// NewElemRestrictionBlocked creates a restriction that processes elements in
// blocks of blockSize. The last block is padded by repeating its last element;
// padded slots are gathered but never scattered.
func (c *Ceed) NewElemRestrictionBlocked(nelem, elemSize, blockSize, ncomp, nnodes int, layout CompLayout, indices []int) (*ElemRestriction, error) {
	if blockSize < 1 {
		return nil, Errorf("ElemRestriction", "Create", ErrInvalidArgument, "block size %d", blockSize)
	}
	return c.newElemRestriction(nelem, elemSize, blockSize, ncomp, nnodes, layout, indices)
}

func (c *Ceed) newElemRestriction(nelem, elemSize, blockSize, ncomp, nnodes int, layout CompLayout, indices []int) (*ElemRestriction, error) {
	const kind = "ElemRestriction"
	if nelem < 1 || elemSize < 1 || ncomp < 1 || nnodes < 1 {
		return nil, Errorf(kind, "Create", ErrInvalidArgument,
			"nelem=%d elemSize=%d ncomp=%d nnodes=%d must be positive", nelem, elemSize, ncomp, nnodes)
	}
	if layout != Interlaced && layout != ComponentMajor {
		return nil, Errorf(kind, "Create", ErrInvalidArgument, "component layout %d", layout)
	}
	r := &ElemRestriction{
		nelem:     nelem,
		elemSize:  elemSize,
		ncomp:     ncomp,
		nnodes:    nnodes,
		layout:    layout,
		blockSize: blockSize,
	}
	if indices != nil {
		if len(indices) != nelem*elemSize {
			return nil, Errorf(kind, "Create", ErrDimensionMismatch,
				"index table has %d entries, want %d x %d", len(indices), nelem, elemSize)
		}
		for k, g := range indices {
			if g < 0 || g >= nnodes {
				return nil, Errorf(kind, "Create", ErrIndexOutOfRange,
					"element %d node %d: index %d not in [0,%d)", k/elemSize, k%elemSize, g, nnodes)
			}
		}
		r.indices = append([]int(nil), indices...)
	}
	blocks, err := partitions.ElementBlocks(nelem, blockSize)
	if err != nil {
		return nil, Errorf(kind, "Create", ErrInvalidArgument, "%v", err)
	}
	r.blocks = blocks
	r.nblocks = blocks.NumPartitions

	if err := r.init(c, kind); err != nil {
		return nil, err
	}
	impl, err := c.backend.NewElemRestriction(r)
	if err != nil {
		r.abandon()
		return nil, wrap(kind, "Create", err)
	}
	r.impl = impl
	c.log.Debug("restriction created", "nelem", nelem, "elemSize", elemSize, "ncomp", ncomp,
		"nnodes", nnodes, "blockSize", blockSize, "identity", indices == nil)
	return r, nil
}

func (r *ElemRestriction) NumElements() int          { return r.nelem }
func (r *ElemRestriction) ElemSize() int             { return r.elemSize }
func (r *ElemRestriction) NumComponents() int        { return r.ncomp }
func (r *ElemRestriction) NumNodes() int             { return r.nnodes }
func (r *ElemRestriction) Layout() CompLayout        { return r.layout }
func (r *ElemRestriction) BlockSize() int            { return r.blockSize }
func (r *ElemRestriction) NumBlocks() int            { return r.nblocks }
func (r *ElemRestriction) IsIdentity() bool          { return r.indices == nil }
func (r *ElemRestriction) Impl() ElemRestrictionImpl { return r.impl }

// LSize is the length of the L-vector
func (r *ElemRestriction) LSize() int { return r.nnodes * r.ncomp }

// ESize is the length of the E-vector, including padded block slots
func (r *ElemRestriction) ESize() int { return r.nblocks * r.BlockESize() }

// BlockESize is the length of the E-vector of one block
func (r *ElemRestriction) BlockESize() int { return r.blockSize * r.elemSize * r.ncomp }

// Index returns the global node of element e, local node i
func (r *ElemRestriction) Index(e, i int) int {
	if r.indices == nil {
		return e*r.elemSize + i
	}
	return r.indices[e*r.elemSize+i]
}

// Indices returns the index table, nil for identity restrictions. Callers
// must not modify it.
func (r *ElemRestriction) Indices() []int { return r.indices }

// LOffset is the L-vector position of global node g, component c
func (r *ElemRestriction) LOffset(g, c int) int {
	ns, cs := r.LStrides()
	return g*ns + c*cs
}

// LStrides returns the L-vector distance between consecutive nodes and
// between consecutive components
func (r *ElemRestriction) LStrides() (node, comp int) {
	if r.layout == ComponentMajor {
		return 1, r.nnodes
	}
	return r.ncomp, 1
}

// EOffset is the position of element slot eb of a block, local node i,
// component c within that block's E-vector
func (r *ElemRestriction) EOffset(eb, i, c int) int {
	return (c*r.elemSize+i)*r.blockSize + eb
}

// BlockElements returns the elements of block b padded to BlockSize
func (r *ElemRestriction) BlockElements(b int) []int {
	return r.blocks.Padded(b, r.blockSize)
}

// BlockActive is the number of real (unpadded) elements in block b
func (r *ElemRestriction) BlockActive(b int) int {
	return r.blocks.Partitions[b].NumElements
}

func (r *ElemRestriction) checkVectors(op string, tmode TransposeMode, u, v *Vector, esize int) error {
	if err := r.alive(op); err != nil {
		return err
	}
	for _, x := range []*Vector{u, v} {
		if x == nil {
			return Errorf("ElemRestriction", op, ErrInvalidArgument, "nil vector")
		}
		if err := x.alive(op); err != nil {
			return err
		}
		if x.ceed != r.ceed {
			return Errorf("ElemRestriction", op, ErrInvalidArgument, "vector belongs to another context")
		}
	}
	if u == v {
		return Errorf("ElemRestriction", op, ErrInvalidArgument, "input and output are the same vector")
	}
	lvec, evec := u, v
	if tmode == Transpose {
		lvec, evec = v, u
	}
	if lvec.Length() != r.LSize() {
		return Errorf("ElemRestriction", op, ErrDimensionMismatch, "L-vector length %d, want %d", lvec.Length(), r.LSize())
	}
	if evec.Length() != esize {
		return Errorf("ElemRestriction", op, ErrDimensionMismatch, "E-vector length %d, want %d", evec.Length(), esize)
	}
	return nil
}

// Apply gathers u into the E-vector v (NoTranspose, v is overwritten) or
// scatters the E-vector u into v adding to its contents (Transpose)
func (r *ElemRestriction) Apply(tmode TransposeMode, u, v *Vector, req *Request) error {
	if err := r.checkVectors("Apply", tmode, u, v, r.ESize()); err != nil {
		return finish(req, err)
	}
	return finish(req, wrap("ElemRestriction", "Apply", r.impl.Apply(tmode, u, v)))
}

// ApplyBlock is Apply restricted to block b; the E-vector holds one block
func (r *ElemRestriction) ApplyBlock(b int, tmode TransposeMode, u, v *Vector, req *Request) error {
	if b < 0 || b >= r.nblocks {
		return finish(req, Errorf("ElemRestriction", "ApplyBlock", ErrIndexOutOfRange, "block %d not in [0,%d)", b, r.nblocks))
	}
	if err := r.checkVectors("ApplyBlock", tmode, u, v, r.BlockESize()); err != nil {
		return finish(req, err)
	}
	return finish(req, wrap("ElemRestriction", "ApplyBlock", r.impl.ApplyBlock(b, tmode, u, v)))
}

// NewVectors creates an L-vector and an E-vector sized for r
func (r *ElemRestriction) NewVectors() (lvec, evec *Vector, err error) {
	if err := r.alive("NewVectors"); err != nil {
		return nil, nil, err
	}
	if lvec, err = r.ceed.NewVector(r.LSize()); err != nil {
		return nil, nil, err
	}
	if evec, err = r.ceed.NewVector(r.ESize()); err != nil {
		lvec.Destroy()
		return nil, nil, err
	}
	return lvec, evec, nil
}

// Multiplicity sets mult to the number of element slots that reference
// each global value
func (r *ElemRestriction) Multiplicity(mult *Vector) error {
	if err := r.alive("Multiplicity"); err != nil {
		return err
	}
	e, err := r.ceed.NewVector(r.ESize())
	if err != nil {
		return err
	}
	defer e.Destroy()
	if err := e.SetValue(1); err != nil {
		return err
	}
	if err := mult.SetValue(0); err != nil {
		return err
	}
	return r.Apply(Transpose, e, mult, RequestImmediate)
}

// Destroy releases the restriction
func (r *ElemRestriction) Destroy() error {
	if r == nil {
		return nil
	}
	ok, err := r.beginDestroy()
	if !ok {
		return err
	}
	if err := r.impl.Destroy(); err != nil {
		return wrap("ElemRestriction", "Destroy", err)
	}
	r.endDestroy()
	return nil
}
