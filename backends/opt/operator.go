package opt

import (
	"github.com/notargets/gceed/backends/ref"
	"github.com/notargets/gceed/ceed"
	"github.com/notargets/gceed/partitions"
	"golang.org/x/sync/errgroup"
)

// Operator runs the pipeline block by block. Each worker owns a range of
// element blocks and keeps its E- and Q-arrays for one block in private
// scratch, so restriction, basis and QFunction run without synchronization.
// Outputs land in full blocked E-arrays and reach the L-vectors through
// each restriction's transpose table, split by rows. Outputs with identity
// restrictions own disjoint L-vector ranges per element, so workers add
// their blocks into the L-vector directly.
//
// The QFunction is called concurrently from several workers, so callbacks
// must not keep state between calls.
type Operator struct {
	op      *ceed.Operator
	block   int
	nqpts   int
	work    *partitions.PartitionLayout
	inputs  []*field
	outputs []*field
	spaces  []*workspace
}

type field struct {
	of *ceed.OperatorField
	rs *Restriction // blocked restriction impl, nil for weights
	r  *ceed.ElemRestriction

	weights []float64 // weight inputs: [q][eb] for one block
	out     []float64 // outputs: full blocked E-array, nil for identity restrictions
}

type workspace struct {
	e       [][]float64 // per input E-block
	eout    [][]float64 // per output E-block, identity restrictions only
	q       [][]float64 // per field Q-block, inputs then outputs
	qin     [][]float64
	qout    [][]float64
	scratch []float64
}

func newOperator(op *ceed.Operator, block, workers int) (*Operator, error) {
	nelem := op.NumElements()
	block = min(block, nelem)
	nblocks := (nelem + block - 1) / block
	work, err := partitions.Distribute(nblocks, workers, partitions.BlockPartition)
	if err != nil {
		return nil, err
	}
	o := &Operator{
		op:    op,
		block: block,
		nqpts: op.NumQuadraturePoints(),
		work:  work,
	}
	for _, f := range op.InputFields() {
		fld, err := o.newField(f)
		if err != nil {
			o.Destroy()
			return nil, err
		}
		o.inputs = append(o.inputs, fld)
	}
	for _, f := range op.OutputFields() {
		fld, err := o.newField(f)
		if err != nil {
			o.Destroy()
			return nil, err
		}
		o.outputs = append(o.outputs, fld)
	}
	for range work.Partitions {
		o.spaces = append(o.spaces, o.newWorkspace())
	}
	op.Ceed().Logger().Debug("blocked operator ready", "qfunction", op.QFunction().Name(),
		"block", block, "blocks", nblocks, "workers", work.NumPartitions)
	return o, nil
}

// newField builds the blocked copy of a field's restriction
func (o *Operator) newField(f *ceed.OperatorField) (*field, error) {
	fld := &field{of: f}
	if f.EvalMode == ceed.EvalWeight {
		fld.weights = make([]float64, o.nqpts*o.block)
		return fld, f.Basis.Eval(GemmContract, o.block, ceed.NoTranspose, ceed.EvalWeight, nil, fld.weights, nil)
	}
	r := f.Restriction
	var err error
	fld.r, err = o.op.Ceed().NewElemRestrictionBlocked(r.NumElements(), r.ElemSize(), o.block,
		r.NumComponents(), r.NumNodes(), r.Layout(), r.Indices())
	if err != nil {
		return nil, err
	}
	fld.rs = fld.r.Impl().(*Restriction)
	if !f.Input && !r.IsIdentity() {
		fld.out = make([]float64, fld.r.ESize())
	}
	return fld, nil
}

func (o *Operator) newWorkspace() *workspace {
	ws := &workspace{
		e:    make([][]float64, len(o.inputs)),
		q:    make([][]float64, len(o.inputs)+len(o.outputs)),
		qin:  make([][]float64, len(o.inputs)),
		qout: make([][]float64, len(o.outputs)),
		eout: make([][]float64, len(o.outputs)),
	}
	nscratch := 0
	for i, f := range append(o.inputs, o.outputs...) {
		if f.of.EvalMode == ceed.EvalWeight || f.of.EvalMode == ceed.EvalNone {
			continue
		}
		_, quad, _ := f.of.Basis.Sizes(o.block, f.of.EvalMode)
		ws.q[i] = make([]float64, quad)
		nscratch = max(nscratch, f.of.Basis.ScratchSize(o.block))
	}
	for i, f := range o.inputs {
		if f.r != nil {
			ws.e[i] = make([]float64, f.r.BlockESize())
		}
	}
	for j, f := range o.outputs {
		if f.out == nil {
			ws.eout[j] = make([]float64, f.r.BlockESize())
		}
	}
	ws.scratch = make([]float64, nscratch)
	return ws
}

func lvec(f *ceed.OperatorField, active *ceed.Vector) *ceed.Vector {
	if f.IsActive() {
		return active
	}
	return f.Vector
}

func (o *Operator) ApplyAdd(in, out *ceed.Vector, req *ceed.Request) error {
	larr := make([][]float64, len(o.inputs))
	held := make(map[*ceed.Vector][]float64)
	defer func() {
		for v, a := range held {
			v.RestoreArrayRead(&a)
		}
	}()
	for i, f := range o.inputs {
		if f.r == nil {
			continue
		}
		v := lvec(f.of, in)
		a, ok := held[v]
		if !ok {
			var err error
			if a, err = v.GetArrayRead(ceed.MemDevice); err != nil {
				return err
			}
			held[v] = a
		}
		larr[i] = a
	}

	// identity outputs are written by the workers
	lout := make([][]float64, len(o.outputs))
	direct := make([]bool, len(o.outputs))
	defer func() {
		for j, f := range o.outputs {
			if direct[j] {
				lvec(f.of, out).RestoreArray(&lout[j])
			}
		}
	}()
	for j, f := range o.outputs {
		if f.out != nil {
			continue
		}
		a, err := lvec(f.of, out).GetArray(ceed.MemDevice)
		if err != nil {
			return err
		}
		lout[j], direct[j] = a, true
	}

	var g errgroup.Group
	for w, p := range o.work.Partitions {
		ws := o.spaces[w]
		g.Go(func() error {
			for _, b := range p.Elements {
				if err := o.applyBlock(ws, b, larr, lout); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, f := range o.outputs {
		if f.out == nil {
			continue
		}
		v := lvec(f.of, out)
		a, err := v.GetArray(ceed.MemDevice)
		if err != nil {
			return err
		}
		err = scatterRows(f.rs.table, f.rs.rows, f.out, a)
		if rerr := v.RestoreArray(&a); err == nil {
			err = rerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// eblock is the E-block that output j of block b is written to
func (o *Operator) eblock(ws *workspace, j, b int) []float64 {
	f := o.outputs[j]
	if f.out == nil {
		return ws.eout[j]
	}
	bes := f.r.BlockESize()
	return f.out[b*bes : (b+1)*bes]
}

// applyBlock runs every stage of block b in ws. Outputs with identity
// restrictions are added into lout.
func (o *Operator) applyBlock(ws *workspace, b int, larr, lout [][]float64) error {
	for i, f := range o.inputs {
		switch f.of.EvalMode {
		case ceed.EvalWeight:
			ws.qin[i] = f.weights
			continue
		case ceed.EvalNone:
			ref.Gather(f.r, b, larr[i], ws.e[i])
			ws.qin[i] = ws.e[i]
			continue
		}
		ref.Gather(f.r, b, larr[i], ws.e[i])
		if err := f.of.Basis.Eval(GemmContract, o.block, ceed.NoTranspose, f.of.EvalMode, ws.e[i], ws.q[i], ws.scratch); err != nil {
			return err
		}
		ws.qin[i] = ws.q[i]
	}
	for j, f := range o.outputs {
		if f.of.EvalMode == ceed.EvalNone {
			ws.qout[j] = o.eblock(ws, j, b)
		} else {
			ws.qout[j] = ws.q[len(o.inputs)+j]
		}
	}
	if err := o.op.QFunction().Apply(o.nqpts*o.block, ws.qin, ws.qout); err != nil {
		return err
	}
	for j, f := range o.outputs {
		e := o.eblock(ws, j, b)
		if f.of.EvalMode != ceed.EvalNone {
			if err := f.of.Basis.Eval(GemmContract, o.block, ceed.Transpose, f.of.EvalMode, ws.qout[j], e, ws.scratch); err != nil {
				return err
			}
		}
		if f.r.IsIdentity() {
			ref.ScatterAddStrided(f.r, b, e, lout[j])
		}
	}
	return nil
}

func (o *Operator) Destroy() error {
	for _, f := range append(o.inputs, o.outputs...) {
		if f.r != nil {
			f.r.Destroy()
		}
	}
	o.inputs, o.outputs, o.spaces = nil, nil, nil
	return nil
}
