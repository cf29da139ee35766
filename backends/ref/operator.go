package ref

import (
	"github.com/notargets/gceed/ceed"
)

// Operator is the generic operator pipeline. Inputs are restricted to
// E-vectors and interpolated to quadrature points, the QFunction runs once
// over every point of every element, and outputs go back through the
// transposed basis and restriction, adding into the L-vectors. All stages
// go through front-end objects, so any backend's vectors, restrictions and
// bases work here.
type Operator struct {
	op      *ceed.Operator
	nelem   int
	nqpts   int
	inputs  []*stage
	outputs []*stage
	qin     [][]float64
	qout    [][]float64
}

type stage struct {
	field *ceed.OperatorField
	evec  *ceed.Vector // nil for weights
	qvec  *ceed.Vector // evec itself for EvalNone
}

// NewOperator allocates the E- and Q-vectors of op and evaluates its
// quadrature weights
func NewOperator(op *ceed.Operator) (*Operator, error) {
	o := &Operator{
		op:    op,
		nelem: op.NumElements(),
		nqpts: op.NumQuadraturePoints(),
	}
	for _, f := range op.InputFields() {
		s, err := o.newStage(f)
		if err != nil {
			o.Destroy()
			return nil, err
		}
		o.inputs = append(o.inputs, s)
	}
	for _, f := range op.OutputFields() {
		s, err := o.newStage(f)
		if err != nil {
			o.Destroy()
			return nil, err
		}
		o.outputs = append(o.outputs, s)
	}
	o.qin = make([][]float64, len(o.inputs))
	o.qout = make([][]float64, len(o.outputs))
	op.Ceed().Logger().Debug("operator pipeline ready", "qfunction", op.QFunction().Name(),
		"nelem", o.nelem, "nqpts", o.nqpts)
	return o, nil
}

func (o *Operator) newStage(f *ceed.OperatorField) (*stage, error) {
	c := o.op.Ceed()
	s := &stage{field: f}
	var err error
	switch f.EvalMode {
	case ceed.EvalWeight:
		if s.qvec, err = c.NewVector(o.nqpts * o.nelem); err != nil {
			return nil, err
		}
		if err = f.Basis.Apply(o.nelem, ceed.NoTranspose, ceed.EvalWeight, nil, s.qvec); err != nil {
			s.destroy()
			return nil, err
		}
	case ceed.EvalNone:
		if s.evec, err = c.NewVector(f.Restriction.ESize()); err != nil {
			return nil, err
		}
		s.qvec = s.evec
	default:
		_, quad, err := f.Basis.Sizes(o.nelem, f.EvalMode)
		if err != nil {
			return nil, err
		}
		if s.evec, err = c.NewVector(f.Restriction.ESize()); err != nil {
			return nil, err
		}
		if s.qvec, err = c.NewVector(quad); err != nil {
			s.destroy()
			return nil, err
		}
	}
	return s, nil
}

func (s *stage) destroy() {
	if s.qvec != s.evec {
		s.qvec.Destroy()
	}
	s.evec.Destroy()
}

// lvec picks the L-vector of a field: the active vector or its own
func (s *stage) lvec(active *ceed.Vector) *ceed.Vector {
	if s.field.IsActive() {
		return active
	}
	return s.field.Vector
}

func (o *Operator) ApplyAdd(in, out *ceed.Vector, req *ceed.Request) error {
	for _, s := range o.inputs {
		if s.field.EvalMode == ceed.EvalWeight {
			continue
		}
		if err := s.field.Restriction.Apply(ceed.NoTranspose, s.lvec(in), s.evec, ceed.RequestImmediate); err != nil {
			return err
		}
		if s.qvec != s.evec {
			if err := s.field.Basis.Apply(o.nelem, ceed.NoTranspose, s.field.EvalMode, s.evec, s.qvec); err != nil {
				return err
			}
		}
	}
	if err := o.runQFunction(o.op.QFunction()); err != nil {
		return err
	}
	for _, s := range o.outputs {
		if s.qvec != s.evec {
			if err := s.field.Basis.Apply(o.nelem, ceed.Transpose, s.field.EvalMode, s.qvec, s.evec); err != nil {
				return err
			}
		}
		if err := s.field.Restriction.Apply(ceed.Transpose, s.evec, s.lvec(out), ceed.RequestImmediate); err != nil {
			return err
		}
	}
	return nil
}

// runQFunction checks out the Q-vectors on the host and calls qf on all
// quadrature points at once
func (o *Operator) runQFunction(qf *ceed.QFunction) (err error) {
	var nin, nout int
	defer func() {
		for i := 0; i < nin; i++ {
			o.inputs[i].qvec.RestoreArrayRead(&o.qin[i])
		}
		for i := 0; i < nout; i++ {
			if rerr := o.outputs[i].qvec.RestoreArray(&o.qout[i]); err == nil {
				err = rerr
			}
		}
	}()
	for ; nin < len(o.inputs); nin++ {
		if o.qin[nin], err = o.inputs[nin].qvec.GetArrayRead(ceed.MemHost); err != nil {
			return err
		}
	}
	for ; nout < len(o.outputs); nout++ {
		if o.qout[nout], err = o.outputs[nout].qvec.GetArray(ceed.MemHost); err != nil {
			return err
		}
	}
	return qf.Apply(o.nelem*o.nqpts, o.qin, o.qout)
}

func (o *Operator) Destroy() error {
	for _, s := range append(o.inputs, o.outputs...) {
		s.destroy()
	}
	o.inputs, o.outputs = nil, nil
	return nil
}
