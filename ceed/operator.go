package ceed

import (
	"fmt"
	"io"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// OperatorField binds one QFunction field to its data source
type OperatorField struct {
	Name        string
	Restriction *ElemRestriction // nil only for weight fields
	Basis       *Basis           // BasisCollocated when data is already at quadrature points
	Vector      *Vector          // VectorActive, VectorNone or a fixed vector
	EvalMode    EvalMode
	Size        int
	Input       bool
}

func (f *OperatorField) IsActive() bool { return f.Vector == VectorActive }

// Operator composes restriction, basis and QFunction stages per field
type Operator struct {
	object
	impl    OperatorImpl
	qf      *QFunction
	dqf     *QFunction
	dqfT    *QFunction
	fields  *orderedmap.OrderedMap[string, *OperatorField]
	nelem   int
	nqpts   int
	inputs  []*OperatorField
	outputs []*OperatorField
	checked bool
}

// NewOperator creates an operator around qf. dqf and dqfT are the optional
// linearized and transposed linearized QFunctions.
func (c *Ceed) NewOperator(qf, dqf, dqfT *QFunction) (*Operator, error) {
	if qf == nil {
		return nil, Errorf("Operator", "Create", ErrInvalidArgument, "nil qfunction")
	}
	if err := qf.alive("NewOperator"); err != nil {
		return nil, err
	}
	op := &Operator{
		qf:     qf,
		dqf:    dqf,
		dqfT:   dqfT,
		fields: orderedmap.New[string, *OperatorField](),
	}
	if err := op.init(c, "Operator"); err != nil {
		return nil, err
	}
	for _, q := range []*QFunction{qf, dqf, dqfT} {
		if q != nil {
			q.retain()
		}
	}
	c.log.Debug("operator created", "qfunction", qf.Name())
	return op, nil
}

func (op *Operator) QFunction() *QFunction          { return op.qf }
func (op *Operator) NumElements() int               { return op.nelem }
func (op *Operator) NumQuadraturePoints() int       { return op.nqpts }
func (op *Operator) InputFields() []*OperatorField  { return op.inputs }
func (op *Operator) OutputFields() []*OperatorField { return op.outputs }
func (op *Operator) Impl() OperatorImpl             { return op.impl }

// Fields returns the fields in the order they were set
func (op *Operator) Fields() []*OperatorField {
	out := make([]*OperatorField, 0, op.fields.Len())
	for pair := op.fields.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

func (op *Operator) fieldError(sentinel error, name, format string, args ...any) error {
	return Errorf("Operator", "SetField", sentinel, "%s: field %q: %s", op.qf.Name(), name, fmt.Sprintf(format, args...))
}

// SetField binds the QFunction field name to restriction r, basis b and
// vector v. r may be nil for weight fields.
func (op *Operator) SetField(name string, r *ElemRestriction, b *Basis, v *Vector) error {
	if err := op.alive("SetField"); err != nil {
		return err
	}
	if op.impl != nil {
		return Errorf("Operator", "SetField", ErrInUse, "fields are fixed after the first apply")
	}
	if _, ok := op.fields.Get(name); ok {
		return op.fieldError(ErrInvalidArgument, name, "already set")
	}
	qfield, input, ok := op.lookup(name)
	if !ok {
		return op.fieldError(ErrFieldMismatch, name, "not declared by the qfunction")
	}
	if b == nil || v == nil {
		return op.fieldError(ErrInvalidArgument, name, "nil basis or vector")
	}
	if v == VectorNone && qfield.EvalMode != EvalWeight {
		return op.fieldError(ErrInvalidArgument, name, "only weight fields may have no vector")
	}
	for _, o := range []*object{&b.object, &v.object} {
		if !o.IsMarker() && o.ceed != op.ceed {
			return op.fieldError(ErrInvalidArgument, name, "%s belongs to another context", o.kind)
		}
		if !o.IsMarker() && o.destroyed.Load() {
			return op.fieldError(ErrDestroyed, name, "%s was destroyed", o.kind)
		}
	}
	if r != nil {
		if err := r.alive("SetField"); err != nil {
			return err
		}
		if r.ceed != op.ceed {
			return op.fieldError(ErrInvalidArgument, name, "restriction belongs to another context")
		}
		if r.blockSize != r.nelem {
			return op.fieldError(ErrUnsupported, name, "blocked restrictions are created by the backend")
		}
	}

	var nelem, nqpts int
	switch qfield.EvalMode {
	case EvalWeight:
		if b.IsMarker() {
			return op.fieldError(ErrFieldMismatch, name, "weights need a basis")
		}
		if v != VectorNone {
			return op.fieldError(ErrInvalidArgument, name, "weights take VectorNone")
		}
		nqpts = b.q
		if r != nil {
			nelem = r.nelem
		}
	case EvalNone:
		if b != BasisCollocated {
			return op.fieldError(ErrFieldMismatch, name, "eval mode none needs BasisCollocated")
		}
		if r == nil {
			return op.fieldError(ErrInvalidArgument, name, "nil restriction")
		}
		if r.ncomp != qfield.Size {
			return op.fieldError(ErrDimensionMismatch, name, "restriction has %d components, field size %d", r.ncomp, qfield.Size)
		}
		nelem, nqpts = r.nelem, r.elemSize
	default:
		if b.IsMarker() {
			return op.fieldError(ErrFieldMismatch, name, "eval mode %s needs a basis", qfield.EvalMode)
		}
		if r == nil {
			return op.fieldError(ErrInvalidArgument, name, "nil restriction")
		}
		if r.elemSize != b.p || r.ncomp != b.ncomp {
			return op.fieldError(ErrDimensionMismatch, name, "restriction elemSize=%d ncomp=%d, basis P=%d ncomp=%d",
				r.elemSize, r.ncomp, b.p, b.ncomp)
		}
		size := b.ncomp
		if qfield.EvalMode == EvalGrad {
			size *= b.dim
		}
		if size != qfield.Size {
			return op.fieldError(ErrDimensionMismatch, name, "basis provides %d values per point, field size %d", size, qfield.Size)
		}
		nelem, nqpts = r.nelem, b.q
	}
	if !v.IsMarker() && v.Length() != r.LSize() {
		return op.fieldError(ErrDimensionMismatch, name, "vector length %d, restriction L-size %d", v.Length(), r.LSize())
	}
	if nelem > 0 {
		if op.nelem > 0 && op.nelem != nelem {
			return op.fieldError(ErrDimensionMismatch, name, "%d elements, operator has %d", nelem, op.nelem)
		}
		op.nelem = nelem
	}
	if op.nqpts > 0 && op.nqpts != nqpts {
		return op.fieldError(ErrDimensionMismatch, name, "%d quadrature points, operator has %d", nqpts, op.nqpts)
	}
	op.nqpts = nqpts

	f := &OperatorField{
		Name:        name,
		Restriction: r,
		Basis:       b,
		Vector:      v,
		EvalMode:    qfield.EvalMode,
		Size:        qfield.Size,
		Input:       input,
	}
	if r != nil {
		r.retain()
	}
	b.retain()
	v.retain()
	op.fields.Set(name, f)
	op.checked = false
	return nil
}

func (op *Operator) lookup(name string) (QFunctionField, bool, bool) {
	for _, f := range op.qf.inputs {
		if f.Name == name {
			return f, true, true
		}
	}
	for _, f := range op.qf.outputs {
		if f.Name == name {
			return f, false, true
		}
	}
	return QFunctionField{}, false, false
}

// Check verifies that every QFunction field is bound and that active fields
// agree on their vector sizes
func (op *Operator) Check() error {
	if err := op.alive("Check"); err != nil {
		return err
	}
	if op.checked {
		return nil
	}
	var missing []string
	resolve := func(decl []QFunctionField) []*OperatorField {
		out := make([]*OperatorField, 0, len(decl))
		for _, d := range decl {
			f, ok := op.fields.Get(d.Name)
			if !ok {
				missing = append(missing, d.Name)
				continue
			}
			out = append(out, f)
		}
		return out
	}
	inputs, outputs := resolve(op.qf.inputs), resolve(op.qf.outputs)
	if len(missing) > 0 {
		return Errorf("Operator", "Check", ErrFieldMismatch, "%s: unset fields %s", op.qf.Name(), strings.Join(missing, ", "))
	}
	if op.fields.Len() != len(op.qf.inputs)+len(op.qf.outputs) {
		return Errorf("Operator", "Check", ErrFieldMismatch, "%s: %d fields set, qfunction declares %d",
			op.qf.Name(), op.fields.Len(), len(op.qf.inputs)+len(op.qf.outputs))
	}
	if op.nelem == 0 {
		return Errorf("Operator", "Check", ErrInvalidArgument, "%s: no field has a restriction", op.qf.Name())
	}
	for _, group := range [][]*OperatorField{inputs, outputs} {
		size := -1
		for _, f := range group {
			if !f.IsActive() {
				continue
			}
			if size >= 0 && f.Restriction.LSize() != size {
				return Errorf("Operator", "Check", ErrDimensionMismatch, "%s: active field %q L-size %d, other active fields %d",
					op.qf.Name(), f.Name, f.Restriction.LSize(), size)
			}
			size = f.Restriction.LSize()
		}
	}
	op.inputs, op.outputs = inputs, outputs
	op.checked = true
	return nil
}

// ActiveSizes returns the lengths the active input and output vectors must
// have, -1 when there is no such field
func (op *Operator) ActiveSizes() (in, out int) {
	in, out = -1, -1
	for _, f := range op.inputs {
		if f.IsActive() {
			in = f.Restriction.LSize()
		}
	}
	for _, f := range op.outputs {
		if f.IsActive() {
			out = f.Restriction.LSize()
		}
	}
	return in, out
}

func (op *Operator) prepare(opName string, in, out *Vector) error {
	if err := op.Check(); err != nil {
		return err
	}
	inSize, outSize := op.ActiveSizes()
	for _, x := range []struct {
		v    *Vector
		size int
		name string
	}{{in, inSize, "input"}, {out, outSize, "output"}} {
		if x.size < 0 {
			continue
		}
		if x.v == nil || x.v.IsMarker() {
			return Errorf("Operator", opName, ErrInvalidArgument, "%s: missing active %s vector", op.qf.Name(), x.name)
		}
		if err := x.v.alive(opName); err != nil {
			return err
		}
		if x.v.Length() != x.size {
			return Errorf("Operator", opName, ErrDimensionMismatch, "%s: %s vector length %d, want %d",
				op.qf.Name(), x.name, x.v.Length(), x.size)
		}
	}
	if in != nil && in == out {
		return Errorf("Operator", opName, ErrInvalidArgument, "input and output are the same vector")
	}
	if op.impl == nil {
		impl, err := op.ceed.backend.NewOperator(op)
		if err != nil {
			return wrap("Operator", opName, err)
		}
		op.impl = impl
	}
	return nil
}

// Apply computes out = A(in). The active output and any fixed output vectors
// are overwritten; on error their contents are undefined.
func (op *Operator) Apply(in, out *Vector, req *Request) error {
	if err := op.prepare("Apply", in, out); err != nil {
		return finish(req, err)
	}
	for _, f := range op.outputs {
		v := f.Vector
		if f.IsActive() {
			v = out
		}
		if err := v.SetValue(0); err != nil {
			return finish(req, err)
		}
	}
	return finish(req, wrap("Operator", "Apply", op.impl.ApplyAdd(in, out, req)))
}

// ApplyAdd computes out += A(in)
func (op *Operator) ApplyAdd(in, out *Vector, req *Request) error {
	if err := op.prepare("ApplyAdd", in, out); err != nil {
		return finish(req, err)
	}
	return finish(req, wrap("Operator", "ApplyAdd", op.impl.ApplyAdd(in, out, req)))
}

// ApplyJacobian applies the linearized operator about the state stored in
// qdata. Backends without support return ErrUnsupported.
func (op *Operator) ApplyJacobian(qdata, in, out *Vector, req *Request) error {
	if op.dqf == nil {
		return finish(req, Errorf("Operator", "ApplyJacobian", ErrUnsupported, "%s: no linearized qfunction", op.qf.Name()))
	}
	if err := op.prepare("ApplyJacobian", in, out); err != nil {
		return finish(req, err)
	}
	ja, ok := op.impl.(JacobianApplier)
	if !ok {
		return finish(req, Errorf("Operator", "ApplyJacobian", ErrUnsupported, "backend %s", op.ceed.backend.Name()))
	}
	return finish(req, wrap("Operator", "ApplyJacobian", ja.ApplyJacobian(qdata, in, out, req)))
}

// View describes the operator fields
func (op *Operator) View(w io.Writer) error {
	if err := op.alive("View"); err != nil {
		return err
	}
	fmt.Fprintf(w, "Operator %s: %d elements, %d quadrature points\n", op.qf.Name(), op.nelem, op.nqpts)
	for _, f := range op.Fields() {
		dir := "output"
		if f.Input {
			dir = "input"
		}
		vec := "fixed"
		switch f.Vector {
		case VectorActive:
			vec = "active"
		case VectorNone:
			vec = "none"
		}
		basis := "collocated"
		if !f.Basis.IsMarker() {
			basis = fmt.Sprintf("%s P=%d Q=%d", f.Basis.Topology(), f.Basis.NumNodes(), f.Basis.NumQuadraturePoints())
		}
		fmt.Fprintf(w, "  %s %q: size %d, eval %s, basis %s, vector %s\n", dir, f.Name, f.Size, f.EvalMode, basis, vec)
	}
	return nil
}

// Destroy releases the operator and its hold on fields and qfunctions
func (op *Operator) Destroy() error {
	if op == nil {
		return nil
	}
	ok, err := op.beginDestroy()
	if !ok {
		return err
	}
	if op.impl != nil {
		if err := op.impl.Destroy(); err != nil {
			return wrap("Operator", "Destroy", err)
		}
	}
	for pair := op.fields.Oldest(); pair != nil; pair = pair.Next() {
		f := pair.Value
		if f.Restriction != nil {
			f.Restriction.release()
		}
		f.Basis.release()
		f.Vector.release()
	}
	for _, q := range []*QFunction{op.qf, op.dqf, op.dqfT} {
		if q != nil {
			q.release()
		}
	}
	op.endDestroy()
	return nil
}
