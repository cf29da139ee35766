package ceed

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"slices"
)

// QFunctionCallback evaluates the pointwise physics at Q points. in and out
// hold one flat array per declared field, in declaration order, each of
// size*Q values laid out [size][Q]. out arrays arrive zeroed.
type QFunctionCallback func(ctx []byte, Q int, in, out [][]float64) error

// QFunctionField is one declared input or output
type QFunctionField struct {
	Name     string
	Size     int
	EvalMode EvalMode
}

type QFunction struct {
	object
	impl    QFunctionImpl
	name    string
	fn      QFunctionCallback
	inputs  []QFunctionField
	outputs []QFunctionField
	ctx     []byte
}

// NewQFunction creates a QFunction around fn. name identifies it in errors
// and logs.
func (c *Ceed) NewQFunction(name string, fn QFunctionCallback) (*QFunction, error) {
	if fn == nil {
		return nil, Errorf("QFunction", "Create", ErrInvalidArgument, "%s: nil callback", name)
	}
	qf := &QFunction{name: name, fn: fn}
	if err := qf.init(c, "QFunction"); err != nil {
		return nil, err
	}
	impl, err := c.backend.NewQFunction(qf)
	if err != nil {
		qf.abandon()
		return nil, wrap("QFunction", "Create", err)
	}
	qf.impl = impl
	c.log.Debug("qfunction created", "name", name)
	return qf, nil
}

func (qf *QFunction) Name() string                { return qf.name }
func (qf *QFunction) Callback() QFunctionCallback { return qf.fn }
func (qf *QFunction) Inputs() []QFunctionField    { return qf.inputs }
func (qf *QFunction) Outputs() []QFunctionField   { return qf.outputs }

// Context returns the context bytes handed to the callback
func (qf *QFunction) Context() []byte { return qf.ctx }

func (qf *QFunction) addField(op string, fields *[]QFunctionField, name string, size int, emode EvalMode) error {
	if err := qf.alive(op); err != nil {
		return err
	}
	if qf.refs.Load() > 0 {
		return Errorf("QFunction", op, ErrInUse, "%s: fields are fixed once an operator uses the qfunction", qf.name)
	}
	if size < 1 {
		return Errorf("QFunction", op, ErrInvalidArgument, "%s: field %q size %d", qf.name, name, size)
	}
	if emode == EvalDiv || emode == EvalCurl {
		return Errorf("QFunction", op, ErrUnsupported, "%s: field %q eval mode %s", qf.name, name, emode)
	}
	for _, f := range slices.Concat(qf.inputs, qf.outputs) {
		if f.Name == name {
			return Errorf("QFunction", op, ErrInvalidArgument, "%s: duplicate field %q", qf.name, name)
		}
	}
	*fields = append(*fields, QFunctionField{Name: name, Size: size, EvalMode: emode})
	return nil
}

func (qf *QFunction) AddInput(name string, size int, emode EvalMode) error {
	return qf.addField("AddInput", &qf.inputs, name, size, emode)
}

func (qf *QFunction) AddOutput(name string, size int, emode EvalMode) error {
	if emode == EvalWeight {
		return Errorf("QFunction", "AddOutput", ErrInvalidArgument, "%s: output %q cannot be a weight", qf.name, name)
	}
	return qf.addField("AddOutput", &qf.outputs, name, size, emode)
}

// SetContext stores a copy of data as the callback context
func (qf *QFunction) SetContext(data []byte) error {
	if err := qf.alive("SetContext"); err != nil {
		return err
	}
	qf.ctx = append([]byte(nil), data...)
	return nil
}

// Apply runs the callback on Q points
func (qf *QFunction) Apply(Q int, in, out [][]float64) error {
	if err := qf.alive("Apply"); err != nil {
		return err
	}
	if len(in) != len(qf.inputs) || len(out) != len(qf.outputs) {
		return Errorf("QFunction", "Apply", ErrFieldMismatch, "%s: got %d inputs and %d outputs, declared %d and %d",
			qf.name, len(in), len(out), len(qf.inputs), len(qf.outputs))
	}
	for i, f := range qf.inputs {
		if len(in[i]) < f.Size*Q {
			return Errorf("QFunction", "Apply", ErrDimensionMismatch, "%s: input %q has %d values, want %d", qf.name, f.Name, len(in[i]), f.Size*Q)
		}
	}
	for i, f := range qf.outputs {
		if len(out[i]) < f.Size*Q {
			return Errorf("QFunction", "Apply", ErrDimensionMismatch, "%s: output %q has %d values, want %d", qf.name, f.Name, len(out[i]), f.Size*Q)
		}
	}
	if err := qf.impl.Apply(Q, in, out); err != nil {
		return qf.computeError(err)
	}
	return nil
}

// computeError classifies a callback failure, keeping err reachable
func (qf *QFunction) computeError(err error) error {
	if ClassOf(err) == ComputeError {
		return err
	}
	return &Error{Class: ComputeError, Object: "QFunction", Op: "Apply", Err: fmt.Errorf("%w: %s: %w", ErrQFunction, qf.name, err)}
}

// Destroy releases the qfunction
func (qf *QFunction) Destroy() error {
	if qf == nil {
		return nil
	}
	ok, err := qf.beginDestroy()
	if !ok {
		return err
	}
	if err := qf.impl.Destroy(); err != nil {
		return wrap("QFunction", "Destroy", err)
	}
	qf.endDestroy()
	return nil
}

// EncodeContext serializes a fixed-size value into context bytes
func EncodeContext[T any](v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		return nil, Errorf("QFunction", "EncodeContext", ErrInvalidArgument, "%v", err)
	}
	return buf.Bytes(), nil
}

// DecodeContext reads a value written by EncodeContext
func DecodeContext[T any](data []byte) (T, error) {
	var v T
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &v); err != nil {
		return v, Errorf("QFunction", "DecodeContext", ErrInvalidArgument, "%v", err)
	}
	return v, nil
}
