package ceed

import (
	"context"
	"sync"
)

// Request tracks completion of an operation. A nil *Request (RequestImmediate)
// means the call completes before returning. RequestOrdered lets a backend
// defer work until the next ordered or immediate call. NewRequest returns a
// handle the caller can wait on.
type Request struct {
	ordered bool
	once    sync.Once
	done    chan struct{}
	err     error
}

var (
	RequestImmediate *Request
	RequestOrdered   = &Request{ordered: true}
)

var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

func NewRequest() *Request {
	return &Request{done: make(chan struct{})}
}

// IsHandle reports whether r is a waitable handle rather than a marker
func (r *Request) IsHandle() bool {
	return r != nil && !r.ordered
}

// Complete marks the operation finished. Only the first call counts; markers
// ignore it.
func (r *Request) Complete(err error) {
	if !r.IsHandle() {
		return
	}
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

func (r *Request) Done() <-chan struct{} {
	if !r.IsHandle() {
		return closedChan
	}
	return r.done
}

// Wait blocks until the operation completes or ctx is done
func (r *Request) Wait(ctx context.Context) error {
	select {
	case <-r.Done():
		return r.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the completion error, nil while pending
func (r *Request) Err() error {
	if !r.IsHandle() {
		return nil
	}
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

// finish completes req with err and returns err
func finish(req *Request, err error) error {
	req.Complete(err)
	return err
}
