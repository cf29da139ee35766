package ceed

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Ceed is a context bound to one backend. Every object is created through
// it and keeps a reference back to it.
type Ceed struct {
	resource string
	backend  Backend
	id       uuid.UUID
	log      *slog.Logger

	mu        sync.Mutex
	live      int
	destroyed bool
}

func newCeed(resource string, backend Backend) *Ceed {
	id := uuid.New()
	c := &Ceed{
		resource: resource,
		backend:  backend,
		id:       id,
		log:      slog.Default().With("ceed", id.String(), "resource", resource),
	}
	c.log.Debug("context created", "backend", backend.Name())
	return c
}

func (c *Ceed) Resource() string          { return c.resource }
func (c *Ceed) Backend() Backend          { return c.backend }
func (c *Ceed) ID() uuid.UUID             { return c.id }
func (c *Ceed) Logger() *slog.Logger      { return c.log }
func (c *Ceed) PreferredMemType() MemType { return c.backend.PreferredMemType() }

// LiveObjects is the number of objects created and not yet destroyed
func (c *Ceed) LiveObjects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

// Destroy releases the backend. It fails with ErrInUse while objects created
// from the context are alive. Destroying twice is a no-op.
func (c *Ceed) Destroy() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return nil
	}
	if c.live > 0 {
		return Errorf("Ceed", "Destroy", ErrInUse, "%d live objects", c.live)
	}
	c.destroyed = true
	c.log.Debug("context destroyed")
	return wrap("Ceed", "Destroy", c.backend.Destroy())
}

func (c *Ceed) track(kind string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return Errorf(kind, "Create", ErrDestroyed, "context was destroyed")
	}
	c.live++
	return nil
}

func (c *Ceed) untrack() {
	c.mu.Lock()
	c.live--
	c.mu.Unlock()
}

// object is the lifecycle shared by every ceed object: a context back
// reference, a count of operators holding it, and idempotent destruction.
type object struct {
	ceed      *Ceed
	kind      string
	marker    string
	refs      atomic.Int32
	destroyed atomic.Bool
}

func (o *object) init(c *Ceed, kind string) error {
	if c == nil {
		return Errorf(kind, "Create", ErrInvalidArgument, "nil context")
	}
	o.ceed = c
	o.kind = kind
	return c.track(kind)
}

func (o *object) Ceed() *Ceed { return o.ceed }

// IsMarker reports whether the object is a placeholder such as VectorActive
func (o *object) IsMarker() bool { return o.marker != "" }

func (o *object) alive(op string) error {
	if o.marker != "" {
		return Errorf(o.kind, op, ErrInvalidArgument, "%s marker cannot be used directly", o.marker)
	}
	if o.destroyed.Load() {
		return Errorf(o.kind, op, ErrDestroyed, "")
	}
	return nil
}

func (o *object) retain() {
	if o.marker == "" {
		o.refs.Add(1)
	}
}

func (o *object) release() {
	if o.marker == "" {
		o.refs.Add(-1)
	}
}

// beginDestroy reports whether destruction should proceed
func (o *object) beginDestroy() (bool, error) {
	if o.marker != "" || o.destroyed.Load() || o.ceed == nil {
		return false, nil
	}
	if n := o.refs.Load(); n > 0 {
		return false, Errorf(o.kind, "Destroy", ErrInUse, "referenced by %d operator(s)", n)
	}
	return true, nil
}

func (o *object) endDestroy() {
	if o.destroyed.CompareAndSwap(false, true) {
		o.ceed.untrack()
		o.ceed.log.Debug("object destroyed", "kind", o.kind)
	}
}

// abandon undoes init after a failed backend construction
func (o *object) abandon() {
	o.destroyed.Store(true)
	o.ceed.untrack()
}
