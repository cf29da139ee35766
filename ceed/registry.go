package ceed

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Factory creates a backend for a resource. The resource is passed whole;
// opts holds its parsed key=value options.
type Factory func(resource string, opts Options) (Backend, error)

// Entry is one registered backend. Lower Priority values are preferred.
type Entry struct {
	Prefix   string
	Priority int
	factory  Factory
}

// Registry resolves resource strings to backends. It is created explicitly,
// filled by each backend's Register function and torn down with Shutdown.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	closed  bool
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds a backend under prefix. Registering a prefix twice is a
// programming error and panics.
func (r *Registry) Register(prefix string, priority int, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		panic("ceed: register on a registry that was shut down")
	}
	if _, ok := r.entries[prefix]; ok {
		panic(fmt.Sprintf("ceed: backend %q already registered", prefix))
	}
	r.entries[prefix] = Entry{Prefix: prefix, Priority: priority, factory: f}
}

// Entries returns the registered backends sorted by prefix
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entry) int { return cmp.Compare(a.Prefix, b.Prefix) })
	return out
}

// Resolve picks the entry for resource. An entry matches when its prefix is
// a path prefix of the requested path; the longest such prefix wins, then
// the preferred priority. When nothing matches, entries whose prefix extends
// the request (e.g. "/cpu/self" for "/cpu/self/opt") are ranked by priority.
func (r *Registry) Resolve(resource string) (Entry, error) {
	path, _, _ := strings.Cut(resource, ":")

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return Entry{}, Errorf("Registry", "Resolve", ErrRegistryClosed, "")
	}

	var best, fallback *Entry
	for _, e := range r.entries {
		switch {
		case pathHasPrefix(path, e.Prefix):
			if best == nil || len(e.Prefix) > len(best.Prefix) ||
				(len(e.Prefix) == len(best.Prefix) && e.Priority < best.Priority) {
				best = &e
			}
		case pathHasPrefix(e.Prefix, path):
			if fallback == nil || e.Priority < fallback.Priority ||
				(e.Priority == fallback.Priority && e.Prefix < fallback.Prefix) {
				fallback = &e
			}
		}
	}
	if best != nil {
		return *best, nil
	}
	if fallback != nil {
		return *fallback, nil
	}
	return Entry{}, Errorf("Registry", "Resolve", ErrBackendNotFound, "resource %q", resource)
}

// pathHasPrefix reports whether prefix matches path up to a '/' boundary
func pathHasPrefix(path, prefix string) bool {
	if prefix == "" || !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || strings.HasSuffix(prefix, "/") || path[len(prefix)] == '/'
}

// Init resolves resource and creates a context bound to the chosen backend
func (r *Registry) Init(resource string) (*Ceed, error) {
	entry, err := r.Resolve(resource)
	if err != nil {
		return nil, err
	}
	_, optString, _ := strings.Cut(resource, ":")
	opts, err := ParseOptions(optString)
	if err != nil {
		return nil, err
	}
	backend, err := entry.factory(resource, opts)
	if err != nil {
		return nil, &Error{
			Class:  ResourceError,
			Object: "Ceed",
			Op:     "Init",
			Err:    fmt.Errorf("%w: %s: %w", ErrBackendInitFailed, entry.Prefix, err),
		}
	}
	return newCeed(resource, backend), nil
}

// Shutdown empties the registry. Init fails afterwards.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	r.closed = true
}
