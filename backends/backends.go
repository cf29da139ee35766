// Package backends wires every backend of the module into one registry
package backends

import (
	"github.com/notargets/gceed/backends/occa"
	"github.com/notargets/gceed/backends/opt"
	"github.com/notargets/gceed/backends/ref"
	"github.com/notargets/gceed/ceed"
)

// NewRegistry returns a registry holding the reference, blocked CPU and
// OCCA backends
func NewRegistry() *ceed.Registry {
	reg := ceed.NewRegistry()
	ref.Register(reg)
	opt.Register(reg)
	occa.Register(reg)
	return reg
}
