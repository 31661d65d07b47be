package tree

import (
	"sync"

	"tinygo.org/x/drivers"

	"i2ctree-go/i2c"
	"i2ctree-go/x/fmtx"
)

// BuildInput is provided to a builder to construct one node.
type BuildInput struct {
	Bus  drivers.I2C
	Spec NodeSpec
}

// Builder constructs a node from its spec.
type Builder interface {
	Build(in BuildInput) (i2c.Node, error)
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(in BuildInput) (i2c.Node, error)

func (f BuilderFunc) Build(in BuildInput) (i2c.Node, error) { return f(in) }

var (
	muBuilders sync.RWMutex
	builders   = map[string]Builder{}
)

// RegisterBuilder installs a builder for a node type string. It panics on
// duplicate registration to catch mistakes at start-up.
func RegisterBuilder(nodeType string, b Builder) {
	muBuilders.Lock()
	defer muBuilders.Unlock()
	if nodeType == "" {
		panic("tree: empty node type for builder")
	}
	if _, exists := builders[nodeType]; exists {
		panic(fmtx.Sprintf("tree: builder already registered for type %q", nodeType))
	}
	builders[nodeType] = b
}

// findBuilder looks up a registered builder by type.
func findBuilder(nodeType string) (Builder, bool) {
	muBuilders.RLock()
	defer muBuilders.RUnlock()
	b, ok := builders[nodeType]
	return b, ok
}
