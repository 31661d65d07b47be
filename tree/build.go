package tree

import (
	"errors"

	"tinygo.org/x/drivers"

	"i2ctree-go/i2c"
)

var (
	// ErrEmptyID is returned for a node spec with no ID.
	ErrEmptyID = errors.New("tree: node spec has no id")
	// ErrDuplicateID is returned when two specs share an ID.
	ErrDuplicateID = errors.New("tree: duplicate node id")
	// ErrUnknownType is returned for a type with no registered builder.
	ErrUnknownType = errors.New("tree: unknown node type")
	// ErrMissingChannel is returned for a multiplexer child without a
	// channel.
	ErrMissingChannel = errors.New("tree: multiplexer child needs a channel")
	// ErrUnexpectedChannel is returned for a channel on a node that is not
	// a multiplexer child.
	ErrUnexpectedChannel = errors.New("tree: channel outside a multiplexer")
	// ErrLeafChildren is returned when a non-parent node type carries
	// child specs.
	ErrLeafChildren = errors.New("tree: node type cannot parent children")
)

// Tree is a built device tree.
type Tree struct {
	ByID  map[string]i2c.Node
	Roots []i2c.Node
}

// Build constructs the whole plan against the given bus. Construction is
// depth-first in document order; a failure anywhere aborts the build.
func Build(bus drivers.I2C, p *Plan) (*Tree, error) {
	t := &Tree{ByID: make(map[string]i2c.Node)}
	for i := range p.Nodes {
		spec := &p.Nodes[i]
		if spec.Channel != nil {
			return nil, ErrUnexpectedChannel
		}
		n, err := t.construct(bus, spec, nil)
		if err != nil {
			return nil, err
		}
		t.Roots = append(t.Roots, n)
	}
	return t, nil
}

// construct builds one node and recurses into its children. attach, when
// non-nil, runs the builder with the parent's upstream state applied.
func (t *Tree) construct(bus drivers.I2C, spec *NodeSpec, attach func(func() (i2c.Node, error)) (i2c.Node, error)) (i2c.Node, error) {
	if spec.ID == "" {
		return nil, ErrEmptyID
	}
	if _, dup := t.ByID[spec.ID]; dup {
		return nil, ErrDuplicateID
	}
	b, ok := findBuilder(spec.Type)
	if !ok {
		return nil, ErrUnknownType
	}

	build := func() (i2c.Node, error) {
		return b.Build(BuildInput{Bus: bus, Spec: *spec})
	}
	var n i2c.Node
	var err error
	if attach != nil {
		n, err = attach(build)
	} else {
		n, err = build()
	}
	if err != nil {
		return nil, err
	}
	t.ByID[spec.ID] = n

	switch parent := n.(type) {
	case *i2c.TCA9548:
		for i := range spec.Nodes {
			cs := &spec.Nodes[i]
			if cs.Channel == nil {
				return nil, ErrMissingChannel
			}
			ch := *cs.Channel
			_, err := t.construct(bus, cs, func(f func() (i2c.Node, error)) (i2c.Node, error) {
				return parent.AttachFunc(ch, f)
			})
			if err != nil {
				return nil, err
			}
		}
	case *i2c.Container:
		for i := range spec.Nodes {
			cs := &spec.Nodes[i]
			if cs.Channel != nil {
				return nil, ErrUnexpectedChannel
			}
			if _, err := t.construct(bus, cs, parent.AttachFunc); err != nil {
				return nil, err
			}
		}
	default:
		if len(spec.Nodes) > 0 {
			return nil, ErrLeafChildren
		}
	}
	return n, nil
}
