package i2c

// Container groups nodes under one delegation hook, so an upstream
// condition (typically "this bus segment is active") applies uniformly to
// every member without each needing topology logic of its own. A Container
// imposes no bus state itself; its dispatch only relays upstream.
//
// A Container is itself a Node, so containers and multiplexers nest freely.
type Container struct {
	members []Node // insertion order preserved
	ref     ref
}

// NewContainer returns an empty container.
func NewContainer() *Container {
	return &Container{}
}

func (c *Container) nodeRef() *ref {
	if c == nil {
		return nil
	}
	return &c.ref
}

// preAccess relays to the container's own upstream, if chained.
func (c *Container) preAccess(*ref) error {
	if up := c.ref.upstream; up != nil {
		return up.preAccess(&c.ref)
	}
	return nil
}

// Attach adds a node to the container and installs the container as its
// upstream delegator. The node must not be attached elsewhere.
func (c *Container) Attach(n Node) error {
	r, err := attachable(n)
	if err != nil {
		return err
	}
	c.members = append(c.members, n)
	r.upstream = c
	return nil
}

// AttachFunc applies the container's upstream state once, then constructs
// a node via build and attaches it. Use this when construction itself
// performs bus reads that must happen with upstream state applied.
func (c *Container) AttachFunc(build func() (Node, error)) (Node, error) {
	if build == nil {
		return nil, ErrNotAttachable
	}
	if up := c.ref.upstream; up != nil {
		if err := up.preAccess(&c.ref); err != nil {
			return nil, err
		}
	}
	n, err := build()
	if err != nil {
		return nil, err
	}
	if err := c.Attach(n); err != nil {
		return nil, err
	}
	return n, nil
}

// Detach removes a node and clears its upstream hook. It fails with
// ErrNotAttached for non-members, and with ErrChainIntegrity if the
// member's hook no longer points back at this container (the tree has
// been manipulated behind our back; failing loudly beats silently
// breaking some other parent's bookkeeping).
func (c *Container) Detach(n Node) error {
	if n == nil {
		return ErrNotAttached
	}
	r := n.nodeRef()
	if r == nil {
		return ErrNotAttached
	}
	idx := -1
	for i, m := range c.members {
		if m.nodeRef() == r {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotAttached
	}
	if r.upstream != delegator(c) {
		return ErrChainIntegrity
	}
	c.members = append(c.members[:idx], c.members[idx+1:]...)
	r.upstream = nil
	return nil
}

// Members returns the attached nodes in insertion order.
func (c *Container) Members() []Node {
	out := make([]Node, len(c.members))
	copy(out, c.members)
	return out
}
