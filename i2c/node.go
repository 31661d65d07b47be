package i2c

// delegator is the upstream side of the delegation chain. It is implemented
// by *Container and *TCA9548; the argument identifies the member being
// accessed by its attachment record.
type delegator interface {
	preAccess(r *ref) error
}

// ref is a node's attachment record. A node has exactly one, embedded for
// its whole lifetime, and its pointer identity is what parents key their
// bookkeeping on. upstream is set on attach and cleared on detach; the
// parent owns the relationship, the node only holds the back-reference.
type ref struct {
	upstream delegator
}

// Node is anything that can sit in the device tree: a *Device (including
// any chip driver embedding one) or a *Container. The interface is closed
// over this package; drivers satisfy it by promotion from the embedded
// Device.
type Node interface {
	nodeRef() *ref
}

// attachable validates a node for attachment and returns its record.
func attachable(n Node) (*ref, error) {
	if n == nil {
		return nil, ErrNotAttachable
	}
	r := n.nodeRef()
	if r == nil {
		return nil, ErrNotAttachable
	}
	if r.upstream != nil {
		return nil, ErrAlreadyAttached
	}
	return r, nil
}
