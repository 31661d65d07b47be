package i2c

import "tinygo.org/x/drivers"

// TCA9548 drives the TCA9548 8-channel bus multiplexer. It is a Device in
// its own right (the channel-select register lives at a bus address) and
// also a parent: nodes attach on a numbered output channel, and every
// access to an attached node transparently selects that channel first.
//
// The last-written channel is cached so consecutive accesses on the same
// channel cost no extra bus traffic. The cache starts out unknown rather
// than assuming channel 0, so the first real access always issues a
// select; it must equal the true register state or be unknown, never a
// stale value. After any external event that may have reset the hardware,
// callers must invoke Reset to re-establish that invariant.
type TCA9548 struct {
	Device

	channels map[*ref]uint8
	nodes    []Node // insertion order, for enumeration
	selected int    // selectUnknown, or the active channel
}

// AddressDefault is the TCA9548 base address with A0..A2 low.
const AddressDefault = 0x70

// NumChannels is the number of multiplexer output channels.
const NumChannels = 8

const selectUnknown = -1

// Channel-select control register.
const ctrlReg = 0x00

// NewTCA9548 initialises the multiplexer, deselecting all output channels.
// The selection cache is left unknown so the first access through any
// attached node is forced to write a select.
func NewTCA9548(bus drivers.I2C, addr uint16) (*TCA9548, error) {
	m := &TCA9548{
		Device:   Device{bus: bus, addr: addr},
		channels: make(map[*ref]uint8),
		selected: selectUnknown,
	}
	if err := m.WriteU8(ctrlReg, 0); err != nil {
		return nil, err
	}
	return m, nil
}

// preAccess is installed as the upstream hook of every attached node. It
// applies this multiplexer's own upstream chain first (ancestors select
// their channels before we select ours), then writes the channel select
// only if the requested channel differs from the cached selection.
func (m *TCA9548) preAccess(r *ref) error {
	ch, ok := m.channels[r]
	if !ok {
		// The node was moved or detached without going through Detach.
		return ErrChainIntegrity
	}
	if up := m.Device.ref.upstream; up != nil {
		if err := up.preAccess(&m.Device.ref); err != nil {
			return err
		}
	}
	if int(ch) == m.selected {
		return nil
	}
	// Raw write: the upstream chain has already been applied this cycle.
	if err := m.writeByteReg(ctrlReg, 1<<ch); err != nil {
		return m.accessErr("select", ctrlReg, err)
	}
	m.selected = int(ch)
	return nil
}

// Attach places a node on an output channel and installs this multiplexer
// as its upstream delegator. The node must not be attached elsewhere.
func (m *TCA9548) Attach(channel uint8, n Node) error {
	if channel >= NumChannels {
		return ErrChannelRange
	}
	r, err := attachable(n)
	if err != nil {
		return err
	}
	m.channels[r] = channel
	m.nodes = append(m.nodes, n)
	r.upstream = m
	return nil
}

// AttachFunc force-selects the channel, constructs a node via build and
// attaches it. The select is unconditional, regardless of the cache,
// because the constructor's own register reads must land on the new
// channel; it goes through the exported write path so that a chained
// parent multiplexer applies its state first.
func (m *TCA9548) AttachFunc(channel uint8, build func() (Node, error)) (Node, error) {
	if channel >= NumChannels {
		return nil, ErrChannelRange
	}
	if build == nil {
		return nil, ErrNotAttachable
	}
	if err := m.WriteU8(ctrlReg, 1<<channel); err != nil {
		return nil, err
	}
	m.selected = int(channel)
	n, err := build()
	if err != nil {
		return nil, err
	}
	if err := m.Attach(channel, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Detach removes a node from its channel and clears its upstream hook.
func (m *TCA9548) Detach(n Node) error {
	if n == nil {
		return ErrNotAttached
	}
	r := n.nodeRef()
	if r == nil {
		return ErrNotAttached
	}
	if _, ok := m.channels[r]; !ok {
		return ErrNotAttached
	}
	if r.upstream != delegator(m) {
		return ErrChainIntegrity
	}
	delete(m.channels, r)
	for i, node := range m.nodes {
		if node.nodeRef() == r {
			m.nodes = append(m.nodes[:i], m.nodes[i+1:]...)
			break
		}
	}
	r.upstream = nil
	return nil
}

// Reset deselects all output channels and invalidates the selection cache.
// Call after any externally-triggered hardware reset; the cache does not
// self-heal.
func (m *TCA9548) Reset() error {
	m.selected = selectUnknown
	return m.WriteU8(ctrlReg, 0)
}

// Selected returns the cached channel, or ok=false if the selection is
// unknown (freshly constructed or reset).
func (m *TCA9548) Selected() (uint8, bool) {
	if m.selected == selectUnknown {
		return 0, false
	}
	return uint8(m.selected), true
}

// Channel returns the channel a node is attached on.
func (m *TCA9548) Channel(n Node) (uint8, bool) {
	if n == nil {
		return 0, false
	}
	ch, ok := m.channels[n.nodeRef()]
	return ch, ok
}

// Nodes returns the attached nodes in insertion order.
func (m *TCA9548) Nodes() []Node {
	out := make([]Node, len(m.nodes))
	copy(out, m.nodes)
	return out
}
