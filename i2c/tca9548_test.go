package i2c

import (
	"errors"
	"testing"

	"i2ctree-go/i2c/i2ctest"
)

const (
	muxAddr = uint16(0x70)
	d1Addr  = uint16(0x2c)
	d2Addr  = uint16(0x0c)
)

// selectWrites returns the channel-select masks written to addr, in order.
func selectWrites(bus *i2ctest.Bus, addr uint16) []byte {
	var out []byte
	for _, tx := range bus.Writes(addr) {
		if tx.W[0] == ctrlReg {
			out = append(out, tx.W[1])
		}
	}
	return out
}

func newMux(t *testing.T, bus *i2ctest.Bus) *TCA9548 {
	t.Helper()
	bus.AddChip(muxAddr)
	m, err := NewTCA9548(bus, muxAddr)
	if err != nil {
		t.Fatalf("NewTCA9548: %v", err)
	}
	return m
}

func TestMuxConstructionDeselectsAll(t *testing.T) {
	bus := i2ctest.New()
	m := newMux(t, bus)

	sel := selectWrites(bus, muxAddr)
	if len(sel) != 1 || sel[0] != 0 {
		t.Fatalf("construction writes = %v, want [0]", sel)
	}
	if _, ok := m.Selected(); ok {
		t.Fatal("cache must start unknown, not channel 0")
	}
}

func TestMuxSelectCaching(t *testing.T) {
	bus := i2ctest.New()
	bus.AddChip(d1Addr)
	bus.AddChip(d2Addr)
	m := newMux(t, bus)

	d1 := New(bus, d1Addr)
	d2 := New(bus, d2Addr)
	if err := m.Attach(2, d1); err != nil {
		t.Fatalf("Attach d1: %v", err)
	}
	if err := m.Attach(5, d2); err != nil {
		t.Fatalf("Attach d2: %v", err)
	}
	bus.ClearLog()

	// First access to d1: one select (channel 2), then the register write.
	if err := d1.WriteU8(0x00, 0x80); err != nil {
		t.Fatalf("d1 write: %v", err)
	}
	if sel := selectWrites(bus, muxAddr); len(sel) != 1 || sel[0] != 1<<2 {
		t.Fatalf("selects after first d1 access = %v, want [0x04]", sel)
	}
	if ch, ok := m.Selected(); !ok || ch != 2 {
		t.Fatalf("Selected = %d,%v, want 2,true", ch, ok)
	}

	// Second access to d1: cache hit, zero select writes.
	bus.ClearLog()
	if _, err := d1.ReadU8(0x00); err != nil {
		t.Fatalf("d1 read: %v", err)
	}
	if sel := selectWrites(bus, muxAddr); len(sel) != 0 {
		t.Fatalf("selects on cache hit = %v, want none", sel)
	}

	// Access to d2: exactly one select for channel 5.
	bus.ClearLog()
	if err := d2.WriteU8(0x01, 0x01); err != nil {
		t.Fatalf("d2 write: %v", err)
	}
	if sel := selectWrites(bus, muxAddr); len(sel) != 1 || sel[0] != 1<<5 {
		t.Fatalf("selects after d2 access = %v, want [0x20]", sel)
	}
}

func TestMuxSelectPrecedesTransaction(t *testing.T) {
	bus := i2ctest.New()
	bus.AddChip(d1Addr)
	m := newMux(t, bus)

	d1 := New(bus, d1Addr)
	if err := m.Attach(4, d1); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	bus.ClearLog()
	if err := d1.WriteU8(0x00, 0xFF); err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(bus.Log) != 2 {
		t.Fatalf("expected select+write, got %d transactions", len(bus.Log))
	}
	if bus.Log[0].Addr != muxAddr || bus.Log[1].Addr != d1Addr {
		t.Fatalf("ordering wrong: %v then %v", bus.Log[0].Addr, bus.Log[1].Addr)
	}
}

func TestMuxResetInvalidatesCache(t *testing.T) {
	bus := i2ctest.New()
	bus.AddChip(d1Addr)
	m := newMux(t, bus)

	d1 := New(bus, d1Addr)
	if err := m.Attach(2, d1); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := d1.WriteU8(0, 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := m.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, ok := m.Selected(); ok {
		t.Fatal("Reset must leave cache unknown")
	}

	// Same channel as before the reset: the select must still be rewritten.
	bus.ClearLog()
	if err := d1.WriteU8(0, 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if sel := selectWrites(bus, muxAddr); len(sel) != 1 || sel[0] != 1<<2 {
		t.Fatalf("selects after reset = %v, want [0x04]", sel)
	}
}

func TestMuxChaining(t *testing.T) {
	bus := i2ctest.New()
	outerAddr, innerAddr := uint16(0x70), uint16(0x71)
	bus.AddChip(outerAddr)
	bus.AddChip(innerAddr)
	bus.AddChip(d1Addr)

	outer, err := NewTCA9548(bus, outerAddr)
	if err != nil {
		t.Fatalf("outer: %v", err)
	}
	inner, err := NewTCA9548(bus, innerAddr)
	if err != nil {
		t.Fatalf("inner: %v", err)
	}
	if err := outer.Attach(1, inner); err != nil {
		t.Fatalf("attach inner: %v", err)
	}
	leaf := New(bus, d1Addr)
	if err := inner.Attach(6, leaf); err != nil {
		t.Fatalf("attach leaf: %v", err)
	}

	// Leaf access resolves depth-first: outer select, inner select, leaf tx.
	bus.ClearLog()
	if err := leaf.WriteU8(0, 1); err != nil {
		t.Fatalf("leaf write: %v", err)
	}
	if len(bus.Log) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(bus.Log))
	}
	if bus.Log[0].Addr != outerAddr || bus.Log[1].Addr != innerAddr || bus.Log[2].Addr != d1Addr {
		t.Fatalf("chain order wrong: %#v", bus.Log)
	}
	if bus.Log[0].W[1] != 1<<1 || bus.Log[1].W[1] != 1<<6 {
		t.Fatalf("select masks wrong: %#v", bus.Log)
	}

	// Fully cached second access: leaf transaction only.
	bus.ClearLog()
	if err := leaf.WriteU8(0, 2); err != nil {
		t.Fatalf("leaf write: %v", err)
	}
	if len(bus.Log) != 1 || bus.Log[0].Addr != d1Addr {
		t.Fatalf("cached chain should cost one transaction, got %#v", bus.Log)
	}
}

func TestContainerUnderMux(t *testing.T) {
	bus := i2ctest.New()
	bus.AddChip(d1Addr)
	m := newMux(t, bus)

	group := NewContainer()
	if err := m.Attach(3, group); err != nil {
		t.Fatalf("attach container: %v", err)
	}
	d := New(bus, d1Addr)
	if err := group.Attach(d); err != nil {
		t.Fatalf("attach device: %v", err)
	}

	bus.ClearLog()
	if err := d.WriteU8(0, 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if sel := selectWrites(bus, muxAddr); len(sel) != 1 || sel[0] != 1<<3 {
		t.Fatalf("container relay should select channel 3, got %v", sel)
	}
}

func TestMuxAttachFunc(t *testing.T) {
	bus := i2ctest.New()
	chip := bus.AddChip(d1Addr)
	chip.Regs[0x00] = 0x42
	m := newMux(t, bus)

	bus.ClearLog()
	var synced uint8
	n, err := m.AttachFunc(5, func() (Node, error) {
		d := New(bus, d1Addr)
		v, err := d.ReadU8(0x00)
		if err != nil {
			return nil, err
		}
		synced = v
		return d, nil
	})
	if err != nil {
		t.Fatalf("AttachFunc: %v", err)
	}
	if synced != 0x42 {
		t.Fatalf("constructor read = 0x%02x, want 0x42", synced)
	}
	// Force-select must precede the constructor's read.
	if len(bus.Log) < 2 || bus.Log[0].Addr != muxAddr || bus.Log[0].W[1] != 1<<5 {
		t.Fatalf("force-select missing or out of order: %#v", bus.Log)
	}

	// The channel is now cached: next access is free of selects.
	bus.ClearLog()
	if _, err := n.(*Device).ReadU8(0x00); err != nil {
		t.Fatalf("read: %v", err)
	}
	if sel := selectWrites(bus, muxAddr); len(sel) != 0 {
		t.Fatalf("unexpected selects: %v", sel)
	}
}

func TestMuxDetach(t *testing.T) {
	bus := i2ctest.New()
	bus.AddChip(d1Addr)
	m := newMux(t, bus)

	d1 := New(bus, d1Addr)
	if err := m.Attach(2, d1); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := m.Detach(d1); err != nil {
		t.Fatalf("Detach: %v", err)
	}
	if d1.ref.upstream != nil {
		t.Fatal("detach must clear the hook")
	}

	// Detached node acts as a standalone device: no dispatch, no select.
	bus.ClearLog()
	if err := d1.WriteU8(0, 0); err != nil {
		t.Fatalf("standalone write: %v", err)
	}
	if len(bus.Log) != 1 || bus.Log[0].Addr != d1Addr {
		t.Fatalf("expected direct access only, got %#v", bus.Log)
	}

	if err := m.Detach(d1); !errors.Is(err, ErrNotAttached) {
		t.Fatalf("double detach = %v, want ErrNotAttached", err)
	}
	if err := m.Detach(New(bus, 0x33)); !errors.Is(err, ErrNotAttached) {
		t.Fatalf("detach of stranger = %v, want ErrNotAttached", err)
	}
}

func TestMuxChainIntegrity(t *testing.T) {
	bus := i2ctest.New()
	bus.AddChip(d1Addr)
	m := newMux(t, bus)

	d1 := New(bus, d1Addr)
	if err := m.Attach(2, d1); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	// Simulate a node moved elsewhere without a proper Detach.
	delete(m.channels, &d1.ref)

	if err := d1.WriteU8(0, 0); !errors.Is(err, ErrChainIntegrity) {
		t.Fatalf("dispatch for unmapped node = %v, want ErrChainIntegrity", err)
	}
}

func TestMuxAttachGuards(t *testing.T) {
	bus := i2ctest.New()
	m := newMux(t, bus)

	if err := m.Attach(8, New(bus, 0x20)); !errors.Is(err, ErrChannelRange) {
		t.Fatalf("channel 8 = %v, want ErrChannelRange", err)
	}
	if err := m.Attach(0, nil); !errors.Is(err, ErrNotAttachable) {
		t.Fatalf("Attach(nil) = %v, want ErrNotAttachable", err)
	}

	d := New(bus, 0x20)
	if err := m.Attach(0, d); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	m2 := newMux(t, bus)
	if err := m2.Attach(1, d); !errors.Is(err, ErrAlreadyAttached) {
		t.Fatalf("second parent = %v, want ErrAlreadyAttached", err)
	}
}
