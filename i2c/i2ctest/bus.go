// Package i2ctest provides a register-model fake bus implementing
// drivers.I2C, for driver and tree tests and the simulated harness.
//
// Each attached chip is a 256-byte register file with register-pointer
// semantics: the first written byte sets the pointer, remaining bytes are
// stored sequentially, reads return sequential bytes from the pointer.
// Every transaction is logged, so tests can assert on exact bus traffic
// (e.g. counting multiplexer channel-select writes).
package i2ctest

import (
	"errors"

	"tinygo.org/x/drivers"
)

// ErrNoDevice is returned for transactions addressed to an absent chip,
// standing in for a transport-level NACK.
var ErrNoDevice = errors.New("i2ctest: no device at address")

// Tx is one logged bus transaction.
type Tx struct {
	Addr uint16
	W    []byte
	R    []byte
}

// Chip is one simulated device.
type Chip struct {
	Regs [256]byte

	// OnWrite, if set, runs after each register byte write.
	OnWrite func(reg, val uint8)
	// OnRead, if set, overrides the value returned for a register read.
	OnRead func(reg, cur uint8) uint8

	ptr uint8
}

// Bus is a fake I2C bus. Not safe for concurrent use; neither is the
// addressing core under test.
type Bus struct {
	Log []Tx

	chips map[uint16]*Chip
	fail  map[uint16]error
}

var _ drivers.I2C = (*Bus)(nil)

func New() *Bus {
	return &Bus{
		chips: make(map[uint16]*Chip),
		fail:  make(map[uint16]error),
	}
}

// AddChip attaches an empty chip at the given address and returns it.
func (b *Bus) AddChip(addr uint16) *Chip {
	c := &Chip{}
	b.chips[addr] = c
	return c
}

// Chip returns the chip at addr, or nil.
func (b *Bus) Chip(addr uint16) *Chip { return b.chips[addr] }

// FailAddr makes every transaction to addr fail with err. Pass nil to
// restore normal behaviour.
func (b *Bus) FailAddr(addr uint16, err error) {
	if err == nil {
		delete(b.fail, addr)
		return
	}
	b.fail[addr] = err
}

// ClearLog discards the transaction log.
func (b *Bus) ClearLog() { b.Log = nil }

// Writes returns the logged write transactions (those carrying data bytes
// beyond the register pointer) addressed to addr.
func (b *Bus) Writes(addr uint16) []Tx {
	var out []Tx
	for _, tx := range b.Log {
		if tx.Addr == addr && len(tx.W) > 1 {
			out = append(out, tx)
		}
	}
	return out
}

func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if err := b.fail[addr]; err != nil {
		return err
	}
	c, ok := b.chips[addr]
	if !ok {
		return ErrNoDevice
	}
	if len(w) > 0 {
		c.ptr = w[0]
		for i, v := range w[1:] {
			reg := c.ptr + uint8(i)
			c.Regs[reg] = v
			if c.OnWrite != nil {
				c.OnWrite(reg, v)
			}
		}
	}
	for i := range r {
		reg := c.ptr + uint8(i)
		v := c.Regs[reg]
		if c.OnRead != nil {
			v = c.OnRead(reg, v)
		}
		r[i] = v
	}
	tx := Tx{Addr: addr, W: append([]byte(nil), w...), R: append([]byte(nil), r...)}
	b.Log = append(b.Log, tx)
	return nil
}
