// Package i2c implements addressed access to peripherals that share one
// I2C bus, including devices reachable only through TCA9548-style channel
// multiplexers.
//
// Every Device carries an optional upstream delegation hook, installed by
// the Container or TCA9548 it is attached to. Each register primitive runs
// the delegation chain before touching the bus, depth-first from the leaf
// towards the bus root, so a multiplexer can guarantee its channel is
// selected at the instant of access without the leaf knowing any topology.
//
// The package assumes a single goroutine performs all transactions on a
// given bus. There is no internal locking: interleaved accesses from
// multiple goroutines would corrupt the multiplexer selection cache, so
// concurrent callers must serialise externally (one mutex around the whole
// tree). Operations are synchronous and never retried.
package i2c

import (
	"errors"

	"tinygo.org/x/drivers"

	"i2ctree-go/x/fmtx"
)

// SMBus block transfer limit.
const blockMax = 32

var errBlockLen = errors.New("block exceeds 32 bytes")

// Device provides register read/write primitives for one chip at a fixed
// 7-bit bus address. The zero value is not usable; construct with New.
type Device struct {
	bus  drivers.I2C
	addr uint16
	ref  ref

	// Debug enables access tracing when strict errors are disabled.
	Debug bool

	// Fixed buffers to avoid per-call heap allocations.
	w [1 + blockMax]byte
	r [2]byte
}

// New returns a Device for the given address. It does not touch the bus.
func New(bus drivers.I2C, addr uint16) *Device {
	return &Device{bus: bus, addr: addr}
}

// Addr returns the device's 7-bit bus address.
func (d *Device) Addr() uint16 { return d.addr }

func (d *Device) nodeRef() *ref {
	if d == nil {
		return nil
	}
	return &d.ref
}

// delegate runs the upstream hook, if attached. Must be called before every
// transaction; the ordering is what keeps multiplexer channels correct.
func (d *Device) delegate() error {
	if up := d.ref.upstream; up != nil {
		return up.preAccess(&d.ref)
	}
	return nil
}

// Raw transactions. These bypass delegation; exported primitives below are
// the only callers outside multiplexer channel selection.

func (d *Device) writeByteReg(reg, val uint8) error {
	d.w[0], d.w[1] = reg, val
	return d.bus.Tx(d.addr, d.w[:2], nil)
}

func (d *Device) writeWordReg(reg uint8, val uint16) error {
	d.w[0] = reg
	d.w[1] = byte(val)      // low
	d.w[2] = byte(val >> 8) // high
	return d.bus.Tx(d.addr, d.w[:3], nil)
}

func (d *Device) readReg(reg uint8, dst []byte) error {
	d.w[0] = reg
	return d.bus.Tx(d.addr, d.w[:1], dst)
}

// WriteU8 writes an 8-bit value to a register.
func (d *Device) WriteU8(reg, val uint8) error {
	if err := d.delegate(); err != nil {
		return err
	}
	if err := d.writeByteReg(reg, val); err != nil {
		return d.accessErr("write8", reg, err)
	}
	if d.Debug {
		fmtx.Printf("i2c: wrote 0x%x to register 0x%x on 0x%x\n", val, reg, d.addr)
	}
	return nil
}

// WriteU16 writes a 16-bit value to a register pair, low byte first
// (SMBus word order).
func (d *Device) WriteU16(reg uint8, val uint16) error {
	if err := d.delegate(); err != nil {
		return err
	}
	if err := d.writeWordReg(reg, val); err != nil {
		return d.accessErr("write16", reg, err)
	}
	return nil
}

// WriteBlock writes up to 32 bytes starting at a register.
func (d *Device) WriteBlock(reg uint8, data []byte) error {
	if err := d.delegate(); err != nil {
		return err
	}
	if len(data) > blockMax {
		return d.accessErr("writeList", reg, errBlockLen)
	}
	d.w[0] = reg
	n := copy(d.w[1:], data)
	if err := d.bus.Tx(d.addr, d.w[:1+n], nil); err != nil {
		return d.accessErr("writeList", reg, err)
	}
	return nil
}

// ReadBlock reads length bytes starting at a register.
func (d *Device) ReadBlock(reg uint8, length int) ([]byte, error) {
	if err := d.delegate(); err != nil {
		return nil, err
	}
	if length < 0 || length > blockMax {
		return nil, d.accessErr("readList", reg, errBlockLen)
	}
	buf := make([]byte, length)
	if err := d.readReg(reg, buf); err != nil {
		return nil, d.accessErr("readList", reg, err)
	}
	return buf, nil
}

// ReadU8 reads an unsigned byte from a register.
func (d *Device) ReadU8(reg uint8) (uint8, error) {
	if err := d.delegate(); err != nil {
		return 0, err
	}
	if err := d.readReg(reg, d.r[:1]); err != nil {
		return 0, d.accessErr("readU8", reg, err)
	}
	if d.Debug {
		fmtx.Printf("i2c: device 0x%x returned 0x%x from register 0x%x\n", d.addr, d.r[0], reg)
	}
	return d.r[0], nil
}

// ReadS8 reads a signed byte from a register.
func (d *Device) ReadS8(reg uint8) (int8, error) {
	v, err := d.ReadU8(reg)
	return int8(v), err
}

// ReadU16 reads an unsigned 16-bit value from a register pair, low byte
// first (SMBus word order).
func (d *Device) ReadU16(reg uint8) (uint16, error) {
	if err := d.delegate(); err != nil {
		return 0, err
	}
	if err := d.readReg(reg, d.r[:2]); err != nil {
		return 0, d.accessErr("readU16", reg, err)
	}
	return uint16(d.r[0]) | uint16(d.r[1])<<8, nil
}

// ReadS16 reads a signed 16-bit value from a register pair.
func (d *Device) ReadS16(reg uint8) (int16, error) {
	v, err := d.ReadU16(reg)
	return int16(v), err
}
