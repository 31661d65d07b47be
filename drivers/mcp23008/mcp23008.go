// Package mcp23008 provides a driver for the MCP23008 8-bit GPIO expander:
// per-pin direction, pullups, and input/output access.
//
// The IODIR, GPPU and GPIO registers are shadowed in the Device and synced
// from hardware at construction, so read-modify-write sequences cost one
// bus write each.
package mcp23008

import (
	"errors"

	"tinygo.org/x/drivers"

	"i2ctree-go/i2c"
)

// AddressDefault is the MCP23008 base address with all address pins low.
const AddressDefault = 0x20

// Register map.
const (
	regIODIR = 0x00
	regGPPU  = 0x06
	regGPIO  = 0x09
)

// Direction of a pin.
type Direction uint8

const (
	In  Direction = 0
	Out Direction = 1
)

// ErrDirection is returned by Setup for a value that is neither In nor Out.
var ErrDirection = errors.New("mcp23008: invalid direction")

// Device represents an MCP23008 on an I2C bus.
type Device struct {
	*i2c.Device

	iodir uint8
	gppu  uint8
	gpio  uint8
}

// New initialises the device, syncing the register shadows with hardware
// state.
func New(bus drivers.I2C, addr uint16) (*Device, error) {
	d := &Device{Device: i2c.New(bus, addr)}
	var err error
	if d.iodir, err = d.ReadU8(regIODIR); err != nil {
		return nil, err
	}
	if d.gppu, err = d.ReadU8(regGPPU); err != nil {
		return nil, err
	}
	if d.gpio, err = d.ReadU8(regGPIO); err != nil {
		return nil, err
	}
	return d, nil
}

// Setup sets the IO direction of a pin.
func (d *Device) Setup(pin uint8, dir Direction) error {
	switch dir {
	case In:
		d.iodir |= 1 << pin
	case Out:
		d.iodir &^= 1 << pin
	default:
		return ErrDirection
	}
	return d.WriteU8(regIODIR, d.iodir)
}

// Pullup enables or disables the internal pullup of a pin.
func (d *Device) Pullup(pin uint8, enabled bool) error {
	if enabled {
		d.gppu |= 1 << pin
	} else {
		d.gppu &^= 1 << pin
	}
	return d.WriteU8(regGPPU, d.gppu)
}

// Input returns the level of a single input pin.
func (d *Device) Input(pin uint8) (bool, error) {
	states, err := d.InputPins([]uint8{pin})
	if err != nil {
		return false, err
	}
	return states[0], nil
}

// InputPins reads the GPIO register once and returns the levels of the
// requested pins.
func (d *Device) InputPins(pins []uint8) ([]bool, error) {
	v, err := d.ReadU8(regGPIO)
	if err != nil {
		return nil, err
	}
	states := make([]bool, len(pins))
	for i, pin := range pins {
		states[i] = v&(1<<pin) != 0
	}
	return states, nil
}

// Output sets the level of a single output pin.
func (d *Device) Output(pin uint8, value bool) error {
	return d.OutputPins(map[uint8]bool{pin: value})
}

// OutputPins updates several output pins with a single register write.
func (d *Device) OutputPins(pins map[uint8]bool) error {
	for pin, value := range pins {
		if value {
			d.gpio |= 1 << pin
		} else {
			d.gpio &^= 1 << pin
		}
	}
	return d.WriteU8(regGPIO, d.gpio)
}

// DisableOutputs drives every output pin low.
func (d *Device) DisableOutputs() error {
	d.gpio = 0
	return d.WriteU8(regGPIO, d.gpio)
}
