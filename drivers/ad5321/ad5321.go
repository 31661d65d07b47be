// Package ad5321 provides a driver for the AD5321 12-bit DAC. The output
// is set and read back as a fraction of full scale.
package ad5321

import (
	"errors"

	"tinygo.org/x/drivers"

	"i2ctree-go/i2c"
	"i2ctree-go/x/mathx"
)

// AddressDefault is the AD5321 address with A0 low.
const AddressDefault = 0x0c

// ErrRange is returned for output values outside 0.0..1.0.
var ErrRange = errors.New("ad5321: output value out of range")

// Device represents an AD5321 on an I2C bus.
type Device struct {
	*i2c.Device
}

// New returns a Device. No bus traffic occurs until the first access.
func New(bus drivers.I2C, addr uint16) *Device {
	return &Device{Device: i2c.New(bus, addr)}
}

// SetOutputScaled sets the DAC output as a fraction of full scale
// (0.0..1.0). The device takes the 12-bit value split across the register
// byte (MSB) and data byte (LSB) of a single write.
func (d *Device) SetOutputScaled(value float64) error {
	if !mathx.Between(value, 0.0, 1.0) {
		return ErrRange
	}
	n := int(value * 4096)
	if n == 4096 {
		n = 4095
	}
	msb := uint8(n>>8) & 0x0F
	lsb := uint8(n)
	return d.WriteU8(msb, lsb)
}

// ReadScaled reads back the current output setting as a fraction of full
// scale. The device streams its value big-endian, opposite to SMBus word
// order, so the bytes are swapped after the read.
func (d *Device) ReadScaled() (float64, error) {
	v, err := d.ReadU16(0)
	if err != nil {
		return 0, err
	}
	v = v>>8 | v<<8
	return float64(v) / 4096.0, nil
}
