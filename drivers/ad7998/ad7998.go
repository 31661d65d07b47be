// Package ad7998 provides a driver for the AD7998 12-bit 8-channel ADC in
// command mode: each read triggers a conversion on the requested channel
// and fetches the result.
package ad7998

import (
	"errors"

	"tinygo.org/x/drivers"

	"i2ctree-go/i2c"
)

// AddressDefault is the AD7998-0 address with AS floating.
const AddressDefault = 0x20

// NumChannels is the number of ADC input channels.
const NumChannels = 8

// Cycle timer register; 1 selects the fastest conversion interval.
const regCycle = 0x03

// ErrChannel is returned for channels outside 0..7.
var ErrChannel = errors.New("ad7998: channel out of range")

// Device represents an AD7998 on an I2C bus.
type Device struct {
	*i2c.Device
}

// New initialises the device, setting the cycle register to the fastest
// conversion mode.
func New(bus drivers.I2C, addr uint16) (*Device, error) {
	d := &Device{Device: i2c.New(bus, addr)}
	if err := d.WriteU8(regCycle, 1); err != nil {
		return nil, err
	}
	return d, nil
}

// ReadInputRaw triggers a conversion on a channel and returns the raw
// 16-bit result (channel identifier in the top nibble).
func (d *Device) ReadInputRaw(channel int) (uint16, error) {
	if channel < 0 || channel >= NumChannels {
		return 0, ErrChannel
	}
	// Point the address register at the channel: upper nibble 0x7 plus the
	// one-based channel in bits 4..6.
	if err := d.WriteU8(uint8(0x70+((channel+1)<<4)), 0); err != nil {
		return 0, err
	}
	v, err := d.ReadU16(0)
	if err != nil {
		return 0, err
	}
	// Result is big-endian on the wire; swap out of SMBus word order.
	return v>>8 | v<<8, nil
}

// ReadInputScaled triggers a conversion on a channel and returns the
// result as a fraction of full scale.
func (d *Device) ReadInputScaled(channel int) (float64, error) {
	raw, err := d.ReadInputRaw(channel)
	if err != nil {
		return 0, err
	}
	return float64(raw&0x0FFF) / 4095.0, nil
}
