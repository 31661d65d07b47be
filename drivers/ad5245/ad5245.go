// Package ad5245 provides a driver for the AD5245 single-channel digital
// potentiometer. The wiper can be positioned directly, or through helpers
// that convert a target resistance (rheostat mode) or potential difference
// (divider mode) into a wiper position.
package ad5245

import (
	"tinygo.org/x/drivers"

	"i2ctree-go/i2c"
	"i2ctree-go/x/mathx"
)

// AddressDefault is the AD5245 address with AD0 low.
const AddressDefault = 0x2c

// Instruction-byte bits.
const (
	cmdReset    = 1 << 6
	cmdShutdown = 1 << 5
)

// Device represents an AD5245 on an I2C bus.
type Device struct {
	*i2c.Device

	wiper     uint8
	totalKOhm float64
	lowPD     float64
	highPD    float64
}

// New initialises the device and syncs the wiper shadow with the current
// hardware position, so it is suitable for on-channel construction behind
// a multiplexer.
func New(bus drivers.I2C, addr uint16) (*Device, error) {
	d := &Device{
		Device:    i2c.New(bus, addr),
		totalKOhm: 100.0,
		lowPD:     0.0,
		highPD:    3.3,
	}
	pos, err := d.ReadU8(0)
	if err != nil {
		return nil, err
	}
	d.wiper = pos
	return d, nil
}

// Wiper returns the last set (or synced) wiper position.
func (d *Device) Wiper() uint8 { return d.wiper }

// SetTotalResistance records the end-to-end resistance between H and L, in
// kiloohm, used by SetResistance.
func (d *Device) SetTotalResistance(kohm float64) { d.totalKOhm = kohm }

// SetResistance positions the wiper for the given H-W resistance in
// kiloohm (rheostat mode).
func (d *Device) SetResistance(kohm float64) error {
	return d.SetWiper(uint8(mathx.Clamp(int(kohm/d.totalKOhm*256.0), 0, 255)))
}

// SetTerminalPDs records the potentials at the L and H terminals, in volts,
// used by SetPD.
func (d *Device) SetTerminalPDs(low, high float64) {
	d.lowPD = low
	d.highPD = high
}

// SetPD positions the wiper for the given output potential in volts
// (potential divider mode).
func (d *Device) SetPD(volts float64) error {
	pos := int((volts - d.lowPD) / (d.highPD - d.lowPD) * 256.0)
	return d.SetWiper(uint8(mathx.Clamp(pos, 0, 255)))
}

// SetWiper writes an absolute wiper position.
func (d *Device) SetWiper(pos uint8) error {
	if err := d.WriteU8(0, pos); err != nil {
		return err
	}
	d.wiper = pos
	return nil
}

// Reset returns the wiper to midscale.
func (d *Device) Reset() error {
	if err := d.WriteU8(cmdReset, 128); err != nil {
		return err
	}
	d.wiper = 128
	return nil
}

// SetShutdown enables or disables shutdown mode, preserving the wiper
// position for when the device wakes.
func (d *Device) SetShutdown(enable bool) error {
	var cmd uint8
	if enable {
		cmd = cmdShutdown
	}
	return d.WriteU8(cmd, d.wiper)
}
