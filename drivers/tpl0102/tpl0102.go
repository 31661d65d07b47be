// Package tpl0102 provides a driver for the TPL0102 dual-channel digital
// potentiometer, with helpers mirroring the ad5245 package for rheostat
// and potential-divider use, per wiper.
package tpl0102

import (
	"errors"

	"tinygo.org/x/drivers"

	"i2ctree-go/i2c"
	"i2ctree-go/x/mathx"
)

// AddressDefault is the TPL0102 base address with all address pins low.
const AddressDefault = 0x50

// General control register and its bits.
const (
	regGeneral    = 0x10
	gcNonVolatile = 0x80
	gcShutdown    = 0x40
)

// ErrWiper is returned for a wiper index other than 0 (A) or 1 (B).
var ErrWiper = errors.New("tpl0102: wiper out of range")

// Device represents a TPL0102 on an I2C bus.
type Device struct {
	*i2c.Device

	wiper     [2]uint8
	totalKOhm float64
	lowPD     [2]float64
	highPD    [2]float64
}

// New initialises the device and syncs both wiper shadows with the current
// hardware positions.
func New(bus drivers.I2C, addr uint16) (*Device, error) {
	d := &Device{
		Device:    i2c.New(bus, addr),
		totalKOhm: 100.0,
		lowPD:     [2]float64{0.0, 0.0},
		highPD:    [2]float64{3.3, 3.3},
	}
	for w := uint8(0); w < 2; w++ {
		pos, err := d.ReadU8(w)
		if err != nil {
			return nil, err
		}
		d.wiper[w] = pos
	}
	return d, nil
}

// Wiper returns the shadow position of a wiper.
func (d *Device) Wiper(wiper int) (uint8, error) {
	if wiper != 0 && wiper != 1 {
		return 0, ErrWiper
	}
	return d.wiper[wiper], nil
}

// SetTotalResistance records the end-to-end H-L resistance in kiloohm,
// shared by both wipers.
func (d *Device) SetTotalResistance(kohm float64) { d.totalKOhm = kohm }

// SetResistance positions a wiper for the given H-W resistance in kiloohm.
func (d *Device) SetResistance(wiper int, kohm float64) error {
	if wiper != 0 && wiper != 1 {
		return ErrWiper
	}
	pos := uint8(mathx.Clamp(int(kohm/d.totalKOhm*256.0), 0, 255))
	return d.SetWiper(wiper, pos)
}

// SetTerminalPDs records the L and H terminal potentials of a wiper, in
// volts.
func (d *Device) SetTerminalPDs(wiper int, low, high float64) error {
	if wiper != 0 && wiper != 1 {
		return ErrWiper
	}
	d.lowPD[wiper] = low
	d.highPD[wiper] = high
	return nil
}

// SetPD positions a wiper for the given output potential in volts.
func (d *Device) SetPD(wiper int, volts float64) error {
	if wiper != 0 && wiper != 1 {
		return ErrWiper
	}
	pos := int((volts - d.lowPD[wiper]) / (d.highPD[wiper] - d.lowPD[wiper]) * 256.0)
	return d.SetWiper(wiper, uint8(mathx.Clamp(pos, 0, 255)))
}

// SetWiper writes an absolute wiper position. Wiper A lives at register 0,
// wiper B at register 1.
func (d *Device) SetWiper(wiper int, pos uint8) error {
	if wiper != 0 && wiper != 1 {
		return ErrWiper
	}
	if err := d.WriteU8(uint8(wiper), pos); err != nil {
		return err
	}
	d.wiper[wiper] = pos
	return nil
}

// SetNonVolatile selects between the non-volatile and volatile wiper
// register banks.
func (d *Device) SetNonVolatile(enable bool) error {
	return d.updateGeneral(gcNonVolatile, enable)
}

// SetShutdown enables or disables shutdown mode.
func (d *Device) SetShutdown(enable bool) error {
	return d.updateGeneral(gcShutdown, enable)
}

func (d *Device) updateGeneral(bit uint8, set bool) error {
	v, err := d.ReadU8(regGeneral)
	if err != nil {
		return err
	}
	if set {
		v |= bit
	} else {
		v &^= bit
	}
	return d.WriteU8(regGeneral, v)
}
