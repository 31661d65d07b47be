// Package si570 provides a driver for the SI570 programmable clock
// synthesizer. The output frequency is set in megahertz; the divider
// combination (HS_DIV, N1) and the 38-bit fractional multiplier RFREQ are
// derived automatically from the crystal frequency measured at reset.
package si570

import (
	"errors"
	"math"

	"tinygo.org/x/drivers"

	"i2ctree-go/i2c"
	"i2ctree-go/x/fmtx"
	"i2ctree-go/x/mathx"
)

// AddressDefault is the common SI570 address.
const AddressDefault = 0x55

// Model selects the device variant; it determines where the frequency
// configuration registers start.
type Model uint8

const (
	ModelA Model = iota
	ModelB
	ModelC
)

// Control registers (common to all models).
const (
	regRestart = 135 // RST_REG: reset, NEWFREQ flag
	regFreeze  = 137 // FREEZE_DCO

	bitReset   = 0x80
	bitNewFreq = 0x40
	bitFreeze  = 0x10
)

// Factory startup frequency in MHz, used to derive the crystal frequency.
const startupMHz = 156.25

// Bound on the post-reset poll; the part recovers in well under this.
const resetPollMax = 1000

var (
	// ErrFreqRange is returned for frequencies outside 10..945 MHz.
	ErrFreqRange = errors.New("si570: frequency out of range")
	// ErrNoDivider is returned when no HS_DIV/N1 combination can produce
	// the requested frequency.
	ErrNoDivider = errors.New("si570: no divider combination for frequency")
	// ErrResetTimeout is returned when the device does not come out of
	// reset.
	ErrResetTimeout = errors.New("si570: reset timeout")
)

// Device represents an SI570 on an I2C bus.
type Device struct {
	*i2c.Device

	regBase uint8

	hsDiv int
	n1    int
	rfreq float64
	fxtal float64 // crystal frequency in MHz
}

// New resets the device to its factory frequency and derives the crystal
// frequency from the startup register contents.
func New(bus drivers.I2C, addr uint16, model Model) (*Device, error) {
	d := &Device{Device: i2c.New(bus, addr), regBase: 7}
	if model == ModelC {
		d.regBase = 13
	}

	if err := d.WriteU8(regRestart, bitReset); err != nil {
		return nil, err
	}
	ok := false
	for i := 0; i < resetPollMax; i++ {
		v, err := d.ReadU8(regRestart)
		if err != nil {
			return nil, err
		}
		if v&1 == 0 {
			ok = true
			break
		}
	}
	if !ok {
		return nil, ErrResetTimeout
	}

	data, err := d.ReadBlock(d.regBase, 6)
	if err != nil {
		return nil, err
	}
	d.hsDiv, d.n1, d.rfreq = parseParams(data)
	d.fxtal = startupMHz * float64(d.hsDiv) * float64(d.n1) / d.rfreq
	return d, nil
}

// FXTAL returns the derived crystal frequency in MHz.
func (d *Device) FXTAL() float64 { return d.fxtal }

// parseParams unpacks HS_DIV, N1 and RFREQ from the six frequency
// configuration registers.
func parseParams(data []byte) (hsDiv, n1 int, rfreq float64) {
	hsDiv = int((data[0]>>5)&0x07) + 4
	n1 = int(data[0]<<2&0x7C) + int(data[1]>>6&0x03) + 1
	raw := uint64(data[1] & 0x3F)
	for _, b := range data[2:6] {
		raw = raw<<8 | uint64(b)
	}
	rfreq = float64(raw) / (1 << 28)
	return hsDiv, n1, rfreq
}

// SetFrequency programs the output frequency, in MHz.
func (d *Device) SetFrequency(mhz float64) error {
	if !mathx.Between(mhz, 10.0, 945.0) {
		return ErrFreqRange
	}

	// The DCO must land between 4850 and 5670 MHz; search the divider
	// products in that window for one expressible as HS_DIV * N1 with a
	// legal N1 (1 or even).
	divMin := int(math.Ceil(4850.0 / mhz))
	divMax := int(math.Floor(5670.0 / mhz))
	found := false
search:
	for div := divMin; div <= divMax; div++ {
		for _, hs := range []int{11, 9, 7, 6, 5, 4} {
			if div%hs != 0 {
				continue
			}
			n1 := div / hs
			if n1 == 1 || n1%2 == 0 {
				d.hsDiv, d.n1 = hs, n1
				found = true
				break search
			}
		}
	}
	if !found {
		return ErrNoDivider
	}
	d.rfreq = mhz * float64(d.hsDiv) * float64(d.n1) / d.fxtal

	// Freeze the DCO while the new configuration is written.
	fz, err := d.ReadU8(regFreeze)
	if err != nil {
		return err
	}
	if err := d.WriteU8(regFreeze, fz|bitFreeze); err != nil {
		return err
	}

	rawHS := uint8(d.hsDiv - 4)
	rawN1 := uint8(d.n1 - 1)
	rawRF := uint64(d.rfreq * (1 << 28))
	buf := []byte{
		rawHS<<5 | rawN1>>2,
		rawN1<<6 | uint8(rawRF>>32)&0x3F,
		uint8(rawRF >> 24),
		uint8(rawRF >> 16),
		uint8(rawRF >> 8),
		uint8(rawRF),
	}
	if err := d.WriteBlock(d.regBase, buf); err != nil {
		return err
	}

	if err := d.WriteU8(regFreeze, fz&^bitFreeze); err != nil {
		return err
	}
	return d.WriteU8(regRestart, bitNewFreq)
}

// Status reads back the frequency configuration registers and returns a
// printable summary of the device state.
func (d *Device) Status() (string, error) {
	data, err := d.ReadBlock(d.regBase, 6)
	if err != nil {
		return "", err
	}
	hsDiv, n1, rfreq := parseParams(data)
	out := ""
	for i, b := range data {
		out += fmtx.Sprintf("register %d: 0x%x\n", int(d.regBase)+i, b)
	}
	out += fmtx.Sprintf("HS_DIV: %d\nN1: %d\nRFREQ: %v\n", hsDiv, n1, rfreq)
	out += fmtx.Sprintf("fXTAL: %vMHz\nfCURRENT: %vMHz",
		d.fxtal, d.fxtal*rfreq/(float64(n1)*float64(hsDiv)))
	return out, nil
}
