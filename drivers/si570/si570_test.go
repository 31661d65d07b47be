package si570

import (
	"errors"
	"math"
	"testing"

	"i2ctree-go/i2c/i2ctest"
)

// Factory configuration used by the tests: HS_DIV=4, N1=8, RFREQ=43.75,
// giving fXTAL = 156.25*4*8/43.75 = 114.2857... MHz.
var factoryRegs = [6]byte{0x01, 0xC2, 0xBC, 0x00, 0x00, 0x00}

func newDevice(t *testing.T) (*i2ctest.Chip, *Device) {
	t.Helper()
	bus := i2ctest.New()
	chip := bus.AddChip(AddressDefault)
	copy(chip.Regs[13:], factoryRegs[:])
	// Reset completes immediately: clear RST_REG when the reset bit lands.
	chip.OnWrite = func(reg, val uint8) {
		if reg == regRestart && val&bitReset != 0 {
			chip.Regs[regRestart] = 0
		}
	}
	d, err := New(bus, AddressDefault, ModelC)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return chip, d
}

func TestParseParams(t *testing.T) {
	hsDiv, n1, rfreq := parseParams(factoryRegs[:])
	if hsDiv != 4 || n1 != 8 {
		t.Fatalf("hsDiv,n1 = %d,%d, want 4,8", hsDiv, n1)
	}
	if math.Abs(rfreq-43.75) > 1e-12 {
		t.Fatalf("rfreq = %v, want 43.75", rfreq)
	}
}

func TestNewDerivesCrystal(t *testing.T) {
	_, d := newDevice(t)
	want := startupMHz * 4 * 8 / 43.75
	if math.Abs(d.FXTAL()-want) > 1e-9 {
		t.Fatalf("FXTAL = %v, want %v", d.FXTAL(), want)
	}
}

func TestSetFrequency(t *testing.T) {
	chip, d := newDevice(t)

	if err := d.SetFrequency(156.25); err != nil {
		t.Fatalf("SetFrequency: %v", err)
	}
	// 156.25 MHz resolves to the factory divider pair, so the frequency
	// registers are rewritten with the same values.
	for i, want := range factoryRegs {
		if got := chip.Regs[13+i]; got != want {
			t.Fatalf("register %d = 0x%02x, want 0x%02x", 13+i, got, want)
		}
	}
	// DCO unfrozen and NEWFREQ flagged.
	if chip.Regs[regFreeze]&bitFreeze != 0 {
		t.Fatal("freeze bit left set")
	}
	if chip.Regs[regRestart] != bitNewFreq {
		t.Fatalf("RST_REG = 0x%02x, want 0x40", chip.Regs[regRestart])
	}
}

func TestSetFrequencyRange(t *testing.T) {
	_, d := newDevice(t)
	for _, f := range []float64{9.99, 945.01} {
		if err := d.SetFrequency(f); !errors.Is(err, ErrFreqRange) {
			t.Fatalf("SetFrequency(%v) = %v, want ErrFreqRange", f, err)
		}
	}
}

func TestModelRegisterBase(t *testing.T) {
	bus := i2ctest.New()
	chip := bus.AddChip(AddressDefault)
	copy(chip.Regs[7:], factoryRegs[:])
	d, err := New(bus, AddressDefault, ModelA)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.regBase != 7 {
		t.Fatalf("regBase = %d, want 7", d.regBase)
	}
}
