package i2c

import (
	"errors"
	"testing"

	"tinygo.org/x/drivers"

	"i2ctree-go/i2c/i2ctest"
)

// Compile-time check: the fake bus satisfies the transport interface.
var _ drivers.I2C = (*i2ctest.Bus)(nil)

func TestReadWritePrimitives(t *testing.T) {
	bus := i2ctest.New()
	chip := bus.AddChip(0x48)
	d := New(bus, 0x48)

	if err := d.WriteU8(0x01, 0xAB); err != nil {
		t.Fatalf("WriteU8: %v", err)
	}
	if chip.Regs[0x01] != 0xAB {
		t.Fatalf("register 0x01 = 0x%02x, want 0xAB", chip.Regs[0x01])
	}
	v, err := d.ReadU8(0x01)
	if err != nil || v != 0xAB {
		t.Fatalf("ReadU8 = 0x%02x, %v", v, err)
	}

	// SMBus word order: low byte first.
	if err := d.WriteU16(0x10, 0xBEEF); err != nil {
		t.Fatalf("WriteU16: %v", err)
	}
	if chip.Regs[0x10] != 0xEF || chip.Regs[0x11] != 0xBE {
		t.Fatalf("word bytes = %02x %02x, want EF BE", chip.Regs[0x10], chip.Regs[0x11])
	}
	w, err := d.ReadU16(0x10)
	if err != nil || w != 0xBEEF {
		t.Fatalf("ReadU16 = 0x%04x, %v", w, err)
	}

	chip.Regs[0x02] = 0xFE
	s8, err := d.ReadS8(0x02)
	if err != nil || s8 != -2 {
		t.Fatalf("ReadS8 = %d, %v, want -2", s8, err)
	}
	chip.Regs[0x20], chip.Regs[0x21] = 0x00, 0x80
	s16, err := d.ReadS16(0x20)
	if err != nil || s16 != -32768 {
		t.Fatalf("ReadS16 = %d, %v, want -32768", s16, err)
	}
}

func TestBlockPrimitives(t *testing.T) {
	bus := i2ctest.New()
	chip := bus.AddChip(0x55)
	d := New(bus, 0x55)

	data := []byte{0x11, 0x22, 0x33, 0x44}
	if err := d.WriteBlock(0x07, data); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	for i, want := range data {
		if got := chip.Regs[0x07+i]; got != want {
			t.Fatalf("register 0x%02x = 0x%02x, want 0x%02x", 0x07+i, got, want)
		}
	}
	got, err := d.ReadBlock(0x07, 4)
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	for i := range data {
		if got[i] != data[i] {
			t.Fatalf("ReadBlock[%d] = 0x%02x, want 0x%02x", i, got[i], data[i])
		}
	}

	if err := d.WriteBlock(0, make([]byte, 33)); err == nil {
		t.Fatal("WriteBlock over 32 bytes should fail")
	}
}

func TestStrictErrorPolicy(t *testing.T) {
	EnableStrictErrors()
	defer DisableStrictErrors()

	bus := i2ctest.New()
	bus.AddChip(0x48)
	bus.FailAddr(0x48, i2ctest.ErrNoDevice)
	d := New(bus, 0x48)

	err := d.WriteU8(0x01, 0xFF)
	var ae *AccessError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *AccessError, got %v", err)
	}
	if ae.Op != "write8" || ae.Addr != 0x48 || ae.Reg != 0x01 {
		t.Fatalf("AccessError fields = %+v", ae)
	}
	if !errors.Is(err, i2ctest.ErrNoDevice) {
		t.Fatal("AccessError should wrap the transport cause")
	}

	if _, err := d.ReadU16(0x02); err == nil {
		t.Fatal("ReadU16 on a failing address should error")
	}
}

func TestLegacyErrorPolicy(t *testing.T) {
	DisableStrictErrors()

	bus := i2ctest.New()
	bus.FailAddr(0x30, i2ctest.ErrNoDevice)
	d := New(bus, 0x30)

	if err := d.WriteU8(0, 0); !errors.Is(err, ErrAccess) {
		t.Fatalf("expected bare ErrAccess, got %v", err)
	}
	if _, err := d.ReadU8(0); !errors.Is(err, ErrAccess) {
		t.Fatalf("expected bare ErrAccess, got %v", err)
	}
	// The degraded sentinel must not carry access detail.
	var ae *AccessError
	if errors.As(d.WriteU8(0, 0), &ae) {
		t.Fatal("legacy policy must not surface *AccessError")
	}
}

func TestStandaloneDevice(t *testing.T) {
	bus := i2ctest.New()
	bus.AddChip(0x21)
	d := New(bus, 0x21)

	// No hook: exactly one transaction per primitive, nothing upstream.
	if err := d.WriteU8(0x00, 0x01); err != nil {
		t.Fatalf("WriteU8: %v", err)
	}
	if len(bus.Log) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(bus.Log))
	}
}
