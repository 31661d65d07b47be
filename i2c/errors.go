package i2c

import (
	"errors"

	"i2ctree-go/x/fmtx"
)

// Structural errors. These indicate a wiring or bookkeeping mistake in the
// device tree and always surface, regardless of the error policy.
var (
	// ErrNotAttachable is returned by Attach when the value is not a usable
	// node (nil, or a driver that never initialised its embedded Device).
	ErrNotAttachable = errors.New("i2c: not an attachable node")

	// ErrAlreadyAttached is returned when attaching a node that still has an
	// upstream parent. Detach it from the old parent first.
	ErrAlreadyAttached = errors.New("i2c: node already attached")

	// ErrNotAttached is returned by Detach for a node that is not a current
	// member of the parent.
	ErrNotAttached = errors.New("i2c: node not attached")

	// ErrChainIntegrity is returned when the delegation chain is inconsistent
	// with the parent's bookkeeping, e.g. a dispatch for a node missing from
	// a multiplexer's channel map, or detaching a member whose upstream no
	// longer points back at the detaching parent.
	ErrChainIntegrity = errors.New("i2c: attachment chain corrupt")

	// ErrChannelRange is returned when a multiplexer channel is out of range.
	ErrChannelRange = errors.New("i2c: channel out of range")
)

// ErrAccess is the degraded form of a bus access failure, returned instead
// of an *AccessError when strict errors are disabled.
var ErrAccess = errors.New("i2c: access error")

// AccessError describes a failed bus transaction.
type AccessError struct {
	Op   string // primitive name, e.g. "write8"
	Addr uint16
	Reg  uint8
	Err  error // underlying transport cause
}

func (e *AccessError) Error() string {
	return fmtx.Sprintf("i2c %s error from device 0x%x register 0x%x: %v",
		e.Op, e.Addr, e.Reg, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// Process-wide error policy. The model is cooperative single-threaded use
// per bus (see package doc); the flag is expected to be set once at startup
// and is deliberately unsynchronised, like everything else in this package.
var strictErrors bool

// EnableStrictErrors makes bus access failures surface as *AccessError.
// Recommended for production use. Idempotent.
func EnableStrictErrors() { strictErrors = true }

// DisableStrictErrors restores the legacy best-effort behaviour: bus access
// failures return the bare ErrAccess sentinel and are traced only when the
// device has Debug set. Structural errors are unaffected. Idempotent.
func DisableStrictErrors() { strictErrors = false }

// accessErr applies the error policy to a failed transaction.
func (d *Device) accessErr(op string, reg uint8, err error) error {
	if strictErrors {
		return &AccessError{Op: op, Addr: d.addr, Reg: reg, Err: err}
	}
	if d.Debug {
		fmtx.Printf("i2c: %s error from device 0x%x register 0x%x: %v\n",
			op, d.addr, reg, err)
	}
	return ErrAccess
}
