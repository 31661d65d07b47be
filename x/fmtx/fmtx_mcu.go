//go:build rp2040 || rp2350

package fmtx

import (
	"io"

	"i2ctree-go/x/strconvx"
)

// DefaultOutput receives Print/Printf output on MCU builds. Point it at a
// UART writer from your platform bootstrap.
var DefaultOutput io.Writer = discard{}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// Public API, signature-compatible with fmt. The formatter covers the
// verbs this module emits: %s %q %d %x %X %v %t and %%. No width or
// precision handling; keep MCU cost low.

func Sprintf(format string, a ...any) string {
	return string(appendFormat(nil, format, a...))
}

func Printf(format string, a ...any) (int, error) {
	return io.WriteString(DefaultOutput, Sprintf(format, a...))
}

func Fprintf(w io.Writer, format string, a ...any) (int, error) {
	return io.WriteString(w, Sprintf(format, a...))
}

func Errorf(format string, a ...any) error {
	return &stringError{Sprintf(format, a...)}
}

func Sprint(a ...any) string {
	var buf []byte
	for i, v := range a {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = appendAny(buf, v, 'v')
	}
	return string(buf)
}

func Fprint(w io.Writer, a ...any) (int, error) { return io.WriteString(w, Sprint(a...)) }

func Print(a ...any) (int, error) { return Fprint(DefaultOutput, a...) }

type stringError struct{ s string }

func (e *stringError) Error() string { return e.s }

func appendFormat(buf []byte, format string, args ...any) []byte {
	ai := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			buf = append(buf, c)
			continue
		}
		i++
		verb := format[i]
		if verb == '%' {
			buf = append(buf, '%')
			continue
		}
		if ai >= len(args) {
			buf = append(buf, '%', '!', verb)
			continue
		}
		buf = appendAny(buf, args[ai], verb)
		ai++
	}
	return buf
}

func appendAny(buf []byte, v any, verb byte) []byte {
	switch verb {
	case 'x', 'X':
		h := strconvx.FormatUint(toU64(v), 16)
		if verb == 'X' {
			hb := []byte(h)
			for i, c := range hb {
				if 'a' <= c && c <= 'f' {
					hb[i] -= 'a' - 'A'
				}
			}
			h = string(hb)
		}
		return append(buf, h...)
	case 'q':
		if s, ok := asString(v); ok {
			return appendQuoted(buf, s)
		}
	}
	switch x := v.(type) {
	case string:
		return append(buf, x...)
	case []byte:
		return append(buf, x...)
	case bool:
		if x {
			return append(buf, "true"...)
		}
		return append(buf, "false"...)
	case float32:
		return append(buf, strconvx.FormatFloat(float64(x), 'f', 6, 32)...)
	case float64:
		return append(buf, strconvx.FormatFloat(x, 'f', 6, 64)...)
	case error:
		return append(buf, x.Error()...)
	case int, int8, int16, int32, int64:
		return append(buf, strconvx.FormatInt(toI64(x), 10)...)
	case uint, uint8, uint16, uint32, uint64, uintptr:
		return append(buf, strconvx.FormatUint(toU64(x), 10)...)
	default:
		return append(buf, "<unk>"...)
	}
}

func asString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	default:
		return "", false
	}
}

func appendQuoted(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\', '"':
			buf = append(buf, '\\', s[i])
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\r':
			buf = append(buf, '\\', 'r')
		case '\t':
			buf = append(buf, '\\', 't')
		default:
			buf = append(buf, s[i])
		}
	}
	return append(buf, '"')
}

func toI64(v any) int64 {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	default:
		return int64(toU64(v))
	}
}

func toU64(v any) uint64 {
	switch x := v.(type) {
	case uint:
		return uint64(x)
	case uint8:
		return uint64(x)
	case uint16:
		return uint64(x)
	case uint32:
		return uint64(x)
	case uint64:
		return x
	case uintptr:
		return uint64(x)
	case int:
		return uint64(x)
	case int8:
		return uint64(x)
	case int16:
		return uint64(x)
	case int32:
		return uint64(x)
	case int64:
		return uint64(x)
	default:
		return 0
	}
}
