//go:build rp2040 || rp2350

package strconvx

// Minimal allocation-aware subset with strconv-compatible signatures.
// Bases 2..36; FormatFloat/ParseFloat handle plain 'f' notation only.

import "errors"

var errSyntax = errors.New("invalid syntax")

func Itoa(i int) string { return FormatInt(int64(i), 10) }

func Atoi(s string) (int, error) {
	v, err := ParseInt(s, 10, 0)
	return int(v), err
}

func FormatInt(i int64, base int) string {
	if i < 0 {
		return "-" + FormatUint(uint64(-i), base)
	}
	return FormatUint(uint64(i), base)
}

func FormatUint(u uint64, base int) string {
	if base < 2 || base > 36 {
		base = 10
	}
	if u == 0 {
		return "0"
	}
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	var buf [64]byte
	i := len(buf)
	for u > 0 {
		i--
		buf[i] = digits[u%uint64(base)]
		u /= uint64(base)
	}
	return string(buf[i:])
}

func ParseUint(s string, base, bitSize int) (uint64, error) {
	if base == 0 {
		s, base = detectBase(s)
	}
	if s == "" || base < 2 || base > 36 {
		return 0, errSyntax
	}
	if bitSize == 0 {
		bitSize = 64
	}
	var max uint64 = 1<<uint(bitSize) - 1
	var v uint64
	for i := 0; i < len(s); i++ {
		d, ok := digitVal(s[i])
		if !ok || int(d) >= base {
			return 0, errSyntax
		}
		nv := v*uint64(base) + uint64(d)
		if nv < v || nv > max {
			return 0, errSyntax
		}
		v = nv
	}
	return v, nil
}

func ParseInt(s string, base, bitSize int) (int64, error) {
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if bitSize == 0 {
		bitSize = 64
	}
	u, err := ParseUint(s, base, 64)
	if err != nil {
		return 0, err
	}
	lim := uint64(1) << uint(bitSize-1)
	if neg {
		if u > lim {
			return 0, errSyntax
		}
		return -int64(u), nil
	}
	if u >= lim {
		return 0, errSyntax
	}
	return int64(u), nil
}

func detectBase(s string) (string, int) {
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			return s[2:], 16
		case 'o', 'O':
			return s[2:], 8
		case 'b', 'B':
			return s[2:], 2
		}
	}
	return s, 10
}

func digitVal(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'z':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'Z':
		return c - 'A' + 10, true
	}
	return 0, false
}

func FormatFloat(f float64, _ byte, prec, _ int) string {
	if prec < 0 {
		prec = 6
	}
	neg := f < 0
	if neg {
		f = -f
	}
	scale := 1.0
	for i := 0; i < prec; i++ {
		scale *= 10
	}
	n := uint64(f*scale + 0.5)
	ip := n
	var fp uint64
	if prec > 0 {
		ip = n / uint64(scale)
		fp = n % uint64(scale)
	}
	out := FormatUint(ip, 10)
	if prec > 0 {
		frac := FormatUint(fp, 10)
		for len(frac) < prec {
			frac = "0" + frac
		}
		out += "." + frac
	}
	if neg && n != 0 {
		out = "-" + out
	}
	return out
}

func ParseFloat(s string, _ int) (float64, error) {
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if s == "" {
		return 0, errSyntax
	}
	var v float64
	i := 0
	for ; i < len(s) && s[i] != '.'; i++ {
		d, ok := digitVal(s[i])
		if !ok || d > 9 {
			return 0, errSyntax
		}
		v = v*10 + float64(d)
	}
	if i < len(s) { // fractional part
		i++
		div := 1.0
		for ; i < len(s); i++ {
			d, ok := digitVal(s[i])
			if !ok || d > 9 {
				return 0, errSyntax
			}
			div *= 10
			v += float64(d) / div
		}
	}
	if neg {
		v = -v
	}
	return v, nil
}
