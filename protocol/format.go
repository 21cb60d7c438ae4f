package protocol

// maxDigits32 is the number of decimal digits in the largest uint32
const maxDigits32 = 10

// AppendUnsigned appends the base-10 digits of v to dst.
// Zero is the only value rendered with a leading 0.
func AppendUnsigned(dst []byte, v uint32) []byte {
	var tmp [maxDigits32]byte
	pos := len(tmp)
	for {
		pos--
		tmp[pos] = byte('0' + v%10)
		v /= 10
		if v == 0 {
			break
		}
	}
	return append(dst, tmp[pos:]...)
}

// AppendSigned appends '+' or '-' followed by the digits of |v|
func AppendSigned(dst []byte, v int32) []byte {
	if v < 0 {
		dst = append(dst, '-')
		// Negate in 64 bits so MinInt32 does not overflow
		return AppendUnsigned(dst, uint32(-int64(v)))
	}
	dst = append(dst, '+')
	return AppendUnsigned(dst, uint32(v))
}

// FormatUnsigned returns the decimal digits of v
func FormatUnsigned(v uint32) string {
	var buf [maxDigits32]byte
	return string(AppendUnsigned(buf[:0], v))
}

// FormatSigned returns v with an explicit sign
func FormatSigned(v int32) string {
	var buf [maxDigits32 + 1]byte
	return string(AppendSigned(buf[:0], v))
}

// parseUnsigned reads decimal digits from s starting at i.
// It returns the value, the index after the last digit, and ok=false when no
// digit was found or the value does not fit in 32 bits.
func parseUnsigned(s []byte, i int) (uint32, int, bool) {
	start := i
	var v uint64
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		v = v*10 + uint64(s[i]-'0')
		if v > 0xFFFFFFFF {
			return 0, i, false
		}
		i++
	}
	if i == start {
		return 0, i, false
	}
	return uint32(v), i, true
}

// parseSigned reads an optional sign followed by decimal digits
func parseSigned(s []byte, i int) (int32, int, bool) {
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	u, next, ok := parseUnsigned(s, i)
	if !ok {
		return 0, next, false
	}
	if neg {
		if u > 1<<31 {
			return 0, next, false
		}
		return int32(-int64(u)), next, true
	}
	if u > 1<<31-1 {
		return 0, next, false
	}
	return int32(u), next, true
}
