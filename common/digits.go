package common

// PutDigits writes n into d as len(d) zero-padded ASCII decimal digits.
func PutDigits(d []byte, n uint64) {
	for i := len(d) - 1; i >= 0; i-- {
		d[i] = byte('0' + n%10)
		n = n / 10
	}
	if n != 0 {
		panic("PutDigits: overflow")
	}
}

// Digits returns n as a width-byte zero-padded decimal field.
func Digits(n uint64, width int) []byte {
	d := make([]byte, width)
	PutDigits(d, n)
	return d
}

// GetDigits parses a zero-padded ASCII decimal field. It returns false
// if any byte is not a digit.
func GetDigits(d []byte) (uint64, bool) {
	var n uint64
	for _, c := range d {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + uint64(c-'0')
	}
	return n, true
}
