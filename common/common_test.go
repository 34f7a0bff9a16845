package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDigits(t *testing.T) {
	assert.Equal(t, []byte("007"), Digits(7, 3))
	assert.Equal(t, []byte("99"), Digits(99, 2))
	assert.Equal(t, []byte("00"), Digits(0, 2))
	assert.Panics(t, func() { Digits(100, 2) })
}

func TestGetDigits(t *testing.T) {
	tcs := []struct {
		in string
		n  uint64
		ok bool
	}{
		{"100", 100, true},
		{"127", 127, true},
		{"00", 0, true},
		{"0a", 0, false},
		{"\x00\x00", 0, false},
	}
	for _, tc := range tcs {
		n, ok := GetDigits([]byte(tc.in))
		assert.Equal(t, tc.ok, ok, "%q", tc.in)
		assert.Equal(t, tc.n, n, "%q", tc.in)
	}
}

func TestStatString(t *testing.T) {
	assert.Equal(t, "OK", SFS_OK.String())
	assert.Equal(t, "DIRFULL", SFSERR_DIRFULL.String())
	assert.Equal(t, "UNKNOWN", Stat(1000).String())
	assert.True(t, SFSERR_NOSPC.Exhausted())
	assert.False(t, SFSERR_NOENT.Exhausted())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "FI", KFILE.String())
	assert.Equal(t, "DI", KDIR.String())
}
