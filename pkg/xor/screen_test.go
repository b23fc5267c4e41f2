package xor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewXorScreenNeg(t *testing.T) {
	_, err := newXorScreen(nil)
	assert.ErrorIs(t, err, ErrEmptyKey)
	_, err = newXorScreen([]byte{}, 0)
	assert.ErrorIs(t, err, ErrEmptyKey)
	_, err = newXorScreen([]byte{0}, -1)
	assert.Error(t, err)
}

func TestNewXorScreen_Wraps(t *testing.T) {
	key := []byte{0x1, 0x2, 0x4}
	tests := map[string]struct {
		pos      int
		expected int
	}{
		"Zero":       {pos: 0, expected: 0},
		"Inside key": {pos: 2, expected: 2},
		"Key length": {pos: 3, expected: 0},
		"Past key":   {pos: 7, expected: 1},
		"Large":      {pos: 3*1000 + 2, expected: 2},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			s, err := newXorScreen(key, tc.pos)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, s.cur)
			assert.Equal(t, key[tc.expected], s.screen(0))
		})
	}
}

func TestXorScreen_Cycles(t *testing.T) {
	key := []byte{0x1, 0x2, 0x4}
	s, err := newXorScreen(key)
	require.NoError(t, err)

	var out []byte
	for i := 0; i < 7; i++ {
		out = append(out, s.screen(0))
	}
	assert.Equal(t, []byte{0x1, 0x2, 0x4, 0x1, 0x2, 0x4, 0x1}, out)
}
