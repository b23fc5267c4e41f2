package xor

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyKey = errors.New("cannot use empty key")
)

type xorScreen struct {
	key []byte
	cur int
}

// newXorScreen creates a screen that starts at the absolute stream position pos.
// Positions beyond the key length wrap around the key.
func newXorScreen(key []byte, pos ...int) (*xorScreen, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	s := &xorScreen{
		key: key,
	}
	if len(pos) > 0 {
		if pos[0] < 0 {
			return nil, fmt.Errorf("position %d cannot be negative", pos[0])
		}
		s.cur = pos[0] % len(key)
	}
	return s, nil
}

func (s *xorScreen) screen(b byte) byte {
	b ^= s.key[s.cur]
	s.cur++
	if s.cur == len(s.key) {
		s.cur = 0
	}
	return b
}
