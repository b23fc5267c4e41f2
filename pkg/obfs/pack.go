package obfs

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// PackedSecret locates a secret's bytes within the packed buffer.
type PackedSecret struct {
	Name   string
	Offset uint32
	Length uint32
}

// Upper is the exclusive upper bound of the secret's byte range.
func (p PackedSecret) Upper() uint32 {
	return p.Offset + p.Length
}

// Token encodes the secret's byte range as a RangeToken.
func (p PackedSecret) Token() RangeToken {
	return NewRangeToken(p.Offset, p.Upper())
}

// Pack concatenates the UTF-8 bytes of all non-empty secrets, sorted by name, into a single buffer.
// The returned PackedSecret values are in the same order, with contiguous ranges starting at offset 0.
func Pack(secrets SecretSet) ([]PackedSecret, []byte, error) {
	names := secrets.Names()
	if len(names) == 0 {
		return nil, nil, ErrEmptySecretSet
	}
	lengths := make([]uint64, len(names))
	for i, name := range names {
		val := secrets[name]
		if !utf8.ValidString(val) {
			return nil, nil, fmt.Errorf("%w: secret '%s' is not valid UTF-8", ErrInvalidSecretEncoding, name)
		}
		lengths[i] = uint64(len(val))
	}
	packed, total, err := layout(names, lengths)
	if err != nil {
		return nil, nil, err
	}

	buf := make([]byte, 0, total)
	for _, name := range names {
		buf = append(buf, secrets[name]...)
	}
	return packed, buf, nil
}

// layout assigns cumulative offsets to each name in order.
// Every upper bound must fit in 32 bits to be representable in a RangeToken.
func layout(names []string, lengths []uint64) ([]PackedSecret, uint64, error) {
	packed := make([]PackedSecret, len(names))
	var offset uint64
	for i, name := range names {
		upper := offset + lengths[i]
		if upper > math.MaxUint32 || upper < offset {
			return nil, 0, fmt.Errorf("%w: secret '%s' would end at byte %d, limit is %d", ErrSecretsTooLarge, name, upper, uint64(math.MaxUint32))
		}
		packed[i] = PackedSecret{
			Name:   name,
			Offset: uint32(offset),
			Length: uint32(lengths[i]),
		}
		offset = upper
	}
	return packed, offset, nil
}
