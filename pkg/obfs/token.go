package obfs

import "fmt"

// Mask obscures raw offsets in a RangeToken from casual inspection.
// Changing it breaks compatibility with previously generated code.
const Mask uint64 = 0xBA34EF119CBE589D

// RangeToken encodes the [lower, upper) byte range of a secret within the encrypted blob.
type RangeToken uint64

// NewRangeToken packs lower into the low 32 bits and upper into the high 32 bits, then applies Mask.
func NewRangeToken(lower, upper uint32) RangeToken {
	return RangeToken((uint64(lower) | uint64(upper)<<32) ^ Mask)
}

// Bounds recovers the range given to NewRangeToken.
func (t RangeToken) Bounds() (lower, upper uint32) {
	raw := uint64(t) ^ Mask
	return uint32(raw & 0xffffffff), uint32(raw >> 32 & 0xffffffff)
}

func (t RangeToken) String() string {
	return fmt.Sprintf("0x%016X", uint64(t))
}
