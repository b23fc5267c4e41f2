package obfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	bin "github.com/saylorsolutions/binmap"
)

const (
	bundleMagic   uint64 = 0x4F42465342554E44
	bundleVersion uint8  = 1
	maxNameLen    uint64 = 1 << 16
)

var bundleEndian binary.ByteOrder = binary.BigEndian

type bundleHeader struct {
	magic   uint64
	version uint8
	hash    uint8
	keyLen  uint64
	blobLen uint64
	count   uint64
}

func (h *bundleHeader) mapper() bin.Mapper {
	return bin.MapSequence(
		bin.Int(&h.magic),
		bin.Byte(&h.version),
		bin.Byte(&h.hash),
		bin.Int(&h.keyLen),
		bin.Int(&h.blobLen),
		bin.Int(&h.count),
	)
}

func (h *bundleHeader) validate() error {
	if h.magic != bundleMagic {
		return fmt.Errorf("%w: unrecognized header", ErrInvalidBundle)
	}
	if h.version != bundleVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidBundle, h.version)
	}
	if !Hash(h.hash).Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidBundle, Hash(h.hash))
	}
	if h.keyLen != KeySize {
		return fmt.Errorf("%w: key length %d, expected %d", ErrInvalidBundle, h.keyLen, KeySize)
	}
	if h.blobLen > math.MaxUint32 {
		return fmt.Errorf("%w: blob length %d exceeds the maximum packed size", ErrInvalidBundle, h.blobLen)
	}
	if h.count == 0 {
		return fmt.Errorf("%w: no secrets", ErrInvalidBundle)
	}
	if h.count > h.blobLen {
		return fmt.Errorf("%w: %d secrets can't fit in %d bytes", ErrInvalidBundle, h.count, h.blobLen)
	}
	return nil
}

// MarshalBinary writes the encoding as a bundle that can be verified or revealed later without the original secrets.
// Names are stored in clear text, values only in their encrypted form.
func (e *Encoded) MarshalBinary() ([]byte, error) {
	if len(e.Key) != KeySize {
		return nil, fmt.Errorf("%w: key length %d, expected %d", ErrInvalidBundle, len(e.Key), KeySize)
	}
	if len(e.Secrets) == 0 {
		return nil, ErrEmptySecretSet
	}
	var (
		buf    bytes.Buffer
		header = bundleHeader{
			magic:   bundleMagic,
			version: bundleVersion,
			hash:    uint8(e.Hash),
			keyLen:  uint64(len(e.Key)),
			blobLen: uint64(len(e.Blob)),
			count:   uint64(len(e.Secrets)),
		}
	)
	if err := header.mapper().Write(&buf, bundleEndian); err != nil {
		return nil, err
	}
	buf.Write(e.Key)
	buf.Write(e.Blob)
	for _, s := range e.Secrets {
		var (
			nameLen = uint64(len(s.Name))
			token   = uint64(s.Token())
		)
		if err := bin.Int(&nameLen).Write(&buf, bundleEndian); err != nil {
			return nil, err
		}
		buf.WriteString(s.Name)
		if err := bin.Int(&token).Write(&buf, bundleEndian); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary reads a bundle produced by MarshalBinary.
// Token ranges are checked to be contiguous and to cover the blob exactly, and names must be unique and sorted.
func (e *Encoded) UnmarshalBinary(data []byte) error {
	var (
		header bundleHeader
		r      = bytes.NewReader(data)
	)
	if err := header.mapper().Read(r, bundleEndian); err != nil {
		return fmt.Errorf("%w: reading header: %v", ErrInvalidBundle, err)
	}
	if err := header.validate(); err != nil {
		return err
	}

	key := make(Key, header.keyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return fmt.Errorf("%w: reading key: %v", ErrInvalidBundle, err)
	}
	if header.blobLen > uint64(r.Len()) {
		return fmt.Errorf("%w: truncated blob", ErrInvalidBundle)
	}
	blob := make([]byte, header.blobLen)
	if _, err := io.ReadFull(r, blob); err != nil {
		return fmt.Errorf("%w: reading blob: %v", ErrInvalidBundle, err)
	}

	secrets := make([]PackedSecret, 0, header.count)
	var next uint32
	for i := uint64(0); i < header.count; i++ {
		var nameLen, token uint64
		if err := bin.Int(&nameLen).Read(r, bundleEndian); err != nil {
			return fmt.Errorf("%w: reading secret %d: %v", ErrInvalidBundle, i, err)
		}
		if nameLen > maxNameLen || nameLen > uint64(r.Len()) {
			return fmt.Errorf("%w: secret %d has an invalid name length %d", ErrInvalidBundle, i, nameLen)
		}
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(r, name); err != nil {
			return fmt.Errorf("%w: reading secret %d: %v", ErrInvalidBundle, i, err)
		}
		if err := bin.Int(&token).Read(r, bundleEndian); err != nil {
			return fmt.Errorf("%w: reading secret %d: %v", ErrInvalidBundle, i, err)
		}

		lower, upper := RangeToken(token).Bounds()
		if lower != next || upper <= lower {
			return fmt.Errorf("%w: secret '%s' has range [%d, %d), expected it to start at %d", ErrInvalidBundle, name, lower, upper, next)
		}
		if len(secrets) > 0 && secrets[len(secrets)-1].Name >= string(name) {
			return fmt.Errorf("%w: secret '%s' is out of order", ErrInvalidBundle, name)
		}
		secrets = append(secrets, PackedSecret{
			Name:   string(name),
			Offset: lower,
			Length: upper - lower,
		})
		next = upper
	}
	if uint64(next) != header.blobLen {
		return fmt.Errorf("%w: secrets cover %d of %d blob bytes", ErrInvalidBundle, next, header.blobLen)
	}
	if r.Len() != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrInvalidBundle, r.Len())
	}

	e.Hash = Hash(header.hash)
	e.Key = key
	e.Blob = blob
	e.Secrets = secrets
	return nil
}
