package obfs

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

const (
	// KeySize is the length of every derived Key.
	KeySize = 256 / 8
)

// Key is the XOR screening key derived from a passphrase.
type Key []byte

// Hash selects the 256-bit hash used to derive a Key.
// The zero value is SHA256, which matches keys produced by earlier versions of the tool.
type Hash uint8

const (
	SHA256 Hash = iota
	SHA3_256
	BLAKE2b256
	BLAKE3
)

var hashNames = [...]string{
	SHA256:     "sha256",
	SHA3_256:   "sha3-256",
	BLAKE2b256: "blake2b-256",
	BLAKE3:     "blake3",
}

// Hashes returns all supported hashes in their declared order.
func Hashes() []Hash {
	return []Hash{SHA256, SHA3_256, BLAKE2b256, BLAKE3}
}

func (h Hash) Valid() bool {
	return int(h) < len(hashNames)
}

func (h Hash) String() string {
	if !h.Valid() {
		return fmt.Sprintf("Hash(%d)", uint8(h))
	}
	return hashNames[h]
}

// ParseHash returns the Hash with the given name, ignoring case and surrounding space.
// An empty name selects SHA256.
func ParseHash(name string) (Hash, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) == 0 {
		return SHA256, nil
	}
	for _, h := range Hashes() {
		if hashNames[h] == name {
			return h, nil
		}
	}
	return 0, fmt.Errorf("%w: '%s'", ErrUnknownHash, name)
}

// DeriveKey hashes the UTF-8 bytes of passphrase with h.
// Any passphrase is accepted, including an empty one.
func (h Hash) DeriveKey(passphrase string) (Key, error) {
	var sum [KeySize]byte
	data := []byte(passphrase)
	switch h {
	case SHA256:
		sum = sha256.Sum256(data)
	case SHA3_256:
		sum = sha3.Sum256(data)
	case BLAKE2b256:
		sum = blake2b.Sum256(data)
	case BLAKE3:
		sum = blake3.Sum256(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownHash, h)
	}
	return sum[:], nil
}

// DeriveKey derives a Key from passphrase with SHA-256.
func DeriveKey(passphrase string) Key {
	sum := sha256.Sum256([]byte(passphrase))
	return sum[:]
}

// RandomPassphrase generates a passphrase from a random (version 4) UUID.
// It's used when the caller doesn't provide one, which makes every run produce a different key.
func RandomPassphrase() string {
	return strings.ToUpper(uuid.NewString())
}
