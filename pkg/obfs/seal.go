package obfs

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	bin "github.com/saylorsolutions/binmap"
	"golang.org/x/crypto/scrypt"
)

const (
	// DefaultSealIterations is suitable for a key derived once per command invocation.
	DefaultSealIterations  uint64 = 1 << 17
	DefaultSealBlockSize   uint8  = 8
	DefaultSealParallelism uint8  = 1

	sealMagic         uint64 = 0x4F42465353454144
	sealVersion       uint8  = 1
	sealKeySize              = 32
	sealSaltSize             = 32
	maxSealIterations uint64 = 1 << 30

	// maxSealMemory bounds scrypt's 128*N*r byte working set.
	// Tuning is read from a sealed header before it can be authenticated.
	maxSealMemory      uint64 = 1 << 30
	maxSealParallelism uint8  = 16
)

// sealHeader carries the scrypt tuning used to seal a bundle, so it can be unsealed without knowing them up front.
// The encoded header is authenticated along with the payload.
type sealHeader struct {
	magic       uint64
	version     uint8
	iterations  uint64
	blockSize   uint8
	parallelism uint8
}

func (h *sealHeader) mapper() bin.Mapper {
	return bin.MapSequence(
		bin.Int(&h.magic),
		bin.Byte(&h.version),
		bin.Int(&h.iterations),
		bin.Byte(&h.blockSize),
		bin.Byte(&h.parallelism),
	)
}

func validIterations(n uint64) bool {
	return n > 1 && n <= maxSealIterations && n&(n-1) == 0
}

// checkCost rejects tuning that would take unreasonable memory or time to derive a key with.
func (h *sealHeader) checkCost() error {
	if !validIterations(h.iterations) || h.blockSize < DefaultSealBlockSize || h.parallelism < DefaultSealParallelism {
		return fmt.Errorf("seal parameters N=%d, r=%d, p=%d are out of range", h.iterations, h.blockSize, h.parallelism)
	}
	if mem := 128 * h.iterations * uint64(h.blockSize); mem > maxSealMemory {
		return fmt.Errorf("seal parameters N=%d, r=%d need %d bytes, limit is %d", h.iterations, h.blockSize, mem, maxSealMemory)
	}
	if h.parallelism > maxSealParallelism {
		return fmt.Errorf("seal parallelism %d exceeds %d", h.parallelism, maxSealParallelism)
	}
	return nil
}

func (h *sealHeader) validate() error {
	if h.magic != sealMagic {
		return fmt.Errorf("%w: not a sealed bundle", ErrInvalidBundle)
	}
	if h.version != sealVersion {
		return fmt.Errorf("%w: unsupported seal version %d", ErrInvalidBundle, h.version)
	}
	if err := h.checkCost(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	return nil
}

func (h *sealHeader) aead(passphrase string, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, int(h.iterations), int(h.blockSize), int(h.parallelism), sealKeySize)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// SealOpt tunes the scrypt key derivation used by Seal.
// Only change these if you know what you're doing.
type SealOpt = func(*sealHeader) error

// SealIterations sets the scrypt CPU/memory cost, which must be a power of 2 greater than 1.
func SealIterations(n uint64) SealOpt {
	return func(h *sealHeader) error {
		if !validIterations(n) {
			return fmt.Errorf("seal iterations must be a power of 2 between 2 and %d", maxSealIterations)
		}
		h.iterations = n
		return nil
	}
}

// SealBlockSize sets the scrypt relative block size.
func SealBlockSize(r uint8) SealOpt {
	return func(h *sealHeader) error {
		if r < DefaultSealBlockSize {
			return fmt.Errorf("seal block size must be at least %d", DefaultSealBlockSize)
		}
		h.blockSize = r
		return nil
	}
}

// SealParallelism sets the scrypt parallelism factor.
func SealParallelism(p uint8) SealOpt {
	return func(h *sealHeader) error {
		if p < DefaultSealParallelism || p > maxSealParallelism {
			return fmt.Errorf("seal parallelism must be between %d and %d", DefaultSealParallelism, maxSealParallelism)
		}
		h.parallelism = p
		return nil
	}
}

// IsSealed reports whether data starts like the output of Seal.
func IsSealed(data []byte) bool {
	return len(data) >= 8 && bundleEndian.Uint64(data) == sealMagic
}

// Seal encrypts a bundle with AES-256-GCM, using a key derived from passphrase with scrypt.
// A bundle holds everything needed to reveal its secrets, so it should be sealed before leaving the build machine.
func Seal(bundle []byte, passphrase string, opts ...SealOpt) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}
	header := sealHeader{
		magic:       sealMagic,
		version:     sealVersion,
		iterations:  DefaultSealIterations,
		blockSize:   DefaultSealBlockSize,
		parallelism: DefaultSealParallelism,
	}
	for _, opt := range opts {
		if err := opt(&header); err != nil {
			return nil, err
		}
	}
	if err := header.checkCost(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := header.mapper().Write(&buf, bundleEndian); err != nil {
		return nil, err
	}
	aad := bytes.Clone(buf.Bytes())
	salt := make([]byte, sealSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	gcm, err := header.aead(passphrase, salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	buf.Write(salt)
	buf.Write(nonce)
	return gcm.Seal(buf.Bytes(), nonce, bundle, aad), nil
}

// Unseal reverses Seal, returning the original bundle.
// A wrong passphrase can't be told apart from tampered data, both result in ErrInvalidBundle.
func Unseal(data []byte, passphrase string) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}
	var (
		header sealHeader
		r      = bytes.NewReader(data)
	)
	if err := header.mapper().Read(r, bundleEndian); err != nil {
		return nil, fmt.Errorf("%w: reading seal header: %v", ErrInvalidBundle, err)
	}
	if err := header.validate(); err != nil {
		return nil, err
	}
	aad := data[:len(data)-r.Len()]
	salt := make([]byte, sealSaltSize)
	if _, err := io.ReadFull(r, salt); err != nil {
		return nil, fmt.Errorf("%w: reading salt: %v", ErrInvalidBundle, err)
	}

	gcm, err := header.aead(passphrase, salt)
	if err != nil {
		return nil, err
	}
	rest := data[len(data)-r.Len():]
	if len(rest) < gcm.NonceSize()+gcm.Overhead() {
		return nil, fmt.Errorf("%w: truncated sealed payload", ErrInvalidBundle)
	}
	nonce, sealed := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]
	bundle, err := gcm.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to unseal, the passphrase may be wrong", ErrInvalidBundle)
	}
	return bundle, nil
}
