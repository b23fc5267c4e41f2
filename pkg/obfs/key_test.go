package obfs

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	key := DeriveKey("")
	assert.Len(t, key, KeySize)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", hex.EncodeToString(key))

	key = DeriveKey("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", hex.EncodeToString(key))
	assert.Equal(t, key, DeriveKey("abc"), "Derivation should be deterministic")
}

func TestHash_DeriveKey(t *testing.T) {
	tests := map[string]struct {
		hash     Hash
		expected string
	}{
		"SHA-256": {
			hash:     SHA256,
			expected: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		"SHA3-256": {
			hash:     SHA3_256,
			expected: "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a",
		},
		"BLAKE2b-256": {
			hash:     BLAKE2b256,
			expected: "0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8",
		},
		"BLAKE3": {
			hash:     BLAKE3,
			expected: "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			key, err := tc.hash.DeriveKey("")
			require.NoError(t, err)
			assert.Len(t, key, KeySize)
			assert.Equal(t, tc.expected, hex.EncodeToString(key))

			other, err := tc.hash.DeriveKey("pw")
			require.NoError(t, err)
			assert.Len(t, other, KeySize)
			assert.NotEqual(t, key, other)
		})
	}
}

func TestHash_DeriveKey_Neg(t *testing.T) {
	_, err := Hash(42).DeriveKey("pw")
	assert.ErrorIs(t, err, ErrUnknownHash)
}

func TestParseHash(t *testing.T) {
	for _, h := range Hashes() {
		parsed, err := ParseHash(h.String())
		assert.NoError(t, err)
		assert.Equal(t, h, parsed)
	}

	h, err := ParseHash("  BLAKE3 ")
	assert.NoError(t, err)
	assert.Equal(t, BLAKE3, h)

	h, err = ParseHash("")
	assert.NoError(t, err)
	assert.Equal(t, SHA256, h)

	_, err = ParseHash("md5")
	assert.ErrorIs(t, err, ErrUnknownHash)
	assert.Equal(t, "Hash(42)", Hash(42).String())
}

func TestRandomPassphrase(t *testing.T) {
	a, b := RandomPassphrase(), RandomPassphrase()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
