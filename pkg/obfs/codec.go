package obfs

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/saylorsolutions/obfsecrets/pkg/xor"
)

// Encrypt screens plain with key, so blob[i] = plain[i] ^ key[i % len(key)].
// The operation is symmetric: encrypting the blob with the same key recovers plain.
func Encrypt(plain []byte, key Key) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(plain))
	w, err := xor.NewWriter(&buf, key)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(plain); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode recovers the secret identified by token from blob.
// Each byte at position p of the token's range is screened with key[(p + lower) % len(key)], so the key lines up with the position the byte had when the blob was encrypted.
func Decode(token RangeToken, key Key, blob []byte) (string, error) {
	lower, upper := token.Bounds()
	if lower > upper {
		return "", fmt.Errorf("%w: token %s has lower bound %d above upper bound %d", ErrInvalidSecretEncoding, token, lower, upper)
	}
	if uint64(upper) > uint64(len(blob)) {
		return "", fmt.Errorf("%w: token %s ends at %d, past the end of a %d byte blob", ErrInvalidSecretEncoding, token, upper, len(blob))
	}
	r, err := xor.NewReader(bytes.NewReader(blob[lower:upper]), key, int(lower))
	if err != nil {
		return "", err
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plain) {
		return "", fmt.Errorf("%w: token %s does not decode to UTF-8 text", ErrInvalidSecretEncoding, token)
	}
	return string(plain), nil
}

// Encoded is the result of obfuscating a SecretSet.
// Secrets are sorted by name, and their ranges cover Blob exactly.
type Encoded struct {
	Hash    Hash
	Key     Key
	Blob    []byte
	Secrets []PackedSecret
}

// EncodeOpt operates on an Encoded value before encoding starts, and is used in Encode.
// If any EncodeOpt returns an error, then encoding ceases and the error is returned.
type EncodeOpt = func(enc *Encoded) error

// UseHash sets the hash used to derive the key from the passphrase.
func UseHash(h Hash) EncodeOpt {
	return func(enc *Encoded) error {
		if !h.Valid() {
			return fmt.Errorf("%w: %s", ErrUnknownHash, h)
		}
		enc.Hash = h
		return nil
	}
}

// Encode derives a key from passphrase, packs secrets, and encrypts the packed buffer.
// The same secrets, passphrase, and options always produce an identical result.
func Encode(secrets SecretSet, passphrase string, opts ...EncodeOpt) (*Encoded, error) {
	enc := new(Encoded)
	for _, opt := range opts {
		if err := opt(enc); err != nil {
			return nil, err
		}
	}

	packed, plain, err := Pack(secrets)
	if err != nil {
		return nil, err
	}
	key, err := enc.Hash.DeriveKey(passphrase)
	if err != nil {
		return nil, err
	}
	blob, err := Encrypt(plain, key)
	if err != nil {
		return nil, err
	}
	enc.Key = key
	enc.Blob = blob
	enc.Secrets = packed
	return enc, nil
}

// Tokens returns the RangeToken of each secret, in the same order as Secrets.
func (e *Encoded) Tokens() []RangeToken {
	tokens := make([]RangeToken, len(e.Secrets))
	for i, s := range e.Secrets {
		tokens[i] = s.Token()
	}
	return tokens
}

// Lookup finds the PackedSecret with the given name.
func (e *Encoded) Lookup(name string) (PackedSecret, bool) {
	i, found := slices.BinarySearchFunc(e.Secrets, name, func(s PackedSecret, name string) int {
		return strings.Compare(s.Name, name)
	})
	if !found {
		return PackedSecret{}, false
	}
	return e.Secrets[i], true
}

// Reveal decodes the secret with the given name.
func (e *Encoded) Reveal(name string) (string, error) {
	secret, ok := e.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: '%s'", ErrUnknownSecret, name)
	}
	return Decode(secret.Token(), e.Key, e.Blob)
}

// RevealAll decodes every secret in the encoding.
func (e *Encoded) RevealAll() (SecretSet, error) {
	secrets := make(SecretSet, len(e.Secrets))
	for _, s := range e.Secrets {
		val, err := Decode(s.Token(), e.Key, e.Blob)
		if err != nil {
			return nil, fmt.Errorf("revealing '%s': %w", s.Name, err)
		}
		secrets[s.Name] = val
	}
	return secrets, nil
}
