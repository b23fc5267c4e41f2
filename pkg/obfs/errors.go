package obfs

import (
	"errors"

	"github.com/saylorsolutions/obfsecrets/pkg/xor"
)

// Input errors indicate the secret source could not be used.
var (
	// ErrInputUnreadable indicates the secret source could not be read.
	ErrInputUnreadable = errors.New("unable to read secrets input")

	// ErrSpecMalformed indicates the input is not a flat JSON object of string values.
	ErrSpecMalformed = errors.New("secrets input must be a flat JSON object of string values")

	// ErrEmptySecretSet indicates no secret with a non-empty value was given.
	ErrEmptySecretSet = errors.New("no non-empty secrets to obfuscate")

	// ErrSecretsTooLarge indicates the packed secrets exceed the 32-bit offset range of a RangeToken.
	ErrSecretsTooLarge = errors.New("secrets exceed the maximum packed size")
)

// Codec errors indicate a key, token, or blob that can't be used together.
var (
	// ErrEmptyKey indicates an empty screening key.
	ErrEmptyKey = xor.ErrEmptyKey

	// ErrUnknownHash indicates an unsupported key derivation hash.
	ErrUnknownHash = errors.New("unknown key derivation hash")

	// ErrInvalidSecretEncoding indicates a decoded secret is out of range or not valid UTF-8.
	// This is never expected for artifacts produced by this package.
	ErrInvalidSecretEncoding = errors.New("invalid secret encoding")

	// ErrUnknownSecret indicates a secret name that isn't part of an encoding.
	ErrUnknownSecret = errors.New("unknown secret")
)

// Output errors indicate a failure persisting generated artifacts.
var (
	// ErrOutputUnwritable indicates the output destination could not be written.
	ErrOutputUnwritable = errors.New("unable to write output")

	// ErrInvalidBundle indicates a binary bundle is corrupt or from an unsupported version.
	ErrInvalidBundle = errors.New("invalid secrets bundle")

	// ErrEmptyPassphrase indicates an attempt to seal or unseal a bundle without a passphrase.
	ErrEmptyPassphrase = errors.New("cannot seal with an empty passphrase")
)
