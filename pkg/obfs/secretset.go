package obfs

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/tidwall/jsonc"
)

// SecretSet maps secret names to their plain text values.
type SecretSet map[string]string

// Names returns the names of all secrets with a non-empty value, in ascending byte-wise order.
// This is the order used for packing, and therefore for generated identifiers.
func (s SecretSet) Names() []string {
	names := make([]string, 0, len(s))
	for name, val := range s {
		if len(val) == 0 {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ParseSecretSet parses a flat JSON object of string values.
// Comments and trailing commas are accepted, so secrets files may be annotated.
// Any other shape, including nested objects, arrays, numbers, or null values, results in ErrSpecMalformed.
func ParseSecretSet(data []byte) (SecretSet, error) {
	// Pointers tell a null value apart from an empty string.
	var raw map[string]*string
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpecMalformed, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrSpecMalformed)
	}
	secrets := make(SecretSet, len(raw))
	for name, val := range raw {
		if val == nil {
			return nil, fmt.Errorf("%w: secret '%s' is null", ErrSpecMalformed, name)
		}
		secrets[name] = *val
	}
	return secrets, nil
}

// LoadSecretSet reads all of r and parses it with ParseSecretSet.
func LoadSecretSet(r io.Reader) (SecretSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputUnreadable, err)
	}
	return ParseSecretSet(data)
}

// ReadSecretSet reads and parses the secrets file at path.
func ReadSecretSet(path string) (SecretSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputUnreadable, err)
	}
	secrets, err := ParseSecretSet(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return secrets, nil
}
