package gen

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/saylorsolutions/obfsecrets/pkg/obfs"
)

// GenerateFile reads the secrets file at input and writes the generated source to output.
// The output file also determines the generated type name, as with OutputFile.
func GenerateFile(input, output string, opts ...ParamOpt) (*Result, error) {
	secrets, err := obfs.ReadSecretSet(input)
	if err != nil {
		return nil, err
	}
	res, err := Render(secrets, append(opts, OutputFile(output))...)
	if err != nil {
		return nil, err
	}
	if err := res.WriteSource(output); err != nil {
		return nil, err
	}
	return res, nil
}

// WriteSource writes the generated source to path.
// The file is replaced atomically, so a failed write never leaves partial output behind.
func (r *Result) WriteSource(path string) error {
	return writeFileAtomic(path, r.Source)
}

// WriteBundle writes the encoded secrets to path as a binary bundle, which can be checked later with obfs.Encoded.UnmarshalBinary.
func (r *Result) WriteBundle(path string) error {
	data, err := r.Encoded.MarshalBinary()
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// SealedBundle returns the bundle of the encoded secrets, sealed with passphrase.
func (r *Result) SealedBundle(passphrase string, opts ...obfs.SealOpt) ([]byte, error) {
	data, err := r.Encoded.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return obfs.Seal(data, passphrase, opts...)
}

// WriteSealedBundle is like WriteBundle, but the bundle is sealed with passphrase first.
func (r *Result) WriteSealedBundle(path, passphrase string, opts ...obfs.SealOpt) error {
	sealed, err := r.SealedBundle(passphrase, opts...)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, sealed)
}

// WriteFile replaces the file at path with data, the same way generated sources are written.
func WriteFile(path string, data []byte) error {
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) (err error) {
	dir, name := filepath.Split(path)
	if len(dir) == 0 {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", obfs.ErrOutputUnwritable, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("%w: %v", obfs.ErrOutputUnwritable, err)
	}
	if err = tmp.Chmod(0644); err != nil {
		return fmt.Errorf("%w: %v", obfs.ErrOutputUnwritable, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", obfs.ErrOutputUnwritable, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", obfs.ErrOutputUnwritable, err)
	}
	return nil
}
