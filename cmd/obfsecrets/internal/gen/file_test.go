package gen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saylorsolutions/obfsecrets/pkg/obfs"
)

func TestResult_Write(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "secrets.go")
	bundle := filepath.Join(dir, "secrets.bin")

	res, err := Render(obfs.SecretSet{"a": "b"}, UsePassphrase("pw"), OutputFile(source))
	require.NoError(t, err)
	require.NoError(t, res.WriteSource(source))
	require.NoError(t, res.WriteBundle(bundle))

	written, err := os.ReadFile(source)
	require.NoError(t, err)
	assert.Equal(t, res.Source, written)

	data, err := os.ReadFile(bundle)
	require.NoError(t, err)
	var enc obfs.Encoded
	require.NoError(t, enc.UnmarshalBinary(data))
	val, err := enc.Reveal("a")
	require.NoError(t, err)
	assert.Equal(t, "b", val)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "No temporary files should be left behind")
}

func TestGenerateFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "secrets.json")
	output := filepath.Join(dir, "build_secrets.go")
	require.NoError(t, os.WriteFile(input, []byte(`{"token": "t0k3n"}`), 0600))

	res, err := GenerateFile(input, output, UsePassphrase("pw"), PackageName("secrets"))
	require.NoError(t, err)
	assert.Equal(t, "build_secrets", res.Params.TypeName)
	written, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, res.Source, written)

	_, err = GenerateFile(filepath.Join(dir, "missing.json"), output)
	assert.ErrorIs(t, err, obfs.ErrInputUnreadable)
}

func TestResult_WriteSealedBundle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.bin")
	res, err := Render(obfs.SecretSet{"a": "b"}, UsePassphrase("pw"))
	require.NoError(t, err)
	require.NoError(t, res.WriteSealedBundle(path, "seal pass", obfs.SealIterations(1<<4)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, obfs.IsSealed(data))
	data, err = obfs.Unseal(data, "seal pass")
	require.NoError(t, err)
	var enc obfs.Encoded
	require.NoError(t, enc.UnmarshalBinary(data))
	assert.Equal(t, res.Encoded, &enc)

	assert.ErrorIs(t, res.WriteSealedBundle(path, ""), obfs.ErrEmptyPassphrase)
}

func TestResult_Write_Neg(t *testing.T) {
	res, err := Render(obfs.SecretSet{"a": "b"}, UsePassphrase("pw"))
	require.NoError(t, err)

	missing := filepath.Join(t.TempDir(), "missing", "secrets.go")
	assert.ErrorIs(t, res.WriteSource(missing), obfs.ErrOutputUnwritable)
	assert.ErrorIs(t, res.WriteBundle(missing), obfs.ErrOutputUnwritable)
}
